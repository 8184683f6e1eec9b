package workout

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPlan is returned when a serialized plan can't be decoded.
var ErrMalformedPlan = errors.New("malformed plan")

// Encode serializes plan as a JSON array of entries for storage in the session log.
func Encode(plan Plan) (string, error) {
	if plan == nil {
		plan = Plan{}
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("marshal plan: %w", err)
	}
	return string(data), nil
}

// Decode parses a plan produced by Encode. Decode(Encode(p)) equals p for every non-nil plan.
func Decode(s string) (Plan, error) {
	var plan Plan
	if err := json.Unmarshal([]byte(s), &plan); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPlan, err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: not a JSON array", ErrMalformedPlan)
	}
	return plan, nil
}
