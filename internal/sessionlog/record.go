// Package sessionlog is the append-only log of completed Pilates sessions.
//
// Records are created once and read back in bulk per user. Two backends are provided: SQLite, the default, and a
// Google Sheets worksheet for sharing the log with a spreadsheet.
package sessionlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/workout"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// ErrInvalidRecord is returned for records that can't be logged.
var ErrInvalidRecord = errors.New("invalid session record")

// Record is one logged session. Apparatus is the requested apparatus and may be catalog.ApparatusMixed. Plan holds
// the plan serialized with workout.Encode.
type Record struct {
	ID              uuid.UUID         `json:"id"`
	Timestamp       time.Time         `json:"timestamp"`
	User            string            `json:"user"`
	Theme           catalog.Theme     `json:"theme"`
	Apparatus       catalog.Apparatus `json:"apparatus"`
	DurationMinutes float64           `json:"duration_minutes"`
	Plan            string            `json:"plan"`
	Rating          *int              `json:"rating,omitempty"`
	Notes           string            `json:"notes"`
}

// Store appends and queries records.
type Store interface {
	// Append logs a record.
	Append(ctx context.Context, r Record) error
	// Query returns the user's records, newest first.
	Query(ctx context.Context, user string) ([]Record, error)
}

// NewRecord builds a record for a finished plan. rating is optional.
func NewRecord(
	user string,
	req workout.Request,
	plan workout.Plan,
	rating *int,
	notes string,
	now time.Time,
) (Record, error) {
	if user == "" {
		return Record{}, fmt.Errorf("%w: empty user", ErrInvalidRecord)
	}
	if rating != nil && (*rating < MinRating || *rating > MaxRating) {
		return Record{}, fmt.Errorf("%w: rating %d outside %d-%d", ErrInvalidRecord, *rating, MinRating, MaxRating)
	}
	encoded, err := workout.Encode(plan)
	if err != nil {
		return Record{}, fmt.Errorf("encode plan: %w", err)
	}
	return Record{
		ID:              uuid.New(),
		Timestamp:       now,
		User:            user,
		Theme:           req.Theme,
		Apparatus:       req.Apparatus,
		DurationMinutes: req.DurationMinutes,
		Plan:            encoded,
		Rating:          rating,
		Notes:           notes,
	}, nil
}
