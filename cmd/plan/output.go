package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/workout"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

type exerciseOutput struct {
	Phase     string   `json:"phase"             yaml:"phase"`
	ID        string   `json:"id"                yaml:"id"`
	Name      string   `json:"name"              yaml:"name"`
	Apparatus string   `json:"apparatus"         yaml:"apparatus"`
	Category  string   `json:"category"          yaml:"category"`
	Intensity int      `json:"intensity"         yaml:"intensity"`
	Setting   string   `json:"equipment_setting" yaml:"equipment_setting"`
	Minutes   float64  `json:"duration_minutes"  yaml:"duration_minutes"`
	Themes    []string `json:"themes"            yaml:"themes"`
	Cues      []string `json:"cues"              yaml:"cues"`
}

type balanceOutput struct {
	Score int      `json:"score" yaml:"score"`
	Notes []string `json:"notes" yaml:"notes"`
}

type planOutput struct {
	Apparatus    string             `json:"apparatus"     yaml:"apparatus"`
	Theme        string             `json:"theme"         yaml:"theme"`
	Energy       string             `json:"energy"        yaml:"energy"`
	TotalMinutes float64            `json:"total_minutes" yaml:"total_minutes"`
	PhaseMinutes map[string]float64 `json:"phase_minutes" yaml:"phase_minutes"`
	Exercises    []exerciseOutput   `json:"exercises"     yaml:"exercises"`
	Balance      balanceOutput      `json:"balance"       yaml:"balance"`
}

func newExerciseOutput(e catalog.Exercise, phase string) exerciseOutput {
	themes := make([]string, 0, len(e.Themes))
	for _, t := range e.Themes {
		themes = append(themes, string(t))
	}
	return exerciseOutput{
		Phase:     phase,
		ID:        e.ID,
		Name:      e.Name,
		Apparatus: string(e.Apparatus),
		Category:  e.Category,
		Intensity: e.Intensity,
		Setting:   e.EquipmentSetting,
		Minutes:   e.DurationMinutes,
		Themes:    themes,
		Cues:      e.Cues,
	}
}

func newPlanOutput(req workout.Request, energy string, plan workout.Plan) planOutput {
	exercises := make([]exerciseOutput, 0, len(plan))
	for _, entry := range plan {
		exercises = append(exercises, newExerciseOutput(entry.Exercise, entry.PhaseLabel))
	}
	report := workout.Analyze(plan, req.Theme)
	return planOutput{
		Apparatus:    string(req.Apparatus),
		Theme:        string(req.Theme),
		Energy:       energy,
		TotalMinutes: plan.TotalMinutes(),
		PhaseMinutes: plan.PhaseMinutes(),
		Exercises:    exercises,
		Balance:      balanceOutput{Score: report.Score, Notes: report.Notes},
	}
}

func write(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2) //nolint:mnd // two spaces
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("close yaml encoder: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q, want %s or %s", format, formatJSON, formatYAML)
	}
	return nil
}
