package workout

import (
	"slices"
	"strings"

	"github.com/myrjola/pilatesflow/internal/catalog"
)

// EnergyBand is an inclusive intensity range used as a soft filter in the foundation and peak phases.
type EnergyBand struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether intensity lies within the band.
func (b EnergyBand) Contains(intensity int) bool {
	return b.Min <= intensity && intensity <= b.Max
}

// Energy band presets offered to users.
//
//nolint:gochecknoglobals // read-only presets.
var (
	EnergyGentle      = EnergyBand{Min: 1, Max: 2}
	EnergyModerate    = EnergyBand{Min: 2, Max: 3}
	EnergyChallenging = EnergyBand{Min: 3, Max: 4}
	EnergyIntense     = EnergyBand{Min: 4, Max: 5}
	// EnergyAny accepts every intensity.
	EnergyAny = EnergyBand{Min: catalog.MinIntensity, Max: catalog.MaxIntensity}
)

// EnergyLabels lists the preset names in ascending intensity.
func EnergyLabels() []string {
	return []string{"Gentle", "Moderate", "Challenging", "Intense"}
}

// ParseEnergyBand maps a preset name to its band, ignoring case. Unknown names map to EnergyAny.
func ParseEnergyBand(label string) EnergyBand {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "gentle":
		return EnergyGentle
	case "moderate":
		return EnergyModerate
	case "challenging":
		return EnergyChallenging
	case "intense":
		return EnergyIntense
	default:
		return EnergyAny
	}
}

// Request holds the constraints of a generated plan.
type Request struct {
	DurationMinutes float64
	// Apparatus may be catalog.ApparatusMixed to select from every apparatus.
	Apparatus catalog.Apparatus
	// Theme may be catalog.ThemeAny to skip theme narrowing.
	Theme  catalog.Theme
	Energy EnergyBand
}

// Entry is an exercise placed in a plan slot.
type Entry struct {
	catalog.Exercise
	// PhaseLabel is the capitalized phase of the slot. It is set at generation time and survives swaps, so it may
	// differ from the phase of the exercise that currently fills the slot.
	PhaseLabel string `json:"phase_label"`
}

func newEntry(e catalog.Exercise, phaseLabel string) Entry {
	return Entry{Exercise: e.Clone(), PhaseLabel: phaseLabel}
}

// Plan is an ordered workout. Entries are grouped by phase in class order and never share an exercise ID.
type Plan []Entry

// IDs returns the set of exercise IDs in the plan.
func (p Plan) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(p))
	for _, e := range p {
		ids[e.ID] = struct{}{}
	}
	return ids
}

// Contains reports whether the exercise id is already in the plan.
func (p Plan) Contains(id string) bool {
	return slices.ContainsFunc(p, func(e Entry) bool { return e.ID == id })
}

// TotalMinutes sums the entry durations.
func (p Plan) TotalMinutes() float64 {
	var total float64
	for _, e := range p {
		total += e.DurationMinutes
	}
	return total
}

// PhaseMinutes sums the entry durations per slot phase label.
func (p Plan) PhaseMinutes() map[string]float64 {
	minutes := make(map[string]float64)
	for _, e := range p {
		minutes[e.PhaseLabel] += e.DurationMinutes
	}
	return minutes
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	if p == nil {
		return nil
	}
	out := make(Plan, len(p))
	for i, e := range p {
		out[i] = newEntry(e.Exercise, e.PhaseLabel)
	}
	return out
}
