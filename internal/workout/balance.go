package workout

import (
	"fmt"
	"slices"

	"github.com/myrjola/pilatesflow/internal/catalog"
)

// Balance scoring constants.
const (
	MaxBalanceScore = 100
	// MinPhaseSharePercent is the share of entries warmup and cooldown should each hold.
	MinPhaseSharePercent = 10
	MinCategories        = 3

	LightWarmupPenalty   = 10
	LightCooldownPenalty = 10
	ThemeMissingPenalty  = 15
	NoUpperBodyPenalty   = 10
	NoLowerBodyPenalty   = 10
	NoCorePenalty        = 15
	LowVarietyPenalty    = 10
)

// Balance notes.
const (
	NoteLightWarmup   = "Light on warmup: consider adding a prep exercise."
	NoteLightCooldown = "Light on cooldown: add a stretch or mobility move."
	NoteNoUpperBody   = "No upper body work: consider adding arms or pulling straps."
	NoteNoLowerBody   = "No lower body work: consider adding footwork or hip exercises."
	NoteNoCore        = "No core focus, the center of Pilates! Add abdominal work."
	NoteLowVariety    = "Low variety: try exercises from different categories for a more complete session."
	NoteWellBalanced  = "Well-balanced workout! Great mix of phases, body regions and categories."
)

// BalanceReport is advisory feedback on a plan's coverage. Score is between 0 and MaxBalanceScore. PhaseCounts is
// keyed by slot phase label and BodyRegionCounts counts entries tagged Upper Body, Lower Body and Core.
type BalanceReport struct {
	Score            int                   `json:"score"`
	Notes            []string              `json:"notes"`
	PhaseCounts      map[string]int        `json:"phase_counts"`
	CategoryCounts   map[string]int        `json:"category_counts"`
	BodyRegionCounts map[catalog.Theme]int `json:"body_region_counts"`
	ThemesCovered    []catalog.Theme       `json:"themes_covered"`
}

// Analyze scores plan against phase, body region and variety heuristics. It is a pure function of its arguments.
//
// An empty plan scores zero without notes.
func Analyze(plan Plan, theme catalog.Theme) BalanceReport {
	report := BalanceReport{
		Score:            0,
		Notes:            []string{},
		PhaseCounts:      make(map[string]int),
		CategoryCounts:   make(map[string]int),
		BodyRegionCounts: make(map[catalog.Theme]int),
		ThemesCovered:    []catalog.Theme{},
	}
	if len(plan) == 0 {
		return report
	}

	covered := make(map[catalog.Theme]struct{})
	for _, e := range plan {
		report.PhaseCounts[e.PhaseLabel]++
		report.CategoryCounts[e.Category]++
		for _, t := range e.Themes {
			covered[t] = struct{}{}
		}
		for _, region := range []catalog.Theme{catalog.ThemeUpperBody, catalog.ThemeLowerBody, catalog.ThemeCore} {
			if e.HasTheme(region) {
				report.BodyRegionCounts[region]++
			}
		}
	}
	for t := range covered {
		report.ThemesCovered = append(report.ThemesCovered, t)
	}
	slices.Sort(report.ThemesCovered)

	score := MaxBalanceScore
	penalize := func(penalty int, note string) {
		score -= penalty
		report.Notes = append(report.Notes, note)
	}

	total := len(plan)
	if sharePercent(report.PhaseCounts[catalog.PhaseWarmup.Label()], total) < MinPhaseSharePercent {
		penalize(LightWarmupPenalty, NoteLightWarmup)
	}
	if sharePercent(report.PhaseCounts[catalog.PhaseCooldown.Label()], total) < MinPhaseSharePercent {
		penalize(LightCooldownPenalty, NoteLightCooldown)
	}
	if _, ok := covered[theme]; theme != catalog.ThemeAny && !ok {
		penalize(ThemeMissingPenalty, themeMissingNote(theme))
	}
	if report.BodyRegionCounts[catalog.ThemeUpperBody] == 0 {
		penalize(NoUpperBodyPenalty, NoteNoUpperBody)
	}
	if report.BodyRegionCounts[catalog.ThemeLowerBody] == 0 {
		penalize(NoLowerBodyPenalty, NoteNoLowerBody)
	}
	if report.BodyRegionCounts[catalog.ThemeCore] == 0 {
		penalize(NoCorePenalty, NoteNoCore)
	}
	if len(report.CategoryCounts) < MinCategories {
		penalize(LowVarietyPenalty, NoteLowVariety)
	}

	if len(report.Notes) == 0 {
		report.Notes = append(report.Notes, NoteWellBalanced)
	}
	report.Score = max(0, min(MaxBalanceScore, score))
	return report
}

func themeMissingNote(theme catalog.Theme) string {
	return fmt.Sprintf("Your theme %q isn't well represented: try swapping in themed exercises.", theme)
}

func sharePercent(count, total int) float64 {
	return float64(count) / float64(total) * 100 //nolint:mnd // percent
}
