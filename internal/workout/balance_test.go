package workout_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/workout"
)

func entry(id, label, category string, themes ...catalog.Theme) workout.Entry {
	return workout.Entry{
		Exercise:   exercise(id, catalog.ApparatusMat, catalog.PhaseFoundation, category, 3, themes...),
		PhaseLabel: label,
	}
}

func TestAnalyze(t *testing.T) {
	balanced := workout.Plan{
		entry("w", "Warmup", "Footwork", catalog.ThemeLowerBody),
		entry("f", "Foundation", "Arm Work", catalog.ThemeUpperBody),
		entry("p", "Peak", "Supine Abdominals", catalog.ThemeCore),
		entry("c", "Cooldown", "Stretch", catalog.ThemeFlexibility),
	}
	lopsided := workout.Plan{
		entry("a", "Foundation", "Stretch", catalog.ThemeFlexibility),
		entry("b", "Foundation", "Stretch", catalog.ThemeFlexibility),
	}

	tests := []struct {
		name  string
		plan  workout.Plan
		theme catalog.Theme
		want  workout.BalanceReport
	}{
		{
			name:  "empty plan",
			plan:  workout.Plan{},
			theme: catalog.ThemeCore,
			want: workout.BalanceReport{
				Score:            0,
				Notes:            []string{},
				PhaseCounts:      map[string]int{},
				CategoryCounts:   map[string]int{},
				BodyRegionCounts: map[catalog.Theme]int{},
				ThemesCovered:    []catalog.Theme{},
			},
		},
		{
			name:  "balanced",
			plan:  balanced,
			theme: catalog.ThemeCore,
			want: workout.BalanceReport{
				Score:          100,
				Notes:          []string{workout.NoteWellBalanced},
				PhaseCounts:    map[string]int{"Warmup": 1, "Foundation": 1, "Peak": 1, "Cooldown": 1},
				CategoryCounts: map[string]int{"Footwork": 1, "Arm Work": 1, "Supine Abdominals": 1, "Stretch": 1},
				BodyRegionCounts: map[catalog.Theme]int{
					catalog.ThemeUpperBody: 1,
					catalog.ThemeLowerBody: 1,
					catalog.ThemeCore:      1,
				},
				ThemesCovered: []catalog.Theme{
					catalog.ThemeCore, catalog.ThemeFlexibility, catalog.ThemeLowerBody, catalog.ThemeUpperBody,
				},
			},
		},
		{
			name:  "every penalty",
			plan:  lopsided,
			theme: catalog.ThemeBalance,
			want: workout.BalanceReport{
				Score: 20,
				Notes: []string{
					workout.NoteLightWarmup,
					workout.NoteLightCooldown,
					`Your theme "Balance" isn't well represented: try swapping in themed exercises.`,
					workout.NoteNoUpperBody,
					workout.NoteNoLowerBody,
					workout.NoteNoCore,
					workout.NoteLowVariety,
				},
				PhaseCounts:      map[string]int{"Foundation": 2},
				CategoryCounts:   map[string]int{"Stretch": 2},
				BodyRegionCounts: map[catalog.Theme]int{},
				ThemesCovered:    []catalog.Theme{catalog.ThemeFlexibility},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := workout.Analyze(tt.plan, tt.theme)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnalyze_anyThemeIsNeverMissing(t *testing.T) {
	plan := workout.Plan{
		entry("w", "Warmup", "Footwork", catalog.ThemeLowerBody, catalog.ThemeCore),
		entry("f", "Foundation", "Arm Work", catalog.ThemeUpperBody),
		entry("c", "Cooldown", "Stretch", catalog.ThemeFlexibility),
	}
	if got := workout.Analyze(plan, catalog.ThemeAny); got.Score != 100 {
		t.Errorf("Score = %d, want 100; notes %v", got.Score, got.Notes)
	}
	if got := workout.Analyze(plan, catalog.ThemeBalance); got.Score != 100-workout.ThemeMissingPenalty {
		t.Errorf("Score = %d, want %d", got.Score, 100-workout.ThemeMissingPenalty)
	}
}

func TestAnalyze_pureAndBounded(t *testing.T) {
	for seed := range uint64(30) {
		g := newTestGenerator(t, catalog.Default(), seed)
		theme := catalog.Themes()[int(seed)%len(catalog.Themes())]
		plan := g.Generate(workout.Request{
			DurationMinutes: 30 + float64(seed),
			Apparatus:       catalog.Apparatuses()[int(seed)%len(catalog.Apparatuses())],
			Theme:           theme,
			Energy:          workout.EnergyModerate,
		})

		first := workout.Analyze(plan, theme)
		if first.Score < 0 || first.Score > workout.MaxBalanceScore {
			t.Errorf("seed %d: score %d out of range", seed, first.Score)
		}
		if len(first.Notes) == 0 && len(plan) > 0 {
			t.Errorf("seed %d: no notes for non-empty plan", seed)
		}

		// Unrelated randomness between calls must not change the report.
		g.Generate(workout.Request{DurationMinutes: 60, Apparatus: catalog.ApparatusMixed, Theme: catalog.ThemeAny})
		if diff := cmp.Diff(first, workout.Analyze(plan, theme)); diff != "" {
			t.Errorf("seed %d: Analyze() not deterministic (-first +second):\n%s", seed, diff)
		}
	}
}
