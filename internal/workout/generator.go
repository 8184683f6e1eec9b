// Package workout generates phase-structured Pilates plans and edits them slot by slot.
package workout

import (
	"math/rand/v2"

	"github.com/myrjola/pilatesflow/internal/catalog"
)

// Selection constants.
const (
	// MinThemedPerPhase is the number of theme matches a phase needs before it is left alone.
	MinThemedPerPhase = 2
	// ThemeBackfillPerPhase caps the non-matching exercises added to a sparse phase.
	ThemeBackfillPerPhase = 3
	// MinEnergyCandidates is the number of in-band candidates required for the energy filter to apply.
	MinEnergyCandidates = 2
	// PhaseOverflowMinutes is how far a phase may run over its time budget.
	PhaseOverflowMinutes = 1.0
	// SwapIntensityTolerance bounds the intensity difference of a fallback swap.
	SwapIntensityTolerance = 1
)

// PhaseRatio is the share of the session duration given to a phase.
type PhaseRatio struct {
	Phase catalog.Phase
	Ratio float64
}

// PhaseRatios returns the time split of a session in class order. It models an intensity bell curve.
func PhaseRatios() []PhaseRatio {
	return []PhaseRatio{
		{Phase: catalog.PhaseWarmup, Ratio: 0.2},
		{Phase: catalog.PhaseFoundation, Ratio: 0.3},
		{Phase: catalog.PhasePeak, Ratio: 0.3},
		{Phase: catalog.PhaseCooldown, Ratio: 0.2},
	}
}

// Generator builds and edits plans over a catalog.
//
// The random source is the only non-determinism. A Generator is not safe for concurrent use because *rand.Rand
// isn't.
type Generator struct {
	catalog *catalog.Catalog
	rng     *rand.Rand
}

// NewGenerator constructs a Generator. Seed rng with rand.NewPCG for reproducible plans.
func NewGenerator(cat *catalog.Catalog, rng *rand.Rand) *Generator {
	return &Generator{
		catalog: cat,
		rng:     rng,
	}
}

// Generate builds a plan that fills each phase's time budget from the filtered catalog.
//
// Sparse catalogs produce empty phases, or an empty plan, rather than errors.
func (g *Generator) Generate(req Request) Plan {
	pool := g.selectionPool(req.Apparatus, req.Theme)
	used := make(map[string]struct{})
	plan := Plan{}

	for _, pr := range PhaseRatios() {
		budget := req.DurationMinutes * pr.Ratio
		candidates := g.phaseCandidates(pool, pr.Phase, used, req.Energy)
		g.shuffle(candidates)

		var phaseMinutes float64
		for _, e := range candidates {
			if phaseMinutes+e.DurationMinutes > budget+PhaseOverflowMinutes {
				continue
			}
			plan = append(plan, newEntry(e, pr.Phase.Label()))
			used[e.ID] = struct{}{}
			phaseMinutes += e.DurationMinutes
		}
	}

	return plan
}

// selectionPool applies the apparatus filter and the theme narrowing with per-phase backfill.
func (g *Generator) selectionPool(apparatus catalog.Apparatus, theme catalog.Theme) []catalog.Exercise {
	pool := g.catalog.Filter(func(e catalog.Exercise) bool {
		return apparatus == catalog.ApparatusMixed || e.Apparatus == apparatus
	})
	if theme == catalog.ThemeAny {
		return pool
	}

	var themed []catalog.Exercise
	for _, e := range pool {
		if e.HasTheme(theme) {
			themed = append(themed, e)
		}
	}
	for _, phase := range catalog.Phases() {
		matches := 0
		for _, e := range themed {
			if e.Phase == phase {
				matches++
			}
		}
		if matches >= MinThemedPerPhase {
			continue
		}
		added := 0
		for _, e := range pool {
			if added == ThemeBackfillPerPhase {
				break
			}
			if e.Phase == phase && !e.HasTheme(theme) {
				themed = append(themed, e)
				added++
			}
		}
	}

	if len(themed) == 0 {
		return pool
	}
	return themed
}

// phaseCandidates returns the unused pool members of phase, energy-filtered for the foundation and peak phases.
func (g *Generator) phaseCandidates(
	pool []catalog.Exercise,
	phase catalog.Phase,
	used map[string]struct{},
	energy EnergyBand,
) []catalog.Exercise {
	var candidates []catalog.Exercise
	for _, e := range pool {
		if _, ok := used[e.ID]; ok || e.Phase != phase {
			continue
		}
		candidates = append(candidates, e)
	}

	if phase != catalog.PhaseFoundation && phase != catalog.PhasePeak {
		return candidates
	}
	var inBand []catalog.Exercise
	for _, e := range candidates {
		if energy.Contains(e.Intensity) {
			inBand = append(inBand, e)
		}
	}
	if len(inBand) >= MinEnergyCandidates {
		return inBand
	}
	return candidates
}

func (g *Generator) shuffle(exercises []catalog.Exercise) {
	g.rng.Shuffle(len(exercises), func(i, j int) {
		exercises[i], exercises[j] = exercises[j], exercises[i]
	})
}
