package workout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/myrjola/pilatesflow/internal/catalog"
)

// ErrDuplicateExercise is returned when a replacement is already used elsewhere in the plan.
var ErrDuplicateExercise = errors.New("exercise already in plan")

// Swap picks a random replacement for the entry at index.
//
// Candidates share the entry's category and phase. When there are none, exercises of the same phase and apparatus
// within SwapIntensityTolerance are considered instead. Exercises already in the plan are never offered. The
// replacement keeps the slot's PhaseLabel. The plan is not modified; ok is false when nothing qualifies.
//
// Swap panics if index is out of range.
func (g *Generator) Swap(plan Plan, index int) (Entry, bool) {
	current := plan[index]
	inPlan := plan.IDs()

	notInPlan := func(e catalog.Exercise) bool {
		_, ok := inPlan[e.ID]
		return !ok
	}
	samePhase := func(e catalog.Exercise) bool {
		return strings.EqualFold(string(e.Phase), string(current.Phase))
	}

	candidates := g.catalog.Filter(func(e catalog.Exercise) bool {
		return notInPlan(e) && samePhase(e) && e.Category == current.Category
	})
	if len(candidates) == 0 {
		candidates = g.catalog.Filter(func(e catalog.Exercise) bool {
			return notInPlan(e) && samePhase(e) && e.Apparatus == current.Apparatus &&
				abs(e.Intensity-current.Intensity) <= SwapIntensityTolerance
		})
	}
	if len(candidates) == 0 {
		return Entry{}, false
	}

	replacement := candidates[g.rng.IntN(len(candidates))]
	return newEntry(replacement, current.PhaseLabel), true
}

// Replace returns a copy of plan with the entry at index replaced by e, keeping the slot's PhaseLabel.
//
// Replacing an entry with itself is allowed. Replace panics if index is out of range.
func Replace(plan Plan, index int, e catalog.Exercise) (Plan, error) {
	current := plan[index]
	for i, entry := range plan {
		if i != index && entry.ID == e.ID {
			return nil, fmt.Errorf("replace entry %d with %s: %w", index, e.ID, ErrDuplicateExercise)
		}
	}
	out := plan.Clone()
	out[index] = newEntry(e, current.PhaseLabel)
	return out, nil
}

// BrowseFilter narrows the catalog listing used for manual replacements. Zero fields match everything.
type BrowseFilter struct {
	Phase     catalog.Phase
	Apparatus catalog.Apparatus
	// Search is matched case-insensitively against name, category and themes.
	Search string
}

func (f BrowseFilter) matches(e catalog.Exercise) bool {
	if f.Phase != "" && e.Phase != f.Phase {
		return false
	}
	if f.Apparatus != "" && f.Apparatus != catalog.ApparatusMixed && e.Apparatus != f.Apparatus {
		return false
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.Name), search) || strings.Contains(strings.ToLower(e.Category), search) {
		return true
	}
	for _, t := range e.Themes {
		if strings.Contains(strings.ToLower(string(t)), search) {
			return true
		}
	}
	return false
}

// Browse lists the catalog exercises that are not in plan and match filter, in catalog order.
func Browse(cat *catalog.Catalog, plan Plan, filter BrowseFilter) []catalog.Exercise {
	inPlan := plan.IDs()
	return cat.Filter(func(e catalog.Exercise) bool {
		_, used := inPlan[e.ID]
		return !used && filter.matches(e)
	})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
