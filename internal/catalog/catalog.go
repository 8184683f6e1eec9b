// Package catalog holds the immutable Pilates exercise library the workout engine selects from.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

//go:embed exercises.json
var defaultExercisesJSON []byte

// ErrInvalidCatalog is returned when the exercise records violate the catalog invariants.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Apparatus is the equipment an exercise is performed on.
type Apparatus string

const (
	ApparatusReformer Apparatus = "Reformer"
	ApparatusMat      Apparatus = "Mat"
	ApparatusChair    Apparatus = "Chair"
	ApparatusCadillac Apparatus = "Cadillac"
	// ApparatusMixed is the wildcard meaning every apparatus. No exercise carries it.
	ApparatusMixed Apparatus = "Mixed"
)

// Apparatuses lists the concrete apparatus values in display order.
func Apparatuses() []Apparatus {
	return []Apparatus{ApparatusReformer, ApparatusMat, ApparatusChair, ApparatusCadillac}
}

// ParseApparatus parses s case-insensitively. The wildcard "Mixed" is accepted.
func ParseApparatus(s string) (Apparatus, error) {
	for _, a := range append(Apparatuses(), ApparatusMixed) {
		if strings.EqualFold(string(a), strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown apparatus %q", s)
}

// Phase is one of the four segments of the class bell curve.
type Phase string

const (
	PhaseWarmup     Phase = "warmup"
	PhaseFoundation Phase = "foundation"
	PhasePeak       Phase = "peak"
	PhaseCooldown   Phase = "cooldown"
)

// Phases returns the phases in class order.
func Phases() []Phase {
	return []Phase{PhaseWarmup, PhaseFoundation, PhasePeak, PhaseCooldown}
}

// Label is the capitalized phase name shown to users, e.g. "Warmup".
func (p Phase) Label() string {
	if p == "" {
		return ""
	}
	s := string(p)
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParsePhase parses a phase name or label case-insensitively.
func ParsePhase(s string) (Phase, error) {
	for _, p := range Phases() {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown phase %q", s)
}

// Theme is a body region or focus tag.
type Theme string

const (
	ThemeCore        Theme = "Core"
	ThemeFlexibility Theme = "Flexibility"
	ThemeLowerBody   Theme = "Lower Body"
	ThemeUpperBody   Theme = "Upper Body"
	ThemeFullBody    Theme = "Full Body"
	ThemeBalance     Theme = "Balance"
	// ThemeAny is the wildcard meaning no theme filtering. No exercise carries it.
	ThemeAny Theme = "Any"
)

// Themes lists the concrete themes in display order.
func Themes() []Theme {
	return []Theme{ThemeCore, ThemeFlexibility, ThemeLowerBody, ThemeUpperBody, ThemeFullBody, ThemeBalance}
}

// ParseTheme parses s case-insensitively. The wildcard "Any" is accepted.
func ParseTheme(s string) (Theme, error) {
	for _, t := range append(Themes(), ThemeAny) {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

const (
	MinIntensity = 1
	MaxIntensity = 5
	// NotApplicable is the equipment setting of exercises without springs, e.g. mat work.
	NotApplicable = "N/A"
)

// Exercise is a single catalog record.
type Exercise struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Apparatus        Apparatus `json:"apparatus"`
	Category         string    `json:"category"`
	Phase            Phase     `json:"phase"`
	Intensity        int       `json:"intensity"`
	EquipmentSetting string    `json:"equipment_setting"`
	DurationMinutes  float64   `json:"duration_minutes"`
	Cues             []string  `json:"cues"`
	Themes           []Theme   `json:"themes"`
}

// HasTheme reports whether the exercise is tagged with t.
func (e Exercise) HasTheme(t Theme) bool {
	return slices.Contains(e.Themes, t)
}

// Clone returns a deep copy so that callers can't mutate catalog records through shared slices.
func (e Exercise) Clone() Exercise {
	e.Cues = slices.Clone(e.Cues)
	e.Themes = slices.Clone(e.Themes)
	return e
}

func (e Exercise) validate() error {
	var errs []error
	if e.ID == "" {
		errs = append(errs, errors.New("empty id"))
	}
	if !slices.Contains(Apparatuses(), e.Apparatus) {
		errs = append(errs, fmt.Errorf("apparatus %q", e.Apparatus))
	}
	if !slices.Contains(Phases(), e.Phase) {
		errs = append(errs, fmt.Errorf("phase %q", e.Phase))
	}
	if e.Intensity < MinIntensity || e.Intensity > MaxIntensity {
		errs = append(errs, fmt.Errorf("intensity %d", e.Intensity))
	}
	if e.DurationMinutes <= 0 {
		errs = append(errs, fmt.Errorf("duration %v", e.DurationMinutes))
	}
	for _, t := range e.Themes {
		if !slices.Contains(Themes(), t) {
			errs = append(errs, fmt.Errorf("theme %q", t))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("exercise %q: %w", e.ID, errors.Join(errs...))
	}
	return nil
}

// Catalog is a validated, read-only collection of exercises. The zero value is an empty catalog.
type Catalog struct {
	exercises []Exercise
	byID      map[string]int
}

// New validates exercises and builds a catalog from a copy of them.
func New(exercises []Exercise) (*Catalog, error) {
	c := &Catalog{
		exercises: make([]Exercise, 0, len(exercises)),
		byID:      make(map[string]int, len(exercises)),
	}
	var errs []error
	for _, e := range exercises {
		if err := e.validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.byID[e.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate id %q", e.ID))
			continue
		}
		c.byID[e.ID] = len(c.exercises)
		c.exercises = append(c.exercises, e.Clone())
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	return c, nil
}

// Parse decodes a JSON array of exercises and builds a catalog from it.
func Parse(data []byte) (*Catalog, error) {
	var exercises []Exercise
	if err := json.Unmarshal(data, &exercises); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %w", ErrInvalidCatalog, err)
	}
	return New(exercises)
}

//nolint:gochecknoglobals // the embedded library is parsed once and shared read-only.
var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(defaultExercisesJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded exercise library: %v", err))
	}
	return c
})

// Default returns the built-in exercise library.
func Default() *Catalog {
	return defaultCatalog()
}

// Len returns the number of exercises.
func (c *Catalog) Len() int {
	return len(c.exercises)
}

// All returns copies of every exercise in catalog order.
func (c *Catalog) All() []Exercise {
	return c.Filter(func(Exercise) bool { return true })
}

// Filter returns copies of the exercises matching keep, in catalog order.
func (c *Catalog) Filter(keep func(Exercise) bool) []Exercise {
	out := make([]Exercise, 0)
	for _, e := range c.exercises {
		if keep(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Get looks up an exercise by id.
func (c *Catalog) Get(id string) (Exercise, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Exercise{}, false
	}
	return c.exercises[i].Clone(), true
}
