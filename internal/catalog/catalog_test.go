package catalog_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/pilatesflow/internal/catalog"
)

func validExercise(id string) catalog.Exercise {
	return catalog.Exercise{
		ID:               id,
		Name:             "Hundred",
		Apparatus:        catalog.ApparatusMat,
		Category:         "Supine Abdominals",
		Phase:            catalog.PhaseFoundation,
		Intensity:        3,
		EquipmentSetting: catalog.NotApplicable,
		DurationMinutes:  3,
		Cues:             []string{"Pump arms"},
		Themes:           []catalog.Theme{catalog.ThemeCore},
	}
}

func TestDefault(t *testing.T) {
	c := catalog.Default()
	if c.Len() < 60 {
		t.Fatalf("Default() has %d exercises, want at least 60", c.Len())
	}

	perApparatusPhase := make(map[catalog.Apparatus]map[catalog.Phase]int)
	for _, e := range c.All() {
		if perApparatusPhase[e.Apparatus] == nil {
			perApparatusPhase[e.Apparatus] = make(map[catalog.Phase]int)
		}
		perApparatusPhase[e.Apparatus][e.Phase]++
	}
	for _, a := range catalog.Apparatuses() {
		for _, p := range catalog.Phases() {
			if perApparatusPhase[a][p] == 0 {
				t.Errorf("no %s exercises in phase %s", a, p)
			}
		}
	}

	e, ok := c.Get("ref_footwork_parallel")
	if !ok {
		t.Fatal("Get(ref_footwork_parallel) not found")
	}
	if e.Apparatus != catalog.ApparatusReformer || e.Phase != catalog.PhaseWarmup {
		t.Errorf("unexpected exercise %+v", e)
	}
}

func TestCatalog_returnsCopies(t *testing.T) {
	c, err := catalog.New([]catalog.Exercise{validExercise("mat_hundred")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	e, _ := c.Get("mat_hundred")
	e.Cues[0] = "mutated"
	e.Themes[0] = catalog.ThemeBalance
	all := c.All()
	all[0].Name = "mutated"

	got, _ := c.Get("mat_hundred")
	if diff := cmp.Diff(validExercise("mat_hundred"), got); diff != "" {
		t.Errorf("catalog record mutated (-want +got):\n%s", diff)
	}
}

func TestNew_invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *catalog.Exercise)
	}{
		{name: "empty id", mutate: func(e *catalog.Exercise) { e.ID = "" }},
		{name: "unknown apparatus", mutate: func(e *catalog.Exercise) { e.Apparatus = "Barrel" }},
		{name: "wildcard apparatus", mutate: func(e *catalog.Exercise) { e.Apparatus = catalog.ApparatusMixed }},
		{name: "unknown phase", mutate: func(e *catalog.Exercise) { e.Phase = "stretch" }},
		{name: "intensity too low", mutate: func(e *catalog.Exercise) { e.Intensity = 0 }},
		{name: "intensity too high", mutate: func(e *catalog.Exercise) { e.Intensity = 6 }},
		{name: "zero duration", mutate: func(e *catalog.Exercise) { e.DurationMinutes = 0 }},
		{name: "unknown theme", mutate: func(e *catalog.Exercise) { e.Themes = []catalog.Theme{"Cardio"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExercise("x")
			tt.mutate(&e)
			if _, err := catalog.New([]catalog.Exercise{e}); !errors.Is(err, catalog.ErrInvalidCatalog) {
				t.Errorf("New() error = %v, want ErrInvalidCatalog", err)
			}
		})
	}
}

func TestNew_duplicateID(t *testing.T) {
	_, err := catalog.New([]catalog.Exercise{validExercise("a"), validExercise("a")})
	if !errors.Is(err, catalog.ErrInvalidCatalog) {
		t.Errorf("New() error = %v, want ErrInvalidCatalog", err)
	}
}

func TestParse_malformed(t *testing.T) {
	if _, err := catalog.Parse([]byte(`{"id":`)); !errors.Is(err, catalog.ErrInvalidCatalog) {
		t.Errorf("Parse() error = %v, want ErrInvalidCatalog", err)
	}
}

func TestParseEnums(t *testing.T) {
	a, err := catalog.ParseApparatus(" reformer ")
	if err != nil || a != catalog.ApparatusReformer {
		t.Errorf("ParseApparatus() = %q, %v", a, err)
	}
	if a, _ = catalog.ParseApparatus("mixed"); a != catalog.ApparatusMixed {
		t.Errorf("ParseApparatus(mixed) = %q", a)
	}
	if _, err = catalog.ParseApparatus("barrel"); err == nil {
		t.Error("ParseApparatus(barrel) expected error")
	}

	th, err := catalog.ParseTheme("lower body")
	if err != nil || th != catalog.ThemeLowerBody {
		t.Errorf("ParseTheme() = %q, %v", th, err)
	}
	if th, _ = catalog.ParseTheme("ANY"); th != catalog.ThemeAny {
		t.Errorf("ParseTheme(ANY) = %q", th)
	}

	p, err := catalog.ParsePhase("Peak")
	if err != nil || p != catalog.PhasePeak {
		t.Errorf("ParsePhase() = %q, %v", p, err)
	}
	if got := catalog.PhaseCooldown.Label(); got != "Cooldown" {
		t.Errorf("Label() = %q, want Cooldown", got)
	}
}
