package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/ptr"
	"github.com/myrjola/pilatesflow/internal/sessionlog"
	"github.com/myrjola/pilatesflow/internal/sqlite"
	"github.com/myrjola/pilatesflow/internal/testhelpers"
	"github.com/myrjola/pilatesflow/internal/workout"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(testhelpers.NewTestLogger(t))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func Test_generate(t *testing.T) {
	args := []string{"generate", "--duration", "45", "--apparatus", "reformer", "--theme", "Core",
		"--energy", "Moderate", "--seed", "7"}
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var plan planOutput
	if err = json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode plan: %v\n%s", err, out)
	}
	if plan.Apparatus != "Reformer" || plan.Theme != "Core" || plan.Energy != "Moderate" {
		t.Errorf("request = %s/%s/%s, want Reformer/Core/Moderate", plan.Apparatus, plan.Theme, plan.Energy)
	}
	if len(plan.Exercises) == 0 {
		t.Fatal("want exercises in plan")
	}
	for _, e := range plan.Exercises {
		if e.Apparatus != "Reformer" {
			t.Errorf("exercise %s on %s, want Reformer", e.ID, e.Apparatus)
		}
	}

	again, err := execute(t, args...)
	if err != nil {
		t.Fatalf("generate again: %v", err)
	}
	if diff := cmp.Diff(out, again); diff != "" {
		t.Errorf("same seed gave different plans (-first +second):\n%s", diff)
	}
}

func Test_generate_yaml(t *testing.T) {
	out, err := execute(t, "generate", "--apparatus", "Mat", "--seed", "3", "--format", "yaml")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var plan planOutput
	if err = yaml.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, out)
	}
	if plan.Apparatus != "Mat" || plan.Theme != string(catalog.ThemeAny) {
		t.Errorf("request = %s/%s, want Mat/Any", plan.Apparatus, plan.Theme)
	}
}

func Test_generate_invalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown format", args: []string{"generate", "--format", "toml"}, want: "unknown format"},
		{name: "unknown apparatus", args: []string{"generate", "--apparatus", "Barrel"}, want: "parse --apparatus"},
		{name: "unknown theme", args: []string{"generate", "--theme", "Cardio"}, want: "parse --theme"},
		{name: "zero duration", args: []string{"generate", "--duration", "0"}, want: "duration must be positive"},
		{name: "unknown phase", args: []string{"catalog", "--phase", "encore"}, want: "parse --phase"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func Test_catalog(t *testing.T) {
	out, err := execute(t, "catalog", "--phase", "warmup", "--apparatus", "Mat")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	var exercises []exerciseOutput
	if err = json.Unmarshal([]byte(out), &exercises); err != nil {
		t.Fatalf("decode exercises: %v\n%s", err, out)
	}
	want := workout.Browse(catalog.Default(), nil,
		workout.BrowseFilter{Phase: catalog.PhaseWarmup, Apparatus: catalog.ApparatusMat, Search: ""})
	if len(exercises) != len(want) {
		t.Fatalf("got %d exercises, want %d", len(exercises), len(want))
	}
	for i, e := range exercises {
		if e.ID != want[i].ID || e.Phase != "Warmup" || e.Apparatus != "Mat" {
			t.Errorf("exercise %d = %s %s %s, want %s Warmup Mat", i, e.ID, e.Phase, e.Apparatus, want[i].ID)
		}
	}
}

func Test_history(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "pilatesflow.sqlite3")
	xlsxPath := filepath.Join(dir, "history.xlsx")

	db, err := sqlite.NewDatabase(t.Context(), dbPath, testhelpers.NewTestLogger(t))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	req := workout.Request{
		DurationMinutes: 30,
		Apparatus:       catalog.ApparatusMat,
		Theme:           catalog.ThemeCore,
		Energy:          workout.EnergyAny,
	}
	record, err := sessionlog.NewRecord("maria", req, workout.Plan{}, ptr.Ref(4), "strong finish",
		time.Date(2025, 3, 18, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	if err = sessionlog.NewSQLiteStore(db, testhelpers.NewTestLogger(t)).Append(t.Context(), record); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err = db.Close(); err != nil {
		t.Fatalf("close database: %v", err)
	}

	out, err := execute(t, "history", "--sqlite-url", dbPath, "--user", "maria", "--out", xlsxPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "Wrote 1 sessions of maria") {
		t.Errorf("output = %q, want summary line", out)
	}

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	notes, err := f.GetCellValue("Sessions", "F2")
	if err != nil {
		t.Fatalf("read notes: %v", err)
	}
	if notes != "strong finish" {
		t.Errorf("Sessions!F2 = %q, want %q", notes, "strong finish")
	}
}

func Test_history_requiresUser(t *testing.T) {
	_, err := execute(t, "history")
	if err == nil || !strings.Contains(err.Error(), "user") {
		t.Errorf("err = %v, want missing --user", err)
	}
}
