package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/export"
	"github.com/myrjola/pilatesflow/internal/progress"
	"github.com/myrjola/pilatesflow/internal/ptr"
	"github.com/myrjola/pilatesflow/internal/sessionlog"
	"github.com/myrjola/pilatesflow/internal/workout"
	"github.com/xuri/excelize/v2"
)

func TestWriteHistory(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 19, 18, 0, 0, 0, time.UTC)
	all := catalog.Default().All()
	plan := workout.Plan{
		{Exercise: all[0], PhaseLabel: all[0].Phase.Label()},
		{Exercise: all[1], PhaseLabel: all[1].Phase.Label()},
	}
	encoded, err := workout.Encode(plan)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	records := []sessionlog.Record{
		{
			Timestamp:       time.Date(2025, 3, 18, 9, 30, 0, 0, time.UTC),
			User:            "maria",
			Theme:           "Core",
			Apparatus:       "Reformer",
			DurationMinutes: 50,
			Plan:            encoded,
			Rating:          ptr.Ref(4),
			Notes:           "strong",
		},
		{
			Timestamp:       time.Date(2025, 3, 17, 9, 30, 0, 0, time.UTC),
			User:            "maria",
			Theme:           "Balance",
			Apparatus:       "Mat",
			DurationMinutes: 30,
			Plan:            "not json",
		},
	}
	stats := progress.Calculate(records, "maria", now)

	var buf bytes.Buffer
	if err = export.WriteHistory(&buf, records, stats); err != nil {
		t.Fatalf("WriteHistory() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	if diff := cmp.Diff([]string{export.SheetSessions, export.SheetSummary, export.SheetWeekly},
		f.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}

	cells := []struct {
		sheet string
		cell  string
		want  string
	}{
		{export.SheetSessions, "A1", "Date"},
		{export.SheetSessions, "A2", "2025-03-18 09:30"},
		{export.SheetSessions, "C2", "Reformer"},
		{export.SheetSessions, "D2", "50"},
		{export.SheetSessions, "E2", "4"},
		{export.SheetSessions, "G2", all[0].Name + ", " + all[1].Name},
		{export.SheetSessions, "E3", ""},
		{export.SheetSessions, "G3", ""},
		{export.SheetSummary, "A2", "Total sessions"},
		{export.SheetSummary, "B2", "2"},
		{export.SheetSummary, "B3", "80"},
		{export.SheetWeekly, "A1", "Week starting"},
		{export.SheetWeekly, "A9", "2025-03-17"},
		{export.SheetWeekly, "B9", "2"},
	}
	for _, c := range cells {
		got, cellErr := f.GetCellValue(c.sheet, c.cell)
		if cellErr != nil {
			t.Fatalf("GetCellValue(%s, %s) error = %v", c.sheet, c.cell, cellErr)
		}
		if got != c.want {
			t.Errorf("%s!%s = %q, want %q", c.sheet, c.cell, got, c.want)
		}
	}
}

func TestHistoryWorkbook_empty(t *testing.T) {
	t.Parallel()

	stats := progress.Calculate(nil, "nobody", time.Date(2025, 3, 19, 18, 0, 0, 0, time.UTC))
	f, err := export.HistoryWorkbook(nil, stats)
	if err != nil {
		t.Fatalf("HistoryWorkbook() error = %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows(export.SheetSessions)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("session rows = %d, want only the header", len(rows))
	}
}
