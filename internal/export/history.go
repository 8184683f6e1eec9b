// Package export writes a user's session history as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/myrjola/pilatesflow/internal/progress"
	"github.com/myrjola/pilatesflow/internal/sessionlog"
	"github.com/myrjola/pilatesflow/internal/workout"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	SheetSessions = "Sessions"
	SheetSummary  = "Summary"
	SheetWeekly   = "Weekly"
)

const (
	dateFormat    = "2006-01-02 15:04"
	weekFormat    = "2006-01-02"
	headerColor   = "2E75B6"
	notesColWidth = 40
	listColWidth  = 60
)

// HistoryWorkbook builds a workbook with every session, the summary statistics and the weekly session counts.
// Sessions are listed in the order of records.
func HistoryWorkbook(records []sessionlog.Record, stats progress.Stats) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSessions); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetSummary, SheetWeekly} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{ //nolint:exhaustruct // only need to set a few fields.
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"}, //nolint:exhaustruct // only need to set a few fields.
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err = writeSessions(f, records, headerStyle); err != nil {
		return nil, fmt.Errorf("write sessions: %w", err)
	}
	if err = writeSummary(f, stats, headerStyle); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	if err = writeWeekly(f, stats.Weekly, headerStyle); err != nil {
		return nil, fmt.Errorf("write weekly: %w", err)
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteHistory writes the workbook of HistoryWorkbook to w in XLSX format.
func WriteHistory(w io.Writer, records []sessionlog.Record, stats progress.Stats) error {
	f, err := HistoryWorkbook(records, stats)
	if err != nil {
		return err
	}
	if _, err = f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close workbook: %w", err)
	}
	return nil
}

func writeSessions(f *excelize.File, records []sessionlog.Record, headerStyle int) error {
	header := []any{"Date", "Theme", "Apparatus", "Duration (min)", "Rating", "Notes", "Exercises"}
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		var rating any = ""
		if r.Rating != nil {
			rating = *r.Rating
		}
		rows = append(rows, []any{
			r.Timestamp.Format(dateFormat),
			string(r.Theme),
			progress.ApparatusOf(r),
			r.DurationMinutes,
			rating,
			r.Notes,
			exerciseNames(r.Plan),
		})
	}
	if err := writeTable(f, SheetSessions, header, rows, headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSessions, "F", "F", notesColWidth); err != nil {
		return fmt.Errorf("set notes width: %w", err)
	}
	if err := f.SetColWidth(SheetSessions, "G", "G", listColWidth); err != nil {
		return fmt.Errorf("set exercises width: %w", err)
	}
	return nil
}

// exerciseNames lists the plan's exercises, or nothing when the stored plan can't be decoded.
func exerciseNames(encoded string) string {
	plan, err := workout.Decode(encoded)
	if err != nil {
		return ""
	}
	names := make([]string, 0, len(plan))
	for _, e := range plan {
		names = append(names, e.Name)
	}
	return strings.Join(names, ", ")
}

func writeSummary(f *excelize.File, stats progress.Stats, headerStyle int) error {
	rows := [][]any{
		{"Total sessions", stats.TotalSessions},
		{"Total minutes", stats.TotalMinutes},
		{"Average rating", stats.AverageRating},
		{"Current streak", stats.CurrentStreak},
		{"Best streak", stats.BestStreak},
		{"Sessions this week", stats.SessionsThisWeek},
		{"Sessions this month", stats.SessionsThisMonth},
	}
	rows = append(rows, breakdownRows("Apparatus", stats.ApparatusBreakdown)...)
	rows = append(rows, breakdownRows("Theme", stats.ThemeBreakdown)...)
	return writeTable(f, SheetSummary, []any{"Metric", "Value"}, rows, headerStyle)
}

// breakdownRows lists counts in key order so the workbook is stable.
func breakdownRows(prefix string, counts map[string]int) [][]any {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	rows := make([][]any, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []any{prefix + ": " + k, counts[k]})
	}
	return rows
}

func writeWeekly(f *excelize.File, weekly []progress.WeekCount, headerStyle int) error {
	rows := make([][]any, 0, len(weekly))
	for _, w := range weekly {
		rows = append(rows, []any{w.WeekStart.Format(weekFormat), w.Sessions})
	}
	return writeTable(f, SheetWeekly, []any{"Week starting", "Sessions"}, rows, headerStyle)
}

func writeTable(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	for i, row := range slices.Concat([][]any{header}, rows) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("set row %d: %w", i+1, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err = f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return nil
}
