package progress_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/progress"
	"github.com/myrjola/pilatesflow/internal/ptr"
	"github.com/myrjola/pilatesflow/internal/sessionlog"
)

// now is a Wednesday.
var now = time.Date(2025, 3, 19, 18, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // test fixture.

func day(d int) time.Time {
	return time.Date(2025, 3, d, 9, 30, 0, 0, time.UTC)
}

func record(ts time.Time, rating *int) sessionlog.Record {
	return sessionlog.Record{
		Timestamp:       ts,
		User:            "alyssa",
		Theme:           catalog.ThemeCore,
		Apparatus:       catalog.ApparatusReformer,
		DurationMinutes: 45,
		Plan:            "[]",
		Rating:          rating,
		Notes:           "",
	}
}

func TestCalculate_streaks(t *testing.T) {
	tests := []struct {
		name        string
		days        []int
		wantCurrent int
		wantBest    int
	}{
		{name: "no sessions", days: nil, wantCurrent: 0, wantBest: 0},
		{name: "gaps of two and four", days: []int{1, 3, 7}, wantCurrent: 0, wantBest: 2},
		{name: "gap of three keeps the streak", days: []int{1, 4}, wantCurrent: 0, wantBest: 2},
		{name: "gap of four breaks the streak", days: []int{1, 5}, wantCurrent: 0, wantBest: 1},
		{name: "same day counts once", days: []int{10, 10, 12}, wantCurrent: 0, wantBest: 2},
		{name: "current streak ending yesterday", days: []int{2, 10, 13, 16, 18}, wantCurrent: 4, wantBest: 4},
		{name: "last session three days ago", days: []int{14, 16}, wantCurrent: 2, wantBest: 2},
		{name: "last session four days ago", days: []int{13, 15}, wantCurrent: 0, wantBest: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []sessionlog.Record
			for _, d := range tt.days {
				records = append(records, record(day(d), nil))
			}
			got := progress.Calculate(records, "alyssa", now)
			if got.CurrentStreak != tt.wantCurrent || got.BestStreak != tt.wantBest {
				t.Errorf("streaks = (%d, %d), want (%d, %d)",
					got.CurrentStreak, got.BestStreak, tt.wantCurrent, tt.wantBest)
			}
		})
	}
}

func TestCalculate_ratings(t *testing.T) {
	tests := []struct {
		name    string
		ratings []*int
		want    float64
	}{
		{name: "mean of three", ratings: []*int{ptr.Ref(3), ptr.Ref(4), ptr.Ref(5)}, want: 4.0},
		{name: "unrated sessions are skipped", ratings: []*int{ptr.Ref(5), nil, ptr.Ref(4)}, want: 4.5},
		{name: "rounded to one decimal", ratings: []*int{ptr.Ref(4), ptr.Ref(4), ptr.Ref(5)}, want: 4.3},
		{name: "no ratings", ratings: []*int{nil, nil}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []sessionlog.Record
			for i, r := range tt.ratings {
				records = append(records, record(day(10+i), r))
			}
			if got := progress.Calculate(records, "alyssa", now).AverageRating; got != tt.want {
				t.Errorf("AverageRating = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculate_aggregates(t *testing.T) {
	mixedPlan := `[{"id":"mat_hundred","apparatus":"Mat","phase":"foundation","phase_label":"Foundation"}]`
	records := []sessionlog.Record{
		record(now.Add(-time.Hour), ptr.Ref(5)),
		record(day(17), nil), // Monday of the current week
		record(day(16), ptr.Ref(3)),
		record(day(1), nil),
		record(time.Date(2025, 2, 20, 8, 0, 0, 0, time.UTC), nil),
		{
			Timestamp:       day(18),
			User:            "alyssa",
			Theme:           catalog.ThemeFlexibility,
			Apparatus:       catalog.ApparatusMixed,
			DurationMinutes: 30,
			Plan:            mixedPlan,
		},
		{Timestamp: day(18), User: "alyssa", Apparatus: catalog.ApparatusMixed, Plan: "broken"},
		{Timestamp: day(18), User: "ted", Theme: catalog.ThemeCore, Apparatus: catalog.ApparatusChair},
	}

	got := progress.Calculate(records, "alyssa", now)

	if got.TotalSessions != 7 {
		t.Errorf("TotalSessions = %d, want 7", got.TotalSessions)
	}
	if got.TotalMinutes != 5*45+30 {
		t.Errorf("TotalMinutes = %v, want %v", got.TotalMinutes, 5*45+30)
	}
	if got.SessionsThisWeek != 4 {
		t.Errorf("SessionsThisWeek = %d, want 4", got.SessionsThisWeek)
	}
	if got.SessionsThisMonth != 6 {
		t.Errorf("SessionsThisMonth = %d, want 6", got.SessionsThisMonth)
	}
	if diff := cmp.Diff(map[string]int{"Reformer": 5, "Mat": 1, "Unknown": 1}, got.ApparatusBreakdown); diff != "" {
		t.Errorf("ApparatusBreakdown mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"Core": 5, "Flexibility": 1}, got.ThemeBreakdown); diff != "" {
		t.Errorf("ThemeBreakdown mismatch (-want +got):\n%s", diff)
	}

	wantRatings := []progress.RatingPoint{
		{Timestamp: day(16), Rating: 3},
		{Timestamp: now.Add(-time.Hour), Rating: 5},
	}
	if diff := cmp.Diff(wantRatings, got.RatingsOverTime); diff != "" {
		t.Errorf("RatingsOverTime mismatch (-want +got):\n%s", diff)
	}

	if len(got.Weekly) != progress.ChartWeeks {
		t.Fatalf("len(Weekly) = %d, want %d", len(got.Weekly), progress.ChartWeeks)
	}
	last := got.Weekly[len(got.Weekly)-1]
	if !last.WeekStart.Equal(time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)) || last.Sessions != 4 {
		t.Errorf("current week = %+v, want Monday 2025-03-17 with 4 sessions", last)
	}
	previous := got.Weekly[len(got.Weekly)-2]
	if previous.Sessions != 1 {
		t.Errorf("previous week = %+v, want 1 session", previous)
	}
	first := got.Weekly[0]
	if !first.WeekStart.Equal(time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("oldest week starts %s, want 2025-01-27", first.WeekStart)
	}
}

func TestCalculate_unknownUser(t *testing.T) {
	got := progress.Calculate([]sessionlog.Record{record(day(18), ptr.Ref(4))}, "ted", now)
	if got.TotalSessions != 0 || got.AverageRating != 0 || got.BestStreak != 0 {
		t.Errorf("unexpected stats for user without sessions: %+v", got)
	}
	if len(got.Weekly) != progress.ChartWeeks {
		t.Errorf("len(Weekly) = %d, want %d", len(got.Weekly), progress.ChartWeeks)
	}
}
