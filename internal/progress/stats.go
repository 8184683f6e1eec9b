// Package progress derives statistics and coaching recommendations from the session log.
package progress

import (
	"math"
	"slices"
	"time"

	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/sessionlog"
	"github.com/myrjola/pilatesflow/internal/workout"
)

const (
	// StreakGapDays is the longest gap between session days that keeps a streak alive. Rest days are normal.
	StreakGapDays = 3
	// ChartWeeks is the length of the weekly session series.
	ChartWeeks = 8
	// UnknownApparatus is reported for records whose apparatus can't be determined.
	UnknownApparatus = "Unknown"

	hoursPerDay = 24
	daysPerWeek = 7
)

// WeekCount is the number of sessions in the week starting on Monday WeekStart.
type WeekCount struct {
	WeekStart time.Time `json:"week_start"`
	Sessions  int       `json:"sessions"`
}

// RatingPoint is a rated session.
type RatingPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Rating    int       `json:"rating"`
}

// Stats summarizes a user's history. AverageRating is the mean over rated sessions rounded to one decimal, or zero
// without ratings. Weekly holds ChartWeeks entries and RatingsOverTime lists rated sessions, both oldest first.
type Stats struct {
	TotalSessions      int            `json:"total_sessions"`
	TotalMinutes       float64        `json:"total_minutes"`
	AverageRating      float64        `json:"average_rating"`
	CurrentStreak      int            `json:"current_streak"`
	BestStreak         int            `json:"best_streak"`
	SessionsThisWeek   int            `json:"sessions_this_week"`
	SessionsThisMonth  int            `json:"sessions_this_month"`
	ApparatusBreakdown map[string]int `json:"apparatus_breakdown"`
	ThemeBreakdown     map[string]int `json:"theme_breakdown"`
	Weekly             []WeekCount    `json:"weekly"`
	RatingsOverTime    []RatingPoint  `json:"ratings_over_time"`
}

// Calculate computes the user's stats as of now. Calendar days are taken in now's location.
func Calculate(records []sessionlog.Record, user string, now time.Time) Stats {
	stats := Stats{
		TotalSessions:      0,
		TotalMinutes:       0,
		AverageRating:      0,
		CurrentStreak:      0,
		BestStreak:         0,
		SessionsThisWeek:   0,
		SessionsThisMonth:  0,
		ApparatusBreakdown: make(map[string]int),
		ThemeBreakdown:     make(map[string]int),
		Weekly:             make([]WeekCount, 0, ChartWeeks),
		RatingsOverTime:    []RatingPoint{},
	}

	today := civilDate(now, now.Location())
	weekStart := mondayOf(today)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	userRecords := forUser(records, user)
	var (
		ratingSum int
		days      []time.Time
	)
	for _, r := range userRecords {
		stats.TotalSessions++
		stats.TotalMinutes += r.DurationMinutes
		if r.Rating != nil {
			ratingSum += *r.Rating
			stats.RatingsOverTime = append(stats.RatingsOverTime, RatingPoint{Timestamp: r.Timestamp, Rating: *r.Rating})
		}

		day := civilDate(r.Timestamp, now.Location())
		days = append(days, day)
		if !day.Before(weekStart) {
			stats.SessionsThisWeek++
		}
		if !day.Before(monthStart) {
			stats.SessionsThisMonth++
		}

		stats.ApparatusBreakdown[ApparatusOf(r)]++
		if r.Theme != "" {
			stats.ThemeBreakdown[string(r.Theme)]++
		}
	}

	if n := len(stats.RatingsOverTime); n > 0 {
		stats.AverageRating = math.Round(float64(ratingSum)/float64(n)*10) / 10 //nolint:mnd // one decimal
		slices.SortStableFunc(stats.RatingsOverTime, func(a, b RatingPoint) int {
			return a.Timestamp.Compare(b.Timestamp)
		})
	}

	for w := ChartWeeks - 1; w >= 0; w-- {
		start := weekStart.AddDate(0, 0, -daysPerWeek*w)
		end := start.AddDate(0, 0, daysPerWeek)
		count := 0
		for _, d := range days {
			if !d.Before(start) && d.Before(end) {
				count++
			}
		}
		stats.Weekly = append(stats.Weekly, WeekCount{WeekStart: start, Sessions: count})
	}

	stats.CurrentStreak, stats.BestStreak = streaks(distinctSorted(days), today)
	return stats
}

// streaks walks the sorted distinct session days from the most recent backward. The current streak is zero unless
// the last session day is within StreakGapDays of today.
func streaks(days []time.Time, today time.Time) (current, best int) {
	if len(days) == 0 {
		return 0, 0
	}

	streak := 1
	for i := len(days) - 1; i > 0; i-- {
		if daysBetween(days[i-1], days[i]) <= StreakGapDays {
			streak++
			continue
		}
		best = max(best, streak)
		streak = 1
	}
	best = max(best, streak)

	if daysBetween(days[len(days)-1], today) > StreakGapDays {
		return 0, best
	}
	current = 1
	for i := len(days) - 1; i > 0; i-- {
		if daysBetween(days[i-1], days[i]) > StreakGapDays {
			break
		}
		current++
	}
	return current, best
}

// ApparatusOf is the apparatus a record trained on: the requested apparatus, or the first planned exercise's
// apparatus when a mix was requested.
func ApparatusOf(r sessionlog.Record) string {
	if r.Apparatus != "" && r.Apparatus != catalog.ApparatusMixed {
		return string(r.Apparatus)
	}
	plan, err := workout.Decode(r.Plan)
	if err != nil || len(plan) == 0 || plan[0].Apparatus == "" {
		return UnknownApparatus
	}
	return string(plan[0].Apparatus)
}

func forUser(records []sessionlog.Record, user string) []sessionlog.Record {
	var out []sessionlog.Record
	for _, r := range records {
		if r.User == user {
			out = append(out, r)
		}
	}
	return out
}

// civilDate returns the calendar date of t in loc as midnight UTC so that day arithmetic ignores DST.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mondayOf(day time.Time) time.Time {
	offset := (int(day.Weekday()) + daysPerWeek - 1) % daysPerWeek
	return day.AddDate(0, 0, -offset)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / hoursPerDay)
}

func distinctSorted(days []time.Time) []time.Time {
	out := slices.Clone(days)
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}
