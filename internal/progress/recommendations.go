package progress

import (
	"fmt"
	"strings"

	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/sessionlog"
)

// Recommendation thresholds.
const (
	MaxRecommendations = 5
	// ConcentrationPercent is the share of sessions on one apparatus that is flagged as too narrow.
	ConcentrationPercent = 65
	// MinSessionsForConcentration must be exceeded before concentration is evaluated.
	MinSessionsForConcentration = 3
	ProgressionSessions         = 5
	MatTipSessions              = 10
	RotationMinSessions         = 3
	RotationMaxSessions         = 9
)

// Recommendation messages.
const (
	RecommendColdStart = "Start with a 30-minute Reformer session with the Core theme. It's the foundation of every " +
		"good Pilates practice."
	RecommendNoUserHistory = "No workouts logged yet. Try a Reformer session to get your baseline."
	RecommendProgression   = "Progression idea: after 5 or more sessions at a given difficulty, bump one phase up. " +
		"Swap beginner Foundation exercises for intermediate ones while keeping Warmup and Cooldown the same."
	RecommendMat = "Mat work builds intelligence: even dedicated Reformer practitioners benefit from Mat. It removes " +
		"spring assistance and reveals where true strength lives."
	RecommendRotation = "Programming tip: build a 2-3 session weekly rotation, e.g. Mon: Reformer/Core, " +
		"Wed: Mat/Flexibility, Fri: Reformer/Full Body, to ensure balanced development."
	RecommendWellRounded = "Your programming looks well-rounded. Keep varying apparatus and themes to maintain progress."
)

// keyThemes are the themes a well-rounded program cycles through.
func keyThemes() []catalog.Theme {
	return []catalog.Theme{catalog.ThemeCore, catalog.ThemeFlexibility, catalog.ThemeUpperBody, catalog.ThemeLowerBody}
}

// Recommend runs the coaching rules over the user's history in a fixed order and returns at most
// MaxRecommendations messages. An empty log yields a single cold-start suggestion.
func Recommend(records []sessionlog.Record, user string) []string {
	if len(records) == 0 {
		return []string{RecommendColdStart}
	}
	userRecords := forUser(records, user)
	if len(userRecords) == 0 {
		return []string{RecommendNoUserHistory}
	}

	var (
		recs           []string
		total          = len(userRecords)
		apparatusOrder []string
		apparatusCount = make(map[string]int)
		themesUsed     = make(map[catalog.Theme]bool)
	)
	for _, r := range userRecords {
		a := ApparatusOf(r)
		if apparatusCount[a] == 0 {
			apparatusOrder = append(apparatusOrder, a)
		}
		apparatusCount[a]++
		if r.Theme != "" {
			themesUsed[r.Theme] = true
		}
	}

	var unused []string
	for _, a := range catalog.Apparatuses() {
		if apparatusCount[string(a)] == 0 {
			unused = append(unused, string(a))
		}
	}
	if len(unused) > 0 {
		recs = append(recs, fmt.Sprintf("Apparatus gap: you haven't programmed %s yet. Cross-training across "+
			"apparatus builds more complete body awareness.", strings.Join(unused, ", ")))
	}

	if total > MinSessionsForConcentration {
		top := apparatusOrder[0]
		for _, a := range apparatusOrder[1:] {
			if apparatusCount[a] > apparatusCount[top] {
				top = a
			}
		}
		if pct := float64(apparatusCount[top]) / float64(total) * 100; pct > ConcentrationPercent { //nolint:mnd // percent
			recs = append(recs, fmt.Sprintf("Variety check: %.0f%% of your sessions are %s. Consider alternating "+
				"with a different apparatus to work different stabilizer patterns.", pct, top))
		}
	}

	var missing []string
	for _, t := range keyThemes() {
		if !themesUsed[t] {
			missing = append(missing, string(t))
		}
	}
	if len(missing) > 0 {
		recs = append(recs, fmt.Sprintf("Theme gap: you haven't focused on %s. A well-rounded program cycles "+
			"through all movement themes over time.", strings.Join(missing, ", ")))
	}

	if total >= ProgressionSessions {
		recs = append(recs, RecommendProgression)
	}
	if total >= MatTipSessions && apparatusCount[string(catalog.ApparatusMat)] == 0 {
		recs = append(recs, RecommendMat)
	}
	if total >= RotationMinSessions && total <= RotationMaxSessions {
		recs = append(recs, RecommendRotation)
	}

	if len(recs) == 0 {
		return []string{RecommendWellRounded}
	}
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}
