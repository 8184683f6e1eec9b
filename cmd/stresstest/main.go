package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/myrjola/pilatesflow/internal/e2etest"
	"github.com/myrjola/pilatesflow/internal/logging"
	"github.com/myrjola/pilatesflow/internal/testhelpers"
	"golang.org/x/sync/errgroup"
)

const (
	scenarioTimeout         = 30 * time.Second
	historyTimeout          = 5 * time.Minute
	maxConcurrentOperations = 20
	successRateThreshold    = 95.0
	expectedArgsCount       = 2
	percentageMultiplier    = 100
	sessionsPerUser         = 12
	numUsers                = 10
	maxRating               = 5
)

//nolint:gochecknoglobals // read-only scenario inputs.
var (
	apparatuses = []string{"Reformer", "Mat", "Chair", "Cadillac", "Mixed"}
	themes      = []string{"Any", "Core", "Lower Body", "Upper Body", "Flexibility", "Balance"}
	energies    = []string{"Any", "Gentle", "Moderate", "Challenging", "Intense"}
)

// SimulatedUser is a named user with a browser session of their own.
type SimulatedUser struct {
	Client *e2etest.Client
	Name   string
}

type stressPlan struct {
	Entries []struct {
		ID string `json:"id"`
	} `json:"entries"`
}

type stressExercise struct {
	ID string `json:"id"`
}

// SetupUsers creates a client per user.
func SetupUsers(url string, count int) ([]*SimulatedUser, error) {
	users := make([]*SimulatedUser, 0, count)
	for i := range count {
		client, err := e2etest.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("creating client for user %d: %w", i, err)
		}
		users = append(users, &SimulatedUser{Client: client, Name: fmt.Sprintf("stress-user-%d", i)})
	}
	return users, nil
}

func generatePlan(ctx context.Context, client *e2etest.Client) (stressPlan, error) {
	var plan stressPlan
	request := map[string]any{
		"duration":  float64(30 + rand.IntN(60)), //nolint:gosec,mnd // 30-90 minute classes.
		"apparatus": apparatuses[rand.IntN(len(apparatuses))], //nolint:gosec // not security sensitive.
		"theme":     themes[rand.IntN(len(themes))],           //nolint:gosec // not security sensitive.
		"energy":    energies[rand.IntN(len(energies))],       //nolint:gosec // not security sensitive.
	}
	status, err := client.PostJSON(ctx, "/api/plan", request, &plan)
	if err != nil {
		return plan, fmt.Errorf("generate plan: %w", err)
	}
	if status != http.StatusCreated {
		return plan, fmt.Errorf("generate plan: status %d", status)
	}
	return plan, nil
}

// GenerateSessionHistory logs a series of rated sessions for the user.
func GenerateSessionHistory(ctx context.Context, user *SimulatedUser) error {
	for i := range sessionsPerUser {
		if _, err := generatePlan(ctx, user.Client); err != nil {
			return err
		}
		body := map[string]any{
			"rating": 1 + rand.IntN(maxRating), //nolint:gosec // not security sensitive.
			"notes":  fmt.Sprintf("stress session %d", i),
		}
		status, err := user.Client.PostJSON(ctx, "/api/users/"+user.Name+"/sessions", body, nil)
		if err != nil {
			return fmt.Errorf("log session %d: %w", i, err)
		}
		if status != http.StatusCreated {
			return fmt.Errorf("log session %d: status %d", i, status)
		}
	}
	return nil
}

// GenerateSessionHistoryForUsers logs history for every user concurrently.
func GenerateSessionHistoryForUsers(ctx context.Context, users []*SimulatedUser, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for _, user := range users {
		g.Go(func() error {
			if err := GenerateSessionHistory(ctx, user); err != nil {
				return fmt.Errorf("history for %s: %w", user.Name, err)
			}
			logger.LogAttrs(ctx, slog.LevelDebug, "Session history generated", slog.String("user", user.Name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("generate session history: %w", err)
	}
	return nil
}

// PlanScenario walks through a class: generate, swap, browse and replace, then check progress.
func PlanScenario(ctx context.Context, user *SimulatedUser) error {
	plan, err := generatePlan(ctx, user.Client)
	if err != nil {
		return err
	}
	if len(plan.Entries) == 0 {
		return nil
	}

	index := rand.IntN(len(plan.Entries)) //nolint:gosec // not security sensitive.
	status, err := user.Client.PostJSON(ctx, fmt.Sprintf("/api/plan/entries/%d/swap", index), nil, nil)
	if err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	if status != http.StatusOK && status != http.StatusConflict {
		return fmt.Errorf("swap: status %d", status)
	}

	var exercises []stressExercise
	if status, err = user.Client.GetJSON(ctx, "/api/exercises", &exercises); err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("browse: status %d", status)
	}
	if len(exercises) > 0 {
		pick := exercises[rand.IntN(len(exercises))] //nolint:gosec // not security sensitive.
		status, err = user.Client.PostJSON(ctx, fmt.Sprintf("/api/plan/entries/%d/replace", index),
			map[string]string{"id": pick.ID}, nil)
		if err != nil {
			return fmt.Errorf("replace: %w", err)
		}
		if status != http.StatusOK && status != http.StatusConflict {
			return fmt.Errorf("replace: status %d", status)
		}
	}

	for _, path := range []string{"stats", "recommendations", "sessions"} {
		if status, err = user.Client.GetJSON(ctx, "/api/users/"+user.Name+"/"+path, nil); err != nil {
			return fmt.Errorf("get %s: %w", path, err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("get %s: status %d", path, status)
		}
	}
	return nil
}

// RunLoadTest runs a scenario per user concurrently and fails when too many of them fail.
func RunLoadTest(ctx context.Context, users []*SimulatedUser, logger *slog.Logger) error {
	var (
		successCount int64
		failureCount int64
	)
	if len(users) == 0 {
		return errors.New("no users to test")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for _, user := range users {
		g.Go(func() error {
			scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
			defer cancel()

			if err := PlanScenario(scenarioCtx, user); err != nil {
				atomic.AddInt64(&failureCount, 1)
				// Failures are counted, not propagated, so that the other scenarios keep running.
				logger.LogAttrs(scenarioCtx, slog.LevelWarn, "Scenario failed",
					slog.String("user", user.Name),
					slog.Any("error", err))
				return nil
			}
			atomic.AddInt64(&successCount, 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load test failed: %w", err)
	}

	successRate := float64(successCount) / float64(len(users)) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed",
		slog.Int64("successful", successCount),
		slog.Int64("failed", failureCount),
		slog.Float64("success_rate", successRate))
	if successRate < successRateThreshold {
		return fmt.Errorf("load test failed: success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != expectedArgsCount {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	users, err := SetupUsers(url, numUsers)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failed to setup users", slog.Any("error", err))
		os.Exit(1)
	}
	if err = users[0].Client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}

	historyStart := time.Now()
	if err = GenerateSessionHistoryForUsers(ctx, users, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "some session history generation failed, continuing with load test",
			slog.Any("error", err))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Session history generation completed",
		slog.Duration("history_duration", time.Since(historyStart)),
		slog.Int("sessions_per_user", sessionsPerUser))

	loadTestStart := time.Now()
	if err = RunLoadTest(ctx, users, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed successfully 🙌",
		slog.Duration("total_duration", time.Since(start)),
		slog.Duration("load_test_duration", time.Since(loadTestStart)),
		slog.Int("users_tested", len(users)))
}
