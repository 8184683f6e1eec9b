package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/myrjola/pilatesflow/internal/e2etest"
	"github.com/myrjola/pilatesflow/internal/logging"
	"github.com/myrjola/pilatesflow/internal/testhelpers"
)

type smokePlan struct {
	Entries []struct {
		ID string `json:"id"`
	} `json:"entries"`
}

// TestPlan generates a plan and swaps its first entry.
func TestPlan(client *e2etest.Client) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	var plan smokePlan
	request := map[string]any{"duration": 30, "apparatus": "Mat", "theme": "Any", "energy": "Any"}
	status, err := client.PostJSON(ctx, "/api/plan", request, &plan)
	if err != nil {
		return fmt.Errorf("generate plan: %w", err)
	}
	if status != http.StatusCreated {
		return fmt.Errorf("generate plan: status %d", status)
	}
	if len(plan.Entries) == 0 {
		return errors.New("generate plan: no entries")
	}
	if status, err = client.PostJSON(ctx, "/api/plan/entries/0/swap", nil, nil); err != nil {
		return fmt.Errorf("swap entry: %w", err)
	}
	if status != http.StatusOK && status != http.StatusConflict {
		return fmt.Errorf("swap entry: status %d", status)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		client   *e2etest.Client
		err      error
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", slog.Any("error", err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err = TestPlan(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing plan", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
	os.Exit(0)
}
