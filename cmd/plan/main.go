// Command plan generates Pilates class plans, browses the exercise catalog and exports session history from the
// command line.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/myrjola/pilatesflow/internal/errors"
	"github.com/myrjola/pilatesflow/internal/logging"
	"github.com/spf13/cobra"
)

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "plan",
		Short: "Generate Pilates class plans",
		Long: `plan builds phase-structured Pilates classes from the built-in exercise catalog. It prints plans as JSON
or YAML, lists catalog exercises and exports a user's logged sessions as an Excel workbook.`,
		SilenceUsage: true,
	}
	root.AddCommand(newGenerateCmd(), newCatalogCmd(), newHistoryCmd(logger))
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelWarn,
		ReplaceAttr: nil,
	})))
	err := newRootCmd(logger).ExecuteContext(ctx)
	cancel()
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "command failed", errors.SlogError(err))
		os.Exit(1)
	}
}
