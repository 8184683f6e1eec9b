package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/pilatesflow/internal/export"
	"github.com/myrjola/pilatesflow/internal/progress"
	"github.com/myrjola/pilatesflow/internal/sessionlog"
	"github.com/myrjola/pilatesflow/internal/sqlite"
	"github.com/spf13/cobra"
)

func newHistoryCmd(logger *slog.Logger) *cobra.Command {
	var (
		sqliteURL string
		user      string
		out       string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Export a user's logged sessions to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx := cmd.Context()
			db, err := sqlite.NewDatabase(ctx, sqliteURL, logger)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil && err == nil {
					err = fmt.Errorf("close database: %w", closeErr)
				}
			}()

			records, err := sessionlog.NewSQLiteStore(db, logger).Query(ctx, user)
			if err != nil {
				return fmt.Errorf("query sessions: %w", err)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer func() {
				if closeErr := f.Close(); closeErr != nil && err == nil {
					err = fmt.Errorf("close %s: %w", out, closeErr)
				}
			}()
			if err = export.WriteHistory(f, records, progress.Calculate(records, user, time.Now())); err != nil {
				return fmt.Errorf("export history: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sessions of %s to %s\n", len(records), user, out)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&sqliteURL, "sqlite-url", "./pilatesflow.sqlite3", "SQLite database of the web server")
	flags.StringVar(&user, "user", "", "user whose sessions to export")
	flags.StringVar(&out, "out", "history.xlsx", "output file")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
