package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const optimizeInterval = time.Hour

// startDatabaseOptimizer runs PRAGMA optimize hourly until ctx is done or the database is closed.
// See https://www.sqlite.org/pragma.html#pragma_optimize.
func (db *Database) startDatabaseOptimizer(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	db.stopOptimizer = cancel
	db.optimizerDone = make(chan struct{})
	go func() {
		defer close(db.optimizerDone)
		db.optimizeLoop(ctx)
	}()
}

func (db *Database) optimizeLoop(ctx context.Context) {
	// Recommended once for long-lived connections.
	if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA optimize = 0x10002;"); err != nil && ctx.Err() == nil {
		db.logger.LogAttrs(ctx, slog.LevelError, "failed to optimize database",
			slog.Any("error", fmt.Errorf("init optimize database: %w", err)))
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(optimizeInterval):
		}
		start := time.Now()
		if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
			if ctx.Err() != nil {
				return
			}
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to optimize database",
				slog.Any("error", fmt.Errorf("optimize database: %w", err)))
			continue
		}
		db.logger.LogAttrs(ctx, slog.LevelInfo, "optimized database", slog.Duration("duration", time.Since(start)))
	}
}

// stopDatabaseOptimizer cancels the optimizer and waits for it to exit.
func (db *Database) stopDatabaseOptimizer() {
	if db.stopOptimizer == nil {
		return
	}
	db.stopOptimizer()
	<-db.optimizerDone
}
