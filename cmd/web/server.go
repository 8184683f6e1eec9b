package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/myrjola/pilatesflow/internal/e2etest"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout = 2 * time.Second
	// instructorTimeout leaves room for the language model to answer.
	instructorTimeout = 30 * time.Second
)

// configureAndStartServer serves handler on addr until ctx is cancelled and then shuts down gracefully.
func (app *application) configureAndStartServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		ErrorLog:          slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
		Handler:           handler,
		IdleTimeout:       time.Minute,
		ReadTimeout:       defaultTimeout,
		WriteTimeout:      defaultTimeout,
		ReadHeaderTimeout: time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("TCP listen: %w", err)
	}
	app.logger.LogAttrs(ctx, slog.LevelInfo, "starting server", slog.Any(e2etest.LogAddrKey, listener.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if serveErr := srv.Serve(listener); !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("server serve: %w", serveErr)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.LogAttrs(ctx, slog.LevelInfo, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("shutdown server: %w", shutdownErr)
		}
		return nil
	})
	if err = g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	app.logger.LogAttrs(ctx, slog.LevelInfo, "server stopped")
	return nil
}
