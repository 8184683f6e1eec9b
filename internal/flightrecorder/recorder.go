// Package flightrecorder keeps a rolling runtime trace in memory and writes it to disk when a request times out.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"strings"
	"sync"
	"time"

	"github.com/myrjola/pilatesflow/internal/errors"
)

const (
	defaultMinAge   = 5 * time.Minute
	defaultMaxBytes = 64 * 1024 * 1024
	// DefaultCooldown is the minimum time between two captures.
	DefaultCooldown = 30 * time.Minute
)

// Config configures a Recorder. Zero durations and sizes select the defaults.
type Config struct {
	// Directory receives the trace files. It is created when missing.
	Directory string
	MinAge    time.Duration
	MaxBytes  uint64
	Cooldown  time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Recorder captures timeout traces. It is safe for concurrent use.
type Recorder struct {
	logger   *slog.Logger
	recorder *trace.FlightRecorder
	dir      string
	cooldown time.Duration
	now      func() time.Time

	mu          sync.Mutex
	lastCapture time.Time
}

// New creates a stopped Recorder.
func New(logger *slog.Logger, cfg Config) (*Recorder, error) {
	if cfg.Directory == "" {
		return nil, errors.New("traces directory is required")
	}
	if err := os.MkdirAll(cfg.Directory, 0o700); err != nil { //nolint:mnd // owner only
		return nil, errors.Wrap(err, "create traces directory", slog.String("dir", cfg.Directory))
	}
	if cfg.MinAge == 0 {
		cfg.MinAge = defaultMinAge
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Recorder{
		logger:      logger,
		recorder:    trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: cfg.MinAge, MaxBytes: cfg.MaxBytes}),
		dir:         cfg.Directory,
		cooldown:    cfg.Cooldown,
		now:         cfg.Now,
		mu:          sync.Mutex{},
		lastCapture: time.Time{},
	}, nil
}

// Start begins recording.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.recorder.Start(); err != nil {
		return errors.Wrap(err, "start flight recorder")
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("dir", r.dir), slog.Duration("cooldown", r.cooldown))
	return nil
}

// Stop ends recording.
func (r *Recorder) Stop(ctx context.Context) {
	r.recorder.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// claim reserves a capture slot unless the previous capture is within the cooldown.
func (r *Recorder) claim() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if !r.lastCapture.IsZero() && now.Sub(r.lastCapture) < r.cooldown {
		return time.Time{}, false
	}
	r.lastCapture = now
	return now, true
}

// CaptureTimeout writes the recorded trace for a request to route that timed out. It returns the file path, or ""
// when the capture was skipped or failed. Failures are logged.
func (r *Recorder) CaptureTimeout(ctx context.Context, route string) string {
	at, ok := r.claim()
	if !ok {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture during cooldown", slog.String("route", route))
		return ""
	}

	path := filepath.Join(r.dir, fmt.Sprintf("timeout-%s-%s.trace", routeSlug(route), at.UTC().Format("20060102-150405")))
	n, err := r.write(path)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "capture timeout trace", errors.SlogError(err))
		return ""
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured timeout trace",
		slog.String("route", route), slog.String("file", path), slog.Int64("bytes", n))
	return path
}

func (r *Recorder) write(path string) (_ int64, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "create trace file", slog.String("file", path))
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "close trace file", slog.String("file", path))
		}
	}()
	n, err := r.recorder.WriteTo(f)
	if err != nil {
		return n, errors.Wrap(err, "write trace", slog.String("file", path))
	}
	return n, nil
}

// routeSlug turns a request pattern such as "POST /api/plan/entries/{index}/ask" into a file name fragment.
func routeSlug(route string) string {
	slug := strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return c
		default:
			return '-'
		}
	}, route)
	slug = strings.Trim(slug, "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	if slug == "" {
		return "request"
	}
	return slug
}
