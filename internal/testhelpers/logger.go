package testhelpers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/pilatesflow/internal/logging"
)

// NewLogger creates a new debug level logger with the given log sink such as testhelpers.NewWriter.
func NewLogger(logSink io.Writer) *slog.Logger {
	handler := logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	return slog.New(handler)
}

// NewTestLogger returns a logger whose output is only shown for failed tests.
func NewTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return NewLogger(NewWriter(t))
}
