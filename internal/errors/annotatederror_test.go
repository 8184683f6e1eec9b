package errors_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/myrjola/pilatesflow/internal/errors"
	"github.com/myrjola/pilatesflow/internal/testhelpers"
)

func TestAnnotatedError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "sentinel",
			err:  errors.NewSentinel("no replacement available"),
			want: "no replacement available",
		},
		{
			name: "annotated error",
			err:  errors.Wrap(errors.NewSentinel("malformed plan"), "decode session", slog.String("user", "alyssa")),
			want: "decode session: malformed plan",
		},
		{
			name: "nested annotated error",
			err: errors.Wrap(
				errors.Wrap(errors.NewSentinel("malformed plan"), "decode session"),
				"calculate stats",
			),
			want: "calculate stats: decode session: malformed plan",
		},
		{
			name: "wrapped nil",
			err:  errors.Wrap(nil, "open store"),
			want: "open store",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAndUnwrap(t *testing.T) {
	rootErr := errors.NewSentinel("root error")
	wrappedErr := errors.Wrap(rootErr, "context")

	if !errors.Is(wrappedErr, rootErr) {
		t.Errorf("Is() = false, want true for wrapped error")
	}
	if errors.Is(wrappedErr, errors.NewSentinel("root error")) {
		t.Errorf("Is() = true, want false for a different sentinel with the same text")
	}
	if unwrapped := errors.Unwrap(fmt.Errorf("context: %w", rootErr)); !errors.Is(unwrapped, rootErr) {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, rootErr)
	}
	if unwrapped := errors.Unwrap(rootErr); unwrapped != nil {
		t.Errorf("Unwrap() = %v, want nil", unwrapped)
	}
}

type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}

func TestAs(t *testing.T) {
	rootErr := &customError{"custom error"}
	wrappedErr := errors.Wrap(rootErr, "context")

	var target *customError
	if !errors.As(wrappedErr, &target) {
		t.Fatalf("As() = false, want true")
	}
	if target != rootErr {
		t.Errorf("As() target = %v, want %v", target, rootErr)
	}
}

func TestSlogError(t *testing.T) {
	_, _, line, _ := runtime.Caller(0)
	err := errors.Wrap(errors.NewSentinel("root cause"), "context",
		slog.String("key", "value"), slog.Duration("duration", time.Second))
	var buf bytes.Buffer
	l := testhelpers.NewLogger(&buf)
	l.Info("test", errors.SlogError(err))
	logLine := buf.String()
	expectedContent := []string{
		"error.annotations.key=value",
		"error.annotations.duration=1s",
		fmt.Sprintf("annotatederror_test.go:%d", line+1),
	}
	for _, content := range expectedContent {
		if !strings.Contains(logLine, content) {
			t.Errorf("expected log line %s to contain %s", logLine, content)
		}
	}
	if strings.Contains(logLine, "annotatederror.go") {
		t.Fatal("expected annotatederror.go NOT to be in log line")
	}

	// None of these may panic.
	errors.SlogError(errors.Join(nil, nil, errors.NewSentinel("sentinel"), errors.New("test")))
	errors.SlogError(nil)
	errors.SlogError(fmt.Errorf("test: %w", errors.NewSentinel("sentinel")))
	errors.SlogError(errors.Join(errors.NewSentinel("sentinel1"), errors.NewSentinel("sentinel2")))
	errors.SlogError(errors.Wrap(errors.Join(nil, nil), "wrap error"))
}

func TestDecoratePanic(t *testing.T) {
	var panicLine int
	defer func() {
		err := errors.DecoratePanic(recover())
		if err == nil {
			t.Fatal("expected error")
		}
		if got, want := err.Error(), "panic: slot index out of range"; got != want {
			t.Errorf("err.Error(): got %q, want %q", got, want)
		}
		attr := errors.SlogError(err)
		if got, contains := attr.String(), fmt.Sprintf("annotatederror_test.go:%d", panicLine); !strings.Contains(got, contains) {
			t.Errorf("attr.String(): expected %q to contain %q", got, contains)
		}
	}()
	_, _, panicLine, _ = runtime.Caller(0)
	panicLine += 2
	panic("slot index out of range")
}

func TestDecoratePanicNil(t *testing.T) {
	if err := errors.DecoratePanic(nil); err != nil {
		t.Errorf("DecoratePanic(nil) = %v, want nil", err)
	}
}
