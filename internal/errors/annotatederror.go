// Package errors wraps the standard library errors package with errors that carry structured log attributes and
// the source location where they were created.
//
// Use Wrap at application boundaries to add context and [slog.Attr] annotations, and SlogError to turn the error
// chain into a single log attribute.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// annotatedError is an error with a message, optional wrapped cause, annotations and the caller location.
type annotatedError struct {
	msg         string
	cause       error
	annotations []slog.Attr
	file        string
	line        int
}

func (e *annotatedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// callerSkip skips newAnnotated and the exported constructor.
const callerSkip = 2

func newAnnotated(msg string, cause error, attrs []slog.Attr) *annotatedError {
	_, file, line, _ := runtime.Caller(callerSkip)
	return &annotatedError{
		msg:         msg,
		cause:       cause,
		annotations: attrs,
		file:        file,
		line:        line,
	}
}

// New returns an error annotated with the caller location and the given attributes.
func New(msg string, attrs ...slog.Attr) error {
	return newAnnotated(msg, nil, attrs)
}

// NewSentinel returns a plain error suitable for package level sentinel variables compared with [Is].
//
// Sentinels don't capture a location because they are created during package initialisation.
func NewSentinel(msg string) error {
	return stderrors.New(msg) //nolint:err113 // this is the sentinel constructor.
}

// Wrap annotates err with msg, attrs and the caller location. Wrapping a nil error returns an error with only msg.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return newAnnotated(msg, err, attrs)
}

// Is reports whether any error in err's tree matches target. See [stderrors.Is].
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target. See [stderrors.As].
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err. See [stderrors.Unwrap].
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join returns an error that wraps the given errors. See [stderrors.Join].
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// DecoratePanic converts a value recovered from a panic into an annotated error.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	// Skip DecoratePanic, the deferred function and the runtime panic frame.
	_, file, line, _ := runtime.Caller(callerSkip + 1)
	return &annotatedError{
		msg:         fmt.Sprintf("panic: %v", excp),
		cause:       nil,
		annotations: nil,
		file:        file,
		line:        line,
	}
}

// SlogError renders err into an "error" group with the message, the innermost source location and every annotation
// found along the chain as "annotations.<key>".
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Group("error", slog.String("message", "<nil>"))
	}

	var (
		annotations []any
		location    string
	)
	collectAnnotations(err, &annotations, &location)

	attrs := []any{slog.String("message", err.Error())}
	if location != "" {
		attrs = append(attrs, slog.String("source", location))
	}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	return slog.Group("error", attrs...)
}

func collectAnnotations(err error, annotations *[]any, location *string) {
	if err == nil {
		return
	}
	var annotated *annotatedError
	if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // the chain is walked manually.
		annotated = ae
	}
	if annotated != nil {
		for _, attr := range annotated.annotations {
			*annotations = append(*annotations, attr)
		}
		if annotated.file != "" {
			// The deepest location wins since it is closest to the root cause.
			*location = fmt.Sprintf("%s:%d", shortFile(annotated.file), annotated.line)
		}
		collectAnnotations(annotated.cause, annotations, location)
		return
	}

	switch x := err.(type) { //nolint:errorlint // the chain is walked manually.
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			collectAnnotations(e, annotations, location)
		}
	case interface{ Unwrap() error }:
		collectAnnotations(x.Unwrap(), annotations, location)
	}
}

func shortFile(file string) string {
	if idx := strings.LastIndex(file, "/"); idx >= 0 {
		return file[idx+1:]
	}
	return file
}
