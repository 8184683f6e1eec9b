// Package testhelpers contains helpers shared by the test suites.
package testhelpers

import (
	"io"
	"strings"
	"sync"
	"testing"
)

// Writer implements io.Writer and writes to t.Log so that logs are shown only for failed tests.
type Writer struct {
	t    *testing.T
	mu   sync.Mutex
	done bool
}

// NewWriter creates a new Writer that writes to t.Log.
func NewWriter(t *testing.T) io.Writer {
	w := &Writer{t: t, mu: sync.Mutex{}, done: false}
	t.Cleanup(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.done = true
	})
	return w
}

// Write implements io.Writer by writing to t.Log.
//
// Writes after the test has completed panic to surface background goroutines that outlive the test, such as a
// server that was not shut down.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		panic("testwriter: attempted to write after test completion. Did you remember to t.Cleanup(server.Shutdown)?")
	}
	if output := strings.TrimSuffix(string(p), "\n"); output != "" {
		w.t.Log(output)
	}
	return len(p), nil
}
