// Package testutil carries helpers shared by the engine and CLI tests.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger returns a slog.Logger routed through tb.Log, so test
// runs stay quiet unless a test fails or runs with -v. Debug level:
// tests assert on behavior, and the logs are only there for diagnosis.
func NewTestLogger(tb testing.TB) *slog.Logger {
	tb.Helper()
	h := slog.NewTextHandler(logWriter{tb}, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h)
}

type logWriter struct {
	tb testing.TB
}

func (w logWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
