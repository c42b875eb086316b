package testing

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/skycarbon/skycarbon/types"
)

// LogEntry is one recorded log call.
type LogEntry struct {
	Level   string
	Message string
	Fields  []any
}

// TestLogger implements types.Logger on top of testing.T and keeps every
// entry so tests can assert on warnings and errors.
type TestLogger struct {
	t *testing.T

	mu      sync.Mutex
	entries []LogEntry
}

var _ types.Logger = (*TestLogger)(nil)

// NewTestLogger creates a logger that writes to t.Logf and records entries.
//
// Example:
//
//	logger := skytest.NewTestLogger(t)
//	svc, _ := skycarbon.NewService(cfg, st, fetcher, factory, skycarbon.WithLogger(logger))
//	require.True(t, logger.Has("WARN", "airspace skipped"))
func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) Debug(msg string, keysAndValues ...any) {
	l.record("DEBUG", msg, keysAndValues)
}

func (l *TestLogger) Info(msg string, keysAndValues ...any) {
	l.record("INFO", msg, keysAndValues)
}

func (l *TestLogger) Warn(msg string, keysAndValues ...any) {
	l.record("WARN", msg, keysAndValues)
}

func (l *TestLogger) Error(msg string, keysAndValues ...any) {
	l.record("ERROR", msg, keysAndValues)
}

// Fatal records the entry and fails the test.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.record("FATAL", msg, keysAndValues)
	l.t.FailNow()
}

// Entries returns a copy of everything logged so far.
func (l *TestLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)

	return out
}

// Has reports whether a message containing substr was logged at level.
func (l *TestLogger) Has(level, substr string) bool {
	return l.Count(level, substr) > 0
}

// Count returns how many entries at level contain substr.
func (l *TestLogger) Count(level, substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, e := range l.entries {
		if e.Level == level && strings.Contains(e.Message, substr) {
			n++
		}
	}

	return n
}

func (l *TestLogger) record(level, msg string, keysAndValues []any) {
	l.mu.Lock()
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Fields: keysAndValues})
	l.mu.Unlock()

	l.t.Logf("%s: %s %s", level, msg, formatKeyValues(keysAndValues))
}

func formatKeyValues(keysAndValues []any) string {
	var b strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, "%v=%v ", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, "%v=<missing> ", keysAndValues[i])
		}
	}

	return strings.TrimSpace(b.String())
}
