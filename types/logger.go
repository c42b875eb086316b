package types

// Logger is the structured logger every skycarbon component writes to.
//
// Arguments after msg are alternating key-value pairs, as accepted by
// log/slog. internal/logging adapts *slog.Logger to it and provides a no-op
// implementation; testing.TestLogger records entries for assertions.
type Logger interface {
	// Debug logs per-cycle detail such as skipped empty samples.
	Debug(msg string, keysAndValues ...any)

	// Info logs lifecycle events: state transitions, lanes started.
	Info(msg string, keysAndValues ...any)

	// Warn logs recoverable problems: a failed fetch, a coalesced trigger.
	Warn(msg string, keysAndValues ...any)

	// Error logs failed jobs and store errors.
	Error(msg string, keysAndValues ...any)

	// Fatal logs and terminates the process with exit code 1.
	// Library code never calls it; it exists for command entry points.
	Fatal(msg string, keysAndValues ...any)
}
