// Package logging provides types.Logger implementations.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/skycarbon/skycarbon/types"
)

// SlogLogger implements types.Logger using Go's standard log/slog package.
type SlogLogger struct {
	logger *slog.Logger
}

// Compile-time assertion that SlogLogger implements Logger.
var _ types.Logger = (*SlogLogger)(nil)

// Options configures a slog-backed logger built by New.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string `yaml:"level"`

	// Format is "text" or "json". Defaults to "text".
	Format string `yaml:"format"`
}

// New builds a slog logger writing to w according to opts.
//
// Parameters:
//   - w: Destination (os.Stderr when nil)
//   - opts: Level and format
//
// Returns:
//   - *SlogLogger: Configured logger
//   - error: Unknown level or format
//
// Example:
//
//	logger, err := logging.New(os.Stderr, logging.Options{Level: "debug", Format: "json"})
//	if err != nil { /* handle */ }
//	logger.Info("service started", "airspaces", 4)
func New(w io.Writer, opts Options) (*SlogLogger, error) {
	if w == nil {
		w = os.Stderr
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	return NewSlog(slog.New(handler)), nil
}

// ParseLevel maps a level name to a slog.Level. The empty string means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// NewSlog wraps an existing slog.Logger.
func NewSlog(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// NewSlogDefault wraps slog.Default().
func NewSlogDefault() *SlogLogger {
	return &SlogLogger{logger: slog.Default()}
}

// With returns a child logger that always includes the given key-value pairs.
func (l *SlogLogger) With(keysAndValues ...any) *SlogLogger {
	return &SlogLogger{logger: l.logger.With(keysAndValues...)}
}

// Debug logs a debug-level message with optional key-value pairs.
func (l *SlogLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

// Info logs an info-level message with optional key-value pairs.
func (l *SlogLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, keysAndValues...)
}

// Warn logs a warning-level message with optional key-value pairs.
func (l *SlogLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, keysAndValues...)
}

// Error logs an error-level message with optional key-value pairs.
func (l *SlogLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, keysAndValues...)
}

// Fatal logs at Error level (slog has no Fatal level) and exits with status 1.
func (l *SlogLogger) Fatal(msg string, keysAndValues ...any) {
	l.logger.Error(msg, keysAndValues...)
	os.Exit(1) //nolint:revive // Fatal should exit the program
}
