package logging

import "github.com/skycarbon/skycarbon/types"

// NopLogger is a no-op logger that discards all log messages.
//
// Useful for:
//   - Tests without log noise
//   - Embedding skycarbon where logging is handled externally
type NopLogger struct{}

// Compile-time assertion that NopLogger implements Logger.
var _ types.Logger = (*NopLogger)(nil)

// NewNop creates a new no-op logger that discards all messages.
func NewNop() *NopLogger {
	return &NopLogger{}
}

// Debug discards the message.
func (n *NopLogger) Debug(_ /* msg */ string, _ /* keysAndValues */ ...any) {}

// Info discards the message.
func (n *NopLogger) Info(_ /* msg */ string, _ /* keysAndValues */ ...any) {}

// Warn discards the message.
func (n *NopLogger) Warn(_ /* msg */ string, _ /* keysAndValues */ ...any) {}

// Error discards the message.
func (n *NopLogger) Error(_ /* msg */ string, _ /* keysAndValues */ ...any) {}

// Fatal discards the message and does NOT call os.Exit.
func (n *NopLogger) Fatal(_ /* msg */ string, _ /* keysAndValues */ ...any) {}
