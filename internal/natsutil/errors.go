package natsutil

import (
	"context"
	"errors"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// IsConnectivityError reports whether err means the NATS server could not be
// reached, as opposed to a logical failure such as a missing key.
//
// Kept in internal/natsutil so types/ does not import NATS.
//
// Parameters:
//   - err: Error to check
//
// Returns:
//   - bool: true if the error indicates a connectivity issue
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrNoResponders) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, jetstream.ErrJetStreamNotEnabled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "i/o timeout")
}
