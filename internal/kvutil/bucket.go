// Package kvutil provides helpers for NATS JetStream KeyValue buckets.
package kvutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Buckets names the three KV buckets backing the store.
type Buckets struct {
	// Totals holds one float per airspace.
	Totals string `yaml:"totals"`

	// Hourly holds one JSON snapshot list per airspace.
	Hourly string `yaml:"hourly"`

	// Meta holds the airspace registry, startup time and heartbeat.
	Meta string `yaml:"meta"`
}

// DefaultBuckets returns the bucket names used when none are configured.
func DefaultBuckets() Buckets {
	return Buckets{
		Totals: "skycarbon-totals",
		Hourly: "skycarbon-hourly",
		Meta:   "skycarbon-meta",
	}
}

// SetDefaults fills empty bucket names.
func (b *Buckets) SetDefaults() {
	def := DefaultBuckets()
	if b.Totals == "" {
		b.Totals = def.Totals
	}
	if b.Hourly == "" {
		b.Hourly = def.Hourly
	}
	if b.Meta == "" {
		b.Meta = def.Meta
	}
}

// BucketConfig builds the configuration shared by every store bucket.
//
// Snapshots and totals must survive restarts, so there is no TTL and history
// is kept at one revision: optimistic updates only need the latest revision.
func BucketConfig(name, description string, storage jetstream.StorageType, replicas int) jetstream.KeyValueConfig {
	if replicas <= 0 {
		replicas = 1
	}

	return jetstream.KeyValueConfig{
		Bucket:      name,
		Description: description,
		History:     1,
		Storage:     storage,
		Replicas:    replicas,
	}
}

// EnsureKVBucketWithRetry creates or opens a KV bucket with retry logic.
//
// Concurrent creators race on CreateKeyValue; the loser sees ErrBucketExists
// and opens the bucket instead. Transient failures are retried with
// exponential backoff.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream context
//   - config: KV bucket configuration
//   - maxRetries: Maximum number of attempts (default: 3)
//
// Returns:
//   - jetstream.KeyValue: The KV bucket instance
//   - error: Last error after all attempts
//
// Example:
//
//	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js,
//	    kvutil.BucketConfig("skycarbon-totals", "totals", jetstream.FileStorage, 1), 3)
func EnsureKVBucketWithRetry(
	ctx context.Context,
	js jetstream.JetStream,
	config jetstream.KeyValueConfig,
	maxRetries int,
) (jetstream.KeyValue, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		kv, err := js.CreateKeyValue(ctx, config)
		if err == nil {
			return kv, nil
		}

		if errors.Is(err, jetstream.ErrBucketExists) {
			kv, err := js.KeyValue(ctx, config.Bucket)
			if err == nil {
				return kv, nil
			}
			lastErr = fmt.Errorf("bucket exists but failed to open: %w", err)
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled during KV bucket creation: %w", ctx.Err())
		}

		// 10ms, 20ms, 40ms...
		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 10 * time.Millisecond //nolint:gosec // attempt is bounded by maxRetries
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to create/open KV bucket %s after %d attempts: %w",
		config.Bucket, maxRetries, lastErr)
}
