package writerlock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/skycarbon/skycarbon/internal/logging"
	"github.com/skycarbon/skycarbon/types"
)

// Common errors for lock operations.
var (
	ErrNotHeld       = errors.New("writer lock not held")
	ErrLost          = errors.New("writer lock was lost")
	ErrHeldElsewhere = errors.New("writer lock is held by another instance")
)

// BucketConfig returns the configuration of the lease bucket. The TTL is the
// lease duration: an unrenewed claim disappears after it.
func BucketConfig(name string, ttl time.Duration, storage jetstream.StorageType) jetstream.KeyValueConfig {
	return jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "skycarbon single-writer lease",
		History:     1,
		TTL:         ttl,
		Storage:     storage,
	}
}

// Lock is a lease on one key of a TTL bucket.
//
// All fields are protected by mu.
type Lock struct {
	kv     jetstream.KeyValue
	key    string
	owner  string
	logger types.Logger

	mu       sync.RWMutex
	revision uint64
	held     bool
}

// New creates a lock for key, claimed under the owner identity.
//
// Parameters:
//   - kv: Bucket created with BucketConfig
//   - key: Lease key name
//   - owner: Identity written into the key, shown in logs of competitors
//
// Returns:
//   - *Lock: Unheld lock
func New(kv jetstream.KeyValue, key, owner string) *Lock {
	return &Lock{
		kv:     kv,
		key:    key,
		owner:  owner,
		logger: logging.NewNop(),
	}
}

// SetLogger sets the logger used by KeepAlive.
func (l *Lock) SetLogger(logger types.Logger) {
	l.logger = logger
}

// Owner returns the identity this lock claims under.
func (l *Lock) Owner() string {
	return l.owner
}

// Acquire claims the lease, or renews it if already held.
//
// Returns:
//   - bool: true if the lease is now held by this instance
//   - error: Store error; a lease held by someone else is (false, nil)
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	if l.isHeld() {
		if err := l.Renew(ctx); err == nil {
			return true, nil
		}
	}

	rev, err := l.kv.Create(ctx, l.key, l.value())
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return false, nil
		}

		return false, fmt.Errorf("failed to create lock key: %w", err)
	}

	l.set(true, rev)

	return true, nil
}

// Holder returns the owner currently written in the lease key, or "" when
// the lease is free.
func (l *Lock) Holder(ctx context.Context) (string, error) {
	entry, err := l.kv.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", nil
		}

		return "", fmt.Errorf("failed to read lock key: %w", err)
	}

	holder, _, _ := strings.Cut(string(entry.Value()), " ")

	return holder, nil
}

// Renew extends the lease.
//
// Returns:
//   - error: ErrNotHeld, or ErrLost when the key changed or vanished
func (l *Lock) Renew(ctx context.Context) error {
	l.mu.RLock()
	held, rev := l.held, l.revision
	l.mu.RUnlock()

	if !held {
		return ErrNotHeld
	}

	next, err := l.kv.Update(ctx, l.key, l.value(), rev)
	if err != nil {
		l.set(false, 0)

		return fmt.Errorf("%w: %w", ErrLost, err)
	}

	l.set(true, next)

	return nil
}

// Release deletes the lease key so a successor can claim it at once.
func (l *Lock) Release(ctx context.Context) error {
	l.mu.RLock()
	held, rev := l.held, l.revision
	l.mu.RUnlock()

	if !held {
		return ErrNotHeld
	}

	err := l.kv.Delete(ctx, l.key, jetstream.LastRevision(rev))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete lock key: %w", err)
	}

	l.set(false, 0)

	return nil
}

// KeepAlive renews the lease every interval until ctx is done.
//
// The returned channel receives one error and closes when the lease is lost.
// It closes without a value when ctx ends first.
func (l *Lock) KeepAlive(ctx context.Context, interval time.Duration) <-chan error {
	lost := make(chan error, 1)

	go func() {
		defer close(lost)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				renewCtx, cancel := context.WithTimeout(ctx, interval)
				err := l.Renew(renewCtx)
				cancel()

				if err == nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}

				l.logger.Error("writer lock lost", "key", l.key, "owner", l.owner, "error", err)
				lost <- err

				return
			}
		}
	}()

	return lost
}

func (l *Lock) value() []byte {
	return fmt.Appendf(nil, "%s %d", l.owner, time.Now().Unix())
}

func (l *Lock) isHeld() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.held
}

func (l *Lock) set(held bool, rev uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.held = held
	l.revision = rev
}
