package writerlock

import (
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	skytest "github.com/skycarbon/skycarbon/testing"
)

func TestLock_Acquire(t *testing.T) {
	t.Run("acquires a free lease", func(t *testing.T) {
		_, nc := skytest.StartEmbeddedNATS(t)
		kv := skytest.CreateJetStreamKV(t, nc, "lock-acquire-1")

		lock := New(kv, "writer", "daemon-a")
		held, err := lock.Acquire(t.Context())
		require.NoError(t, err)
		require.True(t, held)

		holder, err := lock.Holder(t.Context())
		require.NoError(t, err)
		require.Equal(t, "daemon-a", holder)
	})

	t.Run("second instance is refused", func(t *testing.T) {
		_, nc := skytest.StartEmbeddedNATS(t)
		kv := skytest.CreateJetStreamKV(t, nc, "lock-acquire-2")

		first := New(kv, "writer", "daemon-a")
		held, err := first.Acquire(t.Context())
		require.NoError(t, err)
		require.True(t, held)

		second := New(kv, "writer", "daemon-b")
		held, err = second.Acquire(t.Context())
		require.NoError(t, err)
		require.False(t, held)
	})

	t.Run("acquire again renews", func(t *testing.T) {
		_, nc := skytest.StartEmbeddedNATS(t)
		kv := skytest.CreateJetStreamKV(t, nc, "lock-acquire-3")

		lock := New(kv, "writer", "daemon-a")
		for range 3 {
			held, err := lock.Acquire(t.Context())
			require.NoError(t, err)
			require.True(t, held)
		}
	})
}

func TestLock_Renew(t *testing.T) {
	t.Run("fails when not held", func(t *testing.T) {
		_, nc := skytest.StartEmbeddedNATS(t)
		kv := skytest.CreateJetStreamKV(t, nc, "lock-renew-1")

		err := New(kv, "writer", "daemon-a").Renew(t.Context())
		require.ErrorIs(t, err, ErrNotHeld)
	})

	t.Run("detects a stolen lease", func(t *testing.T) {
		_, nc := skytest.StartEmbeddedNATS(t)
		kv := skytest.CreateJetStreamKV(t, nc, "lock-renew-2")

		lock := New(kv, "writer", "daemon-a")
		held, err := lock.Acquire(t.Context())
		require.NoError(t, err)
		require.True(t, held)

		// Someone deletes and re-creates the key.
		require.NoError(t, kv.Delete(t.Context(), "writer"))
		_, err = kv.Create(t.Context(), "writer", []byte("daemon-b 0"))
		require.NoError(t, err)

		err = lock.Renew(t.Context())
		require.ErrorIs(t, err, ErrLost)

		err = lock.Renew(t.Context())
		require.ErrorIs(t, err, ErrNotHeld, "a lost lease stays lost")
	})
}

func TestLock_Release(t *testing.T) {
	_, nc := skytest.StartEmbeddedNATS(t)
	kv := skytest.CreateJetStreamKV(t, nc, "lock-release")

	first := New(kv, "writer", "daemon-a")
	held, err := first.Acquire(t.Context())
	require.NoError(t, err)
	require.True(t, held)

	require.NoError(t, first.Release(t.Context()))
	require.ErrorIs(t, first.Release(t.Context()), ErrNotHeld)

	holder, err := first.Holder(t.Context())
	require.NoError(t, err)
	require.Empty(t, holder)

	second := New(kv, "writer", "daemon-b")
	held, err = second.Acquire(t.Context())
	require.NoError(t, err)
	require.True(t, held, "released lease is free at once")
}

func TestLock_ExpiresWithoutRenewal(t *testing.T) {
	_, nc := skytest.StartEmbeddedNATS(t)

	js, err := jetstream.New(nc)
	require.NoError(t, err)
	kv, err := js.CreateKeyValue(t.Context(), BucketConfig("lock-ttl", time.Second, jetstream.MemoryStorage))
	require.NoError(t, err)

	first := New(kv, "writer", "daemon-a")
	held, err := first.Acquire(t.Context())
	require.NoError(t, err)
	require.True(t, held)

	second := New(kv, "writer", "daemon-b")
	require.Eventually(t, func() bool {
		held, err := second.Acquire(t.Context())
		return err == nil && held
	}, 5*time.Second, 100*time.Millisecond, "lease should expire after the bucket TTL")
}

func TestLock_KeepAlive(t *testing.T) {
	t.Run("keeps the lease past the TTL", func(t *testing.T) {
		_, nc := skytest.StartEmbeddedNATS(t)

		js, err := jetstream.New(nc)
		require.NoError(t, err)
		kv, err := js.CreateKeyValue(t.Context(), BucketConfig("lock-keepalive-1", time.Second, jetstream.MemoryStorage))
		require.NoError(t, err)

		lock := New(kv, "writer", "daemon-a")
		held, err := lock.Acquire(t.Context())
		require.NoError(t, err)
		require.True(t, held)

		lost := lock.KeepAlive(t.Context(), 200*time.Millisecond)

		time.Sleep(2 * time.Second)

		select {
		case err := <-lost:
			t.Fatalf("lease lost while renewing: %v", err)
		default:
		}

		held, err = New(kv, "writer", "daemon-b").Acquire(t.Context())
		require.NoError(t, err)
		require.False(t, held)
	})

	t.Run("reports a lost lease", func(t *testing.T) {
		_, nc := skytest.StartEmbeddedNATS(t)
		kv := skytest.CreateJetStreamKV(t, nc, "lock-keepalive-2")

		logger := skytest.NewTestLogger(t)
		lock := New(kv, "writer", "daemon-a")
		lock.SetLogger(logger)

		held, err := lock.Acquire(t.Context())
		require.NoError(t, err)
		require.True(t, held)

		lost := lock.KeepAlive(t.Context(), 50*time.Millisecond)
		require.NoError(t, kv.Delete(t.Context(), "writer"))

		select {
		case err := <-lost:
			require.ErrorIs(t, err, ErrLost)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for lost lease")
		}
		require.True(t, logger.Has("ERROR", "writer lock lost"))
	})
}

func TestLock_ConcurrentAcquire(t *testing.T) {
	_, nc := skytest.StartEmbeddedNATS(t)
	kv := skytest.CreateJetStreamKV(t, nc, "lock-concurrent")

	const n = 5
	results := make(chan bool, n)
	errs := make(chan error, n)

	for i := range n {
		go func(i int) {
			held, err := New(kv, "writer", fmt.Sprintf("daemon-%d", i)).Acquire(t.Context())
			if err != nil {
				errs <- err
				return
			}
			results <- held
		}(i)
	}

	holders := 0
	for range n {
		select {
		case held := <-results:
			if held {
				holders++
			}
		case err := <-errs:
			t.Fatalf("acquire failed: %v", err)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for acquire")
		}
	}

	require.Equal(t, 1, holders, "exactly one instance holds the lease")
}
