package kvutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	skytest "github.com/skycarbon/skycarbon/testing"
)

func TestBuckets_SetDefaults(t *testing.T) {
	b := Buckets{Totals: "custom-totals"}
	b.SetDefaults()

	require.Equal(t, "custom-totals", b.Totals)
	require.Equal(t, DefaultBuckets().Hourly, b.Hourly)
	require.Equal(t, DefaultBuckets().Meta, b.Meta)
}

func TestBucketConfig(t *testing.T) {
	cfg := BucketConfig("skycarbon-totals", "totals", jetstream.MemoryStorage, 0)

	require.Equal(t, "skycarbon-totals", cfg.Bucket)
	require.Equal(t, 1, cfg.Replicas)
	require.Equal(t, uint8(1), cfg.History)
	require.Zero(t, cfg.TTL)
	require.Equal(t, jetstream.MemoryStorage, cfg.Storage)
}

func TestEnsureKVBucketWithRetry(t *testing.T) {
	_, nc := skytest.StartEmbeddedNATS(t)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	t.Run("creates on first try", func(t *testing.T) {
		cfg := BucketConfig("test-first", "first", jetstream.MemoryStorage, 1)

		kv, err := EnsureKVBucketWithRetry(t.Context(), js, cfg, 3)
		require.NoError(t, err)
		require.Equal(t, "test-first", kv.Bucket())
	})

	t.Run("opens an existing bucket", func(t *testing.T) {
		cfg := BucketConfig("test-existing", "existing", jetstream.MemoryStorage, 1)

		first, err := EnsureKVBucketWithRetry(t.Context(), js, cfg, 3)
		require.NoError(t, err)
		_, err = first.Put(t.Context(), "berlin", []byte("12.5"))
		require.NoError(t, err)

		second, err := EnsureKVBucketWithRetry(t.Context(), js, cfg, 3)
		require.NoError(t, err)

		entry, err := second.Get(t.Context(), "berlin")
		require.NoError(t, err)
		require.Equal(t, "12.5", string(entry.Value()))
	})

	t.Run("concurrent creators all succeed", func(t *testing.T) {
		cfg := BucketConfig("test-concurrent", "concurrent", jetstream.MemoryStorage, 1)

		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)

		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := EnsureKVBucketWithRetry(t.Context(), js, cfg, 5)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), time.Nanosecond)
		defer cancel()
		time.Sleep(time.Millisecond)

		cfg := BucketConfig("test-cancelled", "cancelled", jetstream.MemoryStorage, 1)
		_, err := EnsureKVBucketWithRetry(ctx, js, cfg, 3)
		require.Error(t, err)
	})
}
