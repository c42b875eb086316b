package heartbeat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skycarbon/skycarbon/store"
	skytest "github.com/skycarbon/skycarbon/testing"
	"github.com/skycarbon/skycarbon/types"
)

type heartbeatMetrics struct {
	mu        sync.Mutex
	successes int
	failures  int
}

func (m *heartbeatMetrics) RecordStateTransition(types.State, types.State, float64) {}
func (m *heartbeatMetrics) RecordActiveLanes(int)                                   {}
func (m *heartbeatMetrics) RecordHeartbeat(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.successes++
	} else {
		m.failures++
	}
}

func (m *heartbeatMetrics) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.successes, m.failures
}

func TestPublisher_Start(t *testing.T) {
	t.Run("publishes immediately", func(t *testing.T) {
		st := store.NewMemory()
		clock := skytest.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

		publisher := New(st, time.Hour)
		publisher.SetClock(clock)

		require.NoError(t, publisher.Start(t.Context()))
		require.True(t, publisher.IsStarted())

		hb, err := st.GetHeartbeat(t.Context())
		require.NoError(t, err)
		require.Equal(t, clock.Now(), hb)
		require.Equal(t, clock.Now(), publisher.LastPublished())

		require.NoError(t, publisher.Stop())
	})

	t.Run("returns error if already started", func(t *testing.T) {
		publisher := New(store.NewMemory(), time.Hour)

		require.NoError(t, publisher.Start(t.Context()))
		require.ErrorIs(t, publisher.Start(t.Context()), ErrAlreadyStarted)
		require.NoError(t, publisher.Stop())
	})

	t.Run("cannot restart after stop", func(t *testing.T) {
		publisher := New(store.NewMemory(), time.Hour)

		require.NoError(t, publisher.Start(t.Context()))
		require.NoError(t, publisher.Stop())
		require.ErrorIs(t, publisher.Start(t.Context()), ErrStopped)
	})
}

func TestPublisher_Stop(t *testing.T) {
	publisher := New(store.NewMemory(), time.Hour)
	require.ErrorIs(t, publisher.Stop(), ErrNotStarted)

	require.NoError(t, publisher.Start(t.Context()))
	require.NoError(t, publisher.Stop())
	require.False(t, publisher.IsStarted())
	require.ErrorIs(t, publisher.Stop(), ErrNotStarted)
}

func TestPublisher_PublishesPeriodically(t *testing.T) {
	st := store.NewMemory()
	m := &heartbeatMetrics{}

	publisher := New(st, 20*time.Millisecond)
	publisher.SetMetrics(m)
	require.NoError(t, publisher.Start(t.Context()))
	defer func() { _ = publisher.Stop() }()

	require.Eventually(t, func() bool {
		ok, _ := m.counts()
		return ok >= 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPublisher_FailuresAreNotFatal(t *testing.T) {
	st := store.NewMemory()
	st.SetAvailable(false)
	m := &heartbeatMetrics{}
	logger := skytest.NewTestLogger(t)

	publisher := New(st, 20*time.Millisecond)
	publisher.SetMetrics(m)
	publisher.SetLogger(logger)

	require.NoError(t, publisher.Start(t.Context()), "a failed first heartbeat does not fail Start")
	require.True(t, publisher.LastPublished().IsZero())

	require.Eventually(t, func() bool {
		_, failed := m.counts()
		return failed >= 2
	}, 2*time.Second, 10*time.Millisecond)
	require.True(t, logger.Has("WARN", "heartbeat publish failed"))

	st.SetAvailable(true)
	require.Eventually(t, func() bool {
		ok, _ := m.counts()
		return ok >= 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, publisher.Stop())
}

func TestPublisher_KVStore(t *testing.T) {
	_, nc := skytest.StartEmbeddedNATS(t)
	st, err := store.NewKV(t.Context(), nc, store.KVConfig{Storage: "memory"})
	require.NoError(t, err)

	publisher := New(st, time.Hour)
	require.NoError(t, publisher.Start(t.Context()))
	require.NoError(t, publisher.Stop())

	hb, err := st.GetHeartbeat(t.Context())
	require.NoError(t, err)
	require.False(t, hb.IsZero())
	require.WithinDuration(t, time.Now(), hb, 5*time.Second)
}
