package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skycarbon/skycarbon/store"
	skytest "github.com/skycarbon/skycarbon/testing"
	"github.com/skycarbon/skycarbon/types"
)

var (
	epoch  = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	berlin = types.JobContext{
		Airspace: types.Airspace{
			Name: "berlin",
			Box:  types.BoundingBox{MinLat: 52.3418234221, MinLon: 13.0882097323, MaxLat: 52.6697240587, MaxLon: 13.7606105539},
		},
		Credentials: types.Credentials{Username: "alice", Password: "secret"},
	}
)

type fixture struct {
	store   *store.Memory
	fetcher *skytest.FakeFetcher
	model   *skytest.FakeEmission
	clock   *skytest.ManualClock
	logger  *skytest.TestLogger
	runner  *Runner
}

func newFixture(t *testing.T, hooks *types.Hooks) *fixture {
	f := &fixture{
		store:   store.NewMemory(),
		fetcher: skytest.NewFakeFetcher(),
		model:   skytest.NewFakeEmission(),
		clock:   skytest.NewManualClock(epoch),
		logger:  skytest.NewTestLogger(t),
	}
	f.runner = NewRunner(berlin, Deps{
		Store:   f.store,
		Fetcher: f.fetcher,
		Model:   f.model,
		Clock:   f.clock,
		Logger:  f.logger,
		Hooks:   hooks,
	})

	return f
}

func (f *fixture) total(t *testing.T) float64 {
	v, err := f.store.GetTotalCarbon(t.Context(), "berlin")
	require.NoError(t, err)

	return v
}

func TestBerlinScenario(t *testing.T) {
	f := newFixture(t, nil)
	ctx := t.Context()

	f.fetcher.Push(
		skytest.FetchResult{Response: skytest.StatesAt(epoch, 3)},
		skytest.FetchResult{Response: &types.StatesResponse{Time: epoch.Add(time.Minute)}},
	)
	f.model = skytest.NewFakeEmission(12.5)
	f.runner.deps.Model = f.model

	require.Zero(t, f.total(t))

	require.NoError(t, f.runner.UpdateEmission(ctx))
	require.InDelta(t, 12.5, f.total(t), 1e-9)

	// Null states: no-op.
	require.NoError(t, f.runner.UpdateEmission(ctx))
	require.InDelta(t, 12.5, f.total(t), 1e-9)
	require.Equal(t, 1, f.model.Calls())

	f.clock.Advance(time.Hour)
	require.NoError(t, f.runner.TakeSnapshot(ctx))

	snaps, err := f.store.GetHourlySnapshots(ctx, "berlin")
	require.NoError(t, err)
	require.Equal(t, []types.Snapshot{{Time: epoch.Add(time.Hour), CO2: 12.5}}, snaps)
}

func TestTakeSnapshot_SecondPrecision(t *testing.T) {
	f := newFixture(t, nil)
	f.clock.Advance(time.Hour + 750*time.Millisecond)

	require.NoError(t, f.runner.TakeSnapshot(t.Context()))

	snaps, err := f.store.GetHourlySnapshots(t.Context(), "berlin")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.Equal(t, epoch.Add(time.Hour), snaps[0].Time)
	require.Zero(t, snaps[0].Time.Nanosecond())

	// The stored value survives the persisted encoding unchanged.
	data, err := json.Marshal(snaps[0])
	require.NoError(t, err)
	var decoded types.Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, snaps[0], decoded)
}

func TestUpdateEmission_UsesJobContext(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.runner.UpdateEmission(t.Context()))

	require.Equal(t, []types.BoundingBox{berlin.Airspace.Box}, f.fetcher.Calls())
	require.Equal(t, []types.Credentials{berlin.Credentials}, f.fetcher.CredentialsSeen())
}

func TestUpdateEmission_NoOpCases(t *testing.T) {
	tests := []struct {
		name   string
		result skytest.FetchResult
	}{
		{"fetch error", skytest.FetchResult{Err: errors.New("connection reset")}},
		{"nil response", skytest.FetchResult{}},
		{"nil states", skytest.FetchResult{Response: &types.StatesResponse{Time: epoch}}},
		{"empty states", skytest.FetchResult{Response: &types.StatesResponse{Time: epoch, States: []types.StateVector{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			require.NoError(t, f.store.SetTotalCarbon(t.Context(), "berlin", 7))
			f.fetcher.Push(tt.result)

			require.NoError(t, f.runner.UpdateEmission(t.Context()))
			require.InDelta(t, 7.0, f.total(t), 1e-9)
			require.Zero(t, f.model.Calls())

			snaps, err := f.store.GetHourlySnapshots(t.Context(), "berlin")
			require.NoError(t, err)
			require.Empty(t, snaps)
		})
	}
}

func TestUpdateEmission_FetchErrorIsLogged(t *testing.T) {
	f := newFixture(t, nil)
	f.fetcher.Push(skytest.FetchResult{Err: errors.New("timeout")})

	require.NoError(t, f.runner.UpdateEmission(t.Context()))
	require.True(t, f.logger.Has("WARN", "state fetch failed"))
}

func TestUpdateEmission_RejectsInvalidDelta(t *testing.T) {
	for _, delta := range []float64{-1, math.NaN(), math.Inf(1)} {
		f := newFixture(t, nil)
		require.NoError(t, f.store.SetTotalCarbon(t.Context(), "berlin", 5))
		f.fetcher.Push(skytest.FetchResult{Response: skytest.StatesAt(epoch, 1)})
		f.runner.deps.Model = skytest.NewFakeEmission(delta)

		err := f.runner.UpdateEmission(t.Context())
		require.ErrorIs(t, err, types.ErrNegativeEmission)
		require.InDelta(t, 5.0, f.total(t), 1e-9)
	}
}

func TestUpdateEmission_Monotonic(t *testing.T) {
	f := newFixture(t, nil)
	deltas := []float64{1.5, 0, 3.25, 0, 10}
	for range deltas {
		f.fetcher.Push(skytest.FetchResult{Response: skytest.StatesAt(epoch, 2)})
	}
	f.runner.deps.Model = skytest.NewFakeEmission(deltas...)

	prev := 0.0
	for range deltas {
		require.NoError(t, f.runner.UpdateEmission(t.Context()))
		cur := f.total(t)
		require.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
	require.InDelta(t, 14.75, prev, 1e-9)
}

func TestUpdateEmission_ModelAndStoreErrors(t *testing.T) {
	t.Run("model error", func(t *testing.T) {
		f := newFixture(t, nil)
		f.fetcher.Push(skytest.FetchResult{Response: skytest.StatesAt(epoch, 1)})
		f.model.FailWith(errors.New("bad model"))

		require.ErrorContains(t, f.runner.UpdateEmission(t.Context()), "bad model")
	})

	t.Run("store unavailable", func(t *testing.T) {
		f := newFixture(t, nil)
		f.fetcher.Push(skytest.FetchResult{Response: skytest.StatesAt(epoch, 1)})
		f.store.SetAvailable(false)

		require.ErrorIs(t, f.runner.UpdateEmission(t.Context()), types.ErrStoreUnavailable)
		require.ErrorIs(t, f.runner.TakeSnapshot(t.Context()), types.ErrStoreUnavailable)
	})
}

func TestHooks(t *testing.T) {
	var (
		gotDelta, gotTotal float64
		gotSnap            types.Snapshot
	)
	hooks := &types.Hooks{
		OnTotalUpdated: func(_ context.Context, airspace string, delta, total float64) error {
			require.Equal(t, "berlin", airspace)
			gotDelta, gotTotal = delta, total

			return errors.New("hook failed")
		},
		OnSnapshotStored: func(_ context.Context, _ string, s types.Snapshot) error {
			gotSnap = s
			return nil
		},
	}

	f := newFixture(t, hooks)
	require.NoError(t, f.store.SetTotalCarbon(t.Context(), "berlin", 2))
	f.fetcher.Push(skytest.FetchResult{Response: skytest.StatesAt(epoch, 1)})
	f.runner.deps.Model = skytest.NewFakeEmission(3)

	require.NoError(t, f.runner.UpdateEmission(t.Context()), "hook errors never fail the job")
	require.InDelta(t, 3.0, gotDelta, 1e-9)
	require.InDelta(t, 5.0, gotTotal, 1e-9)
	require.True(t, f.logger.Has("WARN", "OnTotalUpdated hook error"))

	require.NoError(t, f.runner.TakeSnapshot(t.Context()))
	require.InDelta(t, 5.0, gotSnap.CO2, 1e-9)
}

func TestFactoriesBuildNamedJobs(t *testing.T) {
	f := newFixture(t, nil)

	u1 := f.runner.EmissionUpdateFactory()()
	u2 := f.runner.EmissionUpdateFactory()()
	s := f.runner.HourlySnapshotFactory()()

	require.Equal(t, NameEmissionUpdate, u1.Name)
	require.Equal(t, NameHourlySnapshot, s.Name)
	require.NotEqual(t, u1.ID, u2.ID)
	require.NoError(t, s.Fn(t.Context()))
}
