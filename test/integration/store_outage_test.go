//go:build integration

package integration_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skycarbon/skycarbon"
	"github.com/skycarbon/skycarbon/emission"
	"github.com/skycarbon/skycarbon/source"
	"github.com/skycarbon/skycarbon/store"
	"github.com/skycarbon/skycarbon/test/testutil"
	skytest "github.com/skycarbon/skycarbon/testing"
)

// TestStoreOutage_JobsFailAndRecover stops the NATS server under a running
// service. Jobs fail while the store is down without stopping the lanes, and
// updates resume once the server is back.
func TestStoreOutage_JobsFailAndRecover(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := testutil.StartRestartableNATS(t)
	nc := srv.Connect()
	kv, err := store.NewKV(t.Context(), nc, store.KVConfig{Storage: "file"})
	require.NoError(t, err)

	logger := skytest.NewTestLogger(t)
	cfg := testutil.FastConfig("berlin")
	svc, err := skycarbon.NewService(&cfg, kv, testutil.NewSteadyFeed(2), emission.NewFactory(emission.DefaultConfig()),
		skycarbon.WithAirspaceSource(source.FromMap(map[string]skycarbon.BoundingBox{"berlin": berlin})),
		skycarbon.WithLogger(logger),
	)
	require.NoError(t, err)
	require.NoError(t, svc.Start(t.Context()))
	t.Cleanup(func() { _ = svc.Stop(t.Context()) })

	testutil.WaitForTotal(t, kv, "berlin", 10*time.Second, testutil.Above(0))

	t.Log("Stopping NATS under the running service")
	srv.Stop()

	require.Eventually(t, func() bool {
		lanes := svc.Lanes()
		return len(lanes) == 1 && lanes[0].Failed > 0
	}, 10*time.Second, 50*time.Millisecond, "jobs should fail while the store is down")
	require.Equal(t, skycarbon.StateRunning, svc.State(), "job failures must not stop the service")

	t.Log("Restarting NATS")
	srv.Start()

	require.Eventually(t, func() bool {
		return kv.IsRunning(t.Context()) == nil
	}, 15*time.Second, 100*time.Millisecond, "client should reconnect")

	current, err := kv.GetTotalCarbon(t.Context(), "berlin")
	require.NoError(t, err)
	testutil.WaitForTotal(t, kv, "berlin", 10*time.Second, testutil.Above(current))
	t.Log("updates resumed after the outage")
}
