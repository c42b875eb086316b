package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/skycarbon/skycarbon/internal/metrics"
	"github.com/skycarbon/skycarbon/store"
	"github.com/skycarbon/skycarbon/types"
)

var (
	startup = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	boxes   = map[string]types.BoundingBox{
		"berlin": {MinLat: 52.3418234221, MinLon: 13.0882097323, MaxLat: 52.6697240587, MaxLon: 13.7606105539},
		"paris":  {MinLat: 48.753020, MinLon: 2.138901, MaxLat: 48.937837, MaxLon: 2.493896},
	}
)

func seededStore(t *testing.T) *store.Memory {
	t.Helper()

	st := store.NewMemory()
	ctx := t.Context()
	require.NoError(t, st.SetAirspaces(ctx, boxes))
	require.NoError(t, st.SetStartupTime(ctx, startup))
	require.NoError(t, st.SetHeartbeat(ctx, startup.Add(time.Minute)))
	require.NoError(t, st.SetTotalCarbon(ctx, "berlin", 12.5))
	require.NoError(t, st.StoreHourlySnapshot(ctx, "berlin", types.Snapshot{Time: startup.Add(time.Hour), CO2: 12.5}))

	return st
}

func newTestServer(t *testing.T, reader types.StoreReader, opts ...Option) *httptest.Server {
	t.Helper()

	srv := New(Config{}, reader, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts
}

func get(t *testing.T, url string, header ...string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return res, body
}

func TestHealth(t *testing.T) {
	st := seededStore(t)
	ts := newTestServer(t, st)

	res, body := get(t, ts.URL+"/health")
	require.Equal(t, http.StatusOK, res.StatusCode)

	var h healthResponse
	require.NoError(t, json.Unmarshal(body, &h))
	require.Equal(t, "ok", h.Status)
	require.True(t, h.Store)
	require.NotNil(t, h.Heartbeat)
	require.True(t, startup.Add(time.Minute).Equal(*h.Heartbeat))

	st.SetAvailable(false)
	res, _ = get(t, ts.URL+"/health")
	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	require.Equal(t, "no-store", res.Header.Get("Cache-Control"))
}

func TestStartup(t *testing.T) {
	ts := newTestServer(t, seededStore(t))

	res, body := get(t, ts.URL+"/startup")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `{"startup": 1772366400}`, string(body))

	empty := newTestServer(t, store.NewMemory())
	res, _ = get(t, empty.URL+"/startup")
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestAirspacesAndTotals(t *testing.T) {
	ts := newTestServer(t, seededStore(t))

	res, body := get(t, ts.URL+"/airspaces")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var got map[string]types.BoundingBox
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, boxes, got)

	res, body = get(t, ts.URL+"/totals")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `{"berlin": 12.5, "paris": 0}`, string(body))
}

func TestAirspaceTotal(t *testing.T) {
	ts := newTestServer(t, seededStore(t))

	res, body := get(t, ts.URL+"/airspaces/berlin/total")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `{"airspace": "berlin", "co2": 12.5}`, string(body))

	res, body = get(t, ts.URL+"/airspaces/paris/total")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `{"airspace": "paris", "co2": 0}`, string(body))

	res, _ = get(t, ts.URL+"/airspaces/tokyo/total")
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestAirspaceHourly(t *testing.T) {
	ts := newTestServer(t, seededStore(t))

	res, body := get(t, ts.URL+"/airspaces/berlin/hourly")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `{"airspace": "berlin", "hourly": [{"time": 1772370000, "co2": 12.5}]}`, string(body))

	res, body = get(t, ts.URL+"/airspaces/paris/hourly")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `{"airspace": "paris", "hourly": []}`, string(body))

	res, _ = get(t, ts.URL+"/airspaces/tokyo/hourly")
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestETag(t *testing.T) {
	st := seededStore(t)
	ts := newTestServer(t, st)

	res, _ := get(t, ts.URL+"/airspaces/berlin/total")
	etag := res.Header.Get("ETag")
	require.NotEmpty(t, etag)

	res, body := get(t, ts.URL+"/airspaces/berlin/total", "If-None-Match", etag)
	require.Equal(t, http.StatusNotModified, res.StatusCode)
	require.Empty(t, body)

	require.NoError(t, st.SetTotalCarbon(t.Context(), "berlin", 13))
	res, _ = get(t, ts.URL+"/airspaces/berlin/total", "If-None-Match", etag)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEqual(t, etag, res.Header.Get("ETag"))
}

func TestStoreUnavailable(t *testing.T) {
	st := seededStore(t)
	ts := newTestServer(t, st)
	st.SetAvailable(false)

	for _, path := range []string{"/startup", "/airspaces", "/totals", "/airspaces/berlin/total", "/airspaces/berlin/hourly"} {
		res, _ := get(t, ts.URL+path)
		require.Equal(t, http.StatusServiceUnavailable, res.StatusCode, path)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, seededStore(t))

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, ts.URL+"/totals", strings.NewReader("{}"))
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewPrometheus(reg, "skycarbon")
	collector.RecordTotalCarbon("berlin", 12.5)

	ts := newTestServer(t, seededStore(t), WithGatherer(reg))

	res, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), `skycarbon_emission_cumulative_co2_kg{airspace="berlin"} 12.5`)
}

func TestServerLifecycle(t *testing.T) {
	srv := New(Config{Addr: "127.0.0.1:0"}, seededStore(t))
	require.ErrorIs(t, srv.Stop(t.Context()), ErrNotStarted)

	require.NoError(t, srv.Start(t.Context()))
	require.ErrorIs(t, srv.Start(t.Context()), ErrAlreadyStarted)
	require.NotEmpty(t, srv.Addr())

	res, _ := get(t, "http://"+srv.Addr()+"/health")
	require.Equal(t, http.StatusOK, res.StatusCode)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	_, err := http.Get("http://" + srv.Addr() + "/health") //nolint:noctx
	require.Error(t, err)
}

func TestStart_ListenError(t *testing.T) {
	first := New(Config{Addr: "127.0.0.1:0"}, store.NewMemory())
	require.NoError(t, first.Start(t.Context()))
	t.Cleanup(func() { _ = first.Stop(context.Background()) })

	second := New(Config{Addr: first.Addr()}, store.NewMemory())
	require.Error(t, second.Start(t.Context()))
}
