package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/skycarbon/skycarbon/internal/kvutil"
	"github.com/skycarbon/skycarbon/internal/metrics"
	"github.com/skycarbon/skycarbon/internal/natsutil"
	"github.com/skycarbon/skycarbon/types"
)

// Meta bucket keys.
const (
	keyAirspaces = "airspaces"
	keyStartup   = "startup"
	keyHeartbeat = "heartbeat"
)

// KVConfig configures the JetStream-backed store.
type KVConfig struct {
	// Buckets names the totals, hourly and meta buckets.
	Buckets kvutil.Buckets `yaml:"buckets"`

	// Storage is "file" (default) or "memory".
	Storage string `yaml:"storage"`

	// Replicas is the bucket replication factor (default: 1).
	Replicas int `yaml:"replicas"`

	// MaxAppendRetries bounds optimistic retries of a snapshot append.
	MaxAppendRetries int `yaml:"maxAppendRetries"`

	// Metrics receives per-operation latency. Defaults to no-op.
	Metrics types.StoreMetrics `yaml:"-"`
}

func (c *KVConfig) setDefaults() {
	c.Buckets.SetDefaults()
	if c.Storage == "" {
		c.Storage = "file"
	}
	if c.Replicas <= 0 {
		c.Replicas = 1
	}
	if c.MaxAppendRetries <= 0 {
		c.MaxAppendRetries = 5
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewNop()
	}
}

func (c *KVConfig) storageType() (jetstream.StorageType, error) {
	switch c.Storage {
	case "file":
		return jetstream.FileStorage, nil
	case "memory":
		return jetstream.MemoryStorage, nil
	default:
		return 0, fmt.Errorf("%w: unknown KV storage %q", types.ErrInvalidConfig, c.Storage)
	}
}

// KV is a types.Store backed by NATS JetStream KeyValue buckets.
type KV struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	cfg KVConfig

	totals jetstream.KeyValue
	hourly jetstream.KeyValue
	meta   jetstream.KeyValue
}

var _ types.Store = (*KV)(nil)

// NewKV opens (creating if needed) the store buckets.
//
// Parameters:
//   - ctx: Bounds bucket creation
//   - nc: Connected NATS client
//   - cfg: Bucket names and storage settings
//
// Returns:
//   - *KV: Ready store
//   - error: ErrStoreUnavailable (wrapped) when JetStream cannot be reached
//
// Example:
//
//	nc, _ := nats.Connect(nats.DefaultURL)
//	st, err := store.NewKV(ctx, nc, store.KVConfig{})
func NewKV(ctx context.Context, nc *nats.Conn, cfg KVConfig) (*KV, error) {
	if nc == nil {
		return nil, fmt.Errorf("%w: nil NATS connection", types.ErrStoreUnavailable)
	}
	cfg.setDefaults()

	storage, err := cfg.storageType()
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, wrapErr("jetstream", err)
	}

	s := &KV{nc: nc, js: js, cfg: cfg}

	buckets := []struct {
		name string
		desc string
		dst  *jetstream.KeyValue
	}{
		{cfg.Buckets.Totals, "skycarbon cumulative totals", &s.totals},
		{cfg.Buckets.Hourly, "skycarbon hourly snapshots", &s.hourly},
		{cfg.Buckets.Meta, "skycarbon service metadata", &s.meta},
	}
	for _, b := range buckets {
		kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js,
			kvutil.BucketConfig(b.name, b.desc, storage, cfg.Replicas), 3)
		if err != nil {
			return nil, wrapErr("open bucket "+b.name, err)
		}
		*b.dst = kv
	}

	return s, nil
}

// IsRunning checks the connection and asks JetStream for account info.
func (s *KV) IsRunning(ctx context.Context) error {
	defer s.observe("is_running", time.Now())

	if !s.nc.IsConnected() {
		return fmt.Errorf("%w: NATS connection status %s", types.ErrStoreUnavailable, s.nc.Status())
	}
	if _, err := s.js.AccountInfo(ctx); err != nil {
		return fmt.Errorf("%w: account info: %w", types.ErrStoreUnavailable, err)
	}

	return nil
}

// GetAirspaces returns the registry, empty when never written.
func (s *KV) GetAirspaces(ctx context.Context) (map[string]types.BoundingBox, error) {
	defer s.observe("get_airspaces", time.Now())

	out := make(map[string]types.BoundingBox)

	entry, err := s.meta.Get(ctx, keyAirspaces)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, wrapErr("get airspaces", err)
	}
	if err := json.Unmarshal(entry.Value(), &out); err != nil {
		return nil, fmt.Errorf("decode airspaces: %w", err)
	}

	return out, nil
}

// SetAirspaces replaces the registry.
func (s *KV) SetAirspaces(ctx context.Context, airspaces map[string]types.BoundingBox) error {
	defer s.observe("set_airspaces", time.Now())

	if airspaces == nil {
		airspaces = map[string]types.BoundingBox{}
	}
	data, err := json.Marshal(airspaces)
	if err != nil {
		return fmt.Errorf("encode airspaces: %w", err)
	}
	if _, err := s.meta.Put(ctx, keyAirspaces, data); err != nil {
		return wrapErr("set airspaces", err)
	}

	return nil
}

// GetStartupTime returns the recorded startup time or the zero time.
func (s *KV) GetStartupTime(ctx context.Context) (time.Time, error) {
	defer s.observe("get_startup", time.Now())

	return s.getTime(ctx, keyStartup)
}

// SetStartupTime records the startup time.
func (s *KV) SetStartupTime(ctx context.Context, t time.Time) error {
	defer s.observe("set_startup", time.Now())

	return s.putTime(ctx, keyStartup, t)
}

// GetHeartbeat returns the last heartbeat or the zero time.
func (s *KV) GetHeartbeat(ctx context.Context) (time.Time, error) {
	defer s.observe("get_heartbeat", time.Now())

	return s.getTime(ctx, keyHeartbeat)
}

// SetHeartbeat records the service liveness timestamp.
func (s *KV) SetHeartbeat(ctx context.Context, t time.Time) error {
	defer s.observe("set_heartbeat", time.Now())

	return s.putTime(ctx, keyHeartbeat, t)
}

// GetTotalCarbon returns the airspace total, 0.0 when never written.
func (s *KV) GetTotalCarbon(ctx context.Context, airspace string) (float64, error) {
	defer s.observe("get_total", time.Now())

	entry, err := s.totals.Get(ctx, airspace)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, wrapErr("get total "+airspace, err)
	}

	v, err := strconv.ParseFloat(string(entry.Value()), 64)
	if err != nil {
		return 0, fmt.Errorf("decode total %s: %w", airspace, err)
	}

	return v, nil
}

// SetTotalCarbon overwrites the airspace total.
func (s *KV) SetTotalCarbon(ctx context.Context, airspace string, value float64) error {
	defer s.observe("set_total", time.Now())

	data := []byte(strconv.FormatFloat(value, 'g', -1, 64))
	if _, err := s.totals.Put(ctx, airspace, data); err != nil {
		return wrapErr("set total "+airspace, err)
	}

	return nil
}

// GetHourlySnapshots returns the snapshot sequence, empty when absent.
func (s *KV) GetHourlySnapshots(ctx context.Context, airspace string) ([]types.Snapshot, error) {
	defer s.observe("get_hourly", time.Now())

	snaps, _, err := s.loadHourly(ctx, airspace)

	return snaps, err
}

// StoreHourlySnapshot appends to the airspace's sequence.
//
// The append is a compare-and-set on the key revision and is retried when a
// concurrent writer got there first.
//
// Returns:
//   - error: ErrStoreConflict after MaxAppendRetries lost races
func (s *KV) StoreHourlySnapshot(ctx context.Context, airspace string, snapshot types.Snapshot) error {
	defer s.observe("append_hourly", time.Now())

	for range s.cfg.MaxAppendRetries {
		snaps, rev, err := s.loadHourly(ctx, airspace)
		if err != nil {
			return err
		}

		data, err := json.Marshal(append(snaps, snapshot))
		if err != nil {
			return fmt.Errorf("encode hourly %s: %w", airspace, err)
		}

		if rev == 0 {
			_, err = s.hourly.Create(ctx, airspace, data)
		} else {
			_, err = s.hourly.Update(ctx, airspace, data, rev)
		}
		if err == nil {
			return nil
		}
		if !errors.Is(err, jetstream.ErrKeyExists) {
			return wrapErr("append hourly "+airspace, err)
		}
	}

	return fmt.Errorf("%w: append hourly %s after %d attempts",
		types.ErrStoreConflict, airspace, s.cfg.MaxAppendRetries)
}

// loadHourly returns the sequence and its revision; revision 0 means absent.
func (s *KV) loadHourly(ctx context.Context, airspace string) ([]types.Snapshot, uint64, error) {
	entry, err := s.hourly.Get(ctx, airspace)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return []types.Snapshot{}, 0, nil
	}
	if err != nil {
		return nil, 0, wrapErr("get hourly "+airspace, err)
	}

	var snaps []types.Snapshot
	if err := json.Unmarshal(entry.Value(), &snaps); err != nil {
		return nil, 0, fmt.Errorf("decode hourly %s: %w", airspace, err)
	}
	if snaps == nil {
		snaps = []types.Snapshot{}
	}

	return snaps, entry.Revision(), nil
}

func (s *KV) getTime(ctx context.Context, key string) (time.Time, error) {
	entry, err := s.meta.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, wrapErr("get "+key, err)
	}

	ms, err := strconv.ParseInt(string(entry.Value()), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode %s: %w", key, err)
	}

	return time.UnixMilli(ms).UTC(), nil
}

func (s *KV) putTime(ctx context.Context, key string, t time.Time) error {
	if _, err := s.meta.Put(ctx, key, []byte(strconv.FormatInt(t.UnixMilli(), 10))); err != nil {
		return wrapErr("set "+key, err)
	}

	return nil
}

func (s *KV) observe(op string, start time.Time) {
	s.cfg.Metrics.RecordKVOperationDuration(op, time.Since(start).Seconds())
}

// wrapErr tags connectivity failures with ErrStoreUnavailable.
func wrapErr(op string, err error) error {
	if natsutil.IsConnectivityError(err) {
		return fmt.Errorf("%w: %s: %w", types.ErrStoreUnavailable, op, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
