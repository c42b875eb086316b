package store

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/skycarbon/skycarbon/types"
)

// Memory is an in-process types.Store.
//
// Totals and snapshot sequences live in concurrent maps so lanes for different
// airspaces never contend on a shared lock. SetAvailable(false) makes every
// operation fail with ErrStoreUnavailable, which is how tests simulate an
// unreachable backend.
type Memory struct {
	totals *xsync.Map[string, float64]
	hourly *xsync.Map[string, []types.Snapshot]

	mu        sync.RWMutex
	airspaces map[string]types.BoundingBox
	startup   time.Time
	heartbeat time.Time

	down atomic.Bool
}

var _ types.Store = (*Memory)(nil)

// NewMemory creates an empty, available store.
func NewMemory() *Memory {
	return &Memory{
		totals:    xsync.NewMap[string, float64](),
		hourly:    xsync.NewMap[string, []types.Snapshot](),
		airspaces: make(map[string]types.BoundingBox),
	}
}

// SetAvailable toggles simulated availability.
func (m *Memory) SetAvailable(available bool) {
	m.down.Store(!available)
}

func (m *Memory) check() error {
	if m.down.Load() {
		return types.ErrStoreUnavailable
	}

	return nil
}

// IsRunning fails only when marked unavailable.
func (m *Memory) IsRunning(context.Context) error {
	return m.check()
}

// GetAirspaces returns a copy of the registry.
func (m *Memory) GetAirspaces(context.Context) (map[string]types.BoundingBox, error) {
	if err := m.check(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.airspaces), nil
}

// SetAirspaces replaces the registry with a copy of airspaces.
func (m *Memory) SetAirspaces(_ context.Context, airspaces map[string]types.BoundingBox) error {
	if err := m.check(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.airspaces = maps.Clone(airspaces)
	if m.airspaces == nil {
		m.airspaces = make(map[string]types.BoundingBox)
	}

	return nil
}

func (m *Memory) GetStartupTime(context.Context) (time.Time, error) {
	if err := m.check(); err != nil {
		return time.Time{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.startup, nil
}

func (m *Memory) SetStartupTime(_ context.Context, t time.Time) error {
	if err := m.check(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.startup = t

	return nil
}

func (m *Memory) GetHeartbeat(context.Context) (time.Time, error) {
	if err := m.check(); err != nil {
		return time.Time{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.heartbeat, nil
}

func (m *Memory) SetHeartbeat(_ context.Context, t time.Time) error {
	if err := m.check(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.heartbeat = t

	return nil
}

// GetTotalCarbon returns 0.0 for unknown airspaces.
func (m *Memory) GetTotalCarbon(_ context.Context, airspace string) (float64, error) {
	if err := m.check(); err != nil {
		return 0, err
	}

	v, _ := m.totals.Load(airspace)

	return v, nil
}

func (m *Memory) SetTotalCarbon(_ context.Context, airspace string, value float64) error {
	if err := m.check(); err != nil {
		return err
	}

	m.totals.Store(airspace, value)

	return nil
}

// GetHourlySnapshots returns a copy of the sequence, empty when absent.
func (m *Memory) GetHourlySnapshots(_ context.Context, airspace string) ([]types.Snapshot, error) {
	if err := m.check(); err != nil {
		return nil, err
	}

	snaps, _ := m.hourly.Load(airspace)
	out := make([]types.Snapshot, len(snaps))
	copy(out, snaps)

	return out, nil
}

// StoreHourlySnapshot appends atomically per key.
func (m *Memory) StoreHourlySnapshot(_ context.Context, airspace string, snapshot types.Snapshot) error {
	if err := m.check(); err != nil {
		return err
	}

	m.hourly.Compute(airspace, func(old []types.Snapshot, _ bool) ([]types.Snapshot, xsync.ComputeOp) {
		next := make([]types.Snapshot, len(old), len(old)+1)
		copy(next, old)

		return append(next, snapshot), xsync.UpdateOp
	})

	return nil
}
