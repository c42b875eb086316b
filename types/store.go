package types

import (
	"context"
	"time"
)

// Snapshot is a timestamped copy of an airspace's cumulative total.
//
// The JSON form ({"time": <unix seconds>, "co2": <value>}) is what the store
// persists and what the read API serves.
type Snapshot struct {
	Time time.Time
	CO2  float64
}

// StoreReader is the read-only half of the store contract.
//
// The read API is handed a StoreReader so it can never mutate totals or
// hourly sequences.
type StoreReader interface {
	// IsRunning probes the backing service.
	//
	// Returns:
	//   - error: ErrStoreUnavailable (wrapped) if the service cannot be reached
	IsRunning(ctx context.Context) error

	// GetAirspaces returns the whole airspace registry keyed by name.
	// An empty map is returned when the registry was never written.
	GetAirspaces(ctx context.Context) (map[string]BoundingBox, error)

	// GetStartupTime returns the service startup time.
	// The zero time is returned when it was never written.
	GetStartupTime(ctx context.Context) (time.Time, error)

	// GetTotalCarbon returns the cumulative total for an airspace.
	// Returns 0.0 (and no error) when the key was never written.
	GetTotalCarbon(ctx context.Context, airspace string) (float64, error)

	// GetHourlySnapshots returns the snapshot sequence in insertion order.
	// Returns an empty slice when no snapshot was ever stored.
	GetHourlySnapshots(ctx context.Context, airspace string) ([]Snapshot, error)

	// GetHeartbeat returns the last published service heartbeat.
	// The zero time is returned when none was published.
	GetHeartbeat(ctx context.Context) (time.Time, error)
}

// Store is the single writable source of truth shared by all lanes.
//
// No operation offers cross-key transactions. Per-airspace keys have exactly
// one writer (the airspace's lane), which is what makes the non-atomic
// read-modify-write of totals safe.
type Store interface {
	StoreReader

	// SetAirspaces replaces the whole airspace registry.
	SetAirspaces(ctx context.Context, airspaces map[string]BoundingBox) error

	// SetStartupTime records the service startup time.
	SetStartupTime(ctx context.Context, t time.Time) error

	// SetTotalCarbon overwrites the cumulative total for an airspace.
	// This is an absolute write; increment semantics live in the caller.
	SetTotalCarbon(ctx context.Context, airspace string, value float64) error

	// StoreHourlySnapshot appends a snapshot to the airspace's sequence,
	// creating the sequence if absent.
	StoreHourlySnapshot(ctx context.Context, airspace string, snapshot Snapshot) error

	// SetHeartbeat records the service liveness timestamp.
	SetHeartbeat(ctx context.Context, t time.Time) error
}
