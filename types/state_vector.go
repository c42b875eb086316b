package types

import (
	"context"
	"time"
)

// StateVector describes one aircraft's position and velocity at a point in time.
//
// Pointer fields are nil when the feed reports no value.
type StateVector struct {
	ICAO24         string
	Callsign       string
	OriginCountry  string
	TimePosition   *int64
	LastContact    int64
	Longitude      *float64
	Latitude       *float64
	BaroAltitude   *float64
	OnGround       bool
	Velocity       *float64 // m/s
	TrueTrack      *float64 // degrees clockwise from north
	VerticalRate   *float64 // m/s
	GeoAltitude    *float64
	Squawk         string
	PositionSource int
	Category       int
}

// StatesResponse is one sample of the state-vector feed.
//
// States is nil when the feed reported no aircraft for the bounding box.
type StatesResponse struct {
	Time   time.Time
	States []StateVector
}

// StateFetcher fetches current state vectors for a bounding box.
//
// Timeouts are the fetcher's responsibility; a hang stalls only the calling
// airspace's lane.
type StateFetcher interface {
	// FetchStates returns the current sample, or (nil, nil) when the feed has
	// nothing for this cycle.
	FetchStates(ctx context.Context, creds Credentials, box BoundingBox) (*StatesResponse, error)
}

// EmissionComputer converts a batch of state vectors into a CO2 delta.
type EmissionComputer interface {
	// ComputeEmission returns the non-negative CO2 quantity (kg) attributed to
	// this sample.
	ComputeEmission(ctx context.Context, states []StateVector, at time.Time) (float64, error)
}

// EmissionModelFactory builds the emission computer for one airspace.
// Each airspace gets its own instance, used only from that airspace's lane.
type EmissionModelFactory func(airspace Airspace) EmissionComputer
