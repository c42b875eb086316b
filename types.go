package skycarbon

import "github.com/skycarbon/skycarbon/types"

// Re-export types from the types package.
//
// Internal packages depend on types rather than on the root package, which
// keeps the import graph acyclic while still offering skycarbon.Airspace,
// skycarbon.Store and friends to users.
type (
	State          = types.State
	Airspace       = types.Airspace
	BoundingBox    = types.BoundingBox
	Credentials    = types.Credentials
	JobContext     = types.JobContext
	Snapshot       = types.Snapshot
	Cadence        = types.Cadence
	CadenceUnit    = types.CadenceUnit
	StateVector    = types.StateVector
	StatesResponse = types.StatesResponse
)

// Re-export interfaces from the types package for convenience.
type (
	Store                = types.Store
	StoreReader          = types.StoreReader
	AirspaceSource       = types.AirspaceSource
	StateFetcher         = types.StateFetcher
	EmissionComputer     = types.EmissionComputer
	EmissionModelFactory = types.EmissionModelFactory
	MetricsCollector     = types.MetricsCollector
	Logger               = types.Logger
	Clock                = types.Clock
	Hooks                = types.Hooks
)

// Re-export State constants from the types package.
const (
	StateInit     = types.StateInit
	StateStarting = types.StateStarting
	StateRunning  = types.StateRunning
	StateStopping = types.StateStopping
	StateStopped  = types.StateStopped
)

// Re-export cadence units from the types package.
const (
	CadenceSeconds = types.CadenceSeconds
	CadenceMinutes = types.CadenceMinutes
	CadenceHours   = types.CadenceHours
	CadenceDays    = types.CadenceDays
	CadenceWeeks   = types.CadenceWeeks
)
