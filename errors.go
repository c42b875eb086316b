package skycarbon

import "github.com/skycarbon/skycarbon/types"

// Sentinel errors returned by the Service and its components.
//
// These are re-exported from the types package so callers can match them
// with errors.Is without importing types.
var (
	ErrInvalidConfig         = types.ErrInvalidConfig
	ErrStoreRequired         = types.ErrStoreRequired
	ErrStateFetcherRequired  = types.ErrStateFetcherRequired
	ErrEmissionModelRequired = types.ErrEmissionModelRequired
	ErrAlreadyStarted        = types.ErrAlreadyStarted
	ErrNotStarted            = types.ErrNotStarted

	ErrStoreUnavailable = types.ErrStoreUnavailable
	ErrStoreConflict    = types.ErrStoreConflict

	ErrInvalidAirspace = types.ErrInvalidAirspace
	ErrUnknownAirspace = types.ErrUnknownAirspace

	ErrLaneStopped    = types.ErrLaneStopped
	ErrJobPanicked    = types.ErrJobPanicked
	ErrInvalidCadence = types.ErrInvalidCadence

	ErrNegativeEmission   = types.ErrNegativeEmission
	ErrMissingCredentials = types.ErrMissingCredentials
)
