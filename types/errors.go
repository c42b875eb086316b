package types

import "errors"

// Sentinel errors for skycarbon.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).
//
// Error Naming Convention:
//   - Use descriptive names with Err prefix
//   - Group by component (Service, Store, Lane, Scheduler, etc.)
//   - Use consistent messages across similar error types

// Service errors - Public API errors returned by the Service component.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStoreRequired is returned when the store handle is nil.
	ErrStoreRequired = errors.New("store is required")

	// ErrStateFetcherRequired is returned when the state fetcher is nil.
	ErrStateFetcherRequired = errors.New("state fetcher is required")

	// ErrEmissionModelRequired is returned when the emission model factory is nil.
	ErrEmissionModelRequired = errors.New("emission model factory is required")

	// ErrAlreadyStarted is returned when Start is called on an already running service.
	ErrAlreadyStarted = errors.New("service already started")

	// ErrNotStarted is returned when Stop is called on a service that hasn't been started.
	ErrNotStarted = errors.New("service not started")
)

// Store errors - Returned by Store implementations.
var (
	// ErrStoreUnavailable indicates the backing key/value service cannot be reached.
	// A failed liveness probe at startup is fatal.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStoreConflict is returned when an optimistic write lost a race and
	// exhausted its retries.
	ErrStoreConflict = errors.New("store write conflict")
)

// Airspace errors.
var (
	// ErrInvalidAirspace is returned when an airspace has no name or a malformed bounding box.
	ErrInvalidAirspace = errors.New("invalid airspace")

	// ErrUnknownAirspace is returned when an airspace is not in the registry.
	ErrUnknownAirspace = errors.New("unknown airspace")
)

// Lane errors - Internal per-airspace executor errors.
var (
	// ErrLaneAlreadyStarted is returned when Start is called on a running lane.
	ErrLaneAlreadyStarted = errors.New("lane already started")

	// ErrLaneStopped is returned when a job is submitted after Stop was requested.
	ErrLaneStopped = errors.New("lane stopped")

	// ErrJobPanicked wraps a value recovered from a panicking job.
	ErrJobPanicked = errors.New("job panicked")
)

// Scheduler errors - Internal trigger registry errors.
var (
	// ErrInvalidCadence is returned for an unknown cadence unit or a non-positive count.
	ErrInvalidCadence = errors.New("invalid cadence")

	// ErrTriggerTargetRequired is returned when a trigger has no target lane.
	ErrTriggerTargetRequired = errors.New("trigger target is required")

	// ErrTriggerFactoryRequired is returned when a trigger has no job factory.
	ErrTriggerFactoryRequired = errors.New("trigger job factory is required")

	// ErrSchedulerRunning is returned when Run is called twice.
	ErrSchedulerRunning = errors.New("scheduler already running")
)

// Job errors - Returned by emission jobs.
var (
	// ErrNegativeEmission is returned when a model produces a negative or non-finite delta.
	// The delta is discarded so the cumulative total never decreases.
	ErrNegativeEmission = errors.New("emission delta must be a finite non-negative value")

	// ErrMissingCredentials is returned when an airspace has no usable credentials.
	ErrMissingCredentials = errors.New("missing credentials")
)
