package skycarbon

import (
	"fmt"
	"time"

	"github.com/skycarbon/skycarbon/types"
)

// SnapshotCadence is the fixed period of the hourly snapshot trigger.
var SnapshotCadence = types.Every(1, types.CadenceHours)

// Trigger tags, usable with the scheduler's RunDue.
const (
	TagEmissionUpdate = "emission-update"
	TagHourlySnapshot = "hourly-snapshot"
)

// Config is the configuration for the Service.
//
// All duration fields accept standard Go duration strings like "30s", "5m", "1h".
type Config struct {
	// UpdateCadence is how often each airspace recomputes its emission delta.
	//
	// An invalid cadence is not a configuration error: the service logs a
	// warning and registers no update trigger, while snapshots keep running.
	//
	// Default: every 1 minutes
	UpdateCadence types.Cadence `yaml:"updateCadence"`

	// TickInterval is how often the tick loop checks for due triggers.
	// It bounds how late a trigger can fire.
	// Recommended: 1 second.
	TickInterval time.Duration `yaml:"tickInterval"`

	// JobTimeout bounds a single job through its context deadline.
	// Must be shorter than UpdateCadence to keep a lane from falling behind.
	// Recommended: 30 seconds.
	JobTimeout time.Duration `yaml:"jobTimeout"`

	// HeartbeatInterval is how often the service publishes its liveness
	// timestamp into the store.
	// Recommended: 10 seconds.
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`

	// StartupTimeout bounds the store probe and registry writes during Start.
	// Recommended: 30 seconds.
	StartupTimeout time.Duration `yaml:"startupTimeout"`

	// ShutdownTimeout bounds the lane drain during Stop.
	// Jobs still running when it expires see their context cancelled.
	// Recommended: 30 seconds.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// Credentials maps airspace name to feed credentials. Airspaces without
	// complete credentials are skipped with a warning.
	Credentials map[string]types.Credentials `yaml:"credentials"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		UpdateCadence:     types.Every(1, types.CadenceMinutes),
		TickInterval:      1 * time.Second,
		JobTimeout:        30 * time.Second,
		HeartbeatInterval: 10 * time.Second,
		StartupTimeout:    30 * time.Second,
		ShutdownTimeout:   30 * time.Second,
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	// A zero cadence means "unset"; a partially set one is left for Start to reject.
	if cfg.UpdateCadence == (types.Cadence{}) {
		cfg.UpdateCadence = defaults.UpdateCadence
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = defaults.TickInterval
	}
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = defaults.JobTimeout
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = defaults.StartupTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Hard Validation Rules:
//   - TickInterval > 0
//   - JobTimeout >= 0 (0 disables the deadline)
//   - HeartbeatInterval > 0
//   - StartupTimeout >= 0 and ShutdownTimeout >= 0
//
// The update cadence is deliberately not checked here; see UpdateCadence.
//
// Returns:
//   - error: Validation error wrapping ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if cfg.TickInterval <= 0 {
		return fmt.Errorf("%w: TickInterval must be > 0, got %v", ErrInvalidConfig, cfg.TickInterval)
	}
	if cfg.JobTimeout < 0 {
		return fmt.Errorf("%w: JobTimeout must be >= 0, got %v", ErrInvalidConfig, cfg.JobTimeout)
	}
	if cfg.HeartbeatInterval <= 0 {
		return fmt.Errorf("%w: HeartbeatInterval must be > 0, got %v", ErrInvalidConfig, cfg.HeartbeatInterval)
	}
	if cfg.StartupTimeout < 0 || cfg.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: StartupTimeout (%v) and ShutdownTimeout (%v) must be >= 0",
			ErrInvalidConfig, cfg.StartupTimeout, cfg.ShutdownTimeout)
	}

	return nil
}

// ValidateWithWarnings checks configuration and logs warnings for non-recommended values.
//
// This is called after Validate() in NewService() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	period, err := cfg.UpdateCadence.Duration()
	if err != nil {
		logger.Warn("update cadence is invalid, emission updates will not be scheduled",
			"cadence", cfg.UpdateCadence.String(),
			"error", err,
		)

		return
	}

	if cfg.TickInterval > period {
		logger.Warn("TickInterval exceeds update cadence, triggers will be coalesced",
			"tickInterval", cfg.TickInterval,
			"cadence", cfg.UpdateCadence.String(),
		)
	}

	if cfg.JobTimeout == 0 || cfg.JobTimeout > period {
		logger.Warn("JobTimeout is not below update cadence, a slow feed can build a backlog",
			"jobTimeout", cfg.JobTimeout,
			"cadence", cfg.UpdateCadence.String(),
		)
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Test timings are 10-100x faster than production defaults. Use
// DefaultConfig() for production deployments.
//
// Returns:
//   - Config: Configuration with fast timings for tests
//
// Example:
//
//	cfg := skycarbon.TestConfig()
//	cfg.Credentials = map[string]skycarbon.Credentials{"berlin": {Username: "u", Password: "p"}}
//	svc, err := skycarbon.NewService(&cfg, st, fetcher, factory)
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.UpdateCadence = types.Every(1, types.CadenceSeconds)
	cfg.TickInterval = 20 * time.Millisecond
	cfg.JobTimeout = 500 * time.Millisecond
	cfg.HeartbeatInterval = 100 * time.Millisecond
	cfg.StartupTimeout = 5 * time.Second
	cfg.ShutdownTimeout = 5 * time.Second

	return cfg
}
