package skycarbon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	skytest "github.com/skycarbon/skycarbon/testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, Cadence{Unit: CadenceMinutes, Count: 1}, cfg.UpdateCadence)
	require.Equal(t, 1*time.Second, cfg.TickInterval)
	require.Equal(t, 30*time.Second, cfg.JobTimeout)
	require.Equal(t, 10*time.Second, cfg.HeartbeatInterval)
	require.Equal(t, 30*time.Second, cfg.StartupTimeout)
	require.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	require.Empty(t, cfg.Credentials)
	require.NoError(t, cfg.Validate())
}

func TestSetDefaults(t *testing.T) {
	t.Run("applies defaults to empty config", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)

		require.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("preserves custom values", func(t *testing.T) {
		cfg := Config{
			UpdateCadence:     Cadence{Unit: CadenceSeconds, Count: 30},
			TickInterval:      250 * time.Millisecond,
			JobTimeout:        5 * time.Second,
			HeartbeatInterval: 3 * time.Second,
			StartupTimeout:    time.Minute,
			ShutdownTimeout:   2 * time.Minute,
		}
		SetDefaults(&cfg)

		require.Equal(t, Cadence{Unit: CadenceSeconds, Count: 30}, cfg.UpdateCadence)
		require.Equal(t, 250*time.Millisecond, cfg.TickInterval)
		require.Equal(t, 5*time.Second, cfg.JobTimeout)
		require.Equal(t, 3*time.Second, cfg.HeartbeatInterval)
		require.Equal(t, time.Minute, cfg.StartupTimeout)
		require.Equal(t, 2*time.Minute, cfg.ShutdownTimeout)
	})

	t.Run("keeps a partially set cadence", func(t *testing.T) {
		cfg := Config{UpdateCadence: Cadence{Unit: "fortnights"}}
		SetDefaults(&cfg)

		require.Equal(t, CadenceUnit("fortnights"), cfg.UpdateCadence.Unit)
		require.Zero(t, cfg.UpdateCadence.Count)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick interval", func(c *Config) { c.TickInterval = 0 }},
		{"negative job timeout", func(c *Config) { c.JobTimeout = -time.Second }},
		{"zero heartbeat interval", func(c *Config) { c.HeartbeatInterval = 0 }},
		{"negative shutdown timeout", func(c *Config) { c.ShutdownTimeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	t.Run("invalid cadence is not a validation error", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.UpdateCadence = Cadence{Unit: "fortnights", Count: 1}

		require.NoError(t, cfg.Validate())
	})
}

func TestConfig_ValidateWithWarnings(t *testing.T) {
	t.Run("defaults produce no warnings", func(t *testing.T) {
		logger := skytest.NewTestLogger(t)
		cfg := DefaultConfig()
		cfg.ValidateWithWarnings(logger)

		require.Zero(t, logger.Count("WARN", ""))
	})

	t.Run("invalid cadence", func(t *testing.T) {
		logger := skytest.NewTestLogger(t)
		cfg := DefaultConfig()
		cfg.UpdateCadence = Cadence{Unit: CadenceMinutes, Count: 0}
		cfg.ValidateWithWarnings(logger)

		require.True(t, logger.Has("WARN", "update cadence is invalid"))
	})

	t.Run("tick slower than cadence", func(t *testing.T) {
		logger := skytest.NewTestLogger(t)
		cfg := DefaultConfig()
		cfg.UpdateCadence = Cadence{Unit: CadenceSeconds, Count: 1}
		cfg.TickInterval = 2 * time.Second
		cfg.JobTimeout = 500 * time.Millisecond
		cfg.ValidateWithWarnings(logger)

		require.True(t, logger.Has("WARN", "TickInterval exceeds update cadence"))
		require.False(t, logger.Has("WARN", "JobTimeout"))
	})

	t.Run("job timeout not below cadence", func(t *testing.T) {
		logger := skytest.NewTestLogger(t)
		cfg := DefaultConfig()
		cfg.JobTimeout = 0
		cfg.ValidateWithWarnings(logger)

		require.True(t, logger.Has("WARN", "JobTimeout is not below update cadence"))
	})
}

func TestConfig_YAML(t *testing.T) {
	input := `
updateCadence:
  unit: seconds
  count: 15
tickInterval: 500ms
jobTimeout: 10s
heartbeatInterval: 5s
startupTimeout: 1m
shutdownTimeout: 45s
credentials:
  berlin:
    username: alice
    password: s3cret
  paris:
    username: bob
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(input), &cfg))

	require.Equal(t, Cadence{Unit: CadenceSeconds, Count: 15}, cfg.UpdateCadence)
	require.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	require.Equal(t, 10*time.Second, cfg.JobTimeout)
	require.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	require.Equal(t, time.Minute, cfg.StartupTimeout)
	require.Equal(t, 45*time.Second, cfg.ShutdownTimeout)
	require.True(t, cfg.Credentials["berlin"].Complete())
	require.False(t, cfg.Credentials["paris"].Complete())
}

func TestConfig_DefaultsWithPartialYAML(t *testing.T) {
	input := `
jobTimeout: 3s
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(input), &cfg))
	SetDefaults(&cfg)

	require.Equal(t, 3*time.Second, cfg.JobTimeout)
	require.Equal(t, DefaultConfig().UpdateCadence, cfg.UpdateCadence)
	require.Equal(t, DefaultConfig().TickInterval, cfg.TickInterval)
	require.NoError(t, cfg.Validate())
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	require.NoError(t, cfg.Validate())
	period, err := cfg.UpdateCadence.Duration()
	require.NoError(t, err)
	require.Less(t, cfg.TickInterval, period)
	require.Less(t, cfg.JobTimeout, period)
}
