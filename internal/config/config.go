// Package config loads the skycarbond process configuration from YAML.
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/skycarbon/skycarbon"
	"github.com/skycarbon/skycarbon/api"
	"github.com/skycarbon/skycarbon/emission"
	"github.com/skycarbon/skycarbon/internal/logging"
	"github.com/skycarbon/skycarbon/internal/natsutil"
	"github.com/skycarbon/skycarbon/opensky"
	"github.com/skycarbon/skycarbon/source"
	"github.com/skycarbon/skycarbon/store"
	"github.com/skycarbon/skycarbon/types"
)

// NATS connection modes.
const (
	NATSModeExternal = "external"
	NATSModeEmbedded = "embedded"
)

// Store backends.
const (
	StoreModeKV     = "kv"
	StoreModeMemory = "memory"
)

// Airspace sources.
const (
	SourceStatic   = "static"
	SourceRegistry = "registry"
)

// Config is the root configuration structure.
type Config struct {
	Service   skycarbon.Config `yaml:"service"`
	Airspaces AirspacesConfig  `yaml:"airspaces"`
	NATS      NATSConfig       `yaml:"nats"`
	Store     StoreConfig      `yaml:"store"`
	API       APIConfig        `yaml:"api"`
	OpenSky   opensky.Config   `yaml:"opensky"`
	Emission  emission.Config  `yaml:"emission"`
	Logging   logging.Options  `yaml:"logging"`
	Metrics   MetricsConfig    `yaml:"metrics"`
}

// AirspacesConfig selects where airspaces come from.
type AirspacesConfig struct {
	// Source is "static" (Boxes, or the built-in set when empty) or
	// "registry" (the registry a previous run wrote to the store).
	Source string `yaml:"source"`

	// Boxes maps airspace name to bounding box for the static source.
	Boxes map[string]types.BoundingBox `yaml:"boxes"`
}

// NATSConfig configures the NATS connection.
type NATSConfig struct {
	Mode     string                  `yaml:"mode"` // "external", "embedded"
	URL      string                  `yaml:"url"`  // "nats://localhost:4222"
	Name     string                  `yaml:"name"` // client connection name
	Embedded natsutil.EmbeddedConfig `yaml:"embedded"`
}

// StoreConfig selects and configures the store backend.
type StoreConfig struct {
	Mode string         `yaml:"mode"` // "kv", "memory"
	KV   store.KVConfig `yaml:"kv"`
	Lock LockConfig     `yaml:"lock"`
}

// LockConfig configures the single-writer lease on a KV store.
type LockConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"` // default: "skycarbon-lock"

	// TTL is the lease duration; a crashed holder frees it after TTL.
	TTL time.Duration `yaml:"ttl"`

	// RenewInterval must stay well below TTL (default: TTL/3).
	RenewInterval time.Duration `yaml:"renewInterval"`
}

// APIConfig configures the read API.
type APIConfig struct {
	Enabled bool `yaml:"enabled"`

	api.Config `yaml:",inline"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Load loads configuration from a YAML file.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded configuration with defaults applied
//   - error: Error if file cannot be read, parsed or validated
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it.
//
// Unknown keys are rejected so a typo never silently falls back to a default.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		if err := decodeStrict(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidConfig, err)
	}

	return &cfg, nil
}

// StaticAirspaces returns the configured static airspaces, or the built-in
// set when none are configured.
func (c *Config) StaticAirspaces() []types.Airspace {
	if len(c.Airspaces.Boxes) == 0 {
		return source.DefaultAirspaces()
	}

	out := make([]types.Airspace, 0, len(c.Airspaces.Boxes))
	for name, box := range c.Airspaces.Boxes {
		out = append(out, types.Airspace{Name: name, Box: box})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}
