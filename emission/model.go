package emission

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/skycarbon/skycarbon/types"
)

// CO2PerKgFuel is the mass of CO2 produced by burning one kilogram of jet fuel.
const CO2PerKgFuel = 3.16

// Aircraft emitter categories as reported by the state-vector feed.
const (
	CategoryNoInfo         = 0
	CategoryNoADSBInfo     = 1
	CategoryLight          = 2
	CategorySmall          = 3
	CategoryLarge          = 4
	CategoryHighVortex     = 5
	CategoryHeavy          = 6
	CategoryHighPerf       = 7
	CategoryRotorcraft     = 8
	CategoryGlider         = 9
	CategoryLighterThanAir = 10
)

// Config tunes the model.
type Config struct {
	// DefaultInterval is the flight time attributed to a first sighting.
	DefaultInterval time.Duration `yaml:"defaultInterval"`

	// MaxGap caps the flight time attributed between two sightings.
	MaxGap time.Duration `yaml:"maxGap"`

	// ForgetAfter drops aircraft not seen for this long.
	ForgetAfter time.Duration `yaml:"forgetAfter"`

	// DefaultBurnRate (kg fuel per km) applies to categories without an entry.
	DefaultBurnRate float64 `yaml:"defaultBurnRate"`

	// BurnRates maps emitter category to kg fuel per km.
	BurnRates map[int]float64 `yaml:"burnRates"`
}

// DefaultConfig returns rough fleet-average burn rates.
func DefaultConfig() Config {
	return Config{
		DefaultInterval: time.Minute,
		MaxGap:          5 * time.Minute,
		ForgetAfter:     30 * time.Minute,
		DefaultBurnRate: 4.0,
		BurnRates: map[int]float64{
			CategoryLight:          0.3,
			CategorySmall:          1.5,
			CategoryLarge:          4.5,
			CategoryHighVortex:     6.0,
			CategoryHeavy:          9.0,
			CategoryHighPerf:       5.0,
			CategoryRotorcraft:     1.0,
			CategoryGlider:         0,
			CategoryLighterThanAir: 0,
		},
	}
}

// SetDefaults fills zero fields from DefaultConfig.
func (c *Config) SetDefaults() {
	def := DefaultConfig()
	if c.DefaultInterval == 0 {
		c.DefaultInterval = def.DefaultInterval
	}
	if c.MaxGap == 0 {
		c.MaxGap = def.MaxGap
	}
	if c.ForgetAfter == 0 {
		c.ForgetAfter = def.ForgetAfter
	}
	if c.DefaultBurnRate == 0 {
		c.DefaultBurnRate = def.DefaultBurnRate
	}
	if c.BurnRates == nil {
		c.BurnRates = def.BurnRates
	}
}

// Validate rejects negative durations and rates.
func (c *Config) Validate() error {
	if c.DefaultInterval < 0 || c.MaxGap < 0 || c.ForgetAfter < 0 {
		return fmt.Errorf("%w: emission durations must be >= 0", types.ErrInvalidConfig)
	}
	if c.DefaultBurnRate < 0 {
		return fmt.Errorf("%w: emission defaultBurnRate must be >= 0", types.ErrInvalidConfig)
	}
	for cat, r := range c.BurnRates {
		if r < 0 {
			return fmt.Errorf("%w: emission burn rate for category %d must be >= 0", types.ErrInvalidConfig, cat)
		}
	}

	return nil
}

// Model is a per-airspace emission computer.
type Model struct {
	cfg Config
	box *types.BoundingBox

	mu       sync.Mutex
	lastSeen map[string]int64 // icao24 -> unix seconds
}

var _ types.EmissionComputer = (*Model)(nil)

// New creates a model with no sighting history.
func New(cfg Config) *Model {
	cfg.SetDefaults()

	return &Model{
		cfg:      cfg,
		lastSeen: make(map[string]int64),
	}
}

// NewInBox creates a model that ignores aircraft reported outside box.
// States without a position are always counted.
func NewInBox(cfg Config, box types.BoundingBox) *Model {
	m := New(cfg)
	m.box = &box

	return m
}

// NewFactory returns a factory giving every airspace its own model, clipped
// to the airspace's box when that box is valid.
//
// Example:
//
//	svc, err := skycarbon.NewService(cfg, st, client, emission.NewFactory(emission.DefaultConfig()))
func NewFactory(cfg Config) types.EmissionModelFactory {
	cfg.SetDefaults()
	rates := maps.Clone(cfg.BurnRates)

	return func(a types.Airspace) types.EmissionComputer {
		c := cfg
		c.BurnRates = rates

		if a.Box.Validate() != nil {
			return New(c)
		}

		return NewInBox(c, a.Box)
	}
}

// ComputeEmission returns kg of CO2 for the sample taken at "at".
func (m *Model) ComputeEmission(_ context.Context, states []types.StateVector, at time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := at.Unix()
	var total float64

	for _, sv := range states {
		if sv.ICAO24 == "" || !m.inBox(sv) {
			continue
		}

		seen := sv.LastContact
		if seen == 0 {
			seen = now
		}

		prev, known := m.lastSeen[sv.ICAO24]
		if known && seen <= prev {
			continue
		}
		m.lastSeen[sv.ICAO24] = seen

		if sv.OnGround || sv.Velocity == nil || *sv.Velocity <= 0 {
			continue
		}

		elapsed := m.cfg.DefaultInterval
		if known {
			elapsed = time.Duration(seen-prev) * time.Second
		}
		elapsed = min(elapsed, m.cfg.MaxGap)

		km := *sv.Velocity * elapsed.Seconds() / 1000
		total += km * m.burnRate(sv.Category) * CO2PerKgFuel
	}

	m.prune(now)

	return total, nil
}

// Tracked returns how many aircraft the model remembers.
func (m *Model) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.lastSeen)
}

func (m *Model) inBox(sv types.StateVector) bool {
	if m.box == nil || sv.Latitude == nil || sv.Longitude == nil {
		return true
	}

	return m.box.Contains(*sv.Latitude, *sv.Longitude)
}

func (m *Model) burnRate(category int) float64 {
	if r, ok := m.cfg.BurnRates[category]; ok {
		return r
	}

	return m.cfg.DefaultBurnRate
}

func (m *Model) prune(now int64) {
	horizon := now - int64(m.cfg.ForgetAfter/time.Second)
	for icao, seen := range m.lastSeen {
		if seen < horizon {
			delete(m.lastSeen, icao)
		}
	}
}
