package testutil

import (
	"time"

	"github.com/skycarbon/skycarbon"
)

// TimingProfile encapsulates shortened service timings for integration tests.
//
// Only fields that differ from skycarbon defaults are set; ApplyTo leaves zero
// fields untouched so SetDefaults can fill them.
type TimingProfile struct {
	UpdateCadence     skycarbon.Cadence
	TickInterval      time.Duration
	JobTimeout        time.Duration
	HeartbeatInterval time.Duration
	StartupTimeout    time.Duration
	ShutdownTimeout   time.Duration
}

// MakeFast returns a profile that fires updates every second.
func MakeFast() TimingProfile {
	return TimingProfile{
		UpdateCadence:     skycarbon.Cadence{Unit: skycarbon.CadenceSeconds, Count: 1},
		TickInterval:      50 * time.Millisecond,
		JobTimeout:        500 * time.Millisecond,
		HeartbeatInterval: 200 * time.Millisecond,
		StartupTimeout:    10 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// ApplyTo copies the non-zero fields of the profile into cfg.
func (p TimingProfile) ApplyTo(cfg *skycarbon.Config) {
	if p.UpdateCadence != (skycarbon.Cadence{}) {
		cfg.UpdateCadence = p.UpdateCadence
	}
	if p.TickInterval > 0 {
		cfg.TickInterval = p.TickInterval
	}
	if p.JobTimeout > 0 {
		cfg.JobTimeout = p.JobTimeout
	}
	if p.HeartbeatInterval > 0 {
		cfg.HeartbeatInterval = p.HeartbeatInterval
	}
	if p.StartupTimeout > 0 {
		cfg.StartupTimeout = p.StartupTimeout
	}
	if p.ShutdownTimeout > 0 {
		cfg.ShutdownTimeout = p.ShutdownTimeout
	}
}

// FastConfig returns a service config with the fast profile and credentials
// for every named airspace.
func FastConfig(airspaces ...string) skycarbon.Config {
	cfg := skycarbon.DefaultConfig()
	MakeFast().ApplyTo(&cfg)

	cfg.Credentials = make(map[string]skycarbon.Credentials, len(airspaces))
	for _, name := range airspaces {
		cfg.Credentials[name] = skycarbon.Credentials{Username: name + "-user", Password: "secret"}
	}

	return cfg
}
