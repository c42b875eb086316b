package config

import (
	"time"

	"github.com/skycarbon/skycarbon"
)

// DefaultMetricsNamespace prefixes every exported Prometheus metric.
const DefaultMetricsNamespace = "skycarbon"

// Writer lease defaults.
const (
	DefaultLockBucket = "skycarbon-lock"
	DefaultLockTTL    = 30 * time.Second
)

// applyDefaults applies default values to configuration fields that are not set.
func applyDefaults(cfg *Config) {
	skycarbon.SetDefaults(&cfg.Service)

	if cfg.Airspaces.Source == "" {
		cfg.Airspaces.Source = SourceStatic
	}

	if cfg.NATS.Mode == "" {
		cfg.NATS.Mode = NATSModeExternal
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://127.0.0.1:4222"
	}
	if cfg.NATS.Name == "" {
		cfg.NATS.Name = "skycarbond"
	}

	if cfg.Store.Mode == "" {
		cfg.Store.Mode = StoreModeKV
	}
	if cfg.Store.KV.Storage == "" {
		cfg.Store.KV.Storage = "file"
	}
	cfg.Store.KV.Buckets.SetDefaults()
	if cfg.Store.Lock.Bucket == "" {
		cfg.Store.Lock.Bucket = DefaultLockBucket
	}
	if cfg.Store.Lock.TTL == 0 {
		cfg.Store.Lock.TTL = DefaultLockTTL
	}
	if cfg.Store.Lock.RenewInterval == 0 {
		cfg.Store.Lock.RenewInterval = cfg.Store.Lock.TTL / 3
	}

	cfg.API.SetDefaults()
	cfg.OpenSky.SetDefaults()
	cfg.Emission.SetDefaults()

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}
