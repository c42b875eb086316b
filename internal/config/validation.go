package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/skycarbon/skycarbon/internal/logging"
)

// decodeStrict unmarshals data into out, failing on unknown fields.
func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	return dec.Decode(out)
}

// validateConfig validates the configuration for logical consistency.
func validateConfig(cfg *Config) error {
	if err := cfg.Service.Validate(); err != nil {
		return err
	}

	switch cfg.Airspaces.Source {
	case SourceStatic:
		for _, a := range cfg.StaticAirspaces() {
			if err := a.Validate(); err != nil {
				return err
			}
		}
	case SourceRegistry:
		if cfg.Store.Mode == StoreModeMemory {
			return errors.New("airspaces.source=registry needs a persistent store, got store.mode=memory")
		}
	default:
		return fmt.Errorf("unknown airspaces.source %q (expected static or registry)", cfg.Airspaces.Source)
	}

	switch cfg.NATS.Mode {
	case NATSModeExternal, NATSModeEmbedded:
	default:
		return fmt.Errorf("unknown nats.mode %q (expected external or embedded)", cfg.NATS.Mode)
	}

	switch cfg.Store.Mode {
	case StoreModeKV:
		if cfg.Store.KV.Storage != "file" && cfg.Store.KV.Storage != "memory" {
			return fmt.Errorf("unknown store.kv.storage %q (expected file or memory)", cfg.Store.KV.Storage)
		}
	case StoreModeMemory:
		if cfg.Store.Lock.Enabled {
			return errors.New("store.lock needs store.mode=kv")
		}
	default:
		return fmt.Errorf("unknown store.mode %q (expected kv or memory)", cfg.Store.Mode)
	}

	if cfg.Store.Lock.Enabled {
		if cfg.Store.Lock.TTL <= 0 {
			return fmt.Errorf("store.lock.ttl must be > 0, got %v", cfg.Store.Lock.TTL)
		}
		if cfg.Store.Lock.RenewInterval <= 0 || cfg.Store.Lock.RenewInterval >= cfg.Store.Lock.TTL {
			return fmt.Errorf("store.lock.renewInterval must be in (0, ttl), got %v", cfg.Store.Lock.RenewInterval)
		}
	}

	if err := cfg.OpenSky.Validate(); err != nil {
		return err
	}
	if err := cfg.Emission.Validate(); err != nil {
		return err
	}

	if _, err := logging.New(io.Discard, cfg.Logging); err != nil {
		return err
	}

	return nil
}
