// Package skycarbon estimates cumulative aircraft CO2 emissions per airspace.
//
// A Service samples aircraft state vectors for a fixed set of airspaces,
// turns each sample into an emission delta with a per-airspace model, and
// accumulates the result in a shared Store. Once an hour it appends a
// snapshot of every running total for historical charting.
//
// # Quick Start
//
// Basic usage with an in-memory store and the default airspaces:
//
//	import (
//	    "github.com/skycarbon/skycarbon"
//	    "github.com/skycarbon/skycarbon/emission"
//	    "github.com/skycarbon/skycarbon/opensky"
//	    "github.com/skycarbon/skycarbon/store"
//	)
//
//	cfg := skycarbon.DefaultConfig()
//	cfg.Credentials = map[string]skycarbon.Credentials{
//	    "berlin": {Username: "user", Password: "secret"},
//	}
//
//	client, _ := opensky.NewClient(opensky.DefaultConfig())
//	svc, err := skycarbon.NewService(&cfg, store.NewMemory(), client,
//	    emission.NewFactory(emission.DefaultConfig()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := svc.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Architecture
//
// Each airspace with credentials gets one Lane: a goroutine draining an
// unbounded FIFO queue, so jobs of one airspace never overlap and never get
// dropped, while a slow or failing airspace cannot affect the others.
//
// A Scheduler owns the recurring triggers, two per airspace:
//
//	emission-update  every UpdateCadence  fetch states, add delta to total
//	hourly-snapshot  every hour           append (now, total) to the history
//
// The tick loop only hands jobs to lanes; it never does I/O itself.
//
// The service follows a small state machine:
//
//	Init → Starting → Running → Stopping → Stopped
//
// # Read API
//
// The api package serves totals and history over HTTP from a read-only
// StoreReader. Attach it with WithReadAPI so it starts after the first
// emission round and stops before the lanes drain.
package skycarbon
