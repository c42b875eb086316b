// Package testing provides test utilities for skycarbon.
//
// This package offers helpers for setting up test environments, in the style
// of net/http/httptest:
//   - StartEmbeddedNATS: single in-process NATS server with JetStream
//   - CreateJetStreamKV: convenience wrapper for KV bucket creation
//   - NewTestLogger: types.Logger that writes to t.Log and records entries
//   - FakeFetcher / FakeEmission: scripted state-vector and emission collaborators
//   - ManualClock: settable clock for scheduler tests
//
// Example usage:
//
//	import (
//	    "testing"
//	    skytest "github.com/skycarbon/skycarbon/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := skytest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
