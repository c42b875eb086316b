// Package testutil provides shared fixtures for skycarbon integration tests.
//
// It contains:
//   - Timing profiles that shorten service cadences for tests
//   - Synthetic state-vector feeds (steady traffic, slow or failing airspaces)
//   - A restartable embedded NATS server for store outage scenarios
//   - Wait helpers for store-observable conditions
//
// Note: For single-test NATS setup and scripted fakes, use the
// github.com/skycarbon/skycarbon/testing package. This package is
// specifically for integration scenarios.
package testutil
