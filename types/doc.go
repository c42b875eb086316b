// Package types provides core type definitions and interfaces for skycarbon.
//
// This package contains shared types that are used across multiple packages in
// skycarbon. By keeping these types in a separate package, we avoid import cycles
// between the root skycarbon package and its internal implementations.
//
// Key types:
//   - Airspace, BoundingBox: the unit of independent tracking
//   - Store, StoreReader: the key/value contract shared by lanes and the read API
//   - Job, Cadence: units of work and their recurrence
//   - StateFetcher, EmissionComputer: external collaborators used by jobs
//   - Logger, MetricsCollector, Hooks: ambient dependencies
package types
