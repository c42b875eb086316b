// Package source provides built-in airspace sources.
//
// Airspace sources tell the Service which regions to track. The package
// includes:
//
//   - Static: fixed list of airspaces (DefaultAirspaces gives the built-in four)
//   - Registry: airspaces previously written to a store's registry
//
// Custom sources can be implemented by satisfying types.AirspaceSource.
package source
