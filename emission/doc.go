// Package emission provides a simple distance-based CO2 model.
//
// The model remembers when it last saw each aircraft. For every airborne
// aircraft in a sample it attributes the distance flown since that sighting
// (velocity x elapsed time), converts distance to fuel with a per-category
// burn rate and fuel to CO2. It favours stability over physical accuracy:
// the result is always finite and non-negative.
package emission
