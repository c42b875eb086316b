package types

import (
	"fmt"
	"math"
	"time"
)

// CadenceUnit is the measure of a cadence interval.
type CadenceUnit string

// Supported cadence units.
const (
	CadenceSeconds CadenceUnit = "seconds"
	CadenceMinutes CadenceUnit = "minutes"
	CadenceHours   CadenceUnit = "hours"
	CadenceDays    CadenceUnit = "days"
	CadenceWeeks   CadenceUnit = "weeks"
)

// Cadence is "every Count Units", e.g. {Unit: minutes, Count: 1}.
type Cadence struct {
	Unit  CadenceUnit `yaml:"unit" json:"unit"`
	Count int         `yaml:"count" json:"count"`
}

// Every builds a cadence.
func Every(count int, unit CadenceUnit) Cadence {
	return Cadence{Unit: unit, Count: count}
}

// Duration converts the cadence to a time.Duration.
//
// Returns:
//   - time.Duration: Interval between firings
//   - error: ErrInvalidCadence for an unknown unit, a count < 1, or a
//     period that does not fit in a time.Duration
func (c Cadence) Duration() (time.Duration, error) {
	if c.Count < 1 {
		return 0, fmt.Errorf("%w: count must be >= 1, got %d", ErrInvalidCadence, c.Count)
	}

	var unit time.Duration
	switch c.Unit {
	case CadenceSeconds:
		unit = time.Second
	case CadenceMinutes:
		unit = time.Minute
	case CadenceHours:
		unit = time.Hour
	case CadenceDays:
		unit = 24 * time.Hour
	case CadenceWeeks:
		unit = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidCadence, c.Unit)
	}

	if int64(c.Count) > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("%w: %d %s overflows the maximum period", ErrInvalidCadence, c.Count, c.Unit)
	}

	return time.Duration(c.Count) * unit, nil
}

// String returns e.g. "every 1 minutes".
func (c Cadence) String() string {
	return fmt.Sprintf("every %d %s", c.Count, c.Unit)
}
