package types

import (
	"context"
	"fmt"
	"math"
	"regexp"
)

// airspaceNamePattern restricts names to characters that are valid in KV keys
// and URL path segments.
var airspaceNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// BoundingBox is a latitude/longitude rectangle that filters which aircraft
// state vectors belong to an airspace.
//
// Invariant: MinLat < MaxLat and MinLon < MaxLon.
type BoundingBox struct {
	MinLat float64 `yaml:"minLat" json:"minLat"`
	MinLon float64 `yaml:"minLon" json:"minLon"`
	MaxLat float64 `yaml:"maxLat" json:"maxLat"`
	MaxLon float64 `yaml:"maxLon" json:"maxLon"`
}

// Validate checks the min < max invariant on both axes and coordinate ranges.
//
// Returns:
//   - error: ErrInvalidAirspace wrapped with details, nil if valid
func (b BoundingBox) Validate() error {
	for _, v := range []float64{b.MinLat, b.MinLon, b.MaxLat, b.MaxLon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coordinate in %v", ErrInvalidAirspace, b)
		}
	}
	if b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("%w: latitude out of range in %v", ErrInvalidAirspace, b)
	}
	if b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("%w: longitude out of range in %v", ErrInvalidAirspace, b)
	}
	if b.MinLat >= b.MaxLat {
		return fmt.Errorf("%w: minLat (%v) must be < maxLat (%v)", ErrInvalidAirspace, b.MinLat, b.MaxLat)
	}
	if b.MinLon >= b.MaxLon {
		return fmt.Errorf("%w: minLon (%v) must be < maxLon (%v)", ErrInvalidAirspace, b.MinLon, b.MaxLon)
	}

	return nil
}

// Contains reports whether the given position lies inside the box (edges inclusive).
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Airspace is a named geographic region, the unit of independent tracking.
//
// Airspaces are created once at startup from static configuration and are
// immutable afterwards.
type Airspace struct {
	// Name uniquely identifies the airspace (e.g., "berlin").
	Name string `yaml:"name" json:"name"`

	// Box is the region's bounding box.
	Box BoundingBox `yaml:"box" json:"box"`
}

// Validate checks that the airspace has a usable name and a valid bounding box.
func (a Airspace) Validate() error {
	if !airspaceNamePattern.MatchString(a.Name) {
		return fmt.Errorf("%w: name %q must match %s", ErrInvalidAirspace, a.Name, airspaceNamePattern)
	}
	if err := a.Box.Validate(); err != nil {
		return fmt.Errorf("airspace %s: %w", a.Name, err)
	}

	return nil
}

// Credentials authenticate requests to the state-vector feed for one airspace.
type Credentials struct {
	Username string `yaml:"username" json:"-"`
	Password string `yaml:"password" json:"-"`
}

// Complete reports whether both username and password are set.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// String redacts the password so credentials never leak into logs.
func (c Credentials) String() string {
	if c.Username == "" {
		return "<none>"
	}

	return c.Username + ":***"
}

// JobContext is the immutable per-airspace value shared by both recurring jobs
// of an airspace. It is built once when the airspace's lane is created.
type JobContext struct {
	Airspace    Airspace
	Credentials Credentials
}

// AirspaceSource provides the static set of airspaces to track.
//
// The Service calls ListAirspaces once during Start.
type AirspaceSource interface {
	// ListAirspaces returns all configured airspaces.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//
	// Returns:
	//   - []Airspace: Configured airspaces, in a stable order
	//   - error: Discovery error (nil on success)
	ListAirspaces(ctx context.Context) ([]Airspace, error)
}
