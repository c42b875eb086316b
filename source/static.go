package source

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/skycarbon/skycarbon/types"
)

// Static implements an airspace source with a fixed list of airspaces.
type Static struct {
	mu        sync.RWMutex
	airspaces []types.Airspace
}

var _ types.AirspaceSource = (*Static)(nil)

// NewStatic creates a source that always returns the given airspaces.
//
// Parameters:
//   - airspaces: Fixed list of airspaces
//
// Returns:
//   - *Static: Initialized static source
//
// Example:
//
//	src := source.NewStatic(source.DefaultAirspaces())
//	svc, err := skycarbon.NewService(cfg, st, fetcher, factory, skycarbon.WithAirspaceSource(src))
func NewStatic(airspaces []types.Airspace) *Static {
	s := &Static{}
	s.Update(airspaces)

	return s
}

// FromMap builds a static source from a name -> bounding box map, ordered by name.
func FromMap(boxes map[string]types.BoundingBox) *Static {
	airspaces := make([]types.Airspace, 0, len(boxes))
	for name, box := range boxes {
		airspaces = append(airspaces, types.Airspace{Name: name, Box: box})
	}
	slices.SortFunc(airspaces, func(a, b types.Airspace) int {
		return strings.Compare(a.Name, b.Name)
	})

	return NewStatic(airspaces)
}

// ListAirspaces returns a copy of the list.
//
// Returns:
//   - []types.Airspace: The fixed list of airspaces
//   - error: Always nil
func (s *Static) ListAirspaces(_ context.Context) ([]types.Airspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.airspaces), nil
}

// Update replaces the list. Airspaces are only read at Service start, so an
// update takes effect on the next start.
func (s *Static) Update(airspaces []types.Airspace) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.airspaces = slices.Clone(airspaces)
}

// DefaultAirspaces returns the built-in city airspaces.
func DefaultAirspaces() []types.Airspace {
	return []types.Airspace{
		{Name: "berlin", Box: types.BoundingBox{MinLat: 52.3418234221, MinLon: 13.0882097323, MaxLat: 52.6697240587, MaxLon: 13.7606105539}},
		{Name: "london", Box: types.BoundingBox{MinLat: 51.344500, MinLon: -0.388934, MaxLat: 51.643400, MaxLon: 0.194758}},
		{Name: "madrid", Box: types.BoundingBox{MinLat: 40.312817, MinLon: -3.831991, MaxLat: 40.561061, MaxLon: -3.524374}},
		{Name: "paris", Box: types.BoundingBox{MinLat: 48.753020, MinLon: 2.138901, MaxLat: 48.937837, MaxLon: 2.493896}},
	}
}
