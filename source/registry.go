package source

import (
	"context"
	"fmt"

	"github.com/skycarbon/skycarbon/types"
)

// Registry lists the airspaces stored in a store's registry, so a restarted
// service keeps tracking what an earlier run registered.
type Registry struct {
	reader types.StoreReader
}

var _ types.AirspaceSource = (*Registry)(nil)

// NewRegistry creates a source reading from reader.
func NewRegistry(reader types.StoreReader) *Registry {
	return &Registry{reader: reader}
}

// ListAirspaces reads the registry, ordered by name.
func (r *Registry) ListAirspaces(ctx context.Context) ([]types.Airspace, error) {
	boxes, err := r.reader.GetAirspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("read airspace registry: %w", err)
	}

	return FromMap(boxes).airspaces, nil
}
