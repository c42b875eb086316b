package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skycarbon/skycarbon/types"
)

func TestStatic_ListAirspaces(t *testing.T) {
	t.Run("returns all airspaces", func(t *testing.T) {
		src := NewStatic(DefaultAirspaces())

		result, err := src.ListAirspaces(context.Background())
		require.NoError(t, err)
		require.Equal(t, DefaultAirspaces(), result)
	})

	t.Run("returns empty list when no airspaces", func(t *testing.T) {
		src := NewStatic(nil)

		result, err := src.ListAirspaces(context.Background())
		require.NoError(t, err)
		require.Empty(t, result)
	})

	t.Run("callers cannot mutate the source", func(t *testing.T) {
		in := DefaultAirspaces()
		src := NewStatic(in)
		in[0].Name = "mutated"

		out, err := src.ListAirspaces(context.Background())
		require.NoError(t, err)
		out[1].Name = "mutated"

		again, err := src.ListAirspaces(context.Background())
		require.NoError(t, err)
		require.Equal(t, DefaultAirspaces(), again)
	})
}

func TestStatic_Update(t *testing.T) {
	src := NewStatic(DefaultAirspaces())
	src.Update(DefaultAirspaces()[:1])

	result, err := src.ListAirspaces(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "berlin", result[0].Name)
}

func TestFromMap_SortsByName(t *testing.T) {
	boxes := make(map[string]types.BoundingBox)
	for _, a := range DefaultAirspaces() {
		boxes[a.Name] = a.Box
	}

	result, err := FromMap(boxes).ListAirspaces(context.Background())
	require.NoError(t, err)
	require.Equal(t, DefaultAirspaces(), result)
}

func TestDefaultAirspaces_AreValid(t *testing.T) {
	for _, a := range DefaultAirspaces() {
		require.NoError(t, a.Validate(), a.Name)
	}
}
