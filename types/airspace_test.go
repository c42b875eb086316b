package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundingBox_Validate(t *testing.T) {
	t.Run("accepts well-formed box", func(t *testing.T) {
		box := BoundingBox{MinLat: 52.34, MinLon: 13.08, MaxLat: 52.66, MaxLon: 13.76}
		require.NoError(t, box.Validate())
	})

	t.Run("rejects inverted latitude", func(t *testing.T) {
		box := BoundingBox{MinLat: 52.66, MinLon: 13.08, MaxLat: 52.34, MaxLon: 13.76}
		require.ErrorIs(t, box.Validate(), ErrInvalidAirspace)
	})

	t.Run("rejects degenerate longitude", func(t *testing.T) {
		box := BoundingBox{MinLat: 1, MinLon: 2, MaxLat: 3, MaxLon: 2}
		require.ErrorIs(t, box.Validate(), ErrInvalidAirspace)
	})

	t.Run("rejects out of range", func(t *testing.T) {
		box := BoundingBox{MinLat: -91, MinLon: 0, MaxLat: 0, MaxLon: 1}
		require.ErrorIs(t, box.Validate(), ErrInvalidAirspace)
	})

	t.Run("rejects NaN", func(t *testing.T) {
		box := BoundingBox{MinLat: math.NaN(), MinLon: 0, MaxLat: 1, MaxLon: 1}
		require.ErrorIs(t, box.Validate(), ErrInvalidAirspace)
	})
}

func TestBoundingBox_Contains(t *testing.T) {
	box := BoundingBox{MinLat: 48.75, MinLon: 2.13, MaxLat: 48.93, MaxLon: 2.49}

	require.True(t, box.Contains(48.85, 2.35))
	require.True(t, box.Contains(48.75, 2.13))
	require.False(t, box.Contains(51.5, -0.12))
}

func TestAirspace_Validate(t *testing.T) {
	box := BoundingBox{MinLat: 1, MinLon: 1, MaxLat: 2, MaxLon: 2}

	require.NoError(t, Airspace{Name: "berlin", Box: box}.Validate())
	require.ErrorIs(t, Airspace{Name: "", Box: box}.Validate(), ErrInvalidAirspace)
	require.ErrorIs(t, Airspace{Name: "new york", Box: box}.Validate(), ErrInvalidAirspace)
	require.ErrorIs(t, Airspace{Name: "a.b", Box: box}.Validate(), ErrInvalidAirspace)
}

func TestCredentials(t *testing.T) {
	require.True(t, Credentials{Username: "u", Password: "p"}.Complete())
	require.False(t, Credentials{Username: "u"}.Complete())
	require.False(t, Credentials{}.Complete())

	require.Equal(t, "u:***", Credentials{Username: "u", Password: "secret"}.String())
	require.NotContains(t, Credentials{Username: "u", Password: "secret"}.String(), "secret")
}
