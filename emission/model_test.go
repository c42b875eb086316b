package emission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skycarbon/skycarbon/types"
)

func ptr[T any](v T) *T { return &v }

func airborne(icao string, velocity float64, lastContact int64, category int) types.StateVector {
	return types.StateVector{
		ICAO24:      icao,
		LastContact: lastContact,
		Velocity:    ptr(velocity),
		Category:    category,
	}
}

func TestModel_FirstSightingUsesDefaultInterval(t *testing.T) {
	m := New(DefaultConfig())
	at := time.Unix(1_700_000_000, 0)

	// 250 m/s for 60 s = 15 km; large = 4.5 kg/km -> 67.5 kg fuel.
	co2, err := m.ComputeEmission(t.Context(), []types.StateVector{
		airborne("3c6444", 250, at.Unix(), CategoryLarge),
	}, at)
	require.NoError(t, err)
	require.InDelta(t, 15*4.5*CO2PerKgFuel, co2, 1e-9)
	require.Equal(t, 1, m.Tracked())
}

func TestModel_UsesElapsedSinceLastSighting(t *testing.T) {
	m := New(DefaultConfig())
	t0 := time.Unix(1_700_000_000, 0)

	_, err := m.ComputeEmission(t.Context(), []types.StateVector{airborne("a", 200, t0.Unix(), CategoryHeavy)}, t0)
	require.NoError(t, err)

	t1 := t0.Add(30 * time.Second)
	co2, err := m.ComputeEmission(t.Context(), []types.StateVector{airborne("a", 200, t1.Unix(), CategoryHeavy)}, t1)
	require.NoError(t, err)
	// 200 m/s * 30 s = 6 km at 9 kg/km.
	require.InDelta(t, 6*9*CO2PerKgFuel, co2, 1e-9)
}

func TestModel_SameSightingCountsOnce(t *testing.T) {
	m := New(DefaultConfig())
	at := time.Unix(1_700_000_000, 0)
	states := []types.StateVector{airborne("a", 200, at.Unix(), CategoryLarge)}

	first, err := m.ComputeEmission(t.Context(), states, at)
	require.NoError(t, err)
	require.Positive(t, first)

	again, err := m.ComputeEmission(t.Context(), states, at.Add(10*time.Second))
	require.NoError(t, err)
	require.Zero(t, again)
}

func TestModel_CapsGap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxGap = 2 * time.Minute
	cfg.ForgetAfter = time.Hour
	m := New(cfg)

	t0 := time.Unix(1_700_000_000, 0)
	_, err := m.ComputeEmission(t.Context(), []types.StateVector{airborne("a", 100, t0.Unix(), CategoryLarge)}, t0)
	require.NoError(t, err)

	t1 := t0.Add(20 * time.Minute)
	co2, err := m.ComputeEmission(t.Context(), []types.StateVector{airborne("a", 100, t1.Unix(), CategoryLarge)}, t1)
	require.NoError(t, err)
	// Capped at 120 s: 12 km.
	require.InDelta(t, 12*4.5*CO2PerKgFuel, co2, 1e-9)
}

func TestModel_SkipsGroundedAndStationary(t *testing.T) {
	m := New(DefaultConfig())
	at := time.Unix(1_700_000_000, 0)

	grounded := airborne("g", 10, at.Unix(), CategoryLarge)
	grounded.OnGround = true
	noVelocity := types.StateVector{ICAO24: "n", LastContact: at.Unix()}
	noID := airborne("", 200, at.Unix(), CategoryLarge)

	co2, err := m.ComputeEmission(t.Context(), []types.StateVector{grounded, noVelocity, noID}, at)
	require.NoError(t, err)
	require.Zero(t, co2)
}

func TestModel_ForgetsStaleAircraft(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ForgetAfter = 10 * time.Minute
	m := New(cfg)

	t0 := time.Unix(1_700_000_000, 0)
	_, err := m.ComputeEmission(t.Context(), []types.StateVector{airborne("a", 100, t0.Unix(), CategoryLarge)}, t0)
	require.NoError(t, err)
	require.Equal(t, 1, m.Tracked())

	_, err = m.ComputeEmission(t.Context(), nil, t0.Add(11*time.Minute))
	require.NoError(t, err)
	require.Zero(t, m.Tracked())
}

func TestModel_UnknownCategoryUsesDefaultRate(t *testing.T) {
	m := New(DefaultConfig())
	at := time.Unix(1_700_000_000, 0)

	co2, err := m.ComputeEmission(t.Context(), []types.StateVector{airborne("a", 100, at.Unix(), 42)}, at)
	require.NoError(t, err)
	require.InDelta(t, 6*4.0*CO2PerKgFuel, co2, 1e-9)
}

func TestNewFactory_IndependentModels(t *testing.T) {
	factory := NewFactory(DefaultConfig())
	berlin := factory(types.Airspace{Name: "berlin"})
	paris := factory(types.Airspace{Name: "paris"})

	at := time.Unix(1_700_000_000, 0)
	states := []types.StateVector{airborne("a", 100, at.Unix(), CategoryLarge)}

	b, err := berlin.ComputeEmission(t.Context(), states, at)
	require.NoError(t, err)
	p, err := paris.ComputeEmission(t.Context(), states, at)
	require.NoError(t, err)
	require.InDelta(t, b, p, 1e-9, "history of one airspace must not leak into another")
}

func TestModel_IgnoresAircraftOutsideBox(t *testing.T) {
	box := types.BoundingBox{MinLat: 52.3, MaxLat: 52.7, MinLon: 13.0, MaxLon: 13.8}
	m := NewInBox(DefaultConfig(), box)
	at := time.Unix(1_700_000_000, 0)

	inside := airborne("in", 100, at.Unix(), CategoryLarge)
	inside.Latitude, inside.Longitude = ptr(52.5), ptr(13.4)
	outside := airborne("out", 100, at.Unix(), CategoryLarge)
	outside.Latitude, outside.Longitude = ptr(48.1), ptr(11.6)
	unplaced := airborne("nopos", 100, at.Unix(), CategoryLarge)

	co2, err := m.ComputeEmission(t.Context(), []types.StateVector{inside, outside, unplaced}, at)
	require.NoError(t, err)
	require.InDelta(t, 2*6*4.5*CO2PerKgFuel, co2, 1e-9)
	require.Equal(t, 2, m.Tracked(), "aircraft outside the box are not tracked")
}

func TestNewFactory_ClipsToAirspaceBox(t *testing.T) {
	factory := NewFactory(DefaultConfig())
	berlin := factory(types.Airspace{
		Name: "berlin",
		Box:  types.BoundingBox{MinLat: 52.3, MaxLat: 52.7, MinLon: 13.0, MaxLon: 13.8},
	})

	at := time.Unix(1_700_000_000, 0)
	munich := airborne("a", 100, at.Unix(), CategoryLarge)
	munich.Latitude, munich.Longitude = ptr(48.1), ptr(11.6)

	co2, err := berlin.ComputeEmission(t.Context(), []types.StateVector{munich}, at)
	require.NoError(t, err)
	require.Zero(t, co2)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.BurnRates = map[int]float64{CategoryLarge: -1}
	require.ErrorIs(t, cfg.Validate(), types.ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.MaxGap = -time.Second
	require.ErrorIs(t, cfg.Validate(), types.ErrInvalidConfig)
}
