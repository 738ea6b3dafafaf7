package geo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceMeters(t *testing.T) {
	// One degree of latitude is about 111 km.
	d := DistanceMeters(44.0, 20.0, 45.0, 20.0)
	require.InDelta(t, 111195, d, 500)

	// A 6th-decimal nudge is roughly a tenth of a meter.
	d = DistanceMeters(44.786600, 20.448900, 44.786601, 20.448901)
	require.Less(t, d, 0.5)
	require.Greater(t, d, 0.0)

	require.Equal(t, 0.0, DistanceMeters(10, 10, 10, 10))
}

func TestBoundingBox(t *testing.T) {
	latDelta, lonDelta := BoundingBox(44.78, 1.0)
	require.InDelta(t, 0.009, latDelta, 0.001)
	// Longitude degrees shrink with latitude, so the delta widens.
	require.Greater(t, lonDelta, latDelta)
}

func TestInterpolate(t *testing.T) {
	lat, lon := Interpolate(44.0, 20.0, 45.0, 20.0, 0.5)
	require.InDelta(t, 44.5, lat, 0.01)
	require.InDelta(t, 20.0, lon, 0.01)

	lat, lon = Interpolate(44.0, 20.0, 45.0, 21.0, 0.0)
	require.InDelta(t, 44.0, lat, 1e-9)
	require.InDelta(t, 20.0, lon, 1e-9)
}
