package severity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"pothole-service/models"
)

func TestClassify_SmallShallowIsLow(t *testing.T) {
	c := NewClassifier(DefaultParams())

	s := c.Classify(50, 0.1)
	require.Equal(t, models.SeverityLow, s.Level)
	require.Equal(t, "small", s.AreaCategory)
	require.Equal(t, "shallow", s.DepthCategory)
	require.False(t, s.Degraded)
}

func TestClassify_VeryLargeVeryDeepIsCritical(t *testing.T) {
	c := NewClassifier(DefaultParams())

	s := c.Classify(20000, 0.95)
	require.Equal(t, models.SeverityCritical, s.Level)
	require.Equal(t, "very_large", s.AreaCategory)
	require.Equal(t, "very_deep", s.DepthCategory)
}

func TestClassify_ScoreBlend(t *testing.T) {
	c := NewClassifier(DefaultParams())

	// large/medium cell maps to medium: base 0.5, area 5000/10000, depth 0.5
	s := c.Classify(5000, 0.5)
	require.Equal(t, models.SeverityMedium, s.Level)
	require.InDelta(t, 0.6*0.5+0.2*0.5+0.2*0.5, s.Score, 1e-9)
}

func TestClassify_ScoreStaysInBounds(t *testing.T) {
	c := NewClassifier(DefaultParams())

	cases := []struct {
		area  float64
		depth float64
	}{
		{0, 0},
		{1e9, 1},
		{123, 0.4},
		{15000, 0.8},
	}
	for _, tc := range cases {
		s := c.Classify(tc.area, tc.depth)
		require.GreaterOrEqual(t, s.Score, 0.0)
		require.LessOrEqual(t, s.Score, 1.0)
	}
}

func TestClassify_MalformedInputReturnsDegradedMedium(t *testing.T) {
	c := NewClassifier(DefaultParams())

	for _, s := range []models.Severity{
		c.Classify(math.NaN(), 0.5),
		c.Classify(-10, 0.5),
		c.Classify(100, math.Inf(1)),
	} {
		require.Equal(t, models.SeverityMedium, s.Level)
		require.True(t, s.Degraded)
		require.InDelta(t, 0.5, s.Score, 1e-9)
	}
}

func TestClassify_DepthProxyClamped(t *testing.T) {
	c := NewClassifier(DefaultParams())

	s := c.Classify(100, 1.7)
	require.Equal(t, "very_deep", s.DepthCategory)
	require.Equal(t, 1.0, s.DepthScore)
}

func TestClassify_CalibrationRescalesArea(t *testing.T) {
	p := DefaultParams()
	p.PixelToCM = 2 // each pixel covers 2x2 cm

	c := NewClassifier(p)
	// 500 px * 4 = 2000 "cm^2" lands in the medium band.
	s := c.Classify(500, 0.1)
	require.Equal(t, "medium", s.AreaCategory)

	uncalibrated := NewClassifier(DefaultParams()).Classify(500, 0.1)
	require.Equal(t, "small", uncalibrated.AreaCategory)
}

func TestDepthProxyFromLuma(t *testing.T) {
	// Pitch black, no texture: pure darkness signal.
	require.InDelta(t, 0.7, DepthProxyFromLuma(0, 0), 1e-9)
	// Fully lit, no texture: flat road.
	require.InDelta(t, 0.0, DepthProxyFromLuma(255, 0), 1e-9)
	// NaN statistics fall back to the midpoint.
	require.InDelta(t, 0.5, DepthProxyFromLuma(math.NaN(), 10), 1e-9)
}
