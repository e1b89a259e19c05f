package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentroid_UnitSquare(t *testing.T) {
	p, ok := Centroid("POLYGON((0 0,0 1,1 1,1 0))")
	require.True(t, ok)
	assert.InDelta(t, 0.5, p.X, 1e-12)
	assert.InDelta(t, 0.5, p.Y, 1e-12)
}

func TestCentroid_ClosedRingBiasesTowardRepeatedVertex(t *testing.T) {
	// WKT rings usually repeat the first vertex; the vertex average counts
	// it twice. That drift is the documented behavior of this reduction.
	p, ok := Centroid("POLYGON((0 0,0 1,1 1,1 0,0 0))")
	require.True(t, ok)
	assert.InDelta(t, 0.4, p.X, 1e-12)
	assert.InDelta(t, 0.4, p.Y, 1e-12)
}

func TestCentroid_MultiPolygon(t *testing.T) {
	p, ok := Centroid("MULTIPOLYGON(((0 0,0 2,2 2,2 0)),((4 4,4 6,6 6,6 4)))")
	require.True(t, ok)
	assert.InDelta(t, 3.0, p.X, 1e-12)
	assert.InDelta(t, 3.0, p.Y, 1e-12)
}

func TestCentroid_NegativeAndDecimalCoordinates(t *testing.T) {
	p, ok := Centroid("POLYGON((-1.5 -2.5,-0.5 -2.5,-0.5 -1.5,-1.5 -1.5))")
	require.True(t, ok)
	assert.InDelta(t, -1.0, p.X, 1e-12)
	assert.InDelta(t, -2.0, p.Y, 1e-12)
}

func TestCentroid_InvalidGeometry(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"POLYGON EMPTY",
		"not a geometry",
	}
	for _, wkt := range cases {
		_, ok := Centroid(wkt)
		assert.False(t, ok, "expected no centroid for %q", wkt)
	}
}

func TestAreaCentroid_ClosedUnitSquare(t *testing.T) {
	// The shoelace centroid does not drift with the repeated vertex.
	p, ok := AreaCentroid("POLYGON((0 0,0 1,1 1,1 0,0 0))")
	require.True(t, ok)
	assert.InDelta(t, 0.5, p.X, 1e-12)
	assert.InDelta(t, 0.5, p.Y, 1e-12)
}

func TestAreaCentroid_DegenerateRingFallsBack(t *testing.T) {
	// Collinear points have zero area; the vertex mean is used instead.
	p, ok := AreaCentroid("POLYGON((0 0,1 1,2 2))")
	require.True(t, ok)
	assert.InDelta(t, 1.0, p.X, 1e-12)
	assert.InDelta(t, 1.0, p.Y, 1e-12)
}
