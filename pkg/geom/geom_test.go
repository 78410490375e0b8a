package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSegmentsIntersect(t *testing.T) {
	tests := []struct {
		name           string
		p1, p2, q1, q2 r2.Vec
		want           bool
	}{
		{"proper crossing", r2.Vec{X: 0, Y: 0}, r2.Vec{X: 2, Y: 2}, r2.Vec{X: 0, Y: 2}, r2.Vec{X: 2, Y: 0}, true},
		{"disjoint parallel", r2.Vec{X: 0, Y: 0}, r2.Vec{X: 2, Y: 0}, r2.Vec{X: 0, Y: 1}, r2.Vec{X: 2, Y: 1}, false},
		{"touching endpoint", r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 1}, r2.Vec{X: 1, Y: 1}, r2.Vec{X: 2, Y: 0}, true},
		{"collinear overlap", r2.Vec{X: 0, Y: 0}, r2.Vec{X: 2, Y: 0}, r2.Vec{X: 1, Y: 0}, r2.Vec{X: 3, Y: 0}, true},
		{"collinear apart", r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 0}, r2.Vec{X: 2, Y: 0}, r2.Vec{X: 3, Y: 0}, false},
		{"t junction", r2.Vec{X: 0, Y: 0}, r2.Vec{X: 2, Y: 0}, r2.Vec{X: 1, Y: 0}, r2.Vec{X: 1, Y: 5}, true},
		{"miss short", r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 0}, r2.Vec{X: 2, Y: -1}, r2.Vec{X: 2, Y: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SegmentsIntersect(tt.p1, tt.p2, tt.q1, tt.q2))
			assert.Equal(t, tt.want, SegmentsIntersect(tt.q1, tt.q2, tt.p1, tt.p2), "symmetry")
		})
	}
}

func TestSegmentIntersectsTriangle(t *testing.T) {
	v1, v2, v3 := r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 0}, r2.Vec{X: 1, Y: 1}

	assert.True(t, SegmentIntersectsTriangle(r2.Vec{X: -1, Y: 0.5}, r2.Vec{X: 2, Y: 0.5}, v1, v2, v3))
	assert.False(t, SegmentIntersectsTriangle(r2.Vec{X: 10, Y: 10}, r2.Vec{X: 11, Y: 11}, v1, v2, v3))
	// A segment strictly inside the triangle touches no edge.
	assert.False(t, SegmentIntersectsTriangle(r2.Vec{X: 0.7, Y: 0.2}, r2.Vec{X: 0.8, Y: 0.3}, v1, v2, v3))
}

func TestTriangleAreaAndNormal(t *testing.T) {
	a, b, c := r3.Vec{}, r3.Vec{X: 2}, r3.Vec{Y: 2}
	assert.InDelta(t, 2.0, TriangleArea(a, b, c), 1e-12)
	assert.Equal(t, r3.Vec{Z: 1}, TriangleNormal(a, b, c))
	assert.Equal(t, r3.Vec{}, TriangleNormal(a, a, c))
}

func TestBarycentric(t *testing.T) {
	a, b, c := r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}
	p := r3.Vec{X: 0.25, Y: 0.5, Z: 3}

	w, ok := Barycentric(p, a, b, c)
	require.True(t, ok)
	assert.InDelta(t, 0.25, w[0], 1e-12)
	assert.InDelta(t, 0.25, w[1], 1e-12)
	assert.InDelta(t, 0.5, w[2], 1e-12)

	_, ok = Barycentric(p, a, a, a)
	assert.False(t, ok)
}

func TestPointInRing(t *testing.T) {
	square := Ring([]r3.Vec{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}})
	require.True(t, square.Closed())

	assert.True(t, PointInRing(square, r3.Vec{X: 2, Y: 2, Z: 9}))
	assert.False(t, PointInRing(square, r3.Vec{X: 5, Y: 2}))
	assert.False(t, PointInRing(Ring([]r3.Vec{{X: 0}, {X: 1}}), r3.Vec{}))
}

func TestLocator(t *testing.T) {
	coords := []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 5, Y: 5, Z: 5},
		{X: 0.9, Y: 0.1, Z: 100},
	}

	t.Run("Nearest3D", func(t *testing.T) {
		l := NewLocator(coords, nil, false)
		idx, d := l.Nearest(r3.Vec{X: 1.1}, false)
		assert.Equal(t, 1, idx)
		assert.InDelta(t, 0.1, d, 1e-12)
	})

	t.Run("NearestFlat", func(t *testing.T) {
		l := NewLocator(coords, nil, true)
		idx, _ := l.Nearest(r3.Vec{X: 0.9, Y: 0.1, Z: -50}, true)
		assert.Equal(t, 3, idx)
	})

	t.Run("Filtered", func(t *testing.T) {
		l := NewLocator(coords, func(i int) bool { return i != 1 }, false)
		assert.Equal(t, 3, l.Len())
		idx, _ := l.Nearest(r3.Vec{X: 1.1}, false)
		assert.Equal(t, 0, idx)
	})

	t.Run("NearestN", func(t *testing.T) {
		l := NewLocator(coords, nil, false)
		assert.Equal(t, []int{0, 1}, l.NearestN(r3.Vec{X: 0.1}, 2, false))
	})

	t.Run("Empty", func(t *testing.T) {
		l := NewLocator(nil, nil, false)
		idx, d := l.Nearest(r3.Vec{}, false)
		assert.Equal(t, -1, idx)
		assert.True(t, math.IsInf(d, 1))
		assert.Nil(t, l.NearestN(r3.Vec{}, 3, false))
	})
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, r3.Vec{X: 1, Y: 1}, Centroid([]r3.Vec{{X: 0, Y: 0}, {X: 2, Y: 2}}))
	assert.Equal(t, r3.Vec{}, Centroid(nil))
}
