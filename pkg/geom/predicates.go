// Package geom holds the geometric predicates and spatial search used by the
// cutter, the flattener and the areal estimation converter.
package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// XY drops the Z component of a point
func XY(p r3.Vec) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Orientation returns twice the signed area of triangle abc.
// Positive when abc turns counter clockwise, negative when clockwise, zero when collinear.
func Orientation(a, b, c r2.Vec) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// onSegment reports whether c, known to be collinear with ab, lies within the bounding box of ab
func onSegment(a, b, c r2.Vec) bool {
	return math.Min(a.X, b.X) <= c.X && c.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= c.Y && c.Y <= math.Max(a.Y, b.Y)
}

// SegmentsIntersect reports whether the closed segments p1p2 and q1q2 share at least one point.
// Touching endpoints and collinear overlap count as intersections.
func SegmentsIntersect(p1, p2, q1, q2 r2.Vec) bool {
	d1 := sign(Orientation(q1, q2, p1))
	d2 := sign(Orientation(q1, q2, p2))
	d3 := sign(Orientation(p1, p2, q1))
	d4 := sign(Orientation(p1, p2, q2))

	if d1*d2 < 0 && d3*d4 < 0 {
		return true
	}

	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}

// SegmentIntersectsTriangle reports whether segment ab crosses or touches any edge of triangle v1v2v3
func SegmentIntersectsTriangle(a, b, v1, v2, v3 r2.Vec) bool {
	return SegmentsIntersect(a, b, v1, v2) ||
		SegmentsIntersect(a, b, v2, v3) ||
		SegmentsIntersect(a, b, v3, v1)
}

// TriangleArea returns the area of the 3D triangle abc
func TriangleArea(a, b, c r3.Vec) float64 {
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
}

// TriangleNormal returns the unit normal of triangle abc, or the zero vector when degenerate
func TriangleNormal(a, b, c r3.Vec) r3.Vec {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if r3.Norm(n) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

// Barycentric returns the barycentric weights of p relative to triangle abc after
// projecting p into the triangle's plane. The weights sum to one. ok is false when
// the triangle is degenerate.
func Barycentric(p, a, b, c r3.Vec) (w [3]float64, ok bool) {
	v0 := r3.Sub(b, a)
	v1 := r3.Sub(c, a)
	v2 := r3.Sub(p, a)

	d00 := r3.Dot(v0, v0)
	d01 := r3.Dot(v0, v1)
	d11 := r3.Dot(v1, v1)
	d20 := r3.Dot(v2, v0)
	d21 := r3.Dot(v2, v1)

	denom := d00*d11 - d01*d01
	if denom == 0 {
		return w, false
	}
	v := (d11*d20 - d01*d21) / denom
	u := (d00*d21 - d01*d20) / denom
	w = [3]float64{1 - v - u, v, u}
	return w, true
}

// Ring converts a polyline to a closed orb ring in the XY plane
func Ring(points []r3.Vec) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

// PointInRing is the even-odd containment test of p's XY projection against ring
func PointInRing(ring orb.Ring, p r3.Vec) bool {
	if len(ring) < 4 {
		return false
	}
	return planar.RingContains(ring, orb.Point{p.X, p.Y})
}

// Centroid returns the mean of the points
func Centroid(points []r3.Vec) r3.Vec {
	var sum r3.Vec
	if len(points) == 0 {
		return sum
	}
	for _, p := range points {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(points)), sum)
}
