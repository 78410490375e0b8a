package models

import (
	"strings"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"

	"caretflat/pkg/geom"
)

// Link is one point of a border polyline
type Link struct {
	Pos r3.Vec
	// Radius is the per-link uncertainty, zero when not set
	Radius float64
}

// Border is a named polyline of 3D points
type Border struct {
	Name  string
	Links []Link
	// Uncertainty is the border-level fallback used when a link has no radius
	Uncertainty float64
	// Closed marks the last link as connected back to the first
	Closed bool
}

// NumLinks returns the number of links
func (b *Border) NumLinks() int {
	return len(b.Links)
}

// Positions returns the link coordinates
func (b *Border) Positions() []r3.Vec {
	out := make([]r3.Vec, len(b.Links))
	for i, l := range b.Links {
		out[i] = l.Pos
	}
	return out
}

// IsClosed reports whether the border is closed, either explicitly or because its
// end links coincide
func (b *Border) IsClosed() bool {
	if b.Closed {
		return true
	}
	n := len(b.Links)
	return n > 2 && b.Links[0].Pos == b.Links[n-1].Pos
}

// Centroid returns the mean of the link positions
func (b *Border) Centroid() r3.Vec {
	return geom.Centroid(b.Positions())
}

// LinkUncertainty returns the uncertainty radius at link i, falling back to the border
// value. ok is false when neither is positive.
func (b *Border) LinkUncertainty(i int) (float64, bool) {
	if i >= 0 && i < len(b.Links) && b.Links[i].Radius > 0 {
		return b.Links[i].Radius, true
	}
	if b.Uncertainty > 0 {
		return b.Uncertainty, true
	}
	return 0, false
}

// HasUncertainty reports whether any link or the border itself carries an uncertainty
func (b *Border) HasUncertainty() bool {
	if b.Uncertainty > 0 {
		return true
	}
	for _, l := range b.Links {
		if l.Radius > 0 {
			return true
		}
	}
	return false
}

// Ring returns the border as a closed counter clockwise ring in the XY plane
func (b *Border) Ring() orb.Ring {
	ring := geom.Ring(b.Positions())
	if len(ring) > 3 && ring.Orientation() == orb.CW {
		ring.Reverse()
	}
	return ring
}

// PointsInside2D flags the points whose XY position lies inside the border polygon
// (even-odd rule). With nonNegativeZOnly set, points with Z below zMinimum are never inside.
func (b *Border) PointsInside2D(points []r3.Vec, nonNegativeZOnly bool, zMinimum float64) []bool {
	inside := make([]bool, len(points))
	if len(b.Links) < 3 {
		return inside
	}
	ring := b.Ring()
	bound := ring.Bound()
	for i, p := range points {
		if nonNegativeZOnly && p.Z < zMinimum {
			continue
		}
		if !bound.Contains(orb.Point{p.X, p.Y}) {
			continue
		}
		inside[i] = geom.PointInRing(ring, p)
	}
	return inside
}

// BorderFile is an ordered collection of borders
type BorderFile struct {
	Name    string
	Borders []Border
}

// NumBorders returns the number of borders
func (f *BorderFile) NumBorders() int {
	return len(f.Borders)
}

// Add appends a border
func (f *BorderFile) Add(b Border) {
	f.Borders = append(f.Borders, b)
}

// Find returns the first border named name
func (f *BorderFile) Find(name string) (*Border, bool) {
	for i := range f.Borders {
		if f.Borders[i].Name == name {
			return &f.Borders[i], true
		}
	}
	return nil, false
}

// WithPrefix returns the borders whose name starts with prefix, in file order
func (f *BorderFile) WithPrefix(prefix string) []Border {
	var out []Border
	for _, b := range f.Borders {
		if strings.HasPrefix(b.Name, prefix) {
			out = append(out, b)
		}
	}
	return out
}
