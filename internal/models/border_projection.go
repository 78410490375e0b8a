package models

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"caretflat/pkg/geom"
)

// ProjectionLink places a border link on a triangle by barycentric weights
type ProjectionLink struct {
	// Triangle indexes the topology the border was projected onto
	Triangle int
	Vertices [3]int
	Weights  [3]float64
	Radius   float64
}

// BorderProjection is a border whose links are expressed relative to triangles, so it
// can be unprojected onto any coordinate set sharing the node indexing
type BorderProjection struct {
	Name        string
	Links       []ProjectionLink
	Uncertainty float64
	Closed      bool
}

// NumLinks returns the number of links
func (bp *BorderProjection) NumLinks() int {
	return len(bp.Links)
}

// Unproject evaluates the links against coords
func (bp *BorderProjection) Unproject(coords []r3.Vec) Border {
	b := Border{
		Name:        bp.Name,
		Uncertainty: bp.Uncertainty,
		Closed:      bp.Closed,
		Links:       make([]Link, 0, len(bp.Links)),
	}
	for _, l := range bp.Links {
		var p r3.Vec
		for k := 0; k < 3; k++ {
			p = r3.Add(p, r3.Scale(l.Weights[k], coords[l.Vertices[k]]))
		}
		b.Links = append(b.Links, Link{Pos: p, Radius: l.Radius})
	}
	return b
}

// Validate checks the link triangles against a topology
func (bp *BorderProjection) Validate(t *Topology) error {
	for i, l := range bp.Links {
		if l.Triangle < 0 || l.Triangle >= len(t.Triangles) {
			return fmt.Errorf("border %q link %d refers to triangle %d of %d",
				bp.Name, i, l.Triangle, len(t.Triangles))
		}
		for _, v := range l.Vertices {
			if v < 0 || v >= t.NumNodes {
				return fmt.Errorf("border %q link %d refers to node %d of %d", bp.Name, i, v, t.NumNodes)
			}
		}
	}
	return nil
}

// candidateNodes is how many nearby nodes contribute triangles when projecting a link
const candidateNodes = 6

// ProjectBorder expresses each link of b relative to the triangle of s that best
// contains it. Links with no usable triangle are dropped.
func ProjectBorder(b *Border, s *Surface) BorderProjection {
	bp := BorderProjection{
		Name:        b.Name,
		Uncertainty: b.Uncertainty,
		Closed:      b.Closed,
	}
	h := s.Topology.Helper()
	locator := geom.NewLocator(s.Coords, h.HasNeighbors, false)

	for _, link := range b.Links {
		best := -1
		var bestWeights [3]float64
		bestScore := math.Inf(-1)
		bestDist := math.Inf(1)

		for _, node := range locator.NearestN(link.Pos, candidateNodes, false) {
			for _, ti := range h.Triangles(node) {
				tri := s.Topology.Triangles[ti]
				a, bb, c := s.Coords[tri[0]], s.Coords[tri[1]], s.Coords[tri[2]]
				w, ok := geom.Barycentric(link.Pos, a, bb, c)
				if !ok {
					continue
				}
				// the most negative weight measures how far outside the triangle the point is
				score := math.Min(w[0], math.Min(w[1], w[2]))
				onPlane := r3.Add(r3.Add(r3.Scale(w[0], a), r3.Scale(w[1], bb)), r3.Scale(w[2], c))
				dist := r3.Norm(r3.Sub(onPlane, link.Pos))
				if score >= 0 && bestScore >= 0 {
					if dist < bestDist || (dist == bestDist && ti < best) {
						best, bestWeights, bestScore, bestDist = ti, w, score, dist
					}
					continue
				}
				if score > bestScore || (score == bestScore && ti < best) {
					best, bestWeights, bestScore, bestDist = ti, w, score, dist
				}
			}
		}
		if best < 0 {
			continue
		}
		if bestScore < 0 {
			bestWeights = clampWeights(bestWeights)
		}
		bp.Links = append(bp.Links, ProjectionLink{
			Triangle: best,
			Vertices: s.Topology.Triangles[best],
			Weights:  bestWeights,
			Radius:   link.Radius,
		})
	}
	return bp
}

// clampWeights moves a point lying outside its triangle onto the triangle
func clampWeights(w [3]float64) [3]float64 {
	sum := 0.0
	for k := range w {
		if w[k] < 0 {
			w[k] = 0
		}
		sum += w[k]
	}
	if sum == 0 {
		return [3]float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	}
	for k := range w {
		w[k] /= sum
	}
	return w
}

// BorderProjectionFile is an ordered collection of border projections
type BorderProjectionFile struct {
	Name        string
	Projections []BorderProjection
}

// NumProjections returns the number of border projections
func (f *BorderProjectionFile) NumProjections() int {
	return len(f.Projections)
}

// Add appends a border projection
func (f *BorderProjectionFile) Add(bp BorderProjection) {
	f.Projections = append(f.Projections, bp)
}

// Find returns the first projection named name
func (f *BorderProjectionFile) Find(name string) (*BorderProjection, bool) {
	for i := range f.Projections {
		if f.Projections[i].Name == name {
			return &f.Projections[i], true
		}
	}
	return nil, false
}

// WithPrefix returns the projections whose name starts with prefix, in file order
func (f *BorderProjectionFile) WithPrefix(prefix string) []BorderProjection {
	var out []BorderProjection
	for _, bp := range f.Projections {
		if strings.HasPrefix(bp.Name, prefix) {
			out = append(out, bp)
		}
	}
	return out
}

// Unproject unprojects every border onto coords
func (f *BorderProjectionFile) Unproject(coords []r3.Vec) *BorderFile {
	bf := &BorderFile{Name: f.Name}
	for i := range f.Projections {
		bf.Add(f.Projections[i].Unproject(coords))
	}
	return bf
}
