// Package cutter removes every triangle of a surface that is crossed by a set of cut borders.
package cutter

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"caretflat/internal/models"
	"caretflat/pkg/geom"
)

// Mode selects how triangles are tested against a cut
type Mode int

const (
	// ModeFlat tests every triangle in the XY plane
	ModeFlat Mode = iota
	// ModeNonNegativeZ skips triangles having a vertex below Z = 0
	ModeNonNegativeZ
	// ModeSpherical rotates the surface so the cut faces +Z, then behaves like ModeNonNegativeZ
	ModeSpherical
)

func (m Mode) String() string {
	switch m {
	case ModeNonNegativeZ:
		return "non-negative-z"
	case ModeSpherical:
		return "spherical"
	default:
		return "flat"
	}
}

// ParseMode converts a name written by String back to a Mode
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeFlat, ModeNonNegativeZ, ModeSpherical} {
		if m.String() == s {
			return m, nil
		}
	}
	return ModeFlat, fmt.Errorf("unknown cutting mode %q", s)
}

// Params holds the inputs of a cutting run
type Params struct {
	// Surface supplies the coordinates and the topology to cut. It is not modified.
	Surface *models.Surface

	// Cuts are unprojected onto the surface coordinates
	Cuts []models.BorderProjection

	Mode Mode

	// ExtendToEdge lengthens each cut at the end nearer the mesh boundary so the cut
	// reaches the boundary
	ExtendToEdge bool

	Logger *zap.Logger
}

// BorderCutter applies cut borders to a surface topology
type BorderCutter struct {
	params *Params
	logger *zap.Logger
	marked *roaring.Bitmap
}

// NewBorderCutter creates a cutter for params
func NewBorderCutter(params *Params) *BorderCutter {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BorderCutter{
		params: params,
		logger: logger,
		marked: roaring.New(),
	}
}

// Execute returns a new topology without the triangles crossed by any cut. When
// nothing is crossed the copy keeps the input type; otherwise it is tagged CUT.
// The input topology is never modified.
func (c *BorderCutter) Execute() *models.Topology {
	s := c.params.Surface
	c.marked.Clear()

	h := s.Topology.Helper()

	for i := range c.params.Cuts {
		cut := &c.params.Cuts[i]
		if cut.NumLinks() < 2 {
			c.logger.Debug("skipping short cut", zap.String("border", cut.Name), zap.Int("links", cut.NumLinks()))
			continue
		}
		before := c.marked.GetCardinality()
		c.applyCut(s, h, cut)
		c.logger.Debug("applied cut",
			zap.String("border", cut.Name),
			zap.Uint64("triangles", c.marked.GetCardinality()-before))
	}

	out := s.Topology.Clone()
	if c.marked.IsEmpty() {
		return out
	}
	out.RemoveTriangles(func(i int, _ models.Triangle) bool {
		return c.marked.Contains(uint32(i))
	})
	out.Type = models.TopologyCut

	c.logger.Info("cuts applied",
		zap.Int("cuts", len(c.params.Cuts)),
		zap.Uint64("removed", c.marked.GetCardinality()),
		zap.Int("remaining", out.NumTriangles()))
	return out
}

// NumCut returns how many triangles the last Execute removed
func (c *BorderCutter) NumCut() int {
	return int(c.marked.GetCardinality())
}

// applyCut marks the triangles crossed by one cut
func (c *BorderCutter) applyCut(s *models.Surface, h *models.TopologyHelper, cut *models.BorderProjection) {
	coords := s.Coords
	if c.params.Mode == ModeSpherical {
		w := s.Clone()
		onSphere := cut.Unproject(w.Coords)
		w.OrientPointToPositiveZ(onSphere.Centroid())
		coords = w.Coords
	}

	border := cut.Unproject(coords)
	poly := border.Positions()
	if c.params.ExtendToEdge {
		poly = extendToEdge(poly, coords, h)
	}

	checkZ := c.params.Mode != ModeFlat
	tris := s.Topology.Triangles
	bounds := make([]orb.Bound, len(tris))
	for ti, tri := range tris {
		b := orb.Bound{Min: point(coords[tri[0]]), Max: point(coords[tri[0]])}
		bounds[ti] = b.Extend(point(coords[tri[1]])).Extend(point(coords[tri[2]]))
	}

	for j := 0; j+1 < len(poly); j++ {
		a, b := geom.XY(poly[j]), geom.XY(poly[j+1])
		seg := orb.Bound{Min: orb.Point{a.X, a.Y}, Max: orb.Point{a.X, a.Y}}.Extend(orb.Point{b.X, b.Y})

		for ti, tri := range tris {
			if c.marked.Contains(uint32(ti)) {
				continue
			}
			v1, v2, v3 := coords[tri[0]], coords[tri[1]], coords[tri[2]]
			if checkZ && (v1.Z < 0 || v2.Z < 0 || v3.Z < 0) {
				continue
			}
			if !seg.Intersects(bounds[ti]) {
				continue
			}
			if geom.SegmentIntersectsTriangle(a, b, xy(v1), xy(v2), xy(v3)) {
				c.marked.Add(uint32(ti))
			}
		}
	}
}

// extendToEdge adds the boundary node nearest to either end of poly at that end. Only
// the end closer to the boundary is extended; ties go to the first link.
func extendToEdge(poly []r3.Vec, coords []r3.Vec, h *models.TopologyHelper) []r3.Vec {
	if len(poly) == 0 {
		return poly
	}
	boundary := geom.NewLocator(coords, func(i int) bool {
		return h.IsBoundary(i) && h.HasNeighbors(i)
	}, false)
	if boundary.Len() == 0 {
		return poly
	}

	first, firstDist := boundary.Nearest(poly[0], false)
	last, lastDist := boundary.Nearest(poly[len(poly)-1], false)
	if firstDist <= lastDist {
		return append([]r3.Vec{coords[first]}, poly...)
	}
	return append(poly, coords[last])
}

func point(p r3.Vec) orb.Point { return orb.Point{p.X, p.Y} }

func xy(p r3.Vec) r2.Vec { return geom.XY(p) }
