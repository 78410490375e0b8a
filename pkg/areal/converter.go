// Package areal turns borders carrying an uncertainty radius into per-node areal
// estimation cells: up to four candidate region names with probabilities summing to one.
package areal

import (
	"fmt"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"caretflat/internal/models"
	"caretflat/pkg/algorithm"
	"caretflat/pkg/geom"
)

// Mode selects which nodes receive an estimate
type Mode int

const (
	// ModeAllNodes assigns every node
	ModeAllNodes Mode = iota
	// ModeNodesWithPaint assigns only nodes whose paint matches Params.PaintMatch
	ModeNodesWithPaint
)

func (m Mode) String() string {
	if m == ModeNodesWithPaint {
		return "nodes-with-paint"
	}
	return "all-nodes"
}

// ParseMode converts a name written by String back to a Mode
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeAllNodes, ModeNodesWithPaint} {
		if m.String() == s {
			return m, nil
		}
	}
	return ModeAllNodes, fmt.Errorf("unknown areal estimation mode %q", s)
}

const (
	// DefaultMaxInsideWeight caps the weight of a border the node lies inside of
	DefaultMaxInsideWeight = 2.0

	// DefaultKDTreeMinLinks is the border length from which nearest links are found with
	// a kd-tree instead of a linear scan
	DefaultKDTreeMinLinks = 64
)

// Params holds the inputs of a conversion
type Params struct {
	// Surface supplies node positions. It is not modified.
	Surface *models.Surface

	// ArealFile receives the estimates. An empty file is sized to the surface.
	ArealFile *models.ArealEstimationFile

	Borders *models.BorderFile

	Mode Mode

	// Paint and PaintColumn are read in ModeNodesWithPaint only
	Paint       *models.PaintFile
	PaintColumn int
	PaintMatch  string

	// Column is the areal estimation column written. A negative or out of range value
	// appends a new column.
	Column     int
	ColumnName string
	LongName   string
	Comment    string

	// OverrideUncertainty replaces every border's uncertainty by OverrideRadius
	OverrideUncertainty bool
	OverrideRadius      float64

	// MaxInsideWeight defaults to DefaultMaxInsideWeight when zero
	MaxInsideWeight float64

	// KDTreeMinLinks defaults to DefaultKDTreeMinLinks when zero
	KDTreeMinLinks int

	Logger *zap.Logger
}

// Converter computes areal estimates from border uncertainty
type Converter struct {
	params *Params
	logger *zap.Logger
	column int
}

// NewConverter creates a converter for params
func NewConverter(params *Params) *Converter {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{params: params, logger: logger, column: -1}
}

// Column returns the column written by the last successful Execute
func (c *Converter) Column() int {
	return c.column
}

// borderIndex answers nearest-link queries for one border in the XY plane
type borderIndex struct {
	border  *models.Border
	xy      []r2.Vec
	closed  bool
	ring    orb.Ring
	locator *geom.Locator
}

// candidate is one border's standing relative to a node
type candidate struct {
	name        string
	signed      float64
	uncertainty float64
}

// Execute fills one column of the areal estimation file
func (c *Converter) Execute() error {
	p := c.params
	if err := c.validate(); err != nil {
		return err
	}

	s := p.Surface
	numNodes := s.NumNodes()
	af := p.ArealFile
	if af.NumNodes() == 0 && af.NumColumns() == 0 {
		af.SetNumberOfNodesAndColumns(numNodes, 0)
	}
	if af.NumNodes() != numNodes {
		return algorithm.New(algorithm.PreconditionViolation,
			"areal estimation file has %d nodes, surface has %d", af.NumNodes(), numNodes)
	}

	col := p.Column
	if col < 0 || col >= af.NumColumns() {
		af.AddColumns(1)
		col = af.NumColumns() - 1
	}
	af.Columns[col] = models.ColumnInfo{Name: p.ColumnName, LongName: p.LongName, Comment: p.Comment}

	borders := c.usableBorders()
	selected := c.selectNodes(numNodes)

	c.logger.Info("computing areal estimation",
		zap.String("mode", p.Mode.String()),
		zap.Int("borders", len(borders)),
		zap.Uint64("nodes", selected.GetCardinality()),
		zap.Int("column", col))

	top := make([]float64, 0, selected.GetCardinality())
	for n := 0; n < numNodes; n++ {
		if !selected.Contains(uint32(n)) || len(borders) == 0 {
			af.SetEntries(n, col, models.SentinelEntries())
			continue
		}
		entries := c.estimate(s.Coords[n], borders)
		af.SetEntries(n, col, entries)
		top = append(top, entries[0].Probability)
	}

	if len(top) > 0 {
		c.logger.Debug("areal estimation finished",
			zap.Float64("meanTopProbability", stat.Mean(top, nil)),
			zap.Float64("minTopProbability", floats.Min(top)))
	}
	c.column = col
	return nil
}

func (c *Converter) validate() error {
	p := c.params
	switch {
	case p.Surface == nil:
		return algorithm.New(algorithm.PreconditionViolation, "surface is missing")
	case p.ArealFile == nil:
		return algorithm.New(algorithm.PreconditionViolation, "areal estimation file is missing")
	case p.Borders == nil:
		return algorithm.New(algorithm.PreconditionViolation, "border file is missing")
	}

	if p.Mode == ModeNodesWithPaint {
		if p.Paint == nil {
			return algorithm.New(algorithm.PreconditionViolation, "paint file is required to select nodes by paint")
		}
		if p.Paint.NumNodes() != p.Surface.NumNodes() {
			return algorithm.New(algorithm.PreconditionViolation,
				"paint file has %d nodes, surface has %d", p.Paint.NumNodes(), p.Surface.NumNodes())
		}
		if p.PaintColumn < 0 || p.PaintColumn >= p.Paint.NumColumns() {
			return algorithm.New(algorithm.PreconditionViolation, "invalid paint column %d", p.PaintColumn)
		}
	}

	if p.OverrideUncertainty {
		if !(p.OverrideRadius > 0) {
			return algorithm.New(algorithm.PreconditionViolation,
				"override uncertainty must be positive, got %g", p.OverrideRadius)
		}
		return nil
	}
	for i := range p.Borders.Borders {
		if p.Borders.Borders[i].HasUncertainty() {
			return nil
		}
	}
	if p.Borders.NumBorders() > 0 {
		return algorithm.New(algorithm.PreconditionViolation,
			"no border has an uncertainty and no override radius was given")
	}
	return nil
}

// usableBorders drops borders without links, and without uncertainty unless it is overridden
func (c *Converter) usableBorders() []borderIndex {
	p := c.params
	minLinks := p.KDTreeMinLinks
	if minLinks <= 0 {
		minLinks = DefaultKDTreeMinLinks
	}

	var out []borderIndex
	for i := range p.Borders.Borders {
		b := &p.Borders.Borders[i]
		if b.NumLinks() == 0 {
			c.logger.Debug("skipping empty border", zap.String("border", b.Name))
			continue
		}
		if !p.OverrideUncertainty && !b.HasUncertainty() {
			c.logger.Debug("skipping border without uncertainty", zap.String("border", b.Name))
			continue
		}

		positions := b.Positions()
		bi := borderIndex{border: b, xy: make([]r2.Vec, len(positions))}
		for k, pos := range positions {
			bi.xy[k] = geom.XY(pos)
		}
		if b.IsClosed() && b.NumLinks() >= 3 {
			bi.closed = true
			bi.ring = b.Ring()
		}
		if b.NumLinks() >= minLinks {
			bi.locator = geom.NewLocator(positions, nil, true)
		}
		out = append(out, bi)
	}
	return out
}

func (c *Converter) selectNodes(numNodes int) *roaring.Bitmap {
	p := c.params
	selected := roaring.New()
	if p.Mode == ModeAllNodes {
		selected.AddRange(0, uint64(numNodes))
		return selected
	}
	for n := 0; n < numNodes; n++ {
		if p.Paint.PaintNameAt(n, p.PaintColumn) == p.PaintMatch {
			selected.Add(uint32(n))
		}
	}
	return selected
}

// estimate builds the cell for a node at pos
func (c *Converter) estimate(pos r3.Vec, borders []borderIndex) [models.ArealEntriesPerNode]models.ArealEntry {
	cands := make([]candidate, len(borders))
	for i := range borders {
		cands[i] = c.measure(pos, &borders[i])
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return math.Abs(cands[i].signed) < math.Abs(cands[j].signed)
	})
	if len(cands) > models.ArealEntriesPerNode {
		cands = cands[:models.ArealEntriesPerNode]
	}

	maxInside := c.params.MaxInsideWeight
	if maxInside <= 0 {
		maxInside = DefaultMaxInsideWeight
	}
	weights := make([]float64, len(cands))
	for i, cd := range cands {
		weights[i] = weight(cd.signed, cd.uncertainty, maxInside)
	}

	if sum := floats.Sum(weights); sum > 0 {
		floats.Scale(1/sum, weights)
	} else {
		for i := range weights {
			weights[i] = 1 / float64(len(weights))
		}
	}

	entries := models.SentinelEntries()
	for i, cd := range cands {
		if weights[i] > 0 {
			entries[i] = models.ArealEntry{Name: cd.name, Probability: weights[i]}
		}
	}
	sort.SliceStable(entries[:], func(i, j int) bool {
		if entries[i].Probability != entries[j].Probability {
			return entries[i].Probability > entries[j].Probability
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// measure finds the link of b nearest to pos and the signed distance to it. The side
// the border's name refers to (left of its direction, inside when closed) is negative.
func (c *Converter) measure(pos r3.Vec, b *borderIndex) candidate {
	q := geom.XY(pos)
	nearest, dist := -1, math.Inf(1)
	if b.locator != nil {
		nearest, dist = b.locator.Nearest(pos, true)
	} else {
		for k, l := range b.xy {
			if d := r2.Norm(r2.Sub(q, l)); d < dist {
				nearest, dist = k, d
			}
		}
	}

	signed := dist
	if b.closed {
		if geom.PointInRing(b.ring, pos) {
			signed = -dist
		}
	} else if len(b.xy) > 1 {
		prev := nearest - 1
		if prev < 0 {
			prev = 0
		}
		next := nearest + 1
		if next >= len(b.xy) {
			next = len(b.xy) - 1
		}
		if geom.Orientation(b.xy[prev], b.xy[next], q) > 0 {
			signed = -dist
		}
	}

	u := c.params.OverrideRadius
	if !c.params.OverrideUncertainty {
		u = c.linkUncertainty(b.border, nearest)
	}
	return candidate{name: b.border.Name, signed: signed, uncertainty: u}
}

// linkUncertainty returns the radius at link i, or the largest radius on the border
// when neither the link nor the border sets one
func (c *Converter) linkUncertainty(b *models.Border, i int) float64 {
	if u, ok := b.LinkUncertainty(i); ok {
		return u
	}
	largest := 0.0
	for _, l := range b.Links {
		largest = math.Max(largest, l.Radius)
	}
	return largest
}

// weight maps a signed distance and an uncertainty radius to an unnormalized weight
func weight(signed, uncertainty, maxInside float64) float64 {
	if uncertainty <= 0 {
		if signed < 0 {
			return maxInside
		}
		if signed == 0 {
			return 1
		}
		return 0
	}
	if signed >= 0 {
		return math.Max(0, 1-signed/uncertainty)
	}
	return math.Min(maxInside, 1+math.Abs(signed)/uncertainty)
}
