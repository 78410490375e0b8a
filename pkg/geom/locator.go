package geom

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a node position tagged with its node index
type Point struct {
	X, Y, Z float64
	Index   int
}

// Compare implements the kdtree.Comparable interface
func (p Point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Point)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p Point) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (p Point) Distance(c kdtree.Comparable) float64 {
	q := c.(Point)
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return dx*dx + dy*dy + dz*dz
}

// Points is a collection of Point that satisfies kdtree.Interface
type Points []Point

func (p Points) Index(i int) kdtree.Comparable         { return p[i] }
func (p Points) Len() int                              { return len(p) }
func (p Points) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p Points) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{Points: p, Dim: d}, kdtree.MedianOfMedians(pointPlane{Points: p, Dim: d}))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for Points
type pointPlane struct {
	Points
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.Points[i].X < p.Points[j].X
	case 1:
		return p.Points[i].Y < p.Points[j].Y
	case 2:
		return p.Points[i].Z < p.Points[j].Z
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{Points: p.Points[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.Points[i], p.Points[j] = p.Points[j], p.Points[i]
}

// Locator answers nearest-node queries over a fixed set of positions
type Locator struct {
	tree *kdtree.Tree
	size int
}

// NewLocator indexes coords. When include is non-nil only the positions for which it
// returns true are indexed. Set flat to drop the Z component so queries are 2D.
func NewLocator(coords []r3.Vec, include func(i int) bool, flat bool) *Locator {
	points := make(Points, 0, len(coords))
	for i, c := range coords {
		if include != nil && !include(i) {
			continue
		}
		p := Point{X: c.X, Y: c.Y, Z: c.Z, Index: i}
		if flat {
			p.Z = 0
		}
		points = append(points, p)
	}
	l := &Locator{size: len(points)}
	if len(points) > 0 {
		l.tree = kdtree.New(points, false)
	}
	return l
}

// Len returns the number of indexed positions
func (l *Locator) Len() int { return l.size }

func (l *Locator) query(p r3.Vec, flat bool) Point {
	q := Point{X: p.X, Y: p.Y, Z: p.Z, Index: -1}
	if flat {
		q.Z = 0
	}
	return q
}

// Nearest returns the index of the position closest to p and the distance to it.
// It returns -1 when nothing is indexed.
func (l *Locator) Nearest(p r3.Vec, flat bool) (int, float64) {
	if l.tree == nil {
		return -1, math.Inf(1)
	}
	c, d := l.tree.Nearest(l.query(p, flat))
	if c == nil {
		return -1, math.Inf(1)
	}
	return c.(Point).Index, math.Sqrt(d)
}

// NearestN returns up to n indices ordered by increasing distance to p.
// Equal distances are ordered by index.
func (l *Locator) NearestN(p r3.Vec, n int, flat bool) []int {
	if l.tree == nil || n <= 0 {
		return nil
	}
	keeper := kdtree.NewNKeeper(n)
	l.tree.NearestSet(keeper, l.query(p, flat))

	type hit struct {
		index int
		dist  float64
	}
	hits := make([]hit, 0, keeper.Len())
	for _, item := range keeper.Heap {
		// Skip the sentinel value
		if item.Comparable == nil {
			continue
		}
		hits = append(hits, hit{index: item.Comparable.(Point).Index, dist: item.Dist})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].index < hits[j].index
	})

	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.index
	}
	return out
}
