// Package smoothing relaxes surface coordinates towards the area-weighted centres of
// the tiles around each node.
package smoothing

import (
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"caretflat/internal/models"
	"caretflat/pkg/geom"
)

// Params controls an areal smoothing run
type Params struct {
	// Strength in [0, 1] blends the old position (0) with the tile centre (1)
	Strength float64

	// Iterations is the number of full passes over the nodes
	Iterations int

	// EdgeIterations smooths boundary nodes only on every EdgeIterations'th pass.
	// Zero leaves boundary nodes in place.
	EdgeIterations int

	// Mask limits smoothing to the flagged nodes. Nil smooths every node.
	Mask []bool

	// NumCores is how many goroutines share each pass. Zero or one smooths on the
	// calling goroutine.
	NumCores int

	Logger *zap.Logger
}

// Areal smooths s in place. Each pass reads the coordinates of the previous pass, so
// the result does not depend on node order or on NumCores.
func Areal(s *models.Surface, p Params) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if p.Iterations <= 0 || p.Strength == 0 {
		return
	}

	h := s.Topology.Helper()
	numNodes := s.NumNodes()
	numCores := p.NumCores
	if numCores < 1 {
		numCores = 1
	}
	nodesPerCore := (numNodes + numCores - 1) / numCores

	prev := make([]r3.Vec, numNodes)
	for iter := 1; iter <= p.Iterations; iter++ {
		copy(prev, s.Coords)
		smoothEdges := p.EdgeIterations > 0 && iter%p.EdgeIterations == 0

		smoothRange := func(start, end int) {
			for n := start; n < end; n++ {
				if p.Mask != nil && (n >= len(p.Mask) || !p.Mask[n]) {
					continue
				}
				if !h.HasNeighbors(n) {
					continue
				}
				if h.IsBoundary(n) && !smoothEdges {
					continue
				}
				if target, ok := tileCentre(s.Topology, h, prev, n); ok {
					s.Coords[n] = r3.Add(r3.Scale(1-p.Strength, prev[n]), r3.Scale(p.Strength, target))
				}
			}
		}

		if numCores == 1 {
			smoothRange(0, numNodes)
			continue
		}

		var wg sync.WaitGroup
		for c := 0; c < numCores; c++ {
			start := c * nodesPerCore
			end := start + nodesPerCore
			if end > numNodes {
				end = numNodes
			}
			if start >= end {
				break
			}

			wg.Add(1)
			go func(start, end int) {
				defer wg.Done()
				smoothRange(start, end)
			}(start, end)
		}
		wg.Wait()
	}

	logger.Debug("areal smoothing finished",
		zap.Int("iterations", p.Iterations),
		zap.Float64("strength", p.Strength),
		zap.Int("edgeIterations", p.EdgeIterations))
}

// tileCentre returns the area-weighted mean of the centroids of the triangles using node
func tileCentre(t *models.Topology, h *models.TopologyHelper, coords []r3.Vec, node int) (r3.Vec, bool) {
	var sum r3.Vec
	total := 0.0
	for _, ti := range h.Triangles(node) {
		tri := t.Triangles[ti]
		a, b, c := coords[tri[0]], coords[tri[1]], coords[tri[2]]
		area := geom.TriangleArea(a, b, c)
		centroid := r3.Scale(1.0/3, r3.Add(r3.Add(a, b), c))
		sum = r3.Add(sum, r3.Scale(area, centroid))
		total += area
	}
	if total <= 0 {
		return r3.Vec{}, false
	}
	return r3.Scale(1/total, sum), true
}
