package models

import "sort"

// NodeClass classifies a node by how it sits in the triangle mesh
type NodeClass int

const (
	// NodeDisconnected nodes are used by no triangle
	NodeDisconnected NodeClass = iota
	// NodeInterior nodes have every incident edge shared by two triangles
	NodeInterior
	// NodeEdge nodes lie on the boundary
	NodeEdge
	// NodeCorner nodes lie on the boundary and belong to a single triangle
	NodeCorner
)

func (c NodeClass) String() string {
	switch c {
	case NodeInterior:
		return "interior"
	case NodeEdge:
		return "edge"
	case NodeCorner:
		return "corner"
	default:
		return "disconnected"
	}
}

// TopologyHelper is derived from a Topology and is never stored with it.
// Neighbour and triangle lists are sorted by index.
type TopologyHelper struct {
	neighbors [][]int
	triangles [][]int
	boundary  []bool
}

// NewTopologyHelper builds the per-node adjacency of t
func NewTopologyHelper(t *Topology) *TopologyHelper {
	h := &TopologyHelper{
		neighbors: make([][]int, t.NumNodes),
		triangles: make([][]int, t.NumNodes),
		boundary:  make([]bool, t.NumNodes),
	}

	edgeUse := t.edgeUseCounts()
	for i, tri := range t.Triangles {
		for k := 0; k < 3; k++ {
			n := tri[k]
			if n < 0 || n >= t.NumNodes {
				continue
			}
			h.triangles[n] = append(h.triangles[n], i)
			for _, m := range []int{tri[(k+1)%3], tri[(k+2)%3]} {
				if m >= 0 && m < t.NumNodes && m != n {
					h.neighbors[n] = append(h.neighbors[n], m)
				}
			}
			if edgeUse[makeEdge(n, tri[(k+1)%3])] == 1 {
				h.markBoundary(n)
				h.markBoundary(tri[(k+1)%3])
			}
		}
	}

	for i, neigh := range h.neighbors {
		h.neighbors[i] = uniqueSorted(neigh)
	}
	return h
}

func (h *TopologyHelper) markBoundary(n int) {
	if n >= 0 && n < len(h.boundary) {
		h.boundary[n] = true
	}
}

func uniqueSorted(values []int) []int {
	if len(values) == 0 {
		return values
	}
	sort.Ints(values)
	out := values[:1]
	for _, v := range values[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// NumNodes returns the number of nodes covered by the helper
func (h *TopologyHelper) NumNodes() int { return len(h.neighbors) }

// Neighbors returns the nodes sharing an edge with node
func (h *TopologyHelper) Neighbors(node int) []int { return h.neighbors[node] }

// Triangles returns the indices of the triangles using node
func (h *TopologyHelper) Triangles(node int) []int { return h.triangles[node] }

// HasNeighbors reports whether node is used by any triangle
func (h *TopologyHelper) HasNeighbors(node int) bool { return len(h.neighbors[node]) > 0 }

// IsBoundary reports whether at least one edge of node is used by exactly one triangle
func (h *TopologyHelper) IsBoundary(node int) bool { return h.boundary[node] }

// Class returns the classification of node
func (h *TopologyHelper) Class(node int) NodeClass {
	switch {
	case len(h.triangles[node]) == 0:
		return NodeDisconnected
	case !h.boundary[node]:
		return NodeInterior
	case len(h.triangles[node]) == 1:
		return NodeCorner
	default:
		return NodeEdge
	}
}

// BoundaryNodes returns, in index order, every edge or corner node
func (h *TopologyHelper) BoundaryNodes() []int {
	var out []int
	for i, b := range h.boundary {
		if b && len(h.triangles[i]) > 0 {
			out = append(out, i)
		}
	}
	return out
}
