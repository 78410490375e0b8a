package models

import (
	"fmt"
	"slices"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// TopologyType tags how a triangle list relates to the closed hemisphere
type TopologyType int

const (
	TopologyUnknown TopologyType = iota
	TopologyClosed
	TopologyOpen
	TopologyCut
	TopologyLobarCut
)

func (t TopologyType) String() string {
	switch t {
	case TopologyClosed:
		return "CLOSED"
	case TopologyOpen:
		return "OPEN"
	case TopologyCut:
		return "CUT"
	case TopologyLobarCut:
		return "LOBAR_CUT"
	default:
		return "UNKNOWN"
	}
}

// ParseTopologyType converts a tag written by String back to a type
func ParseTopologyType(s string) TopologyType {
	for _, t := range []TopologyType{TopologyClosed, TopologyOpen, TopologyCut, TopologyLobarCut} {
		if t.String() == s {
			return t
		}
	}
	return TopologyUnknown
}

// Triangle is an ordered triple of node indices
type Triangle [3]int

// HasRepeatedVertex reports whether any node appears twice in the triangle
func (t Triangle) HasRepeatedVertex() bool {
	return t[0] == t[1] || t[1] == t[2] || t[0] == t[2]
}

// Uses reports whether node is one of the triangle's vertices
func (t Triangle) Uses(node int) bool {
	return t[0] == node || t[1] == node || t[2] == node
}

// Topology is a triangle list over a fixed number of nodes.
// Surfaces reference a Topology and several surfaces may share one.
type Topology struct {
	// Name is used to derive default file names
	Name string

	Type      TopologyType
	NumNodes  int
	Triangles []Triangle
}

// NewTopology creates a topology over numNodes nodes
func NewTopology(numNodes int, triangles []Triangle, topoType TopologyType) *Topology {
	return &Topology{
		NumNodes:  numNodes,
		Triangles: triangles,
		Type:      topoType,
	}
}

// Clone returns a deep copy of the topology
func (t *Topology) Clone() *Topology {
	c := *t
	c.Triangles = make([]Triangle, len(t.Triangles))
	copy(c.Triangles, t.Triangles)
	return &c
}

// NumTriangles returns the number of triangles
func (t *Topology) NumTriangles() int {
	return len(t.Triangles)
}

// Validate checks that every triangle refers to existing, distinct nodes
func (t *Topology) Validate() error {
	for i, tri := range t.Triangles {
		for _, n := range tri {
			if n < 0 || n >= t.NumNodes {
				return fmt.Errorf("triangle %d refers to node %d outside [0, %d)", i, n, t.NumNodes)
			}
		}
		if tri.HasRepeatedVertex() {
			return fmt.Errorf("triangle %d has a repeated vertex %v", i, tri)
		}
	}
	return nil
}

// SameTriangles reports whether o covers the same nodes with the same triangle list
func (t *Topology) SameTriangles(o *Topology) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.NumNodes != o.NumNodes {
		return false
	}
	return slices.Equal(t.Triangles, o.Triangles)
}

// Helper derives the per-node neighbour, incident triangle and boundary information
func (t *Topology) Helper() *TopologyHelper {
	return NewTopologyHelper(t)
}

// RemoveTriangles deletes the triangles for which remove returns true and compacts
// the list. It returns the number of triangles deleted.
func (t *Topology) RemoveTriangles(remove func(i int, tri Triangle) bool) int {
	kept := t.Triangles[:0]
	removed := 0
	for i, tri := range t.Triangles {
		if remove(i, tri) {
			removed++
			continue
		}
		kept = append(kept, tri)
	}
	t.Triangles = kept
	return removed
}

// DisconnectNodes removes every triangle that uses a node flagged in nodes
func (t *Topology) DisconnectNodes(nodes []bool) int {
	return t.RemoveTriangles(func(_ int, tri Triangle) bool {
		for _, n := range tri {
			if n < len(nodes) && nodes[n] {
				return true
			}
		}
		return false
	})
}

// RemoveCornerTiles removes triangles having two or more boundary edges, repeating
// until no such triangle remains or depth passes have run. It returns the number removed.
func (t *Topology) RemoveCornerTiles(depth int) int {
	total := 0
	for pass := 0; pass < depth; pass++ {
		edgeUse := t.edgeUseCounts()
		removed := t.RemoveTriangles(func(_ int, tri Triangle) bool {
			boundaryEdges := 0
			for k := 0; k < 3; k++ {
				if edgeUse[makeEdge(tri[k], tri[(k+1)%3])] == 1 {
					boundaryEdges++
				}
			}
			return boundaryEdges >= 2
		})
		total += removed
		if removed == 0 {
			break
		}
	}
	return total
}

// Islands returns the connected pieces of the topology, each a sorted list of node
// indices. Nodes used by no triangle belong to no island. Pieces are ordered by
// decreasing size, ties by their smallest node.
func (t *Topology) Islands() [][]int {
	g := simple.NewUndirectedGraph()
	for _, tri := range t.Triangles {
		for _, n := range tri {
			if g.Node(int64(n)) == nil {
				g.AddNode(simple.Node(n))
			}
		}
		for k := 0; k < 3; k++ {
			a, b := tri[k], tri[(k+1)%3]
			if a != b && !g.HasEdgeBetween(int64(a), int64(b)) {
				g.SetEdge(simple.Edge{F: simple.Node(a), T: simple.Node(b)})
			}
		}
	}

	components := topo.ConnectedComponents(g)
	islands := make([][]int, 0, len(components))
	for _, comp := range components {
		nodes := make([]int, len(comp))
		for i, n := range comp {
			nodes[i] = int(n.ID())
		}
		sort.Ints(nodes)
		islands = append(islands, nodes)
	}
	sort.Slice(islands, func(i, j int) bool {
		if len(islands[i]) != len(islands[j]) {
			return len(islands[i]) > len(islands[j])
		}
		return islands[i][0] < islands[j][0]
	})
	return islands
}

// NumIslands returns the number of connected pieces
func (t *Topology) NumIslands() int {
	return len(t.Islands())
}

// DisconnectIslands keeps the largest piece and removes the triangles of every other
// piece. It returns the number of nodes disconnected.
func (t *Topology) DisconnectIslands() int {
	islands := t.Islands()
	if len(islands) <= 1 {
		return 0
	}
	drop := make([]bool, t.NumNodes)
	count := 0
	for _, island := range islands[1:] {
		for _, n := range island {
			drop[n] = true
			count++
		}
	}
	t.DisconnectNodes(drop)
	return count
}

type edge struct{ a, b int }

func makeEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

func (t *Topology) edgeUseCounts() map[edge]int {
	counts := make(map[edge]int, len(t.Triangles)*3/2)
	for _, tri := range t.Triangles {
		for k := 0; k < 3; k++ {
			counts[makeEdge(tri[k], tri[(k+1)%3])]++
		}
	}
	return counts
}
