package models_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caretflat/internal/models"
	"caretflat/internal/testmesh"
)

func TestTopologyTypeRoundTrip(t *testing.T) {
	for _, tt := range []models.TopologyType{
		models.TopologyClosed, models.TopologyOpen, models.TopologyCut, models.TopologyLobarCut,
	} {
		assert.Equal(t, tt, models.ParseTopologyType(tt.String()))
	}
	assert.Equal(t, models.TopologyUnknown, models.ParseTopologyType("nonsense"))
}

func TestTopologyValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, testmesh.Square().Topology.Validate())
	})
	t.Run("repeated vertex", func(t *testing.T) {
		topo := models.NewTopology(3, []models.Triangle{{0, 1, 1}}, models.TopologyOpen)
		assert.Error(t, topo.Validate())
	})
	t.Run("node out of range", func(t *testing.T) {
		topo := models.NewTopology(3, []models.Triangle{{0, 1, 3}}, models.TopologyOpen)
		assert.Error(t, topo.Validate())
	})
}

func TestTopologyHelper(t *testing.T) {
	t.Run("square", func(t *testing.T) {
		h := testmesh.Square().Topology.Helper()

		assert.Equal(t, []int{1, 2, 3}, h.Neighbors(0))
		assert.Equal(t, []int{0, 1}, h.Triangles(0))
		assert.Equal(t, models.NodeEdge, h.Class(0))
		assert.Equal(t, models.NodeCorner, h.Class(1))
		assert.Equal(t, models.NodeEdge, h.Class(2))
		assert.Equal(t, models.NodeCorner, h.Class(3))
		assert.Equal(t, []int{0, 1, 2, 3}, h.BoundaryNodes())
	})

	t.Run("grid interior", func(t *testing.T) {
		h := testmesh.Grid(3).Topology.Helper()
		assert.Equal(t, models.NodeInterior, h.Class(4))
		assert.False(t, h.IsBoundary(4))
		assert.Len(t, h.BoundaryNodes(), 8)
	})

	t.Run("closed sphere has no boundary", func(t *testing.T) {
		s := testmesh.Icosphere(1, models.StructureLeft)
		require.Equal(t, 42, s.NumNodes())
		h := s.Topology.Helper()
		assert.Empty(t, h.BoundaryNodes())
		for i := 0; i < s.NumNodes(); i++ {
			n := len(h.Neighbors(i))
			assert.True(t, n == 5 || n == 6, "node %d has %d neighbours", i, n)
		}
	})

	t.Run("disconnected node", func(t *testing.T) {
		topo := models.NewTopology(4, []models.Triangle{{0, 1, 2}}, models.TopologyOpen)
		h := topo.Helper()
		assert.False(t, h.HasNeighbors(3))
		assert.Equal(t, models.NodeDisconnected, h.Class(3))
	})
}

func TestRemoveCornerTiles(t *testing.T) {
	t.Run("square loses both tiles", func(t *testing.T) {
		topo := testmesh.Square().Topology
		assert.Equal(t, 2, topo.RemoveCornerTiles(1))
		assert.Zero(t, topo.NumTriangles())
	})

	t.Run("grid loses the two folded corners", func(t *testing.T) {
		topo := testmesh.Grid(3).Topology
		assert.Equal(t, 2, topo.RemoveCornerTiles(1))
		assert.Equal(t, 6, topo.NumTriangles())
		for _, tri := range topo.Triangles {
			assert.NotEqual(t, models.Triangle{1, 2, 5}, tri)
			assert.NotEqual(t, models.Triangle{3, 7, 6}, tri)
		}
	})

	t.Run("zero depth does nothing", func(t *testing.T) {
		topo := testmesh.Grid(3).Topology
		assert.Zero(t, topo.RemoveCornerTiles(0))
		assert.Equal(t, 8, topo.NumTriangles())
	})

	t.Run("closed surface has no corners", func(t *testing.T) {
		topo := testmesh.Icosphere(1, models.StructureLeft).Topology
		assert.Zero(t, topo.RemoveCornerTiles(3))
	})
}

func TestIslands(t *testing.T) {
	t.Run("two tetrahedra", func(t *testing.T) {
		topo := testmesh.TwoTetrahedra(models.StructureLeft).Topology

		want := [][]int{{0, 1, 2, 3}, {4, 5, 6, 7}}
		if diff := cmp.Diff(want, topo.Islands()); diff != "" {
			t.Errorf("Islands() mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, 4, topo.DisconnectIslands())
		assert.Equal(t, 1, topo.NumIslands())
		assert.Equal(t, 4, topo.NumTriangles())
		for _, tri := range topo.Triangles {
			for _, n := range tri {
				assert.Less(t, n, 4)
			}
		}
	})

	t.Run("largest piece is kept", func(t *testing.T) {
		tris := []models.Triangle{{0, 1, 2}, {3, 4, 5}, {3, 5, 6}}
		topo := models.NewTopology(7, tris, models.TopologyOpen)
		assert.Equal(t, 3, topo.DisconnectIslands())
		assert.Equal(t, []models.Triangle{{3, 4, 5}, {3, 5, 6}}, topo.Triangles)
	})

	t.Run("single piece", func(t *testing.T) {
		topo := testmesh.Icosphere(0, models.StructureLeft).Topology
		assert.Equal(t, 1, topo.NumIslands())
		assert.Zero(t, topo.DisconnectIslands())
	})
}

func TestDisconnectNodes(t *testing.T) {
	topo := testmesh.Grid(3).Topology
	drop := make([]bool, topo.NumNodes)
	drop[4] = true

	assert.Equal(t, 6, topo.DisconnectNodes(drop))
	for _, tri := range topo.Triangles {
		assert.False(t, tri.Uses(4))
	}
}

func TestTopologyClone(t *testing.T) {
	topo := testmesh.Square().Topology
	c := topo.Clone()
	c.Triangles[0] = models.Triangle{3, 2, 1}
	c.Type = models.TopologyCut

	assert.Equal(t, models.Triangle{0, 1, 2}, topo.Triangles[0])
	assert.Equal(t, models.TopologyOpen, topo.Type)
}

func TestTopologySameTriangles(t *testing.T) {
	topo := testmesh.Square().Topology
	assert.True(t, topo.SameTriangles(topo))
	assert.True(t, topo.SameTriangles(topo.Clone()))

	fewer := topo.Clone()
	fewer.Triangles = fewer.Triangles[:1]
	assert.False(t, topo.SameTriangles(fewer))

	reordered := topo.Clone()
	reordered.Triangles[0] = models.Triangle{3, 2, 1}
	assert.False(t, topo.SameTriangles(reordered))

	assert.False(t, topo.SameTriangles(nil))
}
