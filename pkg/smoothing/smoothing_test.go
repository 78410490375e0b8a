package smoothing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/spatial/r3"

	"caretflat/internal/models"
	"caretflat/internal/testmesh"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestArealFlatGridIsStable(t *testing.T) {
	s := testmesh.Grid(5)
	before := append([]r3.Vec(nil), s.Coords...)

	Areal(s, Params{Strength: 1, Iterations: 10, EdgeIterations: 0})

	for i := range s.Coords {
		assert.InDelta(t, before[i].X, s.Coords[i].X, 1e-12)
		assert.InDelta(t, before[i].Y, s.Coords[i].Y, 1e-12)
		assert.Zero(t, s.Coords[i].Z)
	}
}

func TestArealPullsBumpDown(t *testing.T) {
	s := testmesh.Grid(5)
	s.Coords[12].Z = 1

	Areal(s, Params{Strength: 0.5, Iterations: 3})

	assert.Less(t, s.Coords[12].Z, 1.0)
	assert.Greater(t, s.Coords[12].Z, 0.0)
	assert.Greater(t, s.Coords[7].Z, 0.0, "neighbour lifted by the bump")
}

func TestArealEdgeIterations(t *testing.T) {
	t.Run("zero keeps the boundary", func(t *testing.T) {
		s := testmesh.Grid(4)
		s.Coords[0].Z = 1
		Areal(s, Params{Strength: 1, Iterations: 4, EdgeIterations: 0})
		assert.Equal(t, 1.0, s.Coords[0].Z)
	})

	t.Run("every second pass", func(t *testing.T) {
		s := testmesh.Grid(4)
		s.Coords[0].Z = 1
		Areal(s, Params{Strength: 1, Iterations: 1, EdgeIterations: 2})
		assert.Equal(t, 1.0, s.Coords[0].Z, "first pass skips edges")

		Areal(s, Params{Strength: 1, Iterations: 2, EdgeIterations: 2})
		assert.Less(t, s.Coords[0].Z, 1.0)
	})
}

func TestArealMask(t *testing.T) {
	s := testmesh.Grid(5)
	s.Coords[12].Z = 1
	s.Coords[6].Z = 1
	mask := make([]bool, s.NumNodes())
	mask[6] = true

	Areal(s, Params{Strength: 1, Iterations: 2, Mask: mask})

	assert.Equal(t, 1.0, s.Coords[12].Z)
	assert.Less(t, s.Coords[6].Z, 1.0)
}

func TestArealIndependentOfCores(t *testing.T) {
	a := testmesh.Icosphere(2, models.StructureLeft)
	a.ApplyTransform(models.NewTransform().Scale(2, 1, 1))
	b := a.Clone()

	Areal(a, Params{Strength: 0.7, Iterations: 5, NumCores: 1})
	Areal(b, Params{Strength: 0.7, Iterations: 5, NumCores: 7})

	assert.Equal(t, a.Coords, b.Coords)
}

func TestArealNoop(t *testing.T) {
	s := testmesh.Grid(3)
	s.Coords[4].Z = 2
	Areal(s, Params{Strength: 0, Iterations: 5})
	assert.Equal(t, 2.0, s.Coords[4].Z)

	Areal(s, Params{Strength: 1, Iterations: 0})
	assert.Equal(t, 2.0, s.Coords[4].Z)
}
