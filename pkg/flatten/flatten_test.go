package flatten

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/spatial/r3"

	"caretflat/internal/models"
	"caretflat/internal/testmesh"
	"caretflat/pkg/algorithm"
)

// memorySaver records the names written through it and fails when err is set
type memorySaver struct {
	names []string
	err   error
}

func (m *memorySaver) record(name string) error {
	if m.err != nil {
		return m.err
	}
	m.names = append(m.names, name)
	return nil
}

func (m *memorySaver) SaveSurface(_ *models.Surface, name string) error { return m.record(name) }
func (m *memorySaver) SaveTopology(_ *models.Topology, name string) error { return m.record(name) }
func (m *memorySaver) SavePaint(_ *models.PaintFile, name string) error { return m.record(name) }
func (m *memorySaver) SaveAreaColors(_ *models.AreaColorFile, name string) error { return m.record(name) }

const cutName = StandardCutsPrefix + "Calcarine"

// hemisphere builds a 642 node sphere with a medial wall cap around -X and a cut
// running over the top of the sphere. The fiducial is the same sphere moved along +X,
// so its node closest to the origin lies inside the medial wall.
func hemisphere(t *testing.T, structure models.Structure) *Params {
	t.Helper()
	sph := testmesh.Icosphere(3, structure)
	require.Equal(t, 642, sph.NumNodes())
	sph.Name = "case.L"
	sph.Topology.Name = "case.L"

	fid := sph.Clone()
	fid.Name = "case.L.fiducial"
	fid.Type = models.SurfaceFiducial
	fid.Translate(r3.Vec{X: 2})

	mw := testmesh.CircleBorder(models.MedialWallName, r3.Vec{X: -1}, 55, 60)
	cut := testmesh.ArcBorder(cutName, r3.Vec{X: -1}, r3.Vec{Z: 1}, 75, 150, 30)
	borders := &models.BorderProjectionFile{Name: "case.L.borderproj"}
	borders.Add(models.ProjectBorder(&mw, sph))
	borders.Add(models.ProjectBorder(&cut, sph))

	return &Params{
		Fiducial:   fid,
		Sphere:     sph,
		Borders:    borders,
		Paint:      &models.PaintFile{Name: "case.L.paint"},
		AreaColors: &models.AreaColorFile{Name: "case.L.areacolor"},
	}
}

func medialWallCount(pf *models.PaintFile, col int) int {
	count := 0
	for n := 0; n < pf.NumNodes(); n++ {
		if pf.PaintNameAt(n, col) == models.MedialWallName {
			count++
		}
	}
	return count
}

func TestFlattenHappyPath(t *testing.T) {
	p := hemisphere(t, models.StructureLeft)
	sphereBefore := append([]r3.Vec(nil), p.Sphere.Coords...)
	closed := p.Sphere.Topology

	f := NewFlattener(p)
	require.NoError(t, f.Execute())

	t.Run("medial wall paint", func(t *testing.T) {
		col := p.Paint.ColumnWithName(models.GeographyColumn)
		require.GreaterOrEqual(t, col, 0)
		assert.Equal(t, col, f.MedialWallPaintColumn())
		assert.Equal(t, p.Sphere.NumNodes(), p.Paint.NumNodes())
		assert.GreaterOrEqual(t, medialWallCount(p.Paint, col), 100)
		assert.Equal(t, int(f.MedialWallNodes().GetCardinality()), medialWallCount(p.Paint, col))
	})

	t.Run("medial wall colour", func(t *testing.T) {
		i, ok := p.AreaColors.ColorIndexByName(models.MedialWallName)
		require.True(t, ok)
		assert.Equal(t, models.AreaColor{Name: models.MedialWallName, G: 255}, p.AreaColors.Colors[i])
	})

	t.Run("open topology", func(t *testing.T) {
		open := f.OpenTopology()
		require.NotNil(t, open)
		assert.Equal(t, models.TopologyOpen, open.Type)
		assert.Equal(t, "case.L.OPEN", open.Name)

		withMedialWall := 0
		for _, tri := range closed.Triangles {
			for _, n := range tri {
				if f.MedialWallNodes().Contains(uint32(n)) {
					withMedialWall++
					break
				}
			}
		}
		assert.LessOrEqual(t, open.NumTriangles(), closed.NumTriangles()-withMedialWall)
		assert.Greater(t, open.NumTriangles(), closed.NumTriangles()/2)
		for _, tri := range open.Triangles {
			for _, n := range tri {
				assert.False(t, f.MedialWallNodes().Contains(uint32(n)), "triangle %v uses a medial wall node", tri)
			}
		}
	})

	t.Run("cut topology", func(t *testing.T) {
		cut := f.CutTopology()
		require.NotNil(t, cut)
		assert.Equal(t, models.TopologyCut, cut.Type)
		assert.Equal(t, "case.L.CUT", cut.Name)
		assert.Less(t, cut.NumTriangles(), f.OpenTopology().NumTriangles())
		assert.Equal(t, 1, cut.NumIslands())
	})

	t.Run("initial flat surface", func(t *testing.T) {
		flat := f.InitialFlatSurface()
		require.NotNil(t, flat)
		assert.Equal(t, models.SurfaceFlat, flat.Type)
		assert.Same(t, f.CutTopology(), flat.Topology)
		assert.InEpsilon(t, 10*p.Fiducial.Area(), flat.Area(), 1e-3)
		for _, c := range flat.Coords {
			assert.Zero(t, c.Z)
		}
		com := flat.CenterOfMass()
		assert.InDelta(t, 0, com.X, 1e-6)
		assert.InDelta(t, 0, com.Y, 1e-6)
	})

	t.Run("inputs untouched", func(t *testing.T) {
		assert.Equal(t, sphereBefore, p.Sphere.Coords)
		assert.Same(t, closed, p.Sphere.Topology)
		assert.Equal(t, models.TopologyClosed, closed.Type)
		assert.Nil(t, f.SphericalSurface(), "input was already spherical")
		assert.Nil(t, f.FiducialWithSmoothedMedialWall())
	})
}

func TestFlattenRightHemisphere(t *testing.T) {
	p := hemisphere(t, models.StructureRight)
	f := NewFlattener(p)
	require.NoError(t, f.Execute())
	assert.GreaterOrEqual(t, medialWallCount(p.Paint, f.MedialWallPaintColumn()), 100)
}

func TestFlattenIsIdempotent(t *testing.T) {
	p := hemisphere(t, models.StructureLeft)
	require.NoError(t, NewFlattener(p).Execute())
	first := p.Paint.Clone()

	require.NoError(t, NewFlattener(p).Execute())

	require.Equal(t, first.NumColumns(), p.Paint.NumColumns())
	for n := 0; n < first.NumNodes(); n++ {
		for c := 0; c < first.NumColumns(); c++ {
			assert.Equal(t, first.PaintNameAt(n, c), p.Paint.PaintNameAt(n, c), "node %d column %d", n, c)
		}
	}
	assert.Len(t, p.AreaColors.Colors, 1)
}

func TestFlattenPrefersSulcalIdentification(t *testing.T) {
	p := hemisphere(t, models.StructureLeft)
	p.Paint = models.NewPaintFile(p.Sphere.NumNodes(), 2)
	p.Paint.Columns[0].Name = "Lobes"
	p.Paint.Columns[1].Name = models.SulcalIdentificationColumn

	f := NewFlattener(p)
	require.NoError(t, f.Execute())

	assert.Equal(t, 1, f.MedialWallPaintColumn())
	assert.Zero(t, medialWallCount(p.Paint, 0))
	assert.GreaterOrEqual(t, medialWallCount(p.Paint, 1), 100)
	assert.Equal(t, -1, p.Paint.ColumnWithName(models.GeographyColumn))
}

func TestFlattenCreatesSphere(t *testing.T) {
	p := hemisphere(t, models.StructureLeft)
	p.Sphere = p.Sphere.Clone()
	p.Sphere.Type = models.SurfaceEllipsoidal
	p.Sphere.ApplyTransform(models.NewTransform().Scale(1.5, 1, 0.8))

	f := NewFlattener(p)
	require.NoError(t, f.Execute())

	sph := f.SphericalSurface()
	require.NotNil(t, sph)
	assert.Equal(t, models.SurfaceSpherical, sph.Type)
	assert.Equal(t, "case.L.Spherical", sph.Name)
	assert.InEpsilon(t, p.Fiducial.Area(), sph.Area(), 1e-9)
	assert.Equal(t, models.SurfaceEllipsoidal, p.Sphere.Type)
}

func TestFlattenSmoothedMedialWallFiducial(t *testing.T) {
	p := hemisphere(t, models.StructureLeft)
	p.CreateSmoothedMedialWallFiducial = true
	p.Settings = DefaultSettings()
	p.Settings.MedialWallSmoothingIterations = 20

	f := NewFlattener(p)
	require.NoError(t, f.Execute())

	fid := f.FiducialWithSmoothedMedialWall()
	require.NotNil(t, fid)
	assert.Equal(t, "case.L.fiducial.FiducialSmoothedMedialWall", fid.Name)
	moved := 0
	for n, c := range fid.Coords {
		if f.MedialWallNodes().Contains(uint32(n)) {
			if c != p.Fiducial.Coords[n] {
				moved++
			}
			continue
		}
		assert.Equal(t, p.Fiducial.Coords[n], c, "node %d outside the medial wall moved", n)
	}
	assert.Greater(t, moved, 0)
}

func TestFlattenAutoSave(t *testing.T) {
	p := hemisphere(t, models.StructureLeft)
	p.Sphere = p.Sphere.Clone()
	p.Sphere.Type = models.SurfaceEllipsoidal
	saver := &memorySaver{}
	p.AutoSave = true
	p.Saver = saver

	require.NoError(t, NewFlattener(p).Execute())

	assert.Equal(t, []string{
		"case.L.Spherical",
		"case.L.areacolor",
		"case.L.OPEN",
		"case.L.InitialFlat",
		"case.L.CUT",
		"case.L.paint",
	}, saver.names)
	assert.False(t, p.Paint.Modified())
	assert.False(t, p.AreaColors.Modified())

	t.Run("write failure", func(t *testing.T) {
		p := hemisphere(t, models.StructureLeft)
		p.AutoSave = true
		p.Saver = &memorySaver{err: errors.New("disk full")}

		err := NewFlattener(p).Execute()
		require.Error(t, err)
		assert.True(t, errors.Is(err, algorithm.ErrPersistenceFailure))
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestFlattenIntermediateFailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := hemisphere(t, models.StructureLeft)
	p.SaveIntermediateResults = true
	p.Saver = &memorySaver{err: errors.New("read-only")}
	p.Logger = zap.New(core)

	require.NoError(t, NewFlattener(p).Execute())
	assert.Equal(t, 3, logs.FilterMessage("unable to write intermediate surface").Len())

	t.Run("written when the saver works", func(t *testing.T) {
		p := hemisphere(t, models.StructureLeft)
		saver := &memorySaver{}
		p.SaveIntermediateResults = true
		p.Saver = saver
		require.NoError(t, NewFlattener(p).Execute())
		assert.Equal(t, []string{OrientedSphereDump, CompressedSphereDump, FlatBeforeCutsDump}, saver.names)
	})
}

func TestFlattenRejectsBadInput(t *testing.T) {
	t.Run("islands", func(t *testing.T) {
		tet := testmesh.TwoTetrahedra(models.StructureLeft)
		fid := tet.Clone()
		fid.Type = models.SurfaceFiducial
		mw := models.BorderProjection{Name: models.MedialWallName, Links: []models.ProjectionLink{
			{Triangle: 0, Vertices: [3]int{0, 1, 2}, Weights: [3]float64{1, 0, 0}},
		}}
		cut := models.BorderProjection{Name: cutName, Links: []models.ProjectionLink{
			{Triangle: 0, Vertices: [3]int{0, 1, 2}, Weights: [3]float64{1, 0, 0}},
			{Triangle: 0, Vertices: [3]int{0, 1, 2}, Weights: [3]float64{0, 1, 0}},
		}}
		paint := models.NewPaintFile(tet.NumNodes(), 1)
		paint.SetPaint(0, 0, paint.AddPaintName(models.MedialWallName))
		paint.ClearModified()
		colors := &models.AreaColorFile{}

		err := NewFlattener(&Params{
			Fiducial:   fid,
			Sphere:     tet,
			Borders:    &models.BorderProjectionFile{Projections: []models.BorderProjection{mw, cut}},
			Paint:      paint,
			AreaColors: colors,
		}).Execute()

		require.Error(t, err)
		assert.True(t, errors.Is(err, algorithm.ErrIslandsPresent))
		assert.False(t, paint.Modified())
		assert.Equal(t, models.MedialWallName, paint.PaintNameAt(0, 0))
		assert.Empty(t, colors.Colors)
	})

	t.Run("structure", func(t *testing.T) {
		p := hemisphere(t, models.StructureBoth)
		err := NewFlattener(p).Execute()
		assert.True(t, errors.Is(err, algorithm.ErrStructureInvalid))
		assert.Zero(t, p.Paint.NumNodes())
	})

	t.Run("missing medial wall", func(t *testing.T) {
		p := hemisphere(t, models.StructureLeft)
		p.Borders.Projections = p.Borders.WithPrefix(StandardCutsPrefix)
		err := NewFlattener(p).Execute()
		assert.True(t, errors.Is(err, algorithm.ErrBordersMissing))
		assert.Contains(t, err.Error(), models.MedialWallName)
	})

	t.Run("missing cuts", func(t *testing.T) {
		p := hemisphere(t, models.StructureLeft)
		p.Borders.Projections = p.Borders.Projections[:1]
		err := NewFlattener(p).Execute()
		assert.True(t, errors.Is(err, algorithm.ErrBordersMissing))
		assert.Contains(t, err.Error(), StandardCutsPrefix)
	})

	t.Run("missing inputs", func(t *testing.T) {
		for name, mutate := range map[string]func(*Params){
			"fiducial":    func(p *Params) { p.Fiducial = nil },
			"sphere":      func(p *Params) { p.Sphere = nil },
			"borders":     func(p *Params) { p.Borders = nil },
			"paint":       func(p *Params) { p.Paint = nil },
			"area colors": func(p *Params) { p.AreaColors = nil },
			"saver":       func(p *Params) { p.AutoSave = true },
			"node count":  func(p *Params) { p.Fiducial = testmesh.Icosphere(1, models.StructureLeft) },
		} {
			t.Run(name, func(t *testing.T) {
				p := hemisphere(t, models.StructureLeft)
				mutate(p)
				err := NewFlattener(p).Execute()
				assert.True(t, errors.Is(err, algorithm.ErrPreconditionViolation), "got %v", err)
			})
		}
	})

	t.Run("inconsistent inputs", func(t *testing.T) {
		for name, mutate := range map[string]func(*Params){
			"fiducial without topology": func(p *Params) { p.Fiducial.Topology = nil },
			"fiducial with other triangles": func(p *Params) {
				other := p.Sphere.Topology.Clone()
				other.Triangles = other.Triangles[:10]
				p.Fiducial.Topology = other
			},
			"projection node out of range": func(p *Params) {
				p.Borders.Projections[1].Links[0].Vertices[0] = 100000
			},
			"projection triangle out of range": func(p *Params) {
				p.Borders.Projections[0].Links[0].Triangle = -1
			},
		} {
			t.Run(name, func(t *testing.T) {
				p := hemisphere(t, models.StructureLeft)
				mutate(p)
				var err error
				require.NotPanics(t, func() { err = NewFlattener(p).Execute() })
				assert.True(t, errors.Is(err, algorithm.ErrPreconditionViolation), "got %v", err)
				assert.Zero(t, p.Paint.NumNodes())
				assert.Empty(t, p.AreaColors.Colors)
			})
		}
	})
}

func TestFlattenRerunStartsFresh(t *testing.T) {
	p := hemisphere(t, models.StructureLeft)
	f := NewFlattener(p)
	require.NoError(t, f.Execute())
	first := f.MedialWallNodes().Clone()
	firstCut := f.CutTopology()

	require.NoError(t, f.Execute())

	assert.True(t, first.Equals(f.MedialWallNodes()))
	assert.NotSame(t, firstCut, f.CutTopology())
	assert.Equal(t, firstCut.Triangles, f.CutTopology().Triangles)
}
