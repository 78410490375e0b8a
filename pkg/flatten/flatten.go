// Package flatten produces the initial flat layout of a cortical hemisphere: it
// identifies the medial wall, opens the closed sphere there, projects the sphere onto
// the plane and applies the standard cuts.
package flatten

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"caretflat/internal/models"
	"caretflat/pkg/algorithm"
	"caretflat/pkg/cutter"
	"caretflat/pkg/smoothing"
)

// StandardCutsPrefix starts the name of every border used as a standard cut
const StandardCutsPrefix = "FLATTEN.CUT.Std."

// Names of the intermediate coordinate dumps
const (
	OrientedSphereDump   = "sphere_oriented_to_show_medial_wall"
	CompressedSphereDump = "sphere_oriented_compressed_for_cuts"
	FlatBeforeCutsDump   = "initial_flat_before_cuts_applied"
)

const (
	defaultSurfaceName  = "surface"
	defaultTopologyName = "topology"
)

// Saver persists the files produced by the flattener
type Saver interface {
	SaveSurface(s *models.Surface, name string) error
	SaveTopology(t *models.Topology, name string) error
	SavePaint(p *models.PaintFile, name string) error
	SaveAreaColors(c *models.AreaColorFile, name string) error
}

// Settings holds the numeric constants of the flattening steps
type Settings struct {
	// FlatAreaScale is the flat area as a multiple of the fiducial area
	FlatAreaScale float64
	// FrontCompression is the factor passed to the front face compression
	FrontCompression float64

	InitialSmoothingStrength   float64
	InitialSmoothingIterations int

	// OpenCornerDepth bounds corner tile pruning of the OPEN topology
	OpenCornerDepth int
	// CutCornerDepth bounds corner tile pruning after the cuts
	CutCornerDepth int

	MedialWallSmoothingStrength   float64
	MedialWallSmoothingIterations int
}

// DefaultSettings returns the settings used when Params.Settings is left empty
func DefaultSettings() Settings {
	return Settings{
		FlatAreaScale:                 10,
		FrontCompression:              0.5,
		InitialSmoothingStrength:      1.0,
		InitialSmoothingIterations:    5,
		OpenCornerDepth:               2,
		CutCornerDepth:                1,
		MedialWallSmoothingStrength:   1.0,
		MedialWallSmoothingIterations: 500,
	}
}

// Params holds the inputs of a flattening run. The surfaces and the border file are
// never modified; the paint and area colour files are updated in place.
type Params struct {
	// Fiducial carries the true geometry and sets the target areas
	Fiducial *models.Surface

	// Sphere is the ellipsoidal or spherical surface sharing the fiducial's node indexing
	Sphere *models.Surface

	// Borders holds the medial wall border and the standard cuts, projected onto Sphere
	Borders *models.BorderProjectionFile

	Paint      *models.PaintFile
	AreaColors *models.AreaColorFile

	// CreateSmoothedMedialWallFiducial adds a fiducial surface with the medial wall smoothed
	CreateSmoothedMedialWallFiducial bool

	// AutoSave writes every produced file through Saver
	AutoSave bool

	// SaveIntermediateResults writes the oriented spheres and the uncut flat surface
	// through Saver. Failures are logged and ignored.
	SaveIntermediateResults bool

	Saver Saver

	// MedialWallBorderName defaults to models.MedialWallName
	MedialWallBorderName string

	// CutsPrefix defaults to StandardCutsPrefix
	CutsPrefix string

	// Settings defaults to DefaultSettings when left empty
	Settings Settings

	// NumCores is passed to the smoothing passes
	NumCores int

	Logger *zap.Logger
}

// Flattener runs the hemisphere flattening algorithm
type Flattener struct {
	params   *Params
	settings Settings
	logger   *zap.Logger

	medialWallBorder *models.BorderProjection
	cuts             []models.BorderProjection

	spherical        *models.Surface
	openTopology     *models.Topology
	cutTopology      *models.Topology
	initialFlat      *models.Surface
	smoothedFiducial *models.Surface
	medialWall       *roaring.Bitmap
	paintColumn      int
}

// NewFlattener creates a flattener for params
func NewFlattener(params *Params) *Flattener {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := params.Settings
	if settings == (Settings{}) {
		settings = DefaultSettings()
	}
	return &Flattener{
		params:      params,
		settings:    settings,
		logger:      logger,
		medialWall:  roaring.New(),
		paintColumn: -1,
	}
}

// SphericalSurface returns the sphere created from a non spherical input, or nil when
// the input was already spherical
func (f *Flattener) SphericalSurface() *models.Surface { return f.spherical }

// OpenTopology returns the closed topology with the medial wall removed
func (f *Flattener) OpenTopology() *models.Topology { return f.openTopology }

// CutTopology returns the open topology with the standard cuts applied
func (f *Flattener) CutTopology() *models.Topology { return f.cutTopology }

// InitialFlatSurface returns the flat surface over the cut topology
func (f *Flattener) InitialFlatSurface() *models.Surface { return f.initialFlat }

// FiducialWithSmoothedMedialWall returns the smoothed fiducial, or nil when not requested
func (f *Flattener) FiducialWithSmoothedMedialWall() *models.Surface { return f.smoothedFiducial }

// MedialWallNodes returns the nodes found inside the medial wall border
func (f *Flattener) MedialWallNodes() *roaring.Bitmap { return f.medialWall }

// MedialWallPaintColumn returns the paint column that received the medial wall label
func (f *Flattener) MedialWallPaintColumn() int { return f.paintColumn }

// Execute runs every step. Inputs are validated before anything is modified.
func (f *Flattener) Execute() error {
	if err := f.validate(); err != nil {
		return err
	}
	f.reset()
	if err := f.findFlatteningBorders(); err != nil {
		return err
	}

	f.logger.Info("step 1: removing previous medial wall assignments")
	f.removeMedialWallAssignments()

	f.logger.Info("step 2: creating the spherical surface")
	if err := f.createSphericalSurface(); err != nil {
		return err
	}

	return f.createInitialFlatSurface()
}

// reset clears the results of a previous run
func (f *Flattener) reset() {
	f.medialWallBorder = nil
	f.cuts = nil
	f.spherical = nil
	f.openTopology = nil
	f.cutTopology = nil
	f.initialFlat = nil
	f.smoothedFiducial = nil
	f.medialWall.Clear()
	f.paintColumn = -1
}

func (f *Flattener) validate() error {
	p := f.params
	switch {
	case p.Fiducial == nil:
		return algorithm.New(algorithm.PreconditionViolation, "fiducial surface is invalid")
	case p.Sphere == nil:
		return algorithm.New(algorithm.PreconditionViolation, "ellipsoid/sphere surface is invalid")
	case p.Borders == nil:
		return algorithm.New(algorithm.PreconditionViolation, "border projection file is invalid")
	case p.Paint == nil:
		return algorithm.New(algorithm.PreconditionViolation, "paint file is invalid")
	case p.AreaColors == nil:
		return algorithm.New(algorithm.PreconditionViolation, "area color file is invalid")
	case (p.AutoSave || p.SaveIntermediateResults) && p.Saver == nil:
		return algorithm.New(algorithm.PreconditionViolation, "saving requested without a saver")
	}

	if err := p.Sphere.Validate(); err != nil {
		return algorithm.Wrap(algorithm.PreconditionViolation, err, "ellipsoid/sphere surface")
	}
	if err := p.Fiducial.Validate(); err != nil {
		return algorithm.Wrap(algorithm.PreconditionViolation, err, "fiducial surface")
	}
	if p.Fiducial.NumNodes() != p.Sphere.NumNodes() {
		return algorithm.New(algorithm.PreconditionViolation,
			"fiducial has %d nodes but the ellipsoid/sphere has %d", p.Fiducial.NumNodes(), p.Sphere.NumNodes())
	}
	if !p.Fiducial.Topology.SameTriangles(p.Sphere.Topology) {
		return algorithm.New(algorithm.PreconditionViolation,
			"fiducial and ellipsoid/sphere surfaces do not share a topology")
	}
	for i := range p.Borders.Projections {
		if err := p.Borders.Projections[i].Validate(p.Sphere.Topology); err != nil {
			return algorithm.Wrap(algorithm.PreconditionViolation, err, "border projection file")
		}
	}
	if n := p.Paint.NumNodes(); n != 0 && n != p.Sphere.NumNodes() {
		return algorithm.New(algorithm.PreconditionViolation,
			"paint file has %d nodes but the surface has %d", n, p.Sphere.NumNodes())
	}

	if pieces := p.Sphere.Topology.NumIslands(); pieces > 1 {
		return algorithm.New(algorithm.IslandsPresent,
			"there are %d pieces of surface, remove the islands and verify the surface remains correct", pieces)
	}

	switch p.Sphere.Structure {
	case models.StructureLeft, models.StructureRight:
	default:
		return algorithm.New(algorithm.StructureInvalid,
			"the ellipsoid/spherical surface's structure %q is neither left nor right", p.Sphere.Structure)
	}

	if p.Fiducial.NodeClosestToPoint(r3.Vec{}) < 0 {
		return algorithm.New(algorithm.GeometryDegenerate, "unable to find a node near (0, 0, 0) in the fiducial surface")
	}
	return nil
}

// findFlatteningBorders picks the medial wall border and the standard cuts
func (f *Flattener) findFlatteningBorders() error {
	mwName := f.params.MedialWallBorderName
	if mwName == "" {
		mwName = models.MedialWallName
	}
	prefix := f.params.CutsPrefix
	if prefix == "" {
		prefix = StandardCutsPrefix
	}

	f.medialWallBorder = nil
	f.cuts = nil
	for i := range f.params.Borders.Projections {
		bp := &f.params.Borders.Projections[i]
		switch {
		case bp.Name == mwName:
			f.medialWallBorder = bp
		case strings.HasPrefix(bp.Name, prefix):
			f.cuts = append(f.cuts, *bp)
		}
	}

	if f.medialWallBorder == nil || f.medialWallBorder.NumLinks() == 0 {
		return algorithm.New(algorithm.BordersMissing, "unable to find border named %q in input border projection file", mwName)
	}
	if len(f.cuts) == 0 {
		return algorithm.New(algorithm.BordersMissing, "unable to find cuts beginning with %q in input border projection file", prefix)
	}
	f.logger.Debug("found flattening borders", zap.String("medialWall", mwName), zap.Int("cuts", len(f.cuts)))
	return nil
}

// removeMedialWallAssignments resets earlier medial wall labels to the sentinel
func (f *Flattener) removeMedialWallAssignments() {
	pf := f.params.Paint
	mw := pf.PaintIndexFromName(models.MedialWallName)
	if mw < 0 {
		return
	}
	sentinel := pf.AddPaintName(models.SentinelName)
	reset := 0
	for n := 0; n < pf.NumNodes(); n++ {
		for c := 0; c < pf.NumColumns(); c++ {
			if pf.Paint(n, c) == mw {
				pf.SetPaint(n, c, sentinel)
				reset++
			}
		}
	}
	f.logger.Debug("reset medial wall paint", zap.Int("assignments", reset))
}

func (f *Flattener) createSphericalSurface() error {
	e := f.params.Sphere
	if e.Type == models.SurfaceSpherical {
		return nil
	}
	sph := e.Clone()
	sph.ConvertToSphereWithArea(f.params.Fiducial.Area())
	sph.Name = defaultName(e.Name, defaultSurfaceName, "Spherical")
	f.spherical = sph

	if f.params.AutoSave {
		if err := f.params.Saver.SaveSurface(sph, sph.Name); err != nil {
			return algorithm.Wrap(algorithm.PersistenceFailure, err, "writing spherical surface")
		}
	}
	return nil
}

func (f *Flattener) createInitialFlatSurface() error {
	p := f.params
	acNode := p.Fiducial.NodeClosestToPoint(r3.Vec{})

	working := p.Sphere.Clone()
	if f.spherical != nil {
		working = f.spherical.Clone()
	}

	f.logger.Info("step 3: orienting the sphere to show the medial wall", zap.Int("anteriorCommissureNode", acNode))
	working.TranslateToCenterOfMass()
	working.OrientPointToNegativeZ(working.Coords[acNode])
	tm := models.NewTransform().Rotate(models.YAxis, 180)
	if working.Structure == models.StructureLeft {
		tm.Rotate(models.ZAxis, 90)
	} else {
		tm.Rotate(models.ZAxis, -90)
	}
	working.ApplyTransform(tm)
	f.saveIntermediate(working, OrientedSphereDump)

	projected := working.Clone()
	projected.ProjectPositiveZToPlane()
	mwBorder := f.medialWallBorder.Unproject(projected.Coords)
	inside := mwBorder.PointsInside2D(projected.Coords, true, 0)
	for n, in := range inside {
		if in {
			f.medialWall.Add(uint32(n))
		}
	}
	f.logger.Info("found medial wall nodes", zap.Uint64("nodes", f.medialWall.GetCardinality()))

	f.logger.Info("step 4: assigning medial wall paint")
	f.assignMedialWallPaint()
	if err := f.addMedialWallColor(); err != nil {
		return err
	}

	f.logger.Info("step 5: orienting the medial wall to the negative Z axis")
	if err := f.orientPaintedNodesToNegativeZ(working); err != nil {
		return err
	}
	working.CompressFrontFace(f.settings.FrontCompression)

	f.logger.Info("step 6: creating the open topology")
	open := working.Topology.Clone()
	open.Name = defaultName(p.Sphere.Topology.Name, defaultTopologyName, "OPEN")
	open.DisconnectNodes(f.medialWallMask())
	open.Type = models.TopologyOpen
	pruned := open.RemoveCornerTiles(f.settings.OpenCornerDepth)
	f.logger.Debug("open topology", zap.Int("triangles", open.NumTriangles()), zap.Int("cornerTilesRemoved", pruned))
	f.openTopology = open
	if p.AutoSave {
		if err := p.Saver.SaveTopology(open, open.Name); err != nil {
			return algorithm.Wrap(algorithm.PersistenceFailure, err, "writing open topology")
		}
	}
	f.saveIntermediate(working, CompressedSphereDump)

	f.logger.Info("step 7: projecting the sphere to the plane")
	cut := open.Clone()
	cut.Name = defaultName(p.Sphere.Topology.Name, defaultTopologyName, "CUT")
	flat := working.Clone()
	flat.Name = defaultName(p.Sphere.Name, defaultSurfaceName, "InitialFlat")
	flat.Topology = cut
	flat.ConvertSphereToFlat()
	smoothing.Areal(flat, smoothing.Params{
		Strength:   f.settings.InitialSmoothingStrength,
		Iterations: f.settings.InitialSmoothingIterations,
		NumCores:   p.NumCores,
		Logger:     f.logger,
	})
	flat.ComputeNormals()
	f.saveIntermediate(flat, FlatBeforeCutsDump)

	f.logger.Info("step 8: applying the standard cuts", zap.Int("cuts", len(f.cuts)))
	bc := cutter.NewBorderCutter(&cutter.Params{
		Surface:      flat,
		Cuts:         f.cuts,
		Mode:         cutter.ModeFlat,
		ExtendToEdge: true,
		Logger:       f.logger,
	})
	cutTopo := bc.Execute()
	cutTopo.Name = cut.Name
	cutTopo.Type = models.TopologyCut
	flat.Topology = cutTopo

	f.logger.Info("step 9: finishing the flat surface")
	islandNodes := cutTopo.DisconnectIslands()
	corners := cutTopo.RemoveCornerTiles(f.settings.CutCornerDepth)
	moved := flat.MoveDisconnectedNodesToOrigin()
	if err := flat.ScaleToArea(f.settings.FlatAreaScale * p.Fiducial.Area()); err != nil {
		return algorithm.Wrap(algorithm.GeometryDegenerate, err, "scaling the initial flat surface")
	}
	flat.TranslateToCenterOfMass()
	flat.MoveDisconnectedNodesToOrigin()
	f.logger.Debug("flat surface finished",
		zap.Int("islandNodes", islandNodes),
		zap.Int("cornerTiles", corners),
		zap.Int("disconnectedNodes", moved),
		zap.Float64("area", flat.Area()))
	f.cutTopology = cutTopo
	f.initialFlat = flat

	if p.CreateSmoothedMedialWallFiducial {
		f.logger.Info("step 10: smoothing the medial wall of the fiducial surface")
		fid := p.Fiducial.Clone()
		fid.Name = defaultName(p.Fiducial.Name, defaultSurfaceName, "FiducialSmoothedMedialWall")
		smoothing.Areal(fid, smoothing.Params{
			Strength:   f.settings.MedialWallSmoothingStrength,
			Iterations: f.settings.MedialWallSmoothingIterations,
			Mask:       f.medialWallMask(),
			NumCores:   p.NumCores,
			Logger:     f.logger,
		})
		f.smoothedFiducial = fid
		if p.AutoSave {
			if err := p.Saver.SaveSurface(fid, fid.Name); err != nil {
				return algorithm.Wrap(algorithm.PersistenceFailure, err, "writing smoothed medial wall fiducial")
			}
		}
	}

	if p.AutoSave {
		if err := p.Saver.SaveSurface(flat, flat.Name); err != nil {
			return algorithm.Wrap(algorithm.PersistenceFailure, err, "writing initial flat surface")
		}
		if err := p.Saver.SaveTopology(cutTopo, cutTopo.Name); err != nil {
			return algorithm.Wrap(algorithm.PersistenceFailure, err, "writing cut topology")
		}
		if p.Paint.Modified() {
			if err := p.Saver.SavePaint(p.Paint, p.Paint.Name); err != nil {
				return algorithm.Wrap(algorithm.PersistenceFailure, err, "writing paint file")
			}
			p.Paint.ClearModified()
		}
	}
	return nil
}

// assignMedialWallPaint writes the medial wall label into the sulcal identification
// column, or into a geography column created when missing
func (f *Flattener) assignMedialWallPaint() {
	pf := f.params.Paint
	col := pf.ColumnWithName(models.SulcalIdentificationColumn)
	if col < 0 {
		col = pf.ColumnWithName(models.GeographyColumn)
	}
	if col < 0 {
		if pf.NumNodes() == 0 {
			pf.SetNumberOfNodesAndColumns(f.params.Fiducial.NumNodes(), 1)
		} else {
			pf.AddColumns(1, pf.AddPaintName(models.SentinelName))
		}
		col = pf.NumColumns() - 1
		pf.Columns[col].Name = models.GeographyColumn
	}
	f.paintColumn = col

	mw := pf.AddPaintName(models.MedialWallName)
	it := f.medialWall.Iterator()
	for it.HasNext() {
		pf.SetPaint(int(it.Next()), col, mw)
	}
}

func (f *Flattener) addMedialWallColor() error {
	cf := f.params.AreaColors
	if _, ok := cf.ColorIndexByName(models.MedialWallName); ok {
		return nil
	}
	cf.AddColor(models.MedialWallName, 0, 255, 0)
	if f.params.AutoSave {
		if err := f.params.Saver.SaveAreaColors(cf, cf.Name); err != nil {
			return algorithm.Wrap(algorithm.PersistenceFailure, err, "writing area color file")
		}
		cf.ClearModified()
	}
	return nil
}

// orientPaintedNodesToNegativeZ places the centre of the medial wall paint on -Z
func (f *Flattener) orientPaintedNodesToNegativeZ(s *models.Surface) error {
	pf := f.params.Paint
	mw := pf.PaintIndexFromName(models.MedialWallName)
	var sum r3.Vec
	count := 0
	for n := 0; n < pf.NumNodes() && n < s.NumNodes(); n++ {
		if pf.Paint(n, f.paintColumn) == mw {
			sum = r3.Add(sum, s.Coords[n])
			count++
		}
	}
	if count == 0 {
		return algorithm.New(algorithm.GeometryDegenerate, "no nodes are inside the %s border", models.MedialWallName)
	}
	s.OrientPointToNegativeZ(r3.Scale(1/float64(count), sum))
	return nil
}

func (f *Flattener) medialWallMask() []bool {
	mask := make([]bool, f.params.Sphere.NumNodes())
	it := f.medialWall.Iterator()
	for it.HasNext() {
		mask[it.Next()] = true
	}
	return mask
}

func (f *Flattener) saveIntermediate(s *models.Surface, name string) {
	if !f.params.SaveIntermediateResults {
		return
	}
	if err := f.params.Saver.SaveSurface(s, name); err != nil {
		f.logger.Warn("unable to write intermediate surface", zap.String("name", name), zap.Error(err))
	}
}

// defaultName derives an output file name from the name of the input it came from
func defaultName(base, fallback, tag string) string {
	if base == "" {
		base = fallback
	}
	return fmt.Sprintf("%s.%s", base, tag)
}
