package caretfile

import (
	"path/filepath"

	"caretflat/internal/models"
)

// Store writes files into Dir, naming each one after its data and the kind's extension
type Store struct {
	Dir string
}

// NewStore creates a store writing into dir
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Path returns the file a name of the given extension is written to
func (s *Store) Path(name, ext string) string {
	return filepath.Join(s.Dir, name+ext)
}

// SaveSurface writes the coordinates of surf
func (s *Store) SaveSurface(surf *models.Surface, name string) error {
	return SaveCoordinates(surf, s.Path(name, CoordinateExt))
}

// SaveTopology writes t
func (s *Store) SaveTopology(t *models.Topology, name string) error {
	return SaveTopology(t, s.Path(name, TopologyExt))
}

// SavePaint writes pf and marks it clean
func (s *Store) SavePaint(pf *models.PaintFile, name string) error {
	if err := SavePaint(pf, s.Path(name, PaintExt)); err != nil {
		return err
	}
	pf.ClearModified()
	return nil
}

// SaveAreaColors writes cf and marks it clean
func (s *Store) SaveAreaColors(cf *models.AreaColorFile, name string) error {
	if err := SaveAreaColors(cf, s.Path(name, AreaColorExt)); err != nil {
		return err
	}
	cf.ClearModified()
	return nil
}

// SaveArealEstimation writes af
func (s *Store) SaveArealEstimation(af *models.ArealEstimationFile, name string) error {
	return SaveArealEstimation(af, s.Path(name, ArealEstimationExt))
}
