package caretfile

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"caretflat/internal/models"
)

type coordinateDoc struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Structure string `yaml:"structure"`
	Coords    []vec3 `yaml:"coords"`
}

type topologyDoc struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	NumNodes  int      `yaml:"numNodes"`
	Triangles []triple `yaml:"triangles"`
}

// SaveCoordinates writes the coordinates, type and structure of s
func SaveCoordinates(s *models.Surface, path string) error {
	doc := coordinateDoc{
		Name:      s.Name,
		Type:      s.Type.String(),
		Structure: s.Structure.String(),
		Coords:    make([]vec3, len(s.Coords)),
	}
	for i, c := range s.Coords {
		doc.Coords[i] = vec3{c.X, c.Y, c.Z}
	}
	return save(doc, path)
}

// LoadSurface reads a coordinate file and attaches it to topo, which must have the
// same number of nodes
func LoadSurface(path string, topo *models.Topology) (*models.Surface, error) {
	var doc coordinateDoc
	if err := load(path, &doc); err != nil {
		return nil, err
	}

	coords := make([]r3.Vec, len(doc.Coords))
	for i, c := range doc.Coords {
		coords[i] = r3.Vec{X: c[0], Y: c[1], Z: c[2]}
	}
	if topo != nil && topo.NumNodes != len(coords) {
		return nil, fmt.Errorf("%s has %d nodes, topology %q has %d", path, len(coords), topo.Name, topo.NumNodes)
	}

	s := models.NewSurface(coords, topo, models.ParseSurfaceType(doc.Type), models.ParseStructure(doc.Structure))
	s.Name = doc.Name
	return s, nil
}

// SaveTopology writes the triangles and type of t
func SaveTopology(t *models.Topology, path string) error {
	doc := topologyDoc{
		Name:      t.Name,
		Type:      t.Type.String(),
		NumNodes:  t.NumNodes,
		Triangles: make([]triple, len(t.Triangles)),
	}
	for i, tri := range t.Triangles {
		doc.Triangles[i] = triple(tri)
	}
	return save(doc, path)
}

// LoadTopology reads a topology file and validates it
func LoadTopology(path string) (*models.Topology, error) {
	var doc topologyDoc
	if err := load(path, &doc); err != nil {
		return nil, err
	}

	tris := make([]models.Triangle, len(doc.Triangles))
	for i, tri := range doc.Triangles {
		tris[i] = models.Triangle(tri)
	}
	t := models.NewTopology(doc.NumNodes, tris, models.ParseTopologyType(doc.Type))
	t.Name = doc.Name
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid topology in %s: %w", path, err)
	}
	return t, nil
}
