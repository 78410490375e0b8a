package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"caretflat/pkg/geom"
)

// SurfaceType tags the geometric configuration of a surface
type SurfaceType int

const (
	SurfaceUnknown SurfaceType = iota
	SurfaceFiducial
	SurfaceInflated
	SurfaceVeryInflated
	SurfaceEllipsoidal
	SurfaceSpherical
	SurfaceCompressedMedialWall
	SurfaceFlat
	SurfaceFlatLobar
)

var surfaceTypeNames = map[SurfaceType]string{
	SurfaceUnknown:              "UNKNOWN",
	SurfaceFiducial:             "FIDUCIAL",
	SurfaceInflated:             "INFLATED",
	SurfaceVeryInflated:         "VERY_INFLATED",
	SurfaceEllipsoidal:          "ELLIPSOIDAL",
	SurfaceSpherical:            "SPHERICAL",
	SurfaceCompressedMedialWall: "COMPRESSED_MEDIAL_WALL",
	SurfaceFlat:                 "FLAT",
	SurfaceFlatLobar:            "FLAT_LOBAR",
}

func (t SurfaceType) String() string {
	if s, ok := surfaceTypeNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseSurfaceType converts a tag written by String back to a type
func ParseSurfaceType(s string) SurfaceType {
	for t, name := range surfaceTypeNames {
		if name == s {
			return t
		}
	}
	return SurfaceUnknown
}

// Structure names the brain structure a surface represents
type Structure int

const (
	StructureInvalid Structure = iota
	StructureLeft
	StructureRight
	StructureBoth
	StructureCerebellum
)

func (s Structure) String() string {
	switch s {
	case StructureLeft:
		return "LEFT"
	case StructureRight:
		return "RIGHT"
	case StructureBoth:
		return "BOTH"
	case StructureCerebellum:
		return "CEREBELLUM"
	default:
		return "INVALID"
	}
}

// ParseStructure converts a tag written by String back to a structure
func ParseStructure(s string) Structure {
	for _, st := range []Structure{StructureLeft, StructureRight, StructureBoth, StructureCerebellum} {
		if st.String() == s {
			return st
		}
	}
	return StructureInvalid
}

// Surface is a set of node coordinates over a shared topology.
// A surface owns its coordinates; the topology may be shared with other surfaces.
type Surface struct {
	// Name is used to derive default file names
	Name string

	Type      SurfaceType
	Structure Structure
	Coords    []r3.Vec
	Normals   []r3.Vec
	Topology  *Topology
}

// NewSurface creates a surface over topo
func NewSurface(coords []r3.Vec, topo *Topology, surfaceType SurfaceType, structure Structure) *Surface {
	return &Surface{
		Coords:    coords,
		Topology:  topo,
		Type:      surfaceType,
		Structure: structure,
	}
}

// Clone copies the coordinates. The topology is shared, not copied.
func (s *Surface) Clone() *Surface {
	c := *s
	c.Coords = make([]r3.Vec, len(s.Coords))
	copy(c.Coords, s.Coords)
	if s.Normals != nil {
		c.Normals = make([]r3.Vec, len(s.Normals))
		copy(c.Normals, s.Normals)
	}
	return &c
}

// NumNodes returns the number of nodes
func (s *Surface) NumNodes() int {
	return len(s.Coords)
}

// Validate checks the coordinate count against the topology
func (s *Surface) Validate() error {
	if s.Topology == nil {
		return fmt.Errorf("surface %q has no topology", s.Name)
	}
	if s.Topology.NumNodes != len(s.Coords) {
		return fmt.Errorf("surface %q has %d coordinates but its topology has %d nodes",
			s.Name, len(s.Coords), s.Topology.NumNodes)
	}
	return s.Topology.Validate()
}

// Area returns the sum of the triangle areas
func (s *Surface) Area() float64 {
	if s.Topology == nil {
		return 0
	}
	area := 0.0
	for _, tri := range s.Topology.Triangles {
		area += geom.TriangleArea(s.Coords[tri[0]], s.Coords[tri[1]], s.Coords[tri[2]])
	}
	return area
}

// CenterOfMass returns the mean of the coordinates of nodes used by a triangle
func (s *Surface) CenterOfMass() r3.Vec {
	h := s.Topology.Helper()
	var sum r3.Vec
	count := 0
	for i, c := range s.Coords {
		if h.HasNeighbors(i) {
			sum = r3.Add(sum, c)
			count++
		}
	}
	if count == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/float64(count), sum)
}

// Translate moves every node by d
func (s *Surface) Translate(d r3.Vec) {
	for i := range s.Coords {
		s.Coords[i] = r3.Add(s.Coords[i], d)
	}
}

// TranslateToCenterOfMass moves the surface so its center of mass is at the origin
func (s *Surface) TranslateToCenterOfMass() {
	s.Translate(r3.Scale(-1, s.CenterOfMass()))
}

// ApplyTransform transforms every node
func (s *Surface) ApplyTransform(t *Transform) {
	for i := range s.Coords {
		s.Coords[i] = t.Apply(s.Coords[i])
	}
}

// ScaleToArea uniformly scales the surface about the origin so its area equals desiredArea
func (s *Surface) ScaleToArea(desiredArea float64) error {
	current := s.Area()
	if current <= 0 || desiredArea <= 0 {
		return fmt.Errorf("cannot scale surface of area %g to %g", current, desiredArea)
	}
	f := math.Sqrt(desiredArea / current)
	s.ApplyTransform(NewTransform().Scale(f, f, f))
	return nil
}

// NodeClosestToPoint returns the index of the node nearest p, or -1 when there are no nodes
func (s *Surface) NodeClosestToPoint(p r3.Vec) int {
	idx, _ := geom.NewLocator(s.Coords, nil, false).Nearest(p, false)
	return idx
}

// MoveDisconnectedNodesToOrigin places nodes used by no triangle at the origin
func (s *Surface) MoveDisconnectedNodesToOrigin() int {
	h := s.Topology.Helper()
	moved := 0
	for i := range s.Coords {
		if !h.HasNeighbors(i) {
			s.Coords[i] = r3.Vec{}
			moved++
		}
	}
	return moved
}

// ComputeNormals sets each node normal to the normalised sum of its triangle normals
func (s *Surface) ComputeNormals() {
	normals := make([]r3.Vec, len(s.Coords))
	for _, tri := range s.Topology.Triangles {
		n := geom.TriangleNormal(s.Coords[tri[0]], s.Coords[tri[1]], s.Coords[tri[2]])
		for _, v := range tri {
			normals[v] = r3.Add(normals[v], n)
		}
	}
	for i, n := range normals {
		if r3.Norm(n) > 0 {
			normals[i] = r3.Unit(n)
		}
	}
	s.Normals = normals
}
