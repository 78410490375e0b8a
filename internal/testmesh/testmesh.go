// Package testmesh builds small synthetic surfaces used by the package tests.
package testmesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"caretflat/internal/models"
)

// Icosphere returns a unit sphere made by subdividing an icosahedron. Level 0 has 12
// nodes; each level multiplies the triangle count by four (level 3 has 642 nodes).
// Triangles are wound counter clockwise seen from outside.
func Icosphere(level int, structure models.Structure) *models.Surface {
	t := (1 + math.Sqrt(5)) / 2
	coords := []r3.Vec{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	for i := range coords {
		coords[i] = r3.Unit(coords[i])
	}
	tris := []models.Triangle{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for l := 0; l < level; l++ {
		midpoints := make(map[[2]int]int)
		midpoint := func(a, b int) int {
			key := [2]int{a, b}
			if a > b {
				key = [2]int{b, a}
			}
			if i, ok := midpoints[key]; ok {
				return i
			}
			m := r3.Unit(r3.Scale(0.5, r3.Add(coords[a], coords[b])))
			coords = append(coords, m)
			midpoints[key] = len(coords) - 1
			return len(coords) - 1
		}
		next := make([]models.Triangle, 0, len(tris)*4)
		for _, tri := range tris {
			a := midpoint(tri[0], tri[1])
			b := midpoint(tri[1], tri[2])
			c := midpoint(tri[2], tri[0])
			next = append(next,
				models.Triangle{tri[0], a, c},
				models.Triangle{tri[1], b, a},
				models.Triangle{tri[2], c, b},
				models.Triangle{a, b, c},
			)
		}
		tris = next
	}

	topo := models.NewTopology(len(coords), tris, models.TopologyClosed)
	topo.Name = "sphere"
	s := models.NewSurface(coords, topo, models.SurfaceSpherical, structure)
	s.Name = "sphere"
	return s
}

// Square returns the unit square in the XY plane split into triangles (0,1,2) and (0,2,3)
func Square() *models.Surface {
	coords := []r3.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	topo := models.NewTopology(4, []models.Triangle{{0, 1, 2}, {0, 2, 3}}, models.TopologyOpen)
	return models.NewSurface(coords, topo, models.SurfaceFlat, models.StructureLeft)
}

// Grid returns an n by n node grid in the XY plane with unit spacing, two triangles per cell
func Grid(n int) *models.Surface {
	coords := make([]r3.Vec, 0, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			coords = append(coords, r3.Vec{X: float64(x), Y: float64(y)})
		}
	}
	var tris []models.Triangle
	for y := 0; y < n-1; y++ {
		for x := 0; x < n-1; x++ {
			a := y*n + x
			tris = append(tris,
				models.Triangle{a, a + 1, a + n + 1},
				models.Triangle{a, a + n + 1, a + n},
			)
		}
	}
	topo := models.NewTopology(len(coords), tris, models.TopologyOpen)
	return models.NewSurface(coords, topo, models.SurfaceFlat, models.StructureLeft)
}

// TwoTetrahedra returns a closed topology made of two disjoint tetrahedra
func TwoTetrahedra(structure models.Structure) *models.Surface {
	coords := []r3.Vec{
		{X: 1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: -1, Y: -1, Z: 1},
		{X: 11, Y: 1, Z: 1}, {X: 11, Y: -1, Z: -1}, {X: 9, Y: 1, Z: -1}, {X: 9, Y: -1, Z: 1},
	}
	tris := []models.Triangle{
		{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2},
		{4, 5, 6}, {4, 7, 5}, {4, 6, 7}, {5, 7, 6},
	}
	topo := models.NewTopology(len(coords), tris, models.TopologyClosed)
	return models.NewSurface(coords, topo, models.SurfaceSpherical, structure)
}

// Line returns n nodes along the X axis at unit spacing with no triangles
func Line(n int) *models.Surface {
	coords := make([]r3.Vec, n)
	for i := range coords {
		coords[i] = r3.Vec{X: float64(i)}
	}
	topo := models.NewTopology(n, nil, models.TopologyOpen)
	return models.NewSurface(coords, topo, models.SurfaceFiducial, models.StructureLeft)
}

// CircleBorder returns a closed border of n links on the unit sphere around the
// direction axis at the given angular radius in degrees
func CircleBorder(name string, axis r3.Vec, degrees float64, n int) models.Border {
	axis = r3.Unit(axis)
	// any vector not parallel to axis
	ref := r3.Vec{Z: 1}
	if math.Abs(r3.Dot(ref, axis)) > 0.9 {
		ref = r3.Vec{X: 1}
	}
	u := r3.Unit(r3.Cross(axis, ref))
	v := r3.Cross(axis, u)

	theta := degrees * math.Pi / 180
	b := models.Border{Name: name, Closed: true}
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		dir := r3.Add(r3.Scale(math.Cos(theta), axis),
			r3.Scale(math.Sin(theta), r3.Add(r3.Scale(math.Cos(a), u), r3.Scale(math.Sin(a), v))))
		b.Links = append(b.Links, models.Link{Pos: r3.Unit(dir)})
	}
	return b
}

// ArcBorder returns an open border of n links on the unit sphere running in the plane
// spanned by from and to, from the direction at angle start to angle end (degrees,
// measured from the direction of from towards to)
func ArcBorder(name string, from, to r3.Vec, start, end float64, n int) models.Border {
	f := r3.Unit(from)
	g := r3.Unit(r3.Sub(to, r3.Scale(r3.Dot(to, f), f)))
	b := models.Border{Name: name}
	for i := 0; i < n; i++ {
		a := (start + (end-start)*float64(i)/float64(n-1)) * math.Pi / 180
		b.Links = append(b.Links, models.Link{Pos: r3.Add(r3.Scale(math.Cos(a), f), r3.Scale(math.Sin(a), g))})
	}
	return b
}
