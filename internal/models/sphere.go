package models

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ConvertToSphereWithArea centres the surface and pushes every connected node onto a
// sphere whose tessellated area equals desiredArea. Nodes used by no triangle go to
// the origin. A non-positive desiredArea keeps the current surface area.
func (s *Surface) ConvertToSphereWithArea(desiredArea float64) {
	if desiredArea <= 0 {
		desiredArea = s.Area()
	}
	s.TranslateToCenterOfMass()
	s.ConvertToSphereWithRadius(math.Sqrt(desiredArea / (4 * math.Pi)))

	// the inscribed polyhedron is smaller than the analytic sphere
	_ = s.ScaleToArea(desiredArea)
}

// ConvertToSphereWithRadius pushes every connected node onto a sphere of the given
// radius centred at the origin
func (s *Surface) ConvertToSphereWithRadius(radius float64) {
	h := s.Topology.Helper()
	for i, p := range s.Coords {
		if !h.HasNeighbors(i) {
			s.Coords[i] = r3.Vec{}
			continue
		}
		if l := r3.Norm(p); l > 0 {
			s.Coords[i] = r3.Scale(radius/l, p)
		}
	}
	s.Type = SurfaceSpherical
}

// SphericalRadius returns the mean distance of connected nodes from the origin
func (s *Surface) SphericalRadius() float64 {
	h := s.Topology.Helper()
	sum := 0.0
	count := 0
	for i, p := range s.Coords {
		if h.HasNeighbors(i) {
			sum += r3.Norm(p)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// OrientPointToNegativeZ rotates the surface about the origin so the direction of p
// lies on the negative Z axis
func (s *Surface) OrientPointToNegativeZ(p r3.Vec) {
	if r3.Norm(p) == 0 {
		return
	}
	u := r3.Unit(p)
	angle := math.Acos(math.Max(-1, math.Min(1, -u.Z))) * 180 / math.Pi

	// perpendicular to u in the XY plane
	perp := r3.Vec{X: -u.Y, Y: u.X}
	if r3.Norm(perp) == 0 {
		if u.Z < 0 {
			return
		}
		perp = r3.Vec{X: 1}
	}
	s.ApplyTransform(NewTransform().RotateAbout(perp, angle))
}

// OrientPointToPositiveZ rotates the surface so the direction of p lies on the positive Z axis
func (s *Surface) OrientPointToPositiveZ(p r3.Vec) {
	s.OrientPointToNegativeZ(p)
	s.ApplyTransform(NewTransform().Rotate(YAxis, 180))
}

// ProjectPositiveZToPlane moves every node with a positive Z onto the Z = 0 plane
func (s *Surface) ProjectPositiveZToPlane() {
	for i, p := range s.Coords {
		if p.Z > 0 {
			s.Coords[i].Z = 0
		}
	}
}

// CompressFrontFace spreads the back (negative Z) cap of a sphere over the back hemisphere
// and squeezes the rest of the sphere into the front hemisphere. The surface type is kept.
func (s *Surface) CompressFrontFace(factor float64) {
	flip := NewTransform().Rotate(YAxis, 180)
	s.ApplyTransform(flip)

	h := s.Topology.Helper()
	radius := s.SphericalRadius()
	halfPi := math.Pi / 2
	for i, p := range s.Coords {
		if !h.HasNeighbors(i) {
			s.Coords[i] = r3.Vec{}
			continue
		}
		l := r3.Norm(p)
		if l == 0 {
			continue
		}
		u := r3.Scale(1/l, p)
		phi := math.Acos(math.Max(-1, math.Min(1, u.Z)))
		theta := math.Atan2(u.Y, u.X)
		if phi < halfPi*factor {
			phi /= factor
		} else {
			phi = (phi + math.Pi*(1-factor)) / (2 - factor)
		}
		s.Coords[i] = r3.Vec{
			X: radius * math.Cos(theta) * math.Sin(phi),
			Y: radius * math.Sin(theta) * math.Sin(phi),
			Z: radius * math.Cos(phi),
		}
	}

	s.ApplyTransform(flip)
}

// ConvertSphereToFlat unrolls a sphere centred at the origin onto the XY plane about the
// positive Z pole. The distance from the plane's origin is the arc length from the pole,
// stretched in the back hemisphere; the azimuth is preserved.
func (s *Surface) ConvertSphereToFlat() {
	h := s.Topology.Helper()
	for i, p := range s.Coords {
		if !h.HasNeighbors(i) {
			s.Coords[i] = r3.Vec{}
			continue
		}
		radius := r3.Norm(p)
		if radius == 0 {
			continue
		}
		zmult := 1.0
		if p.Z <= 0 {
			t := (p.Z * p.Z) / (radius * radius)
			if t < 1 {
				zmult = math.Pow(1-t, -0.25)
			}
		}
		rad := radius * zmult * math.Acos(math.Max(-1, math.Min(1, p.Z/radius)))

		var u, v float64
		if planar := math.Hypot(p.X, p.Y); planar > 0 {
			u = rad * p.X / planar
			v = rad * p.Y / planar
		}
		s.Coords[i] = r3.Vec{X: u, Y: v}
	}
	s.Type = SurfaceFlat
}
