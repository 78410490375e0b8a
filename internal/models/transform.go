package models

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Axis names a coordinate axis for rotations
type Axis int

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

func (a Axis) vector() r3.Vec {
	switch a {
	case XAxis:
		return r3.Vec{X: 1}
	case YAxis:
		return r3.Vec{Y: 1}
	default:
		return r3.Vec{Z: 1}
	}
}

// Transform is a 4x4 homogeneous transformation. Operations compose in call
// order: the most recently added operation is applied last.
type Transform struct {
	m *mat.Dense
}

// NewTransform returns the identity transform
func NewTransform() *Transform {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return &Transform{m: m}
}

func (t *Transform) then(op *mat.Dense) *Transform {
	var out mat.Dense
	out.Mul(op, t.m)
	t.m = &out
	return t
}

// Rotate adds a right-handed rotation of degrees about an axis
func (t *Transform) Rotate(axis Axis, degrees float64) *Transform {
	return t.RotateAbout(axis.vector(), degrees)
}

// RotateAbout adds a right-handed rotation of degrees about an arbitrary axis
func (t *Transform) RotateAbout(axis r3.Vec, degrees float64) *Transform {
	if r3.Norm(axis) == 0 {
		return t
	}
	k := r3.Unit(axis)
	theta := degrees * math.Pi / 180
	c, s := math.Cos(theta), math.Sin(theta)
	v := 1 - c

	// Rodrigues rotation matrix
	op := mat.NewDense(4, 4, []float64{
		c + k.X*k.X*v, k.X*k.Y*v - k.Z*s, k.X*k.Z*v + k.Y*s, 0,
		k.Y*k.X*v + k.Z*s, c + k.Y*k.Y*v, k.Y*k.Z*v - k.X*s, 0,
		k.Z*k.X*v - k.Y*s, k.Z*k.Y*v + k.X*s, c + k.Z*k.Z*v, 0,
		0, 0, 0, 1,
	})
	return t.then(op)
}

// Scale adds a scaling along each axis
func (t *Transform) Scale(sx, sy, sz float64) *Transform {
	op := mat.NewDense(4, 4, []float64{
		sx, 0, 0, 0,
		0, sy, 0, 0,
		0, 0, sz, 0,
		0, 0, 0, 1,
	})
	return t.then(op)
}

// Translate adds a translation
func (t *Transform) Translate(d r3.Vec) *Transform {
	op := mat.NewDense(4, 4, []float64{
		1, 0, 0, d.X,
		0, 1, 0, d.Y,
		0, 0, 1, d.Z,
		0, 0, 0, 1,
	})
	return t.then(op)
}

// Apply transforms a point
func (t *Transform) Apply(p r3.Vec) r3.Vec {
	m := t.m
	return r3.Vec{
		X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)*p.Z + m.At(0, 3),
		Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)*p.Z + m.At(1, 3),
		Z: m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)*p.Z + m.At(2, 3),
	}
}
