package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform represents a position and an orientation in 3D space.
// The orientation maps local directions to world directions: world = Orientation * local + Position.
type Transform struct {
	Position    mgl64.Vec3
	Orientation mgl64.Mat3
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:    mgl64.Vec3{0, 0, 0},
		Orientation: mgl64.Ident3(),
	}
}

// NewTransformAt creates a transform with the given position and orientation
func NewTransformAt(position mgl64.Vec3, orientation mgl64.Mat3) Transform {
	return Transform{Position: position, Orientation: orientation}
}

// Apply transforms a local point to world space
func (t Transform) Apply(point mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation.Mul3x1(point).Add(t.Position)
}

// ApplyDirection rotates a local direction to world space
func (t Transform) ApplyDirection(direction mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation.Mul3x1(direction)
}

// InverseApply transforms a world point to local space
func (t Transform) InverseApply(point mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation.Transpose().Mul3x1(point.Sub(t.Position))
}

// InverseApplyDirection rotates a world direction to local space
func (t Transform) InverseApplyDirection(direction mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation.Transpose().Mul3x1(direction)
}

// Compose returns the transform of a child expressed in t: first local, then t.
func (t Transform) Compose(local Transform) Transform {
	return Transform{
		Position:    t.Apply(local.Position),
		Orientation: t.Orientation.Mul3(local.Orientation),
	}
}

// Inverse returns the transform undoing t
func (t Transform) Inverse() Transform {
	inv := t.Orientation.Transpose()
	return Transform{
		Position:    inv.Mul3x1(t.Position).Mul(-1),
		Orientation: inv,
	}
}

// TransformRate holds the linear and angular velocity of a transform.
type TransformRate struct {
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

// Add returns the sum of two rates
func (r TransformRate) Add(other TransformRate) TransformRate {
	return TransformRate{
		Velocity:        r.Velocity.Add(other.Velocity),
		AngularVelocity: r.AngularVelocity.Add(other.AngularVelocity),
	}
}

// IsZero reports whether both channels are exactly zero
func (r TransformRate) IsZero() bool {
	return r.Velocity == (mgl64.Vec3{}) && r.AngularVelocity == (mgl64.Vec3{})
}

// ApplyRate advances the transform by rate over dt.
// The orientation is rotated by |ω|·dt around the normalized angular velocity direction.
func (t Transform) ApplyRate(rate TransformRate, dt float64) Transform {
	out := t
	out.Position = t.Position.Add(rate.Velocity.Mul(dt))

	angMag := rate.AngularVelocity.Len()
	if angMag > Epsilon {
		axis := rate.AngularVelocity.Mul(1.0 / angMag)
		delta := mgl64.QuatRotate(angMag*dt, axis).Mat4().Mat3()
		out.Orientation = Orthonormalize(delta.Mul3(t.Orientation))
	}

	return out
}

// Orthonormalize re-orthogonalizes the columns of a rotation matrix (Gram-Schmidt),
// removing drift accumulated by repeated integration.
func Orthonormalize(m mgl64.Mat3) mgl64.Mat3 {
	x := m.Col(0)
	y := m.Col(1)

	if x.LenSqr() < Epsilon || y.LenSqr() < Epsilon {
		return mgl64.Ident3()
	}

	x = x.Normalize()
	y = y.Sub(x.Mul(x.Dot(y)))
	if y.LenSqr() < Epsilon {
		return mgl64.Ident3()
	}
	y = y.Normalize()
	z := x.Cross(y)

	return mgl64.Mat3FromCols(x, y, z)
}

// RotationFromAxisAngle builds an orientation matrix rotating angle radians around axis
func RotationFromAxisAngle(axis mgl64.Vec3, angle float64) mgl64.Mat3 {
	if axis.LenSqr() < Epsilon {
		return mgl64.Ident3()
	}
	return mgl64.QuatRotate(angle, axis.Normalize()).Mat4().Mat3()
}

// Epsilon is the tolerance used for degenerate-geometry checks
const Epsilon = 1e-9

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
