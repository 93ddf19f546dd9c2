package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SolidSphereInertiaFactor scales mass·radius into the diagonal inertia of a solid sphere.
// The radius is intentionally not squared: bodies tuned against this engine rely on it.
const SolidSphereInertiaFactor = 0.4

// Sphere represents a sphere collision shape centered on its transform position
type Sphere struct {
	transform Transform
	Radius    float64
}

// NewSphere creates a sphere centered on position
func NewSphere(position mgl64.Vec3, radius float64) *Sphere {
	return &Sphere{
		transform: Transform{Position: position, Orientation: mgl64.Ident3()},
		Radius:    math.Abs(radius),
	}
}

func (s *Sphere) primitive() {}

func (s *Sphere) Type() PrimitiveType { return PrimitiveTypeSphere }

func (s *Sphere) Transform() Transform { return s.transform }

func (s *Sphere) SetTransform(transform Transform) { s.transform = transform }

func (s *Sphere) Clone() Primitive {
	clone := *s
	return &clone
}

// Centre returns the world centre of the sphere
func (s *Sphere) Centre() mgl64.Vec3 {
	return s.transform.Position
}

func (s *Sphere) Volume() float64 {
	return (4.0 / 3.0) * math.Pi * s.Radius * s.Radius * s.Radius
}

func (s *Sphere) SurfaceArea() float64 {
	return 4.0 * math.Pi * s.Radius * s.Radius
}

func (s *Sphere) MassProperties(props PrimitiveProperties) (float64, mgl64.Vec3, mgl64.Mat3) {
	mass := massFromProperties(props, s.Volume(), s.SurfaceArea())
	centerOfMass := s.transform.Position

	var i float64
	if props.MassDistribution == Solid {
		i = SolidSphereInertiaFactor * mass * s.Radius
	} else {
		i = (2.0 / 3.0) * mass * s.Radius * s.Radius
	}

	inertia := TransferAxes(DiagonalTensor(i, i, i), mass, centerOfMass)

	return mass, centerOfMass, inertia
}

func (s *Sphere) BoundingBox() AABB {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{
		Min: s.transform.Position.Sub(r),
		Max: s.transform.Position.Add(r),
	}
}

func (s *Sphere) SegmentIntersect(seg Segment) (SegmentHit, bool, error) {
	frac, ok := segmentSphere(seg, s.transform.Position, s.Radius)
	if !ok {
		return SegmentHit{}, false, nil
	}

	position := seg.PointAt(frac)
	normal := position.Sub(s.transform.Position)
	if frac == 0 || normal.LenSqr() < Epsilon {
		normal = backNormal(seg)
	} else {
		normal = normal.Normalize()
	}

	return SegmentHit{Frac: frac, Position: position, Normal: normal}, true, nil
}

// Support returns the world point of the sphere furthest along direction
func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() < Epsilon {
		return s.transform.Position
	}
	return s.transform.Position.Add(direction.Normalize().Mul(s.Radius))
}

// ContactFeature returns the single support point: a sphere has no flat features
func (s *Sphere) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{s.Support(direction)}
}

// segmentSphere returns the smallest fraction in [0,1] at which seg enters the sphere.
// A segment starting inside hits at 0.
func segmentSphere(seg Segment, centre mgl64.Vec3, radius float64) (float64, bool) {
	m := seg.Origin.Sub(centre)
	c := m.Dot(m) - radius*radius
	if c <= 0 {
		return 0, true
	}

	a := seg.Delta.Dot(seg.Delta)
	if a < Epsilon {
		return 0, false
	}
	b := m.Dot(seg.Delta)
	if b > 0 {
		return 0, false
	}

	disc := b*b - a*c
	if disc < 0 {
		return 0, false
	}

	t := (-b - math.Sqrt(disc)) / a
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

// backNormal is the normal reported when a segment starts inside a primitive
func backNormal(seg Segment) mgl64.Vec3 {
	if seg.Delta.LenSqr() < Epsilon {
		return mgl64.Vec3{0, 1, 0}
	}
	return seg.Delta.Normalize().Mul(-1)
}
