package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// PlaneExtent bounds the otherwise infinite box of a plane
	PlaneExtent = 1e6
	// PlaneBoundsMargin lifts the bounded face of an axis-aligned plane box above its surface
	PlaneBoundsMargin = 1.0
)

// Plane represents an infinite half-space: points p with Normal·p + Distance < 0 are inside.
// Normal and distance are expressed in the plane's local frame and placed by its transform.
type Plane struct {
	transform Transform
	normal    mgl64.Vec3
	distance  float64
}

// NewPlane creates a plane from its normal and signed distance to the origin
func NewPlane(normal mgl64.Vec3, distance float64) *Plane {
	if normal.LenSqr() < Epsilon {
		normal = mgl64.Vec3{0, 1, 0}
	}
	return &Plane{
		transform: NewTransform(),
		normal:    normal.Normalize(),
		distance:  distance,
	}
}

// NewPlaneFromPoint creates a plane with the given normal passing through point
func NewPlaneFromPoint(normal mgl64.Vec3, point mgl64.Vec3) *Plane {
	p := NewPlane(normal, 0)
	p.distance = -p.normal.Dot(point)
	return p
}

// NewPlaneFromPoints creates the plane through three points, with the normal following
// their CCW winding. Collinear points fall back to an upward plane through the origin.
func NewPlaneFromPoints(p0, p1, p2 mgl64.Vec3) *Plane {
	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	if normal.LenSqr() < Epsilon {
		return NewPlane(mgl64.Vec3{0, 1, 0}, 0)
	}
	return NewPlaneFromPoint(normal, p0)
}

func (p *Plane) primitive() {}

func (p *Plane) Type() PrimitiveType { return PrimitiveTypePlane }

func (p *Plane) Transform() Transform { return p.transform }

func (p *Plane) SetTransform(transform Transform) { p.transform = transform }

func (p *Plane) Clone() Primitive {
	clone := *p
	return &clone
}

// Normal returns the world normal of the plane
func (p *Plane) Normal() mgl64.Vec3 {
	return p.transform.ApplyDirection(p.normal)
}

// Distance returns the world signed distance of the plane to the origin
func (p *Plane) Distance() float64 {
	return p.distance - p.Normal().Dot(p.transform.Position)
}

// SignedDistance returns the distance of point to the plane, negative behind it
func (p *Plane) SignedDistance(point mgl64.Vec3) float64 {
	return p.Normal().Dot(point) + p.Distance()
}

// Project returns the orthogonal projection of point on the plane
func (p *Plane) Project(point mgl64.Vec3) mgl64.Vec3 {
	return point.Sub(p.Normal().Mul(p.SignedDistance(point)))
}

func (p *Plane) Volume() float64 { return 0 }

func (p *Plane) SurfaceArea() float64 { return 0 }

// MassProperties of a plane are massless: a plane only ever belongs to immovable bodies
func (p *Plane) MassProperties(PrimitiveProperties) (float64, mgl64.Vec3, mgl64.Mat3) {
	return masslessProperties()
}

// BoundingBox is huge, except along an exactly axis-aligned normal where the box stops
// PlaneBoundsMargin above the surface
func (p *Plane) BoundingBox() AABB {
	box := AABB{
		Min: mgl64.Vec3{-PlaneExtent, -PlaneExtent, -PlaneExtent},
		Max: mgl64.Vec3{PlaneExtent, PlaneExtent, PlaneExtent},
	}

	normal := p.Normal()
	distance := p.Distance()
	for i := 0; i < 3; i++ {
		if math.Abs(normal[i]) != 1.0 {
			continue
		}
		level := -distance * normal[i]
		if normal[i] > 0 {
			box.Max[i] = level + PlaneBoundsMargin
		} else {
			box.Min[i] = level - PlaneBoundsMargin
		}
	}

	return box
}

// SegmentIntersect hits only when the segment crosses the plane from its front side
func (p *Plane) SegmentIntersect(seg Segment) (SegmentHit, bool, error) {
	d0 := p.SignedDistance(seg.Origin)
	d1 := p.SignedDistance(seg.End())

	if d0 < 0 || d1 > 0 || d0 == d1 {
		return SegmentHit{}, false, nil
	}

	frac := d0 / (d0 - d1)
	return SegmentHit{
		Frac:     frac,
		Position: seg.PointAt(frac),
		Normal:   p.Normal(),
	}, true, nil
}
