package geom

import "github.com/go-gl/mathgl/mgl64"

// AABox is an axis-aligned box given by local corners, offset by the transform position.
// The orientation of its transform is ignored.
type AABox struct {
	transform Transform
	Min       mgl64.Vec3
	Max       mgl64.Vec3
}

// NewAABox creates an axis-aligned box from two corners
func NewAABox(minCorner, maxCorner mgl64.Vec3) *AABox {
	box := EmptyAABB()
	box.AddPoint(minCorner)
	box.AddPoint(maxCorner)

	return &AABox{
		transform: NewTransform(),
		Min:       box.Min,
		Max:       box.Max,
	}
}

func (a *AABox) primitive() {}

func (a *AABox) Type() PrimitiveType { return PrimitiveTypeAABox }

func (a *AABox) Transform() Transform { return a.transform }

func (a *AABox) SetTransform(transform Transform) { a.transform = transform }

func (a *AABox) Clone() Primitive {
	clone := *a
	return &clone
}

func (a *AABox) sides() mgl64.Vec3 {
	return a.Max.Sub(a.Min)
}

func (a *AABox) Volume() float64 {
	s := a.sides()
	return s.X() * s.Y() * s.Z()
}

func (a *AABox) SurfaceArea() float64 {
	s := a.sides()
	return 2.0 * (s.X()*s.Y() + s.Y()*s.Z() + s.Z()*s.X())
}

// MassProperties of an AABox are massless: it is only used as a static bound
func (a *AABox) MassProperties(PrimitiveProperties) (float64, mgl64.Vec3, mgl64.Mat3) {
	return masslessProperties()
}

func (a *AABox) BoundingBox() AABB {
	return AABB{
		Min: a.Min.Add(a.transform.Position),
		Max: a.Max.Add(a.transform.Position),
	}
}

func (a *AABox) SegmentIntersect(Segment) (SegmentHit, bool, error) {
	return SegmentHit{}, false, ErrNotImplemented
}
