package geom

import "github.com/go-gl/mathgl/mgl64"

// Segment is the set of points Origin + t*Delta for t in [0,1]
type Segment struct {
	Origin mgl64.Vec3
	Delta  mgl64.Vec3
}

// NewSegment creates a segment between two points
func NewSegment(from, to mgl64.Vec3) Segment {
	return Segment{Origin: from, Delta: to.Sub(from)}
}

// End returns the end point of the segment
func (s Segment) End() mgl64.Vec3 {
	return s.Origin.Add(s.Delta)
}

// PointAt returns the point at fraction t along the segment
func (s Segment) PointAt(t float64) mgl64.Vec3 {
	return s.Origin.Add(s.Delta.Mul(t))
}

// BoundingBox returns the box enclosing both end points
func (s Segment) BoundingBox() AABB {
	box := EmptyAABB()
	box.AddPoint(s.Origin)
	box.AddPoint(s.End())
	return box
}

// SegmentHit is the closest intersection of a segment with a primitive
type SegmentHit struct {
	// Fraction along the segment, in [0,1]
	Frac     float64
	Position mgl64.Vec3
	// Outward surface normal at Position
	Normal mgl64.Vec3
}
