package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ClosestPointOnSegment returns the point of seg closest to point and its fraction along seg
func ClosestPointOnSegment(point mgl64.Vec3, seg Segment) (mgl64.Vec3, float64) {
	lenSq := seg.Delta.LenSqr()
	if lenSq < Epsilon {
		return seg.Origin, 0
	}

	t := clamp(point.Sub(seg.Origin).Dot(seg.Delta)/lenSq, 0, 1)
	return seg.PointAt(t), t
}

// PointSegmentDistanceSq returns the squared distance between point and seg,
// and the fraction along seg of the closest point
func PointSegmentDistanceSq(point mgl64.Vec3, seg Segment) (float64, float64) {
	closest, t := ClosestPointOnSegment(point, seg)
	return closest.Sub(point).LenSqr(), t
}

// SegmentSegmentDistanceSq returns the squared distance between two segments and the
// fractions t0, t1 of their closest points
func SegmentSegmentDistanceSq(s0, s1 Segment) (float64, float64, float64) {
	d1, d2 := s0.Delta, s1.Delta
	r := s0.Origin.Sub(s1.Origin)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	var t0, t1 float64
	switch {
	case a < Epsilon && e < Epsilon:
		// Both segments degenerate into points
		t0, t1 = 0, 0
	case a < Epsilon:
		t0 = 0
		t1 = clamp(f/e, 0, 1)
	default:
		c := d1.Dot(r)
		if e < Epsilon {
			t1 = 0
			t0 = clamp(-c/a, 0, 1)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b

			// Parallel segments: pick an arbitrary t0
			if denom > Epsilon {
				t0 = clamp((b*f-c*e)/denom, 0, 1)
			}

			t1 = (b*t0 + f) / e
			if t1 < 0 {
				t1 = 0
				t0 = clamp(-c/a, 0, 1)
			} else if t1 > 1 {
				t1 = 1
				t0 = clamp((b-c)/a, 0, 1)
			}
		}
	}

	p0 := s0.PointAt(t0)
	p1 := s1.PointAt(t1)
	return p0.Sub(p1).LenSqr(), t0, t1
}

// PointTriangleDistanceSq returns the squared distance between point and the triangle,
// with the closest point on the triangle
func PointTriangleDistanceSq(point mgl64.Vec3, tri Triangle) (float64, mgl64.Vec3) {
	closest := tri.ClosestPoint(point)
	return closest.Sub(point).LenSqr(), closest
}

// SegmentTriangleDistanceSq returns the squared distance between seg and the triangle,
// the fraction along seg of the closest point and the closest point on the triangle
func SegmentTriangleDistanceSq(seg Segment, tri Triangle) (float64, float64, mgl64.Vec3) {
	if frac, ok := tri.IntersectSegment(seg); ok {
		p := seg.PointAt(frac)
		return 0, frac, p
	}

	best := math.Inf(1)
	var bestT float64
	var bestPoint mgl64.Vec3

	for i, end := range [2]mgl64.Vec3{seg.Origin, seg.End()} {
		if d, p := PointTriangleDistanceSq(end, tri); d < best {
			best, bestT, bestPoint = d, float64(i), p
		}
	}

	for i := 0; i < 3; i++ {
		edge := NewSegment(tri.Points[i], tri.Points[(i+1)%3])
		if d, t0, t1 := SegmentSegmentDistanceSq(seg, edge); d < best {
			best, bestT, bestPoint = d, t0, edge.PointAt(t1)
		}
	}

	return best, bestT, bestPoint
}
