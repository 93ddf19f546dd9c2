package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Triangle is three points wound counter-clockwise around Normal
type Triangle struct {
	Points [3]mgl64.Vec3
}

// NewTriangle creates a triangle from its three vertices
func NewTriangle(p0, p1, p2 mgl64.Vec3) Triangle {
	return Triangle{Points: [3]mgl64.Vec3{p0, p1, p2}}
}

// Normal returns the unit normal, or the zero vector for a degenerate triangle
func (t Triangle) Normal() mgl64.Vec3 {
	n := t.Points[1].Sub(t.Points[0]).Cross(t.Points[2].Sub(t.Points[0]))
	if n.LenSqr() < Epsilon*Epsilon {
		return mgl64.Vec3{}
	}
	return n.Normalize()
}

// Area returns the surface of the triangle
func (t Triangle) Area() float64 {
	return 0.5 * t.Points[1].Sub(t.Points[0]).Cross(t.Points[2].Sub(t.Points[0])).Len()
}

func (t Triangle) Centre() mgl64.Vec3 {
	return t.Points[0].Add(t.Points[1]).Add(t.Points[2]).Mul(1.0 / 3.0)
}

func (t Triangle) BoundingBox() AABB {
	box := EmptyAABB()
	for _, p := range t.Points {
		box.AddPoint(p)
	}
	return box
}

// Transformed returns the triangle placed by transform
func (t Triangle) Transformed(transform Transform) Triangle {
	return Triangle{Points: [3]mgl64.Vec3{
		transform.Apply(t.Points[0]),
		transform.Apply(t.Points[1]),
		transform.Apply(t.Points[2]),
	}}
}

// Support returns the vertex furthest along direction
func (t Triangle) Support(direction mgl64.Vec3) mgl64.Vec3 {
	best := t.Points[0]
	bestDot := best.Dot(direction)
	for _, p := range t.Points[1:] {
		if d := p.Dot(direction); d > bestDot {
			best, bestDot = p, d
		}
	}
	return best
}

// ContactFeature returns the whole triangle
func (t Triangle) ContactFeature(mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{t.Points[0], t.Points[1], t.Points[2]}
}

// ClosestPoint returns the point of the triangle closest to point, by Voronoi region
func (t Triangle) ClosestPoint(point mgl64.Vec3) mgl64.Vec3 {
	a, b, c := t.Points[0], t.Points[1], t.Points[2]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := point.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := point.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}

	cp := point.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		return b.Add(c.Sub(b).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}

	denom := va + vb + vc
	if math.Abs(denom) < Epsilon {
		return a
	}
	v := vb / denom
	w := vc / denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

// IntersectSegment returns the fraction at which seg crosses the triangle, from either side
func (t Triangle) IntersectSegment(seg Segment) (float64, bool) {
	e1 := t.Points[1].Sub(t.Points[0])
	e2 := t.Points[2].Sub(t.Points[0])

	p := seg.Delta.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < Epsilon {
		return 0, false
	}
	invDet := 1.0 / det

	s := seg.Origin.Sub(t.Points[0])
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(e1)
	v := seg.Delta.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	frac := e2.Dot(q) * invDet
	if frac < 0 || frac > 1 {
		return 0, false
	}
	return frac, true
}
