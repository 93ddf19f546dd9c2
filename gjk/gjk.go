// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) overlap test for convex shapes.
//
// GJK detects whether two convex shapes overlap by testing if their Minkowski difference
// contains the origin. The simplex is built incrementally and usually converges in 3-6
// iterations. A terminating tetrahedron is handed to the epa package for depth and normal.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxIterations bounds the refinement loop
const MaxIterations = 32

// Simplex holds 1-4 points of the Minkowski difference, most recent last.
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

// set replaces the points, oldest first
func (s *Simplex) set(points ...mgl64.Vec3) {
	s.Count = copy(s.Points[:], points)
}

func (s *Simplex) push(p mgl64.Vec3) {
	s.Points[s.Count] = p
	s.Count++
}

// SimplexPool recycles simplices across narrow-phase calls
var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MinkowskiSupport returns the support point of A - B along direction:
// furthest(A, direction) - furthest(B, -direction).
func MinkowskiSupport(a, b geom.Convex, direction mgl64.Vec3) mgl64.Vec3 {
	return a.Support(direction).Sub(b.Support(direction.Mul(-1)))
}

// GJK reports whether a and b overlap.
// On success the simplex is a tetrahedron enclosing the origin, except for touching
// contacts where it may hold fewer points.
func GJK(a, b geom.Convex, simplex *Simplex) bool {
	// Searching toward the other shape first saves iterations
	direction := b.Centre().Sub(a.Centre())
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	first := MinkowskiSupport(a, b, direction)
	simplex.set(first)
	direction = first.Mul(-1)
	if direction.LenSqr() < 1e-16 {
		return true
	}

	for range MaxIterations {
		p := MinkowskiSupport(a, b, direction)
		if p.Dot(direction) <= 0 {
			// p stops short of the origin: separated
			return false
		}
		simplex.push(p)

		var enclosed bool
		if direction, enclosed = simplex.reduce(direction); enclosed {
			return true
		}
	}

	return false
}

// reduce keeps the feature of the simplex closest to the origin. It returns the next
// search direction and whether the origin is enclosed.
func (s *Simplex) reduce(direction mgl64.Vec3) (mgl64.Vec3, bool) {
	switch s.Count {
	case 2:
		return s.reduceLine(direction)
	case 3:
		return s.reduceTriangle(direction)
	case 4:
		return s.reduceTetrahedron(direction)
	}
	return direction, false
}

// towardOrigin is the component of ao orthogonal to edge, inside the plane of both
func towardOrigin(edge, ao mgl64.Vec3) mgl64.Vec3 {
	return edge.Cross(ao).Cross(edge)
}

func (s *Simplex) reduceLine(direction mgl64.Vec3) (mgl64.Vec3, bool) {
	b, a := s.Points[0], s.Points[1]
	ab, ao := b.Sub(a), a.Mul(-1)

	if ab.LenSqr() < 1e-8 || ab.Dot(ao) <= 0 {
		if ao.LenSqr() < 1e-8 {
			return direction, true
		}
		s.set(a)
		return ao, false
	}

	perp := towardOrigin(ab, ao)
	if perp.LenSqr() < 1e-8 {
		// origin on the segment: touching
		return direction, true
	}
	return perp, false
}

func (s *Simplex) reduceTriangle(direction mgl64.Vec3) (mgl64.Vec3, bool) {
	c, b, a := s.Points[0], s.Points[1], s.Points[2]
	ab, ac, ao := b.Sub(a), c.Sub(a), a.Mul(-1)
	normal := ab.Cross(ac)

	switch {
	case normal.LenSqr() < 1e-10:
		// collinear
		s.set(b, a)
		return s.reduceLine(direction)
	case ab.Cross(normal).Dot(ao) > 0:
		s.set(b, a)
		return towardOrigin(ab, ao), false
	case normal.Cross(ac).Dot(ao) > 0:
		s.set(c, a)
		return towardOrigin(ac, ao), false
	case normal.Dot(ao) > 0:
		return normal, false
	default:
		// origin below the face: rewind so the next tetrahedron keeps a consistent winding
		s.set(a, c, b)
		return normal.Mul(-1), false
	}
}

func (s *Simplex) reduceTetrahedron(direction mgl64.Vec3) (mgl64.Vec3, bool) {
	d, c, b, a := s.Points[0], s.Points[1], s.Points[2], s.Points[3]
	ab, ac, ad, ao := b.Sub(a), c.Sub(a), d.Sub(a), a.Mul(-1)

	// outward normal of the face spanned by u, v, away from the opposite edge w
	outward := func(u, v, w mgl64.Vec3) mgl64.Vec3 {
		n := u.Cross(v)
		if n.Dot(w) > 0 {
			return n.Mul(-1)
		}
		return n
	}
	abc, acd, adb := outward(ab, ac, ad), outward(ac, ad, ab), outward(ad, ab, ac)

	switch {
	case abc.LenSqr() < 1e-10 || acd.LenSqr() < 1e-10 || adb.LenSqr() < 1e-10:
		// flat
		s.set(c, b, a)
	case abc.Dot(ao) > 0:
		s.set(c, b, a)
	case acd.Dot(ao) > 0:
		s.set(d, c, a)
	case adb.Dot(ao) > 0:
		s.set(b, d, a)
	default:
		return direction, true
	}
	return s.reduceTriangle(direction)
}
