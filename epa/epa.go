// Package epa implements the Expanding Polytope Algorithm: once gjk reports an overlap,
// it finds the penetration depth, the separating normal and a contact manifold.
//
// The polytope starts from the GJK tetrahedron and is expanded toward the boundary of
// the Minkowski difference until the face closest to the origin stops moving.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/quill/geom"
	"github.com/akmonengine/quill/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// EPAMaxIterations limits polytope expansion
	EPAMaxIterations = 32

	// EPAConvergenceTolerance is the distance gain under which the closest face is final
	EPAConvergenceTolerance = 0.001

	// EPAMinFaceDistance is the distance under which a face is considered degenerate
	EPAMinFaceDistance = 0.0001

	// NormalSnapThreshold clamps nearly-zero normal components to exactly zero
	NormalSnapThreshold = 1e-8

	// DegeneratePenetrationEstimate is the depth reported when GJK ended on a single point
	DegeneratePenetrationEstimate = 0.01

	polytopeInitialCapacity = 4
)

// ErrNoConvergence is returned when the polytope kept growing for EPAMaxIterations
var ErrNoConvergence = errors.New("epa did not converge")

// Point is a world contact point with its penetration depth
type Point struct {
	Position    mgl64.Vec3
	Penetration float64
}

// Result describes the overlap of two convex shapes
type Result struct {
	// Normal is the unit separation direction, from A toward B
	Normal mgl64.Vec3
	// Depth is the penetration along Normal, always positive
	Depth  float64
	Points []Point
}

// EPA computes the penetration of two overlapping convex shapes from the final GJK simplex.
func EPA(a, b geom.Convex, simplex *gjk.Simplex) (Result, error) {
	if simplex.Count < 4 {
		return handleDegenerateSimplex(a, b, simplex), nil
	}

	builder := polytopeBuilderPool.Get().(*PolytopeBuilder)
	defer polytopeBuilderPool.Put(builder)
	builder.Reset()

	if err := builder.BuildInitialFaces(simplex); err != nil {
		return Result{}, err
	}

	for i := 0; i < EPAMaxIterations; i++ {
		if len(builder.faces) == 0 {
			break
		}

		closestIndex := builder.FindClosestFaceIndex()
		closest := builder.faces[closestIndex]

		if closest.Distance < EPAMinFaceDistance {
			builder.removeFace(closestIndex)
			continue
		}

		support := gjk.MinkowskiSupport(a, b, closest.Normal)
		distance := support.Dot(closest.Normal)

		if distance-closest.Distance < EPAConvergenceTolerance {
			return newResult(a, b, closest.Normal, closest.Distance), nil
		}

		builder.AddPointAndRebuildFaces(support, closestIndex)
	}

	return Result{}, fmt.Errorf("%w after %d iterations", ErrNoConvergence, EPAMaxIterations)
}

func newResult(a, b geom.Convex, normal mgl64.Vec3, depth float64) Result {
	return Result{
		Normal: normal,
		Depth:  depth,
		Points: GenerateManifold(a, b, normal, depth),
	}
}

// handleDegenerateSimplex estimates a contact when GJK stopped before a tetrahedron,
// which happens for shapes that are barely touching.
func handleDegenerateSimplex(a, b geom.Convex, simplex *gjk.Simplex) Result {
	if simplex.Count >= 2 {
		p0 := simplex.Points[0]
		p1 := simplex.Points[1]

		closest := p0
		if p1.LenSqr() < p0.LenSqr() {
			closest = p1
		}

		depth := closest.Len()
		if depth > NormalSnapThreshold {
			return newResult(a, b, closest.Mul(1.0/depth), depth)
		}
	}

	normal := b.Centre().Sub(a.Centre())
	if length := normal.Len(); length < NormalSnapThreshold {
		normal = mgl64.Vec3{0, 1, 0}
	} else {
		normal = normal.Mul(1.0 / length)
	}

	return newResult(a, b, normal, DegeneratePenetrationEstimate)
}

// snapNormalToAxis zeroes tiny components of a normal and renormalizes it, which keeps
// axis-aligned resting contacts free of tangential jitter.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	clamped := normal
	for i := 0; i < 3; i++ {
		if math.Abs(clamped[i]) < NormalSnapThreshold {
			clamped[i] = 0
		}
	}

	length := clamped.Len()
	if length <= 1e-8 {
		return mgl64.Vec3{0, 1, 0}
	}
	return clamped.Mul(1.0 / length)
}
