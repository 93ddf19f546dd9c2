package epa

import (
	"math"

	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxManifoldPoints is the largest manifold GenerateManifold returns
const MaxManifoldPoints = 4

// GenerateManifold builds 1-4 contact points by Sutherland-Hodgman clipping.
//
// The feature of A facing normal and the feature of B facing -normal are queried; the
// one with fewer vertices is the incident feature and is clipped against the side planes
// of the other (the reference). Clipped points behind the reference face are kept, with
// their own depth below it.
func GenerateManifold(a, b geom.Convex, normal mgl64.Vec3, depth float64) []Point {
	featureA := a.ContactFeature(normal)
	featureB := b.ContactFeature(normal.Mul(-1))

	// Outward normal of the reference feature
	incident, reference := featureB, featureA
	refNormal := normal
	if len(featureA) < len(featureB) {
		incident, reference = featureA, featureB
		refNormal = normal.Mul(-1)
	}

	if len(incident) == 1 {
		return []Point{{Position: incident[0], Penetration: depth}}
	}

	clipped := clipIncidentAgainstReference(incident, reference, normal)

	var points []Point
	if len(reference) >= 3 {
		offset := reference[0].Dot(refNormal)
		for _, p := range clipped {
			if distance := p.Dot(refNormal) - offset; distance <= 0 {
				points = append(points, Point{Position: p, Penetration: math.Min(-distance, depth)})
			}
		}
	} else {
		// Edge against edge: no reference face to measure against
		for _, p := range clipped {
			points = append(points, Point{Position: p, Penetration: depth})
		}
	}

	if len(points) == 0 {
		points = append(points, Point{
			Position:    b.Support(normal.Mul(-1)),
			Penetration: depth,
		})
	}

	if len(points) > MaxManifoldPoints {
		points = reduceTo4Points(points, normal)
	}

	return points
}

// clipIncidentAgainstReference clips the incident polygon against the planes through
// each reference edge, perpendicular to the contact normal
func clipIncidentAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	if len(reference) < 2 {
		return incident
	}

	output := incident
	center := computeCenter(reference)

	edges := len(reference)
	if edges == 2 {
		// A segment has a single edge but two side planes, one per end
		return clipAgainstSegment(incident, reference[0], reference[1])
	}

	for i := 0; i < edges && len(output) > 0; i++ {
		v1 := reference[i]
		v2 := reference[(i+1)%edges]

		clipNormal := v2.Sub(v1).Cross(normal)
		if clipNormal.LenSqr() < 1e-12 {
			continue
		}
		clipNormal = clipNormal.Normalize()
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}

		output = clipPolygonAgainstPlane(output, v1, clipNormal)
	}

	return output
}

// clipAgainstSegment keeps the part of polygon lying between the planes through the
// segment ends, perpendicular to it
func clipAgainstSegment(polygon []mgl64.Vec3, p0, p1 mgl64.Vec3) []mgl64.Vec3 {
	axis := p1.Sub(p0)
	if axis.LenSqr() < 1e-12 {
		return polygon
	}
	axis = axis.Normalize()

	polygon = clipPolygonAgainstPlane(polygon, p0, axis)
	return clipPolygonAgainstPlane(polygon, p1, axis.Mul(-1))
}

// clipPolygonAgainstPlane keeps the part of polygon on the positive side of the plane
func clipPolygonAgainstPlane(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	if len(polygon) == 0 {
		return polygon
	}

	const tolerance = 1e-6

	// A segment is not a closed polygon: clip it once
	if len(polygon) == 2 {
		d0 := polygon[0].Sub(planePoint).Dot(planeNormal)
		d1 := polygon[1].Sub(planePoint).Dot(planeNormal)
		switch {
		case d0 >= -tolerance && d1 >= -tolerance:
			return polygon
		case d0 < -tolerance && d1 < -tolerance:
			return nil
		case d0 < -tolerance:
			return []mgl64.Vec3{lineIntersectPlane(polygon[0], polygon[1], planePoint, planeNormal), polygon[1]}
		default:
			return []mgl64.Vec3{polygon[0], lineIntersectPlane(polygon[0], polygon[1], planePoint, planeNormal)}
		}
	}

	var output []mgl64.Vec3
	for i := range polygon {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		if currentDist >= -tolerance {
			output = append(output, current)
			if nextDist < -tolerance {
				output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
			}
		} else if nextDist >= -tolerance {
			output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
		}
	}

	return output
}

// lineIntersectPlane returns the point where segment p1-p2 crosses the plane
func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	denom := dir.Dot(planeNormal)
	if math.Abs(denom) < 1e-10 {
		return p1
	}

	t := -p1.Sub(planePoint).Dot(planeNormal) / denom
	t = math.Max(0, math.Min(1, t))

	return p1.Add(dir.Mul(t))
}

func computeCenter(points []mgl64.Vec3) mgl64.Vec3 {
	if len(points) == 0 {
		return mgl64.Vec3{}
	}

	var sum mgl64.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / float64(len(points)))
}

// TangentBasis returns two unit vectors orthogonal to normal and to each other
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	tangent1 := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}

// reduceTo4Points keeps the extreme points along the two tangent directions
func reduceTo4Points(points []Point, normal mgl64.Vec3) []Point {
	tangent1, tangent2 := TangentBasis(normal)

	var extremes [4]int
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)

	for i, p := range points {
		x := p.Position.Dot(tangent1)
		y := p.Position.Dot(tangent2)

		if x < minX {
			minX, extremes[0] = x, i
		}
		if x > maxX {
			maxX, extremes[1] = x, i
		}
		if y < minY {
			minY, extremes[2] = y, i
		}
		if y > maxY {
			maxY, extremes[3] = y, i
		}
	}

	result := make([]Point, 0, MaxManifoldPoints)
	for i, idx := range extremes {
		duplicate := false
		for _, prev := range extremes[:i] {
			if prev == idx {
				duplicate = true
				break
			}
		}
		if !duplicate {
			result = append(result, points[idx])
		}
	}

	return result
}
