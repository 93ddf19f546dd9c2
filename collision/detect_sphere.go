package collision

import (
	"math"

	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// SphereSphere detects contacts between two spheres
type SphereSphere struct{}

func (SphereSphere) Name() string { return "SphereSphere" }

func (SphereSphere) Types() (geom.PrimitiveType, geom.PrimitiveType) {
	return geom.PrimitiveTypeSphere, geom.PrimitiveTypeSphere
}

func (SphereSphere) CollDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier) {
	oldSphere0 := info.Skin0.OldPrimitive(info.Prim0).(*geom.Sphere)
	newSphere0 := info.Skin0.NewPrimitive(info.Prim0).(*geom.Sphere)
	oldSphere1 := info.Skin1.OldPrimitive(info.Prim1).(*geom.Sphere)
	newSphere1 := info.Skin1.NewPrimitive(info.Prim1).(*geom.Sphere)

	oldDelta := oldSphere0.Centre().Sub(oldSphere1.Centre())
	newDelta := newSphere0.Centre().Sub(newSphere1.Centre())

	radSum := oldSphere0.Radius + oldSphere1.Radius
	limit := radSum + tolerance
	if math.Min(oldDelta.LenSqr(), newDelta.LenSqr()) >= limit*limit {
		return
	}

	oldDist := oldDelta.Len()
	depth := radSum - oldDist
	dir := safeNormalize(oldDelta, worldUp)
	worldPos := oldSphere1.Centre().Add(dir.Mul(oldSphere1.Radius - 0.5*depth))

	pts := append(notifier.Scratch(), contactPoint(info, worldPos, depth))
	notify(notifier, info, dir, pts)
}

// SpherePlane detects contacts between a sphere and the front side of a plane
type SpherePlane struct{}

func (SpherePlane) Name() string { return "SpherePlane" }

func (SpherePlane) Types() (geom.PrimitiveType, geom.PrimitiveType) {
	return geom.PrimitiveTypeSphere, geom.PrimitiveTypePlane
}

func (SpherePlane) CollDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier) {
	oldSphere := info.Skin0.OldPrimitive(info.Prim0).(*geom.Sphere)
	newSphere := info.Skin0.NewPrimitive(info.Prim0).(*geom.Sphere)
	oldPlane := info.Skin1.OldPrimitive(info.Prim1).(*geom.Plane)
	newPlane := info.Skin1.NewPrimitive(info.Prim1).(*geom.Plane)

	oldDist := oldPlane.SignedDistance(oldSphere.Centre())
	newDist := newPlane.SignedDistance(newSphere.Centre())

	if math.Min(oldDist, newDist) > oldSphere.Radius+tolerance {
		return
	}

	normal := oldPlane.Normal()
	depth := oldSphere.Radius - oldDist
	worldPos := oldSphere.Centre().Sub(normal.Mul(oldSphere.Radius))

	pts := append(notifier.Scratch(), contactPoint(info, worldPos, depth))
	notify(notifier, info, normal, pts)
}

// SphereBox detects contacts between a sphere and an oriented box
type SphereBox struct{}

func (SphereBox) Name() string { return "SphereBox" }

func (SphereBox) Types() (geom.PrimitiveType, geom.PrimitiveType) {
	return geom.PrimitiveTypeSphere, geom.PrimitiveTypeBox
}

func (SphereBox) CollDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier) {
	oldSphere := info.Skin0.OldPrimitive(info.Prim0).(*geom.Sphere)
	newSphere := info.Skin0.NewPrimitive(info.Prim0).(*geom.Sphere)
	oldBox := info.Skin1.OldPrimitive(info.Prim1).(*geom.Box)
	newBox := info.Skin1.NewPrimitive(info.Prim1).(*geom.Box)

	oldBoxPoint, oldDist := oldBox.ClosestPoint(oldSphere.Centre())
	_, newDist := newBox.ClosestPoint(newSphere.Centre())

	if math.Min(oldDist, newDist) > oldSphere.Radius+tolerance {
		return
	}

	centre := oldSphere.Centre()
	dir := safeNormalize(centre.Sub(oldBox.Centre()), worldUp)
	switch {
	case oldDist > geom.Epsilon:
		dir = centre.Sub(oldBoxPoint).Normalize()
	case oldDist < -geom.Epsilon:
		// centre inside the box: oldBoxPoint lies on the nearest face
		dir = oldBoxPoint.Sub(centre).Normalize()
	}

	depth := oldSphere.Radius - oldDist

	pts := append(notifier.Scratch(), contactPoint(info, oldBoxPoint, depth))
	notify(notifier, info, dir, pts)
}

// SphereCapsule detects contacts between a sphere and a capsule
type SphereCapsule struct{}

func (SphereCapsule) Name() string { return "SphereCapsule" }

func (SphereCapsule) Types() (geom.PrimitiveType, geom.PrimitiveType) {
	return geom.PrimitiveTypeSphere, geom.PrimitiveTypeCapsule
}

func (SphereCapsule) CollDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier) {
	oldSphere := info.Skin0.OldPrimitive(info.Prim0).(*geom.Sphere)
	newSphere := info.Skin0.NewPrimitive(info.Prim0).(*geom.Sphere)
	oldCapsule := info.Skin1.OldPrimitive(info.Prim1).(*geom.Capsule)
	newCapsule := info.Skin1.NewPrimitive(info.Prim1).(*geom.Capsule)

	oldSeg := oldCapsule.Segment()
	oldDistSq, t := geom.PointSegmentDistanceSq(oldSphere.Centre(), oldSeg)
	newDistSq, _ := geom.PointSegmentDistanceSq(newSphere.Centre(), newCapsule.Segment())

	radSum := oldSphere.Radius + oldCapsule.Radius
	limit := radSum + tolerance
	if math.Min(oldDistSq, newDistSq) >= limit*limit {
		return
	}

	segPoint := oldSeg.PointAt(t)
	depth := radSum - math.Sqrt(oldDistSq)
	dir := safeNormalize(oldSphere.Centre().Sub(segPoint), worldUp)
	worldPos := segPoint.Add(dir.Mul(oldCapsule.Radius - 0.5*depth))

	pts := append(notifier.Scratch(), contactPoint(info, worldPos, depth))
	notify(notifier, info, dir, pts)
}

// SphereTriangleMesh detects contacts between a sphere and the front faces of a mesh
type SphereTriangleMesh struct{}

func (SphereTriangleMesh) Name() string { return "SphereTriangleMesh" }

func (SphereTriangleMesh) Types() (geom.PrimitiveType, geom.PrimitiveType) {
	return geom.PrimitiveTypeSphere, geom.PrimitiveTypeTriangleMesh
}

func (SphereTriangleMesh) CollDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier) {
	oldSphere := info.Skin0.OldPrimitive(info.Prim0).(*geom.Sphere)
	newSphere := info.Skin0.NewPrimitive(info.Prim0).(*geom.Sphere)
	oldMesh := info.Skin1.OldPrimitive(info.Prim1).(*geom.TriangleMesh)
	newMesh := info.Skin1.NewPrimitive(info.Prim1).(*geom.TriangleMesh)

	box := oldSphere.BoundingBox()
	box.AddAABB(newSphere.BoundingBox())
	candidates := oldMesh.TrianglesIntersecting(box.Expand(tolerance), nil)

	radius := oldSphere.Radius
	limit := radius + tolerance
	oldCentre := oldSphere.Centre()

	pts := notifier.Scratch()
	var normalSum mgl64.Vec3
	for _, idx := range candidates {
		if len(pts) == MaxCollisionPoints {
			break
		}

		tri := oldMesh.Triangle(idx)
		normal := tri.Normal()
		if normal.Dot(oldCentre.Sub(tri.Points[0])) <= 0 {
			continue
		}

		oldDistSq, oldPoint := geom.PointTriangleDistanceSq(oldCentre, tri)
		newDistSq, _ := geom.PointTriangleDistanceSq(newSphere.Centre(), newMesh.Triangle(idx))
		if math.Min(oldDistSq, newDistSq) >= limit*limit {
			continue
		}

		dir := safeNormalize(oldCentre.Sub(oldPoint), normal)
		depth := radius - math.Sqrt(oldDistSq)

		pts = append(pts, contactPoint(info, oldPoint, depth))
		normalSum = normalSum.Add(dir)
	}

	notify(notifier, info, safeNormalize(normalSum, worldUp), pts)
}
