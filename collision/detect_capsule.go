package collision

import (
	"math"

	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// CapsuleCapsule detects the closest contact between two capsules
type CapsuleCapsule struct{}

func (CapsuleCapsule) Name() string { return "CapsuleCapsule" }

func (CapsuleCapsule) Types() (geom.PrimitiveType, geom.PrimitiveType) {
	return geom.PrimitiveTypeCapsule, geom.PrimitiveTypeCapsule
}

func (CapsuleCapsule) CollDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier) {
	oldCapsule0 := info.Skin0.OldPrimitive(info.Prim0).(*geom.Capsule)
	newCapsule0 := info.Skin0.NewPrimitive(info.Prim0).(*geom.Capsule)
	oldCapsule1 := info.Skin1.OldPrimitive(info.Prim1).(*geom.Capsule)
	newCapsule1 := info.Skin1.NewPrimitive(info.Prim1).(*geom.Capsule)

	oldSeg0, oldSeg1 := oldCapsule0.Segment(), oldCapsule1.Segment()
	oldDistSq, t0, t1 := geom.SegmentSegmentDistanceSq(oldSeg0, oldSeg1)
	newDistSq, _, _ := geom.SegmentSegmentDistanceSq(newCapsule0.Segment(), newCapsule1.Segment())

	radSum := oldCapsule0.Radius + oldCapsule1.Radius
	limit := radSum + tolerance
	if math.Min(oldDistSq, newDistSq) >= limit*limit {
		return
	}

	p0 := oldSeg0.PointAt(t0)
	p1 := oldSeg1.PointAt(t1)

	fallback := safeNormalize(oldCapsule0.Axis().Cross(oldCapsule1.Axis()), worldUp)
	dir := safeNormalize(p0.Sub(p1), fallback)
	depth := radSum - math.Sqrt(oldDistSq)
	worldPos := p1.Add(dir.Mul(oldCapsule1.Radius - 0.5*depth))

	pts := append(notifier.Scratch(), contactPoint(info, worldPos, depth))
	notify(notifier, info, dir, pts)
}

// CapsulePlane detects contacts between both ends of a capsule and a plane
type CapsulePlane struct{}

func (CapsulePlane) Name() string { return "CapsulePlane" }

func (CapsulePlane) Types() (geom.PrimitiveType, geom.PrimitiveType) {
	return geom.PrimitiveTypeCapsule, geom.PrimitiveTypePlane
}

func (CapsulePlane) CollDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier) {
	oldCapsule := info.Skin0.OldPrimitive(info.Prim0).(*geom.Capsule)
	newCapsule := info.Skin0.NewPrimitive(info.Prim0).(*geom.Capsule)
	oldPlane := info.Skin1.OldPrimitive(info.Prim1).(*geom.Plane)
	newPlane := info.Skin1.NewPrimitive(info.Prim1).(*geom.Plane)

	normal := oldPlane.Normal()
	radius := oldCapsule.Radius

	oldEnds := [2]mgl64.Vec3{oldCapsule.Start(), oldCapsule.End()}
	newEnds := [2]mgl64.Vec3{newCapsule.Start(), newCapsule.End()}

	pts := notifier.Scratch()
	for i := range oldEnds {
		oldDist := oldPlane.SignedDistance(oldEnds[i])
		newDist := newPlane.SignedDistance(newEnds[i])
		if math.Min(oldDist, newDist) > radius+tolerance {
			continue
		}

		worldPos := oldEnds[i].Sub(normal.Mul(radius))
		pts = append(pts, contactPoint(info, worldPos, radius-oldDist))
	}

	notify(notifier, info, normal, pts)
}

// CapsuleBox detects contacts between a capsule and an oriented box through GJK and EPA
type CapsuleBox struct{}

func (CapsuleBox) Name() string { return "CapsuleBox" }

func (CapsuleBox) Types() (geom.PrimitiveType, geom.PrimitiveType) {
	return geom.PrimitiveTypeCapsule, geom.PrimitiveTypeBox
}

func (CapsuleBox) CollDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier) {
	sweptConvexDetect(info, tolerance, notifier,
		info.Skin0.OldPrimitive(info.Prim0).(*geom.Capsule), info.Skin1.OldPrimitive(info.Prim1).(*geom.Box),
		info.Skin0.NewPrimitive(info.Prim0).(*geom.Capsule), info.Skin1.NewPrimitive(info.Prim1).(*geom.Box),
	)
}

// CapsuleTriangleMesh detects contacts between a capsule and the front faces of a mesh
type CapsuleTriangleMesh struct{}

func (CapsuleTriangleMesh) Name() string { return "CapsuleTriangleMesh" }

func (CapsuleTriangleMesh) Types() (geom.PrimitiveType, geom.PrimitiveType) {
	return geom.PrimitiveTypeCapsule, geom.PrimitiveTypeTriangleMesh
}

func (CapsuleTriangleMesh) CollDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier) {
	oldCapsule := info.Skin0.OldPrimitive(info.Prim0).(*geom.Capsule)
	newCapsule := info.Skin0.NewPrimitive(info.Prim0).(*geom.Capsule)
	oldMesh := info.Skin1.OldPrimitive(info.Prim1).(*geom.TriangleMesh)
	newMesh := info.Skin1.NewPrimitive(info.Prim1).(*geom.TriangleMesh)

	box := oldCapsule.BoundingBox()
	box.AddAABB(newCapsule.BoundingBox())
	candidates := oldMesh.TrianglesIntersecting(box.Expand(tolerance), nil)

	radius := oldCapsule.Radius
	limit := radius + tolerance
	oldSeg, newSeg := oldCapsule.Segment(), newCapsule.Segment()
	oldEnds := [2]mgl64.Vec3{oldSeg.Origin, oldSeg.End()}
	newEnds := [2]mgl64.Vec3{newSeg.Origin, newSeg.End()}

	pts := notifier.Scratch()
	var normalSum mgl64.Vec3

	add := func(point, onTriangle, normal mgl64.Vec3, distSq float64) {
		if len(pts) == MaxCollisionPoints {
			return
		}
		dir := safeNormalize(point.Sub(onTriangle), normal)
		pts = append(pts, contactPoint(info, onTriangle, radius-math.Sqrt(distSq)))
		normalSum = normalSum.Add(dir)
	}

	for _, idx := range candidates {
		oldTri := oldMesh.Triangle(idx)
		newTri := newMesh.Triangle(idx)
		normal := oldTri.Normal()

		// Resting capsules touch with both ends
		found := false
		for i := range oldEnds {
			if normal.Dot(oldEnds[i].Sub(oldTri.Points[0])) <= 0 {
				continue
			}
			oldDistSq, onTriangle := geom.PointTriangleDistanceSq(oldEnds[i], oldTri)
			newDistSq, _ := geom.PointTriangleDistanceSq(newEnds[i], newTri)
			if math.Min(oldDistSq, newDistSq) >= limit*limit {
				continue
			}
			add(oldEnds[i], onTriangle, normal, oldDistSq)
			found = true
		}
		if found {
			continue
		}

		oldDistSq, t, onTriangle := geom.SegmentTriangleDistanceSq(oldSeg, oldTri)
		segPoint := oldSeg.PointAt(t)
		if normal.Dot(segPoint.Sub(oldTri.Points[0])) <= 0 {
			continue
		}
		newDistSq, _, _ := geom.SegmentTriangleDistanceSq(newSeg, newTri)
		if math.Min(oldDistSq, newDistSq) >= limit*limit {
			continue
		}
		add(segPoint, onTriangle, normal, oldDistSq)
	}

	notify(notifier, info, safeNormalize(normalSum, worldUp), pts)
}
