package collision

import (
	"math"

	"github.com/akmonengine/quill/epa"
	"github.com/akmonengine/quill/geom"
	"github.com/akmonengine/quill/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// convexContacts grows a by tolerance and runs GJK then EPA against b. The returned normal
// points from b toward a; penetrations are measured without the tolerance.
func convexContacts(a, b geom.Convex, tolerance float64) (mgl64.Vec3, []epa.Point, bool) {
	grown := geom.Inflate(a, tolerance)

	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	if !gjk.GJK(grown, b, simplex) {
		return mgl64.Vec3{}, nil, false
	}

	result, err := epa.EPA(grown, b, simplex)
	if err != nil || len(result.Points) == 0 {
		return mgl64.Vec3{}, nil, false
	}

	points := result.Points
	for i := range points {
		points[i].Penetration -= tolerance
	}
	return result.Normal.Mul(-1), points, true
}

// sweptContacts tests the old configuration first, then the new one when the primitives
// only come into reach during the step
func sweptContacts(oldA, oldB, newA, newB geom.Convex, tolerance float64) (mgl64.Vec3, []epa.Point, bool) {
	if dir, points, ok := convexContacts(oldA, oldB, tolerance); ok {
		return dir, points, true
	}
	return convexContacts(newA, newB, tolerance)
}

func sweptConvexDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier, oldA, oldB, newA, newB geom.Convex) {
	dir, points, ok := sweptContacts(oldA, oldB, newA, newB, tolerance)
	if !ok {
		return
	}

	pts := notifier.Scratch()
	for _, p := range points {
		if len(pts) == MaxCollisionPoints {
			break
		}
		pts = append(pts, contactPoint(info, p.Position, p.Penetration))
	}
	notify(notifier, info, dir, pts)
}

// BoxBox detects contacts between two oriented boxes through GJK and EPA
type BoxBox struct{}

func (BoxBox) Name() string { return "BoxBox" }

func (BoxBox) Types() (geom.PrimitiveType, geom.PrimitiveType) {
	return geom.PrimitiveTypeBox, geom.PrimitiveTypeBox
}

func (BoxBox) CollDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier) {
	sweptConvexDetect(info, tolerance, notifier,
		info.Skin0.OldPrimitive(info.Prim0).(*geom.Box), info.Skin1.OldPrimitive(info.Prim1).(*geom.Box),
		info.Skin0.NewPrimitive(info.Prim0).(*geom.Box), info.Skin1.NewPrimitive(info.Prim1).(*geom.Box),
	)
}

// BoxPlane detects the box corners reaching a plane
type BoxPlane struct{}

func (BoxPlane) Name() string { return "BoxPlane" }

func (BoxPlane) Types() (geom.PrimitiveType, geom.PrimitiveType) {
	return geom.PrimitiveTypeBox, geom.PrimitiveTypePlane
}

func (BoxPlane) CollDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier) {
	oldBox := info.Skin0.OldPrimitive(info.Prim0).(*geom.Box)
	newBox := info.Skin0.NewPrimitive(info.Prim0).(*geom.Box)
	oldPlane := info.Skin1.OldPrimitive(info.Prim1).(*geom.Plane)
	newPlane := info.Skin1.NewPrimitive(info.Prim1).(*geom.Plane)

	oldCorners := oldBox.Corners()
	newCorners := newBox.Corners()

	pts := notifier.Scratch()
	for i := range oldCorners {
		oldDist := oldPlane.SignedDistance(oldCorners[i])
		newDist := newPlane.SignedDistance(newCorners[i])
		if math.Min(oldDist, newDist) > tolerance {
			continue
		}
		pts = append(pts, contactPoint(info, oldCorners[i], -oldDist))
	}

	notify(notifier, info, oldPlane.Normal(), pts)
}

// BoxTriangleMesh detects contacts between a box and the front faces of a mesh
type BoxTriangleMesh struct{}

func (BoxTriangleMesh) Name() string { return "BoxTriangleMesh" }

func (BoxTriangleMesh) Types() (geom.PrimitiveType, geom.PrimitiveType) {
	return geom.PrimitiveTypeBox, geom.PrimitiveTypeTriangleMesh
}

func (BoxTriangleMesh) CollDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier) {
	oldBox := info.Skin0.OldPrimitive(info.Prim0).(*geom.Box)
	newBox := info.Skin0.NewPrimitive(info.Prim0).(*geom.Box)
	oldMesh := info.Skin1.OldPrimitive(info.Prim1).(*geom.TriangleMesh)
	newMesh := info.Skin1.NewPrimitive(info.Prim1).(*geom.TriangleMesh)

	box := oldBox.BoundingBox()
	box.AddAABB(newBox.BoundingBox())
	candidates := oldMesh.TrianglesIntersecting(box.Expand(tolerance), nil)

	pts := notifier.Scratch()
	var normalSum mgl64.Vec3
	for _, idx := range candidates {
		if len(pts) == MaxCollisionPoints {
			break
		}

		oldTri := oldMesh.Triangle(idx)
		normal := oldTri.Normal()
		if normal.Dot(oldBox.Centre().Sub(oldTri.Points[0])) <= 0 {
			continue
		}

		dir, points, ok := sweptContacts(oldBox, oldTri, newBox, newMesh.Triangle(idx), tolerance)
		if !ok || dir.Dot(normal) <= 0 {
			continue
		}

		for _, p := range points {
			if len(pts) == MaxCollisionPoints {
				break
			}
			pts = append(pts, contactPoint(info, p.Position, p.Penetration))
		}
		normalSum = normalSum.Add(dir)
	}

	notify(notifier, info, safeNormalize(normalSum, worldUp), pts)
}
