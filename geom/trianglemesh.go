package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidMesh is returned when a triangle references a vertex that does not exist
var ErrInvalidMesh = errors.New("invalid triangle mesh")

// TriangleMesh is a static soup of triangles indexed by an octree in mesh space.
// Vertices and the octree are shared between clones; only the transform differs.
type TriangleMesh struct {
	transform Transform
	triangles []Triangle
	octree    *Octree
}

// NewTriangleMesh creates a mesh from vertices and CCW index triples
func NewTriangleMesh(vertices []mgl64.Vec3, indices [][3]int, maxTrianglesPerCell int, minCellSize float64) (*TriangleMesh, error) {
	triangles := make([]Triangle, 0, len(indices))
	for i, tri := range indices {
		for _, idx := range tri {
			if idx < 0 || idx >= len(vertices) {
				return nil, fmt.Errorf("%w: triangle %d references vertex %d of %d", ErrInvalidMesh, i, idx, len(vertices))
			}
		}
		triangles = append(triangles, NewTriangle(vertices[tri[0]], vertices[tri[1]], vertices[tri[2]]))
	}

	return &TriangleMesh{
		transform: NewTransform(),
		triangles: triangles,
		octree:    NewOctree(triangles, maxTrianglesPerCell, minCellSize),
	}, nil
}

func (m *TriangleMesh) primitive() {}

func (m *TriangleMesh) Type() PrimitiveType { return PrimitiveTypeTriangleMesh }

func (m *TriangleMesh) Transform() Transform { return m.transform }

func (m *TriangleMesh) SetTransform(transform Transform) { m.transform = transform }

func (m *TriangleMesh) Clone() Primitive {
	clone := *m
	return &clone
}

// NumTriangles returns the number of triangles of the mesh
func (m *TriangleMesh) NumTriangles() int {
	return len(m.triangles)
}

// LocalTriangle returns triangle i in mesh space
func (m *TriangleMesh) LocalTriangle(i int) Triangle {
	return m.triangles[i]
}

// Triangle returns triangle i in world space
func (m *TriangleMesh) Triangle(i int) Triangle {
	return m.triangles[i].Transformed(m.transform)
}

// TrianglesIntersecting appends to out the indices of the triangles whose box overlaps
// the world box
func (m *TriangleMesh) TrianglesIntersecting(box AABB, out []int) []int {
	return m.octree.Query(box.Transformed(m.transform.Inverse()), out)
}

func (m *TriangleMesh) Volume() float64 { return 0 }

func (m *TriangleMesh) SurfaceArea() float64 {
	var area float64
	for _, tri := range m.triangles {
		area += tri.Area()
	}
	return area
}

// MassProperties of a mesh are massless: meshes only ever belong to immovable bodies
func (m *TriangleMesh) MassProperties(PrimitiveProperties) (float64, mgl64.Vec3, mgl64.Mat3) {
	return masslessProperties()
}

func (m *TriangleMesh) BoundingBox() AABB {
	bounds := m.octree.Bounds()
	if bounds.IsEmpty() {
		return bounds
	}
	return bounds.Transformed(m.transform)
}

// SegmentIntersect returns the closest triangle crossed by seg, with the normal facing
// the segment origin
func (m *TriangleMesh) SegmentIntersect(seg Segment) (SegmentHit, bool, error) {
	local := Segment{
		Origin: m.transform.InverseApply(seg.Origin),
		Delta:  m.transform.InverseApplyDirection(seg.Delta),
	}

	best, bestIdx := math.Inf(1), -1
	for _, idx := range m.octree.Query(local.BoundingBox(), nil) {
		if frac, ok := m.triangles[idx].IntersectSegment(local); ok && frac < best {
			best, bestIdx = frac, idx
		}
	}
	if bestIdx < 0 {
		return SegmentHit{}, false, nil
	}

	normal := m.transform.ApplyDirection(m.triangles[bestIdx].Normal())
	if normal.Dot(seg.Delta) > 0 {
		normal = normal.Mul(-1)
	}

	return SegmentHit{
		Frac:     best,
		Position: seg.PointAt(best),
		Normal:   normal,
	}, true, nil
}
