package geom

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// ========== MASS TESTS ==========
func TestSphereMassProperties(t *testing.T) {
	tests := []struct {
		name         string
		position     mgl64.Vec3
		props        PrimitiveProperties
		wantMass     float64
		expectedDiag mgl64.Vec3
	}{
		{
			name:         "solid at origin",
			position:     mgl64.Vec3{0, 0, 0},
			props:        NewPrimitiveProperties(Solid, MassTypeMass, 2),
			wantMass:     2,
			expectedDiag: mgl64.Vec3{0.8, 0.8, 0.8}, // 0.4 * m * r
		},
		{
			name:         "solid offset along Y",
			position:     mgl64.Vec3{0, 2, 0},
			props:        NewPrimitiveProperties(Solid, MassTypeMass, 2),
			wantMass:     2,
			expectedDiag: mgl64.Vec3{8.8, 0.8, 8.8}, // + m * d² on X and Z
		},
		{
			name:         "shell at origin",
			position:     mgl64.Vec3{0, 0, 0},
			props:        NewPrimitiveProperties(Shell, MassTypeMass, 3),
			wantMass:     3,
			expectedDiag: mgl64.Vec3{2, 2, 2}, // 2/3 * m * r²
		},
		{
			name:         "solid from density",
			position:     mgl64.Vec3{0, 0, 0},
			props:        NewPrimitiveProperties(Solid, MassTypeDensity, 3),
			wantMass:     4 * math.Pi,
			expectedDiag: mgl64.Vec3{0.4 * 4 * math.Pi, 0.4 * 4 * math.Pi, 0.4 * 4 * math.Pi},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sphere := NewSphere(tt.position, 1)
			mass, com, inertia := sphere.MassProperties(tt.props)

			if !floatEqual(mass, tt.wantMass, 1e-9) {
				t.Errorf("mass = %v, want %v", mass, tt.wantMass)
			}
			if !vec3Equal(com, tt.position, 1e-9) {
				t.Errorf("centerOfMass = %v, want %v", com, tt.position)
			}
			if !vec3Equal(inertia.Diag(), tt.expectedDiag, 1e-9) {
				t.Errorf("inertia diagonal = %v, want %v", inertia.Diag(), tt.expectedDiag)
			}
		})
	}
}

func TestBoxMassProperties(t *testing.T) {
	t.Run("solid cube", func(t *testing.T) {
		box := NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Ident3(), mgl64.Vec3{2, 2, 2})
		mass, com, inertia := box.MassProperties(NewPrimitiveProperties(Solid, MassTypeMass, 12))

		if mass != 12 {
			t.Errorf("mass = %v, want 12", mass)
		}
		if com != (mgl64.Vec3{}) {
			t.Errorf("centerOfMass = %v, want origin", com)
		}
		if !mat3Equal(inertia, DiagonalTensor(8, 8, 8), 1e-9) {
			t.Errorf("inertia = %v, want diag(8, 8, 8)", inertia)
		}
	})

	t.Run("solid from density", func(t *testing.T) {
		box := NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Ident3(), mgl64.Vec3{1, 2, 3})
		mass, _, _ := box.MassProperties(NewPrimitiveProperties(Solid, MassTypeDensity, 2))
		if !floatEqual(mass, 12, 1e-9) {
			t.Errorf("mass = %v, want 12", mass)
		}
	})

	t.Run("shell is harder to spin than solid", func(t *testing.T) {
		box := NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Ident3(), mgl64.Vec3{2, 2, 2})
		_, _, solid := box.MassProperties(NewPrimitiveProperties(Solid, MassTypeMass, 12))
		_, _, shell := box.MassProperties(NewPrimitiveProperties(Shell, MassTypeMass, 12))

		if shell.At(0, 0) <= solid.At(0, 0) {
			t.Errorf("shell Ixx = %v, solid Ixx = %v: shell should be larger", shell.At(0, 0), solid.At(0, 0))
		}
	})

	t.Run("rotated box keeps a symmetric tensor", func(t *testing.T) {
		rotation := RotationFromAxisAngle(mgl64.Vec3{1, 1, 0}, 0.6)
		box := NewBox(mgl64.Vec3{1, 0, 0}, rotation, mgl64.Vec3{1, 2, 3})
		_, _, inertia := box.MassProperties(NewPrimitiveProperties(Solid, MassTypeMass, 5))

		if !mat3Equal(inertia, inertia.Transpose(), 1e-9) {
			t.Errorf("inertia is not symmetric: %v", inertia)
		}
	})
}

func TestMasslessMassProperties(t *testing.T) {
	moved := NewTransformAt(mgl64.Vec3{3, -2, 5}, RotationFromAxisAngle(mgl64.Vec3{0, 1, 0}, 0.7))

	plane := NewPlane(mgl64.Vec3{0, 1, 0}, 0)
	plane.SetTransform(moved)
	aabox := NewAABox(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{2, 2, 2})
	aabox.SetTransform(moved)
	mesh := quadMesh(t)
	mesh.SetTransform(moved)

	tests := []struct {
		name string
		prim Primitive
	}{
		{"plane", plane},
		{"aabox", aabox},
		{"triangle mesh", mesh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mass, com, inertia := tt.prim.MassProperties(NewPrimitiveProperties(Solid, MassTypeDensity, 4))
			if mass != 0 {
				t.Errorf("mass = %v, want 0", mass)
			}
			if com != (mgl64.Vec3{}) {
				t.Errorf("centerOfMass = %v, want zero", com)
			}
			if inertia != mgl64.Ident3() {
				t.Errorf("inertia = %v, want identity", inertia)
			}
		})
	}
}

func TestSafeInverse(t *testing.T) {
	// 10 cm, 100 g solid cube
	_, _, small := NewBox(mgl64.Vec3{}, mgl64.Ident3(), mgl64.Vec3{0.1, 0.1, 0.1}).
		MassProperties(NewPrimitiveProperties(Solid, MassTypeMass, 0.1))

	tests := []struct {
		name     string
		m        mgl64.Mat3
		singular bool
	}{
		{"identity", mgl64.Ident3(), false},
		{"small box", small, false},
		{"tiny diagonal", DiagonalTensor(1e-7, 2e-7, 3e-7), false},
		{"zero", mgl64.Mat3{}, true},
		{"flat", DiagonalTensor(1, 1, 0), true},
		{"rank one", mgl64.Mat3{1, 1, 1, 1, 1, 1, 1, 1, 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := SafeInverse(tt.m)
			if tt.singular {
				if inv != (mgl64.Mat3{}) {
					t.Errorf("SafeInverse(%v) = %v, want zero", tt.m, inv)
				}
				return
			}
			if !mat3Equal(tt.m.Mul3(inv), mgl64.Ident3(), 1e-9) {
				t.Errorf("m * SafeInverse(m) = %v, want identity", tt.m.Mul3(inv))
			}
		})
	}
}

func TestTransferAxesRoundTrip(t *testing.T) {
	base := DiagonalTensor(1, 2, 3)
	offset := mgl64.Vec3{1, -2, 0.5}

	moved := TransferAxes(base, 4, offset)
	back := InverseTransferAxes(moved, 4, offset)

	if !mat3Equal(back, base, 1e-9) {
		t.Errorf("InverseTransferAxes(TransferAxes(I)) = %v, want %v", back, base)
	}
	// Off-diagonal term: -m * x * y
	if !floatEqual(moved.At(0, 1), 8, 1e-9) {
		t.Errorf("Ixy = %v, want 8", moved.At(0, 1))
	}
}

func TestCapsuleMassProperties(t *testing.T) {
	capsule := NewCapsule(mgl64.Vec3{0, 0, 0}, mgl64.Ident3(), 2, 0.5)
	mass, com, inertia := capsule.MassProperties(NewPrimitiveProperties(Solid, MassTypeMass, 10))

	if mass != 10 {
		t.Errorf("mass = %v, want 10", mass)
	}
	if !vec3Equal(com, mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("centerOfMass = %v, want (0, 0, 1)", com)
	}

	// Around its own centre, the long axis is the easiest to spin
	local := InverseTransferAxes(inertia, mass, com)
	if local.At(2, 2) >= local.At(0, 0) {
		t.Errorf("axial inertia %v should be below perpendicular inertia %v", local.At(2, 2), local.At(0, 0))
	}
	if !floatEqual(local.At(0, 0), local.At(1, 1), 1e-9) {
		t.Errorf("perpendicular inertias differ: %v vs %v", local.At(0, 0), local.At(1, 1))
	}
}

// ========== SEGMENT INTERSECTION TESTS ==========
func TestBoxSegmentIntersect(t *testing.T) {
	tests := []struct {
		name       string
		box        *Box
		seg        Segment
		wantHit    bool
		wantFrac   float64
		wantNormal mgl64.Vec3
	}{
		{
			name:       "through the -X face",
			box:        NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Ident3(), mgl64.Vec3{2, 2, 2}),
			seg:        NewSegment(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}),
			wantHit:    true,
			wantFrac:   0.4,
			wantNormal: mgl64.Vec3{-1, 0, 0},
		},
		{
			name:       "from above",
			box:        NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Ident3(), mgl64.Vec3{2, 2, 2}),
			seg:        NewSegment(mgl64.Vec3{0.5, 5, 0.5}, mgl64.Vec3{0.5, -5, 0.5}),
			wantHit:    true,
			wantFrac:   0.4,
			wantNormal: mgl64.Vec3{0, 1, 0},
		},
		{
			name:       "rotated box",
			box:        NewBox(mgl64.Vec3{0, 0, 0}, RotationFromAxisAngle(mgl64.Vec3{0, 1, 0}, math.Pi/2), mgl64.Vec3{2, 4, 6}),
			seg:        NewSegment(mgl64.Vec3{-10, 0, 0}, mgl64.Vec3{10, 0, 0}),
			wantHit:    true,
			wantFrac:   0.35,
			wantNormal: mgl64.Vec3{-1, 0, 0},
		},
		{
			name:    "miss",
			box:     NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Ident3(), mgl64.Vec3{2, 2, 2}),
			seg:     NewSegment(mgl64.Vec3{-5, 3, 0}, mgl64.Vec3{5, 3, 0}),
			wantHit: false,
		},
		{
			name:    "too short",
			box:     NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Ident3(), mgl64.Vec3{2, 2, 2}),
			seg:     NewSegment(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{-3, 0, 0}),
			wantHit: false,
		},
		{
			name:       "starting inside",
			box:        NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Ident3(), mgl64.Vec3{2, 2, 2}),
			seg:        NewSegment(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{5, 0, 0}),
			wantHit:    true,
			wantFrac:   0,
			wantNormal: mgl64.Vec3{-1, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok, err := tt.box.SegmentIntersect(tt.seg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantHit {
				t.Fatalf("hit = %v, want %v", ok, tt.wantHit)
			}
			if !ok {
				return
			}
			if !floatEqual(hit.Frac, tt.wantFrac, 1e-6) {
				t.Errorf("Frac = %v, want %v", hit.Frac, tt.wantFrac)
			}
			if !vec3Equal(hit.Normal, tt.wantNormal, 1e-6) {
				t.Errorf("Normal = %v, want %v", hit.Normal, tt.wantNormal)
			}
			if !vec3Equal(hit.Position, tt.seg.PointAt(hit.Frac), 1e-9) {
				t.Errorf("Position = %v is not on the segment", hit.Position)
			}
		})
	}
}

func TestSphereSegmentIntersect(t *testing.T) {
	sphere := NewSphere(mgl64.Vec3{0, 0, 0}, 1)

	hit, ok, err := sphere.SegmentIntersect(NewSegment(mgl64.Vec3{0, 0, -3}, mgl64.Vec3{0, 0, 3}))
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if !floatEqual(hit.Frac, 1.0/3.0, 1e-9) {
		t.Errorf("Frac = %v, want 1/3", hit.Frac)
	}
	if !vec3Equal(hit.Normal, mgl64.Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("Normal = %v, want (0, 0, -1)", hit.Normal)
	}

	if _, ok, _ := sphere.SegmentIntersect(NewSegment(mgl64.Vec3{0, 2, -3}, mgl64.Vec3{0, 2, 3})); ok {
		t.Errorf("segment passing above the sphere should miss")
	}
}

func TestCapsuleSegmentIntersect(t *testing.T) {
	capsule := NewCapsule(mgl64.Vec3{0, 0, 0}, mgl64.Ident3(), 2, 1)

	tests := []struct {
		name       string
		seg        Segment
		wantFrac   float64
		wantNormal mgl64.Vec3
	}{
		{"cylinder side", NewSegment(mgl64.Vec3{5, 0, 1}, mgl64.Vec3{-5, 0, 1}), 0.4, mgl64.Vec3{1, 0, 0}},
		{"end cap", NewSegment(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, -10}), 0.35, mgl64.Vec3{0, 0, 1}},
		{"start cap", NewSegment(mgl64.Vec3{0, 0, -10}, mgl64.Vec3{0, 0, 10}), 0.45, mgl64.Vec3{0, 0, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok, err := capsule.SegmentIntersect(tt.seg)
			if err != nil || !ok {
				t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
			}
			if !floatEqual(hit.Frac, tt.wantFrac, 1e-9) {
				t.Errorf("Frac = %v, want %v", hit.Frac, tt.wantFrac)
			}
			if !vec3Equal(hit.Normal, tt.wantNormal, 1e-9) {
				t.Errorf("Normal = %v, want %v", hit.Normal, tt.wantNormal)
			}
		})
	}
}

func TestAABoxSegmentIntersectNotImplemented(t *testing.T) {
	box := NewAABox(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{-1, -1, -1})

	_, ok, err := box.SegmentIntersect(NewSegment(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}))
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("err = %v, want ErrNotImplemented", err)
	}
	if ok {
		t.Errorf("an unsupported query must not report a hit")
	}
	if box.Min != (mgl64.Vec3{-1, -1, -1}) {
		t.Errorf("corners were not sorted: min = %v", box.Min)
	}
}

// ========== PLANE TESTS ==========
func TestPlaneFromPoints(t *testing.T) {
	tests := []struct {
		name         string
		p0, p1, p2   mgl64.Vec3
		wantNormal   mgl64.Vec3
		wantDistance float64
	}{
		{
			name:         "ground",
			p0:           mgl64.Vec3{0, 0, 0},
			p1:           mgl64.Vec3{0, 0, 1},
			p2:           mgl64.Vec3{1, 0, 0},
			wantNormal:   mgl64.Vec3{0, 1, 0},
			wantDistance: 0,
		},
		{
			name:         "raised ground",
			p0:           mgl64.Vec3{0, 2, 0},
			p1:           mgl64.Vec3{0, 2, 1},
			p2:           mgl64.Vec3{1, 2, 0},
			wantNormal:   mgl64.Vec3{0, 1, 0},
			wantDistance: -2,
		},
		{
			name:         "collinear points fall back to up",
			p0:           mgl64.Vec3{0, 0, 0},
			p1:           mgl64.Vec3{1, 1, 1},
			p2:           mgl64.Vec3{2, 2, 2},
			wantNormal:   mgl64.Vec3{0, 1, 0},
			wantDistance: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plane := NewPlaneFromPoints(tt.p0, tt.p1, tt.p2)
			if !vec3Equal(plane.Normal(), tt.wantNormal, 1e-9) {
				t.Errorf("Normal = %v, want %v", plane.Normal(), tt.wantNormal)
			}
			if !floatEqual(plane.Distance(), tt.wantDistance, 1e-9) {
				t.Errorf("Distance = %v, want %v", plane.Distance(), tt.wantDistance)
			}
		})
	}
}

func TestPlaneTransform(t *testing.T) {
	plane := NewPlane(mgl64.Vec3{0, 1, 0}, 0)
	plane.SetTransform(NewTransformAt(mgl64.Vec3{0, 3, 0}, mgl64.Ident3()))

	if !floatEqual(plane.SignedDistance(mgl64.Vec3{7, 5, -2}), 2, 1e-9) {
		t.Errorf("SignedDistance = %v, want 2", plane.SignedDistance(mgl64.Vec3{7, 5, -2}))
	}
	if !vec3Equal(plane.Project(mgl64.Vec3{1, 10, 1}), mgl64.Vec3{1, 3, 1}, 1e-9) {
		t.Errorf("Project = %v, want (1, 3, 1)", plane.Project(mgl64.Vec3{1, 10, 1}))
	}
}

func TestPlaneBoundingBox(t *testing.T) {
	up := NewPlane(mgl64.Vec3{0, 1, 0}, -2)
	box := up.BoundingBox()
	if box.Max.Y() != 2+PlaneBoundsMargin || box.Min.Y() != -PlaneExtent {
		t.Errorf("upward plane box Y = [%v, %v], want [%v, %v]", box.Min.Y(), box.Max.Y(), -PlaneExtent, 2+PlaneBoundsMargin)
	}
	if box.Max.X() != PlaneExtent {
		t.Errorf("upward plane box must stay huge along X")
	}

	down := NewPlane(mgl64.Vec3{0, -1, 0}, 2)
	box = down.BoundingBox()
	if box.Min.Y() != 2-PlaneBoundsMargin || box.Max.Y() != PlaneExtent {
		t.Errorf("downward plane box Y = [%v, %v]", box.Min.Y(), box.Max.Y())
	}

	tilted := NewPlane(mgl64.Vec3{1, 1, 0}, 0)
	box = tilted.BoundingBox()
	if box.Max.Y() != PlaneExtent || box.Max.X() != PlaneExtent {
		t.Errorf("tilted plane box must be huge, got %v", box)
	}
}

func TestPlaneSegmentIntersect(t *testing.T) {
	plane := NewPlane(mgl64.Vec3{0, 1, 0}, 0)

	hit, ok, err := plane.SegmentIntersect(NewSegment(mgl64.Vec3{1, 5, 1}, mgl64.Vec3{1, -5, 1}))
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if !floatEqual(hit.Frac, 0.5, 1e-9) || !vec3Equal(hit.Position, mgl64.Vec3{1, 0, 1}, 1e-9) {
		t.Errorf("hit = %+v, want frac 0.5 at (1, 0, 1)", hit)
	}

	if _, ok, _ := plane.SegmentIntersect(NewSegment(mgl64.Vec3{1, -5, 1}, mgl64.Vec3{1, 5, 1})); ok {
		t.Errorf("a segment leaving the half-space must not hit")
	}
}

// ========== TRIANGLE MESH TESTS ==========
func quadMesh(t *testing.T) *TriangleMesh {
	t.Helper()
	vertices := []mgl64.Vec3{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}}
	mesh, err := NewTriangleMesh(vertices, [][3]int{{0, 3, 2}, {0, 2, 1}}, 0, 0)
	if err != nil {
		t.Fatalf("NewTriangleMesh: %v", err)
	}
	return mesh
}

func TestTriangleMeshSegmentIntersect(t *testing.T) {
	mesh := quadMesh(t)

	hit, ok, err := mesh.SegmentIntersect(NewSegment(mgl64.Vec3{0.5, 5, 0.5}, mgl64.Vec3{0.5, -5, 0.5}))
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if !floatEqual(hit.Frac, 0.5, 1e-9) || !vec3Equal(hit.Normal, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("hit = %+v, want frac 0.5 normal (0, 1, 0)", hit)
	}

	mesh.SetTransform(NewTransformAt(mgl64.Vec3{0, 1, 0}, mgl64.Ident3()))
	hit, ok, _ = mesh.SegmentIntersect(NewSegment(mgl64.Vec3{0.5, 5, 0.5}, mgl64.Vec3{0.5, -5, 0.5}))
	if !ok || !floatEqual(hit.Frac, 0.4, 1e-9) {
		t.Errorf("moved mesh hit = %+v ok=%v, want frac 0.4", hit, ok)
	}

	// Hit from below: normal faces the origin of the segment
	hit, ok, _ = mesh.SegmentIntersect(NewSegment(mgl64.Vec3{0.5, -5, 0.5}, mgl64.Vec3{0.5, 5, 0.5}))
	if !ok || !vec3Equal(hit.Normal, mgl64.Vec3{0, -1, 0}, 1e-9) {
		t.Errorf("hit from below = %+v ok=%v, want normal (0, -1, 0)", hit, ok)
	}
}

func TestTriangleMeshInvalidIndex(t *testing.T) {
	_, err := NewTriangleMesh([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}, [][3]int{{0, 1, 2}}, 0, 0)
	if !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("err = %v, want ErrInvalidMesh", err)
	}
}

func TestOctreeQueryMatchesBruteForce(t *testing.T) {
	var vertices []mgl64.Vec3
	var indices [][3]int
	const n = 12
	for i := 0; i <= n; i++ {
		for j := 0; j <= n; j++ {
			vertices = append(vertices, mgl64.Vec3{float64(i), math.Sin(float64(i+j)) * 0.3, float64(j)})
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a := i*(n+1) + j
			b := a + 1
			c := a + n + 1
			d := c + 1
			indices = append(indices, [3]int{a, b, d}, [3]int{a, d, c})
		}
	}

	mesh, err := NewTriangleMesh(vertices, indices, 4, 0.5)
	if err != nil {
		t.Fatalf("NewTriangleMesh: %v", err)
	}

	queries := []AABB{
		{Min: mgl64.Vec3{2.5, -1, 2.5}, Max: mgl64.Vec3{3.5, 1, 4.2}},
		{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{0.2, 1, 0.2}},
		{Min: mgl64.Vec3{20, -1, 20}, Max: mgl64.Vec3{21, 1, 21}},
		{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{13, 1, 13}},
	}

	for _, query := range queries {
		got := mesh.TrianglesIntersecting(query, nil)

		var want []int
		for i := 0; i < mesh.NumTriangles(); i++ {
			if mesh.LocalTriangle(i).BoundingBox().Overlaps(query) {
				want = append(want, i)
			}
		}

		if len(got) != len(want) {
			t.Fatalf("query %v: got %d triangles, want %d", query, len(got), len(want))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Errorf("query %v: index %d = %d, want %d", query, i, got[i], want[i])
			}
		}
	}
}

// ========== DISTANCE TESTS ==========
func TestSegmentSegmentDistanceSq(t *testing.T) {
	tests := []struct {
		name     string
		s0, s1   Segment
		wantDist float64
		wantT0   float64
		wantT1   float64
	}{
		{
			name:     "crossing",
			s0:       NewSegment(mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0}),
			s1:       NewSegment(mgl64.Vec3{0, 1, -1}, mgl64.Vec3{0, 1, 1}),
			wantDist: 1, wantT0: 0.5, wantT1: 0.5,
		},
		{
			name:     "end to end",
			s0:       NewSegment(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}),
			s1:       NewSegment(mgl64.Vec3{3, 0, 0}, mgl64.Vec3{4, 0, 0}),
			wantDist: 4, wantT0: 1, wantT1: 0,
		},
		{
			name:     "point against segment",
			s0:       NewSegment(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, 2, 0}),
			s1:       NewSegment(mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0}),
			wantDist: 4, wantT0: 0, wantT1: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, t0, t1 := SegmentSegmentDistanceSq(tt.s0, tt.s1)
			if !floatEqual(d, tt.wantDist, 1e-9) || !floatEqual(t0, tt.wantT0, 1e-9) || !floatEqual(t1, tt.wantT1, 1e-9) {
				t.Errorf("got (%v, %v, %v), want (%v, %v, %v)", d, t0, t1, tt.wantDist, tt.wantT0, tt.wantT1)
			}
		})
	}

	// Parallel segments only need a correct distance
	d, _, _ := SegmentSegmentDistanceSq(
		NewSegment(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}),
		NewSegment(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{1, 2, 0}),
	)
	if !floatEqual(d, 4, 1e-9) {
		t.Errorf("parallel distance² = %v, want 4", d)
	}
}

func TestTriangleClosestPoint(t *testing.T) {
	tri := NewTriangle(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1})

	tests := []struct {
		name  string
		point mgl64.Vec3
		want  mgl64.Vec3
	}{
		{"above face", mgl64.Vec3{0.2, 3, 0.2}, mgl64.Vec3{0.2, 0, 0.2}},
		{"vertex region", mgl64.Vec3{-1, 0, -1}, mgl64.Vec3{0, 0, 0}},
		{"edge region", mgl64.Vec3{0.5, 1, -2}, mgl64.Vec3{0.5, 0, 0}},
		{"hypotenuse region", mgl64.Vec3{1, 0, 1}, mgl64.Vec3{0.5, 0, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tri.ClosestPoint(tt.point); !vec3Equal(got, tt.want, 1e-9) {
				t.Errorf("ClosestPoint(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

func TestSegmentTriangleDistanceSq(t *testing.T) {
	tri := NewTriangle(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 0, 2})

	d, frac, _ := SegmentTriangleDistanceSq(NewSegment(mgl64.Vec3{0.5, 1, 0.5}, mgl64.Vec3{0.5, -1, 0.5}), tri)
	if d != 0 || !floatEqual(frac, 0.5, 1e-9) {
		t.Errorf("crossing segment: distance² = %v frac = %v, want 0 and 0.5", d, frac)
	}

	d, frac, point := SegmentTriangleDistanceSq(NewSegment(mgl64.Vec3{0.5, 3, 0.5}, mgl64.Vec3{0.5, 1, 0.5}), tri)
	if !floatEqual(d, 1, 1e-9) || !floatEqual(frac, 1, 1e-9) || !vec3Equal(point, mgl64.Vec3{0.5, 0, 0.5}, 1e-9) {
		t.Errorf("segment above: got (%v, %v, %v)", d, frac, point)
	}
}
