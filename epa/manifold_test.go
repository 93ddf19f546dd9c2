package epa

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

func TestClipPolygonAgainstPlane(t *testing.T) {
	square := []mgl64.Vec3{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}}

	tests := []struct {
		name      string
		polygon   []mgl64.Vec3
		point     mgl64.Vec3
		normal    mgl64.Vec3
		wantCount int
	}{
		{"fully inside", square, mgl64.Vec3{-2, 0, 0}, mgl64.Vec3{1, 0, 0}, 4},
		{"fully outside", square, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{1, 0, 0}, 0},
		{"cut in half", square, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 4},
		{"corner cut", square, mgl64.Vec3{0.5, 0, 0.5}, mgl64.Vec3{-1, 0, -1}.Normalize(), 5},
		{"segment cut", []mgl64.Vec3{{-1, 0, 0}, {1, 0, 0}}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 2},
		{"empty", nil, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := clipPolygonAgainstPlane(tt.polygon, tt.point, tt.normal)
			if len(result) != tt.wantCount {
				t.Errorf("got %d points, want %d: %v", len(result), tt.wantCount, result)
			}
			for _, p := range result {
				if p.Sub(tt.point).Dot(tt.normal) < -1e-6 {
					t.Errorf("point %v is on the clipped side", p)
				}
			}
		})
	}
}

func TestTangentBasis(t *testing.T) {
	normals := []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, mgl64.Vec3{1, 2, 3}.Normalize()}

	for _, n := range normals {
		t1, t2 := TangentBasis(n)
		if math.Abs(t1.Dot(n)) > 1e-9 || math.Abs(t2.Dot(n)) > 1e-9 || math.Abs(t1.Dot(t2)) > 1e-9 {
			t.Errorf("basis of %v is not orthogonal: %v %v", n, t1, t2)
		}
		if math.Abs(t1.Len()-1) > 1e-9 || math.Abs(t2.Len()-1) > 1e-9 {
			t.Errorf("basis of %v is not unit: %v %v", n, t1, t2)
		}
	}
}

func TestReduceTo4Points(t *testing.T) {
	var points []Point
	for i := 0; i < 8; i++ {
		angle := float64(i) * math.Pi / 4
		points = append(points, Point{Position: mgl64.Vec3{math.Cos(angle), 0, math.Sin(angle)}})
	}

	result := reduceTo4Points(points, mgl64.Vec3{0, 1, 0})

	if len(result) == 0 || len(result) > MaxManifoldPoints {
		t.Fatalf("got %d points, want 1-4", len(result))
	}
	seen := map[mgl64.Vec3]bool{}
	for _, p := range result {
		if seen[p.Position] {
			t.Errorf("duplicate point %v", p.Position)
		}
		seen[p.Position] = true
	}
}

func TestGenerateManifold(t *testing.T) {
	t.Run("sphere contact is a single point", func(t *testing.T) {
		a := geom.NewSphere(mgl64.Vec3{0, 0, 0}, 1)
		b := geom.NewSphere(mgl64.Vec3{1.5, 0, 0}, 1)

		points := GenerateManifold(a, b, mgl64.Vec3{1, 0, 0}, 0.5)
		if len(points) != 1 {
			t.Fatalf("got %d points, want 1", len(points))
		}
		if !vec3Equal(points[0].Position, mgl64.Vec3{0.5, 0, 0}, 1e-9) {
			t.Errorf("Position = %v, want deepest point of B (0.5, 0, 0)", points[0].Position)
		}
	})

	t.Run("capsule lying on a box gives its side edge", func(t *testing.T) {
		a := geom.NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Ident3(), mgl64.Vec3{2, 2, 2})
		b := geom.NewCapsule(mgl64.Vec3{-0.5, 1.4, 0}, geom.RotationFromAxisAngle(mgl64.Vec3{0, 1, 0}, math.Pi/2), 1, 0.5)

		points := GenerateManifold(a, b, mgl64.Vec3{0, 1, 0}, 0.1)
		if len(points) != 2 {
			t.Fatalf("got %d points, want 2", len(points))
		}
		for _, p := range points {
			if math.Abs(p.Position.Y()-0.9) > 1e-9 || math.Abs(p.Penetration-0.1) > 1e-9 {
				t.Errorf("point %+v, want y=0.9 penetration 0.1", p)
			}
		}
	})

	t.Run("small box on a large one is clipped to the small face", func(t *testing.T) {
		a := geom.NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Ident3(), mgl64.Vec3{10, 2, 10})
		b := geom.NewBox(mgl64.Vec3{0, 1.4, 0}, mgl64.Ident3(), mgl64.Vec3{1, 1, 1})

		points := GenerateManifold(a, b, mgl64.Vec3{0, 1, 0}, 0.1)
		if len(points) != 4 {
			t.Fatalf("got %d points, want 4", len(points))
		}
		for _, p := range points {
			if math.Abs(p.Position.X()) > 0.5+1e-9 || math.Abs(p.Position.Z()) > 0.5+1e-9 {
				t.Errorf("point %v outside the small face", p.Position)
			}
		}
	})
}

func BenchmarkGenerateManifold(b *testing.B) {
	boxA := geom.NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Ident3(), mgl64.Vec3{2, 2, 2})
	boxB := geom.NewBox(mgl64.Vec3{1.8, 0.3, 0}, mgl64.Ident3(), mgl64.Vec3{2, 2, 2})
	normal := mgl64.Vec3{1, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GenerateManifold(boxA, boxB, normal, 0.2)
	}
}
