package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// boxShellThicknessRatio is the wall thickness, relative to the smallest side,
// used to derive the inertia of a hollow box from two solid ones
const boxShellThicknessRatio = 0.001

// Box represents an oriented box collision shape.
// The box is centered on its transform position and defined by its full side lengths.
type Box struct {
	transform   Transform
	SideLengths mgl64.Vec3
}

// NewBox creates a box centered on position
func NewBox(position mgl64.Vec3, orientation mgl64.Mat3, sideLengths mgl64.Vec3) *Box {
	return &Box{
		transform: Transform{Position: position, Orientation: orientation},
		SideLengths: mgl64.Vec3{
			math.Abs(sideLengths.X()),
			math.Abs(sideLengths.Y()),
			math.Abs(sideLengths.Z()),
		},
	}
}

func (b *Box) primitive() {}

func (b *Box) Type() PrimitiveType { return PrimitiveTypeBox }

func (b *Box) Transform() Transform { return b.transform }

func (b *Box) SetTransform(transform Transform) { b.transform = transform }

func (b *Box) Clone() Primitive {
	clone := *b
	return &clone
}

// HalfSideLengths returns the half extents of the box
func (b *Box) HalfSideLengths() mgl64.Vec3 {
	return b.SideLengths.Mul(0.5)
}

// Centre returns the world centre of the box
func (b *Box) Centre() mgl64.Vec3 {
	return b.transform.Position
}

// Axis returns the world direction of the local axis i (0=X, 1=Y, 2=Z)
func (b *Box) Axis(i int) mgl64.Vec3 {
	return b.transform.Orientation.Col(i)
}

func (b *Box) Volume() float64 {
	return b.SideLengths.X() * b.SideLengths.Y() * b.SideLengths.Z()
}

func (b *Box) SurfaceArea() float64 {
	x, y, z := b.SideLengths.X(), b.SideLengths.Y(), b.SideLengths.Z()
	return 2.0 * (x*y + y*z + z*x)
}

// Corners returns the 8 world corners of the box
func (b *Box) Corners() [8]mgl64.Vec3 {
	h := b.HalfSideLengths()
	var corners [8]mgl64.Vec3
	for i := 0; i < 8; i++ {
		local := mgl64.Vec3{-h.X(), -h.Y(), -h.Z()}
		if i&1 != 0 {
			local[0] = h.X()
		}
		if i&2 != 0 {
			local[1] = h.Y()
		}
		if i&4 != 0 {
			local[2] = h.Z()
		}
		corners[i] = b.transform.Apply(local)
	}
	return corners
}

func (b *Box) BoundingBox() AABB {
	box := EmptyAABB()
	for _, corner := range b.Corners() {
		box.AddPoint(corner)
	}
	return box
}

// solidBoxInertia returns the diagonal inertia of a solid box about its centre
func solidBoxInertia(mass float64, sides mgl64.Vec3) mgl64.Mat3 {
	x, y, z := sides.X(), sides.Y(), sides.Z()

	// Formula for a box: I = (m/12) * (dimension1² + dimension2²)
	factor := mass / 12.0
	return DiagonalTensor(
		factor*(y*y+z*z),
		factor*(x*x+z*z),
		factor*(x*x+y*y),
	)
}

func (b *Box) MassProperties(props PrimitiveProperties) (float64, mgl64.Vec3, mgl64.Mat3) {
	mass := massFromProperties(props, b.Volume(), b.SurfaceArea())
	centerOfMass := b.transform.Position

	var inertia mgl64.Mat3
	if props.MassDistribution == Solid {
		inertia = solidBoxInertia(mass, b.SideLengths)
	} else {
		// A hollow box is the difference between the box and a slightly smaller one
		minSide := math.Min(b.SideLengths.X(), math.Min(b.SideLengths.Y(), b.SideLengths.Z()))
		thickness := boxShellThicknessRatio * minSide
		inner := b.SideLengths.Sub(mgl64.Vec3{2 * thickness, 2 * thickness, 2 * thickness})

		outerVolume := b.Volume()
		innerVolume := inner.X() * inner.Y() * inner.Z()
		if shellVolume := outerVolume - innerVolume; shellVolume > Epsilon {
			density := mass / shellVolume
			inertia = solidBoxInertia(density*outerVolume, b.SideLengths).
				Sub(solidBoxInertia(density*innerVolume, inner))
		} else {
			inertia = solidBoxInertia(mass, b.SideLengths)
		}
	}

	inertia = RotateTensor(b.transform.Orientation, inertia)
	inertia = TransferAxes(inertia, mass, centerOfMass)

	return mass, centerOfMass, inertia
}

// SegmentIntersect performs a slab test in box space, remembering the axis of the
// entry plane to select the face normal.
// A segment starting inside the box hits at fraction 0 with a normal facing back along it.
func (b *Box) SegmentIntersect(seg Segment) (SegmentHit, bool, error) {
	h := b.HalfSideLengths()
	origin := b.transform.InverseApply(seg.Origin)
	delta := b.transform.InverseApplyDirection(seg.Delta)

	tEnter, tExit := math.Inf(-1), math.Inf(1)
	enterAxis, enterSign := -1, 0.0

	for i := 0; i < 3; i++ {
		if math.Abs(delta[i]) < Epsilon {
			// Parallel to the slab: must already be between its planes
			if origin[i] < -h[i] || origin[i] > h[i] {
				return SegmentHit{}, false, nil
			}
			continue
		}

		t1 := (-h[i] - origin[i]) / delta[i]
		t2 := (h[i] - origin[i]) / delta[i]
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1.0
		}

		if t1 > tEnter {
			tEnter = t1
			enterAxis = i
			enterSign = sign
		}
		tExit = math.Min(tExit, t2)

		if tEnter > tExit {
			return SegmentHit{}, false, nil
		}
	}

	if tExit < 0 || tEnter > 1 {
		return SegmentHit{}, false, nil
	}

	if tEnter < 0 || enterAxis < 0 {
		return SegmentHit{Frac: 0, Position: seg.Origin, Normal: backNormal(seg)}, true, nil
	}

	var localNormal mgl64.Vec3
	localNormal[enterAxis] = enterSign

	return SegmentHit{
		Frac:     tEnter,
		Position: seg.PointAt(tEnter),
		Normal:   b.transform.ApplyDirection(localNormal),
	}, true, nil
}

// Support returns the world corner furthest along direction
func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	h := b.HalfSideLengths()
	local := b.transform.InverseApplyDirection(direction)

	hx, hy, hz := h.X(), h.Y(), h.Z()
	if local.X() < 0 {
		hx = -hx
	}
	if local.Y() < 0 {
		hy = -hy
	}
	if local.Z() < 0 {
		hz = -hz
	}

	return b.transform.Apply(mgl64.Vec3{hx, hy, hz})
}

// ContactFeature returns the world vertices of the face whose normal is the most
// aligned with direction
func (b *Box) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	local := b.transform.InverseApplyDirection(direction)
	h := b.HalfSideLengths()

	// Find the dominant axis of the direction in box space
	axis := 0
	for i := 1; i < 3; i++ {
		if math.Abs(local[i]) > math.Abs(local[axis]) {
			axis = i
		}
	}
	sign := 1.0
	if local[axis] < 0 {
		sign = -1.0
	}

	u := (axis + 1) % 3
	v := (axis + 2) % 3

	// Vertices in CCW order seen from outside
	quad := [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	face := make([]mgl64.Vec3, 4)
	for i, q := range quad {
		var p mgl64.Vec3
		p[axis] = sign * h[axis]
		p[u] = q[0] * h[u]
		p[v] = q[1] * h[v] * sign
		face[i] = b.transform.Apply(p)
	}

	return face
}

// ClosestPoint returns the point of the box closest to point and the signed distance
// to the surface (negative when point is inside).
func (b *Box) ClosestPoint(point mgl64.Vec3) (mgl64.Vec3, float64) {
	h := b.HalfSideLengths()
	local := b.transform.InverseApply(point)

	clamped := mgl64.Vec3{
		clamp(local.X(), -h.X(), h.X()),
		clamp(local.Y(), -h.Y(), h.Y()),
		clamp(local.Z(), -h.Z(), h.Z()),
	}

	if clamped != local {
		world := b.transform.Apply(clamped)
		return world, world.Sub(point).Len()
	}

	// Inside: push out through the nearest face
	minDist := math.Inf(1)
	axis, sign := 0, 1.0
	for i := 0; i < 3; i++ {
		if d := h[i] - local[i]; d < minDist {
			minDist, axis, sign = d, i, 1.0
		}
		if d := local[i] + h[i]; d < minDist {
			minDist, axis, sign = d, i, -1.0
		}
	}
	clamped[axis] = sign * h[axis]

	return b.transform.Apply(clamped), -minDist
}
