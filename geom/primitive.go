// Package geom holds the geometric primitives used for collision and mass computation.
//
// Every primitive carries its own transform (relative to the skin that owns it) and
// immutable shape parameters. Only the transform is ever moved after construction.
package geom

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrNotImplemented is returned by operations a primitive deliberately does not support
var ErrNotImplemented = errors.New("not implemented")

// PrimitiveType is the type tag of a primitive, used for narrow-phase dispatch
type PrimitiveType int

const (
	PrimitiveTypeAABox PrimitiveType = iota
	PrimitiveTypeBox
	PrimitiveTypeSphere
	PrimitiveTypePlane
	PrimitiveTypeCapsule
	PrimitiveTypeTriangleMesh

	// NumPrimitiveTypes is the number of primitive types, the size of the dispatch table
	NumPrimitiveTypes
)

func (t PrimitiveType) String() string {
	switch t {
	case PrimitiveTypeAABox:
		return "AABox"
	case PrimitiveTypeBox:
		return "Box"
	case PrimitiveTypeSphere:
		return "Sphere"
	case PrimitiveTypePlane:
		return "Plane"
	case PrimitiveTypeCapsule:
		return "Capsule"
	case PrimitiveTypeTriangleMesh:
		return "TriangleMesh"
	}
	return "Unknown"
}

// Primitive is the closed set of shapes: AABox, Box, Sphere, Plane, Capsule and TriangleMesh.
type Primitive interface {
	Type() PrimitiveType
	Transform() Transform
	SetTransform(transform Transform)

	Volume() float64
	SurfaceArea() float64
	// MassProperties returns the mass, the centre of mass and the inertia tensor about the origin
	MassProperties(props PrimitiveProperties) (mass float64, centerOfMass mgl64.Vec3, inertia mgl64.Mat3)

	// BoundingBox returns the box enclosing the primitive at its current transform
	BoundingBox() AABB
	// SegmentIntersect returns the closest hit along seg, if any
	SegmentIntersect(seg Segment) (SegmentHit, bool, error)

	// Clone returns a copy sharing no mutable state with the receiver
	Clone() Primitive

	primitive()
}

// Convex is a primitive exposing a world-space support mapping
type Convex interface {
	Support(direction mgl64.Vec3) mgl64.Vec3
	Centre() mgl64.Vec3
	ContactFeature(direction mgl64.Vec3) []mgl64.Vec3
}

// WorldPrimitive returns a clone of local placed by the given transform
func WorldPrimitive(local Primitive, transform Transform) Primitive {
	world := local.Clone()
	world.SetTransform(transform.Compose(local.Transform()))
	return world
}
