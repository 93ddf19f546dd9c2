package geom

import "github.com/go-gl/mathgl/mgl64"

type inflated struct {
	shape  Convex
	margin float64
}

// Inflate returns shape grown by margin in every direction.
// Narrow-phase tests use it to report contacts closer than the collision tolerance.
func Inflate(shape Convex, margin float64) Convex {
	if margin <= 0 {
		return shape
	}
	return inflated{shape: shape, margin: margin}
}

func (i inflated) Support(direction mgl64.Vec3) mgl64.Vec3 {
	p := i.shape.Support(direction)
	if direction.LenSqr() < Epsilon {
		return p
	}
	return p.Add(direction.Normalize().Mul(i.margin))
}

func (i inflated) Centre() mgl64.Vec3 {
	return i.shape.Centre()
}

func (i inflated) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	feature := i.shape.ContactFeature(direction)
	if direction.LenSqr() < Epsilon {
		return feature
	}

	offset := direction.Normalize().Mul(i.margin)
	out := make([]mgl64.Vec3, len(feature))
	for k, p := range feature {
		out[k] = p.Add(offset)
	}
	return out
}
