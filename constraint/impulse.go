package constraint

import (
	"math"

	"github.com/akmonengine/quill/collision"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultAllowedPenetration is the overlap left alone, keeping resting contacts alive
	DefaultAllowedPenetration = 0.01
	// DefaultRelaxationSteps spreads the push out of deeper penetrations over that many steps
	DefaultRelaxationSteps = 10
	// DefaultMaxSeparationVel caps the speed of the penetration correction
	DefaultMaxSeparationVel = 1.5
	// DefaultMinBounceVel is the approach speed below which restitution is ignored
	DefaultMinBounceVel = 0.3

	minDenominator = 1e-10
	// satisfiedImpulse is the impulse below which a contact needs no further pass
	satisfiedImpulse = 1e-7
)

// ImpulseSolver is the default ContactResolver. It accumulates per point normal and friction
// impulses on the velocities, and pushes penetrating bodies apart through the auxiliary
// velocity channel so the correction never adds kinetic energy.
type ImpulseSolver struct {
	AllowedPenetration float64
	RelaxationSteps    float64
	MaxSeparationVel   float64
	MinBounceVel       float64
}

var _ ContactResolver = (*ImpulseSolver)(nil)

func NewImpulseSolver() *ImpulseSolver {
	return &ImpulseSolver{
		AllowedPenetration: DefaultAllowedPenetration,
		RelaxationSteps:    DefaultRelaxationSteps,
		MaxSeparationVel:   DefaultMaxSeparationVel,
		MinBounceVel:       DefaultMinBounceVel,
	}
}

// PreProcess places the contacts in the world, computes their effective masses and
// separation targets, and clears the accumulated impulses
func (s *ImpulseSolver) PreProcess(infos []*collision.CollisionInfo, dt float64) {
	dt = math.Max(dt, 1e-6)

	for _, ci := range infos {
		ci.Satisfied = false
		if !ci.Blocking {
			continue
		}

		b0, b1 := sides(ci)
		n := ci.DirToBody0
		skin0 := ci.SkinInfo.Skin0

		for _, pt := range ci.Points {
			pt.Position = skin0.OldPosition().Add(pt.R0)
			r0, r1 := offsets(pt, b0, b1)

			pt.Denominator = denominator(b0, b1, r0, r1, n)
			pt.AccumulatedNormalImpulse = 0
			pt.AccumulatedNormalImpulseAux = 0
			pt.AccumulatedFrictionImpulse = mgl64.Vec3{}

			pt.MinSeparationVel = s.minSeparationVel(pt.InitialPenetration, dt)

			approach := b0.pointVelocity(r0).Sub(b1.pointVelocity(r1)).Dot(n)
			pt.BounceVel = 0
			if approach < -s.MinBounceVel {
				pt.BounceVel = -ci.MatPairProperties.Restitution * approach
			}
		}
	}
}

// minSeparationVel returns the separation speed asked for by a penetration. It is negative
// when the contact is within the allowed penetration: the bodies may still approach that
// fast, a fraction of the gap that grows with the gap.
func (s *ImpulseSolver) minSeparationVel(penetration, dt float64) float64 {
	excess := penetration - s.AllowedPenetration
	if excess > 0 {
		return math.Min(excess/(s.RelaxationSteps*dt), s.MaxSeparationVel)
	}

	approachScale := -0.1 * excess / (s.AllowedPenetration + minDenominator)
	approachScale = math.Max(minDenominator, math.Min(approachScale, 1))
	return approachScale * excess / dt
}

func (s *ImpulseSolver) Iterate(infos []*collision.CollisionInfo, dt float64, iterations int, forceInelastic bool) {
	for _, ci := range infos {
		ci.Satisfied = false
	}

	for range iterations {
		pending := false
		for _, ci := range infos {
			if !ci.Blocking || ci.Satisfied {
				continue
			}
			if s.processCollision(ci, forceInelastic) {
				pending = true
			}
		}
		if !pending {
			break
		}
	}

	for _, ci := range infos {
		if !ci.Blocking {
			continue
		}
		b0, b1 := sides(ci)
		clampSmallVelocities(b0)
		clampSmallVelocities(b1)
	}
}

// processCollision runs one pass over the points of ci and reports whether it applied an
// impulse worth another pass
func (s *ImpulseSolver) processCollision(ci *collision.CollisionInfo, forceInelastic bool) bool {
	b0, b1 := sides(ci)
	if !b0.movable() && !b1.movable() {
		ci.Satisfied = true
		return false
	}

	n := ci.DirToBody0
	largest := 0.0

	for _, pt := range ci.Points {
		if pt.Denominator < minDenominator {
			continue
		}

		largest = math.Max(largest, s.normalImpulse(ci, pt, b0, b1, forceInelastic))
		largest = math.Max(largest, s.auxImpulse(pt, b0, b1, n))
		largest = math.Max(largest, s.frictionImpulse(ci, pt, b0, b1))
	}

	if largest < satisfiedImpulse {
		ci.Satisfied = true
		return false
	}

	// the bodies moved: their other contacts need another look
	unsettle(b0, ci)
	unsettle(b1, ci)
	return true
}

// normalImpulse drives the normal relative velocity to its target, never pulling
func (s *ImpulseSolver) normalImpulse(ci *collision.CollisionInfo, pt *collision.CollPointInfo, b0, b1 contactBody, forceInelastic bool) float64 {
	n := ci.DirToBody0
	r0, r1 := offsets(pt, b0, b1)
	normalVel := b0.pointVelocity(r0).Sub(b1.pointVelocity(r1)).Dot(n)

	target := math.Min(pt.MinSeparationVel, 0)
	if !forceInelastic {
		target = math.Max(target, pt.BounceVel)
	}

	impulse := (target - normalVel) / pt.Denominator
	previous := pt.AccumulatedNormalImpulse
	pt.AccumulatedNormalImpulse = math.Max(previous+impulse, 0)
	applied := pt.AccumulatedNormalImpulse - previous

	if applied != 0 {
		b0.applyImpulse(n.Mul(applied), pt.Position)
		b1.applyImpulse(n.Mul(-applied), pt.Position)
	}
	return math.Abs(applied)
}

// auxImpulse pushes penetrating bodies apart on the auxiliary channel
func (s *ImpulseSolver) auxImpulse(pt *collision.CollPointInfo, b0, b1 contactBody, n mgl64.Vec3) float64 {
	if pt.MinSeparationVel <= 0 {
		return 0
	}

	r0, r1 := offsets(pt, b0, b1)
	normalVel := b0.pointVelocityAux(r0).Sub(b1.pointVelocityAux(r1)).Dot(n)

	impulse := (pt.MinSeparationVel - normalVel) / pt.Denominator
	previous := pt.AccumulatedNormalImpulseAux
	pt.AccumulatedNormalImpulseAux = math.Max(previous+impulse, 0)
	applied := pt.AccumulatedNormalImpulseAux - previous

	if applied != 0 {
		b0.applyImpulseAux(n.Mul(applied), pt.Position)
		b1.applyImpulseAux(n.Mul(-applied), pt.Position)
	}
	return math.Abs(applied)
}

// frictionImpulse cancels the tangential velocity within the Coulomb cone of the
// accumulated normal impulse: static friction holds, dynamic friction slides
func (s *ImpulseSolver) frictionImpulse(ci *collision.CollisionInfo, pt *collision.CollPointInfo, b0, b1 contactBody) float64 {
	n := ci.DirToBody0
	r0, r1 := offsets(pt, b0, b1)
	relVel := b0.pointVelocity(r0).Sub(b1.pointVelocity(r1))
	tangentVel := relVel.Sub(n.Mul(relVel.Dot(n)))

	tangentSpeed := tangentVel.Len()
	if tangentSpeed < 1e-6 {
		return 0
	}
	tangent := tangentVel.Mul(1 / tangentSpeed)

	denom := denominator(b0, b1, r0, r1, tangent)
	if denom < minDenominator {
		return 0
	}

	previous := pt.AccumulatedFrictionImpulse
	accumulated := previous.Sub(tangent.Mul(tangentSpeed / denom))

	maxStatic := ci.MatPairProperties.StaticFriction * pt.AccumulatedNormalImpulse
	if accumulated.Len() > maxStatic {
		maxDynamic := ci.MatPairProperties.DynamicFriction * pt.AccumulatedNormalImpulse
		if l := accumulated.Len(); l > 0 {
			accumulated = accumulated.Mul(maxDynamic / l)
		}
	}
	pt.AccumulatedFrictionImpulse = accumulated

	applied := accumulated.Sub(previous)
	if applied.LenSqr() == 0 {
		return 0
	}
	b0.applyImpulse(applied, pt.Position)
	b1.applyImpulse(applied.Mul(-1), pt.Position)
	return applied.Len()
}

// unsettle marks the other contacts of the body as needing a new pass
func unsettle(c contactBody, except *collision.CollisionInfo) {
	if !c.movable() {
		return
	}
	skin, ok := c.body.Skin().(*collision.CollisionSkin)
	if !ok {
		return
	}
	for _, other := range skin.Collisions() {
		if other != except {
			other.Satisfied = false
		}
	}
}
