package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LocomotionState drives a body like a character: it steers the horizontal velocity
// toward DesiredVelocity and jumps when asked while grounded.
type LocomotionState struct {
	// DesiredVelocity is the wanted horizontal velocity, its Y component is ignored
	DesiredVelocity mgl64.Vec3
	// Jump is consumed by the next Apply
	Jump      bool
	JumpSpeed float64

	// Acceleration and Deceleration are the maximum horizontal velocity changes per second,
	// speeding up and slowing down respectively
	Acceleration float64
	Deceleration float64
}

// NewLocomotionState returns a state with common character tuning
func NewLocomotionState() *LocomotionState {
	return &LocomotionState{
		JumpSpeed:    5,
		Acceleration: 20,
		Deceleration: 30,
	}
}

// Apply adds the force bringing the body toward the desired velocity over dt,
// and the jump impulse if requested while grounded.
func (l *LocomotionState) Apply(body *RigidBody, grounded bool, dt float64) {
	jump := l.Jump
	l.Jump = false

	if body.Immovable || dt <= 0 {
		return
	}

	velocity := body.Velocity()
	current := mgl64.Vec3{velocity.X(), 0, velocity.Z()}
	desired := mgl64.Vec3{l.DesiredVelocity.X(), 0, l.DesiredVelocity.Z()}

	rate := l.Acceleration
	if desired.LenSqr() < current.LenSqr() {
		rate = l.Deceleration
	}

	delta := desired.Sub(current)
	maxDelta := rate * dt
	if length := delta.Len(); length > maxDelta {
		delta = delta.Mul(maxDelta / length)
	}

	if delta.LenSqr() > 1e-12 {
		body.AddWorldForce(delta.Mul(body.Mass() / dt))
	}

	if jump && grounded {
		if dv := l.JumpSpeed - velocity.Y(); dv > 0 {
			body.SetActive()
			body.ApplyWorldImpulse(mgl64.Vec3{0, body.Mass() * dv, 0})
		}
	}
}

// HorizontalSpeed returns the speed of the body in the XZ plane
func HorizontalSpeed(body *RigidBody) float64 {
	v := body.Velocity()
	return math.Hypot(v.X(), v.Z())
}
