package actor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// =============================================================================
// LocomotionState Tests
// =============================================================================

func TestLocomotion_Steering(t *testing.T) {
	tests := []struct {
		name      string
		velocity  mgl64.Vec3
		desired   mgl64.Vec3
		wantForce mgl64.Vec3
	}{
		{"accelerates with a clamped rate", mgl64.Vec3{}, mgl64.Vec3{4, 0, 0}, mgl64.Vec3{40, 0, 0}},
		{"decelerates faster", mgl64.Vec3{4, 0, 0}, mgl64.Vec3{}, mgl64.Vec3{-60, 0, 0}},
		{"small correction is not clamped", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 0.5}, mgl64.Vec3{0, 0, 10}},
		{"vertical component ignored", mgl64.Vec3{0, -3, 0}, mgl64.Vec3{0, 10, 0}, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRigidBody()
			rb.SetMass(2)
			rb.SetVelocity(tt.velocity)

			loco := NewLocomotionState()
			loco.DesiredVelocity = tt.desired
			loco.Apply(rb, true, 0.1)

			if !vec3Equal(rb.Force(), tt.wantForce, 1e-9) {
				t.Errorf("Force() = %v, want %v", rb.Force(), tt.wantForce)
			}
		})
	}
}

func TestLocomotion_ReachesDesiredVelocity(t *testing.T) {
	rb := NewRigidBody()
	loco := NewLocomotionState()
	loco.DesiredVelocity = mgl64.Vec3{3, 0, 4}

	for i := 0; i < 60; i++ {
		rb.ClearForces()
		loco.Apply(rb, true, 1.0/60)
		rb.UpdateVelocity(1.0 / 60)
	}

	if !floatEqual(HorizontalSpeed(rb), 5, 1e-6) {
		t.Errorf("HorizontalSpeed() = %v, want 5", HorizontalSpeed(rb))
	}
}

func TestLocomotion_Jump(t *testing.T) {
	tests := []struct {
		name     string
		grounded bool
		velocity mgl64.Vec3
		wantVelY float64
	}{
		{"grounded jump", true, mgl64.Vec3{}, 5},
		{"airborne jump ignored", false, mgl64.Vec3{}, 0},
		{"falling body jumps to jump speed", true, mgl64.Vec3{0, -1, 0}, 5},
		{"already rising faster", true, mgl64.Vec3{0, 7, 0}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRigidBody()
			rb.SetMass(3)
			rb.SetVelocity(tt.velocity)

			loco := NewLocomotionState()
			loco.Jump = true
			loco.Apply(rb, tt.grounded, 0.1)

			if !floatEqual(rb.Velocity().Y(), tt.wantVelY, 1e-9) {
				t.Errorf("Velocity().Y() = %v, want %v", rb.Velocity().Y(), tt.wantVelY)
			}
			if loco.Jump {
				t.Error("Jump should be consumed")
			}
		})
	}
}
