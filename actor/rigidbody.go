// Package actor holds the rigid body: its transform and rates, mass and inertia, the
// forces accumulated over a step, and the Active/Inactive state machine used for freezing.
package actor

import (
	"math"

	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// VelMax bounds the largest linear velocity component
	VelMax = 100.0
	// AngVelMax bounds the largest angular velocity component
	AngVelMax = 50.0

	// CollisionAngularDamping scales the angular velocity of a body touching anything
	CollisionAngularDamping = 0.99

	// DeactivationDampingStart is the fraction of the deactivation time after which
	// velocities are progressively damped
	DeactivationDampingStart = 0.5

	DefaultDeactivationTime     = 1.0
	DefaultVelocityThreshold    = 0.5
	DefaultAngVelocityThreshold = 30.0 // degrees per second
)

// ActivityState tells whether a body is integrated
type ActivityState int

const (
	Active ActivityState = iota
	Inactive
)

func (s ActivityState) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// Skin is the collision geometry moving with a body
type Skin interface {
	// SetTransform moves the skin, sweeping it from old to new
	SetTransform(old, new geom.Transform)
	// NumCollisions returns the number of contacts the skin currently takes part in
	NumCollisions() int
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	ID uint32

	transform    geom.Transform
	oldTransform geom.Transform

	rate    geom.TransformRate
	oldRate geom.TransformRate
	// rateAux is positional correction applied once by UpdatePositionWithAux
	rateAux geom.TransformRate

	mass    float64
	invMass float64

	bodyInertia     mgl64.Mat3
	bodyInvInertia  mgl64.Mat3
	worldInertia    mgl64.Mat3
	worldInvInertia mgl64.Mat3

	force   mgl64.Vec3
	torque  mgl64.Vec3
	gravity mgl64.Vec3

	// Immovable bodies never move: they behave as if their mass were infinite
	Immovable bool
	// AllowFreezing lets the body become Inactive once at rest
	AllowFreezing bool
	// ApplyGravity adds mass·gravity to the force each step
	ApplyGravity bool

	activity               ActivityState
	inactiveTime           float64
	deactivationTime       float64
	sqVelocityThreshold    float64
	sqAngVelocityThreshold float64

	skin Skin
}

// NewRigidBody creates an active unit-mass body at the origin
func NewRigidBody() *RigidBody {
	rb := &RigidBody{
		transform:     geom.NewTransform(),
		oldTransform:  geom.NewTransform(),
		AllowFreezing: true,
		ApplyGravity:  true,
		activity:      Active,
	}
	rb.SetMassProperties(1, mgl64.Ident3())
	rb.SetDeactivationTime(DefaultDeactivationTime)
	rb.SetActivityThreshold(DefaultVelocityThreshold, DefaultAngVelocityThreshold)

	return rb
}

// SetSkin attaches the collision skin following the body
func (rb *RigidBody) SetSkin(skin Skin) {
	rb.skin = skin
	if skin != nil {
		skin.SetTransform(rb.oldTransform, rb.transform)
	}
}

func (rb *RigidBody) Skin() Skin {
	return rb.skin
}

func (rb *RigidBody) Transform() geom.Transform {
	return rb.transform
}

func (rb *RigidBody) OldTransform() geom.Transform {
	return rb.oldTransform
}

func (rb *RigidBody) Position() mgl64.Vec3 {
	return rb.transform.Position
}

func (rb *RigidBody) OldPosition() mgl64.Vec3 {
	return rb.oldTransform.Position
}

func (rb *RigidBody) Orientation() mgl64.Mat3 {
	return rb.transform.Orientation
}

func (rb *RigidBody) Velocity() mgl64.Vec3 {
	return rb.rate.Velocity
}

func (rb *RigidBody) SetVelocity(velocity mgl64.Vec3) {
	rb.rate.Velocity = velocity
}

func (rb *RigidBody) AngularVelocity() mgl64.Vec3 {
	return rb.rate.AngularVelocity
}

func (rb *RigidBody) SetAngularVelocity(angularVelocity mgl64.Vec3) {
	rb.rate.AngularVelocity = angularVelocity
}

// AuxVelocity returns the pending positional correction rate
func (rb *RigidBody) AuxVelocity() geom.TransformRate {
	return rb.rateAux
}

// PointVelocity returns the velocity of the point located at r from the body position
func (rb *RigidBody) PointVelocity(r mgl64.Vec3) mgl64.Vec3 {
	return rb.rate.Velocity.Add(rb.rate.AngularVelocity.Cross(r))
}

// PointVelocityAux is PointVelocity for the correction channel
func (rb *RigidBody) PointVelocityAux(r mgl64.Vec3) mgl64.Vec3 {
	return rb.rateAux.Velocity.Add(rb.rateAux.AngularVelocity.Cross(r))
}

// ========== MASS ==========

func (rb *RigidBody) Mass() float64 {
	return rb.mass
}

// InverseMass returns 0 for immovable bodies
func (rb *RigidBody) InverseMass() float64 {
	if rb.Immovable {
		return 0
	}
	return rb.invMass
}

// SetMass sets the mass and its inverse, then resets the forces to gravity alone.
// The mass is not validated: a zero mass yields an infinite inverse.
func (rb *RigidBody) SetMass(mass float64) {
	rb.mass = mass
	rb.invMass = 1.0 / mass
	rb.ClearForces()
	rb.AddGravityForce()
}

// SetBodyInertia sets the inertia tensor in body space
func (rb *RigidBody) SetBodyInertia(inertia mgl64.Mat3) {
	rb.bodyInertia = inertia
	rb.bodyInvInertia = geom.SafeInverse(inertia)
	rb.updateWorldInertia()
}

// SetMassProperties sets both the mass and the body-space inertia
func (rb *RigidBody) SetMassProperties(mass float64, inertia mgl64.Mat3) {
	rb.SetMass(mass)
	rb.SetBodyInertia(inertia)
}

func (rb *RigidBody) BodyInertia() mgl64.Mat3 {
	return rb.bodyInertia
}

func (rb *RigidBody) WorldInertia() mgl64.Mat3 {
	return rb.worldInertia
}

// WorldInvInertia returns the zero matrix for immovable bodies
func (rb *RigidBody) WorldInvInertia() mgl64.Mat3 {
	if rb.Immovable {
		return mgl64.Mat3{}
	}
	return rb.worldInvInertia
}

func (rb *RigidBody) updateWorldInertia() {
	rb.worldInertia = geom.RotateTensor(rb.transform.Orientation, rb.bodyInertia)
	rb.worldInvInertia = geom.RotateTensor(rb.transform.Orientation, rb.bodyInvInertia)
}

// ========== FORCES ==========

func (rb *RigidBody) Force() mgl64.Vec3 {
	return rb.force
}

func (rb *RigidBody) Torque() mgl64.Vec3 {
	return rb.torque
}

// SetGravity stores the gravity used by AddGravityForce
func (rb *RigidBody) SetGravity(gravity mgl64.Vec3) {
	rb.gravity = gravity
}

func (rb *RigidBody) ClearForces() {
	rb.force = mgl64.Vec3{}
	rb.torque = mgl64.Vec3{}
}

// AddGravityForce adds mass·gravity to the force when ApplyGravity is set
func (rb *RigidBody) AddGravityForce() {
	if rb.ApplyGravity {
		rb.force = rb.force.Add(rb.gravity.Mul(rb.mass))
	}
}

// AddWorldForce adds a force through the centre of mass and wakes the body
func (rb *RigidBody) AddWorldForce(force mgl64.Vec3) {
	if rb.Immovable {
		return
	}
	rb.force = rb.force.Add(force)
	rb.SetActive()
}

// AddWorldForceAt adds a force applied at a world position, with its torque
func (rb *RigidBody) AddWorldForceAt(force, position mgl64.Vec3) {
	if rb.Immovable {
		return
	}
	rb.force = rb.force.Add(force)
	rb.torque = rb.torque.Add(position.Sub(rb.transform.Position).Cross(force))
	rb.SetActive()
}

// AddBodyForce adds a force expressed in body space
func (rb *RigidBody) AddBodyForce(force mgl64.Vec3) {
	rb.AddWorldForce(rb.transform.ApplyDirection(force))
}

func (rb *RigidBody) AddWorldTorque(torque mgl64.Vec3) {
	if rb.Immovable {
		return
	}
	rb.torque = rb.torque.Add(torque)
	rb.SetActive()
}

// AddBodyTorque adds a torque expressed in body space
func (rb *RigidBody) AddBodyTorque(torque mgl64.Vec3) {
	rb.AddWorldTorque(rb.transform.ApplyDirection(torque))
}

// ========== IMPULSES ==========

func (rb *RigidBody) ApplyWorldImpulse(impulse mgl64.Vec3) {
	if rb.Immovable {
		return
	}
	rb.rate.Velocity = rb.rate.Velocity.Add(impulse.Mul(rb.invMass))
}

// ApplyWorldImpulseAt applies an impulse at a world position
func (rb *RigidBody) ApplyWorldImpulseAt(impulse, position mgl64.Vec3) {
	if rb.Immovable {
		return
	}
	rb.rate.Velocity = rb.rate.Velocity.Add(impulse.Mul(rb.invMass))
	r := position.Sub(rb.transform.Position)
	rb.rate.AngularVelocity = rb.rate.AngularVelocity.Add(rb.worldInvInertia.Mul3x1(r.Cross(impulse)))
}

// ApplyWorldImpulseAux applies an impulse at a world position to the correction channel only
func (rb *RigidBody) ApplyWorldImpulseAux(impulse, position mgl64.Vec3) {
	if rb.Immovable {
		return
	}
	rb.rateAux.Velocity = rb.rateAux.Velocity.Add(impulse.Mul(rb.invMass))
	r := position.Sub(rb.transform.Position)
	rb.rateAux.AngularVelocity = rb.rateAux.AngularVelocity.Add(rb.worldInvInertia.Mul3x1(r.Cross(impulse)))
}

// ApplyBodyImpulse applies an impulse expressed in body space at the centre of mass
func (rb *RigidBody) ApplyBodyImpulse(impulse mgl64.Vec3) {
	rb.ApplyWorldImpulse(rb.transform.ApplyDirection(impulse))
}

// ApplyBodyImpulseAux applies a body-space impulse at a body-space offset to the correction channel
func (rb *RigidBody) ApplyBodyImpulseAux(impulse, offset mgl64.Vec3) {
	rb.ApplyWorldImpulseAux(rb.transform.ApplyDirection(impulse), rb.transform.Apply(offset))
}

// ========== INTEGRATION ==========

// CopyCurrentStateToOld remembers the current transform and rate as the start of the step
func (rb *RigidBody) CopyCurrentStateToOld() {
	rb.oldTransform = rb.transform
	rb.oldRate = rb.rate
}

// UpdateVelocity integrates the accumulated force and torque over dt
func (rb *RigidBody) UpdateVelocity(dt float64) {
	if rb.Immovable || rb.activity != Active {
		return
	}

	rb.rate.Velocity = rb.rate.Velocity.Add(rb.force.Mul(dt * rb.invMass))
	rb.rate.AngularVelocity = rb.rate.AngularVelocity.Add(rb.worldInvInertia.Mul3x1(rb.torque.Mul(dt)))

	if rb.skin != nil && rb.skin.NumCollisions() > 0 {
		rb.rate.AngularVelocity = rb.rate.AngularVelocity.Mul(CollisionAngularDamping)
	}
}

// UpdatePosition advances the transform by the current rate, keeping the angular momentum
func (rb *RigidBody) UpdatePosition(dt float64) {
	if rb.Immovable || rb.activity != Active {
		return
	}
	rb.advance(rb.rate, dt)
}

// UpdatePositionWithAux advances the transform by the rate plus the pending correction,
// then clears the correction and moves the skin from the old to the new transform
func (rb *RigidBody) UpdatePositionWithAux(dt float64) {
	if rb.Immovable || rb.activity != Active {
		rb.rateAux = geom.TransformRate{}
		return
	}

	rb.advance(rb.rate.Add(rb.rateAux), dt)
	rb.rateAux = geom.TransformRate{}

	if rb.skin != nil {
		rb.skin.SetTransform(rb.oldTransform, rb.transform)
	}
}

func (rb *RigidBody) advance(rate geom.TransformRate, dt float64) {
	angularMomentum := rb.worldInertia.Mul3x1(rb.rate.AngularVelocity)

	rb.transform = rb.transform.ApplyRate(rate, dt)
	rb.updateWorldInertia()

	rb.rate.AngularVelocity = rb.worldInvInertia.Mul3x1(angularMomentum)
}

// LimitVelocities rescales the velocities so no component exceeds VelMax / AngVelMax
func (rb *RigidBody) LimitVelocities() {
	if rb.Immovable || rb.activity != Active {
		return
	}
	rb.rate.Velocity = limit(rb.rate.Velocity, VelMax)
	rb.rate.AngularVelocity = limit(rb.rate.AngularVelocity, AngVelMax)
}

// limit scales v uniformly so that its largest component is at most maxComponent
func limit(v mgl64.Vec3, maxComponent float64) mgl64.Vec3 {
	largest := max(math.Abs(v.X()), math.Abs(v.Y()), math.Abs(v.Z()))
	if largest <= maxComponent {
		return v
	}
	return v.Mul(maxComponent / largest)
}

// MoveTo teleports the body: velocities are zeroed, the body is activated and its skin follows
func (rb *RigidBody) MoveTo(position mgl64.Vec3, orientation mgl64.Mat3) {
	rb.SetActive()

	rb.transform = geom.Transform{Position: position, Orientation: orientation}
	rb.rate = geom.TransformRate{}
	rb.rateAux = geom.TransformRate{}
	rb.CopyCurrentStateToOld()
	rb.updateWorldInertia()

	if rb.skin != nil {
		rb.skin.SetTransform(rb.oldTransform, rb.transform)
	}
}

// ========== ACTIVITY ==========

func (rb *RigidBody) Activity() ActivityState {
	return rb.activity
}

func (rb *RigidBody) IsActive() bool {
	return rb.activity == Active
}

func (rb *RigidBody) InactiveTime() float64 {
	return rb.inactiveTime
}

// SetActive wakes the body and restarts its rest timer
func (rb *RigidBody) SetActive() {
	rb.activity = Active
	rb.inactiveTime = 0
}

// SetInactive freezes the body when AllowFreezing is set. Its velocities are dropped.
func (rb *RigidBody) SetInactive() {
	if !rb.AllowFreezing {
		return
	}
	rb.activity = Inactive
	rb.rate = geom.TransformRate{}
	rb.rateAux = geom.TransformRate{}
}

// SetActivityThreshold sets the speeds under which the body counts as resting.
// The angular threshold is given in degrees per second.
func (rb *RigidBody) SetActivityThreshold(velocity, angularVelocityDeg float64) {
	rb.sqVelocityThreshold = velocity * velocity
	angular := mgl64.DegToRad(angularVelocityDeg)
	rb.sqAngVelocityThreshold = angular * angular
}

// SetDeactivationTime sets how long a body must rest before freezing
func (rb *RigidBody) SetDeactivationTime(seconds float64) {
	rb.deactivationTime = seconds
}

func (rb *RigidBody) DeactivationTime() float64 {
	return rb.deactivationTime
}

// UpdateDeactivation accumulates the time spent under both activity thresholds
func (rb *RigidBody) UpdateDeactivation(dt float64) {
	if rb.rate.Velocity.LenSqr() > rb.sqVelocityThreshold ||
		rb.rate.AngularVelocity.LenSqr() > rb.sqAngVelocityThreshold {
		rb.inactiveTime = 0
		return
	}
	rb.inactiveTime += dt
}

// ShouldBeActive reports whether the body has not rested long enough to freeze.
// It ignores AllowFreezing; SetInactive honours it.
func (rb *RigidBody) ShouldBeActive() bool {
	return rb.inactiveTime < rb.deactivationTime
}

// DampForDeactivation slows a resting body down once past DeactivationDampingStart of
// its deactivation time, reaching zero when the time is over
func (rb *RigidBody) DampForDeactivation() {
	if rb.deactivationTime <= 0 {
		return
	}

	frac := rb.inactiveTime / rb.deactivationTime
	if frac < DeactivationDampingStart {
		return
	}

	scale := 1.0 - (frac-DeactivationDampingStart)/(1.0-DeactivationDampingStart)
	scale = math.Max(0, math.Min(1, scale))

	rb.rate.Velocity = rb.rate.Velocity.Mul(scale)
	rb.rate.AngularVelocity = rb.rate.AngularVelocity.Mul(scale)
}
