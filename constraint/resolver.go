// Package constraint resolves the contacts gathered by the collision package into velocity
// changes of the bodies involved.
package constraint

import (
	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/collision"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactResolver turns a step's contacts into impulses. The world calls PreProcess once,
// then Iterate before and after integrating the forces.
type ContactResolver interface {
	PreProcess(infos []*collision.CollisionInfo, dt float64)
	// Iterate runs iterations passes over infos. forceInelastic ignores restitution.
	Iterate(infos []*collision.CollisionInfo, dt float64, iterations int, forceInelastic bool)
}

// contactBody is one side of a contact. body is nil for static geometry.
type contactBody struct {
	body *actor.RigidBody
	// origin is the point the resolver measures contact offsets from
	origin mgl64.Vec3
}

func newContactBody(skin *collision.CollisionSkin) contactBody {
	if body := skin.Owner(); body != nil {
		return contactBody{body: body, origin: body.Position()}
	}
	return contactBody{origin: skin.OldPosition()}
}

func sides(ci *collision.CollisionInfo) (contactBody, contactBody) {
	return newContactBody(ci.SkinInfo.Skin0), newContactBody(ci.SkinInfo.Skin1)
}

// movable reports whether impulses change the body: static, immovable and frozen bodies
// act as infinite masses
func (c contactBody) movable() bool {
	return c.body != nil && !c.body.Immovable && c.body.IsActive()
}

func (c contactBody) inverseMass() float64 {
	if !c.movable() {
		return 0
	}
	return c.body.InverseMass()
}

// angularTerm returns (I⁻¹(r×n))×r, the rotational share of the effective mass along n
func (c contactBody) angularTerm(r, n mgl64.Vec3) mgl64.Vec3 {
	if !c.movable() {
		return mgl64.Vec3{}
	}
	return c.body.WorldInvInertia().Mul3x1(r.Cross(n)).Cross(r)
}

func (c contactBody) pointVelocity(r mgl64.Vec3) mgl64.Vec3 {
	if c.body == nil {
		return mgl64.Vec3{}
	}
	return c.body.PointVelocity(r)
}

func (c contactBody) pointVelocityAux(r mgl64.Vec3) mgl64.Vec3 {
	if c.body == nil {
		return mgl64.Vec3{}
	}
	return c.body.PointVelocityAux(r)
}

func (c contactBody) applyImpulse(impulse, position mgl64.Vec3) {
	if c.movable() {
		c.body.ApplyWorldImpulseAt(impulse, position)
	}
}

func (c contactBody) applyImpulseAux(impulse, position mgl64.Vec3) {
	if c.movable() {
		c.body.ApplyWorldImpulseAux(impulse, position)
	}
}

// offsets returns the contact position relative to both sides
func offsets(pt *collision.CollPointInfo, b0, b1 contactBody) (mgl64.Vec3, mgl64.Vec3) {
	return pt.Position.Sub(b0.origin), pt.Position.Sub(b1.origin)
}

// denominator is the inverse effective mass of the contact along n
func denominator(b0, b1 contactBody, r0, r1, n mgl64.Vec3) float64 {
	return b0.inverseMass() + b1.inverseMass() +
		n.Dot(b0.angularTerm(r0, n)) + n.Dot(b1.angularTerm(r1, n))
}

func clampSmallVelocities(c contactBody) {
	const velocityThreshold = 1e-5

	if !c.movable() {
		return
	}
	if c.body.Velocity().Len() < velocityThreshold {
		c.body.SetVelocity(mgl64.Vec3{})
	}
	if c.body.AngularVelocity().Len() < velocityThreshold {
		c.body.SetAngularVelocity(mgl64.Vec3{})
	}
}
