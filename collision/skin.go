// Package collision holds the collision skins, the narrow-phase detection functors, the
// broad-phase collision systems and the pooled contact records they produce.
package collision

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrNoOwnerContext is returned when a skin was not built through NewCollisionSkin
	ErrNoOwnerContext = errors.New("collision skin has no owner context")
	// ErrPropertiesMismatch is returned when mass properties do not match the primitives
	ErrPropertiesMismatch = errors.New("primitive properties do not match the skin primitives")
)

// CollisionCallbackFn is called when two skins are found to touch. Returning false lets
// them pass through each other.
type CollisionCallbackFn func(self, other *CollisionSkin) bool

// DefaultCollisionCallback blocks unless one of the skins is a trigger
func DefaultCollisionCallback(self, other *CollisionSkin) bool {
	return !self.IsTrigger && !other.IsTrigger
}

type skinPrimitive struct {
	local    geom.Primitive
	oldWorld geom.Primitive
	newWorld geom.Primitive

	material   MaterialID
	properties MaterialProperties
}

// CollisionSkin is the set of primitives moving with one body, or static geometry when
// it has no owner.
type CollisionSkin struct {
	// Callback overrides DefaultCollisionCallback
	Callback CollisionCallbackFn
	// IsTrigger skins report their overlaps but never block
	IsTrigger bool

	owner *actor.RigidBody
	ready bool

	primitives []skinPrimitive

	oldTransform geom.Transform
	newTransform geom.Transform
	worldBox     geom.AABB

	collisions     []*CollisionInfo
	nonCollidables map[*CollisionSkin]struct{}

	system CollisionSystem
}

// NewCollisionSkin creates an empty skin following owner. A nil owner makes a static skin.
func NewCollisionSkin(owner *actor.RigidBody) *CollisionSkin {
	s := &CollisionSkin{
		owner:          owner,
		ready:          true,
		oldTransform:   geom.NewTransform(),
		newTransform:   geom.NewTransform(),
		worldBox:       geom.EmptyAABB(),
		nonCollidables: make(map[*CollisionSkin]struct{}),
	}
	if owner != nil {
		owner.SetSkin(s)
	}
	return s
}

// Owner returns the body the skin follows, nil for static geometry
func (s *CollisionSkin) Owner() *actor.RigidBody {
	return s.owner
}

// AddPrimitive appends a primitive using a material of the table and returns its index
func (s *CollisionSkin) AddPrimitive(prim geom.Primitive, material MaterialID) (int, error) {
	return s.addPrimitive(prim, material, MaterialProperties{})
}

// AddPrimitiveWithProperties appends a primitive with its own surface properties
func (s *CollisionSkin) AddPrimitiveWithProperties(prim geom.Primitive, props MaterialProperties) (int, error) {
	return s.addPrimitive(prim, MaterialUserDefined, props)
}

func (s *CollisionSkin) addPrimitive(prim geom.Primitive, material MaterialID, props MaterialProperties) (int, error) {
	if !s.ready {
		return -1, fmt.Errorf("add %s primitive: %w", prim.Type(), ErrNoOwnerContext)
	}

	s.primitives = append(s.primitives, skinPrimitive{
		local:      prim,
		oldWorld:   geom.WorldPrimitive(prim, s.oldTransform),
		newWorld:   geom.WorldPrimitive(prim, s.newTransform),
		material:   material,
		properties: props,
	})
	s.updateWorldBoundingBox()

	return len(s.primitives) - 1, nil
}

// RemoveAllPrimitives empties the skin
func (s *CollisionSkin) RemoveAllPrimitives() {
	s.primitives = s.primitives[:0]
	s.updateWorldBoundingBox()
}

func (s *CollisionSkin) NumPrimitives() int {
	return len(s.primitives)
}

// Primitive returns primitive i in skin space
func (s *CollisionSkin) Primitive(i int) geom.Primitive {
	return s.primitives[i].local
}

// OldPrimitive returns primitive i placed at the transform of the start of the step
func (s *CollisionSkin) OldPrimitive(i int) geom.Primitive {
	return s.primitives[i].oldWorld
}

// NewPrimitive returns primitive i placed at the current transform
func (s *CollisionSkin) NewPrimitive(i int) geom.Primitive {
	return s.primitives[i].newWorld
}

func (s *CollisionSkin) MaterialID(i int) MaterialID {
	return s.primitives[i].material
}

func (s *CollisionSkin) MaterialProperties(i int) MaterialProperties {
	return s.primitives[i].properties
}

// SetMaterialProperties gives primitive i its own surface properties
func (s *CollisionSkin) SetMaterialProperties(i int, props MaterialProperties) {
	s.primitives[i].material = MaterialUserDefined
	s.primitives[i].properties = props
}

func (s *CollisionSkin) OldTransform() geom.Transform {
	return s.oldTransform
}

func (s *CollisionSkin) NewTransform() geom.Transform {
	return s.newTransform
}

// OldPosition is the origin contact offsets are measured from
func (s *CollisionSkin) OldPosition() mgl64.Vec3 {
	return s.oldTransform.Position
}

// WorldBoundingBox encloses every primitive at both the old and the new transform
func (s *CollisionSkin) WorldBoundingBox() geom.AABB {
	return s.worldBox
}

// SetTransform moves the skin. The bounding box sweeps from old to new.
func (s *CollisionSkin) SetTransform(old, new geom.Transform) {
	s.oldTransform = old
	s.newTransform = new

	for i := range s.primitives {
		p := &s.primitives[i]
		p.oldWorld.SetTransform(old.Compose(p.local.Transform()))
		p.newWorld.SetTransform(new.Compose(p.local.Transform()))
	}
	s.updateWorldBoundingBox()
}

func (s *CollisionSkin) updateWorldBoundingBox() {
	box := geom.EmptyAABB()
	for _, p := range s.primitives {
		box.AddAABB(p.oldWorld.BoundingBox())
		box.AddAABB(p.newWorld.BoundingBox())
	}
	s.worldBox = box

	if s.system != nil {
		s.system.CollisionSkinMoved(s)
	}
}

// ApplyLocalTransform moves every primitive inside the skin frame by t
func (s *CollisionSkin) ApplyLocalTransform(t geom.Transform) {
	for i := range s.primitives {
		p := &s.primitives[i]
		p.local.SetTransform(t.Compose(p.local.Transform()))
	}
	s.SetTransform(s.oldTransform, s.newTransform)
}

// MassProperties sums the mass of the primitives in skin space. It returns the total mass,
// the centre of mass and the inertia tensor about the centre of mass. A single entry in
// props applies to every primitive.
func (s *CollisionSkin) MassProperties(props []geom.PrimitiveProperties) (float64, mgl64.Vec3, mgl64.Mat3, error) {
	if len(props) != 1 && len(props) != len(s.primitives) {
		return 0, mgl64.Vec3{}, mgl64.Mat3{}, fmt.Errorf("%d properties for %d primitives: %w", len(props), len(s.primitives), ErrPropertiesMismatch)
	}

	var totalMass float64
	var centre mgl64.Vec3
	var inertia mgl64.Mat3

	for i, p := range s.primitives {
		pp := props[0]
		if len(props) > 1 {
			pp = props[i]
		}

		mass, com, it := p.local.MassProperties(pp)
		if mass == 0 {
			// static geometry adds nothing, not even its identity inertia
			continue
		}
		totalMass += mass
		centre = centre.Add(com.Mul(mass))
		inertia = inertia.Add(it)
	}

	if totalMass > 0 {
		centre = centre.Mul(1 / totalMass)
	}

	return totalMass, centre, geom.InverseTransferAxes(inertia, totalMass, centre), nil
}

// Collides reports whether contact with other must block, through Callback
func (s *CollisionSkin) Collides(other *CollisionSkin) bool {
	if s.Callback != nil {
		return s.Callback(s, other)
	}
	return DefaultCollisionCallback(s, other)
}

// AddNonCollidable excludes other from any test against s
func (s *CollisionSkin) AddNonCollidable(other *CollisionSkin) {
	s.nonCollidables[other] = struct{}{}
}

func (s *CollisionSkin) RemoveNonCollidable(other *CollisionSkin) {
	delete(s.nonCollidables, other)
}

// IsNonCollidable reports whether either skin excluded the other
func (s *CollisionSkin) IsNonCollidable(other *CollisionSkin) bool {
	if _, ok := s.nonCollidables[other]; ok {
		return true
	}
	_, ok := other.nonCollidables[s]
	return ok
}

// Collisions returns the blocking contacts the skin takes part in
func (s *CollisionSkin) Collisions() []*CollisionInfo {
	return s.collisions
}

// NumCollisions returns len(Collisions())
func (s *CollisionSkin) NumCollisions() int {
	return len(s.collisions)
}

func (s *CollisionSkin) addCollision(ci *CollisionInfo) {
	s.collisions = append(s.collisions, ci)
}

func (s *CollisionSkin) removeCollision(ci *CollisionInfo) {
	for i, c := range s.collisions {
		if c == ci {
			last := len(s.collisions) - 1
			s.collisions[i] = s.collisions[last]
			s.collisions[last] = nil
			s.collisions = s.collisions[:last]
			return
		}
	}
}

// SegmentIntersect returns the closest hit of seg against the primitives at their current transform
func (s *CollisionSkin) SegmentIntersect(seg geom.Segment) (geom.SegmentHit, bool, error) {
	best := geom.SegmentHit{Frac: math.Inf(1)}
	found := false

	for _, p := range s.primitives {
		hit, ok, err := p.newWorld.SegmentIntersect(seg)
		if err != nil {
			return geom.SegmentHit{}, false, fmt.Errorf("segment against %s: %w", p.newWorld.Type(), err)
		}
		if ok && hit.Frac < best.Frac {
			best = hit
			found = true
		}
	}

	return best, found, nil
}

// System returns the collision system the skin is registered in
func (s *CollisionSkin) System() CollisionSystem {
	return s.system
}
