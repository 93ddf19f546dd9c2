package collision

import (
	"fmt"
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// PairPredicate filters skin pairs before the narrow phase. A nil predicate accepts everything.
type PairPredicate func(skin0, skin1 *CollisionSkin) bool

// SkinPredicate filters the skins a segment query may hit. A nil predicate accepts everything.
type SkinPredicate func(skin *CollisionSkin) bool

// SegmentResult is the closest hit of a segment query
type SegmentResult struct {
	Frac     float64
	Skin     *CollisionSkin
	Position mgl64.Vec3
	Normal   mgl64.Vec3
}

// CollisionSystem is a broad phase: it holds the skins and hands overlapping pairs to the
// detection functors.
type CollisionSystem interface {
	AddCollisionSkin(skin *CollisionSkin)
	RemoveCollisionSkin(skin *CollisionSkin) bool
	// CollisionSkinMoved is called by the skin whenever its bounding box changes
	CollisionSkinMoved(skin *CollisionSkin)

	// DetectCollisions tests the skin of body against every other skin
	DetectCollisions(body *actor.RigidBody, notifier CollisionNotifier, pred PairPredicate, tolerance float64)
	// DetectAllCollisions tests every pair where at least one skin belongs to one of bodies
	DetectAllCollisions(bodies []*actor.RigidBody, notifier CollisionNotifier, pred PairPredicate, tolerance float64)

	SegmentIntersect(seg geom.Segment, pred SkinPredicate) (SegmentResult, bool, error)
	Skins() []*CollisionSkin
}

// detector holds what every collision system shares: the functor registry, pair filtering
// and the set of bodies of the current DetectAllCollisions call
type detector struct {
	registry *Registry
	queried  map[*actor.RigidBody]struct{}
}

func newDetector(registry *Registry) detector {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return detector{registry: registry, queried: make(map[*actor.RigidBody]struct{})}
}

// Registry returns the functors the system dispatches to
func (d *detector) Registry() *Registry {
	return d.registry
}

func (d *detector) setQueried(bodies []*actor.RigidBody) {
	clear(d.queried)
	for _, b := range bodies {
		d.queried[b] = struct{}{}
	}
}

func (d *detector) isQueried(s0, s1 *CollisionSkin) bool {
	if s0.owner != nil {
		if _, ok := d.queried[s0.owner]; ok {
			return true
		}
	}
	if s1.owner != nil {
		if _, ok := d.queried[s1.owner]; ok {
			return true
		}
	}
	return false
}

func isMoving(body *actor.RigidBody) bool {
	return body != nil && !body.Immovable && body.IsActive()
}

// shouldTest applies the pair filters: same skin or owner, non-collidables, pairs where
// nothing moves, then the user predicate
func shouldTest(s0, s1 *CollisionSkin, pred PairPredicate) bool {
	if s0 == s1 {
		return false
	}
	if s0.owner != nil && s0.owner == s1.owner {
		return false
	}
	if s0.IsNonCollidable(s1) {
		return false
	}
	if !isMoving(s0.owner) && !isMoving(s1.owner) {
		return false
	}
	if pred != nil && !pred(s0, s1) {
		return false
	}
	return true
}

// detectPair runs the functors over the cross product of both skins' primitives.
// It reports whether at least one functor ran.
func (d *detector) detectPair(s0, s1 *CollisionSkin, notifier CollisionNotifier, tolerance float64) bool {
	ran := false
	for i := range s0.primitives {
		for j := range s1.primitives {
			info := CollDetectInfo{Skin0: s0, Skin1: s1, Prim0: i, Prim1: j}
			if d.registry.Detect(info, tolerance, notifier) {
				ran = true
			}
		}
	}
	return ran
}

// bodySkin returns the collision skin of body, if it has one of this package
func bodySkin(body *actor.RigidBody) *CollisionSkin {
	if body == nil {
		return nil
	}
	skin, _ := body.Skin().(*CollisionSkin)
	return skin
}

// closestSegmentHit intersects seg with each candidate, keeping the hit closest to the origin
func closestSegmentHit(candidates []*CollisionSkin, seg geom.Segment, pred SkinPredicate) (SegmentResult, bool, error) {
	best := SegmentResult{Frac: math.Inf(1)}
	bestDistSq := math.Inf(1)

	for _, skin := range candidates {
		if pred != nil && !pred(skin) {
			continue
		}
		if !skin.worldBox.SegmentOverlaps(seg) {
			continue
		}

		hit, ok, err := skin.SegmentIntersect(seg)
		if err != nil {
			return SegmentResult{}, false, fmt.Errorf("segment query: %w", err)
		}
		if !ok {
			continue
		}

		if distSq := hit.Position.Sub(seg.Origin).LenSqr(); distSq < bestDistSq {
			bestDistSq = distSq
			best = SegmentResult{Frac: hit.Frac, Skin: skin, Position: hit.Position, Normal: hit.Normal}
		}
	}

	return best, best.Skin != nil, nil
}

// attach registers skin in system, detaching it from any previous one
func attach(system CollisionSystem, skin *CollisionSkin) {
	if skin.system != nil && skin.system != system {
		skin.system.RemoveCollisionSkin(skin)
	}
	skin.system = system
}

func removeSkin(skins []*CollisionSkin, skin *CollisionSkin) ([]*CollisionSkin, bool) {
	for i, s := range skins {
		if s == skin {
			copy(skins[i:], skins[i+1:])
			skins[len(skins)-1] = nil
			return skins[:len(skins)-1], true
		}
	}
	return skins, false
}
