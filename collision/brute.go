package collision

import (
	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geom"
)

// Brute tests every pair of skins. It is the reference the other systems are checked against.
type Brute struct {
	detector
	skins []*CollisionSkin
}

func NewBrute(registry *Registry) *Brute {
	return &Brute{detector: newDetector(registry)}
}

func (b *Brute) AddCollisionSkin(skin *CollisionSkin) {
	if skin.system == CollisionSystem(b) {
		return
	}
	attach(b, skin)
	b.skins = append(b.skins, skin)
}

func (b *Brute) RemoveCollisionSkin(skin *CollisionSkin) bool {
	var ok bool
	if b.skins, ok = removeSkin(b.skins, skin); ok {
		skin.system = nil
	}
	return ok
}

func (b *Brute) CollisionSkinMoved(*CollisionSkin) {}

func (b *Brute) Skins() []*CollisionSkin {
	return b.skins
}

func (b *Brute) DetectCollisions(body *actor.RigidBody, notifier CollisionNotifier, pred PairPredicate, tolerance float64) {
	skin := bodySkin(body)
	if skin == nil {
		return
	}
	for _, other := range b.skins {
		if skin.worldBox.Overlaps(other.worldBox) && shouldTest(skin, other, pred) {
			b.detectPair(skin, other, notifier, tolerance)
		}
	}
}

func (b *Brute) DetectAllCollisions(bodies []*actor.RigidBody, notifier CollisionNotifier, pred PairPredicate, tolerance float64) {
	b.setQueried(bodies)
	for i, s0 := range b.skins {
		for _, s1 := range b.skins[i+1:] {
			if !s0.worldBox.Overlaps(s1.worldBox) || !b.isQueried(s0, s1) {
				continue
			}
			if shouldTest(s0, s1, pred) {
				b.detectPair(s0, s1, notifier, tolerance)
			}
		}
	}
}

func (b *Brute) SegmentIntersect(seg geom.Segment, pred SkinPredicate) (SegmentResult, bool, error) {
	return closestSegmentHit(b.skins, seg, pred)
}
