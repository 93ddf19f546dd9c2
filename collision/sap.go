package collision

import (
	"cmp"
	"math"
	"slices"
	"sort"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geom"
)

// SweepAndPrune keeps the skins sorted by the minimum X of their bounding box and only
// hands the narrow phase the pairs overlapping on all three axes.
//
// The list is re-sorted lazily, the first time it is needed after a skin moved.
type SweepAndPrune struct {
	detector

	skins []*CollisionSkin
	dirty bool
	// largestX is the widest X extent of any skin, bounding how far back a query must look
	largestX float64

	active     []*CollisionSkin
	candidates []*CollisionSkin
}

func NewSweepAndPrune(registry *Registry) *SweepAndPrune {
	return &SweepAndPrune{detector: newDetector(registry)}
}

func (s *SweepAndPrune) AddCollisionSkin(skin *CollisionSkin) {
	if skin.system == CollisionSystem(s) {
		return
	}
	attach(s, skin)
	s.skins = append(s.skins, skin)
	s.dirty = true
}

func (s *SweepAndPrune) RemoveCollisionSkin(skin *CollisionSkin) bool {
	var ok bool
	if s.skins, ok = removeSkin(s.skins, skin); ok {
		skin.system = nil
	}
	return ok
}

func (s *SweepAndPrune) CollisionSkinMoved(*CollisionSkin) {
	s.dirty = true
}

func (s *SweepAndPrune) Skins() []*CollisionSkin {
	return s.skins
}

func (s *SweepAndPrune) sortSkins() {
	if !s.dirty {
		return
	}

	slices.SortStableFunc(s.skins, func(a, b *CollisionSkin) int {
		return cmp.Compare(a.worldBox.Min.X(), b.worldBox.Min.X())
	})

	s.largestX = 0
	for _, skin := range s.skins {
		if skin.worldBox.IsEmpty() {
			continue
		}
		s.largestX = math.Max(s.largestX, skin.worldBox.Max.X()-skin.worldBox.Min.X())
	}
	s.dirty = false
}

// extractOverlapping appends to out the skins whose bounding box overlaps box
func (s *SweepAndPrune) extractOverlapping(box geom.AABB, out []*CollisionSkin) []*CollisionSkin {
	s.sortSkins()

	lowest := box.Min.X() - s.largestX
	first := sort.Search(len(s.skins), func(i int) bool {
		return s.skins[i].worldBox.Min.X() >= lowest
	})

	for _, skin := range s.skins[first:] {
		if skin.worldBox.Min.X() > box.Max.X() {
			break
		}
		if skin.worldBox.Max.X() >= box.Min.X() && skin.worldBox.OverlapsYZ(box) {
			out = append(out, skin)
		}
	}
	return out
}

func (s *SweepAndPrune) DetectCollisions(body *actor.RigidBody, notifier CollisionNotifier, pred PairPredicate, tolerance float64) {
	skin := bodySkin(body)
	if skin == nil || skin.worldBox.IsEmpty() {
		return
	}

	s.candidates = s.extractOverlapping(skin.worldBox, s.candidates[:0])
	for _, other := range s.candidates {
		if shouldTest(skin, other, pred) {
			s.detectPair(skin, other, notifier, tolerance)
		}
	}
}

func (s *SweepAndPrune) DetectAllCollisions(bodies []*actor.RigidBody, notifier CollisionNotifier, pred PairPredicate, tolerance float64) {
	s.sortSkins()
	s.setQueried(bodies)

	s.active = s.active[:0]
	for _, skin := range s.skins {
		box := skin.worldBox
		if box.IsEmpty() {
			// empty boxes sort last
			break
		}

		// drop the skins ending before this one starts
		n := 0
		for _, a := range s.active {
			if a.worldBox.Max.X() >= box.Min.X() {
				s.active[n] = a
				n++
			}
		}
		clear(s.active[n:])
		s.active = s.active[:n]

		for _, a := range s.active {
			if !a.worldBox.OverlapsYZ(box) || !s.isQueried(a, skin) {
				continue
			}
			if shouldTest(a, skin, pred) {
				s.detectPair(a, skin, notifier, tolerance)
			}
		}

		s.active = append(s.active, skin)
	}
}

func (s *SweepAndPrune) SegmentIntersect(seg geom.Segment, pred SkinPredicate) (SegmentResult, bool, error) {
	s.candidates = s.extractOverlapping(seg.BoundingBox(), s.candidates[:0])
	return closestSegmentHit(s.candidates, seg, pred)
}
