package collision

import (
	"errors"
	"fmt"

	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrDuplicateFunctor is returned when a pair of primitive types already has a functor
var ErrDuplicateFunctor = errors.New("detection functor already registered")

// CollisionNotifier receives the contacts found by the detection functors
type CollisionNotifier interface {
	// CollisionNotify is called once per primitive pair in contact. points is only valid
	// during the call.
	CollisionNotify(info CollDetectInfo, dirToBody0 mgl64.Vec3, points []SmallCollPointInfo)
	// Scratch returns an empty buffer for the functor to collect points into
	Scratch() []SmallCollPointInfo
	ReleaseScratch(buf []SmallCollPointInfo)
}

// DetectFunctor is a narrow-phase test for one unordered pair of primitive types.
// CollDetect always receives Skin0 carrying the first type returned by Types.
type DetectFunctor interface {
	Name() string
	Types() (geom.PrimitiveType, geom.PrimitiveType)
	CollDetect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier)
}

type registryEntry struct {
	functor DetectFunctor
	// swapped cells hold a functor registered for the mirrored pair
	swapped bool
}

// Registry dispatches primitive pairs to their detection functor
type Registry struct {
	table [geom.NumPrimitiveTypes][geom.NumPrimitiveTypes]registryEntry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns a registry holding every functor of the package.
// Plane, TriangleMesh and AABox pairs among static geometry are left out.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, f := range []DetectFunctor{
		SphereSphere{},
		SpherePlane{},
		SphereBox{},
		SphereCapsule{},
		SphereTriangleMesh{},
		CapsuleCapsule{},
		CapsulePlane{},
		CapsuleBox{},
		CapsuleTriangleMesh{},
		BoxBox{},
		BoxPlane{},
		BoxTriangleMesh{},
	} {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
	return r
}

// Register installs f for its pair of types, in both orders
func (r *Registry) Register(f DetectFunctor) error {
	t0, t1 := f.Types()
	if r.table[t0][t1].functor != nil {
		return fmt.Errorf("%s for %s/%s: %w", f.Name(), t0, t1, ErrDuplicateFunctor)
	}

	r.table[t0][t1] = registryEntry{functor: f}
	if t0 != t1 {
		r.table[t1][t0] = registryEntry{functor: f, swapped: true}
	}
	return nil
}

// Lookup returns the functor for the pair and whether the arguments must be swapped
func (r *Registry) Lookup(t0, t1 geom.PrimitiveType) (DetectFunctor, bool) {
	e := r.table[t0][t1]
	return e.functor, e.swapped
}

// Detect runs the functor registered for the primitives of info, if any.
// It reports whether a functor was found.
func (r *Registry) Detect(info CollDetectInfo, tolerance float64, notifier CollisionNotifier) bool {
	t0 := info.Skin0.Primitive(info.Prim0).Type()
	t1 := info.Skin1.Primitive(info.Prim1).Type()

	f, swapped := r.Lookup(t0, t1)
	if f == nil {
		return false
	}
	if swapped {
		info = info.Swapped()
	}

	f.CollDetect(info, tolerance, notifier)
	return true
}

// contactPoint measures worldPos from the old position of both skins
func contactPoint(info CollDetectInfo, worldPos mgl64.Vec3, depth float64) SmallCollPointInfo {
	return SmallCollPointInfo{
		R0:                 worldPos.Sub(info.Skin0.OldPosition()),
		R1:                 worldPos.Sub(info.Skin1.OldPosition()),
		InitialPenetration: depth,
	}
}

// safeNormalize returns v normalized, or fallback when v is too short
func safeNormalize(v, fallback mgl64.Vec3) mgl64.Vec3 {
	if v.LenSqr() < geom.Epsilon {
		return fallback
	}
	return v.Normalize()
}

var worldUp = mgl64.Vec3{0, 1, 0}

// notify hands pts to the notifier when not empty, then releases the scratch buffer
func notify(notifier CollisionNotifier, info CollDetectInfo, dirToBody0 mgl64.Vec3, pts []SmallCollPointInfo) {
	if len(pts) > 0 {
		notifier.CollisionNotify(info, dirToBody0, pts)
	}
	notifier.ReleaseScratch(pts)
}
