package collision

import "github.com/go-gl/mathgl/mgl64"

// BasicCollisionFunctor turns the contacts of the detection functors into pooled
// CollisionInfo. Blocking infos are also attached to both skins.
type BasicCollisionFunctor struct {
	Pool *Pool
	// Infos holds every CollisionInfo created since the last Reset
	Infos []*CollisionInfo

	// OnPair, when set, is called with every new CollisionInfo, blocking or not
	OnPair func(ci *CollisionInfo)
}

func NewBasicCollisionFunctor(pool *Pool) *BasicCollisionFunctor {
	return &BasicCollisionFunctor{
		Pool:  pool,
		Infos: make([]*CollisionInfo, 0, 64),
	}
}

func (f *BasicCollisionFunctor) CollisionNotify(info CollDetectInfo, dirToBody0 mgl64.Vec3, points []SmallCollPointInfo) {
	ci := f.Pool.GetCollisionInfo(info, dirToBody0, points)
	ci.Blocking = info.Skin0.Collides(info.Skin1) && info.Skin1.Collides(info.Skin0)

	if ci.Blocking {
		info.Skin0.addCollision(ci)
		info.Skin1.addCollision(ci)
	}

	f.Infos = append(f.Infos, ci)
	if f.OnPair != nil {
		f.OnPair(ci)
	}
}

func (f *BasicCollisionFunctor) Scratch() []SmallCollPointInfo {
	return f.Pool.Scratch()
}

func (f *BasicCollisionFunctor) ReleaseScratch(buf []SmallCollPointInfo) {
	f.Pool.ReleaseScratch(buf)
}

// Reset returns every gathered info to the pool
func (f *BasicCollisionFunctor) Reset() {
	f.Pool.FreeAll(f.Infos)
	clear(f.Infos)
	f.Infos = f.Infos[:0]
}
