package collision

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultPoolSize is the number of CollisionInfo prepared by NewPool when no size is given
const DefaultPoolSize = 64

// Pool recycles CollisionInfo, CollPointInfo and narrow-phase scratch buffers.
// It grows on demand and is not safe for concurrent use.
type Pool struct {
	Logger *slog.Logger

	materials *MaterialTable

	freeInfos   []*CollisionInfo
	freePoints  []*CollPointInfo
	freeScratch [][]SmallCollPointInfo

	outstanding int
	allocated   int
}

// NewPool prepares size CollisionInfo, with their points, resolving materials through materials
func NewPool(materials *MaterialTable, size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if materials == nil {
		materials = NewMaterialTable()
	}

	p := &Pool{
		Logger:      slog.Default(),
		materials:   materials,
		freeInfos:   make([]*CollisionInfo, 0, size),
		freePoints:  make([]*CollPointInfo, 0, size*MaxCollisionPoints),
		freeScratch: make([][]SmallCollPointInfo, 0, 4),
	}
	for range size {
		p.freeInfos = append(p.freeInfos, &CollisionInfo{Points: make([]*CollPointInfo, 0, MaxCollisionPoints)})
	}
	for range size * MaxCollisionPoints {
		p.freePoints = append(p.freePoints, &CollPointInfo{})
	}
	p.allocated = size

	return p
}

// Materials returns the table used to resolve material pairs
func (p *Pool) Materials() *MaterialTable {
	return p.materials
}

// Outstanding returns the number of CollisionInfo handed out and not freed yet
func (p *Pool) Outstanding() int {
	return p.outstanding
}

// Available returns the number of CollisionInfo ready to be handed out without allocating
func (p *Pool) Available() int {
	return len(p.freeInfos)
}

// GetCollisionInfo builds a CollisionInfo for the pair. Only the first MaxCollisionPoints points
// are kept. It panics with ErrUnknownMaterial when a primitive uses an unregistered material.
func (p *Pool) GetCollisionInfo(info CollDetectInfo, dirToBody0 mgl64.Vec3, points []SmallCollPointInfo) *CollisionInfo {
	var ci *CollisionInfo
	if n := len(p.freeInfos); n > 0 {
		ci = p.freeInfos[n-1]
		p.freeInfos = p.freeInfos[:n-1]
	} else {
		ci = &CollisionInfo{Points: make([]*CollPointInfo, 0, MaxCollisionPoints)}
		p.allocated++
		p.Logger.Debug("collision pool grown", "allocated", p.allocated)
	}
	p.outstanding++

	ci.SkinInfo = info
	ci.DirToBody0 = dirToBody0
	ci.MatPairProperties = p.resolveMaterials(info)
	ci.Blocking = true
	ci.Satisfied = false

	if len(points) > MaxCollisionPoints {
		points = points[:MaxCollisionPoints]
	}
	ci.Points = ci.Points[:0]
	for _, small := range points {
		pt := p.getPoint()
		pt.init(small)
		ci.Points = append(ci.Points, pt)
	}

	return ci
}

func (p *Pool) getPoint() *CollPointInfo {
	if n := len(p.freePoints); n > 0 {
		pt := p.freePoints[n-1]
		p.freePoints = p.freePoints[:n-1]
		return pt
	}
	return &CollPointInfo{}
}

func (p *Pool) resolveMaterials(info CollDetectInfo) MaterialPairProperties {
	id0 := info.Skin0.MaterialID(info.Prim0)
	id1 := info.Skin1.MaterialID(info.Prim1)

	if id0 != MaterialUserDefined && id1 != MaterialUserDefined {
		props, err := p.materials.PairProperties(id0, id1)
		if err != nil {
			panic(err)
		}
		return props
	}

	return CombineMaterials(p.primitiveMaterial(info.Skin0, info.Prim0), p.primitiveMaterial(info.Skin1, info.Prim1))
}

func (p *Pool) primitiveMaterial(skin *CollisionSkin, prim int) MaterialProperties {
	id := skin.MaterialID(prim)
	if id == MaterialUserDefined {
		return skin.MaterialProperties(prim)
	}
	props, err := p.materials.MaterialProperties(id)
	if err != nil {
		panic(err)
	}
	return props
}

// FreeCollisionInfo detaches ci from its skins and returns it, with its points, to the pool.
// ci must not be used afterwards.
func (p *Pool) FreeCollisionInfo(ci *CollisionInfo) {
	if ci == nil {
		return
	}

	if ci.SkinInfo.Skin0 != nil {
		ci.SkinInfo.Skin0.removeCollision(ci)
	}
	if ci.SkinInfo.Skin1 != nil {
		ci.SkinInfo.Skin1.removeCollision(ci)
	}

	for i, pt := range ci.Points {
		p.freePoints = append(p.freePoints, pt)
		ci.Points[i] = nil
	}
	ci.Points = ci.Points[:0]
	ci.SkinInfo = CollDetectInfo{}

	p.freeInfos = append(p.freeInfos, ci)
	p.outstanding--
}

// FreeAll frees every info of infos
func (p *Pool) FreeAll(infos []*CollisionInfo) {
	for _, ci := range infos {
		p.FreeCollisionInfo(ci)
	}
}

// Scratch returns an empty buffer able to hold MaxCollisionPoints contacts without growing
func (p *Pool) Scratch() []SmallCollPointInfo {
	if n := len(p.freeScratch); n > 0 {
		buf := p.freeScratch[n-1]
		p.freeScratch = p.freeScratch[:n-1]
		return buf[:0]
	}
	return make([]SmallCollPointInfo, 0, MaxCollisionPoints)
}

// ReleaseScratch hands a buffer obtained from Scratch back
func (p *Pool) ReleaseScratch(buf []SmallCollPointInfo) {
	if cap(buf) == 0 {
		return
	}
	p.freeScratch = append(p.freeScratch, buf[:0])
}
