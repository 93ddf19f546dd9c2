package collision

import "github.com/go-gl/mathgl/mgl64"

// MaxCollisionPoints is the number of contact points kept per CollisionInfo
const MaxCollisionPoints = 10

// CollDetectInfo names the two primitives of a narrow-phase test
type CollDetectInfo struct {
	Skin0 *CollisionSkin
	Skin1 *CollisionSkin
	Prim0 int
	Prim1 int
}

// Swapped returns the same pair with the roles of both skins exchanged
func (c CollDetectInfo) Swapped() CollDetectInfo {
	return CollDetectInfo{Skin0: c.Skin1, Skin1: c.Skin0, Prim0: c.Prim1, Prim1: c.Prim0}
}

// SmallCollPointInfo is a contact as produced by a detection functor
type SmallCollPointInfo struct {
	// R0 and R1 locate the contact relative to the old position of each skin
	R0 mgl64.Vec3
	R1 mgl64.Vec3
	// InitialPenetration is positive when the primitives overlap
	InitialPenetration float64
}

// CollPointInfo is a pooled contact point carrying the resolver scratch state
type CollPointInfo struct {
	SmallCollPointInfo

	// Resolver scratch, zeroed whenever the point is handed out
	Denominator                 float64
	AccumulatedNormalImpulse    float64
	AccumulatedNormalImpulseAux float64
	AccumulatedFrictionImpulse  mgl64.Vec3
	MinSeparationVel            float64
	BounceVel                   float64
	Position                    mgl64.Vec3
}

func (p *CollPointInfo) init(small SmallCollPointInfo) {
	*p = CollPointInfo{SmallCollPointInfo: small}
}

// CollisionInfo gathers the contacts between two primitives
type CollisionInfo struct {
	SkinInfo CollDetectInfo
	// DirToBody0 is the contact normal, pointing from skin 1 toward skin 0
	DirToBody0        mgl64.Vec3
	MatPairProperties MaterialPairProperties
	Points            []*CollPointInfo

	// Blocking is false when a collision callback let the skins pass through each other
	Blocking bool
	// Satisfied is resolver scratch
	Satisfied bool
}

// NumCollPts returns the number of contact points, never above MaxCollisionPoints
func (c *CollisionInfo) NumCollPts() int {
	return len(c.Points)
}
