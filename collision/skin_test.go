package collision

import (
	"testing"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CollisionSkin Tests
// =============================================================================

func TestSkinWithoutOwnerContext(t *testing.T) {
	var skin CollisionSkin

	idx, err := skin.AddPrimitive(sphere(1), MaterialNormalNormal)

	require.ErrorIs(t, err, ErrNoOwnerContext)
	assert.Equal(t, -1, idx)
	assert.Zero(t, skin.NumPrimitives())
}

func TestSkinFollowsOwner(t *testing.T) {
	body := actor.NewRigidBody()
	skin := NewCollisionSkin(body)
	_, err := skin.AddPrimitive(sphere(1), MaterialNormalNormal)
	require.NoError(t, err)

	assert.Same(t, skin, body.Skin())
	assert.Same(t, body, skin.Owner())

	body.MoveTo(mgl64.Vec3{3, 0, 0}, mgl64.Ident3())

	assert.Equal(t, mgl64.Vec3{3, 0, 0}, skin.NewTransform().Position)
	assert.Equal(t, mgl64.Vec3{3, 0, 0}, skin.NewPrimitive(0).Transform().Position)
	assert.Equal(t, mgl64.Vec3{}, skin.Primitive(0).Transform().Position, "the local primitive never moves")
}

func TestSkinWorldBoundingBoxSweeps(t *testing.T) {
	_, skin := newBodySkin(t, mgl64.Vec3{}, mgl64.Ident3(), sphere(1))

	skin.SetTransform(
		geom.NewTransformAt(mgl64.Vec3{}, mgl64.Ident3()),
		geom.NewTransformAt(mgl64.Vec3{5, 0, 0}, mgl64.Ident3()),
	)

	box := skin.WorldBoundingBox()
	assertVecInDelta(t, mgl64.Vec3{-1, -1, -1}, box.Min, 1e-12)
	assertVecInDelta(t, mgl64.Vec3{6, 1, 1}, box.Max, 1e-12)
}

func TestSkinEmptyBoundingBox(t *testing.T) {
	skin := NewCollisionSkin(nil)
	assert.True(t, skin.WorldBoundingBox().IsEmpty())

	_, err := skin.AddPrimitive(sphere(1), MaterialNormalNormal)
	require.NoError(t, err)
	assert.False(t, skin.WorldBoundingBox().IsEmpty())

	skin.RemoveAllPrimitives()
	assert.True(t, skin.WorldBoundingBox().IsEmpty())
}

func TestSkinApplyLocalTransform(t *testing.T) {
	_, skin := newBodySkin(t, mgl64.Vec3{10, 0, 0}, mgl64.Ident3(), geom.NewSphere(mgl64.Vec3{1, 0, 0}, 0.5))

	skin.ApplyLocalTransform(geom.NewTransformAt(mgl64.Vec3{-1, 0, 0}, mgl64.Ident3()))

	assertVecInDelta(t, mgl64.Vec3{}, skin.Primitive(0).Transform().Position, 1e-12)
	assertVecInDelta(t, mgl64.Vec3{10, 0, 0}, skin.NewPrimitive(0).Transform().Position, 1e-12)
	assertVecInDelta(t, mgl64.Vec3{9.5, -0.5, -0.5}, skin.WorldBoundingBox().Min, 1e-12)
}

func TestSkinMassProperties(t *testing.T) {
	skin := NewCollisionSkin(actor.NewRigidBody())
	_, err := skin.AddPrimitive(geom.NewSphere(mgl64.Vec3{1, 0, 0}, 1), MaterialNormalNormal)
	require.NoError(t, err)
	_, err = skin.AddPrimitive(geom.NewSphere(mgl64.Vec3{-1, 0, 0}, 1), MaterialNormalNormal)
	require.NoError(t, err)

	t.Run("shared properties", func(t *testing.T) {
		props := []geom.PrimitiveProperties{geom.NewPrimitiveProperties(geom.Solid, geom.MassTypeMass, 1)}

		mass, com, inertia, err := skin.MassProperties(props)
		require.NoError(t, err)

		assert.InDelta(t, 2.0, mass, 1e-12)
		assertVecInDelta(t, mgl64.Vec3{}, com, 1e-12)
		assert.InDelta(t, 0.8, inertia.At(0, 0), 1e-9)
		assert.InDelta(t, 2.8, inertia.At(1, 1), 1e-9)
		assert.InDelta(t, 2.8, inertia.At(2, 2), 1e-9)
	})

	t.Run("per primitive properties", func(t *testing.T) {
		props := []geom.PrimitiveProperties{
			geom.NewPrimitiveProperties(geom.Solid, geom.MassTypeMass, 3),
			geom.NewPrimitiveProperties(geom.Solid, geom.MassTypeMass, 1),
		}

		mass, com, _, err := skin.MassProperties(props)
		require.NoError(t, err)

		assert.InDelta(t, 4.0, mass, 1e-12)
		assertVecInDelta(t, mgl64.Vec3{0.5, 0, 0}, com, 1e-12)
	})

	t.Run("static geometry adds nothing", func(t *testing.T) {
		mixed := NewCollisionSkin(actor.NewRigidBody())
		_, err := mixed.AddPrimitive(geom.NewSphere(mgl64.Vec3{1, 0, 0}, 1), MaterialNormalNormal)
		require.NoError(t, err)
		_, err = mixed.AddPrimitive(geom.NewPlane(mgl64.Vec3{0, 1, 0}, 0), MaterialNormalNormal)
		require.NoError(t, err)

		props := []geom.PrimitiveProperties{geom.NewPrimitiveProperties(geom.Solid, geom.MassTypeMass, 1)}
		mass, com, inertia, err := mixed.MassProperties(props)
		require.NoError(t, err)

		assert.InDelta(t, 1.0, mass, 1e-12)
		assertVecInDelta(t, mgl64.Vec3{1, 0, 0}, com, 1e-12)
		assert.InDelta(t, 0.4, inertia.At(1, 1), 1e-9)
	})

	t.Run("mismatch", func(t *testing.T) {
		props := make([]geom.PrimitiveProperties, 3)

		_, _, _, err := skin.MassProperties(props)
		require.ErrorIs(t, err, ErrPropertiesMismatch)
	})
}

func TestSkinNonCollidable(t *testing.T) {
	a := NewCollisionSkin(nil)
	b := NewCollisionSkin(nil)

	assert.False(t, a.IsNonCollidable(b))

	a.AddNonCollidable(b)
	assert.True(t, a.IsNonCollidable(b))
	assert.True(t, b.IsNonCollidable(a), "either side excluding the other is enough")

	a.RemoveNonCollidable(b)
	assert.False(t, b.IsNonCollidable(a))
}

func TestSkinCollides(t *testing.T) {
	a := NewCollisionSkin(nil)
	b := NewCollisionSkin(nil)

	assert.True(t, a.Collides(b))

	b.IsTrigger = true
	assert.False(t, a.Collides(b))
	assert.False(t, b.Collides(a))

	b.Callback = func(*CollisionSkin, *CollisionSkin) bool { return true }
	assert.True(t, b.Collides(a), "a callback overrides the trigger rule")
	assert.False(t, a.Collides(b))
}

func TestSkinSegmentIntersect(t *testing.T) {
	skin := NewCollisionSkin(nil)
	_, err := skin.AddPrimitive(geom.NewSphere(mgl64.Vec3{5, 0, 0}, 1), MaterialNormalNormal)
	require.NoError(t, err)
	_, err = skin.AddPrimitive(geom.NewBox(mgl64.Vec3{2, 0, 0}, mgl64.Ident3(), mgl64.Vec3{1, 1, 1}), MaterialNormalNormal)
	require.NoError(t, err)

	hit, ok, err := skin.SegmentIntersect(geom.NewSegment(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 0, 0}))

	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.15, hit.Frac, 1e-9, "the box comes first")
	assertVecInDelta(t, mgl64.Vec3{-1, 0, 0}, hit.Normal, 1e-9)

	_, ok, err = skin.SegmentIntersect(geom.NewSegment(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{10, 5, 0}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSkinSegmentIntersectUnsupported(t *testing.T) {
	skin := NewCollisionSkin(nil)
	_, err := skin.AddPrimitive(geom.NewAABox(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1}), MaterialNormalNormal)
	require.NoError(t, err)

	_, _, err = skin.SegmentIntersect(geom.NewSegment(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}))
	require.ErrorIs(t, err, geom.ErrNotImplemented)
}
