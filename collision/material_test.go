package collision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MaterialTable Tests
// =============================================================================

func TestMaterialTableDefaults(t *testing.T) {
	table := NewMaterialTable()

	tests := []struct {
		name string
		a, b MaterialID
		want MaterialPairProperties
	}{
		{"normal on normal", MaterialNormalNormal, MaterialNormalNormal, MaterialPairProperties{0.09, 0.25, 0.09}},
		{"bouncy on bouncy", MaterialBouncySmooth, MaterialBouncySmooth, MaterialPairProperties{0.36, 0, 0}},
		{"rough on normal", MaterialNotBouncyRough, MaterialNormalNormal, MaterialPairProperties{0, 0.5, 0.45}},
		{"order does not matter", MaterialNormalNormal, MaterialNotBouncyRough, MaterialPairProperties{0, 0.5, 0.45}},
		{"unset", MaterialUnset, MaterialBouncyRough, MaterialPairProperties{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.PairProperties(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Restitution, got.Restitution, 1e-12)
			assert.InDelta(t, tt.want.StaticFriction, got.StaticFriction, 1e-12)
			assert.InDelta(t, tt.want.DynamicFriction, got.DynamicFriction, 1e-12)
		})
	}
}

func TestMaterialTableCustomMaterial(t *testing.T) {
	table := NewMaterialTable()
	ice := NumMaterialTypes

	_, err := table.PairProperties(ice, MaterialNormalNormal)
	require.ErrorIs(t, err, ErrUnknownMaterial)

	table.SetMaterialProperties(ice, MaterialProperties{Elasticity: 0.1, StaticRoughness: 0.1, DynamicRoughness: 0.05})

	got, err := table.PairProperties(MaterialNormalNormal, ice)
	require.NoError(t, err)
	assert.InDelta(t, 0.03, got.Restitution, 1e-12)
	assert.InDelta(t, 0.05, got.StaticFriction, 1e-12)
	assert.InDelta(t, 0.015, got.DynamicFriction, 1e-12)

	self, err := table.PairProperties(ice, ice)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, self.Restitution, 1e-12)
}

func TestMaterialTablePairOverride(t *testing.T) {
	table := NewMaterialTable()
	override := MaterialPairProperties{Restitution: 1, StaticFriction: 2, DynamicFriction: 3}

	require.NoError(t, table.SetMaterialPairProperties(MaterialBouncyRough, MaterialNormalSmooth, override))

	got, err := table.PairProperties(MaterialNormalSmooth, MaterialBouncyRough)
	require.NoError(t, err)
	assert.Equal(t, override, got)

	// redefining a material recomputes its pairs
	table.SetMaterialProperties(MaterialBouncyRough, MaterialProperties{Elasticity: 0.5})
	got, err = table.PairProperties(MaterialNormalSmooth, MaterialBouncyRough)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, got.Restitution, 1e-12)

	err = table.SetMaterialPairProperties(MaterialNormalSmooth, NumMaterialTypes+3, override)
	require.ErrorIs(t, err, ErrUnknownMaterial)
}

func TestMaterialTableReset(t *testing.T) {
	table := NewMaterialTable()
	table.SetMaterialProperties(NumMaterialTypes, MaterialProperties{Elasticity: 1})

	table.Reset()

	_, err := table.MaterialProperties(NumMaterialTypes)
	require.ErrorIs(t, err, ErrUnknownMaterial)

	props, err := table.MaterialProperties(MaterialBouncyNormal)
	require.NoError(t, err)
	assert.Equal(t, MaterialProperties{0.6, 0.5, 0.3}, props)
}
