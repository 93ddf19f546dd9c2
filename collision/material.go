package collision

import (
	"errors"
	"fmt"
)

// ErrUnknownMaterial is raised when a material id was never registered in the table
var ErrUnknownMaterial = errors.New("unknown material")

// MaterialID identifies a row of the MaterialTable
type MaterialID int

const (
	MaterialUnset MaterialID = iota
	// MaterialUserDefined tells the pool to read the primitive's own MaterialProperties
	MaterialUserDefined
	MaterialNotBouncySmooth
	MaterialNotBouncyNormal
	MaterialNotBouncyRough
	MaterialNormalSmooth
	MaterialNormalNormal
	MaterialNormalRough
	MaterialBouncySmooth
	MaterialBouncyNormal
	MaterialBouncyRough

	// NumMaterialTypes is the first id free for custom materials
	NumMaterialTypes
)

// MaterialProperties describes one surface
type MaterialProperties struct {
	Elasticity       float64 `toml:"elasticity" yaml:"elasticity"`
	StaticRoughness  float64 `toml:"static_roughness" yaml:"static_roughness"`
	DynamicRoughness float64 `toml:"dynamic_roughness" yaml:"dynamic_roughness"`
}

// MaterialPairProperties are the coefficients used when two surfaces touch
type MaterialPairProperties struct {
	Restitution     float64
	StaticFriction  float64
	DynamicFriction float64
}

// CombineMaterials blends two surfaces by multiplying their coefficients
func CombineMaterials(a, b MaterialProperties) MaterialPairProperties {
	return MaterialPairProperties{
		Restitution:     a.Elasticity * b.Elasticity,
		StaticFriction:  a.StaticRoughness * b.StaticRoughness,
		DynamicFriction: a.DynamicRoughness * b.DynamicRoughness,
	}
}

type materialPair struct {
	a, b MaterialID
}

func makeMaterialPair(a, b MaterialID) materialPair {
	if b < a {
		a, b = b, a
	}
	return materialPair{a: a, b: b}
}

// MaterialTable maps material ids to surfaces, and unordered id pairs to their combination
type MaterialTable struct {
	materials map[MaterialID]MaterialProperties
	pairs     map[materialPair]MaterialPairProperties
}

// NewMaterialTable returns a table holding the built-in materials
func NewMaterialTable() *MaterialTable {
	t := &MaterialTable{}
	t.Reset()
	return t
}

// Reset drops every custom material and pair override
func (t *MaterialTable) Reset() {
	t.materials = make(map[MaterialID]MaterialProperties)
	t.pairs = make(map[materialPair]MaterialPairProperties)

	t.SetMaterialProperties(MaterialUnset, MaterialProperties{})
	t.SetMaterialProperties(MaterialNotBouncySmooth, MaterialProperties{0, 0, 0})
	t.SetMaterialProperties(MaterialNotBouncyNormal, MaterialProperties{0, 0.5, 0.3})
	t.SetMaterialProperties(MaterialNotBouncyRough, MaterialProperties{0, 1, 1.5})
	t.SetMaterialProperties(MaterialNormalSmooth, MaterialProperties{0.3, 0, 0})
	t.SetMaterialProperties(MaterialNormalNormal, MaterialProperties{0.3, 0.5, 0.3})
	t.SetMaterialProperties(MaterialNormalRough, MaterialProperties{0.3, 1, 1.5})
	t.SetMaterialProperties(MaterialBouncySmooth, MaterialProperties{0.6, 0, 0})
	t.SetMaterialProperties(MaterialBouncyNormal, MaterialProperties{0.6, 0.5, 0.3})
	t.SetMaterialProperties(MaterialBouncyRough, MaterialProperties{0.6, 1, 1.5})
}

// SetMaterialProperties registers or replaces a material, then recomputes its combination
// with every registered material. Explicit pair overrides involving id are replaced too.
func (t *MaterialTable) SetMaterialProperties(id MaterialID, props MaterialProperties) {
	t.materials[id] = props
	for other, otherProps := range t.materials {
		t.pairs[makeMaterialPair(id, other)] = CombineMaterials(props, otherProps)
	}
}

// SetMaterialPairProperties overrides the combination of two registered materials
func (t *MaterialTable) SetMaterialPairProperties(a, b MaterialID, props MaterialPairProperties) error {
	if _, ok := t.materials[a]; !ok {
		return fmt.Errorf("material %d: %w", a, ErrUnknownMaterial)
	}
	if _, ok := t.materials[b]; !ok {
		return fmt.Errorf("material %d: %w", b, ErrUnknownMaterial)
	}
	t.pairs[makeMaterialPair(a, b)] = props
	return nil
}

// MaterialProperties returns the surface registered under id
func (t *MaterialTable) MaterialProperties(id MaterialID) (MaterialProperties, error) {
	props, ok := t.materials[id]
	if !ok {
		return MaterialProperties{}, fmt.Errorf("material %d: %w", id, ErrUnknownMaterial)
	}
	return props, nil
}

// PairProperties returns the combination of two registered materials
func (t *MaterialTable) PairProperties(a, b MaterialID) (MaterialPairProperties, error) {
	props, ok := t.pairs[makeMaterialPair(a, b)]
	if !ok {
		return MaterialPairProperties{}, fmt.Errorf("material pair (%d, %d): %w", a, b, ErrUnknownMaterial)
	}
	return props, nil
}
