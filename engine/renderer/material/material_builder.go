package material

import "github.com/Carmen-Shannon/oxy-prologue/common"

// MaterialBuilderOption is a functional option applied to a material during construction via NewMaterial.
type MaterialBuilderOption func(*material)

// WithName sets the material identifier used as its cache key.
//
// Parameters:
//   - name: the material name
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor sets the albedo RGBA color.
//
// Parameters:
//   - color: the base color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color common.Color) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithEmissive sets the self-illumination factor, clamped to [0, 1].
//
// Parameters:
//   - emissive: emissive strength
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive option to a material
func WithEmissive(emissive float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissive = common.Clamp(emissive, 0, 1)
	}
}

// WithRoughness sets the roughness factor, clamped to [0, 1].
//
// Parameters:
//   - roughness: the roughness factor
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = common.Clamp(roughness, 0, 1)
	}
}
