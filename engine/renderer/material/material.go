package material

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-prologue/common"
)

// material is the implementation of the Material interface.
type material struct {
	name      string
	baseColor common.Color
	emissive  float32
	roughness float32
	disposed  atomic.Bool
}

// Material describes the surface of a presentation mesh.
// Materials are shared between models through the material cache and are keyed by name.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo RGBA color of the material.
	//
	// Returns:
	//   - common.Color: the base color
	BaseColor() common.Color

	// Emissive retrieves the self-illumination factor added on top of lighting.
	//
	// Returns:
	//   - float32: emissive strength in [0, 1]
	Emissive() float32

	// Roughness retrieves the roughness factor.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// Shade returns the color sent to the presentation shader, combining base color and emission.
	//
	// Returns:
	//   - common.Color: the shaded color
	Shade() common.Color

	// Disposed reports whether Dispose has been called.
	Disposed() bool

	// Dispose marks the material released. Safe to call more than once.
	//
	// Returns:
	//   - error: always nil
	Dispose() error
}

var _ Material = &material{}

// NewMaterial creates a Material from the given options.
// Defaults to a neutral grey, non-emissive, half-rough surface.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions
//
// Returns:
//   - Material: the new material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		name:      "default",
		baseColor: common.Color{0.7, 0.7, 0.7, 1},
		roughness: 0.5,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() common.Color {
	return m.baseColor
}

func (m *material) Emissive() float32 {
	return m.emissive
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) Shade() common.Color {
	c := m.baseColor
	for i := 0; i < 3; i++ {
		c[i] = common.Clamp(c[i]*(1+m.emissive), 0, 1)
	}
	return c
}

func (m *material) Disposed() bool {
	return m.disposed.Load()
}

func (m *material) Dispose() error {
	m.disposed.Store(true)
	return nil
}
