package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/stretchr/testify/assert"
)

func TestShadeAddsEmission(t *testing.T) {
	m := NewMaterial(
		WithName("ember"),
		WithBaseColor(common.Color{0.5, 0.25, 0.8, 1}),
		WithEmissive(1),
	)

	assert.Equal(t, "ember", m.Name())
	assert.Equal(t, common.Color{1, 0.5, 1, 1}, m.Shade())
}

func TestOptionsClamp(t *testing.T) {
	m := NewMaterial(WithEmissive(4), WithRoughness(-1))

	assert.Equal(t, float32(1), m.Emissive())
	assert.Equal(t, float32(0), m.Roughness())
}

func TestDisposeIsIdempotent(t *testing.T) {
	m := NewMaterial()
	assert.False(t, m.Disposed())
	assert.NoError(t, m.Dispose())
	assert.NoError(t, m.Dispose())
	assert.True(t, m.Disposed())
}
