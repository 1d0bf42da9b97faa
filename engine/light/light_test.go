package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/stretchr/testify/assert"
)

func TestDirectionalIsNormalized(t *testing.T) {
	l := NewDirectional([3]float32{0, -3, 4}, [3]float32{1, 1, 1}, 2)
	dir := l.Direction()
	assert.InDeltaSlice(t, []float32{0, -0.6, 0.8}, dir[:], 1e-6)
}

func TestAmbientHasNoDirection(t *testing.T) {
	l := NewAmbient([3]float32{0.2, 0.2, 0.3}, 0.5)
	assert.Equal(t, LightTypeAmbient, l.Type())
	assert.Equal(t, [3]float32{}, l.Direction())
}

func TestUniformZeroesDisabledIntensity(t *testing.T) {
	l := NewAmbient([3]float32{1, 0.5, 0.25}, 0.8)
	assert.Equal(t, common.Color{1, 0.5, 0.25, 0.8}, l.Uniform())

	l.SetEnabled(false)
	assert.Equal(t, common.Color{1, 0.5, 0.25, 0}, l.Uniform())

	l.SetIntensity(-3)
	assert.Zero(t, l.Intensity())
}
