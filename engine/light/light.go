package light

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-prologue/common"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeAmbient lights every fragment equally regardless of orientation.
	LightTypeAmbient LightType = iota

	// LightTypeDirectional represents a distant light with a direction and no position.
	LightTypeDirectional
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu        *sync.Mutex
	lightType LightType
	direction [3]float32
	color     [3]float32
	intensity float32
	enabled   bool
}

// Light is one of the two presentation lights: the ambient fill or the directional key light.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: ambient or directional
	Type() LightType

	// Direction returns the normalized direction the light travels. Zero for ambient lights.
	//
	// Returns:
	//   - [3]float32: normalized direction
	Direction() [3]float32

	// Color returns the RGB color of the light.
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier.
	Intensity() float32

	// SetIntensity changes the intensity multiplier.
	//
	// Parameters:
	//   - intensity: the new multiplier, clamped to be non-negative
	SetIntensity(intensity float32)

	// Enabled returns whether this light contributes to the frame.
	Enabled() bool

	// SetEnabled toggles the light.
	//
	// Parameters:
	//   - enabled: true to light the scene
	SetEnabled(enabled bool)

	// Uniform packs the light as rgb + intensity, with intensity zeroed when disabled.
	//
	// Returns:
	//   - common.Color: the packed color
	Uniform() common.Color
}

var _ Light = &lightImpl{}

// NewLight creates a Light with the provided options.
// Defaults to an enabled white directional light pointing down the -Y axis at intensity 1.
//
// Parameters:
//   - options: functional options to configure the light
//
// Returns:
//   - Light: the newly created light
func NewLight(options ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:        &sync.Mutex{},
		lightType: LightTypeDirectional,
		direction: [3]float32{0, -1, 0},
		color:     [3]float32{1, 1, 1},
		intensity: 1,
		enabled:   true,
	}
	for _, opt := range options {
		opt(l)
	}
	if l.lightType == LightTypeAmbient {
		l.direction = [3]float32{}
	} else {
		l.direction = normalize(l.direction)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Direction() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *lightImpl) Color() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = max(intensity, 0)
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *lightImpl) Uniform() common.Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return common.Color{l.color[0], l.color[1], l.color[2], 0}
	}
	return common.Color{l.color[0], l.color[1], l.color[2], l.intensity}
}

func normalize(v [3]float32) [3]float32 {
	n := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if n == 0 {
		return [3]float32{0, -1, 0}
	}
	return [3]float32{v[0] / n, v[1] / n, v[2] / n}
}
