package light

// LightBuilderOption is a functional option for configuring a Light.
type LightBuilderOption func(*lightImpl)

// WithType sets the kind of light source.
//
// Parameters:
//   - t: ambient or directional
//
// Returns:
//   - LightBuilderOption: option function to apply
func WithType(t LightType) LightBuilderOption {
	return func(l *lightImpl) {
		l.lightType = t
	}
}

// WithDirection sets the direction a directional light travels. It is normalized on construction.
//
// Parameters:
//   - direction: the light direction
//
// Returns:
//   - LightBuilderOption: option function to apply
func WithDirection(direction [3]float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.direction = direction
	}
}

// WithColor sets the RGB color of the light.
//
// Parameters:
//   - color: the light color
//
// Returns:
//   - LightBuilderOption: option function to apply
func WithColor(color [3]float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = color
	}
}

// WithIntensity sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity multiplier
//
// Returns:
//   - LightBuilderOption: option function to apply
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// NewAmbient is shorthand for an ambient light of the given color and intensity.
func NewAmbient(color [3]float32, intensity float32) Light {
	return NewLight(WithType(LightTypeAmbient), WithColor(color), WithIntensity(intensity))
}

// NewDirectional is shorthand for a directional light.
func NewDirectional(direction, color [3]float32, intensity float32) Light {
	return NewLight(WithType(LightTypeDirectional), WithDirection(direction), WithColor(color), WithIntensity(intensity))
}
