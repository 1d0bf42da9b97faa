package animation

// AnimationBuilderOption is a functional option for configuring an Animation.
type AnimationBuilderOption func(*animation)

// WithSpin sets the rotation speed.
//
// Parameters:
//   - x, y, z: radians per second around each axis
//
// Returns:
//   - AnimationBuilderOption: option function to apply
func WithSpin(x, y, z float32) AnimationBuilderOption {
	return func(a *animation) {
		a.spin = [3]float32{x, y, z}
	}
}

// WithBob adds a vertical sine motion around the target's starting height.
//
// Parameters:
//   - amplitude: peak offset in world units
//   - frequency: cycles per second
//
// Returns:
//   - AnimationBuilderOption: option function to apply
func WithBob(amplitude, frequency float32) AnimationBuilderOption {
	return func(a *animation) {
		a.bobAmp = amplitude
		a.bobFreq = frequency
	}
}
