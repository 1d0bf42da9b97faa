package camera

// OrbitControllerOption is a functional option for configuring an OrbitController.
type OrbitControllerOption func(*orbitController)

// WithRadius sets the resting orbit radius (distance from target).
//
// Parameters:
//   - radius: distance from the orbit target
//
// Returns:
//   - OrbitControllerOption: functional option to set the radius
func WithRadius(radius float32) OrbitControllerOption {
	return func(cc *orbitController) {
		cc.radius = radius
	}
}

// WithRadiusBounds constrains the radius.
//
// Parameters:
//   - minRadius: smallest allowed radius
//   - maxRadius: largest allowed radius
//
// Returns:
//   - OrbitControllerOption: functional option to set the radius bounds
func WithRadiusBounds(minRadius, maxRadius float32) OrbitControllerOption {
	return func(cc *orbitController) {
		cc.minRadius = minRadius
		cc.maxRadius = maxRadius
	}
}

// WithAzimuth sets the initial horizontal angle around the Y axis.
//
// Parameters:
//   - azimuth: horizontal angle in radians (0 = +Z axis)
//
// Returns:
//   - OrbitControllerOption: functional option to set the azimuth
func WithAzimuth(azimuth float32) OrbitControllerOption {
	return func(cc *orbitController) {
		cc.azimuth = azimuth
	}
}

// WithElevation sets the fixed vertical angle from the horizontal plane.
//
// Parameters:
//   - elevation: vertical angle in radians (0 = horizontal)
//
// Returns:
//   - OrbitControllerOption: functional option to set the elevation
func WithElevation(elevation float32) OrbitControllerOption {
	return func(cc *orbitController) {
		cc.elevation = elevation
	}
}

// WithTarget sets the look-at/pivot point.
//
// Parameters:
//   - target: the pivot point
//
// Returns:
//   - OrbitControllerOption: functional option to set the target position
func WithTarget(target [3]float32) OrbitControllerOption {
	return func(cc *orbitController) {
		cc.target = target
	}
}

// WithAutoRotate sets the auto-rotation speed.
//
// Parameters:
//   - speed: radians per second
//
// Returns:
//   - OrbitControllerOption: functional option to set the auto-rotation speed
func WithAutoRotate(speed float32) OrbitControllerOption {
	return func(cc *orbitController) {
		cc.autoRotate = speed
	}
}
