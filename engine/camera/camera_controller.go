package camera

import (
	"math"
	"sync"
)

// OrbitController places the eye on a sphere around a target.
// It accepts no user input: the only motion is the configured auto-rotation
// and an optional fly-in that eases the radius toward its resting value.
type OrbitController interface {
	// Position returns the eye position.
	Position() [3]float32

	// Target returns the look-at point.
	Target() [3]float32

	// SetTarget moves the pivot point.
	//
	// Parameters:
	//   - target: the new look-at point
	SetTarget(target [3]float32)

	// Radius returns the current distance from target to eye.
	Radius() float32

	// SetRadius sets the resting radius, clamped to the configured bounds, and cancels any fly-in.
	//
	// Parameters:
	//   - radius: the new radius
	SetRadius(radius float32)

	// Azimuth returns the horizontal angle around the Y axis in radians.
	Azimuth() float32

	// AutoRotate returns the auto-rotation speed in radians per second.
	AutoRotate() float32

	// SetAutoRotate sets the auto-rotation speed. Zero stops rotation.
	//
	// Parameters:
	//   - speed: radians per second
	SetAutoRotate(speed float32)

	// FlyIn starts easing the radius from start to the resting radius over duration seconds.
	//
	// Parameters:
	//   - start: the radius to start from
	//   - duration: seconds until the resting radius is reached
	FlyIn(start, duration float32)

	// Advance moves the orbit forward by dt seconds.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Advance(dt float32)
}

// orbitController is the implementation of OrbitController.
type orbitController struct {
	mu *sync.Mutex

	position [3]float32
	target   [3]float32

	radius    float32
	azimuth   float32
	elevation float32

	minRadius float32
	maxRadius float32

	autoRotate float32

	restRadius  float32
	flyStart    float32
	flyDuration float32
	flyElapsed  float32
	flyingIn    bool
}

var _ OrbitController = &orbitController{}

// NewOrbitController creates an OrbitController with a 60 unit radius and a 30 degree elevation.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - OrbitController: the newly created controller
func NewOrbitController(options ...OrbitControllerOption) OrbitController {
	cc := &orbitController{
		mu:        &sync.Mutex{},
		radius:    60,
		elevation: float32(math.Pi / 6),
		minRadius: 1,
		maxRadius: 2000,
	}
	for _, option := range options {
		option(cc)
	}
	cc.radius = clampRadius(cc.radius, cc.minRadius, cc.maxRadius)
	cc.restRadius = cc.radius
	cc.updatePosition()
	return cc
}

// updatePosition recomputes the eye from spherical coordinates. Caller must hold the mutex.
func (cc *orbitController) updatePosition() {
	sinElev, cosElev := math.Sincos(float64(cc.elevation))
	sinAzim, cosAzim := math.Sincos(float64(cc.azimuth))

	cc.position[0] = cc.target[0] + cc.radius*float32(cosElev*sinAzim)
	cc.position[1] = cc.target[1] + cc.radius*float32(sinElev)
	cc.position[2] = cc.target[2] + cc.radius*float32(cosElev*cosAzim)
}

func (cc *orbitController) Position() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *orbitController) Target() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *orbitController) SetTarget(target [3]float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
	cc.updatePosition()
}

func (cc *orbitController) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *orbitController) SetRadius(radius float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = clampRadius(radius, cc.minRadius, cc.maxRadius)
	cc.restRadius = cc.radius
	cc.flyingIn = false
	cc.updatePosition()
}

func (cc *orbitController) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *orbitController) AutoRotate() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.autoRotate
}

func (cc *orbitController) SetAutoRotate(speed float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.autoRotate = speed
}

func (cc *orbitController) FlyIn(start, duration float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if duration <= 0 {
		return
	}
	cc.flyStart = clampRadius(start, cc.minRadius, cc.maxRadius)
	cc.flyDuration = duration
	cc.flyElapsed = 0
	cc.flyingIn = true
	cc.radius = cc.flyStart
	cc.updatePosition()
}

func (cc *orbitController) Advance(dt float32) {
	if dt <= 0 {
		return
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.azimuth = float32(math.Mod(float64(cc.azimuth+cc.autoRotate*dt), 2*math.Pi))
	if cc.flyingIn {
		cc.flyElapsed += dt
		t := min(cc.flyElapsed/cc.flyDuration, 1)
		// ease-out cubic
		e := 1 - (1-t)*(1-t)*(1-t)
		cc.radius = cc.flyStart + (cc.restRadius-cc.flyStart)*e
		if t >= 1 {
			cc.flyingIn = false
			cc.radius = cc.restRadius
		}
	}
	cc.updatePosition()
}

func clampRadius(r, lo, hi float32) float32 {
	return min(max(r, lo), hi)
}
