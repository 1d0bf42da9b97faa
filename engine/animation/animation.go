// Package animation drives simple procedural motion of presentation meshes.
package animation

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/Carmen-Shannon/oxy-prologue/engine/model"
)

// Target is anything with a transform the animation can drive.
type Target interface {
	Transform() common.Transform
	SetTransform(t common.Transform)
}

// animation is the implementation of the Animation interface.
type animation struct {
	mu *sync.Mutex

	target Target
	// spin is the rotation speed in radians per second around x, y and z.
	spin     [3]float32
	bobAmp   float32
	bobFreq  float32
	baseY    float32
	elapsed  float32
	paused   bool
	stopped  bool
	hasBaseY bool
}

// Animation spins and bobs a target. Updates after Stop are no-ops.
// Thread-safe for concurrent access.
type Animation interface {
	// Update advances the animation.
	//
	// Parameters:
	//   - dt: elapsed time in seconds since the last update
	Update(dt float32)

	// SetTarget moves the animation to a new target without resetting its phase.
	// Used when a different detail level becomes visible.
	//
	// Parameters:
	//   - t: the new target
	SetTarget(t Target)

	// SetPaused pauses or resumes motion.
	SetPaused(paused bool)

	// Paused reports whether motion is paused.
	Paused() bool

	// Stop ends the animation permanently. Safe to call more than once.
	Stop()

	// Stopped reports whether Stop has been called.
	Stopped() bool
}

var _ Animation = &animation{}

// NewAnimation creates an animation driving target.
//
// Parameters:
//   - target: the transform to drive
//   - options: functional options to configure the motion
//
// Returns:
//   - Animation: the new running animation
func NewAnimation(target Target, options ...AnimationBuilderOption) Animation {
	a := &animation{
		mu:     &sync.Mutex{},
		target: target,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Preset returns the motion used for each archetype.
//
// Parameters:
//   - t: the archetype
//   - target: the transform to drive
//
// Returns:
//   - Animation: the archetype's animation
func Preset(t model.Type, target Target) Animation {
	switch t {
	case model.TypeEmblem:
		return NewAnimation(target, WithSpin(0, 0.6, 0), WithBob(0.4, 0.25))
	case model.TypePlanet:
		return NewAnimation(target, WithSpin(0, 0.15, 0))
	case model.TypeParasite:
		return NewAnimation(target, WithSpin(0.2, 0.45, 0.1), WithBob(0.8, 0.6))
	case model.TypeTerrain:
		return NewAnimation(target, WithSpin(0, 0.05, 0))
	default:
		return NewAnimation(target, WithSpin(0, 0.3, 0))
	}
}

func (a *animation) Update(dt float32) {
	if dt <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped || a.paused || a.target == nil {
		return
	}

	tr := a.target.Transform()
	if !a.hasBaseY {
		a.baseY = tr.Position[1]
		a.hasBaseY = true
	}
	a.elapsed += dt
	for i := range 3 {
		tr.Rotation[i] = wrapAngle(tr.Rotation[i] + a.spin[i]*dt)
	}
	if a.bobAmp != 0 {
		phase := 2 * math.Pi * float64(a.bobFreq*a.elapsed)
		tr.Position[1] = a.baseY + a.bobAmp*float32(math.Sin(phase))
	}
	a.target.SetTransform(tr)
}

func (a *animation) SetTarget(t Target) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.target = t
}

func (a *animation) SetPaused(paused bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = paused
}

func (a *animation) Paused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

func (a *animation) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.target = nil
}

func (a *animation) Stopped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopped
}

func wrapAngle(a float32) float32 {
	return float32(math.Remainder(float64(a), 2*math.Pi))
}
