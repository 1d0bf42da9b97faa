package animation

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/Carmen-Shannon/oxy-prologue/engine/model"
	"github.com/stretchr/testify/assert"
)

type fakeTarget struct {
	t common.Transform
}

func (f *fakeTarget) Transform() common.Transform     { return f.t }
func (f *fakeTarget) SetTransform(t common.Transform) { f.t = t }

func TestSpinAndBob(t *testing.T) {
	target := &fakeTarget{t: common.IdentityTransform()}
	target.t.Position[1] = 2
	a := NewAnimation(target, WithSpin(0, 1, 0), WithBob(1, 0.25))

	a.Update(1)
	assert.InDelta(t, 1, target.t.Rotation[1], 1e-5)
	// Quarter cycle of the bob puts the target at its peak.
	assert.InDelta(t, 3, target.t.Position[1], 1e-5)

	a.Update(0)
	a.Update(-1)
	assert.InDelta(t, 1, target.t.Rotation[1], 1e-5)
}

func TestPauseStopAndRetarget(t *testing.T) {
	first := &fakeTarget{t: common.IdentityTransform()}
	second := &fakeTarget{t: common.IdentityTransform()}
	a := NewAnimation(first, WithSpin(1, 0, 0))

	a.SetPaused(true)
	a.Update(1)
	assert.True(t, a.Paused())
	assert.Zero(t, first.t.Rotation[0])

	a.SetPaused(false)
	a.SetTarget(second)
	a.Update(0.5)
	assert.Zero(t, first.t.Rotation[0])
	assert.InDelta(t, 0.5, second.t.Rotation[0], 1e-5)

	a.Stop()
	a.Stop()
	a.Update(1)
	assert.True(t, a.Stopped())
	assert.InDelta(t, 0.5, second.t.Rotation[0], 1e-5)
}

func TestRotationWraps(t *testing.T) {
	target := &fakeTarget{t: common.IdentityTransform()}
	a := NewAnimation(target, WithSpin(0, 4, 0))
	for range 100 {
		a.Update(0.5)
	}
	assert.LessOrEqual(t, target.t.Rotation[1], float32(3.1416))
	assert.GreaterOrEqual(t, target.t.Rotation[1], float32(-3.1416))
}

func TestPresetsMove(t *testing.T) {
	for _, typ := range model.Types() {
		target := &fakeTarget{t: common.IdentityTransform()}
		Preset(typ, target).Update(0.1)
		assert.NotEqual(t, common.IdentityTransform(), target.t, typ.String())
	}
}
