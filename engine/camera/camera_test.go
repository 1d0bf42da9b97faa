package camera

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrbitKeepsRadiusWhileRotating(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(50), WithAutoRotate(1))
	cam := NewCamera(WithController(ctrl))

	before := cam.Position()
	cam.Update(0.5)
	after := cam.Position()

	assert.NotEqual(t, before, after)
	assert.InDelta(t, 50, cam.DistanceTo([3]float32{}), 1e-3)
	assert.InDelta(t, 0.5, ctrl.Azimuth(), 1e-6)
}

func TestAdvanceIgnoresNonPositiveDelta(t *testing.T) {
	ctrl := NewOrbitController(WithAutoRotate(2))
	ctrl.Advance(0)
	ctrl.Advance(-1)
	assert.Zero(t, ctrl.Azimuth())
}

func TestFlyInEasesToRestingRadius(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(40))
	ctrl.FlyIn(200, 2)
	require.InDelta(t, 200, ctrl.Radius(), 1e-4)

	ctrl.Advance(1)
	mid := ctrl.Radius()
	assert.Less(t, mid, float32(200))
	assert.Greater(t, mid, float32(40))

	ctrl.Advance(5)
	assert.InDelta(t, 40, ctrl.Radius(), 1e-4)
}

func TestRadiusIsClamped(t *testing.T) {
	ctrl := NewOrbitController(WithRadiusBounds(10, 20), WithRadius(100))
	assert.Equal(t, float32(20), ctrl.Radius())

	ctrl.SetRadius(1)
	assert.Equal(t, float32(10), ctrl.Radius())
}

func TestCameraWithoutControllerIsInert(t *testing.T) {
	cam := NewCamera()
	cam.Update(1)
	assert.Equal(t, [3]float32{}, cam.Position())

	cam.SetAspect(-1)
	assert.InDelta(t, 16.0/9.0, cam.Aspect(), 1e-6)
}

func TestViewProjectionIsFinite(t *testing.T) {
	cam := NewCamera(WithController(NewOrbitController(WithTarget([3]float32{1, 2, 3}))))
	for _, v := range cam.ViewProjectionMatrix() {
		assert.False(t, math.IsNaN(float64(v)))
	}
}
