package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	mesh *renderer.GPUMesh
}

func (n *node) Name() string               { return "node" }
func (n *node) Enabled() bool              { return true }
func (n *node) GPUMesh() *renderer.GPUMesh { return n.mesh }
func (n *node) ModelMatrix() [16]float32   { return common.IdentityTransform().Matrix() }
func (n *node) Color() common.Color        { return common.Color{1, 1, 1, 1} }

func newTestSession(t *testing.T, st Settings) Session {
	t.Helper()
	s, err := NewHeadlessConstructor()(context.Background(), st)
	require.NoError(t, err)
	return s
}

func waitDone(t *testing.T, s Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session was not released")
	}
}

func TestFrameDrawsScene(t *testing.T) {
	s := newTestSession(t, DefaultSettings())
	mesh, err := s.Renderer().UploadMesh("tri", common.Geometry{
		Vertices: make([]common.Vertex, 3),
		Indices:  []uint32{0, 1, 2},
	})
	require.NoError(t, err)
	s.Scene().Add(&node{mesh: mesh})

	var ticks []float32
	require.NoError(t, s.RegisterRenderLoop(func(dt float32) { ticks = append(ticks, dt) }))
	assert.ErrorIs(t, s.RegisterRenderLoop(func(float32) {}), ErrLoopRegistered)

	assert.True(t, s.Frame(0.016))
	assert.True(t, s.Frame(0.016))
	assert.Equal(t, []float32{0.016, 0.016}, ticks)
	assert.Equal(t, 1, s.Renderer().Stats().DrawCalls)
	assert.Equal(t, uint64(2), s.Renderer().Stats().Frames)
	assert.NotEqual(t, s.ID().String(), newTestSession(t, DefaultSettings()).ID().String())
}

func TestQualityTogglesAreIdempotent(t *testing.T) {
	s := newTestSession(t, DefaultSettings())
	full := s.Renderer().Quality()
	require.Equal(t, renderer.MSAA4x, full.MSAA)
	require.Len(t, s.PostProcess(), 3)

	assert.True(t, s.ReduceQuality())
	assert.False(t, s.ReduceQuality())
	assert.Equal(t, renderer.MSAAOff, s.Renderer().Quality().MSAA)
	assert.InDelta(t, 0.66, s.Renderer().Quality().RenderScale, 1e-6)

	assert.True(t, s.DisableEffects())
	assert.False(t, s.DisableEffects())
	assert.Equal(t, [3]bool{}, s.Scene().Effects())
	for _, e := range s.PostProcess() {
		assert.False(t, e.Enabled, e.Name)
	}

	assert.True(t, s.RestoreQuality())
	assert.False(t, s.RestoreQuality())
	assert.Equal(t, full, s.Renderer().Quality())
	assert.Equal(t, [3]bool{true, true, true}, s.Scene().Effects())
}

func TestReducedSettings(t *testing.T) {
	s := newTestSession(t, DefaultSettings().Reduced())
	assert.Equal(t, renderer.MSAAOff, s.Renderer().Quality().MSAA)
	assert.Empty(t, s.PostProcess())
	assert.Equal(t, [3]bool{}, s.Scene().Effects())
}

func TestDisposeIsIdempotent(t *testing.T) {
	s := newTestSession(t, DefaultSettings())
	hooks := 0
	s.Dispose(func() { hooks++ })
	s.Dispose(func() { hooks++ })
	waitDone(t, s)

	assert.Equal(t, 1, hooks)
	assert.False(t, s.Live())
	assert.False(t, s.Frame(0.016))
	assert.False(t, s.ReduceQuality())
	assert.ErrorIs(t, s.RegisterRenderLoop(func(float32) {}), ErrDisposed)
	assert.ErrorIs(t, s.Resize(10, 10), ErrDisposed)
}

func TestDisposeDuringFrameWaitsForFrame(t *testing.T) {
	s := newTestSession(t, DefaultSettings())
	var released atomic.Bool
	var sawReleaseInFrame bool

	require.NoError(t, s.RegisterRenderLoop(func(float32) {
		s.Dispose(func() { released.Store(true) })
		sawReleaseInFrame = released.Load()
	}))

	assert.False(t, s.Frame(0.016))
	waitDone(t, s)
	assert.False(t, sawReleaseInFrame)
	assert.True(t, released.Load())

	// The extra tick after disposal began is a no-op.
	assert.False(t, s.Frame(0.016))
}

func TestRunStopsOnDispose(t *testing.T) {
	st := DefaultSettings()
	st.FrameLimit = 500
	s := newTestSession(t, st)

	var mu sync.Mutex
	frames := 0
	require.NoError(t, s.RegisterRenderLoop(func(float32) {
		mu.Lock()
		frames++
		mu.Unlock()
	}))
	s.Run()
	s.Run()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return frames >= 3
	}, time.Second, time.Millisecond)

	s.Dispose()
	waitDone(t, s)
}

func TestRunRecoversFromPanic(t *testing.T) {
	fatal := make(chan error, 1)
	s, err := NewHeadlessConstructor(WithOnFatal(func(err error) { fatal <- err }))(context.Background(), DefaultSettings())
	require.NoError(t, err)
	require.NoError(t, s.RegisterRenderLoop(func(float32) { panic("boom") }))

	s.Run()
	select {
	case err := <-fatal:
		assert.Contains(t, err.Error(), "boom")
	case <-time.After(time.Second):
		t.Fatal("panic was not reported")
	}
	waitDone(t, s)
	assert.False(t, s.Live())
}

func TestNewRejectsNilRenderer(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewHeadlessConstructor()(ctx, DefaultSettings())
	assert.ErrorIs(t, err, context.Canceled)
}
