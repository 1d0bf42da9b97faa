// Package session owns one render session: the surface renderer, the scene, the orbit
// camera, the lights and the post-process chain, plus the loop that draws them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-prologue/engine/camera"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer"
	"github.com/Carmen-Shannon/oxy-prologue/engine/scene"
	"github.com/Carmen-Shannon/oxy-prologue/engine/window"
	"github.com/google/uuid"
)

var (
	// ErrLoopRegistered is returned by RegisterRenderLoop after a loop was already registered.
	ErrLoopRegistered = errors.New("session: render loop already registered")

	// ErrDisposed is returned by operations on a disposed session.
	ErrDisposed = errors.New("session: disposed")
)

// LoopFunc runs once per frame before the scene is drawn.
type LoopFunc func(dt float32)

// Constructor builds a session from settings. The coordinator calls it again with
// reduced settings when a construction fails.
type Constructor func(ctx context.Context, s Settings) (Session, error)

// Session is a live render session.
type Session interface {
	// ID identifies the session in logs.
	ID() uuid.UUID

	// Scene returns the session's scene.
	Scene() scene.Scene

	// Renderer returns the session's renderer.
	Renderer() renderer.Renderer

	// Camera returns the session's orbit camera.
	Camera() camera.Camera

	// Settings returns the settings the session was built with.
	Settings() Settings

	// PostProcess returns the post-process chain with each stage's current state.
	// The chain is empty when the session was built without post-processing.
	PostProcess() []Effect

	// ReduceQuality turns antialiasing off and lowers the render scale.
	//
	// Returns:
	//   - bool: true if quality was not already reduced
	ReduceQuality() bool

	// DisableEffects turns every post-process stage off.
	//
	// Returns:
	//   - bool: true if effects were not already disabled
	DisableEffects() bool

	// RestoreQuality undoes ReduceQuality and DisableEffects.
	//
	// Returns:
	//   - bool: true if anything was restored
	RestoreQuality() bool

	// RegisterRenderLoop sets the per-frame callback. Only one callback may be registered.
	//
	// Parameters:
	//   - cb: the callback
	//
	// Returns:
	//   - error: ErrLoopRegistered on a second registration, ErrDisposed after Dispose
	RegisterRenderLoop(cb LoopFunc) error

	// Frame advances the camera, runs the render loop callback and draws one frame.
	// After Dispose it does nothing.
	//
	// Parameters:
	//   - dt: elapsed seconds since the previous frame
	//
	// Returns:
	//   - bool: true if a frame was drawn
	Frame(dt float32) bool

	// Run starts a goroutine calling Frame until Dispose. Calling it again does nothing.
	Run()

	// Resize reconfigures the surface and camera aspect for a new framebuffer size.
	Resize(width, height int) error

	// Live reports whether the session has not begun disposal.
	Live() bool

	// Dispose stops the loop and releases the scene and GPU resources once any frame in
	// progress has finished. hooks run after the frame and before the renderer is released.
	// Safe to call more than once; only the first call's hooks run.
	//
	// Parameters:
	//   - hooks: cleanup to run while the renderer is still valid
	Dispose(hooks ...func())

	// Done is closed once Dispose has released everything.
	Done() <-chan struct{}
}

// session is the implementation of the Session interface.
type session struct {
	id       uuid.UUID
	logger   *slog.Logger
	settings Settings

	r     renderer.Renderer
	cam   camera.Camera
	scene scene.Scene

	mu         *sync.Mutex
	chain      []Effect
	reduced    bool
	effectsOff bool
	loop       LoopFunc
	onFatal    func(error)

	frameMu *sync.Mutex
	live    atomic.Bool
	quit    chan struct{}
	done    chan struct{}
	runOnce sync.Once
	stopped sync.Once
}

var _ Session = &session{}

// New builds a session around r. The session owns r and releases it on Dispose.
//
// Parameters:
//   - r: the renderer to draw with
//   - options: functional options to configure the session
//
// Returns:
//   - Session: the live session
//   - error: an error if r is nil or rejects the initial quality
func New(r renderer.Renderer, options ...SessionBuilderOption) (Session, error) {
	if r == nil {
		return nil, errors.New("session: nil renderer")
	}
	s := &session{
		id:       uuid.New(),
		logger:   slog.Default(),
		settings: DefaultSettings(),
		r:        r,
		mu:       &sync.Mutex{},
		frameMu:  &sync.Mutex{},
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.With("component", "session", "session", s.id.String())

	if err := r.SetQuality(s.settings.Quality()); err != nil {
		return nil, fmt.Errorf("apply quality: %w", err)
	}
	if s.settings.PostProcessing {
		s.chain = defaultChain()
	}

	w, h := r.Size()
	aspect := float32(16) / 9
	if w > 0 && h > 0 {
		aspect = float32(w) / float32(h)
	}
	radius := s.settings.CameraRadius
	ctrl := camera.NewOrbitController(
		camera.WithRadius(radius),
		camera.WithRadiusBounds(radius*0.25, radius*4),
		camera.WithElevation(0.3),
		camera.WithAutoRotate(s.settings.AutoRotate),
	)
	ctrl.FlyIn(radius*2.5, 2)
	s.cam = camera.NewCamera(camera.WithAspect(aspect), camera.WithController(ctrl))
	s.scene = scene.NewScene(
		scene.WithName("session-"+s.id.String()[:8]),
		scene.WithRenderer(r),
		scene.WithCamera(s.cam),
	)
	s.scene.SetEffects(flags(s.chain))
	s.live.Store(true)

	s.logger.Info("session created",
		"width", w, "height", h,
		"antialias", s.settings.Antialias,
		"post_processing", s.settings.PostProcessing,
	)
	return s, nil
}

// NewWGPUConstructor returns a Constructor that renders into win through wgpu.
//
// Parameters:
//   - win: the window the surface attaches to
//   - options: options applied to every session built
//
// Returns:
//   - Constructor: the constructor
func NewWGPUConstructor(win window.Window, options ...SessionBuilderOption) Constructor {
	return func(ctx context.Context, st Settings) (Session, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if win == nil || !win.IsRunning() {
			return nil, errors.New("session: window is not open")
		}
		r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
			renderer.WithQuality(st.Quality()),
			renderer.WithPresentMode(renderer.PresentModeVSync),
		)
		if err != nil {
			return nil, fmt.Errorf("create renderer: %w", err)
		}
		s, err := New(r, append(slices.Clone(options), WithSettings(st))...)
		if err != nil {
			_ = r.Release()
			return nil, err
		}
		win.SetResizeCallback(func(width, height int) {
			if err := s.Resize(width, height); err != nil && !errors.Is(err, ErrDisposed) {
				s.(*session).logger.Warn("resize", "error", err)
			}
		})
		return s, nil
	}
}

// NewHeadlessConstructor returns a Constructor drawing into a headless renderer.
func NewHeadlessConstructor(options ...SessionBuilderOption) Constructor {
	return func(ctx context.Context, st Settings) (Session, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return New(renderer.NewHeadless(), append(slices.Clone(options), WithSettings(st))...)
	}
}

func (s *session) ID() uuid.UUID {
	return s.id
}

func (s *session) Scene() scene.Scene {
	return s.scene
}

func (s *session) Renderer() renderer.Renderer {
	return s.r
}

func (s *session) Camera() camera.Camera {
	return s.cam
}

func (s *session) Settings() Settings {
	return s.settings
}

func (s *session) PostProcess() []Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.chain)
	for i := range out {
		out[i].Enabled = out[i].Enabled && !s.effectsOff
	}
	return out
}

func (s *session) ReduceQuality() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reduced || !s.live.Load() {
		return false
	}
	q := s.settings.Quality()
	q.MSAA = renderer.MSAAOff
	q.RenderScale = min(q.RenderScale, s.settings.ReducedRenderScale)
	if err := s.r.SetQuality(q); err != nil {
		s.logger.Warn("reduce quality", "error", err)
		return false
	}
	s.reduced = true
	s.logger.Info("quality reduced", "render_scale", q.RenderScale)
	return true
}

func (s *session) DisableEffects() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.effectsOff || !s.live.Load() {
		return false
	}
	s.effectsOff = true
	s.scene.SetEffects([3]bool{})
	s.logger.Info("effects disabled")
	return true
}

func (s *session) RestoreQuality() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if (!s.reduced && !s.effectsOff) || !s.live.Load() {
		return false
	}
	if s.reduced {
		if err := s.r.SetQuality(s.settings.Quality()); err != nil {
			s.logger.Warn("restore quality", "error", err)
			return false
		}
		s.reduced = false
	}
	if s.effectsOff {
		s.effectsOff = false
		s.scene.SetEffects(flags(s.chain))
	}
	s.logger.Info("quality restored")
	return true
}

func (s *session) RegisterRenderLoop(cb LoopFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live.Load() {
		return ErrDisposed
	}
	if s.loop != nil {
		return ErrLoopRegistered
	}
	s.loop = cb
	return nil
}

func (s *session) Frame(dt float32) bool {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	if !s.live.Load() {
		return false
	}

	s.cam.Update(dt)

	s.mu.Lock()
	cb := s.loop
	s.mu.Unlock()
	if cb != nil {
		cb(dt)
	}
	// The callback may have started disposal.
	if !s.live.Load() {
		return false
	}

	if err := s.scene.DrawCalls(); err != nil {
		s.logger.Debug("draw", "error", err)
		return false
	}
	return true
}

func (s *session) Run() {
	s.runOnce.Do(func() {
		go s.handleRender()
	})
}

// handleRender calls Frame until the quit channel closes.
// A panic inside a frame is recovered, reported to the fatal callback and disposes the session.
func (s *session) handleRender() {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("render loop panic: %v", r)
			s.logger.Error("render goroutine recovered from panic", "error", err)
			s.mu.Lock()
			onFatal := s.onFatal
			s.mu.Unlock()
			s.Dispose()
			if onFatal != nil {
				onFatal(err)
			}
		}
	}()

	interval := s.settings.frameInterval()
	lastRender := time.Now()
	for {
		select {
		case <-s.quit:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			s.Frame(dt)

			if interval > 0 {
				if remaining := interval - time.Since(now); remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

func (s *session) Resize(width, height int) error {
	if !s.live.Load() {
		return ErrDisposed
	}
	if err := s.r.Resize(width, height); err != nil {
		return err
	}
	if width > 0 && height > 0 {
		s.cam.SetAspect(float32(width) / float32(height))
	}
	return nil
}

func (s *session) Live() bool {
	return s.live.Load()
}

func (s *session) Dispose(hooks ...func()) {
	if !s.live.CompareAndSwap(true, false) {
		return
	}
	s.stopped.Do(func() { close(s.quit) })

	release := func() {
		defer close(s.done)
		s.scene.Clear()
		for _, h := range hooks {
			s.runHook(h)
		}
		if err := s.r.Release(); err != nil {
			s.logger.Warn("release renderer", "error", err)
		}
		s.logger.Info("session disposed")
	}

	if s.frameMu.TryLock() {
		defer s.frameMu.Unlock()
		release()
		return
	}
	// A frame is in progress, possibly on this goroutine. Release once it ends.
	go func() {
		s.frameMu.Lock()
		defer s.frameMu.Unlock()
		release()
	}()
}

// runHook runs one disposal hook, logging a panic instead of aborting teardown.
func (s *session) runHook(h func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dispose hook panic", "error", r)
		}
	}()
	h()
}

func (s *session) Done() <-chan struct{} {
	return s.done
}
