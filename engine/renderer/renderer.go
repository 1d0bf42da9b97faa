package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrReleased is returned by operations on a released Renderer.
var ErrReleased = errors.New("renderer: released")

// SurfaceSource provides what the wgpu backend needs to create and size a surface.
// window.Window satisfies it.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	width, height int
	quality       Quality

	frame    FrameStats
	last     FrameStats
	inFrame  bool
	released bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingQuality       *Quality
	pendingSize          [2]int
}

// Renderer draws the presentation scene and exposes the quality knobs the controller adjusts.
//
// Frames follow BeginFrame, any number of Draw calls, EndFrame, Present.
// Stats reports the most recently completed frame.
type Renderer interface {
	// Resize reconfigures the surface for a new framebuffer size.
	//
	// Parameters:
	//   - width: framebuffer width in pixels
	//   - height: framebuffer height in pixels
	//
	// Returns:
	//   - error: an error if the surface could not be reconfigured
	Resize(width, height int) error

	// Size returns the unscaled framebuffer size.
	//
	// Returns:
	//   - width, height: size in pixels
	Size() (width, height int)

	// SetQuality applies a new quality level, reconfiguring the surface when MSAA or scale change.
	//
	// Parameters:
	//   - q: the quality to apply
	//
	// Returns:
	//   - error: an error if the surface could not be reconfigured
	SetQuality(q Quality) error

	// Quality returns the quality currently applied.
	//
	// Returns:
	//   - Quality: the active quality
	Quality() Quality

	// UploadMesh uploads indexed geometry to the GPU.
	//
	// Parameters:
	//   - label: debug label for GPU objects
	//   - g: the geometry to upload
	//
	// Returns:
	//   - *GPUMesh: the uploaded mesh, owned by the caller
	//   - error: an error if the upload failed or the renderer is released
	UploadMesh(label string, g common.Geometry) (*GPUMesh, error)

	// BeginFrame starts a frame rendered with the given uniforms.
	//
	// Parameters:
	//   - f: per-frame camera, light and effect state
	//
	// Returns:
	//   - error: an error if the frame could not be started
	BeginFrame(f FrameUniforms) error

	// Draw records one draw call for d. Disabled drawables and drawables without GPU data are skipped.
	//
	// Parameters:
	//   - d: the drawable to draw
	Draw(d Drawable)

	// EndFrame submits the recorded draw calls.
	EndFrame()

	// Present displays the submitted frame.
	Present()

	// Stats returns the statistics of the last completed frame.
	//
	// Returns:
	//   - FrameStats: draw calls, triangles and total frames presented
	Stats() FrameStats

	// Release destroys the backend. Safe to call more than once.
	//
	// Returns:
	//   - error: always nil today; reserved for backends with fallible teardown
	Release() error
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer backed by the requested backend.
// The wgpu backend requires a non-nil surface; the headless backend ignores it.
//
// Parameters:
//   - backendType: the backend to construct
//   - surface: the surface source, typically a window.Window
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured renderer
//   - error: an error if the GPU adapter, device or surface could not be created
func NewRenderer(backendType RendererBackendType, surface SurfaceSource, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		quality: Quality{
			MSAA:        MSAA4x,
			RenderScale: 1,
			Effects:     [3]bool{true, true, true},
		},
		pendingSize: [2]int{1280, 720},
	}

	// Options first so adapter selection flags are set before the backend is created.
	for _, opt := range options {
		opt(r)
	}
	if r.pendingQuality != nil {
		r.quality = *r.pendingQuality
	}

	switch backendType {
	case BackendTypeHeadless:
		r.backend = newHeadlessRendererBackend()
		r.width, r.height = r.pendingSize[0], r.pendingSize[1]
	default:
		if surface == nil {
			return nil, errors.New("renderer: wgpu backend requires a surface")
		}
		b, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter)
		if err != nil {
			return nil, err
		}
		r.backend = b
		r.width, r.height = surface.Width(), surface.Height()
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if err := r.configure(); err != nil {
		r.backend.Release()
		return nil, err
	}
	return r, nil
}

// NewHeadless creates a Renderer that counts draw calls without a GPU.
//
// Parameters:
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the headless renderer
func NewHeadless(options ...RendererBuilderOption) Renderer {
	r, err := NewRenderer(BackendTypeHeadless, nil, options...)
	if err != nil {
		// The headless backend has no failing construction path.
		panic(err)
	}
	return r
}

// configure pushes the current size and quality to the backend. Caller must hold the mutex
// or be the constructor.
func (r *renderer) configure() error {
	scale := r.quality.RenderScale
	if scale <= 0 {
		scale = 1
	}
	w := max(1, int(float32(r.width)*scale))
	h := max(1, int(float32(r.height)*scale))
	msaa := r.quality.MSAA
	if msaa == 0 {
		msaa = MSAAOff
	}
	if err := r.backend.ConfigureSurface(w, h, msaa); err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}
	return nil
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	if width <= 0 || height <= 0 {
		// Minimized windows report a zero framebuffer.
		return nil
	}
	r.width, r.height = width, height
	return r.configure()
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) SetQuality(q Quality) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	prev := r.quality
	r.quality = q
	if prev.MSAA == q.MSAA && prev.RenderScale == q.RenderScale {
		return nil
	}
	return r.configure()
}

func (r *renderer) Quality() Quality {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quality
}

func (r *renderer) UploadMesh(label string, g common.Geometry) (*GPUMesh, error) {
	r.mu.Lock()
	released := r.released
	r.mu.Unlock()
	if released {
		return nil, ErrReleased
	}
	return r.backend.UploadMesh(label, common.SliceToBytes(g.Vertices), common.SliceToBytes(g.Indices), uint32(len(g.Indices)))
}

func (r *renderer) BeginFrame(f FrameUniforms) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	f.Effects = [3]bool{
		f.Effects[0] && r.quality.Effects[0],
		f.Effects[1] && r.quality.Effects[1],
		f.Effects[2] && r.quality.Effects[2],
	}
	u := f.gpu()
	if err := r.backend.BeginFrame(u.Marshal(), f.ClearColor); err != nil {
		return err
	}
	r.inFrame = true
	r.frame = FrameStats{Frames: r.last.Frames}
	return nil
}

func (r *renderer) Draw(d Drawable) {
	if d == nil || !d.Enabled() {
		return
	}
	mesh := d.GPUMesh()
	if mesh == nil || mesh.Released() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return
	}
	u := GPUMeshUniform{Model: d.ModelMatrix(), Color: d.Color()}
	r.backend.DrawMesh(mesh, u.Marshal())
	r.frame.DrawCalls++
	r.frame.Triangles += mesh.Triangles()
}

func (r *renderer) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return
	}
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return
	}
	r.backend.Present()
	r.inFrame = false
	r.frame.Frames++
	r.last = r.frame
}

func (r *renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *renderer) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return nil
	}
	r.released = true
	r.backend.Release()
	return nil
}
