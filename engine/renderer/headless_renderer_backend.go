package renderer

import (
	"errors"
	"sync"
)

// ErrNoFrame is returned by backends when a draw is attempted outside BeginFrame/EndFrame.
var ErrNoFrame = errors.New("renderer: no frame in progress")

// headlessRendererBackend satisfies RendererBackend without a GPU.
// It is used for servers, CI and any host that only needs frame accounting.
type headlessRendererBackend struct {
	mu *sync.Mutex

	width, height int
	sampleCount   MSAASampleCount
	presentMode   PresentMode

	inFrame   bool
	draws     int
	presented uint64
	released  bool
}

var _ RendererBackend = &headlessRendererBackend{}

func newHeadlessRendererBackend() *headlessRendererBackend {
	return &headlessRendererBackend{
		mu:          &sync.Mutex{},
		sampleCount: MSAA4x,
	}
}

func (h *headlessRendererBackend) ConfigureSurface(width, height int, sampleCount MSAASampleCount) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width, h.height, h.sampleCount = width, height, sampleCount
	return nil
}

func (h *headlessRendererBackend) SetPresentMode(mode PresentMode) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.presentMode = mode
}

func (h *headlessRendererBackend) UploadMesh(label string, _, _ []byte, indexCount uint32) (*GPUMesh, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, errors.New("renderer: backend released")
	}
	return &GPUMesh{label: label, indexCount: indexCount}, nil
}

func (h *headlessRendererBackend) BeginFrame(_ []byte, _ [4]float32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return errors.New("renderer: backend released")
	}
	if h.inFrame {
		return errors.New("previous frame surface not yet presented")
	}
	h.inFrame = true
	return nil
}

func (h *headlessRendererBackend) DrawMesh(_ *GPUMesh, _ []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inFrame {
		h.draws++
	}
}

func (h *headlessRendererBackend) EndFrame() {}

func (h *headlessRendererBackend) Present() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.inFrame {
		return
	}
	h.inFrame = false
	h.presented++
}

func (h *headlessRendererBackend) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released = true
}
