package renderer

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeHeadless records draw calls without touching a GPU.
	BackendTypeHeadless
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4x multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// Quality is the set of rendering costs the presentation layer can trade away under load.
type Quality struct {
	// MSAA is the sample count of the main pass.
	MSAA MSAASampleCount

	// RenderScale multiplies the surface resolution; values below 1 render fewer pixels.
	RenderScale float32

	// Effects enables the post-process terms of the fragment shader, indexed by the Effect* constants.
	Effects [3]bool
}

// FrameStats summarizes the work submitted in one frame.
type FrameStats struct {
	DrawCalls int
	Triangles int
	Frames    uint64
}

// RendererBackend is the GPU API abstraction the Renderer drives.
type RendererBackend interface {
	// ConfigureSurface (re)creates the swapchain configuration and the attachments that depend on it.
	//
	// Parameters:
	//   - width: surface width in pixels
	//   - height: surface height in pixels
	//   - sampleCount: MSAA sample count for the color and depth attachments
	//
	// Returns:
	//   - error: an error if the surface or its attachments could not be created
	ConfigureSurface(width, height int, sampleCount MSAASampleCount) error

	// SetPresentMode sets the present mode used by the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// UploadMesh creates vertex, index and uniform buffers for one mesh.
	//
	// Parameters:
	//   - label: debug label for the GPU objects
	//   - vertexData: interleaved vertex bytes
	//   - indexData: uint32 index bytes
	//   - indexCount: number of indices in indexData
	//
	// Returns:
	//   - *GPUMesh: the uploaded mesh
	//   - error: an error if any buffer could not be created
	UploadMesh(label string, vertexData, indexData []byte, indexCount uint32) (*GPUMesh, error)

	// BeginFrame acquires the next surface texture and opens the main render pass.
	//
	// Parameters:
	//   - frame: the marshaled GPUFrameUniform
	//   - clear: the clear color of the color attachment
	//
	// Returns:
	//   - error: an error if the surface texture could not be acquired
	BeginFrame(frame []byte, clear [4]float32) error

	// DrawMesh encodes one indexed draw of mesh with the given marshaled GPUMeshUniform.
	DrawMesh(mesh *GPUMesh, uniform []byte)

	// EndFrame ends the render pass and submits the command buffer.
	EndFrame()

	// Present presents the surface and releases the frame's texture.
	Present()

	// Release destroys every GPU object owned by the backend.
	Release()
}
