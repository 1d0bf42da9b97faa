package renderer

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithQuality sets the initial quality level. Defaults to MSAA4x, full scale and all effects on.
//
// Parameters:
//   - q: the initial Quality
//
// Returns:
//   - RendererBuilderOption: a function that applies the quality option to a renderer
func WithQuality(q Quality) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingQuality = &q
	}
}

// WithHeadlessSize sets the virtual framebuffer size of the headless backend.
//
// Parameters:
//   - width: framebuffer width in pixels
//   - height: framebuffer height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithHeadlessSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingSize = [2]int{width, height}
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}
