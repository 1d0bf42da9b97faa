package scene

import (
	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/Carmen-Shannon/oxy-prologue/engine/camera"
	"github.com/Carmen-Shannon/oxy-prologue/engine/light"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer"
)

// SceneBuilderOption is a functional option for configuring a Scene.
type SceneBuilderOption func(*scene)

// WithName sets the scene's identifier.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithCamera sets the scene's camera.
//
// Parameters:
//   - cam: the camera to render with
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.cam = cam
	}
}

// WithRenderer sets the renderer DrawCalls submits to.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) SceneBuilderOption {
	return func(s *scene) {
		s.r = r
	}
}

// WithLights sets the ambient and directional lights.
//
// Parameters:
//   - ambient: the ambient fill light
//   - directional: the directional key light
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(ambient, directional light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.ambient = ambient
		s.directional = directional
	}
}

// WithClearColor sets the background color.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithClearColor(c common.Color) SceneBuilderOption {
	return func(s *scene) {
		s.clearColor = c
	}
}
