package scene

import (
	"errors"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/Carmen-Shannon/oxy-prologue/engine/camera"
	"github.com/Carmen-Shannon/oxy-prologue/engine/light"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer"
)

// ErrNoRenderer is returned by DrawCalls when the scene has no renderer attached.
var ErrNoRenderer = errors.New("scene: no renderer")

// Node is anything that can live in the scene graph.
// Nodes that also implement renderer.Drawable are drawn each frame while enabled.
type Node interface {
	Name() string
	Enabled() bool
}

// Scene is the graph of camera, lights and meshes for one render session.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// Ambient returns the ambient fill light.
	Ambient() light.Light

	// Directional returns the directional key light.
	Directional() light.Light

	// ClearColor returns the background color.
	ClearColor() common.Color

	// SetClearColor sets the background color.
	//
	// Parameters:
	//   - c: the new clear color
	SetClearColor(c common.Color)

	// Effects returns which post-process effects the scene requests.
	Effects() [3]bool

	// SetEffects sets which post-process effects the scene requests.
	// The renderer's quality level may still suppress them.
	//
	// Parameters:
	//   - effects: indexed by the renderer.Effect* constants
	SetEffects(effects [3]bool)

	// Add registers a node. Adding a node twice is a no-op.
	//
	// Parameters:
	//   - n: the node to add
	Add(n Node)

	// Remove unregisters a node. Removing an unknown node is a no-op.
	//
	// Parameters:
	//   - n: the node to remove
	Remove(n Node)

	// Contains reports whether n is registered.
	Contains(n Node) bool

	// Nodes returns a snapshot of the registered nodes in insertion order.
	Nodes() []Node

	// Count returns the number of registered nodes.
	Count() int

	// Clear unregisters every node.
	Clear()

	// DrawCalls renders one frame: every enabled drawable node is drawn with the scene's
	// camera and lights, then the frame is presented.
	//
	// Returns:
	//   - error: an error if the frame could not be started
	DrawCalls() error
}

type scene struct {
	mu *sync.RWMutex

	name        string
	cam         camera.Camera
	r           renderer.Renderer
	ambient     light.Light
	directional light.Light
	clearColor  common.Color
	effects     [3]bool

	nodes []Node
}

var _ Scene = &scene{}

// NewScene creates a scene. Without options it gets a default camera, a dim blue ambient
// light and a warm directional light; a renderer must be supplied for DrawCalls to work.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:         &sync.RWMutex{},
		name:       "presentation",
		clearColor: common.Color{0.02, 0.02, 0.05, 1},
		effects:    [3]bool{true, true, true},
	}
	for _, opt := range options {
		opt(s)
	}
	if s.cam == nil {
		s.cam = camera.NewCamera(camera.WithController(camera.NewOrbitController()))
	}
	if s.ambient == nil {
		s.ambient = light.NewAmbient([3]float32{0.35, 0.4, 0.55}, 0.6)
	}
	if s.directional == nil {
		s.directional = light.NewDirectional([3]float32{-0.4, -1, -0.3}, [3]float32{1, 0.95, 0.85}, 1.1)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) Ambient() light.Light {
	return s.ambient
}

func (s *scene) Directional() light.Light {
	return s.directional
}

func (s *scene) ClearColor() common.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clearColor
}

func (s *scene) SetClearColor(c common.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearColor = c
}

func (s *scene) Effects() [3]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effects
}

func (s *scene) SetEffects(effects [3]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effects = effects
}

func (s *scene) Add(n Node) {
	if n == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.nodes, n) {
		return
	}
	s.nodes = append(s.nodes, n)
}

func (s *scene) Remove(n Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.nodes, n); i >= 0 {
		s.nodes = slices.Delete(s.nodes, i, i+1)
	}
}

func (s *scene) Contains(n Node) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.nodes, n)
}

func (s *scene) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.nodes)
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = nil
}

func (s *scene) DrawCalls() error {
	s.mu.RLock()
	r := s.r
	cam := s.cam
	nodes := slices.Clone(s.nodes)
	frame := renderer.FrameUniforms{
		ClearColor: s.clearColor,
		Effects:    s.effects,
	}
	s.mu.RUnlock()

	if r == nil {
		return ErrNoRenderer
	}
	frame.ViewProjection = cam.ViewProjectionMatrix()
	frame.CameraPosition = cam.Position()
	frame.LightDirection = s.directional.Direction()
	frame.LightColor = s.directional.Uniform()
	frame.Ambient = s.ambient.Uniform()

	if err := r.BeginFrame(frame); err != nil {
		return err
	}
	for _, n := range nodes {
		if d, ok := n.(renderer.Drawable); ok {
			r.Draw(d)
		}
	}
	r.EndFrame()
	r.Present()
	return nil
}
