// Package model defines the mesh handle the presentation controller attaches to a scene,
// the archetype factories that build them, and the classified errors they return.
package model

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer/material"
)

// Regenerator rebuilds a mesh's geometry at a detail factor in (0, 1].
type Regenerator func(detail float32) common.Geometry

// mesh is the implementation of the Mesh interface.
type mesh struct {
	mu *sync.Mutex

	name      string
	enabled   atomic.Bool
	transform common.Transform
	mat       material.Material
	color     common.Color

	r        renderer.Renderer
	geometry common.Geometry
	regen    Regenerator
	gpu      *renderer.GPUMesh

	disposeOnce sync.Once
	disposed    atomic.Bool
}

// Mesh is an uploaded piece of geometry with a transform, ready to be added to a scene.
// It satisfies scene.Node, renderer.Drawable and lod.Mesh.
type Mesh interface {
	// Name returns the mesh's debug name.
	Name() string

	// Enabled reports whether the mesh is drawn.
	Enabled() bool

	// SetEnabled shows or hides the mesh.
	SetEnabled(enabled bool)

	// Transform returns the mesh's position, rotation and scale.
	Transform() common.Transform

	// SetTransform replaces the mesh's position, rotation and scale.
	SetTransform(t common.Transform)

	// ModelMatrix returns the column-major world transform.
	ModelMatrix() [16]float32

	// Color returns the shaded material color.
	Color() common.Color

	// Material returns the material the mesh was built with, or nil.
	Material() material.Material

	// GPUMesh returns the uploaded buffers, or nil once disposed.
	GPUMesh() *renderer.GPUMesh

	// Triangles returns the triangle count of the geometry.
	Triangles() int

	// GPUBytes estimates the bytes held in GPU buffers for this mesh.
	GPUBytes() uint64

	// Clone builds a reduced-detail copy sharing the material and transform.
	// Meshes built with a Regenerator are re-tessellated; others drop triangles.
	//
	// Parameters:
	//   - name: debug name for the copy
	//   - detail: fraction of the original detail in (0, 1]
	//
	// Returns:
	//   - Mesh: the new mesh, owned by the caller and initially hidden
	//   - error: an error if the copy could not be uploaded
	Clone(name string, detail float32) (Mesh, error)

	// Disposed reports whether Dispose has been called.
	Disposed() bool

	// Dispose hides the mesh and releases its GPU buffers. Safe to call more than once.
	// The material is shared and is not disposed.
	//
	// Returns:
	//   - error: always nil
	Dispose() error
}

var _ Mesh = &mesh{}

// NewMesh uploads g through r and wraps it in a Mesh.
//
// Parameters:
//   - r: the renderer that owns the GPU buffers
//   - g: the geometry to upload
//   - options: functional options to configure the mesh
//
// Returns:
//   - Mesh: the new visible mesh
//   - error: a KindDisposed *Error if r was released, or the upload error
func NewMesh(r renderer.Renderer, g common.Geometry, options ...MeshBuilderOption) (Mesh, error) {
	if r == nil {
		return nil, errors.New("model: nil renderer")
	}
	if len(g.Indices) == 0 {
		return nil, errors.New("model: empty geometry")
	}
	m := &mesh{
		mu:        &sync.Mutex{},
		name:      "mesh",
		transform: common.IdentityTransform(),
		color:     common.Color{1, 1, 1, 1},
		r:         r,
		geometry:  g,
	}
	m.enabled.Store(true)
	for _, opt := range options {
		opt(m)
	}
	if m.mat != nil {
		m.color = m.mat.Shade()
	}

	gpu, err := r.UploadMesh(m.name, g)
	if err != nil {
		kind := KindTransient
		if errors.Is(err, renderer.ErrReleased) {
			kind = KindDisposed
		}
		return nil, NewError(kind, "upload "+m.name, err)
	}
	m.gpu = gpu
	return m, nil
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) Enabled() bool {
	return m.enabled.Load() && !m.disposed.Load()
}

func (m *mesh) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

func (m *mesh) Transform() common.Transform {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transform
}

func (m *mesh) SetTransform(t common.Transform) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transform = t
}

func (m *mesh) ModelMatrix() [16]float32 {
	return m.Transform().Matrix()
}

func (m *mesh) Color() common.Color {
	return m.color
}

func (m *mesh) Material() material.Material {
	return m.mat
}

func (m *mesh) GPUMesh() *renderer.GPUMesh {
	if m.disposed.Load() {
		return nil
	}
	return m.gpu
}

func (m *mesh) Triangles() int {
	return m.geometry.TriangleCount()
}

func (m *mesh) GPUBytes() uint64 {
	var u renderer.GPUMeshUniform
	return uint64(len(m.geometry.Vertices)*common.VertexStride + len(m.geometry.Indices)*4 + u.Size())
}

func (m *mesh) Clone(name string, detail float32) (Mesh, error) {
	if m.disposed.Load() {
		return nil, NewError(KindDisposed, "clone "+m.name, errors.New("mesh disposed"))
	}
	detail = common.Clamp(detail, 0.05, 1)

	var g common.Geometry
	if m.regen != nil {
		g = m.regen(detail)
	} else {
		g = decimate(m.geometry, detail)
	}

	c, err := NewMesh(m.r, g,
		WithName(name),
		WithMaterial(m.mat),
		WithTransform(m.Transform()),
		WithRegenerator(m.regen),
		WithEnabled(false),
	)
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", m.name, err)
	}
	if m.mat == nil {
		c.(*mesh).color = m.color
	}
	return c, nil
}

func (m *mesh) Disposed() bool {
	return m.disposed.Load()
}

func (m *mesh) Dispose() error {
	m.disposeOnce.Do(func() {
		m.disposed.Store(true)
		m.enabled.Store(false)
		if m.gpu != nil {
			m.gpu.Release()
		}
	})
	return nil
}

// decimate keeps roughly detail of g's triangles, dropping evenly spaced ones.
func decimate(g common.Geometry, detail float32) common.Geometry {
	tris := len(g.Indices) / 3
	keep := max(1, int(float32(tris)*detail))
	if keep >= tris {
		return g
	}
	out := common.Geometry{Vertices: g.Vertices, Indices: make([]uint32, 0, keep*3)}
	step := float64(tris) / float64(keep)
	for i := range keep {
		t := int(float64(i) * step)
		out.Indices = append(out.Indices, g.Indices[t*3:t*3+3]...)
	}
	return out
}
