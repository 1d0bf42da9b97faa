package renderer

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// GPUMesh holds the GPU buffers of one uploaded mesh.
// Buffers are nil for meshes uploaded through the headless backend.
type GPUMesh struct {
	label      string
	indexCount uint32

	vertexBuffer  *wgpu.Buffer
	indexBuffer   *wgpu.Buffer
	uniformBuffer *wgpu.Buffer
	bindGroup     *wgpu.BindGroup

	releaseOnce sync.Once
	released    atomic.Bool
}

// Label returns the debug label the mesh was uploaded with.
func (m *GPUMesh) Label() string {
	return m.label
}

// IndexCount returns the number of indices drawn per draw call.
func (m *GPUMesh) IndexCount() uint32 {
	return m.indexCount
}

// Triangles returns the number of triangles drawn per draw call.
func (m *GPUMesh) Triangles() int {
	return int(m.indexCount / 3)
}

// Released reports whether Release has been called.
func (m *GPUMesh) Released() bool {
	return m.released.Load()
}

// Release destroys the mesh's GPU buffers. Safe to call more than once.
func (m *GPUMesh) Release() {
	m.releaseOnce.Do(func() {
		m.released.Store(true)
		if m.bindGroup != nil {
			m.bindGroup.Release()
		}
		if m.uniformBuffer != nil {
			m.uniformBuffer.Release()
		}
		if m.indexBuffer != nil {
			m.indexBuffer.Release()
		}
		if m.vertexBuffer != nil {
			m.vertexBuffer.Release()
		}
	})
}

// Drawable is anything the renderer can issue a draw call for.
type Drawable interface {
	// Enabled reports whether the drawable should be drawn this frame.
	Enabled() bool

	// GPUMesh returns the uploaded mesh, or nil if the drawable has no GPU data.
	GPUMesh() *GPUMesh

	// ModelMatrix returns the column-major world transform.
	ModelMatrix() [16]float32

	// Color returns the base color used by the presentation shader.
	Color() common.Color
}
