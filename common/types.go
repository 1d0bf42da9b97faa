// Package common holds the plain value types and math helpers shared by the engine packages.
package common

// Transform is a position, Euler rotation (radians) and scale triple.
type Transform struct {
	Position [3]float32
	Rotation [3]float32
	Scale    [3]float32
}

// IdentityTransform returns a transform at the origin with unit scale.
func IdentityTransform() Transform {
	return Transform{Scale: [3]float32{1, 1, 1}}
}

// Matrix returns the column-major model matrix of t.
func (t Transform) Matrix() [16]float32 {
	var m [16]float32
	ModelMatrix(m[:], t)
	return m
}

// Vertex is the interleaved layout uploaded to GPU vertex buffers: position then normal.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// VertexStride is the byte size of one Vertex.
const VertexStride = 24

// Color is a linear RGBA color.
type Color [4]float32

// Geometry is CPU-side indexed triangle data awaiting upload.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
}

// TriangleCount returns the number of indexed triangles.
func (g Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}
