package renderer

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-prologue/common"
)

// PresentationShaderSource is the WGSL module used by the wgpu backend.
// Its FrameUniform and MeshUniform structs match GPUFrameUniform and GPUMeshUniform.
//
//go:embed assets/presentation.wgsl
var PresentationShaderSource string

// Effect bits packed into GPUFrameUniform.Effects.
const (
	EffectToneMapping = iota
	EffectRimGlow
	EffectColorGrading
)

// GPUFrameUniform is the per-frame uniform bound at group 0.
// Size: 144 bytes.
type GPUFrameUniform struct {
	ViewProj       [16]float32 // offset   0
	CameraPosition [4]float32  // offset  64
	LightDirection [4]float32  // offset  80
	LightColor     [4]float32  // offset  96: rgb + intensity
	Ambient        [4]float32  // offset 112: rgb + intensity
	Effects        [4]float32  // offset 128: 1.0 enables the effect at that index
}

// Size returns the size of the GPUFrameUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUFrameUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform into a little-endian byte buffer for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUFrameUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := putFloats(buf, 0, g.ViewProj[:])
	off = putFloats(buf, off, g.CameraPosition[:])
	off = putFloats(buf, off, g.LightDirection[:])
	off = putFloats(buf, off, g.LightColor[:])
	off = putFloats(buf, off, g.Ambient[:])
	putFloats(buf, off, g.Effects[:])
	return buf
}

// GPUMeshUniform is the per-draw uniform bound at group 1.
// Size: 80 bytes.
type GPUMeshUniform struct {
	Model [16]float32 // offset  0
	Color [4]float32  // offset 64
}

// Size returns the size of the GPUMeshUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUMeshUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform into a little-endian byte buffer for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUMeshUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := putFloats(buf, 0, g.Model[:])
	putFloats(buf, off, g.Color[:])
	return buf
}

// FrameUniforms is the scene state a frame is rendered with.
type FrameUniforms struct {
	ViewProjection [16]float32
	CameraPosition [3]float32
	LightDirection [3]float32
	LightColor     common.Color
	Ambient        common.Color
	ClearColor     common.Color
	Effects        [3]bool
}

func (f FrameUniforms) gpu() GPUFrameUniform {
	u := GPUFrameUniform{
		ViewProj:       f.ViewProjection,
		CameraPosition: [4]float32{f.CameraPosition[0], f.CameraPosition[1], f.CameraPosition[2], 1},
		LightDirection: [4]float32{f.LightDirection[0], f.LightDirection[1], f.LightDirection[2], 0},
		LightColor:     f.LightColor,
		Ambient:        f.Ambient,
	}
	for i, on := range f.Effects {
		if on {
			u.Effects[i] = 1
		}
	}
	return u
}

func putFloats(buf []byte, off int, values []float32) int {
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	return off
}
