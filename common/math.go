package common

import (
	"math"
	"unsafe"
)

// Identity resets a 4x4 column-major matrix to the identity matrix.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// SliceToBytes reinterprets a slice as raw bytes for GPU buffer uploads.
// The returned slice aliases the input.
//
// Parameters:
//   - data: source slice of any fixed-size element type
//
// Returns:
//   - []byte: byte view of data, or nil if data is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(unsafe.Sizeof(zero))*len(data))
}

// Mul4 computes out = a * b for column-major 4x4 matrices. out may alias a or b.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix
//   - b: right-hand matrix
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			buf[col*4+row] = sum
		}
	}
	copy(out, buf[:])
}

// Perspective writes a right-handed perspective projection with WebGPU's [0, 1] depth range.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - near: near plane distance (> 0)
//   - far: far plane distance (> near)
func Perspective(out []float32, fovY, aspect, near, far float32) {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))
	Identity(out)

	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	out[15] = 0.0
}

// ModelMatrix writes the column-major matrix for t, rotating in Y * X * Z order.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - t: the transform to convert
func ModelMatrix(out []float32, t Transform) {
	cx, sx := cosSin(t.Rotation[0])
	cy, sy := cosSin(t.Rotation[1])
	cz, sz := cosSin(t.Rotation[2])
	s := t.Scale

	out[0] = (cy*cz + sy*sx*sz) * s[0]
	out[1] = (cx * sz) * s[0]
	out[2] = (-sy*cz + cy*sx*sz) * s[0]
	out[3] = 0

	out[4] = (cy*-sz + sy*sx*cz) * s[1]
	out[5] = (cx * cz) * s[1]
	out[6] = (sy*sz + cy*sx*cz) * s[1]
	out[7] = 0

	out[8] = (sy * cx) * s[2]
	out[9] = (-sx) * s[2]
	out[10] = (cy * cx) * s[2]
	out[11] = 0

	out[12] = t.Position[0]
	out[13] = t.Position[1]
	out[14] = t.Position[2]
	out[15] = 1
}

// LookAt writes a view matrix for an eye looking at center with the given up vector.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - eye: camera position
//   - center: point the camera looks at
//   - up: up direction, typically (0, 1, 0)
func LookAt(out []float32, eye, center, up [3]float32) {
	z := normalize(Sub3(eye, center))
	x := normalize(Cross3(up, z))
	y := Cross3(z, x)

	out[0], out[4], out[8], out[12] = x[0], x[1], x[2], -Dot3(x, eye)
	out[1], out[5], out[9], out[13] = y[0], y[1], y[2], -Dot3(y, eye)
	out[2], out[6], out[10], out[14] = z[0], z[1], z[2], -Dot3(z, eye)
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
}

// Distance3 returns the euclidean distance between a and b.
func Distance3(a, b [3]float32) float32 {
	d := Sub3(a, b)
	return float32(math.Sqrt(float64(Dot3(d, d))))
}

func Sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func Dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func Cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(Dot3(v, v))))
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

func cosSin(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(c), float32(s)
}
