// Package instance defines the per-instance records stored by instanced mesh components and the
// GPU-facing buffer built from them.
package instance

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Matrix is a column-major affine transform whose projective row carries two auxiliaries:
// element 3 holds the random instance id and elements 7, 11, 15 hold the voxel position offset.
// Equality is bitwise.
type Matrix mgl32.Mat4

// Empty is the removed-instance sentinel: zero scale, zero translation, no auxiliaries.
var Empty = Matrix{}

// NewMatrix packs a transform and its auxiliaries into a Matrix.
//
// Parameters:
//   - transform: affine transform; its projective row is overwritten
//   - randomID: per-instance random value forwarded to shaders
//   - offset: voxel-space position offset of the instance
//
// Returns:
//   - Matrix: the packed record
func NewMatrix(transform mgl32.Mat4, randomID float32, offset mgl32.Vec3) Matrix {
	m := Matrix(transform)
	m.SetRandomInstanceID(randomID)
	m.SetPositionOffset(offset)
	return m
}

// RandomInstanceID returns the packed random value.
func (m Matrix) RandomInstanceID() float32 {
	return m[3]
}

// SetRandomInstanceID packs a random value into the matrix.
func (m *Matrix) SetRandomInstanceID(v float32) {
	m[3] = v
}

// PositionOffset returns the packed voxel position offset.
func (m Matrix) PositionOffset() mgl32.Vec3 {
	return mgl32.Vec3{m[7], m[11], m[15]}
}

// SetPositionOffset packs a voxel position offset into the matrix.
func (m *Matrix) SetPositionOffset(v mgl32.Vec3) {
	m[7], m[11], m[15] = v[0], v[1], v[2]
}

// Translation returns the translation column of the transform.
func (m Matrix) Translation() mgl32.Vec3 {
	return mgl32.Vec3{m[12], m[13], m[14]}
}

// CleanMatrix strips the auxiliaries and returns the affine transform.
//
// Returns:
//   - mgl32.Mat4: the transform with a (0, 0, 0, 1) projective row
func (m Matrix) CleanMatrix() mgl32.Mat4 {
	out := mgl32.Mat4(m)
	out[3], out[7], out[11] = 0, 0, 0
	out[15] = 1
	return out
}

// IsZeroScale reports whether every basis vector of the transform is (nearly) zero.
// Removed instances are zero-scaled in place.
func (m Matrix) IsZeroScale() bool {
	const eps = 1e-8
	for c := 0; c < 3; c++ {
		x, y, z := m[c*4], m[c*4+1], m[c*4+2]
		if x*x+y*y+z*z > eps {
			return false
		}
	}
	return true
}

// IsEmpty reports whether m is bitwise equal to the sentinel.
func (m Matrix) IsEmpty() bool {
	return m == Empty
}

// RandomFromSeed maps an integer seed to a stable value in [0, 1) suitable for RandomInstanceID.
//
// Parameters:
//   - seed: any integer
//
// Returns:
//   - float32: value in [0, 1)
func RandomFromSeed(seed uint32) float32 {
	// murmur3 finaliser
	h := seed
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return float32(h>>8) / float32(1<<24)
}

// IsFinite reports whether every element of the matrix is a finite number.
func (m Matrix) IsFinite() bool {
	for _, v := range m {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
