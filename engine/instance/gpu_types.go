package instance

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUInstanceDataSource is the canonical WGSL definition of the InstanceData struct.
// Matches GPUInstanceData layout exactly (80 bytes, std430 aligned).
//
//go:embed assets/instance_data.wgsl
var GPUInstanceDataSource string

// GPUInstanceData is the GPU-aligned representation of a single instance in a built buffer.
// Size: 80 bytes (mat4x4<f32> + f32 random + 12 bytes padding).
type GPUInstanceData struct {
	Model  [16]float32 // offset  0: clean model transform (64 bytes)
	Random float32     // offset 64: per-instance random value (4 bytes)
	_      [3]float32  // offset 68: padding to 16-byte alignment (12 bytes)
}

// Size returns the size of the GPUInstanceData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUInstanceData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUInstanceData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload.
func (g *GPUInstanceData) Marshal() []byte {
	buf := make([]byte, 80)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.Model[i]))
	}
	binary.LittleEndian.PutUint32(buf[64:68], math.Float32bits(g.Random))
	return buf
}

// Transform returns the model matrix as an mgl32.Mat4.
func (g *GPUInstanceData) Transform() mgl32.Mat4 {
	return mgl32.Mat4(g.Model)
}
