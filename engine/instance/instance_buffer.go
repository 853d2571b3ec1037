package instance

import (
	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/go-gl/mathgl/mgl32"
)

// InstanceBuffer is the render-facing array of per-instance data in built order.
// A published buffer is immutable; writers Clone before modifying.
type InstanceBuffer struct {
	data []GPUInstanceData
}

// NewInstanceBuffer allocates a zeroed buffer of n instances.
//
// Parameters:
//   - n: number of instances
//
// Returns:
//   - *InstanceBuffer: the buffer
func NewInstanceBuffer(n int) *InstanceBuffer {
	return &InstanceBuffer{data: make([]GPUInstanceData, n)}
}

// Len returns the number of instances.
func (b *InstanceBuffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// SetInstance writes the clean transform and random value of instance i.
func (b *InstanceBuffer) SetInstance(i int, transform mgl32.Mat4, random float32) {
	b.data[i].Model = transform
	b.data[i].Random = random
}

// Instance returns a copy of instance i.
func (b *InstanceBuffer) Instance(i int) GPUInstanceData {
	return b.data[i]
}

// ZeroInstance hides instance i by zeroing its transform.
func (b *InstanceBuffer) ZeroInstance(i int) {
	b.data[i] = GPUInstanceData{}
}

// Swap exchanges instances i and j.
func (b *InstanceBuffer) Swap(i, j int) {
	b.data[i], b.data[j] = b.data[j], b.data[i]
}

// Clone returns a deep copy of the buffer.
func (b *InstanceBuffer) Clone() *InstanceBuffer {
	if b == nil {
		return nil
	}
	out := &InstanceBuffer{data: make([]GPUInstanceData, len(b.data))}
	copy(out.data, b.data)
	return out
}

// Bytes returns a byte view of the buffer for GPU upload. The view aliases the buffer.
func (b *InstanceBuffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return common.SliceToBytes(b.data)
}

// SizeBytes returns the size of the buffer contents in bytes.
func (b *InstanceBuffer) SizeBytes() int {
	var g GPUInstanceData
	return b.Len() * g.Size()
}
