package renderer

import "github.com/cogentcore/webgpu/wgpu"

// DeviceAllocator allocates buffers on a WGPU device.
type DeviceAllocator struct {
	Device *wgpu.Device
}

var _ BufferAllocator = DeviceAllocator{}

func (d DeviceAllocator) CreateBuffer(descriptor *wgpu.BufferDescriptor) (*wgpu.Buffer, error) {
	return d.Device.CreateBuffer(descriptor)
}

func (d DeviceAllocator) ReleaseBuffer(buffer *wgpu.Buffer) {
	if buffer != nil {
		buffer.Release()
	}
}

// QueueWriter writes buffers through a WGPU queue.
type QueueWriter struct {
	Queue *wgpu.Queue
}

var _ BufferWriter = QueueWriter{}

func (q QueueWriter) WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error {
	return q.Queue.WriteBuffer(buffer, offset, data)
}
