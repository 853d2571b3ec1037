package renderer

import "github.com/cogentcore/webgpu/wgpu"

// InstanceBufferUploaderBuilderOption is a functional option applied to an uploader during construction via NewInstanceBufferUploader.
type InstanceBufferUploaderBuilderOption func(*instanceBufferUploader)

// WithDevice allocates buffers on device and writes them through its queue.
//
// Parameters:
//   - device: the WGPU device
//
// Returns:
//   - InstanceBufferUploaderBuilderOption: a function that applies the device option to an uploader
func WithDevice(device *wgpu.Device) InstanceBufferUploaderBuilderOption {
	return func(u *instanceBufferUploader) {
		u.allocator = DeviceAllocator{Device: device}
		u.writer = QueueWriter{Queue: device.GetQueue()}
	}
}

// WithBufferAllocator sets the allocator buffers are created with.
//
// Parameters:
//   - allocator: the allocator
//
// Returns:
//   - InstanceBufferUploaderBuilderOption: a function that applies the allocator option to an uploader
func WithBufferAllocator(allocator BufferAllocator) InstanceBufferUploaderBuilderOption {
	return func(u *instanceBufferUploader) {
		u.allocator = allocator
	}
}

// WithBufferWriter sets the writer instance bytes are staged through.
//
// Parameters:
//   - writer: the writer
//
// Returns:
//   - InstanceBufferUploaderBuilderOption: a function that applies the writer option to an uploader
func WithBufferWriter(writer BufferWriter) InstanceBufferUploaderBuilderOption {
	return func(u *instanceBufferUploader) {
		u.writer = writer
	}
}

// WithBufferUsage overrides the usage flags of instance buffers.
// Defaults to Vertex | Storage | CopyDst.
//
// Parameters:
//   - usage: the usage flags
//
// Returns:
//   - InstanceBufferUploaderBuilderOption: a function that applies the usage option to an uploader
func WithBufferUsage(usage wgpu.BufferUsage) InstanceBufferUploaderBuilderOption {
	return func(u *instanceBufferUploader) {
		u.usage = usage | wgpu.BufferUsageCopyDst
	}
}

// WithLabel sets the prefix of buffer labels.
//
// Parameters:
//   - label: the label prefix
//
// Returns:
//   - InstanceBufferUploaderBuilderOption: a function that applies the label option to an uploader
func WithLabel(label string) InstanceBufferUploaderBuilderOption {
	return func(u *instanceBufferUploader) {
		u.label = label
	}
}
