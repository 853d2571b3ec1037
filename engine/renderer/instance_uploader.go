package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instance"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instance_manager"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instanced_mesh"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// MinInstanceBufferSize is the smallest GPU buffer the uploader allocates, in bytes.
const MinInstanceBufferSize = 4096

// BufferAllocator creates and releases GPU buffers.
type BufferAllocator interface {
	// CreateBuffer allocates a GPU buffer.
	//
	// Parameters:
	//   - descriptor: size, usage and label of the buffer
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer
	//   - error: allocation error
	CreateBuffer(descriptor *wgpu.BufferDescriptor) (*wgpu.Buffer, error)

	// ReleaseBuffer frees a buffer created by CreateBuffer.
	//
	// Parameters:
	//   - buffer: the buffer to free
	ReleaseBuffer(buffer *wgpu.Buffer)
}

// BufferWriter stages writes into GPU buffers.
type BufferWriter interface {
	// WriteBuffer copies data into buffer at offset.
	//
	// Parameters:
	//   - buffer: destination buffer
	//   - offset: byte offset into the buffer
	//   - data: bytes to write
	//
	// Returns:
	//   - error: write error
	WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error
}

// GPUInstances is the GPU-side copy of one bucket's render snapshot.
type GPUInstances struct {
	Buffer       *wgpu.Buffer
	Capacity     uint64
	NumInstances int
	Version      uint64
	Origin       mgl32.Vec3
	Layers       int
}

// InstanceBufferUploader keeps one GPU instance buffer per bucket in step with the published render data.
// Buffers grow geometrically and are only rewritten when a bucket publishes a new version.
type InstanceBufferUploader interface {
	// Sync uploads the render data of a bucket when its version changed since the last upload.
	//
	// Parameters:
	//   - ref: the bucket the data belongs to
	//   - rd: the bucket's current render snapshot, nil while it has never been built
	//
	// Returns:
	//   - bool: true if bytes were written
	//   - error: allocation or write error
	Sync(ref instance_manager.BucketRef, rd *instanced_mesh.RenderData) (bool, error)

	// SyncManager syncs every bucket of the manager and releases buffers of buckets that no longer exist.
	//
	// Parameters:
	//   - m: the manager to mirror
	//
	// Returns:
	//   - int: number of buckets uploaded
	//   - error: the first allocation or write error, other buckets are still synced
	SyncManager(m instance_manager.InstanceManager) (int, error)

	// Instances returns the GPU copy of a bucket.
	//
	// Parameters:
	//   - ref: the bucket
	//
	// Returns:
	//   - GPUInstances: the uploaded state
	//   - bool: false if nothing was uploaded for the bucket
	Instances(ref instance_manager.BucketRef) (GPUInstances, bool)

	// Forget releases the buffer of a bucket.
	//
	// Parameters:
	//   - ref: the bucket
	Forget(ref instance_manager.BucketRef)

	// NumBuffers returns the number of live GPU buffers.
	NumBuffers() int

	// UploadedBytes returns the total bytes written since creation.
	UploadedBytes() uint64

	// InstanceStruct returns the WGSL declaration shaders bind instance buffers with.
	//
	// Returns:
	//   - string: the WGSL struct source
	//   - uint64: the stride of one instance in bytes
	InstanceStruct() (string, uint64)

	// Release frees every buffer.
	Release()
}

type instanceBufferUploader struct {
	mu            *sync.Mutex
	allocator     BufferAllocator
	writer        BufferWriter
	usage         wgpu.BufferUsage
	label         string
	buffers       map[instance_manager.BucketRef]*GPUInstances
	uploadedBytes uint64
}

var _ InstanceBufferUploader = &instanceBufferUploader{}

// NewInstanceBufferUploader creates an InstanceBufferUploader.
// Panics if no allocator or writer is supplied.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - InstanceBufferUploader: the uploader
func NewInstanceBufferUploader(options ...InstanceBufferUploaderBuilderOption) InstanceBufferUploader {
	u := &instanceBufferUploader{
		mu:      &sync.Mutex{},
		usage:   wgpu.BufferUsageVertex | wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		label:   "Instances",
		buffers: make(map[instance_manager.BucketRef]*GPUInstances),
	}
	for _, option := range options {
		option(u)
	}
	if u.allocator == nil || u.writer == nil {
		panic("renderer: instance buffer uploader needs an allocator and a writer")
	}
	return u
}

// bufferCapacity rounds size up to the next power of two, at least MinInstanceBufferSize.
func bufferCapacity(size uint64) uint64 {
	c := uint64(MinInstanceBufferSize)
	for c < size {
		c <<= 1
	}
	return c
}

func (u *instanceBufferUploader) Sync(ref instance_manager.BucketRef, rd *instanced_mesh.RenderData) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sync(ref, rd)
}

func (u *instanceBufferUploader) sync(ref instance_manager.BucketRef, rd *instanced_mesh.RenderData) (bool, error) {
	if rd == nil {
		return false, nil
	}
	current, ok := u.buffers[ref]
	if ok && current.Version == rd.Version {
		return false, nil
	}

	data := rd.Buffer.Bytes()
	size := uint64(len(data))
	if !ok || current.Capacity < size {
		capacity := bufferCapacity(size)
		buf, err := u.allocator.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            fmt.Sprintf("%s %v", u.label, ref),
			Size:             capacity,
			Usage:            u.usage,
			MappedAtCreation: false,
		})
		if err != nil {
			return false, fmt.Errorf("renderer: create instance buffer of %d bytes: %w", capacity, err)
		}
		if ok {
			u.allocator.ReleaseBuffer(current.Buffer)
		}
		current = &GPUInstances{Buffer: buf, Capacity: capacity}
		u.buffers[ref] = current
	}

	if size > 0 {
		if err := u.writer.WriteBuffer(current.Buffer, 0, data); err != nil {
			return false, fmt.Errorf("renderer: write %d instance bytes: %w", size, err)
		}
		u.uploadedBytes += size
	}
	current.NumInstances = rd.NumInstances()
	current.Version = rd.Version
	current.Origin = rd.Origin
	current.Layers = rd.OcclusionLayerNum
	return true, nil
}

func (u *instanceBufferUploader) SyncManager(m instance_manager.InstanceManager) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	live := make(map[instance_manager.BucketRef]struct{}, len(u.buffers))
	var firstErr error
	n := 0
	m.Buckets(func(ref instance_manager.BucketRef, _ instance_manager.MeshKey, _ common.IntVector, c instanced_mesh.Component) bool {
		live[ref] = struct{}{}
		uploaded, err := u.sync(ref, c.RenderData())
		if err != nil {
			firstErr = common.Coalesce(firstErr, err)
			return true
		}
		if uploaded {
			n++
		}
		return true
	})

	for ref := range u.buffers {
		if _, ok := live[ref]; !ok {
			u.forget(ref)
		}
	}
	return n, firstErr
}

func (u *instanceBufferUploader) Instances(ref instance_manager.BucketRef) (GPUInstances, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	g, ok := u.buffers[ref]
	if !ok {
		return GPUInstances{}, false
	}
	return *g, true
}

func (u *instanceBufferUploader) Forget(ref instance_manager.BucketRef) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.forget(ref)
}

func (u *instanceBufferUploader) forget(ref instance_manager.BucketRef) {
	g, ok := u.buffers[ref]
	if !ok {
		return
	}
	u.allocator.ReleaseBuffer(g.Buffer)
	delete(u.buffers, ref)
}

func (u *instanceBufferUploader) NumBuffers() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.buffers)
}

func (u *instanceBufferUploader) UploadedBytes() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploadedBytes
}

func (u *instanceBufferUploader) InstanceStruct() (string, uint64) {
	var g instance.GPUInstanceData
	return instance.GPUInstanceDataSource, uint64(g.Size())
}

func (u *instanceBufferUploader) Release() {
	u.mu.Lock()
	defer u.mu.Unlock()
	for ref := range u.buffers {
		u.forget(ref)
	}
}
