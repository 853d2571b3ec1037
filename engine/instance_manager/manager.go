// Package instance_manager routes instance batches to per-chunk buckets, each owned by an
// instanced mesh component, and is the single entry and exit point for scattered instances.
package instance_manager

import (
	"fmt"
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/Carmen-Shannon/oxy-scatter/engine/arena"
	"github.com/Carmen-Shannon/oxy-scatter/engine/build_task"
	"github.com/Carmen-Shannon/oxy-scatter/engine/game_object"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instance"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instanced_mesh"
	"github.com/Carmen-Shannon/oxy-scatter/engine/physics"
	"github.com/Carmen-Shannon/oxy-scatter/engine/pool"
	"github.com/Carmen-Shannon/oxy-scatter/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scatter/engine/terrain"
	"github.com/go-gl/mathgl/mgl64"
)

type bucket struct {
	key       MeshKey
	chunk     common.IntVector
	position  common.IntVector
	bounds    common.IntBoxAccumulator
	component instanced_mesh.Component
}

type bucketOutcome struct {
	bucket  arena.Handle
	outcome build_task.Outcome
}

type instanceManager struct {
	settings              Settings
	pool                  pool.Pool
	submitter             pool.Submitter
	physicsScene          physics.Scene
	clock                 func() time.Time
	profiler              *profiler.Profiler
	onMaxInstancesReached func()

	buckets arena.Arena[*bucket]
	chunks  map[MeshKey]map[common.IntVector]arena.Handle
	results *build_task.ResultQueue[bucketOutcome]
	regions map[common.IntBox]struct{}

	numInstances    int
	maxReachedFired bool
	nextObjectID    uint64
	destroyed       bool
}

// InstanceManager partitions instance batches into buckets keyed by mesh and spatial chunk.
// All methods must be called from the owning goroutine; build results are handed back through
// DrainBuildResults.
type InstanceManager interface {
	// Settings returns the normalized manager settings.
	//
	// Returns:
	//   - Settings: the settings
	Settings() Settings

	// TransformsOffset returns the voxel origin batches covering bounds must be expressed relative to.
	//
	// Parameters:
	//   - bounds: voxel bounds of a batch
	//
	// Returns:
	//   - common.IntVector: bounds.Min floored to a multiple of the chunk size
	TransformsOffset(bounds common.IntBox) common.IntVector

	// AddInstances appends a batch to the bucket of key at the chunk derived from bounds, creating
	// the bucket on demand. Rejected once the global instance ceiling has been exceeded; the first
	// rejection fires the max-instances callback, which re-arms once usage drops back to the ceiling.
	//
	// Parameters:
	//   - key: mesh and render settings
	//   - transforms: the batch, relative to TransformsOffset(bounds)
	//   - bounds: voxel bounds of the batch
	//
	// Returns:
	//   - InstancesRef: handle to the batch, invalid if rejected
	AddInstances(key MeshKey, transforms instance.Transforms, bounds common.IntBox) InstancesRef

	// RemoveInstances removes a batch and destroys its bucket once empty. Invalid or already
	// removed refs are a no-op.
	//
	// Parameters:
	//   - ref: the batch handle
	RemoveInstances(ref InstancesRef)

	// RemovedIndices returns the batch-relative indices removed by area or index removal.
	//
	// Parameters:
	//   - ref: the batch handle
	//
	// Returns:
	//   - []int: removed indices, nil for stale refs
	RemovedIndices(ref InstancesRef) []int

	// RemoveInstancesInArea removes instances inside bounds from every overlapping bucket.
	//
	// Parameters:
	//   - bounds: global voxel bounds
	//   - source: terrain queried by RemovalModeFilteredByTerrain; may be nil for RemovalModeAll
	//   - mode: which instances to take
	//
	// Returns:
	//   - map[MeshKey][]instance.Transforms: removed batches per mesh
	RemoveInstancesInArea(bounds common.IntBox, source terrain.DataSource, mode RemovalMode) map[MeshKey][]instance.Transforms

	// SpawnStandalone creates a standalone object in place of an instance record.
	//
	// Parameters:
	//   - key: the mesh the instance belonged to
	//   - t: the instance record and its origin
	//
	// Returns:
	//   - game_object.GameObject: the object
	SpawnStandalone(key MeshKey, t instance.Transform) game_object.GameObject

	// SpawnStandalones creates one standalone object per record of a batch.
	//
	// Parameters:
	//   - key: the mesh the instances belonged to
	//   - transforms: the batch
	//
	// Returns:
	//   - []game_object.GameObject: the objects, in batch order
	SpawnStandalones(key MeshKey, transforms instance.Transforms) []game_object.GameObject

	// SpawnStandalonesInArea removes instances in an area and replaces each with a standalone object.
	//
	// Parameters:
	//   - bounds: global voxel bounds
	//   - source: terrain queried by RemovalModeFilteredByTerrain
	//   - mode: which instances to take
	//
	// Returns:
	//   - []game_object.GameObject: the spawned objects
	SpawnStandalonesInArea(bounds common.IntBox, source terrain.DataSource, mode RemovalMode) []game_object.GameObject

	// SpawnStandaloneFromIndex removes one instance of a bucket and replaces it with a standalone object.
	//
	// Parameters:
	//   - ref: the bucket, e.g. resolved from a render hit
	//   - index: the instance's unbuilt index in that bucket
	//
	// Returns:
	//   - game_object.GameObject: the object, nil on failure
	//   - bool: false if the bucket is unknown or the instance is not built or already removed
	SpawnStandaloneFromIndex(ref BucketRef, index int) (game_object.GameObject, bool)

	// DrainBuildResults applies every build result pushed by workers since the last drain.
	// Results for destroyed buckets are dropped.
	//
	// Returns:
	//   - int: the number of results popped
	DrainBuildResults() int

	// Advance starts debounced builds whose deadline passed.
	//
	// Parameters:
	//   - now: the current tick time
	Advance(now time.Time)

	// Tick drains build results and advances every bucket. Meant to be called once per engine tick.
	//
	// Parameters:
	//   - now: the current tick time
	Tick(now time.Time)

	// EnablePhysics enables bodies in a region for every collision-enabled bucket, including buckets
	// created later.
	//
	// Parameters:
	//   - region: global voxel bounds, usually one collision chunk
	EnablePhysics(region common.IntBox)

	// DisablePhysics disables a region enabled with EnablePhysics.
	//
	// Parameters:
	//   - region: the region
	DisablePhysics(region common.IntBox)

	// RecomputeMeshPositions moves every bucket after the world origin was rebased.
	//
	// Parameters:
	//   - worldOffset: the new voxel-space world offset
	RecomputeMeshPositions(worldOffset common.IntVector)

	// NumInstances returns the number of instances counted against the ceiling.
	NumInstances() int

	// NumBuckets returns the number of live buckets.
	NumBuckets() int

	// AllocatedBytes estimates the memory held by every bucket.
	AllocatedBytes() int

	// Component resolves a bucket to its component.
	//
	// Parameters:
	//   - ref: the bucket
	//
	// Returns:
	//   - instanced_mesh.Component: the component
	//   - bool: false for stale refs
	Component(ref BucketRef) (instanced_mesh.Component, bool)

	// Buckets visits every live bucket in creation-slot order.
	//
	// Parameters:
	//   - fn: receives the bucket ref, its mesh key, chunk coordinate and component; return false to stop
	Buckets(fn func(ref BucketRef, key MeshKey, chunk common.IntVector, c instanced_mesh.Component) bool)

	// SaveData returns the live instances of every bucket.
	//
	// Returns:
	//   - SaveData: the payload
	SaveData() SaveData

	// LoadData adds every bucket of a payload.
	//
	// Parameters:
	//   - data: a payload produced by SaveData
	//
	// Returns:
	//   - []InstancesRef: refs of the loaded batches
	//   - error: version mismatch, inconsistent bucket or rejected batch
	LoadData(data SaveData) ([]InstancesRef, error)

	// Destroy destroys every bucket. The manager is unusable afterwards.
	Destroy()
}

var _ InstanceManager = &instanceManager{}

// NewManager creates an InstanceManager.
// Panics if the settings do not validate. Without a pool a WorkerPool is created; without a
// submitter builds are capped at Settings.MaxConcurrentBuilds.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - InstanceManager: the manager
func NewManager(options ...ManagerBuilderOption) InstanceManager {
	m := &instanceManager{
		settings: DefaultSettings(),
		clock:    time.Now,
		buckets:  arena.New[*bucket](64),
		chunks:   make(map[MeshKey]map[common.IntVector]arena.Handle),
		results:  build_task.NewResultQueue[bucketOutcome](),
		regions:  make(map[common.IntBox]struct{}),
	}
	for _, option := range options {
		option(m)
	}
	if err := m.settings.Validate(); err != nil {
		panic(err.Error())
	}
	m.settings = m.settings.normalized()
	if m.pool == nil {
		m.pool = pool.NewWorkerPool()
	}
	if m.submitter == nil {
		m.submitter = pool.NewLimited(m.pool, m.settings.MaxConcurrentBuilds)
	}
	return m
}

func (m *instanceManager) ensure(cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	if m.settings.Debug.PanicOnEnsure {
		panic("instance_manager: " + msg)
	}
	log.Printf("[InstanceManager] ensure failed: %s", msg)
	return false
}

func (m *instanceManager) verbosef(format string, args ...any) {
	if m.settings.Debug.Verbose {
		log.Printf("[InstanceManager] "+format, args...)
	}
}

func (m *instanceManager) Settings() Settings {
	return m.settings
}

func (m *instanceManager) TransformsOffset(bounds common.IntBox) common.IntVector {
	return bounds.Min.DivideFloor(m.settings.ChunkSize).Scale(m.settings.ChunkSize)
}

func (m *instanceManager) AddInstances(key MeshKey, transforms instance.Transforms, bounds common.IntBox) InstancesRef {
	if m.destroyed || !m.ensure(transforms.Len() > 0, "add of an empty batch for %s", key.Asset.ID) {
		return InstancesRef{}
	}

	// the batch that crosses the ceiling is still accepted; later ones are refused
	if m.settings.MaxInstances > 0 && m.numInstances > m.settings.MaxInstances {
		if !m.maxReachedFired {
			m.maxReachedFired = true
			log.Printf("[InstanceManager] max number of instances reached: %d", m.settings.MaxInstances)
			if m.onMaxInstancesReached != nil {
				m.onMaxInstancesReached()
			}
		}
		return InstancesRef{}
	}

	position := m.TransformsOffset(bounds)
	m.ensure(transforms.Offset == position, "batch offset %+v does not match %+v derived from its bounds", transforms.Offset, position)

	chunk := position.DivideFloor(m.settings.ChunkSize)
	h, b := m.bucketFor(key, chunk, position)
	b.bounds.Add(bounds)

	section := b.component.AppendInstances(transforms.Matrices, bounds)
	if !m.ensure(section.IsValid(), "bucket %s rejected a batch", b.component.Name()) {
		return InstancesRef{}
	}
	m.numInstances += transforms.Len()
	return InstancesRef{
		Bucket:       BucketRef{handle: h},
		Section:      SectionRef{handle: section, bucket: h},
		NumInstances: transforms.Len(),
	}
}

func (m *instanceManager) bucketFor(key MeshKey, chunk, position common.IntVector) (arena.Handle, *bucket) {
	if byChunk, ok := m.chunks[key]; ok {
		if h, ok := byChunk[chunk]; ok {
			if b, ok := m.buckets.Get(h); ok {
				return h, b
			}
		}
	}

	b := &bucket{key: key, chunk: chunk, position: position}
	h := m.buckets.Insert(b)
	b.component = instanced_mesh.NewComponent(
		instanced_mesh.WithName(fmt.Sprintf("%s@%d,%d,%d", key.Asset.ID, chunk.X, chunk.Y, chunk.Z)),
		instanced_mesh.WithSettings(key.Settings),
		instanced_mesh.WithDebugOptions(m.settings.Debug),
		instanced_mesh.WithMeshBox(key.Asset.Bounds),
		instanced_mesh.WithSubmitter(m.submitter),
		instanced_mesh.WithPhysicsScene(m.physicsScene),
		instanced_mesh.WithClock(m.clock),
		instanced_mesh.WithBuildObserver(m.observeBuild),
		instanced_mesh.WithResultSink(func(o build_task.Outcome) {
			m.results.Push(bucketOutcome{bucket: h, outcome: o})
		}),
		instanced_mesh.WithVoxelPosition(position),
		instanced_mesh.WithVoxelSize(m.settings.VoxelSize),
		instanced_mesh.WithWorldOffset(m.settings.WorldOffset),
	)

	byChunk, ok := m.chunks[key]
	if !ok {
		byChunk = make(map[common.IntVector]arena.Handle)
		m.chunks[key] = byChunk
	}
	byChunk[chunk] = h

	if key.Settings.CollisionEnabled {
		for region := range m.regions {
			b.component.EnablePhysics(region)
		}
	}
	m.verbosef("created bucket %s", b.component.Name())
	return h, b
}

func (m *instanceManager) destroyBucket(h arena.Handle, b *bucket) {
	m.verbosef("removing bucket %s", b.component.Name())
	b.component.Destroy()
	m.buckets.Remove(h)
	if byChunk, ok := m.chunks[b.key]; ok {
		delete(byChunk, b.chunk)
		if len(byChunk) == 0 {
			delete(m.chunks, b.key)
		}
	}
}

func (m *instanceManager) observeBuild(_ uint64, d time.Duration, numInstances int) {
	if m.profiler != nil {
		m.profiler.RecordBuild(d, numInstances)
	}
}

func (m *instanceManager) RemoveInstances(ref InstancesRef) {
	if m.destroyed || !ref.IsValid() {
		return
	}
	if !m.ensure(ref.Section.bucket == ref.Bucket.handle, "remove of a batch whose section belongs to another bucket") {
		return
	}
	b, ok := m.buckets.Get(ref.Bucket.handle)
	if !ok || !b.component.HasSection(ref.Section.handle) {
		m.verbosef("remove of a stale batch ignored")
		return
	}

	b.component.RemoveSection(ref.Section.handle)
	m.numInstances -= ref.NumInstances
	m.ensure(m.numInstances >= 0, "instance count went negative: %d", m.numInstances)
	if m.maxReachedFired && (m.settings.MaxInstances <= 0 || m.numInstances <= m.settings.MaxInstances) {
		m.maxReachedFired = false
	}

	if b.component.IsEmpty() {
		m.destroyBucket(ref.Bucket.handle, b)
	}
}

func (m *instanceManager) RemovedIndices(ref InstancesRef) []int {
	if !ref.IsValid() || !m.ensure(ref.Section.bucket == ref.Bucket.handle, "removed indices of a section from another bucket") {
		return nil
	}
	b, ok := m.buckets.Get(ref.Bucket.handle)
	if !ok {
		return nil
	}
	return b.component.RemovedIndices(ref.Section.handle)
}

func (m *instanceManager) RemoveInstancesInArea(bounds common.IntBox, source terrain.DataSource, mode RemovalMode) map[MeshKey][]instance.Transforms {
	out := make(map[MeshKey][]instance.Transforms)
	if m.destroyed {
		return out
	}

	var filter instanced_mesh.InstanceFilter
	if mode == RemovalModeFilteredByTerrain {
		if !m.ensure(source != nil, "terrain-filtered removal without a data source") {
			return out
		}
		// the packed offset moves positions onto the touched voxel, which can sit just outside bounds
		sampler := terrain.Cached(source, bounds.Extend(1))
		filter = func(pos mgl64.Vec3) bool {
			return !sampler.IsSolid(pos)
		}
	}

	m.buckets.Range(func(_ arena.Handle, b *bucket) bool {
		box, ok := b.bounds.Box()
		if !ok || !box.Intersects(bounds) {
			return true
		}
		if removed := b.component.RemoveInstancesInArea(bounds, filter); removed.Len() > 0 {
			out[b.key] = append(out[b.key], removed)
		}
		return true
	})
	return out
}

func (m *instanceManager) SpawnStandalone(key MeshKey, t instance.Transform) game_object.GameObject {
	m.nextObjectID++
	return game_object.NewGameObject(
		game_object.WithID(m.nextObjectID),
		game_object.WithAssetID(key.Asset.ID),
		game_object.WithTransform(t.WorldTransform(m.settings.WorldOffset, m.settings.VoxelSize)),
		game_object.WithInstanceRandom(t.Matrix.RandomInstanceID()),
		game_object.WithLifespan(m.settings.StandaloneLifespan, m.clock()),
	)
}

func (m *instanceManager) SpawnStandalones(key MeshKey, transforms instance.Transforms) []game_object.GameObject {
	out := make([]game_object.GameObject, 0, transforms.Len())
	for _, matrix := range transforms.Matrices {
		out = append(out, m.SpawnStandalone(key, instance.Transform{Offset: transforms.Offset, Matrix: matrix}))
	}
	return out
}

func (m *instanceManager) SpawnStandalonesInArea(bounds common.IntBox, source terrain.DataSource, mode RemovalMode) []game_object.GameObject {
	var out []game_object.GameObject
	for key, batches := range m.RemoveInstancesInArea(bounds, source, mode) {
		for _, transforms := range batches {
			out = append(out, m.SpawnStandalones(key, transforms)...)
		}
	}
	return out
}

func (m *instanceManager) SpawnStandaloneFromIndex(ref BucketRef, index int) (game_object.GameObject, bool) {
	if m.destroyed {
		return nil, false
	}
	b, ok := m.buckets.Get(ref.handle)
	if !m.ensure(ok, "spawn from a bucket this manager does not own") {
		return nil, false
	}
	t, ok := b.component.RemoveInstanceByIndex(index)
	if !ok {
		return nil, false
	}
	return m.SpawnStandalone(b.key, t), true
}

func (m *instanceManager) DrainBuildResults() int {
	n := 0
	for {
		r, ok := m.results.Pop()
		if !ok {
			return n
		}
		n++
		b, ok := m.buckets.Get(r.bucket)
		if !ok {
			m.verbosef("build %d for a destroyed bucket dropped", r.outcome.TaskID)
			continue
		}
		b.component.Apply(r.outcome)
	}
}

func (m *instanceManager) Advance(now time.Time) {
	m.buckets.Range(func(_ arena.Handle, b *bucket) bool {
		b.component.Advance(now)
		return true
	})
}

func (m *instanceManager) Tick(now time.Time) {
	if m.destroyed {
		return
	}
	m.DrainBuildResults()
	m.Advance(now)
}

func (m *instanceManager) EnablePhysics(region common.IntBox) {
	if m.destroyed {
		return
	}
	if _, ok := m.regions[region]; ok {
		m.verbosef("physics already enabled for %+v", region)
		return
	}
	m.regions[region] = struct{}{}
	m.buckets.Range(func(_ arena.Handle, b *bucket) bool {
		if b.key.Settings.CollisionEnabled {
			b.component.EnablePhysics(region)
		}
		return true
	})
}

func (m *instanceManager) DisablePhysics(region common.IntBox) {
	if _, ok := m.regions[region]; !ok {
		return
	}
	delete(m.regions, region)
	m.buckets.Range(func(_ arena.Handle, b *bucket) bool {
		if b.key.Settings.CollisionEnabled {
			b.component.DisablePhysics(region)
		}
		return true
	})
}

func (m *instanceManager) RecomputeMeshPositions(worldOffset common.IntVector) {
	m.settings.WorldOffset = worldOffset
	m.buckets.Range(func(_ arena.Handle, b *bucket) bool {
		b.component.SetWorldOffset(worldOffset)
		return true
	})
}

func (m *instanceManager) NumInstances() int {
	return m.numInstances
}

func (m *instanceManager) NumBuckets() int {
	return m.buckets.Len()
}

func (m *instanceManager) AllocatedBytes() int {
	n := 0
	m.buckets.Range(func(_ arena.Handle, b *bucket) bool {
		n += b.component.AllocatedBytes()
		return true
	})
	return n
}

func (m *instanceManager) Component(ref BucketRef) (instanced_mesh.Component, bool) {
	b, ok := m.buckets.Get(ref.handle)
	if !ok {
		return nil, false
	}
	return b.component, true
}

func (m *instanceManager) Buckets(fn func(ref BucketRef, key MeshKey, chunk common.IntVector, c instanced_mesh.Component) bool) {
	m.buckets.Range(func(h arena.Handle, b *bucket) bool {
		return fn(BucketRef{handle: h}, b.key, b.chunk, b.component)
	})
}

func (m *instanceManager) Destroy() {
	if m.destroyed {
		return
	}
	m.buckets.Range(func(_ arena.Handle, b *bucket) bool {
		b.component.Destroy()
		return true
	})
	m.buckets.Clear()
	m.chunks = make(map[MeshKey]map[common.IntVector]arena.Handle)
	m.regions = make(map[common.IntBox]struct{})
	m.numInstances = 0
	m.destroyed = true
}
