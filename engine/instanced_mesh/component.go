// Package instanced_mesh owns one bucket's live instance list and keeps it reconciled with the
// cluster tree periodically rebuilt in the background.
package instanced_mesh

import (
	"hash/fnv"
	"log"
	"slices"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/Carmen-Shannon/oxy-scatter/engine/arena"
	"github.com/Carmen-Shannon/oxy-scatter/engine/build_task"
	"github.com/Carmen-Shannon/oxy-scatter/engine/cluster"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instance"
	"github.com/Carmen-Shannon/oxy-scatter/engine/physics"
	"github.com/Carmen-Shannon/oxy-scatter/engine/pool"
	"github.com/go-gl/mathgl/mgl64"
)

// State is the build state of a component.
type State int

const (
	// StateIdle means the built snapshot is current or no build is wanted.
	StateIdle State = iota
	// StateBuildScheduled means a build starts once the debounce deadline passes.
	StateBuildScheduled
	// StateBuildInFlight means a build task is running on the pool.
	StateBuildInFlight
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateBuildScheduled:
		return "BuildScheduled"
	case StateBuildInFlight:
		return "BuildInFlight"
	}
	return "Unknown"
}

// InstanceFilter decides whether an instance at a global voxel position is removed by an area removal.
type InstanceFilter func(globalVoxelPosition mgl64.Vec3) bool

// BuildObserver is notified of every applied build.
type BuildObserver func(taskID uint64, duration time.Duration, numInstances int)

type section struct {
	start   int
	num     int
	removed []int
}

type instanceBody struct {
	body    physics.Body
	unbuilt int
}

type component struct {
	name          string
	settings      Settings
	debug         DebugOptions
	meshBox       common.Box
	strategy      cluster.Strategy
	submitter     pool.Submitter
	physicsScene  physics.Scene
	clock         func() time.Time
	observer      BuildObserver
	sink          func(build_task.Outcome)
	ownQueue      *build_task.ResultQueue[build_task.Outcome]
	voxelPosition common.IntVector
	voxelSize     float32
	worldOffset   common.IntVector

	// live list and its sections
	unbuilt      []instance.Matrix
	sections     arena.Arena[*section]
	sectionOrder []arena.Handle

	// last applied snapshot
	built    []instance.Matrix
	tree     []cluster.Node
	buffer   *instance.InstanceBuffer
	layers   int
	mappings mappings

	state      State
	deadline   time.Time
	dirty      bool
	inFlightID uint64
	cancel     *atomic.Uint64

	unbuiltToClear []int
	pendingBounds  []common.IntBox
	taskBounds     map[uint64][]common.IntBox
	bodies         map[common.IntBox][]*instanceBody

	render    atomic.Pointer[RenderData]
	version   uint64
	destroyed bool
}

// Component owns the instances of one bucket. Every method except the read side (RenderData,
// IterateInstancesInBounds, IterateInstancesInFrustum) must be called from the owning goroutine.
type Component interface {
	// Name returns the component's debug name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Settings returns the component's render and collision settings.
	//
	// Returns:
	//   - Settings: the settings
	Settings() Settings

	// VoxelPosition returns the voxel-space origin of the component's local space.
	//
	// Returns:
	//   - common.IntVector: the origin
	VoxelPosition() common.IntVector

	// AppendInstances adds a batch to the live list and schedules a rebuild.
	//
	// Parameters:
	//   - matrices: the batch, in the component's local space
	//   - bounds: voxel bounds touched by the batch; physics there is refreshed once built
	//
	// Returns:
	//   - arena.Handle: handle to the batch's section, zero if the batch was empty
	AppendInstances(matrices []instance.Matrix, bounds common.IntBox) arena.Handle

	// RemoveSection compacts a section out of the live list. Unknown or stale handles are a no-op.
	//
	// Parameters:
	//   - h: the section handle
	RemoveSection(h arena.Handle)

	// RemovedIndices returns the section-relative indices removed by area or index removal.
	//
	// Parameters:
	//   - h: the section handle
	//
	// Returns:
	//   - []int: removed indices, nil for stale handles
	RemovedIndices(h arena.Handle) []int

	// HasSection reports whether the section handle is live.
	HasSection(h arena.Handle) bool

	// RemoveInstancesInArea removes every built instance whose voxel falls in box and passes filter.
	//
	// Parameters:
	//   - box: global voxel bounds
	//   - filter: extra predicate on the instance position; nil removes everything in box
	//
	// Returns:
	//   - instance.Transforms: the removed records, offset by the component's voxel position
	RemoveInstancesInArea(box common.IntBox, filter InstanceFilter) instance.Transforms

	// RemoveInstanceByIndex removes one instance addressed by its unbuilt index.
	//
	// Parameters:
	//   - unbuilt: live index of the instance
	//
	// Returns:
	//   - instance.Transform: the removed record
	//   - bool: false if the instance is not built yet or was already removed
	RemoveInstanceByIndex(unbuilt int) (instance.Transform, bool)

	// EnablePhysics creates a body per built instance inside the chunk.
	//
	// Parameters:
	//   - chunk: global voxel bounds
	EnablePhysics(chunk common.IntBox)

	// DisablePhysics destroys the bodies of a previously enabled chunk.
	//
	// Parameters:
	//   - chunk: the chunk passed to EnablePhysics
	DisablePhysics(chunk common.IntBox)

	// RefreshPhysics recreates the bodies of every enabled chunk intersecting bounds.
	//
	// Parameters:
	//   - bounds: global voxel bounds
	RefreshPhysics(bounds common.IntBox)

	// PhysicsRegions returns the enabled physics chunks.
	PhysicsRegions() []common.IntBox

	// NumBodies returns the number of live physics bodies.
	NumBodies() int

	// Advance starts a scheduled build once its debounce deadline has passed.
	//
	// Parameters:
	//   - now: the current tick time
	Advance(now time.Time)

	// Apply routes a build outcome to FinishBuilding or BuildFailed.
	//
	// Parameters:
	//   - o: the outcome popped from a result queue
	//
	// Returns:
	//   - bool: true if the outcome was accepted
	Apply(o build_task.Outcome) bool

	// FinishBuilding applies a build result if it belongs to the in-flight task.
	//
	// Parameters:
	//   - data: the build result
	//
	// Returns:
	//   - bool: false if the result was stale and dropped
	FinishBuilding(data *build_task.BuiltData) bool

	// BuildFailed releases the in-flight state after a worker failure.
	//
	// Parameters:
	//   - taskID: the failed task
	//   - err: the failure
	BuildFailed(taskID uint64, err error)

	// DrainResults applies results pushed to the component's own queue.
	// Components created with a result sink never receive anything here.
	//
	// Returns:
	//   - int: the number of outcomes popped
	DrainResults() int

	// Rebuild starts a build immediately, cancelling any in-flight task.
	Rebuild()

	// State returns the build state.
	State() State

	// InFlightTaskID returns the id of the task whose result is awaited, or 0.
	InFlightTaskID() uint64

	// IsEmpty reports whether the live list holds only the sentinel.
	IsEmpty() bool

	// NumInstances returns the length of the live list, not counting a lone sentinel.
	NumInstances() int

	// NumLiveInstances returns the number of live records that are not zero-scaled.
	NumLiveInstances() int

	// UnbuiltMatrices returns a copy of the live list.
	UnbuiltMatrices() []instance.Matrix

	// BuiltIndex translates a live index into the built snapshot, or -1.
	BuiltIndex(unbuilt int) int

	// UnbuiltIndex translates a built index into the live list, or -1.
	UnbuiltIndex(built int) int

	// SetWorldOffset moves the component after world rebasing and refreshes its physics.
	//
	// Parameters:
	//   - offset: voxel-space world offset
	SetWorldOffset(offset common.IntVector)

	// AllocatedBytes estimates the memory held by the component.
	AllocatedBytes() int

	// RenderData returns the latest published render snapshot. Safe from any goroutine.
	//
	// Returns:
	//   - *RenderData: the snapshot, nil before the first build
	RenderData() *RenderData

	// IterateInstancesInBounds visits visible instances whose cluster may intersect a world box.
	// Safe from any goroutine; never blocks.
	//
	// Parameters:
	//   - box: world-space box
	//   - fn: receives built index and instance data; return false to stop
	IterateInstancesInBounds(box common.Box, fn func(built int, data instance.GPUInstanceData) bool)

	// IterateInstancesInFrustum visits visible instances whose cluster may be inside a world frustum.
	// Safe from any goroutine; never blocks.
	//
	// Parameters:
	//   - f: world-space frustum
	//   - fn: receives built index and instance data; return false to stop
	IterateInstancesInFrustum(f common.Frustum, fn func(built int, data instance.GPUInstanceData) bool)

	// Destroy cancels any build and releases every body. The component is unusable afterwards.
	Destroy()
}

var _ Component = &component{}

// NewComponent creates a component holding only the sentinel.
// Panics if no submitter is supplied or voxelSize is not positive.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Component: the component
func NewComponent(options ...ComponentBuilderOption) Component {
	c := &component{
		settings:   DefaultSettings(),
		strategy:   cluster.Builder{},
		clock:      time.Now,
		voxelSize:  1,
		unbuilt:    []instance.Matrix{instance.Empty},
		sections:   arena.New[*section](8),
		cancel:     &atomic.Uint64{},
		taskBounds: make(map[uint64][]common.IntBox),
		bodies:     make(map[common.IntBox][]*instanceBody),
	}
	for _, option := range options {
		option(c)
	}
	if c.submitter == nil {
		panic("instanced_mesh: a pool submitter is required")
	}
	if c.voxelSize <= 0 {
		panic("instanced_mesh: voxel size must be positive")
	}
	if c.sink == nil {
		c.ownQueue = build_task.NewResultQueue[build_task.Outcome]()
		c.sink = c.ownQueue.Push
	}
	return c
}

func (c *component) Name() string {
	return c.name
}

func (c *component) Settings() Settings {
	return c.settings
}

func (c *component) VoxelPosition() common.IntVector {
	return c.voxelPosition
}

func (c *component) State() State {
	return c.state
}

func (c *component) InFlightTaskID() uint64 {
	return c.inFlightID
}

func (c *component) IsEmpty() bool {
	return len(c.unbuilt) == 1 && c.unbuilt[0].IsEmpty()
}

func (c *component) NumInstances() int {
	if c.IsEmpty() {
		return 0
	}
	return len(c.unbuilt)
}

func (c *component) NumLiveInstances() int {
	n := 0
	for _, m := range c.unbuilt {
		if !m.IsZeroScale() {
			n++
		}
	}
	return n
}

func (c *component) UnbuiltMatrices() []instance.Matrix {
	return slices.Clone(c.unbuilt)
}

func (c *component) BuiltIndex(unbuilt int) int {
	return c.mappings.BuiltIndex(unbuilt)
}

func (c *component) UnbuiltIndex(built int) int {
	return c.mappings.UnbuiltIndex(built)
}

func (c *component) AppendInstances(matrices []instance.Matrix, bounds common.IntBox) arena.Handle {
	if c.destroyed || !c.debug.ensure(len(matrices) > 0, "%s: append of an empty batch", c.name) {
		return arena.Handle{}
	}

	if c.IsEmpty() && len(c.sectionOrder) == 0 {
		// the sentinel leaves through the same path as any removal so index translation stays valid
		c.compact(0, 1)
	}

	start := len(c.unbuilt)
	c.unbuilt = append(c.unbuilt, matrices...)
	h := c.sections.Insert(&section{start: start, num: len(matrices)})
	c.sectionOrder = append(c.sectionOrder, h)
	c.pendingBounds = append(c.pendingBounds, bounds)

	c.scheduleBuild()
	return h
}

func (c *component) HasSection(h arena.Handle) bool {
	return c.sections.Contains(h)
}

func (c *component) RemoveSection(h arena.Handle) {
	if c.destroyed {
		return
	}
	s, ok := c.sections.Get(h)
	if !ok {
		c.debug.verbosef("%s: remove of unknown section %+v ignored", c.name, h)
		return
	}
	if !c.debug.ensure(s.start >= 0 && s.start+s.num <= len(c.unbuilt), "%s: section [%d, %d) outside list of %d", c.name, s.start, s.start+s.num, len(c.unbuilt)) {
		return
	}

	c.sections.Remove(h)
	if i := slices.Index(c.sectionOrder, h); i >= 0 {
		c.sectionOrder = slices.Delete(c.sectionOrder, i, i+1)
	}
	c.compact(s.start, s.num)
	if len(c.unbuilt) == 0 {
		c.debug.ensure(len(c.unbuiltToClear) == 0, "%s: pending clears on an emptied list", c.name)
		c.unbuilt = append(c.unbuilt, instance.Empty)
	}
	c.scheduleBuild()
}

// compact removes [start, start+num) from the live list, shifts every index held past it and
// records the deletion for index translation.
func (c *component) compact(start, num int) {
	fix := func(idx int) int {
		if idx >= start {
			if idx < start+num {
				return -1
			}
			return idx - num
		}
		return idx
	}

	for _, h := range c.sectionOrder {
		s, _ := c.sections.Get(h)
		s.start = fix(s.start)
	}

	cleared := c.unbuiltToClear[:0]
	for _, idx := range c.unbuiltToClear {
		if idx = fix(idx); idx >= 0 {
			cleared = append(cleared, idx)
		}
	}
	c.unbuiltToClear = cleared

	for chunk, bodies := range c.bodies {
		kept := bodies[:0]
		for _, b := range bodies {
			if b.unbuilt = fix(b.unbuilt); b.unbuilt < 0 {
				b.body.Terminate()
				continue
			}
			kept = append(kept, b)
		}
		c.bodies[chunk] = kept
	}

	c.unbuilt = slices.Delete(c.unbuilt, start, start+num)
	c.mappings.pushDeletion(build_task.NextUniqueID(), start, num)
}

func (c *component) RemovedIndices(h arena.Handle) []int {
	s, ok := c.sections.Get(h)
	if !ok {
		return nil
	}
	return slices.Clone(s.removed)
}

func (c *component) globalVoxelPosition(m instance.Matrix) mgl64.Vec3 {
	clean := m.CleanMatrix()
	offset := m.PositionOffset()
	size := float64(c.voxelSize)
	return mgl64.Vec3{
		float64(c.voxelPosition.X) + (float64(clean[12])+float64(offset[0]))/size,
		float64(c.voxelPosition.Y) + (float64(clean[13])+float64(offset[1]))/size,
		float64(c.voxelPosition.Z) + (float64(clean[14])+float64(offset[2]))/size,
	}
}

func (c *component) RemoveInstancesInArea(box common.IntBox, filter InstanceFilter) instance.Transforms {
	out := instance.Transforms{Offset: c.voxelPosition}
	if c.destroyed || len(c.tree) == 0 {
		return out
	}

	var toClear []int
	var touched common.IntBoxAccumulator
	cluster.IterateInBox(c.tree, box.ToLocal(c.voxelPosition, c.voxelSize), func(first, last int32) {
		for b := int(first); b <= int(last); b++ {
			if c.mappings.UnbuiltIndex(b) == -1 {
				continue
			}
			m := c.built[b]
			if m.IsZeroScale() {
				continue
			}
			pos := c.globalVoxelPosition(m)
			voxel := common.IntBoxFromPoint(pos)
			if !box.Contains(voxel) {
				continue
			}
			if filter != nil && !filter(pos) {
				continue
			}
			out.Matrices = append(out.Matrices, m)
			toClear = append(toClear, b)
			touched.Add(voxel)
		}
	})

	if len(toClear) > 0 {
		c.setInstancesScaleToZero(toClear)
		c.removeFromSections(toClear)
		if bounds, ok := touched.Box(); ok {
			c.RefreshPhysics(bounds)
		}
	}
	return out
}

func (c *component) RemoveInstanceByIndex(unbuilt int) (instance.Transform, bool) {
	if c.destroyed {
		return instance.Transform{}, false
	}
	b := c.mappings.BuiltIndex(unbuilt)
	if b == -1 || c.built[b].IsZeroScale() {
		return instance.Transform{}, false
	}
	m := c.built[b]
	c.setInstancesScaleToZero([]int{b})
	c.removeFromSections([]int{b})

	// overlapping regions each hold their own body for the instance
	voxel := common.IntBoxFromPoint(c.globalVoxelPosition(m))
	for chunk, bodies := range c.bodies {
		if !chunk.Intersects(voxel) {
			continue
		}
		c.bodies[chunk] = slices.DeleteFunc(bodies, func(body *instanceBody) bool {
			if body.unbuilt != unbuilt {
				return false
			}
			body.body.Terminate()
			return true
		})
	}
	return instance.Transform{Offset: c.voxelPosition, Matrix: m}, true
}

// setInstancesScaleToZero hides built instances in the live list, the built snapshot and a
// republished render buffer.
func (c *component) setInstancesScaleToZero(builtIndices []int) {
	buf := c.buffer.Clone()
	for _, b := range builtIndices {
		u := c.mappings.UnbuiltIndex(b)
		if !c.debug.ensure(u >= 0, "%s: zeroing deleted built index %d", c.name, b) {
			continue
		}
		c.debug.ensure(c.built[b] == c.unbuilt[u], "%s: built %d and unbuilt %d disagree", c.name, b, u)
		if buf != nil {
			buf.ZeroInstance(b)
		}
		c.built[b] = instance.Empty
		c.unbuilt[u] = instance.Empty
		if c.inFlightID != 0 {
			c.unbuiltToClear = append(c.unbuiltToClear, u)
		}
	}
	if buf != nil {
		c.buffer = buf
		c.publish()
	}
}

func (c *component) removeFromSections(builtIndices []int) {
	for _, b := range builtIndices {
		u := c.mappings.UnbuiltIndex(b)
		if !c.debug.ensure(u >= 0, "%s: built index %d has no live instance", c.name, b) {
			continue
		}
		// first section starting after u, minus one
		i, _ := slices.BinarySearchFunc(c.sectionOrder, u+1, func(h arena.Handle, target int) int {
			s, _ := c.sections.Get(h)
			if s.start < target {
				return -1
			}
			return 1
		})
		if !c.debug.ensure(i > 0, "%s: no section owns index %d", c.name, u) {
			continue
		}
		s, _ := c.sections.Get(c.sectionOrder[i-1])
		if !c.debug.ensure(s.start <= u && u < s.start+s.num, "%s: index %d outside its section", c.name, u) {
			continue
		}
		s.removed = append(s.removed, u-s.start)
	}
}

func (c *component) scheduleBuild() {
	if c.destroyed {
		return
	}
	switch c.state {
	case StateBuildInFlight:
		c.dirty = true
	default:
		if c.settings.BuildDelay <= 0 {
			c.startBuild(pool.PriorityNormal)
			return
		}
		c.state = StateBuildScheduled
		c.deadline = c.clock().Add(c.settings.BuildDelay)
	}
}

func (c *component) Advance(now time.Time) {
	if c.destroyed || c.state != StateBuildScheduled || now.Before(c.deadline) {
		return
	}
	c.startBuild(pool.PriorityNormal)
}

func (c *component) Rebuild() {
	if c.destroyed {
		return
	}
	c.startBuild(pool.PriorityHigh)
}

func (c *component) debugRandom() float32 {
	h := fnv.New32a()
	h.Write([]byte(c.name))
	return instance.RandomFromSeed(h.Sum32())
}

// startBuild snapshots the live list and submits a task. When the pool refuses, the component
// stays scheduled and retries on the next Advance.
func (c *component) startBuild(priority pool.Priority) {
	if !c.debug.ensure(len(c.unbuilt) > 0, "%s: build of an empty list", c.name) {
		return
	}
	if c.inFlightID != 0 {
		// detach; its result will no longer match inFlightID
		c.cancel.Add(1)
		c.inFlightID = 0
	}

	id := build_task.NextUniqueID()
	task := build_task.New(id, c.unbuilt, build_task.Params{
		MeshBox:                 c.meshBox,
		DesiredInstancesPerLeaf: c.settings.DesiredInstancesPerLeaf,
		Strategy:                c.strategy,
		OverrideRandom:          c.debug.RandomColorPerBucket,
		Random:                  c.debugRandom(),
		Cancel:                  c.cancel,
		LogBuildTime:            c.debug.LogBuildTimes,
		Name:                    c.name,
	})
	sink := c.sink
	job := pool.Guard(func() {
		if data, ok := task.Run(); ok {
			sink(build_task.Outcome{TaskID: id, Data: data})
		}
	}, func(err error) {
		sink(build_task.Outcome{TaskID: id, Err: err})
	})

	if !c.submitter.TrySubmit(priority, job) {
		c.debug.verbosef("%s: pool at capacity, build deferred", c.name)
		if c.state != StateBuildScheduled {
			c.deadline = c.clock()
		}
		c.state = StateBuildScheduled
		return
	}

	c.inFlightID = id
	c.state = StateBuildInFlight
	c.dirty = false
	c.taskBounds[id] = append(c.taskBounds[id], c.pendingBounds...)
	c.pendingBounds = nil
}

func (c *component) Apply(o build_task.Outcome) bool {
	if o.Failed() {
		if o.TaskID != c.inFlightID || c.inFlightID == 0 {
			return false
		}
		c.BuildFailed(o.TaskID, o.Err)
		return true
	}
	return c.FinishBuilding(o.Data)
}

func (c *component) FinishBuilding(data *build_task.BuiltData) bool {
	if c.destroyed || data == nil {
		return false
	}
	if c.inFlightID == 0 || data.UniqueID != c.inFlightID {
		c.debug.verbosef("%s: stale build %d dropped (awaiting %d)", c.name, data.UniqueID, c.inFlightID)
		return false
	}
	if !c.debug.ensure(data.NumInstances() > 0 && data.InstanceBuffer.Len() == data.NumInstances(), "%s: malformed build %d", c.name, data.UniqueID) {
		return false
	}

	c.built = data.BuiltMatrices
	c.tree = data.ClusterTree
	c.buffer = data.InstanceBuffer
	c.layers = data.OcclusionLayerNum
	c.mappings.install(data.InstancesToBuilt, data.BuiltToInstances, data.UniqueID)

	// instances hidden while the task ran are still visible in its output
	for _, u := range c.unbuiltToClear {
		if b := c.mappings.BuiltIndex(u); b >= 0 {
			c.buffer.ZeroInstance(b)
			c.built[b] = instance.Empty
		}
	}
	c.unbuiltToClear = nil
	c.inFlightID = 0
	c.publish()

	for id, bounds := range c.taskBounds {
		if id > data.UniqueID {
			continue
		}
		for _, b := range bounds {
			c.RefreshPhysics(b)
		}
		delete(c.taskBounds, id)
	}

	if c.observer != nil {
		c.observer(data.UniqueID, data.Duration, data.NumInstances())
	}

	c.state = StateIdle
	if c.dirty {
		c.dirty = false
		c.startBuild(pool.PriorityNormal)
	}
	return true
}

func (c *component) BuildFailed(taskID uint64, err error) {
	if c.destroyed || taskID != c.inFlightID || taskID == 0 {
		return
	}
	log.Printf("[InstancedMesh] %s: build %d failed: %v", c.name, taskID, err)
	c.inFlightID = 0
	c.state = StateIdle
	if c.dirty {
		c.dirty = false
		c.scheduleBuild()
	}
}

func (c *component) DrainResults() int {
	if c.ownQueue == nil {
		return 0
	}
	n := 0
	for {
		o, ok := c.ownQueue.Pop()
		if !ok {
			return n
		}
		n++
		c.Apply(o)
	}
}

func (c *component) SetWorldOffset(offset common.IntVector) {
	if c.worldOffset == offset {
		return
	}
	c.worldOffset = offset
	c.publish()
	for chunk, bodies := range c.bodies {
		terminate(bodies)
		c.bodies[chunk] = c.enablePhysics(chunk)
	}
}

func (c *component) AllocatedBytes() int {
	const matrixSize = 64
	n := (cap(c.unbuilt) + cap(c.built)) * matrixSize
	n += (cap(c.mappings.instancesToBuilt) + cap(c.mappings.builtToInstances)) * 4
	n += cap(c.mappings.deletions) * 24
	n += cap(c.unbuiltToClear) * 8
	n += c.buffer.SizeBytes()
	n += len(c.tree) * 40
	for _, bodies := range c.bodies {
		n += cap(bodies) * 8
	}
	return n
}

func (c *component) Destroy() {
	if c.destroyed {
		return
	}
	c.cancel.Add(1)
	c.inFlightID = 0
	for _, bodies := range c.bodies {
		for _, b := range bodies {
			b.body.Terminate()
		}
	}
	c.bodies = make(map[common.IntBox][]*instanceBody)
	c.unbuilt = nil
	c.built = nil
	c.tree = nil
	c.buffer = nil
	c.mappings.reset()
	c.sections.Clear()
	c.sectionOrder = nil
	c.unbuiltToClear = nil
	c.pendingBounds = nil
	c.taskBounds = make(map[uint64][]common.IntBox)
	c.state = StateIdle
	c.dirty = false
	c.destroyed = true
	c.render.Store(nil)
}
