// Package build_task snapshots a component's instance list and rebuilds its cluster tree off the
// owning goroutine.
package build_task

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/Carmen-Shannon/oxy-scatter/engine/cluster"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instance"
	"github.com/go-gl/mathgl/mgl32"
)

// Params configures a build.
type Params struct {
	// MeshBox is the local bounds of the instanced mesh.
	MeshBox common.Box
	// DesiredInstancesPerLeaf bounds leaf size in the cluster tree.
	DesiredInstancesPerLeaf int
	// Strategy builds the tree; cluster.Builder when nil.
	Strategy cluster.Strategy

	// OverrideRandom replaces every instance's random value with Random (debug colouring).
	OverrideRandom bool
	Random         float32

	// Cancel is the shared cancellation counter. The task is cancelled once it no longer equals
	// the value observed at creation.
	Cancel *atomic.Uint64

	// LogBuildTime logs the duration of every completed build.
	LogBuildTime bool
	// Name identifies the component in log output.
	Name string
}

type task struct {
	id          uint64
	matrices    []instance.Matrix
	params      Params
	cancelValue uint64
}

// Task is a single tree rebuild over an immutable snapshot.
type Task interface {
	// ID returns the unique id of the task.
	//
	// Returns:
	//   - uint64: the task id
	ID() uint64

	// NumInstances returns the size of the snapshot.
	//
	// Returns:
	//   - int: number of instances in the snapshot
	NumInstances() int

	// Run executes the build. It touches only the snapshot and its own output and may run on any goroutine.
	//
	// Returns:
	//   - *BuiltData: the build result, or nil if cancelled
	//   - bool: false if the task observed cancellation
	Run() (*BuiltData, bool)
}

var _ Task = &task{}

// New creates a task over a copy of snapshot.
// Panics if snapshot is empty: a component always holds at least its sentinel.
//
// Parameters:
//   - id: unique id from NextUniqueID
//   - snapshot: the component's current unbuilt list
//   - params: build parameters
//
// Returns:
//   - Task: the task
func New(id uint64, snapshot []instance.Matrix, params Params) Task {
	if len(snapshot) == 0 {
		panic("build_task: empty snapshot")
	}
	if params.Strategy == nil {
		params.Strategy = cluster.Builder{}
	}
	t := &task{
		id:       id,
		matrices: make([]instance.Matrix, len(snapshot)),
		params:   params,
	}
	copy(t.matrices, snapshot)
	if params.Cancel != nil {
		t.cancelValue = params.Cancel.Load()
	}
	return t
}

func (t *task) ID() uint64 {
	return t.id
}

func (t *task) NumInstances() int {
	return len(t.matrices)
}

func (t *task) cancelled() bool {
	return t.params.Cancel != nil && t.params.Cancel.Load() != t.cancelValue
}

func (t *task) Run() (*BuiltData, bool) {
	start := time.Now()
	n := len(t.matrices)
	buf := instance.NewInstanceBuffer(n)
	transforms := make([]mgl32.Mat4, n)
	for i, m := range t.matrices {
		clean := m.CleanMatrix()
		transforms[i] = clean
		random := m.RandomInstanceID()
		if t.params.OverrideRandom {
			random = t.params.Random
		}
		buf.SetInstance(i, clean, random)
	}

	if t.cancelled() {
		return nil, false
	}

	res := t.params.Strategy.BuildTree(transforms, t.params.MeshBox, t.params.DesiredInstancesPerLeaf)

	data := &BuiltData{
		UniqueID:          t.id,
		BuiltMatrices:     t.matrices,
		InstancesToBuilt:  make([]int32, n),
		BuiltToInstances:  make([]int32, n),
		InstanceBuffer:    buf,
		ClusterTree:       res.Nodes,
		OcclusionLayerNum: res.OcclusionLayerNum,
	}
	copy(data.InstancesToBuilt, res.InstanceReorderTable)
	for i := 0; i < n; i++ {
		data.BuiltToInstances[res.InstanceReorderTable[i]] = int32(i)
	}

	// permute buffer and matrices into built order in place
	sorted := res.SortedInstances
	reorder := res.InstanceReorderTable
	for first := int32(0); first < int32(n); first++ {
		loadFrom := sorted[first]
		if loadFrom == first {
			continue
		}
		buf.Swap(int(first), int(loadFrom))
		data.BuiltMatrices[first], data.BuiltMatrices[loadFrom] = data.BuiltMatrices[loadFrom], data.BuiltMatrices[first]
		swapGoesTo := reorder[first]
		sorted[swapGoesTo] = loadFrom
		reorder[loadFrom] = swapGoesTo
		reorder[first] = first
		sorted[first] = first
	}

	data.Duration = time.Since(start)
	if t.params.LogBuildTime {
		log.Printf("[BuildTask] %s: built %d instances in %.2fms", t.params.Name, n, float64(data.Duration.Microseconds())/1000.0)
	}
	return data, true
}
