package build_task

import (
	"time"

	"github.com/Carmen-Shannon/oxy-scatter/engine/cluster"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instance"
)

// BuiltData is the private output of one build. It is handed to the owning component through a
// ResultQueue and never mutated by the worker after being pushed.
type BuiltData struct {
	// UniqueID is the id of the task that produced the data.
	UniqueID uint64

	// BuiltMatrices holds the snapshot records in built order.
	BuiltMatrices []instance.Matrix
	// InstancesToBuilt maps snapshot (unbuilt) index -> built index.
	InstancesToBuilt []int32
	// BuiltToInstances maps built index -> snapshot (unbuilt) index.
	BuiltToInstances []int32

	InstanceBuffer    *instance.InstanceBuffer
	ClusterTree       []cluster.Node
	OcclusionLayerNum int

	Duration time.Duration
}

// NumInstances returns the number of built instances.
func (d *BuiltData) NumInstances() int {
	return len(d.BuiltMatrices)
}

// Outcome is what a worker reports back for one task: either data or a failure.
type Outcome struct {
	TaskID uint64
	Data   *BuiltData
	Err    error
}

// Failed reports whether the task produced no data.
func (o Outcome) Failed() bool {
	return o.Data == nil
}
