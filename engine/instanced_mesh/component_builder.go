package instanced_mesh

import (
	"time"

	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/Carmen-Shannon/oxy-scatter/engine/build_task"
	"github.com/Carmen-Shannon/oxy-scatter/engine/cluster"
	"github.com/Carmen-Shannon/oxy-scatter/engine/physics"
	"github.com/Carmen-Shannon/oxy-scatter/engine/pool"
)

// ComponentBuilderOption is a functional option for configuring a Component during construction.
type ComponentBuilderOption func(*component)

// WithName sets the debug name used in logs and for per-bucket debug colours.
//
// Parameters:
//   - name: the name
//
// Returns:
//   - ComponentBuilderOption: functional option to set the name
func WithName(name string) ComponentBuilderOption {
	return func(c *component) {
		c.name = name
	}
}

// WithSettings sets the render and collision settings.
//
// Parameters:
//   - settings: the settings
//
// Returns:
//   - ComponentBuilderOption: functional option to set the settings
func WithSettings(settings Settings) ComponentBuilderOption {
	return func(c *component) {
		c.settings = settings
	}
}

// WithDebugOptions sets the debug switches.
//
// Parameters:
//   - debug: the switches
//
// Returns:
//   - ComponentBuilderOption: functional option to set the debug options
func WithDebugOptions(debug DebugOptions) ComponentBuilderOption {
	return func(c *component) {
		c.debug = debug
	}
}

// WithMeshBox sets the local bounds of the instanced mesh, used to size cluster nodes.
//
// Parameters:
//   - box: mesh bounds
//
// Returns:
//   - ComponentBuilderOption: functional option to set the mesh bounds
func WithMeshBox(box common.Box) ComponentBuilderOption {
	return func(c *component) {
		c.meshBox = box
	}
}

// WithStrategy replaces the cluster tree builder.
//
// Parameters:
//   - s: the strategy; nil keeps the default
//
// Returns:
//   - ComponentBuilderOption: functional option to set the strategy
func WithStrategy(s cluster.Strategy) ComponentBuilderOption {
	return func(c *component) {
		if s != nil {
			c.strategy = s
		}
	}
}

// WithSubmitter sets where build tasks are submitted. Required.
//
// Parameters:
//   - s: the submitter
//
// Returns:
//   - ComponentBuilderOption: functional option to set the submitter
func WithSubmitter(s pool.Submitter) ComponentBuilderOption {
	return func(c *component) {
		c.submitter = s
	}
}

// WithPhysicsScene enables physics bodies. Without a scene physics calls are no-ops.
//
// Parameters:
//   - scene: the physics scene
//
// Returns:
//   - ComponentBuilderOption: functional option to set the physics scene
func WithPhysicsScene(scene physics.Scene) ComponentBuilderOption {
	return func(c *component) {
		c.physicsScene = scene
	}
}

// WithClock sets the time source used to compute debounce deadlines.
//
// Parameters:
//   - clock: returns the current time
//
// Returns:
//   - ComponentBuilderOption: functional option to set the clock
func WithClock(clock func() time.Time) ComponentBuilderOption {
	return func(c *component) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithBuildObserver registers a callback for every applied build.
//
// Parameters:
//   - observer: the callback
//
// Returns:
//   - ComponentBuilderOption: functional option to set the observer
func WithBuildObserver(observer BuildObserver) ComponentBuilderOption {
	return func(c *component) {
		c.observer = observer
	}
}

// WithResultSink routes worker outcomes to an external queue instead of the component's own.
// The sink is called from worker goroutines and must be safe for concurrent use.
//
// Parameters:
//   - sink: receives outcomes
//
// Returns:
//   - ComponentBuilderOption: functional option to set the sink
func WithResultSink(sink func(build_task.Outcome)) ComponentBuilderOption {
	return func(c *component) {
		c.sink = sink
	}
}

// WithVoxelPosition sets the voxel-space origin of the component's local space.
//
// Parameters:
//   - pos: the origin
//
// Returns:
//   - ComponentBuilderOption: functional option to set the origin
func WithVoxelPosition(pos common.IntVector) ComponentBuilderOption {
	return func(c *component) {
		c.voxelPosition = pos
	}
}

// WithVoxelSize sets the number of world units per voxel.
//
// Parameters:
//   - size: voxel size (must be > 0)
//
// Returns:
//   - ComponentBuilderOption: functional option to set the voxel size
func WithVoxelSize(size float32) ComponentBuilderOption {
	return func(c *component) {
		c.voxelSize = size
	}
}

// WithWorldOffset sets the initial world rebasing offset.
//
// Parameters:
//   - offset: voxel-space offset
//
// Returns:
//   - ComponentBuilderOption: functional option to set the world offset
func WithWorldOffset(offset common.IntVector) ComponentBuilderOption {
	return func(c *component) {
		c.worldOffset = offset
	}
}
