package instance_manager

import (
	"time"

	"github.com/Carmen-Shannon/oxy-scatter/engine/physics"
	"github.com/Carmen-Shannon/oxy-scatter/engine/pool"
	"github.com/Carmen-Shannon/oxy-scatter/engine/profiler"
)

// ManagerBuilderOption is a functional option for configuring an InstanceManager during construction.
type ManagerBuilderOption func(*instanceManager)

// WithSettings sets the manager settings.
//
// Parameters:
//   - settings: the settings, normalized on construction
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithSettings(settings Settings) ManagerBuilderOption {
	return func(m *instanceManager) {
		m.settings = settings
	}
}

// WithPool sets the pool build tasks run on. Builds are still capped at Settings.MaxConcurrentBuilds.
//
// Parameters:
//   - p: the pool
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithPool(p pool.Pool) ManagerBuilderOption {
	return func(m *instanceManager) {
		m.pool = p
	}
}

// WithSubmitter replaces the build limiter entirely.
//
// Parameters:
//   - s: the submitter every bucket submits through
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithSubmitter(s pool.Submitter) ManagerBuilderOption {
	return func(m *instanceManager) {
		m.submitter = s
	}
}

// WithPhysicsScene sets the scene collision-enabled buckets create bodies in.
//
// Parameters:
//   - scene: the physics scene
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithPhysicsScene(scene physics.Scene) ManagerBuilderOption {
	return func(m *instanceManager) {
		m.physicsScene = scene
	}
}

// WithClock overrides time.Now for build debouncing and spawn times.
//
// Parameters:
//   - clock: the time source
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithClock(clock func() time.Time) ManagerBuilderOption {
	return func(m *instanceManager) {
		m.clock = clock
	}
}

// WithProfiler records every applied build in p.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) ManagerBuilderOption {
	return func(m *instanceManager) {
		m.profiler = p
	}
}

// WithOnMaxInstancesReached sets the callback fired once when the instance ceiling rejects a batch.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithOnMaxInstancesReached(fn func()) ManagerBuilderOption {
	return func(m *instanceManager) {
		m.onMaxInstancesReached = fn
	}
}
