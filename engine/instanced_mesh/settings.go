package instanced_mesh

import (
	"fmt"
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-scatter/engine/cluster"
)

// DefaultBuildDelay debounces rebuilds so bursts of edits trigger one build.
const DefaultBuildDelay = 100 * time.Millisecond

// CullDistance is the instance fade range in world units. Zero Max disables culling.
type CullDistance struct {
	Min int32 `yaml:"min"`
	Max int32 `yaml:"max"`
}

// Settings configures how a bucket renders and collides. It is comparable and forms part of the bucket key.
type Settings struct {
	BuildDelay              time.Duration `yaml:"build_delay"`
	DesiredInstancesPerLeaf int           `yaml:"desired_instances_per_leaf"`
	CullDistance            CullDistance  `yaml:"cull_distance"`
	CastShadow              bool          `yaml:"cast_shadow"`
	CollisionEnabled        bool          `yaml:"collision_enabled"`
	ReceivesDecals          bool          `yaml:"receives_decals"`
	CustomDepthStencil      int32         `yaml:"custom_depth_stencil"`
}

// DefaultSettings returns the settings used when none are supplied.
func DefaultSettings() Settings {
	return Settings{
		BuildDelay:              DefaultBuildDelay,
		DesiredInstancesPerLeaf: cluster.DefaultInstancesPerLeaf,
		CastShadow:              true,
		ReceivesDecals:          true,
	}
}

// DebugOptions holds per-manager debugging switches.
type DebugOptions struct {
	// LogBuildTimes logs the duration of every build.
	LogBuildTimes bool `yaml:"log_build_times"`
	// RandomColorPerBucket replaces instance random values with a per-bucket constant.
	RandomColorPerBucket bool `yaml:"random_color_per_bucket"`
	// Verbose logs dropped stale results and no-op removals.
	Verbose bool `yaml:"verbose"`
	// PanicOnEnsure turns contract violations into panics instead of logged no-ops.
	PanicOnEnsure bool `yaml:"panic_on_ensure"`
}

// ensure reports a contract violation. It returns cond so callers can bail out with `if !ensure(...)`.
func (d DebugOptions) ensure(cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	if d.PanicOnEnsure {
		panic("instanced_mesh: " + msg)
	}
	log.Printf("[InstancedMesh] ensure failed: %s", msg)
	return false
}

func (d DebugOptions) verbosef(format string, args ...any) {
	if d.Verbose {
		log.Printf("[InstancedMesh] "+format, args...)
	}
}
