package instance_manager

import (
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instanced_mesh"
	"gopkg.in/yaml.v3"
)

const (
	// MinChunkSize is the smallest bucket chunk edge in voxels.
	MinChunkSize = 32
	// DefaultCollisionChunkSize is the edge of the regions physics is enabled in.
	DefaultCollisionChunkSize = 32
)

// Settings configures an InstanceManager.
type Settings struct {
	// VoxelSize is the world size of one voxel.
	VoxelSize float32 `yaml:"voxel_size"`
	// ChunkSize is the edge, in voxels, of the spatial chunk a bucket covers. Clamped to MinChunkSize.
	ChunkSize int32 `yaml:"chunk_size"`
	// CollisionChunkSize is the edge of the physics regions callers enable.
	CollisionChunkSize int32 `yaml:"collision_chunk_size"`
	// CollisionDistanceInChunks is how many collision chunks around a physics actor are enabled.
	CollisionDistanceInChunks int32 `yaml:"collision_distance_in_chunks"`
	// MaxInstances is the global instance ceiling. Zero or less disables it.
	MaxInstances int `yaml:"max_instances"`
	// MaxConcurrentBuilds caps cluster builds in flight across every bucket.
	MaxConcurrentBuilds int64 `yaml:"max_concurrent_builds"`
	// WorldOffset is the voxel-space origin shift applied by world rebasing.
	WorldOffset common.IntVector `yaml:"world_offset"`
	// StandaloneLifespan is the lifespan given to objects spawned from instances. Zero means forever.
	StandaloneLifespan time.Duration `yaml:"standalone_lifespan"`
	// Debug holds the debugging switches handed to every bucket.
	Debug instanced_mesh.DebugOptions `yaml:"debug"`
}

// DefaultSettings returns the settings used when no file is supplied.
func DefaultSettings() Settings {
	return Settings{
		VoxelSize:                 100,
		ChunkSize:                 256,
		CollisionChunkSize:        DefaultCollisionChunkSize,
		CollisionDistanceInChunks: 2,
		MaxInstances:              10_000_000,
		MaxConcurrentBuilds:       4,
	}
}

// normalized clamps settings into their valid ranges.
func (s Settings) normalized() Settings {
	s.ChunkSize = max(MinChunkSize, s.ChunkSize)
	if s.CollisionChunkSize <= 0 {
		s.CollisionChunkSize = DefaultCollisionChunkSize
	}
	s.CollisionDistanceInChunks = max(0, s.CollisionDistanceInChunks)
	s.MaxConcurrentBuilds = max(1, s.MaxConcurrentBuilds)
	return s
}

// Validate reports settings no manager can run with.
//
// Returns:
//   - error: nil if the settings are usable
func (s Settings) Validate() error {
	if s.VoxelSize <= 0 {
		return fmt.Errorf("instance_manager: voxel size must be positive, got %v", s.VoxelSize)
	}
	return nil
}

// ParseSettings decodes YAML settings on top of DefaultSettings.
//
// Parameters:
//   - data: YAML document
//
// Returns:
//   - Settings: the decoded, normalized settings
//   - error: decoding or validation error
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("instance_manager: parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s.normalized(), nil
}

// LoadSettings reads YAML settings from path. A missing file yields DefaultSettings.
//
// Parameters:
//   - path: settings file path
//
// Returns:
//   - Settings: the loaded settings
//   - error: read, decoding or validation error
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultSettings().normalized(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("instance_manager: read settings %s: %w", path, err)
	}
	return ParseSettings(data)
}

// SaveSettings writes s to path as YAML.
//
// Parameters:
//   - path: settings file path
//   - s: the settings
//
// Returns:
//   - error: encoding or write error
func SaveSettings(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("instance_manager: encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("instance_manager: write settings %s: %w", path, err)
	}
	return nil
}
