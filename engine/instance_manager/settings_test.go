package instance_manager

import (
	"path/filepath"
	"testing"
	"time"
)

func TestParseSettingsOverridesDefaults(t *testing.T) {
	s, err := ParseSettings([]byte(`
voxel_size: 50
chunk_size: 8
max_instances: 1000
standalone_lifespan: 30s
world_offset: {x: 1, y: 2, z: 3}
debug:
  verbose: true
`))
	if err != nil {
		t.Fatalf("expected settings to parse: %v", err)
	}
	if s.VoxelSize != 50 || s.MaxInstances != 1000 || s.StandaloneLifespan != 30*time.Second {
		t.Fatalf("expected overrides to apply, got %+v", s)
	}
	if s.ChunkSize != MinChunkSize {
		t.Fatalf("expected chunk size to be clamped to %d, got %d", MinChunkSize, s.ChunkSize)
	}
	if s.WorldOffset.Y != 2 || !s.Debug.Verbose {
		t.Fatalf("expected nested fields to decode")
	}
	if s.CollisionChunkSize != DefaultCollisionChunkSize || s.MaxConcurrentBuilds != DefaultSettings().MaxConcurrentBuilds {
		t.Fatalf("expected unspecified fields to keep their defaults")
	}
}

func TestParseSettingsRejectsInvalid(t *testing.T) {
	if _, err := ParseSettings([]byte("voxel_size: 0")); err == nil {
		t.Fatalf("expected a zero voxel size to be rejected")
	}
	if _, err := ParseSettings([]byte("voxel_size: [")); err == nil {
		t.Fatalf("expected malformed YAML to be rejected")
	}
}

func TestLoadSettingsFallsBackToDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected a missing file to yield defaults: %v", err)
	}
	if s != DefaultSettings().normalized() {
		t.Fatalf("expected default settings, got %+v", s)
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scatter.yaml")
	want := DefaultSettings()
	want.VoxelSize = 25
	want.MaxConcurrentBuilds = 2
	want.Debug.LogBuildTimes = true
	if err := SaveSettings(path, want); err != nil {
		t.Fatalf("expected save to succeed: %v", err)
	}
	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("expected load to succeed: %v", err)
	}
	if got != want.normalized() {
		t.Fatalf("expected %+v, got %+v", want.normalized(), got)
	}
}
