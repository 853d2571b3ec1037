package instance_manager

import (
	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/Carmen-Shannon/oxy-scatter/engine/arena"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instanced_mesh"
)

// Asset identifies the mesh instances render.
type Asset struct {
	// ID is the asset identity, e.g. its path.
	ID string
	// Bounds is the mesh's local bounding box, used for cluster bounds.
	Bounds common.Box
}

// MeshKey is the asset plus its render settings. Instances with equal keys in the same chunk share a bucket.
type MeshKey struct {
	Asset    Asset
	Settings instanced_mesh.Settings
}

// BucketRef addresses one bucket. Stale refs resolve to nothing.
type BucketRef struct {
	handle arena.Handle
}

// IsValid reports whether the ref was ever issued. It does not mean the bucket still exists.
func (r BucketRef) IsValid() bool {
	return r.handle.IsValid()
}

// SectionRef addresses one batch inside the bucket that issued it.
// Section handles are only unique per bucket, so the ref carries its owner.
type SectionRef struct {
	handle arena.Handle
	bucket arena.Handle
}

// IsValid reports whether the ref was ever issued.
func (r SectionRef) IsValid() bool {
	return r.handle.IsValid()
}

// InstancesRef is returned by AddInstances and identifies one added batch.
// The zero value is invalid and every operation treats it as a no-op.
type InstancesRef struct {
	Bucket       BucketRef
	Section      SectionRef
	NumInstances int
}

// IsValid reports whether the ref was issued for an accepted batch.
func (r InstancesRef) IsValid() bool {
	return r.Bucket.IsValid() && r.Section.IsValid()
}

// RemovalMode selects which instances an area removal takes.
type RemovalMode int

const (
	// RemovalModeAll removes every instance in the area.
	RemovalModeAll RemovalMode = iota
	// RemovalModeFilteredByTerrain removes only instances whose touched voxel, at translation plus packed offset, is no longer solid.
	RemovalModeFilteredByTerrain
)

func (m RemovalMode) String() string {
	switch m {
	case RemovalModeAll:
		return "All"
	case RemovalModeFilteredByTerrain:
		return "FilteredByTerrain"
	}
	return "Unknown"
}
