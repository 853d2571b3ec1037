package terrain

import (
	"math"

	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/go-gl/mathgl/mgl64"
)

type cached struct {
	src    DataSource
	bounds common.IntBox
	solid  map[common.IntVector]bool
}

// Cached wraps src so solidity queries inside bounds are sampled once per voxel.
// Queries outside bounds go straight to src. Not safe for concurrent use.
//
// Parameters:
//   - src: the underlying data source
//   - bounds: voxel region expected to be queried repeatedly
//
// Returns:
//   - DataSource: the caching source
func Cached(src DataSource, bounds common.IntBox) DataSource {
	return &cached{
		src:    src,
		bounds: bounds,
		solid:  make(map[common.IntVector]bool),
	}
}

func voxelOf(pos mgl64.Vec3) common.IntVector {
	return common.IntVector{
		X: int32(math.Floor(pos[0])),
		Y: int32(math.Floor(pos[1])),
		Z: int32(math.Floor(pos[2])),
	}
}

func (c *cached) IsSolid(pos mgl64.Vec3) bool {
	v := voxelOf(pos)
	if !c.bounds.ContainsPoint(v) {
		return c.src.IsSolid(pos)
	}
	if solid, ok := c.solid[v]; ok {
		return solid
	}
	// sample the voxel centre so every point in the voxel agrees
	solid := c.src.IsSolid(v.Vec3d().Add(mgl64.Vec3{0.5, 0.5, 0.5}))
	c.solid[v] = solid
	return solid
}

func (c *cached) MaterialAt(pos mgl64.Vec3) Material {
	return c.src.MaterialAt(pos)
}
