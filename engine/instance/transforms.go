package instance

import (
	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Transforms is a batch of instance matrices sharing a voxel-space origin.
// Matrix translations are in world units relative to Offset * voxelSize.
type Transforms struct {
	Offset   common.IntVector
	Matrices []Matrix
}

// Len returns the number of matrices in the batch.
func (t Transforms) Len() int {
	return len(t.Matrices)
}

// Transform is a single instance record together with its batch origin.
type Transform struct {
	Offset common.IntVector
	Matrix Matrix
}

// VoxelPosition returns the instance position in global voxel space.
//
// Parameters:
//   - voxelSize: world units per voxel
//
// Returns:
//   - mgl32.Vec3: Offset + (translation + packed offset) / voxelSize
func (t Transform) VoxelPosition(voxelSize float32) mgl32.Vec3 {
	local := t.Matrix.Translation().Add(t.Matrix.PositionOffset()).Mul(1 / voxelSize)
	return t.Offset.Vec3().Add(local)
}

// WorldTransform returns the clean world transform of the instance.
//
// Parameters:
//   - worldOffset: voxel-space origin shift applied by world rebasing
//   - voxelSize: world units per voxel
//
// Returns:
//   - mgl32.Mat4: the clean matrix translated by (Offset + worldOffset) * voxelSize
func (t Transform) WorldTransform(worldOffset common.IntVector, voxelSize float32) mgl32.Mat4 {
	shift := t.Offset.Add(worldOffset).Vec3().Mul(voxelSize)
	return mgl32.Translate3D(shift[0], shift[1], shift[2]).Mul4(t.Matrix.CleanMatrix())
}
