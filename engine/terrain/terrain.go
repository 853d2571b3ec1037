// Package terrain defines the voxel data queries used to decide which instances lost their support.
package terrain

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Material identifies a terrain material. Zero means no material.
type Material uint32

// DataSource answers point queries in global voxel space. Implementations must be safe to call
// from the owning goroutine while terrain edits are applied elsewhere.
type DataSource interface {
	// IsSolid reports whether the voxel at pos holds solid material.
	//
	// Parameters:
	//   - pos: global voxel-space position
	//
	// Returns:
	//   - bool: true if solid
	IsSolid(pos mgl64.Vec3) bool

	// MaterialAt returns the material at pos.
	//
	// Parameters:
	//   - pos: global voxel-space position
	//
	// Returns:
	//   - Material: the material, or 0 if empty
	MaterialAt(pos mgl64.Vec3) Material
}

// Funcs adapts plain functions into a DataSource. A nil MaterialFunc reports no material.
type Funcs struct {
	SolidFunc    func(pos mgl64.Vec3) bool
	MaterialFunc func(pos mgl64.Vec3) Material
}

var _ DataSource = Funcs{}

func (f Funcs) IsSolid(pos mgl64.Vec3) bool {
	return f.SolidFunc != nil && f.SolidFunc(pos)
}

func (f Funcs) MaterialAt(pos mgl64.Vec3) Material {
	if f.MaterialFunc == nil {
		return 0
	}
	return f.MaterialFunc(pos)
}

// HeightField is a DataSource whose solid region is everything below a height function of (x, z).
type HeightField struct {
	Height   func(x, z float64) float64
	Material Material
}

var _ DataSource = HeightField{}

func (h HeightField) IsSolid(pos mgl64.Vec3) bool {
	return pos[1] < h.Height(pos[0], pos[2])
}

func (h HeightField) MaterialAt(pos mgl64.Vec3) Material {
	if !h.IsSolid(pos) {
		return 0
	}
	return h.Material
}

// Flat returns a HeightField at a constant height.
func Flat(height float64, material Material) HeightField {
	return HeightField{
		Height:   func(_, _ float64) float64 { return height },
		Material: material,
	}
}
