// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// IntVector is an integer position in voxel space.
type IntVector struct {
	X, Y, Z int32
}

// Add returns the component-wise sum of v and o.
func (v IntVector) Add(o IntVector) IntVector {
	return IntVector{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns the component-wise difference of v and o.
func (v IntVector) Sub(o IntVector) IntVector {
	return IntVector{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale multiplies every component by s.
func (v IntVector) Scale(s int32) IntVector {
	return IntVector{v.X * s, v.Y * s, v.Z * s}
}

// DivideFloor divides every component by d, rounding towards negative infinity.
//
// Parameters:
//   - d: the divisor (must be > 0)
//
// Returns:
//   - IntVector: the floored quotient
func (v IntVector) DivideFloor(d int32) IntVector {
	return IntVector{DivideFloor(v.X, d), DivideFloor(v.Y, d), DivideFloor(v.Z, d)}
}

// Vec3 converts the vector to a float32 vector.
func (v IntVector) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// Vec3d converts the vector to a float64 vector.
func (v IntVector) Vec3d() mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)}
}

// IntBox is an axis-aligned box in voxel space. Min is inclusive, Max is exclusive.
type IntBox struct {
	Min IntVector
	Max IntVector
}

// NewIntBox creates an IntBox from its two corners.
//
// Parameters:
//   - min: inclusive lower corner
//   - max: exclusive upper corner
//
// Returns:
//   - IntBox: the box
func NewIntBox(min, max IntVector) IntBox {
	return IntBox{Min: min, Max: max}
}

// IntBoxFromPoint returns the smallest IntBox containing the given voxel-space point.
// A point lying exactly on a voxel corner yields a single voxel.
//
// Parameters:
//   - p: voxel-space position
//
// Returns:
//   - IntBox: the box spanning floor(p) to ceil(p) + 1
func IntBoxFromPoint(p mgl64.Vec3) IntBox {
	min := IntVector{int32(math.Floor(p[0])), int32(math.Floor(p[1])), int32(math.Floor(p[2]))}
	max := IntVector{int32(math.Ceil(p[0])) + 1, int32(math.Ceil(p[1])) + 1, int32(math.Ceil(p[2])) + 1}
	return IntBox{Min: min, Max: max}
}

// IsValid reports whether the box has a positive size on every axis.
func (b IntBox) IsValid() bool {
	return b.Min.X < b.Max.X && b.Min.Y < b.Max.Y && b.Min.Z < b.Max.Z
}

// Size returns the extent of the box on each axis.
func (b IntBox) Size() IntVector {
	return b.Max.Sub(b.Min)
}

// Intersects reports whether the two boxes share at least one voxel.
//
// Parameters:
//   - o: the other box
//
// Returns:
//   - bool: true if the boxes overlap
func (b IntBox) Intersects(o IntBox) bool {
	return b.Min.X < o.Max.X && o.Min.X < b.Max.X &&
		b.Min.Y < o.Max.Y && o.Min.Y < b.Max.Y &&
		b.Min.Z < o.Max.Z && o.Min.Z < b.Max.Z
}

// Contains reports whether o lies entirely inside b.
//
// Parameters:
//   - o: the box to test
//
// Returns:
//   - bool: true if o is fully contained
func (b IntBox) Contains(o IntBox) bool {
	return b.Min.X <= o.Min.X && o.Max.X <= b.Max.X &&
		b.Min.Y <= o.Min.Y && o.Max.Y <= b.Max.Y &&
		b.Min.Z <= o.Min.Z && o.Max.Z <= b.Max.Z
}

// ContainsPoint reports whether the voxel p lies inside the box.
func (b IntBox) ContainsPoint(p IntVector) bool {
	return b.Min.X <= p.X && p.X < b.Max.X &&
		b.Min.Y <= p.Y && p.Y < b.Max.Y &&
		b.Min.Z <= p.Z && p.Z < b.Max.Z
}

// Extend grows the box by n voxels on every side.
func (b IntBox) Extend(n int32) IntBox {
	d := IntVector{n, n, n}
	return IntBox{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// Translate offsets the box by v.
func (b IntBox) Translate(v IntVector) IntBox {
	return IntBox{Min: b.Min.Add(v), Max: b.Max.Add(v)}
}

// Union returns the smallest box containing both b and o.
func (b IntBox) Union(o IntBox) IntBox {
	return IntBox{
		Min: IntVector{min(b.Min.X, o.Min.X), min(b.Min.Y, o.Min.Y), min(b.Min.Z, o.Min.Z)},
		Max: IntVector{max(b.Max.X, o.Max.X), max(b.Max.Y, o.Max.Y), max(b.Max.Z, o.Max.Z)},
	}
}

// ToLocal converts the voxel box into a float box relative to origin, scaled by voxelSize.
//
// Parameters:
//   - origin: voxel position the local space is relative to
//   - voxelSize: world units per voxel
//
// Returns:
//   - Box: the local-space box
func (b IntBox) ToLocal(origin IntVector, voxelSize float32) Box {
	return Box{
		Min: b.Min.Sub(origin).Vec3().Mul(voxelSize),
		Max: b.Max.Sub(origin).Vec3().Mul(voxelSize),
	}
}

// IntBoxAccumulator grows a box from successive unions. The zero value holds no box.
type IntBoxAccumulator struct {
	box   IntBox
	valid bool
}

// Add unions o into the accumulated box.
func (a *IntBoxAccumulator) Add(o IntBox) {
	if !a.valid {
		a.box = o
		a.valid = true
		return
	}
	a.box = a.box.Union(o)
}

// Box returns the accumulated box and whether anything was added.
func (a IntBoxAccumulator) Box() (IntBox, bool) {
	return a.box, a.valid
}

// Box is a float axis-aligned bounding box. Both corners are inclusive.
type Box struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyBox returns an inverted box suitable as the identity for Union.
func EmptyBox() Box {
	inf := float32(math.Inf(1))
	return Box{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// IsValid reports whether Min <= Max on every axis.
func (b Box) IsValid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Center returns the midpoint of the box.
func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extent returns the half size of the box.
func (b Box) Extent() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Intersects reports whether the boxes overlap. Touching boxes intersect.
//
// Parameters:
//   - o: the other box
//
// Returns:
//   - bool: true if the boxes overlap
func (b Box) Intersects(o Box) bool {
	return b.Min[0] <= o.Max[0] && o.Min[0] <= b.Max[0] &&
		b.Min[1] <= o.Max[1] && o.Min[1] <= b.Max[1] &&
		b.Min[2] <= o.Max[2] && o.Min[2] <= b.Max[2]
}

// ContainsBox reports whether o lies entirely inside b.
func (b Box) ContainsBox(o Box) bool {
	return b.Min[0] <= o.Min[0] && o.Max[0] <= b.Max[0] &&
		b.Min[1] <= o.Min[1] && o.Max[1] <= b.Max[1] &&
		b.Min[2] <= o.Min[2] && o.Max[2] <= b.Max[2]
}

// ContainsPoint reports whether p lies inside the half-open box [Min, Max).
func (b Box) ContainsPoint(p mgl32.Vec3) bool {
	return b.Min[0] <= p[0] && p[0] < b.Max[0] &&
		b.Min[1] <= p[1] && p[1] < b.Max[1] &&
		b.Min[2] <= p[2] && p[2] < b.Max[2]
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	return Box{
		Min: mgl32.Vec3{min(b.Min[0], o.Min[0]), min(b.Min[1], o.Min[1]), min(b.Min[2], o.Min[2])},
		Max: mgl32.Vec3{max(b.Max[0], o.Max[0]), max(b.Max[1], o.Max[1]), max(b.Max[2], o.Max[2])},
	}
}

// TransformBy returns the axis-aligned bounds of the box after transforming its eight corners by m.
//
// Parameters:
//   - m: affine transform
//
// Returns:
//   - Box: the transformed bounds
func (b Box) TransformBy(m mgl32.Mat4) Box {
	out := EmptyBox()
	for i := range 8 {
		corner := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		p := mgl32.TransformCoordinate(corner, m)
		out = out.Union(Box{Min: p, Max: p})
	}
	return out
}
