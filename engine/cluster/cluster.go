// Package cluster builds the spatially sorted bounding volume tree used to cull instances.
package cluster

import (
	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxOcclusionNodesPerLayer is the node count above which a tree level is too wide to serve as
// an occlusion query layer.
const MaxOcclusionNodesPerLayer = 64

// Node is one node of a flattened cluster tree. Children of a node are stored contiguously;
// leaves have FirstChild = -1. Instance ranges are inclusive and index the built order.
type Node struct {
	BoundMin      mgl32.Vec3
	BoundMax      mgl32.Vec3
	FirstChild    int32
	LastChild     int32
	FirstInstance int32
	LastInstance  int32
}

// Bounds returns the node bounds as a Box.
func (n Node) Bounds() common.Box {
	return common.Box{Min: n.BoundMin, Max: n.BoundMax}
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return n.FirstChild < 0
}

// Result is the output of a tree build.
type Result struct {
	// Nodes is the tree in breadth-first order; Nodes[0] is the root.
	Nodes []Node
	// SortedInstances maps built index -> unbuilt index.
	SortedInstances []int32
	// InstanceReorderTable maps unbuilt index -> built index.
	InstanceReorderTable []int32
	// OcclusionLayerNum is the number of tree levels below the root usable for occlusion queries.
	OcclusionLayerNum int
}

// Strategy builds a cluster tree over a set of instance transforms.
type Strategy interface {
	// BuildTree clusters the instances and returns the tree and the permutation tables.
	//
	// Parameters:
	//   - transforms: clean instance transforms in unbuilt order
	//   - meshBox: local bounds of the instanced mesh
	//   - desiredPerLeaf: maximum number of instances per leaf
	//
	// Returns:
	//   - Result: tree, permutation tables and occlusion layer count
	BuildTree(transforms []mgl32.Mat4, meshBox common.Box, desiredPerLeaf int) Result
}

// IterateInBox visits every instance range of the tree that may intersect box.
// Nodes fully inside box, and intersecting leaves, report their whole range.
//
// Parameters:
//   - nodes: the flattened tree
//   - box: query box in the tree's space
//   - fn: receives inclusive built-index ranges
func IterateInBox(nodes []Node, box common.Box, fn func(first, last int32)) {
	iterate(nodes, func(b common.Box) (bool, bool) {
		if !box.Intersects(b) {
			return false, false
		}
		return true, box.ContainsBox(b)
	}, fn)
}

// IterateInFrustum visits every instance range of the tree that may be visible in the frustum.
//
// Parameters:
//   - nodes: the flattened tree
//   - f: query frustum in the tree's space
//   - fn: receives inclusive built-index ranges
func IterateInFrustum(nodes []Node, f common.Frustum, fn func(first, last int32)) {
	iterate(nodes, func(b common.Box) (bool, bool) {
		if !f.IntersectsBox(b) {
			return false, false
		}
		return true, f.ContainsBox(b)
	}, fn)
}

func iterate(nodes []Node, test func(common.Box) (hit bool, full bool), fn func(first, last int32)) {
	if len(nodes) == 0 {
		return
	}
	stack := []int32{0}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &nodes[idx]
		hit, full := test(n.Bounds())
		if !hit {
			continue
		}
		if full || n.IsLeaf() {
			fn(n.FirstInstance, n.LastInstance)
			continue
		}
		for c := n.LastChild; c >= n.FirstChild; c-- {
			stack = append(stack, c)
		}
	}
}
