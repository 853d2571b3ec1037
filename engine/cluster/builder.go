package cluster

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultInstancesPerLeaf is used when a build asks for fewer than one instance per leaf.
const DefaultInstancesPerLeaf = 16

type builder struct {
	bounds    []common.Box
	centroids []mgl32.Vec3
	order     []int32
}

type buildNode struct {
	box      common.Box
	lo, hi   int
	children []*buildNode
}

// Builder is the default Strategy: recursive median split on the longest centroid axis.
type Builder struct{}

var _ Strategy = Builder{}

func (Builder) BuildTree(transforms []mgl32.Mat4, meshBox common.Box, desiredPerLeaf int) Result {
	n := len(transforms)
	if desiredPerLeaf < 1 {
		desiredPerLeaf = DefaultInstancesPerLeaf
	}
	b := &builder{
		bounds:    make([]common.Box, n),
		centroids: make([]mgl32.Vec3, n),
		order:     make([]int32, n),
	}
	for i, m := range transforms {
		b.bounds[i] = meshBox.TransformBy(m)
		b.centroids[i] = b.bounds[i].Center()
		b.order[i] = int32(i)
	}

	res := Result{
		SortedInstances:      b.order,
		InstanceReorderTable: make([]int32, n),
	}
	if n == 0 {
		return res
	}

	root := b.split(0, n, desiredPerLeaf)
	res.Nodes, res.OcclusionLayerNum = flatten(root)
	for built, unbuilt := range b.order {
		res.InstanceReorderTable[unbuilt] = int32(built)
	}
	return res
}

func (b *builder) split(lo, hi, perLeaf int) *buildNode {
	node := &buildNode{box: common.EmptyBox(), lo: lo, hi: hi}
	centre := common.EmptyBox()
	for _, idx := range b.order[lo:hi] {
		node.box = node.box.Union(b.bounds[idx])
		c := b.centroids[idx]
		centre = centre.Union(common.Box{Min: c, Max: c})
	}
	if hi-lo <= perLeaf {
		return node
	}

	size := centre.Max.Sub(centre.Min)
	axis := 0
	if size[1] > size[axis] {
		axis = 1
	}
	if size[2] > size[axis] {
		axis = 2
	}
	slices.SortStableFunc(b.order[lo:hi], func(x, y int32) int {
		cx, cy := b.centroids[x][axis], b.centroids[y][axis]
		switch {
		case cx < cy:
			return -1
		case cx > cy:
			return 1
		}
		return 0
	})
	mid := lo + (hi-lo)/2
	node.children = []*buildNode{
		b.split(lo, mid, perLeaf),
		b.split(mid, hi, perLeaf),
	}
	return node
}

// flatten lays the tree out breadth-first so each node's children are contiguous.
func flatten(root *buildNode) ([]Node, int) {
	var nodes []Node
	var levelSizes []int
	level := []*buildNode{root}
	for len(level) > 0 {
		levelSizes = append(levelSizes, len(level))
		base := len(nodes)
		next := base + len(level)
		var nextLevel []*buildNode
		for _, bn := range level {
			n := Node{
				BoundMin:      bn.box.Min,
				BoundMax:      bn.box.Max,
				FirstChild:    -1,
				LastChild:     -1,
				FirstInstance: int32(bn.lo),
				LastInstance:  int32(bn.hi - 1),
			}
			if len(bn.children) > 0 {
				n.FirstChild = int32(next)
				n.LastChild = int32(next + len(bn.children) - 1)
				next += len(bn.children)
				nextLevel = append(nextLevel, bn.children...)
			}
			nodes = append(nodes, n)
		}
		level = nextLevel
	}

	layers := 0
	for _, sz := range levelSizes[1:] {
		if sz > MaxOcclusionNodesPerLayer {
			break
		}
		layers++
	}
	return nodes, layers
}
