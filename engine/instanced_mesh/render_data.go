package instanced_mesh

import (
	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/Carmen-Shannon/oxy-scatter/engine/cluster"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instance"
	"github.com/go-gl/mathgl/mgl32"
)

// RenderData is an immutable render snapshot of a component. Tree and Buffer are in the
// component's local space; Origin places that space in the world.
type RenderData struct {
	Version           uint64
	Tree              []cluster.Node
	Buffer            *instance.InstanceBuffer
	OcclusionLayerNum int
	Origin            mgl32.Vec3
}

// NumInstances returns the number of slots in the buffer, hidden ones included.
func (r *RenderData) NumInstances() int {
	return r.Buffer.Len()
}

func (c *component) origin() mgl32.Vec3 {
	return c.voxelPosition.Add(c.worldOffset).Vec3().Mul(c.voxelSize)
}

// publish atomically replaces the render snapshot with the current built state.
func (c *component) publish() {
	if c.buffer == nil {
		return
	}
	c.version++
	c.render.Store(&RenderData{
		Version:           c.version,
		Tree:              c.tree,
		Buffer:            c.buffer,
		OcclusionLayerNum: c.layers,
		Origin:            c.origin(),
	})
}

func (c *component) RenderData() *RenderData {
	return c.render.Load()
}

func visible(g *instance.GPUInstanceData) bool {
	m := g.Model
	for col := 0; col < 3; col++ {
		if m[col*4] != 0 || m[col*4+1] != 0 || m[col*4+2] != 0 {
			return true
		}
	}
	return false
}

func visitRange(rd *RenderData, first, last int32, fn func(int, instance.GPUInstanceData) bool) bool {
	for b := int(first); b <= int(last); b++ {
		g := rd.Buffer.Instance(b)
		if !visible(&g) {
			continue
		}
		if !fn(b, g) {
			return false
		}
	}
	return true
}

func (c *component) IterateInstancesInBounds(box common.Box, fn func(built int, data instance.GPUInstanceData) bool) {
	rd := c.render.Load()
	if rd == nil {
		return
	}
	local := common.Box{Min: box.Min.Sub(rd.Origin), Max: box.Max.Sub(rd.Origin)}
	stopped := false
	cluster.IterateInBox(rd.Tree, local, func(first, last int32) {
		if !stopped {
			stopped = !visitRange(rd, first, last, fn)
		}
	})
}

func (c *component) IterateInstancesInFrustum(f common.Frustum, fn func(built int, data instance.GPUInstanceData) bool) {
	rd := c.render.Load()
	if rd == nil {
		return
	}
	local := f.Translated(rd.Origin.Mul(-1))
	stopped := false
	cluster.IterateInFrustum(rd.Tree, local, func(first, last int32) {
		if !stopped {
			stopped = !visitRange(rd, first, last, fn)
		}
	})
}
