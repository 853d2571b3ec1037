package instanced_mesh

import (
	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/Carmen-Shannon/oxy-scatter/engine/cluster"
	"github.com/Carmen-Shannon/oxy-scatter/engine/physics"
	"github.com/go-gl/mathgl/mgl32"
)

func (c *component) EnablePhysics(chunk common.IntBox) {
	if c.destroyed || c.physicsScene == nil {
		return
	}
	if _, ok := c.bodies[chunk]; !c.debug.ensure(!ok, "%s: physics already enabled for %+v", c.name, chunk) {
		return
	}
	c.bodies[chunk] = c.enablePhysics(chunk)
}

func (c *component) DisablePhysics(chunk common.IntBox) {
	if c.destroyed || c.physicsScene == nil {
		return
	}
	bodies, ok := c.bodies[chunk]
	if !c.debug.ensure(ok, "%s: physics not enabled for %+v", c.name, chunk) {
		return
	}
	terminate(bodies)
	delete(c.bodies, chunk)
}

func (c *component) RefreshPhysics(bounds common.IntBox) {
	for chunk, bodies := range c.bodies {
		if !chunk.Intersects(bounds) {
			continue
		}
		terminate(bodies)
		c.bodies[chunk] = c.enablePhysics(chunk)
	}
}

func (c *component) PhysicsRegions() []common.IntBox {
	out := make([]common.IntBox, 0, len(c.bodies))
	for chunk := range c.bodies {
		out = append(out, chunk)
	}
	return out
}

func (c *component) NumBodies() int {
	n := 0
	for _, bodies := range c.bodies {
		n += len(bodies)
	}
	return n
}

func terminate(bodies []*instanceBody) {
	for _, b := range bodies {
		b.body.Terminate()
	}
}

// enablePhysics creates one body per built, live instance whose local translation lies in chunk.
// Bodies are keyed to unbuilt indices so they survive rebuilds.
func (c *component) enablePhysics(chunk common.IntBox) []*instanceBody {
	if len(c.tree) == 0 {
		return nil
	}
	local := chunk.ToLocal(c.voxelPosition, c.voxelSize)
	origin := c.origin()
	toWorld := mgl32.Translate3D(origin[0], origin[1], origin[2])

	var specs []physics.BodySpec
	cluster.IterateInBox(c.tree, local, func(first, last int32) {
		for b := int(first); b <= int(last); b++ {
			m := c.built[b]
			if m.IsZeroScale() || !local.ContainsPoint(m.Translation()) {
				continue
			}
			u := c.mappings.UnbuiltIndex(b)
			if u == -1 {
				continue
			}
			specs = append(specs, physics.BodySpec{
				Transform:     toWorld.Mul4(m.CleanMatrix()),
				InstanceIndex: u,
			})
		}
	})
	if len(specs) == 0 {
		return nil
	}

	created := c.physicsScene.InitStaticBodies(specs)
	out := make([]*instanceBody, 0, len(created))
	for i, body := range created {
		out = append(out, &instanceBody{body: body, unbuilt: specs[i].InstanceIndex})
	}
	return out
}
