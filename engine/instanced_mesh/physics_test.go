package instanced_mesh

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instance"
	"github.com/Carmen-Shannon/oxy-scatter/engine/physics"
	"github.com/go-gl/mathgl/mgl32"
)

var chunk = common.NewIntBox(common.IntVector{X: 0, Y: -1, Z: -1}, common.IntVector{X: 5, Y: 1, Z: 1})

func newPhysicsFixture(t *testing.T) (*fixture, physics.MemoryScene) {
	scene := physics.NewMemoryScene()
	f := newFixture(t, 0, WithPhysicsScene(scene))
	return f, scene
}

func TestEnablePhysicsCreatesBodiesInsideChunk(t *testing.T) {
	f, scene := newPhysicsFixture(t)
	f.c.AppendInstances(row(5, 0), anyBounds) // x = 0, 2, 4 fall in the chunk
	f.build()
	f.c.EnablePhysics(chunk)
	if f.c.NumBodies() != 3 || scene.LiveBodies() != 3 {
		t.Fatalf("expected 3 bodies, got %d (scene %d)", f.c.NumBodies(), scene.LiveBodies())
	}
	for _, p := range scene.Positions() {
		if p[0] < 0 || p[0] >= 5 {
			t.Fatalf("unexpected body at %v", p)
		}
	}
	if regions := f.c.PhysicsRegions(); len(regions) != 1 || regions[0] != chunk {
		t.Fatalf("expected the chunk to be registered, got %v", regions)
	}

	f.c.DisablePhysics(chunk)
	if scene.LiveBodies() != 0 || len(f.c.PhysicsRegions()) != 0 {
		t.Fatalf("expected disable to release every body")
	}
	if scene.DoubleTerminations() != 0 {
		t.Fatalf("expected no body to be terminated twice")
	}
}

func TestPhysicsBodiesUseWorldOrigin(t *testing.T) {
	scene := physics.NewMemoryScene()
	f := newFixture(t, 0, WithPhysicsScene(scene), WithVoxelPosition(common.IntVector{X: 8}), WithVoxelSize(2))
	f.c.AppendInstances([]instance.Matrix{at(2, 0, 0)}, anyBounds)
	f.build()
	f.c.EnablePhysics(common.NewIntBox(common.IntVector{X: 8, Y: -1, Z: -1}, common.IntVector{X: 12, Y: 1, Z: 1}))
	got := scene.Positions()
	if len(got) != 1 || got[0] != (mgl32.Vec3{18, 0, 0}) {
		t.Fatalf("expected one body at world x=18, got %v", got)
	}
}

func TestRemoveInstanceByIndexReleasesItsBody(t *testing.T) {
	f, scene := newPhysicsFixture(t)
	f.c.AppendInstances(row(3, 0), anyBounds)
	f.build()
	f.c.EnablePhysics(chunk)
	if _, ok := f.c.RemoveInstanceByIndex(1); !ok {
		t.Fatalf("expected removal to succeed")
	}
	if f.c.NumBodies() != 2 || scene.LiveBodies() != 2 {
		t.Fatalf("expected 2 bodies after removal, got %d", scene.LiveBodies())
	}
}

func TestRemoveInstanceByIndexReleasesBodiesInOverlappingRegions(t *testing.T) {
	f, scene := newPhysicsFixture(t)
	f.c.AppendInstances(row(3, 0), anyBounds)
	f.build()
	f.c.EnablePhysics(chunk)
	wide := common.NewIntBox(common.IntVector{X: 1, Y: -2, Z: -2}, common.IntVector{X: 4, Y: 2, Z: 2})
	f.c.EnablePhysics(wide)
	if scene.LiveBodies() != 4 {
		t.Fatalf("expected 3 bodies in the chunk and 1 in the wide region, got %d", scene.LiveBodies())
	}

	if _, ok := f.c.RemoveInstanceByIndex(1); !ok {
		t.Fatalf("expected removal to succeed")
	}
	if scene.LiveBodies() != 2 || f.c.NumBodies() != 2 {
		t.Fatalf("expected the instance's body to go from both regions, got %d live", scene.LiveBodies())
	}
	for _, idx := range scene.InstanceIndices() {
		if idx == 1 {
			t.Fatalf("expected no live body for the removed instance")
		}
	}
	if scene.DoubleTerminations() != 0 {
		t.Fatalf("expected no body to be terminated twice")
	}
}

func TestAreaRemovalRefreshesPhysics(t *testing.T) {
	f, scene := newPhysicsFixture(t)
	f.c.AppendInstances(row(3, 0), anyBounds)
	f.build()
	f.c.EnablePhysics(chunk)
	box := common.NewIntBox(common.IntVector{X: 3, Y: -1, Z: -1}, common.IntVector{X: 5, Y: 2, Z: 2})
	if removed := f.c.RemoveInstancesInArea(box, nil); removed.Len() != 1 {
		t.Fatalf("expected 1 removal, got %d", removed.Len())
	}
	if scene.LiveBodies() != 2 {
		t.Fatalf("expected the chunk to be rebuilt with 2 bodies, got %d", scene.LiveBodies())
	}
}

func TestBuildRefreshesPhysicsForNewInstances(t *testing.T) {
	f, scene := newPhysicsFixture(t)
	f.c.AppendInstances(row(1, 0), anyBounds)
	f.build()
	f.c.EnablePhysics(chunk)
	if scene.LiveBodies() != 1 {
		t.Fatalf("expected 1 body, got %d", scene.LiveBodies())
	}
	f.c.AppendInstances([]instance.Matrix{at(3, 0, 0)}, chunk)
	if scene.LiveBodies() != 1 {
		t.Fatalf("expected physics to wait for the build")
	}
	f.build()
	if scene.LiveBodies() != 2 {
		t.Fatalf("expected the new instance to get a body after the build, got %d", scene.LiveBodies())
	}
}

func TestRemoveSectionShiftsBodyIndices(t *testing.T) {
	f, scene := newPhysicsFixture(t)
	a := f.c.AppendInstances([]instance.Matrix{at(0, 0, 0), at(1, 0, 0)}, anyBounds)
	f.c.AppendInstances([]instance.Matrix{at(3, 0, 0)}, anyBounds)
	f.build()
	f.c.EnablePhysics(chunk)
	f.c.RemoveSection(a)
	if scene.LiveBodies() != 1 {
		t.Fatalf("expected bodies of the removed section to be released, got %d", scene.LiveBodies())
	}
	bodies := f.c.bodies[chunk]
	if len(bodies) != 1 || bodies[0].unbuilt != 0 {
		t.Fatalf("expected the remaining body to point at live index 0")
	}
}

func TestSetWorldOffsetMovesBodies(t *testing.T) {
	f, scene := newPhysicsFixture(t)
	f.c.AppendInstances(row(1, 0), anyBounds)
	f.build()
	f.c.EnablePhysics(chunk)
	f.now = f.now.Add(time.Second)
	f.c.SetWorldOffset(common.IntVector{X: 100})
	if got := scene.Positions(); len(got) != 1 || got[0][0] != 100 {
		t.Fatalf("expected body to follow the world offset, got %v", got)
	}
	if rd := f.c.RenderData(); rd.Origin[0] != 100 {
		t.Fatalf("expected render origin to follow the world offset, got %v", rd.Origin)
	}
	if scene.DoubleTerminations() != 0 {
		t.Fatalf("expected no body to be terminated twice")
	}
}
