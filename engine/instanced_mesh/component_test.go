package instanced_mesh

import (
	"slices"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/Carmen-Shannon/oxy-scatter/engine/arena"
	"github.com/Carmen-Shannon/oxy-scatter/engine/build_task"
	"github.com/Carmen-Shannon/oxy-scatter/engine/cluster"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instance"
	"github.com/Carmen-Shannon/oxy-scatter/engine/physics"
	"github.com/Carmen-Shannon/oxy-scatter/engine/pool"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

var unitBox = common.Box{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}}

var anyBounds = common.NewIntBox(common.IntVector{X: -100, Y: -100, Z: -100}, common.IntVector{X: 100, Y: 100, Z: 100})

type fixture struct {
	t      *testing.T
	manual pool.Manual
	now    time.Time
	c      *component
}

func newFixture(t *testing.T, delay time.Duration, options ...ComponentBuilderOption) *fixture {
	f := &fixture{t: t, manual: pool.NewManual(), now: time.Unix(1000, 0)}
	settings := DefaultSettings()
	settings.BuildDelay = delay
	settings.DesiredInstancesPerLeaf = 2
	opts := []ComponentBuilderOption{
		WithName("test"),
		WithSettings(settings),
		WithSubmitter(pool.Unbounded(f.manual)),
		WithClock(func() time.Time { return f.now }),
		WithMeshBox(unitBox),
		WithDebugOptions(DebugOptions{PanicOnEnsure: true}),
	}
	f.c = NewComponent(append(opts, options...)...).(*component)
	return f
}

// build lets the debounce elapse, runs every pending job and applies the results.
func (f *fixture) build() {
	f.t.Helper()
	f.now = f.now.Add(time.Hour)
	f.c.Advance(f.now)
	f.manual.RunPending()
	f.c.DrainResults()
	if f.c.State() != StateIdle {
		f.t.Fatalf("expected Idle after build, got %v", f.c.State())
	}
}

func at(x, y, z float32) instance.Matrix {
	return instance.NewMatrix(mgl32.Translate3D(x, y, z), x/100, mgl32.Vec3{})
}

func row(n int, x0 float32) []instance.Matrix {
	out := make([]instance.Matrix, n)
	for i := range out {
		out[i] = at(x0+float32(i)*2, 0, 0)
	}
	return out
}

func (f *fixture) assertTranslationRoundTrips() {
	f.t.Helper()
	c := f.c
	for u := range c.unbuilt {
		b := c.BuiltIndex(u)
		if b == -1 {
			continue
		}
		if back := c.UnbuiltIndex(b); back != u {
			f.t.Fatalf("expected built %d to map back to unbuilt %d, got %d", b, u, back)
		}
		if c.built[b] != c.unbuilt[u] {
			f.t.Fatalf("expected built %d and unbuilt %d to hold the same record", b, u)
		}
	}
	for b := range c.built {
		u := c.UnbuiltIndex(b)
		if u == -1 {
			continue
		}
		if c.BuiltIndex(u) != b {
			f.t.Fatalf("expected unbuilt %d to map to built %d", u, b)
		}
	}
}

func TestNewComponentHoldsOnlySentinel(t *testing.T) {
	f := newFixture(t, 0)
	if !f.c.IsEmpty() || f.c.NumInstances() != 0 || len(f.c.UnbuiltMatrices()) != 1 {
		t.Fatalf("expected a lone sentinel")
	}
	if f.c.State() != StateIdle {
		t.Fatalf("expected Idle, got %v", f.c.State())
	}
}

func TestNewComponentRequiresSubmitter(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic without submitter")
		}
	}()
	NewComponent()
}

func TestAppendToEmptyBucketReplacesSentinel(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond)
	batch := row(3, 0)
	h := f.c.AppendInstances(batch, anyBounds)
	if !h.IsValid() || !f.c.HasSection(h) {
		t.Fatalf("expected a live section handle")
	}
	if got := f.c.UnbuiltMatrices(); !slices.Equal(got, batch) {
		t.Fatalf("expected exactly the 3 appended records, got %d records", len(got))
	}
	if f.c.State() != StateBuildScheduled {
		t.Fatalf("expected BuildScheduled, got %v", f.c.State())
	}

	f.build()
	seen := map[int]bool{}
	for u := 0; u < 3; u++ {
		b := f.c.BuiltIndex(u)
		if b < 0 || b > 2 || seen[b] {
			t.Fatalf("expected a bijection over {0,1,2}, unbuilt %d -> %d", u, b)
		}
		seen[b] = true
		if f.c.UnbuiltIndex(b) != u {
			t.Fatalf("expected built %d -> unbuilt %d", b, u)
		}
	}
	if rd := f.c.RenderData(); rd == nil || rd.NumInstances() != 3 {
		t.Fatalf("expected a published snapshot of 3 instances")
	}
}

func TestAppendEmptyBatchIsRejected(t *testing.T) {
	f := newFixture(t, 0, WithDebugOptions(DebugOptions{}))
	if h := f.c.AppendInstances(nil, anyBounds); h.IsValid() {
		t.Fatalf("expected invalid handle for an empty batch")
	}
	if !f.c.IsEmpty() {
		t.Fatalf("expected component to stay empty")
	}
}

func TestRemoveSectionCompactsAndIsIdempotent(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond)
	a := f.c.AppendInstances(row(3, 0), anyBounds)
	batchB := row(2, 100)
	b := f.c.AppendInstances(batchB, anyBounds)
	f.build()

	f.c.RemoveSection(a)
	if got := f.c.UnbuiltMatrices(); !slices.Equal(got, batchB) {
		t.Fatalf("expected only batch B to remain, got %d records", len(got))
	}
	if f.c.HasSection(a) {
		t.Fatalf("expected section A to be gone")
	}
	deletions := len(f.c.mappings.deletions)
	f.c.RemoveSection(a)
	if got := f.c.UnbuiltMatrices(); !slices.Equal(got, batchB) || len(f.c.mappings.deletions) != deletions {
		t.Fatalf("expected second removal of A to be a no-op")
	}
	f.assertTranslationRoundTrips()

	s, _ := f.c.sections.Get(b)
	if s.start != 0 {
		t.Fatalf("expected section B to shift down to 0, got %d", s.start)
	}
	f.c.RemoveSection(b)
	if !f.c.IsEmpty() {
		t.Fatalf("expected sentinel after removing every section")
	}
	f.assertTranslationRoundTrips()
	f.build()
	if !f.c.IsEmpty() {
		t.Fatalf("expected component to stay empty after rebuild")
	}
}

func TestAppendThenRemoveRoundTrips(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond)
	f.c.AppendInstances(row(4, 0), anyBounds)
	f.build()
	before := f.c.UnbuiltMatrices()

	h := f.c.AppendInstances(row(5, 50), anyBounds)
	f.c.RemoveSection(h)
	if got := f.c.UnbuiltMatrices(); !slices.Equal(got, before) {
		t.Fatalf("expected append+remove to restore the live list")
	}
	f.assertTranslationRoundTrips()
}

func TestTranslationRoundTripsUnderChurn(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond)
	var handles []arena.Handle
	for i := 0; i < 6; i++ {
		handles = append(handles, f.c.AppendInstances(row(3+i, float32(i*40)), anyBounds))
	}
	f.build()
	f.c.RemoveSection(handles[1])
	f.assertTranslationRoundTrips()
	late := f.c.AppendInstances(row(2, 500), anyBounds)
	f.c.RemoveSection(handles[4])
	f.c.RemoveSection(handles[0])
	f.assertTranslationRoundTrips()

	s, _ := f.c.sections.Get(late)
	for i := 0; i < s.num; i++ {
		if f.c.BuiltIndex(s.start+i) != -1 {
			t.Fatalf("expected unbuilt instances appended after the build to have no built index")
		}
	}
	f.build()
	f.assertTranslationRoundTrips()
	if len(f.c.mappings.deletions) != 0 {
		t.Fatalf("expected deletion stack to be trimmed after rebuild, got %d", len(f.c.mappings.deletions))
	}
	for u := range f.c.unbuilt {
		if f.c.BuiltIndex(u) == -1 {
			t.Fatalf("expected every live index to be built after rebuild")
		}
	}
}

func TestRemoveInstancesInArea(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond)
	h := f.c.AppendInstances(row(5, 0), anyBounds) // x = 0, 2, 4, 6, 8
	f.build()

	box := common.NewIntBox(common.IntVector{X: 3, Y: -1, Z: -1}, common.IntVector{X: 7, Y: 2, Z: 2})
	removed := f.c.RemoveInstancesInArea(box, nil)
	if removed.Len() != 2 {
		t.Fatalf("expected 2 removed instances, got %d", removed.Len())
	}
	for _, m := range removed.Matrices {
		if x := m.Translation()[0]; x != 4 && x != 6 {
			t.Fatalf("unexpected removed instance at x=%v", x)
		}
	}
	if f.c.NumLiveInstances() != 3 || f.c.IsEmpty() {
		t.Fatalf("expected 3 live instances, got %d", f.c.NumLiveInstances())
	}
	got := f.c.RemovedIndices(h)
	slices.Sort(got)
	if !slices.Equal(got, []int{2, 3}) {
		t.Fatalf("expected removed indices [2 3], got %v", got)
	}
	if again := f.c.RemoveInstancesInArea(box, nil); again.Len() != 0 {
		t.Fatalf("expected second removal to find nothing, got %d", again.Len())
	}
	rd := f.c.RenderData()
	for _, u := range []int{2, 3} {
		g := rd.Buffer.Instance(f.c.BuiltIndex(u))
		if visible(&g) {
			t.Fatalf("expected removed instance %d to be hidden in the render buffer", u)
		}
	}
}

func TestRemoveInstancesInAreaHonoursFilter(t *testing.T) {
	f := newFixture(t, 0)
	f.c.AppendInstances(row(5, 0), anyBounds)
	f.build()
	kept := f.c.RemoveInstancesInArea(anyBounds, func(pos mgl64.Vec3) bool { return pos[0] > 5 })
	if kept.Len() != 2 {
		t.Fatalf("expected filter to select 2 instances, got %d", kept.Len())
	}
}

func TestRemoveInstanceByIndex(t *testing.T) {
	f := newFixture(t, 0, WithVoxelPosition(common.IntVector{X: 10}))
	batch := row(3, 0)
	h := f.c.AppendInstances(batch, anyBounds)
	if _, ok := f.c.RemoveInstanceByIndex(1); ok {
		t.Fatalf("expected unbuilt instance not to be removable by index")
	}
	f.build()
	tr, ok := f.c.RemoveInstanceByIndex(1)
	if !ok || tr.Matrix != batch[1] || tr.Offset != (common.IntVector{X: 10}) {
		t.Fatalf("expected to remove instance 1 with its offset")
	}
	if _, ok := f.c.RemoveInstanceByIndex(1); ok {
		t.Fatalf("expected second removal of the same index to fail")
	}
	if got := f.c.RemovedIndices(h); !slices.Equal(got, []int{1}) {
		t.Fatalf("expected removed indices [1], got %v", got)
	}
}

func TestAppendWhileInFlightRetriggersBuild(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond)
	f.c.AppendInstances(row(3, 0), anyBounds)
	f.now = f.now.Add(time.Second)
	f.c.Advance(f.now)
	if f.c.State() != StateBuildInFlight {
		t.Fatalf("expected BuildInFlight, got %v", f.c.State())
	}
	first := f.c.InFlightTaskID()

	f.c.AppendInstances(row(2, 50), anyBounds)
	if f.c.State() != StateBuildInFlight || f.c.InFlightTaskID() != first {
		t.Fatalf("expected append not to interrupt the in-flight build")
	}

	f.manual.RunPending()
	f.c.DrainResults()
	if f.c.State() != StateBuildInFlight {
		t.Fatalf("expected immediate follow-up build, got %v", f.c.State())
	}
	if f.c.InFlightTaskID() == first || f.manual.Pending() != 1 {
		t.Fatalf("expected a new task to be submitted")
	}
	f.manual.RunPending()
	f.c.DrainResults()
	if f.c.State() != StateIdle || f.c.RenderData().NumInstances() != 5 {
		t.Fatalf("expected follow-up build to include all 5 instances")
	}
}

func TestDebounceResetsOnMutation(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond)
	t0 := f.now
	f.c.AppendInstances(row(1, 0), anyBounds)
	f.c.Advance(t0.Add(50 * time.Millisecond))
	if f.c.State() != StateBuildScheduled {
		t.Fatalf("expected build to wait for the debounce")
	}
	f.now = t0.Add(60 * time.Millisecond)
	f.c.AppendInstances(row(1, 10), anyBounds)
	f.c.Advance(t0.Add(120 * time.Millisecond))
	if f.c.State() != StateBuildScheduled {
		t.Fatalf("expected second append to reset the debounce")
	}
	f.c.Advance(t0.Add(160 * time.Millisecond))
	if f.c.State() != StateBuildInFlight {
		t.Fatalf("expected build to start once the reset deadline passed, got %v", f.c.State())
	}
}

func collectOutcomes(f *fixture) *[]build_task.Outcome {
	out := &[]build_task.Outcome{}
	f.c.sink = func(o build_task.Outcome) { *out = append(*out, o) }
	return out
}

func TestNewerResultWinsRegardlessOfArrivalOrder(t *testing.T) {
	for _, olderFirst := range []bool{true, false} {
		f := newFixture(t, 0)
		outcomes := collectOutcomes(f)
		f.c.AppendInstances(row(3, 0), anyBounds)
		f.manual.RunNext()
		f.c.Rebuild()
		f.manual.RunNext()
		if len(*outcomes) != 2 {
			t.Fatalf("expected 2 outcomes, got %d", len(*outcomes))
		}
		t1, t2 := (*outcomes)[0], (*outcomes)[1]
		if t2.TaskID <= t1.TaskID {
			t.Fatalf("expected increasing task ids")
		}

		if olderFirst {
			if f.c.Apply(t1) {
				t.Fatalf("expected superseded result to be dropped")
			}
			if !f.c.Apply(t2) {
				t.Fatalf("expected latest result to be applied")
			}
		} else {
			if !f.c.Apply(t2) {
				t.Fatalf("expected latest result to be applied")
			}
			version := f.c.RenderData().Version
			if f.c.Apply(t1) {
				t.Fatalf("expected older result not to overwrite the newer one")
			}
			if f.c.RenderData().Version != version {
				t.Fatalf("expected render snapshot to be untouched by the stale result")
			}
		}
		if f.c.State() != StateIdle {
			t.Fatalf("expected Idle, got %v", f.c.State())
		}
	}
}

func TestRebuildCancelsQueuedTask(t *testing.T) {
	f := newFixture(t, 0)
	outcomes := collectOutcomes(f)
	f.c.AppendInstances(row(3, 0), anyBounds)
	f.c.Rebuild()
	f.manual.RunPending()
	if len(*outcomes) != 1 {
		t.Fatalf("expected the cancelled task to produce nothing, got %d outcomes", len(*outcomes))
	}
	if !f.c.Apply((*outcomes)[0]) {
		t.Fatalf("expected rebuild result to be applied")
	}
}

func TestLimitedPoolDefersBuild(t *testing.T) {
	manual := pool.NewManual()
	limited := pool.NewLimited(manual, 1)
	now := time.Unix(0, 0)
	mk := func(name string) Component {
		s := DefaultSettings()
		s.BuildDelay = 0
		return NewComponent(WithName(name), WithSettings(s), WithSubmitter(limited), WithClock(func() time.Time { return now }))
	}
	a, b := mk("a"), mk("b")
	a.AppendInstances(row(2, 0), anyBounds)
	b.AppendInstances(row(2, 0), anyBounds)
	if a.State() != StateBuildInFlight || b.State() != StateBuildScheduled {
		t.Fatalf("expected a in flight and b deferred, got %v / %v", a.State(), b.State())
	}
	b.Advance(now)
	if b.State() != StateBuildScheduled {
		t.Fatalf("expected b to stay deferred while the pool is full")
	}
	manual.RunPending()
	a.DrainResults()
	b.Advance(now)
	if b.State() != StateBuildInFlight {
		t.Fatalf("expected b to start once capacity was released, got %v", b.State())
	}
}

type panickingStrategy struct{}

func (panickingStrategy) BuildTree([]mgl32.Mat4, common.Box, int) cluster.Result {
	panic("allocation failed")
}

func TestWorkerFailureReleasesInFlight(t *testing.T) {
	f := newFixture(t, 0, WithStrategy(panickingStrategy{}), WithDebugOptions(DebugOptions{}))
	f.c.AppendInstances(row(2, 0), anyBounds)
	if f.c.State() != StateBuildInFlight {
		t.Fatalf("expected BuildInFlight")
	}
	f.manual.RunPending()
	if n := f.c.DrainResults(); n != 1 {
		t.Fatalf("expected a failure notice, got %d outcomes", n)
	}
	if f.c.State() != StateIdle || f.c.InFlightTaskID() != 0 {
		t.Fatalf("expected failure to release the in-flight build, got %v", f.c.State())
	}
	f.c.AppendInstances(row(1, 20), anyBounds)
	if f.c.State() != StateBuildInFlight {
		t.Fatalf("expected the next mutation to trigger a fresh attempt")
	}
}

func TestRemovalDuringBuildIsReplayedOntoResult(t *testing.T) {
	f := newFixture(t, 0)
	f.c.AppendInstances(row(4, 0), anyBounds)
	f.build()

	f.c.AppendInstances(row(2, 40), anyBounds) // starts a build that still sees x=2 alive
	if f.c.State() != StateBuildInFlight {
		t.Fatalf("expected BuildInFlight")
	}
	box := common.NewIntBox(common.IntVector{X: 1, Y: -1, Z: -1}, common.IntVector{X: 4, Y: 2, Z: 2})
	if removed := f.c.RemoveInstancesInArea(box, nil); removed.Len() != 1 {
		t.Fatalf("expected 1 removed instance, got %d", removed.Len())
	}

	f.manual.RunPending()
	f.c.DrainResults()
	b := f.c.BuiltIndex(1)
	if b < 0 || !f.c.built[b].IsEmpty() {
		t.Fatalf("expected removal to be replayed onto the late build")
	}
	g := f.c.RenderData().Buffer.Instance(b)
	if visible(&g) {
		t.Fatalf("expected removed instance to be hidden after the late build")
	}
	f.assertTranslationRoundTrips()
}

func TestDestroyDropsLateResults(t *testing.T) {
	scene := physics.NewMemoryScene()
	f := newFixture(t, 0, WithPhysicsScene(scene))
	f.c.AppendInstances(row(3, 0), anyBounds)
	f.build()
	f.c.EnablePhysics(anyBounds)
	f.c.AppendInstances(row(1, 50), anyBounds)
	f.c.Destroy()
	if scene.LiveBodies() != 0 {
		t.Fatalf("expected bodies to be released, %d live", scene.LiveBodies())
	}
	f.manual.RunPending()
	f.c.DrainResults()
	if f.c.RenderData() != nil || f.c.State() != StateIdle {
		t.Fatalf("expected destroyed component to stay inert")
	}
}

func TestReadSideIteration(t *testing.T) {
	f := newFixture(t, 0, WithVoxelPosition(common.IntVector{X: 32}), WithVoxelSize(2))
	f.c.AppendInstances(row(10, 0), anyBounds) // local x = 0..18, world x = 64..82
	if f.c.RenderData() != nil {
		t.Fatalf("expected no render data before the first build")
	}
	f.build()

	query := common.Box{Min: mgl32.Vec3{63, -1, -1}, Max: mgl32.Vec3{65, 1, 1}}
	found := false
	f.c.IterateInstancesInBounds(query, func(_ int, g instance.GPUInstanceData) bool {
		if g.Model[12] == 0 {
			found = true
		}
		return true
	})
	if !found {
		t.Fatalf("expected the instance at world x=64 to be visited")
	}

	visits := 0
	f.c.IterateInstancesInBounds(anyBounds.ToLocal(common.IntVector{}, 100), func(int, instance.GPUInstanceData) bool {
		visits++
		return visits < 3
	})
	if visits != 3 {
		t.Fatalf("expected iteration to stop when fn returns false, got %d", visits)
	}

	vp := common.ViewProjection(mgl32.Vec3{64, 0, 5}, mgl32.Vec3{64, 0, 0}, 0.5, 1, 0.1, 50)
	seen := 0
	f.c.IterateInstancesInFrustum(common.ExtractFrustumFromMatrix(vp), func(int, instance.GPUInstanceData) bool {
		seen++
		return true
	})
	if seen == 0 || seen == 10 {
		t.Fatalf("expected a partial frustum visit, got %d", seen)
	}
}

func TestRandomColorPerBucket(t *testing.T) {
	f := newFixture(t, 0, WithDebugOptions(DebugOptions{RandomColorPerBucket: true}))
	f.c.AppendInstances(row(4, 0), anyBounds)
	f.build()
	rd := f.c.RenderData()
	first := rd.Buffer.Instance(0).Random
	for i := 1; i < rd.NumInstances(); i++ {
		if rd.Buffer.Instance(i).Random != first {
			t.Fatalf("expected a single colour per bucket")
		}
	}
}

func TestBuildObserverAndAllocatedBytes(t *testing.T) {
	calls := 0
	f := newFixture(t, 0, WithBuildObserver(func(_ uint64, _ time.Duration, n int) {
		calls++
		if n != 3 {
			t.Fatalf("expected 3 built instances, got %d", n)
		}
	}))
	f.c.AppendInstances(row(3, 0), anyBounds)
	f.build()
	if calls != 1 {
		t.Fatalf("expected observer to be called once, got %d", calls)
	}
	if f.c.AllocatedBytes() <= 0 {
		t.Fatalf("expected a positive memory estimate")
	}
}
