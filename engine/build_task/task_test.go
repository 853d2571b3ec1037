package build_task

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/Carmen-Shannon/oxy-scatter/engine/cluster"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instance"
	"github.com/go-gl/mathgl/mgl32"
)

var unitBox = common.Box{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}}

func scatteredSnapshot(n int) []instance.Matrix {
	out := make([]instance.Matrix, n)
	for i := range out {
		// deterministic but unordered positions
		x := float32((i * 37) % n)
		z := float32((i * 11) % 7)
		out[i] = instance.NewMatrix(mgl32.Translate3D(x, 0, z), float32(i)/float32(n), mgl32.Vec3{0, float32(i), 0})
	}
	return out
}

func TestRunProducesConsistentBuiltOrder(t *testing.T) {
	snapshot := scatteredSnapshot(50)
	task := New(NextUniqueID(), snapshot, Params{MeshBox: unitBox, DesiredInstancesPerLeaf: 4})
	data, ok := task.Run()
	if !ok || data == nil {
		t.Fatalf("expected build to complete")
	}
	if data.UniqueID != task.ID() || data.NumInstances() != 50 {
		t.Fatalf("unexpected build header id=%d n=%d", data.UniqueID, data.NumInstances())
	}
	for built := 0; built < 50; built++ {
		unbuilt := data.BuiltToInstances[built]
		if data.InstancesToBuilt[unbuilt] != int32(built) {
			t.Fatalf("expected tables to be inverse at built %d", built)
		}
		if data.BuiltMatrices[built] != snapshot[unbuilt] {
			t.Fatalf("expected built matrix %d to equal snapshot %d", built, unbuilt)
		}
		got := data.InstanceBuffer.Instance(built)
		if got.Transform() != snapshot[unbuilt].CleanMatrix() {
			t.Fatalf("expected buffer slot %d to hold the clean matrix of %d", built, unbuilt)
		}
		if got.Random != snapshot[unbuilt].RandomInstanceID() {
			t.Fatalf("expected buffer slot %d to carry the random id", built)
		}
	}
	if len(data.ClusterTree) == 0 {
		t.Fatalf("expected a cluster tree")
	}
}

func TestRunDoesNotAliasSnapshot(t *testing.T) {
	snapshot := scatteredSnapshot(10)
	task := New(NextUniqueID(), snapshot, Params{MeshBox: unitBox})
	snapshot[0] = instance.Empty
	data, _ := task.Run()
	for _, m := range data.BuiltMatrices {
		if m.IsEmpty() {
			t.Fatalf("expected task to work on its own copy of the snapshot")
		}
	}
}

func TestRunObservesCancellation(t *testing.T) {
	var cancel atomic.Uint64
	task := New(NextUniqueID(), scatteredSnapshot(10), Params{MeshBox: unitBox, Cancel: &cancel})
	cancel.Add(1)
	if data, ok := task.Run(); ok || data != nil {
		t.Fatalf("expected cancelled task to produce nothing")
	}
}

func TestRunOverridesRandom(t *testing.T) {
	task := New(NextUniqueID(), scatteredSnapshot(10), Params{MeshBox: unitBox, OverrideRandom: true, Random: 0.75})
	data, _ := task.Run()
	for i := 0; i < data.InstanceBuffer.Len(); i++ {
		if data.InstanceBuffer.Instance(i).Random != 0.75 {
			t.Fatalf("expected override random at %d", i)
		}
	}
}

type identityStrategy struct{ calls int }

func (s *identityStrategy) BuildTree(transforms []mgl32.Mat4, meshBox common.Box, _ int) cluster.Result {
	s.calls++
	n := len(transforms)
	res := cluster.Result{SortedInstances: make([]int32, n), InstanceReorderTable: make([]int32, n)}
	for i := range n {
		res.SortedInstances[i] = int32(i)
		res.InstanceReorderTable[i] = int32(i)
	}
	res.Nodes = []cluster.Node{{BoundMin: meshBox.Min, BoundMax: meshBox.Max, FirstChild: -1, LastChild: -1, LastInstance: int32(n - 1)}}
	return res
}

func TestRunUsesConfiguredStrategy(t *testing.T) {
	s := &identityStrategy{}
	snapshot := scatteredSnapshot(5)
	data, _ := New(NextUniqueID(), snapshot, Params{MeshBox: unitBox, Strategy: s}).Run()
	if s.calls != 1 {
		t.Fatalf("expected strategy to be called once, got %d", s.calls)
	}
	for i := range snapshot {
		if data.BuiltMatrices[i] != snapshot[i] {
			t.Fatalf("expected identity strategy to keep order")
		}
	}
}

func TestNewPanicsOnEmptySnapshot(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on empty snapshot")
		}
	}()
	New(NextUniqueID(), nil, Params{})
}

func TestNextUniqueIDIncreases(t *testing.T) {
	a := NextUniqueID()
	b := NextUniqueID()
	if a == 0 || b <= a {
		t.Fatalf("expected increasing non-zero ids, got %d then %d", a, b)
	}
}

func TestResultQueueConcurrentProducers(t *testing.T) {
	q := NewResultQueue[[2]int]()
	const producers, perProducer = 8, 1000
	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				q.Push([2]int{p, i})
			}
		}()
	}
	wg.Wait()

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	count := 0
	for {
		v, ok := q.Pop()
		if !ok {
			break
		}
		if v[1] <= last[v[0]] {
			t.Fatalf("expected per-producer FIFO order, producer %d went %d -> %d", v[0], last[v[0]], v[1])
		}
		last[v[0]] = v[1]
		count++
	}
	if count != producers*perProducer {
		t.Fatalf("expected %d values, got %d", producers*perProducer, count)
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got len %d", q.Len())
	}
}
