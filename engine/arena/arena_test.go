package arena

import "testing"

func TestInsertGetRemove(t *testing.T) {
	a := New[string](4)
	h := a.Insert("oak")
	if !h.IsValid() {
		t.Fatalf("expected issued handle to be valid")
	}
	v, ok := a.Get(h)
	if !ok || v != "oak" {
		t.Fatalf("expected oak, got %q (ok=%v)", v, ok)
	}
	if a.Len() != 1 {
		t.Fatalf("expected len 1, got %d", a.Len())
	}
	if _, ok := a.Remove(h); !ok {
		t.Fatalf("expected remove to succeed")
	}
	if _, ok := a.Get(h); ok {
		t.Fatalf("expected removed handle to be stale")
	}
	if _, ok := a.Remove(h); ok {
		t.Fatalf("expected second remove to report stale handle")
	}
}

func TestReusedSlotInvalidatesOldHandle(t *testing.T) {
	a := New[int](0)
	old := a.Insert(1)
	a.Remove(old)
	fresh := a.Insert(2)
	if fresh.Index != old.Index {
		t.Fatalf("expected slot %d to be reused, got %d", old.Index, fresh.Index)
	}
	if fresh.Generation == old.Generation {
		t.Fatalf("expected generation to change on reuse")
	}
	if a.Contains(old) {
		t.Fatalf("expected old handle to be stale after reuse")
	}
	if a.Set(old, 5) {
		t.Fatalf("expected Set through a stale handle to fail")
	}
	if v, _ := a.Get(fresh); v != 2 {
		t.Fatalf("expected fresh value 2, got %d", v)
	}
}

func TestZeroHandleIsNeverLive(t *testing.T) {
	a := New[int](0)
	a.Insert(7)
	if a.Contains(Handle{}) {
		t.Fatalf("expected zero handle to be invalid")
	}
}

func TestRangeVisitsLiveSlotsInOrder(t *testing.T) {
	a := New[int](0)
	h0 := a.Insert(10)
	a.Insert(20)
	a.Insert(30)
	a.Remove(h0)
	var got []int
	a.Range(func(_ Handle, v int) bool {
		got = append(got, v)
		return true
	})
	if len(got) != 2 || got[0] != 20 || got[1] != 30 {
		t.Fatalf("expected [20 30], got %v", got)
	}
	a.Clear()
	if a.Len() != 0 {
		t.Fatalf("expected empty arena after Clear, got %d", a.Len())
	}
}
