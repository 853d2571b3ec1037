// Package arena provides a generational slot arena. Handles stay cheap to copy and
// become stale, instead of dangling, once their slot is reused.
package arena

// Handle identifies a slot in an Arena. The zero Handle is never issued.
type Handle struct {
	Index      uint32
	Generation uint32
}

// IsValid reports whether the handle was ever issued by an arena.
// It does not check whether the slot is still live; use Arena.Contains for that.
func (h Handle) IsValid() bool {
	return h.Generation != 0
}

type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

type arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// Arena stores values addressed by generational handles.
// It is not safe for concurrent use; callers own synchronisation.
type Arena[T any] interface {
	// Insert stores a value and returns its handle.
	//
	// Parameters:
	//   - v: the value to store
	//
	// Returns:
	//   - Handle: handle addressing the new slot
	Insert(v T) Handle

	// Get returns the value stored under the handle.
	//
	// Parameters:
	//   - h: the handle to resolve
	//
	// Returns:
	//   - T: the stored value, or the zero value if stale
	//   - bool: false if the handle is stale or was never issued
	Get(h Handle) (T, bool)

	// Set replaces the value stored under a live handle.
	//
	// Parameters:
	//   - h: the handle to update
	//   - v: the new value
	//
	// Returns:
	//   - bool: false if the handle is stale
	Set(h Handle, v T) bool

	// Remove frees the slot addressed by the handle. Every copy of the handle becomes stale.
	//
	// Parameters:
	//   - h: the handle to free
	//
	// Returns:
	//   - T: the removed value
	//   - bool: false if the handle was already stale
	Remove(h Handle) (T, bool)

	// Contains reports whether the handle addresses a live slot.
	Contains(h Handle) bool

	// Len returns the number of live slots.
	Len() int

	// Range calls fn for each live slot in index order until fn returns false.
	Range(fn func(h Handle, v T) bool)

	// Clear frees every slot. Outstanding handles become stale.
	Clear()
}

var _ Arena[int] = &arena[int]{}

// New creates an empty Arena.
//
// Parameters:
//   - capacity: initial slot capacity hint
//
// Returns:
//   - Arena[T]: the arena
func New[T any](capacity int) Arena[T] {
	return &arena[T]{
		slots: make([]slot[T], 0, capacity),
	}
}

func (a *arena[T]) Insert(v T) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}
	s := &a.slots[idx]
	s.generation++
	if s.generation == 0 {
		// wrapped; generation 0 marks "never issued"
		s.generation = 1
	}
	s.value = v
	s.live = true
	a.count++
	return Handle{Index: idx, Generation: s.generation}
}

func (a *arena[T]) lookup(h Handle) *slot[T] {
	if h.Generation == 0 || int(h.Index) >= len(a.slots) {
		return nil
	}
	s := &a.slots[h.Index]
	if !s.live || s.generation != h.Generation {
		return nil
	}
	return s
}

func (a *arena[T]) Get(h Handle) (T, bool) {
	if s := a.lookup(h); s != nil {
		return s.value, true
	}
	var zero T
	return zero, false
}

func (a *arena[T]) Set(h Handle, v T) bool {
	s := a.lookup(h)
	if s == nil {
		return false
	}
	s.value = v
	return true
}

func (a *arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	s := a.lookup(h)
	if s == nil {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.live = false
	a.free = append(a.free, h.Index)
	a.count--
	return v, true
}

func (a *arena[T]) Contains(h Handle) bool {
	return a.lookup(h) != nil
}

func (a *arena[T]) Len() int {
	return a.count
}

func (a *arena[T]) Range(fn func(h Handle, v T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.live {
			continue
		}
		if !fn(Handle{Index: uint32(i), Generation: s.generation}, s.value) {
			return
		}
	}
}

func (a *arena[T]) Clear() {
	var zero T
	a.free = a.free[:0]
	for i := len(a.slots) - 1; i >= 0; i-- {
		s := &a.slots[i]
		s.value = zero
		s.live = false
		a.free = append(a.free, uint32(i))
	}
	a.count = 0
}
