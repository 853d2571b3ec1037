package build_task

import "sync/atomic"

type queueNode[T any] struct {
	next  atomic.Pointer[queueNode[T]]
	value T
}

// ResultQueue is an unbounded lock-free multi-producer single-consumer queue.
// Push may be called from any goroutine; Pop must only be called by the owner.
type ResultQueue[T any] struct {
	head atomic.Pointer[queueNode[T]]
	tail *queueNode[T]
	size atomic.Int64
}

// NewResultQueue creates an empty queue.
//
// Returns:
//   - *ResultQueue[T]: the queue
func NewResultQueue[T any]() *ResultQueue[T] {
	stub := &queueNode[T]{}
	q := &ResultQueue[T]{tail: stub}
	q.head.Store(stub)
	return q
}

// Push enqueues v. Safe for concurrent producers.
//
// Parameters:
//   - v: the value to enqueue
func (q *ResultQueue[T]) Push(v T) {
	n := &queueNode[T]{value: v}
	prev := q.head.Swap(n)
	prev.next.Store(n)
	q.size.Add(1)
}

// Pop dequeues the oldest value. Only the owning goroutine may call Pop.
//
// Returns:
//   - T: the dequeued value
//   - bool: false if the queue was empty (or a producer is mid-push)
func (q *ResultQueue[T]) Pop() (T, bool) {
	var zero T
	next := q.tail.next.Load()
	if next == nil {
		return zero, false
	}
	q.tail = next
	v := next.value
	next.value = zero
	q.size.Add(-1)
	return v, true
}

// Len returns an approximate number of queued values.
func (q *ResultQueue[T]) Len() int {
	return int(q.size.Load())
}
