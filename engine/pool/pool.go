// Package pool adapts worker pools for background build tasks. The engine only relies on the
// submission contract: a submitted job runs exactly once, on some goroutine, eventually.
package pool

import (
	"fmt"
	"log"
	"runtime/debug"
)

// Priority orders queued jobs in pools that honour it.
type Priority int

const (
	// PriorityNormal is used for debounced builds.
	PriorityNormal Priority = iota
	// PriorityHigh is used for explicit rebuilds.
	PriorityHigh
)

// Pool runs submitted jobs in the background.
type Pool interface {
	// Submit schedules a job. It must not run the job on the caller's goroutine unless the pool is
	// explicitly synchronous (Inline).
	//
	// Parameters:
	//   - priority: scheduling hint
	//   - job: the work to run
	Submit(priority Priority, job func())
}

// Submitter is a Pool that may refuse work without blocking.
type Submitter interface {
	// TrySubmit schedules a job if capacity allows.
	//
	// Parameters:
	//   - priority: scheduling hint
	//   - job: the work to run
	//
	// Returns:
	//   - bool: false if the job was not accepted and the caller should retry later
	TrySubmit(priority Priority, job func()) bool
}

// Guard wraps job so a panic is recovered and reported to onPanic instead of crashing the worker.
//
// Parameters:
//   - job: the work to run
//   - onPanic: receives the recovered value as an error; may be nil
//
// Returns:
//   - func(): the guarded job
func Guard(job func(), onPanic func(err error)) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("pool: job panicked: %v", r)
				log.Printf("[Pool] %v\n%s", err, debug.Stack())
				if onPanic != nil {
					onPanic(err)
				}
			}
		}()
		job()
	}
}

type unbounded struct {
	p Pool
}

// Unbounded adapts a Pool into a Submitter that always accepts.
//
// Parameters:
//   - p: the underlying pool
//
// Returns:
//   - Submitter: the adapter
func Unbounded(p Pool) Submitter {
	return &unbounded{p: p}
}

func (u *unbounded) TrySubmit(priority Priority, job func()) bool {
	u.p.Submit(priority, job)
	return true
}
