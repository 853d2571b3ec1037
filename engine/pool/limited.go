package pool

import (
	"golang.org/x/sync/semaphore"
)

type limited struct {
	p       Pool
	sem     *semaphore.Weighted
	maxJobs int64
}

// Limited is a Submitter that caps the number of jobs in flight. TrySubmit never blocks: when
// the cap is reached it refuses the job.
type Limited interface {
	Submitter

	// MaxInFlight returns the configured cap.
	//
	// Returns:
	//   - int64: the cap
	MaxInFlight() int64
}

var _ Limited = &limited{}

// NewLimited wraps a Pool with an in-flight cap.
// Panics if maxInFlight < 1.
//
// Parameters:
//   - p: the underlying pool
//   - maxInFlight: maximum number of jobs submitted but not finished
//
// Returns:
//   - Limited: the limiter
func NewLimited(p Pool, maxInFlight int64) Limited {
	if maxInFlight < 1 {
		panic("pool: maxInFlight must be at least 1")
	}
	return &limited{
		p:       p,
		sem:     semaphore.NewWeighted(maxInFlight),
		maxJobs: maxInFlight,
	}
}

func (l *limited) MaxInFlight() int64 {
	return l.maxJobs
}

func (l *limited) TrySubmit(priority Priority, job func()) bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.p.Submit(priority, func() {
		defer l.sem.Release(1)
		job()
	})
	return true
}
