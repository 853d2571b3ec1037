package pool

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

type workerPool struct {
	workers     int
	queueSize   int
	idleTimeout time.Duration
	pool        worker.DynamicWorkerPool
	nextID      atomic.Int64
}

// WorkerPool runs jobs on a bounded set of reusable goroutines.
// Priority is advisory only: the underlying queue is FIFO.
type WorkerPool interface {
	Pool

	// Workers returns the configured worker count.
	//
	// Returns:
	//   - int: the number of workers
	Workers() int
}

var _ WorkerPool = &workerPool{}

// NewWorkerPool creates a WorkerPool backed by a dynamic worker pool.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - WorkerPool: the pool
func NewWorkerPool(options ...WorkerPoolBuilderOption) WorkerPool {
	p := &workerPool{
		workers:     max(runtime.NumCPU()-1, 1),
		queueSize:   256,
		idleTimeout: 1 * time.Second,
	}
	for _, option := range options {
		option(p)
	}
	p.pool = worker.NewDynamicWorkerPool(p.workers, p.queueSize, p.idleTimeout)
	return p
}

func (p *workerPool) Workers() int {
	return p.workers
}

func (p *workerPool) Submit(_ Priority, job func()) {
	guarded := Guard(job, nil)
	p.pool.SubmitTask(worker.Task{
		ID: int(p.nextID.Add(1)),
		Do: func() (any, error) {
			guarded()
			return nil, nil
		},
	})
}
