package pool

import "time"

// WorkerPoolBuilderOption is a functional option for configuring a WorkerPool during construction.
type WorkerPoolBuilderOption func(*workerPool)

// WithWorkers sets the number of worker goroutines.
//
// Parameters:
//   - n: worker count (values below 1 are ignored)
//
// Returns:
//   - WorkerPoolBuilderOption: functional option to set the worker count
func WithWorkers(n int) WorkerPoolBuilderOption {
	return func(p *workerPool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithQueueSize sets the capacity of the pending job queue.
// Keep it above the maximum number of concurrent builds so submission never waits.
//
// Parameters:
//   - n: queue capacity (values below 1 are ignored)
//
// Returns:
//   - WorkerPoolBuilderOption: functional option to set the queue size
func WithQueueSize(n int) WorkerPoolBuilderOption {
	return func(p *workerPool) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithIdleTimeout sets how long an idle worker lingers before exiting.
//
// Parameters:
//   - d: idle timeout
//
// Returns:
//   - WorkerPoolBuilderOption: functional option to set the idle timeout
func WithIdleTimeout(d time.Duration) WorkerPoolBuilderOption {
	return func(p *workerPool) {
		p.idleTimeout = d
	}
}
