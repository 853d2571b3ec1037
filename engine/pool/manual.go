package pool

import (
	"slices"
	"sync"
)

type manualJob struct {
	priority Priority
	seq      uint64
	job      func()
}

type manual struct {
	mu   *sync.Mutex
	jobs []manualJob
	seq  uint64
}

// Manual is a Pool whose jobs only run when the caller steps it. Jobs run in priority order,
// FIFO within a priority.
type Manual interface {
	Pool

	// RunNext runs the highest priority pending job.
	//
	// Returns:
	//   - bool: false if nothing was pending
	RunNext() bool

	// RunPending runs every pending job, including jobs submitted while running.
	//
	// Returns:
	//   - int: number of jobs run
	RunPending() int

	// Pending returns the number of queued jobs.
	Pending() int

	// Discard drops every pending job without running it.
	//
	// Returns:
	//   - int: number of jobs dropped
	Discard() int
}

var _ Manual = &manual{}

// NewManual creates an empty Manual pool.
func NewManual() Manual {
	return &manual{mu: &sync.Mutex{}}
}

func (m *manual) Submit(priority Priority, job func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.jobs = append(m.jobs, manualJob{priority: priority, seq: m.seq, job: job})
}

func (m *manual) pop() (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.jobs) == 0 {
		return nil, false
	}
	best := 0
	for i, j := range m.jobs {
		b := m.jobs[best]
		if j.priority > b.priority || (j.priority == b.priority && j.seq < b.seq) {
			best = i
		}
	}
	job := m.jobs[best].job
	m.jobs = slices.Delete(m.jobs, best, best+1)
	return job, true
}

func (m *manual) RunNext() bool {
	job, ok := m.pop()
	if !ok {
		return false
	}
	job()
	return true
}

func (m *manual) RunPending() int {
	n := 0
	for m.RunNext() {
		n++
	}
	return n
}

func (m *manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *manual) Discard() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.jobs)
	m.jobs = nil
	return n
}
