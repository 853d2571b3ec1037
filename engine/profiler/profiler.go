package profiler

import (
	"log"
	"runtime"
	"sync"
	"time"
)

// BuildStats summarises cluster builds applied during one profiling window.
type BuildStats struct {
	Builds         int
	Instances      int
	TotalBuildTime time.Duration
	MaxBuildTime   time.Duration
}

// MeanBuildTime returns the average build duration, or zero without builds.
func (s BuildStats) MeanBuildTime() time.Duration {
	if s.Builds == 0 {
		return 0
	}
	return s.TotalBuildTime / time.Duration(s.Builds)
}

// Profiler tracks tick rate, build throughput and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	mu             *sync.Mutex
	tickCount      int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	builds         BuildStats
	last           BuildStats
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		mu:             &sync.Mutex{},
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// SetUpdateInterval changes how often Tick logs.
//
// Parameters:
//   - d: the logging interval
func (p *Profiler) SetUpdateInterval(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updateInterval = d
}

// RecordBuild accounts one applied cluster build.
//
// Parameters:
//   - d: time the build task took on its worker
//   - numInstances: number of instances in the build
func (p *Profiler) RecordBuild(d time.Duration, numInstances int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.builds.Builds++
	p.builds.Instances += numInstances
	p.builds.TotalBuildTime += d
	p.builds.MaxBuildTime = max(p.builds.MaxBuildTime, d)
}

// LastWindow returns the build statistics of the last completed logging window.
//
// Returns:
//   - BuildStats: the statistics
func (p *Profiler) LastWindow() BuildStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Tick should be called once per engine tick.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: TPS, builds/s, mean and max build time, instances built, heap usage,
// allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tickCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}
	seconds := max(elapsed.Seconds(), 1e-9)
	tps := float64(p.tickCount) / seconds
	buildsPerSecond := float64(p.builds.Builds) / seconds

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / seconds

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	log.Printf("[Profiler] TPS: %.2f | Builds: %.2f/s (mean %.2f ms, max %.2f ms, %d instances) | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		tps, buildsPerSecond,
		float64(p.builds.MeanBuildTime().Microseconds())/1000, float64(p.builds.MaxBuildTime.Microseconds())/1000, p.builds.Instances,
		allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.tickCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.last = p.builds
	p.builds = BuildStats{}
	return true
}
