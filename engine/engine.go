package engine

import (
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-scatter/engine/profiler"
)

// Tickable is advanced once per engine tick on the engine goroutine.
type Tickable interface {
	// Tick advances the tickable to now.
	//
	// Parameters:
	//   - now: the time of the tick
	Tick(now time.Time)
}

// TickableFunc adapts a function to Tickable.
type TickableFunc func(now time.Time)

// Tick calls f(now).
func (f TickableFunc) Tick(now time.Time) {
	f(now)
}

// engine implements the Engine interface.
// Owns the fixed-rate tick loop every Tickable is advanced on.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	mu             *sync.RWMutex
	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	tickables      map[int]Tickable
	clock          func() time.Time
	lastTick       time.Time
	ticks          uint64
}

// Engine is the main entry point for the engine.
// It drives registered Tickables, such as instance managers, from a single goroutine.
type Engine interface {
	// Profiler returns the profiler the engine ticks.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler
	Profiler() *profiler.Profiler

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// If the engine is running, the change takes effect immediately.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// TickRate returns the current tick interval.
	//
	// Returns:
	//   - time.Duration: time between ticks
	TickRate() time.Duration

	// SetTickCallback registers the function called each engine tick after every Tickable.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// AddTickable registers a Tickable at the given key.
	// Tickables are ticked in ascending key order.
	//
	// Parameters:
	//   - key: the ordering key (lower ticks first)
	//   - t: the Tickable to register
	AddTickable(key int, t Tickable)

	// RemoveTickable removes the Tickable at the given key.
	//
	// Parameters:
	//   - key: the key of the Tickable to remove
	RemoveTickable(key int)

	// Tickable retrieves the Tickable registered at the given key.
	// Returns nil if none exists at that key.
	//
	// Parameters:
	//   - key: the key to look up
	//
	// Returns:
	//   - Tickable: the Tickable at the key, or nil if not found
	Tickable(key int) Tickable

	// Step runs a single tick synchronously. Meant for callers that drive their own loop.
	//
	// Parameters:
	//   - now: the time of the tick
	Step(now time.Time)

	// Ticks returns the number of ticks run so far.
	Ticks() uint64

	// Run starts the tick loop and blocks until Quit is called or a tick panics.
	Run()

	// Quit signals the tick loop to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		mu:              &sync.RWMutex{},
		tickables:       make(map[int]Tickable),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		clock:           time.Now,
	}

	for _, opt := range options {
		opt(e)
	}

	return e
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Run() {
	if !e.running.CompareAndSwap(false, true) {
		log.Printf("[Engine] run called on a running engine")
		return
	}
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleQuit()
	e.wg.Wait()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Listens for dynamic rate changes via tickRateChannel. Exits when the quit channel is closed.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] tick goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	e.mu.RLock()
	rate := e.engineTickRate
	e.mu.RUnlock()
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			e.Step(e.clock())
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.mu.Lock()
			e.engineTickRate = newRate
			e.mu.Unlock()
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

func (e *engine) Step(now time.Time) {
	e.mu.Lock()
	var dt float32
	if !e.lastTick.IsZero() {
		dt = float32(now.Sub(e.lastTick).Seconds())
	}
	e.lastTick = now
	e.ticks++
	keys := make([]int, 0, len(e.tickables))
	for k := range e.tickables {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	ordered := make([]Tickable, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, e.tickables[k])
	}
	callback := e.tickCallback
	e.mu.Unlock()

	for _, t := range ordered {
		t.Tick(now)
	}
	if callback != nil {
		callback(dt)
	}
	if e.profilingEnabled.Load() && e.profiler != nil {
		e.profiler.Tick()
	}
}

func (e *engine) Ticks() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ticks
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
		return
	}
	e.mu.Lock()
	e.engineTickRate = newRate
	e.mu.Unlock()
}

func (e *engine) TickRate() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engineTickRate
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) AddTickable(key int, t Tickable) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickables[key] = t
}

func (e *engine) RemoveTickable(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.tickables, key)
}

func (e *engine) Tickable(key int) Tickable {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tickables[key]
}
