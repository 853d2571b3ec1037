package physics

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

type memoryBody struct {
	scene *memoryScene
	id    uint64
	spec  BodySpec
}

func (b *memoryBody) Terminate() {
	b.scene.mu.Lock()
	defer b.scene.mu.Unlock()
	if _, ok := b.scene.live[b.id]; !ok {
		b.scene.doubleTerminations++
		return
	}
	delete(b.scene.live, b.id)
}

type memoryScene struct {
	mu                 *sync.Mutex
	nextID             uint64
	live               map[uint64]*memoryBody
	created            int
	doubleTerminations int
}

// MemoryScene is a Scene that only tracks bodies. It backs headless runs and tests.
type MemoryScene interface {
	Scene

	// LiveBodies returns the number of bodies created and not yet terminated.
	LiveBodies() int

	// Created returns the total number of bodies ever created.
	Created() int

	// DoubleTerminations returns how many times an already terminated body was terminated again.
	DoubleTerminations() int

	// Positions returns the world translation of every live body.
	Positions() []mgl32.Vec3

	// InstanceIndices returns the instance index of every live body.
	InstanceIndices() []int
}

var _ MemoryScene = &memoryScene{}

// NewMemoryScene creates an empty MemoryScene.
func NewMemoryScene() MemoryScene {
	return &memoryScene{
		mu:   &sync.Mutex{},
		live: make(map[uint64]*memoryBody),
	}
}

func (s *memoryScene) InitStaticBodies(specs []BodySpec) []Body {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Body, len(specs))
	for i, spec := range specs {
		s.nextID++
		b := &memoryBody{scene: s, id: s.nextID, spec: spec}
		s.live[b.id] = b
		out[i] = b
	}
	s.created += len(specs)
	return out
}

func (s *memoryScene) LiveBodies() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *memoryScene) Created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created
}

func (s *memoryScene) DoubleTerminations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doubleTerminations
}

func (s *memoryScene) Positions() []mgl32.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mgl32.Vec3, 0, len(s.live))
	for _, b := range s.live {
		out = append(out, b.spec.Transform.Col(3).Vec3())
	}
	return out
}

func (s *memoryScene) InstanceIndices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.live))
	for _, b := range s.live {
		out = append(out, b.spec.InstanceIndex)
	}
	return out
}
