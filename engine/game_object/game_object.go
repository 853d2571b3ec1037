package game_object

import (
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

type gameObject struct {
	id             uint64
	enabled        atomic.Bool
	assetID        string
	transform      mgl32.Mat4
	instanceRandom float32
	lifespan       time.Duration
	spawnedAt      time.Time
}

// GameObject defines the interface for a standalone object that replaced an instance,
// e.g. a tree turned into a physics-driven actor after its ground was dug away.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Enabled returns whether this object is enabled for rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// AssetID returns the identity of the mesh asset the object renders.
	//
	// Returns:
	//   - string: the asset identity
	AssetID() string

	// Transform returns the object's world transform.
	//
	// Returns:
	//   - mgl32.Mat4: the world transform
	Transform() mgl32.Mat4

	// Position returns the translation of the world transform.
	//
	// Returns:
	//   - x, y, z: position components
	Position() (x, y, z float32)

	// Scale returns the length of each basis vector of the world transform.
	//
	// Returns:
	//   - sx, sy, sz: scale components
	Scale() (sx, sy, sz float32)

	// InstanceRandom returns the per-instance random value carried over from the instance,
	// so material variation stays the same after conversion.
	//
	// Returns:
	//   - float32: the random value
	InstanceRandom() float32

	// Lifespan returns how long the object lives after spawning. Zero means forever.
	//
	// Returns:
	//   - time.Duration: the lifespan
	Lifespan() time.Duration

	// SpawnedAt returns when the object was spawned.
	//
	// Returns:
	//   - time.Time: the spawn time
	SpawnedAt() time.Time

	// Expired reports whether the lifespan has elapsed at now.
	//
	// Parameters:
	//   - now: the current time
	//
	// Returns:
	//   - bool: true if the object should be removed
	Expired(now time.Time) bool

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// SetEnabled sets whether the object is enabled for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetTransform replaces the world transform.
	//
	// Parameters:
	//   - m: the new world transform
	SetTransform(m mgl32.Mat4)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new GameObject configured with the given options.
// Objects start enabled with an identity transform.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		transform: mgl32.Ident4(),
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) AssetID() string {
	return g.assetID
}

func (g *gameObject) Transform() mgl32.Mat4 {
	return g.transform
}

func (g *gameObject) Position() (x, y, z float32) {
	return g.transform[12], g.transform[13], g.transform[14]
}

func (g *gameObject) Scale() (sx, sy, sz float32) {
	return g.transform.Col(0).Vec3().Len(), g.transform.Col(1).Vec3().Len(), g.transform.Col(2).Vec3().Len()
}

func (g *gameObject) InstanceRandom() float32 {
	return g.instanceRandom
}

func (g *gameObject) Lifespan() time.Duration {
	return g.lifespan
}

func (g *gameObject) SpawnedAt() time.Time {
	return g.spawnedAt
}

func (g *gameObject) Expired(now time.Time) bool {
	return g.lifespan > 0 && !now.Before(g.spawnedAt.Add(g.lifespan))
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetTransform(m mgl32.Mat4) {
	g.transform = m
}
