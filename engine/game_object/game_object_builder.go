package game_object

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject.
//
// Parameters:
//   - id: unique identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.id = id
	}
}

// WithEnabled sets whether the GameObject is enabled for rendering.
//
// Parameters:
//   - enabled: true to render the object, false to skip it
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithAssetID sets the mesh asset the GameObject renders.
//
// Parameters:
//   - id: the asset identity
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the asset
func WithAssetID(id string) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.assetID = id
	}
}

// WithTransform sets the world transform of the GameObject.
//
// Parameters:
//   - m: the world transform
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the transform
func WithTransform(m mgl32.Mat4) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.transform = m
	}
}

// WithInstanceRandom sets the per-instance random value.
//
// Parameters:
//   - r: the random value in [0, 1)
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the random value
func WithInstanceRandom(r float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.instanceRandom = r
	}
}

// WithLifespan sets how long the GameObject lives after spawnedAt. Zero means forever.
//
// Parameters:
//   - lifespan: the lifespan
//   - spawnedAt: the spawn time
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the lifespan
func WithLifespan(lifespan time.Duration, spawnedAt time.Time) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.lifespan = lifespan
		obj.spawnedAt = spawnedAt
	}
}
