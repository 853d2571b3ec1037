// Package physics defines the contract between instanced mesh components and a physics engine.
// Components create one static body per instance in an enabled region and own those bodies exclusively.
package physics

import "github.com/go-gl/mathgl/mgl32"

// BodySpec describes one static body to create.
type BodySpec struct {
	// Transform is the world transform of the instance.
	Transform mgl32.Mat4
	// InstanceIndex is the unbuilt index of the instance the body belongs to.
	InstanceIndex int
}

// Body is a live static body.
type Body interface {
	// Terminate removes the body from the physics scene. Called exactly once.
	Terminate()
}

// Scene creates static bodies.
type Scene interface {
	// InitStaticBodies creates one body per spec.
	//
	// Parameters:
	//   - specs: bodies to create
	//
	// Returns:
	//   - []Body: the created bodies, in spec order
	InitStaticBodies(specs []BodySpec) []Body
}
