package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testFrustum() Frustum {
	vp := ViewProjection(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, 0}, float32(math.Pi/2), 1, 0.1, 100)
	return ExtractFrustumFromMatrix(vp)
}

func TestFrustumIntersectsBoxInView(t *testing.T) {
	f := testFrustum()
	b := Box{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}}
	if !f.IntersectsBox(b) {
		t.Fatalf("expected box at the origin to be visible")
	}
	if !f.ContainsBox(b) {
		t.Fatalf("expected small box at the origin to be fully inside")
	}
}

func TestFrustumRejectsBoxesOutside(t *testing.T) {
	f := testFrustum()
	behind := Box{Min: mgl32.Vec3{-0.5, -0.5, 49.5}, Max: mgl32.Vec3{0.5, 0.5, 50.5}}
	if f.IntersectsBox(behind) {
		t.Fatalf("expected box behind the camera to be culled")
	}
	side := Box{Min: mgl32.Vec3{999, -0.5, -0.5}, Max: mgl32.Vec3{1000, 0.5, 0.5}}
	if f.IntersectsBox(side) {
		t.Fatalf("expected box far to the side to be culled")
	}
}

func TestFrustumPartialBoxIsNotContained(t *testing.T) {
	f := testFrustum()
	straddling := Box{Min: mgl32.Vec3{-1000, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}}
	if !f.IntersectsBox(straddling) {
		t.Fatalf("expected straddling box to intersect")
	}
	if f.ContainsBox(straddling) {
		t.Fatalf("expected straddling box not to be contained")
	}
}
