package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestBuildModelMatrixMatchesComposedTransform(t *testing.T) {
	pos := mgl32.Vec3{3, -2, 7}
	rot := mgl32.Vec3{0.3, 1.1, -0.4}
	scale := mgl32.Vec3{2, 0.5, 1.5}

	want := mgl32.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(mgl32.HomogRotate3DY(rot[1])).
		Mul4(mgl32.HomogRotate3DX(rot[0])).
		Mul4(mgl32.HomogRotate3DZ(rot[2])).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
	got := BuildModelMatrix(pos, rot, scale)
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSliceToBytesViewsTheSlice(t *testing.T) {
	data := []float32{1, 2}
	b := SliceToBytes(data)
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	if bits := uint32(b[4]) | uint32(b[5])<<8 | uint32(b[6])<<16 | uint32(b[7])<<24; bits != math.Float32bits(2) {
		t.Fatalf("expected the second float in bytes 4..8")
	}
	if SliceToBytes([]float32(nil)) != nil {
		t.Fatalf("expected nil for an empty slice")
	}
}

func TestCoalesceReturnsFirstNonZero(t *testing.T) {
	if got := Coalesce(0, 0, 4, 5); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
	if got := Coalesce("", ""); got != "" {
		t.Fatalf("expected the zero value, got %q", got)
	}
}
