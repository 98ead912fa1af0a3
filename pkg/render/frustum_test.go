package render

import (
	"math"
	"testing"

	"github.com/taigrr/scanline/pkg/math3d"
)

func TestPlaneDistanceToPoint(t *testing.T) {
	// Plane at Z=0, normal pointing +Z
	plane := Plane{Normal: math3d.V3(0, 0, 1), D: 0}

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected float64
	}{
		{"origin", math3d.V3(0, 0, 0), 0},
		{"in front", math3d.V3(0, 0, 5), 5},
		{"behind", math3d.V3(0, 0, -3), -3},
		{"offset XY", math3d.V3(10, -5, 2), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dist := plane.DistanceToPoint(tc.point)
			if math.Abs(dist-tc.expected) > 1e-9 {
				t.Errorf("got %v, want %v", dist, tc.expected)
			}
		})
	}
}

func TestPlaneNormalize(t *testing.T) {
	plane := Plane{Normal: math3d.V3(0, 3, 4), D: 10}
	plane.Normalize()

	if length := plane.Normal.Len(); math.Abs(length-1.0) > 1e-9 {
		t.Errorf("normalized normal length = %v, want 1.0", length)
	}
	if math.Abs(plane.Normal.Y-0.6) > 1e-9 || math.Abs(plane.Normal.Z-0.8) > 1e-9 {
		t.Errorf("normal = %v, want (0, 0.6, 0.8)", plane.Normal)
	}
	// D should be scaled too (10/5 = 2)
	if math.Abs(plane.D-2.0) > 1e-9 {
		t.Errorf("D = %v, want 2.0", plane.D)
	}
}

// testVolume matches a 60×60 frame with perspective factor 40.
func testVolume() ViewVolume {
	return NewViewVolume(40, 30, 30, DefaultNearPlane)
}

// A degenerate box tests a single point.
func TestViewVolumePointBoxes(t *testing.T) {
	v := testVolume()

	tests := []struct {
		name  string
		point math3d.Vec3
		want  bool
	}{
		{"straight ahead", math3d.V3(0, 0, -1), true},
		{"inside left edge", math3d.V3(-0.7, 0, -1), true},
		{"past left edge", math3d.V3(-0.8, 0, -1), false},
		{"past right edge", math3d.V3(0.8, 0, -1), false},
		{"above", math3d.V3(0, 0.8, -1), false},
		{"below", math3d.V3(0, -0.8, -1), false},
		{"behind", math3d.V3(0, 0, 1), false},
		{"closer than near plane", math3d.V3(0, 0, -0.05), false},
		{"far away", math3d.V3(0, 0, -1e6), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := v.IntersectAABB(AABB{Min: tc.point, Max: tc.point}); got != tc.want {
				t.Errorf("IntersectAABB(point %v) = %v, want %v", tc.point, got, tc.want)
			}
		})
	}
}

func TestViewVolumeIntersectAABB(t *testing.T) {
	v := testVolume()

	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"ahead", AABB{Min: math3d.V3(-1, -1, -6), Max: math3d.V3(1, 1, -4)}, true},
		{"straddles camera", AABB{Min: math3d.V3(-1, -1, -1), Max: math3d.V3(1, 1, 1)}, true},
		{"behind", AABB{Min: math3d.V3(-1, -1, 4), Max: math3d.V3(1, 1, 6)}, false},
		{"far left", AABB{Min: math3d.V3(-20, -1, -6), Max: math3d.V3(-10, 1, -4)}, false},
		{"far above", AABB{Min: math3d.V3(-1, 10, -6), Max: math3d.V3(1, 20, -4)}, false},
		{"inside near plane", AABB{Min: math3d.V3(-1, -1, -0.05), Max: math3d.V3(1, 1, -0.01)}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := v.IntersectAABB(tc.box); got != tc.want {
				t.Errorf("IntersectAABB(%v) = %v, want %v", tc.box, got, tc.want)
			}
		})
	}
}

func TestBoundPoints(t *testing.T) {
	b := BoundPoints([]math3d.Vec3{
		math3d.V3(1, -2, 3),
		math3d.V3(-4, 5, 0),
		math3d.V3(0, 0, -6),
	})
	if b.Min != math3d.V3(-4, -2, -6) || b.Max != math3d.V3(1, 5, 3) {
		t.Errorf("BoundPoints = %v", b)
	}
	if (BoundPoints(nil) != AABB{}) {
		t.Error("BoundPoints(nil) should be the zero box")
	}
}

func BenchmarkAABBIntersection(b *testing.B) {
	v := testVolume()
	visible := AABB{Min: math3d.V3(-1, -1, -6), Max: math3d.V3(1, 1, -4)}
	hidden := AABB{Min: math3d.V3(-1, -1, 4), Max: math3d.V3(1, 1, 6)}

	for b.Loop() {
		_ = v.IntersectAABB(visible)
		_ = v.IntersectAABB(hidden)
	}
}
