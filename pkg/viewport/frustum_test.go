package viewport

import (
	"math"
	"testing"

	"github.com/taigrr/viewnudge/pkg/math3d"
)

func TestFrustumPlanesNormalized(t *testing.T) {
	f := frontView().Frustum()
	for i, plane := range f.Planes {
		if length := plane.Normal.Len(); math.Abs(length-1.0) > 1e-6 {
			t.Errorf("plane %d normal length = %v, want 1.0", i, length)
		}
	}
}

func TestFrustumContainsPoint(t *testing.T) {
	f := Look(math3d.V3(0, 0, 0), math3d.V3(0, 0, -1), fov60, 0.1, 100, 1600, 900).Frustum()

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected bool
	}{
		{"center near", math3d.V3(0, 0, -1), true},
		{"center mid", math3d.V3(0, 0, -50), true},
		{"center far", math3d.V3(0, 0, -99), true},
		{"behind camera", math3d.V3(0, 0, 1), false},
		{"too far", math3d.V3(0, 0, -200), false},
		{"too close", math3d.V3(0, 0, -0.01), false},
		{"off to the side", math3d.V3(50, 0, -5), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.ContainsPoint(tc.point); got != tc.expected {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.expected)
			}
		})
	}
}

func TestOnScreen(t *testing.T) {
	s := frontView()
	if !s.OnScreen(math3d.V2(0, 0)) || !s.OnScreen(math3d.V2(1920, 1080)) {
		t.Error("corners should be on screen")
	}
	if s.OnScreen(math3d.V2(-1, 5)) || s.OnScreen(math3d.V2(5, 1081)) {
		t.Error("outside points reported on screen")
	}
}
