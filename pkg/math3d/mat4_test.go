package math3d

import (
	"math"
	"testing"
)

func matApproxEqual(a, b Mat4, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

func TestMat4Inverse(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"identity", Identity()},
		{"translate", Translate(V3(1, -2, 3))},
		{"rotate scale translate", Translate(V3(1, 2, 3)).Mul(RotateY(0.5)).Mul(Scale(V3(2, 3, 4)))},
		{"look at", LookAt(V3(3, 4, 10), V3(0, 0, 0), Up())},
		{"perspective view", Perspective(math.Pi/3, 16.0/9.0, 0.1, 1000).Mul(LookAt(V3(0, 0, 10), V3(0, 0, 0), Up()))},
		{"orthographic", Orthographic(-10, 10, -5, 5, 0.1, 100)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inv, ok := tc.m.Inverse()
			if !ok {
				t.Fatalf("Inverse() reported singular for %v", tc.m)
			}
			if got := tc.m.Mul(inv); !matApproxEqual(got, Identity(), 1e-9) {
				t.Errorf("m * inv = %v, want identity", got)
			}
			if got := inv.Mul(tc.m); !matApproxEqual(got, Identity(), 1e-9) {
				t.Errorf("inv * m = %v, want identity", got)
			}
		})
	}
}

func TestMat4InverseSingular(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"zero", Mat4{}},
		{"flattened", Scale(V3(1, 0, 1))},
		{"duplicate rows", Mat4{
			1, 1, 0, 0,
			2, 2, 0, 0,
			3, 3, 1, 0,
			4, 4, 0, 1,
		}},
		{"nan", Mat4{math.NaN(), 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inv, ok := tc.m.Inverse()
			if ok {
				t.Fatalf("Inverse() = %v, want singular", inv)
			}
			if inv != Identity() {
				t.Errorf("singular inverse = %v, want identity", inv)
			}
		})
	}
}

func TestMat4SingularIsScaleInvariant(t *testing.T) {
	// A huge orthographic volume has a tiny determinant but is well conditioned.
	m := Orthographic(-1e4, 1e4, -1e4, 1e4, 1, 1e6)
	if m.IsSingular() {
		t.Fatalf("IsSingular() = true for large orthographic volume (det %g)", m.Determinant())
	}
}

func TestMat4Determinant(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		want float64
	}{
		{"identity", Identity(), 1},
		{"scale", Scale(V3(2, 3, 4)), 24},
		{"rotation", RotateX(0.7).Mul(RotateY(1.1)), 1},
		{"translation", Translate(V3(5, 6, 7)), 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.m.Determinant(); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Determinant() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMat4GetSet(t *testing.T) {
	m := Translate(V3(1, 2, 3))
	if got := m.Get(0, 3); got != 1 {
		t.Errorf("Get(0,3) = %v, want 1", got)
	}
	if got := m.Get(2, 3); got != 3 {
		t.Errorf("Get(2,3) = %v, want 3", got)
	}
	m.Set(3, 2, 9)
	if m[11] != 9 {
		t.Errorf("Set(3,2) wrote m[11] = %v, want 9", m[11])
	}
	if got := m.Translation(); got != V3(1, 2, 3) {
		t.Errorf("Translation() = %v, want (1, 2, 3)", got)
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	eye := V3(2, 3, 10)
	view := LookAt(eye, V3(0, 0, 0), Up())

	if got := view.MulVec3(eye); !got.ApproxEqual(V3(0, 0, 0), 1e-9) {
		t.Errorf("view * eye = %v, want origin", got)
	}

	// The look-at target lies on the camera's -Z axis.
	got := view.MulVec3(V3(0, 0, 0))
	if math.Abs(got.X) > 1e-9 || math.Abs(got.Y) > 1e-9 || got.Z >= 0 {
		t.Errorf("view * center = %v, want point on -Z axis", got)
	}
}

func TestPerspectiveDivide(t *testing.T) {
	p, ok := V4(2, 4, 6, 2).PerspectiveDivide(1e-12)
	if !ok || p != V3(1, 2, 3) {
		t.Errorf("PerspectiveDivide() = %v, %v; want (1, 2, 3), true", p, ok)
	}

	p, ok = V4(2, 4, 6, 1e-15).PerspectiveDivide(1e-12)
	if ok {
		t.Errorf("PerspectiveDivide() near-zero w = %v, true; want false", p)
	}
}
