package math3d

import (
	"math"
	"testing"
)

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Translate(V3(1, 2, 3))
	m2 := RotateY(0.5)

	for b.Loop() {
		_ = m1.Mul(m2)
	}
}

func BenchmarkMat4MulVec4(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5))
	v := V4(1, 2, 3, 1)

	for b.Loop() {
		_ = m.MulVec4(v)
	}
}

func BenchmarkMat4Inverse(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5)).Mul(Scale(V3(2, 2, 2)))

	for b.Loop() {
		_, _ = m.Inverse()
	}
}

func BenchmarkViewProjectionInverse(b *testing.B) {
	view := LookAt(V3(0, 0, 10), V3(0, 0, 0), Up())
	proj := Perspective(math.Pi/3, 16.0/9.0, 0.1, 1000)

	for b.Loop() {
		_, _ = proj.Mul(view).Inverse()
	}
}

func BenchmarkVec3AngleTo(b *testing.B) {
	v1 := V3(1, 2, 3)
	v2 := V3(4, 5, 6)

	for b.Loop() {
		_ = v1.AngleTo(v2)
	}
}
