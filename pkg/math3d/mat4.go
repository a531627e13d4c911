package math3d

import "math"

// Mat4 is a 4x4 matrix stored in column-major order, multiplying column
// vectors (OpenGL convention).
//
// Memory layout (indices):
// | 0  4  8  12 |
// | 1  5  9  13 |
// | 2  6  10 14 |
// | 3  7  11 15 |
//
// The layout is identical to mgl64.Mat4, so the two convert directly.
type Mat4 [16]float64

// singularTolerance is the smallest determinant, relative to the Hadamard
// bound of the matrix, that Inverse accepts.
const singularTolerance = 1e-12

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate creates a translation matrix.
func Translate(v Vec3) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		v.X, v.Y, v.Z, 1,
	}
}

// Scale creates a scaling matrix.
func Scale(v Vec3) Mat4 {
	return Mat4{
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
		0, 0, 0, 1,
	}
}

// RotateX creates a rotation matrix around the X axis.
func RotateX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY creates a rotation matrix around the Y axis.
func RotateY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// LookAt creates a view matrix looking from eye towards center.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

// Perspective creates a symmetric perspective projection matrix.
// fovy is the vertical field of view in radians, aspect is width/height.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	f := 1.0 / math.Tan(fovy/2)
	nf := 1.0 / (near - far)

	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}

// Orthographic creates an orthographic projection matrix.
func Orthographic(left, right, bottom, top, near, far float64) Mat4 {
	rl := 1.0 / (right - left)
	tb := 1.0 / (top - bottom)
	fn := 1.0 / (far - near)

	return Mat4{
		2 * rl, 0, 0, 0,
		0, 2 * tb, 0, 0,
		0, 0, -2 * fn, 0,
		-(right + left) * rl, -(top + bottom) * tb, -(far + near) * fn, 1,
	}
}

// Mul multiplies two matrices: a * b.
//
//nolint:st1016 // a*b naming convention is clearer for matrix multiplication
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for col := range 4 {
		for row := range 4 {
			var sum float64
			for k := range 4 {
				sum += a[row+k*4] * b[k+col*4]
			}
			m[row+col*4] = sum
		}
	}
	return m
}

// MulVec3 transforms a Vec3 as a point (w=1) and divides by the resulting w.
func (m Mat4) MulVec3(v Vec3) Vec3 {
	w := m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]
	if w == 0 {
		w = 1
	}
	return Vec3{
		(m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]) / w,
		(m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]) / w,
		(m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]) / w,
	}
}

// MulVec3Dir transforms a Vec3 as a direction (w=0, no translation).
func (m Mat4) MulVec3Dir(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z,
	}
}

// MulVec4 transforms a Vec4.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// minors returns the twelve 2x2 minors of the top and bottom row pairs.
func (m Mat4) minors() (s, c [6]float64) {
	a := func(r, col int) float64 { return m[r+col*4] }

	s[0] = a(0, 0)*a(1, 1) - a(1, 0)*a(0, 1)
	s[1] = a(0, 0)*a(1, 2) - a(1, 0)*a(0, 2)
	s[2] = a(0, 0)*a(1, 3) - a(1, 0)*a(0, 3)
	s[3] = a(0, 1)*a(1, 2) - a(1, 1)*a(0, 2)
	s[4] = a(0, 1)*a(1, 3) - a(1, 1)*a(0, 3)
	s[5] = a(0, 2)*a(1, 3) - a(1, 2)*a(0, 3)

	c[5] = a(2, 2)*a(3, 3) - a(3, 2)*a(2, 3)
	c[4] = a(2, 1)*a(3, 3) - a(3, 1)*a(2, 3)
	c[3] = a(2, 1)*a(3, 2) - a(3, 1)*a(2, 2)
	c[2] = a(2, 0)*a(3, 3) - a(3, 0)*a(2, 3)
	c[1] = a(2, 0)*a(3, 2) - a(3, 0)*a(2, 2)
	c[0] = a(2, 0)*a(3, 1) - a(3, 0)*a(2, 1)
	return s, c
}

// Determinant returns the determinant of the matrix.
func (m Mat4) Determinant() float64 {
	s, c := m.minors()
	return s[0]*c[5] - s[1]*c[4] + s[2]*c[3] + s[3]*c[2] - s[4]*c[1] + s[5]*c[0]
}

// IsSingular reports whether the matrix is too close to singular to invert
// reliably. The test is scale-invariant: the determinant is compared against
// the product of the row lengths.
func (m Mat4) IsSingular() bool {
	bound := 1.0
	for r := range 4 {
		var sq float64
		for col := range 4 {
			sq += m[r+col*4] * m[r+col*4]
		}
		bound *= math.Sqrt(sq)
	}
	if bound == 0 || !isFinite(bound) {
		return true
	}
	return math.Abs(m.Determinant())/bound < singularTolerance
}

// Inverse returns the inverse of the matrix.
// ok is false if the matrix is singular or contains non-finite values, in
// which case the returned matrix is the identity.
func (m Mat4) Inverse() (inv Mat4, ok bool) {
	if !m.IsFinite() || m.IsSingular() {
		return Identity(), false
	}

	a := func(r, col int) float64 { return m[r+col*4] }
	s, c := m.minors()
	d := 1.0 / (s[0]*c[5] - s[1]*c[4] + s[2]*c[3] + s[3]*c[2] - s[4]*c[1] + s[5]*c[0])

	inv.Set(0, 0, (a(1, 1)*c[5]-a(1, 2)*c[4]+a(1, 3)*c[3])*d)
	inv.Set(0, 1, (-a(0, 1)*c[5]+a(0, 2)*c[4]-a(0, 3)*c[3])*d)
	inv.Set(0, 2, (a(3, 1)*s[5]-a(3, 2)*s[4]+a(3, 3)*s[3])*d)
	inv.Set(0, 3, (-a(2, 1)*s[5]+a(2, 2)*s[4]-a(2, 3)*s[3])*d)

	inv.Set(1, 0, (-a(1, 0)*c[5]+a(1, 2)*c[2]-a(1, 3)*c[1])*d)
	inv.Set(1, 1, (a(0, 0)*c[5]-a(0, 2)*c[2]+a(0, 3)*c[1])*d)
	inv.Set(1, 2, (-a(3, 0)*s[5]+a(3, 2)*s[2]-a(3, 3)*s[1])*d)
	inv.Set(1, 3, (a(2, 0)*s[5]-a(2, 2)*s[2]+a(2, 3)*s[1])*d)

	inv.Set(2, 0, (a(1, 0)*c[4]-a(1, 1)*c[2]+a(1, 3)*c[0])*d)
	inv.Set(2, 1, (-a(0, 0)*c[4]+a(0, 1)*c[2]-a(0, 3)*c[0])*d)
	inv.Set(2, 2, (a(3, 0)*s[4]-a(3, 1)*s[2]+a(3, 3)*s[0])*d)
	inv.Set(2, 3, (-a(2, 0)*s[4]+a(2, 1)*s[2]-a(2, 3)*s[0])*d)

	inv.Set(3, 0, (-a(1, 0)*c[3]+a(1, 1)*c[1]-a(1, 2)*c[0])*d)
	inv.Set(3, 1, (a(0, 0)*c[3]-a(0, 1)*c[1]+a(0, 2)*c[0])*d)
	inv.Set(3, 2, (-a(3, 0)*s[3]+a(3, 1)*s[1]-a(3, 2)*s[0])*d)
	inv.Set(3, 3, (a(2, 0)*s[3]-a(2, 1)*s[1]+a(2, 2)*s[0])*d)

	if !inv.IsFinite() {
		return Identity(), false
	}
	return inv, true
}

// IsFinite reports whether no element is NaN or infinite.
func (m Mat4) IsFinite() bool {
	for _, v := range m {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

// Get returns the element at (row, col).
func (m Mat4) Get(row, col int) float64 {
	return m[row+col*4]
}

// Set sets the element at (row, col).
func (m *Mat4) Set(row, col int, val float64) {
	m[row+col*4] = val
}

// Translation extracts the translation component.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}
