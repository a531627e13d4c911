package math3d

import "math"

// Vec4 represents a homogeneous 3D point.
type Vec4 struct {
	X, Y, Z, W float64
}

// V4 creates a new Vec4.
func V4(x, y, z, w float64) Vec4 {
	return Vec4{x, y, z, w}
}

// V4FromV3 creates a Vec4 from Vec3 with specified W.
func V4FromV3(v Vec3, w float64) Vec4 {
	return Vec4{v.X, v.Y, v.Z, w}
}

// PerspectiveDivide returns the cartesian point v/W.
// ok is false when |W| is below eps, in which case the point is at infinity
// and the returned value is the undivided Vec3.
func (v Vec4) PerspectiveDivide(eps float64) (p Vec3, ok bool) {
	if math.Abs(v.W) < eps {
		return Vec3{v.X, v.Y, v.Z}, false
	}
	return Vec3{v.X / v.W, v.Y / v.W, v.Z / v.W}, true
}

// Scale returns the scalar product.
func (v Vec4) Scale(s float64) Vec4 {
	return Vec4{v.X * s, v.Y * s, v.Z * s, v.W * s}
}
