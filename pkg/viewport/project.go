package viewport

import (
	"fmt"
	"math"

	"github.com/taigrr/viewnudge/pkg/math3d"
)

// MinDepth is the smallest distance along the view direction at which a point
// is still considered in front of the camera.
const MinDepth = 0.01

// wEpsilon bounds homogeneous w values treated as zero.
const wEpsilon = 1e-12

// WorldToScreen returns the pixel position of target as seen from camera.
//
// It returns ErrBehindCamera when target is less than MinDepth in front of
// the camera along the view direction, and ErrDegenerateMatrix when the
// view-projection maps it to infinity.
func WorldToScreen(s State, camera, target math3d.Vec3) (math3d.Vec2, error) {
	depth := target.Sub(camera).Dot(s.Direction)
	if depth < MinDepth {
		return math3d.Vec2{}, fmt.Errorf("%w: depth %.4g", ErrBehindCamera, depth)
	}

	clip := s.ViewProjection().MulVec4(math3d.V4FromV3(target, 1))
	if math.Abs(clip.W) < wEpsilon {
		return math3d.Vec2{}, fmt.Errorf("%w: clip w %.4g", ErrDegenerateMatrix, clip.W)
	}

	return math3d.V2(
		((clip.X/clip.W+1)/2)*float64(s.Width),
		((clip.Y/clip.W+1)/2)*float64(s.Height),
	), nil
}

// ScreenToWorld returns the world point exactly distance away from camera
// along the ray through the pixel p.
//
// The pixel is unprojected at the clip depth of the world origin, which puts
// it somewhere on the correct view ray; only the ray's direction is kept and
// the depth is then replaced by distance.
func ScreenToWorld(s State, p math3d.Vec2, camera math3d.Vec3, distance float64) (math3d.Vec3, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return math3d.Vec3{}, fmt.Errorf("%w: viewport size %dx%d", ErrInvalidState, s.Width, s.Height)
	}

	vp := s.ViewProjection()
	inv, ok := vp.Inverse()
	if !ok {
		return math3d.Vec3{}, ErrDegenerateMatrix
	}

	nx := 2*(p.X/float64(s.Width)) - 1
	ny := 2*(p.Y/float64(s.Height)) - 1

	// The translation column holds the clip z and w of the world origin.
	z, w := vp.Get(2, 3), vp.Get(3, 3)
	if math.Abs(w) < wEpsilon {
		// Origin on the camera plane: any depth on the ray will do.
		z, w = 0, 1
	}

	onRay, ok := inv.MulVec4(math3d.V4(nx*w, ny*w, z, w)).PerspectiveDivide(wEpsilon)
	if !ok {
		return math3d.Vec3{}, fmt.Errorf("%w: pixel (%g, %g) unprojects to infinity", ErrDegenerateMatrix, p.X, p.Y)
	}

	dir := onRay.Sub(camera)
	if dir.LenSq() == 0 || !dir.IsFinite() {
		return math3d.Vec3{}, fmt.Errorf("%w: pixel (%g, %g) has no view ray", ErrDegenerateMatrix, p.X, p.Y)
	}
	// A world origin behind the camera unprojects onto the far side of the
	// eye. The point is still on the view line, only the sign is wrong.
	if dir.Dot(s.Direction) < 0 {
		dir = dir.Negate()
	}

	return camera.Add(dir.Normalize().Scale(distance)), nil
}

// Depth returns the distance of target in front of camera along the view
// direction. Negative values are behind the camera.
func Depth(s State, camera, target math3d.Vec3) float64 {
	return target.Sub(camera).Dot(s.Direction)
}
