// Package viewport maps points between world space and the pixel space of a
// single viewport snapshot.
//
// Screen coordinates have their origin at the bottom-left corner of the
// viewport and grow right and up, bounded by [0,Width]x[0,Height].
package viewport

import (
	"errors"
	"fmt"

	"github.com/taigrr/viewnudge/pkg/math3d"
)

// State is a read-only snapshot of a viewport: the camera it looks through
// and the matrices that map world space to its pixels.
// It is a plain value; copying it is taking a snapshot.
type State struct {
	Name   string // Viewport name as known to the host
	Camera string // Node id of the camera the viewport looks through

	Eye       math3d.Vec3 // Camera eye point in world space
	Direction math3d.Vec3 // Normalized camera view direction in world space

	View       math3d.Mat4 // World to camera space
	Projection math3d.Mat4 // Camera to clip space

	Width  int // Pixels
	Height int // Pixels
}

var (
	// ErrInvalidState is returned for snapshots that cannot map any point.
	ErrInvalidState = errors.New("invalid viewport state")

	// ErrBehindCamera is returned when a point is behind or edge-on to the
	// camera and so has no screen position.
	ErrBehindCamera = errors.New("point is behind the camera")

	// ErrDegenerateMatrix is returned when the view-projection cannot be
	// inverted or maps a point to infinity.
	ErrDegenerateMatrix = errors.New("degenerate view-projection matrix")
)

// ViewProjection returns the combined world to clip matrix.
func (s State) ViewProjection() math3d.Mat4 {
	return s.Projection.Mul(s.View)
}

// Aspect returns Width / Height.
func (s State) Aspect() float64 {
	if s.Height == 0 {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

// Validate checks that the snapshot can be used for projection.
func (s State) Validate() error {
	switch {
	case s.Width <= 0 || s.Height <= 0:
		return fmt.Errorf("%w: viewport size %dx%d", ErrInvalidState, s.Width, s.Height)
	case !s.Eye.IsFinite():
		return fmt.Errorf("%w: eye point %v", ErrInvalidState, s.Eye)
	case !s.Direction.IsFinite() || s.Direction.LenSq() == 0:
		return fmt.Errorf("%w: view direction %v", ErrInvalidState, s.Direction)
	case !s.View.IsFinite() || !s.Projection.IsFinite():
		return fmt.Errorf("%w: non-finite matrix", ErrInvalidState)
	}
	return nil
}

// Look builds a snapshot for a perspective camera at eye looking at center,
// with a Y-up world.
func Look(eye, center math3d.Vec3, fovy, near, far float64, width, height int) State {
	s := State{
		Eye:       eye,
		Direction: center.Sub(eye).Normalize(),
		View:      math3d.LookAt(eye, center, math3d.Up()),
		Width:     width,
		Height:    height,
	}
	s.Projection = math3d.Perspective(fovy, s.Aspect(), near, far)
	return s
}
