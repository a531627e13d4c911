package nudge

import (
	"errors"
	"fmt"

	"github.com/taigrr/viewnudge/pkg/math3d"
	"github.com/taigrr/viewnudge/pkg/viewport"
)

// Displacement is the world-space answer to "move this point by (dx, dy)
// pixels at its current depth".
//
// X and Y are solved independently, each holding the other pixel coordinate
// fixed, so a diagonal nudge is the sum of an x-only and a y-only nudge.
type Displacement struct {
	Target   math3d.Vec3 // Target position the solve started from
	Screen   math3d.Vec2 // Target's pixel position before the move
	Distance float64     // Camera to target distance, held for both solves

	// DestX and DestY are absolute destination points: where the target
	// would have to be to appear dx (or dy) pixels away.
	DestX math3d.Vec3
	DestY math3d.Vec3
}

// DeltaX returns the relative move that takes the target to DestX.
func (d Displacement) DeltaX() math3d.Vec3 {
	return d.DestX.Sub(d.Target)
}

// DeltaY returns the relative move that takes the target to DestY.
func (d Displacement) DeltaY() math3d.Vec3 {
	return d.DestY.Sub(d.Target)
}

// Total returns the combined relative move of both axes.
func (d Displacement) Total() math3d.Vec3 {
	return d.DeltaX().Add(d.DeltaY())
}

// Solve computes the displacement of target for a pixel offset in the
// viewport snapshot s, as seen from the snapshot's eye point.
func Solve(s viewport.State, target math3d.Vec3, offset math3d.Vec2) (Displacement, error) {
	camera := s.Eye
	d := Displacement{
		Target:   target,
		Distance: target.Distance(camera),
	}

	screen, err := viewport.WorldToScreen(s, camera, target)
	if err != nil {
		return d, classify(err)
	}
	d.Screen = screen

	// An axis without offset stays exactly at the target.
	d.DestX, d.DestY = target, target
	if offset.X != 0 {
		d.DestX, err = viewport.ScreenToWorld(s, math3d.V2(screen.X+offset.X, screen.Y), camera, d.Distance)
		if err != nil {
			return d, classify(err)
		}
	}
	if offset.Y != 0 {
		d.DestY, err = viewport.ScreenToWorld(s, math3d.V2(screen.X, screen.Y+offset.Y), camera, d.Distance)
		if err != nil {
			return d, classify(err)
		}
	}
	return d, nil
}

// classify maps projection errors onto this package's error kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, viewport.ErrBehindCamera):
		return fmt.Errorf("%w: %w", ErrProjectionFailure, err)
	case errors.Is(err, viewport.ErrDegenerateMatrix):
		return fmt.Errorf("%w: %w", ErrDegenerateMatrix, err)
	case errors.Is(err, viewport.ErrInvalidState):
		return fmt.Errorf("%w: %w", ErrInvalidView, err)
	}
	return err
}
