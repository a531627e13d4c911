package nudge

import "errors"

var (
	// ErrInvalidTarget is returned when the target node is missing or is not
	// a transform.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrInvalidView is returned when the requested view does not resolve to
	// a usable viewport.
	ErrInvalidView = errors.New("invalid view")

	// ErrProjectionFailure is returned when the target has no screen position
	// (behind or edge-on to the camera). Nothing is mutated.
	ErrProjectionFailure = errors.New("target cannot be projected")

	// ErrDegenerateMatrix is returned when the viewport's view-projection
	// matrix cannot be inverted. Nothing is mutated.
	ErrDegenerateMatrix = errors.New("degenerate view-projection")
)
