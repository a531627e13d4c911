package nudge

import (
	"github.com/taigrr/viewnudge/pkg/math3d"
	"github.com/taigrr/viewnudge/pkg/viewport"
)

// ViewportProvider gives access to the host's viewports.
type ViewportProvider interface {
	// ActiveView returns a snapshot of the viewport that has focus.
	ActiveView() (viewport.State, error)
	// ViewByName returns a snapshot of the named viewport.
	ViewByName(name string) (viewport.State, error)
	// CameraForView returns the id of the camera node the viewport looks through.
	CameraForView(state viewport.State) (string, error)
}

// SceneAccessor reads and mutates the host's scene graph.
//
// Mutations between BeginUndoChunk and EndUndoChunk must undo as one step.
type SceneAccessor interface {
	NodeExists(id string) bool
	NodeIsTransform(id string) bool

	// WorldPosition returns the world-space translation of a transform node.
	WorldPosition(id string) (math3d.Vec3, error)

	BeginUndoChunk(label string) error
	EndUndoChunk() error

	// MoveRelative translates a node by a world-space delta.
	MoveRelative(id string, delta math3d.Vec3) error
	// RotateRelative rotates a node by Euler angles in radians about its own
	// axes when objectSpace is set, otherwise about the world axes.
	RotateRelative(id string, angles math3d.Vec3, objectSpace bool) error
}
