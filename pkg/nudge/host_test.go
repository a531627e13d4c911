package nudge

import (
	"github.com/taigrr/viewnudge/pkg/math3d"
	"github.com/taigrr/viewnudge/pkg/scene"
)

// recordingHost wraps a scene and counts the calls the Nudger makes.
type recordingHost struct {
	*scene.Scene

	begins, ends int
	moves        []math3d.Vec3
	rotations    []math3d.Vec3

	failMoveAt int // Fail the nth MoveRelative call, 1-based; zero never fails
	failEnd    error
}

func newHost() *recordingHost {
	return &recordingHost{Scene: scene.Demo(1920, 1080)}
}

func (h *recordingHost) BeginUndoChunk(label string) error {
	h.begins++
	return h.Scene.BeginUndoChunk(label)
}

func (h *recordingHost) EndUndoChunk() error {
	h.ends++
	if err := h.Scene.EndUndoChunk(); err != nil {
		return err
	}
	return h.failEnd
}

func (h *recordingHost) MoveRelative(id string, delta math3d.Vec3) error {
	h.moves = append(h.moves, delta)
	if h.failMoveAt == len(h.moves) {
		return errInjected
	}
	return h.Scene.MoveRelative(id, delta)
}

func (h *recordingHost) RotateRelative(id string, angles math3d.Vec3, objectSpace bool) error {
	h.rotations = append(h.rotations, angles)
	return h.Scene.RotateRelative(id, angles, objectSpace)
}

func (h *recordingHost) mutations() int {
	return len(h.moves) + len(h.rotations)
}

func (h *recordingHost) nudger(opts ...Option) *Nudger {
	return New(h, h, opts...)
}
