package scene

import (
	"errors"
	"slices"

	"github.com/google/uuid"
)

var (
	ErrNoOpenChunk   = errors.New("no open undo chunk")
	ErrChunkOpen     = errors.New("undo chunk still open")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Step is one undoable entry of the history.
type Step struct {
	ID      uuid.UUID
	Label   string
	Changes int
}

type change struct {
	op     string
	node   string
	before pose
	after  pose
}

type step struct {
	id      uuid.UUID
	label   string
	changes []change
}

func (st *step) info() Step {
	return Step{ID: st.id, Label: st.label, Changes: len(st.changes)}
}

type history struct {
	done   []*step
	undone []*step

	open  *step // Outermost open chunk
	depth int
}

// BeginUndoChunk opens an undo chunk. Chunks nest; only the outermost one
// becomes a history step and it takes the outermost label.
func (s *Scene) BeginUndoChunk(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &s.history
	if h.depth == 0 {
		h.open = &step{id: uuid.New(), label: label}
	}
	h.depth++
	return nil
}

// EndUndoChunk closes the innermost open chunk. Closing the outermost chunk
// commits it as one step; a chunk without changes leaves no step.
func (s *Scene) EndUndoChunk() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &s.history
	if h.depth == 0 {
		return ErrNoOpenChunk
	}
	h.depth--
	if h.depth > 0 {
		return nil
	}
	if len(h.open.changes) > 0 {
		h.done = append(h.done, h.open)
	}
	h.open = nil
	return nil
}

// ChunkDepth returns how many undo chunks are open.
func (s *Scene) ChunkDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.depth
}

// Undo reverts the last step and returns it.
func (s *Scene) Undo() (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &s.history
	if h.depth > 0 {
		return Step{}, ErrChunkOpen
	}
	if len(h.done) == 0 {
		return Step{}, ErrNothingToUndo
	}
	st := h.done[len(h.done)-1]
	h.done = h.done[:len(h.done)-1]
	for _, c := range slices.Backward(st.changes) {
		s.setPose(c.node, c.before)
	}
	h.undone = append(h.undone, st)
	return st.info(), nil
}

// Redo reapplies the last undone step and returns it.
func (s *Scene) Redo() (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &s.history
	if h.depth > 0 {
		return Step{}, ErrChunkOpen
	}
	if len(h.undone) == 0 {
		return Step{}, ErrNothingToRedo
	}
	st := h.undone[len(h.undone)-1]
	h.undone = h.undone[:len(h.undone)-1]
	for _, c := range st.changes {
		s.setPose(c.node, c.after)
	}
	h.done = append(h.done, st)
	return st.info(), nil
}

// History returns the undoable steps, oldest first.
func (s *Scene) History() []Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Step, len(s.history.done))
	for i, st := range s.history.done {
		out[i] = st.info()
	}
	return out
}

// record adds a change to the open chunk, or as its own step when no chunk
// is open. Caller holds the lock.
func (s *Scene) record(op, node string, before, after pose) {
	s.revision++
	c := change{op: op, node: node, before: before, after: after}
	h := &s.history
	h.undone = nil
	if h.open != nil {
		h.open.changes = append(h.open.changes, c)
		return
	}
	h.done = append(h.done, &step{id: uuid.New(), label: op, changes: []change{c}})
}

func (s *Scene) setPose(name string, p pose) {
	n, ok := s.nodes[name]
	if !ok {
		return
	}
	n.Translation, n.Rotation, n.Scale = p.Translation, p.Rotation, p.Scale
	s.revision++
}
