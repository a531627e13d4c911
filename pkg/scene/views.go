package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/taigrr/viewnudge/pkg/math3d"
	"github.com/taigrr/viewnudge/pkg/viewport"
)

var (
	ErrViewNotFound = errors.New("view not found")
	ErrNoActiveView = errors.New("no active view")
)

// View is a named viewport looking through a camera node.
type View struct {
	Name   string
	Camera string
	Width  int
	Height int
}

// AddView registers a viewport. The first view added becomes active.
func (s *Scene) AddView(v View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.Name == "" {
		return errors.New("view name is empty")
	}
	if _, ok := s.views[v.Name]; ok {
		return fmt.Errorf("view %q already exists", v.Name)
	}
	n, ok := s.nodes[v.Camera]
	if !ok {
		return fmt.Errorf("view %s: %w: %s", v.Name, ErrNodeNotFound, v.Camera)
	}
	if n.Kind != KindCamera {
		return fmt.Errorf("view %s: %w: %s", v.Name, ErrNotCamera, v.Camera)
	}
	s.views[v.Name] = &v
	if s.active == "" {
		s.active = v.Name
	}
	return nil
}

// SetActiveView gives focus to the named view.
func (s *Scene) SetActiveView(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.views[name]; !ok {
		return fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}
	s.active = name
	return nil
}

// ResizeView changes the pixel size of a view.
func (s *Scene) ResizeView(name string, width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}
	v.Width, v.Height = width, height
	return nil
}

// Views returns the view names, sorted.
func (s *Scene) Views() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.views))
	for name := range s.views {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ActiveView returns a snapshot of the view that has focus.
func (s *Scene) ActiveView() (viewport.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == "" {
		return viewport.State{}, ErrNoActiveView
	}
	return s.snapshot(s.views[s.active])
}

// ViewByName returns a snapshot of the named view.
func (s *Scene) ViewByName(name string) (viewport.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[name]
	if !ok {
		return viewport.State{}, fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}
	return s.snapshot(v)
}

// CameraForView returns the camera node a snapshot looks through.
func (s *Scene) CameraForView(state viewport.State) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name := state.Camera
	if name == "" {
		v, ok := s.views[state.Name]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrViewNotFound, state.Name)
		}
		name = v.Camera
	}
	n, ok := s.nodes[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNodeNotFound, name)
	}
	if n.Kind != KindCamera {
		return "", fmt.Errorf("%w: %s", ErrNotCamera, name)
	}
	return name, nil
}

// snapshot builds the viewport state of v. Caller holds the lock.
func (s *Scene) snapshot(v *View) (viewport.State, error) {
	n, ok := s.nodes[v.Camera]
	if !ok {
		return viewport.State{}, fmt.Errorf("view %s: %w: %s", v.Name, ErrNodeNotFound, v.Camera)
	}
	world := s.world(n)
	view, ok := world.Inverse()
	if !ok {
		return viewport.State{}, fmt.Errorf("view %s: camera %w", v.Name, ErrSingular)
	}
	st := viewport.State{
		Name:      v.Name,
		Camera:    v.Camera,
		Eye:       world.Translation(),
		Direction: world.MulVec3Dir(math3d.Forward()).Normalize(),
		View:      view,
		Width:     v.Width,
		Height:    v.Height,
	}
	st.Projection = n.Camera.ProjectionMatrix(st.Aspect())
	return st, nil
}
