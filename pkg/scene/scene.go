// Package scene is an in-memory host for the nudge core: a small scene graph
// of transforms, cameras and shapes, named viewports, and undo.
package scene

import (
	"encoding/binary"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/taigrr/viewnudge/pkg/math3d"
)

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrNodeExists   = errors.New("node already exists")
	ErrNotTransform = errors.New("node is not a transform")
	ErrNotCamera    = errors.New("node is not a camera")
	ErrSingular     = errors.New("singular transform")
)

// Scene is safe for concurrent use.
type Scene struct {
	mu sync.RWMutex

	nodes map[string]*Node
	order []string // Insertion order, parents before children

	views  map[string]*View
	active string

	history  history
	revision uint64
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{
		nodes: make(map[string]*Node),
		views: make(map[string]*View),
	}
}

// AddTransform adds a transform node at the given local translation.
// parent may be empty.
func (s *Scene) AddTransform(name, parent string, translation math3d.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(&Node{
		Name:        name,
		Kind:        KindTransform,
		Parent:      parent,
		Translation: translation,
		Rotation:    mgl64.QuatIdent(),
		Scale:       math3d.V3(1, 1, 1),
	})
}

// AddCamera adds a camera node at position looking at target.
func (s *Scene) AddCamera(name string, cam Camera, position, target math3d.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.add(&Node{
		Name:        name,
		Kind:        KindCamera,
		Translation: position,
		Rotation:    mgl64.QuatIdent(),
		Scale:       math3d.V3(1, 1, 1),
		Camera:      &cam,
	})
	if err != nil {
		return err
	}
	return s.lookAt(s.nodes[name], target)
}

// AddShape adds a geometry node under parent. Shapes are not transforms.
func (s *Scene) AddShape(name, parent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(&Node{Name: name, Kind: KindShape, Parent: parent, Rotation: mgl64.QuatIdent()})
}

// AddNode adds a fully specified node. A zero rotation or scale means
// identity.
func (s *Scene) AddNode(n Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.Rotation == (mgl64.Quat{}) {
		n.Rotation = mgl64.QuatIdent()
	}
	if n.Scale == (math3d.Vec3{}) && n.Kind != KindShape {
		n.Scale = math3d.V3(1, 1, 1)
	}
	if n.Kind == KindCamera && n.Camera == nil {
		cam := NewCamera()
		n.Camera = &cam
	}
	return s.add(&n)
}

func (s *Scene) add(n *Node) error {
	if n.Name == "" {
		return errors.New("node name is empty")
	}
	if _, ok := s.nodes[n.Name]; ok {
		return fmt.Errorf("%w: %s", ErrNodeExists, n.Name)
	}
	if n.Parent != "" {
		p, ok := s.nodes[n.Parent]
		if !ok {
			return fmt.Errorf("parent %q: %w", n.Parent, ErrNodeNotFound)
		}
		if !p.IsTransform() {
			return fmt.Errorf("parent %q: %w", n.Parent, ErrNotTransform)
		}
	}
	s.nodes[n.Name] = n
	s.order = append(s.order, n.Name)
	s.revision++
	return nil
}

// Node returns a copy of the named node.
func (s *Scene) Node(name string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[name]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns the node names in insertion order.
func (s *Scene) Nodes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// NodeExists reports whether a node with the name exists.
func (s *Scene) NodeExists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[name]
	return ok
}

// NodeIsTransform reports whether the named node exists and is a transform.
func (s *Scene) NodeIsTransform(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[name]
	return ok && n.IsTransform()
}

// WorldMatrix returns the node's local to world matrix.
func (s *Scene) WorldMatrix(name string) (math3d.Mat4, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.transform(name)
	if err != nil {
		return math3d.Mat4{}, err
	}
	return s.world(n), nil
}

// WorldPosition returns the world-space translation of a transform node.
func (s *Scene) WorldPosition(name string) (math3d.Vec3, error) {
	m, err := s.WorldMatrix(name)
	if err != nil {
		return math3d.Vec3{}, err
	}
	return m.Translation(), nil
}

// MoveRelative translates a node by a world-space delta.
func (s *Scene) MoveRelative(name string, delta math3d.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.transform(name)
	if err != nil {
		return err
	}
	if !delta.IsFinite() {
		return fmt.Errorf("move %s: non-finite delta %v", name, delta)
	}

	local := delta
	if n.Parent != "" {
		inv, ok := s.world(s.nodes[n.Parent]).Inverse()
		if !ok {
			return fmt.Errorf("move %s: parent %w", name, ErrSingular)
		}
		local = inv.MulVec3Dir(delta)
	}

	before := n.pose()
	n.Translation = n.Translation.Add(local)
	s.record("move", name, before, n.pose())
	return nil
}

// RotateRelative rotates a node by Euler angles in radians, applied X then Y
// then Z. With objectSpace the axes are the node's own, otherwise the world's.
func (s *Scene) RotateRelative(name string, angles math3d.Vec3, objectSpace bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.transform(name)
	if err != nil {
		return err
	}
	if !angles.IsFinite() {
		return fmt.Errorf("rotate %s: non-finite angles %v", name, angles)
	}

	q := mgl64.AnglesToQuat(angles.X, angles.Y, angles.Z, mgl64.XYZ)
	before := n.pose()
	if objectSpace {
		n.Rotation = n.Rotation.Mul(q).Normalize()
	} else {
		parent := s.parentRotation(n)
		n.Rotation = parent.Inverse().Mul(q).Mul(parent).Mul(n.Rotation).Normalize()
	}
	s.record("rotate", name, before, n.pose())
	return nil
}

// SetTranslation sets a node's local translation.
func (s *Scene) SetTranslation(name string, t math3d.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.transform(name)
	if err != nil {
		return err
	}
	before := n.pose()
	n.Translation = t
	s.record("set translation", name, before, n.pose())
	return nil
}

// LookAt orients a camera so it looks down -Z toward target with Y up.
func (s *Scene) LookAt(camera string, target math3d.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[camera]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, camera)
	}
	if n.Kind != KindCamera {
		return fmt.Errorf("%w: %s", ErrNotCamera, camera)
	}
	before := n.pose()
	if err := s.lookAt(n, target); err != nil {
		return err
	}
	s.record("look at", camera, before, n.pose())
	return nil
}

func (s *Scene) lookAt(n *Node, target math3d.Vec3) error {
	eye := s.world(n).Translation()
	f := target.Sub(eye).Normalize()
	if f.LenSq() == 0 {
		return fmt.Errorf("look at %s: target is at the eye point", n.Name)
	}
	up := math3d.Up()
	if f.Cross(up).LenSq() < 1e-12 {
		// Looking straight up or down.
		up = math3d.V3(0, 0, -1)
	}
	right := f.Cross(up).Normalize()
	u := right.Cross(f)

	// Columns are the camera's right, up and back axes in world space.
	rot := math3d.Mat4{
		right.X, right.Y, right.Z, 0,
		u.X, u.Y, u.Z, 0,
		-f.X, -f.Y, -f.Z, 0,
		0, 0, 0, 1,
	}
	world := mgl64.Mat4ToQuat(mgl64.Mat4(rot)).Normalize()
	n.Rotation = s.parentRotation(n).Inverse().Mul(world).Normalize()
	return nil
}

// Revision increases on every change to the scene.
func (s *Scene) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Fingerprint hashes the names and poses of all nodes. Two scenes with the
// same nodes in the same poses have the same fingerprint.
func (s *Scene) Fingerprint() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := slices.Sorted(maps.Keys(s.nodes))

	h := xxhash.New()
	buf := make([]byte, 0, 128)
	for _, name := range names {
		n := s.nodes[name]
		buf = append(buf[:0], name...)
		buf = append(buf, 0, byte(n.Kind))
		for _, f := range []float64{
			n.Translation.X, n.Translation.Y, n.Translation.Z,
			n.Rotation.W, n.Rotation.V[0], n.Rotation.V[1], n.Rotation.V[2],
			n.Scale.X, n.Scale.Y, n.Scale.Z,
		} {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
		}
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}

// transform returns the named node if it is a transform. Caller holds the lock.
func (s *Scene) transform(name string) (*Node, error) {
	n, ok := s.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
	}
	if !n.IsTransform() {
		return nil, fmt.Errorf("%w: %s", ErrNotTransform, name)
	}
	return n, nil
}

// world returns the local to world matrix of n. Caller holds the lock.
func (s *Scene) world(n *Node) math3d.Mat4 {
	m := n.LocalMatrix()
	for p := n.Parent; p != ""; {
		parent := s.nodes[p]
		m = parent.LocalMatrix().Mul(m)
		p = parent.Parent
	}
	return m
}

// parentRotation returns the world rotation of n's parent. Caller holds the lock.
func (s *Scene) parentRotation(n *Node) mgl64.Quat {
	q := mgl64.QuatIdent()
	for p := n.Parent; p != ""; {
		parent := s.nodes[p]
		q = parent.Rotation.Mul(q)
		p = parent.Parent
	}
	return q
}
