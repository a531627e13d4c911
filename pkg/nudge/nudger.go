// Package nudge moves an object or a camera by a screen-space pixel offset.
//
// The Nudger reads one viewport snapshot per call, solves the world-space
// displacement that reproduces the pixel offset at the target's current
// depth, and applies it through the host's mutators inside a single undo
// chunk.
package nudge

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/taigrr/viewnudge/pkg/math3d"
	"github.com/taigrr/viewnudge/pkg/viewport"
)

// undoLabel names the undo chunk wrapping one nudge.
const undoLabel = "nudge"

// Request describes one nudge.
type Request struct {
	Target string      // Node to nudge from
	Offset math3d.Vec2 // Pixels, +X right and +Y up

	MoveObject bool // Move the target instead of the camera
	RotateView bool // Re-aim the camera after moving it (camera mode only)

	// View is an explicit snapshot to use. When nil, ViewName is resolved,
	// and when that is empty too the active view is used.
	View     *viewport.State
	ViewName string
}

// Mode says which node a nudge moved.
type Mode int

const (
	ModeCamera Mode = iota // The camera moved
	ModeObject             // The target moved
)

func (m Mode) String() string {
	if m == ModeObject {
		return "object"
	}
	return "camera"
}

// Result reports what a nudge did.
type Result struct {
	Target string // Requested target
	View   string // Viewport the nudge was computed in
	Moved  string // Node that was translated
	Mode   Mode

	Displacement Displacement
	Translation  math3d.Vec3 // Net world-space translation applied to Moved
	Rotation     math3d.Vec3 // Object-space camera rotation in radians, zero unless re-aimed

	// InView reports whether the target's destination is still inside the
	// view frustum of the snapshot. Only meaningful in object mode.
	InView bool
}

// Nudger nudges nodes of a host scene.
type Nudger struct {
	views  ViewportProvider
	scene  SceneAccessor
	logger *zap.Logger
}

// Option configures a Nudger.
type Option func(*Nudger)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(n *Nudger) {
		if l != nil {
			n.logger = l
		}
	}
}

// New creates a Nudger over the given host collaborators.
func New(views ViewportProvider, scene SceneAccessor, opts ...Option) *Nudger {
	n := &Nudger{
		views:  views,
		scene:  scene,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Nudge moves the camera, or the target when req.MoveObject is set, so that
// the target appears req.Offset pixels away from where it is now.
//
// Validation, projection and matrix failures return before anything is
// mutated. Once mutation starts, the undo chunk is closed on every path.
func (n *Nudger) Nudge(req Request) (Result, error) {
	res := Result{Target: req.Target}

	if err := n.validateTarget(req.Target); err != nil {
		return res, err
	}
	state, err := n.resolveView(req)
	if err != nil {
		return res, err
	}
	res.View = state.Name

	camera, err := n.views.CameraForView(state)
	if err != nil {
		return res, fmt.Errorf("%w: camera for view %q: %w", ErrInvalidView, state.Name, err)
	}

	target, err := n.scene.WorldPosition(req.Target)
	if err != nil {
		return res, fmt.Errorf("%w: %q: %w", ErrInvalidTarget, req.Target, err)
	}

	log := n.logger.With(zap.String("target", req.Target), zap.String("view", state.Name))
	log.Debug("view snapshot",
		vec3("eye", state.Eye),
		vec3("direction", state.Direction),
		zap.Int("width", state.Width),
		zap.Int("height", state.Height),
	)

	disp, err := Solve(state, target, req.Offset)
	if err != nil {
		if errors.Is(err, ErrProjectionFailure) {
			log.Warn("nudge skipped", zap.Error(err))
		}
		return res, err
	}
	res.Displacement = disp
	res.InView = state.Frustum().ContainsPoint(target.Add(disp.Total()))

	log.Debug("displacement solved",
		zap.Float64s("screen", []float64{disp.Screen.X, disp.Screen.Y}),
		zap.Float64("distance", disp.Distance),
		vec3("dest_x", disp.DestX),
		vec3("dest_y", disp.DestY),
	)

	res.Mode, res.Moved = ModeCamera, camera
	if req.MoveObject {
		res.Mode, res.Moved = ModeObject, req.Target
		if req.RotateView {
			log.Debug("rotate view ignored when moving the object")
		}
	} else if req.RotateView {
		res.Rotation = reaim(state.Eye, disp, req.Offset)
	}

	err = n.inUndoChunk(func() error {
		for _, delta := range []math3d.Vec3{disp.DeltaX(), disp.DeltaY()} {
			if delta == (math3d.Vec3{}) {
				continue
			}
			if err := n.scene.MoveRelative(res.Moved, delta); err != nil {
				return fmt.Errorf("move %q: %w", res.Moved, err)
			}
			res.Translation = res.Translation.Add(delta)
		}
		if res.Rotation != (math3d.Vec3{}) {
			if err := n.scene.RotateRelative(camera, res.Rotation, true); err != nil {
				return fmt.Errorf("rotate %q: %w", camera, err)
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	log.Info("nudged",
		zap.Stringer("mode", res.Mode),
		zap.String("moved", res.Moved),
		zap.Float64s("pixels", []float64{req.Offset.X, req.Offset.Y}),
		vec3("translation", res.Translation),
		vec3("rotation", res.Rotation),
	)
	if req.MoveObject && !res.InView {
		log.Warn("target moved out of view")
	}
	return res, nil
}

func (n *Nudger) validateTarget(id string) error {
	if id == "" {
		return fmt.Errorf("%w: no target supplied", ErrInvalidTarget)
	}
	if !n.scene.NodeExists(id) || !n.scene.NodeIsTransform(id) {
		return fmt.Errorf("%w: %s either does not exist or isn't a transform", ErrInvalidTarget, id)
	}
	return nil
}

func (n *Nudger) resolveView(req Request) (viewport.State, error) {
	var (
		state viewport.State
		err   error
	)
	switch {
	case req.View != nil:
		state = *req.View
	case req.ViewName != "":
		state, err = n.views.ViewByName(req.ViewName)
		if err != nil {
			return state, fmt.Errorf("%w: %s is not a view: %w", ErrInvalidView, req.ViewName, err)
		}
	default:
		state, err = n.views.ActiveView()
		if err != nil {
			return state, fmt.Errorf("%w: active view: %w", ErrInvalidView, err)
		}
	}
	if err := state.Validate(); err != nil {
		return state, fmt.Errorf("%w: %w", ErrInvalidView, err)
	}
	return state, nil
}

// inUndoChunk runs fn inside one undo chunk and always closes it.
func (n *Nudger) inUndoChunk(fn func() error) (err error) {
	if err := n.scene.BeginUndoChunk(undoLabel); err != nil {
		return fmt.Errorf("open undo chunk: %w", err)
	}
	defer func() {
		if cerr := n.scene.EndUndoChunk(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close undo chunk: %w", cerr))
		}
	}()
	return fn()
}

// reaim returns the object-space camera rotation (pitch, yaw, 0) that turns
// the camera back toward the target after it moved by disp.
//
// The magnitudes are the angles between the original camera-to-target ray and
// the rays to the two destinations. For positive offsets yaw is positive and
// pitch negative, which keeps the target under the cursor for a right-handed,
// Y-up camera looking down -Z. Negative offsets mirror the signs.
func reaim(eye math3d.Vec3, disp Displacement, offset math3d.Vec2) math3d.Vec3 {
	start := disp.Target.Sub(eye).Normalize()
	var r math3d.Vec3
	if offset.X != 0 {
		r.Y = math.Copysign(start.AngleTo(disp.DestX.Sub(eye)), offset.X)
	}
	if offset.Y != 0 {
		r.X = -math.Copysign(start.AngleTo(disp.DestY.Sub(eye)), offset.Y)
	}
	return r
}

func vec3(key string, v math3d.Vec3) zap.Field {
	return zap.Float64s(key, []float64{v.X, v.Y, v.Z})
}
