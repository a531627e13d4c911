package render

import (
	"math"

	"github.com/taigrr/viewnudge/pkg/math3d"
	"github.com/taigrr/viewnudge/pkg/scene"
	"github.com/taigrr/viewnudge/pkg/viewport"
)

// nearClip is the view depth segments are clipped to before projection.
const nearClip = 2 * viewport.MinDepth

// Marker is a node drawn by the overlay.
type Marker struct {
	Name     string
	Owner    string // Transform the marker belongs to; Name unless a shape
	Kind     scene.Kind
	Position math3d.Vec3

	// Shapes only: local bounds and the parent's world matrix.
	Bounds *scene.Box
	World  math3d.Mat4
}

// NodeSource lists nodes and their world transforms.
type NodeSource interface {
	Nodes() []string
	Node(name string) (scene.Node, bool)
	WorldMatrix(name string) (math3d.Mat4, error)
}

// Markers returns a marker for every transform in src and for every shape
// with known bounds.
func Markers(src NodeSource) []Marker {
	var out []Marker
	for _, name := range src.Nodes() {
		n, ok := src.Node(name)
		if !ok {
			continue
		}
		owner := name
		if !n.IsTransform() {
			if n.Bounds == nil || n.Parent == "" {
				continue
			}
			owner = n.Parent
		}
		world, err := src.WorldMatrix(owner)
		if err != nil {
			continue
		}
		m := Marker{Name: name, Owner: owner, Kind: n.Kind, Position: world.Translation()}
		if n.Kind == scene.KindShape {
			m.Bounds, m.World = n.Bounds, world
			m.Position = world.MulVec3(n.Bounds.Center())
		}
		out = append(out, m)
	}
	return out
}

// Wireframe draws a ground grid, the world axes and node markers as seen
// through a viewport snapshot.
type Wireframe struct {
	GridSize   float64 // Edge length of the XZ grid; zero disables it
	GridStep   float64
	AxisLength float64 // Zero disables the axes
	MarkerSize int     // Half size of a marker in pixels

	Background Color
	Grid       Color
	Marker     Color
	Camera     Color
	Shape      Color
	Selected   Color

	fb    *Framebuffer
	state viewport.State
}

// NewWireframe creates a wireframe renderer with default styling.
func NewWireframe() *Wireframe {
	return &Wireframe{
		GridSize:   20,
		GridStep:   2,
		AxisLength: 2,
		MarkerSize: 2,
		Background: ColorSlate,
		Grid:       RGB(60, 66, 80),
		Marker:     ColorWhite,
		Camera:     ColorCyan,
		Shape:      RGB(120, 160, 220),
		Selected:   ColorYellow,
	}
}

// Render clears fb and draws the scene as seen in state. The snapshot is
// rescaled to the framebuffer; its projection is kept.
func (w *Wireframe) Render(fb *Framebuffer, state viewport.State, markers []Marker, selected string) {
	state.Width, state.Height = fb.Width, fb.Height
	w.fb, w.state = fb, state
	defer func() { w.fb = nil }()

	fb.Clear(w.Background)
	if fb.Width == 0 || fb.Height == 0 {
		return
	}
	if w.GridSize > 0 && w.GridStep > 0 {
		w.DrawGrid(w.GridSize, w.GridStep, w.Grid)
	}
	if w.AxisLength > 0 {
		w.DrawAxes(w.AxisLength)
	}

	// Shapes of the selected transform are highlighted with it.
	var sel []Marker
	for _, m := range markers {
		if m.Owner == selected {
			sel = append(sel, m)
			continue
		}
		c := w.Marker
		switch m.Kind {
		case scene.KindCamera:
			c = w.Camera
		case scene.KindShape:
			c = w.Shape
		}
		w.DrawMarker(m, c, false)
	}
	// Selection on top.
	for _, m := range sel {
		w.DrawMarker(m, w.Selected, m.Name == selected)
	}
}

// DrawLine3D draws a world-space segment, clipped to the near plane and to
// the framebuffer.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, c Color) {
	d1 := viewport.Depth(w.state, w.state.Eye, p1)
	d2 := viewport.Depth(w.state, w.state.Eye, p2)
	switch {
	case d1 < nearClip && d2 < nearClip:
		return
	case d1 < nearClip:
		p1 = p1.Add(p2.Sub(p1).Scale((nearClip - d1) / (d2 - d1)))
	case d2 < nearClip:
		p2 = p2.Add(p1.Sub(p2).Scale((nearClip - d2) / (d1 - d2)))
	}

	a, ok1 := w.project(p1)
	b, ok2 := w.project(p2)
	if !ok1 || !ok2 {
		return
	}
	w.fb.DrawSegment(a, b, c)
}

// DrawAxes draws the coordinate axes at the origin.
func (w *Wireframe) DrawAxes(length float64) {
	origin := math3d.Vec3{}
	w.DrawLine3D(origin, math3d.V3(length, 0, 0), ColorRed)
	w.DrawLine3D(origin, math3d.V3(0, length, 0), ColorGreen)
	w.DrawLine3D(origin, math3d.V3(0, 0, length), ColorBlue)
}

// DrawGrid draws a grid on the XZ plane at y=0.
func (w *Wireframe) DrawGrid(size, step float64, c Color) {
	half := size / 2
	n := int(math.Floor(size/step + 1e-9))
	for i := 0; i <= n; i++ {
		v := -half + float64(i)*step
		w.DrawLine3D(math3d.V3(v, 0, -half), math3d.V3(v, 0, half), c)
		w.DrawLine3D(math3d.V3(-half, 0, v), math3d.V3(half, 0, v), c)
	}
}

// DrawMarker draws a cross for a transform, a square for a camera and the
// bounds for a shape. Highlighted markers get a surrounding square.
func (w *Wireframe) DrawMarker(m Marker, c Color, highlight bool) {
	if m.Kind == scene.KindShape {
		if m.Bounds != nil {
			w.DrawBox(m.World, *m.Bounds, c)
		}
		return
	}
	p, ok := w.project(m.Position)
	if !ok {
		return
	}
	if !w.state.OnScreen(p) {
		return
	}
	if m.Kind == scene.KindCamera {
		w.fb.DrawSquare(p, w.MarkerSize, c)
	} else {
		w.fb.DrawCross(p, w.MarkerSize, c)
	}
	if highlight {
		w.fb.DrawSquare(p, w.MarkerSize+2, c)
	}
}

// boxEdges index Box.Corners.
var boxEdges = [12][2]int{
	// Back face
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	// Front face
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	// Connecting edges
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// DrawBox draws the edges of a local-space box transformed by world.
func (w *Wireframe) DrawBox(world math3d.Mat4, b scene.Box, c Color) {
	local := b.Corners()
	var corners [8]math3d.Vec3
	for i, v := range local {
		corners[i] = world.MulVec3(v)
	}
	for _, e := range boxEdges {
		w.DrawLine3D(corners[e[0]], corners[e[1]], c)
	}
}

// project maps a world point to viewport pixels of the framebuffer.
func (w *Wireframe) project(p math3d.Vec3) (math3d.Vec2, bool) {
	px, err := viewport.WorldToScreen(w.state, w.state.Eye, p)
	if err != nil {
		return math3d.Vec2{}, false
	}
	return px, true
}
