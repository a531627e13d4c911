package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/taigrr/viewnudge/pkg/math3d"
)

// Kind classifies scene nodes.
type Kind int

const (
	KindTransform Kind = iota // Plain transform
	KindCamera                // Transform carrying a camera
	KindShape                 // Geometry under a transform; has no transform of its own
)

func (k Kind) String() string {
	switch k {
	case KindTransform:
		return "transform"
	case KindCamera:
		return "camera"
	case KindShape:
		return "shape"
	}
	return "unknown"
}

// Node is one entry of the scene graph.
type Node struct {
	Name   string
	Kind   Kind
	Parent string // Empty for root nodes

	// Local transform relative to Parent, applied scale, rotate, translate.
	Translation math3d.Vec3
	Rotation    mgl64.Quat
	Scale       math3d.Vec3

	Camera *Camera // Set for KindCamera
	Bounds *Box    // Local bounds of a shape, if known
}

// IsTransform reports whether the node carries its own transform.
func (n Node) IsTransform() bool {
	return n.Kind == KindTransform || n.Kind == KindCamera
}

// LocalMatrix returns T * R * S.
func (n Node) LocalMatrix() math3d.Mat4 {
	return math3d.Translate(n.Translation).
		Mul(math3d.Mat4(n.Rotation.Mat4())).
		Mul(math3d.Scale(n.Scale))
}

func (n Node) pose() pose {
	return pose{Translation: n.Translation, Rotation: n.Rotation, Scale: n.Scale}
}

// pose is the mutable part of a node, as recorded by undo.
type pose struct {
	Translation math3d.Vec3
	Rotation    mgl64.Quat
	Scale       math3d.Vec3
}

// Camera holds perspective projection parameters.
type Camera struct {
	FOV         float64 // Vertical field of view in radians
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane
	AspectRatio float64 // Width / Height; zero follows the viewport
}

// NewCamera returns a camera with default settings.
func NewCamera() Camera {
	return Camera{
		FOV:  math.Pi / 3, // 60 degrees
		Near: 0.1,
		Far:  1000,
	}
}

// ProjectionMatrix returns the projection for a viewport of the given aspect
// ratio. A fixed AspectRatio on the camera wins over the viewport's.
func (c Camera) ProjectionMatrix(viewportAspect float64) math3d.Mat4 {
	aspect := viewportAspect
	if c.AspectRatio > 0 {
		aspect = c.AspectRatio
	}
	return math3d.Perspective(c.FOV, aspect, c.Near, c.Far)
}
