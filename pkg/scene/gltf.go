package scene

import (
	"encoding/base64"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/taigrr/viewnudge/pkg/math3d"
)

// LoadGLTF reads a glTF or GLB file into a new scene. Every node becomes a
// transform, nodes with a perspective camera become cameras with one view
// each, and meshes become shapes under their node. Views get the given size.
func LoadGLTF(path string, width, height int) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return FromDocument(doc, width, height)
}

// FromDocument builds a scene from a decoded glTF document.
func FromDocument(doc *gltf.Document, width, height int) (*Scene, error) {
	s := New()
	visited := make([]bool, len(doc.Nodes))
	var cameras []string

	var visit func(idx int, parent string) error
	visit = func(idx int, parent string) error {
		if idx < 0 || idx >= len(doc.Nodes) {
			return fmt.Errorf("node index %d out of range", idx)
		}
		if visited[idx] {
			return fmt.Errorf("node %d is reachable twice", idx)
		}
		visited[idx] = true

		gn := doc.Nodes[idx]
		name := uniqueName(s, gn.Name, fmt.Sprintf("node%d", idx))

		n := Node{Name: name, Kind: KindTransform, Parent: parent}
		n.Translation, n.Rotation, n.Scale = nodePose(gn)
		if gn.Camera != nil {
			cam, ok := cameraFrom(doc, *gn.Camera)
			if ok {
				n.Kind = KindCamera
				n.Camera = &cam
				cameras = append(cameras, name)
			}
		}
		if err := s.AddNode(n); err != nil {
			return err
		}

		if gn.Mesh != nil && *gn.Mesh < len(doc.Meshes) {
			shape := doc.Meshes[*gn.Mesh].Name
			if shape == "" || s.NodeExists(shape) {
				shape = uniqueName(s, "", name+"Shape")
			}
			bounds, err := meshBounds(doc, doc.Meshes[*gn.Mesh])
			if err != nil {
				return fmt.Errorf("mesh %q: %w", shape, err)
			}
			if err := s.AddNode(Node{Name: shape, Kind: KindShape, Parent: name, Bounds: bounds}); err != nil {
				return err
			}
		}

		for _, child := range gn.Children {
			if err := visit(child, name); err != nil {
				return err
			}
		}
		return nil
	}

	roots := rootNodes(doc)
	for _, idx := range roots {
		if err := visit(idx, ""); err != nil {
			return nil, err
		}
	}

	for _, cam := range cameras {
		if err := s.AddView(View{Name: cam, Camera: cam, Width: width, Height: height}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// embeddedPrefix marks a buffer URI that carries its data inline.
const embeddedPrefix = "data:application/octet-stream;base64,"

// SaveGLTF writes the scene to path. A .glb extension selects the binary
// container; otherwise buffers are embedded in the JSON.
func (s *Scene) SaveGLTF(path string) error {
	doc := s.Document()
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		if err := gltf.SaveBinary(doc, path); err != nil {
			return fmt.Errorf("save glb: %w", err)
		}
		return nil
	}
	for _, b := range doc.Buffers {
		if b.URI == "" && len(b.Data) > 0 {
			b.URI = embeddedPrefix + base64.StdEncoding.EncodeToString(b.Data)
		}
	}
	if err := gltf.Save(doc, path); err != nil {
		return fmt.Errorf("save gltf: %w", err)
	}
	return nil
}

// Document converts the scene to a glTF document. Shapes are written as
// meshes on their parent node, holding the corners of their bounds as points.
func (s *Scene) Document() *gltf.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := &gltf.Document{
		Asset:  gltf.Asset{Version: "2.0", Generator: "viewnudge"},
		Scenes: []*gltf.Scene{{Name: "scene"}},
		Scene:  gltf.Index(0),
	}
	index := make(map[string]int)
	for _, name := range s.order {
		n := s.nodes[name]
		if !n.IsTransform() {
			continue
		}
		gn := &gltf.Node{
			Name:        n.Name,
			Translation: [3]float64{n.Translation.X, n.Translation.Y, n.Translation.Z},
			Rotation:    [4]float64{n.Rotation.V[0], n.Rotation.V[1], n.Rotation.V[2], n.Rotation.W},
			Scale:       [3]float64{n.Scale.X, n.Scale.Y, n.Scale.Z},
		}
		if n.Camera != nil {
			p := &gltf.Perspective{Yfov: n.Camera.FOV, Znear: n.Camera.Near}
			if n.Camera.Far > 0 {
				p.Zfar = gltf.Float(n.Camera.Far)
			}
			if n.Camera.AspectRatio > 0 {
				p.AspectRatio = gltf.Float(n.Camera.AspectRatio)
			}
			doc.Cameras = append(doc.Cameras, &gltf.Camera{Name: n.Name, Perspective: p})
			gn.Camera = gltf.Index(len(doc.Cameras) - 1)
		}
		index[name] = len(doc.Nodes)
		doc.Nodes = append(doc.Nodes, gn)

		if n.Parent == "" {
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, index[name])
		} else {
			parent := doc.Nodes[index[n.Parent]]
			parent.Children = append(parent.Children, index[name])
		}
	}

	for _, name := range s.order {
		n := s.nodes[name]
		if n.Kind != KindShape || n.Parent == "" {
			continue
		}
		parent := doc.Nodes[index[n.Parent]]
		if parent.Mesh != nil {
			continue
		}
		mesh := &gltf.Mesh{Name: n.Name}
		if n.Bounds != nil {
			mesh = appendBoxMesh(doc, n.Name, *n.Bounds)
		}
		doc.Meshes = append(doc.Meshes, mesh)
		parent.Mesh = gltf.Index(len(doc.Meshes) - 1)
	}
	return doc
}

func rootNodes(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}
	// No scene: every node that is nobody's child is a root.
	child := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(child) {
				child[c] = true
			}
		}
	}
	var roots []int
	for i, isChild := range child {
		if !isChild {
			roots = append(roots, i)
		}
	}
	return roots
}

func nodePose(n *gltf.Node) (math3d.Vec3, mgl64.Quat, math3d.Vec3) {
	m := n.MatrixOrDefault()
	if m != gltf.DefaultMatrix {
		return decompose(math3d.Mat4(m))
	}
	t := n.Translation
	r := n.RotationOrDefault()
	sc := n.ScaleOrDefault()
	q := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}.Normalize()
	return math3d.V3(t[0], t[1], t[2]), q, math3d.V3(sc[0], sc[1], sc[2])
}

// decompose splits an affine matrix without shear into T, R and S.
func decompose(m math3d.Mat4) (math3d.Vec3, mgl64.Quat, math3d.Vec3) {
	x := math3d.V3(m[0], m[1], m[2])
	y := math3d.V3(m[4], m[5], m[6])
	z := math3d.V3(m[8], m[9], m[10])
	scale := math3d.V3(x.Len(), y.Len(), z.Len())
	if m.Determinant() < 0 {
		scale.X = -scale.X
		x = x.Negate()
	}

	rot := math3d.Identity()
	for col, axis := range []math3d.Vec3{x.Normalize(), y.Normalize(), z.Normalize()} {
		rot[col*4], rot[col*4+1], rot[col*4+2] = axis.X, axis.Y, axis.Z
	}
	q := mgl64.Mat4ToQuat(mgl64.Mat4(rot)).Normalize()
	return m.Translation(), q, scale
}

func cameraFrom(doc *gltf.Document, idx int) (Camera, bool) {
	if idx < 0 || idx >= len(doc.Cameras) || doc.Cameras[idx].Perspective == nil {
		return Camera{}, false
	}
	p := doc.Cameras[idx].Perspective
	cam := NewCamera()
	if p.Yfov > 0 && p.Yfov < math.Pi {
		cam.FOV = p.Yfov
	}
	if p.Znear > 0 {
		cam.Near = p.Znear
	}
	if p.Zfar != nil && *p.Zfar > cam.Near {
		cam.Far = *p.Zfar
	}
	if p.AspectRatio != nil && *p.AspectRatio > 0 {
		cam.AspectRatio = *p.AspectRatio
	}
	return cam, true
}

func uniqueName(s *Scene, name, fallback string) string {
	if name == "" {
		name = fallback
	}
	if !s.NodeExists(name) {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%d", name, i)
		if !s.NodeExists(candidate) {
			return candidate
		}
	}
}
