package scene

import "github.com/taigrr/viewnudge/pkg/math3d"

// Demo names.
const (
	DemoCamera = "persp"
	DemoView   = "modelPanel4"
	DemoTarget = "pSphere1"
)

// Demo builds a small scene: a perspective camera at (0,0,10) looking at a
// sphere at the origin, plus a cube and a cone group off to the side.
func Demo(width, height int) *Scene {
	return DemoWithCamera(NewCamera(), width, height)
}

// DemoWithCamera builds the demo scene around the given camera settings.
func DemoWithCamera(cam Camera, width, height int) *Scene {
	s := New()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(s.AddCamera(DemoCamera, cam, math3d.V3(0, 0, 10), math3d.V3(0, 0, 0)))
	must(s.AddTransform(DemoTarget, "", math3d.V3(0, 0, 0)))
	must(s.AddNode(Node{Name: "pSphereShape1", Kind: KindShape, Parent: DemoTarget, Bounds: cube(2)}))
	must(s.AddTransform("pCube1", "", math3d.V3(3, 1, -2)))
	must(s.AddNode(Node{Name: "pCubeShape1", Kind: KindShape, Parent: "pCube1", Bounds: cube(1)}))
	must(s.AddTransform("group1", "", math3d.V3(-3, 0, 0)))
	must(s.AddTransform("pCone1", "group1", math3d.V3(0, 2, 0)))
	must(s.AddNode(Node{Name: "pConeShape1", Kind: KindShape, Parent: "pCone1", Bounds: cube(2)}))
	must(s.AddView(View{Name: DemoView, Camera: DemoCamera, Width: width, Height: height}))

	// Building the demo is not an edit.
	s.history = history{}
	return s
}

func cube(size float64) *Box {
	h := size / 2
	return &Box{Min: math3d.V3(-h, -h, -h), Max: math3d.V3(h, h, h)}
}
