package scene

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/viewnudge/pkg/math3d"
	"github.com/taigrr/viewnudge/pkg/viewport"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got math3d.Vec3) {
	t.Helper()
	assert.Truef(t, want.ApproxEqual(got, 1e-9), "want %v, got %v", want, got)
}

func TestDemoSnapshotMatchesLook(t *testing.T) {
	s := Demo(1920, 1080)

	got, err := s.ActiveView()
	require.NoError(t, err)
	want := viewport.Look(math3d.V3(0, 0, 10), math3d.V3(0, 0, 0), math.Pi/3, 0.1, 1000, 1920, 1080)

	assert.Equal(t, DemoView, got.Name)
	assert.Equal(t, DemoCamera, got.Camera)
	assertVec(t, want.Eye, got.Eye)
	assertVec(t, want.Direction, got.Direction)
	for i := range got.View {
		assert.InDelta(t, want.View[i], got.View[i], eps, "view[%d]", i)
		assert.InDelta(t, want.Projection[i], got.Projection[i], eps, "projection[%d]", i)
	}
	assert.Empty(t, s.History())
}

func TestViewLookup(t *testing.T) {
	s := Demo(800, 600)

	st, err := s.ViewByName(DemoView)
	require.NoError(t, err)
	cam, err := s.CameraForView(st)
	require.NoError(t, err)
	assert.Equal(t, DemoCamera, cam)

	// A snapshot without a camera falls back to its view's camera.
	cam, err = s.CameraForView(viewport.State{Name: DemoView})
	require.NoError(t, err)
	assert.Equal(t, DemoCamera, cam)

	_, err = s.ViewByName("nope")
	assert.ErrorIs(t, err, ErrViewNotFound)
	_, err = s.CameraForView(viewport.State{Camera: DemoTarget})
	assert.ErrorIs(t, err, ErrNotCamera)
	assert.ErrorIs(t, s.SetActiveView("nope"), ErrViewNotFound)

	_, err = New().ActiveView()
	assert.ErrorIs(t, err, ErrNoActiveView)
}

func TestAddViewRequiresCamera(t *testing.T) {
	s := Demo(800, 600)
	err := s.AddView(View{Name: "side", Camera: DemoTarget, Width: 10, Height: 10})
	assert.ErrorIs(t, err, ErrNotCamera)
	err = s.AddView(View{Name: "side", Camera: "missing", Width: 10, Height: 10})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestNodeQueries(t *testing.T) {
	s := Demo(800, 600)

	assert.True(t, s.NodeExists("pSphereShape1"))
	assert.False(t, s.NodeIsTransform("pSphereShape1"))
	assert.True(t, s.NodeIsTransform(DemoTarget))
	assert.True(t, s.NodeIsTransform(DemoCamera))
	assert.False(t, s.NodeExists("missing"))

	_, err := s.WorldPosition("pSphereShape1")
	assert.ErrorIs(t, err, ErrNotTransform)
	_, err = s.WorldPosition("missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)

	p, err := s.WorldPosition("pCone1")
	require.NoError(t, err)
	assertVec(t, math3d.V3(-3, 2, 0), p)
	cone, ok := s.Node("pCone1")
	require.True(t, ok)
	assert.Equal(t, "group1", cone.Parent)
	assert.True(t, s.NodeIsTransform("group1"))

	assert.ErrorIs(t, s.AddTransform(DemoTarget, "", math3d.Vec3{}), ErrNodeExists)
	assert.ErrorIs(t, s.AddTransform("x", "pSphereShape1", math3d.Vec3{}), ErrNotTransform)
	assert.ErrorIs(t, s.AddTransform("x", "missing", math3d.Vec3{}), ErrNodeNotFound)
	assert.ErrorIs(t, s.AddShape("shape", "pSphereShape1"), ErrNotTransform)
}

func TestMoveRelativeIsWorldSpace(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(Node{
		Name:  "parent",
		Kind:  KindTransform,
		Scale: math3d.V3(2, 2, 2),
	}))
	require.NoError(t, s.RotateRelative("parent", math3d.V3(0, math.Pi/2, 0), true))
	require.NoError(t, s.AddTransform("child", "parent", math3d.V3(1, 0, 0)))

	before, err := s.WorldPosition("child")
	require.NoError(t, err)
	delta := math3d.V3(1, 2, 3)
	require.NoError(t, s.MoveRelative("child", delta))

	after, err := s.WorldPosition("child")
	require.NoError(t, err)
	assertVec(t, before.Add(delta), after)
}

func TestMoveRelativeRejects(t *testing.T) {
	s := Demo(800, 600)
	assert.ErrorIs(t, s.MoveRelative("pSphereShape1", math3d.V3(1, 0, 0)), ErrNotTransform)
	assert.ErrorIs(t, s.MoveRelative("missing", math3d.V3(1, 0, 0)), ErrNodeNotFound)
	assert.Error(t, s.MoveRelative(DemoTarget, math3d.V3(math.NaN(), 0, 0)))
	assert.Empty(t, s.History())
}

func TestRotateRelative(t *testing.T) {
	tests := []struct {
		name        string
		angles      math3d.Vec3
		objectSpace bool
		want        math3d.Vec3
	}{
		{"yaw left object", math3d.V3(0, math.Pi/2, 0), true, math3d.V3(-1, 0, 0)},
		{"yaw left world", math3d.V3(0, math.Pi/2, 0), false, math3d.V3(-1, 0, 0)},
		{"pitch up", math3d.V3(math.Pi/2, 0, 0), true, math3d.V3(0, 1, 0)},
		{"roll keeps direction", math3d.V3(0, 0, 1), true, math3d.V3(0, 0, -1)},
		{"zero", math3d.Vec3{}, true, math3d.V3(0, 0, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Demo(800, 600)
			require.NoError(t, s.RotateRelative(DemoCamera, tt.angles, tt.objectSpace))
			st, err := s.ActiveView()
			require.NoError(t, err)
			assertVec(t, tt.want, st.Direction)
			assertVec(t, math3d.V3(0, 0, 10), st.Eye)
		})
	}
}

func TestRotateRelativeWorldSpaceUnderRotatedParent(t *testing.T) {
	s := New()
	require.NoError(t, s.AddTransform("rig", "", math3d.Vec3{}))
	require.NoError(t, s.RotateRelative("rig", math3d.V3(0, 0, math.Pi/2), true))
	require.NoError(t, s.AddNode(Node{Name: "cam", Kind: KindCamera, Parent: "rig", Scale: math3d.V3(1, 1, 1)}))

	// World yaw turns the camera about world Y even though the rig is rolled.
	require.NoError(t, s.RotateRelative("cam", math3d.V3(0, math.Pi/2, 0), false))
	m, err := s.WorldMatrix("cam")
	require.NoError(t, err)
	assertVec(t, math3d.V3(-1, 0, 0), m.MulVec3Dir(math3d.Forward()))
}

func TestLookAt(t *testing.T) {
	s := Demo(800, 600)
	require.NoError(t, s.SetTranslation(DemoCamera, math3d.V3(10, 0, 0)))
	require.NoError(t, s.LookAt(DemoCamera, math3d.Vec3{}))

	st, err := s.ActiveView()
	require.NoError(t, err)
	assertVec(t, math3d.V3(-1, 0, 0), st.Direction)

	p, err := viewport.WorldToScreen(st, st.Eye, math3d.Vec3{})
	require.NoError(t, err)
	assert.InDelta(t, 400, p.X, 1e-6)
	assert.InDelta(t, 300, p.Y, 1e-6)

	// Straight down still yields a usable orientation.
	require.NoError(t, s.SetTranslation(DemoCamera, math3d.V3(0, 10, 0)))
	require.NoError(t, s.LookAt(DemoCamera, math3d.Vec3{}))
	st, err = s.ActiveView()
	require.NoError(t, err)
	assertVec(t, math3d.V3(0, -1, 0), st.Direction)

	assert.ErrorIs(t, s.LookAt(DemoTarget, math3d.Vec3{}), ErrNotCamera)
	assert.Error(t, s.LookAt(DemoCamera, math3d.V3(0, 10, 0)))
}

func TestFingerprintAndRevision(t *testing.T) {
	a, b := Demo(800, 600), Demo(1920, 1080)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	rev := a.Revision()
	fp := a.Fingerprint()
	require.NoError(t, a.MoveRelative(DemoTarget, math3d.V3(1, 0, 0)))
	assert.NotEqual(t, fp, a.Fingerprint())
	assert.Greater(t, a.Revision(), rev)

	_, err := a.Undo()
	require.NoError(t, err)
	assert.Equal(t, fp, a.Fingerprint())
}

func TestGLTFRoundTrip(t *testing.T) {
	for _, ext := range []string{".gltf", ".glb"} {
		t.Run(ext, func(t *testing.T) {
			s := Demo(800, 600)
			require.NoError(t, s.MoveRelative("pCone1", math3d.V3(0.5, 0, 0)))
			path := filepath.Join(t.TempDir(), "scene"+ext)
			require.NoError(t, s.SaveGLTF(path))

			got, err := LoadGLTF(path, 800, 600)
			require.NoError(t, err)

			for _, name := range []string{DemoTarget, "pCube1", "pCone1", DemoCamera} {
				want, err := s.WorldPosition(name)
				require.NoError(t, err)
				p, err := got.WorldPosition(name)
				require.NoError(t, err, name)
				assertVec(t, want, p)
			}
			assert.False(t, got.NodeIsTransform("pSphereShape1"))
			assert.True(t, got.NodeExists("pConeShape1"))
			shape, ok := got.Node("pCubeShape1")
			require.True(t, ok)
			assert.Equal(t, KindShape, shape.Kind)
			assert.Equal(t, "pCube1", shape.Parent)
			require.NotNil(t, shape.Bounds)
			assertVec(t, math3d.V3(-0.5, -0.5, -0.5), shape.Bounds.Min)
			assertVec(t, math3d.V3(0.5, 0.5, 0.5), shape.Bounds.Max)

			st, err := got.ViewByName(DemoCamera)
			require.NoError(t, err)
			assertVec(t, math3d.V3(0, 0, -1), st.Direction)
		})
	}
}

func TestLoadGLTFMissingFile(t *testing.T) {
	_, err := LoadGLTF("/nonexistent/path.glb", 800, 600)
	assert.Error(t, err)
}

func TestMeshBoundsFromPositions(t *testing.T) {
	doc := &gltf.Document{}
	mesh := appendBoxMesh(doc, "box", Box{Min: math3d.V3(-1, 0, 2), Max: math3d.V3(3, 4, 5)})
	// Drop the declared bounds so the positions are read back.
	doc.Accessors[0].Min, doc.Accessors[0].Max = nil, nil

	b, err := meshBounds(doc, mesh)
	require.NoError(t, err)
	require.NotNil(t, b)
	assertVec(t, math3d.V3(-1, 0, 2), b.Min)
	assertVec(t, math3d.V3(3, 4, 5), b.Max)
	assertVec(t, math3d.V3(1, 2, 3.5), b.Center())
	assertVec(t, math3d.V3(4, 4, 3), b.Size())

	doc.BufferViews[0].ByteLength = 0
	doc.Buffers[0].Data = doc.Buffers[0].Data[:20]
	_, err = meshBounds(doc, mesh)
	assert.Error(t, err)
}
