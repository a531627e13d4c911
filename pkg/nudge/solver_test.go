package nudge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/viewnudge/pkg/math3d"
	"github.com/taigrr/viewnudge/pkg/viewport"
)

func frontView() viewport.State {
	return viewport.Look(math3d.V3(0, 0, 10), math3d.Vec3{}, math.Pi/3, 0.1, 1000, 1920, 1080)
}

func TestSolveHoldsDistance(t *testing.T) {
	s := viewport.Look(math3d.V3(3, 4, 8), math3d.V3(0, 1, 0), 0.9, 0.1, 500, 1280, 720)
	target := math3d.V3(0.5, 1.5, -1)

	offsets := []math3d.Vec2{
		math3d.V2(100, 0),
		math3d.V2(0, -250),
		math3d.V2(-33.5, 12),
		math3d.V2(600, 300),
	}
	for _, off := range offsets {
		d, err := Solve(s, target, off)
		require.NoError(t, err)
		want := target.Distance(s.Eye)
		assert.InDelta(t, want, d.Distance, 1e-9)
		assert.InDelta(t, want, d.DestX.Distance(s.Eye), 1e-9)
		assert.InDelta(t, want, d.DestY.Distance(s.Eye), 1e-9)
	}
}

func TestSolveHitsPixels(t *testing.T) {
	s := frontView()
	target := math3d.V3(0.7, -0.3, 1)
	off := math3d.V2(120, -45)

	d, err := Solve(s, target, off)
	require.NoError(t, err)

	px, err := viewport.WorldToScreen(s, s.Eye, d.DestX)
	require.NoError(t, err)
	assert.InDelta(t, d.Screen.X+off.X, px.X, 1e-6)
	assert.InDelta(t, d.Screen.Y, px.Y, 1e-6)

	py, err := viewport.WorldToScreen(s, s.Eye, d.DestY)
	require.NoError(t, err)
	assert.InDelta(t, d.Screen.X, py.X, 1e-6)
	assert.InDelta(t, d.Screen.Y+off.Y, py.Y, 1e-6)
}

func TestSolveAxisIndependence(t *testing.T) {
	s := frontView()
	target := math3d.V3(-1, 0.5, 2)

	both, err := Solve(s, target, math3d.V2(80, -60))
	require.NoError(t, err)
	x, err := Solve(s, target, math3d.V2(80, 0))
	require.NoError(t, err)
	y, err := Solve(s, target, math3d.V2(0, -60))
	require.NoError(t, err)

	assert.True(t, both.Total().ApproxEqual(x.Total().Add(y.Total()), 1e-12))
	assert.Equal(t, math3d.Vec3{}, x.DeltaY())
	assert.Equal(t, math3d.Vec3{}, y.DeltaX())
}

func TestSolveZeroOffset(t *testing.T) {
	d, err := Solve(frontView(), math3d.V3(1, 2, 3), math3d.Vec2{})
	require.NoError(t, err)
	assert.Equal(t, math3d.Vec3{}, d.Total())
}

func TestSolveErrors(t *testing.T) {
	behind := frontView()
	_, err := Solve(behind, math3d.V3(0, 0, 20), math3d.V2(10, 0))
	assert.ErrorIs(t, err, ErrProjectionFailure)
	assert.ErrorIs(t, err, viewport.ErrBehindCamera)

	degenerate := frontView()
	for col := range 4 {
		degenerate.Projection.Set(2, col, 0)
	}
	_, err = Solve(degenerate, math3d.Vec3{}, math3d.V2(10, 0))
	assert.ErrorIs(t, err, ErrDegenerateMatrix)

	empty := frontView()
	empty.Height = 0
	_, err = Solve(empty, math3d.Vec3{}, math3d.V2(10, 0))
	assert.Error(t, err)
}

func BenchmarkSolve(b *testing.B) {
	s := frontView()
	target := math3d.V3(0.5, 0.5, 0)
	off := math3d.V2(25, -10)
	for b.Loop() {
		_, _ = Solve(s, target, off)
	}
}
