package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/viewnudge/pkg/config"
	"github.com/taigrr/viewnudge/pkg/math3d"
	"github.com/taigrr/viewnudge/pkg/nudge"
	"github.com/taigrr/viewnudge/pkg/scene"
)

func TestOffsetAxisSettles(t *testing.T) {
	a := NewOffsetAxis(config.Default().Spring)
	a.Remaining = 100

	var total float64
	for range 600 {
		total += a.Step()
		if a.Idle() {
			break
		}
	}
	require.True(t, a.Idle(), "axis did not settle")
	assert.InDelta(t, 100, total, 1e-9)
}

func newTestSession(t *testing.T) *session {
	t.Helper()
	cfg := config.Default()
	s := scene.Demo(320, 180)
	ss, err := newSession(cfg, s, nudge.New(s, s))
	require.NoError(t, err)
	return ss
}

func TestSessionDragIsOneUndoStep(t *testing.T) {
	ss := newTestSession(t)
	assert.Equal(t, scene.DemoTarget, ss.target())
	start := ss.scene.Fingerprint()

	ss.queue(1, -1)
	for range 600 {
		ss.update()
		if !ss.dragging {
			break
		}
	}
	require.False(t, ss.dragging)
	assert.Zero(t, ss.scene.ChunkDepth())
	assert.NotEqual(t, start, ss.scene.Fingerprint())

	hist := ss.scene.History()
	require.Len(t, hist, 1)
	assert.Equal(t, "nudge drag", hist[0].Label)

	ss.undo(false)
	assert.Equal(t, start, ss.scene.Fingerprint())
	ss.undo(true)
	assert.NotEqual(t, start, ss.scene.Fingerprint())
}

func TestSessionUndoWaitsForDrag(t *testing.T) {
	ss := newTestSession(t)
	ss.queue(1, 0)
	ss.update()
	require.True(t, ss.dragging)

	ss.undo(false)
	assert.Equal(t, "wait for the nudge to finish", ss.status)
	ss.endDrag()
	assert.Zero(t, ss.scene.ChunkDepth())
}

func TestSessionFailureDropsQueue(t *testing.T) {
	ss := newTestSession(t)
	require.NoError(t, ss.scene.SetTranslation(scene.DemoTarget, math3d.V3(0, 0, 20)))

	ss.queue(3, 0)
	ss.update()
	assert.Contains(t, ss.status, "cannot be projected")
	assert.True(t, ss.x.Idle())
	assert.False(t, ss.dragging)
	assert.Zero(t, ss.scene.ChunkDepth())
}

func TestSessionKeys(t *testing.T) {
	ss := newTestSession(t)
	assert.Equal(t, []string{scene.DemoTarget, "pCube1", "group1", "pCone1"}, ss.nodes)

	ss.queue(-10, 10)
	assert.Equal(t, -10*ss.cfg.Step, ss.x.Remaining)
	assert.Equal(t, 10*ss.cfg.Step, ss.y.Remaining)

	top, _ := ss.hud()
	assert.Contains(t, top, "camera mode")
	assert.Contains(t, top, "re-aim on")
}

func TestSessionNextView(t *testing.T) {
	ss := newTestSession(t)
	require.NoError(t, ss.scene.AddCamera("top", scene.NewCamera(), math3d.V3(0, 10, 0.01), math3d.Vec3{}))
	require.NoError(t, ss.scene.AddView(scene.View{Name: "topView", Camera: "top", Width: 10, Height: 10}))

	ss.nextView()
	assert.Equal(t, "topView", ss.view)
	st, err := ss.scene.ActiveView()
	require.NoError(t, err)
	assert.Equal(t, "topView", st.Name)
	assert.Equal(t, 320, st.Width)
	assert.Equal(t, 180, st.Height)

	ss.nextView()
	assert.Equal(t, scene.DemoView, ss.view)
	top, _ := ss.hud()
	assert.Contains(t, top, scene.DemoView)
}
