package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/viewnudge/pkg/config"
	"github.com/taigrr/viewnudge/pkg/math3d"
	"github.com/taigrr/viewnudge/pkg/nudge"
	"github.com/taigrr/viewnudge/pkg/render"
	"github.com/taigrr/viewnudge/pkg/scene"
)

// settleEpsilon is the remaining offset, in pixels, treated as settled.
const settleEpsilon = 0.05

// OffsetAxis eases a queued pixel offset out over several frames.
type OffsetAxis struct {
	Remaining float64 // Pixels still to nudge
	velocity  float64
	spring    harmonica.Spring
}

// NewOffsetAxis creates an axis driven by a harmonica spring.
func NewOffsetAxis(cfg config.SpringConfig) OffsetAxis {
	return OffsetAxis{
		spring: harmonica.NewSpring(harmonica.FPS(cfg.FPS), cfg.Frequency, cfg.Damping),
	}
}

// Step advances one frame and returns the pixels to nudge in it.
func (a *OffsetAxis) Step() float64 {
	prev := a.Remaining
	a.Remaining, a.velocity = a.spring.Update(a.Remaining, a.velocity, 0)
	if math.Abs(a.Remaining) < settleEpsilon && math.Abs(a.velocity) < settleEpsilon {
		a.Remaining, a.velocity = 0, 0
	}
	return prev - a.Remaining
}

// Idle reports whether nothing is queued.
func (a *OffsetAxis) Idle() bool {
	return a.Remaining == 0 && a.velocity == 0
}

// session is the state of one interactive run.
type session struct {
	cfg    config.Config
	scene  *scene.Scene
	nudger *nudge.Nudger

	nodes    []string
	selected int
	view     string

	moveObject bool
	rotateView bool

	x, y     OffsetAxis
	dragging bool // Outer undo chunk open while an offset plays out

	status string
}

func newSession(cfg config.Config, s *scene.Scene, n *nudge.Nudger) (*session, error) {
	st, err := s.ActiveView()
	if err != nil {
		return nil, err
	}
	ss := &session{
		cfg:        cfg,
		scene:      s,
		nudger:     n,
		view:       st.Name,
		moveObject: *moveObject,
		rotateView: *rotateView,
		x:          NewOffsetAxis(cfg.Spring),
		y:          NewOffsetAxis(cfg.Spring),
	}
	for _, m := range render.Markers(s) {
		if m.Kind != scene.KindTransform {
			continue
		}
		if m.Name == *nodeName {
			ss.selected = len(ss.nodes)
		}
		ss.nodes = append(ss.nodes, m.Name)
	}
	if len(ss.nodes) == 0 {
		return nil, errors.New("scene has no transforms to nudge")
	}
	return ss, nil
}

func (s *session) target() string {
	return s.nodes[s.selected]
}

// queue adds steps of the configured size to the pending offset.
func (s *session) queue(stepsX, stepsY float64) {
	s.x.Remaining += stepsX * s.cfg.Step
	s.y.Remaining += stepsY * s.cfg.Step
}

// update plays one frame of the pending offset.
func (s *session) update() {
	if s.x.Idle() && s.y.Idle() {
		s.endDrag()
		return
	}
	if !s.dragging {
		if err := s.scene.BeginUndoChunk("nudge drag"); err != nil {
			s.status = err.Error()
			return
		}
		s.dragging = true
	}

	off := math3d.V2(s.x.Step(), s.y.Step())
	_, err := s.nudger.Nudge(nudge.Request{
		Target:     s.target(),
		Offset:     off,
		MoveObject: s.moveObject,
		RotateView: s.rotateView,
		ViewName:   s.view,
	})
	if err != nil {
		// Drop the rest of the offset; it would fail the same way.
		s.x, s.y = NewOffsetAxis(s.cfg.Spring), NewOffsetAxis(s.cfg.Spring)
		s.status = err.Error()
		s.endDrag()
	}
}

func (s *session) endDrag() {
	if !s.dragging {
		return
	}
	s.dragging = false
	if err := s.scene.EndUndoChunk(); err != nil {
		s.status = err.Error()
	}
}

// nextView gives focus to the next view, sized like the current one.
func (s *session) nextView() {
	names := s.scene.Views()
	if len(names) < 2 {
		return
	}
	cur, err := s.scene.ViewByName(s.view)
	if err != nil {
		s.status = err.Error()
		return
	}
	i := slices.Index(names, s.view)
	next := names[(i+1)%len(names)]
	if err := s.scene.ResizeView(next, cur.Width, cur.Height); err != nil {
		s.status = err.Error()
		return
	}
	if err := s.scene.SetActiveView(next); err != nil {
		s.status = err.Error()
		return
	}
	s.view = next
	s.status = "view " + next
}

func (s *session) undo(redo bool) {
	if s.dragging {
		s.status = "wait for the nudge to finish"
		return
	}
	var (
		step scene.Step
		err  error
	)
	if redo {
		step, err = s.scene.Redo()
	} else {
		step, err = s.scene.Undo()
	}
	if err != nil {
		s.status = err.Error()
		return
	}
	verb := "undid"
	if redo {
		verb = "redid"
	}
	s.status = fmt.Sprintf("%s %s (%d changes)", verb, step.Label, step.Changes)
}

// handleKey applies one key press. It returns false to quit.
func (s *session) handleKey(ev uv.KeyPressEvent) bool {
	switch {
	case ev.MatchString("escape", "ctrl+c"):
		return false
	case ev.MatchString("left"):
		s.queue(-1, 0)
	case ev.MatchString("right"):
		s.queue(1, 0)
	case ev.MatchString("up"):
		s.queue(0, 1)
	case ev.MatchString("down"):
		s.queue(0, -1)
	case ev.MatchString("shift+left"):
		s.queue(-10, 0)
	case ev.MatchString("shift+right"):
		s.queue(10, 0)
	case ev.MatchString("shift+up"):
		s.queue(0, 10)
	case ev.MatchString("shift+down"):
		s.queue(0, -10)
	case ev.MatchString("tab"):
		s.selected = (s.selected + 1) % len(s.nodes)
	case ev.MatchString("v"):
		if !s.dragging {
			s.nextView()
		}
	case ev.MatchString("m"):
		s.moveObject = !s.moveObject
	case ev.MatchString("r"):
		s.rotateView = !s.rotateView
	case ev.MatchString("u"):
		s.undo(false)
	case ev.MatchString("U", "shift+u"):
		s.undo(true)
	}
	return true
}

func (s *session) hud() (top, bottom string) {
	mode := "camera"
	if s.moveObject {
		mode = "object"
	}
	aim := "off"
	if s.rotateView {
		aim = "on"
	}
	top = fmt.Sprintf(" %s | %s | %s mode | re-aim %s | %d undo steps ", s.target(), s.view, mode, aim, len(s.scene.History()))
	bottom = " " + s.status + " "
	return top, bottom
}

func runInteractive(cfg config.Config, s *scene.Scene, nudger *nudge.Nudger) error {
	sess, err := newSession(cfg, s, nudger)
	if err != nil {
		return err
	}

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	fb := render.NewFramebuffer(width, height*2)
	if err := s.ResizeView(sess.view, fb.Width, fb.Height); err != nil {
		return err
	}
	wire := render.NewWireframe()

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	events := make(chan uv.Event)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	cleanup := func() {
		sess.endDrag()
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Spring.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return save(cfg, s)

		case ev := <-events:
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				fb.Resize(width, height*2)
				if err := s.ResizeView(sess.view, fb.Width, fb.Height); err != nil {
					sess.status = err.Error()
				}
			case uv.KeyPressEvent:
				if !sess.handleKey(ev) {
					cancel()
				}
			}

		case <-ticker.C:
			sess.update()

			st, err := s.ViewByName(sess.view)
			if err != nil {
				cleanup()
				return err
			}
			wire.Render(fb, st, render.Markers(s), sess.target())
			fb.Draw(term, uv.Rect(0, 0, width, height))

			top, bottom := sess.hud()
			drawText(term, 0, 0, top)
			drawText(term, 0, height-1, bottom)

			if err := term.Display(); err != nil {
				cleanup()
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}

var hudStyle = uv.Style{
	Fg: color.RGBA{255, 255, 255, 255},
	Bg: color.RGBA{0, 0, 0, 255},
}

func drawText(scr uv.Screen, col, row int, text string) {
	for _, r := range text {
		scr.SetCell(col, row, &uv.Cell{Content: string(r), Width: 1, Style: hudStyle})
		col++
	}
}

func save(cfg config.Config, s *scene.Scene) error {
	if cfg.Output == "" {
		return nil
	}
	if err := s.SaveGLTF(cfg.Output); err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	fmt.Printf("wrote %s\n", cfg.Output)
	return nil
}
