// nudger - nudge a camera or object by a screen-space pixel offset.
//
// One-shot mode loads a glTF scene (or builds a demo scene), nudges once and
// optionally writes the scene back out:
//
//	nudger -scene shot.glb -node pSphere1 -dx 10 -dy 10 -out shot.glb
//
// Interactive mode shows the scene in the terminal:
//
//	Arrows      - Nudge by one step
//	Shift+Arrow - Nudge by ten steps
//	Tab         - Select the next node
//	V           - Look through the next view
//	M           - Toggle moving the object or the camera
//	R           - Toggle re-aiming the camera
//	U / Shift+U - Undo / redo
//	Esc         - Quit (saves when -out is set)
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/taigrr/viewnudge/pkg/config"
	"github.com/taigrr/viewnudge/pkg/logging"
	"github.com/taigrr/viewnudge/pkg/math3d"
	"github.com/taigrr/viewnudge/pkg/nudge"
	"github.com/taigrr/viewnudge/pkg/render"
	"github.com/taigrr/viewnudge/pkg/scene"
)

var (
	configPath  = flag.String("config", "", "Path to a YAML config file")
	scenePath   = flag.String("scene", "", "glTF/GLB scene to load (demo scene when empty)")
	nodeName    = flag.String("node", scene.DemoTarget, "Transform to nudge from")
	dx          = flag.Float64("dx", 10, "Pixels to nudge right")
	dy          = flag.Float64("dy", 10, "Pixels to nudge up")
	moveObject  = flag.Bool("move-object", false, "Move the object instead of the camera")
	rotateView  = flag.Bool("rotate-view", true, "Re-aim the camera at the node after moving it")
	viewName    = flag.String("view", "", "View to make active and nudge in")
	outPath     = flag.String("out", "", "Write the scene here after nudging")
	pngPath     = flag.String("png", "", "Write an overlay image of the view after nudging")
	logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	interactive = flag.Bool("interactive", false, "Nudge interactively in the terminal")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "nudger - nudge a camera or object by a pixel offset\n\n")
		fmt.Fprintf(os.Stderr, "Usage: nudger [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nInteractive controls:\n")
		fmt.Fprintf(os.Stderr, "  Arrows      - Nudge by one step (Shift for ten)\n")
		fmt.Fprintf(os.Stderr, "  Tab         - Select the next node\n")
		fmt.Fprintf(os.Stderr, "  V           - Look through the next view\n")
		fmt.Fprintf(os.Stderr, "  M           - Toggle object/camera mode\n")
		fmt.Fprintf(os.Stderr, "  R           - Toggle re-aim\n")
		fmt.Fprintf(os.Stderr, "  U / Shift+U - Undo / redo\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg)

	var logger *zap.Logger
	if *interactive && cfg.LogFile == "" {
		// Anything on stderr would tear the full screen view.
		logger = zap.NewNop()
	} else if logger, err = logging.New(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	s, err := loadScene(cfg)
	if err != nil {
		return err
	}
	if *viewName != "" {
		if err := s.SetActiveView(*viewName); err != nil {
			return fmt.Errorf("%w: %s is not a view: %w", nudge.ErrInvalidView, *viewName, err)
		}
	}
	nudger := nudge.New(s, s, nudge.WithLogger(logger))

	if *interactive {
		return runInteractive(cfg, s, nudger)
	}
	return runOnce(cfg, s, nudger)
}

// applyFlags overrides config values with flags given on the command line.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = *logLevel
		case "out":
			cfg.Output = *outPath
		}
	})
}

func loadScene(cfg config.Config) (*scene.Scene, error) {
	if *scenePath == "" {
		cam := scene.Camera{
			FOV:  cfg.Camera.FOVRadians(),
			Near: cfg.Camera.Near,
			Far:  cfg.Camera.Far,
		}
		return scene.DemoWithCamera(cam, cfg.Viewport.Width, cfg.Viewport.Height), nil
	}
	s, err := scene.LoadGLTF(*scenePath, cfg.Viewport.Width, cfg.Viewport.Height)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	if len(s.Views()) == 0 {
		return nil, fmt.Errorf("load scene: %s has no perspective camera", *scenePath)
	}
	return s, nil
}

func runOnce(cfg config.Config, s *scene.Scene, nudger *nudge.Nudger) error {
	before := s.Fingerprint()
	res, err := nudger.Nudge(nudge.Request{
		Target:     *nodeName,
		Offset:     math3d.V2(*dx, *dy),
		MoveObject: *moveObject,
		RotateView: *rotateView,
	})
	if err != nil {
		if errors.Is(err, nudge.ErrProjectionFailure) {
			fmt.Printf("%s is behind the camera; nothing moved\n", *nodeName)
			return nil
		}
		return err
	}

	t := res.Translation
	fmt.Printf("%s mode in %s: moved %s by (%.4f, %.4f, %.4f)\n", res.Mode, res.View, res.Moved, t.X, t.Y, t.Z)
	if r := res.Rotation; r != (math3d.Vec3{}) {
		fmt.Printf("re-aimed %s by pitch %.4f yaw %.4f rad\n", res.Moved, r.X, r.Y)
	}
	if res.Mode == nudge.ModeObject && !res.InView {
		fmt.Printf("warning: %s is now outside %s\n", *nodeName, res.View)
	}
	fmt.Printf("scene %016x -> %016x\n", before, s.Fingerprint())

	if *pngPath != "" {
		if err := writeOverlay(s, res.View, *pngPath); err != nil {
			return err
		}
	}
	if cfg.Output != "" {
		if err := s.SaveGLTF(cfg.Output); err != nil {
			return fmt.Errorf("save scene: %w", err)
		}
		fmt.Printf("wrote %s\n", cfg.Output)
	}
	return nil
}

func writeOverlay(s *scene.Scene, view, path string) error {
	st, err := s.ViewByName(view)
	if err != nil {
		return err
	}
	fb := render.NewFramebuffer(st.Width, st.Height)
	render.NewWireframe().Render(fb, st, render.Markers(s), *nodeName)
	if err := fb.SavePNG(path); err != nil {
		return fmt.Errorf("write overlay: %w", err)
	}
	return nil
}
