// Package viewer runs the interactive mesh viewer: an SDL window, the GL
// renderer and the scene controller driven by the frame loop.
package viewer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/app"
	"github.com/Faultbox/meshview/internal/colormap"
	"github.com/Faultbox/meshview/internal/engine/input"
	"github.com/Faultbox/meshview/internal/engine/interact"
	"github.com/Faultbox/meshview/internal/engine/renderer"
	"github.com/Faultbox/meshview/internal/engine/screenshot"
	"github.com/Faultbox/meshview/internal/engine/window"
	"github.com/Faultbox/meshview/internal/runloop"
	"github.com/Faultbox/meshview/internal/scene"
)

// Config holds viewer configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	TargetFPS  int
	Field      scene.FieldType
	// Scene configures the controller; Backend and Logger are filled in.
	Scene       scene.Config
	Interpolate bool

	ScreenshotDir    string
	ScreenshotFormat string
}

// Viewer is the interactive application.
type Viewer struct {
	config   Config
	log      *zap.Logger
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	interact *interact.Interactor
	loop     *runloop.Loop
	app      *app.App
	shots    *screenshot.Capture

	// pending is set by the file dialog goroutine and consumed on the
	// loop goroutine, which owns the GL context.
	pending chan string
}

// New creates the window, renderer and controller.
func New(cfg Config, log *zap.Logger) (*Viewer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("initializing viewer",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
	)

	v := &Viewer{config: cfg, log: log, pending: make(chan string, 1)}

	var err error
	v.shots, err = screenshot.New(cfg.ScreenshotDir, "meshview", cfg.ScreenshotFormat)
	if err != nil {
		return nil, err
	}

	// Create window (this also creates OpenGL context)
	v.window, err = window.New(window.Config{
		Title:      cfg.Title,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Fullscreen: cfg.Fullscreen,
		VSync:      cfg.VSync,
	}, log.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	v.renderer, err = renderer.New(renderer.Config{
		Window:  v.window,
		Present: v.window.SwapBuffers,
		Field:   cfg.Field,
	}, log.Named("renderer"))
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.input = input.New()
	v.interact = interact.New(v.renderer.Camera, v.window.Size, log.Named("interact"))
	v.loop = runloop.New(runloop.Config{TargetFPS: cfg.TargetFPS}, v.pump, v.frame, log.Named("loop"))

	sc := cfg.Scene
	sc.Logger = log.Named("scene")
	sc.Backend = scene.Backend{
		Renderer:   v.renderer,
		Interactor: v.interact,
		Window:     v.window,
		Selector:   v.renderer,
		Host:       v.loop,
	}
	ctl, err := scene.New(sc)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}
	v.app = app.New(ctl, log.Named("app"))
	v.app.Initialize()
	v.app.SetInterpolateScalarsBeforeMapping(cfg.Interpolate)
	ctl.OnSelection(v.onSelection)

	log.Info("viewer initialized successfully")
	return v, nil
}

// App returns the host-facing surface of the viewer's scene.
func (v *Viewer) App() *app.App { return v.app }

// Open reads a mesh file and loads it. The camera is refit to the result.
func (v *Viewer) Open(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name := filepath.Base(path)
	ctl := v.app.Controller()
	if err := ctl.Load(name, data, len(data)); err != nil {
		return err
	}
	ctl.ResetView()
	v.window.SetTitle(fmt.Sprintf("%s - %s", v.config.Title, name))
	v.log.Info("opened mesh",
		zap.String("path", path),
		zap.String("pointArrays", ctl.PointDataArrays()),
		zap.String("cellArrays", ctl.CellDataArrays()),
	)
	return nil
}

// Run starts the frame loop and blocks until the window closes.
func (v *Viewer) Run() error {
	v.log.Info("starting viewer loop")
	v.app.Start()
	return v.loop.Err()
}

// Close releases the renderer and the window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

// pump handles input; it runs every iteration, also while paused.
func (v *Viewer) pump() bool {
	if v.input.Update() {
		return false
	}

	scale := v.window.Scale()
	px := func(x int) int { return int(float32(x) * scale) }

	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventKeyDown:
			if !v.handleKey(event) {
				return false
			}
		case input.EventMouseDown:
			v.interact.Press(button(event.Button), px(event.MouseX), px(event.MouseY), event.Shift)
		case input.EventMouseMove:
			v.interact.Move(px(event.MouseX), px(event.MouseY))
		case input.EventMouseUp:
			v.interact.Release(button(event.Button), px(event.MouseX), px(event.MouseY))
		case input.EventMouseWheel:
			v.interact.Wheel(event.WheelY)
		case input.EventDropFile:
			v.openReported(event.Path)
		}
	}

	select {
	case path := <-v.pending:
		v.openReported(path)
	default:
	}
	return true
}

// handleKey applies keyboard shortcuts. It returns false to quit.
func (v *Viewer) handleKey(event input.Event) bool {
	ctl := v.app.Controller()
	switch event.Key {
	case sdl.SCANCODE_ESCAPE, sdl.SCANCODE_Q:
		return false
	case sdl.SCANCODE_O:
		v.openFileDialog()
	case sdl.SCANCODE_R:
		v.app.ResetView()
	case sdl.SCANCODE_P:
		v.interact.SetPickMode(!v.interact.PickMode())
	case sdl.SCANCODE_1, sdl.SCANCODE_2, sdl.SCANCODE_3, sdl.SCANCODE_4:
		v.app.SetRepresentation(int(event.Key - sdl.SCANCODE_1))
	case sdl.SCANCODE_V:
		ctl.SetVertexVisibility(!ctl.Actor().Property.VertexVisibility)
	case sdl.SCANCODE_C:
		next := ctl.Scene().Attributes.NextColoring(ctl.Coloring())
		if err := ctl.SetColoring(next); err != nil {
			v.log.Warn("coloring failed", zap.Error(err))
		}
		v.log.Info("coloring", zap.Stringer("state", next))
	case sdl.SCANCODE_M:
		v.app.SetColorMapPreset(nextPreset(ctl.ColorMapPreset()))
		v.log.Info("color map", zap.String("preset", ctl.ColorMapPreset()))
	case sdl.SCANCODE_I:
		on := !ctl.Actor().Mapper.InterpolateScalarsBeforeMapping
		v.app.SetInterpolateScalarsBeforeMapping(on)
	case sdl.SCANCODE_LEFT:
		v.app.Azimuth(-10)
	case sdl.SCANCODE_RIGHT:
		v.app.Azimuth(10)
	case sdl.SCANCODE_F12:
		v.captureScreenshot()
	case sdl.SCANCODE_SPACE:
		if v.loop.Paused() {
			v.app.Resume()
		} else {
			v.app.Halt()
		}
	}
	return true
}

// frame draws the scene; skipped while halted.
func (v *Viewer) frame(time.Duration) error {
	v.interact.TakeRedraw()
	return v.app.Controller().Render()
}

func (v *Viewer) captureScreenshot() {
	pixels, w, h, err := v.renderer.Snapshot()
	if err != nil {
		v.log.Warn("snapshot failed", zap.Error(err))
		return
	}
	path, err := v.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

func (v *Viewer) openReported(path string) {
	if err := v.Open(path); err != nil {
		v.log.Warn("failed to open mesh", zap.String("path", path), zap.Error(err))
	}
}

// openFileDialog shows a native file dialog without blocking the loop.
func (v *Viewer) openFileDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("Mesh files", "vtk", "vtp", "vtu", "obj", "ply", "stl").
			Filter("All Files", "*").
			Title("Open mesh").
			Load()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				v.log.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case v.pending <- filename:
		default:
		}
	}()
}

func (v *Viewer) onSelection(res *scene.SelectionResult) {
	v.log.Info("selection",
		zap.Stringer("field", res.FieldType),
		zap.Ints("ids", res.IDs),
		zap.String("array", res.Array),
		zap.Float64s("values", res.Values),
	)
	v.window.SetTitle(fmt.Sprintf("%s - %d %s selected", v.config.Title, len(res.IDs), res.FieldType))
}

func button(b uint8) interact.Button {
	switch b {
	case sdl.BUTTON_LEFT:
		return interact.ButtonLeft
	case sdl.BUTTON_MIDDLE:
		return interact.ButtonMiddle
	case sdl.BUTTON_RIGHT:
		return interact.ButtonRight
	}
	return 0
}

func nextPreset(cur string) string {
	names := colormap.Names()
	for i, n := range names {
		if n == cur {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}
