// Package scene implements the viewer's scene controller: it loads one mesh
// at a time from in-memory buffers, keeps track of the mesh's attribute
// arrays, maps a chosen array through a color lookup table and forwards
// area picks to the rendering backend.
package scene

import (
	"errors"
	"sync/atomic"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/colormap"
	"github.com/Faultbox/meshview/pkg/formats"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Default background gradient and wheel zoom factor.
var (
	DefaultBackgroundInner = colorful.Color{R: 0.196, G: 0.298, B: 0.384}
	DefaultBackgroundOuter = colorful.Color{R: 0.122, G: 0.114, B: 0.173}
)

const DefaultScrollSensitivity = 0.15

// Config holds controller configuration.
type Config struct {
	Backend  Backend
	Registry *formats.Registry // nil uses formats.Default()
	Logger   *zap.Logger       // nil disables logging

	BackgroundInner   colorful.Color
	BackgroundOuter   colorful.Color
	ScrollSensitivity float64
	ColorScheme       string
}

// DefaultConfig returns sensible defaults; the caller fills in Backend.
func DefaultConfig() Config {
	return Config{
		BackgroundInner:   DefaultBackgroundInner,
		BackgroundOuter:   DefaultBackgroundOuter,
		ScrollSensitivity: DefaultScrollSensitivity,
		ColorScheme:       colormap.DefaultScheme,
	}
}

// Scene is the loaded mesh together with its attribute names. A Scene is
// never modified after it is published; every load publishes a new one.
type Scene struct {
	Mesh       *mesh.Mesh
	Attributes *AttributeRegistry
	Generation uint64
}

// Controller owns the single mesh, its actor and the rendering backend.
// Its methods are meant to be called from one goroutine, the one running
// the render loop; pick callbacks arrive on that goroutine too.
type Controller struct {
	cfg     Config
	backend Backend
	log     *zap.Logger

	dispatcher *Dispatcher
	actor      *Actor
	pipeline   *ColorPipeline
	selection  *SelectionBridge

	scene       atomic.Pointer[Scene]
	generation  uint64
	initialized bool
	scroll      float64
}

// New creates a controller. cfg.Backend.Renderer is required.
func New(cfg Config) (*Controller, error) {
	if cfg.Backend.Renderer == nil {
		return nil, errors.New("scene: renderer is required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	c := &Controller{
		cfg:        cfg,
		backend:    cfg.Backend,
		log:        log,
		dispatcher: NewDispatcher(cfg.Registry, log),
		actor:      NewActor(),
	}
	c.pipeline = NewColorPipeline(&c.actor.Mapper, log)
	if cfg.ColorScheme != "" {
		if err := c.pipeline.SetColorScheme(cfg.ColorScheme); err != nil {
			return nil, err
		}
	}
	c.selection = NewSelectionBridge(cfg.Backend.Selector, cfg.Backend.Window, c.selectionValues, log)
	c.scene.Store(&Scene{Attributes: NewAttributeRegistry(nil)})
	return c, nil
}

// Initialize sets up the background, the pick observer and the wheel
// sensitivity. Only the first call has an effect.
func (c *Controller) Initialize() {
	if c.initialized {
		c.log.Warn("controller already initialized")
		return
	}
	c.initialized = true

	c.backend.Renderer.SetGradientBackground(c.cfg.BackgroundInner, c.cfg.BackgroundOuter)
	if c.backend.Interactor != nil {
		c.backend.Interactor.OnEndPick(func(ev PickEvent) {
			_, _ = c.selection.HandlePick(ev)
		})
	}
	scroll := c.cfg.ScrollSensitivity
	if scroll == 0 {
		scroll = DefaultScrollSensitivity
	}
	c.SetScrollSensitivity(scroll)
	c.log.Info("scene initialized")
}

// Scene returns the current scene. It is never nil.
func (c *Controller) Scene() *Scene { return c.scene.Load() }

// Actor returns the actor drawn by the renderer.
func (c *Controller) Actor() *Actor { return c.actor }

// Dispatcher returns the format dispatcher.
func (c *Controller) Dispatcher() *Dispatcher { return c.dispatcher }

// Load parses the first n bytes of buf as the format matching filename
// and, on success, makes the result the only mesh. Coloring resets to
// solid, the lookup table is rebuilt and one frame is rendered before the
// mapper is marked static. On error the current scene is left as it was.
func (c *Controller) Load(filename string, buf []byte, n int) error {
	m, err := c.dispatcher.Dispatch(filename, buf, n)
	if err != nil {
		return err
	}

	c.actor.Mapper = newMapper(m, c.actor.Mapper.InterpolateScalarsBeforeMapping)
	c.backend.Renderer.AddActor(c.actor)

	c.generation++
	attrs := NewAttributeRegistry(m)
	c.scene.Store(&Scene{Mesh: m, Attributes: attrs, Generation: c.generation})

	_ = c.pipeline.SetColoring(Solid(), m, attrs)
	c.pipeline.RebuildLookupTable()
	if err := c.backend.Renderer.Render(); err != nil {
		c.log.Warn("render after load failed", zap.Error(err))
	}
	c.actor.Mapper.Static = true

	c.log.Info("mesh loaded",
		zap.String("file", filename),
		zap.Int("points", m.NumberOfPoints()),
		zap.Int("cells", m.NumberOfCells()),
		zap.Strings("pointArrays", attrs.PointArrays()),
		zap.Strings("cellArrays", attrs.CellArrays()),
		zap.Uint64("generation", c.generation),
	)
	return nil
}

// Render draws one frame.
func (c *Controller) Render() error {
	return c.backend.Renderer.Render()
}

// ResetView fits the camera to the visible geometry.
func (c *Controller) ResetView() {
	c.backend.Renderer.ResetCamera()
}

// RemoveAllActors clears the scene, discarding the mesh, and renders.
func (c *Controller) RemoveAllActors() {
	c.backend.Renderer.RemoveAllActors()
	c.actor.Mapper = newMapper(nil, c.actor.Mapper.InterpolateScalarsBeforeMapping)
	c.generation++
	c.scene.Store(&Scene{Attributes: NewAttributeRegistry(nil), Generation: c.generation})
	c.render()
}

// Start resets the camera, renders and hands control to the host loop.
func (c *Controller) Start() {
	c.backend.Renderer.ResetCamera()
	c.render()
	if c.backend.Host != nil {
		c.backend.Host.Start()
	}
}

// Halt pauses the host loop.
func (c *Controller) Halt() {
	if c.backend.Host != nil {
		c.backend.Host.Pause()
	}
}

// Resume resumes the host loop.
func (c *Controller) Resume() {
	if c.backend.Host != nil {
		c.backend.Host.Resume()
	}
}

// SetRepresentation selects points (0), wireframe (1), surface (2) or
// surface with edges (3) and renders. Other values only render.
func (c *Controller) SetRepresentation(mode int) {
	if mode >= int(Points) && mode <= int(SurfaceWithEdges) {
		c.actor.Property.SetRepresentation(Representation(mode))
	} else {
		c.log.Debug("ignoring representation", zap.Int("mode", mode))
	}
	c.render()
}

func (c *Controller) SetVertexVisibility(visible bool) {
	c.actor.Property.VertexVisibility = visible
}

func (c *Controller) SetPointSize(size float64) {
	c.actor.Property.PointSize = size
}

func (c *Controller) SetLineWidth(width float64) {
	c.actor.Property.LineWidth = width
}

// SetColor sets the surface color from 0-255 channels.
func (c *Controller) SetColor(r, g, b int) {
	c.actor.Property.Color = rgb255(r, g, b)
}

// SetEdgeColor sets the edge color from 0-255 channels.
func (c *Controller) SetEdgeColor(r, g, b int) {
	c.actor.Property.EdgeColor = rgb255(r, g, b)
}

// SetVertexColor sets the vertex color from 0-255 channels.
func (c *Controller) SetVertexColor(r, g, b int) {
	c.actor.Property.VertexColor = rgb255(r, g, b)
}

func (c *Controller) SetOpacity(v float64) {
	c.actor.Property.Opacity = v
}

func (c *Controller) SetEdgeOpacity(v float64) {
	c.actor.Property.EdgeOpacity = v
}

func (c *Controller) SetInterpolateScalarsBeforeMapping(on bool) {
	c.actor.Mapper.InterpolateScalarsBeforeMapping = on
}

// Azimuth rotates the camera about the view up vector and refits the
// clipping range.
func (c *Controller) Azimuth(degrees float64) {
	c.backend.Renderer.Azimuth(degrees)
	c.backend.Renderer.ResetCameraClippingRange()
}

// SetScrollSensitivity sets the mouse wheel zoom factor.
func (c *Controller) SetScrollSensitivity(factor float64) {
	if c.backend.Interactor != nil {
		c.backend.Interactor.SetScrollSensitivity(factor)
	}
	c.scroll = factor
}

// ScrollSensitivity returns the mouse wheel zoom factor.
func (c *Controller) ScrollSensitivity() float64 { return c.scroll }

// SetColorByArray colors by the named point or cell array, or turns
// scalar coloring off for "Solid". Unknown names leave coloring unchanged
// and return an UnknownColorArray error.
func (c *Controller) SetColorByArray(name string) error {
	s := c.Scene()
	if s.Mesh == nil {
		return newError(NoMesh, "set color by array", name, nil)
	}
	state, err := ResolveColoring(name, s.Attributes)
	if err != nil {
		return err
	}
	return c.pipeline.SetColoring(state, s.Mesh, s.Attributes)
}

// SetColoring applies an explicit coloring state.
func (c *Controller) SetColoring(state Coloring) error {
	s := c.Scene()
	if s.Mesh == nil {
		return newError(NoMesh, "set coloring", state.Array, nil)
	}
	return c.pipeline.SetColoring(state, s.Mesh, s.Attributes)
}

// Coloring returns the active coloring state.
func (c *Controller) Coloring() Coloring { return c.pipeline.Coloring() }

// SetColorMapPreset switches the color scheme and rebuilds the table.
func (c *Controller) SetColorMapPreset(name string) error {
	return c.pipeline.SetColorScheme(name)
}

// ColorMapPreset returns the name of the active color scheme.
func (c *Controller) ColorMapPreset() string { return c.pipeline.Scheme().Name() }

// PointDataArrays lists the point array names joined by ListSeparator.
func (c *Controller) PointDataArrays() string {
	return c.Scene().Attributes.ListPointArrays()
}

// CellDataArrays lists the cell array names joined by ListSeparator.
func (c *Controller) CellDataArrays() string {
	return c.Scene().Attributes.ListCellArrays()
}

// Pick runs a selection as if the interactor had finished a rubber band
// over area.
func (c *Controller) Pick(area Rect) (*SelectionResult, error) {
	return c.selection.HandlePick(PickEvent(area))
}

// LastSelection returns the result of the most recent successful pick.
func (c *Controller) LastSelection() *SelectionResult { return c.selection.Last() }

// OnSelection subscribes fn to successful picks.
func (c *Controller) OnSelection(fn func(*SelectionResult)) { c.selection.OnSelection(fn) }

// selectionValues picks the array reported with a selection: the coloring
// array when it lives in the selected domain, else the domain's first array.
func (c *Controller) selectionValues(ft FieldType) *mesh.DataArray {
	m := c.Scene().Mesh
	if m == nil {
		return nil
	}
	fd, d := m.PointData, PointDomain
	switch ft {
	case FieldPoint:
	case FieldCell:
		fd, d = m.CellData, CellDomain
	default:
		return nil
	}
	if st := c.pipeline.Coloring(); !st.IsSolid() && st.Domain == d {
		if arr := fd.Get(st.Array); arr != nil {
			return arr
		}
	}
	if fd.Len() == 0 {
		return nil
	}
	return fd.At(0)
}

func (c *Controller) render() {
	if err := c.backend.Renderer.Render(); err != nil {
		c.log.Warn("render failed", zap.Error(err))
	}
}

func rgb255(r, g, b int) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}
