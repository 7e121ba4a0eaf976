// Package app is the host-facing surface of the viewer. It keeps the
// string and no-op conventions hosts rely on and logs the structured
// errors the scene controller reports underneath them.
package app

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/colormap"
	"github.com/Faultbox/meshview/internal/scene"
)

// Strings returned by the shader accessors.
const (
	ShaderSuccess  = "Success!"
	ShaderNotReady = "Shader program not yet ready!"
)

// App wraps a scene controller with the host calling convention.
type App struct {
	ctl *scene.Controller
	log *zap.Logger
}

// New wraps ctl; a nil log disables logging.
func New(ctl *scene.Controller, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{ctl: ctl, log: log}
}

// Controller returns the wrapped controller.
func (a *App) Controller() *scene.Controller { return a.ctl }

func (a *App) trace(fn string, fields ...zap.Field) {
	a.log.Debug(fn, fields...)
}

// report logs an error the host does not get to see.
func (a *App) report(fn string, err error) {
	if err == nil {
		return
	}
	switch scene.KindOf(err) {
	case scene.UnsupportedFormat, scene.UnknownColorArray, scene.NoMesh, scene.ShaderProgramNotReady:
		a.log.Debug(fn+" ignored", zap.Error(err))
	default:
		a.log.Warn(fn+" failed", zap.Error(err))
	}
}

// LoadDataFileFromMemory parses the first nbytes of buffer as the format
// named by filename's suffix. Unknown suffixes and parse failures leave the
// current mesh in place. nbytes is clamped to the buffer.
func (a *App) LoadDataFileFromMemory(filename string, buffer []byte, nbytes int) {
	a.trace("LoadDataFileFromMemory",
		zap.String("filename", filename),
		zap.Int("nbytes", nbytes),
		zap.Int("cap", len(buffer)),
	)
	nbytes = max(0, min(nbytes, len(buffer)))
	a.report("LoadDataFileFromMemory", a.ctl.Load(filename, buffer, nbytes))
}

func (a *App) Initialize() {
	a.trace("Initialize")
	a.ctl.Initialize()
}

func (a *App) Render() {
	a.trace("Render")
	a.report("Render", a.ctl.Render())
}

func (a *App) ResetView() {
	a.trace("ResetView")
	a.ctl.ResetView()
}

func (a *App) RemoveAllActors() {
	a.trace("RemoveAllActors")
	a.ctl.RemoveAllActors()
}

func (a *App) Start() {
	a.trace("Start")
	a.ctl.Start()
}

func (a *App) Halt() {
	a.trace("Halt")
	a.ctl.Halt()
}

func (a *App) Resume() {
	a.trace("Resume")
	a.ctl.Resume()
}

// SetVertexShaderSource returns ShaderSuccess or the compiler diagnostic.
func (a *App) SetVertexShaderSource(source string) string {
	a.trace("SetVertexShaderSource", zap.Int("length", len(source)))
	return a.setShader(scene.VertexStage, source)
}

// SetFragmentShaderSource returns ShaderSuccess or the compiler diagnostic.
func (a *App) SetFragmentShaderSource(source string) string {
	a.trace("SetFragmentShaderSource", zap.Int("length", len(source)))
	return a.setShader(scene.FragmentStage, source)
}

func (a *App) setShader(stage scene.ShaderStage, source string) string {
	res, err := a.ctl.SetShaderSource(stage, source)
	a.report("SetShaderSource", err)
	if !res.OK {
		return res.Diagnostic
	}
	return ShaderSuccess
}

// GetVertexShaderSource returns the vertex source or ShaderNotReady.
func (a *App) GetVertexShaderSource() string {
	a.trace("GetVertexShaderSource")
	return a.getShader(scene.VertexStage)
}

// GetFragmentShaderSource returns the fragment source or ShaderNotReady.
func (a *App) GetFragmentShaderSource() string {
	a.trace("GetFragmentShaderSource")
	return a.getShader(scene.FragmentStage)
}

func (a *App) getShader(stage scene.ShaderStage) string {
	src, err := a.ctl.ShaderSource(stage)
	if err != nil {
		return ShaderNotReady
	}
	return src
}

func (a *App) SetRepresentation(mode int) {
	a.trace("SetRepresentation", zap.Int("mode", mode))
	a.ctl.SetRepresentation(mode)
}

func (a *App) SetVertexVisibility(visible bool) {
	a.trace("SetVertexVisibility", zap.Bool("visible", visible))
	a.ctl.SetVertexVisibility(visible)
}

func (a *App) SetPointSize(size float32) {
	a.trace("SetPointSize", zap.Float32("size", size))
	a.ctl.SetPointSize(float64(size))
}

func (a *App) SetLineWidth(width float32) {
	a.trace("SetLineWidth", zap.Float32("width", width))
	a.ctl.SetLineWidth(float64(width))
}

func (a *App) SetColor(r, g, b int) {
	a.trace("SetColor", zap.Ints("rgb", []int{r, g, b}))
	a.ctl.SetColor(r, g, b)
}

func (a *App) SetEdgeColor(r, g, b int) {
	a.trace("SetEdgeColor", zap.Ints("rgb", []int{r, g, b}))
	a.ctl.SetEdgeColor(r, g, b)
}

func (a *App) SetVertexColor(r, g, b int) {
	a.trace("SetVertexColor", zap.Ints("rgb", []int{r, g, b}))
	a.ctl.SetVertexColor(r, g, b)
}

func (a *App) SetOpacity(v float32) {
	a.trace("SetOpacity", zap.Float32("opacity", v))
	a.ctl.SetOpacity(float64(v))
}

func (a *App) SetEdgeOpacity(v float32) {
	a.trace("SetEdgeOpacity", zap.Float32("opacity", v))
	a.ctl.SetEdgeOpacity(float64(v))
}

func (a *App) SetScrollSensitivity(v float32) {
	a.trace("SetScrollSensitivity", zap.Float32("sensitivity", v))
	a.ctl.SetScrollSensitivity(float64(v))
}

// SetColorByArray colors by a point or cell array, or "Solid". Unknown
// names are ignored.
func (a *App) SetColorByArray(name string) {
	a.trace("SetColorByArray", zap.String("array", name))
	a.report("SetColorByArray", a.ctl.SetColorByArray(name))
}

// SetColorMapPreset selects a color scheme. Unknown names are logged as
// errors and leave the scheme unchanged.
func (a *App) SetColorMapPreset(name string) {
	a.trace("SetColorMapPreset", zap.String("preset", name))
	if err := a.ctl.SetColorMapPreset(name); err != nil {
		a.log.Error("SetColorMapPreset failed", zap.Error(err))
	}
}

func (a *App) SetInterpolateScalarsBeforeMapping(on bool) {
	a.trace("SetInterpolateScalarsBeforeMapping", zap.Bool("on", on))
	a.ctl.SetInterpolateScalarsBeforeMapping(on)
}

func (a *App) Azimuth(degrees float32) {
	a.trace("Azimuth", zap.Float32("degrees", degrees))
	a.ctl.Azimuth(float64(degrees))
}

// GetPointDataArrays returns the point array names joined by ';'.
func (a *App) GetPointDataArrays() string {
	a.trace("GetPointDataArrays")
	return a.ctl.PointDataArrays()
}

// GetCellDataArrays returns the cell array names joined by ';'.
func (a *App) GetCellDataArrays() string {
	a.trace("GetCellDataArrays")
	return a.ctl.CellDataArrays()
}

// GetColorMapPresets returns the fixed catalog of scheme names.
func (a *App) GetColorMapPresets() string {
	a.trace("GetColorMapPresets")
	return colormap.Presets()
}

// GetSelectionFieldType returns the field type of the last pick, or "".
func (a *App) GetSelectionFieldType() string {
	a.trace("GetSelectionFieldType")
	if s := a.ctl.LastSelection(); s != nil {
		return s.FieldType.String()
	}
	return ""
}

// GetSelectedIds returns the ids of the last pick joined by ';'.
func (a *App) GetSelectedIds() string {
	a.trace("GetSelectedIds")
	s := a.ctl.LastSelection()
	if s == nil {
		return ""
	}
	ids := make([]string, len(s.IDs))
	for i, id := range s.IDs {
		ids[i] = strconv.Itoa(id)
	}
	return strings.Join(ids, scene.ListSeparator)
}
