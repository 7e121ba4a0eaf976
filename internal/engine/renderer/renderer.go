// Package renderer draws the scene's actors with OpenGL and answers
// hardware selection queries from an offscreen id buffer.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/colormap"
	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/engine/framebuffer"
	"github.com/Faultbox/meshview/internal/engine/glsl"
	"github.com/Faultbox/meshview/internal/engine/picking"
	"github.com/Faultbox/meshview/internal/engine/shader"
	"github.com/Faultbox/meshview/internal/engine/vertex"
	"github.com/Faultbox/meshview/internal/scene"
)

// LUTSize is the width of the lookup table texture.
const LUTSize = 256

// Config holds renderer configuration.
type Config struct {
	// Window reports the drawable size in pixels.
	Window scene.Window
	// Present is called after each frame, typically to swap buffers.
	Present func()
	// Field chooses whether selection returns points or cells.
	Field scene.FieldType
	// PickPointSize is the point size used when rendering point ids.
	PickPointSize float32
}

// Renderer implements scene.Renderer and scene.Selector.
type Renderer struct {
	cfg Config
	log *zap.Logger

	Camera *camera.Camera

	inner, outer colorful.Color
	actors       []*scene.Actor

	program    *shader.Program // mesh program, created on the first mesh draw
	background uint32
	idProgram  uint32

	vao, vbo  uint32
	emptyVAO  uint32
	lut       uint32
	lutSource *colormap.LookupTable

	ids *framebuffer.Framebuffer
}

// New creates a renderer. It must be called after the GL context exists.
func New(cfg Config, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Window == nil {
		return nil, fmt.Errorf("renderer: window is required")
	}
	if cfg.PickPointSize <= 0 {
		cfg.PickPointSize = 5
	}
	r := &Renderer{cfg: cfg, log: log, Camera: camera.New()}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	var err error
	if r.background, err = shader.CompileProgram(glsl.BackgroundVertex, glsl.BackgroundFragment); err != nil {
		return nil, fmt.Errorf("background program: %w", err)
	}
	if r.idProgram, err = shader.CompileProgram(glsl.IDVertex, glsl.IDFragment); err != nil {
		r.Close()
		return nil, fmt.Errorf("id program: %w", err)
	}

	w, h := cfg.Window.Size()
	if r.ids, err = framebuffer.New(int32(w), int32(h)); err != nil {
		r.Close()
		return nil, err
	}

	r.createBuffers()
	gl.GenTextures(1, &r.lut)
	gl.BindTexture(gl.TEXTURE_1D, r.lut)
	gl.TexParameteri(gl.TEXTURE_1D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_1D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_1D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)

	return r, nil
}

func (r *Renderer) createBuffers() {
	gl.GenVertexArrays(1, &r.emptyVAO)

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)

	stride := int32(vertex.Stride * 4)
	attrib := func(loc uint32, size int32, offset int) {
		gl.VertexAttribPointerWithOffset(loc, size, gl.FLOAT, false, stride, uintptr(offset*4))
		gl.EnableVertexAttribArray(loc)
	}
	attrib(glsl.LocPosition, 3, vertex.OffsetPosition)
	attrib(glsl.LocNormal, 3, vertex.OffsetNormal)
	attrib(glsl.LocColor, 4, vertex.OffsetColor)
	attrib(glsl.LocScalar, 1, vertex.OffsetScalar)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

// Close releases all GL objects.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if r.program != nil {
		r.program.Delete()
		r.program = nil
	}
	for _, p := range []*uint32{&r.background, &r.idProgram} {
		if *p != 0 {
			gl.DeleteProgram(*p)
			*p = 0
		}
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	for _, v := range []*uint32{&r.vao, &r.emptyVAO} {
		if *v != 0 {
			gl.DeleteVertexArrays(1, v)
		}
	}
	if r.lut != 0 {
		gl.DeleteTextures(1, &r.lut)
	}
	if r.ids != nil {
		r.ids.Destroy()
	}
}

func (r *Renderer) SetGradientBackground(inner, outer colorful.Color) {
	r.inner, r.outer = inner, outer
}

func (r *Renderer) AddActor(a *scene.Actor) {
	for _, x := range r.actors {
		if x == a {
			return
		}
	}
	r.actors = append(r.actors, a)
}

func (r *Renderer) RemoveAllActors() { r.actors = nil }

func (r *Renderer) ResetCamera() { r.Camera.Reset(scene.Bounds(r.actors)) }

func (r *Renderer) Azimuth(degrees float64) { r.Camera.Azimuth(float32(degrees)) }

func (r *Renderer) ResetCameraClippingRange() {
	r.Camera.ResetClippingRange(scene.Bounds(r.actors))
}

// ShaderProgram returns the mesh program, or nil before the first mesh
// has been drawn.
func (r *Renderer) ShaderProgram() scene.ShaderProgram {
	if r.program == nil {
		return nil
	}
	return r.program
}

func (r *Renderer) ensureProgram() error {
	if r.program != nil {
		return nil
	}
	p, err := shader.NewProgram(glsl.MeshVertex, glsl.MeshFragment)
	if err != nil {
		return fmt.Errorf("mesh program: %w", err)
	}
	r.program = p
	r.log.Debug("mesh program created", zap.Uint32("program", p.ID()))
	return nil
}

// Render draws the background and every actor, then presents the frame.
func (r *Renderer) Render() error {
	if err := r.draw(); err != nil {
		return err
	}
	if r.cfg.Present != nil {
		r.cfg.Present()
	}
	return nil
}

// Snapshot draws a frame into the back buffer and reads it back as RGBA
// rows, bottom row first. The frame is not presented.
func (r *Renderer) Snapshot() (pixels []byte, w, h int, err error) {
	if err := r.draw(); err != nil {
		return nil, 0, 0, err
	}
	w, h = r.cfg.Window.Size()
	pixels = make([]byte, w*h*4)
	gl.ReadBuffer(gl.BACK)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	if err := glError("snapshot"); err != nil {
		return nil, 0, 0, err
	}
	return pixels, w, h, nil
}

func (r *Renderer) draw() error {
	w, h := r.cfg.Window.Size()
	gl.Viewport(0, 0, int32(w), int32(h))
	gl.ClearColor(float32(r.outer.R), float32(r.outer.G), float32(r.outer.B), 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	r.drawBackground(w, h)

	vp := r.Camera.ViewProjection(w, h)
	for _, a := range r.actors {
		if a.Mapper.Mesh == nil || a.Mapper.Mesh.IsEmpty() {
			continue
		}
		if err := r.ensureProgram(); err != nil {
			return err
		}
		r.drawActor(a, vp)
	}

	return glError("render")
}

func (r *Renderer) drawBackground(w, h int) {
	gl.Disable(gl.DEPTH_TEST)
	gl.UseProgram(r.background)
	gl.Uniform3f(shader.GetUniform(r.background, "uInner"), float32(r.inner.R), float32(r.inner.G), float32(r.inner.B))
	gl.Uniform3f(shader.GetUniform(r.background, "uOuter"), float32(r.outer.R), float32(r.outer.G), float32(r.outer.B))
	aspect := float32(w) / float32(max(h, 1))
	gl.Uniform2f(shader.GetUniform(r.background, "uAspect"), aspect, 1)
	gl.BindVertexArray(r.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.Enable(gl.DEPTH_TEST)
}

func (r *Renderer) drawActor(a *scene.Actor, vp mgl32.Mat4) {
	m, p := a.Mapper.Mesh, a.Property

	paint := vertex.Paint{Solid: p.Color, Alpha: 1}
	useTexture := false
	if colors, cellData, ok := a.Mapper.MapScalars(); ok {
		paint.Colors, paint.CellData = colors, cellData
		if a.Mapper.InterpolateScalarsBeforeMapping && !cellData {
			paint.Coords = a.Mapper.TextureCoords()
			useTexture = r.uploadLUT(a.Mapper.LookupTable)
		}
	}

	prog := r.program
	prog.Use()
	gl.UniformMatrix4fv(prog.Uniform("uMVP"), 1, false, &vp[0])
	view := r.Camera.ViewMatrix()
	gl.UniformMatrix4fv(prog.Uniform("uModelView"), 1, false, &view[0])
	gl.Uniform1f(prog.Uniform("uPointSize"), float32(p.PointSize))
	gl.Uniform1i(prog.Uniform("uLookupTable"), 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_1D, r.lut)

	draw := func(mode uint32, stream []float32, lit, texture bool, opacity float64) {
		if len(stream) == 0 {
			return
		}
		gl.Uniform1i(prog.Uniform("uUseTexture"), boolInt(texture))
		gl.Uniform1i(prog.Uniform("uLighting"), boolInt(lit))
		gl.Uniform1f(prog.Uniform("uOpacity"), float32(opacity))
		if opacity < 1 {
			gl.Enable(gl.BLEND)
			gl.DepthMask(false)
		}
		r.drawStream(mode, stream)
		gl.Disable(gl.BLEND)
		gl.DepthMask(true)
	}

	gl.LineWidth(float32(max(p.LineWidth, 1)))
	switch p.Representation {
	case scene.Points:
		draw(gl.POINTS, vertex.Points(m, paint), false, useTexture, p.Opacity)
	case scene.Wireframe:
		draw(gl.LINES, vertex.Lines(m, paint), false, useTexture, p.Opacity)
	default:
		if p.EdgeVisibility {
			gl.Enable(gl.POLYGON_OFFSET_FILL)
			gl.PolygonOffset(1, 1)
		}
		draw(gl.TRIANGLES, vertex.Triangles(m, paint), true, useTexture, p.Opacity)
		gl.Disable(gl.POLYGON_OFFSET_FILL)
		if p.EdgeVisibility {
			edges := vertex.Paint{Solid: p.EdgeColor, Alpha: 1}
			draw(gl.LINES, vertex.Lines(m, edges), false, false, p.EdgeOpacity)
		}
	}
	if p.VertexVisibility && p.Representation != scene.Points {
		verts := vertex.Paint{Solid: p.VertexColor, Alpha: 1}
		draw(gl.POINTS, vertex.Points(m, verts), false, false, p.Opacity)
	}
}

func (r *Renderer) drawStream(mode uint32, stream []float32) {
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(stream)*4, unsafe.Pointer(&stream[0]), gl.STREAM_DRAW)
	gl.DrawArrays(mode, 0, vertex.Count(stream))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

// uploadLUT refreshes the lookup table texture when the table changed.
func (r *Renderer) uploadLUT(t *colormap.LookupTable) bool {
	if t == nil {
		return false
	}
	if t != r.lutSource {
		px := t.RGBA8(LUTSize)
		gl.BindTexture(gl.TEXTURE_1D, r.lut)
		gl.TexImage1D(gl.TEXTURE_1D, 0, gl.RGBA8, LUTSize, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(px))
		r.lutSource = t
		r.log.Debug("lookup table uploaded", zap.String("scheme", t.Scheme()))
	}
	return true
}

// Select renders element ids of the first actor into the id buffer and
// returns the distinct ids visible inside area.
func (r *Renderer) Select(area scene.Rect) (*scene.SelectionResult, error) {
	if f := r.cfg.Field; f != scene.FieldPoint && f != scene.FieldCell {
		return nil, fmt.Errorf("%w: field %s", scene.ErrSelectionUnsupported, f)
	}
	res := &scene.SelectionResult{FieldType: r.cfg.Field}
	var a *scene.Actor
	for _, x := range r.actors {
		if x.Mapper.Mesh != nil && !x.Mapper.Mesh.IsEmpty() {
			a = x
			break
		}
	}
	if a == nil {
		return res, nil
	}
	m := a.Mapper.Mesh

	w, h := r.cfg.Window.Size()
	r.ids.Resize(int32(w), int32(h))
	restore := r.ids.BindWithViewport()
	r.ids.ClearIDs()

	vp := r.Camera.ViewProjection(w, h)
	gl.UseProgram(r.idProgram)
	gl.UniformMatrix4fv(shader.GetUniform(r.idProgram, "uMVP"), 1, false, &vp[0])
	gl.Uniform1f(shader.GetUniform(r.idProgram, "uPointSize"), r.cfg.PickPointSize)

	switch r.cfg.Field {
	case scene.FieldCell:
		tris, pts := vertex.CellIDs(m)
		r.drawIDs(gl.TRIANGLES, tris)
		r.drawIDs(gl.POINTS, pts)
	case scene.FieldPoint:
		gl.Enable(gl.POLYGON_OFFSET_FILL)
		gl.PolygonOffset(1, 1)
		r.drawIDs(gl.TRIANGLES, vertex.Occluders(m))
		gl.Disable(gl.POLYGON_OFFSET_FILL)
		r.drawIDs(gl.POINTS, vertex.PointIDs(m))
	}

	pixels := r.ids.ReadPixels()
	restore()
	if err := glError("select"); err != nil {
		return nil, err
	}

	res.IDs = picking.IDsInArea(pixels, w, h, picking.Area{X0: area.X0, Y0: area.Y0, X1: area.X1, Y1: area.Y1})
	r.log.Debug("id buffer read", zap.Int("hits", len(res.IDs)))
	return res, nil
}

func (r *Renderer) drawIDs(mode uint32, stream []float32) {
	if len(stream) > 0 {
		r.drawStream(mode, stream)
	}
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: GL error 0x%x", op, code)
	}
	return nil
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
