// Package renderer draws a scene with OpenGL 4.1: glTF meshes lit by an
// ambient and an optional directional light, linear fog, tone mapping, and
// the unlit controller visuals. One Render call draws once per camera so a
// single desktop camera and a stereo eye pair share the same path.
package renderer

import (
	"fmt"
	"sort"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/xrviewer/internal/config"
	"github.com/Faultbox/xrviewer/internal/engine/camera"
	"github.com/Faultbox/xrviewer/internal/engine/scene"
	"github.com/Faultbox/xrviewer/internal/logger"
)

// Tone mapping modes passed to the mesh shader.
const (
	toneNone int32 = iota
	toneLinear
	toneACES
)

// Config holds renderer configuration.
type Config struct {
	// Output size in window units; the drawable is this times PixelRatio.
	Width      int
	Height     int
	PixelRatio float32
	Antialias  bool
	// ToneMapping is one of the config.ToneMapping* names.
	ToneMapping string
	Exposure    float32
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config
	width  int
	height int

	mesh  meshProgram
	unlit unlitProgram

	models   map[*scene.Model]*gpuModel
	textures map[*scene.Texture]uint32
	visuals  map[scene.Visual]*gpuVisual

	log *zap.Logger
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	if cfg.PixelRatio <= 0 {
		cfg.PixelRatio = 1
	}
	r := &Renderer{
		config:   cfg,
		models:   make(map[*scene.Model]*gpuModel),
		textures: make(map[*scene.Texture]uint32),
		visuals:  make(map[scene.Visual]*gpuVisual),
		log:      logger.Named("renderer"),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	if cfg.Antialias {
		gl.Enable(gl.MULTISAMPLE)
	}

	var err error
	if r.mesh, err = newMeshProgram(); err != nil {
		return nil, fmt.Errorf("mesh program: %w", err)
	}
	if r.unlit, err = newUnlitProgram(); err != nil {
		r.mesh.Delete()
		return nil, fmt.Errorf("unlit program: %w", err)
	}

	r.SetSize(cfg.Width, cfg.Height)
	return r, nil
}

// SetSize sets the output size in window units. The drawable size is the
// given size times the pixel ratio.
func (r *Renderer) SetSize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	r.width = int(float32(width) * r.config.PixelRatio)
	r.height = int(float32(height) * r.config.PixelRatio)
	gl.Viewport(0, 0, int32(r.width), int32(r.height))
	r.log.Debug("renderer resized",
		zap.Int("width", r.width),
		zap.Int("height", r.height),
	)
}

// SetPixelRatio changes the device pixel ratio and re-applies the size.
func (r *Renderer) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		ratio = 1
	}
	r.config.PixelRatio = ratio
	r.SetSize(r.config.Width, r.config.Height)
}

// SetExposure changes the tone mapping exposure.
func (r *Renderer) SetExposure(exposure float32) {
	r.config.Exposure = exposure
}

// DrawableSize returns the output size in pixels.
func (r *Renderer) DrawableSize() (int, int) {
	return r.width, r.height
}

// Compile uploads every GPU resource a model needs so its first draw does
// not stall. Compiling an already compiled model is a no-op.
func (r *Renderer) Compile(m *scene.Model) error {
	if _, ok := r.models[m]; ok {
		return nil
	}

	gm := &gpuModel{}
	for _, mesh := range m.Meshes {
		if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
			continue
		}
		var tex uint32
		if mesh.Material != nil && mesh.Material.Texture != nil {
			tex = r.uploadTexture(mesh.Material.Texture)
		}
		gm.meshes = append(gm.meshes, uploadMesh(mesh, tex))
	}
	if err := glError("compile " + m.Name()); err != nil {
		gm.release()
		return err
	}
	r.models[m] = gm

	r.log.Debug("model compiled",
		zap.String("model", m.Name()),
		zap.Int("meshes", len(gm.meshes)),
		zap.Int("textures", len(r.textures)),
	)
	return nil
}

// Release frees the GPU resources of a model removed from the scene.
func (r *Renderer) Release(m *scene.Model) {
	gm, ok := r.models[m]
	if !ok {
		return
	}
	gm.release()
	delete(r.models, m)
	for _, t := range m.Textures() {
		if id, ok := r.textures[t]; ok {
			gl.DeleteTextures(1, &id)
			delete(r.textures, t)
		}
	}
}

// Render clears the output to the scene background and draws the scene once
// for every camera, each inside its own viewport.
func (r *Renderer) Render(s *scene.Scene, cams ...*camera.Perspective) {
	gl.Viewport(0, 0, int32(r.width), int32(r.height))
	gl.ClearColor(s.Background.X(), s.Background.Y(), s.Background.Z(), 1)
	gl.DepthMask(true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	for _, cam := range cams {
		vp := cam.Viewport
		if vp.Empty() {
			vp = camera.Viewport{Width: int32(r.width), Height: int32(r.height)}
		}
		gl.Viewport(vp.X, vp.Y, vp.Width, vp.Height)
		r.drawScene(s, cam)
	}

	gl.Viewport(0, 0, int32(r.width), int32(r.height))
}

func (r *Renderer) drawScene(s *scene.Scene, cam *camera.Perspective) {
	view := cam.View()
	proj := cam.Projection()

	var blended []drawItem
	r.mesh.Use()
	r.mesh.setFrame(s, view, proj, r.toneMapping(), r.config.Exposure)
	gl.Disable(gl.BLEND)
	gl.DepthMask(true)

	for _, m := range s.Models() {
		gm, ok := r.models[m]
		if !ok {
			// Models added without Compile are uploaded on first draw
			if err := r.Compile(m); err != nil {
				r.log.Warn("skipping model", zap.String("model", m.Name()), zap.Error(err))
				continue
			}
			gm = r.models[m]
		}
		for i := range gm.meshes {
			gpu := &gm.meshes[i]
			if gpu.material().AlphaMode == scene.AlphaBlend {
				blended = append(blended, drawItem{gpu, viewDepth(view, gpu.mesh)})
				continue
			}
			r.mesh.draw(gpu)
		}
	}

	// Transparent meshes back to front
	if len(blended) > 0 {
		sort.Slice(blended, func(i, j int) bool { return blended[i].depth > blended[j].depth })
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(false)
		for _, it := range blended {
			r.mesh.draw(it.mesh)
		}
	}

	r.drawControllers(s, view, proj)

	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.Disable(gl.CULL_FACE)
	gl.UseProgram(0)
}

func (r *Renderer) drawControllers(s *scene.Scene, view, proj mgl32.Mat4) {
	first := true
	for _, obj := range s.Children() {
		node, ok := obj.(*scene.ControllerNode)
		if !ok || !node.Visible || node.Visual() == nil {
			continue
		}
		if first {
			r.unlit.Use()
			gl.UniformMatrix4fv(r.unlit.view, 1, false, &view[0])
			gl.UniformMatrix4fv(r.unlit.projection, 1, false, &proj[0])
			gl.Enable(gl.BLEND)
			gl.DepthMask(false)
			gl.Disable(gl.CULL_FACE)
			first = false
		}
		r.drawVisual(node)
	}
}

func (r *Renderer) drawVisual(node *scene.ControllerNode) {
	v := node.Visual()
	gv, ok := r.visuals[v]
	if !ok {
		gv = uploadVisual(v)
		r.visuals[v] = gv
	}

	model := node.Matrix()
	gl.UniformMatrix4fv(r.unlit.model, 1, false, &model[0])
	gl.Uniform1f(r.unlit.opacity, gv.opacity)
	if gv.additive {
		gl.BlendFunc(gl.ONE, gl.ONE)
	} else {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	}

	gl.BindVertexArray(gv.vao)
	if gv.ebo != 0 {
		gl.DrawElementsWithOffset(gv.mode, gv.count, gl.UNSIGNED_INT, 0)
	} else {
		gl.DrawArrays(gv.mode, 0, gv.count)
	}
	gl.BindVertexArray(0)
}

// ReadPixels returns the current back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	pixels := make([]byte, r.width*r.height*4)
	if len(pixels) == 0 {
		return pixels, r.width, r.height
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(r.width), int32(r.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, r.width, r.height
}

// Close cleans up renderer resources.
func (r *Renderer) Close() error {
	r.log.Info("closing renderer")
	for m, gm := range r.models {
		gm.release()
		delete(r.models, m)
	}
	for t, id := range r.textures {
		gl.DeleteTextures(1, &id)
		delete(r.textures, t)
	}
	for v, gv := range r.visuals {
		gv.release()
		delete(r.visuals, v)
	}
	r.mesh.Delete()
	r.unlit.Delete()
	return glError("close")
}

func (r *Renderer) toneMapping() int32 {
	switch r.config.ToneMapping {
	case config.ToneMappingLinear:
		return toneLinear
	case config.ToneMappingACES:
		return toneACES
	default:
		return toneNone
	}
}

func (r *Renderer) uploadTexture(t *scene.Texture) uint32 {
	if id, ok := r.textures[t]; ok {
		return id
	}
	if t.Image == nil || t.Image.Rect.Empty() {
		return 0
	}
	b := t.Image.Rect
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.SRGB8_ALPHA8, int32(b.Dx()), int32(b.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(t.Image.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	r.textures[t] = id
	return id
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: GL error 0x%x", op, code)
	}
	return nil
}
