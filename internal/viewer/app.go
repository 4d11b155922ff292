// Package viewer is the application: it owns the camera, scene, controls and
// controller state, and drives loading and rendering from one thread.
package viewer

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/xrviewer/internal/assets"
	"github.com/Faultbox/xrviewer/internal/config"
	"github.com/Faultbox/xrviewer/internal/engine/camera"
	"github.com/Faultbox/xrviewer/internal/engine/debug"
	"github.com/Faultbox/xrviewer/internal/engine/input"
	"github.com/Faultbox/xrviewer/internal/engine/lighting"
	"github.com/Faultbox/xrviewer/internal/engine/overlay"
	"github.com/Faultbox/xrviewer/internal/engine/scene"
	"github.com/Faultbox/xrviewer/internal/logger"
	"github.com/Faultbox/xrviewer/internal/xr"
)

// watchDebounce coalesces the burst of writes an exporter makes.
const watchDebounce = 300 * time.Millisecond

// Renderer draws the scene.
type Renderer interface {
	SetSize(width, height int)
	SetExposure(exposure float32)
	DrawableSize() (int, int)
	Compile(m *scene.Model) error
	Release(m *scene.Model)
	Render(s *scene.Scene, cams ...*camera.Perspective)
	Close() error
}

// PixelReader is implemented by renderers that can read back a frame.
type PixelReader interface {
	ReadPixels() ([]byte, int, int)
}

// Surface is the window the viewer presents to.
type Surface interface {
	Size() (int, int)
	SwapBuffers()
	Close()
}

// OverlayPainter draws the 2D overlay on top of the frame.
type OverlayPainter interface {
	overlay.Painter
	Begin()
	End()
	Resize(width, height int)
	Close()
}

// Deps are the collaborators the viewer drives. Renderer, XR and Loader are
// required; the rest may be nil.
type Deps struct {
	Renderer    Renderer
	Surface     Surface
	Painter     OverlayPainter
	Input       input.Poller
	XR          *xr.System
	Loader      *assets.Loader
	Screenshots *debug.ScreenshotCapture
}

// App is the viewer's application context.
type App struct {
	cfg  *config.Config
	deps Deps

	camera      *camera.Perspective
	scene       *scene.Scene
	orbit       *camera.OrbitControls
	overlay     *overlay.Overlay
	controllers [xr.NumControllers]*Controller

	width, height int
	pointer       input.PointerState

	ctx     context.Context
	cancel  context.CancelFunc
	task    *assets.Task
	model   *scene.Model
	watcher *assets.Watcher
	quit    bool

	log *zap.Logger
}

// New builds the camera, scene and lights, wires controls and controller
// handlers, and starts loading the model in the background.
func New(cfg *config.Config, deps Deps) (*App, error) {
	switch {
	case deps.Renderer == nil:
		return nil, errors.New("viewer: renderer is required")
	case deps.XR == nil:
		return nil, errors.New("viewer: xr system is required")
	case deps.Loader == nil:
		return nil, errors.New("viewer: loader is required")
	}

	a := &App{
		cfg:    cfg,
		deps:   deps,
		width:  cfg.Window.Width,
		height: cfg.Window.Height,
		log:    logger.Named("viewer"),
	}
	if deps.Surface != nil {
		a.width, a.height = deps.Surface.Size()
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.camera = camera.NewPerspective(cfg.Camera.FOV, 1, cfg.Camera.Near, cfg.Camera.Far)
	a.camera.SetAspect(a.width, a.height)
	a.camera.UpdateProjection()
	a.camera.Position = mgl32.Vec3(cfg.Camera.Position)
	a.camera.LookAt(mgl32.Vec3(cfg.Camera.Target))

	a.scene = scene.New(mgl32.Vec3(cfg.Scene.Background))
	if fog := cfg.Scene.Fog; fog.Far > fog.Near {
		a.scene.Fog = &scene.Fog{Color: mgl32.Vec3(fog.Color), Near: fog.Near, Far: fog.Far}
	}
	a.scene.Ambient = lighting.Ambient(cfg.Scene.Ambient)
	a.scene.Key = lighting.Key(cfg.Scene.KeyLight)

	deps.Renderer.SetSize(a.width, a.height)
	deps.Renderer.SetExposure(cfg.Renderer.Exposure)

	a.orbit = camera.NewOrbitControls(a.camera)
	a.orbit.MinDistance = cfg.Orbit.MinDistance
	a.orbit.MaxDistance = cfg.Orbit.MaxDistance
	a.orbit.Target = mgl32.Vec3(cfg.Orbit.Target)
	a.orbit.Update()
	a.orbit.OnChange(a.render)

	a.overlay = overlay.New(a.width, a.height, overlay.ButtonUnsupported)
	if deps.XR.Supported() {
		a.overlay.SetButtonState(overlay.ButtonEnter)
	}
	deps.XR.OnSessionChange(a.sessionChanged)

	for i := range a.controllers {
		node, err := deps.XR.Controller(i)
		if err != nil {
			return nil, err
		}
		c := NewController(node, a.log)
		if err := deps.XR.OnEvent(i, c.Handle); err != nil {
			return nil, err
		}
		a.controllers[i] = c
		a.scene.Add(node)
	}

	if cfg.Asset.Watch {
		w, err := assets.NewWatcher(filepath.Clean(cfg.Asset.BasePath), watchDebounce)
		if err != nil {
			a.log.Warn("asset watch disabled", zap.Error(err))
		} else {
			a.watcher = w
		}
	}

	a.log.Info("viewer initialized",
		zap.Int("width", a.width),
		zap.Int("height", a.height),
		zap.Bool("xr_supported", deps.XR.Supported()),
	)

	a.startLoad()
	return a, nil
}

// Scene returns the scene.
func (a *App) Scene() *scene.Scene { return a.scene }

// Camera returns the desktop camera.
func (a *App) Camera() *camera.Perspective { return a.camera }

// Orbit returns the desktop orbit controls.
func (a *App) Orbit() *camera.OrbitControls { return a.orbit }

// Overlay returns the 2D overlay state.
func (a *App) Overlay() *overlay.Overlay { return a.overlay }

// Controller returns the bridge for controller i, or nil when out of range.
func (a *App) Controller(i int) *Controller {
	if i < 0 || i >= len(a.controllers) {
		return nil
	}
	return a.controllers[i]
}

// Model returns the loaded model, or nil.
func (a *App) Model() *scene.Model { return a.model }

// Loading reports whether a model load is in flight.
func (a *App) Loading() bool { return a.task != nil }

// Resize applies a new output size: camera aspect and projection, renderer
// size, then one render.
func (a *App) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	a.width, a.height = width, height
	a.camera.SetAspect(width, height)
	a.camera.UpdateProjection()
	a.deps.Renderer.SetSize(width, height)
	a.overlay.Resize(width, height)
	if a.deps.Painter != nil {
		a.deps.Painter.Resize(width, height)
	}
	a.render()
}

// Reload discards any in-flight load and loads the model again.
func (a *App) Reload() {
	if a.task != nil {
		a.task.Cancel()
		a.task = nil
	}
	a.log.Info("reloading model")
	a.startLoad()
}

func (a *App) startLoad() {
	a.task = a.deps.Loader.Load(a.ctx, a.cfg.Asset.File)
	a.overlay.SetProgress(0)
	a.log.Info("loading model", zap.String("path", a.task.Path()))
}

// PollLoad handles the load events queued since the last call.
func (a *App) PollLoad() {
	if a.task == nil {
		return
	}
	for _, e := range a.task.Poll() {
		a.handleLoad(e)
	}
}

func (a *App) handleLoad(e assets.Event) {
	switch e.Kind {
	case assets.EventProgress:
		a.overlay.SetProgress(e.Fraction())
		a.log.Debug("model loading",
			zap.Int("percent", int(e.Fraction()*100)),
			zap.Int("loaded", e.Loaded),
			zap.Int("total", e.Total),
		)

	case assets.EventLoaded:
		a.task = nil
		a.overlay.ClearProgress()
		if err := a.deps.Renderer.Compile(e.Model); err != nil {
			a.log.Error("failed to load model", zap.Error(err))
			return
		}
		a.attach(e.Model)
		a.render()

	case assets.EventFailed:
		a.task = nil
		a.overlay.ClearProgress()
		a.log.Error("failed to load model", zap.Error(e.Err))
	}
}

// attach inserts m as the scene's model, replacing a previous one.
func (a *App) attach(m *scene.Model) {
	if old := a.model; old != nil && old != m {
		a.scene.Remove(old)
		a.deps.Renderer.Release(old)
	}
	a.model = m
	a.scene.Add(m)
	a.log.Info("model loaded",
		zap.String("model", m.Name()),
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("textures", len(m.Textures())),
	)
}

// ToggleXR starts or ends an immersive session.
func (a *App) ToggleXR() {
	if err := a.deps.XR.Toggle(a.camera); err != nil {
		a.log.Warn("cannot toggle XR session", zap.Error(err))
	}
}

func (a *App) sessionChanged(presenting bool) {
	a.orbit.Enabled = !presenting
	if presenting {
		a.overlay.SetButtonState(overlay.ButtonExit)
	} else {
		a.overlay.SetButtonState(overlay.ButtonEnter)
	}
}

// Screenshot saves the current frame.
func (a *App) Screenshot() {
	pr, ok := a.deps.Renderer.(PixelReader)
	if !ok || a.deps.Screenshots == nil {
		return
	}
	pixels, w, h := pr.ReadPixels()
	path, err := a.deps.Screenshots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

// Close cancels pending work and releases everything the app drives.
func (a *App) Close() error {
	a.cancel()
	a.task = nil

	var err error
	if a.watcher != nil {
		err = multierr.Append(err, a.watcher.Close())
	}
	if a.deps.Painter != nil {
		a.deps.Painter.Close()
	}
	err = multierr.Append(err, a.deps.Renderer.Close())
	if a.deps.Surface != nil {
		a.deps.Surface.Close()
	}
	return err
}
