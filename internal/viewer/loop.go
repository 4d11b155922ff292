package viewer

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrviewer/internal/engine/input"
)

// Frame runs one iteration of the render loop: held select raises the XR
// viewpoint by one step per controller, held squeeze lowers it, then the
// scene is drawn once. The nudge accumulates every frame a gesture is held.
func (a *App) Frame() {
	step := a.cfg.XR.NudgeStep
	var dy float32
	for _, c := range a.controllers {
		if c.IsSelecting {
			dy += step
		}
		if c.IsSqueezing {
			dy -= step
		}
	}

	if dy != 0 {
		cam := a.deps.XR.Camera()
		if a.cfg.XR.Clamp {
			y := mgl32.Clamp(cam.Position.Y()+dy, a.cfg.XR.MinHeight, a.cfg.XR.MaxHeight)
			dy = y - cam.Position.Y()
		}
		cam.Translate(mgl32.Vec3{0, dy, 0})
	}
	a.deps.XR.Update()

	a.render()
}

// render draws the scene from the desktop camera, or from both eyes while
// an XR session is presenting.
func (a *App) render() {
	if a.deps.XR.Presenting() {
		w, h := a.deps.Renderer.DrawableSize()
		eyes := a.deps.XR.EyeCameras(w, h)
		a.deps.Renderer.Render(a.scene, eyes[0], eyes[1])
		return
	}
	a.deps.Renderer.Render(a.scene, a.camera)
}

// HandleEvents routes one batch of input events.
func (a *App) HandleEvents(events []input.Event) {
	for _, e := range events {
		switch e.Type {
		case input.EventQuit:
			a.quit = true

		case input.EventWindowResize:
			a.Resize(e.Width, e.Height)

		case input.EventKeyDown:
			switch e.Key {
			case input.KeyEscape:
				if a.deps.XR.Presenting() {
					a.deps.XR.EndSession()
				} else {
					a.quit = true
				}
			case input.KeyF2:
				a.ToggleXR()
			case input.KeyF12:
				a.Screenshot()
			case input.KeyR:
				a.Reload()
			}

		case input.EventMouseDown:
			if e.Button == input.MouseLeft && a.overlay.Click(float32(e.MouseX), float32(e.MouseY)) {
				a.ToggleXR()
				continue
			}
			a.pointer.Apply(e)

		case input.EventMouseUp:
			a.pointer.Apply(e)

		case input.EventMouseMove:
			a.overlay.PointerMove(float32(e.MouseX), float32(e.MouseY))
			dx, dy := float32(e.DeltaX), float32(e.DeltaY)
			switch {
			case a.pointer.Rotating():
				a.orbit.HandleDrag(dx, dy)
			case a.pointer.Panning():
				a.orbit.HandlePan(dx, dy)
			}

		case input.EventMouseWheel:
			a.orbit.HandleZoom(e.WheelY)
		}
	}
	a.deps.XR.Feed(events)
}

// Step runs one main-loop iteration and reports whether the app should
// keep running.
func (a *App) Step() bool {
	if a.deps.Input != nil {
		a.HandleEvents(a.deps.Input.Poll())
	}
	if a.quit {
		return false
	}

	a.PollLoad()
	if a.watcher != nil {
		select {
		case <-a.watcher.Changes():
			a.deps.Loader.Cache().Clear()
			a.Reload()
		default:
		}
	}

	a.Frame()
	a.drawOverlay()
	if a.deps.Surface != nil {
		a.deps.Surface.SwapBuffers()
	}
	return true
}

func (a *App) drawOverlay() {
	p := a.deps.Painter
	if p == nil {
		return
	}
	p.Begin()
	a.overlay.Draw(p)
	p.End()
}

// Run steps the app until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("entering main loop")
	for {
		select {
		case <-ctx.Done():
			a.log.Info("main loop cancelled")
			return nil
		default:
		}
		if !a.Step() {
			a.log.Info("quit requested")
			return nil
		}
	}
}
