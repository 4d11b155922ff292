// Package sdlinput polls SDL2 events into input events and manages
// game controller handles.
package sdlinput

import (
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/xrviewer/internal/engine/input"
	"github.com/Faultbox/xrviewer/internal/logger"
)

// Input handles all SDL input processing.
type Input struct {
	events []input.Event
	pads   map[sdl.JoystickID]*sdl.GameController
	log    *zap.Logger
}

// New creates an input handler. Game controllers already plugged in are
// reported as added on the first Poll by SDL itself.
func New() *Input {
	return &Input{
		events: make([]input.Event, 0, 16),
		pads:   make(map[sdl.JoystickID]*sdl.GameController),
		log:    logger.Named("input"),
	}
}

// Poll drains SDL events and converts them. Implements input.Poller.
func (i *Input) Poll() []input.Event {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, input.Event{Type: input.EventQuit})

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.events = append(i.events, input.Event{
					Type:   input.EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			if e.Repeat != 0 {
				continue
			}
			typ := input.EventKeyUp
			if e.Type == sdl.KEYDOWN {
				typ = input.EventKeyDown
			}
			i.events = append(i.events, input.Event{Type: typ, Key: input.Key(e.Keysym.Scancode)})

		case *sdl.MouseMotionEvent:
			i.events = append(i.events, input.Event{
				Type:   input.EventMouseMove,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				DeltaX: int(e.XRel),
				DeltaY: int(e.YRel),
			})

		case *sdl.MouseButtonEvent:
			typ := input.EventMouseUp
			if e.Type == sdl.MOUSEBUTTONDOWN {
				typ = input.EventMouseDown
			}
			i.events = append(i.events, input.Event{
				Type:   typ,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: e.Button,
			})

		case *sdl.MouseWheelEvent:
			i.events = append(i.events, input.Event{Type: input.EventMouseWheel, WheelY: float32(e.Y)})

		case *sdl.ControllerDeviceEvent:
			i.handleDevice(e)

		case *sdl.ControllerButtonEvent:
			typ := input.EventPadButtonUp
			if e.State == sdl.PRESSED {
				typ = input.EventPadButtonDown
			}
			i.events = append(i.events, input.Event{
				Type:      typ,
				Pad:       int32(e.Which),
				PadButton: input.PadButton(e.Button),
			})

		case *sdl.ControllerAxisEvent:
			i.events = append(i.events, input.Event{
				Type:  input.EventPadAxis,
				Pad:   int32(e.Which),
				Axis:  input.PadAxis(e.Axis),
				Value: e.Value,
			})
		}
	}

	return i.events
}

func (i *Input) handleDevice(e *sdl.ControllerDeviceEvent) {
	switch e.Type {
	case sdl.CONTROLLERDEVICEADDED:
		// For added events Which is the device index, not the instance id
		pad := sdl.GameControllerOpen(int(e.Which))
		if pad == nil {
			i.log.Warn("failed to open game controller", zap.Int32("device", int32(e.Which)), zap.Error(sdl.GetError()))
			return
		}
		id := pad.Joystick().InstanceID()
		i.pads[id] = pad
		i.log.Info("game controller connected", zap.String("name", pad.Name()), zap.Int32("id", int32(id)))
		i.events = append(i.events, input.Event{Type: input.EventPadAdded, Pad: int32(id)})

	case sdl.CONTROLLERDEVICEREMOVED:
		if pad, ok := i.pads[e.Which]; ok {
			pad.Close()
			delete(i.pads, e.Which)
		}
		i.log.Info("game controller disconnected", zap.Int32("id", int32(e.Which)))
		i.events = append(i.events, input.Event{Type: input.EventPadRemoved, Pad: int32(e.Which)})
	}
}

// Close releases open game controllers.
func (i *Input) Close() {
	for id, pad := range i.pads {
		pad.Close()
		delete(i.pads, id)
	}
}
