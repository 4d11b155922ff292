// Package xr emulates an XR device on top of desktop input: a head-mounted
// viewpoint rendered in stereo, and up to two input sources backed by game
// controllers (or a keyboard gaze source when none is plugged in).
package xr

import (
	"errors"
	"fmt"
)

// TargetRayMode describes how an input source aims. The set is closed.
type TargetRayMode int

const (
	TrackedPointer TargetRayMode = iota + 1
	Gaze
	Screen
)

// ErrUnknownTargetRayMode is returned by ParseTargetRayMode.
var ErrUnknownTargetRayMode = errors.New("unknown target ray mode")

// ParseTargetRayMode parses the WebXR spelling of a mode.
func ParseTargetRayMode(s string) (TargetRayMode, error) {
	switch s {
	case "tracked-pointer":
		return TrackedPointer, nil
	case "gaze":
		return Gaze, nil
	case "screen":
		return Screen, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTargetRayMode, s)
	}
}

func (m TargetRayMode) String() string {
	switch m {
	case TrackedPointer:
		return "tracked-pointer"
	case Gaze:
		return "gaze"
	case Screen:
		return "screen"
	default:
		return "unknown"
	}
}

// Handedness of an input source.
type Handedness string

const (
	HandNone  Handedness = "none"
	HandLeft  Handedness = "left"
	HandRight Handedness = "right"
)

// InputSource describes the device behind a controller slot.
type InputSource struct {
	Handedness    Handedness
	TargetRayMode TargetRayMode
	Profiles      []string
}

// EventType identifies a controller event.
type EventType int

const (
	SelectStart EventType = iota + 1
	SelectEnd
	SqueezeStart
	SqueezeEnd
	Connected
	Disconnected
)

func (t EventType) String() string {
	switch t {
	case SelectStart:
		return "selectstart"
	case SelectEnd:
		return "selectend"
	case SqueezeStart:
		return "squeezestart"
	case SqueezeEnd:
		return "squeezeend"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Event is delivered to the handlers of one controller slot. Source is set
// for Connected and Disconnected.
type Event struct {
	Type       EventType
	Controller int
	Source     *InputSource
}

// Handler receives controller events on the main thread.
type Handler func(Event)
