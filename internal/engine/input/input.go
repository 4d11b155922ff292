// Package input defines the viewer's platform-neutral input events. The
// SDL2 poller that produces them lives in input/sdlinput.
package input

// EventType identifies an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
	EventPadAdded
	EventPadRemoved
	EventPadButtonDown
	EventPadButtonUp
	EventPadAxis
)

// Key is a physical key position. Values match SDL scancodes.
type Key int

const (
	KeyR      Key = 21
	KeyReturn Key = 40
	KeyEscape Key = 41
	KeySpace  Key = 44
	KeyF2     Key = 59
	KeyF12    Key = 69
	KeyLShift Key = 225
)

// Mouse buttons. Values match SDL button indices.
const (
	MouseLeft   uint8 = 1
	MouseMiddle uint8 = 2
	MouseRight  uint8 = 3
)

// PadButton is a game controller button. Values match SDL game controller buttons.
type PadButton uint8

const (
	PadButtonA             PadButton = 0
	PadButtonB             PadButton = 1
	PadButtonLeftShoulder  PadButton = 9
	PadButtonRightShoulder PadButton = 10
)

// PadAxis is a game controller axis. Values match SDL game controller axes.
type PadAxis uint8

const (
	PadAxisTriggerLeft  PadAxis = 4
	PadAxisTriggerRight PadAxis = 5
)

// AxisMax is the largest raw axis value.
const AxisMax = 32767

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    Key
	Width  int
	Height int
	MouseX int
	MouseY int
	// Relative motion for mouse move events
	DeltaX int
	DeltaY int
	Button uint8
	WheelY float32
	// Game controller events
	Pad       int32
	PadButton PadButton
	Axis      PadAxis
	Value     int16
}

// Poller produces the events that arrived since the previous call.
type Poller interface {
	Poll() []Event
}

// Queue is a Poller over a fixed list of events, consumed on the first Poll.
// It drives the viewer without a window.
type Queue struct {
	events []Event
}

// Push appends events for the next Poll.
func (q *Queue) Push(events ...Event) {
	q.events = append(q.events, events...)
}

// Poll implements Poller.
func (q *Queue) Poll() []Event {
	out := q.events
	q.events = nil
	return out
}

// PointerState tracks which mouse buttons are held, for drag handling.
type PointerState struct {
	left, right, middle bool
}

// Apply updates the state from one event.
func (p *PointerState) Apply(e Event) {
	pressed := e.Type == EventMouseDown
	if e.Type != EventMouseDown && e.Type != EventMouseUp {
		return
	}
	switch e.Button {
	case MouseLeft:
		p.left = pressed
	case MouseRight:
		p.right = pressed
	case MouseMiddle:
		p.middle = pressed
	}
}

// Rotating reports whether the rotate button is held.
func (p *PointerState) Rotating() bool { return p.left }

// Panning reports whether a pan button is held.
func (p *PointerState) Panning() bool { return p.right || p.middle }
