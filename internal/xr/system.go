package xr

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/xrviewer/internal/engine/camera"
	"github.com/Faultbox/xrviewer/internal/engine/input"
	"github.com/Faultbox/xrviewer/internal/engine/scene"
	"github.com/Faultbox/xrviewer/internal/logger"
)

// NumControllers is the number of controller slots. Valid indices are 0 and 1.
const NumControllers = 2

var (
	// ErrUnsupported is returned when starting a session on a system
	// without immersive support.
	ErrUnsupported = errors.New("xr: immersive sessions not supported")
	// ErrNoSuchController is returned for a controller index outside [0, NumControllers).
	ErrNoSuchController = errors.New("xr: no such controller")
)

// gazePad marks the keyboard gaze source in a slot.
const gazePad int32 = -1

// Hand offsets of tracked pointers relative to the head, in head space.
var handOffset = [NumControllers]mgl32.Vec3{
	{-0.2, -0.3, -0.35},
	{0.2, -0.3, -0.35},
}

// Config holds XR device settings.
type Config struct {
	Enabled bool
	// IPD is the distance between the eyes in metres.
	IPD float32
	// TriggerThreshold is the trigger travel in [0, 1] that counts as a press.
	TriggerThreshold float32
}

type slot struct {
	source    *InputSource
	pad       int32
	selecting bool
	squeezing bool
	triggers  uint8
	shoulders uint8
}

// System is the emulated XR device.
type System struct {
	cfg        Config
	presenting bool
	session    string
	camera     *camera.Perspective

	nodes    [NumControllers]*scene.ControllerNode
	handlers [NumControllers][]Handler
	slots    [NumControllers]*slot
	// Game controllers in plug order, assigned or not
	pads []int32

	sessionListeners []func(presenting bool)
	log              *zap.Logger
}

// NewSystem creates the XR system with two controller nodes tagged
// controller1 and controller2.
func NewSystem(cfg Config) *System {
	s := &System{
		cfg:    cfg,
		camera: camera.NewPerspective(50, 1, 0.1, 50),
		log:    logger.Named("xr"),
	}
	for i := range s.nodes {
		s.nodes[i] = scene.NewControllerNode(i, fmt.Sprintf("controller%d", i+1))
	}
	return s
}

// Supported reports whether immersive sessions can start.
func (s *System) Supported() bool {
	return s.cfg.Enabled
}

// Presenting reports whether a session is active.
func (s *System) Presenting() bool {
	return s.presenting
}

// SessionID returns the id of the active session, or "" when not presenting.
func (s *System) SessionID() string {
	return s.session
}

// OnSessionChange registers fn to run after a session starts or ends.
func (s *System) OnSessionChange(fn func(presenting bool)) {
	s.sessionListeners = append(s.sessionListeners, fn)
}

// Controller returns the scene node of controller i.
func (s *System) Controller(i int) (*scene.ControllerNode, error) {
	if i < 0 || i >= NumControllers {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchController, i)
	}
	return s.nodes[i], nil
}

// OnEvent registers h for events of controller i.
func (s *System) OnEvent(i int, h Handler) error {
	if i < 0 || i >= NumControllers {
		return fmt.Errorf("%w: %d", ErrNoSuchController, i)
	}
	s.handlers[i] = append(s.handlers[i], h)
	return nil
}

// Camera returns the XR viewpoint. Moving it moves the user through the scene.
func (s *System) Camera() *camera.Perspective {
	return s.camera
}

// StartSession begins presenting with the viewpoint copied from the desktop
// camera. Starting while presenting is a no-op.
func (s *System) StartSession(from *camera.Perspective) error {
	if !s.Supported() {
		return ErrUnsupported
	}
	if s.presenting {
		return nil
	}

	s.camera = from.Clone()
	s.camera.Viewport = camera.Viewport{}
	s.session = uuid.NewString()
	s.presenting = true
	s.log.Info("XR session started",
		zap.String("session", s.session),
		zap.Int("gamepads", len(s.pads)),
	)

	for _, pad := range s.pads {
		if i := s.freeSlot(); i >= 0 {
			s.attach(i, pad)
		}
	}
	if s.occupied() == 0 {
		s.attach(0, gazePad)
	}
	s.Update()

	for _, fn := range s.sessionListeners {
		fn(true)
	}
	return nil
}

// EndSession disconnects every input source and stops presenting.
func (s *System) EndSession() {
	if !s.presenting {
		return
	}
	for i := range s.slots {
		s.detach(i)
	}
	s.presenting = false
	s.log.Info("XR session ended", zap.String("session", s.session))
	s.session = ""

	for _, fn := range s.sessionListeners {
		fn(false)
	}
}

// Toggle ends the active session or starts one from the desktop camera.
func (s *System) Toggle(from *camera.Perspective) error {
	if s.presenting {
		s.EndSession()
		return nil
	}
	return s.StartSession(from)
}

// Feed routes input events to the emulated input sources. Device plug events
// are tracked even when not presenting.
func (s *System) Feed(events []input.Event) {
	for _, e := range events {
		switch e.Type {
		case input.EventPadAdded:
			s.padAdded(e.Pad)
		case input.EventPadRemoved:
			s.padRemoved(e.Pad)
		case input.EventPadButtonDown, input.EventPadButtonUp:
			s.padButton(e.Pad, e.PadButton, e.Type == input.EventPadButtonDown)
		case input.EventPadAxis:
			s.padAxis(e.Pad, e.Axis, e.Value)
		case input.EventKeyDown, input.EventKeyUp:
			s.gazeKey(e.Key, e.Type == input.EventKeyDown)
		}
	}
}

// Update moves the controller nodes with the viewpoint: the gaze source
// follows the head, tracked pointers sit at fixed offsets from it.
func (s *System) Update() {
	head := s.headRotation()
	for i, sl := range s.slots {
		node := s.nodes[i]
		if sl == nil {
			continue
		}
		node.Rotation = head
		if sl.pad == gazePad {
			node.Position = s.camera.Position
			continue
		}
		node.Position = s.camera.Position.Add(head.Rotate(handOffset[i]))
	}
}

// EyeCameras returns the left and right eye cameras for a side-by-side
// stereo frame of width x height pixels.
func (s *System) EyeCameras(width, height int) [2]*camera.Perspective {
	head := s.headRotation()
	right := head.Rotate(mgl32.Vec3{1, 0, 0})
	half := width / 2

	var eyes [2]*camera.Perspective
	for i, sign := range []float32{-1, 1} {
		eye := s.camera.Clone()
		eye.Translate(right.Mul(sign * s.cfg.IPD / 2))
		eye.Viewport = camera.Viewport{X: int32(i * half), Width: int32(half), Height: int32(height)}
		if i == 1 {
			eye.Viewport.Width = int32(width - half)
		}
		eye.SetAspect(int(eye.Viewport.Width), height)
		eye.UpdateProjection()
		eyes[i] = eye
	}
	return eyes
}

func (s *System) headRotation() mgl32.Quat {
	forward := s.camera.Target.Sub(s.camera.Position)
	if forward.Len() == 0 {
		return mgl32.QuatIdent()
	}
	forward = forward.Normalize()
	right := forward.Cross(s.camera.Up)
	if right.Len() == 0 {
		return mgl32.QuatIdent()
	}
	right = right.Normalize()
	up := right.Cross(forward)
	// Head space looks down -Z
	basis := mgl32.Mat3FromCols(right, up, forward.Mul(-1))
	return mgl32.Mat4ToQuat(basis.Mat4()).Normalize()
}

func (s *System) padAdded(pad int32) {
	if slices.Contains(s.pads, pad) {
		return
	}
	s.pads = append(s.pads, pad)
	if !s.presenting {
		return
	}
	// A real controller takes over from the keyboard gaze source
	if sl := s.slots[0]; sl != nil && sl.pad == gazePad {
		s.detach(0)
	}
	if i := s.freeSlot(); i >= 0 {
		s.attach(i, pad)
		s.Update()
	}
}

func (s *System) padRemoved(pad int32) {
	s.pads = slices.DeleteFunc(s.pads, func(p int32) bool { return p == pad })
	if !s.presenting {
		return
	}
	i := s.slotOf(pad)
	if i < 0 {
		return
	}
	s.detach(i)
	for _, p := range s.pads {
		if s.slotOf(p) < 0 {
			s.attach(i, p)
			break
		}
	}
	if s.occupied() == 0 {
		s.attach(0, gazePad)
	}
	s.Update()
}

func (s *System) padButton(pad int32, b input.PadButton, down bool) {
	i := s.slotOf(pad)
	if i < 0 || !s.presenting {
		return
	}
	var bit uint8
	switch b {
	case input.PadButtonLeftShoulder:
		bit = 1
	case input.PadButtonRightShoulder:
		bit = 2
	default:
		return
	}
	sl := s.slots[i]
	if down {
		sl.shoulders |= bit
	} else {
		sl.shoulders &^= bit
	}
	s.setSqueezing(i, sl.shoulders != 0)
}

func (s *System) padAxis(pad int32, axis input.PadAxis, value int16) {
	i := s.slotOf(pad)
	if i < 0 || !s.presenting {
		return
	}
	var bit uint8
	switch axis {
	case input.PadAxisTriggerLeft:
		bit = 1
	case input.PadAxisTriggerRight:
		bit = 2
	default:
		return
	}
	sl := s.slots[i]
	if float32(value)/input.AxisMax >= s.cfg.TriggerThreshold {
		sl.triggers |= bit
	} else {
		sl.triggers &^= bit
	}
	s.setSelecting(i, sl.triggers != 0)
}

func (s *System) gazeKey(k input.Key, down bool) {
	if !s.presenting {
		return
	}
	i := s.slotOf(gazePad)
	if i < 0 {
		return
	}
	switch k {
	case input.KeySpace:
		s.setSelecting(i, down)
	case input.KeyLShift:
		s.setSqueezing(i, down)
	}
}

func (s *System) setSelecting(i int, on bool) {
	sl := s.slots[i]
	if sl.selecting == on {
		return
	}
	sl.selecting = on
	if on {
		s.emit(Event{Type: SelectStart, Controller: i})
	} else {
		s.emit(Event{Type: SelectEnd, Controller: i})
	}
}

func (s *System) setSqueezing(i int, on bool) {
	sl := s.slots[i]
	if sl.squeezing == on {
		return
	}
	sl.squeezing = on
	if on {
		s.emit(Event{Type: SqueezeStart, Controller: i})
	} else {
		s.emit(Event{Type: SqueezeEnd, Controller: i})
	}
}

func (s *System) attach(i int, pad int32) {
	src := &InputSource{
		Handedness:    HandLeft,
		TargetRayMode: TrackedPointer,
		Profiles:      []string{"generic-trigger-squeeze"},
	}
	if i == 1 {
		src.Handedness = HandRight
	}
	if pad == gazePad {
		src = &InputSource{
			Handedness:    HandNone,
			TargetRayMode: Gaze,
			Profiles:      []string{"generic-button"},
		}
	}
	s.slots[i] = &slot{source: src, pad: pad}
	s.nodes[i].Visible = true
	s.log.Info("input source connected",
		zap.Int("controller", i),
		zap.Stringer("mode", src.TargetRayMode),
		zap.String("handedness", string(src.Handedness)),
	)
	s.emit(Event{Type: Connected, Controller: i, Source: src})
}

// detach ends any active action before reporting the disconnect so no
// listener is left selecting or squeezing.
func (s *System) detach(i int) {
	sl := s.slots[i]
	if sl == nil {
		return
	}
	s.setSelecting(i, false)
	s.setSqueezing(i, false)
	s.slots[i] = nil
	s.nodes[i].Visible = false
	s.log.Info("input source disconnected", zap.Int("controller", i), zap.Stringer("mode", sl.source.TargetRayMode))
	s.emit(Event{Type: Disconnected, Controller: i, Source: sl.source})
}

func (s *System) emit(e Event) {
	for _, h := range s.handlers[e.Controller] {
		h(e)
	}
}

func (s *System) freeSlot() int {
	for i, sl := range s.slots {
		if sl == nil {
			return i
		}
	}
	return -1
}

func (s *System) slotOf(pad int32) int {
	for i, sl := range s.slots {
		if sl != nil && sl.pad == pad {
			return i
		}
	}
	return -1
}

func (s *System) occupied() int {
	n := 0
	for _, sl := range s.slots {
		if sl != nil {
			n++
		}
	}
	return n
}
