package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// OrbitControls rotates, pans and zooms a Perspective camera around Target
// from pointer input. Every interactive change notifies the OnChange
// listeners exactly once.
type OrbitControls struct {
	camera *Perspective

	Target mgl32.Vec3

	MinDistance float32
	MaxDistance float32
	MinPitch    float32 // radians above the target plane
	MaxPitch    float32

	RotateSensitivity float32
	ZoomSensitivity   float32
	PanSensitivity    float32

	// Enabled gates pointer input; Update still applies constraints.
	Enabled bool

	// Spherical coordinates of the camera around Target
	distance float32
	pitch    float32
	yaw      float32

	listeners []func()
}

// NewOrbitControls attaches controls to cam, deriving the initial
// spherical position from the camera's current position.
func NewOrbitControls(cam *Perspective) *OrbitControls {
	o := &OrbitControls{
		camera:            cam,
		MinDistance:       0,
		MaxDistance:       math32.Inf(1),
		MinPitch:          -math32.Pi/2 + 0.01,
		MaxPitch:          math32.Pi/2 - 0.01,
		RotateSensitivity: 0.005,
		ZoomSensitivity:   0.1,
		PanSensitivity:    0.002,
		Enabled:           true,
	}
	o.syncFromCamera()
	return o
}

// OnChange registers a listener invoked after each interactive change.
func (o *OrbitControls) OnChange(fn func()) {
	o.listeners = append(o.listeners, fn)
}

// Distance returns the current distance to Target.
func (o *OrbitControls) Distance() float32 {
	return o.distance
}

// Update re-reads the camera position, clamps it to the constraints and
// writes it back. Call it after changing Target or the distance limits.
func (o *OrbitControls) Update() {
	o.syncFromCamera()
	o.apply()
}

// HandleDrag rotates the camera around Target by a pointer delta in pixels.
func (o *OrbitControls) HandleDrag(deltaX, deltaY float32) {
	if !o.Enabled || (deltaX == 0 && deltaY == 0) {
		return
	}
	o.yaw -= deltaX * o.RotateSensitivity
	o.pitch += deltaY * o.RotateSensitivity
	o.apply()
	o.changed()
}

// HandleZoom dollies toward (positive delta) or away from Target.
func (o *OrbitControls) HandleZoom(delta float32) {
	if !o.Enabled || delta == 0 {
		return
	}
	o.distance -= delta * o.distance * o.ZoomSensitivity
	o.apply()
	o.changed()
}

// HandlePan moves Target and camera together in the view plane.
func (o *OrbitControls) HandlePan(deltaX, deltaY float32) {
	if !o.Enabled || (deltaX == 0 && deltaY == 0) {
		return
	}
	forward := o.Target.Sub(o.camera.Position).Normalize()
	right := forward.Cross(o.camera.Up).Normalize()
	up := right.Cross(forward)

	scale := o.distance * o.PanSensitivity
	offset := right.Mul(-deltaX * scale).Add(up.Mul(deltaY * scale))
	o.Target = o.Target.Add(offset)
	o.apply()
	o.changed()
}

func (o *OrbitControls) syncFromCamera() {
	offset := o.camera.Position.Sub(o.Target)
	o.distance = offset.Len()
	if o.distance == 0 {
		o.pitch, o.yaw = 0, 0
		return
	}
	o.pitch = math32.Asin(mgl32.Clamp(offset.Y()/o.distance, -1, 1))
	o.yaw = math32.Atan2(offset.X(), offset.Z())
}

func (o *OrbitControls) apply() {
	o.distance = mgl32.Clamp(o.distance, o.MinDistance, o.MaxDistance)
	o.pitch = mgl32.Clamp(o.pitch, o.MinPitch, o.MaxPitch)

	cp := math32.Cos(o.pitch)
	offset := mgl32.Vec3{
		o.distance * cp * math32.Sin(o.yaw),
		o.distance * math32.Sin(o.pitch),
		o.distance * cp * math32.Cos(o.yaw),
	}
	o.camera.Position = o.Target.Add(offset)
	o.camera.LookAt(o.Target)
}

func (o *OrbitControls) changed() {
	for _, fn := range o.listeners {
		fn()
	}
}
