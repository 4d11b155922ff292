package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerspectiveSetAspect(t *testing.T) {
	cam := NewPerspective(50, 1, 0.1, 50)
	before := cam.Projection()

	cam.SetAspect(1920, 1080)
	assert.InDelta(t, 1920.0/1080.0, cam.Aspect, 1e-6)
	assert.Equal(t, before, cam.Projection(), "projection only changes on UpdateProjection")

	cam.UpdateProjection()
	assert.Equal(t, mgl32.Perspective(mgl32.DegToRad(50), cam.Aspect, 0.1, 50), cam.Projection())
}

func TestPerspectiveSetAspectIgnoresZeroHeight(t *testing.T) {
	cam := NewPerspective(50, 2, 0.1, 50)
	cam.SetAspect(800, 0)
	assert.Equal(t, float32(2), cam.Aspect)
}

func TestViewportEmpty(t *testing.T) {
	assert.True(t, Viewport{}.Empty())
	assert.False(t, Viewport{Width: 10, Height: 10}.Empty())
}

func TestTranslateKeepsOrientation(t *testing.T) {
	cam := NewPerspective(50, 1, 0.1, 50)
	cam.Position = mgl32.Vec3{0, 1.6, 3}
	cam.Target = mgl32.Vec3{0, 1.6, 2}
	forward := cam.Target.Sub(cam.Position)

	cam.Translate(mgl32.Vec3{0, 1, 0})
	assert.InDelta(t, 2.6, cam.Position.Y(), 1e-6)
	assert.Equal(t, forward, cam.Target.Sub(cam.Position))
}

func TestClone(t *testing.T) {
	cam := NewPerspective(50, 1, 0.1, 50)
	cam.Position = mgl32.Vec3{0, 1.6, 3}

	cp := cam.Clone()
	cp.Position[1] = 10
	assert.Equal(t, float32(1.6), cam.Position.Y())
}

func newTestControls() (*Perspective, *OrbitControls) {
	cam := NewPerspective(50, 1, 0.1, 50)
	cam.Position = mgl32.Vec3{0, 1.6, 3}
	controls := NewOrbitControls(cam)
	controls.MinDistance = 2
	controls.MaxDistance = 25
	controls.Update()
	return cam, controls
}

func TestOrbitUpdateKeepsPositionInsideLimits(t *testing.T) {
	cam, controls := newTestControls()
	d := cam.Position.Sub(controls.Target).Len()
	assert.InDelta(t, 3.4, d, 0.01)
	assert.InDelta(t, d, controls.Distance(), 1e-4)
	assert.Equal(t, controls.Target, cam.Target)
}

func TestOrbitZoomClamped(t *testing.T) {
	tests := []struct {
		name  string
		delta float32
		want  float32
	}{
		{"zoom in past minimum", 100, 2},
		{"zoom out past maximum", -100, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam, controls := newTestControls()
			controls.HandleZoom(tt.delta)
			assert.InDelta(t, tt.want, controls.Distance(), 1e-4)
			assert.InDelta(t, tt.want, cam.Position.Sub(controls.Target).Len(), 1e-3)
		})
	}
}

func TestOrbitChangeNotifiesOncePerInteraction(t *testing.T) {
	_, controls := newTestControls()
	calls := 0
	controls.OnChange(func() { calls++ })

	controls.HandleDrag(10, 5)
	require.Equal(t, 1, calls)

	controls.HandleZoom(1)
	require.Equal(t, 2, calls)

	controls.HandlePan(4, -4)
	require.Equal(t, 3, calls)

	// No movement, no change
	controls.HandleDrag(0, 0)
	controls.HandleZoom(0)
	assert.Equal(t, 3, calls)

	// Update is not interactive
	controls.Update()
	assert.Equal(t, 3, calls)
}

func TestOrbitDisabledIgnoresInput(t *testing.T) {
	cam, controls := newTestControls()
	calls := 0
	controls.OnChange(func() { calls++ })
	controls.Enabled = false

	before := cam.Position
	controls.HandleDrag(50, 50)
	controls.HandleZoom(3)
	assert.Equal(t, before, cam.Position)
	assert.Zero(t, calls)
}

func TestOrbitDragPreservesDistance(t *testing.T) {
	cam, controls := newTestControls()
	before := controls.Distance()

	controls.HandleDrag(120, -40)
	assert.InDelta(t, before, cam.Position.Sub(controls.Target).Len(), 1e-3)
}

func TestOrbitPanMovesTarget(t *testing.T) {
	cam, controls := newTestControls()
	offsetBefore := cam.Position.Sub(controls.Target)

	controls.HandlePan(100, 0)
	assert.NotEqual(t, mgl32.Vec3{}, controls.Target)
	assert.True(t, offsetBefore.ApproxEqualThreshold(cam.Position.Sub(controls.Target), 1e-3))
}
