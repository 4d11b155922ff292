package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/xrviewer/internal/engine/scene"
	"github.com/Faultbox/xrviewer/internal/xr"
)

func newTestController() *Controller {
	return NewController(scene.NewControllerNode(0, "controller1"), zap.NewNop())
}

func TestControllerTag(t *testing.T) {
	c := newTestController()
	assert.Equal(t, "controller1", c.Tag)
	assert.Equal(t, 0, c.Node().Index)
}

func TestSelectReflectsLatestEvent(t *testing.T) {
	tests := []struct {
		name   string
		events []xr.EventType
		want   bool
	}{
		{"none", nil, false},
		{"start", []xr.EventType{xr.SelectStart}, true},
		{"start end", []xr.EventType{xr.SelectStart, xr.SelectEnd}, false},
		{"repeated start", []xr.EventType{xr.SelectStart, xr.SelectStart, xr.SelectStart}, true},
		{"repeated end", []xr.EventType{xr.SelectStart, xr.SelectEnd, xr.SelectEnd}, false},
		{"end without start", []xr.EventType{xr.SelectEnd}, false},
		{"start after ends", []xr.EventType{xr.SelectEnd, xr.SelectEnd, xr.SelectStart}, true},
		{"double start single end", []xr.EventType{xr.SelectStart, xr.SelectStart, xr.SelectEnd}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController()
			for _, e := range tt.events {
				c.Handle(xr.Event{Type: e})
			}
			assert.Equal(t, tt.want, c.IsSelecting)
			assert.False(t, c.IsSqueezing)
		})
	}
}

func TestSelectAndSqueezeAreIndependent(t *testing.T) {
	c := newTestController()

	c.Handle(xr.Event{Type: xr.SqueezeStart})
	c.Handle(xr.Event{Type: xr.SelectStart})
	assert.True(t, c.IsSelecting)
	assert.True(t, c.IsSqueezing)

	c.Handle(xr.Event{Type: xr.SelectEnd})
	assert.False(t, c.IsSelecting)
	assert.True(t, c.IsSqueezing, "ending select must not touch squeeze")

	c.Handle(xr.Event{Type: xr.SelectStart})
	c.Handle(xr.Event{Type: xr.SqueezeEnd})
	assert.True(t, c.IsSelecting, "ending squeeze must not touch select")
	assert.False(t, c.IsSqueezing)
}

func TestConnectAttachesVisualByMode(t *testing.T) {
	tests := []struct {
		mode xr.TargetRayMode
		want scene.VisualKind
	}{
		{xr.TrackedPointer, scene.VisualLine},
		{xr.Gaze, scene.VisualRing},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			c := newTestController()
			c.Handle(xr.Event{Type: xr.Connected, Source: &xr.InputSource{TargetRayMode: tt.mode}})

			v := c.Node().Visual()
			require.NotNil(t, v)
			assert.Equal(t, tt.want, v.Kind())

			c.Handle(xr.Event{Type: xr.Disconnected})
			assert.Nil(t, c.Node().Visual())
		})
	}
}

func TestConnectScreenModeHasNoVisual(t *testing.T) {
	c := newTestController()
	c.Handle(xr.Event{Type: xr.Connected, Source: &xr.InputSource{TargetRayMode: xr.Screen}})
	assert.Nil(t, c.Node().Visual())

	c.Handle(xr.Event{Type: xr.Connected, Source: nil})
	assert.Nil(t, c.Node().Visual())
}

func TestReconnectReplacesVisual(t *testing.T) {
	c := newTestController()
	c.Handle(xr.Event{Type: xr.Connected, Source: &xr.InputSource{TargetRayMode: xr.TrackedPointer}})
	first := c.Node().Visual()

	c.Handle(xr.Event{Type: xr.Connected, Source: &xr.InputSource{TargetRayMode: xr.Gaze}})
	v := c.Node().Visual()
	require.NotNil(t, v)
	assert.NotSame(t, first, v)
	assert.Equal(t, scene.VisualRing, v.Kind())

	// A screen source removes the previous visual rather than keeping it
	c.Handle(xr.Event{Type: xr.Connected, Source: &xr.InputSource{TargetRayMode: xr.Screen}})
	assert.Nil(t, c.Node().Visual())
}

func TestDisconnectWithoutVisualIsSafe(t *testing.T) {
	c := newTestController()
	assert.NotPanics(t, func() {
		c.Handle(xr.Event{Type: xr.Disconnected})
		c.Handle(xr.Event{Type: xr.Disconnected})
	})
	assert.Nil(t, c.Node().Visual())
}

func TestVisualForIsClosed(t *testing.T) {
	assert.IsType(t, &scene.Line{}, VisualFor(xr.TrackedPointer))
	assert.IsType(t, &scene.Ring{}, VisualFor(xr.Gaze))
	assert.Nil(t, VisualFor(xr.Screen))
	assert.Nil(t, VisualFor(xr.TargetRayMode(0)))
}
