package viewer

import (
	"go.uber.org/zap"

	"github.com/Faultbox/xrviewer/internal/engine/scene"
	"github.com/Faultbox/xrviewer/internal/xr"
)

// ActivityState is what the render loop reads from a controller each frame.
// The two flags are independent; each reflects the latest start or end event
// of its gesture.
type ActivityState struct {
	IsSelecting bool
	IsSqueezing bool
	Tag         string
}

// Controller turns the events of one XR controller into an ActivityState
// and keeps the node's visual in step with the connected input source.
type Controller struct {
	ActivityState

	node *scene.ControllerNode
	log  *zap.Logger
}

// NewController binds a controller to its scene node.
func NewController(node *scene.ControllerNode, log *zap.Logger) *Controller {
	return &Controller{
		ActivityState: ActivityState{Tag: node.Tag},
		node:          node,
		log:           log.With(zap.String("controller", node.Tag)),
	}
}

// Node returns the controller's scene node.
func (c *Controller) Node() *scene.ControllerNode {
	return c.node
}

// Handle applies one event. It is an xr.Handler.
func (c *Controller) Handle(e xr.Event) {
	switch e.Type {
	case xr.SelectStart:
		c.IsSelecting = true
	case xr.SelectEnd:
		c.IsSelecting = false
	case xr.SqueezeStart:
		c.IsSqueezing = true
	case xr.SqueezeEnd:
		c.IsSqueezing = false
	case xr.Connected:
		c.connect(e.Source)
	case xr.Disconnected:
		c.node.ClearVisual()
	}
}

func (c *Controller) connect(src *xr.InputSource) {
	var mode xr.TargetRayMode
	if src != nil {
		mode = src.TargetRayMode
	}
	v := VisualFor(mode)
	if v == nil {
		c.node.ClearVisual()
		c.log.Debug("no visual for target ray mode", zap.Stringer("mode", mode))
		return
	}
	c.node.SetVisual(v)
	c.log.Debug("controller visual attached", zap.Stringer("mode", mode), zap.Stringer("visual", v.Kind()))
}

// VisualFor builds the visual for a target ray mode: a ray for tracked
// pointers, a reticle for gaze, nothing for any other mode.
func VisualFor(mode xr.TargetRayMode) scene.Visual {
	switch mode {
	case xr.TrackedPointer:
		return scene.NewPointerRay()
	case xr.Gaze:
		return scene.NewGazeReticle()
	default:
		return nil
	}
}
