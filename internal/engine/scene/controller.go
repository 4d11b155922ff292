package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ControllerNode is the scene representation of one XR controller's target
// ray space. It holds at most one visual.
type ControllerNode struct {
	Index    int
	Tag      string
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Visible  bool

	visual Visual
}

// NewControllerNode creates a node for controller index with a display tag.
func NewControllerNode(index int, tag string) *ControllerNode {
	return &ControllerNode{
		Index:    index,
		Tag:      tag,
		Rotation: mgl32.QuatIdent(),
	}
}

// Name implements Object.
func (c *ControllerNode) Name() string {
	return c.Tag
}

// Matrix returns the node's world transform.
func (c *ControllerNode) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(c.Position.X(), c.Position.Y(), c.Position.Z()).Mul4(c.Rotation.Mat4())
}

// Visual returns the attached visual or nil.
func (c *ControllerNode) Visual() Visual {
	return c.visual
}

// SetVisual replaces whatever visual is attached. A nil v clears the slot.
func (c *ControllerNode) SetVisual(v Visual) {
	c.visual = v
}

// ClearVisual removes the attached visual and returns it (nil when empty).
func (c *ControllerNode) ClearVisual() Visual {
	v := c.visual
	c.visual = nil
	return v
}
