// Package camera provides the viewer's perspective camera and desktop orbit controls.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Viewport is a sub-rectangle of the output surface in pixels.
// A zero Viewport means the whole surface.
type Viewport struct {
	X, Y, Width, Height int32
}

// Empty reports whether the viewport covers nothing.
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// Perspective is a pinhole camera looking from Position toward Target.
type Perspective struct {
	FOV    float32 // vertical, degrees
	Aspect float32
	Near   float32
	Far    float32

	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	// Viewport restricts drawing to part of the surface (stereo eyes).
	Viewport Viewport

	projection mgl32.Mat4
}

// NewPerspective creates a camera and computes its projection.
func NewPerspective(fov, aspect, near, far float32) *Perspective {
	c := &Perspective{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Up:     mgl32.Vec3{0, 1, 0},
	}
	c.UpdateProjection()
	return c
}

// SetAspect sets the aspect ratio from a pixel size. It does not
// recompute the projection; call UpdateProjection afterwards.
func (c *Perspective) SetAspect(width, height int) {
	if height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

// UpdateProjection recomputes the projection matrix after FOV, Aspect,
// Near or Far changed.
func (c *Perspective) UpdateProjection() {
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// Projection returns the cached projection matrix.
func (c *Perspective) Projection() mgl32.Mat4 {
	return c.projection
}

// View returns the world-to-camera matrix.
func (c *Perspective) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// LookAt points the camera at target.
func (c *Perspective) LookAt(target mgl32.Vec3) {
	c.Target = target
}

// Translate moves the camera and its target together, keeping orientation.
func (c *Perspective) Translate(d mgl32.Vec3) {
	c.Position = c.Position.Add(d)
	c.Target = c.Target.Add(d)
}

// Clone returns an independent copy, projection included.
func (c *Perspective) Clone() *Perspective {
	cp := *c
	return &cp
}
