// Package overlay lays out the 2D controls drawn over the 3D view: the XR
// session button and the model load progress bar. Drawing goes through a
// Painter so layout and hit testing stay free of GL.
package overlay

import "github.com/chewxy/math32"

// Button geometry in window units.
const (
	ButtonWidth  = 150
	ButtonHeight = 32
	ButtonMargin = 20
	ProgressH    = 3
	TextScale    = 1
)

// Painter draws overlay primitives in window coordinates with the origin at
// the top-left corner.
type Painter interface {
	DrawRect(x, y, width, height float32, color Color)
	DrawRectOutline(x, y, width, height, thickness float32, color Color)
	DrawText(x, y float32, text string, scale float32, color Color)
	MeasureText(text string, scale float32) (float32, float32)
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float32
}

// Contains checks if a point is inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// ButtonState selects the XR button label and whether it reacts to clicks.
type ButtonState int

const (
	ButtonUnsupported ButtonState = iota
	ButtonEnter
	ButtonExit
)

// Label returns the text shown on the button.
func (s ButtonState) Label() string {
	switch s {
	case ButtonEnter:
		return "ENTER XR"
	case ButtonExit:
		return "EXIT XR"
	default:
		return "XR NOT SUPPORTED"
	}
}

// Button is the XR session toggle.
type Button struct {
	Rect
	State   ButtonState
	Hovered bool
}

// HitTest reports whether a click at (x, y) activates the button. A button
// showing XR NOT SUPPORTED never activates.
func (b *Button) HitTest(x, y float32) bool {
	return b.State != ButtonUnsupported && b.Contains(x, y)
}

// Overlay holds the overlay state between frames.
type Overlay struct {
	Button Button

	width, height float32
	loading       bool
	progress      float32
}

// New creates an overlay for a window of the given size.
func New(width, height int, state ButtonState) *Overlay {
	o := &Overlay{Button: Button{State: state}}
	o.Resize(width, height)
	return o
}

// Resize re-centres the button at the bottom of the window.
func (o *Overlay) Resize(width, height int) {
	o.width = float32(width)
	o.height = float32(height)
	o.Button.Rect = Rect{
		X: (o.width - ButtonWidth) / 2,
		Y: o.height - ButtonMargin - ButtonHeight,
		W: ButtonWidth,
		H: ButtonHeight,
	}
}

// SetButtonState changes the button label.
func (o *Overlay) SetButtonState(s ButtonState) {
	o.Button.State = s
}

// PointerMove updates hover highlighting.
func (o *Overlay) PointerMove(x, y float32) {
	o.Button.Hovered = o.Button.HitTest(x, y)
}

// Click reports whether a click landed on an active button.
func (o *Overlay) Click(x, y float32) bool {
	return o.Button.HitTest(x, y)
}

// SetProgress shows the progress bar at the given fraction, clamped to [0, 1].
func (o *Overlay) SetProgress(fraction float32) {
	o.loading = true
	o.progress = math32.Max(0, math32.Min(1, fraction))
}

// ClearProgress hides the progress bar.
func (o *Overlay) ClearProgress() {
	o.loading = false
	o.progress = 0
}

// Progress returns the bar fraction and whether the bar is visible.
func (o *Overlay) Progress() (float32, bool) {
	return o.progress, o.loading
}

// Draw paints the overlay.
func (o *Overlay) Draw(p Painter) {
	if o.loading {
		p.DrawRect(0, 0, o.width, ProgressH, ColorPanelBg)
		p.DrawRect(0, 0, o.width*o.progress, ProgressH, ColorProgress)
	}

	b := &o.Button
	bg, text := ColorButtonNormal, ColorText
	switch {
	case b.State == ButtonUnsupported:
		bg, text = ColorButtonOff, ColorTextDim
	case b.Hovered:
		bg = ColorButtonHover
	}
	p.DrawRect(b.X, b.Y, b.W, b.H, bg)
	p.DrawRectOutline(b.X, b.Y, b.W, b.H, 1, ColorPanelBorder)

	label := b.State.Label()
	textW, textH := p.MeasureText(label, TextScale)
	p.DrawText(b.X+(b.W-textW)/2, b.Y+(b.H-textH)/2, label, TextScale, text)
}
