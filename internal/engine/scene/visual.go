package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// VisualKind tags the concrete type behind a Visual.
type VisualKind int

const (
	VisualLine VisualKind = iota + 1
	VisualRing
)

func (k VisualKind) String() string {
	switch k {
	case VisualLine:
		return "line"
	case VisualRing:
		return "ring"
	default:
		return "unknown"
	}
}

// Visual is the representation attached to a controller node.
type Visual interface {
	Kind() VisualKind
}

// Line is a polyline with per-vertex colors.
type Line struct {
	Positions []mgl32.Vec3
	Colors    []mgl32.Vec3
	Additive  bool
}

// Kind implements Visual.
func (*Line) Kind() VisualKind { return VisualLine }

// Ring is a flat annulus drawn as triangles in a single color.
type Ring struct {
	Positions []mgl32.Vec3
	Indices   []uint32
	Color     mgl32.Vec3
	Opacity   float32
}

// Kind implements Visual.
func (*Ring) Kind() VisualKind { return VisualRing }

// NewPointerRay builds the ray shown for tracked-pointer controllers: one
// unit forward along -Z, mid-gray at the controller fading to black, so
// additive blending makes the far end disappear.
func NewPointerRay() *Line {
	return &Line{
		Positions: []mgl32.Vec3{{0, 0, 0}, {0, 0, -1}},
		Colors:    []mgl32.Vec3{{0.5, 0.5, 0.5}, {0, 0, 0}},
		Additive:  true,
	}
}

// NewGazeReticle builds the semi-transparent ring shown for gaze input,
// one unit in front of the viewer.
func NewGazeReticle() *Ring {
	return NewRing(0.02, 0.04, 32, -1, 0.5)
}

// NewRing builds an annulus in the XY plane at the given Z offset.
func NewRing(inner, outer float32, segments int, z float32, opacity float32) *Ring {
	if segments < 3 {
		segments = 3
	}
	r := &Ring{
		Color:   mgl32.Vec3{1, 1, 1},
		Opacity: opacity,
	}
	// segments+1 rings of vertices so the seam closes without wrap logic
	for i := 0; i <= segments; i++ {
		theta := 2 * math32.Pi * float32(i) / float32(segments)
		c, s := math32.Cos(theta), math32.Sin(theta)
		r.Positions = append(r.Positions,
			mgl32.Vec3{inner * c, inner * s, z},
			mgl32.Vec3{outer * c, outer * s, z},
		)
	}
	for i := 0; i < segments; i++ {
		a := uint32(i * 2)
		r.Indices = append(r.Indices, a, a+1, a+3, a, a+3, a+2)
	}
	return r
}
