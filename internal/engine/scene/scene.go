// Package scene holds what the renderer draws: background, fog, lights,
// loaded models and the XR controller nodes.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Object is anything that can be added to a Scene.
type Object interface {
	Name() string
}

// Fog is linear distance fog.
type Fog struct {
	Color mgl32.Vec3
	Near  float32
	Far   float32
}

// Factor returns how much fog covers a fragment at distance d, in [0,1].
func (f Fog) Factor(d float32) float32 {
	if f.Far <= f.Near {
		return 0
	}
	return mgl32.Clamp((d-f.Near)/(f.Far-f.Near), 0, 1)
}

// AmbientLight lights every surface evenly.
type AmbientLight struct {
	Color     mgl32.Vec3
	Intensity float32
}

// DirectionalLight is a light at infinity shining along -Direction.
type DirectionalLight struct {
	Color     mgl32.Vec3
	Intensity float32
	Direction mgl32.Vec3 // unit vector pointing toward the light
}

// Scene is a flat list of objects plus environment settings.
type Scene struct {
	Background mgl32.Vec3
	Fog        *Fog
	Ambient    AmbientLight
	Key        *DirectionalLight

	children []Object
}

// New creates an empty scene with the given background color.
func New(background mgl32.Vec3) *Scene {
	return &Scene{Background: background}
}

// Add appends obj. Adding an object that is already present is a no-op.
func (s *Scene) Add(obj Object) {
	if s.indexOf(obj) >= 0 {
		return
	}
	s.children = append(s.children, obj)
}

// Remove detaches obj and reports whether it was present.
func (s *Scene) Remove(obj Object) bool {
	i := s.indexOf(obj)
	if i < 0 {
		return false
	}
	s.children = append(s.children[:i], s.children[i+1:]...)
	return true
}

// Children returns the objects in insertion order. Callers must not
// modify the returned slice.
func (s *Scene) Children() []Object {
	return s.children
}

// Len returns the number of direct children.
func (s *Scene) Len() int {
	return len(s.children)
}

// Models returns the loaded models in the scene.
func (s *Scene) Models() []*Model {
	var out []*Model
	for _, c := range s.children {
		if m, ok := c.(*Model); ok {
			out = append(out, m)
		}
	}
	return out
}

func (s *Scene) indexOf(obj Object) int {
	for i, c := range s.children {
		if c == obj {
			return i
		}
	}
	return -1
}
