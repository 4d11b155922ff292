// Package lighting converts configured light settings into scene lights.
package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrviewer/internal/config"
	"github.com/Faultbox/xrviewer/internal/engine/scene"
)

// Direction converts azimuth (degrees around Y, 0 = +Z) and elevation
// (degrees above the horizon) to a unit vector pointing toward the light.
func Direction(azimuth, elevation float32) mgl32.Vec3 {
	az := mgl32.DegToRad(azimuth)
	el := mgl32.DegToRad(elevation)

	return mgl32.Vec3{
		math32.Cos(el) * math32.Sin(az),
		math32.Sin(el),
		math32.Cos(el) * math32.Cos(az),
	}
}

// Ambient builds the scene's ambient light.
func Ambient(cfg config.LightConfig) scene.AmbientLight {
	return scene.AmbientLight{
		Color:     mgl32.Vec3(cfg.Color),
		Intensity: cfg.Intensity,
	}
}

// Key builds the optional directional light, or nil when its intensity is zero.
func Key(cfg config.KeyLightConfig) *scene.DirectionalLight {
	if cfg.Intensity <= 0 {
		return nil
	}
	return &scene.DirectionalLight{
		Color:     mgl32.Vec3(cfg.Color),
		Intensity: cfg.Intensity,
		Direction: Direction(cfg.Azimuth, cfg.Elevation),
	}
}
