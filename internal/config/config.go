// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned by Validate for settings the viewer cannot run with.
var ErrInvalid = errors.New("invalid config")

// Tone mapping operators understood by the renderer.
const (
	ToneMappingNone   = "none"
	ToneMappingLinear = "linear"
	ToneMappingACES   = "aces"
)

// Config holds all viewer settings.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Camera   CameraConfig   `yaml:"camera"`
	Scene    SceneConfig    `yaml:"scene"`
	Renderer RendererConfig `yaml:"renderer"`
	Orbit    OrbitConfig    `yaml:"orbit"`
	Asset    AssetConfig    `yaml:"asset"`
	XR       XRConfig       `yaml:"xr"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
}

// CameraConfig describes the perspective camera created at startup.
type CameraConfig struct {
	FOV      float32    `yaml:"fov"` // vertical, degrees
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
	Position [3]float32 `yaml:"position"`
	Target   [3]float32 `yaml:"target"`
}

// SceneConfig holds background, fog and lighting.
type SceneConfig struct {
	Background [3]float32     `yaml:"background"`
	Fog        FogConfig      `yaml:"fog"`
	Ambient    LightConfig    `yaml:"ambient"`
	KeyLight   KeyLightConfig `yaml:"key_light"`
}

// FogConfig is linear distance fog between Near and Far.
type FogConfig struct {
	Color [3]float32 `yaml:"color"`
	Near  float32    `yaml:"near"`
	Far   float32    `yaml:"far"`
}

// LightConfig is a colored light with an intensity.
type LightConfig struct {
	Color     [3]float32 `yaml:"color"`
	Intensity float32    `yaml:"intensity"`
}

// KeyLightConfig is an optional directional light. Zero intensity disables it.
type KeyLightConfig struct {
	LightConfig `yaml:",inline"`
	Azimuth     float32 `yaml:"azimuth"`   // degrees around Y
	Elevation   float32 `yaml:"elevation"` // degrees above the horizon
}

// RendererConfig holds GPU output settings.
type RendererConfig struct {
	Antialias   bool    `yaml:"antialias"`
	Samples     int     `yaml:"samples"`
	ToneMapping string  `yaml:"tone_mapping"`
	Exposure    float32 `yaml:"exposure"`
	VSync       bool    `yaml:"vsync"`
}

// OrbitConfig constrains the desktop orbit controls.
type OrbitConfig struct {
	MinDistance float32    `yaml:"min_distance"`
	MaxDistance float32    `yaml:"max_distance"`
	Target      [3]float32 `yaml:"target"`
}

// AssetConfig locates the model to load.
type AssetConfig struct {
	BasePath      string `yaml:"base_path"`
	File          string `yaml:"file"`
	Watch         bool   `yaml:"watch"`
	DecodeWorkers int    `yaml:"decode_workers"`
}

// XRConfig holds settings for immersive sessions.
type XRConfig struct {
	Enabled          bool    `yaml:"enabled"`
	NudgeStep        float32 `yaml:"nudge_step"`
	Clamp            bool    `yaml:"clamp"`
	MinHeight        float32 `yaml:"min_height"`
	MaxHeight        float32 `yaml:"max_height"`
	IPD              float32 `yaml:"ipd"`
	TriggerThreshold float32 `yaml:"trigger_threshold"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the stock viewer settings.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "XR Viewer",
			Width:  1280,
			Height: 720,
		},
		Camera: CameraConfig{
			FOV:      50,
			Near:     0.1,
			Far:      50,
			Position: [3]float32{0, 1.6, 3},
		},
		Scene: SceneConfig{
			Background: [3]float32{0.3, 0.5, 0.8},
			Fog: FogConfig{
				Color: [3]float32{1, 0.843, 0}, // gold
				Near:  1,
				Far:   80,
			},
			Ambient: LightConfig{
				Color:     [3]float32{1, 1, 1},
				Intensity: 0.1,
			},
			KeyLight: KeyLightConfig{
				LightConfig: LightConfig{Color: [3]float32{1, 1, 1}},
				Azimuth:     45,
				Elevation:   60,
			},
		},
		Renderer: RendererConfig{
			Antialias:   true,
			Samples:     4,
			ToneMapping: ToneMappingACES,
			Exposure:    1,
			VSync:       true,
		},
		Orbit: OrbitConfig{
			MinDistance: 2,
			MaxDistance: 25,
		},
		Asset: AssetConfig{
			BasePath:      "assets/cathedral/",
			File:          "scene.gltf",
			DecodeWorkers: 4,
		},
		XR: XRConfig{
			Enabled:          true,
			NudgeStep:        1,
			MinHeight:        -10,
			MaxHeight:        50,
			IPD:              0.064,
			TriggerThreshold: 0.5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Camera.FOV <= 0 || c.Camera.FOV >= 180:
		return fmt.Errorf("%w: camera fov %v", ErrInvalid, c.Camera.FOV)
	case c.Camera.Near <= 0 || c.Camera.Near >= c.Camera.Far:
		return fmt.Errorf("%w: camera clip planes %v..%v", ErrInvalid, c.Camera.Near, c.Camera.Far)
	case c.Orbit.MinDistance < 0 || c.Orbit.MinDistance > c.Orbit.MaxDistance:
		return fmt.Errorf("%w: orbit distance %v..%v", ErrInvalid, c.Orbit.MinDistance, c.Orbit.MaxDistance)
	case c.Asset.File == "":
		return fmt.Errorf("%w: asset file is empty", ErrInvalid)
	case c.XR.TriggerThreshold <= 0 || c.XR.TriggerThreshold > 1:
		return fmt.Errorf("%w: xr trigger threshold %v", ErrInvalid, c.XR.TriggerThreshold)
	case c.XR.Clamp && c.XR.MinHeight > c.XR.MaxHeight:
		return fmt.Errorf("%w: xr height clamp %v..%v", ErrInvalid, c.XR.MinHeight, c.XR.MaxHeight)
	}

	switch c.Renderer.ToneMapping {
	case ToneMappingNone, ToneMappingLinear, ToneMappingACES:
	default:
		return fmt.Errorf("%w: tone mapping %q", ErrInvalid, c.Renderer.ToneMapping)
	}
	return nil
}
