package config

import (
	"flag"
	"io"
)

// Flags are the command-line overrides. They win over the config file.
type Flags struct {
	ConfigPath string
	DumpPath   string
	Debug      bool
	Windowed   bool
	Fullscreen bool
	Width      int
	Height     int
	Asset      string
	NoXR       bool
}

// ParseFlags parses args (without the program name). Errors and -help
// output go to out.
func ParseFlags(args []string, out io.Writer) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("xrviewer", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.StringVar(&f.DumpPath, "dump-config", "", "Write the effective config to this path and exit")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.Windowed, "windowed", false, "Run in windowed mode")
	fs.BoolVar(&f.Fullscreen, "fullscreen", false, "Run in fullscreen mode")
	fs.IntVar(&f.Width, "width", 0, "Window width")
	fs.IntVar(&f.Height, "height", 0, "Window height")
	fs.StringVar(&f.Asset, "asset", "", "Model directory (the file name comes from config)")
	fs.BoolVar(&f.NoXR, "no-xr", false, "Disable immersive sessions")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// Apply writes the overrides that were set into cfg.
func (f *Flags) Apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	switch {
	case f.Fullscreen:
		cfg.Window.Fullscreen = true
	case f.Windowed:
		cfg.Window.Fullscreen = false
	}
	if f.Width > 0 {
		cfg.Window.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Window.Height = f.Height
	}
	if f.Asset != "" {
		cfg.Asset.BasePath = f.Asset
	}
	if f.NoXR {
		cfg.XR.Enabled = false
	}
}
