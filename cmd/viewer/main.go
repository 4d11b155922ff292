// Package main is the entry point for the XR model viewer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/xrviewer/internal/assets"
	"github.com/Faultbox/xrviewer/internal/config"
	"github.com/Faultbox/xrviewer/internal/engine/debug"
	"github.com/Faultbox/xrviewer/internal/engine/input/sdlinput"
	"github.com/Faultbox/xrviewer/internal/engine/model"
	"github.com/Faultbox/xrviewer/internal/engine/renderer"
	"github.com/Faultbox/xrviewer/internal/engine/ui2d"
	"github.com/Faultbox/xrviewer/internal/engine/window"
	"github.com/Faultbox/xrviewer/internal/logger"
	"github.com/Faultbox/xrviewer/internal/viewer"
	"github.com/Faultbox/xrviewer/internal/xr"
)

func main() {
	flags, err := config.ParseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if flags.DumpPath != "" {
		if err := cfg.SaveTo(flags.DumpPath); err != nil {
			fmt.Fprintf(os.Stderr, "Config dump error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", flags.DumpPath)
		return
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Close() }()

	logger.Info("=== XR Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		_ = logger.Close()
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	samples := 0
	if cfg.Renderer.Antialias {
		samples = cfg.Renderer.Samples
	}
	win, err := window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Renderer.VSync,
		Samples:    samples,
	})
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}

	width, height := win.Size()
	rend, err := renderer.New(renderer.Config{
		Width:       width,
		Height:      height,
		PixelRatio:  win.PixelRatio(),
		Antialias:   win.Samples() > 0,
		ToneMapping: cfg.Renderer.ToneMapping,
		Exposure:    cfg.Renderer.Exposure,
	})
	if err != nil {
		win.Close()
		return fmt.Errorf("creating renderer: %w", err)
	}

	ui, err := ui2d.New(width, height)
	if err != nil {
		_ = rend.Close()
		win.Close()
		return fmt.Errorf("creating overlay renderer: %w", err)
	}

	in := sdlinput.New()

	if !win.GamepadsAvailable() {
		logger.Warn("no game controller support; XR input falls back to gaze")
	}
	sys := xr.NewSystem(xr.Config{
		Enabled:          cfg.XR.Enabled,
		IPD:              cfg.XR.IPD,
		TriggerThreshold: cfg.XR.TriggerThreshold,
	})

	app, err := viewer.New(cfg, viewer.Deps{
		Renderer:    rend,
		Surface:     win,
		Painter:     ui,
		Input:       in,
		XR:          sys,
		Loader:      assets.NewLoader(cfg.Asset.BasePath, model.NewImporter(cfg.Asset.DecodeWorkers)),
		Screenshots: debug.NewScreenshotCapture("screenshots", "xrviewer"),
	})
	if err != nil {
		in.Close()
		ui.Close()
		_ = rend.Close()
		win.Close()
		return fmt.Errorf("creating viewer: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := app.Run(ctx)
	// Controllers close before the window shuts SDL down
	in.Close()
	if err := app.Close(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	return runErr
}
