package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func resetLogger(t *testing.T) {
	t.Cleanup(func() {
		_ = Close()
		ReplaceCore(zapcore.NewNopCore())
	})
}

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()
	resetLogger(t)

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{
			level:    "error",
			expected: []string{"error"},
			excluded: []string{"warn", "info", "debug"},
		},
		{
			level:    "warn",
			expected: []string{"error", "warn"},
			excluded: []string{"info", "debug"},
		},
		{
			level:    "info",
			expected: []string{"error", "warn", "info"},
			excluded: []string{"debug"},
		},
		{
			level:    "debug",
			expected: []string{"error", "warn", "info", "debug"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(tempDir, tt.level+".log")

			err := Setup(Options{
				Level: tt.level,
				File:  &Rotation{Path: logFile, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1},
			})
			if err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			if err := Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("failed to read log file: %v", err)
			}
			logContent := string(content)

			for _, exp := range tt.expected {
				if !strings.Contains(logContent, `"level":"`+exp+`"`) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(logContent, `"level":"`+exc+`"`) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	resetLogger(t)
	var buf bytes.Buffer

	if err := Setup(Options{Level: "bogus", Console: &buf}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if Level() != zapcore.InfoLevel {
		t.Errorf("expected info level, got %v", Level())
	}
	Debug("hidden")
	Sync()

	out := buf.String()
	if !strings.Contains(out, "unknown log level") {
		t.Errorf("expected fallback warning, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug entry written at info level")
	}
}

func TestSetLevelAtRuntime(t *testing.T) {
	resetLogger(t)
	var buf bytes.Buffer

	if err := Setup(Options{Level: "warn", Console: &buf}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	Info("before")
	SetLevel(zapcore.DebugLevel)
	Debug("after")
	Sync()

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Error("info entry written at warn level")
	}
	if !strings.Contains(out, "after") {
		t.Error("debug entry missing after SetLevel")
	}
}

func TestSetupRequiresOutput(t *testing.T) {
	if err := Setup(Options{Level: "info"}); !errors.Is(err, ErrNoOutput) {
		t.Errorf("expected ErrNoOutput, got %v", err)
	}
}

func TestNamedLoggerCarriesComponent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ReplaceCore(core)
	defer ReplaceCore(zapcore.NewNopCore())

	Named("loader").Info("resource is loaded", zap.String("path", "scene.gltf"))

	entries := logs.FilterMessage("resource is loaded").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "loader" {
		t.Errorf("expected logger name loader, got %q", entries[0].LoggerName)
	}
	if entries[0].ContextMap()["path"] != "scene.gltf" {
		t.Errorf("expected path field, got %v", entries[0].ContextMap())
	}
}

func TestNopBeforeInit(t *testing.T) {
	ReplaceCore(zapcore.NewNopCore())
	// Must not panic without Init
	Info("ignored")
	Sync()
}

func TestDefaultRotation(t *testing.T) {
	r := DefaultRotation("/tmp/viewer.log")

	if r.Path != "/tmp/viewer.log" {
		t.Errorf("expected path /tmp/viewer.log, got %s", r.Path)
	}
	if r.MaxSizeMB != 20 || r.MaxBackups != 3 || r.MaxAgeDays != 7 {
		t.Errorf("unexpected rotation %+v", *r)
	}
	if !r.Compress {
		t.Error("expected Compress to be true")
	}
}
