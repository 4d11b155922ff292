// Package logger owns the process-wide zap logger: a colored console core
// and an optional rotated JSON file core sharing one adjustable level.
package logger

import (
	"errors"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrNoOutput is returned by Setup when neither console nor file is set.
var ErrNoOutput = errors.New("logger: no output configured")

var (
	// Log is the global logger. It discards everything until Init runs.
	Log = zap.NewNop()
	// Sugar is the sugared form of Log.
	Sugar = Log.Sugar()

	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	files []io.Closer
)

// Rotation configures the rotated log file.
type Rotation struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation keeps three compressed 20 MB backups for a week.
func DefaultRotation(path string) *Rotation {
	return &Rotation{
		Path:       path,
		MaxSizeMB:  20,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

// Options selects the outputs of the global logger.
type Options struct {
	Level   string
	Console io.Writer // nil disables console output
	File    *Rotation // nil disables file output
}

// Init logs to stdout and, when logFile is set, to a rotated file.
func Init(levelName, logFile string) error {
	opts := Options{Level: levelName, Console: os.Stdout}
	if logFile != "" {
		opts.File = DefaultRotation(logFile)
	}
	return Setup(opts)
}

// Setup replaces the global logger. An unknown level falls back to info
// and is reported once the new logger is live.
func Setup(opts Options) error {
	if opts.Console == nil && opts.File == nil {
		return ErrNoOutput
	}
	lvl, levelErr := zapcore.ParseLevel(opts.Level)
	if levelErr != nil {
		lvl = zapcore.InfoLevel
	}
	level.SetLevel(lvl)

	_ = closeFiles()
	var cores []zapcore.Core
	if opts.Console != nil {
		cores = append(cores, zapcore.NewCore(consoleEncoder(), zapcore.Lock(zapcore.AddSync(opts.Console)), level))
	}
	if r := opts.File; r != nil {
		w := &lumberjack.Logger{
			Filename:   r.Path,
			MaxSize:    r.MaxSizeMB,
			MaxBackups: r.MaxBackups,
			MaxAge:     r.MaxAgeDays,
			Compress:   r.Compress,
			LocalTime:  true,
		}
		files = append(files, w)
		cores = append(cores, zapcore.NewCore(fileEncoder(), zapcore.AddSync(w), level))
	}
	ReplaceCore(zapcore.NewTee(cores...))

	if levelErr != nil {
		Log.Warn("unknown log level, using info", zap.String("level", opts.Level))
	}
	return nil
}

func consoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	})
}

// fileEncoder writes JSON lines so a session can be filtered by logger name
// or session id.
func fileEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// ReplaceCore swaps the core behind the global logger. Tests use it to
// install an observer core.
func ReplaceCore(core zapcore.Core) {
	Log = zap.New(core, zap.AddCaller())
	Sugar = Log.Sugar()
}

// SetLevel changes the level of the cores built by Setup.
func SetLevel(l zapcore.Level) { level.SetLevel(l) }

// Level returns the current level of the cores built by Setup.
func Level() zapcore.Level { return level.Level() }

// Named returns a child of the global logger for one component.
func Named(component string) *zap.Logger {
	return Log.Named(component)
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Log.Sync()
}

// Close flushes and closes the log files opened by Setup.
func Close() error {
	Sync()
	return closeFiles()
}

func closeFiles() error {
	var err error
	for _, f := range files {
		err = multierr.Append(err, f.Close())
	}
	files = nil
	return err
}

// Debug logs at debug level on the global logger.
func Debug(msg string, fields ...zap.Field) { Log.Debug(msg, fields...) }

// Info logs at info level on the global logger.
func Info(msg string, fields ...zap.Field) { Log.Info(msg, fields...) }

// Warn logs at warn level on the global logger.
func Warn(msg string, fields ...zap.Field) { Log.Warn(msg, fields...) }

// Error logs at error level on the global logger.
func Error(msg string, fields ...zap.Field) { Log.Error(msg, fields...) }
