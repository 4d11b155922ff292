// Package assets loads the viewer's model in the background and hands the
// outcome back to the render thread.
package assets

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/xrviewer/internal/engine/model"
	"github.com/Faultbox/xrviewer/internal/engine/scene"
	"github.com/Faultbox/xrviewer/internal/logger"
)

// Importer turns a model file into a scene model.
type Importer interface {
	Import(ctx context.Context, path string, onProgress model.ProgressFunc) (*scene.Model, error)
}

// EventKind identifies a load outcome.
type EventKind int

const (
	EventProgress EventKind = iota + 1
	EventLoaded
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventLoaded:
		return "loaded"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one observable outcome of a Task.
type Event struct {
	Kind   EventKind
	Loaded int
	Total  int
	Model  *scene.Model
	Err    error
}

// Fraction returns Loaded/Total for progress events, 0 when Total is unknown.
func (e Event) Fraction() float32 {
	if e.Total <= 0 {
		return 0
	}
	return float32(e.Loaded) / float32(e.Total)
}

// Loader starts background imports of files under BasePath.
type Loader struct {
	BasePath string

	importer Importer
	cache    *Cache
	log      *zap.Logger
}

// NewLoader creates a loader for basePath.
func NewLoader(basePath string, importer Importer) *Loader {
	return &Loader{
		BasePath: basePath,
		importer: importer,
		cache:    NewCache(),
		log:      logger.Named("assets"),
	}
}

// Path returns the full path for a named resource.
func (l *Loader) Path(name string) string {
	return filepath.Join(l.BasePath, name)
}

// Cache exposes the loader's model cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Load starts importing name and returns immediately. The import never
// retries; failures surface once as an EventFailed.
func (l *Loader) Load(ctx context.Context, name string) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		path:   l.Path(name),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer cancel()
		m, err := l.run(ctx, t)
		if err != nil {
			t.finish(Event{Kind: EventFailed, Err: err})
			return
		}
		t.finish(Event{Kind: EventLoaded, Model: m})
	}()

	return t
}

func (l *Loader) run(ctx context.Context, t *Task) (*scene.Model, error) {
	if _, err := os.Stat(t.path); err != nil {
		return nil, fmt.Errorf("loading %s: %w", t.path, err)
	}
	// Buffers and textures sit next to the model, so any of them changing
	// invalidates the cached import
	modTime, err := newestModTime(filepath.Dir(t.path))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", t.path, err)
	}
	if m, ok := l.cache.Get(t.path, modTime); ok {
		l.log.Debug("model served from cache", zap.String("path", t.path))
		t.push(Event{Kind: EventProgress, Loaded: 1, Total: 1})
		return m, nil
	}

	m, err := l.importer.Import(ctx, t.path, func(loaded, total int) {
		t.push(Event{Kind: EventProgress, Loaded: loaded, Total: total})
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", t.path, err)
	}
	// A cancel racing the last import step still cancels the task
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", t.path, err)
	}

	l.cache.Set(t.path, modTime, m)
	return m, nil
}

// newestModTime returns the latest modification time of any file under dir.
func newestModTime(dir string) (time.Time, error) {
	var newest time.Time
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if mt := info.ModTime(); mt.After(newest) {
			newest = mt
		}
		return nil
	})
	return newest, err
}

// Task is an in-flight load. Its events are queued from the loading
// goroutine and drained with Poll on the caller's thread.
type Task struct {
	path   string
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	pending  []Event
	finished bool
}

// Path returns the file being loaded.
func (t *Task) Path() string {
	return t.path
}

// Cancel aborts the load. The task then finishes with an EventFailed
// wrapping context.Canceled unless it already completed.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed once the terminal event has been queued.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Poll returns the events queued since the last call without blocking.
// Consecutive progress reports are coalesced into the latest one.
func (t *Task) Poll() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) == 0 {
		return nil
	}
	out := t.pending
	t.pending = nil
	return out
}

func (t *Task) push(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	if n := len(t.pending); n > 0 && e.Kind == EventProgress && t.pending[n-1].Kind == EventProgress {
		t.pending[n-1] = e
		return
	}
	t.pending = append(t.pending, e)
}

func (t *Task) finish(e Event) {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.pending = append(t.pending, e)
	t.finished = true
	t.mu.Unlock()
	close(t.done)
}
