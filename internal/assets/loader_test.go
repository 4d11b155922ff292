package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/xrviewer/internal/engine/model"
	"github.com/Faultbox/xrviewer/internal/engine/scene"
)

type fakeImporter struct {
	calls atomic.Int32
	steps int
	err   error
	block bool
}

func (f *fakeImporter) Import(ctx context.Context, path string, onProgress model.ProgressFunc) (*scene.Model, error) {
	f.calls.Add(1)
	for i := 1; i <= f.steps; i++ {
		onProgress(i, f.steps)
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return scene.NewModel(filepath.Base(path)), nil
}

func writeAsset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.gltf"), []byte("{}"), 0644))
	return dir
}

// drain waits for the task to finish and returns all events.
func drain(t *testing.T, task *Task) []Event {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish")
	}
	return task.Poll()
}

func terminal(events []Event) []Event {
	var out []Event
	for _, e := range events {
		if e.Kind != EventProgress {
			out = append(out, e)
		}
	}
	return out
}

func TestLoadSuccess(t *testing.T) {
	imp := &fakeImporter{steps: 4}
	l := NewLoader(writeAsset(t), imp)

	events := drain(t, l.Load(context.Background(), "scene.gltf"))
	require.Len(t, events, 2, "progress reports coalesce while nobody polls")

	assert.Equal(t, EventProgress, events[0].Kind)
	assert.Equal(t, 4, events[0].Loaded)
	assert.Equal(t, float32(1), events[0].Fraction())

	assert.Equal(t, EventLoaded, events[1].Kind)
	require.NotNil(t, events[1].Model)
	assert.Equal(t, "scene.gltf", events[1].Model.Name())
}

func TestLoadMissingResource(t *testing.T) {
	imp := &fakeImporter{}
	l := NewLoader(t.TempDir(), imp)

	task := l.Load(context.Background(), "scene.gltf")
	events := terminal(drain(t, task))

	require.Len(t, events, 1)
	assert.Equal(t, EventFailed, events[0].Kind)
	assert.ErrorIs(t, events[0].Err, os.ErrNotExist)
	assert.Contains(t, events[0].Err.Error(), task.Path())
	assert.Zero(t, imp.calls.Load(), "importer is not reached")
	assert.Empty(t, task.Poll(), "events are delivered once")
}

func TestLoadImportErrorNotRetried(t *testing.T) {
	boom := errors.New("bad accessor")
	imp := &fakeImporter{err: boom}
	l := NewLoader(writeAsset(t), imp)

	events := terminal(drain(t, l.Load(context.Background(), "scene.gltf")))
	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, boom)
	assert.Equal(t, int32(1), imp.calls.Load())
}

func TestLoadCancel(t *testing.T) {
	imp := &fakeImporter{block: true}
	l := NewLoader(writeAsset(t), imp)

	task := l.Load(context.Background(), "scene.gltf")
	task.Cancel()

	events := terminal(drain(t, task))
	require.Len(t, events, 1)
	assert.Equal(t, EventFailed, events[0].Kind)
	assert.ErrorIs(t, events[0].Err, context.Canceled)
}

func TestLoadUsesCacheForUnchangedFile(t *testing.T) {
	imp := &fakeImporter{}
	l := NewLoader(writeAsset(t), imp)

	first := terminal(drain(t, l.Load(context.Background(), "scene.gltf")))
	second := terminal(drain(t, l.Load(context.Background(), "scene.gltf")))

	require.Equal(t, EventLoaded, second[0].Kind)
	assert.Same(t, first[0].Model, second[0].Model)
	assert.Equal(t, int32(1), imp.calls.Load())

	hits, misses := l.Cache().Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestTaskPushAfterFinishIgnored(t *testing.T) {
	task := &Task{done: make(chan struct{}), cancel: func() {}}
	task.push(Event{Kind: EventProgress, Loaded: 1, Total: 2})
	task.finish(Event{Kind: EventLoaded})
	task.push(Event{Kind: EventProgress, Loaded: 2, Total: 2})
	task.finish(Event{Kind: EventFailed})

	events := task.Poll()
	require.Len(t, events, 2)
	assert.Equal(t, EventLoaded, events[1].Kind)
}

func TestLoadSiblingChangeReimports(t *testing.T) {
	imp := &fakeImporter{steps: 1}
	dir := writeAsset(t)
	l := NewLoader(dir, imp)

	first := terminal(drain(t, l.Load(context.Background(), "scene.gltf")))
	require.Len(t, first, 1)
	require.Equal(t, EventLoaded, first[0].Kind)

	again := terminal(drain(t, l.Load(context.Background(), "scene.gltf")))
	require.Len(t, again, 1)
	assert.Same(t, first[0].Model, again[0].Model, "unchanged directory is served from cache")
	assert.Equal(t, int32(1), imp.calls.Load())

	tex := filepath.Join(dir, "textures", "stone.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(tex), 0755))
	require.NoError(t, os.WriteFile(tex, []byte("png"), 0644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(tex, later, later))

	changed := terminal(drain(t, l.Load(context.Background(), "scene.gltf")))
	require.Len(t, changed, 1)
	require.Equal(t, EventLoaded, changed[0].Kind)
	assert.NotSame(t, first[0].Model, changed[0].Model)
	assert.Equal(t, int32(2), imp.calls.Load())
}

func TestNewestModTime(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	newer := old.Add(30 * time.Minute)

	for name, mt := range map[string]time.Time{"scene.gltf": old, "sub/scene.bin": newer} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
		require.NoError(t, os.Chtimes(path, mt, mt))
	}

	got, err := newestModTime(dir)
	require.NoError(t, err)
	assert.True(t, got.Equal(newer), "got %v want %v", got, newer)

	_, err = newestModTime(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestCacheModTime(t *testing.T) {
	c := NewCache()
	m := scene.NewModel("m")
	now := time.Now()

	c.Set("a", now, m)
	got, ok := c.Get("a", now)
	assert.True(t, ok)
	assert.Same(t, m, got)

	_, ok = c.Get("a", now.Add(time.Second))
	assert.False(t, ok, "a newer file invalidates the entry")

	c.Clear()
	hits, misses := c.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "progress", EventProgress.String())
	assert.Equal(t, "loaded", EventLoaded.String())
	assert.Equal(t, "failed", EventFailed.String())
	assert.Equal(t, "unknown", EventKind(0).String())
}

func TestWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.bin"), []byte{byte(i)}, 0644))
	}

	select {
	case <-w.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}

	select {
	case <-w.Changes():
		t.Fatal("writes within the debounce window should notify once")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherMissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope"), time.Millisecond)
	assert.Error(t, err)
}
