package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// recorder is a Handler that remembers every path it was given.
type recorder struct {
	mu    sync.Mutex
	paths []string
	err   error
	panic bool
}

func (r *recorder) Handle(_ context.Context, path string) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	if r.panic {
		panic("handler exploded")
	}
	return r.err
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))
}

func TestIsAudio(t *testing.T) {
	accepted := []string{"Memo1.m4a", "a.MP3", "b.Wav", "/x/y/c.M4A"}
	rejected := []string{"notes.md", "memo.m4a.tmp", "memo", "image.png", "clip.ogg", ".m4a.part"}
	for _, name := range accepted {
		assert.True(t, IsAudio(name), name)
	}
	for _, name := range rejected {
		assert.False(t, IsAudio(name), name)
	}
}

func TestAccepts(t *testing.T) {
	dir := t.TempDir()
	d := New(dir, &recorder{}, WithLogger(quietLogger()))

	audio := filepath.Join(dir, "Memo1.M4A")
	touch(t, audio)
	text := filepath.Join(dir, "notes.txt")
	touch(t, text)
	sub := filepath.Join(dir, "folder.wav")
	require.NoError(t, os.Mkdir(sub, 0o755))

	assert.True(t, d.Accepts(fsnotify.Event{Name: audio, Op: fsnotify.Create}))
	assert.False(t, d.Accepts(fsnotify.Event{Name: audio, Op: fsnotify.Write}), "writes are not creations")
	assert.False(t, d.Accepts(fsnotify.Event{Name: text, Op: fsnotify.Create}))
	assert.False(t, d.Accepts(fsnotify.Event{Name: sub, Op: fsnotify.Create}), "directories are ignored")
	assert.False(t, d.Accepts(fsnotify.Event{Name: filepath.Join(dir, "gone.mp3"), Op: fsnotify.Create}))
}

func TestDispatch_QueuesOnlyAccepted(t *testing.T) {
	dir := t.TempDir()
	d := New(dir, &recorder{}, WithQueueSize(4), WithLogger(quietLogger()))
	audio := filepath.Join(dir, "a.mp3")
	touch(t, audio)
	other := filepath.Join(dir, "a.txt")
	touch(t, other)

	ctx := context.Background()
	assert.True(t, d.Dispatch(ctx, fsnotify.Event{Name: audio, Op: fsnotify.Create}))
	assert.False(t, d.Dispatch(ctx, fsnotify.Event{Name: other, Op: fsnotify.Create}))
	assert.Len(t, d.queue, 1)
}

func TestDispatch_FullQueueRespectsContext(t *testing.T) {
	dir := t.TempDir()
	d := New(dir, &recorder{}, WithQueueSize(1), WithLogger(quietLogger()))
	audio := filepath.Join(dir, "a.wav")
	touch(t, audio)
	ev := fsnotify.Event{Name: audio, Op: fsnotify.Create}

	require.True(t, d.Dispatch(context.Background(), ev))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, d.Dispatch(ctx, ev))
}

func TestHandle_ErrorsAndPanicsAreContained(t *testing.T) {
	rec := &recorder{err: errors.New("upload: 401")}
	d := New(t.TempDir(), rec, WithLogger(quietLogger()))
	d.handle(context.Background(), "/w/a.m4a")

	rec.panic = true
	assert.NotPanics(t, func() { d.handle(context.Background(), "/w/b.m4a") })
	assert.Equal(t, []string{"/w/a.m4a", "/w/b.m4a"}, rec.snapshot())
}

type failingStabilizer struct{}

func (failingStabilizer) WaitForStable(context.Context, string) error { return errors.New("vanished") }

func TestHandle_UnstableFileSkipped(t *testing.T) {
	rec := &recorder{}
	d := New(t.TempDir(), rec, WithStabilizer(failingStabilizer{}), WithLogger(quietLogger()))
	d.handle(context.Background(), "/w/a.m4a")
	assert.Empty(t, rec.snapshot())
}

func runDispatcher(t *testing.T, dir string, h Handler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	d := New(dir, h, WithLogger(quietLogger()))
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("dispatcher did not stop")
		}
	})
	select {
	case <-d.Ready():
	case err := <-done:
		t.Fatalf("Run exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher not ready")
	}
}

func TestRun_EachAudioFileHandledOnce(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	runDispatcher(t, dir, rec)

	touch(t, filepath.Join(dir, "Memo1.m4a"))
	touch(t, filepath.Join(dir, "Memo2.MP3"))
	touch(t, filepath.Join(dir, "ignored.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.wav"), 0o755))

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return len(rec.snapshot()) >= 2
	}, "audio files were not handled")
	time.Sleep(200 * time.Millisecond)

	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "Memo1.m4a"),
		filepath.Join(dir, "Memo2.MP3"),
	}, rec.snapshot())
}

func TestRun_NonRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	rec := &recorder{}
	runDispatcher(t, dir, rec)

	touch(t, filepath.Join(sub, "deep.m4a"))
	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestRun_HandlerErrorKeepsWatching(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{err: errors.New("generation failed")}
	runDispatcher(t, dir, rec)

	touch(t, filepath.Join(dir, "first.wav"))
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return len(rec.snapshot()) == 1
	}, "first memo not handled")

	touch(t, filepath.Join(dir, "second.wav"))
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return len(rec.snapshot()) == 2
	}, "dispatcher stopped after a handler error")
}

func TestRun_MissingDirectory(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "missing"), &recorder{}, WithLogger(quietLogger()))
	assert.Error(t, d.Run(context.Background()))
}
