package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func startWatcher(t *testing.T, dir string, rec *recorder) context.CancelFunc {
	t.Helper()
	w, err := New(dir, 20*time.Millisecond, rec.handle)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Stop()
	})
	return cancel
}

func waitForPaths(t *testing.T, rec *recorder, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(rec.seen()) >= want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected %d handled paths, got %d", want, len(rec.seen()))
}

func TestWatcher_PicksUpNewSubtitle(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec)

	path := filepath.Join(dir, "BV1aa.srt")
	require.NoError(t, os.WriteFile(path, []byte("1\n00:00:01,000 --> 00:00:02,000\nhi\n"), 0o644))

	waitForPaths(t, rec, 1)
	assert.Equal(t, path, rec.seen()[0])
}

func TestWatcher_IgnoresNonSubtitleFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("video"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("text"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BV1bb.srt"), []byte("subs"), 0o644))

	waitForPaths(t, rec, 1)
	// give stray events a moment, then confirm only the subtitle came through
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{filepath.Join(dir, "BV1bb.srt")}, rec.seen())
}

func TestWatcher_MissingDirectory(t *testing.T) {
	_, err := New("/does/not/exist", time.Second, func(context.Context, string) error { return nil })
	assert.Error(t, err)
}

func TestWatcher_CancelStopsStart(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, time.Second, func(context.Context, string) error { return nil })
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
