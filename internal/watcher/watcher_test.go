package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quillbook/quillbook-server/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()

	w, err := New(logger.Discard(), Options{SettleDelay: 30 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Watch(dir))

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx) //nolint:errcheck // Test goroutine

	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	return w
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case event := <-w.Events():
		return event
	case err := <-w.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestNew_Stop(t *testing.T) {
	w, err := New(logger.Discard(), Options{})
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop(), "Stop is idempotent")
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w, err := New(logger.Discard(), Options{})
	require.NoError(t, err)
	defer w.Stop() //nolint:errcheck // Test cleanup

	assert.Error(t, w.Watch(filepath.Join(t.TempDir(), "missing")))
}

func TestWatcher_FileCreation(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	path := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	event := nextEvent(t, w)
	assert.Equal(t, EventAdded, event.Type)
	assert.Equal(t, path, event.Path)
	assert.Equal(t, int64(2), event.Size)
}

func TestWatcher_ExistingFileModified(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))
	w := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(path, []byte(`[{}]`), 0o600))

	event := nextEvent(t, w)
	assert.Equal(t, EventModified, event.Type)
	assert.Equal(t, path, event.Path)
}

func TestWatcher_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))
	w := startWatcher(t, dir)

	tmp := filepath.Join(dir, ".users.json-1.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`[{"email":"a@gmail.com"}]`), 0o600))
	require.NoError(t, os.Rename(tmp, path))

	event := nextEvent(t, w)
	assert.Equal(t, path, event.Path, "temp file is ignored, target is reported")
}

func TestWatcher_FileDeletion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signup-requests.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))
	w := startWatcher(t, dir)

	require.NoError(t, os.Remove(path))

	event := nextEvent(t, w)
	assert.Equal(t, EventRemoved, event.Type)
	assert.Equal(t, path, event.Path)
}

func TestWatcher_IgnoreHidden(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("secret"), 0o600))
	normal := filepath.Join(dir, "normal.json")
	require.NoError(t, os.WriteFile(normal, []byte("{}"), 0o600))

	assert.Equal(t, normal, nextEvent(t, w).Path)

	select {
	case event := <-w.Events():
		t.Fatalf("unexpected event for hidden file: %+v", event)
	case <-time.After(200 * time.Millisecond):
	}
}
