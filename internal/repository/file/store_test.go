package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/admission-chat/internal/domain"
)

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	_, err = s.Get(ctx, "vu-chat-sessions")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Set(ctx, "vu-chat-sessions", []byte(`{"sessions":[]}`)))
	require.NoError(t, s.Set(ctx, "vu-chat-sessions", []byte(`{"sessions":[],"activeSessionId":null}`)))

	got, err := s.Get(ctx, "vu-chat-sessions")
	require.NoError(t, err)
	assert.Equal(t, `{"sessions":[],"activeSessionId":null}`, string(got))

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_WatchSeesExternalWrites(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, "state", func() { changed <- struct{}{} })
	}()

	// give the watcher time to register the directory
	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.watchers == 1
	}, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(s.path("state"), []byte(`{}`), 0o644))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification for an external write")
	}

	cancel()
	assert.NoError(t, <-done)
}
