package sqldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/admission-chat/internal/domain"
)

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chat.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, s.Dialect())

	_, err = s.Get(ctx, "vu-chat-sessions")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Set(ctx, "vu-chat-sessions", []byte("first")))
	require.NoError(t, s.Set(ctx, "vu-chat-sessions", []byte("second")))

	got, err := s.Get(ctx, "vu-chat-sessions")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
	require.NoError(t, s.Close())

	// values survive reopening the file
	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err = s.Get(ctx, "vu-chat-sessions")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	assert.Error(t, err)
}

func TestOpenMySQL_RequiresDSN(t *testing.T) {
	_, err := OpenMySQL(context.Background(), "")
	assert.Error(t, err)
}
