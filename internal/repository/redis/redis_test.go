package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/admission-chat/internal/domain"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClientFrom(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	s := NewStore(client)

	_, err := s.Get(ctx, "vu-chat-sessions")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Set(ctx, "vu-chat-sessions", []byte(`{"sessions":[]}`)))

	got, err := s.Get(ctx, "vu-chat-sessions")
	require.NoError(t, err)
	assert.Equal(t, `{"sessions":[]}`, string(got))

	raw, err := mr.Get("kv:vu-chat-sessions")
	require.NoError(t, err)
	assert.Equal(t, `{"sessions":[]}`, raw)
	assert.Zero(t, mr.TTL("kv:vu-chat-sessions"))
}

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	limiter := NewRateLimiter(client, 2, 1)
	fixed := time.Date(2025, 3, 1, 10, 30, 15, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 31, 0, 0, time.UTC), d.ResetAt)

	// other clients have their own budget
	d, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// a new window starts fresh
	limiter.now = func() time.Time { return fixed.Add(time.Minute) }
	d, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
