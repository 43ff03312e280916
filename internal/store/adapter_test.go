package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Rrens/admission-chat/internal/domain"
	"github.com/Rrens/admission-chat/internal/repository/memory"
)

// MockKVStore mocks domain.KVStore
type MockKVStore struct {
	mock.Mock
}

func (m *MockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKVStore) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKVStore) Close() error {
	return m.Called().Error(0)
}

type prefs struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

func defaultPrefs() prefs { return prefs{Theme: "light"} }

func TestAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	a := New(memory.NewStore(), "prefs", defaultPrefs)

	assert.Equal(t, defaultPrefs(), a.Load(ctx))

	assert.True(t, a.Save(ctx, prefs{Theme: "dark", Count: 3}))
	assert.Equal(t, prefs{Theme: "dark", Count: 3}, a.Load(ctx))
}

func TestAdapter_CorruptValueFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	_ = kv.Set(ctx, "prefs", []byte("{not json"))

	a := New(kv, "prefs", defaultPrefs)
	assert.Equal(t, defaultPrefs(), a.Load(ctx))
}

func TestAdapter_StorageErrorsAreAbsorbed(t *testing.T) {
	ctx := context.Background()
	kv := new(MockKVStore)
	kv.On("Get", ctx, "prefs").Return(nil, errors.New("disk on fire"))
	kv.On("Set", ctx, "prefs", mock.Anything).Return(errors.New("quota exceeded"))

	a := New(kv, "prefs", defaultPrefs)

	assert.Equal(t, defaultPrefs(), a.Load(ctx))
	assert.False(t, a.Save(ctx, prefs{Theme: "dark"}))
	kv.AssertExpectations(t)
}

func TestAdapter_WatchWithoutWatcherReturns(t *testing.T) {
	a := New(memory.NewStore(), "prefs", defaultPrefs)
	err := a.Watch(context.Background(), func(prefs) { t.Fatal("unexpected change") })
	assert.NoError(t, err)
}

func TestAdapter_SessionStateFallbackIsFresh(t *testing.T) {
	ctx := context.Background()
	a := New(memory.NewStore(), "vu-chat-sessions", domain.EmptySessionState)

	first := a.Load(ctx)
	first.Sessions = append(first.Sessions, domain.ChatSession{ID: "x"})

	second := a.Load(ctx)
	assert.Empty(t, second.Sessions)
	assert.Nil(t, second.ActiveSessionID)
}

func TestAdapter_LoadOKReportsFallback(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	a := New(kv, "prefs", defaultPrefs)

	v, ok := a.LoadOK(ctx)
	assert.False(t, ok)
	assert.Equal(t, defaultPrefs(), v)

	_ = kv.Set(ctx, "prefs", []byte(`{"theme":`))
	_, ok = a.LoadOK(ctx)
	assert.False(t, ok)

	_ = kv.Set(ctx, "prefs", []byte(`{"theme":"dark"}`))
	v, ok = a.LoadOK(ctx)
	assert.True(t, ok)
	assert.Equal(t, "dark", v.Theme)
}
