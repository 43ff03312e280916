// Package store keeps a typed value in sync with a durable key-value store.
// Every failure is logged and absorbed: callers always get a usable value back.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/admission-chat/internal/domain"
)

// Adapter binds one key of a KVStore to a JSON-encoded value of type T
type Adapter[T any] struct {
	kv       domain.KVStore
	key      string
	fallback func() T
}

// New creates an adapter. fallback builds the value used when nothing usable is stored;
// it is a constructor so each caller gets a fresh value.
func New[T any](kv domain.KVStore, key string, fallback func() T) *Adapter[T] {
	return &Adapter[T]{kv: kv, key: key, fallback: fallback}
}

// Key returns the storage key
func (a *Adapter[T]) Key() string {
	return a.key
}

// Load returns the stored value, or the fallback when the key is missing, unreadable or corrupt
func (a *Adapter[T]) Load(ctx context.Context) T {
	v, _ := a.LoadOK(ctx)
	return v
}

// LoadOK is Load that also reports whether the value came from storage.
// ok is false whenever the fallback was returned.
func (a *Adapter[T]) LoadOK(ctx context.Context) (T, bool) {
	data, err := a.kv.Get(ctx, a.key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Str("key", a.key).Msg("Error loading from storage")
		}
		return a.fallback(), false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		log.Error().Err(err).Str("key", a.key).Msg("Error decoding stored value")
		return a.fallback(), false
	}
	return v, true
}

// Save writes v. It reports whether the write succeeded; failures are already logged.
func (a *Adapter[T]) Save(ctx context.Context, v T) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("key", a.key).Msg("Error encoding value for storage")
		return false
	}

	if err := a.kv.Set(ctx, a.key, data); err != nil {
		log.Error().Err(err).Str("key", a.key).Msg("Error saving to storage")
		return false
	}
	return true
}

// Watch reloads the value after every external change and hands it to onChange.
// Changes that leave the key missing or undecodable are skipped, so a half
// written file never replaces the caller's value with the fallback.
// It blocks until ctx is done and returns immediately if the backend cannot watch.
func (a *Adapter[T]) Watch(ctx context.Context, onChange func(T)) error {
	w, ok := a.kv.(domain.Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, a.key, func() {
		v, ok := a.LoadOK(ctx)
		if !ok {
			log.Warn().Str("key", a.key).Msg("Ignoring external change that could not be loaded")
			return
		}
		onChange(v)
	})
}
