package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a KVStore when the key has never been written
var ErrNotFound = errors.New("key not found")

// KVStore is the durable key-value storage behind the chat history
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Watcher is implemented by stores that can notice writes made outside this process.
// Watch blocks until ctx is done, calling onChange after each external write to key.
type Watcher interface {
	Watch(ctx context.Context, key string, onChange func()) error
}
