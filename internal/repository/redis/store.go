package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Rrens/admission-chat/internal/domain"
)

const kvPrefix = "kv:"

// Store implements domain.KVStore on plain Redis string keys without expiry
type Store struct {
	client *Client
	// owned is true when closing the store should close the client
	owned bool
}

// NewStore creates a key-value store sharing the given client
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// NewOwnedStore creates a store that closes the client on Close
func NewOwnedStore(client *Client) *Store {
	return &Store{client: client, owned: true}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.rdb.Get(ctx, kvPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.rdb.Set(ctx, kvPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}
