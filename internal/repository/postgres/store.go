package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Rrens/admission-chat/internal/domain"
)

// Store implements domain.KVStore on the kv_store table
type Store struct {
	db *DB
}

// NewStore creates a new key-value store over an open pool
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT v FROM kv_store WHERE k = $1`

	var value []byte
	err := s.db.Pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_store (k, v, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.Pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying pool
func (s *Store) Close() error {
	s.db.Close()
	return nil
}
