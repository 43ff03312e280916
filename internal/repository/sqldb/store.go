package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/Rrens/admission-chat/internal/domain"
)

// Dialect identifies the SQL flavour behind a Store
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

// Store implements domain.KVStore on a single kv_store table
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (or creates) a SQLite database file
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database file path is required")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	return newStore(ctx, db, DialectSQLite)
}

// OpenMySQL connects using a go-sql-driver DSN (user:pass@tcp(host:3306)/db)
func OpenMySQL(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("mysql dsn is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newStore(ctx, db, DialectMySQL)
}

func newStore(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	var query string
	switch s.dialect {
	case DialectMySQL:
		query = `
			CREATE TABLE IF NOT EXISTS kv_store (
				k VARCHAR(255) NOT NULL PRIMARY KEY,
				v LONGBLOB NOT NULL,
				updated_at DATETIME(3) NOT NULL
			)`
	default:
		query = `
			CREATE TABLE IF NOT EXISTS kv_store (
				k TEXT NOT NULL PRIMARY KEY,
				v BLOB NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`
	}

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv_store WHERE k = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	var query string
	switch s.dialect {
	case DialectMySQL:
		query = `
			INSERT INTO kv_store (k, v, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = VALUES(updated_at)`
	default:
		query = `
			INSERT INTO kv_store (k, v, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = excluded.updated_at`
	}

	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Close closes the connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Dialect returns the SQL flavour of the store
func (s *Store) Dialect() Dialect {
	return s.dialect
}
