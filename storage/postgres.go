package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

var _ Storage = (*PostgresStorage)(nil)

// PostgresStorage keeps keys in a single session_kv table. Callers open the
// *sql.DB with the "postgres" driver (github.com/lib/pq).
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(ctx context.Context, db *sql.DB) (*PostgresStorage, error) {
	if db == nil {
		return nil, errors.New("[NewPostgresStorage] database is required")
	}
	s := &PostgresStorage{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStorage) ensureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS session_kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return errors.Wrap(err, "[PostgresStorage.ensureSchema] ensure session_kv schema")
	}
	return nil
}

func (s *PostgresStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	const q = `SELECT value FROM session_kv WHERE key = $1`
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "[PostgresStorage.Get] query session_kv")
	}
	return v, true, nil
}

func (s *PostgresStorage) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO session_kv (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value,
	updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return errors.Wrap(err, "[PostgresStorage.Set] upsert session_kv")
	}
	return nil
}

func (s *PostgresStorage) Clear(ctx context.Context, key string) error {
	const q = `DELETE FROM session_kv WHERE key = $1`
	if _, err := s.db.ExecContext(ctx, q, key); err != nil {
		return errors.Wrap(err, "[PostgresStorage.Clear] delete session_kv")
	}
	return nil
}
