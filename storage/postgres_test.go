package storage_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jrsteele09/go-hr-session/storage"
	"github.com/stretchr/testify/require"
)

func newMockPostgresStorage(t *testing.T) (*storage.PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS session_kv").WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := storage.NewPostgresStorage(context.Background(), db)
	require.NoError(t, err)
	return s, mock
}

func TestNewPostgresStorageRequiresDB(t *testing.T) {
	_, err := storage.NewPostgresStorage(context.Background(), nil)
	require.Error(t, err)
}

func TestPostgresStorageGetMissing(t *testing.T) {
	s, mock := newMockPostgresStorage(t)

	mock.ExpectQuery("SELECT value FROM session_kv WHERE key = \\$1").
		WithArgs("access_token").
		WillReturnError(sql.ErrNoRows)

	_, ok, err := s.Get(context.Background(), "access_token")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorageGetFound(t *testing.T) {
	s, mock := newMockPostgresStorage(t)

	mock.ExpectQuery("SELECT value FROM session_kv WHERE key = \\$1").
		WithArgs("access_token").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("abc"))

	v, ok, err := s.Get(context.Background(), "access_token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorageSetAndClear(t *testing.T) {
	s, mock := newMockPostgresStorage(t)

	mock.ExpectExec("INSERT INTO session_kv").
		WithArgs("refresh_token", "def").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM session_kv WHERE key = \\$1").
		WithArgs("refresh_token").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Set(context.Background(), "refresh_token", "def"))
	require.NoError(t, s.Clear(context.Background(), "refresh_token"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorageQueryError(t *testing.T) {
	s, mock := newMockPostgresStorage(t)

	mock.ExpectQuery("SELECT value FROM session_kv").WillReturnError(errors.New("connection reset"))

	_, _, err := s.Get(context.Background(), "access_token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection reset")
}
