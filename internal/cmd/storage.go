package cmd

import (
	"context"
	"database/sql"

	"github.com/jrsteele09/go-hr-session/internal/config"
	internalerrors "github.com/jrsteele09/go-hr-session/internal/errors"
	"github.com/jrsteele09/go-hr-session/storage"
	"github.com/jrsteele09/go-hr-session/storage/storagefake"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// openStorageFunc opens the storage backend for a command. It can be overridden in tests.
var openStorageFunc = openStorage

// openStorage builds the backend named by STORAGE_BACKEND. The returned
// close func releases any connection it holds.
func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, func() error, error) {
	noop := func() error { return nil }

	switch backend := cfg.GetStorageBackend(); backend {
	case config.StorageBackendMemory:
		return storagefake.NewFakeStorage(), noop, nil

	case config.StorageBackendFile:
		s, err := storage.NewFileStorage(cfg.GetStorageFile())
		if err != nil {
			return nil, nil, errors.Wrap(err, "[openStorage] file backend")
		}
		return s, noop, nil

	case config.StorageBackendRedis:
		s, err := storage.NewRedisStorage(cfg.GetRedisURL(), cfg.GetRedisKeyPrefix())
		if err != nil {
			return nil, nil, errors.Wrap(err, "[openStorage] redis backend")
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, errors.Wrap(internalerrors.ErrStorageUnavailable, err.Error())
		}
		return s, s.Close, nil

	case config.StorageBackendPostgres:
		if cfg.GetDatabaseURL() == "" {
			return nil, nil, errors.New("[openStorage] DATABASE_URL is required for the postgres backend")
		}
		db, err := sql.Open("postgres", cfg.GetDatabaseURL())
		if err != nil {
			return nil, nil, errors.Wrap(err, "[openStorage] postgres backend")
		}
		s, err := storage.NewPostgresStorage(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, errors.Wrap(internalerrors.ErrStorageUnavailable, err.Error())
		}
		return s, db.Close, nil

	default:
		return nil, nil, errors.Wrapf(internalerrors.ErrUnknownBackend, "%q", backend)
	}
}
