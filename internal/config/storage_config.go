package config

import "path/filepath"

const (
	StorageBackendMemory   = "memory"
	StorageBackendFile     = "file"
	StorageBackendRedis    = "redis"
	StorageBackendPostgres = "postgres"
)

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetStorageBackend() string {
	return GetEnv("STORAGE_BACKEND", StorageBackendFile)
}

func (Storage) GetStorageFile() string {
	return GetEnv("STORAGE_FILE", filepath.Join(EnvVars{}.GetDataFolder(), "session.json"))
}

func (Storage) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

func (Storage) GetRedisKeyPrefix() string {
	return GetEnv("REDIS_KEY_PREFIX", "hr-console:")
}

func (Storage) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}
