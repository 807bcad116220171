package config

import "time"

type Config interface {
	EnvConfig
	ClientConfig
	StorageConfig
	ServerConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	GetLogLevel() string
}

// ClientConfig covers the HTTP adapter talking to the HR API.
type ClientConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
}

type StorageConfig interface {
	GetStorageBackend() string
	GetStorageFile() string
	GetRedisURL() string
	GetRedisKeyPrefix() string
	GetDatabaseURL() string
}

type mainConfig struct {
	EnvVars
	Client
	Storage
	Server
}

func New() Config {
	return mainConfig{}
}
