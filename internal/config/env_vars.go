package config

import (
	"os"
	"strings"
)

const (
	appNameVar   = "APP_NAME"
	folderEnvVar = "DATA_FOLDER"
	logLevelVar  = "LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "HR Console")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetLogLevel returns a zerolog level name ("debug", "info", ...). DEV defaults to debug.
func (e EnvVars) GetLogLevel() string {
	if level := os.Getenv(logLevelVar); level != "" {
		return strings.ToLower(level)
	}
	if e.GetEnv() == "DEV" {
		return "debug"
	}
	return "info"
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
