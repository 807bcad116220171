package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-hr-session/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	for _, v := range []string{"ENV", "LOG_LEVEL", "DATA_FOLDER", "API_BASE_URL", "REQUEST_TIMEOUT", "STORAGE_BACKEND", "STORAGE_FILE", "PORT", "API_PREFIX"} {
		t.Setenv(v, "")
	}
	cfg := config.New()

	assert.Equal(t, "DEV", cfg.GetEnv())
	assert.Equal(t, "debug", cfg.GetLogLevel())
	assert.Equal(t, "http://localhost:8000/api/v1", cfg.GetAPIBaseURL())
	assert.Equal(t, 30*time.Second, cfg.GetRequestTimeout())
	assert.Equal(t, config.StorageBackendFile, cfg.GetStorageBackend())
	assert.Equal(t, filepath.Join("./data", "session.json"), cfg.GetStorageFile())
	assert.Equal(t, ":8000", cfg.GetPort())
	assert.Equal(t, "/api/v1", cfg.GetAPIPrefix())
}

func TestOverrides(t *testing.T) {
	t.Setenv("ENV", "PROD")
	t.Setenv("API_BASE_URL", "https://hr.example.com/api/v2/")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("PORT", "9090")
	t.Setenv("API_PREFIX", "api")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	cfg := config.New()

	assert.Equal(t, "info", cfg.GetLogLevel())
	assert.Equal(t, "https://hr.example.com/api/v2", cfg.GetAPIBaseURL())
	assert.Equal(t, 5*time.Second, cfg.GetRequestTimeout())
	assert.Equal(t, ":9090", cfg.GetPort())
	assert.Equal(t, "/api", cfg.GetAPIPrefix())

	origins := cfg.GetAllowedOrigins()
	assert.Len(t, origins, 2)
	assert.True(t, origins.IsAllowedOrigin("https://b.example"))
}

func TestInvalidTimeoutFallsBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	assert.Equal(t, 30*time.Second, config.New().GetRequestTimeout())
}
