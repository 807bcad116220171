package config

import (
	"fmt"
	"strings"
	"time"
)

// ServerConfig configures the local stub of the HR auth API.
type ServerConfig interface {
	GetPort() string
	GetAPIPrefix() string
	GetSeedPassword() string
	GetTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type Server struct{}

var _ ServerConfig = Server{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

func (Server) GetPort() string {
	port := GetEnv("PORT", "8000")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

// GetAPIPrefix is the path the auth routes are mounted under, e.g. "/api/v1".
func (Server) GetAPIPrefix() string {
	prefix := strings.TrimRight(GetEnv("API_PREFIX", "/api/v1"), "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

// GetSeedPassword is the password given to the demo accounts.
func (Server) GetSeedPassword() string {
	return GetEnv("SEED_PASSWORD", "Passw0rd!")
}

func (Server) GetTokenSecret() string {
	return GetEnv("TOKEN_SECRET", "dev-only-secret")
}

func (Server) GetAccessTokenExpiry() time.Duration {
	return 1 * time.Hour
}

func (Server) GetAllowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{}
	for _, o := range strings.Split(GetEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = nullValue{}
		}
	}
	return origins
}

func (Server) GetAllowedMethods() string {
	return "GET, POST, PUT, PATCH, DELETE"
}

func (Server) GetAllowedHeaders() string {
	return "Content-Type, Authorization, X-Request-ID"
}
