package config

import (
	"strings"
	"time"
)

const (
	apiBaseURLVar     = "API_BASE_URL"
	requestTimeoutVar = "REQUEST_TIMEOUT"
)

type Client struct{}

var _ ClientConfig = Client{}

// GetAPIBaseURL returns the HR API root without a trailing slash (e.g., "http://localhost:8000/api/v1")
func (Client) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiBaseURLVar, "http://localhost:8000/api/v1"), "/")
}

func (Client) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv(requestTimeoutVar, "30s"))
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
