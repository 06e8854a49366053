package ratelimit

import (
	"strings"
	"time"
)

// Config holds the configuration for rate limiting
type Config struct {
	// Rate limits per endpoint category
	Limits map[string]RateLimit `json:"limits"`

	// Redis key prefix for rate limiting data
	RedisKeyPrefix string `json:"redisKeyPrefix"`

	// Enable/disable rate limiting
	Enabled bool `json:"enabled"`
}

// DefaultConfig returns the console's default rate limiting configuration.
// Test-alert submission is the one endpoint that talks mutatingly to the
// upstream SOS service, so it gets the tightest budget.
func DefaultConfig() *Config {
	return &Config{
		Limits: map[string]RateLimit{
			"auth_login": {RequestsPerMinute: 5, BurstSize: 2, WindowSize: time.Minute},

			"sos_send":        {RequestsPerMinute: 6, BurstSize: 2, WindowSize: time.Minute},
			"sos_acknowledge": {RequestsPerMinute: 30, BurstSize: 10, WindowSize: time.Minute},
			"sos_read":        {RequestsPerMinute: 200, BurstSize: 50, WindowSize: time.Minute},

			"health": {RequestsPerMinute: 1000, BurstSize: 100, WindowSize: time.Minute},

			"default": {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},
		},
		RedisKeyPrefix: "ratelimit:",
		Enabled:        true,
	}
}

// EndpointCategory maps a method and path to a rate limit category.
func (c *Config) EndpointCategory(method, path string) string {
	key := method + ":" + path

	switch {
	case key == "POST:/api/v1/auth/login":
		return "auth_login"
	case key == "POST:/api/v1/sos/alert":
		return "sos_send"
	case method == "PUT" && strings.HasPrefix(path, "/api/v1/sos/alerts/") && strings.HasSuffix(path, "/acknowledge"):
		return "sos_acknowledge"
	case method == "GET" && strings.HasPrefix(path, "/api/v1/sos/"):
		return "sos_read"
	case path == "/api/v1/health":
		return "health"
	}

	return "default"
}

// limitFor resolves the configured limit for a category, falling back to the
// default entry.
func (c *Config) limitFor(category string) RateLimit {
	if limit, ok := c.Limits[category]; ok {
		return limit
	}
	if limit, ok := c.Limits["default"]; ok {
		return limit
	}
	return RateLimit{RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute}
}
