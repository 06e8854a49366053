package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Limits: map[string]RateLimit{
			"sos_send": {RequestsPerMinute: 6, BurstSize: 2, WindowSize: time.Minute},
			"default":  {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},
		},
		RedisKeyPrefix: "ratelimit:",
		Enabled:        true,
	}
}

func TestMemoryLimiterAllowsWithinBurst(t *testing.T) {
	limiter := NewMemoryRateLimiter(testConfig())

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow("client-1", "sos_send")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i)
	}
}

func TestMemoryLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewMemoryRateLimiter(testConfig())

	limiter.Allow("client-1", "sos_send")
	limiter.Allow("client-1", "sos_send")

	allowed, retryAfter, err := limiter.Allow("client-1", "sos_send")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestMemoryLimiterSeparatesClients(t *testing.T) {
	limiter := NewMemoryRateLimiter(testConfig())

	limiter.Allow("client-1", "sos_send")
	limiter.Allow("client-1", "sos_send")

	allowed, _, err := limiter.Allow("client-2", "sos_send")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryLimiterDisabled(t *testing.T) {
	config := testConfig()
	config.Enabled = false
	limiter := NewMemoryRateLimiter(config)

	for i := 0; i < 100; i++ {
		allowed, _, err := limiter.Allow("client-1", "sos_send")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestMemoryLimiterFallsBackToDefaultLimit(t *testing.T) {
	limiter := NewMemoryRateLimiter(testConfig())

	limit := limiter.GetLimit("unknown_category")
	assert.Equal(t, 120, limit.RequestsPerMinute)
}

func TestMemoryLimiterStats(t *testing.T) {
	limiter := NewMemoryRateLimiter(testConfig())

	limiter.Allow("client-1", "sos_send")
	limiter.Allow("client-1", "sos_send")
	limiter.Allow("client-1", "sos_send")

	stats := limiter.GetStats()
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.BlockedRequests)
}

func TestEndpointCategoryMapping(t *testing.T) {
	config := DefaultConfig()

	tests := []struct {
		method, path, want string
	}{
		{"POST", "/api/v1/sos/alert", "sos_send"},
		{"PUT", "/api/v1/sos/alerts/A1/acknowledge", "sos_acknowledge"},
		{"GET", "/api/v1/sos/alerts", "sos_read"},
		{"POST", "/api/v1/auth/login", "auth_login"},
		{"GET", "/api/v1/health", "health"},
		{"GET", "/api/v1/drivers", "default"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, config.EndpointCategory(tt.method, tt.path), "%s %s", tt.method, tt.path)
	}
}
