package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisLimiter(t *testing.T) (*RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisRateLimiter(client, testConfig()), mr
}

func TestRedisLimiterAllowsWithinBurst(t *testing.T) {
	limiter, _ := setupRedisLimiter(t)

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow("client-1", "sos_send")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i)
	}
}

func TestRedisLimiterBlocksAfterBurst(t *testing.T) {
	limiter, _ := setupRedisLimiter(t)

	limiter.Allow("client-1", "sos_send")
	limiter.Allow("client-1", "sos_send")

	allowed, retryAfter, err := limiter.Allow("client-1", "sos_send")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestRedisLimiterStats(t *testing.T) {
	limiter, _ := setupRedisLimiter(t)

	limiter.Allow("client-1", "sos_send")
	limiter.Allow("client-1", "sos_send")

	allowed, _, err := limiter.Allow("client-1", "sos_send")
	require.NoError(t, err)
	require.False(t, allowed)

	stats := limiter.GetStats()
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.BlockedRequests)
}

func TestRedisLimiterKeysExpire(t *testing.T) {
	limiter, mr := setupRedisLimiter(t)

	allowed, _, err := limiter.Allow("client-1", "sos_send")
	require.NoError(t, err)
	require.True(t, allowed)

	key := "ratelimit:client-1:sos_send"
	require.True(t, mr.Exists(key))

	mr.FastForward(3 * time.Minute)
	assert.False(t, mr.Exists(key))
}

func TestRedisLimiterErrorWhenRedisDown(t *testing.T) {
	limiter, mr := setupRedisLimiter(t)
	mr.Close()

	_, _, err := limiter.Allow("client-1", "sos_send")
	assert.Error(t, err)
}
