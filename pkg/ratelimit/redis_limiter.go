package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter implements RateLimiter using Redis, so limits hold across
// console replicas.
type RedisRateLimiter struct {
	client *redis.Client
	config *Config
	stats  RateLimiterStats
}

// tokenBucketScript refills and consumes atomically. KEYS[1] holds the
// bucket hash, ARGV: burst size, refill per minute, now (unix ms), ttl (s).
var tokenBucketScript = redis.NewScript(`
	local bucket = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill')
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local tokens = tonumber(bucket[1])
	local last_refill = tonumber(bucket[2])
	if tokens == nil then
		tokens = capacity
		last_refill = now
	end

	local elapsed_minutes = (now - last_refill) / 60000
	local refill = math.floor(rate * elapsed_minutes)
	if refill > 0 then
		tokens = math.min(capacity, tokens + refill)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', KEYS[1], 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', KEYS[1], tonumber(ARGV[4]))
	return allowed
`)

// NewRedisRateLimiter creates a new Redis-backed rate limiter
func NewRedisRateLimiter(client *redis.Client, config *Config) *RedisRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	return &RedisRateLimiter{
		client: client,
		config: config,
	}
}

// Allow checks if a request should be allowed based on rate limits
func (r *RedisRateLimiter) Allow(clientID string, endpoint string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}

	atomic.AddInt64(&r.stats.TotalRequests, 1)

	limit := r.config.limitFor(endpoint)
	key := fmt.Sprintf("%s%s:%s", r.config.RedisKeyPrefix, clientID, endpoint)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ttl := int(limit.WindowSize.Seconds()) * 2
	result, err := tokenBucketScript.Run(ctx, r.client, []string{key},
		limit.BurstSize, limit.RequestsPerMinute, time.Now().UnixMilli(), ttl).Int()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}

	if result != 1 {
		atomic.AddInt64(&r.stats.BlockedRequests, 1)
		retryAfter := time.Minute / time.Duration(max(1, limit.RequestsPerMinute))
		return false, retryAfter, nil
	}

	return true, 0, nil
}

// GetLimit returns the configured limit for an endpoint category
func (r *RedisRateLimiter) GetLimit(endpoint string) RateLimit {
	return r.config.limitFor(endpoint)
}

// GetStats returns rate limiting statistics
func (r *RedisRateLimiter) GetStats() RateLimiterStats {
	return RateLimiterStats{
		TotalRequests:   atomic.LoadInt64(&r.stats.TotalRequests),
		BlockedRequests: atomic.LoadInt64(&r.stats.BlockedRequests),
	}
}
