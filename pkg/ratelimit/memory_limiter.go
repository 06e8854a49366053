package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryRateLimiter implements RateLimiter using in-memory token buckets.
// Used when Redis is unavailable; buckets are per-process.
type MemoryRateLimiter struct {
	config *Config
	stats  RateLimiterStats
	tokens map[string]*TokenBucket
	mu     sync.Mutex
}

// NewMemoryRateLimiter creates a new in-memory rate limiter
func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	return &MemoryRateLimiter{
		config: config,
		tokens: make(map[string]*TokenBucket),
	}
}

// Allow checks if a request should be allowed based on rate limits
func (r *MemoryRateLimiter) Allow(clientID string, endpoint string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}

	atomic.AddInt64(&r.stats.TotalRequests, 1)

	limit := r.config.limitFor(endpoint)
	key := fmt.Sprintf("%s:%s", clientID, endpoint)

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.tokens[key]
	if !ok {
		bucket = &TokenBucket{
			Capacity:   limit.BurstSize,
			Tokens:     limit.BurstSize,
			LastRefill: time.Now(),
		}
		r.tokens[key] = bucket
	}

	now := time.Now()
	elapsed := now.Sub(bucket.LastRefill)
	tokensToAdd := int(float64(limit.RequestsPerMinute) * elapsed.Minutes())
	if tokensToAdd > 0 {
		bucket.Tokens = min(bucket.Capacity, bucket.Tokens+tokensToAdd)
		bucket.LastRefill = now
	}

	if bucket.Tokens > 0 {
		bucket.Tokens--
		return true, 0, nil
	}

	atomic.AddInt64(&r.stats.BlockedRequests, 1)
	retryAfter := time.Minute / time.Duration(max(1, limit.RequestsPerMinute))
	return false, retryAfter, nil
}

// GetLimit returns the configured limit for an endpoint category
func (r *MemoryRateLimiter) GetLimit(endpoint string) RateLimit {
	return r.config.limitFor(endpoint)
}

// GetStats returns rate limiting statistics
func (r *MemoryRateLimiter) GetStats() RateLimiterStats {
	return RateLimiterStats{
		TotalRequests:   atomic.LoadInt64(&r.stats.TotalRequests),
		BlockedRequests: atomic.LoadInt64(&r.stats.BlockedRequests),
	}
}
