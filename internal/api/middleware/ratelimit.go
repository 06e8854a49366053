package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fleet-console/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware enforces per-client, per-category rate limits. The
// limiter failing open is deliberate: a Redis outage should degrade to
// unlimited, not take the console down.
func RateLimitMiddleware(limiter ratelimit.RateLimiter, cfg *ratelimit.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		clientID := getClientID(c)
		category := cfg.EndpointCategory(c.Request.Method, c.Request.URL.Path)

		allowed, resetTime, err := limiter.Allow(clientID, category)
		if err != nil {
			c.Header("X-RateLimit-Error", "Rate limiter unavailable")
			c.Next()
			return
		}

		limit := limiter.GetLimit(category)
		setRateLimitHeaders(c, limit, allowed, resetTime)

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"message":    fmt.Sprintf("Too many requests. Try again in %v", resetTime),
				"code":       "RATE_LIMIT_EXCEEDED",
				"retryAfter": int(resetTime.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// getClientID identifies the caller: authenticated operator first, then
// proxied or direct client IP.
func getClientID(c *gin.Context) string {
	if operatorID, exists := c.Get("operator_id"); exists {
		if id, ok := operatorID.(string); ok && id != "" {
			return fmt.Sprintf("operator:%s", id)
		}
	}

	return fmt.Sprintf("anon:%s", getClientIP(c))
}

func getClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}

	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		return realIP
	}

	return c.ClientIP()
}

func setRateLimitHeaders(c *gin.Context, limit ratelimit.RateLimit, allowed bool, resetTime time.Duration) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit.RequestsPerMinute))
	c.Header("X-RateLimit-Window", strconv.Itoa(int(limit.WindowSize.Seconds())))
	c.Header("X-RateLimit-Burst", strconv.Itoa(limit.BurstSize))

	if !allowed {
		c.Header("Retry-After", strconv.Itoa(int(resetTime.Seconds())))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(resetTime).Unix(), 10))
	}
}
