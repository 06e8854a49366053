package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fleet-console/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupRateLimitedRouter(cfg *ratelimit.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	limiter := ratelimit.NewMemoryRateLimiter(cfg)

	router := gin.New()
	router.Use(RateLimitMiddleware(limiter, cfg))
	router.POST("/api/v1/sos/alert", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/api/v1/sos/alerts/active", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	cfg := ratelimit.DefaultConfig()
	router := setupRateLimitedRouter(cfg)

	burst := cfg.Limits["sos_send"].BurstSize
	for i := 0; i < burst; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sos/alert", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sos/alert", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestRateLimitCategoriesAreIndependent(t *testing.T) {
	cfg := ratelimit.DefaultConfig()
	router := setupRateLimitedRouter(cfg)

	// Exhaust the tight sos_send budget.
	burst := cfg.Limits["sos_send"].BurstSize
	for i := 0; i <= burst; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sos/alert", nil)
		router.ServeHTTP(w, req)
	}

	// Reads stay available.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sos/alerts/active", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	cfg := ratelimit.DefaultConfig()
	cfg.Enabled = false
	cfg.Limits["sos_send"] = ratelimit.RateLimit{RequestsPerMinute: 1, BurstSize: 1, WindowSize: time.Minute}
	router := setupRateLimitedRouter(cfg)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sos/alert", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitHeadersPresent(t *testing.T) {
	cfg := ratelimit.DefaultConfig()
	router := setupRateLimitedRouter(cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sos/alerts/active", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Burst"))
}
