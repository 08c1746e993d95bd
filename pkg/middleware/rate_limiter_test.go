package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	// 120 per minute is one token every 500ms
	rl := NewRateLimiter(120, 1)
	defer rl.Stop()

	limiter := rl.GetLimiter("192.168.1.1")

	assert.True(t, limiter.Allow(), "First request should be allowed")
	assert.False(t, limiter.Allow(), "Second request should be blocked")

	time.Sleep(600 * time.Millisecond)

	assert.True(t, limiter.Allow(), "Request should be allowed after refill")
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	rl := NewRateLimiter(2, 1)
	defer rl.Stop()

	limiter1 := rl.GetLimiter("192.168.1.1")
	limiter2 := rl.GetLimiter("192.168.1.2")

	assert.True(t, limiter1.Allow())
	assert.True(t, limiter2.Allow())
	assert.False(t, limiter1.Allow())
	assert.False(t, limiter2.Allow())
	assert.Same(t, limiter1, rl.GetLimiter("192.168.1.1"))
}

func TestRateLimitMiddleware(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(2, 1)
	defer rl.Stop()

	h := rl.RateLimitMiddleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})

	serve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.Header.Set("X-Real-IP", "10.0.0.7")
		rec := httptest.NewRecorder()
		assert.NoError(t, h(e.NewContext(req, rec)))
		return rec
	}

	assert.Equal(t, http.StatusOK, serve().Code)

	rec := serve()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(60, 5)
	rl.Stop()
	rl.Stop()
}
