package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is anything that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports dependency status
type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func status(ctx context.Context, p Pinger) string {
	if p == nil || p.Ping(ctx) != nil {
		return "unhealthy"
	}
	return "healthy"
}

// Check godoc
// @Summary Health check
// @Description The cache is optional: a cache outage reports degraded, not unhealthy
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	dbStatus := status(ctx, h.db)
	redisStatus := status(ctx, h.redis)

	overall, code := "healthy", http.StatusOK
	switch {
	case dbStatus != "healthy":
		overall, code = "unhealthy", http.StatusServiceUnavailable
	case redisStatus != "healthy":
		overall = "degraded"
	}

	return c.JSON(code, map[string]string{
		"status":   overall,
		"database": dbStatus,
		"redis":    redisStatus,
	})
}
