package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4/middleware"
)

// DefaultAllowedOrigins is used when no origins are configured
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// CORSConfig returns the CORS configuration for the given origins.
// An empty list falls back to DefaultAllowedOrigins.
func CORSConfig(origins []string) middleware.CORSConfig {
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}
	return middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowCredentials: true,
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
		},
	}
}
