package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityHeadersConfig holds configuration for the security headers middleware.
// Empty policy strings fall back to the defaults.
type SecurityHeadersConfig struct {
	ContentSecurityPolicy string
	ReferrerPolicy        string
	PermissionsPolicy     string

	// StrictTransportSecurity is sent only when set. Leave it empty outside
	// TLS deployments.
	StrictTransportSecurity string

	// NoStorePrefixes lists path prefixes whose responses carry per-caller
	// data and must not be kept by shared caches.
	NoStorePrefixes []string
}

// DefaultSecurityHeadersConfig returns the default security headers configuration.
func DefaultSecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; connect-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
		ReferrerPolicy:    "no-referrer",
		PermissionsPolicy: "camera=(), microphone=(), geolocation=(), payment=()",
		NoStorePrefixes:   []string{"/api/v1/"},
	}
}

// ProductionSecurityHeadersConfig adds HSTS to the defaults
func ProductionSecurityHeadersConfig() SecurityHeadersConfig {
	cfg := DefaultSecurityHeadersConfig()
	cfg.StrictTransportSecurity = "max-age=31536000; includeSubDomains"
	return cfg
}

// SecurityHeaders sets the policy headers on every response. The script
// allowance covers the bundled API docs page. Responses under a no-store
// prefix also get Cache-Control: no-store, since outlet lists differ per
// representative behind the same URL.
func SecurityHeaders(config SecurityHeadersConfig) echo.MiddlewareFunc {
	defaults := DefaultSecurityHeadersConfig()

	if config.ContentSecurityPolicy == "" {
		config.ContentSecurityPolicy = defaults.ContentSecurityPolicy
	}
	if config.ReferrerPolicy == "" {
		config.ReferrerPolicy = defaults.ReferrerPolicy
	}
	if config.PermissionsPolicy == "" {
		config.PermissionsPolicy = defaults.PermissionsPolicy
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Content-Security-Policy", config.ContentSecurityPolicy)
			h.Set("Referrer-Policy", config.ReferrerPolicy)
			h.Set("Permissions-Policy", config.PermissionsPolicy)
			h.Set("X-Content-Type-Options", "nosniff")
			if config.StrictTransportSecurity != "" {
				h.Set("Strict-Transport-Security", config.StrictTransportSecurity)
			}
			if noStore(c.Request().URL.Path, config.NoStorePrefixes) {
				h.Set("Cache-Control", "no-store")
				h.Add("Vary", "Authorization")
			}
			return next(c)
		}
	}
}

func noStore(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
