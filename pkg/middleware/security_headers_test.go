package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func serveWithHeaders(t *testing.T, cfg SecurityHeadersConfig, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	return serveAt(t, "/api/v1/outlets", cfg, next)
}

func serveAt(t *testing.T, path string, cfg SecurityHeadersConfig, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), rec)
	return rec, SecurityHeaders(cfg)(next)(c)
}

func ok(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func TestSecurityHeaders(t *testing.T) {
	defaults := DefaultSecurityHeadersConfig()

	tests := []struct {
		name     string
		cfg      SecurityHeadersConfig
		wantCSP  string
		wantRef  string
		wantPerm string
	}{
		{
			name:     "defaults",
			wantCSP:  defaults.ContentSecurityPolicy,
			wantRef:  "no-referrer",
			wantPerm: defaults.PermissionsPolicy,
		},
		{
			name:     "custom csp keeps other defaults",
			cfg:      SecurityHeadersConfig{ContentSecurityPolicy: "default-src 'none'"},
			wantCSP:  "default-src 'none'",
			wantRef:  defaults.ReferrerPolicy,
			wantPerm: defaults.PermissionsPolicy,
		},
		{
			name: "all custom",
			cfg: SecurityHeadersConfig{
				ContentSecurityPolicy: "default-src 'self'",
				ReferrerPolicy:        "same-origin",
				PermissionsPolicy:     "camera=(self)",
			},
			wantCSP:  "default-src 'self'",
			wantRef:  "same-origin",
			wantPerm: "camera=(self)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := serveWithHeaders(t, tt.cfg, ok)
			assert.NoError(t, err)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantCSP, rec.Header().Get("Content-Security-Policy"))
			assert.Equal(t, tt.wantRef, rec.Header().Get("Referrer-Policy"))
			assert.Equal(t, tt.wantPerm, rec.Header().Get("Permissions-Policy"))
		})
	}
}

func TestSecurityHeaders_SetOnHandlerError(t *testing.T) {
	rec, err := serveWithHeaders(t, SecurityHeadersConfig{}, func(echo.Context) error {
		return echo.ErrInternalServerError
	})

	assert.Error(t, err)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
}

func TestSecurityHeaders_NoStoreOnCallerScopedRoutes(t *testing.T) {
	tests := []struct {
		path        string
		wantNoStore bool
	}{
		{"/api/v1/outlets", true},
		{"/api/v1/outlets/R-1", true},
		{"/api/v1/auth/me", true},
		{"/health", false},
		{"/docs/index.html", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, err := serveAt(t, tt.path, DefaultSecurityHeadersConfig(), ok)
			assert.NoError(t, err)
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			if tt.wantNoStore {
				assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
				assert.Contains(t, rec.Header().Values("Vary"), "Authorization")
			} else {
				assert.Empty(t, rec.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestSecurityHeaders_HSTSOnlyWhenConfigured(t *testing.T) {
	rec, err := serveWithHeaders(t, DefaultSecurityHeadersConfig(), ok)
	assert.NoError(t, err)
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	rec, err = serveWithHeaders(t, ProductionSecurityHeadersConfig(), ok)
	assert.NoError(t, err)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}
