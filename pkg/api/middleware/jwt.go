package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/fieldsales/pkg/auth"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

// Context keys set by the JWT middleware
const (
	ContextToken    = "token"
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "user_role"
)

// JWTMiddleware creates a JWT authentication middleware
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return JWTMiddlewareWithBlacklist(secret, nil)
}

// JWTMiddlewareWithBlacklist creates a JWT authentication middleware that
// also rejects tokens revoked by logout
func JWTMiddlewareWithBlacklist(secret string, blacklist *auth.TokenBlacklist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "missing_token",
					Message: "Authorization header is required",
				})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token_format",
					Message: "Authorization header must be 'Bearer {token}'",
				})
			}
			token := parts[1]

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			claims, err := auth.ValidateJWTWithBlacklist(ctx, token, secret, blacklist)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token",
					Message: err.Error(),
				})
			}

			// kept for logout
			c.Set(ContextToken, token)

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextUsername, claims.Username)
			c.Set(ContextRole, claims.Role)

			return next(c)
		}
	}
}

// CallerFrom returns the identity the JWT middleware stored on c
func CallerFrom(c echo.Context) (models.Caller, bool) {
	id, ok := c.Get(ContextUserID).(int)
	if !ok {
		return models.Caller{}, false
	}
	role, _ := c.Get(ContextRole).(string)
	return models.Caller{ID: id, Role: role}, true
}
