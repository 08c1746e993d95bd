package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/fieldsales/pkg/models"
)

// AccountFinder loads an account by id. *salesrep.Service satisfies it.
type AccountFinder interface {
	Get(ctx context.Context, id int) (*models.SalesRep, error)
}

// RequireAdmin ensures the authenticated account is an administrator.
// The role is read from the store, not the token, so a demotion takes
// effect before the token expires. Apply it AFTER the JWT middleware.
func RequireAdmin(accounts AccountFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get("user_id").(int)
			if !ok {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "unauthorized",
					Message: "Authentication required",
				})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
			defer cancel()

			u, err := accounts.Get(ctx, userID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "user_not_found",
					Message: "User not found",
				})
			}

			if u.Role != models.RoleAdmin {
				return c.JSON(http.StatusForbidden, map[string]interface{}{
					"error":   "insufficient_permissions",
					"message": "Admin access required",
					"details": map[string]interface{}{
						"required_role": models.RoleAdmin,
						"current_role":  u.Role,
					},
				})
			}

			c.Set("user_role", u.Role)

			return next(c)
		}
	}
}
