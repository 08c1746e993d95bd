package handlers

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/fieldsales/pkg/api/errors"
	"github.com/jordanlanch/fieldsales/pkg/auth"
	"github.com/jordanlanch/fieldsales/pkg/domain"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

// AccountStore looks accounts up for login. *salesrep.Service satisfies it.
type AccountStore interface {
	Get(ctx context.Context, id int) (*models.SalesRep, error)
	GetByUsername(ctx context.Context, username string) (*models.SalesRep, error)
}

// LoginRecorder counts login attempts. *metrics.Metrics satisfies it.
type LoginRecorder interface {
	RecordLoginAttempt(success bool)
}

// AuthConfig carries token settings
type AuthConfig struct {
	JWTSecret          string
	JWTExpirationHours int
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	accounts  AccountStore
	blacklist *auth.TokenBlacklist
	cfg       AuthConfig
	recorder  LoginRecorder
	validator *validator.Validate
}

// NewAuthHandler creates a new auth handler. blacklist and rec may be nil.
func NewAuthHandler(accounts AccountStore, blacklist *auth.TokenBlacklist, cfg AuthConfig, rec LoginRecorder) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		blacklist: blacklist,
		cfg:       cfg,
		recorder:  rec,
		validator: newValidator(),
	}
}

func (h *AuthHandler) record(ok bool) {
	if h.recorder != nil {
		h.recorder.RecordLoginAttempt(ok)
	}
}

// Login godoc
// @Summary Log in
// @Description Exchange a username and password for an access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if ok, err := bindValid(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.accounts.GetByUsername(ctx, req.Username)
	if err != nil && !domain.IsNotFound(err) {
		return errors.InternalError(c, err)
	}
	// unknown user and wrong password answer the same way
	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		h.record(false)
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid username or password",
		})
	}

	token, err := auth.GenerateJWT(u.ID, u.Username, u.Role, h.cfg.JWTSecret, h.cfg.JWTExpirationHours)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "token_generation_error",
		})
	}
	h.record(true)

	return c.JSON(http.StatusOK, models.AuthResponse{
		Token: token,
		User:  u.Info(),
	})
}

// Me godoc
// @Summary Current account
// @Tags Authentication
// @Produce json
// @Success 200 {object} models.UserInfo
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.accounts.Get(ctx, caller.ID)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, u.Info())
}

// Logout godoc
// @Summary Log out
// @Description Revoke the current access token until it expires
// @Tags Authentication
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := c.Get("token").(string)
	if !ok || token == "" {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "missing_token",
			Message: "No token found in request",
		})
	}

	if h.blacklist != nil {
		claims, err := auth.ValidateJWT(token, h.cfg.JWTSecret)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "invalid_token",
				Message: err.Error(),
			})
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := h.blacklist.Add(ctx, token, claims.Remaining()); err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "logout_error",
				Message: "Failed to revoke token",
			})
		}
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Successfully logged out",
	})
}
