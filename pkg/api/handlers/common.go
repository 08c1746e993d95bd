package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apimw "github.com/jordanlanch/fieldsales/pkg/api/middleware"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

// requestTimeout bounds the store and cache work of one request
const requestTimeout = 10 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_request",
		Message: "Invalid request body",
	})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "Authentication required",
	})
}

// bindValid binds the body into req and runs struct validation
func bindValid(c echo.Context, v *validator.Validate, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, invalidBody(c)
	}
	if err := v.Struct(req); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}

// idParam parses a positive integer path parameter
func idParam(c echo.Context, name string) (int, bool, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		return 0, false, c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid " + name,
		})
	}
	return id, true, nil
}

func callerOf(c echo.Context) (models.Caller, bool) {
	return apimw.CallerFrom(c)
}
