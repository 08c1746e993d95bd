// Package errors renders failures as JSON error responses without exposing
// internal details.
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/fieldsales/pkg/domain"
	"github.com/jordanlanch/fieldsales/pkg/logger"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

var log = logger.New("info")

// SetLogger replaces the logger used for internal failures
func SetLogger(l logger.Logger) {
	log = l
}

// ValidationError returns a validation error. Domain validation messages
// are written for clients and are passed through; anything else (binding,
// validator output) gets a generic message.
func ValidationError(c echo.Context, err error) error {
	log.Warn("validation error", "path", c.Request().URL.Path, "error", err)

	msg := "Invalid request data. Please check your input and try again."
	var de *domain.DomainError
	if stderrors.As(err, &de) && de.Code == domain.ErrCodeValidation {
		msg = de.Message
	}
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: msg,
	})
}

// BadRequestError returns a 400 with a client-safe message
func BadRequestError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// InternalError returns a generic internal server error
func InternalError(c echo.Context, err error) error {
	log.Error("internal error", "path", c.Request().URL.Path, "error", err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

// UnauthorizedError returns a generic unauthorized error
func UnauthorizedError(c echo.Context, reason string) error {
	if reason == "" {
		reason = "You are not authorized to access this resource."
	}
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: reason,
	})
}

// ForbiddenError returns a forbidden error
func ForbiddenError(c echo.Context, reason string) error {
	if reason == "" {
		reason = "You do not have permission to access this resource."
	}
	return c.JSON(http.StatusForbidden, models.ErrorResponse{
		Error:   "forbidden",
		Message: reason,
	})
}

// NotFoundError returns a not found error
func NotFoundError(c echo.Context, resource string) error {
	msg := "The requested resource was not found."
	if resource != "" {
		msg = resource + " not found"
	}
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: msg,
	})
}

// ConflictError returns a conflict error
func ConflictError(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, models.ErrorResponse{
		Error:   "conflict",
		Message: message,
	})
}

// FromDomain maps err to a response by its domain code. Errors without
// a code are treated as internal.
func FromDomain(c echo.Context, err error) error {
	var de *domain.DomainError
	if !stderrors.As(err, &de) {
		return InternalError(c, err)
	}

	switch de.Code {
	case domain.ErrCodeNotFound:
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: de.Message})
	case domain.ErrCodeForbidden:
		return ForbiddenError(c, de.Message)
	case domain.ErrCodeConflict:
		return ConflictError(c, de.Message)
	case domain.ErrCodeValidation:
		return ValidationError(c, err)
	case domain.ErrCodeBadRequest:
		return BadRequestError(c, de.Message)
	case domain.ErrCodeUnauthorized:
		return UnauthorizedError(c, de.Message)
	default:
		return InternalError(c, err)
	}
}
