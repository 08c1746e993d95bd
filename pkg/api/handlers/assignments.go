package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/fieldsales/pkg/api/errors"
	"github.com/jordanlanch/fieldsales/pkg/assignment"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

// AssignmentHandler manages which outlets each representative holds
type AssignmentHandler struct {
	assignments *assignment.Service
	validator   *validator.Validate
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignments *assignment.Service) *AssignmentHandler {
	return &AssignmentHandler{
		assignments: assignments,
		validator:   newValidator(),
	}
}

// BulkAssign godoc
// @Summary Assign outlets to a sales rep
// @Description Adds the missing assignments. Repeating the call assigns nothing new.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param request body models.BulkAssignmentRequest true "Sales rep and outlets"
// @Success 200 {object} models.BulkAssignmentResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "Unknown sales rep or outlet"
// @Security BearerAuth
// @Router /api/v1/admin/assignments/bulk [post]
func (h *AssignmentHandler) BulkAssign(c echo.Context) error {
	var req models.BulkAssignmentRequest
	if ok, err := bindValid(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.assignments.BulkAssign(ctx, req.SalesRepID, req.OutletIDs)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// BulkUnassign godoc
// @Summary Remove outlets from a sales rep
// @Tags Assignments
// @Accept json
// @Produce json
// @Param request body models.BulkAssignmentRequest true "Sales rep and outlets"
// @Success 200 {object} models.BulkAssignmentResult "assigned holds the removed count"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/admin/assignments/bulk-unassign [post]
func (h *AssignmentHandler) BulkUnassign(c echo.Context) error {
	var req models.BulkAssignmentRequest
	if ok, err := bindValid(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.assignments.BulkUnassign(ctx, req.SalesRepID, req.OutletIDs)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Count godoc
// @Summary Count a sales rep's outlets
// @Tags Assignments
// @Produce json
// @Param id path int true "Sales rep ID"
// @Success 200 {object} models.OutletCountResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/admin/sales-reps/{id}/outlets/count [get]
func (h *AssignmentHandler) Count(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := h.assignments.CountFor(ctx, id)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, models.OutletCountResponse{SalesRepID: id, Count: n})
}
