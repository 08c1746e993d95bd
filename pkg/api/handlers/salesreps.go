package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/fieldsales/pkg/api/errors"
	"github.com/jordanlanch/fieldsales/pkg/models"
	"github.com/jordanlanch/fieldsales/pkg/salesrep"
)

// SalesRepHandler manages accounts
type SalesRepHandler struct {
	reps      *salesrep.Service
	validator *validator.Validate
}

// NewSalesRepHandler creates a new sales rep handler
func NewSalesRepHandler(reps *salesrep.Service) *SalesRepHandler {
	return &SalesRepHandler{
		reps:      reps,
		validator: newValidator(),
	}
}

// List godoc
// @Summary List sales reps
// @Tags Sales Reps
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(10)
// @Success 200 {object} models.SalesRepListResponse
// @Security BearerAuth
// @Router /api/v1/admin/sales-reps [get]
func (h *SalesRepHandler) List(c echo.Context) error {
	var params models.PageParams
	if err := c.Bind(&params); err != nil {
		return invalidBody(c)
	}
	page, limit := params.Values()

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.reps.List(ctx, page, limit)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get a sales rep
// @Tags Sales Reps
// @Produce json
// @Param id path int true "Sales rep ID"
// @Success 200 {object} models.SalesRep
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/admin/sales-reps/{id} [get]
func (h *SalesRepHandler) Get(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	rep, err := h.reps.Get(ctx, id)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// Create godoc
// @Summary Create a sales rep
// @Tags Sales Reps
// @Accept json
// @Produce json
// @Param request body models.SalesRepCreateRequest true "Account"
// @Success 201 {object} models.SalesRep
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Username taken"
// @Security BearerAuth
// @Router /api/v1/admin/sales-reps [post]
func (h *SalesRepHandler) Create(c echo.Context) error {
	var req models.SalesRepCreateRequest
	if ok, err := bindValid(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	rep, err := h.reps.Create(ctx, req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, rep)
}

// Update godoc
// @Summary Update a sales rep
// @Tags Sales Reps
// @Accept json
// @Produce json
// @Param id path int true "Sales rep ID"
// @Param request body models.SalesRepUpdateRequest true "Fields to change"
// @Success 200 {object} models.SalesRep
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/admin/sales-reps/{id} [put]
func (h *SalesRepHandler) Update(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}

	var req models.SalesRepUpdateRequest
	if ok, err := bindValid(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	rep, err := h.reps.Update(ctx, id, req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// Delete godoc
// @Summary Delete a sales rep
// @Description Removes the account and its outlet assignments
// @Tags Sales Reps
// @Param id path int true "Sales rep ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/admin/sales-reps/{id} [delete]
func (h *SalesRepHandler) Delete(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.reps.Delete(ctx, id); err != nil {
		return errors.FromDomain(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
