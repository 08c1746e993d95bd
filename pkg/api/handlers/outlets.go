package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/fieldsales/pkg/api/errors"
	"github.com/jordanlanch/fieldsales/pkg/models"
	"github.com/jordanlanch/fieldsales/pkg/outlet"
	"github.com/jordanlanch/fieldsales/pkg/ownership"
)

// OutletHandler serves the caller-scoped outlet endpoints
type OutletHandler struct {
	outlets   *outlet.Service
	gate      *ownership.Gate
	validator *validator.Validate
}

// NewOutletHandler creates a new outlet handler
func NewOutletHandler(outlets *outlet.Service, gate *ownership.Gate) *OutletHandler {
	return &OutletHandler{
		outlets:   outlets,
		gate:      gate,
		validator: newValidator(),
	}
}

// List godoc
// @Summary List outlets
// @Description Administrators see the whole directory; representatives see only their assigned outlets
// @Tags Outlets
// @Produce json
// @Param region_id query int false "Region filter"
// @Param area_id query int false "Area filter"
// @Param distributor_id query int false "Distributor filter"
// @Param territory_id query int false "Territory filter"
// @Param search query string false "Name, uid or phone substring"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(10)
// @Success 200 {object} models.OutletListResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/outlets [get]
func (h *OutletHandler) List(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	var params models.OutletQueryParams
	if err := c.Bind(&params); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.outlets.ListFor(ctx, caller, params.Query())
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get an outlet
// @Tags Outlets
// @Produce json
// @Param uid path string true "Outlet uid"
// @Success 200 {object} models.Outlet
// @Failure 403 {object} models.ErrorResponse "Outlet not assigned to caller"
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/outlets/{uid} [get]
func (h *OutletHandler) Get(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	o, err := h.gate.Resolve(ctx, caller, c.Param("uid"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// Patch godoc
// @Summary Update an outlet's field data
// @Description Assigned representatives may change points, routes and notes
// @Tags Outlets
// @Accept json
// @Produce json
// @Param uid path string true "Outlet uid"
// @Param request body models.OutletPatchRequest true "Fields to change"
// @Success 200 {object} models.Outlet
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/outlets/{uid} [patch]
func (h *OutletHandler) Patch(c echo.Context) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.OutletPatchRequest
	if ok, err := bindValid(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	o, err := h.gate.Resolve(ctx, caller, c.Param("uid"))
	if err != nil {
		return errors.FromDomain(c, err)
	}

	updated, err := h.outlets.Update(ctx, o.ID, req.AsUpdate())
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}
