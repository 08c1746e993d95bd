package handlers

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/fieldsales/pkg/api/errors"
	"github.com/jordanlanch/fieldsales/pkg/models"
	"github.com/jordanlanch/fieldsales/pkg/reference"
)

// ReferenceHandler serves regions, areas, territories and distributors.
// Reads are open to any authenticated caller; writes are mounted behind
// RequireAdmin.
type ReferenceHandler struct {
	refs      *reference.Service
	validator *validator.Validate
}

// NewReferenceHandler creates a new reference data handler
func NewReferenceHandler(refs *reference.Service) *ReferenceHandler {
	return &ReferenceHandler{
		refs:      refs,
		validator: newValidator(),
	}
}

func respond[T any](c echo.Context, status int, fn func(ctx context.Context) (T, error)) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	v, err := fn(ctx)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(status, v)
}

func byID[T any](c echo.Context, fn func(ctx context.Context, id int) (T, error)) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	return respond(c, http.StatusOK, func(ctx context.Context) (T, error) { return fn(ctx, id) })
}

func create[Req, T any](h *ReferenceHandler, c echo.Context, fn func(ctx context.Context, req Req) (T, error)) error {
	var req Req
	if ok, err := bindValid(c, h.validator, &req); !ok {
		return err
	}
	return respond(c, http.StatusCreated, func(ctx context.Context) (T, error) { return fn(ctx, req) })
}

func update[Req, T any](h *ReferenceHandler, c echo.Context, fn func(ctx context.Context, id int, req Req) (T, error)) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}
	var req Req
	if ok, err := bindValid(c, h.validator, &req); !ok {
		return err
	}
	return respond(c, http.StatusOK, func(ctx context.Context) (T, error) { return fn(ctx, id, req) })
}

func remove(c echo.Context, fn func(ctx context.Context, id int) error) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := fn(ctx, id); err != nil {
		return errors.FromDomain(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListRegions godoc
// @Summary List regions
// @Tags Reference
// @Produce json
// @Success 200 {array} models.Region
// @Security BearerAuth
// @Router /api/v1/regions [get]
func (h *ReferenceHandler) ListRegions(c echo.Context) error {
	return respond(c, http.StatusOK, h.refs.ListRegions)
}

// GetRegion godoc
// @Summary Get a region
// @Tags Reference
// @Produce json
// @Param id path int true "Region ID"
// @Success 200 {object} models.Region
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/regions/{id} [get]
func (h *ReferenceHandler) GetRegion(c echo.Context) error {
	return byID(c, h.refs.GetRegion)
}

// CreateRegion godoc
// @Summary Create a region
// @Tags Reference
// @Accept json
// @Produce json
// @Param request body models.RegionRequest true "Region"
// @Success 201 {object} models.Region
// @Security BearerAuth
// @Router /api/v1/regions [post]
func (h *ReferenceHandler) CreateRegion(c echo.Context) error {
	return create(h, c, h.refs.CreateRegion)
}

// UpdateRegion godoc
// @Summary Rename a region
// @Tags Reference
// @Accept json
// @Produce json
// @Param id path int true "Region ID"
// @Param request body models.RegionRequest true "Region"
// @Success 200 {object} models.Region
// @Security BearerAuth
// @Router /api/v1/regions/{id} [put]
func (h *ReferenceHandler) UpdateRegion(c echo.Context) error {
	return update(h, c, h.refs.UpdateRegion)
}

// DeleteRegion godoc
// @Summary Delete a region
// @Tags Reference
// @Param id path int true "Region ID"
// @Success 204
// @Failure 409 {object} models.ErrorResponse "Still referenced"
// @Security BearerAuth
// @Router /api/v1/regions/{id} [delete]
func (h *ReferenceHandler) DeleteRegion(c echo.Context) error {
	return remove(c, h.refs.DeleteRegion)
}

// ListAreas godoc
// @Summary List areas
// @Tags Reference
// @Produce json
// @Param region_id query int false "Only areas in this region"
// @Success 200 {array} models.Area
// @Security BearerAuth
// @Router /api/v1/areas [get]
func (h *ReferenceHandler) ListAreas(c echo.Context) error {
	regionID := models.ParseOptionalID(c.QueryParam("region_id"))
	return respond(c, http.StatusOK, func(ctx context.Context) ([]models.Area, error) {
		return h.refs.ListAreas(ctx, regionID)
	})
}

// GetArea godoc
// @Summary Get an area
// @Tags Reference
// @Produce json
// @Param id path int true "Area ID"
// @Success 200 {object} models.Area
// @Security BearerAuth
// @Router /api/v1/areas/{id} [get]
func (h *ReferenceHandler) GetArea(c echo.Context) error {
	return byID(c, h.refs.GetArea)
}

// CreateArea godoc
// @Summary Create an area
// @Tags Reference
// @Accept json
// @Produce json
// @Param request body models.AreaRequest true "Area"
// @Success 201 {object} models.Area
// @Failure 404 {object} models.ErrorResponse "Unknown region"
// @Security BearerAuth
// @Router /api/v1/areas [post]
func (h *ReferenceHandler) CreateArea(c echo.Context) error {
	return create(h, c, h.refs.CreateArea)
}

// UpdateArea godoc
// @Summary Update an area
// @Tags Reference
// @Accept json
// @Produce json
// @Param id path int true "Area ID"
// @Param request body models.AreaRequest true "Area"
// @Success 200 {object} models.Area
// @Security BearerAuth
// @Router /api/v1/areas/{id} [put]
func (h *ReferenceHandler) UpdateArea(c echo.Context) error {
	return update(h, c, h.refs.UpdateArea)
}

// DeleteArea godoc
// @Summary Delete an area
// @Tags Reference
// @Param id path int true "Area ID"
// @Success 204
// @Security BearerAuth
// @Router /api/v1/areas/{id} [delete]
func (h *ReferenceHandler) DeleteArea(c echo.Context) error {
	return remove(c, h.refs.DeleteArea)
}

// ListTerritories godoc
// @Summary List territories
// @Tags Reference
// @Produce json
// @Param area_id query int false "Only territories in this area"
// @Success 200 {array} models.Territory
// @Security BearerAuth
// @Router /api/v1/territories [get]
func (h *ReferenceHandler) ListTerritories(c echo.Context) error {
	areaID := models.ParseOptionalID(c.QueryParam("area_id"))
	return respond(c, http.StatusOK, func(ctx context.Context) ([]models.Territory, error) {
		return h.refs.ListTerritories(ctx, areaID)
	})
}

// GetTerritory godoc
// @Summary Get a territory
// @Tags Reference
// @Produce json
// @Param id path int true "Territory ID"
// @Success 200 {object} models.Territory
// @Security BearerAuth
// @Router /api/v1/territories/{id} [get]
func (h *ReferenceHandler) GetTerritory(c echo.Context) error {
	return byID(c, h.refs.GetTerritory)
}

// CreateTerritory godoc
// @Summary Create a territory
// @Tags Reference
// @Accept json
// @Produce json
// @Param request body models.TerritoryRequest true "Territory"
// @Success 201 {object} models.Territory
// @Security BearerAuth
// @Router /api/v1/territories [post]
func (h *ReferenceHandler) CreateTerritory(c echo.Context) error {
	return create(h, c, h.refs.CreateTerritory)
}

// UpdateTerritory godoc
// @Summary Update a territory
// @Tags Reference
// @Accept json
// @Produce json
// @Param id path int true "Territory ID"
// @Param request body models.TerritoryRequest true "Territory"
// @Success 200 {object} models.Territory
// @Security BearerAuth
// @Router /api/v1/territories/{id} [put]
func (h *ReferenceHandler) UpdateTerritory(c echo.Context) error {
	return update(h, c, h.refs.UpdateTerritory)
}

// DeleteTerritory godoc
// @Summary Delete a territory
// @Tags Reference
// @Param id path int true "Territory ID"
// @Success 204
// @Security BearerAuth
// @Router /api/v1/territories/{id} [delete]
func (h *ReferenceHandler) DeleteTerritory(c echo.Context) error {
	return remove(c, h.refs.DeleteTerritory)
}

// ListDistributors godoc
// @Summary List distributors
// @Tags Reference
// @Produce json
// @Success 200 {array} models.Distributor
// @Security BearerAuth
// @Router /api/v1/distributors [get]
func (h *ReferenceHandler) ListDistributors(c echo.Context) error {
	return respond(c, http.StatusOK, h.refs.ListDistributors)
}

// GetDistributor godoc
// @Summary Get a distributor
// @Tags Reference
// @Produce json
// @Param id path int true "Distributor ID"
// @Success 200 {object} models.Distributor
// @Security BearerAuth
// @Router /api/v1/distributors/{id} [get]
func (h *ReferenceHandler) GetDistributor(c echo.Context) error {
	return byID(c, h.refs.GetDistributor)
}

// CreateDistributor godoc
// @Summary Create a distributor
// @Tags Reference
// @Accept json
// @Produce json
// @Param request body models.RegionRequest true "Distributor"
// @Success 201 {object} models.Distributor
// @Security BearerAuth
// @Router /api/v1/distributors [post]
func (h *ReferenceHandler) CreateDistributor(c echo.Context) error {
	return create(h, c, h.refs.CreateDistributor)
}

// UpdateDistributor godoc
// @Summary Rename a distributor
// @Tags Reference
// @Accept json
// @Produce json
// @Param id path int true "Distributor ID"
// @Param request body models.RegionRequest true "Distributor"
// @Success 200 {object} models.Distributor
// @Security BearerAuth
// @Router /api/v1/distributors/{id} [put]
func (h *ReferenceHandler) UpdateDistributor(c echo.Context) error {
	return update(h, c, h.refs.UpdateDistributor)
}

// DeleteDistributor godoc
// @Summary Delete a distributor
// @Tags Reference
// @Param id path int true "Distributor ID"
// @Success 204
// @Security BearerAuth
// @Router /api/v1/distributors/{id} [delete]
func (h *ReferenceHandler) DeleteDistributor(c echo.Context) error {
	return remove(c, h.refs.DeleteDistributor)
}
