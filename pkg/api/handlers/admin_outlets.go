package handlers

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/fieldsales/pkg/api/errors"
	"github.com/jordanlanch/fieldsales/pkg/importer"
	"github.com/jordanlanch/fieldsales/pkg/models"
	"github.com/jordanlanch/fieldsales/pkg/outlet"
	"github.com/jordanlanch/fieldsales/pkg/storage"
)

// ObjectSource opens import files by key. *storage.S3Source satisfies it.
type ObjectSource interface {
	Open(ctx context.Context, key string) (*storage.Object, error)
}

// PhoneChecker rejects unusable phone numbers. *phone.Validator satisfies it.
type PhoneChecker interface {
	Check(phone string) error
}

// AdminOutletHandler serves directory maintenance for administrators
type AdminOutletHandler struct {
	outlets   *outlet.Service
	importer  *importer.Service
	source    ObjectSource
	phones    PhoneChecker
	validator *validator.Validate
}

// NewAdminOutletHandler creates a new admin outlet handler. source is nil
// when S3 imports are not configured.
func NewAdminOutletHandler(outlets *outlet.Service, imp *importer.Service, source ObjectSource, phones PhoneChecker) *AdminOutletHandler {
	return &AdminOutletHandler{
		outlets:   outlets,
		importer:  imp,
		source:    source,
		phones:    phones,
		validator: newValidator(),
	}
}

func (h *AdminOutletHandler) checkPhone(c echo.Context, phone *string) (bool, error) {
	if phone == nil || h.phones == nil {
		return true, nil
	}
	if err := h.phones.Check(*phone); err != nil {
		return false, c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid phone number",
		})
	}
	return true, nil
}

// List godoc
// @Summary Search the outlet directory
// @Tags Admin Outlets
// @Produce json
// @Param region_id query int false "Region filter"
// @Param area_id query int false "Area filter"
// @Param distributor_id query int false "Distributor filter"
// @Param territory_id query int false "Territory filter"
// @Param search query string false "Name, uid or phone substring"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(10)
// @Success 200 {object} models.OutletListResponse
// @Security BearerAuth
// @Router /api/v1/admin/outlets [get]
func (h *AdminOutletHandler) List(c echo.Context) error {
	var params models.OutletQueryParams
	if err := c.Bind(&params); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.outlets.Search(ctx, params.Query())
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get an outlet by id
// @Tags Admin Outlets
// @Produce json
// @Param id path int true "Outlet ID"
// @Success 200 {object} models.Outlet
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/admin/outlets/{id} [get]
func (h *AdminOutletHandler) Get(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	o, err := h.outlets.FindByID(ctx, id)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// Create godoc
// @Summary Create an outlet
// @Tags Admin Outlets
// @Accept json
// @Produce json
// @Param request body models.OutletCreateRequest true "Outlet"
// @Success 201 {object} models.Outlet
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "uid already exists"
// @Security BearerAuth
// @Router /api/v1/admin/outlets [post]
func (h *AdminOutletHandler) Create(c echo.Context) error {
	var req models.OutletCreateRequest
	if ok, err := bindValid(c, h.validator, &req); !ok {
		return err
	}
	if ok, err := h.checkPhone(c, &req.Phone); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	o, err := h.outlets.Create(ctx, req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

// Update godoc
// @Summary Update an outlet
// @Tags Admin Outlets
// @Accept json
// @Produce json
// @Param id path int true "Outlet ID"
// @Param request body models.OutletUpdateRequest true "Fields to change"
// @Success 200 {object} models.Outlet
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/admin/outlets/{id} [put]
func (h *AdminOutletHandler) Update(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}

	var req models.OutletUpdateRequest
	if ok, err := bindValid(c, h.validator, &req); !ok {
		return err
	}
	if ok, err := h.checkPhone(c, req.Phone); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	o, err := h.outlets.Update(ctx, id, req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// Delete godoc
// @Summary Delete an outlet
// @Tags Admin Outlets
// @Param id path int true "Outlet ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/admin/outlets/{id} [delete]
func (h *AdminOutletHandler) Delete(c echo.Context) error {
	id, ok, err := idParam(c, "id")
	if !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.outlets.Delete(ctx, id); err != nil {
		return errors.FromDomain(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Import godoc
// @Summary Import outlets from a file
// @Description Upload a CSV or XLSX file. Existing uids are skipped.
// @Tags Admin Outlets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/admin/outlets/import [post]
func (h *AdminOutletHandler) Import(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return errors.BadRequestError(c, "file is required")
	}
	if fh.Size > storage.MaxObjectSize {
		return errors.BadRequestError(c, "file is too large")
	}

	f, err := fh.Open()
	if err != nil {
		return errors.InternalError(c, err)
	}
	defer f.Close()

	// imports may run past the default request timeout
	res, err := h.importer.ImportFile(c.Request().Context(), fh.Filename, f)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ImportFromS3 godoc
// @Summary Import outlets from the import bucket
// @Tags Admin Outlets
// @Accept json
// @Produce json
// @Param request body models.S3ImportRequest true "Object key"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse "S3 import not configured"
// @Security BearerAuth
// @Router /api/v1/admin/outlets/import/s3 [post]
func (h *AdminOutletHandler) ImportFromS3(c echo.Context) error {
	if h.source == nil {
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "s3_not_configured",
			Message: "S3 import is not configured",
		})
	}

	var req models.S3ImportRequest
	if ok, err := bindValid(c, h.validator, &req); !ok {
		return err
	}

	ctx := c.Request().Context()
	obj, err := h.source.Open(ctx, req.Key)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	defer obj.Body.Close()

	res, err := h.importer.ImportFile(ctx, obj.Key, obj.Body)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
