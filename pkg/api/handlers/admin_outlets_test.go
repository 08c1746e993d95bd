package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/fieldsales/pkg/domain"
	"github.com/jordanlanch/fieldsales/pkg/models"
	"github.com/jordanlanch/fieldsales/pkg/storage"
	"github.com/jordanlanch/fieldsales/pkg/testsupport"
)

type fakeSource struct {
	objects map[string]string
}

func (f *fakeSource) Open(_ context.Context, key string) (*storage.Object, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, domain.NewNotFoundError("import object")
	}
	return &storage.Object{Key: key, Body: io.NopCloser(strings.NewReader(body)), Size: int64(len(body))}, nil
}

func createBody(h testsupport.Hierarchy, uid, phone string) models.OutletCreateRequest {
	return models.OutletCreateRequest{
		UID:           uid,
		Name:          "Outlet " + uid,
		Phone:         phone,
		RegionID:      h.RegionID,
		AreaID:        h.AreaID,
		DistributorID: h.DistributorID,
		TerritoryID:   h.TerritoryID,
	}
}

func TestAdminOutletHandler_CRUD(t *testing.T) {
	env := newEnv(t)
	h := NewAdminOutletHandler(env.outlets, env.importer, nil, env.phones)

	c, rec := request(http.MethodPost, "/api/v1/admin/outlets", createBody(env.h, "A-1", "01711111111"))
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.Outlet](t, rec)
	assert.Equal(t, "North Territory", created.Territory.Name)

	t.Run("duplicate uid", func(t *testing.T) {
		c, rec := request(http.MethodPost, "/api/v1/admin/outlets", createBody(env.h, "A-1", "01711111111"))
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid phone", func(t *testing.T) {
		c, rec := request(http.MethodPost, "/api/v1/admin/outlets", createBody(env.h, "A-2", "12"))
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		c, rec := request(http.MethodPost, "/api/v1/admin/outlets", map[string]any{"uid": "A-3"})
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "name is required", decode[models.ErrorResponse](t, rec).Message)
	})

	t.Run("update", func(t *testing.T) {
		c, rec := request(http.MethodPut, "/api/v1/admin/outlets/x", map[string]any{"name": "Renamed"})
		require.NoError(t, h.Update(withParam(c, "id", created.ID)))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Renamed", decode[models.Outlet](t, rec).Name)
	})

	t.Run("bad id", func(t *testing.T) {
		c, rec := request(http.MethodGet, "/api/v1/admin/outlets/abc", nil)
		require.NoError(t, h.Get(withParam(c, "id", "abc")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		c, rec := request(http.MethodDelete, "/api/v1/admin/outlets/x", nil)
		require.NoError(t, h.Delete(withParam(c, "id", created.ID)))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		c, rec = request(http.MethodGet, "/api/v1/admin/outlets/x", nil)
		require.NoError(t, h.Get(withParam(c, "id", created.ID)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAdminOutletHandler_List(t *testing.T) {
	env := newEnv(t)
	h := NewAdminOutletHandler(env.outlets, env.importer, nil, env.phones)
	other := testsupport.SeedHierarchy(t, env.db, "South")
	testsupport.SeedOutlet(t, env.db, env.h, "N-1", "North One")
	testsupport.SeedOutlet(t, env.db, other, "S-1", "South One")

	c, rec := request(http.MethodGet, "/api/v1/admin/outlets?region_id="+itoa(other.RegionID), nil)
	require.NoError(t, h.List(c))
	resp := decode[models.OutletListResponse](t, rec)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "S-1", resp.Data[0].UID)
}

func multipartRequest(t *testing.T, filename, content string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/outlets/import", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func importCSV(h testsupport.Hierarchy) string {
	row := func(uid, phone string) string {
		return strings.Join([]string{uid, "Outlet " + uid, phone, itoa(h.RegionID), itoa(h.AreaID), itoa(h.DistributorID), itoa(h.TerritoryID)}, ",")
	}
	return strings.Join([]string{
		"uid,name,phone,regionId,areaId,distributorId,territoryId",
		row("I-1", "01711111111"),
		row("I-2", "01711111112"),
		row("I-3", "123"),
	}, "\n")
}

func TestAdminOutletHandler_Import(t *testing.T) {
	env := newEnv(t)
	h := NewAdminOutletHandler(env.outlets, env.importer, nil, env.phones)

	c, rec := multipartRequest(t, "outlets.csv", importCSV(env.h))
	require.NoError(t, h.Import(c))
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[models.ImportResult](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"Row 4: Invalid phone number"}, res.Errors)

	t.Run("reimport skips existing", func(t *testing.T) {
		c, rec := multipartRequest(t, "outlets.csv", importCSV(env.h))
		require.NoError(t, h.Import(c))
		res := decode[models.ImportResult](t, rec)
		assert.Equal(t, 0, res.Imported)
		assert.Equal(t, 2, res.Skipped)
	})

	t.Run("unsupported file", func(t *testing.T) {
		c, rec := multipartRequest(t, "outlets.pdf", "x")
		require.NoError(t, h.Import(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no file", func(t *testing.T) {
		c, rec := request(http.MethodPost, "/api/v1/admin/outlets/import", nil)
		require.NoError(t, h.Import(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminOutletHandler_ImportFromS3(t *testing.T) {
	env := newEnv(t)

	t.Run("not configured", func(t *testing.T) {
		h := NewAdminOutletHandler(env.outlets, env.importer, nil, env.phones)
		c, rec := request(http.MethodPost, "/api/v1/admin/outlets/import/s3", models.S3ImportRequest{Key: "outlets.csv"})
		require.NoError(t, h.ImportFromS3(c))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	source := &fakeSource{objects: map[string]string{"daily/outlets.csv": importCSV(env.h)}}
	h := NewAdminOutletHandler(env.outlets, env.importer, source, env.phones)

	t.Run("imports object", func(t *testing.T) {
		c, rec := request(http.MethodPost, "/api/v1/admin/outlets/import/s3", models.S3ImportRequest{Key: "daily/outlets.csv"})
		require.NoError(t, h.ImportFromS3(c))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, decode[models.ImportResult](t, rec).Imported)
	})

	t.Run("missing object", func(t *testing.T) {
		c, rec := request(http.MethodPost, "/api/v1/admin/outlets/import/s3", models.S3ImportRequest{Key: "nope.csv"})
		require.NoError(t, h.ImportFromS3(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
