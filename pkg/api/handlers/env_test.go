package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/fieldsales/pkg/assignment"
	"github.com/jordanlanch/fieldsales/pkg/auth"
	"github.com/jordanlanch/fieldsales/pkg/database"
	"github.com/jordanlanch/fieldsales/pkg/importer"
	"github.com/jordanlanch/fieldsales/pkg/logger"
	"github.com/jordanlanch/fieldsales/pkg/models"
	"github.com/jordanlanch/fieldsales/pkg/outlet"
	"github.com/jordanlanch/fieldsales/pkg/ownership"
	"github.com/jordanlanch/fieldsales/pkg/phone"
	"github.com/jordanlanch/fieldsales/pkg/reference"
	"github.com/jordanlanch/fieldsales/pkg/salesrep"
	"github.com/jordanlanch/fieldsales/pkg/testsupport"
)

const testSecret = "handler-test-secret"

// testEnv wires every service over sqlite and miniredis
type testEnv struct {
	db          *database.Client
	outlets     *outlet.Service
	reps        *salesrep.Service
	assignments *assignment.Service
	refs        *reference.Service
	gate        *ownership.Gate
	importer    *importer.Service
	blacklist   *auth.TokenBlacklist
	phones      *phone.Validator
	h           testsupport.Hierarchy
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testsupport.NewDB(t)
	client, _ := testsupport.NewRedis(t)
	c, _ := testsupport.NewCache(t)
	log := logger.Nop()

	outlets := outlet.NewService(db, c, log, outlet.Config{RecordTTL: time.Hour, ListTTL: time.Minute})
	assignments := assignment.NewService(db, c, log, nil)
	phones := phone.NewValidator(phone.DefaultRegion)

	return &testEnv{
		db:          db,
		outlets:     outlets,
		reps:        salesrep.NewService(db, c, log, time.Minute),
		assignments: assignments,
		refs:        reference.NewService(db, c, log, time.Hour),
		gate:        ownership.NewGate(assignments, outlets, nil, log),
		importer:    importer.NewService(outlets, phones, log, importer.Config{BatchSize: 2}, nil),
		blacklist:   auth.NewTokenBlacklist(client),
		phones:      phones,
		h:           testsupport.SeedHierarchy(t, db, "North"),
	}
}

// request builds a context for the handler under test. A non-nil body is
// sent as JSON.
func request(method, target string, body any) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// as attaches the identity the JWT middleware would have set
func as(c echo.Context, caller models.Caller) echo.Context {
	c.Set("user_id", caller.ID)
	c.Set("user_role", caller.Role)
	return c
}

func withParam(c echo.Context, name string, value any) echo.Context {
	var v string
	switch x := value.(type) {
	case int:
		v = strconv.Itoa(x)
	case string:
		v = x
	}
	c.SetParamNames(name)
	c.SetParamValues(v)
	return c
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func admin() models.Caller {
	return models.Caller{ID: 1, Role: models.RoleAdmin}
}

func rep(id int) models.Caller {
	return models.Caller{ID: id, Role: models.RoleSalesRep}
}
