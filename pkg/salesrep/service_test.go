package salesrep

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/fieldsales/pkg/auth"
	"github.com/jordanlanch/fieldsales/pkg/database"
	"github.com/jordanlanch/fieldsales/pkg/domain"
	"github.com/jordanlanch/fieldsales/pkg/logger"
	"github.com/jordanlanch/fieldsales/pkg/models"
	"github.com/jordanlanch/fieldsales/pkg/testsupport"
)

func setupService(t *testing.T) (*Service, *database.Client) {
	t.Helper()

	db := testsupport.NewDB(t)
	c, _ := testsupport.NewCache(t)
	return NewService(db, c, logger.Nop(), time.Minute), db
}

func createRep(t *testing.T, svc *Service, username, name string) *models.SalesRep {
	t.Helper()

	rep, err := svc.Create(context.Background(), models.SalesRepCreateRequest{
		Username: username,
		Name:     name,
		Password: "secret123",
	})
	require.NoError(t, err)
	return rep
}

func TestCreate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	t.Run("Success - defaults to sales_rep", func(t *testing.T) {
		rep := createRep(t, svc, "rep1", "Rahim")
		assert.Positive(t, rep.ID)
		assert.Equal(t, models.RoleSalesRep, rep.Role)
		assert.True(t, auth.CheckPassword(rep.PasswordHash, "secret123"))
	})

	t.Run("Success - admin", func(t *testing.T) {
		rep, err := svc.Create(ctx, models.SalesRepCreateRequest{
			Username: "boss", Name: "Boss", Password: "secret123", Role: models.RoleAdmin,
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, rep.Role)
	})

	t.Run("error_duplicate_username", func(t *testing.T) {
		_, err := svc.Create(ctx, models.SalesRepCreateRequest{Username: "rep1", Name: "Other", Password: "secret123"})
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("error_short_password", func(t *testing.T) {
		_, err := svc.Create(ctx, models.SalesRepCreateRequest{Username: "rep9", Name: "Short", Password: "123"})
		assert.True(t, domain.IsValidation(err))
	})
}

func TestGetByUsername(t *testing.T) {
	svc, _ := setupService(t)
	created := createRep(t, svc, "rep1", "Rahim")

	rep, err := svc.GetByUsername(context.Background(), "rep1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, rep.ID)

	_, err = svc.GetByUsername(context.Background(), "nobody")
	assert.True(t, domain.IsNotFound(err))
}

func TestList_PaginatedAndOrdered(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for i := 12; i >= 1; i-- {
		createRep(t, svc, fmt.Sprintf("rep%02d", i), fmt.Sprintf("Rep %02d", i))
	}

	page, err := svc.List(ctx, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Meta.Total)
	assert.Equal(t, 3, page.Meta.TotalPages)
	require.Len(t, page.Data, 5)
	assert.Equal(t, "Rep 06", page.Data[0].Name)

	// clamped to defaults
	page, err = svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLimit, page.Meta.Limit)
	assert.Equal(t, 1, page.Meta.Page)
}

func TestList_InvalidatedByWrites(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	rep := createRep(t, svc, "rep1", "Alpha")

	page, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	name := "Beta"
	_, err = svc.Update(ctx, rep.ID, models.SalesRepUpdateRequest{Name: &name})
	require.NoError(t, err)

	page, err = svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Beta", page.Data[0].Name)

	createRep(t, svc, "rep2", "Gamma")
	page, err = svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Meta.Total)
}

func TestUpdate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	rep := createRep(t, svc, "rep1", "Alpha")

	t.Run("Success - password rehashed", func(t *testing.T) {
		pw := "newsecret"
		updated, err := svc.Update(ctx, rep.ID, models.SalesRepUpdateRequest{Password: &pw})
		require.NoError(t, err)
		assert.True(t, auth.CheckPassword(updated.PasswordHash, "newsecret"))
		assert.False(t, auth.CheckPassword(updated.PasswordHash, "secret123"))
	})

	t.Run("Success - empty update is a read", func(t *testing.T) {
		updated, err := svc.Update(ctx, rep.ID, models.SalesRepUpdateRequest{})
		require.NoError(t, err)
		assert.Equal(t, "Alpha", updated.Name)
	})

	t.Run("error_not_found", func(t *testing.T) {
		name := "x"
		_, err := svc.Update(ctx, 9999, models.SalesRepUpdateRequest{Name: &name})
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestDelete(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	rep := createRep(t, svc, "rep1", "Alpha")
	h := testsupport.SeedHierarchy(t, db, "North")
	testsupport.SeedAssignment(t, db, rep.ID, testsupport.SeedOutlet(t, db, h, "R-1", "Outlet"))

	require.NoError(t, svc.Delete(ctx, rep.ID))

	_, err := svc.Get(ctx, rep.ID)
	assert.True(t, domain.IsNotFound(err))

	b := db.SQL()
	n, err := database.Count(ctx, db.Driver, b.Select("COUNT(*)").From(b.Table(database.SalesRepOutletTable)))
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.True(t, domain.IsNotFound(svc.Delete(ctx, rep.ID)))
}
