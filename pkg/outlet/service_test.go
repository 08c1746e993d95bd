package outlet

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/fieldsales/pkg/database"
	"github.com/jordanlanch/fieldsales/pkg/domain"
	"github.com/jordanlanch/fieldsales/pkg/logger"
	"github.com/jordanlanch/fieldsales/pkg/models"
	"github.com/jordanlanch/fieldsales/pkg/testsupport"
)

func setupService(t *testing.T) (*Service, *database.Client, *miniredis.Miniredis) {
	t.Helper()

	db := testsupport.NewDB(t)
	c, mr := testsupport.NewCache(t)
	svc := NewService(db, c, logger.Nop(), Config{RecordTTL: time.Hour, ListTTL: 5 * time.Minute})
	return svc, db, mr
}

func createReq(h testsupport.Hierarchy, uid, name string) models.OutletCreateRequest {
	return models.OutletCreateRequest{
		UID:           uid,
		Name:          name,
		Phone:         "01711111111",
		RegionID:      h.RegionID,
		AreaID:        h.AreaID,
		DistributorID: h.DistributorID,
		TerritoryID:   h.TerritoryID,
	}
}

// renameDirect changes a row behind the service's back, bypassing invalidation
func renameDirect(t *testing.T, db *database.Client, id int, name string) {
	t.Helper()
	_, err := database.Exec(context.Background(), db.Driver,
		db.SQL().Update(database.OutletsTable).Set("name", name).Where(entsql.EQ("id", id)))
	require.NoError(t, err)
}

func TestFindByUID(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()
	h := testsupport.SeedHierarchy(t, db, "North")
	testsupport.SeedOutlet(t, db, h, "R-100", "Corner Shop")

	t.Run("Success - joins reference names", func(t *testing.T) {
		o, err := svc.FindByUID(ctx, "R-100")
		require.NoError(t, err)
		assert.Equal(t, "Corner Shop", o.Name)
		require.NotNil(t, o.Region)
		assert.Equal(t, "North Region", o.Region.Name)
		require.NotNil(t, o.Territory)
		assert.Equal(t, "North Territory", o.Territory.Name)
	})

	t.Run("error_not_found", func(t *testing.T) {
		_, err := svc.FindByUID(ctx, "missing")
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestFindByUID_CacheHitMatchesStore(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()
	h := testsupport.SeedHierarchy(t, db, "North")
	id := testsupport.SeedOutlet(t, db, h, "R-1", "Alpha Store")

	first, err := svc.FindByUID(ctx, "R-1")
	require.NoError(t, err)

	direct, err := svc.load(ctx, db.Driver, id)
	require.NoError(t, err)

	second, err := svc.FindByUID(ctx, "R-1")
	require.NoError(t, err)

	firstJSON, _ := json.Marshal(first)
	directJSON, _ := json.Marshal(direct)
	secondJSON, _ := json.Marshal(second)
	assert.Equal(t, string(directJSON), string(firstJSON))
	assert.Equal(t, string(directJSON), string(secondJSON))

	// the second read came from the cache
	renameDirect(t, db, id, "Changed Behind The Back")
	third, err := svc.FindByUID(ctx, "R-1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha Store", third.Name)
}

func TestFindByID_CacheDown(t *testing.T) {
	svc, db, mr := setupService(t)
	ctx := context.Background()
	h := testsupport.SeedHierarchy(t, db, "North")
	id := testsupport.SeedOutlet(t, db, h, "R-1", "Alpha Store")

	mr.SetError("ERR unavailable")

	o, err := svc.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "R-1", o.UID)

	renameDirect(t, db, id, "Fresh")
	o, err = svc.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", o.Name)
}

func TestCreate(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()
	h := testsupport.SeedHierarchy(t, db, "North")
	other := testsupport.SeedHierarchy(t, db, "South")

	t.Run("Success", func(t *testing.T) {
		o, err := svc.Create(ctx, createReq(h, "R-1", "Alpha"))
		require.NoError(t, err)
		assert.Positive(t, o.ID)
		assert.Equal(t, "North Area", o.Area.Name)
		assert.False(t, o.CreatedAt.IsZero())
	})

	t.Run("error_duplicate_uid", func(t *testing.T) {
		_, err := svc.Create(ctx, createReq(h, "R-1", "Alpha again"))
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("error_unknown_territory", func(t *testing.T) {
		req := createReq(h, "R-2", "Beta")
		req.TerritoryID = 9999
		_, err := svc.Create(ctx, req)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("error_area_outside_region", func(t *testing.T) {
		req := createReq(h, "R-3", "Gamma")
		req.AreaID = other.AreaID
		req.TerritoryID = other.TerritoryID
		_, err := svc.Create(ctx, req)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestCreate_InvalidatesCachedMiss(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()
	h := testsupport.SeedHierarchy(t, db, "North")

	before, err := svc.Search(ctx, models.OutletQuery{})
	require.NoError(t, err)
	assert.Zero(t, before.Meta.Total)

	_, err = svc.Create(ctx, createReq(h, "R-1", "Alpha"))
	require.NoError(t, err)

	after, err := svc.Search(ctx, models.OutletQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, after.Meta.Total)
}

func TestUpdate(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()
	h := testsupport.SeedHierarchy(t, db, "North")
	id := testsupport.SeedOutlet(t, db, h, "R-1", "Alpha")
	testsupport.SeedOutlet(t, db, h, "R-2", "Beta")

	// warm the record cache
	_, err := svc.FindByUID(ctx, "R-1")
	require.NoError(t, err)

	t.Run("Success - partial fields", func(t *testing.T) {
		points := 40
		notes := "open late"
		o, err := svc.Update(ctx, id, models.OutletUpdateRequest{Points: &points, Notes: &notes})
		require.NoError(t, err)
		assert.Equal(t, 40, o.Points)
		assert.Equal(t, "open late", o.Notes)
		assert.Equal(t, "Alpha", o.Name)

		cached, err := svc.FindByUID(ctx, "R-1")
		require.NoError(t, err)
		assert.Equal(t, 40, cached.Points)
	})

	t.Run("Success - empty update is a read", func(t *testing.T) {
		o, err := svc.Update(ctx, id, models.OutletUpdateRequest{})
		require.NoError(t, err)
		assert.Equal(t, "R-1", o.UID)
	})

	t.Run("error_uid_taken", func(t *testing.T) {
		uid := "R-2"
		_, err := svc.Update(ctx, id, models.OutletUpdateRequest{UID: &uid})
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("error_not_found", func(t *testing.T) {
		name := "x"
		_, err := svc.Update(ctx, 9999, models.OutletUpdateRequest{Name: &name})
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestDelete(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()
	h := testsupport.SeedHierarchy(t, db, "North")
	id := testsupport.SeedOutlet(t, db, h, "R-1", "Alpha")
	rep := testsupport.SeedSalesRep(t, db, "rep1", models.RoleSalesRep)
	testsupport.SeedAssignment(t, db, rep, id)

	_, err := svc.FindByID(ctx, id)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))

	_, err = svc.FindByID(ctx, id)
	assert.True(t, domain.IsNotFound(err))

	list, err := svc.ListForRep(ctx, rep, models.OutletQuery{})
	require.NoError(t, err)
	assert.Zero(t, list.Meta.Total)

	err = svc.Delete(ctx, id)
	assert.True(t, domain.IsNotFound(err))
}

func TestBulkCreate(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()
	h := testsupport.SeedHierarchy(t, db, "North")
	testsupport.SeedOutlet(t, db, h, "R-1", "Existing")

	records := []models.OutletCreateRequest{
		createReq(h, "R-1", "Duplicate of existing"),
		createReq(h, "R-2", "New"),
		createReq(h, "R-3", "Newer"),
		createReq(h, "R-3", "Duplicate within batch"),
	}

	n, err := svc.BulkCreate(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.BulkCreate(ctx, records)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.BulkCreate(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	t.Run("error_missing_reference", func(t *testing.T) {
		bad := createReq(h, "R-9", "Orphan")
		bad.RegionID = 9999
		_, err := svc.BulkCreate(ctx, []models.OutletCreateRequest{bad})
		assert.True(t, domain.IsValidation(err))
	})
}

func TestBulkCreate_RejectsMismatchedHierarchy(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()
	north := testsupport.SeedHierarchy(t, db, "North")
	south := testsupport.SeedHierarchy(t, db, "South")

	areaElsewhere := createReq(north, "R-2", "Area from the south")
	areaElsewhere.AreaID = south.AreaID

	territoryElsewhere := createReq(north, "R-3", "Territory from the south")
	territoryElsewhere.TerritoryID = south.TerritoryID

	tests := []struct {
		name    string
		records []models.OutletCreateRequest
		wantMsg string
	}{
		{"area outside region", []models.OutletCreateRequest{createReq(north, "R-1", "Fine"), areaElsewhere}, "R-2"},
		{"territory outside area", []models.OutletCreateRequest{territoryElsewhere}, "R-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := svc.BulkCreate(ctx, tt.records)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Zero(t, n)
		})
	}

	// Nothing from a rejected batch is written
	_, err := svc.FindByUID(ctx, "R-1")
	assert.True(t, domain.IsNotFound(err))

	n, err := svc.BulkCreate(ctx, []models.OutletCreateRequest{createReq(north, "R-1", "Fine"), createReq(south, "S-1", "Also fine")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSearch_Filters(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()
	north := testsupport.SeedHierarchy(t, db, "North")
	south := testsupport.SeedHierarchy(t, db, "South")
	testsupport.SeedOutlet(t, db, north, "N-1", "Dhaka Mart")
	testsupport.SeedOutlet(t, db, north, "N-2", "Bazar Store")
	testsupport.SeedOutlet(t, db, south, "S-1", "Chittagong Mart")

	tests := []struct {
		name   string
		params models.OutletQueryParams
		want   []string
	}{
		{"no filter ordered by name", models.OutletQueryParams{}, []string{"Bazar Store", "Chittagong Mart", "Dhaka Mart"}},
		{"region", models.OutletQueryParams{RegionID: fmt.Sprint(north.RegionID)}, []string{"Bazar Store", "Dhaka Mart"}},
		{"case-insensitive name", models.OutletQueryParams{Search: "MART"}, []string{"Chittagong Mart", "Dhaka Mart"}},
		{"uid substring", models.OutletQueryParams{Search: "s-"}, []string{"Chittagong Mart"}},
		{"unparseable id ignored", models.OutletQueryParams{AreaID: "north"}, []string{"Bazar Store", "Chittagong Mart", "Dhaka Mart"}},
		{"territory and search", models.OutletQueryParams{TerritoryID: fmt.Sprint(south.TerritoryID), Search: "dhaka"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Search(ctx, tt.params.Query())
			require.NoError(t, err)

			var names []string
			for _, o := range resp.Data {
				names = append(names, o.Name)
			}
			assert.Equal(t, tt.want, names)
			assert.Equal(t, len(tt.want), resp.Meta.Total)
		})
	}
}
