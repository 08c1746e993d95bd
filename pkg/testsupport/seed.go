package testsupport

import (
	"context"
	"testing"

	"github.com/jordanlanch/fieldsales/pkg/database"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

// Hierarchy is one region/area/territory chain plus a distributor
type Hierarchy struct {
	RegionID      int
	AreaID        int
	TerritoryID   int
	DistributorID int
}

func insert(t testing.TB, db *database.Client, table string, cols []string, vals ...any) int {
	t.Helper()

	now := database.Now()
	cols = append(cols, "created_at", "updated_at")
	vals = append(vals, now, now)

	id, err := database.InsertID(context.Background(), db.Driver, db.Dialect(),
		db.SQL().Insert(table).Columns(cols...).Values(vals...))
	if err != nil {
		t.Fatalf("failed to seed %s: %v", table, err)
	}
	return id
}

// SeedHierarchy inserts a named reference chain
func SeedHierarchy(t testing.TB, db *database.Client, prefix string) Hierarchy {
	t.Helper()

	var h Hierarchy
	h.RegionID = insert(t, db, database.RegionsTable, []string{"name"}, prefix+" Region")
	h.AreaID = insert(t, db, database.AreasTable, []string{"name", "region_id"}, prefix+" Area", h.RegionID)
	h.TerritoryID = insert(t, db, database.TerritoriesTable, []string{"name", "area_id"}, prefix+" Territory", h.AreaID)
	h.DistributorID = insert(t, db, database.DistributorsTable, []string{"name"}, prefix+" Distributor")
	return h
}

// SeedSalesRep inserts an account with an unusable password hash
func SeedSalesRep(t testing.TB, db *database.Client, username, role string) int {
	t.Helper()

	if role == "" {
		role = models.RoleSalesRep
	}
	return insert(t, db, database.SalesRepsTable,
		[]string{"username", "name", "phone", "password_hash", "role"},
		username, username, "", "!", role)
}

// SeedOutlet inserts an outlet under h
func SeedOutlet(t testing.TB, db *database.Client, h Hierarchy, uid, name string) int {
	t.Helper()

	return insert(t, db, database.OutletsTable,
		[]string{"uid", "name", "phone", "points", "routes", "notes", "region_id", "area_id", "distributor_id", "territory_id"},
		uid, name, "01700000000", 0, "", "", h.RegionID, h.AreaID, h.DistributorID, h.TerritoryID)
}

// SeedAssignment links a representative to an outlet
func SeedAssignment(t testing.TB, db *database.Client, repID, outletID int) {
	t.Helper()

	_, err := database.Exec(context.Background(), db.Driver,
		db.SQL().Insert(database.SalesRepOutletTable).
			Columns("sales_rep_id", "outlet_id", "created_at").
			Values(repID, outletID, database.Now()))
	if err != nil {
		t.Fatalf("failed to seed assignment %d->%d: %v", repID, outletID, err)
	}
}
