package outlet

import (
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/jordanlanch/fieldsales/pkg/database"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

// outletTables aliases every table an outlet read touches
type outletTables struct {
	b           *entsql.DialectBuilder
	outlet      *entsql.SelectTable
	region      *entsql.SelectTable
	area        *entsql.SelectTable
	distributor *entsql.SelectTable
	territory   *entsql.SelectTable
	assignment  *entsql.SelectTable
}

func newOutletTables(db *database.Client) *outletTables {
	b := db.SQL()
	return &outletTables{
		b:           b,
		outlet:      b.Table(database.OutletsTable).As("o"),
		region:      b.Table(database.RegionsTable).As("r"),
		area:        b.Table(database.AreasTable).As("a"),
		distributor: b.Table(database.DistributorsTable).As("d"),
		territory:   b.Table(database.TerritoriesTable).As("t"),
		assignment:  b.Table(database.SalesRepOutletTable).As("sro"),
	}
}

// rows selects outlet columns plus the names of the referenced nodes
func (t *outletTables) rows() *entsql.Selector {
	o := t.outlet
	return t.b.Select(
		o.C("id"), o.C("uid"), o.C("name"), o.C("phone"), o.C("points"), o.C("routes"), o.C("notes"),
		o.C("region_id"), o.C("area_id"), o.C("distributor_id"), o.C("territory_id"),
		o.C("created_at"), o.C("updated_at"),
		t.region.C("name"), t.area.C("name"), t.distributor.C("name"), t.territory.C("name"),
	).
		From(o).
		LeftJoin(t.region).On(o.C("region_id"), t.region.C("id")).
		LeftJoin(t.area).On(o.C("area_id"), t.area.C("id")).
		LeftJoin(t.distributor).On(o.C("distributor_id"), t.distributor.C("id")).
		LeftJoin(t.territory).On(o.C("territory_id"), t.territory.C("id"))
}

// count selects COUNT(*) over outlets
func (t *outletTables) count() *entsql.Selector {
	return t.b.Select(entsql.Count("*")).From(t.outlet)
}

// scope restricts sel to outlets assigned to repID
func (t *outletTables) scope(sel *entsql.Selector, repID int) *entsql.Selector {
	return sel.
		Join(t.assignment).On(t.outlet.C("id"), t.assignment.C("outlet_id")).
		Where(entsql.EQ(t.assignment.C("sales_rep_id"), repID))
}

// filter applies the optional equality filters and the search term.
// The search term must already be normalized.
func (t *outletTables) filter(sel *entsql.Selector, f models.OutletFilter) *entsql.Selector {
	o := t.outlet
	var preds []*entsql.Predicate

	if f.RegionID != nil {
		preds = append(preds, entsql.EQ(o.C("region_id"), *f.RegionID))
	}
	if f.AreaID != nil {
		preds = append(preds, entsql.EQ(o.C("area_id"), *f.AreaID))
	}
	if f.DistributorID != nil {
		preds = append(preds, entsql.EQ(o.C("distributor_id"), *f.DistributorID))
	}
	if f.TerritoryID != nil {
		preds = append(preds, entsql.EQ(o.C("territory_id"), *f.TerritoryID))
	}
	if f.Search != "" {
		preds = append(preds, entsql.Or(
			entsql.ContainsFold(o.C("name"), f.Search),
			entsql.ContainsFold(o.C("uid"), f.Search),
			entsql.ContainsFold(o.C("phone"), f.Search),
		))
	}

	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	return sel
}

// page orders by name, breaking ties by id, and applies the offset window
func (t *outletTables) page(sel *entsql.Selector, q models.OutletQuery) *entsql.Selector {
	return sel.
		OrderBy(t.outlet.C("name"), t.outlet.C("id")).
		Limit(q.Limit).
		Offset(q.Offset())
}

func scanOutlet(rows *entsql.Rows) (models.Outlet, error) {
	var (
		o                            models.Outlet
		region, area, dist, territory sql.NullString
	)
	err := rows.Scan(
		&o.ID, &o.UID, &o.Name, &o.Phone, &o.Points, &o.Routes, &o.Notes,
		&o.RegionID, &o.AreaID, &o.DistributorID, &o.TerritoryID,
		&o.CreatedAt, &o.UpdatedAt,
		&region, &area, &dist, &territory,
	)
	if err != nil {
		return o, err
	}

	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	o.Region = refNode(o.RegionID, region)
	o.Area = refNode(o.AreaID, area)
	o.Distributor = refNode(o.DistributorID, dist)
	o.Territory = refNode(o.TerritoryID, territory)
	return o, nil
}

func refNode(id int, name sql.NullString) *models.RefNode {
	if !name.Valid {
		return nil
	}
	return &models.RefNode{ID: id, Name: name.String}
}
