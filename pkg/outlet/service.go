package outlet

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/jordanlanch/fieldsales/pkg/cache"
	"github.com/jordanlanch/fieldsales/pkg/database"
	"github.com/jordanlanch/fieldsales/pkg/domain"
	"github.com/jordanlanch/fieldsales/pkg/logger"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

// bulkInsertChunk keeps multi-row inserts under driver parameter limits
const bulkInsertChunk = 500

// Config holds cache lifetimes. ListTTL should be shorter than RecordTTL.
type Config struct {
	RecordTTL time.Duration
	ListTTL   time.Duration
}

// Service owns outlet records and their cached views
type Service struct {
	db    *database.Client
	cache *cache.Cache
	log   logger.Logger
	cfg   Config
}

// NewService creates a new outlet service
func NewService(db *database.Client, c *cache.Cache, log logger.Logger, cfg Config) *Service {
	if cfg.RecordTTL <= 0 {
		cfg.RecordTTL = time.Hour
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = 5 * time.Minute
	}
	return &Service{
		db:    db,
		cache: c,
		log:   log.With("service", "outlet"),
		cfg:   cfg,
	}
}

// directoryGeneration returns the current directory version, or ok=false
// when the cache cannot be trusted for this request
func (s *Service) directoryGeneration(ctx context.Context) (int64, bool) {
	return s.cache.Generation(ctx, cache.OutletDirectory().GenKey)
}

// FindByUID returns the outlet with the given external uid
func (s *Service) FindByUID(ctx context.Context, uid string) (*models.Outlet, error) {
	key := ""
	if gen, ok := s.directoryGeneration(ctx); ok {
		key = cache.OutletByUIDKey(gen, uid)
	}

	o, err := cache.ReadThrough(ctx, s.cache, key, s.cfg.RecordTTL, func(ctx context.Context) (models.Outlet, error) {
		t := newOutletTables(s.db)
		return s.one(ctx, s.db.Driver, t.rows().Where(entsql.EQ(t.outlet.C("uid"), uid)))
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// FindByID returns the outlet with the given surrogate id
func (s *Service) FindByID(ctx context.Context, id int) (*models.Outlet, error) {
	key := ""
	if gen, ok := s.directoryGeneration(ctx); ok {
		key = cache.OutletByIDKey(gen, id)
	}

	o, err := cache.ReadThrough(ctx, s.cache, key, s.cfg.RecordTTL, func(ctx context.Context) (models.Outlet, error) {
		return s.load(ctx, s.db.Driver, id)
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// load reads one outlet straight from the store
func (s *Service) load(ctx context.Context, conn dialect.ExecQuerier, id int) (models.Outlet, error) {
	t := newOutletTables(s.db)
	return s.one(ctx, conn, t.rows().Where(entsql.EQ(t.outlet.C("id"), id)))
}

func (s *Service) one(ctx context.Context, conn dialect.ExecQuerier, sel *entsql.Selector) (models.Outlet, error) {
	var (
		found bool
		out   models.Outlet
	)
	err := database.Query(ctx, conn, sel.Limit(1), func(rows *entsql.Rows) error {
		o, err := scanOutlet(rows)
		if err != nil {
			return err
		}
		out, found = o, true
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("failed to query outlet: %w", err)
	}
	if !found {
		return out, domain.NewNotFoundError("outlet")
	}
	return out, nil
}

// Create inserts a single outlet
func (s *Service) Create(ctx context.Context, req models.OutletCreateRequest) (*models.Outlet, error) {
	if err := s.checkReferences(ctx, req.RegionID, req.AreaID, req.DistributorID, req.TerritoryID); err != nil {
		return nil, err
	}

	now := database.Now()
	ins := s.db.SQL().Insert(database.OutletsTable).
		Columns(outletInsertColumns...).
		Values(createValues(req, now)...)

	id, err := database.InsertID(ctx, s.db.Driver, s.db.Dialect(), ins)
	if err != nil {
		return nil, s.mapWriteError(err, req.UID)
	}

	s.invalidate(ctx)
	s.log.Info("outlet created", "id", id, "uid", req.UID)

	o, err := s.load(ctx, s.db.Driver, id)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Update applies a partial update. Nil fields are left unchanged.
func (s *Service) Update(ctx context.Context, id int, req models.OutletUpdateRequest) (*models.Outlet, error) {
	current, err := s.load(ctx, s.db.Driver, id)
	if err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		return &current, nil
	}

	if req.RegionID != nil || req.AreaID != nil || req.DistributorID != nil || req.TerritoryID != nil {
		err := s.checkReferences(ctx,
			pick(req.RegionID, current.RegionID),
			pick(req.AreaID, current.AreaID),
			pick(req.DistributorID, current.DistributorID),
			pick(req.TerritoryID, current.TerritoryID))
		if err != nil {
			return nil, err
		}
	}

	upd := s.db.SQL().Update(database.OutletsTable).
		Set("updated_at", database.Now()).
		Where(entsql.EQ("id", id))
	setIf(upd, "uid", req.UID)
	setIf(upd, "name", req.Name)
	setIf(upd, "phone", req.Phone)
	setIf(upd, "region_id", req.RegionID)
	setIf(upd, "area_id", req.AreaID)
	setIf(upd, "distributor_id", req.DistributorID)
	setIf(upd, "territory_id", req.TerritoryID)
	setIf(upd, "points", req.Points)
	setIf(upd, "routes", req.Routes)
	setIf(upd, "notes", req.Notes)

	n, err := database.Exec(ctx, s.db.Driver, upd)
	if err != nil {
		uid := current.UID
		if req.UID != nil {
			uid = *req.UID
		}
		return nil, s.mapWriteError(err, uid)
	}
	if n == 0 {
		return nil, domain.NewNotFoundError("outlet")
	}

	s.invalidate(ctx)

	updated, err := s.load(ctx, s.db.Driver, id)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an outlet. Its assignment rows go with it.
func (s *Service) Delete(ctx context.Context, id int) error {
	err := s.db.WithTx(ctx, func(tx dialect.Tx) error {
		if _, err := database.Exec(ctx, tx, s.db.SQL().Delete(database.SalesRepOutletTable).
			Where(entsql.EQ("outlet_id", id))); err != nil {
			return fmt.Errorf("failed to delete assignments: %w", err)
		}
		n, err := database.Exec(ctx, tx, s.db.SQL().Delete(database.OutletsTable).Where(entsql.EQ("id", id)))
		if err != nil {
			return fmt.Errorf("failed to delete outlet: %w", err)
		}
		if n == 0 {
			return domain.NewNotFoundError("outlet")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	s.log.Info("outlet deleted", "id", id)
	return nil
}

// BulkCreate inserts records whose uid is not taken yet and reports how
// many rows were inserted. Duplicates, in the store or within records, are
// skipped silently. A record whose area or territory sits outside its
// region or area fails the whole call, as Create would.
func (s *Service) BulkCreate(ctx context.Context, records []models.OutletCreateRequest) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	inserted := 0
	now := database.Now()
	err := s.db.WithTx(ctx, func(tx dialect.Tx) error {
		if err := s.checkHierarchy(ctx, tx, records); err != nil {
			return err
		}

		for start := 0; start < len(records); start += bulkInsertChunk {
			end := min(start+bulkInsertChunk, len(records))

			ins := s.db.SQL().Insert(database.OutletsTable).Columns(outletInsertColumns...)
			for _, r := range records[start:end] {
				ins.Values(createValues(r, now)...)
			}
			ins.OnConflict(entsql.ConflictColumns("uid"), entsql.DoNothing())

			n, err := database.Exec(ctx, tx, ins)
			if err != nil {
				return err
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		if domain.IsValidation(err) {
			return 0, err
		}
		if database.IsForeignKeyViolation(err) {
			return 0, domain.NewValidationError("one or more records reference a missing region, area, distributor or territory")
		}
		return 0, fmt.Errorf("failed to bulk insert outlets: %w", err)
	}

	if inserted > 0 {
		s.invalidate(ctx)
	}
	s.log.Info("outlets bulk created", "requested", len(records), "inserted", inserted)
	return inserted, nil
}

// Search lists outlets across the whole directory
func (s *Service) Search(ctx context.Context, q models.OutletQuery) (*models.OutletListResponse, error) {
	q = q.Normalize()

	key := ""
	if gen, ok := s.directoryGeneration(ctx); ok {
		key = cache.OutletSearchKey(gen, q.Canonical())
	}

	resp, err := cache.ReadThrough(ctx, s.cache, key, s.cfg.ListTTL, func(ctx context.Context) (models.OutletListResponse, error) {
		return s.list(ctx, nil, q)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// list runs a filtered page, scoped to repID when it is set
func (s *Service) list(ctx context.Context, repID *int, q models.OutletQuery) (models.OutletListResponse, error) {
	t := newOutletTables(s.db)

	countSel := t.filter(t.count(), q.OutletFilter)
	rowsSel := t.filter(t.rows(), q.OutletFilter)
	if repID != nil {
		countSel = t.scope(countSel, *repID)
		rowsSel = t.scope(rowsSel, *repID)
	}

	total, err := database.Count(ctx, s.db.Driver, countSel)
	if err != nil {
		return models.OutletListResponse{}, fmt.Errorf("failed to count outlets: %w", err)
	}

	data := make([]models.Outlet, 0, q.Limit)
	err = database.Query(ctx, s.db.Driver, t.page(rowsSel, q), func(rows *entsql.Rows) error {
		o, err := scanOutlet(rows)
		if err != nil {
			return err
		}
		data = append(data, o)
		return nil
	})
	if err != nil {
		return models.OutletListResponse{}, fmt.Errorf("failed to query outlets: %w", err)
	}

	return models.OutletListResponse{
		Data: data,
		Meta: models.NewPaginationMeta(total, q.Page, q.Limit),
	}, nil
}

// invalidate runs after the write is acknowledged by the store
func (s *Service) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, cache.OutletDirectory())
}

// checkReferences verifies every referenced node exists and that the area
// and territory sit under the given region and area.
func (s *Service) checkReferences(ctx context.Context, regionID, areaID, distributorID, territoryID int) error {
	b := s.db.SQL()

	var areaRegion int
	found, err := scalar(ctx, s.db, b.Select("region_id").From(b.Table(database.AreasTable)).Where(entsql.EQ("id", areaID)), &areaRegion)
	if err != nil {
		return err
	}
	if !found {
		return domain.NewNotFoundError("area")
	}

	var territoryArea int
	found, err = scalar(ctx, s.db, b.Select("area_id").From(b.Table(database.TerritoriesTable)).Where(entsql.EQ("id", territoryID)), &territoryArea)
	if err != nil {
		return err
	}
	if !found {
		return domain.NewNotFoundError("territory")
	}

	for _, ref := range []struct {
		table, name string
		id          int
	}{
		{database.RegionsTable, "region", regionID},
		{database.DistributorsTable, "distributor", distributorID},
	} {
		ok, err := database.Exists(ctx, s.db.Driver, b.Select("id").From(b.Table(ref.table)).Where(entsql.EQ("id", ref.id)))
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", ref.name, err)
		}
		if !ok {
			return domain.NewNotFoundError(ref.name)
		}
	}

	if areaRegion != regionID {
		return domain.NewValidationError("area does not belong to the given region")
	}
	if territoryArea != areaID {
		return domain.NewValidationError("territory does not belong to the given area")
	}
	return nil
}

// checkHierarchy is the batch form of the parent checks in checkReferences.
// Unknown ids are left to the foreign keys.
func (s *Service) checkHierarchy(ctx context.Context, conn dialect.ExecQuerier, records []models.OutletCreateRequest) error {
	areaIDs := make([]int, 0, len(records))
	territoryIDs := make([]int, 0, len(records))
	for _, r := range records {
		areaIDs = append(areaIDs, r.AreaID)
		territoryIDs = append(territoryIDs, r.TerritoryID)
	}

	areaRegion, err := s.parentsOf(ctx, conn, database.AreasTable, "region_id", areaIDs)
	if err != nil {
		return err
	}
	territoryArea, err := s.parentsOf(ctx, conn, database.TerritoriesTable, "area_id", territoryIDs)
	if err != nil {
		return err
	}

	for _, r := range records {
		if parent, ok := areaRegion[r.AreaID]; ok && parent != r.RegionID {
			return domain.NewValidationError(fmt.Sprintf("outlet %q: area does not belong to the given region", r.UID))
		}
		if parent, ok := territoryArea[r.TerritoryID]; ok && parent != r.AreaID {
			return domain.NewValidationError(fmt.Sprintf("outlet %q: territory does not belong to the given area", r.UID))
		}
	}
	return nil
}

// parentsOf maps each existing id in table to its parentCol value
func (s *Service) parentsOf(ctx context.Context, conn dialect.ExecQuerier, table, parentCol string, ids []int) (map[int]int, error) {
	seen := make(map[int]bool, len(ids))
	uniq := make([]any, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}

	parents := make(map[int]int, len(uniq))
	b := s.db.SQL()
	for start := 0; start < len(uniq); start += bulkInsertChunk {
		end := min(start+bulkInsertChunk, len(uniq))
		sel := b.Select("id", parentCol).From(b.Table(table)).Where(entsql.In("id", uniq[start:end]...))
		err := database.Query(ctx, conn, sel, func(rows *entsql.Rows) error {
			var id, parent int
			if err := rows.Scan(&id, &parent); err != nil {
				return err
			}
			parents[id] = parent
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load %s parents: %w", table, err)
		}
	}
	return parents, nil
}

func (s *Service) mapWriteError(err error, uid string) error {
	switch {
	case database.IsUniqueViolation(err):
		return domain.NewConflictError(fmt.Sprintf("outlet with uid %q already exists", uid))
	case database.IsForeignKeyViolation(err):
		return domain.NewValidationError("referenced region, area, distributor or territory does not exist")
	default:
		return fmt.Errorf("failed to write outlet: %w", err)
	}
}

var outletInsertColumns = []string{
	"uid", "name", "phone", "points", "routes", "notes",
	"region_id", "area_id", "distributor_id", "territory_id",
	"created_at", "updated_at",
}

func createValues(r models.OutletCreateRequest, now time.Time) []any {
	return []any{
		r.UID, r.Name, r.Phone, r.Points, r.Routes, r.Notes,
		r.RegionID, r.AreaID, r.DistributorID, r.TerritoryID,
		now, now,
	}
}

func scalar(ctx context.Context, db *database.Client, sel *entsql.Selector, dst any) (bool, error) {
	found := false
	err := database.Query(ctx, db.Driver, sel, func(rows *entsql.Rows) error {
		found = true
		return rows.Scan(dst)
	})
	return found, err
}

func setIf[T any](u *entsql.UpdateBuilder, column string, v *T) {
	if v != nil {
		u.Set(column, *v)
	}
}

func pick(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}
