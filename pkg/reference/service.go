// Package reference manages the region, area, territory and distributor
// tables that outlets point into.
package reference

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/jordanlanch/fieldsales/pkg/cache"
	"github.com/jordanlanch/fieldsales/pkg/database"
	"github.com/jordanlanch/fieldsales/pkg/domain"
	"github.com/jordanlanch/fieldsales/pkg/logger"
)

// dependent is a table whose column points at a reference row
type dependent struct {
	table  string
	column string
}

// kind describes one reference table
type kind struct {
	table      string
	resource   string
	parent     *kind
	parentCol  string
	dependents []dependent
}

var (
	regionKind = &kind{
		table:    database.RegionsTable,
		resource: "region",
		dependents: []dependent{
			{database.AreasTable, "region_id"},
			{database.OutletsTable, "region_id"},
		},
	}
	areaKind = &kind{
		table:     database.AreasTable,
		resource:  "area",
		parent:    regionKind,
		parentCol: "region_id",
		dependents: []dependent{
			{database.TerritoriesTable, "area_id"},
			{database.OutletsTable, "area_id"},
		},
	}
	territoryKind = &kind{
		table:      database.TerritoriesTable,
		resource:   "territory",
		parent:     areaKind,
		parentCol:  "area_id",
		dependents: []dependent{{database.OutletsTable, "territory_id"}},
	}
	distributorKind = &kind{
		table:      database.DistributorsTable,
		resource:   "distributor",
		dependents: []dependent{{database.OutletsTable, "distributor_id"}},
	}
)

func (k *kind) columns() []string {
	if k.parent == nil {
		return []string{"id", "name", "created_at", "updated_at"}
	}
	return []string{"id", "name", k.parentCol, "created_at", "updated_at"}
}

// node is the shape shared by every reference row. ParentID is zero for
// tables without a parent.
type node struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	ParentID  int       `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service reads and writes reference data through the cache
type Service struct {
	db    *database.Client
	cache *cache.Cache
	log   logger.Logger
	ttl   time.Duration
}

// NewService creates a new reference data service
func NewService(db *database.Client, c *cache.Cache, log logger.Logger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		db:    db,
		cache: c,
		log:   log.With("service", "reference"),
		ttl:   ttl,
	}
}

func (s *Service) list(ctx context.Context, k *kind, parentID *int) ([]node, error) {
	key := cache.ReferenceAllKey(k.table)
	if parentID != nil && k.parent != nil {
		key = cache.ReferenceByParentKey(k.table, k.parent.resource, *parentID)
	}

	return cache.ReadThrough(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]node, error) {
		b := s.db.SQL()
		sel := b.Select(k.columns()...).From(b.Table(k.table)).OrderBy("name", "id")
		if parentID != nil && k.parent != nil {
			sel.Where(entsql.EQ(k.parentCol, *parentID))
		}

		nodes := []node{}
		err := database.Query(ctx, s.db.Driver, sel, func(rows *entsql.Rows) error {
			n, err := scanNode(rows, k)
			if err != nil {
				return err
			}
			nodes = append(nodes, n)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", k.table, err)
		}
		return nodes, nil
	})
}

func (s *Service) get(ctx context.Context, k *kind, id int) (node, error) {
	return cache.ReadThrough(ctx, s.cache, cache.ReferenceByIDKey(k.table, id), s.ttl, func(ctx context.Context) (node, error) {
		return s.load(ctx, k, id)
	})
}

func (s *Service) load(ctx context.Context, k *kind, id int) (node, error) {
	b := s.db.SQL()
	var (
		n     node
		found bool
	)
	err := database.Query(ctx, s.db.Driver, b.Select(k.columns()...).
		From(b.Table(k.table)).
		Where(entsql.EQ("id", id)).
		Limit(1), func(rows *entsql.Rows) error {
		var err error
		n, err = scanNode(rows, k)
		found = err == nil
		return err
	})
	if err != nil {
		return node{}, fmt.Errorf("failed to load %s: %w", k.resource, err)
	}
	if !found {
		return node{}, domain.NewNotFoundError(k.resource)
	}
	return n, nil
}

func (s *Service) create(ctx context.Context, k *kind, name string, parentID int) (node, error) {
	if err := s.ensureParent(ctx, k, parentID); err != nil {
		return node{}, err
	}

	now := database.Now()
	ins := s.db.SQL().Insert(k.table)
	if k.parent == nil {
		ins.Columns("name", "created_at", "updated_at").Values(name, now, now)
	} else {
		ins.Columns("name", k.parentCol, "created_at", "updated_at").Values(name, parentID, now, now)
	}

	id, err := database.InsertID(ctx, s.db.Driver, s.db.Dialect(), ins)
	if err != nil {
		return node{}, fmt.Errorf("failed to create %s: %w", k.resource, err)
	}

	s.cache.Invalidate(ctx, cache.Reference(k.table))
	s.log.Info("reference created", "kind", k.resource, "id", id, "name", name)
	return s.load(ctx, k, id)
}

// update renames a node and, for child kinds, moves it under parentID.
// Moving a node that outlets already point at would leave those outlets
// with a contradictory hierarchy, so it is refused.
func (s *Service) update(ctx context.Context, k *kind, id int, name string, parentID int) (node, error) {
	current, err := s.load(ctx, k, id)
	if err != nil {
		return node{}, err
	}

	upd := s.db.SQL().Update(k.table).
		Set("name", name).
		Set("updated_at", database.Now()).
		Where(entsql.EQ("id", id))

	if k.parent != nil && parentID != current.ParentID {
		if err := s.ensureParent(ctx, k, parentID); err != nil {
			return node{}, err
		}
		for _, d := range k.dependents {
			if err := s.ensureUnreferenced(ctx, k, d, id, "moved"); err != nil {
				return node{}, err
			}
		}
		upd.Set(k.parentCol, parentID)
	}

	if _, err := database.Exec(ctx, s.db.Driver, upd); err != nil {
		return node{}, fmt.Errorf("failed to update %s: %w", k.resource, err)
	}

	// outlet reads embed reference names
	s.cache.Invalidate(ctx, cache.Reference(k.table))
	s.cache.Invalidate(ctx, cache.OutletDirectory())
	s.log.Info("reference updated", "kind", k.resource, "id", id)
	return s.load(ctx, k, id)
}

func (s *Service) delete(ctx context.Context, k *kind, id int) error {
	for _, d := range k.dependents {
		if err := s.ensureUnreferenced(ctx, k, d, id, "deleted"); err != nil {
			return err
		}
	}

	n, err := database.Exec(ctx, s.db.Driver, s.db.SQL().Delete(k.table).Where(entsql.EQ("id", id)))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return domain.NewConflictError(fmt.Sprintf("%s is still referenced", k.resource))
		}
		return fmt.Errorf("failed to delete %s: %w", k.resource, err)
	}
	if n == 0 {
		return domain.NewNotFoundError(k.resource)
	}

	s.cache.Invalidate(ctx, cache.Reference(k.table))
	s.log.Info("reference deleted", "kind", k.resource, "id", id)
	return nil
}

func (s *Service) ensureParent(ctx context.Context, k *kind, parentID int) error {
	if k.parent == nil {
		return nil
	}
	b := s.db.SQL()
	ok, err := database.Exists(ctx, s.db.Driver, b.Select("id").
		From(b.Table(k.parent.table)).
		Where(entsql.EQ("id", parentID)))
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", k.parent.resource, err)
	}
	if !ok {
		return domain.NewNotFoundError(k.parent.resource)
	}
	return nil
}

func (s *Service) ensureUnreferenced(ctx context.Context, k *kind, d dependent, id int, verb string) error {
	b := s.db.SQL()
	used, err := database.Exists(ctx, s.db.Driver, b.Select("id").
		From(b.Table(d.table)).
		Where(entsql.EQ(d.column, id)).
		Limit(1))
	if err != nil {
		return fmt.Errorf("failed to check %s references: %w", d.table, err)
	}
	if used {
		return domain.NewConflictError(fmt.Sprintf("%s is referenced by %s and cannot be %s", k.resource, d.table, verb))
	}
	return nil
}

func scanNode(rows *entsql.Rows, k *kind) (node, error) {
	var n node
	var err error
	if k.parent == nil {
		err = rows.Scan(&n.ID, &n.Name, &n.CreatedAt, &n.UpdatedAt)
	} else {
		err = rows.Scan(&n.ID, &n.Name, &n.ParentID, &n.CreatedAt, &n.UpdatedAt)
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return n, err
}
