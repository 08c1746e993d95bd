package salesrep

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/jordanlanch/fieldsales/pkg/auth"
	"github.com/jordanlanch/fieldsales/pkg/cache"
	"github.com/jordanlanch/fieldsales/pkg/database"
	"github.com/jordanlanch/fieldsales/pkg/domain"
	"github.com/jordanlanch/fieldsales/pkg/logger"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

var columns = []string{"id", "username", "name", "phone", "role", "password_hash", "created_at", "updated_at"}

// Service manages representative and administrator accounts
type Service struct {
	db      *database.Client
	cache   *cache.Cache
	log     logger.Logger
	listTTL time.Duration
}

// NewService creates a new sales rep service
func NewService(db *database.Client, c *cache.Cache, log logger.Logger, listTTL time.Duration) *Service {
	if listTTL <= 0 {
		listTTL = 5 * time.Minute
	}
	return &Service{
		db:      db,
		cache:   c,
		log:     log.With("service", "salesrep"),
		listTTL: listTTL,
	}
}

// Create registers a new account. Role defaults to sales_rep.
func (s *Service) Create(ctx context.Context, req models.SalesRepCreateRequest) (*models.SalesRep, error) {
	if len(req.Password) < auth.MinPasswordLength {
		return nil, domain.NewValidationError(fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	role := req.Role
	if role == "" {
		role = models.RoleSalesRep
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := database.Now()
	id, err := database.InsertID(ctx, s.db.Driver, s.db.Dialect(), s.db.SQL().Insert(database.SalesRepsTable).
		Columns("username", "name", "phone", "role", "password_hash", "created_at", "updated_at").
		Values(req.Username, req.Name, req.Phone, role, hash, now, now))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, domain.NewConflictError(fmt.Sprintf("username %q already exists", req.Username))
		}
		return nil, fmt.Errorf("failed to create sales rep: %w", err)
	}

	s.cache.Invalidate(ctx, cache.SalesReps())
	s.log.Info("sales rep created", "id", id, "username", req.Username, "role", role)
	return s.Get(ctx, id)
}

// Get returns the account with the given id
func (s *Service) Get(ctx context.Context, id int) (*models.SalesRep, error) {
	return s.one(ctx, entsql.EQ("id", id))
}

// GetByUsername returns the account used for login, password hash included
func (s *Service) GetByUsername(ctx context.Context, username string) (*models.SalesRep, error) {
	return s.one(ctx, entsql.EQ("username", username))
}

func (s *Service) one(ctx context.Context, p *entsql.Predicate) (*models.SalesRep, error) {
	b := s.db.SQL()
	var rep *models.SalesRep
	err := database.Query(ctx, s.db.Driver, b.Select(columns...).
		From(b.Table(database.SalesRepsTable)).
		Where(p).
		Limit(1), func(rows *entsql.Rows) error {
		r, err := scan(rows)
		rep = r
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load sales rep: %w", err)
	}
	if rep == nil {
		return nil, domain.NewNotFoundError("sales rep")
	}
	return rep, nil
}

// List returns one page of accounts ordered by name
func (s *Service) List(ctx context.Context, page, limit int) (*models.SalesRepListResponse, error) {
	page, limit = models.ClampPage(page, limit)

	resp, err := cache.ReadThrough(ctx, s.cache, cache.SalesRepPageKey(limit, page), s.listTTL,
		func(ctx context.Context) (models.SalesRepListResponse, error) {
			return s.list(ctx, page, limit)
		})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Service) list(ctx context.Context, page, limit int) (models.SalesRepListResponse, error) {
	b := s.db.SQL()
	total, err := database.Count(ctx, s.db.Driver, b.Select(entsql.Count("*")).From(b.Table(database.SalesRepsTable)))
	if err != nil {
		return models.SalesRepListResponse{}, fmt.Errorf("failed to count sales reps: %w", err)
	}

	data := make([]models.SalesRep, 0, limit)
	err = database.Query(ctx, s.db.Driver, b.Select(columns...).
		From(b.Table(database.SalesRepsTable)).
		OrderBy("name", "id").
		Limit(limit).
		Offset((page-1)*limit), func(rows *entsql.Rows) error {
		r, err := scan(rows)
		if err != nil {
			return err
		}
		data = append(data, *r)
		return nil
	})
	if err != nil {
		return models.SalesRepListResponse{}, fmt.Errorf("failed to list sales reps: %w", err)
	}

	return models.SalesRepListResponse{
		Data: data,
		Meta: models.NewPaginationMeta(total, page, limit),
	}, nil
}

// Update patches an account. A new password is re-hashed.
func (s *Service) Update(ctx context.Context, id int, req models.SalesRepUpdateRequest) (*models.SalesRep, error) {
	upd := s.db.SQL().Update(database.SalesRepsTable).Where(entsql.EQ("id", id))
	changed := false
	for _, f := range []struct {
		column string
		value  *string
	}{
		{"name", req.Name},
		{"phone", req.Phone},
		{"role", req.Role},
	} {
		if f.value != nil {
			upd.Set(f.column, *f.value)
			changed = true
		}
	}
	if req.Password != nil {
		if len(*req.Password) < auth.MinPasswordLength {
			return nil, domain.NewValidationError(fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		upd.Set("password_hash", hash)
		changed = true
	}

	if !changed {
		return s.Get(ctx, id)
	}

	n, err := database.Exec(ctx, s.db.Driver, upd.Set("updated_at", database.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to update sales rep: %w", err)
	}
	if n == 0 {
		return nil, domain.NewNotFoundError("sales rep")
	}

	s.cache.Invalidate(ctx, cache.SalesReps())
	s.log.Info("sales rep updated", "id", id)
	return s.Get(ctx, id)
}

// Delete removes an account together with its assignments
func (s *Service) Delete(ctx context.Context, id int) error {
	err := s.db.WithTx(ctx, func(tx dialect.Tx) error {
		if _, err := database.Exec(ctx, tx, s.db.SQL().Delete(database.SalesRepOutletTable).
			Where(entsql.EQ("sales_rep_id", id))); err != nil {
			return fmt.Errorf("failed to delete assignments: %w", err)
		}
		n, err := database.Exec(ctx, tx, s.db.SQL().Delete(database.SalesRepsTable).Where(entsql.EQ("id", id)))
		if err != nil {
			return fmt.Errorf("failed to delete sales rep: %w", err)
		}
		if n == 0 {
			return domain.NewNotFoundError("sales rep")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.SalesReps())
	s.cache.Invalidate(ctx, cache.OutletsForRep(id))
	s.log.Info("sales rep deleted", "id", id)
	return nil
}

func scan(rows *entsql.Rows) (*models.SalesRep, error) {
	var r models.SalesRep
	if err := rows.Scan(&r.ID, &r.Username, &r.Name, &r.Phone, &r.Role, &r.PasswordHash, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}
