package assignment

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/jordanlanch/fieldsales/pkg/cache"
	"github.com/jordanlanch/fieldsales/pkg/database"
	"github.com/jordanlanch/fieldsales/pkg/domain"
	"github.com/jordanlanch/fieldsales/pkg/logger"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

// inChunk bounds the size of IN (...) lists
const inChunk = 500

// Result messages
const (
	MsgNothingNew = "All outlets are already assigned to this sales rep"
	msgAssigned   = "Successfully assigned %d outlets"
	msgUnassigned = "Successfully unassigned %d outlets"
)

// Recorder receives assignment counts. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordAssignments(operation string, n int)
}

// Service owns the representative to outlet relation
type Service struct {
	db       *database.Client
	cache    *cache.Cache
	log      logger.Logger
	recorder Recorder
}

// NewService creates a new assignment service. rec may be nil.
func NewService(db *database.Client, c *cache.Cache, log logger.Logger, rec Recorder) *Service {
	return &Service{
		db:       db,
		cache:    c,
		log:      log.With("service", "assignment"),
		recorder: rec,
	}
}

// BulkAssign links outletIDs to repID. Pairs that already exist are left
// alone, so repeating a call changes nothing and reports zero.
func (s *Service) BulkAssign(ctx context.Context, repID int, outletIDs []int) (*models.BulkAssignmentResult, error) {
	if err := s.ensureRep(ctx, repID); err != nil {
		return nil, err
	}

	ids := dedupe(outletIDs)
	if len(ids) == 0 {
		return nil, domain.NewValidationError("outlet_ids must not be empty")
	}

	if err := s.ensureOutlets(ctx, ids); err != nil {
		return nil, err
	}

	existing, err := s.assignedAmong(ctx, repID, ids)
	if err != nil {
		return nil, err
	}

	var missing []int
	for _, id := range ids {
		if !existing[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return &models.BulkAssignmentResult{Success: true, Assigned: 0, Message: MsgNothingNew}, nil
	}

	// The composite key is the real guard: a concurrent call that inserted
	// some of these pairs after the read above is absorbed by DO NOTHING.
	now := database.Now()
	ins := s.db.SQL().Insert(database.SalesRepOutletTable).
		Columns("sales_rep_id", "outlet_id", "created_at")
	for _, id := range missing {
		ins.Values(repID, id, now)
	}
	ins.OnConflict(entsql.ConflictColumns("sales_rep_id", "outlet_id"), entsql.DoNothing())

	n, err := database.Exec(ctx, s.db.Driver, ins)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, domain.NewNotFoundError("outlet")
		}
		return nil, fmt.Errorf("failed to insert assignments: %w", err)
	}

	assigned := int(n)
	if assigned == 0 {
		return &models.BulkAssignmentResult{Success: true, Assigned: 0, Message: MsgNothingNew}, nil
	}

	s.cache.Invalidate(ctx, cache.OutletsForRep(repID))
	s.record("assign", assigned)
	s.log.Info("outlets assigned", "sales_rep_id", repID, "requested", len(ids), "assigned", assigned)

	return &models.BulkAssignmentResult{
		Success:  true,
		Assigned: assigned,
		Message:  fmt.Sprintf(msgAssigned, assigned),
	}, nil
}

// BulkUnassign removes the given pairs. Pairs that don't exist are ignored.
func (s *Service) BulkUnassign(ctx context.Context, repID int, outletIDs []int) (*models.BulkAssignmentResult, error) {
	if err := s.ensureRep(ctx, repID); err != nil {
		return nil, err
	}

	removed := 0
	for _, chunk := range chunks(dedupe(outletIDs), inChunk) {
		del := s.db.SQL().Delete(database.SalesRepOutletTable).
			Where(entsql.And(
				entsql.EQ("sales_rep_id", repID),
				entsql.In("outlet_id", toAny(chunk)...),
			))
		n, err := database.Exec(ctx, s.db.Driver, del)
		if err != nil {
			return nil, fmt.Errorf("failed to delete assignments: %w", err)
		}
		removed += int(n)
	}

	if removed > 0 {
		s.cache.Invalidate(ctx, cache.OutletsForRep(repID))
		s.record("unassign", removed)
		s.log.Info("outlets unassigned", "sales_rep_id", repID, "removed", removed)
	}

	return &models.BulkAssignmentResult{
		Success:  true,
		Assigned: removed,
		Message:  fmt.Sprintf(msgUnassigned, removed),
	}, nil
}

// Exists reports whether outletID is assigned to repID
func (s *Service) Exists(ctx context.Context, repID, outletID int) (bool, error) {
	b := s.db.SQL()
	sel := b.Select("outlet_id").
		From(b.Table(database.SalesRepOutletTable)).
		Where(entsql.And(
			entsql.EQ("sales_rep_id", repID),
			entsql.EQ("outlet_id", outletID),
		)).
		Limit(1)

	ok, err := database.Exists(ctx, s.db.Driver, sel)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return ok, nil
}

// CountFor returns how many outlets are assigned to repID
func (s *Service) CountFor(ctx context.Context, repID int) (int, error) {
	if err := s.ensureRep(ctx, repID); err != nil {
		return 0, err
	}

	b := s.db.SQL()
	n, err := database.Count(ctx, s.db.Driver, b.Select(entsql.Count("*")).
		From(b.Table(database.SalesRepOutletTable)).
		Where(entsql.EQ("sales_rep_id", repID)))
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return n, nil
}

func (s *Service) ensureRep(ctx context.Context, repID int) error {
	b := s.db.SQL()
	ok, err := database.Exists(ctx, s.db.Driver, b.Select("id").
		From(b.Table(database.SalesRepsTable)).
		Where(entsql.EQ("id", repID)))
	if err != nil {
		return fmt.Errorf("failed to look up sales rep: %w", err)
	}
	if !ok {
		return domain.NewNotFoundError("sales rep")
	}
	return nil
}

func (s *Service) ensureOutlets(ctx context.Context, ids []int) error {
	found := make(map[int]bool, len(ids))
	b := s.db.SQL()
	for _, chunk := range chunks(ids, inChunk) {
		sel := b.Select("id").From(b.Table(database.OutletsTable)).Where(entsql.In("id", toAny(chunk)...))
		err := database.Query(ctx, s.db.Driver, sel, func(rows *entsql.Rows) error {
			var id int
			if err := rows.Scan(&id); err != nil {
				return err
			}
			found[id] = true
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to look up outlets: %w", err)
		}
	}

	var unknown []int
	for _, id := range ids {
		if !found[id] {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return domain.NewNotFoundError(fmt.Sprintf("outlets %v", unknown))
	}
	return nil
}

func (s *Service) assignedAmong(ctx context.Context, repID int, ids []int) (map[int]bool, error) {
	existing := make(map[int]bool)
	b := s.db.SQL()
	for _, chunk := range chunks(ids, inChunk) {
		sel := b.Select("outlet_id").
			From(b.Table(database.SalesRepOutletTable)).
			Where(entsql.And(
				entsql.EQ("sales_rep_id", repID),
				entsql.In("outlet_id", toAny(chunk)...),
			))
		err := database.Query(ctx, s.db.Driver, sel, func(rows *entsql.Rows) error {
			var id int
			if err := rows.Scan(&id); err != nil {
				return err
			}
			existing[id] = true
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read assignments: %w", err)
		}
	}
	return existing, nil
}

func (s *Service) record(operation string, n int) {
	if s.recorder != nil {
		s.recorder.RecordAssignments(operation, n)
	}
}

// dedupe keeps the first occurrence of each id
func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunks(ids []int, size int) [][]int {
	var out [][]int
	for start := 0; start < len(ids); start += size {
		out = append(out, ids[start:min(start+size, len(ids))])
	}
	return out
}

func toAny(ids []int) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
