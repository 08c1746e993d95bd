package outlet

import (
	"context"

	"github.com/jordanlanch/fieldsales/pkg/cache"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

// ListForRep returns one page of the outlets assigned to repID that match
// the filter, ordered by name.
//
// The cache key embeds both the directory generation and the
// representative's generation, so an outlet edit and an assignment change
// each make earlier pages unreachable.
func (s *Service) ListForRep(ctx context.Context, repID int, q models.OutletQuery) (*models.OutletListResponse, error) {
	q = q.Normalize()

	key := ""
	dirGen, dirOK := s.directoryGeneration(ctx)
	repGen, repOK := s.cache.Generation(ctx, cache.OutletsForRep(repID).GenKey)
	if dirOK && repOK {
		key = cache.OutletListKey(dirGen, repGen, repID, q.Canonical())
	}

	resp, err := cache.ReadThrough(ctx, s.cache, key, s.cfg.ListTTL, func(ctx context.Context) (models.OutletListResponse, error) {
		return s.list(ctx, &repID, q)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListFor picks the listing that matches the caller: administrators see the
// whole directory, representatives only their assignments.
func (s *Service) ListFor(ctx context.Context, caller models.Caller, q models.OutletQuery) (*models.OutletListResponse, error) {
	if caller.IsAdmin() {
		return s.Search(ctx, q)
	}
	return s.ListForRep(ctx, caller.ID, q)
}
