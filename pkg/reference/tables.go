package reference

import (
	"context"

	"github.com/jordanlanch/fieldsales/pkg/models"
)

func mapNodes[T any](nodes []node, conv func(node) T) []T {
	out := make([]T, len(nodes))
	for i, n := range nodes {
		out[i] = conv(n)
	}
	return out
}

func toRegion(n node) models.Region {
	return models.Region{ID: n.ID, Name: n.Name, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt}
}

func toArea(n node) models.Area {
	return models.Area{ID: n.ID, Name: n.Name, RegionID: n.ParentID, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt}
}

func toTerritory(n node) models.Territory {
	return models.Territory{ID: n.ID, Name: n.Name, AreaID: n.ParentID, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt}
}

func toDistributor(n node) models.Distributor {
	return models.Distributor{ID: n.ID, Name: n.Name, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt}
}

func one[T any](n node, err error, conv func(node) T) (*T, error) {
	if err != nil {
		return nil, err
	}
	v := conv(n)
	return &v, nil
}

func many[T any](nodes []node, err error, conv func(node) T) ([]T, error) {
	if err != nil {
		return nil, err
	}
	return mapNodes(nodes, conv), nil
}

// Regions

func (s *Service) ListRegions(ctx context.Context) ([]models.Region, error) {
	nodes, err := s.list(ctx, regionKind, nil)
	return many(nodes, err, toRegion)
}

func (s *Service) GetRegion(ctx context.Context, id int) (*models.Region, error) {
	n, err := s.get(ctx, regionKind, id)
	return one(n, err, toRegion)
}

func (s *Service) CreateRegion(ctx context.Context, req models.RegionRequest) (*models.Region, error) {
	n, err := s.create(ctx, regionKind, req.Name, 0)
	return one(n, err, toRegion)
}

func (s *Service) UpdateRegion(ctx context.Context, id int, req models.RegionRequest) (*models.Region, error) {
	n, err := s.update(ctx, regionKind, id, req.Name, 0)
	return one(n, err, toRegion)
}

// DeleteRegion fails with Conflict while areas or outlets point at it
func (s *Service) DeleteRegion(ctx context.Context, id int) error {
	return s.delete(ctx, regionKind, id)
}

// Areas

// ListAreas lists every area, or only those under regionID when set
func (s *Service) ListAreas(ctx context.Context, regionID *int) ([]models.Area, error) {
	nodes, err := s.list(ctx, areaKind, regionID)
	return many(nodes, err, toArea)
}

func (s *Service) GetArea(ctx context.Context, id int) (*models.Area, error) {
	n, err := s.get(ctx, areaKind, id)
	return one(n, err, toArea)
}

func (s *Service) CreateArea(ctx context.Context, req models.AreaRequest) (*models.Area, error) {
	n, err := s.create(ctx, areaKind, req.Name, req.RegionID)
	return one(n, err, toArea)
}

func (s *Service) UpdateArea(ctx context.Context, id int, req models.AreaRequest) (*models.Area, error) {
	n, err := s.update(ctx, areaKind, id, req.Name, req.RegionID)
	return one(n, err, toArea)
}

func (s *Service) DeleteArea(ctx context.Context, id int) error {
	return s.delete(ctx, areaKind, id)
}

// Territories

// ListTerritories lists every territory, or only those under areaID when set
func (s *Service) ListTerritories(ctx context.Context, areaID *int) ([]models.Territory, error) {
	nodes, err := s.list(ctx, territoryKind, areaID)
	return many(nodes, err, toTerritory)
}

func (s *Service) GetTerritory(ctx context.Context, id int) (*models.Territory, error) {
	n, err := s.get(ctx, territoryKind, id)
	return one(n, err, toTerritory)
}

func (s *Service) CreateTerritory(ctx context.Context, req models.TerritoryRequest) (*models.Territory, error) {
	n, err := s.create(ctx, territoryKind, req.Name, req.AreaID)
	return one(n, err, toTerritory)
}

func (s *Service) UpdateTerritory(ctx context.Context, id int, req models.TerritoryRequest) (*models.Territory, error) {
	n, err := s.update(ctx, territoryKind, id, req.Name, req.AreaID)
	return one(n, err, toTerritory)
}

func (s *Service) DeleteTerritory(ctx context.Context, id int) error {
	return s.delete(ctx, territoryKind, id)
}

// Distributors

func (s *Service) ListDistributors(ctx context.Context) ([]models.Distributor, error) {
	nodes, err := s.list(ctx, distributorKind, nil)
	return many(nodes, err, toDistributor)
}

func (s *Service) GetDistributor(ctx context.Context, id int) (*models.Distributor, error) {
	n, err := s.get(ctx, distributorKind, id)
	return one(n, err, toDistributor)
}

func (s *Service) CreateDistributor(ctx context.Context, req models.RegionRequest) (*models.Distributor, error) {
	n, err := s.create(ctx, distributorKind, req.Name, 0)
	return one(n, err, toDistributor)
}

func (s *Service) UpdateDistributor(ctx context.Context, id int, req models.RegionRequest) (*models.Distributor, error) {
	n, err := s.update(ctx, distributorKind, id, req.Name, 0)
	return one(n, err, toDistributor)
}

func (s *Service) DeleteDistributor(ctx context.Context, id int) error {
	return s.delete(ctx, distributorKind, id)
}
