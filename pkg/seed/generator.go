// Package seed fills a database with realistic demo data.
package seed

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/jordanlanch/fieldsales/pkg/logger"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

// Bangladeshi mobile operator prefixes
var mobilePrefixes = []string{"013", "014", "015", "016", "017", "018", "019"}

var outletSuffixes = []string{"Store", "Traders", "Enterprise", "General Store", "Pharmacy", "Super Shop", "Mart"}

// Config sizes the generated data set
type Config struct {
	Regions              int
	AreasPerRegion       int
	TerritoriesPerArea   int
	Distributors         int
	Outlets              int
	SalesReps            int
	OutletsPerRep        int
	AdminUsername        string
	AdminPassword        string
	SalesRepPasswordSeed string
	BatchSize            int
	Seed                 int64
}

// DefaultConfig returns a small data set suitable for local development
func DefaultConfig() Config {
	return Config{
		Regions:              3,
		AreasPerRegion:       2,
		TerritoriesPerArea:   2,
		Distributors:         4,
		Outlets:              200,
		SalesReps:            5,
		OutletsPerRep:        20,
		AdminUsername:        "admin",
		AdminPassword:        "admin123",
		SalesRepPasswordSeed: "password",
		BatchSize:            100,
		Seed:                 42,
	}
}

// References creates the reference tables. *reference.Service satisfies it.
type References interface {
	CreateRegion(ctx context.Context, req models.RegionRequest) (*models.Region, error)
	CreateArea(ctx context.Context, req models.AreaRequest) (*models.Area, error)
	CreateTerritory(ctx context.Context, req models.TerritoryRequest) (*models.Territory, error)
	CreateDistributor(ctx context.Context, req models.RegionRequest) (*models.Distributor, error)
}

// Accounts creates sales rep accounts. *salesrep.Service satisfies it.
type Accounts interface {
	Create(ctx context.Context, req models.SalesRepCreateRequest) (*models.SalesRep, error)
}

// Outlets inserts outlets. *outlet.Service satisfies it.
type Outlets interface {
	BulkCreate(ctx context.Context, records []models.OutletCreateRequest) (int, error)
	FindByUID(ctx context.Context, uid string) (*models.Outlet, error)
}

// Assignments links outlets to reps. *assignment.Service satisfies it.
type Assignments interface {
	BulkAssign(ctx context.Context, repID int, outletIDs []int) (*models.BulkAssignmentResult, error)
}

// Summary counts what Run created
type Summary struct {
	Regions      int
	Areas        int
	Territories  int
	Distributors int
	Outlets      int
	SalesReps    int
	Assignments  int
}

// placement is one valid region/area/territory chain
type placement struct {
	regionID, areaID, territoryID int
}

// Seeder generates data through the domain services
type Seeder struct {
	refs        References
	accounts    Accounts
	outlets     Outlets
	assignments Assignments
	log         logger.Logger
	faker       *gofakeit.Faker
	cfg         Config
}

// New creates a seeder. Zero fields in cfg fall back to DefaultConfig.
func New(refs References, accounts Accounts, outlets Outlets, assignments Assignments, log logger.Logger, cfg Config) *Seeder {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = def.AdminUsername
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = def.AdminPassword
	}
	if cfg.SalesRepPasswordSeed == "" {
		cfg.SalesRepPasswordSeed = def.SalesRepPasswordSeed
	}
	return &Seeder{
		refs:        refs,
		accounts:    accounts,
		outlets:     outlets,
		assignments: assignments,
		log:         log.With("component", "seed"),
		faker:       gofakeit.New(cfg.Seed),
		cfg:         cfg,
	}
}

// Phone returns a random 11 digit Bangladeshi mobile number
func (s *Seeder) Phone() string {
	prefix := mobilePrefixes[s.faker.IntRange(0, len(mobilePrefixes)-1)]
	return prefix + s.faker.Numerify("########")
}

// OutletName returns a shop-like name
func (s *Seeder) OutletName() string {
	return fmt.Sprintf("%s %s", s.faker.LastName(), outletSuffixes[s.faker.IntRange(0, len(outletSuffixes)-1)])
}

// Run creates the admin, the hierarchy, outlets and rep assignments
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	if _, err := s.accounts.Create(ctx, models.SalesRepCreateRequest{
		Username: s.cfg.AdminUsername,
		Name:     "Administrator",
		Password: s.cfg.AdminPassword,
		Role:     models.RoleAdmin,
	}); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	placements, err := s.hierarchy(ctx, sum)
	if err != nil {
		return nil, err
	}

	distributors := make([]int, 0, s.cfg.Distributors)
	for i := 0; i < s.cfg.Distributors; i++ {
		d, err := s.refs.CreateDistributor(ctx, models.RegionRequest{Name: s.faker.Company() + " Distribution"})
		if err != nil {
			return nil, fmt.Errorf("failed to create distributor: %w", err)
		}
		distributors = append(distributors, d.ID)
		sum.Distributors++
	}

	uids, err := s.createOutlets(ctx, placements, distributors, sum)
	if err != nil {
		return nil, err
	}

	if err := s.createReps(ctx, uids, sum); err != nil {
		return nil, err
	}

	s.log.Info("seed finished",
		"regions", sum.Regions,
		"areas", sum.Areas,
		"territories", sum.Territories,
		"distributors", sum.Distributors,
		"outlets", sum.Outlets,
		"sales_reps", sum.SalesReps,
		"assignments", sum.Assignments,
	)
	return sum, nil
}

func (s *Seeder) hierarchy(ctx context.Context, sum *Summary) ([]placement, error) {
	var out []placement
	for r := 1; r <= s.cfg.Regions; r++ {
		region, err := s.refs.CreateRegion(ctx, models.RegionRequest{Name: fmt.Sprintf("%s Region %d", s.faker.City(), r)})
		if err != nil {
			return nil, fmt.Errorf("failed to create region: %w", err)
		}
		sum.Regions++

		for a := 1; a <= s.cfg.AreasPerRegion; a++ {
			area, err := s.refs.CreateArea(ctx, models.AreaRequest{
				Name:     fmt.Sprintf("%s Area %d-%d", s.faker.City(), r, a),
				RegionID: region.ID,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create area: %w", err)
			}
			sum.Areas++

			for t := 1; t <= s.cfg.TerritoriesPerArea; t++ {
				territory, err := s.refs.CreateTerritory(ctx, models.TerritoryRequest{
					Name:   fmt.Sprintf("%s Territory %d-%d-%d", s.faker.StreetName(), r, a, t),
					AreaID: area.ID,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create territory: %w", err)
				}
				sum.Territories++
				out = append(out, placement{regionID: region.ID, areaID: area.ID, territoryID: territory.ID})
			}
		}
	}
	return out, nil
}

func (s *Seeder) createOutlets(ctx context.Context, placements []placement, distributors []int, sum *Summary) ([]string, error) {
	if s.cfg.Outlets == 0 {
		return nil, nil
	}
	if len(placements) == 0 || len(distributors) == 0 {
		return nil, fmt.Errorf("outlets need at least one territory and one distributor")
	}

	uids := make([]string, 0, s.cfg.Outlets)
	batch := make([]models.OutletCreateRequest, 0, s.cfg.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.outlets.BulkCreate(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to insert outlets: %w", err)
		}
		sum.Outlets += n
		batch = batch[:0]
		return nil
	}

	for i := 1; i <= s.cfg.Outlets; i++ {
		p := placements[s.faker.IntRange(0, len(placements)-1)]
		uid := fmt.Sprintf("OUT-%06d", i)
		uids = append(uids, uid)
		batch = append(batch, models.OutletCreateRequest{
			UID:           uid,
			Name:          s.OutletName(),
			Phone:         s.Phone(),
			RegionID:      p.regionID,
			AreaID:        p.areaID,
			TerritoryID:   p.territoryID,
			DistributorID: distributors[s.faker.IntRange(0, len(distributors)-1)],
			Points:        s.faker.IntRange(0, 500),
			Routes:        s.faker.StreetName(),
		})
		if len(batch) == s.cfg.BatchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return uids, nil
}

// createReps gives each rep a contiguous slice of outlets
func (s *Seeder) createReps(ctx context.Context, uids []string, sum *Summary) error {
	next := 0
	for i := 1; i <= s.cfg.SalesReps; i++ {
		rep, err := s.accounts.Create(ctx, models.SalesRepCreateRequest{
			Username: fmt.Sprintf("rep%d", i),
			Name:     s.faker.Name(),
			Phone:    s.Phone(),
			Password: fmt.Sprintf("%s%d", s.cfg.SalesRepPasswordSeed, i),
		})
		if err != nil {
			return fmt.Errorf("failed to create sales rep: %w", err)
		}
		sum.SalesReps++

		var ids []int
		for ; next < len(uids) && len(ids) < s.cfg.OutletsPerRep; next++ {
			o, err := s.outlets.FindByUID(ctx, uids[next])
			if err != nil {
				return fmt.Errorf("failed to load outlet %s: %w", uids[next], err)
			}
			ids = append(ids, o.ID)
		}
		if len(ids) == 0 {
			continue
		}

		res, err := s.assignments.BulkAssign(ctx, rep.ID, ids)
		if err != nil {
			return fmt.Errorf("failed to assign outlets to %s: %w", rep.Username, err)
		}
		sum.Assignments += res.Assigned
	}
	return nil
}
