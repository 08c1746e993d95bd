package database

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names
const (
	RegionsTable        = "regions"
	AreasTable          = "areas"
	TerritoriesTable    = "territories"
	DistributorsTable   = "distributors"
	SalesRepsTable      = "sales_reps"
	OutletsTable        = "outlets"
	SalesRepOutletTable = "sales_rep_outlets"
)

func timestamps() []*schema.Column {
	return []*schema.Column{
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
}

func idColumn() *schema.Column {
	return &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
}

var (
	regionsColumns = append([]*schema.Column{
		idColumn(),
		{Name: "name", Type: field.TypeString, Size: 255},
	}, timestamps()...)
	regions = &schema.Table{
		Name:       RegionsTable,
		Columns:    regionsColumns,
		PrimaryKey: []*schema.Column{regionsColumns[0]},
	}

	areasColumns = append([]*schema.Column{
		idColumn(),
		{Name: "name", Type: field.TypeString, Size: 255},
		{Name: "region_id", Type: field.TypeInt},
	}, timestamps()...)
	areas = &schema.Table{
		Name:       AreasTable,
		Columns:    areasColumns,
		PrimaryKey: []*schema.Column{areasColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "areas_regions_areas",
				Columns:    []*schema.Column{areasColumns[2]},
				RefColumns: []*schema.Column{regionsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "area_region_id", Columns: []*schema.Column{areasColumns[2]}},
		},
	}

	territoriesColumns = append([]*schema.Column{
		idColumn(),
		{Name: "name", Type: field.TypeString, Size: 255},
		{Name: "area_id", Type: field.TypeInt},
	}, timestamps()...)
	territories = &schema.Table{
		Name:       TerritoriesTable,
		Columns:    territoriesColumns,
		PrimaryKey: []*schema.Column{territoriesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "territories_areas_territories",
				Columns:    []*schema.Column{territoriesColumns[2]},
				RefColumns: []*schema.Column{areasColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "territory_area_id", Columns: []*schema.Column{territoriesColumns[2]}},
		},
	}

	distributorsColumns = append([]*schema.Column{
		idColumn(),
		{Name: "name", Type: field.TypeString, Size: 255},
	}, timestamps()...)
	distributors = &schema.Table{
		Name:       DistributorsTable,
		Columns:    distributorsColumns,
		PrimaryKey: []*schema.Column{distributorsColumns[0]},
	}

	salesRepsColumns = append([]*schema.Column{
		idColumn(),
		{Name: "username", Type: field.TypeString, Unique: true, Size: 100},
		{Name: "name", Type: field.TypeString, Size: 255},
		{Name: "phone", Type: field.TypeString, Size: 20, Default: ""},
		{Name: "password_hash", Type: field.TypeString, Size: 255},
		{Name: "role", Type: field.TypeEnum, Enums: []string{"admin", "sales_rep"}, Default: "sales_rep"},
	}, timestamps()...)
	salesReps = &schema.Table{
		Name:       SalesRepsTable,
		Columns:    salesRepsColumns,
		PrimaryKey: []*schema.Column{salesRepsColumns[0]},
	}

	outletsColumns = append([]*schema.Column{
		idColumn(),
		{Name: "uid", Type: field.TypeString, Unique: true, Size: 50},
		{Name: "name", Type: field.TypeString, Size: 255},
		{Name: "phone", Type: field.TypeString, Size: 20},
		{Name: "points", Type: field.TypeInt, Default: 0},
		{Name: "routes", Type: field.TypeString, Size: 1000, Default: ""},
		{Name: "notes", Type: field.TypeString, Size: 2000, Default: ""},
		{Name: "region_id", Type: field.TypeInt},
		{Name: "area_id", Type: field.TypeInt},
		{Name: "distributor_id", Type: field.TypeInt},
		{Name: "territory_id", Type: field.TypeInt},
	}, timestamps()...)
	outlets = &schema.Table{
		Name:       OutletsTable,
		Columns:    outletsColumns,
		PrimaryKey: []*schema.Column{outletsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "outlets_regions_outlets",
				Columns:    []*schema.Column{outletsColumns[7]},
				RefColumns: []*schema.Column{regionsColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "outlets_areas_outlets",
				Columns:    []*schema.Column{outletsColumns[8]},
				RefColumns: []*schema.Column{areasColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "outlets_distributors_outlets",
				Columns:    []*schema.Column{outletsColumns[9]},
				RefColumns: []*schema.Column{distributorsColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "outlets_territories_outlets",
				Columns:    []*schema.Column{outletsColumns[10]},
				RefColumns: []*schema.Column{territoriesColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "outlet_name", Columns: []*schema.Column{outletsColumns[2]}},
			{Name: "outlet_region_id", Columns: []*schema.Column{outletsColumns[7]}},
			{Name: "outlet_area_id", Columns: []*schema.Column{outletsColumns[8]}},
			{Name: "outlet_distributor_id", Columns: []*schema.Column{outletsColumns[9]}},
			{Name: "outlet_territory_id", Columns: []*schema.Column{outletsColumns[10]}},
		},
	}

	// The composite primary key is what keeps an assignment unique
	salesRepOutletsColumns = []*schema.Column{
		{Name: "sales_rep_id", Type: field.TypeInt},
		{Name: "outlet_id", Type: field.TypeInt},
		{Name: "created_at", Type: field.TypeTime},
	}
	salesRepOutlets = &schema.Table{
		Name:       SalesRepOutletTable,
		Columns:    salesRepOutletsColumns,
		PrimaryKey: []*schema.Column{salesRepOutletsColumns[0], salesRepOutletsColumns[1]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "sales_rep_outlets_sales_rep_id",
				Columns:    []*schema.Column{salesRepOutletsColumns[0]},
				RefColumns: []*schema.Column{salesRepsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "sales_rep_outlets_outlet_id",
				Columns:    []*schema.Column{salesRepOutletsColumns[1]},
				RefColumns: []*schema.Column{outletsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "sales_rep_outlet_outlet_id", Columns: []*schema.Column{salesRepOutletsColumns[1]}},
		},
	}

	// Tables holds every table in dependency order
	Tables = []*schema.Table{
		regions,
		areas,
		territories,
		distributors,
		salesReps,
		outlets,
		salesRepOutlets,
	}
)

func init() {
	areas.ForeignKeys[0].RefTable = regions
	territories.ForeignKeys[0].RefTable = areas
	outlets.ForeignKeys[0].RefTable = regions
	outlets.ForeignKeys[1].RefTable = areas
	outlets.ForeignKeys[2].RefTable = distributors
	outlets.ForeignKeys[3].RefTable = territories
	salesRepOutlets.ForeignKeys[0].RefTable = salesReps
	salesRepOutlets.ForeignKeys[1].RefTable = outlets
}
