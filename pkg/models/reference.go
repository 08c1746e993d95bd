package models

import "time"

// Region is the top of the geographic hierarchy
type Region struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Area belongs to a region
type Area struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	RegionID  int       `json:"region_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Territory belongs to an area
type Territory struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	AreaID    int       `json:"area_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Distributor supplies outlets; it has no parent
type Distributor struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RefNode is the compact form of a reference row embedded in an outlet
type RefNode struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RegionRequest creates or renames a region or distributor
type RegionRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// AreaRequest creates or updates an area
type AreaRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	RegionID int    `json:"region_id" validate:"required,min=1"`
}

// TerritoryRequest creates or updates a territory
type TerritoryRequest struct {
	Name   string `json:"name" validate:"required,max=255"`
	AreaID int    `json:"area_id" validate:"required,min=1"`
}
