package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Pagination defaults
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit far from integer overflow. Pages past
	// the data are empty anyway.
	MaxPage = 1_000_000
)

// Outlet is a retail location and its reference attributes
type Outlet struct {
	ID            int       `json:"id"`
	UID           string    `json:"uid"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Points        int       `json:"points"`
	Routes        string    `json:"routes,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	RegionID      int       `json:"region_id"`
	AreaID        int       `json:"area_id"`
	DistributorID int       `json:"distributor_id"`
	TerritoryID   int       `json:"territory_id"`
	Region        *RefNode  `json:"region,omitempty"`
	Area          *RefNode  `json:"area,omitempty"`
	Distributor   *RefNode  `json:"distributor,omitempty"`
	Territory     *RefNode  `json:"territory,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OutletCreateRequest holds every field of a new outlet
type OutletCreateRequest struct {
	UID           string `json:"uid" validate:"required,max=50"`
	Name          string `json:"name" validate:"required,max=255"`
	Phone         string `json:"phone" validate:"required,max=20"`
	RegionID      int    `json:"region_id" validate:"required,min=1"`
	AreaID        int    `json:"area_id" validate:"required,min=1"`
	DistributorID int    `json:"distributor_id" validate:"required,min=1"`
	TerritoryID   int    `json:"territory_id" validate:"required,min=1"`
	Points        int    `json:"points" validate:"min=0"`
	Routes        string `json:"routes" validate:"max=1000"`
	Notes         string `json:"notes" validate:"max=2000"`
}

// OutletUpdateRequest is the administrator's partial update
type OutletUpdateRequest struct {
	UID           *string `json:"uid" validate:"omitempty,max=50"`
	Name          *string `json:"name" validate:"omitempty,max=255"`
	Phone         *string `json:"phone" validate:"omitempty,max=20"`
	RegionID      *int    `json:"region_id" validate:"omitempty,min=1"`
	AreaID        *int    `json:"area_id" validate:"omitempty,min=1"`
	DistributorID *int    `json:"distributor_id" validate:"omitempty,min=1"`
	TerritoryID   *int    `json:"territory_id" validate:"omitempty,min=1"`
	Points        *int    `json:"points" validate:"omitempty,min=0"`
	Routes        *string `json:"routes" validate:"omitempty,max=1000"`
	Notes         *string `json:"notes" validate:"omitempty,max=2000"`
}

// OutletPatchRequest is what an assigned representative may change
type OutletPatchRequest struct {
	Points *int    `json:"points" validate:"omitempty,min=0"`
	Routes *string `json:"routes" validate:"omitempty,max=1000"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}

// AsUpdate widens a representative patch to a directory update
func (p OutletPatchRequest) AsUpdate() OutletUpdateRequest {
	return OutletUpdateRequest{Points: p.Points, Routes: p.Routes, Notes: p.Notes}
}

// IsEmpty reports whether the update changes nothing
func (u OutletUpdateRequest) IsEmpty() bool {
	return u.UID == nil && u.Name == nil && u.Phone == nil &&
		u.RegionID == nil && u.AreaID == nil && u.DistributorID == nil && u.TerritoryID == nil &&
		u.Points == nil && u.Routes == nil && u.Notes == nil
}

// OutletFilter narrows an outlet search. Nil ids are not applied.
type OutletFilter struct {
	RegionID      *int
	AreaID        *int
	DistributorID *int
	TerritoryID   *int
	Search        string
}

// OutletQuery is a filter plus an offset page
type OutletQuery struct {
	OutletFilter
	Page  int
	Limit int
}

// OutletQueryParams is the raw query-string form used by handlers
type OutletQueryParams struct {
	RegionID      string `query:"region_id"`
	AreaID        string `query:"area_id"`
	DistributorID string `query:"distributor_id"`
	TerritoryID   string `query:"territory_id"`
	Search        string `query:"search"`
	Page          string `query:"page"`
	Limit         string `query:"limit"`
}

// Query parses the raw params. Numeric fields that don't parse are dropped
// rather than rejected.
func (p OutletQueryParams) Query() OutletQuery {
	return OutletQuery{
		OutletFilter: OutletFilter{
			RegionID:      ParseOptionalID(p.RegionID),
			AreaID:        ParseOptionalID(p.AreaID),
			DistributorID: ParseOptionalID(p.DistributorID),
			TerritoryID:   ParseOptionalID(p.TerritoryID),
			Search:        p.Search,
		},
		Page:  parseIntOr(p.Page, DefaultPage),
		Limit: parseIntOr(p.Limit, DefaultLimit),
	}
}

// ParseOptionalID returns nil for empty or non-numeric input
func ParseOptionalID(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &v
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

// NormalizeSearch trims and lower-cases a search term. Inner whitespace is
// part of the substring being matched and is kept as is.
func NormalizeSearch(s string) string {
	s = strings.TrimSpace(s)
	// Casers carry state, so each call gets its own
	return cases.Lower(language.Und).String(s)
}

// Normalize clamps pagination and normalizes the search term. Two queries
// that select the same rows normalize to the same value.
func (q OutletQuery) Normalize() OutletQuery {
	q.Page, q.Limit = ClampPage(q.Page, q.Limit)
	q.Search = NormalizeSearch(q.Search)
	return q
}

// ClampPage applies the default page and the limit bounds
func ClampPage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page > MaxPage {
		page = MaxPage
	}
	return page, limit
}

// PageParams is a raw page/limit pair from the query string
type PageParams struct {
	Page  string `query:"page"`
	Limit string `query:"limit"`
}

// Values parses and clamps the pair, falling back to defaults
func (p PageParams) Values() (page, limit int) {
	return ClampPage(parseIntOr(p.Page, DefaultPage), parseIntOr(p.Limit, DefaultLimit))
}

// Offset is the number of rows skipped before the page
func (q OutletQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Canonical serializes a normalized query with a fixed field order
func (q OutletQuery) Canonical() string {
	return fmt.Sprintf("region=%s;area=%s;distributor=%s;territory=%s;search=%q;page=%d;limit=%d",
		optID(q.RegionID), optID(q.AreaID), optID(q.DistributorID), optID(q.TerritoryID),
		q.Search, q.Page, q.Limit)
}

func optID(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// PaginationMeta describes an offset page
type PaginationMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta computes total pages as ceil(total/limit)
func NewPaginationMeta(total, page, limit int) PaginationMeta {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return PaginationMeta{Total: total, Page: page, Limit: limit, TotalPages: pages}
}

// OutletListResponse is one page of outlets
type OutletListResponse struct {
	Data []Outlet       `json:"data"`
	Meta PaginationMeta `json:"meta"`
}
