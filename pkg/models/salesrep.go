package models

import "time"

// Roles
const (
	RoleAdmin    = "admin"
	RoleSalesRep = "sales_rep"
)

// SalesRep is a representative or administrator account
type SalesRep struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Info strips the account down to what login responses expose
func (s *SalesRep) Info() *UserInfo {
	return &UserInfo{ID: s.ID, Username: s.Username, Name: s.Name, Role: s.Role}
}

// Caller is the resolved identity of the request issuer
type Caller struct {
	ID   int
	Role string
}

// IsAdmin reports whether the caller bypasses ownership checks
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// SalesRepCreateRequest represents a request to create an account
type SalesRepCreateRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Name     string `json:"name" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin sales_rep"`
}

// SalesRepUpdateRequest patches an account; nil fields are left untouched
type SalesRepUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin sales_rep"`
}

// SalesRepListResponse is one page of accounts
type SalesRepListResponse struct {
	Data []SalesRep     `json:"data"`
	Meta PaginationMeta `json:"meta"`
}
