package models

// BulkAssignmentRequest names a representative and the outlets to (un)assign
type BulkAssignmentRequest struct {
	SalesRepID int   `json:"sales_rep_id" validate:"required,min=1"`
	OutletIDs  []int `json:"outlet_ids" validate:"required,min=1,max=10000,dive,min=1"`
}

// BulkAssignmentResult reports how many rows a bulk operation changed.
// For unassign, Assigned holds the removed count.
type BulkAssignmentResult struct {
	Success  bool   `json:"success"`
	Assigned int    `json:"assigned"`
	Message  string `json:"message"`
}

// OutletCountResponse reports how many outlets a representative holds
type OutletCountResponse struct {
	SalesRepID int `json:"sales_rep_id"`
	Count      int `json:"count"`
}
