package models

import "time"

type WorkOrder struct {
	ID                int        `json:"id"`
	OrderNumber       string     `json:"order_number"`
	PartNumber        string     `json:"part_number"`
	Quantity          int        `json:"quantity"`
	Priority          string     `json:"priority"`
	CurrentStatus     string     `json:"current_status"`
	CurrentDepartment *string    `json:"current_department,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type CreateWorkOrderRequest struct {
	OrderNumber string `json:"order_number"`
	PartNumber  string `json:"part_number"`
	Quantity    int    `json:"quantity"`
	Priority    string `json:"priority"`
}

// Priority levels
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Derived status values. These are projections of the event ledger; the
// columns on work_orders are a cache, never the authority.
const (
	StatusNotStarted   = "NOT_STARTED"
	StatusInDepartment = "IN_DEPARTMENT"
	StatusAwaitingNext = "AWAITING_NEXT"
	StatusCompleted    = "COMPLETED"
)

// PriorityRank orders priorities for roster dispatch (higher first).
func PriorityRank(priority string) int {
	switch priority {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	default:
		return 0
	}
}

// ValidPriority reports whether p is one of the known priority levels.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
