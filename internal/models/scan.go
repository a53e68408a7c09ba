package models

import "time"

// ScanRequest is an inbound QR scan. DepartmentCode identifies the
// scanning station; when empty the engine derives the next stage from
// the order's last event.
type ScanRequest struct {
	Token          string `json:"token"`
	DepartmentCode string `json:"department_code,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type ScanResponse struct {
	Status string           `json:"status"` // accepted | rejected
	Reason string           `json:"reason,omitempty"`
	Event  *ProductionEvent `json:"event,omitempty"`
	Order  *OrderStatus     `json:"order,omitempty"`
}

// OrderStatus is the projected state of a work order, derived from its
// event slice of the ledger.
type OrderStatus struct {
	OrderID           int        `json:"order_id"`
	OrderNumber       string     `json:"order_number"`
	PartNumber        string     `json:"part_number"`
	Priority          string     `json:"priority"`
	Status            string     `json:"status"`
	CurrentDepartment *string    `json:"current_department,omitempty"`
	EnteredAt         *time.Time `json:"entered_at,omitempty"`
	ElapsedMinutes    *int64     `json:"elapsed_minutes,omitempty"`
}

// Machine-readable rejection reasons surfaced to the operator UI.
const (
	ReasonMalformedToken  = "malformed_token"
	ReasonBadSignature    = "bad_signature"
	ReasonDuplicate       = "duplicate"
	ReasonRateExceeded    = "rate_exceeded"
	ReasonNoMatchingEntry = "no_matching_entry"
	ReasonIllegalMove     = "illegal_successor"
	ReasonCompleted       = "already_completed"
	ReasonUnknownOrder    = "unknown_order"
	ReasonUnknownDept     = "unknown_department"
	ReasonPersistence     = "persistence_unavailable"
)
