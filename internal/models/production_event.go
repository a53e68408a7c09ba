package models

import "time"

// ProductionEvent is one immutable row of the event ledger. Rows are
// only ever appended; duration is stamped once on EXIT and never
// recomputed afterwards.
type ProductionEvent struct {
	ID              int64     `json:"id"`
	OrderID         int       `json:"order_id"`
	DepartmentCode  string    `json:"department_code"`
	EventType       string    `json:"event_type"`
	ActorID         int       `json:"actor_id"`
	RecordedAt      time.Time `json:"recorded_at"`
	DurationMinutes *float64  `json:"duration_minutes,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

const (
	EventTypeEntry = "ENTRY"
	EventTypeExit  = "EXIT"
)
