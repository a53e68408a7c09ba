package models

import "time"

// Department is static reference data: a stage in the production
// sequence. Position orders the nominal flow; legal moves come from the
// configured successor set, not from position arithmetic.
type Department struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// RosterItem is one order currently resident in a department.
type RosterItem struct {
	OrderID        int       `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	PartNumber     string    `json:"part_number"`
	Priority       string    `json:"priority"`
	EnteredAt      time.Time `json:"entered_at"`
	ElapsedMinutes int64     `json:"elapsed_minutes"`
}
