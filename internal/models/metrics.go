package models

// DepartmentDuration is the summed persisted EXIT duration for one
// department of a single order.
type DepartmentDuration struct {
	DepartmentCode string  `json:"department_code"`
	Minutes        float64 `json:"minutes"`
}

type OrderCycleTime struct {
	OrderID      int                  `json:"order_id"`
	Departments  []DepartmentDuration `json:"departments"`
	TotalMinutes float64              `json:"total_minutes"`
	Incomplete   int                  `json:"incomplete"`
}

// DepartmentStats aggregates cycle time across orders sharing a part
// number. Exits with no persisted duration are excluded from the mean
// and counted as incomplete.
type DepartmentStats struct {
	DepartmentCode string  `json:"department_code"`
	MeanMinutes    float64 `json:"mean_minutes"`
	Count          int     `json:"count"`
	Incomplete     int     `json:"incomplete"`
}

type PartCycleStats struct {
	PartNumber  string            `json:"part_number"`
	WindowDays  int               `json:"window_days,omitempty"`
	Departments []DepartmentStats `json:"departments"`
}
