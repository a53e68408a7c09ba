package services

import (
	"context"
	"sort"
	"time"

	"odl-backend/internal/models"
	"odl-backend/internal/timeutil"
)

// MetricsService aggregates persisted EXIT durations. Durations come
// from the events themselves, so historic numbers never shift.
type MetricsService struct {
	Ledger     LedgerRepo
	WorkOrders WorkOrderStore

	now func() time.Time
}

func NewMetricsService(ledger LedgerRepo, workOrders WorkOrderStore) *MetricsService {
	return &MetricsService{
		Ledger:     ledger,
		WorkOrders: workOrders,
		now:        timeutil.Now,
	}
}

// OrderCycleTime sums per-department durations for one order, in the
// order the departments were traversed.
func (s *MetricsService) OrderCycleTime(ctx context.Context, orderID int) (*models.OrderCycleTime, error) {
	if _, err := s.WorkOrders.Get(ctx, orderID); err != nil {
		return nil, err
	}

	exits, err := s.Ledger.ListExitsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := &models.OrderCycleTime{OrderID: orderID}
	index := make(map[string]int)

	for _, e := range exits {
		if e.DurationMinutes == nil {
			// Event predates timing instrumentation
			result.Incomplete++
			continue
		}
		i, seen := index[e.DepartmentCode]
		if !seen {
			i = len(result.Departments)
			index[e.DepartmentCode] = i
			result.Departments = append(result.Departments, models.DepartmentDuration{DepartmentCode: e.DepartmentCode})
		}
		result.Departments[i].Minutes += *e.DurationMinutes
		result.TotalMinutes += *e.DurationMinutes
	}

	return result, nil
}

// PartCycleStats aggregates cycle time per department across all
// orders sharing a part number. windowDays > 0 restricts the exits to
// a trailing window so the statistics track current process
// performance; 0 means all history.
func (s *MetricsService) PartCycleStats(ctx context.Context, partNumber string, windowDays int) (*models.PartCycleStats, error) {
	var since *time.Time
	if windowDays > 0 {
		cutoff := s.now().AddDate(0, 0, -windowDays)
		since = &cutoff
	}

	exits, err := s.Ledger.ListExitsByPart(ctx, partNumber, since)
	if err != nil {
		return nil, err
	}

	type acc struct {
		sum        float64
		count      int
		incomplete int
	}
	byDept := make(map[string]*acc)

	for _, e := range exits {
		a := byDept[e.DepartmentCode]
		if a == nil {
			a = &acc{}
			byDept[e.DepartmentCode] = a
		}
		if e.DurationMinutes == nil {
			a.incomplete++
			continue
		}
		a.sum += *e.DurationMinutes
		a.count++
	}

	result := &models.PartCycleStats{PartNumber: partNumber, WindowDays: windowDays}
	for code, a := range byDept {
		stats := models.DepartmentStats{
			DepartmentCode: code,
			Count:          a.count,
			Incomplete:     a.incomplete,
		}
		if a.count > 0 {
			stats.MeanMinutes = a.sum / float64(a.count)
		}
		result.Departments = append(result.Departments, stats)
	}

	sort.Slice(result.Departments, func(i, j int) bool {
		return result.Departments[i].DepartmentCode < result.Departments[j].DepartmentCode
	})

	return result, nil
}
