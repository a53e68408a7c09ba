package services

import (
	"context"
	"sort"
	"time"

	"odl-backend/internal/models"
	"odl-backend/internal/timeutil"
)

// StatusService is the read path: pure projections over the event
// ledger. It never writes events; Reconcile only refreshes the
// denormalized hint columns, which is idempotent.
type StatusService struct {
	Ledger      LedgerRepo
	WorkOrders  WorkOrderStore
	Departments DepartmentStore

	now func() time.Time
}

func NewStatusService(ledger LedgerRepo, workOrders WorkOrderStore, departments DepartmentStore) *StatusService {
	return &StatusService{
		Ledger:      ledger,
		WorkOrders:  workOrders,
		Departments: departments,
		now:         timeutil.Now,
	}
}

// Project derives the current status of a work order from its events.
func (s *StatusService) Project(ctx context.Context, orderID int) (*models.OrderStatus, error) {
	order, err := s.WorkOrders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	events, err := s.Ledger.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	terminal, err := s.Departments.Terminal(ctx)
	if err != nil {
		return nil, err
	}

	p := projectStatus(events, terminal, s.now())

	return &models.OrderStatus{
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		PartNumber:        order.PartNumber,
		Priority:          order.Priority,
		Status:            p.status,
		CurrentDepartment: p.department,
		EnteredAt:         p.enteredAt,
		ElapsedMinutes:    p.elapsedMinutes,
	}, nil
}

// ListEvents returns the full event trace for an order.
func (s *StatusService) ListEvents(ctx context.Context, orderID int) ([]*models.ProductionEvent, error) {
	if _, err := s.WorkOrders.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return s.Ledger.ListByOrder(ctx, orderID)
}

// ListResident returns the orders currently sitting in a department,
// most urgent first and oldest-waiting first within a priority band.
func (s *StatusService) ListResident(ctx context.Context, departmentCode string) ([]*models.RosterItem, error) {
	if _, err := s.Departments.Get(ctx, departmentCode); err != nil {
		return nil, err
	}

	items, err := s.Ledger.ListResident(ctx, departmentCode)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, item := range items {
		item.ElapsedMinutes = int64(now.Sub(item.EnteredAt).Minutes())
	}

	sort.Slice(items, func(i, j int) bool {
		ri, rj := models.PriorityRank(items[i].Priority), models.PriorityRank(items[j].Priority)
		if ri != rj {
			return ri > rj
		}
		return items[i].EnteredAt.Before(items[j].EnteredAt)
	})

	return items, nil
}

// Reconcile recomputes the cached status columns from the ledger.
func (s *StatusService) Reconcile(ctx context.Context, orderID int) (*models.OrderStatus, error) {
	status, err := s.Project(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.WorkOrders.UpdateCachedStatus(ctx, orderID, status.Status, status.CurrentDepartment); err != nil {
		return nil, err
	}
	return status, nil
}

type projection struct {
	status         string
	department     *string
	enteredAt      *time.Time
	elapsedMinutes *int64
}

// projectStatus is a pure function of the event slice: the last event
// fully determines the derived state.
func projectStatus(events []*models.ProductionEvent, terminal string, now time.Time) projection {
	if len(events) == 0 {
		return projection{status: models.StatusNotStarted}
	}

	last := events[len(events)-1]

	if last.EventType == models.EventTypeEntry {
		enteredAt := last.RecordedAt
		elapsed := int64(now.Sub(enteredAt).Minutes())
		dept := last.DepartmentCode
		return projection{
			status:         models.StatusInDepartment,
			department:     &dept,
			enteredAt:      &enteredAt,
			elapsedMinutes: &elapsed,
		}
	}

	if last.DepartmentCode == terminal {
		return projection{status: models.StatusCompleted}
	}
	return projection{status: models.StatusAwaitingNext}
}
