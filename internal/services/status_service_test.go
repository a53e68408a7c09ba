package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odl-backend/internal/models"
)

func minutes(f float64) *float64 { return &f }

func TestProjectStatusNotStarted(t *testing.T) {
	p := projectStatus(nil, "painting", time.Now())
	assert.Equal(t, models.StatusNotStarted, p.status)
	assert.Nil(t, p.department)
}

func TestProjectStatusInDepartment(t *testing.T) {
	entered := time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)
	now := entered.Add(90 * time.Minute)

	events := []*models.ProductionEvent{
		{ID: 1, OrderID: 1, DepartmentCode: "cleanroom", EventType: models.EventTypeEntry, RecordedAt: entered},
	}

	p := projectStatus(events, "painting", now)
	assert.Equal(t, models.StatusInDepartment, p.status)
	require.NotNil(t, p.department)
	assert.Equal(t, "cleanroom", *p.department)
	require.NotNil(t, p.enteredAt)
	assert.True(t, p.enteredAt.Equal(entered))
	require.NotNil(t, p.elapsedMinutes)
	assert.Equal(t, int64(90), *p.elapsedMinutes)
}

func TestProjectStatusAwaitingNext(t *testing.T) {
	base := time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)
	events := []*models.ProductionEvent{
		{ID: 1, OrderID: 1, DepartmentCode: "cleanroom", EventType: models.EventTypeEntry, RecordedAt: base},
		{ID: 2, OrderID: 1, DepartmentCode: "cleanroom", EventType: models.EventTypeExit, RecordedAt: base.Add(time.Hour), DurationMinutes: minutes(60)},
	}

	p := projectStatus(events, "painting", base.Add(2*time.Hour))
	assert.Equal(t, models.StatusAwaitingNext, p.status)
	assert.Nil(t, p.department)
}

func TestProjectStatusCompleted(t *testing.T) {
	base := time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)
	events := []*models.ProductionEvent{
		{ID: 1, OrderID: 1, DepartmentCode: "painting", EventType: models.EventTypeEntry, RecordedAt: base},
		{ID: 2, OrderID: 1, DepartmentCode: "painting", EventType: models.EventTypeExit, RecordedAt: base.Add(time.Hour), DurationMinutes: minutes(60)},
	}

	p := projectStatus(events, "painting", base.Add(2*time.Hour))
	assert.Equal(t, models.StatusCompleted, p.status)
}

// Projecting the same slice twice yields identical results: the
// projection depends on the events alone, never on stored hints.
func TestProjectStatusDeterministic(t *testing.T) {
	base := time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)
	events := []*models.ProductionEvent{
		{ID: 1, OrderID: 1, DepartmentCode: "cleanroom", EventType: models.EventTypeEntry, RecordedAt: base},
		{ID: 2, OrderID: 1, DepartmentCode: "cleanroom", EventType: models.EventTypeExit, RecordedAt: base.Add(time.Hour), DurationMinutes: minutes(60)},
		{ID: 3, OrderID: 1, DepartmentCode: "autoclave", EventType: models.EventTypeEntry, RecordedAt: base.Add(2 * time.Hour)},
	}

	now := base.Add(3 * time.Hour)
	first := projectStatus(events, "painting", now)
	second := projectStatus(events, "painting", now)
	assert.Equal(t, first, second)
}

func TestProjectAgainstLedger(t *testing.T) {
	order := &models.WorkOrder{ID: 1, OrderNumber: "ODL-2024-0042", PartNumber: "PN-7781", Priority: models.PriorityHigh}
	workOrders := newFakeWorkOrders(order)
	ledger := newFakeLedger(workOrders.orders)

	base := time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)
	ledger.append(&models.ProductionEvent{OrderID: 1, DepartmentCode: "cleanroom", EventType: models.EventTypeEntry, RecordedAt: base})

	svc := NewStatusService(ledger, workOrders, plantDepartments())
	svc.now = func() time.Time { return base.Add(30 * time.Minute) }

	status, err := svc.Project(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "ODL-2024-0042", status.OrderNumber)
	assert.Equal(t, models.StatusInDepartment, status.Status)
	require.NotNil(t, status.ElapsedMinutes)
	assert.Equal(t, int64(30), *status.ElapsedMinutes)
}

func TestProjectUnknownOrder(t *testing.T) {
	workOrders := newFakeWorkOrders()
	svc := NewStatusService(newFakeLedger(workOrders.orders), workOrders, plantDepartments())

	_, err := svc.Project(context.Background(), 404)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

// Roster ordering: urgent first, then longest-waiting within a band.
func TestListResidentOrdering(t *testing.T) {
	base := time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)

	orders := []*models.WorkOrder{
		{ID: 1, OrderNumber: "ODL-1", PartNumber: "PN-1", Priority: models.PriorityNormal},
		{ID: 2, OrderNumber: "ODL-2", PartNumber: "PN-1", Priority: models.PriorityUrgent},
		{ID: 3, OrderNumber: "ODL-3", PartNumber: "PN-2", Priority: models.PriorityNormal},
	}
	workOrders := newFakeWorkOrders(orders...)
	ledger := newFakeLedger(workOrders.orders)

	// ODL-1 entered first, ODL-3 later; ODL-2 is urgent and newest
	ledger.append(&models.ProductionEvent{OrderID: 1, DepartmentCode: "ndi", EventType: models.EventTypeEntry, RecordedAt: base})
	ledger.append(&models.ProductionEvent{OrderID: 3, DepartmentCode: "ndi", EventType: models.EventTypeEntry, RecordedAt: base.Add(time.Hour)})
	ledger.append(&models.ProductionEvent{OrderID: 2, DepartmentCode: "ndi", EventType: models.EventTypeEntry, RecordedAt: base.Add(2 * time.Hour)})

	svc := NewStatusService(ledger, workOrders, plantDepartments())
	svc.now = func() time.Time { return base.Add(3 * time.Hour) }

	items, err := svc.ListResident(context.Background(), "ndi")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "ODL-2", items[0].OrderNumber)
	assert.Equal(t, "ODL-1", items[1].OrderNumber)
	assert.Equal(t, "ODL-3", items[2].OrderNumber)
	assert.Equal(t, int64(180), items[1].ElapsedMinutes)
}

func TestListResidentUnknownDepartment(t *testing.T) {
	workOrders := newFakeWorkOrders()
	svc := NewStatusService(newFakeLedger(workOrders.orders), workOrders, plantDepartments())

	_, err := svc.ListResident(context.Background(), "paint-shop")
	assert.ErrorIs(t, err, models.ErrUnknownDepartment)
}

func TestReconcileRefreshesCachedColumns(t *testing.T) {
	order := &models.WorkOrder{ID: 1, OrderNumber: "ODL-1", PartNumber: "PN-1", Priority: models.PriorityNormal,
		CurrentStatus: models.StatusNotStarted}
	workOrders := newFakeWorkOrders(order)
	ledger := newFakeLedger(workOrders.orders)

	base := time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)
	ledger.append(&models.ProductionEvent{OrderID: 1, DepartmentCode: "cleanroom", EventType: models.EventTypeEntry, RecordedAt: base})

	svc := NewStatusService(ledger, workOrders, plantDepartments())

	status, err := svc.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInDepartment, status.Status)

	stored, err := workOrders.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInDepartment, stored.CurrentStatus)
	require.NotNil(t, stored.CurrentDepartment)
	assert.Equal(t, "cleanroom", *stored.CurrentDepartment)
}
