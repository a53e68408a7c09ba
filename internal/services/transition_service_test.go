package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odl-backend/internal/models"
)

func newTransitionFixture(t *testing.T) (*TransitionService, *fakeLedger, *fakeWorkOrders) {
	t.Helper()

	order := &models.WorkOrder{
		ID:            1,
		OrderNumber:   "ODL-2024-0042",
		PartNumber:    "PN-7781",
		Quantity:      4,
		Priority:      models.PriorityNormal,
		CurrentStatus: models.StatusNotStarted,
	}
	workOrders := newFakeWorkOrders(order)
	ledger := newFakeLedger(workOrders.orders)

	svc := NewTransitionService(ledger, workOrders, plantDepartments())
	return svc, ledger, workOrders
}

func TestRecordTransitionFirstEntry(t *testing.T) {
	svc, _, workOrders := newTransitionFixture(t)
	ctx := context.Background()

	event, err := svc.RecordTransition(ctx, 1, "cleanroom", models.EventTypeEntry, 7, "")
	require.NoError(t, err)
	assert.Equal(t, models.EventTypeEntry, event.EventType)
	assert.Equal(t, "cleanroom", event.DepartmentCode)
	assert.Nil(t, event.DurationMinutes)

	order, err := workOrders.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInDepartment, order.CurrentStatus)
	require.NotNil(t, order.CurrentDepartment)
	assert.Equal(t, "cleanroom", *order.CurrentDepartment)
}

func TestRecordTransitionFirstEntryMustBeStart(t *testing.T) {
	svc, _, _ := newTransitionFixture(t)

	_, err := svc.RecordTransition(context.Background(), 1, "autoclave", models.EventTypeEntry, 7, "")
	assert.ErrorIs(t, err, models.ErrIllegalSuccessor)
}

func TestRecordTransitionExitWithoutEntry(t *testing.T) {
	svc, _, _ := newTransitionFixture(t)

	_, err := svc.RecordTransition(context.Background(), 1, "cleanroom", models.EventTypeExit, 7, "")
	assert.ErrorIs(t, err, models.ErrNoMatchingEntry)
}

func TestRecordTransitionDoubleEntry(t *testing.T) {
	svc, _, _ := newTransitionFixture(t)
	ctx := context.Background()

	_, err := svc.RecordTransition(ctx, 1, "cleanroom", models.EventTypeEntry, 7, "")
	require.NoError(t, err)

	_, err = svc.RecordTransition(ctx, 1, "autoclave", models.EventTypeEntry, 7, "")
	assert.ErrorIs(t, err, models.ErrIllegalSuccessor)
}

func TestRecordTransitionExitWrongDepartment(t *testing.T) {
	svc, _, _ := newTransitionFixture(t)
	ctx := context.Background()

	_, err := svc.RecordTransition(ctx, 1, "cleanroom", models.EventTypeEntry, 7, "")
	require.NoError(t, err)

	_, err = svc.RecordTransition(ctx, 1, "autoclave", models.EventTypeExit, 7, "")
	assert.ErrorIs(t, err, models.ErrNoMatchingEntry)
}

func TestRecordTransitionStampsDuration(t *testing.T) {
	svc, _, _ := newTransitionFixture(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	_, err := svc.RecordTransition(ctx, 1, "cleanroom", models.EventTypeEntry, 7, "")
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(45 * time.Minute) }
	event, err := svc.RecordTransition(ctx, 1, "cleanroom", models.EventTypeExit, 7, "")
	require.NoError(t, err)
	require.NotNil(t, event.DurationMinutes)
	assert.InDelta(t, 45.0, *event.DurationMinutes, 0.001)
}

func TestRecordTransitionSkippingDepartment(t *testing.T) {
	svc, _, _ := newTransitionFixture(t)
	ctx := context.Background()

	_, err := svc.RecordTransition(ctx, 1, "cleanroom", models.EventTypeEntry, 7, "")
	require.NoError(t, err)
	_, err = svc.RecordTransition(ctx, 1, "cleanroom", models.EventTypeExit, 7, "")
	require.NoError(t, err)

	// autoclave is the only forward edge from cleanroom
	_, err = svc.RecordTransition(ctx, 1, "ndi", models.EventTypeEntry, 7, "")
	assert.ErrorIs(t, err, models.ErrIllegalSuccessor)
}

func TestRecordTransitionReworkEdge(t *testing.T) {
	svc, _, _ := newTransitionFixture(t)
	ctx := context.Background()

	walk := []struct{ dept, typ string }{
		{"cleanroom", models.EventTypeEntry},
		{"cleanroom", models.EventTypeExit},
		{"autoclave", models.EventTypeEntry},
		{"autoclave", models.EventTypeExit},
		{"ndi", models.EventTypeEntry},
		{"ndi", models.EventTypeExit},
	}
	for _, step := range walk {
		_, err := svc.RecordTransition(ctx, 1, step.dept, step.typ, 7, "")
		require.NoError(t, err, "step %s %s", step.typ, step.dept)
	}

	// Inspection failed; the part goes back to layup
	_, err := svc.RecordTransition(ctx, 1, "cleanroom", models.EventTypeEntry, 7, "rework: delamination")
	require.NoError(t, err)
}

func TestRecordTransitionFullWalkCompletes(t *testing.T) {
	svc, _, workOrders := newTransitionFixture(t)
	ctx := context.Background()

	for _, dept := range []string{"cleanroom", "autoclave", "ndi", "trimming", "assembly", "painting"} {
		_, err := svc.RecordTransition(ctx, 1, dept, models.EventTypeEntry, 7, "")
		require.NoError(t, err)
		_, err = svc.RecordTransition(ctx, 1, dept, models.EventTypeExit, 7, "")
		require.NoError(t, err)
	}

	order, err := workOrders.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, order.CurrentStatus)

	// Nothing is legal after the terminal exit
	_, err = svc.RecordTransition(ctx, 1, "painting", models.EventTypeEntry, 7, "")
	assert.ErrorIs(t, err, models.ErrAlreadyCompleted)
}

func TestRecordTransitionUnknownDepartment(t *testing.T) {
	svc, _, _ := newTransitionFixture(t)

	_, err := svc.RecordTransition(context.Background(), 1, "paint-shop", models.EventTypeEntry, 7, "")
	assert.ErrorIs(t, err, models.ErrUnknownDepartment)
}

func TestRecordTransitionBadEventType(t *testing.T) {
	svc, _, _ := newTransitionFixture(t)

	_, err := svc.RecordTransition(context.Background(), 1, "cleanroom", "PAUSE", 7, "")
	assert.Error(t, err)
}

// The part fails final fit checks at assembly and goes back for more
// trimming; the configured edge makes that legal.
func TestRecordTransitionReworkFromAssembly(t *testing.T) {
	svc, _, _ := newTransitionFixture(t)
	ctx := context.Background()

	for _, dept := range []string{"cleanroom", "autoclave", "ndi", "trimming", "assembly"} {
		_, err := svc.RecordTransition(ctx, 1, dept, models.EventTypeEntry, 7, "")
		require.NoError(t, err)
		_, err = svc.RecordTransition(ctx, 1, dept, models.EventTypeExit, 7, "")
		require.NoError(t, err)
	}

	_, err := svc.RecordTransition(ctx, 1, "trimming", models.EventTypeEntry, 7, "rework: edge tolerance")
	require.NoError(t, err)
}

// Two scans race against the same prior state. The chained append lets
// exactly one commit; the loser re-validates and gets the specific
// transition error, never a second event.
func TestRecordTransitionConcurrentSameState(t *testing.T) {
	svc, ledger, _ := newTransitionFixture(t)
	ctx := context.Background()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordTransition(ctx, 1, "cleanroom", models.EventTypeEntry, 7, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, models.ErrIllegalSuccessor)
			rejected++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	events, err := ledger.ListByOrder(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

// A competing append lands between our read and our write. The loser
// must re-validate against the fresh state, not blindly retry: here the
// competitor already recorded the same ENTRY, so ours becomes illegal.
func TestRecordTransitionLosesRaceThenRevalidates(t *testing.T) {
	svc, ledger, _ := newTransitionFixture(t)
	ctx := context.Background()

	ledger.beforeAppend = func() {
		ledger.append(&models.ProductionEvent{
			OrderID:        1,
			DepartmentCode: "cleanroom",
			EventType:      models.EventTypeEntry,
			ActorID:        9,
			RecordedAt:     time.Now(),
		})
	}

	_, err := svc.RecordTransition(ctx, 1, "cleanroom", models.EventTypeEntry, 7, "")
	assert.ErrorIs(t, err, models.ErrIllegalSuccessor)

	// Exactly one ENTRY made it into the ledger
	events, err := ledger.ListByOrder(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
