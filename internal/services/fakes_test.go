package services

import (
	"context"
	"sync"
	"time"

	"odl-backend/internal/models"
)

// In-memory fakes for the repository ports. The ledger fake enforces
// the same compare-and-append contract as the Postgres repository.

type fakeLedger struct {
	mu     sync.Mutex
	events []*models.ProductionEvent
	nextID int64

	// one successor per (order, predecessor), mirroring the unique
	// constraint on (order_id, prev_event_id)
	usedSlots map[slotKey]bool

	// orders lets the fake resolve roster and part lookups
	orders map[int]*models.WorkOrder

	// invoked before each append attempt, outside the lock; lets a
	// test interleave a competing append
	beforeAppend func()
}

type slotKey struct {
	orderID int
	prevID  int64 // 0 = first event
}

func newFakeLedger(orders map[int]*models.WorkOrder) *fakeLedger {
	return &fakeLedger{orders: orders, usedSlots: make(map[slotKey]bool)}
}

func (l *fakeLedger) AppendAfter(ctx context.Context, e *models.ProductionEvent, expectedLastID *int64) error {
	if l.beforeAppend != nil {
		hook := l.beforeAppend
		l.beforeAppend = nil
		hook()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := slotKey{orderID: e.OrderID}
	if expectedLastID != nil {
		key.prevID = *expectedLastID
	}
	if l.usedSlots[key] {
		return models.ErrStaleAppend
	}
	l.usedSlots[key] = true

	l.nextID++
	e.ID = l.nextID
	clone := *e
	l.events = append(l.events, &clone)
	return nil
}

// append preloads an event without the chain check, claiming the slot
// after the order's current last event.
func (l *fakeLedger) append(e *models.ProductionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := slotKey{orderID: e.OrderID}
	for _, ev := range l.events {
		if ev.OrderID == e.OrderID {
			key.prevID = ev.ID
		}
	}
	l.usedSlots[key] = true

	l.nextID++
	e.ID = l.nextID
	clone := *e
	l.events = append(l.events, &clone)
}

func (l *fakeLedger) LastEvent(ctx context.Context, orderID int) (*models.ProductionEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var last *models.ProductionEvent
	for _, ev := range l.events {
		if ev.OrderID == orderID {
			last = ev
		}
	}
	if last == nil {
		return nil, nil
	}
	clone := *last
	return &clone, nil
}

func (l *fakeLedger) ListByOrder(ctx context.Context, orderID int) ([]*models.ProductionEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*models.ProductionEvent
	for _, ev := range l.events {
		if ev.OrderID == orderID {
			clone := *ev
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (l *fakeLedger) ListResident(ctx context.Context, departmentCode string) ([]*models.RosterItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lastByOrder := make(map[int]*models.ProductionEvent)
	for _, ev := range l.events {
		lastByOrder[ev.OrderID] = ev
	}

	var out []*models.RosterItem
	for orderID, ev := range lastByOrder {
		if ev.EventType != models.EventTypeEntry || ev.DepartmentCode != departmentCode {
			continue
		}
		order := l.orders[orderID]
		out = append(out, &models.RosterItem{
			OrderID:     orderID,
			OrderNumber: order.OrderNumber,
			PartNumber:  order.PartNumber,
			Priority:    order.Priority,
			EnteredAt:   ev.RecordedAt,
		})
	}
	return out, nil
}

func (l *fakeLedger) ListExitsByOrder(ctx context.Context, orderID int) ([]*models.ProductionEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*models.ProductionEvent
	for _, ev := range l.events {
		if ev.OrderID == orderID && ev.EventType == models.EventTypeExit {
			clone := *ev
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (l *fakeLedger) ListExitsByPart(ctx context.Context, partNumber string, since *time.Time) ([]*models.ProductionEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*models.ProductionEvent
	for _, ev := range l.events {
		if ev.EventType != models.EventTypeExit {
			continue
		}
		order := l.orders[ev.OrderID]
		if order == nil || order.PartNumber != partNumber {
			continue
		}
		if since != nil && ev.RecordedAt.Before(*since) {
			continue
		}
		clone := *ev
		out = append(out, &clone)
	}
	return out, nil
}

type fakeWorkOrders struct {
	mu     sync.Mutex
	orders map[int]*models.WorkOrder
}

func newFakeWorkOrders(orders ...*models.WorkOrder) *fakeWorkOrders {
	m := make(map[int]*models.WorkOrder)
	for _, o := range orders {
		m[o.ID] = o
	}
	return &fakeWorkOrders{orders: m}
}

func (f *fakeWorkOrders) Get(ctx context.Context, id int) (*models.WorkOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (f *fakeWorkOrders) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.WorkOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			clone := *o
			return &clone, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

func (f *fakeWorkOrders) UpdateCachedStatus(ctx context.Context, id int, status string, department *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		o.CurrentStatus = status
		o.CurrentDepartment = department
	}
	return nil
}

type fakeDepartments struct {
	departments map[string]*models.Department
	successors  map[string][]string
	terminal    string
}

// plantDepartments mirrors the seeded production chain, including the
// rework edges back from inspection and painting.
func plantDepartments() *fakeDepartments {
	chain := []string{"cleanroom", "autoclave", "ndi", "trimming", "assembly", "painting"}

	departments := make(map[string]*models.Department)
	successors := map[string][]string{"": {chain[0]}}
	for i, code := range chain {
		departments[code] = &models.Department{Code: code, Name: code, Position: i + 1}
		if i+1 < len(chain) {
			successors[code] = []string{chain[i+1]}
		}
	}
	successors["ndi"] = append(successors["ndi"], "cleanroom")
	successors["assembly"] = append(successors["assembly"], "trimming")

	return &fakeDepartments{
		departments: departments,
		successors:  successors,
		terminal:    "painting",
	}
}

func (f *fakeDepartments) Get(ctx context.Context, code string) (*models.Department, error) {
	d, ok := f.departments[code]
	if !ok {
		return nil, models.ErrUnknownDepartment
	}
	return d, nil
}

func (f *fakeDepartments) Successors(ctx context.Context, fromCode string) ([]string, error) {
	return f.successors[fromCode], nil
}

func (f *fakeDepartments) Terminal(ctx context.Context) (string, error) {
	return f.terminal, nil
}
