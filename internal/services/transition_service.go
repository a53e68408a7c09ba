package services

import (
	"context"
	"errors"
	"log"
	"time"

	"odl-backend/internal/cache"
	"odl-backend/internal/metrics"
	"odl-backend/internal/models"
	"odl-backend/internal/timeutil"
)

// A losing compare-and-append is retried against fresh state this many
// times before giving up; the re-validation normally turns the retry
// into a specific transition error instead.
const maxAppendAttempts = 3

// TransitionService is the sole writer of the event ledger. It decides
// the legality of each ENTRY/EXIT against the order's projected state
// and appends with a compare-and-append guard, so concurrent scans for
// the same order can never both succeed against the same prior state.
type TransitionService struct {
	Ledger      LedgerRepo
	WorkOrders  WorkOrderStore
	Departments DepartmentStore

	sink EventSink
	now  func() time.Time
}

func NewTransitionService(ledger LedgerRepo, workOrders WorkOrderStore, departments DepartmentStore) *TransitionService {
	return &TransitionService{
		Ledger:      ledger,
		WorkOrders:  workOrders,
		Departments: departments,
		now:         timeutil.Now,
	}
}

// SetEventSink wires the live event feed (optional).
func (s *TransitionService) SetEventSink(sink EventSink) {
	s.sink = sink
}

// RecordTransition validates and appends one production event.
func (s *TransitionService) RecordTransition(ctx context.Context, orderID int, departmentCode, eventType string, actorID int, notes string) (*models.ProductionEvent, error) {
	if eventType != models.EventTypeEntry && eventType != models.EventTypeExit {
		return nil, errors.New("event type must be ENTRY or EXIT")
	}

	dept, err := s.Departments.Get(ctx, departmentCode)
	if err != nil {
		return nil, err
	}
	terminal, err := s.Departments.Terminal(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		last, err := s.Ledger.LastEvent(ctx, orderID)
		if err != nil {
			return nil, err
		}

		if err := s.validate(ctx, last, dept.Code, eventType, terminal); err != nil {
			return nil, err
		}

		now := s.now()
		event := &models.ProductionEvent{
			OrderID:        orderID,
			DepartmentCode: dept.Code,
			EventType:      eventType,
			ActorID:        actorID,
			RecordedAt:     now,
			Notes:          notes,
		}

		// Duration is stamped once, here, from the matching ENTRY.
		// Historical metrics stay stable even if clocks change later.
		if eventType == models.EventTypeExit {
			minutes := now.Sub(last.RecordedAt).Minutes()
			event.DurationMinutes = &minutes
		}

		var expected *int64
		if last != nil {
			expected = &last.ID
		}

		if err := s.Ledger.AppendAfter(ctx, event, expected); err != nil {
			if errors.Is(err, models.ErrStaleAppend) {
				// A concurrent transition won; re-validate against
				// the fresh last event.
				continue
			}
			return nil, err
		}

		s.afterAppend(ctx, event, terminal)
		return event, nil
	}

	return nil, models.ErrStaleAppend
}

// validate applies the state machine: the last ledger event fully
// determines what is legal next.
func (s *TransitionService) validate(ctx context.Context, last *models.ProductionEvent, departmentCode, eventType, terminal string) error {
	switch {
	case last == nil:
		if eventType == models.EventTypeExit {
			return models.ErrNoMatchingEntry
		}
		return s.checkSuccessor(ctx, "", departmentCode)

	case last.EventType == models.EventTypeEntry:
		if eventType == models.EventTypeEntry {
			return models.ErrIllegalSuccessor
		}
		if departmentCode != last.DepartmentCode {
			return models.ErrNoMatchingEntry
		}
		return nil

	default: // last event is an EXIT
		if last.DepartmentCode == terminal {
			return models.ErrAlreadyCompleted
		}
		if eventType == models.EventTypeExit {
			return models.ErrNoMatchingEntry
		}
		return s.checkSuccessor(ctx, last.DepartmentCode, departmentCode)
	}
}

func (s *TransitionService) checkSuccessor(ctx context.Context, fromCode, toCode string) error {
	successors, err := s.Departments.Successors(ctx, fromCode)
	if err != nil {
		return err
	}
	for _, code := range successors {
		if code == toCode {
			return nil
		}
	}
	return models.ErrIllegalSuccessor
}

// afterAppend applies the best-effort side effects of a committed
// event: the denormalized status hint, counters, cache invalidation
// and the live feed. None of these may fail the transition.
func (s *TransitionService) afterAppend(ctx context.Context, event *models.ProductionEvent, terminal string) {
	status := models.StatusInDepartment
	var department *string
	if event.EventType == models.EventTypeEntry {
		department = &event.DepartmentCode
	} else if event.DepartmentCode == terminal {
		status = models.StatusCompleted
	} else {
		status = models.StatusAwaitingNext
	}

	if err := s.WorkOrders.UpdateCachedStatus(ctx, event.OrderID, status, department); err != nil {
		log.Printf("[Transitions] cached status update failed for order %d: %v", event.OrderID, err)
	}

	metrics.TransitionsTotal.WithLabelValues(event.DepartmentCode, event.EventType).Inc()
	cache.InvalidateRoster(ctx, event.DepartmentCode)

	if s.sink != nil {
		s.sink.Publish(event)
	}
}
