package services

import (
	"context"
	"errors"

	"odl-backend/internal/models"
	"odl-backend/internal/qr"
)

// ScanService runs the scan pipeline: decode the QR token, pass the
// scan guard, resolve the target transition, hand it to the engine and
// project the resulting state. Rejections at any step never touch the
// ledger.
type ScanService struct {
	Codec       *qr.Codec
	Guard       *ScanGuard
	Transitions *TransitionService
	Status      *StatusService
	Ledger      LedgerRepo
	WorkOrders  WorkOrderStore
	Departments DepartmentStore
}

func NewScanService(codec *qr.Codec, guard *ScanGuard, transitions *TransitionService, status *StatusService, ledger LedgerRepo, workOrders WorkOrderStore, departments DepartmentStore) *ScanService {
	return &ScanService{
		Codec:       codec,
		Guard:       guard,
		Transitions: transitions,
		Status:      status,
		Ledger:      ledger,
		WorkOrders:  workOrders,
		Departments: departments,
	}
}

func (s *ScanService) ProcessScan(ctx context.Context, req *models.ScanRequest, actorID int) (*models.ScanResponse, error) {
	token, err := s.Codec.Decode(req.Token)
	if err != nil {
		return nil, err
	}

	if err := s.Guard.Admit(ctx, req.Token, actorID); err != nil {
		return nil, err
	}

	order, err := s.WorkOrders.GetByOrderNumber(ctx, token.OrderNumber)
	if err != nil {
		return nil, err
	}
	// A label whose part reference no longer matches the order is a
	// stale print for a reissued number; treat it as unknown.
	if token.PartNumber != order.PartNumber {
		return nil, models.ErrOrderNotFound
	}

	departmentCode, eventType, err := s.resolveTarget(ctx, order.ID, req.DepartmentCode)
	if err != nil {
		return nil, err
	}

	event, err := s.Transitions.RecordTransition(ctx, order.ID, departmentCode, eventType, actorID, req.Notes)
	if err != nil {
		return nil, err
	}

	status, err := s.Status.Project(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	return &models.ScanResponse{
		Status: "accepted",
		Event:  event,
		Order:  status,
	}, nil
}

// resolveTarget picks the transition a bare scan means. An order
// sitting in a department exits it; otherwise the scan is an ENTRY
// into the scanning station, or into the single configured successor
// when no station is given. The transition engine stays the authority
// on legality either way.
func (s *ScanService) resolveTarget(ctx context.Context, orderID int, station string) (string, string, error) {
	last, err := s.Ledger.LastEvent(ctx, orderID)
	if err != nil {
		return "", "", err
	}

	if last != nil && last.EventType == models.EventTypeEntry {
		if station != "" {
			return station, models.EventTypeExit, nil
		}
		return last.DepartmentCode, models.EventTypeExit, nil
	}

	if station != "" {
		return station, models.EventTypeEntry, nil
	}

	fromCode := ""
	if last != nil {
		fromCode = last.DepartmentCode
	}
	successors, err := s.Departments.Successors(ctx, fromCode)
	if err != nil {
		return "", "", err
	}
	switch len(successors) {
	case 0:
		return "", "", models.ErrAlreadyCompleted
	case 1:
		return successors[0], models.EventTypeEntry, nil
	default:
		return "", "", errors.New("department_code required: multiple successors are configured")
	}
}
