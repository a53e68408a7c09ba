package services

import (
	"context"
	"time"

	"odl-backend/internal/models"
)

// Ports consumed by the service layer. The pgx repositories satisfy
// them in production; tests plug in in-memory fakes.

type LedgerRepo interface {
	AppendAfter(ctx context.Context, e *models.ProductionEvent, expectedLastID *int64) error
	LastEvent(ctx context.Context, orderID int) (*models.ProductionEvent, error)
	ListByOrder(ctx context.Context, orderID int) ([]*models.ProductionEvent, error)
	ListResident(ctx context.Context, departmentCode string) ([]*models.RosterItem, error)
	ListExitsByOrder(ctx context.Context, orderID int) ([]*models.ProductionEvent, error)
	ListExitsByPart(ctx context.Context, partNumber string, since *time.Time) ([]*models.ProductionEvent, error)
}

type WorkOrderStore interface {
	Get(ctx context.Context, id int) (*models.WorkOrder, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.WorkOrder, error)
	UpdateCachedStatus(ctx context.Context, id int, status string, department *string) error
}

type DepartmentStore interface {
	Get(ctx context.Context, code string) (*models.Department, error)
	Successors(ctx context.Context, fromCode string) ([]string, error)
	Terminal(ctx context.Context) (string, error)
}

// EventSink receives successfully appended events (websocket feed).
type EventSink interface {
	Publish(e *models.ProductionEvent)
}
