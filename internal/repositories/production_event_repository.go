package repositories

import (
	"context"
	"errors"
	"time"

	"odl-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductionEventRepository owns the append-only event ledger. Rows are
// never updated or deleted.
type ProductionEventRepository struct {
	DB *pgxpool.Pool
}

func NewProductionEventRepository(db *pgxpool.Pool) *ProductionEventRepository {
	return &ProductionEventRepository{DB: db}
}

// AppendAfter inserts an event chained to expectedLastID (nil for the
// first event of an order). The unique constraint on
// (order_id, prev_event_id) is the per-order serialization point: when
// two concurrent transitions hold the same expectation, the second
// insert gets a unique violation and returns ErrStaleAppend, whatever
// the isolation level. No lock spans orders.
func (r *ProductionEventRepository) AppendAfter(ctx context.Context, e *models.ProductionEvent, expectedLastID *int64) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO production_events(order_id, prev_event_id, department_code, event_type, actor_id, recorded_at, duration_minutes, notes)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING id`,
		e.OrderID, expectedLastID, e.DepartmentCode, e.EventType, e.ActorID, e.RecordedAt, e.DurationMinutes, e.Notes,
	).Scan(&e.ID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return models.ErrStaleAppend
	}
	return err
}

func (r *ProductionEventRepository) LastEvent(ctx context.Context, orderID int) (*models.ProductionEvent, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, order_id, department_code, event_type, actor_id, recorded_at, duration_minutes, notes
         FROM production_events WHERE order_id=$1 ORDER BY id DESC LIMIT 1`, orderID)

	var e models.ProductionEvent
	err := row.Scan(&e.ID, &e.OrderID, &e.DepartmentCode, &e.EventType, &e.ActorID,
		&e.RecordedAt, &e.DurationMinutes, &e.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ProductionEventRepository) ListByOrder(ctx context.Context, orderID int) ([]*models.ProductionEvent, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, order_id, department_code, event_type, actor_id, recorded_at, duration_minutes, notes
         FROM production_events WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListResident returns one row per order whose latest event is an open
// ENTRY into the department. Elapsed time and dispatch ordering are the
// caller's job.
func (r *ProductionEventRepository) ListResident(ctx context.Context, departmentCode string) ([]*models.RosterItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT w.id, w.order_number, w.part_number, w.priority, e.recorded_at
         FROM (
             SELECT DISTINCT ON (order_id) order_id, department_code, event_type, recorded_at
             FROM production_events
             ORDER BY order_id, id DESC
         ) e
         JOIN work_orders w ON w.id = e.order_id
         WHERE e.event_type = 'ENTRY' AND e.department_code = $1`, departmentCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.RosterItem
	for rows.Next() {
		var item models.RosterItem
		err := rows.Scan(&item.OrderID, &item.OrderNumber, &item.PartNumber, &item.Priority, &item.EnteredAt)
		if err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *ProductionEventRepository) ListExitsByOrder(ctx context.Context, orderID int) ([]*models.ProductionEvent, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, order_id, department_code, event_type, actor_id, recorded_at, duration_minutes, notes
         FROM production_events WHERE order_id=$1 AND event_type='EXIT' ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListExitsByPart returns EXIT events across all orders sharing a part
// number, optionally restricted to a trailing window.
func (r *ProductionEventRepository) ListExitsByPart(ctx context.Context, partNumber string, since *time.Time) ([]*models.ProductionEvent, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT e.id, e.order_id, e.department_code, e.event_type, e.actor_id, e.recorded_at, e.duration_minutes, e.notes
         FROM production_events e
         JOIN work_orders w ON w.id = e.order_id
         WHERE w.part_number=$1 AND e.event_type='EXIT'
           AND ($2::timestamptz IS NULL OR e.recorded_at >= $2)
         ORDER BY e.id`, partNumber, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]*models.ProductionEvent, error) {
	var events []*models.ProductionEvent
	for rows.Next() {
		var e models.ProductionEvent
		err := rows.Scan(&e.ID, &e.OrderID, &e.DepartmentCode, &e.EventType, &e.ActorID,
			&e.RecordedAt, &e.DurationMinutes, &e.Notes)
		if err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
