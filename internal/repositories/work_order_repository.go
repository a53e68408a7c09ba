package repositories

import (
	"context"
	"errors"

	"odl-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WorkOrderRepository struct {
	DB *pgxpool.Pool
}

func NewWorkOrderRepository(db *pgxpool.Pool) *WorkOrderRepository {
	return &WorkOrderRepository{DB: db}
}

func (r *WorkOrderRepository) Create(ctx context.Context, o *models.WorkOrder) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO work_orders(order_number, part_number, quantity, priority, current_status)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id, created_at`,
		o.OrderNumber, o.PartNumber, o.Quantity, o.Priority, models.StatusNotStarted,
	).Scan(&o.ID, &o.CreatedAt)
}

func (r *WorkOrderRepository) Get(ctx context.Context, id int) (*models.WorkOrder, error) {
	return r.scanOne(r.DB.QueryRow(ctx,
		`SELECT id, order_number, part_number, quantity, priority, current_status, current_department, created_at
         FROM work_orders WHERE id=$1`, id))
}

func (r *WorkOrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.WorkOrder, error) {
	return r.scanOne(r.DB.QueryRow(ctx,
		`SELECT id, order_number, part_number, quantity, priority, current_status, current_department, created_at
         FROM work_orders WHERE order_number=$1`, orderNumber))
}

func (r *WorkOrderRepository) List(ctx context.Context) ([]*models.WorkOrder, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, order_number, part_number, quantity, priority, current_status, current_department, created_at
         FROM work_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.WorkOrder
	for rows.Next() {
		var o models.WorkOrder
		err := rows.Scan(&o.ID, &o.OrderNumber, &o.PartNumber, &o.Quantity, &o.Priority,
			&o.CurrentStatus, &o.CurrentDepartment, &o.CreatedAt)
		if err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

// UpdateCachedStatus rewrites the denormalized status columns. This is
// a projection hint only; the ledger stays the authority and the write
// is idempotent, so no coordination is needed.
func (r *WorkOrderRepository) UpdateCachedStatus(ctx context.Context, id int, status string, department *string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE work_orders SET current_status=$2, current_department=$3 WHERE id=$1`,
		id, status, department)
	return err
}

func (r *WorkOrderRepository) scanOne(row pgx.Row) (*models.WorkOrder, error) {
	var o models.WorkOrder
	err := row.Scan(&o.ID, &o.OrderNumber, &o.PartNumber, &o.Quantity, &o.Priority,
		&o.CurrentStatus, &o.CurrentDepartment, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
