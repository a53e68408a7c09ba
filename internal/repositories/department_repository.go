package repositories

import (
	"context"
	"errors"

	"odl-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DepartmentRepository reads the static production sequence and the
// configured successor set (master data; read-only for this service).
type DepartmentRepository struct {
	DB *pgxpool.Pool
}

func NewDepartmentRepository(db *pgxpool.Pool) *DepartmentRepository {
	return &DepartmentRepository{DB: db}
}

func (r *DepartmentRepository) Get(ctx context.Context, code string) (*models.Department, error) {
	var d models.Department
	err := r.DB.QueryRow(ctx,
		`SELECT code, name, position FROM departments WHERE code=$1`, code,
	).Scan(&d.Code, &d.Name, &d.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrUnknownDepartment
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]*models.Department, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT code, name, position FROM departments ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []*models.Department
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.Code, &d.Name, &d.Position); err != nil {
			return nil, err
		}
		departments = append(departments, &d)
	}
	return departments, rows.Err()
}

// Successors returns the departments reachable from fromCode. The
// empty string is the start position: its successors are the legal
// first entries. Rework edges back to earlier departments live in the
// same table.
func (r *DepartmentRepository) Successors(ctx context.Context, fromCode string) ([]string, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT to_code FROM department_successors WHERE from_code=$1 ORDER BY to_code`, fromCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Terminal returns the code of the last department in the sequence;
// its EXIT completes an order.
func (r *DepartmentRepository) Terminal(ctx context.Context) (string, error) {
	var code string
	err := r.DB.QueryRow(ctx,
		`SELECT code FROM departments ORDER BY position DESC LIMIT 1`).Scan(&code)
	return code, err
}
