package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pointage-hr/pointage-api/internal/models"
)

// EmployeeRepository handles persistence for the employee directory.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs the repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `emp.id, emp.full_name, emp.position, emp.company_id, emp.active,
emp.created_at, emp.updated_at, c.name AS company_name`

// List returns employees matching the provided filter.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	base := `FROM employees emp
LEFT JOIN companies c ON c.id = emp.company_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.CompanyID != "" {
		where = append(where, fmt.Sprintf("emp.company_id = $%d", len(args)+1))
		args = append(args, filter.CompanyID)
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("emp.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("emp.full_name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	whereClause := strings.Join(where, " AND ")

	sortBy := filter.SortBy
	allowedSort := map[string]string{
		"full_name":  "emp.full_name",
		"created_at": "emp.created_at",
	}
	sortColumn, ok := allowedSort[sortBy]
	if !ok {
		sortColumn = "emp.full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s
%s WHERE %s
ORDER BY %s %s
LIMIT %d OFFSET %d`, employeeColumns, base, whereClause, sortColumn, order, size, offset)

	var rows []models.Employee
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}
	return rows, total, nil
}

// ListActive returns every active employee, ordered by name.
func (r *EmployeeRepository) ListActive(ctx context.Context) ([]models.Employee, error) {
	query := fmt.Sprintf(`SELECT %s
FROM employees emp
LEFT JOIN companies c ON c.id = emp.company_id
WHERE emp.active = true
ORDER BY emp.full_name ASC`, employeeColumns)
	var rows []models.Employee
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	return rows, nil
}

// GetByID returns an employee or nil when missing.
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	query := fmt.Sprintf(`SELECT %s
FROM employees emp
LEFT JOIN companies c ON c.id = emp.company_id
WHERE emp.id = $1`, employeeColumns)
	var row models.Employee
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &row, nil
}

// Create inserts a new employee.
func (r *EmployeeRepository) Create(ctx context.Context, emp *models.Employee) (*models.Employee, error) {
	now := time.Now().UTC()
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	emp.CreatedAt = now
	emp.UpdatedAt = now
	query := `INSERT INTO employees (id, full_name, position, company_id, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, full_name, position, company_id, active, created_at, updated_at`
	var stored models.Employee
	if err := r.db.GetContext(ctx, &stored, query, emp.ID, emp.FullName, emp.Position, emp.CompanyID, emp.Active, emp.CreatedAt, emp.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return &stored, nil
}

// Update edits an employee; nil result means the row does not exist.
func (r *EmployeeRepository) Update(ctx context.Context, emp *models.Employee) (*models.Employee, error) {
	query := `UPDATE employees
SET full_name = $2, position = $3, company_id = $4, active = $5, updated_at = $6
WHERE id = $1
RETURNING id, full_name, position, company_id, active, created_at, updated_at`
	var stored models.Employee
	if err := r.db.GetContext(ctx, &stored, query, emp.ID, emp.FullName, emp.Position, emp.CompanyID, emp.Active, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return &stored, nil
}

// Delete removes an employee. Deleting a missing row is not an error.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	return nil
}
