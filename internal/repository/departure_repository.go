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

// DepartureRepository handles persistence for temporary departures.
type DepartureRepository struct {
	db *sqlx.DB
}

// NewDepartureRepository constructs the repository.
func NewDepartureRepository(db *sqlx.DB) *DepartureRepository {
	return &DepartureRepository{db: db}
}

const departureColumns = `d.id, d.employee_id, d.date, d.departure_time, d.return_time,
d.reason, d.return_signature, d.created_at, d.updated_at,
e.full_name AS employee_name, e.company_id`

// Insert opens a new departure record.
func (r *DepartureRepository) Insert(ctx context.Context, record *models.TemporaryDeparture) (*models.TemporaryDeparture, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = now
	record.UpdatedAt = now
	query := `INSERT INTO temporary_departures (id, employee_id, date, departure_time, reason, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, employee_id, date, departure_time, return_time, reason, return_signature, created_at, updated_at`
	var stored models.TemporaryDeparture
	if err := r.db.GetContext(ctx, &stored, query, record.ID, record.EmployeeID, record.Date,
		record.DepartureTime, record.Reason, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert departure: %w", err)
	}
	return &stored, nil
}

// GetByID returns a departure or nil when missing.
func (r *DepartureRepository) GetByID(ctx context.Context, id string) (*models.TemporaryDeparture, error) {
	query := fmt.Sprintf(`SELECT %s
FROM temporary_departures d
JOIN employees e ON e.id = d.employee_id
WHERE d.id = $1`, departureColumns)
	var row models.TemporaryDeparture
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get departure: %w", err)
	}
	return &row, nil
}

// Close records the return time and signature. The WHERE guard keeps an
// already-closed record untouched; nil result means no open row matched.
func (r *DepartureRepository) Close(ctx context.Context, id string, returnTime time.Time, signature string) (*models.TemporaryDeparture, error) {
	query := `UPDATE temporary_departures
SET return_time = $2, return_signature = $3, updated_at = $4
WHERE id = $1 AND return_time IS NULL
RETURNING id, employee_id, date, departure_time, return_time, reason, return_signature, created_at, updated_at`
	var stored models.TemporaryDeparture
	if err := r.db.GetContext(ctx, &stored, query, id, returnTime, signature, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("close departure: %w", err)
	}
	return &stored, nil
}

// LatestOpenByEmployee returns the employee's open departure with the greatest
// (date, departure_time), or nil when every record is closed.
func (r *DepartureRepository) LatestOpenByEmployee(ctx context.Context, employeeID string) (*models.TemporaryDeparture, error) {
	query := fmt.Sprintf(`SELECT %s
FROM temporary_departures d
JOIN employees e ON e.id = d.employee_id
WHERE d.employee_id = $1 AND d.return_time IS NULL
ORDER BY d.date DESC, d.departure_time DESC
LIMIT 1`, departureColumns)
	var row models.TemporaryDeparture
	if err := r.db.GetContext(ctx, &row, query, employeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest open departure: %w", err)
	}
	return &row, nil
}

// List returns departures matching the provided filter.
func (r *DepartureRepository) List(ctx context.Context, filter models.DepartureFilter) ([]models.TemporaryDeparture, int, error) {
	base := `FROM temporary_departures d
JOIN employees e ON e.id = d.employee_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.EmployeeID != "" {
		where = append(where, fmt.Sprintf("d.employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.CompanyID != "" {
		where = append(where, fmt.Sprintf("e.company_id = $%d", len(args)+1))
		args = append(args, filter.CompanyID)
	}
	if filter.Month != nil {
		monthStart := time.Date(filter.Month.Year(), filter.Month.Month(), 1, 0, 0, 0, 0, time.UTC)
		monthEnd := monthStart.AddDate(0, 1, -1)
		where = append(where, fmt.Sprintf("d.date >= $%d", len(args)+1))
		args = append(args, monthStart)
		where = append(where, fmt.Sprintf("d.date <= $%d", len(args)+1))
		args = append(args, monthEnd)
	}
	if filter.OpenOnly {
		where = append(where, "d.return_time IS NULL")
	}
	whereClause := strings.Join(where, " AND ")

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
ORDER BY d.date DESC, d.departure_time DESC
LIMIT %d OFFSET %d`, departureColumns, base, whereClause, size, offset)

	var rows []models.TemporaryDeparture
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list departures: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count departures: %w", err)
	}
	return rows, total, nil
}
