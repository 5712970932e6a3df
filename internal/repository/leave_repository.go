package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pointage-hr/pointage-api/internal/models"
)

// LeaveRepository handles persistence for expanded leave-day records.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// UpsertDays writes one row per day, replacing any existing record for the
// same employee and date. All rows commit or none do.
func (r *LeaveRepository) UpsertDays(ctx context.Context, records []models.LeaveRecord) ([]models.LeaveRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin leave upsert: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	query := `INSERT INTO leave_records (id, employee_id, date, status, leave_type, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (employee_id, date)
DO UPDATE SET status = EXCLUDED.status, leave_type = EXCLUDED.leave_type, updated_at = EXCLUDED.updated_at
RETURNING id, employee_id, date, status, leave_type, created_at, updated_at`

	now := time.Now().UTC()
	stored := make([]models.LeaveRecord, 0, len(records))
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		var row models.LeaveRecord
		if err := tx.GetContext(ctx, &row, query, rec.ID, rec.EmployeeID, rec.Date, rec.Status, rec.LeaveType, rec.CreatedAt, rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("upsert leave day: %w", err)
		}
		stored = append(stored, row)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit leave upsert: %w", err)
	}
	commit = true
	return stored, nil
}

// ListForMonth returns an employee's leave records within [monthStart, monthEnd].
func (r *LeaveRepository) ListForMonth(ctx context.Context, employeeID string, monthStart, monthEnd time.Time) ([]models.LeaveRecord, error) {
	query := `SELECT l.id, l.employee_id, l.date, l.status, l.leave_type, l.created_at, l.updated_at,
e.full_name AS employee_name
FROM leave_records l
JOIN employees e ON e.id = l.employee_id
WHERE l.employee_id = $1 AND l.date >= $2 AND l.date <= $3
ORDER BY l.date ASC`
	var rows []models.LeaveRecord
	if err := r.db.SelectContext(ctx, &rows, query, employeeID, monthStart, monthEnd); err != nil {
		return nil, fmt.Errorf("list leave for month: %w", err)
	}
	return rows, nil
}

// List returns leave records matching the provided filter.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRecord, int, error) {
	base := `FROM leave_records l
JOIN employees e ON e.id = l.employee_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.EmployeeID != "" {
		where = append(where, fmt.Sprintf("l.employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("l.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Month != nil {
		monthStart := time.Date(filter.Month.Year(), filter.Month.Month(), 1, 0, 0, 0, 0, time.UTC)
		monthEnd := monthStart.AddDate(0, 1, -1)
		where = append(where, fmt.Sprintf("l.date >= $%d", len(args)+1))
		args = append(args, monthStart)
		where = append(where, fmt.Sprintf("l.date <= $%d", len(args)+1))
		args = append(args, monthEnd)
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

	query := fmt.Sprintf(`SELECT l.id, l.employee_id, l.date, l.status, l.leave_type, l.created_at, l.updated_at,
e.full_name AS employee_name
%s WHERE %s
ORDER BY l.date DESC
LIMIT %d OFFSET %d`, base, whereClause, size, offset)

	var rows []models.LeaveRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leave records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leave records: %w", err)
	}
	return rows, total, nil
}
