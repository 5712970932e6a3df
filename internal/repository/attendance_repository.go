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

// AttendanceRepository handles persistence for daily attendance rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `a.id, a.employee_id, a.date, a.checkin_time, a.checkout_time,
a.checkin_signature, a.checkout_signature, a.on_field, a.created_at, a.updated_at,
e.full_name AS employee_name, e.company_id`

// GetByEmployeeAndDate returns the attendance row for an employee on a date,
// or nil when none exists.
func (r *AttendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s
FROM attendances a
JOIN employees e ON e.id = a.employee_id
WHERE a.employee_id = $1 AND a.date = $2`, attendanceColumns)
	var row models.Attendance
	if err := r.db.GetContext(ctx, &row, query, employeeID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return &row, nil
}

// InsertCheckIn creates the attendance row for a check-in. The unique
// (employee_id, date) constraint rejects a second check-in on the same day.
func (r *AttendanceRepository) InsertCheckIn(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = now
	record.UpdatedAt = now
	query := `INSERT INTO attendances (id, employee_id, date, checkin_time, checkin_signature, on_field, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, employee_id, date, checkin_time, checkout_time, checkin_signature, checkout_signature, on_field, created_at, updated_at`
	var stored models.Attendance
	if err := r.db.GetContext(ctx, &stored, query, record.ID, record.EmployeeID, record.Date,
		record.CheckInTime, record.CheckInSignature, record.OnField, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert check-in: %w", err)
	}
	return &stored, nil
}

// SetCheckOut records the check-out time and signature on an existing row.
func (r *AttendanceRepository) SetCheckOut(ctx context.Context, id string, checkOut time.Time, signature string) (*models.Attendance, error) {
	query := `UPDATE attendances
SET checkout_time = $2, checkout_signature = $3, updated_at = $4
WHERE id = $1
RETURNING id, employee_id, date, checkin_time, checkout_time, checkin_signature, checkout_signature, on_field, created_at, updated_at`
	var stored models.Attendance
	if err := r.db.GetContext(ctx, &stored, query, id, checkOut, signature, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("set check-out: %w", err)
	}
	return &stored, nil
}

// ListForDate returns every attendance row dated exactly on the given day.
func (r *AttendanceRepository) ListForDate(ctx context.Context, date time.Time) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s
FROM attendances a
JOIN employees e ON e.id = a.employee_id
WHERE a.date = $1
ORDER BY a.checkin_time ASC NULLS LAST`, attendanceColumns)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, date); err != nil {
		return nil, fmt.Errorf("list attendance for date: %w", err)
	}
	return rows, nil
}

// ListForMonth returns an employee's rows within [monthStart, monthEnd].
func (r *AttendanceRepository) ListForMonth(ctx context.Context, employeeID string, monthStart, monthEnd time.Time) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s
FROM attendances a
JOIN employees e ON e.id = a.employee_id
WHERE a.employee_id = $1 AND a.date >= $2 AND a.date <= $3
ORDER BY a.date ASC`, attendanceColumns)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, employeeID, monthStart, monthEnd); err != nil {
		return nil, fmt.Errorf("list attendance for month: %w", err)
	}
	return rows, nil
}

// List returns attendance rows matching the provided filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error) {
	base := `FROM attendances a
JOIN employees e ON e.id = a.employee_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.EmployeeID != "" {
		where = append(where, fmt.Sprintf("a.employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.CompanyID != "" {
		where = append(where, fmt.Sprintf("e.company_id = $%d", len(args)+1))
		args = append(args, filter.CompanyID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
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
ORDER BY a.date DESC, a.checkin_time DESC NULLS LAST
LIMIT %d OFFSET %d`, attendanceColumns, base, whereClause, size, offset)

	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return rows, total, nil
}
