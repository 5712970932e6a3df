package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pointage-hr/pointage-api/internal/models"
	appErrors "github.com/pointage-hr/pointage-api/pkg/errors"
	"github.com/pointage-hr/pointage-api/pkg/workcal"
)

type attendanceRepository interface {
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*models.Attendance, error)
	InsertCheckIn(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
	SetCheckOut(ctx context.Context, id string, checkOut time.Time, signature string) (*models.Attendance, error)
	ListForDate(ctx context.Context, date time.Time) ([]models.Attendance, error)
	ListForMonth(ctx context.Context, employeeID string, monthStart, monthEnd time.Time) ([]models.Attendance, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error)
}

type employeeReader interface {
	GetByID(ctx context.Context, id string) (*models.Employee, error)
	ListActive(ctx context.Context) ([]models.Employee, error)
}

type leaveReader interface {
	ListForMonth(ctx context.Context, employeeID string, monthStart, monthEnd time.Time) ([]models.LeaveRecord, error)
}

type responseCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type attendanceMetrics interface {
	RecordCacheOperation(hit bool)
	RecordGateRejection(operation string)
}

// AttendanceService coordinates check-in/check-out gating, the today board
// and monthly presence summaries.
type AttendanceService struct {
	repo      attendanceRepository
	employees employeeReader
	leaves    leaveReader
	windows   *TimeWindowPolicy
	cache     responseCache
	cacheTTL  time.Duration
	metrics   attendanceMetrics
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, employees employeeReader, leaves leaveReader, windows *TimeWindowPolicy, cache responseCache, cacheTTL time.Duration, metrics attendanceMetrics, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AttendanceService{
		repo:      repo,
		employees: employees,
		leaves:    leaves,
		windows:   windows,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *AttendanceService) recordCacheOperation(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit)
	}
}

func (s *AttendanceService) recordGateRejection(operation string) {
	if s.metrics != nil {
		s.metrics.RecordGateRejection(operation)
	}
}

func summaryCacheKey(employeeID, month string) string {
	return fmt.Sprintf("summary:%s:%s", employeeID, month)
}

func todayBoardCacheKey(date time.Time) string {
	return "todayboard:" + date.Format(workcal.DateLayout)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CheckIn records a morning arrival. The check-in window and a non-empty
// signature are both mandatory; one check-in per employee per day.
func (s *AttendanceService) CheckIn(ctx context.Context, req models.CheckInRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	now := s.now()
	if !s.windows.CanCheckIn(now) {
		s.recordGateRejection("checkin")
		start, end := s.windows.CheckInWindow()
		if s.windows.PastCheckInDeadline(now) {
			return nil, appErrors.Clone(appErrors.ErrWindowClosed, fmt.Sprintf("les arrivées sont closes depuis %s", end))
		}
		return nil, appErrors.Clone(appErrors.ErrWindowClosed, fmt.Sprintf("les arrivées ouvrent à %s", start))
	}

	emp, err := s.requireActiveEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	today := dayOf(now)
	existing, err := s.repo.GetByEmployeeAndDate(ctx, emp.ID, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "arrivée déjà enregistrée aujourd'hui")
	}

	checkin := now.UTC()
	sig := req.Signature
	stored, err := s.repo.InsertCheckIn(ctx, &models.Attendance{
		EmployeeID:       emp.ID,
		Date:             today,
		CheckInTime:      &checkin,
		CheckInSignature: &sig,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-in")
	}

	s.invalidate(ctx, emp.ID, today)
	s.logger.Info("check-in recorded", zap.String("employee_id", emp.ID), zap.Time("at", checkin))
	return stored, nil
}

// CheckOut records an end-of-day exit. It requires a same-day check-in, the
// check-out window and a non-empty signature; one check-out per day.
func (s *AttendanceService) CheckOut(ctx context.Context, req models.CheckOutRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	now := s.now()
	if !s.windows.CanCheckOut(now) {
		s.recordGateRejection("checkout")
		return nil, appErrors.Clone(appErrors.ErrWindowClosed, fmt.Sprintf("les départs ouvrent à %s", s.windows.CheckOutStart()))
	}

	emp, err := s.requireActiveEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	today := dayOf(now)
	existing, err := s.repo.GetByEmployeeAndDate(ctx, emp.ID, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if existing == nil || existing.CheckInTime == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "aucune arrivée enregistrée aujourd'hui")
	}
	if existing.CheckOutTime != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "départ déjà enregistré aujourd'hui")
	}

	stored, err := s.repo.SetCheckOut(ctx, existing.ID, now.UTC(), req.Signature)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-out")
	}
	if stored == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "départ déjà enregistré aujourd'hui")
	}

	s.invalidate(ctx, emp.ID, today)
	s.logger.Info("check-out recorded", zap.String("employee_id", emp.ID))
	return stored, nil
}

// OnFieldCheckIn records presence for an employee working off-site. No
// signature and no window gating; the date may be back-dated and defaults to
// today.
func (s *AttendanceService) OnFieldCheckIn(ctx context.Context, req models.OnFieldCheckInRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	emp, err := s.requireActiveEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	day := dayOf(s.now())
	if req.Date != nil && *req.Date != "" {
		parsed, err := time.Parse(workcal.DateLayout, *req.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
		}
		day = dayOf(parsed)
	}

	existing, err := s.repo.GetByEmployeeAndDate(ctx, emp.ID, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "pointage déjà enregistré pour cette date")
	}

	checkin := s.now().UTC()
	stored, err := s.repo.InsertCheckIn(ctx, &models.Attendance{
		EmployeeID:  emp.ID,
		Date:        day,
		CheckInTime: &checkin,
		OnField:     true,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record on-field check-in")
	}

	s.invalidate(ctx, emp.ID, day)
	return stored, nil
}

// TodayBoard partitions the active roster into awaiting, present and departed
// buckets using only attendance rows dated today.
func (s *AttendanceService) TodayBoard(ctx context.Context) (*models.TodayBoard, error) {
	today := dayOf(s.now())
	key := todayBoardCacheKey(today)
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var board models.TodayBoard
		if err := json.Unmarshal([]byte(cached), &board); err == nil {
			s.recordCacheOperation(true)
			return &board, nil
		}
	}
	s.recordCacheOperation(false)

	roster, err := s.employees.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	rows, err := s.repo.ListForDate(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load today's attendance")
	}

	byEmployee := make(map[string]models.Attendance, len(rows))
	for _, row := range rows {
		byEmployee[row.EmployeeID] = row
	}

	board := &models.TodayBoard{
		Date:     today.Format(workcal.DateLayout),
		Awaiting: []models.TodayBoardEntry{},
		Present:  []models.TodayBoardEntry{},
		Departed: []models.TodayBoardEntry{},
	}
	for _, emp := range roster {
		entry := models.TodayBoardEntry{Employee: emp}
		row, ok := byEmployee[emp.ID]
		switch {
		case !ok || row.CheckInTime == nil:
			entry.State = models.PresenceAwaiting
			board.Awaiting = append(board.Awaiting, entry)
		case row.CheckOutTime == nil:
			entry.State = models.PresencePresent
			entry.CheckInTime = row.CheckInTime
			entry.OnField = row.OnField
			board.Present = append(board.Present, entry)
		default:
			entry.State = models.PresenceDeparted
			entry.CheckInTime = row.CheckInTime
			entry.CheckOutTime = row.CheckOutTime
			entry.OnField = row.OnField
			board.Departed = append(board.Departed, entry)
		}
	}
	board.Counts = models.TodayBoardCounts{
		Awaiting: len(board.Awaiting),
		Present:  len(board.Present),
		Departed: len(board.Departed),
		Total:    len(roster),
	}

	if payload, err := json.Marshal(board); err == nil {
		_ = s.cache.Set(ctx, key, string(payload), time.Minute)
	}
	return board, nil
}

// MonthlySummary aggregates an employee's presence for a month (YYYY-MM).
// Months strictly in the future produce an empty sheet without touching the
// repositories.
func (s *AttendanceService) MonthlySummary(ctx context.Context, employeeID, month string) (*models.MonthlySummary, error) {
	monthStart, err := time.Parse(workcal.MonthLayout, month)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid month format, expected YYYY-MM")
	}

	now := s.now()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if monthStart.After(currentMonth) {
		return &models.MonthlySummary{
			EmployeeID:     employeeID,
			Month:          month,
			Rows:           []models.SummaryRow{},
			TotalMinutes:   0,
			FormattedTotal: workcal.FormatMinutes(0),
		}, nil
	}

	key := summaryCacheKey(employeeID, month)
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var summary models.MonthlySummary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			s.recordCacheOperation(true)
			return &summary, nil
		}
	}
	s.recordCacheOperation(false)

	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	if emp == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
	}

	monthEnd := monthStart.AddDate(0, 1, -1)
	attendances, err := s.repo.ListForMonth(ctx, employeeID, monthStart, monthEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	leaves, err := s.leaves.ListForMonth(ctx, employeeID, monthStart, monthEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave records")
	}

	summary := buildMonthlySummary(emp, month, monthStart, monthEnd, attendances, leaves)

	if payload, err := json.Marshal(summary); err == nil {
		_ = s.cache.Set(ctx, key, string(payload), s.cacheTTL)
	}
	return summary, nil
}

// buildMonthlySummary walks every day of the month. A leave record overrides
// any attendance on the same day; weekends only appear when they carry data.
func buildMonthlySummary(emp *models.Employee, month string, monthStart, monthEnd time.Time, attendances []models.Attendance, leaves []models.LeaveRecord) *models.MonthlySummary {
	attendanceByDay := make(map[string]models.Attendance, len(attendances))
	for _, a := range attendances {
		attendanceByDay[a.Date.Format(workcal.DateLayout)] = a
	}
	leaveByDay := make(map[string]models.LeaveRecord, len(leaves))
	for _, l := range leaves {
		leaveByDay[l.Date.Format(workcal.DateLayout)] = l
	}

	rows := []models.SummaryRow{}
	total := 0
	for d := monthStart; !d.After(monthEnd); d = d.AddDate(0, 0, 1) {
		dayKey := d.Format(workcal.DateLayout)
		leave, hasLeave := leaveByDay[dayKey]
		att, hasAtt := attendanceByDay[dayKey]

		if workcal.IsWeekend(d) && !hasLeave && !hasAtt {
			continue
		}

		row := models.SummaryRow{Date: d}
		if hasLeave {
			status := leave.Status
			row.Kind = models.SummaryRowLeave
			row.Label = leave.LeaveType
			row.LeaveStatus = &status
			row.Minutes = models.LeaveMinuteCredits[status]
		} else {
			row.Kind = models.SummaryRowAttendance
			if hasAtt {
				row.CheckInTime = att.CheckInTime
				row.CheckOutTime = att.CheckOutTime
				if att.CheckInSignature != nil {
					row.CheckInSignature = models.SignatureSource(*att.CheckInSignature)
				}
				if att.CheckOutSignature != nil {
					row.CheckOutSignature = models.SignatureSource(*att.CheckOutSignature)
				}
				row.OnField = att.OnField
				row.Minutes = att.WorkedMinutes()
			}
		}
		row.FormattedMinutes = workcal.FormatMinutes(row.Minutes)
		total += row.Minutes
		rows = append(rows, row)
	}

	return &models.MonthlySummary{
		EmployeeID:     emp.ID,
		EmployeeName:   emp.FullName,
		Month:          month,
		Rows:           rows,
		TotalMinutes:   total,
		FormattedTotal: workcal.FormatMinutes(total),
	}
}

// List returns attendance rows matching the filter.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *AttendanceService) requireActiveEmployee(ctx context.Context, id string) (*models.Employee, error) {
	emp, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	if emp == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
	}
	if !emp.Active {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "employee is inactive")
	}
	return emp, nil
}

func (s *AttendanceService) invalidate(ctx context.Context, employeeID string, day time.Time) {
	keys := []string{
		summaryCacheKey(employeeID, day.Format(workcal.MonthLayout)),
		todayBoardCacheKey(dayOf(s.now())),
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}
