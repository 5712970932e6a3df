package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pointage-hr/pointage-api/internal/models"
	appErrors "github.com/pointage-hr/pointage-api/pkg/errors"
	"github.com/pointage-hr/pointage-api/pkg/workcal"
)

type leaveRepository interface {
	UpsertDays(ctx context.Context, records []models.LeaveRecord) ([]models.LeaveRecord, error)
	ListForMonth(ctx context.Context, employeeID string, monthStart, monthEnd time.Time) ([]models.LeaveRecord, error)
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRecord, int, error)
}

// LeaveService validates leave ranges against business-day caps and expands
// accepted ranges into per-day records.
type LeaveService struct {
	repo          leaveRepository
	employees     employeeReader
	cache         responseCache
	countWeekends bool
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewLeaveService constructs the leave service.
func NewLeaveService(repo leaveRepository, employees employeeReader, cache responseCache, countWeekends bool, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{
		repo:          repo,
		employees:     employees,
		cache:         cache,
		countWeekends: countWeekends,
		validator:     validate,
		logger:        logger,
	}
}

// SuggestEndDate returns the latest allowed end date for a permission
// category starting on start, or nil for uncapped categories.
func SuggestEndDate(category string, start time.Time) *time.Time {
	limit, ok := models.PermissionCaps[category]
	if !ok {
		return nil
	}
	end := workcal.AddBusinessDays(start, limit)
	return &end
}

// Create validates and stores a leave range. Permission categories exceeding
// their cap are rejected all-or-nothing: no partial days are written.
func (s *LeaveService) Create(ctx context.Context, req models.CreateLeaveRequest) (*models.LeaveRangeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown leave status")
	}

	start, err := time.Parse(workcal.DateLayout, req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date, expected YYYY-MM-DD")
	}
	end, err := time.Parse(workcal.DateLayout, req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end date, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date precedes start date")
	}

	emp, err := s.employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	if emp == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
	}

	if req.Status == models.LeaveStatusPermission {
		if err := validatePermissionCap(req.LeaveType, start, end); err != nil {
			return nil, err
		}
	}

	records := expandLeaveRange(req, start, end, s.countWeekends)
	stored, err := s.repo.UpsertDays(ctx, records)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store leave records")
	}

	s.invalidateSummaries(ctx, req.EmployeeID, start, end)
	s.logger.Info("leave range recorded",
		zap.String("employee_id", req.EmployeeID),
		zap.String("status", string(req.Status)),
		zap.Int("days", len(stored)))

	return &models.LeaveRangeResult{
		EmployeeID:   req.EmployeeID,
		Status:       req.Status,
		LeaveType:    req.LeaveType,
		DaysInserted: len(stored),
		Records:      stored,
	}, nil
}

// validatePermissionCap enforces the statutory business-day caps. Unknown
// permission categories are rejected outright.
func validatePermissionCap(category string, start, end time.Time) error {
	limit, ok := models.PermissionCaps[category]
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("catégorie de permission inconnue: %s", category))
	}
	requested := workcal.CountBusinessDays(start, end)
	if requested > limit {
		return appErrors.Clone(appErrors.ErrQuotaExceeded,
			fmt.Sprintf("%s est limité à %d jour(s) ouvré(s), %d demandé(s)", category, limit, requested))
	}
	return nil
}

// expandLeaveRange produces one record per calendar day of [start, end].
// Weekend days are skipped when countWeekends is false.
func expandLeaveRange(req models.CreateLeaveRequest, start, end time.Time, countWeekends bool) []models.LeaveRecord {
	records := []models.LeaveRecord{}
	for d := dayOf(start); !d.After(dayOf(end)); d = d.AddDate(0, 0, 1) {
		if !countWeekends && workcal.IsWeekend(d) {
			continue
		}
		records = append(records, models.LeaveRecord{
			EmployeeID: req.EmployeeID,
			Date:       d,
			Status:     req.Status,
			LeaveType:  req.LeaveType,
		})
	}
	return records
}

// List returns leave records matching the filter.
func (s *LeaveService) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRecord, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave records")
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

// invalidateSummaries drops the cached monthly sheets of every month the
// range touches.
func (s *LeaveService) invalidateSummaries(ctx context.Context, employeeID string, start, end time.Time) {
	keys := []string{}
	for m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(end); m = m.AddDate(0, 1, 0) {
		keys = append(keys, summaryCacheKey(employeeID, m.Format(workcal.MonthLayout)))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}
