package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pointage-hr/pointage-api/internal/models"
	appErrors "github.com/pointage-hr/pointage-api/pkg/errors"
)

type departureRepository interface {
	Insert(ctx context.Context, record *models.TemporaryDeparture) (*models.TemporaryDeparture, error)
	GetByID(ctx context.Context, id string) (*models.TemporaryDeparture, error)
	Close(ctx context.Context, id string, returnTime time.Time, signature string) (*models.TemporaryDeparture, error)
	LatestOpenByEmployee(ctx context.Context, employeeID string) (*models.TemporaryDeparture, error)
	List(ctx context.Context, filter models.DepartureFilter) ([]models.TemporaryDeparture, int, error)
}

// DepartureService manages the temporary-departure ledger. Departures are
// never time-gated; opening needs a reason, closing needs a signature.
type DepartureService struct {
	repo       departureRepository
	employees  employeeReader
	windows    *TimeWindowPolicy
	cache      responseCache
	singleOpen bool
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewDepartureService constructs the departure service.
func NewDepartureService(repo departureRepository, employees employeeReader, windows *TimeWindowPolicy, cache responseCache, singleOpen bool, validate *validator.Validate, logger *zap.Logger) *DepartureService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartureService{
		repo:       repo,
		employees:  employees,
		windows:    windows,
		cache:      cache,
		singleOpen: singleOpen,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// Open starts a temporary departure for an employee.
func (s *DepartureService) Open(ctx context.Context, req models.OpenDepartureRequest) (*models.TemporaryDeparture, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	now := s.now()
	if !s.windows.CanDepartTemporarily(now) {
		return nil, appErrors.Clone(appErrors.ErrWindowClosed, "les sorties temporaires sont fermées")
	}

	emp, err := s.requireActiveEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	if s.singleOpen {
		open, err := s.repo.LatestOpenByEmployee(ctx, emp.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open departures")
		}
		if open != nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "une sortie est déjà en cours pour cet employé")
		}
	}

	opened := now.UTC()
	stored, err := s.repo.Insert(ctx, &models.TemporaryDeparture{
		EmployeeID:    emp.ID,
		Date:          dayOf(opened),
		DepartureTime: opened,
		Reason:        req.Reason,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open departure")
	}

	s.logger.Info("departure opened", zap.String("employee_id", emp.ID), zap.String("departure_id", stored.ID))
	return stored, nil
}

// Close ends a specific departure with the employee's return signature.
// Closing an already-closed departure is rejected.
func (s *DepartureService) Close(ctx context.Context, id string, req models.CloseDepartureRequest) (*models.TemporaryDeparture, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load departure")
	}
	if existing == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "departure not found")
	}
	if !existing.Open() {
		return nil, appErrors.ErrAlreadyClosed
	}

	stored, err := s.repo.Close(ctx, id, s.now().UTC(), req.Signature)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close departure")
	}
	if stored == nil {
		return nil, appErrors.ErrAlreadyClosed
	}
	stored.ResolveReturnSignature()

	s.logger.Info("departure closed", zap.String("departure_id", stored.ID))
	return stored, nil
}

// CloseLatest ends the employee's most recent open departure, resolved by
// greatest (date, departure_time).
func (s *DepartureService) CloseLatest(ctx context.Context, req models.CloseLatestDepartureRequest) (*models.TemporaryDeparture, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	open, err := s.repo.LatestOpenByEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve open departure")
	}
	if open == nil {
		return nil, appErrors.Clone(appErrors.ErrNoOpenDeparture, "aucune sortie en cours pour cet employé")
	}

	stored, err := s.repo.Close(ctx, open.ID, s.now().UTC(), req.Signature)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close departure")
	}
	if stored == nil {
		return nil, appErrors.ErrAlreadyClosed
	}
	stored.ResolveReturnSignature()

	s.logger.Info("latest departure closed", zap.String("employee_id", req.EmployeeID), zap.String("departure_id", stored.ID))
	return stored, nil
}

// List returns departures matching the filter.
func (s *DepartureService) List(ctx context.Context, filter models.DepartureFilter) ([]models.TemporaryDeparture, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departures")
	}
	for i := range rows {
		rows[i].ResolveReturnSignature()
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

func (s *DepartureService) requireActiveEmployee(ctx context.Context, id string) (*models.Employee, error) {
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
