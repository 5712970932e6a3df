package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pointage-hr/pointage-api/internal/models"
	appErrors "github.com/pointage-hr/pointage-api/pkg/errors"
)

type employeeRepository interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
	ListActive(ctx context.Context) ([]models.Employee, error)
	GetByID(ctx context.Context, id string) (*models.Employee, error)
	Create(ctx context.Context, emp *models.Employee) (*models.Employee, error)
	Update(ctx context.Context, emp *models.Employee) (*models.Employee, error)
	Delete(ctx context.Context, id string) error
}

type companyReader interface {
	List(ctx context.Context) ([]models.Company, error)
	GetByID(ctx context.Context, id string) (*models.Company, error)
}

// EmployeeService manages the employee directory.
type EmployeeService struct {
	repo      employeeRepository
	companies companyReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEmployeeService constructs the employee service.
func NewEmployeeService(repo employeeRepository, companies companyReader, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{repo: repo, companies: companies, validator: validate, logger: logger}
}

// List returns employees matching the filter.
func (s *EmployeeService) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
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

// Get returns one employee.
func (s *EmployeeService) Get(ctx context.Context, id string) (*models.Employee, error) {
	emp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	if emp == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
	}
	return emp, nil
}

// Create registers a new active employee.
func (s *EmployeeService) Create(ctx context.Context, req models.CreateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	company, err := s.companies.GetByID(ctx, req.CompanyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}
	if company == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown company")
	}
	stored, err := s.repo.Create(ctx, &models.Employee{
		FullName:  req.FullName,
		Position:  req.Position,
		CompanyID: req.CompanyID,
		Active:    true,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create employee")
	}
	s.logger.Info("employee created", zap.String("employee_id", stored.ID))
	return stored, nil
}

// Update edits an employee.
func (s *EmployeeService) Update(ctx context.Context, id string, req models.UpdateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	if existing == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
	}
	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}
	stored, err := s.repo.Update(ctx, &models.Employee{
		ID:        id,
		FullName:  req.FullName,
		Position:  req.Position,
		CompanyID: req.CompanyID,
		Active:    active,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update employee")
	}
	if stored == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
	}
	return stored, nil
}

// Delete removes an employee. Deleting an already-deleted employee succeeds.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete employee")
	}
	return nil
}

// Companies lists the known companies.
func (s *EmployeeService) Companies(ctx context.Context) ([]models.Company, error) {
	rows, err := s.companies.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list companies")
	}
	return rows, nil
}
