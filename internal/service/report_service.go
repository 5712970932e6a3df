package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pointage-hr/pointage-api/internal/models"
	appErrors "github.com/pointage-hr/pointage-api/pkg/errors"
	"github.com/pointage-hr/pointage-api/pkg/export"
	"github.com/pointage-hr/pointage-api/pkg/jobs"
	"github.com/pointage-hr/pointage-api/pkg/workcal"
)

type summaryProvider interface {
	MonthlySummary(ctx context.Context, employeeID, month string) (*models.MonthlySummary, error)
}

type departureLister interface {
	List(ctx context.Context, filter models.DepartureFilter) ([]models.TemporaryDeparture, *models.Pagination, error)
}

type reportStore interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
}

// ReportService generates presence and departure sheets asynchronously,
// rendering them to CSV or PDF on a background queue.
type ReportService struct {
	summaries  summaryProvider
	departures departureLister
	employees  employeeReader
	store      reportStore
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	queue      *jobs.Queue[models.ReportRequest]
	validator  *validator.Validate
	logger     *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*models.ReportJob
}

// NewReportService constructs the report service and its worker queue.
func NewReportService(summaries summaryProvider, departures departureLister, employees employeeReader, store reportStore, workers, retries int, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReportService{
		summaries:  summaries,
		departures: departures,
		employees:  employees,
		store:      store,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		validator:  validate,
		logger:     logger,
		jobs:       make(map[string]*models.ReportJob),
	}
	s.queue = jobs.NewQueue[models.ReportRequest]("reports", s.process, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the background workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Submit validates and enqueues a report generation job.
func (s *ReportService) Submit(ctx context.Context, req models.ReportRequest) (*models.ReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if !req.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report kind")
	}

	job := &models.ReportJob{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		Format:      req.Format,
		Month:       req.Month,
		EmployeeID:  req.EmployeeID,
		CompanyID:   req.CompanyID,
		Status:      models.ReportPending,
		RequestedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job[models.ReportRequest]{ID: job.ID, Type: string(req.Kind), Payload: req}); err != nil {
		s.fail(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report")
	}
	return job, nil
}

// Get returns the tracked state of a report job.
func (s *ReportService) Get(id string) (*models.ReportJob, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	snapshot := *job
	return &snapshot, nil
}

// FilePath resolves the on-disk location of a finished report.
func (s *ReportService) FilePath(id string) (string, error) {
	job, err := s.Get(id)
	if err != nil {
		return "", err
	}
	if job.Status != models.ReportDone || job.FileName == "" {
		return "", appErrors.Clone(appErrors.ErrNotFound, "report is not ready")
	}
	return s.store.Path(job.FileName), nil
}

func (s *ReportService) process(ctx context.Context, job jobs.Job[models.ReportRequest]) error {
	req := job.Payload

	var (
		dataset export.Dataset
		title   string
		err     error
	)
	switch req.Kind {
	case models.ReportPresence:
		dataset, title, err = s.buildPresenceDataset(ctx, req)
	case models.ReportDepartures:
		dataset, title, err = s.buildDeparturesDataset(ctx, req)
	default:
		err = fmt.Errorf("unknown report kind %q", req.Kind)
	}
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	var payload []byte
	switch req.Format {
	case models.FormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	filename := fmt.Sprintf("%s-%s-%s.%s", req.Kind, req.Month, job.ID, req.Format)
	if _, err := s.store.Save(filename, payload); err != nil {
		s.fail(job.ID, err)
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if tracked, ok := s.jobs[job.ID]; ok {
		tracked.Status = models.ReportDone
		tracked.FileName = filename
		tracked.CompletedAt = &now
	}
	s.mu.Unlock()

	s.logger.Info("report generated", zap.String("job_id", job.ID), zap.String("file", filename))
	return nil
}

func (s *ReportService) buildPresenceDataset(ctx context.Context, req models.ReportRequest) (export.Dataset, string, error) {
	headers := []string{"Employé", "Date", "Arrivée", "Départ", "Libellé", "Durée"}

	var targets []models.Employee
	if req.EmployeeID != "" {
		emp, err := s.employees.GetByID(ctx, req.EmployeeID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		if emp == nil {
			return export.Dataset{}, "", fmt.Errorf("employee %s not found", req.EmployeeID)
		}
		targets = []models.Employee{*emp}
	} else {
		roster, err := s.employees.ListActive(ctx)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, emp := range roster {
			if req.CompanyID == "" || emp.CompanyID == req.CompanyID {
				targets = append(targets, emp)
			}
		}
	}

	rows := []map[string]string{}
	total := 0
	for _, emp := range targets {
		summary, err := s.summaries.MonthlySummary(ctx, emp.ID, req.Month)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, row := range summary.Rows {
			record := map[string]string{
				"Employé": emp.FullName,
				"Date":    row.Date.Format(workcal.DateLayout),
				"Libellé": row.Label,
				"Durée":   row.FormattedMinutes,
			}
			if row.CheckInTime != nil {
				record["Arrivée"] = row.CheckInTime.Format("15:04")
			}
			if row.CheckOutTime != nil {
				record["Départ"] = row.CheckOutTime.Format("15:04")
			}
			rows = append(rows, record)
		}
		total += summary.TotalMinutes
	}

	footer := []map[string]string{{
		"Employé": "Total",
		"Durée":   workcal.FormatMinutes(total),
	}}

	title := fmt.Sprintf("Feuille de présence %s", req.Month)
	return export.Dataset{Headers: headers, Rows: rows, Footer: footer}, title, nil
}

func (s *ReportService) buildDeparturesDataset(ctx context.Context, req models.ReportRequest) (export.Dataset, string, error) {
	headers := []string{"Employé", "Date", "Sortie", "Retour", "Motif"}

	month, err := time.Parse(workcal.MonthLayout, req.Month)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("invalid month %q", req.Month)
	}

	// The listing is paged; walk every page so busy months export in full.
	var items []models.TemporaryDeparture
	for page := 1; ; page++ {
		batch, pg, err := s.departures.List(ctx, models.DepartureFilter{
			EmployeeID: req.EmployeeID,
			CompanyID:  req.CompanyID,
			Month:      &month,
			Page:       page,
			PageSize:   200,
		})
		if err != nil {
			return export.Dataset{}, "", err
		}
		items = append(items, batch...)
		if len(batch) == 0 || pg == nil || len(items) >= pg.TotalCount {
			break
		}
	}

	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		record := map[string]string{
			"Date":   item.Date.Format(workcal.DateLayout),
			"Sortie": item.DepartureTime.Format("15:04"),
			"Motif":  item.Reason,
		}
		if item.EmployeeName != nil {
			record["Employé"] = *item.EmployeeName
		}
		if item.ReturnTime != nil {
			record["Retour"] = item.ReturnTime.Format("15:04")
		}
		rows = append(rows, record)
	}

	title := fmt.Sprintf("Fiche de sortie %s", req.Month)
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *ReportService) fail(id string, err error) {
	now := time.Now().UTC()
	s.mu.Lock()
	if tracked, ok := s.jobs[id]; ok {
		tracked.Status = models.ReportFailed
		tracked.Error = err.Error()
		tracked.CompletedAt = &now
	}
	s.mu.Unlock()
}
