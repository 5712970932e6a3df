package models

import "time"

// ReportKind identifies the sheet being generated.
type ReportKind string

const (
	ReportPresence   ReportKind = "presence"
	ReportDepartures ReportKind = "departures"
)

// Valid returns true when the kind is supported.
func (k ReportKind) Valid() bool {
	return k == ReportPresence || k == ReportDepartures
}

// ReportFormat identifies the output encoding.
type ReportFormat string

const (
	FormatCSV ReportFormat = "csv"
	FormatPDF ReportFormat = "pdf"
)

// Valid returns true when the format is supported.
func (f ReportFormat) Valid() bool {
	return f == FormatCSV || f == FormatPDF
}

// ReportStatus tracks asynchronous generation progress.
type ReportStatus string

const (
	ReportPending ReportStatus = "pending"
	ReportDone    ReportStatus = "done"
	ReportFailed  ReportStatus = "failed"
)

// ReportRequest describes a generation job submission.
type ReportRequest struct {
	Kind       ReportKind   `json:"-"`
	Format     ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	Month      string       `json:"month" validate:"required,datetime=2006-01"`
	EmployeeID string       `json:"employee_id,omitempty" validate:"omitempty,uuid"`
	CompanyID  string       `json:"company_id,omitempty" validate:"omitempty,uuid"`
}

// ReportJob is the tracked state of a queued report.
type ReportJob struct {
	ID          string       `json:"id"`
	Kind        ReportKind   `json:"kind"`
	Format      ReportFormat `json:"format"`
	Month       string       `json:"month"`
	EmployeeID  string       `json:"employee_id,omitempty"`
	CompanyID   string       `json:"company_id,omitempty"`
	Status      ReportStatus `json:"status"`
	FileName    string       `json:"file_name,omitempty"`
	Error       string       `json:"error,omitempty"`
	RequestedAt time.Time    `json:"requested_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}
