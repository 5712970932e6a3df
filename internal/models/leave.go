package models

import "time"

// LeaveStatus classifies a leave-record day.
type LeaveStatus string

const (
	LeaveStatusConge       LeaveStatus = "conge"
	LeaveStatusPermission  LeaveStatus = "permission"
	LeaveStatusJustified   LeaveStatus = "justified"
	LeaveStatusUnjustified LeaveStatus = "unjustified"
)

// Valid returns true when the status is a supported value.
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeaveStatusConge, LeaveStatusPermission, LeaveStatusJustified, LeaveStatusUnjustified:
		return true
	default:
		return false
	}
}

// Congé types carry no business-day cap.
const (
	CongePaye    = "Congé Payé"
	CongeNonPaye = "Congé Non Payé"
)

// PermissionCaps maps each statutory permission category to its maximum
// length in business days.
var PermissionCaps = map[string]int{
	"Naissance d'un enfant":                     3,
	"Mariage de l'employé":                      4,
	"Mariage Frère, Soeur ou Enfant":            2,
	"Décès d'un frère ou d'une soeur":           2,
	"Décès du conjoint, du Père, de la Mère":    5,
	"Décès de la belle Mère ou du beau Père":    2,
	"Accident ou maladie Enfant ou Conjoint(e)": 15,
	"Maladie":              3,
	"Cérémonie Réligieuse": 1,
}

// LeaveMinuteCredits maps a leave status to the worked-minute credit shown on
// monthly sheets. A permission day counts as a full 8-hour day; every other
// leave status credits nothing.
var LeaveMinuteCredits = map[LeaveStatus]int{
	LeaveStatusConge:       0,
	LeaveStatusPermission:  480,
	LeaveStatusJustified:   0,
	LeaveStatusUnjustified: 0,
}

// LeaveRecord is one expanded day of an approved leave range. At most one
// record exists per employee per day.
type LeaveRecord struct {
	ID           string      `db:"id" json:"id"`
	EmployeeID   string      `db:"employee_id" json:"employee_id"`
	EmployeeName *string     `db:"employee_name" json:"employee_name,omitempty"`
	Date         time.Time   `db:"date" json:"date"`
	Status       LeaveStatus `db:"status" json:"status"`
	LeaveType    string      `db:"leave_type" json:"leave_type"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// CreateLeaveRequest submits a leave range for an employee. StartDate and
// EndDate are inclusive calendar dates.
type CreateLeaveRequest struct {
	EmployeeID string      `json:"employee_id" validate:"required,uuid"`
	Status     LeaveStatus `json:"status" validate:"required"`
	LeaveType  string      `json:"leave_type" validate:"required"`
	StartDate  string      `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string      `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// LeaveRangeResult reports the outcome of a range submission.
type LeaveRangeResult struct {
	EmployeeID   string        `json:"employee_id"`
	Status       LeaveStatus   `json:"status"`
	LeaveType    string        `json:"leave_type"`
	DaysInserted int           `json:"days_inserted"`
	Records      []LeaveRecord `json:"records"`
}

// LeaveFilter scopes leave listing queries.
type LeaveFilter struct {
	EmployeeID string
	Month      *time.Time
	Status     *LeaveStatus
	Page       int
	PageSize   int
}
