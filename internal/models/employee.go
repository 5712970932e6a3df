package models

import "time"

// Company groups employees for filtering and reporting.
type Company struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Employee represents a staff member tracked by the attendance system.
type Employee struct {
	ID          string    `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Position    *string   `db:"position" json:"position,omitempty"`
	CompanyID   string    `db:"company_id" json:"company_id"`
	CompanyName *string   `db:"company_name" json:"company_name,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter captures filtering criteria for listing employees.
type EmployeeFilter struct {
	CompanyID string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateEmployeeRequest is the payload for registering an employee.
type CreateEmployeeRequest struct {
	FullName  string  `json:"full_name" validate:"required"`
	Position  *string `json:"position,omitempty"`
	CompanyID string  `json:"company_id" validate:"required,uuid"`
}

// UpdateEmployeeRequest is the payload for editing an employee.
type UpdateEmployeeRequest struct {
	FullName  string  `json:"full_name" validate:"required"`
	Position  *string `json:"position,omitempty"`
	CompanyID string  `json:"company_id" validate:"required,uuid"`
	Active    *bool   `json:"active,omitempty"`
}

// PresenceState classifies an employee's position in the daily attendance flow.
type PresenceState string

const (
	PresenceAwaiting PresenceState = "awaiting"
	PresencePresent  PresenceState = "present"
	PresenceDeparted PresenceState = "departed"
)

// TodayBoardEntry pairs an employee with today's attendance facts.
type TodayBoardEntry struct {
	Employee     Employee      `json:"employee"`
	State        PresenceState `json:"state"`
	CheckInTime  *time.Time    `json:"checkin_time,omitempty"`
	CheckOutTime *time.Time    `json:"checkout_time,omitempty"`
	OnField      bool          `json:"on_field"`
}

// TodayBoard partitions the active roster into the three presence states.
// Every active employee appears in exactly one bucket.
type TodayBoard struct {
	Date     string            `json:"date"`
	Awaiting []TodayBoardEntry `json:"awaiting"`
	Present  []TodayBoardEntry `json:"present"`
	Departed []TodayBoardEntry `json:"departed"`
	Counts   TodayBoardCounts  `json:"counts"`
}

// TodayBoardCounts summarises bucket sizes.
type TodayBoardCounts struct {
	Awaiting int `json:"awaiting"`
	Present  int `json:"present"`
	Departed int `json:"departed"`
	Total    int `json:"total"`
}
