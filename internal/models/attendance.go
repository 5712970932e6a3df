package models

import "time"

// Attendance represents one employee's attendance row for a calendar day.
// CheckOutTime stays nil while the employee is still on site.
type Attendance struct {
	ID                string     `db:"id" json:"id"`
	EmployeeID        string     `db:"employee_id" json:"employee_id"`
	EmployeeName      *string    `db:"employee_name" json:"employee_name,omitempty"`
	CompanyID         *string    `db:"company_id" json:"company_id,omitempty"`
	Date              time.Time  `db:"date" json:"date"`
	CheckInTime       *time.Time `db:"checkin_time" json:"checkin_time,omitempty"`
	CheckOutTime      *time.Time `db:"checkout_time" json:"checkout_time,omitempty"`
	CheckInSignature  *string    `db:"checkin_signature" json:"checkin_signature,omitempty"`
	CheckOutSignature *string    `db:"checkout_signature" json:"checkout_signature,omitempty"`
	OnField           bool       `db:"on_field" json:"on_field"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// WorkedMinutes returns the minutes between check-in and check-out, 0 when
// either timestamp is missing.
func (a Attendance) WorkedMinutes() int {
	if a.CheckInTime == nil || a.CheckOutTime == nil {
		return 0
	}
	minutes := int(a.CheckOutTime.Sub(*a.CheckInTime).Minutes())
	if minutes < 0 {
		return 0
	}
	return minutes
}

// CheckInRequest is the payload for an employee morning check-in.
type CheckInRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Signature  string `json:"signature" validate:"required"`
}

// CheckOutRequest is the payload for an end-of-day check-out.
type CheckOutRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Signature  string `json:"signature" validate:"required"`
}

// OnFieldCheckInRequest records presence for an employee working off-site.
// No signature is collected and the date may be back-dated.
type OnFieldCheckInRequest struct {
	EmployeeID string  `json:"employee_id" validate:"required,uuid"`
	Date       *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// AttendanceFilter scopes attendance listing queries.
type AttendanceFilter struct {
	EmployeeID string
	CompanyID  string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}
