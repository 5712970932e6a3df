package models

import "time"

// TemporaryDeparture represents an intra-day exit from the workplace. The
// record is open while ReturnTime is nil and closed once the employee signs
// back in.
type TemporaryDeparture struct {
	ID              string     `db:"id" json:"id"`
	EmployeeID      string     `db:"employee_id" json:"employee_id"`
	EmployeeName    *string    `db:"employee_name" json:"employee_name,omitempty"`
	CompanyID       *string    `db:"company_id" json:"company_id,omitempty"`
	Date            time.Time  `db:"date" json:"date"`
	DepartureTime   time.Time  `db:"departure_time" json:"departure_time"`
	ReturnTime      *time.Time `db:"return_time" json:"return_time,omitempty"`
	Reason          string     `db:"reason" json:"reason"`
	ReturnSignature *string    `db:"return_signature" json:"return_signature,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`

	// ReturnSignatureSource is the resolved display source for the return
	// signature, derived from ReturnSignature. Never persisted.
	ReturnSignatureSource string `db:"-" json:"return_signature_source,omitempty"`
}

// ResolveReturnSignature fills ReturnSignatureSource from the stored value.
func (d *TemporaryDeparture) ResolveReturnSignature() {
	if d.ReturnSignature != nil {
		d.ReturnSignatureSource = SignatureSource(*d.ReturnSignature)
	}
}

// Open reports whether the departure has not been closed yet.
func (d TemporaryDeparture) Open() bool {
	return d.ReturnTime == nil
}

// OpenDepartureRequest starts a temporary departure. A reason is mandatory;
// no signature is collected on the way out.
type OpenDepartureRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Reason     string `json:"reason" validate:"required"`
}

// CloseDepartureRequest closes a departure with the employee's signature.
type CloseDepartureRequest struct {
	Signature string `json:"signature" validate:"required"`
}

// CloseLatestDepartureRequest closes the most recent open departure for an
// employee, resolved by greatest (date, departure_time).
type CloseLatestDepartureRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Signature  string `json:"signature" validate:"required"`
}

// DepartureFilter scopes departure listing queries.
type DepartureFilter struct {
	EmployeeID string
	CompanyID  string
	Month      *time.Time
	OpenOnly   bool
	Page       int
	PageSize   int
}
