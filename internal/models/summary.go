package models

import "time"

// SummaryRowKind distinguishes attendance-backed rows from leave overrides.
type SummaryRowKind string

const (
	SummaryRowAttendance SummaryRowKind = "attendance"
	SummaryRowLeave      SummaryRowKind = "leave"
)

// SummaryRow is one visible day on a monthly presence sheet. The signature
// fields carry resolved display sources, not the raw stored payloads.
type SummaryRow struct {
	Date              time.Time      `json:"date"`
	Kind              SummaryRowKind `json:"kind"`
	Label             string         `json:"label"`
	CheckInTime       *time.Time     `json:"checkin_time,omitempty"`
	CheckOutTime      *time.Time     `json:"checkout_time,omitempty"`
	CheckInSignature  string         `json:"checkin_signature,omitempty"`
	CheckOutSignature string         `json:"checkout_signature,omitempty"`
	OnField           bool           `json:"on_field"`
	LeaveStatus       *LeaveStatus   `json:"leave_status,omitempty"`
	Minutes           int            `json:"minutes"`
	FormattedMinutes  string         `json:"formatted_minutes"`
}

// MonthlySummary aggregates one employee's presence for a calendar month.
// TotalMinutes is recomputed from the included rows only.
type MonthlySummary struct {
	EmployeeID     string       `json:"employee_id"`
	EmployeeName   string       `json:"employee_name,omitempty"`
	Month          string       `json:"month"`
	Rows           []SummaryRow `json:"rows"`
	TotalMinutes   int          `json:"total_minutes"`
	FormattedTotal string       `json:"formatted_total"`
}
