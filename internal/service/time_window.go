package service

import (
	"time"

	"github.com/pointage-hr/pointage-api/pkg/config"
	"github.com/pointage-hr/pointage-api/pkg/workcal"
)

// TimeWindowPolicy decides when attendance operations are allowed based on
// minutes since midnight. Temporary departures are never time-gated.
type TimeWindowPolicy struct {
	checkInStart  int
	checkInEnd    int
	checkOutStart int
}

// NewTimeWindowPolicy builds the policy from configuration.
func NewTimeWindowPolicy(cfg config.AttendanceConfig) *TimeWindowPolicy {
	return &TimeWindowPolicy{
		checkInStart:  cfg.CheckInStartMin,
		checkInEnd:    cfg.CheckInEndMin,
		checkOutStart: cfg.CheckOutStartMin,
	}
}

// CanCheckIn reports whether a check-in is allowed at the given clock time.
// The window end is exclusive.
func (p *TimeWindowPolicy) CanCheckIn(now time.Time) bool {
	m := workcal.MinutesOfDay(now)
	return m >= p.checkInStart && m < p.checkInEnd
}

// PastCheckInDeadline reports whether the check-in window has already closed.
func (p *TimeWindowPolicy) PastCheckInDeadline(now time.Time) bool {
	return workcal.MinutesOfDay(now) >= p.checkInEnd
}

// CanCheckOut reports whether a check-out is allowed. There is no upper bound.
func (p *TimeWindowPolicy) CanCheckOut(now time.Time) bool {
	return workcal.MinutesOfDay(now) >= p.checkOutStart
}

// CanDepartTemporarily always allows opening a temporary departure.
func (p *TimeWindowPolicy) CanDepartTemporarily(_ time.Time) bool {
	return true
}

// CheckInWindow exposes the configured bounds as formatted clock strings.
func (p *TimeWindowPolicy) CheckInWindow() (start, end string) {
	return workcal.FormatMinutes(p.checkInStart), workcal.FormatMinutes(p.checkInEnd)
}

// CheckOutStart exposes the earliest allowed check-out as a clock string.
func (p *TimeWindowPolicy) CheckOutStart() string {
	return workcal.FormatMinutes(p.checkOutStart)
}
