package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointage-hr/pointage-api/internal/models"
	"github.com/pointage-hr/pointage-api/pkg/config"
	appErrors "github.com/pointage-hr/pointage-api/pkg/errors"
)

type stubAttendanceRepo struct {
	getFn          func(ctx context.Context, employeeID string, date time.Time) (*models.Attendance, error)
	insertFn       func(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
	setCheckOutFn  func(ctx context.Context, id string, checkOut time.Time, signature string) (*models.Attendance, error)
	listForDateFn  func(ctx context.Context, date time.Time) ([]models.Attendance, error)
	listForMonthFn func(ctx context.Context, employeeID string, monthStart, monthEnd time.Time) ([]models.Attendance, error)
	listFn         func(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error)

	monthCalls int
}

func (s *stubAttendanceRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*models.Attendance, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, employeeID, date)
}

func (s *stubAttendanceRepo) InsertCheckIn(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	if s.insertFn == nil {
		record.ID = "att-1"
		return record, nil
	}
	return s.insertFn(ctx, record)
}

func (s *stubAttendanceRepo) SetCheckOut(ctx context.Context, id string, checkOut time.Time, signature string) (*models.Attendance, error) {
	if s.setCheckOutFn == nil {
		return &models.Attendance{ID: id, CheckOutTime: &checkOut}, nil
	}
	return s.setCheckOutFn(ctx, id, checkOut, signature)
}

func (s *stubAttendanceRepo) ListForDate(ctx context.Context, date time.Time) ([]models.Attendance, error) {
	if s.listForDateFn == nil {
		return nil, nil
	}
	return s.listForDateFn(ctx, date)
}

func (s *stubAttendanceRepo) ListForMonth(ctx context.Context, employeeID string, monthStart, monthEnd time.Time) ([]models.Attendance, error) {
	s.monthCalls++
	if s.listForMonthFn == nil {
		return nil, nil
	}
	return s.listForMonthFn(ctx, employeeID, monthStart, monthEnd)
}

func (s *stubAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error) {
	if s.listFn == nil {
		return nil, 0, nil
	}
	return s.listFn(ctx, filter)
}

type stubEmployeeReader struct {
	byID   map[string]*models.Employee
	active []models.Employee
}

func (s *stubEmployeeReader) GetByID(_ context.Context, id string) (*models.Employee, error) {
	return s.byID[id], nil
}

func (s *stubEmployeeReader) ListActive(_ context.Context) ([]models.Employee, error) {
	return s.active, nil
}

type stubLeaveReader struct {
	rows  []models.LeaveRecord
	calls int
}

func (s *stubLeaveReader) ListForMonth(_ context.Context, _ string, _, _ time.Time) ([]models.LeaveRecord, error) {
	s.calls++
	return s.rows, nil
}

type stubCache struct {
	values  map[string]string
	deleted []string
}

func (s *stubCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *stubCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value
	return nil
}

func (s *stubCache) Del(_ context.Context, keys ...string) error {
	s.deleted = append(s.deleted, keys...)
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func activeEmployee(id string) *models.Employee {
	return &models.Employee{ID: id, FullName: "Alice Kouadio", CompanyID: "co-1", Active: true}
}

type stubMetrics struct {
	cacheHits   int
	cacheMisses int
	rejections  map[string]int
}

func (s *stubMetrics) RecordCacheOperation(hit bool) {
	if hit {
		s.cacheHits++
	} else {
		s.cacheMisses++
	}
}

func (s *stubMetrics) RecordGateRejection(operation string) {
	if s.rejections == nil {
		s.rejections = map[string]int{}
	}
	s.rejections[operation]++
}

func newTestAttendanceService(repo *stubAttendanceRepo, employees *stubEmployeeReader, leaves *stubLeaveReader, cache *stubCache) *AttendanceService {
	windows := NewTimeWindowPolicy(config.AttendanceConfig{
		CheckInStartMin:  7 * 60,
		CheckInEndMin:    11 * 60,
		CheckOutStartMin: 12 * 60,
	})
	return NewAttendanceService(repo, employees, leaves, windows, cache, time.Minute, nil, nil, nil)
}

func at(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.UTC)
	}
}

func TestCheckInRejectedOutsideWindow(t *testing.T) {
	employees := &stubEmployeeReader{byID: map[string]*models.Employee{"3f0c8c3e-0000-4000-8000-000000000001": activeEmployee("3f0c8c3e-0000-4000-8000-000000000001")}}
	svc := newTestAttendanceService(&stubAttendanceRepo{}, employees, &stubLeaveReader{}, &stubCache{})

	req := models.CheckInRequest{EmployeeID: "3f0c8c3e-0000-4000-8000-000000000001", Signature: "sig"}

	svc.now = at(6, 30)
	_, err := svc.CheckIn(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrWindowClosed.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "07:00")

	svc.now = at(11, 0)
	_, err = svc.CheckIn(context.Background(), req)
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrWindowClosed.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "11:00")
}

func TestCheckInRequiresSignature(t *testing.T) {
	svc := newTestAttendanceService(&stubAttendanceRepo{}, &stubEmployeeReader{}, &stubLeaveReader{}, &stubCache{})
	svc.now = at(8, 0)

	_, err := svc.CheckIn(context.Background(), models.CheckInRequest{EmployeeID: "3f0c8c3e-0000-4000-8000-000000000001"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCheckInOncePerDay(t *testing.T) {
	empID := "3f0c8c3e-0000-4000-8000-000000000001"
	checkin := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	repo := &stubAttendanceRepo{
		getFn: func(_ context.Context, _ string, _ time.Time) (*models.Attendance, error) {
			return &models.Attendance{ID: "att-1", EmployeeID: empID, CheckInTime: &checkin}, nil
		},
	}
	employees := &stubEmployeeReader{byID: map[string]*models.Employee{empID: activeEmployee(empID)}}
	svc := newTestAttendanceService(repo, employees, &stubLeaveReader{}, &stubCache{})
	svc.now = at(9, 0)

	_, err := svc.CheckIn(context.Background(), models.CheckInRequest{EmployeeID: empID, Signature: "sig"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCheckInSuccessInvalidatesCaches(t *testing.T) {
	empID := "3f0c8c3e-0000-4000-8000-000000000001"
	repo := &stubAttendanceRepo{}
	employees := &stubEmployeeReader{byID: map[string]*models.Employee{empID: activeEmployee(empID)}}
	cache := &stubCache{values: map[string]string{
		"summary:" + empID + ":2025-03": "stale",
		"todayboard:2025-03-10":         "stale",
	}}
	svc := newTestAttendanceService(repo, employees, &stubLeaveReader{}, cache)
	svc.now = at(8, 15)

	stored, err := svc.CheckIn(context.Background(), models.CheckInRequest{EmployeeID: empID, Signature: "sig"})
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.CheckInTime)
	assert.Contains(t, cache.deleted, "summary:"+empID+":2025-03")
	assert.Contains(t, cache.deleted, "todayboard:2025-03-10")
}

func TestCheckOutRequiresSameDayCheckIn(t *testing.T) {
	empID := "3f0c8c3e-0000-4000-8000-000000000001"
	employees := &stubEmployeeReader{byID: map[string]*models.Employee{empID: activeEmployee(empID)}}
	svc := newTestAttendanceService(&stubAttendanceRepo{}, employees, &stubLeaveReader{}, &stubCache{})
	svc.now = at(14, 0)

	_, err := svc.CheckOut(context.Background(), models.CheckOutRequest{EmployeeID: empID, Signature: "sig"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCheckOutBeforeWindow(t *testing.T) {
	empID := "3f0c8c3e-0000-4000-8000-000000000001"
	employees := &stubEmployeeReader{byID: map[string]*models.Employee{empID: activeEmployee(empID)}}
	svc := newTestAttendanceService(&stubAttendanceRepo{}, employees, &stubLeaveReader{}, &stubCache{})
	svc.now = at(11, 30)

	_, err := svc.CheckOut(context.Background(), models.CheckOutRequest{EmployeeID: empID, Signature: "sig"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrWindowClosed.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "12:00")
}

func TestCheckOutOncePerDay(t *testing.T) {
	empID := "3f0c8c3e-0000-4000-8000-000000000001"
	checkin := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	checkout := checkin.Add(9 * time.Hour)
	repo := &stubAttendanceRepo{
		getFn: func(_ context.Context, _ string, _ time.Time) (*models.Attendance, error) {
			return &models.Attendance{ID: "att-1", CheckInTime: &checkin, CheckOutTime: &checkout}, nil
		},
	}
	employees := &stubEmployeeReader{byID: map[string]*models.Employee{empID: activeEmployee(empID)}}
	svc := newTestAttendanceService(repo, employees, &stubLeaveReader{}, &stubCache{})
	svc.now = at(18, 0)

	_, err := svc.CheckOut(context.Background(), models.CheckOutRequest{EmployeeID: empID, Signature: "sig"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTodayBoardPartitionIsTotalAndDisjoint(t *testing.T) {
	today := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	checkin := today.Add(8 * time.Hour)
	checkout := today.Add(17 * time.Hour)

	roster := []models.Employee{
		{ID: "emp-1", FullName: "Alice Kouadio", Active: true},
		{ID: "emp-2", FullName: "Benoît Traoré", Active: true},
		{ID: "emp-3", FullName: "Chantal Koffi", Active: true},
	}
	repo := &stubAttendanceRepo{
		listForDateFn: func(_ context.Context, _ time.Time) ([]models.Attendance, error) {
			return []models.Attendance{
				{ID: "att-1", EmployeeID: "emp-1", Date: today, CheckInTime: &checkin},
				{ID: "att-2", EmployeeID: "emp-2", Date: today, CheckInTime: &checkin, CheckOutTime: &checkout},
			}, nil
		},
	}
	svc := newTestAttendanceService(repo, &stubEmployeeReader{active: roster}, &stubLeaveReader{}, &stubCache{})
	svc.now = at(18, 0)

	board, err := svc.TodayBoard(context.Background())
	require.NoError(t, err)

	assert.Len(t, board.Present, 1)
	assert.Len(t, board.Departed, 1)
	assert.Len(t, board.Awaiting, 1)
	assert.Equal(t, len(roster), board.Counts.Total)
	assert.Equal(t, board.Counts.Total, board.Counts.Awaiting+board.Counts.Present+board.Counts.Departed)
	assert.Equal(t, "emp-1", board.Present[0].Employee.ID)
	assert.Equal(t, "emp-2", board.Departed[0].Employee.ID)
	assert.Equal(t, "emp-3", board.Awaiting[0].Employee.ID)
}

func TestMonthlySummaryFutureMonthSkipsReads(t *testing.T) {
	repo := &stubAttendanceRepo{}
	leaves := &stubLeaveReader{}
	svc := newTestAttendanceService(repo, &stubEmployeeReader{}, leaves, &stubCache{})
	svc.now = at(10, 0)

	summary, err := svc.MonthlySummary(context.Background(), "emp-1", "2025-06")
	require.NoError(t, err)
	assert.Empty(t, summary.Rows)
	assert.Equal(t, 0, summary.TotalMinutes)
	assert.Equal(t, "00:00", summary.FormattedTotal)
	assert.Zero(t, repo.monthCalls)
	assert.Zero(t, leaves.calls)
}

func TestMonthlySummaryLeaveOverridesAttendance(t *testing.T) {
	empID := "emp-1"
	day := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC) // Wednesday
	checkin := day.Add(8 * time.Hour)
	checkout := day.Add(17 * time.Hour)

	repo := &stubAttendanceRepo{
		listForMonthFn: func(_ context.Context, _ string, _, _ time.Time) ([]models.Attendance, error) {
			return []models.Attendance{
				{ID: "att-1", EmployeeID: empID, Date: day, CheckInTime: &checkin, CheckOutTime: &checkout},
			}, nil
		},
	}
	leaves := &stubLeaveReader{rows: []models.LeaveRecord{
		{EmployeeID: empID, Date: day, Status: models.LeaveStatusPermission, LeaveType: "Maladie"},
		{EmployeeID: empID, Date: day.AddDate(0, 0, 1), Status: models.LeaveStatusConge, LeaveType: models.CongePaye},
	}}
	employees := &stubEmployeeReader{byID: map[string]*models.Employee{empID: activeEmployee(empID)}}
	svc := newTestAttendanceService(repo, employees, leaves, &stubCache{})
	svc.now = at(10, 0)

	summary, err := svc.MonthlySummary(context.Background(), empID, "2025-03")
	require.NoError(t, err)

	byDay := map[string]models.SummaryRow{}
	for _, row := range summary.Rows {
		byDay[row.Date.Format("2006-01-02")] = row
	}

	permission := byDay["2025-03-05"]
	assert.Equal(t, models.SummaryRowLeave, permission.Kind)
	assert.Equal(t, 480, permission.Minutes)
	assert.Equal(t, "08:00", permission.FormattedMinutes)

	conge := byDay["2025-03-06"]
	assert.Equal(t, models.SummaryRowLeave, conge.Kind)
	assert.Equal(t, 0, conge.Minutes)

	// Weekends without data never appear.
	_, hasSaturday := byDay["2025-03-01"]
	assert.False(t, hasSaturday)
	_, hasSunday := byDay["2025-03-02"]
	assert.False(t, hasSunday)

	assert.Equal(t, 480, summary.TotalMinutes)
	assert.Equal(t, "08:00", summary.FormattedTotal)
}

func TestMonthlySummaryRawMinutes(t *testing.T) {
	empID := "emp-1"
	day := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC) // Tuesday
	checkin := day.Add(8 * time.Hour)
	checkout := day.Add(16*time.Hour + 30*time.Minute)
	halfDay := day.AddDate(0, 0, 1)
	halfIn := halfDay.Add(9 * time.Hour)

	repo := &stubAttendanceRepo{
		listForMonthFn: func(_ context.Context, _ string, _, _ time.Time) ([]models.Attendance, error) {
			return []models.Attendance{
				{ID: "att-1", EmployeeID: empID, Date: day, CheckInTime: &checkin, CheckOutTime: &checkout},
				{ID: "att-2", EmployeeID: empID, Date: halfDay, CheckInTime: &halfIn},
			}, nil
		},
	}
	employees := &stubEmployeeReader{byID: map[string]*models.Employee{empID: activeEmployee(empID)}}
	svc := newTestAttendanceService(repo, employees, &stubLeaveReader{}, &stubCache{})
	svc.now = at(10, 0)

	summary, err := svc.MonthlySummary(context.Background(), empID, "2025-03")
	require.NoError(t, err)

	byDay := map[string]models.SummaryRow{}
	for _, row := range summary.Rows {
		byDay[row.Date.Format("2006-01-02")] = row
	}

	assert.Equal(t, 510, byDay["2025-03-04"].Minutes)
	assert.Equal(t, "08:30", byDay["2025-03-04"].FormattedMinutes)

	// Missing check-out yields zero minutes, not negative.
	assert.Equal(t, 0, byDay["2025-03-05"].Minutes)
	assert.Equal(t, "00:00", byDay["2025-03-05"].FormattedMinutes)

	assert.Equal(t, 510, summary.TotalMinutes)
}

func TestMonthlySummaryResolvesSignatures(t *testing.T) {
	empID := "emp-1"
	day := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)
	checkin := day.Add(8 * time.Hour)
	checkout := day.Add(17 * time.Hour)
	rawSig := strings.Repeat("iVBORw0KGgoAAAANSUhEUg", 3)
	fileSig := "/storage/signatures/out.png"

	repo := &stubAttendanceRepo{
		listForMonthFn: func(_ context.Context, _ string, _, _ time.Time) ([]models.Attendance, error) {
			return []models.Attendance{
				{
					ID:                "att-1",
					EmployeeID:        empID,
					Date:              day,
					CheckInTime:       &checkin,
					CheckOutTime:      &checkout,
					CheckInSignature:  &rawSig,
					CheckOutSignature: &fileSig,
				},
			}, nil
		},
	}
	employees := &stubEmployeeReader{byID: map[string]*models.Employee{empID: activeEmployee(empID)}}
	svc := newTestAttendanceService(repo, employees, &stubLeaveReader{}, &stubCache{})
	svc.now = at(10, 0)

	summary, err := svc.MonthlySummary(context.Background(), empID, "2025-03")
	require.NoError(t, err)

	var row models.SummaryRow
	for _, r := range summary.Rows {
		if r.Date.Equal(day) {
			row = r
		}
	}
	assert.Equal(t, "data:image/png;base64,"+rawSig, row.CheckInSignature)
	assert.Equal(t, fileSig, row.CheckOutSignature)
}

func TestGateRejectionsAreCounted(t *testing.T) {
	empID := "3f0c8c3e-0000-4000-8000-000000000001"
	employees := &stubEmployeeReader{byID: map[string]*models.Employee{empID: activeEmployee(empID)}}
	metrics := &stubMetrics{}
	svc := newTestAttendanceService(&stubAttendanceRepo{}, employees, &stubLeaveReader{}, &stubCache{})
	svc.metrics = metrics

	svc.now = at(6, 30)
	_, err := svc.CheckIn(context.Background(), models.CheckInRequest{EmployeeID: empID, Signature: "sig"})
	require.Error(t, err)

	svc.now = at(11, 30)
	_, err = svc.CheckOut(context.Background(), models.CheckOutRequest{EmployeeID: empID, Signature: "sig"})
	require.Error(t, err)

	assert.Equal(t, 1, metrics.rejections["checkin"])
	assert.Equal(t, 1, metrics.rejections["checkout"])
}

func TestSummaryCacheLookupsAreCounted(t *testing.T) {
	empID := "emp-1"
	employees := &stubEmployeeReader{byID: map[string]*models.Employee{empID: activeEmployee(empID)}}
	metrics := &stubMetrics{}
	svc := newTestAttendanceService(&stubAttendanceRepo{}, employees, &stubLeaveReader{}, &stubCache{})
	svc.metrics = metrics
	svc.now = at(10, 0)

	_, err := svc.MonthlySummary(context.Background(), empID, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.cacheMisses)

	_, err = svc.MonthlySummary(context.Background(), empID, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.cacheHits)
}
