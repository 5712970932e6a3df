package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointage-hr/pointage-api/internal/models"
	appErrors "github.com/pointage-hr/pointage-api/pkg/errors"
)

type stubLeaveRepo struct {
	upserted []models.LeaveRecord
	calls    int
}

func (s *stubLeaveRepo) UpsertDays(_ context.Context, records []models.LeaveRecord) ([]models.LeaveRecord, error) {
	s.calls++
	s.upserted = records
	return records, nil
}

func (s *stubLeaveRepo) ListForMonth(_ context.Context, _ string, _, _ time.Time) ([]models.LeaveRecord, error) {
	return nil, nil
}

func (s *stubLeaveRepo) List(_ context.Context, _ models.LeaveFilter) ([]models.LeaveRecord, int, error) {
	return nil, 0, nil
}

const leaveEmpID = "3f0c8c3e-0000-4000-8000-000000000001"

func newTestLeaveService(repo *stubLeaveRepo, cache *stubCache, countWeekends bool) *LeaveService {
	employees := &stubEmployeeReader{byID: map[string]*models.Employee{leaveEmpID: activeEmployee(leaveEmpID)}}
	return NewLeaveService(repo, employees, cache, countWeekends, nil, nil)
}

func TestCreateLeavePermissionWithinCap(t *testing.T) {
	repo := &stubLeaveRepo{}
	svc := newTestLeaveService(repo, &stubCache{}, true)

	// Friday start, Wednesday end: Mon+Tue+Wed, exactly the 3-day cap.
	result, err := svc.Create(context.Background(), models.CreateLeaveRequest{
		EmployeeID: leaveEmpID,
		Status:     models.LeaveStatusPermission,
		LeaveType:  "Naissance d'un enfant",
		StartDate:  "2025-03-07",
		EndDate:    "2025-03-12",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, result.DaysInserted)
	assert.Equal(t, 1, repo.calls)
}

func TestCreateLeavePermissionOverCap(t *testing.T) {
	repo := &stubLeaveRepo{}
	svc := newTestLeaveService(repo, &stubCache{}, true)

	// One more business day than the cap allows.
	_, err := svc.Create(context.Background(), models.CreateLeaveRequest{
		EmployeeID: leaveEmpID,
		Status:     models.LeaveStatusPermission,
		LeaveType:  "Naissance d'un enfant",
		StartDate:  "2025-03-07",
		EndDate:    "2025-03-13",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrQuotaExceeded.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "3 jour(s) ouvré(s)")
	assert.Contains(t, appErr.Message, "4 demandé(s)")
	assert.Zero(t, repo.calls)
}

func TestCreateLeaveUnknownPermissionCategory(t *testing.T) {
	svc := newTestLeaveService(&stubLeaveRepo{}, &stubCache{}, true)

	_, err := svc.Create(context.Background(), models.CreateLeaveRequest{
		EmployeeID: leaveEmpID,
		Status:     models.LeaveStatusPermission,
		LeaveType:  "Déménagement",
		StartDate:  "2025-03-07",
		EndDate:    "2025-03-08",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateLeaveCongeHasNoCap(t *testing.T) {
	repo := &stubLeaveRepo{}
	svc := newTestLeaveService(repo, &stubCache{}, true)

	result, err := svc.Create(context.Background(), models.CreateLeaveRequest{
		EmployeeID: leaveEmpID,
		Status:     models.LeaveStatusConge,
		LeaveType:  models.CongePaye,
		StartDate:  "2025-03-03",
		EndDate:    "2025-03-31",
	})
	require.NoError(t, err)
	assert.Equal(t, 29, result.DaysInserted)
}

func TestCreateLeaveEndBeforeStart(t *testing.T) {
	svc := newTestLeaveService(&stubLeaveRepo{}, &stubCache{}, true)

	_, err := svc.Create(context.Background(), models.CreateLeaveRequest{
		EmployeeID: leaveEmpID,
		Status:     models.LeaveStatusConge,
		LeaveType:  models.CongePaye,
		StartDate:  "2025-03-10",
		EndDate:    "2025-03-07",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExpandLeaveRangeSkipsWeekendsWhenConfigured(t *testing.T) {
	repo := &stubLeaveRepo{}
	svc := newTestLeaveService(repo, &stubCache{}, false)

	// Friday through Monday spans one weekend.
	result, err := svc.Create(context.Background(), models.CreateLeaveRequest{
		EmployeeID: leaveEmpID,
		Status:     models.LeaveStatusJustified,
		LeaveType:  "Absence justifiée",
		StartDate:  "2025-03-07",
		EndDate:    "2025-03-10",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.DaysInserted)
	for _, record := range repo.upserted {
		assert.False(t, record.Date.Weekday() == time.Saturday || record.Date.Weekday() == time.Sunday)
	}
}

func TestCreateLeaveInvalidatesEveryTouchedMonth(t *testing.T) {
	cache := &stubCache{values: map[string]string{
		"summary:" + leaveEmpID + ":2025-03": "stale",
		"summary:" + leaveEmpID + ":2025-04": "stale",
	}}
	svc := newTestLeaveService(&stubLeaveRepo{}, cache, true)

	_, err := svc.Create(context.Background(), models.CreateLeaveRequest{
		EmployeeID: leaveEmpID,
		Status:     models.LeaveStatusConge,
		LeaveType:  models.CongeNonPaye,
		StartDate:  "2025-03-28",
		EndDate:    "2025-04-02",
	})
	require.NoError(t, err)
	assert.Contains(t, cache.deleted, "summary:"+leaveEmpID+":2025-03")
	assert.Contains(t, cache.deleted, "summary:"+leaveEmpID+":2025-04")
}

func TestSuggestEndDate(t *testing.T) {
	start := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC) // Friday

	end := SuggestEndDate("Naissance d'un enfant", start)
	require.NotNil(t, end)
	assert.Equal(t, time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC), *end)

	assert.Nil(t, SuggestEndDate(models.CongePaye, start))
}
