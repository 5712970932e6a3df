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

type stubDepartureRepo struct {
	insertFn     func(ctx context.Context, record *models.TemporaryDeparture) (*models.TemporaryDeparture, error)
	getFn        func(ctx context.Context, id string) (*models.TemporaryDeparture, error)
	closeFn      func(ctx context.Context, id string, returnTime time.Time, signature string) (*models.TemporaryDeparture, error)
	latestOpenFn func(ctx context.Context, employeeID string) (*models.TemporaryDeparture, error)
	listFn       func(ctx context.Context, filter models.DepartureFilter) ([]models.TemporaryDeparture, int, error)

	closedID string
}

func (s *stubDepartureRepo) Insert(ctx context.Context, record *models.TemporaryDeparture) (*models.TemporaryDeparture, error) {
	if s.insertFn == nil {
		record.ID = "dep-1"
		return record, nil
	}
	return s.insertFn(ctx, record)
}

func (s *stubDepartureRepo) GetByID(ctx context.Context, id string) (*models.TemporaryDeparture, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, id)
}

func (s *stubDepartureRepo) Close(ctx context.Context, id string, returnTime time.Time, signature string) (*models.TemporaryDeparture, error) {
	s.closedID = id
	if s.closeFn == nil {
		return &models.TemporaryDeparture{ID: id, ReturnTime: &returnTime, ReturnSignature: &signature}, nil
	}
	return s.closeFn(ctx, id, returnTime, signature)
}

func (s *stubDepartureRepo) LatestOpenByEmployee(ctx context.Context, employeeID string) (*models.TemporaryDeparture, error) {
	if s.latestOpenFn == nil {
		return nil, nil
	}
	return s.latestOpenFn(ctx, employeeID)
}

func (s *stubDepartureRepo) List(ctx context.Context, filter models.DepartureFilter) ([]models.TemporaryDeparture, int, error) {
	if s.listFn == nil {
		return nil, 0, nil
	}
	return s.listFn(ctx, filter)
}

const depEmpID = "3f0c8c3e-0000-4000-8000-000000000001"

func newTestDepartureService(repo *stubDepartureRepo, singleOpen bool) *DepartureService {
	employees := &stubEmployeeReader{byID: map[string]*models.Employee{depEmpID: activeEmployee(depEmpID)}}
	windows := NewTimeWindowPolicy(config.AttendanceConfig{
		CheckInStartMin:  7 * 60,
		CheckInEndMin:    11 * 60,
		CheckOutStartMin: 12 * 60,
	})
	return NewDepartureService(repo, employees, windows, &stubCache{}, singleOpen, nil, nil)
}

func TestOpenDepartureRequiresReason(t *testing.T) {
	svc := newTestDepartureService(&stubDepartureRepo{}, true)

	_, err := svc.Open(context.Background(), models.OpenDepartureRequest{EmployeeID: depEmpID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOpenDepartureAnyTimeOfDay(t *testing.T) {
	svc := newTestDepartureService(&stubDepartureRepo{}, true)

	for _, hour := range []int{6, 11, 23} {
		svc.now = at(hour, 30)
		stored, err := svc.Open(context.Background(), models.OpenDepartureRequest{EmployeeID: depEmpID, Reason: "rendez-vous médical"})
		require.NoError(t, err)
		assert.True(t, stored.Open())
	}
}

func TestOpenDepartureRejectsSecondOpen(t *testing.T) {
	repo := &stubDepartureRepo{
		latestOpenFn: func(_ context.Context, _ string) (*models.TemporaryDeparture, error) {
			return &models.TemporaryDeparture{ID: "dep-1", EmployeeID: depEmpID}, nil
		},
	}
	svc := newTestDepartureService(repo, true)

	_, err := svc.Open(context.Background(), models.OpenDepartureRequest{EmployeeID: depEmpID, Reason: "course"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestOpenDepartureAllowsParallelWhenPolicyOff(t *testing.T) {
	repo := &stubDepartureRepo{
		latestOpenFn: func(_ context.Context, _ string) (*models.TemporaryDeparture, error) {
			t.Fatal("open-departure lookup must be skipped when the single-open policy is off")
			return nil, nil
		},
	}
	svc := newTestDepartureService(repo, false)

	_, err := svc.Open(context.Background(), models.OpenDepartureRequest{EmployeeID: depEmpID, Reason: "course"})
	require.NoError(t, err)
}

func TestCloseDepartureAlreadyClosed(t *testing.T) {
	returned := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)
	repo := &stubDepartureRepo{
		getFn: func(_ context.Context, id string) (*models.TemporaryDeparture, error) {
			return &models.TemporaryDeparture{ID: id, ReturnTime: &returned}, nil
		},
	}
	svc := newTestDepartureService(repo, true)

	_, err := svc.Close(context.Background(), "dep-1", models.CloseDepartureRequest{Signature: "sig"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyClosed.Code, appErrors.FromError(err).Code)
}

func TestCloseDeparture(t *testing.T) {
	repo := &stubDepartureRepo{
		getFn: func(_ context.Context, id string) (*models.TemporaryDeparture, error) {
			return &models.TemporaryDeparture{ID: id, EmployeeID: depEmpID}, nil
		},
	}
	svc := newTestDepartureService(repo, true)

	stored, err := svc.Close(context.Background(), "dep-1", models.CloseDepartureRequest{Signature: "sig"})
	require.NoError(t, err)
	require.NotNil(t, stored.ReturnTime)
	assert.Equal(t, "dep-1", repo.closedID)
}

func TestCloseLatestResolvesMostRecentOpen(t *testing.T) {
	repo := &stubDepartureRepo{
		latestOpenFn: func(_ context.Context, _ string) (*models.TemporaryDeparture, error) {
			return &models.TemporaryDeparture{ID: "dep-9", EmployeeID: depEmpID}, nil
		},
	}
	svc := newTestDepartureService(repo, true)

	stored, err := svc.CloseLatest(context.Background(), models.CloseLatestDepartureRequest{EmployeeID: depEmpID, Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, "dep-9", stored.ID)
	assert.Equal(t, "dep-9", repo.closedID)
}

func TestCloseLatestWithoutOpenDeparture(t *testing.T) {
	svc := newTestDepartureService(&stubDepartureRepo{}, true)

	_, err := svc.CloseLatest(context.Background(), models.CloseLatestDepartureRequest{EmployeeID: depEmpID, Signature: "sig"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoOpenDeparture.Code, appErrors.FromError(err).Code)
}

func TestCloseDepartureResolvesReturnSignature(t *testing.T) {
	rawSig := strings.Repeat("iVBORw0KGgoAAAANSUhEUg", 3)
	repo := &stubDepartureRepo{
		getFn: func(_ context.Context, id string) (*models.TemporaryDeparture, error) {
			return &models.TemporaryDeparture{ID: id, EmployeeID: depEmpID}, nil
		},
	}
	svc := newTestDepartureService(repo, true)

	stored, err := svc.Close(context.Background(), "dep-1", models.CloseDepartureRequest{Signature: rawSig})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+rawSig, stored.ReturnSignatureSource)
}

func TestListDeparturesResolvesReturnSignatures(t *testing.T) {
	rawSig := strings.Repeat("iVBORw0KGgoAAAANSUhEUg", 3)
	fileSig := "/storage/signatures/ret.png"
	repo := &stubDepartureRepo{
		listFn: func(_ context.Context, _ models.DepartureFilter) ([]models.TemporaryDeparture, int, error) {
			return []models.TemporaryDeparture{
				{ID: "dep-1", ReturnSignature: &rawSig},
				{ID: "dep-2", ReturnSignature: &fileSig},
				{ID: "dep-3"},
			}, 3, nil
		},
	}
	svc := newTestDepartureService(repo, true)

	rows, _, err := svc.List(context.Background(), models.DepartureFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "data:image/png;base64,"+rawSig, rows[0].ReturnSignatureSource)
	assert.Equal(t, fileSig, rows[1].ReturnSignatureSource)
	assert.Empty(t, rows[2].ReturnSignatureSource)
}
