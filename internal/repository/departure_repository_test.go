package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointage-hr/pointage-api/internal/models"
)

func newDepartureRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestDepartureRepositoryLatestOpenByEmployee(t *testing.T) {
	db, mock, cleanup := newDepartureRepoMock(t)
	defer cleanup()
	repo := NewDepartureRepository(db)

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	departed := day.Add(14 * time.Hour)
	rows := sqlmock.NewRows([]string{
		"id", "employee_id", "date", "departure_time", "return_time",
		"reason", "return_signature", "created_at", "updated_at",
		"employee_name", "company_id",
	}).AddRow("dep-2", "emp-1", day, departed, nil,
		"rendez-vous médical", nil, departed, departed,
		sql.NullString{String: "Alice Kouadio", Valid: true}, sql.NullString{String: "co-1", Valid: true})

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY d.date DESC, d.departure_time DESC")).
		WithArgs("emp-1").
		WillReturnRows(rows)

	item, err := repo.LatestOpenByEmployee(context.Background(), "emp-1")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "dep-2", item.ID)
	assert.True(t, item.Open())
}

func TestDepartureRepositoryLatestOpenByEmployeeNone(t *testing.T) {
	db, mock, cleanup := newDepartureRepoMock(t)
	defer cleanup()
	repo := NewDepartureRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("emp-1").
		WillReturnError(sql.ErrNoRows)

	item, err := repo.LatestOpenByEmployee(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestDepartureRepositoryCloseGuardsClosedRows(t *testing.T) {
	db, mock, cleanup := newDepartureRepoMock(t)
	defer cleanup()
	repo := NewDepartureRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND return_time IS NULL")).
		WithArgs("dep-1", sqlmock.AnyArg(), "sig-data", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	item, err := repo.Close(context.Background(), "dep-1", time.Now().UTC(), "sig-data")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestDepartureRepositoryClose(t *testing.T) {
	db, mock, cleanup := newDepartureRepoMock(t)
	defer cleanup()
	repo := NewDepartureRepository(db)

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	departed := day.Add(14 * time.Hour)
	returned := day.Add(15 * time.Hour)
	rows := sqlmock.NewRows([]string{
		"id", "employee_id", "date", "departure_time", "return_time",
		"reason", "return_signature", "created_at", "updated_at",
	}).AddRow("dep-1", "emp-1", day, departed, returned,
		"course urgente", sql.NullString{String: "sig-data", Valid: true}, departed, returned)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE temporary_departures")).
		WithArgs("dep-1", returned, "sig-data", sqlmock.AnyArg()).
		WillReturnRows(rows)

	item, err := repo.Close(context.Background(), "dep-1", returned, "sig-data")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.False(t, item.Open())
	require.NotNil(t, item.ReturnTime)
	assert.Equal(t, returned, *item.ReturnTime)
}

func TestDepartureRepositoryListOpenOnly(t *testing.T) {
	db, mock, cleanup := newDepartureRepoMock(t)
	defer cleanup()
	repo := NewDepartureRepository(db)

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "employee_id", "date", "departure_time", "return_time",
		"reason", "return_signature", "created_at", "updated_at",
		"employee_name", "company_id",
	}).AddRow("dep-1", "emp-1", day, day.Add(9*time.Hour), nil,
		"pharmacie", nil, day, day,
		sql.NullString{String: "Alice Kouadio", Valid: true}, sql.NullString{String: "co-1", Valid: true})

	mock.ExpectQuery(regexp.QuoteMeta("d.return_time IS NULL")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.DepartureFilter{OpenOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.True(t, items[0].Open())
}
