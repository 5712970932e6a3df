package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointage-hr/pointage-api/internal/models"
)

type pagedDepartureLister struct {
	items []models.TemporaryDeparture
	calls int
}

func (s *pagedDepartureLister) List(_ context.Context, filter models.DepartureFilter) ([]models.TemporaryDeparture, *models.Pagination, error) {
	s.calls++
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	start := (page - 1) * size
	if start > len(s.items) {
		start = len(s.items)
	}
	end := start + size
	if end > len(s.items) {
		end = len(s.items)
	}
	return s.items[start:end], &models.Pagination{Page: page, PageSize: size, TotalCount: len(s.items)}, nil
}

func TestDeparturesReportWalksEveryPage(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	items := make([]models.TemporaryDeparture, 450)
	for i := range items {
		name := fmt.Sprintf("Employé %03d", i)
		items[i] = models.TemporaryDeparture{
			ID:            fmt.Sprintf("dep-%03d", i),
			EmployeeName:  &name,
			Date:          day,
			DepartureTime: day.Add(10 * time.Hour),
			Reason:        "course",
		}
	}
	lister := &pagedDepartureLister{items: items}
	svc := NewReportService(nil, lister, nil, nil, 1, 1, nil, nil)

	dataset, title, err := svc.buildDeparturesDataset(context.Background(), models.ReportRequest{
		Kind:   models.ReportDepartures,
		Format: models.FormatCSV,
		Month:  "2025-03",
	})
	require.NoError(t, err)
	assert.Equal(t, "Fiche de sortie 2025-03", title)
	assert.Len(t, dataset.Rows, len(items))
	assert.Equal(t, 3, lister.calls)
	assert.Equal(t, "Employé 449", dataset.Rows[len(items)-1]["Employé"])
}

func TestDeparturesReportRejectsBadMonth(t *testing.T) {
	svc := NewReportService(nil, &pagedDepartureLister{}, nil, nil, 1, 1, nil, nil)

	_, _, err := svc.buildDeparturesDataset(context.Background(), models.ReportRequest{
		Kind:  models.ReportDepartures,
		Month: "mars-2025",
	})
	require.Error(t, err)
}
