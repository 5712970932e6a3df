package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pointage-hr/pointage-api/internal/models"
	"github.com/pointage-hr/pointage-api/internal/service"
	appErrors "github.com/pointage-hr/pointage-api/pkg/errors"
	"github.com/pointage-hr/pointage-api/pkg/response"
)

// ReportHandler exposes asynchronous sheet generation.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Submit godoc
// @Summary Queue a presence or departure sheet
// @Tags Reports
// @Accept json
// @Produce json
// @Param kind path string true "Report kind (presence or departures)"
// @Param payload body models.ReportRequest true "Report payload"
// @Success 202 {object} response.Envelope
// @Router /reports/{kind} [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.Kind = models.ReportKind(c.Param("kind"))

	job, err := h.reports.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/jobs/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	job, err := h.reports.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished report
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Job ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /reports/jobs/{id}/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	path, err := h.reports.FilePath(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, c.Param("id"))
}
