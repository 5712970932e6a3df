package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pointage-hr/pointage-api/internal/models"
	"github.com/pointage-hr/pointage-api/internal/service"
	appErrors "github.com/pointage-hr/pointage-api/pkg/errors"
	"github.com/pointage-hr/pointage-api/pkg/response"
	"github.com/pointage-hr/pointage-api/pkg/workcal"
)

// AttendanceHandler exposes check-in, check-out, today-board and summary
// endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// CheckIn godoc
// @Summary Record a morning check-in
// @Description Requires the check-in window to be open and a signature
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.CheckInRequest true "Check-in payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /attendance/checkin [post]
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req models.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.CheckIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// CheckOut godoc
// @Summary Record an end-of-day check-out
// @Description Requires a same-day check-in, the check-out window and a signature
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.CheckOutRequest true "Check-out payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /attendance/checkout [post]
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	var req models.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.CheckOut(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// OnField godoc
// @Summary Record an on-field presence
// @Description No window gating and no signature; the date may be back-dated
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.OnFieldCheckInRequest true "On-field payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/on-field [post]
func (h *AttendanceHandler) OnField(c *gin.Context) {
	var req models.OnFieldCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.OnFieldCheckIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// TodayBoard godoc
// @Summary Today's presence board
// @Description Partitions the active roster into awaiting, present and departed
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/today [get]
func (h *AttendanceHandler) TodayBoard(c *gin.Context) {
	board, err := h.attendance.TodayBoard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil)
}

// MonthlySummary godoc
// @Summary Monthly presence summary for an employee
// @Tags Attendance
// @Produce json
// @Param id path string true "Employee ID"
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /attendance/summary/{id} [get]
func (h *AttendanceHandler) MonthlySummary(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month required"))
		return
	}
	summary, err := h.attendance.MonthlySummary(c.Request.Context(), c.Param("id"), month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// List godoc
// @Summary List attendance rows
// @Tags Attendance
// @Produce json
// @Param employeeId query string false "Filter by employee"
// @Param companyId query string false "Filter by company"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	var filter models.AttendanceFilter
	filter.EmployeeID = c.Query("employeeId")
	filter.CompanyID = c.Query("companyId")
	if from := c.Query("from"); from != "" {
		parsed, err := time.Parse(workcal.DateLayout, from)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid from date, expected YYYY-MM-DD"))
			return
		}
		filter.DateFrom = &parsed
	}
	if to := c.Query("to"); to != "" {
		parsed, err := time.Parse(workcal.DateLayout, to)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid to date, expected YYYY-MM-DD"))
			return
		}
		filter.DateTo = &parsed
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	rows, pagination, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}
