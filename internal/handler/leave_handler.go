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

// LeaveHandler exposes leave and permission endpoints.
type LeaveHandler struct {
	leaves *service.LeaveService
}

// NewLeaveHandler constructs LeaveHandler.
func NewLeaveHandler(leaves *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaves: leaves}
}

// Create godoc
// @Summary Submit a leave range
// @Description Permission categories are capped in business days; over-cap ranges are rejected whole
// @Tags Leaves
// @Accept json
// @Produce json
// @Param payload body models.CreateLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /leaves [post]
func (h *LeaveHandler) Create(c *gin.Context) {
	var req models.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.leaves.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// SuggestEnd godoc
// @Summary Suggest the latest allowed end date for a permission category
// @Tags Leaves
// @Produce json
// @Param category query string true "Permission category"
// @Param start query string true "Start date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /leaves/suggest-end [get]
func (h *LeaveHandler) SuggestEnd(c *gin.Context) {
	category := c.Query("category")
	if category == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "category required"))
		return
	}
	start, err := time.Parse(workcal.DateLayout, c.Query("start"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid start date, expected YYYY-MM-DD"))
		return
	}

	payload := gin.H{"category": category, "start_date": start.Format(workcal.DateLayout)}
	if end := service.SuggestEndDate(category, start); end != nil {
		payload["suggested_end_date"] = end.Format(workcal.DateLayout)
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// List godoc
// @Summary List leave records
// @Tags Leaves
// @Produce json
// @Param employeeId query string false "Filter by employee"
// @Param month query string false "Month (YYYY-MM)"
// @Param status query string false "Leave status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leaves [get]
func (h *LeaveHandler) List(c *gin.Context) {
	var filter models.LeaveFilter
	filter.EmployeeID = c.Query("employeeId")
	if month := c.Query("month"); month != "" {
		parsed, err := time.Parse(workcal.MonthLayout, month)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid month, expected YYYY-MM"))
			return
		}
		filter.Month = &parsed
	}
	if status := c.Query("status"); status != "" {
		s := models.LeaveStatus(status)
		if !s.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown leave status"))
			return
		}
		filter.Status = &s
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	rows, pagination, err := h.leaves.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}
