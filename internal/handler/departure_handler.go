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

// DepartureHandler exposes the temporary-departure ledger.
type DepartureHandler struct {
	departures *service.DepartureService
}

// NewDepartureHandler constructs DepartureHandler.
func NewDepartureHandler(departures *service.DepartureService) *DepartureHandler {
	return &DepartureHandler{departures: departures}
}

// Open godoc
// @Summary Open a temporary departure
// @Description Departures are accepted at any time of day; a reason is mandatory
// @Tags Departures
// @Accept json
// @Produce json
// @Param payload body models.OpenDepartureRequest true "Departure payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /departures [post]
func (h *DepartureHandler) Open(c *gin.Context) {
	var req models.OpenDepartureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.departures.Open(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Close godoc
// @Summary Close a departure by ID
// @Description Closing an already-closed departure returns 409
// @Tags Departures
// @Accept json
// @Produce json
// @Param id path string true "Departure ID"
// @Param payload body models.CloseDepartureRequest true "Return payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /departures/{id}/return [post]
func (h *DepartureHandler) Close(c *gin.Context) {
	var req models.CloseDepartureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.departures.Close(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// CloseLatest godoc
// @Summary Close the employee's most recent open departure
// @Tags Departures
// @Accept json
// @Produce json
// @Param payload body models.CloseLatestDepartureRequest true "Return payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /departures/return-latest [post]
func (h *DepartureHandler) CloseLatest(c *gin.Context) {
	var req models.CloseLatestDepartureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.departures.CloseLatest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// List godoc
// @Summary List departures
// @Tags Departures
// @Produce json
// @Param employeeId query string false "Filter by employee"
// @Param companyId query string false "Filter by company"
// @Param month query string false "Month (YYYY-MM)"
// @Param open query bool false "Only open departures"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /departures [get]
func (h *DepartureHandler) List(c *gin.Context) {
	var filter models.DepartureFilter
	filter.EmployeeID = c.Query("employeeId")
	filter.CompanyID = c.Query("companyId")
	if month := c.Query("month"); month != "" {
		parsed, err := time.Parse(workcal.MonthLayout, month)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid month, expected YYYY-MM"))
			return
		}
		filter.Month = &parsed
	}
	filter.OpenOnly = c.Query("open") == "true"
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	rows, pagination, err := h.departures.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}
