package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pointage-hr/pointage-api/internal/models"
	"github.com/pointage-hr/pointage-api/internal/service"
	appErrors "github.com/pointage-hr/pointage-api/pkg/errors"
	"github.com/pointage-hr/pointage-api/pkg/response"
)

// EmployeeHandler exposes employee directory endpoints.
type EmployeeHandler struct {
	employees *service.EmployeeService
}

// NewEmployeeHandler constructs EmployeeHandler.
func NewEmployeeHandler(employees *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

// List godoc
// @Summary List employees
// @Tags Employees
// @Produce json
// @Param search query string false "Search by name"
// @Param companyId query string false "Filter by company"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	var filter models.EmployeeFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.CompanyID = c.Query("companyId")
	if active := c.Query("active"); active != "" {
		if active == "true" {
			v := true
			filter.Active = &v
		} else if active == "false" {
			v := false
			filter.Active = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	employees, pagination, err := h.employees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employees, pagination)
}

// Get godoc
// @Summary Get employee detail
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
	employee, err := h.employees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Create godoc
// @Summary Create employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param payload body models.CreateEmployeeRequest true "Employee payload"
// @Success 201 {object} response.Envelope
// @Router /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req models.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	employee, err := h.employees.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee)
}

// Update godoc
// @Summary Update employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body models.UpdateEmployeeRequest true "Employee payload"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req models.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	employee, err := h.employees.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Delete godoc
// @Summary Delete employee
// @Description Deleting an unknown employee still returns 204
// @Tags Employees
// @Param id path string true "Employee ID"
// @Success 204 {object} response.Envelope
// @Router /employees/{id} [delete]
func (h *EmployeeHandler) Delete(c *gin.Context) {
	if err := h.employees.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Companies godoc
// @Summary List companies
// @Tags Employees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /companies [get]
func (h *EmployeeHandler) Companies(c *gin.Context) {
	companies, err := h.employees.Companies(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, companies, nil)
}
