package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pointage-hr/pointage-api/internal/middleware"
	"github.com/pointage-hr/pointage-api/internal/models"
	"github.com/pointage-hr/pointage-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth       *AuthHandler
	Employee   *EmployeeHandler
	Attendance *AttendanceHandler
	Departure  *DepartureHandler
	Leave      *LeaveHandler
	Report     *ReportHandler
}

// RegisterRoutes mounts all API routes on the given group. Everything except
// login sits behind JWT; directory and report management is restricted to
// admins and managers.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, auth *service.AuthService) {
	api.POST("/auth/login", h.Auth.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(auth))

	authed.GET("/auth/me", h.Auth.Me)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)

	authed.GET("/employees", h.Employee.List)
	authed.GET("/employees/:id", h.Employee.Get)
	authed.POST("/employees", staff, h.Employee.Create)
	authed.PUT("/employees/:id", staff, h.Employee.Update)
	authed.DELETE("/employees/:id", staff, h.Employee.Delete)
	authed.GET("/companies", h.Employee.Companies)

	authed.POST("/attendance/checkin", h.Attendance.CheckIn)
	authed.POST("/attendance/checkout", h.Attendance.CheckOut)
	authed.POST("/attendance/on-field", staff, h.Attendance.OnField)
	authed.GET("/attendance/today", h.Attendance.TodayBoard)
	authed.GET("/attendance/summary/:id", h.Attendance.MonthlySummary)
	authed.GET("/attendance", h.Attendance.List)

	authed.POST("/departures", h.Departure.Open)
	authed.POST("/departures/return-latest", h.Departure.CloseLatest)
	authed.POST("/departures/:id/return", h.Departure.Close)
	authed.GET("/departures", h.Departure.List)

	authed.POST("/leaves", staff, h.Leave.Create)
	authed.GET("/leaves/suggest-end", h.Leave.SuggestEnd)
	authed.GET("/leaves", h.Leave.List)

	authed.POST("/reports/:kind", staff, h.Report.Submit)
	authed.GET("/reports/jobs/:id", staff, h.Report.Status)
	authed.GET("/reports/jobs/:id/download", staff, h.Report.Download)
}
