package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campussports/sportsdesk-api/internal/middleware"
	"github.com/campussports/sportsdesk-api/internal/models"
	"github.com/campussports/sportsdesk-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth        *AuthHandler
	Transaction *TransactionHandler
	Attendance  *AttendanceHandler
	Coach       *CoachHandler
	Dashboard   *DashboardHandler
	NoDues      *NoDuesHandler
	Report      *ReportHandler
}

// RegisterRoutes mounts the API surface under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, authService *service.AuthService, h Handlers, reportsEnabled bool) {
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/verify-role", h.Auth.VerifyRole)
		auth.GET("/me", middleware.JWT(authService), h.Auth.Me)
	}

	equipment := api.Group("/equipment", middleware.JWT(authService), middleware.RequireRoles(models.RoleStudent))
	{
		equipment.POST("/requests", h.Transaction.Request)
		equipment.POST("/:id/take", h.Transaction.Take)
		equipment.POST("/:id/return", h.Transaction.Return)
		equipment.GET("/mine", h.Transaction.ListMine)
	}

	staff := middleware.RequireRoles(models.RoleCoach, models.RoleAdmin)

	returns := api.Group("/returns", middleware.JWT(authService), staff)
	{
		returns.GET("/pending", h.Transaction.PendingReturns)
		returns.POST("/:id/approve", h.Transaction.Approve)
		returns.POST("/:id/reject", h.Transaction.Reject)
	}

	logbook := api.Group("/logbook", middleware.JWT(authService), staff)
	{
		logbook.GET("", h.Transaction.Logbook)
		logbook.GET("/facets", h.Transaction.Facets)
	}

	attendance := api.Group("/attendance", middleware.JWT(authService), staff)
	{
		attendance.POST("", h.Attendance.Mark)
		attendance.GET("", h.Attendance.List)
		attendance.GET("/stats", h.Attendance.Stats)
	}

	students := api.Group("/students", middleware.JWT(authService))
	{
		students.GET("", staff, h.Coach.Roster)
		students.GET("/:id/no-dues", middleware.RBAC("Admin", "Coach", "SELF"), h.NoDues.Status)
		students.GET("/:id/no-dues/certificate", middleware.RBAC("Admin", "Coach", "SELF"), h.NoDues.Certificate)
	}

	coaches := api.Group("/coaches", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin))
	{
		coaches.GET("", h.Coach.List)
		coaches.POST("", h.Coach.Create)
		coaches.PUT("/:id", h.Coach.Update)
		coaches.DELETE("/:id", h.Coach.Delete)
	}

	api.GET("/sports", middleware.JWT(authService), h.Coach.Sports)

	dashboard := api.Group("/dashboard", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin))
	{
		dashboard.GET("", h.Dashboard.Overview)
		dashboard.GET("/system", h.Dashboard.SystemMetrics)
	}

	if reportsEnabled {
		reports := api.Group("/reports")
		{
			reports.POST("", middleware.JWT(authService), staff, h.Report.Create)
			reports.GET("/:id", middleware.JWT(authService), staff, h.Report.Status)
			// download is authenticated by the signed token itself
			reports.GET("/download/:token", h.Report.Download)
		}
	}

	export := api.Group("/export", middleware.JWT(authService), staff)
	{
		export.GET("/logbook", h.Report.ExportLogbook)
		export.GET("/attendance", h.Report.ExportAttendance)
	}
}
