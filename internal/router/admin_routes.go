package router

// This file registers the admin dashboard.  Every route requires a JWT and
// staff standing.  Route-level RequirePermission rejects callers early; the
// services repeat the check together with the per-target authority rules.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/access"
	"github.com/iliyamo/careers-portal/internal/handler"
	"github.com/iliyamo/careers-portal/internal/middleware"
)

func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, lim Limits) {
	g := e.Group(
		"/v1/admin",
		lim.General,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireStaff(),
	)
	perm := middleware.RequirePermission

	g.GET("/dashboard", h.Dashboard, perm(access.DashboardView))

	// ---- Jobs ----
	g.GET("/jobs", h.ListJobs, perm(access.JobsView))
	g.GET("/jobs/:id", h.GetJob, perm(access.JobsView))
	g.POST("/jobs", h.CreateJob, perm(access.JobsCreate))
	g.PUT("/jobs/:id", h.UpdateJob, perm(access.JobsEdit))
	g.PATCH("/jobs/:id", h.UpdateJob, perm(access.JobsEdit))
	g.POST("/jobs/:id/publish", h.PublishJob, perm(access.JobsPublish))
	g.POST("/jobs/:id/unpublish", h.UnpublishJob, perm(access.JobsPublish))
	g.DELETE("/jobs/:id", h.DeleteJob, perm(access.JobsDelete))

	// ---- Industries ----
	g.GET("/industries", h.ListIndustries, perm(access.IndustriesView))
	g.GET("/industries/:id", h.GetIndustry, perm(access.IndustriesView))
	g.POST("/industries", h.CreateIndustry, perm(access.IndustriesManage))
	g.PUT("/industries/:id", h.UpdateIndustry, perm(access.IndustriesManage))
	g.DELETE("/industries/:id", h.DeleteIndustry, perm(access.IndustriesManage))

	// ---- Applications ----
	g.GET("/applications", h.ListApplications, perm(access.ApplicationsView))
	g.GET("/applications/:id", h.GetApplication, perm(access.ApplicationsView))
	g.PATCH("/applications/:id/status", h.ChangeStatus, perm(access.ApplicationsEdit))
	g.POST("/applications/:id/archive", h.ArchiveApplication, perm(access.ApplicationsEdit))
	g.POST("/applications/:id/restore", h.RestoreApplication, perm(access.ApplicationsEdit))
	g.DELETE("/applications/:id", h.DeleteApplication, perm(access.ApplicationsDelete))
	g.POST("/applications/:id/email", h.EmailApplicant, perm(access.ApplicationsEmail))

	// ---- Users ----
	g.GET("/users", h.ListUsers, perm(access.UsersView))
	g.GET("/users/:id", h.GetUser, perm(access.UsersView))
	g.POST("/users/invite", h.InviteUser, perm(access.UsersInvite))
	g.POST("/users/:id/resend-invite", h.ResendInvitation, perm(access.UsersInvite))
	g.PATCH("/users/:id/role", h.ChangeRole, perm(access.UsersEdit))
	g.PATCH("/users/:id/permission-level", h.ChangePermissionLevel, perm(access.UsersEdit))
	g.PATCH("/users/:id/active", h.SetUserActive, perm(access.UsersEdit))
	g.DELETE("/users/:id", h.DeleteUser, perm(access.UsersDelete))
}
