package handler // handler defines http handlers

import (
	"github.com/iliyamo/careers-portal/internal/service"
)

// AdminHandler bundles the services behind the admin dashboard.  Every
// route is mounted behind JWTAuth and RequireStaff; finer permission and
// authority checks happen in the services so the same rules hold for any
// caller.
type AdminHandler struct {
	Jobs       *service.JobService
	Industries *service.IndustryService
	Apps       *service.ApplicationService
	Users      *service.UserAdminService
}

// NewAdminHandler constructs a new AdminHandler and panics if any dependency is nil
func NewAdminHandler(jobs *service.JobService, industries *service.IndustryService, apps *service.ApplicationService, users *service.UserAdminService) *AdminHandler {
	if jobs == nil || industries == nil || apps == nil || users == nil {
		panic("nil service passed to NewAdminHandler")
	}
	return &AdminHandler{Jobs: jobs, Industries: industries, Apps: apps, Users: users}
}
