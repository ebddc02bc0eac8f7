package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/handler"
	"github.com/iliyamo/careers-portal/internal/middleware"
)

// RegisterCandidate registers the signed-in user's own data under /v1/me.
// Any authenticated account may use it; staff can bookmark jobs too.
func RegisterCandidate(e *echo.Echo, h *handler.CandidateHandler, jwtSecret string, lim Limits) {
	g := e.Group("/v1/me", lim.General, middleware.JWTAuth(jwtSecret))
	g.GET("/saved-jobs", h.ListSaved)
	g.GET("/saved-jobs/ids", h.SavedIDs)
	g.PUT("/saved-jobs/:jobNumber", h.SaveJob)
	g.DELETE("/saved-jobs/:jobNumber", h.UnsaveJob)
	g.GET("/applications", h.MyApplications)
}
