package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/middleware"
	"github.com/iliyamo/careers-portal/internal/repository"
	"github.com/iliyamo/careers-portal/internal/service"
)

// PublicHandler serves the careers site: the job board, the application
// form and the industry filter.  None of it requires a login.
type PublicHandler struct {
	Jobs       *service.JobService
	Apps       *service.ApplicationService
	Industries *service.IndustryService
}

func NewPublicHandler(jobs *service.JobService, apps *service.ApplicationService, industries *service.IndustryService) *PublicHandler {
	return &PublicHandler{Jobs: jobs, Apps: apps, Industries: industries}
}

// jobFilter reads the search parameters shared by the public and admin job
// lists.
func jobFilter(c echo.Context) repository.JobFilter {
	page, size := paging(c)
	return repository.JobFilter{
		Search:     strings.TrimSpace(c.QueryParam("q")),
		Location:   strings.TrimSpace(c.QueryParam("location")),
		IndustryID: queryUint(c, "industry_id"),
		WorkType:   strings.ToLower(strings.TrimSpace(c.QueryParam("work_type"))),
		JobType:    strings.ToLower(strings.TrimSpace(c.QueryParam("job_type"))),
		ShiftType:  strings.ToLower(strings.TrimSpace(c.QueryParam("shift_type"))),
		Page:       page,
		PageSize:   size,
	}
}

// ListJobs: GET /v1/jobs
func (h *PublicHandler) ListJobs(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Jobs.PublicList(ctx, jobFilter(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetJob: GET /v1/jobs/:jobNumber
func (h *PublicHandler) GetJob(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	j, err := h.Jobs.PublicGet(ctx, c.Param("jobNumber"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, j)
}

// Apply: POST /v1/jobs/:jobNumber/apply.  Guests and signed-in users both
// apply here; a signed-in user's application is linked to the account.
func (h *PublicHandler) Apply(c echo.Context) error {
	var in service.ApplicationInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	var userID *uint64
	if a, ok := middleware.ActorFrom(c); ok {
		id := a.UserID
		userID = &id
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	app, err := h.Apps.Submit(ctx, c.Param("jobNumber"), userID, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, app)
}

// ListIndustries: GET /v1/industries.  Only active industries are listed.
func (h *PublicHandler) ListIndustries(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Industries.List(ctx, nil)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
