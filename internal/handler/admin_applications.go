package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/repository"
	"github.com/iliyamo/careers-portal/internal/service"
	"github.com/iliyamo/careers-portal/internal/workflow"
)

// ListApplications: GET /v1/admin/applications?status=&job_id=&q=&archived=
func (h *AdminHandler) ListApplications(c echo.Context) error {
	page, size := paging(c)
	f := repository.ApplicationFilter{
		Status:   workflow.Status(strings.ToLower(strings.TrimSpace(c.QueryParam("status")))),
		JobID:    queryUint(c, "job_id"),
		Search:   strings.TrimSpace(c.QueryParam("q")),
		Archived: strings.ToLower(strings.TrimSpace(c.QueryParam("archived"))),
		Page:     page,
		PageSize: size,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Apps.List(ctx, actorOf(c), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// GetApplication: GET /v1/admin/applications/:id.  next_statuses lists the
// moves the caller may offer, empty for read-only staff.
func (h *AdminHandler) GetApplication(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	app, next, err := h.Apps.Get(ctx, actorOf(c), id)
	if err != nil {
		return fail(c, err)
	}
	if next == nil {
		next = []workflow.Status{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"application":   app,
		"next_statuses": next,
		"terminal":      workflow.IsTerminal(app.Status),
	})
}

// ChangeStatus: PATCH /v1/admin/applications/:id/status
func (h *AdminHandler) ChangeStatus(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req service.StatusChange
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	app, err := h.Apps.ChangeStatus(ctx, actorOf(c), id, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, app)
}

// ArchiveApplication: POST /v1/admin/applications/:id/archive
func (h *AdminHandler) ArchiveApplication(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	app, err := h.Apps.Archive(ctx, actorOf(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, app)
}

// RestoreApplication: POST /v1/admin/applications/:id/restore
func (h *AdminHandler) RestoreApplication(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	app, err := h.Apps.Restore(ctx, actorOf(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, app)
}

// DeleteApplication: DELETE /v1/admin/applications/:id (permanent)
func (h *AdminHandler) DeleteApplication(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Apps.Delete(ctx, actorOf(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// EmailApplicant: POST /v1/admin/applications/:id/email
func (h *AdminHandler) EmailApplicant(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var msg service.ApplicantEmail
	if err := c.Bind(&msg); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Apps.EmailApplicant(ctx, actorOf(c), id, msg); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "queued"})
}

// Dashboard: GET /v1/admin/dashboard
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Apps.Dashboard(ctx, actorOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}
