package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/service"
)

// ListJobs: GET /v1/admin/jobs?published=true|false
func (h *AdminHandler) ListJobs(c echo.Context) error {
	f := jobFilter(c)
	f.Published = queryBool(c, "published")
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Jobs.List(ctx, actorOf(c), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetJob: GET /v1/admin/jobs/:id
func (h *AdminHandler) GetJob(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	j, err := h.Jobs.Get(ctx, actorOf(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, j)
}

// CreateJob: POST /v1/admin/jobs.  New jobs start as drafts.
func (h *AdminHandler) CreateJob(c echo.Context) error {
	var in service.JobInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	j, err := h.Jobs.Create(ctx, actorOf(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, j)
}

// UpdateJob: PUT /v1/admin/jobs/:id
func (h *AdminHandler) UpdateJob(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var in service.JobInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	j, err := h.Jobs.Update(ctx, actorOf(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, j)
}

// PublishJob and UnpublishJob: POST /v1/admin/jobs/:id/publish|unpublish
func (h *AdminHandler) PublishJob(c echo.Context) error   { return h.setPublished(c, true) }
func (h *AdminHandler) UnpublishJob(c echo.Context) error { return h.setPublished(c, false) }

func (h *AdminHandler) setPublished(c echo.Context, publish bool) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	j, err := h.Jobs.SetPublished(ctx, actorOf(c), id, publish)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, j)
}

// DeleteJob: DELETE /v1/admin/jobs/:id
func (h *AdminHandler) DeleteJob(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Jobs.Delete(ctx, actorOf(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
