package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/model"
	"github.com/iliyamo/careers-portal/internal/service"
)

// SavedJobStore holds candidate bookmarks.
type SavedJobStore interface {
	Save(ctx context.Context, userID, jobID uint64) error
	RemoveByNumber(ctx context.Context, userID uint64, jobNumber string) error
	ListForUser(ctx context.Context, userID uint64) ([]*model.SavedJob, error)
	JobIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

// CandidateHandler serves the signed-in candidate's own data.
type CandidateHandler struct {
	Saved SavedJobStore
	Jobs  *service.JobService
	Apps  *service.ApplicationService
}

func NewCandidateHandler(saved SavedJobStore, jobs *service.JobService, apps *service.ApplicationService) *CandidateHandler {
	return &CandidateHandler{Saved: saved, Jobs: jobs, Apps: apps}
}

// ListSaved: GET /v1/me/saved-jobs
func (h *CandidateHandler) ListSaved(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Saved.ListForUser(ctx, actorOf(c).UserID)
	if err != nil {
		return fail(c, err)
	}
	if items == nil {
		items = []*model.SavedJob{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SavedIDs: GET /v1/me/saved-jobs/ids.  Lets the listing page mark
// bookmarked jobs without loading them.
func (h *CandidateHandler) SavedIDs(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	ids, err := h.Saved.JobIDs(ctx, actorOf(c).UserID)
	if err != nil {
		return fail(c, err)
	}
	if ids == nil {
		ids = []uint64{}
	}
	return c.JSON(http.StatusOK, echo.Map{"job_ids": ids})
}

// SaveJob: PUT /v1/me/saved-jobs/:jobNumber.  Only published jobs can be
// saved; saving twice is a no-op.
func (h *CandidateHandler) SaveJob(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	j, err := h.Jobs.PublicGet(ctx, c.Param("jobNumber"))
	if err != nil {
		return fail(c, err)
	}
	if err := h.Saved.Save(ctx, actorOf(c).UserID, j.ID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UnsaveJob: DELETE /v1/me/saved-jobs/:jobNumber
func (h *CandidateHandler) UnsaveJob(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Saved.RemoveByNumber(ctx, actorOf(c).UserID, c.Param("jobNumber")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MyApplications: GET /v1/me/applications
func (h *CandidateHandler) MyApplications(c echo.Context) error {
	page, size := paging(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Apps.ListMine(ctx, actorOf(c).UserID, page, size)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
