package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/access"
	"github.com/iliyamo/careers-portal/internal/repository"
	"github.com/iliyamo/careers-portal/internal/service"
)

type permissionLevelReq struct {
	PermissionLevel string `json:"permission_level"`
}

type activeReq struct {
	IsActive *bool `json:"is_active"`
}

// ListUsers: GET /v1/admin/users?q=&role=
func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, size := paging(c)
	f := repository.UserFilter{
		Search:   strings.TrimSpace(c.QueryParam("q")),
		Page:     page,
		PageSize: size,
	}
	if raw := c.QueryParam("role"); raw != "" {
		r, ok := access.ParseRole(raw)
		if !ok {
			return badRequest(c, "unknown role")
		}
		f.Role = r
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Users.List(ctx, actorOf(c), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// GetUser: GET /v1/admin/users/:id
func (h *AdminHandler) GetUser(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Users.Get(ctx, actorOf(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// InviteUser: POST /v1/admin/users/invite
func (h *AdminHandler) InviteUser(c echo.Context) error {
	var req service.InviteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Users.Invite(ctx, actorOf(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// ResendInvitation: POST /v1/admin/users/:id/resend-invite
func (h *AdminHandler) ResendInvitation(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.ResendInvitation(ctx, actorOf(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "queued"})
}

// ChangeRole: PATCH /v1/admin/users/:id/role
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req service.RoleChange
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Users.ChangeRole(ctx, actorOf(c), id, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// ChangePermissionLevel: PATCH /v1/admin/users/:id/permission-level
func (h *AdminHandler) ChangePermissionLevel(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req permissionLevelReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Users.ChangePermissionLevel(ctx, actorOf(c), id, req.PermissionLevel)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// SetUserActive: PATCH /v1/admin/users/:id/active
func (h *AdminHandler) SetUserActive(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req activeReq
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return badRequest(c, "is_active required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Users.SetActive(ctx, actorOf(c), id, *req.IsActive)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// DeleteUser: DELETE /v1/admin/users/:id
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.Delete(ctx, actorOf(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
