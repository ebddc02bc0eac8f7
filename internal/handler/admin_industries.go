package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/service"
)

// ListIndustries: GET /v1/admin/industries.  Viewers with INDUSTRIES_VIEW
// also see inactive industries.
func (h *AdminHandler) ListIndustries(c echo.Context) error {
	a := actorOf(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Industries.List(ctx, &a)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetIndustry: GET /v1/admin/industries/:id
func (h *AdminHandler) GetIndustry(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	in, err := h.Industries.Get(ctx, actorOf(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, in)
}

// CreateIndustry: POST /v1/admin/industries
func (h *AdminHandler) CreateIndustry(c echo.Context) error {
	var in service.IndustryInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Industries.Create(ctx, actorOf(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// UpdateIndustry: PUT /v1/admin/industries/:id
func (h *AdminHandler) UpdateIndustry(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var in service.IndustryInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Industries.Update(ctx, actorOf(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteIndustry: DELETE /v1/admin/industries/:id.  Jobs in the industry
// keep existing with no industry; the response says how many.
func (h *AdminHandler) DeleteIndustry(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Industries.Delete(ctx, actorOf(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
