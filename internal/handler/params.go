package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/access"
	"github.com/iliyamo/careers-portal/internal/middleware"
)

// requestTimeout bounds the database work of one request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// idParam parses a positive numeric path parameter.
func idParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// paging reads ?page= and ?page_size=.  Bad values fall back to defaults,
// which the repository clamps.
func paging(c echo.Context) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	size, _ = strconv.Atoi(c.QueryParam("page_size"))
	return page, size
}

func queryUint(c echo.Context, name string) uint64 {
	n, _ := strconv.ParseUint(c.QueryParam(name), 10, 64)
	return n
}

// queryBool returns nil when the parameter is absent or not a boolean.
func queryBool(c echo.Context, name string) *bool {
	v, err := strconv.ParseBool(strings.TrimSpace(c.QueryParam(name)))
	if err != nil {
		return nil
	}
	return &v
}

// actorOf returns the caller set by JWTAuth.  Routes that use it are always
// mounted behind that middleware.
func actorOf(c echo.Context) access.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}
