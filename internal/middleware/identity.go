package middleware

// identity.go holds the context keys written by JWTAuth and the helpers
// handlers use to read the caller back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/access"
)

const (
	ctxActor  = "actor"
	ctxUserID = "user_id"
)

// ActorFrom returns the authenticated caller, if any.
func ActorFrom(c echo.Context) (access.Actor, bool) {
	a, ok := c.Get(ctxActor).(access.Actor)
	return a, ok && a.UserID != 0
}

func setActor(c echo.Context, a access.Actor) {
	c.Set(ctxActor, a)
	c.Set(ctxUserID, strconv.FormatUint(a.UserID, 10))
}

// currentUserID is the caller's id as a string, or "anon" for guests.  Used
// to build rate-limit keys.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
