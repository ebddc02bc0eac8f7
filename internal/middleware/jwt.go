package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/careers-portal/internal/utils"
)

// bearer extracts the raw token from the Authorization header.  The second
// return value reports whether a header was sent at all.
func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get("Authorization")
	if auth == "" {
		return "", false
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", true
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")), true
}

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the caller as an access.Actor in the request context.  Handlers read
// it back with ActorFrom.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, sent := bearer(c)
			if !sent || raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			// Signature, algorithm (HS256 only) and expiry are checked here.
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			actor, err := claims.Actor()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			setActor(c, actor)
			return next(c)
		}
	}
}

// OptionalJWT authenticates the caller when a token is sent and lets guests
// through otherwise.  A token that is sent but invalid is still rejected so
// an expired session is never silently treated as a guest.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	strict := JWTAuth(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withAuth := strict(next)
		return func(c echo.Context) error {
			if _, sent := bearer(c); !sent {
				return next(c)
			}
			return withAuth(c)
		}
	}
}
