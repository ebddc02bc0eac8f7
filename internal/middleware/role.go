package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/access"
)

func accessDenied(c echo.Context) error {
	return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
}

// RequireStaff admits admins and staff members; candidates get 403.  It
// assumes JWTAuth ran first.
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a, ok := ActorFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if !access.IsStaffMember(a) {
				return accessDenied(c)
			}
			return next(c)
		}
	}
}

// RequirePermission rejects callers lacking p with 403.
func RequirePermission(p access.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a, ok := ActorFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if !access.HasPermission(a, p) {
				return accessDenied(c)
			}
			return next(c)
		}
	}
}
