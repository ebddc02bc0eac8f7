package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/careers-portal/internal/handler"    // handlers that implement the endpoints
	"github.com/iliyamo/careers-portal/internal/middleware" // JWT, permission, cache and rate-limit middleware
)

// Limits carries the two rate limiters.  General guards every /v1 route;
// Strict is stacked on login, signup, invitation acceptance and public
// applications.
type Limits struct {
	General echo.MiddlewareFunc
	Strict  echo.MiddlewareFunc
}

// RegisterRoutes registers the liveness and readiness checks.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers authentication routes.  Token-issuing operations
// live under /v1/auth; the caller's own profile lives at /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, lim Limits) {
	g := e.Group("/v1/auth", lim.General)
	g.POST("/register", a.Register, lim.Strict)
	g.POST("/login", a.Login, lim.Strict)
	g.POST("/accept-invite", a.AcceptInvite, lim.Strict)
	// /refresh rotates the refresh token, /refresh-access does not.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh token in the body or a bearer token.
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))

	e.GET("/v1/me", a.Me, lim.General, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers the careers site.  Listing reads go through the
// response cache; applying accepts guests and signed-in users alike.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache *middleware.ResponseCache, jwtSecret string, lim Limits) {
	g := e.Group("/v1", lim.General)
	cached := cache.Middleware()
	g.GET("/jobs", p.ListJobs, cached)
	g.GET("/jobs/:jobNumber", p.GetJob, cached)
	g.GET("/industries", p.ListIndustries, cached)
	g.POST("/jobs/:jobNumber/apply", p.Apply, lim.Strict, middleware.OptionalJWT(jwtSecret))
}
