package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLogger writes one structured line per request.  5xx responses are
// logged at error level, 4xx at warn, the rest at info.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let echo's error handler set the final status before we log it.
				c.Error(err)
			}
			// Handlers stash errors they turned into a 500 body under "error".
			if e, ok := c.Get("error").(error); ok && err == nil {
				err = e
			}
			status := c.Response().Status
			var ev *zerolog.Event
			switch {
			case status >= 500:
				ev = log.Error().Err(err)
			case status >= 400:
				ev = log.Warn()
			default:
				ev = log.Info()
			}
			ev = ev.Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Str("route", c.Path()).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("ip", c.RealIP())
			if a, ok := ActorFrom(c); ok {
				ev = ev.Uint64("user_id", a.UserID)
			}
			ev.Msg("request")
			return nil
		}
	}
}
