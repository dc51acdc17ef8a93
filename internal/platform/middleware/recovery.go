package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/admin/internal/platform/auth"
	"github.com/ehr/admin/internal/platform/telemetry"
)

// Recovery turns a handler panic into a 500 so one bad request cannot take
// the process down. The stack is logged, never returned to the client.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				var stack [4096]byte
				n := runtime.Stack(stack[:], false)
				rid, _ := c.Get("request_id").(string)

				evt := logger.Error().
					Str("request_id", rid).
					Str("method", c.Request().Method).
					Str("route", c.Path()).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(stack[:n]))
				if p, ok := auth.PrincipalFromContext(c.Request().Context()); ok {
					evt = evt.Str("user_id", p.UserID.String())
				}
				evt.Msg("panic recovered")

				telemetry.PanicsRecoveredTotal.WithLabelValues(c.Path()).Inc()
				err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}()
			return next(c)
		}
	}
}
