package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/telemetry"
)

// Metrics records http_requests_total and http_request_duration_seconds,
// labelled by route template. Unmatched requests use "<no-route>".
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "<no-route>"
			}
			status := c.Response().Status
			if err != nil {
				status = statusOf(err, status)
			}
			method := c.Request().Method

			telemetry.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// statusOf predicts the status the error handler will write for err, since
// the response is not committed yet when middleware sees the error.
func statusOf(err error, fallback int) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	if k := apperr.KindOf(err); k != "" {
		return apperr.Status(k)
	}
	return fallback
}
