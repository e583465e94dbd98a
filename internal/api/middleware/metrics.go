package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

// HTTPRecorder receives one observation per request.
type HTTPRecorder interface {
	RecordHTTPRequest(method, path string, statusCode int, seconds float64, size int64)
}

// NewMetrics records request counts and latencies labeled by route pattern,
// so path parameters never become label values. A nil recorder disables it.
func NewMetrics(recorder HTTPRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if recorder == nil {
			return next
		}
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			recorder.RecordHTTPRequest(c.Request().Method, path, status,
				time.Since(start).Seconds(), c.Response().Size)
			return err
		}
	}
}
