package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caqueta-electoral/divipola/internal/logger"
)

type requestSpy struct {
	method, path string
	status       int
}

func (r *requestSpy) RecordHTTPRequest(method, path string, statusCode int, _ float64, _ int64) {
	r.method, r.path, r.status = method, path, statusCode
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	t.Parallel()

	spy := &requestSpy{}
	e := echo.New()
	e.Use(NewMetrics(spy))
	e.GET("/zones/:id", func(c echo.Context) error {
		return c.String(http.StatusTeapot, "x")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/zones/42", http.NoBody))

	assert.Equal(t, http.MethodGet, spy.method)
	assert.Equal(t, "/zones/:id", spy.path)
	assert.Equal(t, http.StatusTeapot, spy.status)
}

func TestMetricsRecordsHTTPErrorCode(t *testing.T) {
	t.Parallel()

	spy := &requestSpy{}
	e := echo.New()
	e.Use(NewMetrics(spy))
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "nope")
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, spy.status)
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := echo.New()
	e.Use(NewRequestLogger(logger.NewSlogLogger(&buf, logger.LogLevelInfo, time.UTC)))
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health?x=1", http.NoBody))

	out := buf.String()
	require.True(t, strings.Contains(out, "request"), out)
	assert.Contains(t, out, "/health?x=1")
	assert.Contains(t, out, "status=200")
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewBodyLimit("10B"))
	e.POST("/capture", func(c echo.Context) error {
		var body map[string]any
		if err := c.Bind(&body); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/capture", strings.NewReader(`{"valid_votes": 123456789}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSecureHeaders(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewSecureHeaders(DefaultSecurityConfig()))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	assert.Equal(t, "DENY", rec.Header().Get(echo.HeaderXFrameOptions))
}
