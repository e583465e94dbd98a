// Package api implements the v2 JSON endpoints of the hierarchy query API:
// read access to municipalities, zones, polling places and tables, vote-tally
// capture submission and the coherence report.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/caqueta-electoral/divipola/internal/capture"
	"github.com/caqueta-electoral/divipola/internal/coherence"
	"github.com/caqueta-electoral/divipola/internal/conf"
	"github.com/caqueta-electoral/divipola/internal/datastore/repository"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
	"github.com/caqueta-electoral/divipola/internal/observability"
	"github.com/caqueta-electoral/divipola/internal/observability/metrics"
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Store    repository.Store
	Settings *conf.Settings

	captures   *capture.Service
	publisher  capture.Publisher
	validator  *coherence.Validator
	queryCache *cache.Cache
	log        logger.Logger
	metrics    *observability.Metrics
	startTime  time.Time
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// WithMetrics records capture, validation and cache metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithCapturePublisher announces every stored capture through p.
func WithCapturePublisher(p capture.Publisher) Option {
	return func(c *Controller) {
		c.publisher = p
	}
}

// New creates the API controller and registers its routes under /api/v2.
func New(e *echo.Echo, store repository.Store, settings *conf.Settings, opts ...Option) (*Controller, error) {
	if store == nil {
		return nil, errors.Newf("api controller requires a store").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings == nil {
		settings = &conf.Settings{}
	}

	c := &Controller{
		Echo:       e,
		Store:      store,
		Settings:   settings,
		queryCache: cache.New(QueryCacheExpiration, QueryCacheCleanupInterval),
		startTime:  time.Now(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = logger.Global().Module("api")
	}

	var recorder metrics.Recorder = metrics.NopRecorder{}
	if c.metrics != nil {
		recorder = c.metrics.Hierarchy
	}
	var captureOpts []capture.Option
	if c.publisher != nil {
		captureOpts = append(captureOpts, capture.WithPublisher(c.publisher))
	}
	c.captures = capture.NewService(store, c.log.Module("capture"), recorder, captureOpts...)
	c.validator = coherence.NewValidator(store, settings.Allocation.MaxVotersPerTable,
		c.log.Module("coherence"), recorder)

	c.Group = e.Group("/api/v2")
	c.Group.Use(middleware.BodyLimit(maxRequestBodySize))

	c.initRoutes()
	return c, nil
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.initHierarchyRoutes()
	c.initCaptureRoutes()
	c.initCoherenceRoutes()
	c.initSystemRoutes()
}

// HealthCheck reports whether the store answers.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	response := map[string]any{
		"status":          "healthy",
		"database_status": "connected",
		"timestamp":       time.Now().Format(time.RFC3339),
	}

	uptime := time.Since(c.startTime)
	response["uptime"] = uptime.String()
	response["uptime_seconds"] = uptime.Seconds()

	if _, err := c.Store.Captures().Count(ctx.Request().Context()); err != nil {
		response["status"] = "degraded"
		response["database_status"] = "disconnected"
		response["database_error"] = err.Error()
		return ctx.JSON(http.StatusServiceUnavailable, response)
	}

	return ctx.JSON(http.StatusOK, response)
}

// Shutdown drops cached query results.
func (c *Controller) Shutdown() {
	// TODO: The go-cache library's janitor goroutine cannot be stopped.
	// Consider migrating to a context-aware cache implementation.
	if c.queryCache != nil {
		c.queryCache.Flush()
	}
	c.log.Debug("API controller shutting down")
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString(),
	}
}

// HandleError logs err under a fresh correlation ID and writes the JSON error body.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", errorResp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}

	log := c.log.WithContext(ctx.Request().Context())
	if code >= http.StatusInternalServerError {
		log.Error("API error", fields...)
	} else {
		log.Debug("API request rejected", fields...)
	}

	return ctx.JSON(code, errorResp)
}

// notFoundSentinels are the repository errors answered with 404.
var notFoundSentinels = []error{
	repository.ErrDepartmentNotFound,
	repository.ErrMunicipalityNotFound,
	repository.ErrZoneNotFound,
	repository.ErrPollingPlaceNotFound,
	repository.ErrTableNotFound,
	repository.ErrCaptureNotFound,
}

// statusFor maps an error onto an HTTP status by category.
func statusFor(err error) int {
	for _, sentinel := range notFoundSentinels {
		if errors.Is(err, sentinel) {
			return http.StatusNotFound
		}
	}
	switch errors.CategoryOf(err) {
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err with the status its category implies.
func (c *Controller) fail(ctx echo.Context, err error, message string) error {
	return c.HandleError(ctx, err, message, statusFor(err))
}

// parseID reads a positive numeric path or query value.
func parseID(raw, name string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, errors.Newf("invalid %s %q", name, raw).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return uint(id), nil
}

func (c *Controller) pathID(ctx echo.Context) (uint, error) {
	return parseID(ctx.Param(paramID), paramID)
}

// cached serves a read result from the query cache, loading it on a miss.
// Errors are never cached.
func (c *Controller) cached(ctx echo.Context, load func() (any, error), message string) error {
	key := ctx.Request().Method + cacheKeySeparator + ctx.Request().URL.RequestURI()

	if v, ok := c.queryCache.Get(key); ok {
		c.recordCacheLookup(true)
		return ctx.JSON(http.StatusOK, v)
	}
	c.recordCacheLookup(false)

	v, err := load()
	if err != nil {
		return c.fail(ctx, err, message)
	}
	c.queryCache.Set(key, v, cache.DefaultExpiration)
	return ctx.JSON(http.StatusOK, v)
}

func (c *Controller) recordCacheLookup(hit bool) {
	if c.metrics != nil {
		c.metrics.HTTP.RecordCacheLookup(hit)
	}
}
