package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/caqueta-electoral/divipola/internal/api/middleware"
	v2 "github.com/caqueta-electoral/divipola/internal/api/v2"
	"github.com/caqueta-electoral/divipola/internal/capture"
	"github.com/caqueta-electoral/divipola/internal/conf"
	"github.com/caqueta-electoral/divipola/internal/datastore/repository"
	"github.com/caqueta-electoral/divipola/internal/logger"
	"github.com/caqueta-electoral/divipola/internal/observability"
)

// Server is the HTTP server of the query API.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger

	// Dependencies
	store     repository.Store
	metrics   *observability.Metrics
	publisher capture.Publisher

	apiController *v2.Controller

	// Lifecycle management
	wg        sync.WaitGroup
	startTime time.Time
	errCh     chan error
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(log logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

// WithStore sets the hierarchy store.
func WithStore(store repository.Store) ServerOption {
	return func(s *Server) {
		s.store = store
	}
}

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithCapturePublisher announces stored captures, e.g. over MQTT.
func WithCapturePublisher(p capture.Publisher) ServerOption {
	return func(s *Server) {
		s.publisher = p
	}
}

// New creates a new HTTP server with the given settings and options.
func New(settings *conf.Settings, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		settings:  settings,
		startTime: time.Now(),
		errCh:     make(chan error, 1),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = GetLogger()
	}
	if s.store == nil {
		return nil, fmt.Errorf("server requires a hierarchy store")
	}
	if config.MetricsEnabled && s.metrics == nil {
		return nil, fmt.Errorf("metrics endpoint enabled without a metrics registry")
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}

	s.log.Info("HTTP server initialized",
		logger.String("address", config.Address()),
		logger.Bool("metrics", config.MetricsEnabled),
		logger.Bool("debug", config.Debug))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewRequestLogger(s.log.Module("http")))

	if s.metrics != nil {
		s.echo.Use(mw.NewMetrics(s.metrics.HTTP))
	}

	securityConfig := mw.DefaultSecurityConfig()
	securityConfig.AllowedOrigins = s.config.AllowedOrigins

	s.echo.Use(mw.NewCORS(securityConfig))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(echomw.Gzip())
	s.echo.Use(mw.NewSecureHeaders(securityConfig))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() error {
	s.echo.GET("/health", s.healthCheck)

	if s.config.MetricsEnabled {
		s.echo.GET(s.config.MetricsPath, echo.WrapHandler(s.metrics.Handler()))
	}

	opts := []v2.Option{v2.WithLogger(s.log.Module("v2"))}
	if s.metrics != nil {
		opts = append(opts, v2.WithMetrics(s.metrics))
	}
	if s.publisher != nil {
		opts = append(opts, v2.WithCapturePublisher(s.publisher))
	}
	apiController, err := v2.New(s.echo, s.store, s.settings, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize API v2: %w", err)
	}
	s.apiController = apiController

	s.log.Info("Routes initialized", logger.String("api_version", "v2"))
	return nil
}

// healthCheck handles the server health check endpoint.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)

	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// Start begins serving HTTP requests in a background goroutine. Errors other
// than a clean close are delivered on Errors.
func (s *Server) Start() {
	s.wg.Go(func() {
		if err := s.startBlocking(); err != nil {
			s.log.Error("Server error", logger.Error(err))
			s.errCh <- err
		}
	})

	s.log.Info("HTTP server starting", logger.String("address", s.config.Address()))
}

// Errors reports a failure of the listener.
func (s *Server) Errors() <-chan error {
	return s.errCh
}

func (s *Server) startBlocking() error {
	err := s.echo.Start(s.config.Address())
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Run starts the server and blocks until ctx is done or the listener fails,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.Start()

	select {
	case <-ctx.Done():
		s.log.Info("Shutdown signal received, initiating graceful shutdown")
	case err := <-s.errCh:
		_ = s.Shutdown()
		return err
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if s.apiController != nil {
		s.apiController.Shutdown()
	}

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("Error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.wg.Wait()

	s.log.Info("Server shutdown complete")
	return nil
}

// APIController returns the v2 API controller.
func (s *Server) APIController() *v2.Controller {
	return s.apiController
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
