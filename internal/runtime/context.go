// Package runtime holds what the CLI commands share once settings are loaded:
// build metadata, settings, the central logger, the metrics registry and the
// lazily opened hierarchy store.
package runtime

import (
	"strings"
	"sync"

	"github.com/caqueta-electoral/divipola/internal/conf"
	"github.com/caqueta-electoral/divipola/internal/datastore"
	"github.com/caqueta-electoral/divipola/internal/datastore/repository"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
	"github.com/caqueta-electoral/divipola/internal/observability"
	"github.com/caqueta-electoral/divipola/internal/telemetry"
)

// Overrides are the command-line values that take precedence over the
// configuration file.
type Overrides struct {
	Debug        bool
	DatabasePath string // sqlite file; forces the sqlite backend
}

// Context contains runtime state that is not user-configurable.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string

	Settings *conf.Settings
	Logger   *logger.CentralLogger
	Metrics  *observability.Metrics

	mu        sync.Mutex
	telemetry *telemetry.Reporter
	manager   datastore.Manager
	store     repository.Store
}

// New creates a Context carrying build metadata.
func New(version, buildDate string) *Context {
	return &Context{Version: version, BuildDate: buildDate}
}

// Load reads settings, applies overrides, installs the central logger as the
// global one and creates the metrics registry.
func (c *Context) Load(configFile string, o Overrides) error {
	settings, err := conf.Load(configFile)
	if err != nil {
		return err
	}
	return c.Init(settings, o)
}

// Init is Load with settings already in hand.
func (c *Context) Init(settings *conf.Settings, o Overrides) error {
	if o.Debug {
		settings.Debug = true
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}
	if p := strings.TrimSpace(o.DatabasePath); p != "" {
		settings.Database.Type = conf.DatabaseSQLite
		settings.Database.SQLite.Path = p
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return errors.New(err).
			Component("runtime").
			Category(errors.CategoryConfiguration).
			Context("operation", "create-logger").
			Build()
	}
	logger.SetGlobal(central)

	reporter, err := telemetry.Init(settings.Sentry, c.Version, central.Module("telemetry"))
	if err != nil {
		return err
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return errors.New(err).
			Component("runtime").
			Category(errors.CategoryConfiguration).
			Context("operation", "create-metrics").
			Build()
	}

	c.Settings = settings
	c.Logger = central
	c.Metrics = m
	c.telemetry = reporter
	return nil
}

// Module returns a logger for a component.
func (c *Context) Module(name string) logger.Logger {
	if c.Logger == nil {
		return logger.Global().Module(name)
	}
	return c.Logger.Module(name)
}

// Store opens and migrates the configured database on first use.
func (c *Context) Store() (repository.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil {
		return c.store, nil
	}
	if c.Settings == nil {
		return nil, errors.Newf("settings not loaded").
			Component("runtime").
			Category(errors.CategoryConfiguration).
			Build()
	}

	manager, err := datastore.NewManager(c.Settings, c.Module("datastore"))
	if err != nil {
		return nil, err
	}
	if err := manager.Initialize(); err != nil {
		_ = manager.Close()
		return nil, err
	}

	c.manager = manager
	c.store = repository.NewStore(manager.DB())
	return c.store, nil
}

// Close releases the database and flushes the logger.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.manager != nil {
		errs = append(errs, c.manager.Close())
		c.manager, c.store = nil, nil
	}
	if c.telemetry != nil {
		c.telemetry.Close(telemetry.DefaultFlushTimeout)
		c.telemetry = nil
	}
	if c.Logger != nil {
		errs = append(errs, c.Logger.Flush())
	}
	return errors.Join(errs...)
}
