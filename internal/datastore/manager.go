// Package datastore opens the hierarchy database and creates its schema.
package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caqueta-electoral/divipola/internal/conf"
	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
)

// slowQueryThreshold promotes slower statements to WARN in the datastore log.
const slowQueryThreshold = 200 * time.Millisecond

// Manager defines the database lifecycle operations.
type Manager interface {
	// Initialize creates or updates the schema.
	Initialize() error
	// DB returns the underlying GORM database.
	DB() *gorm.DB
	// Path returns the database location (file path for SQLite, host:port/database for MySQL).
	Path() string
	// Close closes the database connection.
	Close() error
	// IsMySQL returns true if this is a MySQL manager.
	IsMySQL() bool
}

// allEntities lists the models created by Initialize.
func allEntities() []any {
	return []any{
		&entities.Department{},
		&entities.Municipality{},
		&entities.Zone{},
		&entities.PollingPlace{},
		&entities.Table{},
		&entities.Capture{},
	}
}

func gormConfig(log logger.Logger) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(log, slowQueryThreshold),
		TranslateError: true,
	}
}

// NewManager opens the backend selected in settings.
func NewManager(settings *conf.Settings, log logger.Logger) (Manager, error) {
	if log == nil {
		log = logger.Global().Module("datastore")
	}

	switch settings.Database.Type {
	case conf.DatabaseMySQL:
		return NewMySQLManager(settings, log)
	case conf.DatabaseSQLite, "":
		return NewSQLiteManager(settings.Database.SQLite.Path, log)
	default:
		return nil, errors.Newf("unsupported database type %q", settings.Database.Type).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// SQLiteManager handles the hierarchy database stored in a SQLite file.
type SQLiteManager struct {
	db     *gorm.DB
	dbPath string
}

// NewSQLiteManager opens or creates the SQLite database at dbPath.
func NewSQLiteManager(dbPath string, log logger.Logger) (*SQLiteManager, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("path", dbPath).
				Build()
		}
	}

	// Build DSN with recommended SQLite pragmas
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", dbPath)

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open sqlite database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", dbPath).
			Build()
	}

	return &SQLiteManager{db: db, dbPath: dbPath}, nil
}

// Initialize runs GORM auto-migrations for all entities.
func (m *SQLiteManager) Initialize() error {
	return migrate(m.db)
}

// DB returns the underlying GORM database.
func (m *SQLiteManager) DB() *gorm.DB {
	return m.db
}

// Path returns the database file path.
func (m *SQLiteManager) Path() string {
	return m.dbPath
}

// Close closes the database connection.
func (m *SQLiteManager) Close() error {
	return closeDB(m.db)
}

// IsMySQL returns false for SQLite manager.
func (m *SQLiteManager) IsMySQL() bool {
	return false
}

// MySQLManager handles the hierarchy database on a MySQL server.
type MySQLManager struct {
	db       *gorm.DB
	location string
}

// NewMySQLManager connects to the MySQL database described in settings.
func NewMySQLManager(settings *conf.Settings, log logger.Logger) (*MySQLManager, error) {
	return newMySQLManager(settings.MySQLDSN(), mysqlLocation(settings.Database.MySQL), log)
}

func mysqlLocation(m conf.MySQLSettings) string {
	return fmt.Sprintf("%s:%s/%s", m.Host, m.Port, m.Database)
}

func newMySQLManager(dsn, location string, log logger.Logger) (*MySQLManager, error) {
	db, err := gorm.Open(mysql.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open mysql database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("location", location).
			Build()
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &MySQLManager{db: db, location: location}, nil
}

// Initialize runs GORM auto-migrations for all entities.
func (m *MySQLManager) Initialize() error {
	return migrate(m.db)
}

// DB returns the underlying GORM database.
func (m *MySQLManager) DB() *gorm.DB {
	return m.db
}

// Path returns the database location (host:port/database).
func (m *MySQLManager) Path() string {
	return m.location
}

// Close closes the database connection.
func (m *MySQLManager) Close() error {
	return closeDB(m.db)
}

// IsMySQL returns true for MySQL manager.
func (m *MySQLManager) IsMySQL() bool {
	return true
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allEntities()...); err != nil {
		return errors.New(fmt.Errorf("failed to migrate hierarchy schema: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "auto-migrate").
			Build()
	}
	return nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}
