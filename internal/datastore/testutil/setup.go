package testutil

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/caqueta-electoral/divipola/internal/datastore"
	"github.com/caqueta-electoral/divipola/internal/datastore/repository"
	"github.com/caqueta-electoral/divipola/internal/logger"
)

// TestContext contains the dependencies needed by service tests.
type TestContext struct {
	TempDir string
	Manager *datastore.SQLiteManager
	Store   repository.Store
	Logger  logger.Logger
}

// Setup creates a migrated SQLite database in a temporary directory.
// The connection is closed through t.Cleanup.
func Setup(t *testing.T) *TestContext {
	t.Helper()

	tmpDir := t.TempDir()
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)

	manager, err := datastore.NewSQLiteManager(filepath.Join(tmpDir, "divipola_test.db"), log)
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, manager.Initialize(), "failed to migrate test database")

	t.Cleanup(func() {
		_ = manager.Close()
	})

	return &TestContext{
		TempDir: tmpDir,
		Manager: manager,
		Store:   repository.NewStore(manager.DB()),
		Logger:  log,
	}
}
