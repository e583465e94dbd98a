package datastore

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caqueta-electoral/divipola/internal/conf"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
)

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
}

func TestSQLiteManagerInitialize(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "divipola.db")
	m, err := NewSQLiteManager(path, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Initialize())
	// Migrating an existing schema is a no-op.
	require.NoError(t, m.Initialize())

	assert.Equal(t, path, m.Path())
	assert.False(t, m.IsMySQL())

	for _, table := range []string{"departments", "municipalities", "zones", "polling_places", "voting_tables", "table_captures"} {
		assert.True(t, m.DB().Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestNewManagerSelectsBackend(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Database.Type = conf.DatabaseSQLite
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "h.db")

	m, err := NewManager(settings, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	assert.IsType(t, &SQLiteManager{}, m)

	settings.Database.Type = "oracle"
	_, err = NewManager(settings, testLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}
