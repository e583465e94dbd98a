package logger

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSlogLoggerLevels(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo, time.UTC)

	log.Debug("hidden")
	log.Info("visible", String("zone", "00"), Int("tables", 3))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "zone=00")
	assert.Contains(t, out, "tables=3")
}

func TestModuleScoping(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelDebug, time.UTC).Module("reconcile").Module("row")

	log.Debug("row applied")

	assert.Contains(t, buf.String(), "module=reconcile.row")
}

func TestWithAccumulatesFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	base := NewSlogLogger(buf, LogLevelInfo, time.UTC)
	withRun := base.With(String("run_id", "abc"))

	withRun.Info("first")
	base.Info("second")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "run_id=abc")
	assert.NotContains(t, string(lines[1]), "run_id")
}

func TestWithContextTraceID(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo, time.UTC)

	ctx := WithTraceID(context.Background(), "req-42")
	log.WithContext(ctx).Info("handled")

	assert.Contains(t, buf.String(), "trace_id=req-42")
}

func TestTraceLevelName(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelTrace, time.UTC)
	log.Trace("sql")

	assert.Contains(t, buf.String(), "level=TRACE")
}

func TestCentralLoggerModuleLevels(t *testing.T) {
	t.Parallel()

	cfg := &LoggingConfig{
		DefaultLevel: "warn",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: false},
		FileOutput: &FileOutput{
			Enabled: true,
			Path:    filepath.Join(t.TempDir(), "logs", "test.log"),
			Level:   "trace",
		},
		ModuleLevels: map[string]string{"datastore": "debug"},
	}

	cl, err := NewCentralLogger(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cl.Close() })

	ml, ok := cl.Module("datastore").(*moduleLogger)
	require.True(t, ok)
	assert.Equal(t, parseLogLevel("debug"), ml.level)

	other, ok := cl.Module("api").(*moduleLogger)
	require.True(t, ok)
	assert.Equal(t, parseLogLevel("warn"), other.level)

	require.NoError(t, cl.Flush())
}

func TestCentralLoggerInvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := NewCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)
}

func TestGormAdapterLevels(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	adapter := NewGormLoggerAdapter(NewSlogLogger(buf, LogLevelDebug, time.UTC), 50*time.Millisecond)

	fc := func() (string, int64) { return "SELECT 1", 1 }

	adapter.Trace(context.Background(), time.Now(), fc, nil)
	assert.Empty(t, buf.String(), "trace-level SQL must be hidden at debug level")

	adapter.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	adapter.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "slow query")
}
