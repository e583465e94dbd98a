package errors

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyReporter struct {
	mu       sync.Mutex
	enabled  bool
	reported []*EnhancedError
}

func (s *spyReporter) ReportError(ee *EnhancedError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reported = append(s.reported, ee)
}

func (s *spyReporter) IsEnabled() bool { return s.enabled }

func installSpy(t *testing.T, enabled bool) *spyReporter {
	t.Helper()
	spy := &spyReporter{enabled: enabled}
	SetTelemetryReporter(spy)
	t.Cleanup(func() { SetTelemetryReporter(nil) })
	return spy
}

func TestTelemetryReportsUnexpectedErrors(t *testing.T) {
	spy := installSpy(t, true)

	db := Newf("disk I/O error").Component("datastore").Category(CategoryDatabase).Build()
	_ = Newf("unknown table").Category(CategoryNotFound).Build()
	_ = Newf("negative votes").Category(CategoryValidation).Build()

	require.Len(t, spy.reported, 1)
	assert.Same(t, db, spy.reported[0])
}

func TestTelemetryReportsOnce(t *testing.T) {
	spy := installSpy(t, true)

	inner := Newf("constraint failed").Category(CategoryDatabase).Build()
	_ = New(inner).Component("allocation").Context("polling_place_id", 7).Build()

	require.Len(t, spy.reported, 1)
	assert.Same(t, inner, spy.reported[0])
}

func TestTelemetryDisabledReporter(t *testing.T) {
	spy := installSpy(t, false)

	_ = Newf("disk I/O error").Category(CategoryDatabase).Build()
	assert.Empty(t, spy.reported)
}

func TestIsReportable(t *testing.T) {
	t.Parallel()

	assert.True(t, IsReportable(CategoryDatabase))
	assert.True(t, IsReportable(CategoryConsistency))
	assert.False(t, IsReportable(CategoryConflict))
	assert.False(t, IsReportable(CategoryCancellation))
}
