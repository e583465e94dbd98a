package errors

import (
	stderrors "errors"
	"sync/atomic"
)

// TelemetryReporter receives unexpected errors as they are built.
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

type reporterHolder struct {
	reporter TelemetryReporter
}

var telemetryReporter atomic.Pointer[reporterHolder]

// SetTelemetryReporter installs the reporter; nil disables reporting.
func SetTelemetryReporter(r TelemetryReporter) {
	if r == nil {
		telemetryReporter.Store(nil)
		return
	}
	telemetryReporter.Store(&reporterHolder{reporter: r})
}

// expectedCategories are outcomes the services return on purpose. They are
// answered to the caller and never reported.
var expectedCategories = map[ErrorCategory]bool{
	CategoryValidation:   true,
	CategoryNotFound:     true,
	CategoryConflict:     true,
	CategoryCancellation: true,
	CategoryTimeout:      true,
}

// IsReportable reports whether an error of this category goes to telemetry.
func IsReportable(category ErrorCategory) bool {
	return !expectedCategories[category]
}

func reportToTelemetry(ee *EnhancedError) {
	h := telemetryReporter.Load()
	if h == nil || !h.reporter.IsEnabled() || !IsReportable(ee.Category) {
		return
	}

	// Wrapping an enhanced error again must not report it twice.
	var inner *EnhancedError
	if stderrors.As(ee.Err, &inner) {
		return
	}

	h.reporter.ReportError(ee)
}
