// Package telemetry sends unexpected service errors to Sentry when the
// operator opts in. Expected outcomes such as validation failures, unknown
// ids and duplicate captures are never reported.
package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/caqueta-electoral/divipola/internal/conf"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
)

// DefaultFlushTimeout bounds how long Close waits for queued events.
const DefaultFlushTimeout = 2 * time.Second

// Reporter implements errors.TelemetryReporter on a dedicated Sentry hub.
type Reporter struct {
	hub *sentry.Hub
	log logger.Logger
}

// Init creates the reporter and installs it in the errors package. It returns
// nil when reporting is disabled.
func Init(settings conf.SentrySettings, release string, log logger.Logger) (*Reporter, error) {
	if log == nil {
		log = logger.Global().Module("telemetry")
	}
	if !settings.Enabled {
		log.Debug("sentry error reporting is disabled")
		return nil, nil
	}

	r, err := newReporter(clientOptions(settings, release), log)
	if err != nil {
		return nil, err
	}
	errors.SetTelemetryReporter(r)

	log.Info("sentry error reporting enabled",
		logger.String("environment", settings.Environment),
		logger.Float64("sample_rate", settings.SampleRate))
	return r, nil
}

func clientOptions(settings conf.SentrySettings, release string) sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              settings.DSN,
		Environment:      settings.Environment,
		SampleRate:       settings.SampleRate,
		Debug:            settings.Debug,
		Release:          "divipola@" + release,
		AttachStacktrace: false,
		ServerName:       "",
		BeforeSend:       scrubEvent,
	}
}

func newReporter(opts sentry.ClientOptions, log logger.Logger) (*Reporter, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, errors.New(fmt.Errorf("sentry initialization failed: %w", err)).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope()), log: log}, nil
}

// IsEnabled implements errors.TelemetryReporter
func (r *Reporter) IsEnabled() bool {
	return r != nil && r.hub.Client() != nil
}

// ReportError implements errors.TelemetryReporter
func (r *Reporter) ReportError(ee *errors.EnhancedError) {
	title := errorTitle(ee)
	level := levelFor(ee.Category)

	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", string(ee.Category))
		scope.SetTag("error_type", fmt.Sprintf("%T", ee.Err))
		scope.SetLevel(level)
		scope.SetFingerprint([]string{title, ee.GetComponent(), string(ee.Category)})

		if ctx := ee.GetContext(); len(ctx) > 0 {
			scope.SetContext("error", sentry.Context(ctx))
		}

		event := sentry.NewEvent()
		event.Level = level
		event.Message = fmt.Sprintf("[%s] %s", ee.Category, ee.Error())
		event.Exception = []sentry.Exception{{Type: title, Value: ee.Error()}}
		r.hub.CaptureEvent(event)
	})

	r.log.Debug("error reported to sentry",
		logger.String("title", title),
		logger.String("category", string(ee.Category)))
}

// Close uninstalls the reporter and flushes queued events.
func (r *Reporter) Close(timeout time.Duration) bool {
	if r == nil {
		return true
	}
	errors.SetTelemetryReporter(nil)
	return r.hub.Flush(timeout)
}

// errorTitle groups events by component, category and operation, e.g.
// "Allocation Database Write Tables".
func errorTitle(ee *errors.EnhancedError) string {
	title := cases.Title(language.Und)
	words := func(s string) string {
		return title.String(strings.NewReplacer("-", " ", "_", " ").Replace(s))
	}

	parts := []string{words(ee.GetComponent()), words(string(ee.Category))}
	if op, ok := ee.GetContext()["operation"].(string); ok && op != "" {
		parts = append(parts, words(op))
	}
	return strings.Join(parts, " ")
}

func levelFor(category errors.ErrorCategory) sentry.Level {
	if category == errors.CategoryConsistency {
		return sentry.LevelWarning
	}
	return sentry.LevelError
}

// scrubEvent drops host and user details before an event leaves the process.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	for _, key := range []string{"device", "os", "runtime"} {
		delete(event.Contexts, key)
	}
	delete(event.Tags, "server_name")
	delete(event.Tags, "hostname")
	return event
}
