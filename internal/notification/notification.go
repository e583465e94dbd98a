// Package notification alerts operators through shoutrrr service URLs
// (Telegram, Slack, e-mail and the rest shoutrrr supports).
package notification

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"net/url"
	"slices"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/caqueta-electoral/divipola/internal/conf"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
)

// DefaultTimeout applies when the settings leave the timeout at zero.
const DefaultTimeout = 10 * time.Second

// Notification is one alert.
type Notification struct {
	Title   string
	Message string
}

// Sender delivers notifications to every configured URL.
type Sender struct {
	urls   []string
	sender *router.ServiceRouter
	log    logger.Logger
}

// New builds a Sender from the settings. It returns nil when notifications
// are disabled.
func New(settings conf.NotificationSettings, log logger.Logger) (*Sender, error) {
	if !settings.Enabled {
		return nil, nil
	}
	return newSender(settings.URLs, settings.Timeout, log, nil)
}

// newSender builds the router. serviceLog receives shoutrrr's own output and
// is discarded when nil.
func newSender(urls []string, timeout time.Duration, log logger.Logger, serviceLog *stdlog.Logger) (*Sender, error) {
	if log == nil {
		log = logger.Global().Module("notification")
	}
	if len(urls) == 0 {
		return nil, errors.Newf("at least one notification URL is required").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, errors.Newf("invalid notification URL: %s", redact(err.Error(), urls)).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if serviceLog == nil {
		serviceLog = stdlog.New(io.Discard, "", 0)
	}
	sender.Timeout = timeout
	sender.SetLogger(serviceLog)

	return &Sender{urls: slices.Clone(urls), sender: sender, log: log}, nil
}

// Send delivers n to every URL. Delivery failures of individual services are
// joined into one error.
func (s *Sender) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := stypes.Params{}
	if n.Title != "" {
		params.SetTitle(n.Title)
	}

	var failed []error
	for _, err := range s.sender.Send(n.Message, &params) {
		if err != nil {
			failed = append(failed, errors.NewStd(redact(err.Error(), s.urls)))
		}
	}
	if len(failed) > 0 {
		return errors.New(errors.Join(failed...)).
			Component("notification").
			Category(errors.CategoryNetwork).
			Context("services", len(s.urls)).
			Context("failed", len(failed)).
			Build()
	}

	s.log.Info("notification sent", logger.String("title", n.Title), logger.Int("services", len(s.urls)))
	return nil
}

// redact replaces every configured URL in msg by its scheme, since the URLs
// carry service tokens.
func redact(msg string, urls []string) string {
	for _, raw := range urls {
		scheme := "url"
		if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
			scheme = u.Scheme
		}
		msg = strings.ReplaceAll(msg, raw, fmt.Sprintf("%s://[redacted]", scheme))
	}
	return msg
}
