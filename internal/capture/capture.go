// Package capture records the confirmed vote tally of a voting table. A table
// accepts exactly one capture; later submissions are rejected.
package capture

import (
	"context"
	"strings"
	"time"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/datastore/repository"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
	"github.com/caqueta-electoral/divipola/internal/observability/metrics"
)

const maxObservationsLength = 2000

// Submission is a tally as entered by the table's jurors.
type Submission struct {
	TableID      uint   `json:"table_id"`
	ValidVotes   int64  `json:"valid_votes"`
	BlankVotes   int64  `json:"blank_votes"`
	NullVotes    int64  `json:"null_votes"`
	Observations string `json:"observations,omitempty"`
}

// Validate checks the counts and the observations length.
func (s Submission) Validate() error {
	for field, v := range map[string]int64{
		"valid_votes": s.ValidVotes,
		"blank_votes": s.BlankVotes,
		"null_votes":  s.NullVotes,
	} {
		if v < 0 {
			return errors.Newf("%s must not be negative, got %d", field, v).
				Component("capture").
				Category(errors.CategoryValidation).
				Context("table_id", s.TableID).
				Context("field", field).
				Build()
		}
	}
	if len(s.Observations) > maxObservationsLength {
		return errors.Newf("observations exceed %d characters", maxObservationsLength).
			Component("capture").
			Category(errors.CategoryValidation).
			Context("table_id", s.TableID).
			Build()
	}
	return nil
}

// publishTimeout bounds the notification of a stored capture.
const publishTimeout = 10 * time.Second

// Publisher announces stored captures to downstream consumers.
type Publisher interface {
	PublishCapture(ctx context.Context, table *entities.Table, captured *entities.Capture) error
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher announces every stored capture through p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// Service stores captures.
type Service struct {
	store     repository.Store
	publisher Publisher
	log       logger.Logger
	recorder  metrics.Recorder
	now       func() time.Time
}

// NewService creates a capture Service.
func NewService(store repository.Store, log logger.Logger, recorder metrics.Recorder, opts ...Option) *Service {
	if log == nil {
		log = logger.Global().Module("capture")
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	s := &Service{store: store, log: log, recorder: recorder, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and stores the capture of an active table. A second
// submission for the same table is a conflict and leaves the stored capture
// untouched.
func (s *Service) Submit(ctx context.Context, sub Submission) (*entities.Capture, error) {
	start := time.Now()
	log := s.log.WithContext(ctx).With(logger.Uint64("table_id", uint64(sub.TableID)))

	table, captured, err := s.submit(ctx, sub)
	s.recorder.RecordDuration(metrics.OpCaptureSubmit, time.Since(start).Seconds())
	if err != nil {
		status := metrics.StatusError
		if errors.IsDuplicate(err) || errors.IsValidation(err) {
			status = metrics.StatusRejected
		}
		s.recorder.RecordOperation(metrics.OpCaptureSubmit, status)
		s.recorder.RecordError(metrics.OpCaptureSubmit, string(errors.CategoryOf(err)))
		log.Warn("capture rejected", logger.Error(err))
		return nil, err
	}

	s.recorder.RecordOperation(metrics.OpCaptureSubmit, metrics.StatusSuccess)
	log.Info("capture stored", logger.Int64("total_votes", captured.TotalVotes()))

	s.publish(ctx, table, captured, log)
	return captured, nil
}

// publish announces a stored capture. The capture is committed whatever the
// outcome, so failures are logged and counted only.
func (s *Service) publish(ctx context.Context, table *entities.Table, captured *entities.Capture, log logger.Logger) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.PublishCapture(ctx, table, captured); err != nil {
		s.recorder.RecordOperation(metrics.OpCapturePublish, metrics.StatusError)
		log.Warn("capture stored but not published", logger.Error(err))
		return
	}
	s.recorder.RecordOperation(metrics.OpCapturePublish, metrics.StatusSuccess)
}

func (s *Service) submit(ctx context.Context, sub Submission) (*entities.Table, *entities.Capture, error) {
	if err := sub.Validate(); err != nil {
		return nil, nil, err
	}

	table, err := s.store.Tables().GetByID(ctx, sub.TableID)
	switch {
	case errors.Is(err, repository.ErrTableNotFound):
		return nil, nil, errors.New(err).
			Component("capture").
			Category(errors.CategoryNotFound).
			Context("table_id", sub.TableID).
			Build()
	case err != nil:
		return nil, nil, storeError(err, "load-table", sub.TableID)
	case !table.Active:
		return nil, nil, errors.Newf("voting table %d is inactive", sub.TableID).
			Component("capture").
			Category(errors.CategoryNotFound).
			Context("table_id", sub.TableID).
			Build()
	}

	captured := &entities.Capture{
		TableID:      table.ID,
		ValidVotes:   sub.ValidVotes,
		BlankVotes:   sub.BlankVotes,
		NullVotes:    sub.NullVotes,
		Observations: strings.TrimSpace(sub.Observations),
		ConfirmedAt:  s.now().UTC(),
	}
	if err := s.store.Captures().Create(ctx, captured); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, nil, errors.Newf("voting table %d already has a capture", table.ID).
				Component("capture").
				Category(errors.CategoryConflict).
				Context("table_id", table.ID).
				Build()
		}
		return nil, nil, storeError(err, "create-capture", table.ID)
	}
	return table, captured, nil
}

// Get returns the capture of a table.
func (s *Service) Get(ctx context.Context, tableID uint) (*entities.Capture, error) {
	captured, err := s.store.Captures().GetByTable(ctx, tableID)
	if errors.Is(err, repository.ErrCaptureNotFound) {
		return nil, errors.New(err).
			Component("capture").
			Category(errors.CategoryNotFound).
			Context("table_id", tableID).
			Build()
	}
	if err != nil {
		return nil, storeError(err, "get-capture", tableID)
	}
	return captured, nil
}

func storeError(err error, operation string, tableID uint) error {
	return errors.New(err).
		Component("capture").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("table_id", tableID).
		Build()
}
