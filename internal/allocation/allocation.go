// Package allocation distributes a polling place's registered voters across
// its voting tables and provisions tables when a polling place needs more.
package allocation

import (
	"context"
	"time"

	"github.com/caqueta-electoral/divipola/internal/conf"
	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/datastore/repository"
	"github.com/caqueta-electoral/divipola/internal/divipola"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
	"github.com/caqueta-electoral/divipola/internal/observability/metrics"
)

// Config holds the per-table capacity rule.
type Config struct {
	// MaxVotersPerTable is the advisory limit for tables in ordinary zones.
	MaxVotersPerTable int
	// SpecialMaxVotersPerTable sizes provisioning in special zones.
	SpecialMaxVotersPerTable int
}

// ConfigFromSettings extracts the allocation rule from settings.
func ConfigFromSettings(s *conf.Settings) Config {
	return Config{
		MaxVotersPerTable:        s.Allocation.MaxVotersPerTable,
		SpecialMaxVotersPerTable: s.Allocation.SpecialMaxVotersPerTable,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxVotersPerTable <= 0 {
		c.MaxVotersPerTable = conf.DefaultMaxVotersPerTable
	}
	if c.SpecialMaxVotersPerTable <= 0 {
		c.SpecialMaxVotersPerTable = conf.DefaultSpecialMaxVotersPerTable
	}
	return c
}

// limitFor returns the provisioning limit for a zone kind.
func (c Config) limitFor(kind divipola.ZoneKind) int {
	if kind.IsSpecial() {
		return c.SpecialMaxVotersPerTable
	}
	return c.MaxVotersPerTable
}

// TableAssignment is the outcome for one table.
type TableAssignment struct {
	TableID  uint   `json:"table_id" yaml:"table_id"`
	Number   string `json:"number" yaml:"number"`
	Previous int64  `json:"previous" yaml:"previous"`
	Voters   int64  `json:"voters" yaml:"voters"`
}

// Changed reports whether the assignment wrote a new count.
func (a TableAssignment) Changed() bool {
	return a.Previous != a.Voters
}

// Result is the outcome of allocating one polling place.
type Result struct {
	PollingPlaceID  uint              `json:"polling_place_id" yaml:"polling_place_id"`
	Total           int64             `json:"total" yaml:"total"`
	ZoneKind        divipola.ZoneKind `json:"zone_kind,omitempty" yaml:"zone_kind,omitempty"`
	Tables          []TableAssignment `json:"tables" yaml:"tables"`
	Writes          int               `json:"writes" yaml:"writes"`
	NeedsMoreTables bool              `json:"needs_more_tables" yaml:"needs_more_tables"`
	Uncovered       int64             `json:"uncovered" yaml:"uncovered"`
	// OverCapacity lists tables above MaxVotersPerTable in a non-special
	// zone. The counts are written anyway.
	OverCapacity []uint `json:"over_capacity,omitempty" yaml:"over_capacity,omitempty"`
}

// Allocator implements the capacity allocation jobs.
type Allocator struct {
	store    repository.Store
	cfg      Config
	log      logger.Logger
	recorder metrics.Recorder
}

// NewAllocator creates an Allocator. A nil log uses the global "allocation"
// module and a nil recorder discards metrics.
func NewAllocator(store repository.Store, cfg Config, log logger.Logger, recorder metrics.Recorder) *Allocator {
	if log == nil {
		log = logger.Global().Module("allocation")
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Allocator{
		store:    store,
		cfg:      cfg.withDefaults(),
		log:      log,
		recorder: recorder,
	}
}

// Distribute splits total over n tables: the first total%n tables receive
// one voter more than the rest. n must be positive.
func Distribute(total int64, n int) []int64 {
	counts := make([]int64, n)
	base := total / int64(n)
	remainder := total % int64(n)
	for i := range counts {
		counts[i] = base
		if int64(i) < remainder {
			counts[i]++
		}
	}
	return counts
}

// Allocate recomputes the registered-voter counts of a polling place's active
// tables. All writes happen in one transaction; the stored sum is re-checked
// before commit and a mismatch rolls everything back with a consistency error.
func (a *Allocator) Allocate(ctx context.Context, pollingPlaceID uint) (*Result, error) {
	start := time.Now()
	log := a.log.WithContext(ctx).With(logger.Uint64("polling_place_id", uint64(pollingPlaceID)))

	var result *Result
	err := a.store.WithinTx(ctx, func(tx repository.Store) error {
		r, err := a.allocate(ctx, tx, pollingPlaceID)
		result = r
		return err
	})

	a.recorder.RecordDuration(metrics.OpAllocate, time.Since(start).Seconds())
	if err != nil {
		a.recorder.RecordOperation(metrics.OpAllocate, metrics.StatusError)
		a.recorder.RecordError(metrics.OpAllocate, string(errors.CategoryOf(err)))
		log.Error("allocation failed", logger.Error(err))
		return nil, err
	}

	switch {
	case result.Writes > 0:
		a.recorder.RecordOperation(metrics.OpAllocate, metrics.StatusSuccess)
	default:
		a.recorder.RecordOperation(metrics.OpAllocate, metrics.StatusUnchanged)
	}

	if result.NeedsMoreTables {
		log.Warn("polling place has no active tables", logger.Int64("uncovered", result.Uncovered))
	}
	if len(result.OverCapacity) > 0 {
		log.Warn("tables above per-table maximum",
			logger.Int("tables", len(result.OverCapacity)),
			logger.Int("limit", a.cfg.MaxVotersPerTable))
	}
	log.Debug("allocation complete",
		logger.Int64("total", result.Total),
		logger.Int("tables", len(result.Tables)),
		logger.Int("writes", result.Writes))

	return result, nil
}

func (a *Allocator) allocate(ctx context.Context, tx repository.Store, pollingPlaceID uint) (*Result, error) {
	place, kind, err := loadPollingPlace(ctx, tx, pollingPlaceID)
	if err != nil {
		return nil, err
	}
	if place.Capacity < 0 {
		return nil, errors.Newf("polling place %d has negative capacity %d", place.ID, place.Capacity).
			Component("allocation").
			Category(errors.CategoryValidation).
			Context("polling_place_id", place.ID).
			Build()
	}

	result := &Result{
		PollingPlaceID: place.ID,
		Total:          place.Capacity,
		ZoneKind:       kind,
		Tables:         []TableAssignment{},
	}

	tables, err := tx.Tables().GetActiveByPollingPlace(ctx, place.ID)
	if err != nil {
		return nil, dbError(err, "load-tables", place.ID)
	}
	if len(tables) == 0 {
		result.NeedsMoreTables = true
		result.Uncovered = place.Capacity
		return result, nil
	}

	counts := Distribute(place.Capacity, len(tables))
	for i, table := range tables {
		assignment := TableAssignment{
			TableID:  table.ID,
			Number:   table.DisplayNumber(),
			Previous: table.Voters,
			Voters:   counts[i],
		}
		if assignment.Changed() {
			if err := tx.Tables().UpdateVoters(ctx, table.ID, counts[i]); err != nil {
				return nil, dbError(err, "update-voters", place.ID)
			}
			result.Writes++
		}
		if !kind.IsSpecial() && counts[i] > int64(a.cfg.MaxVotersPerTable) {
			result.OverCapacity = append(result.OverCapacity, table.ID)
		}
		result.Tables = append(result.Tables, assignment)
	}

	stored, err := tx.Tables().SumActiveVoters(ctx, place.ID)
	if err != nil {
		return nil, dbError(err, "verify-sum", place.ID)
	}
	if stored != place.Capacity {
		return nil, errors.Newf("allocated %d voters to polling place %d, declared capacity is %d", stored, place.ID, place.Capacity).
			Component("allocation").
			Category(errors.CategoryConsistency).
			Context("polling_place_id", place.ID).
			Context("expected", place.Capacity).
			Context("actual", stored).
			Build()
	}

	return result, nil
}

// loadPollingPlace returns the polling place and the kind of its zone. A
// missing or unassigned zone yields an empty, non-special kind.
func loadPollingPlace(ctx context.Context, tx repository.Store, id uint) (*entities.PollingPlace, divipola.ZoneKind, error) {
	place, err := tx.PollingPlaces().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPollingPlaceNotFound) {
			return nil, "", errors.New(err).
				Component("allocation").
				Category(errors.CategoryNotFound).
				Context("polling_place_id", id).
				Build()
		}
		return nil, "", dbError(err, "load-polling-place", id)
	}

	if place.ZoneID == nil {
		return place, "", nil
	}
	zone, err := tx.Zones().GetByID(ctx, *place.ZoneID)
	if err != nil {
		if errors.Is(err, repository.ErrZoneNotFound) {
			return place, "", nil
		}
		return nil, "", dbError(err, "load-zone", id)
	}
	return place, zone.Kind, nil
}

func dbError(err error, operation string, pollingPlaceID uint) error {
	return errors.New(err).
		Component("allocation").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("polling_place_id", pollingPlaceID).
		Build()
}
