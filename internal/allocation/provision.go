package allocation

import (
	"context"
	"time"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/datastore/repository"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
	"github.com/caqueta-electoral/divipola/internal/observability/metrics"
)

// ProvisionResult reports the tables added to one polling place.
type ProvisionResult struct {
	PollingPlaceID uint   `json:"polling_place_id" yaml:"polling_place_id"`
	Limit          int    `json:"limit" yaml:"limit"`
	Required       int    `json:"required" yaml:"required"`
	Existing       int    `json:"existing" yaml:"existing"`
	Created        int    `json:"created" yaml:"created"`
	TableIDs       []uint `json:"table_ids,omitempty" yaml:"table_ids,omitempty"`
}

// RequiredTables is the number of tables needed so that no table holds more
// than limit voters, and never less than one.
func RequiredTables(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	l := int64(limit)
	return max(int((total+l-1)/l), 1)
}

// Provision adds empty active tables, numbered after the highest existing
// number, until the polling place has RequiredTables active tables. Running
// it again is a no-op. Allocate fills the new tables.
func (a *Allocator) Provision(ctx context.Context, pollingPlaceID uint) (*ProvisionResult, error) {
	start := time.Now()

	var result *ProvisionResult
	err := a.store.WithinTx(ctx, func(tx repository.Store) error {
		r, err := a.provision(ctx, tx, pollingPlaceID)
		result = r
		return err
	})

	a.recorder.RecordDuration(metrics.OpProvision, time.Since(start).Seconds())
	if err != nil {
		a.recorder.RecordOperation(metrics.OpProvision, metrics.StatusError)
		a.recorder.RecordError(metrics.OpProvision, string(errors.CategoryOf(err)))
		return nil, err
	}

	if result.Created == 0 {
		a.recorder.RecordOperation(metrics.OpProvision, metrics.StatusUnchanged)
		return result, nil
	}

	a.recorder.RecordOperation(metrics.OpProvision, metrics.StatusSuccess)
	a.log.WithContext(ctx).Info("provisioned tables",
		logger.Uint64("polling_place_id", uint64(pollingPlaceID)),
		logger.Int("created", result.Created),
		logger.Int("required", result.Required))
	return result, nil
}

func (a *Allocator) provision(ctx context.Context, tx repository.Store, pollingPlaceID uint) (*ProvisionResult, error) {
	place, kind, err := loadPollingPlace(ctx, tx, pollingPlaceID)
	if err != nil {
		return nil, err
	}

	limit := a.cfg.limitFor(kind)
	active, err := tx.Tables().GetActiveByPollingPlace(ctx, place.ID)
	if err != nil {
		return nil, dbError(err, "load-tables", place.ID)
	}

	result := &ProvisionResult{
		PollingPlaceID: place.ID,
		Limit:          limit,
		Required:       RequiredTables(place.Capacity, limit),
		Existing:       len(active),
	}
	if result.Existing >= result.Required {
		return result, nil
	}

	// Inactive tables keep their numbers, so new ones start after the highest
	// number of any table.
	next, err := tx.Tables().MaxNumber(ctx, place.ID)
	if err != nil {
		return nil, dbError(err, "max-number", place.ID)
	}

	for range result.Required - result.Existing {
		next++
		table := &entities.Table{
			PollingPlaceID: place.ID,
			MunicipalityID: place.MunicipalityID,
			Number:         next,
			Active:         true,
		}
		if err := tx.Tables().Create(ctx, table); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return nil, errors.New(err).
					Component("allocation").
					Category(errors.CategoryConflict).
					Context("polling_place_id", place.ID).
					Context("number", next).
					Build()
			}
			return nil, dbError(err, "create-table", place.ID)
		}
		result.TableIDs = append(result.TableIDs, table.ID)
		result.Created++
	}

	return result, nil
}
