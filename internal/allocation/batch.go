package allocation

import (
	"context"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
)

// Failure names a polling place whose allocation was rolled back.
type Failure struct {
	PollingPlaceID uint   `json:"polling_place_id" yaml:"polling_place_id"`
	Category       string `json:"category" yaml:"category"`
	Error          string `json:"error" yaml:"error"`
}

// BatchResult summarizes AllocateAll.
type BatchResult struct {
	Results         []*Result          `json:"results" yaml:"results"`
	Provisioned     []*ProvisionResult `json:"provisioned,omitempty" yaml:"provisioned,omitempty"`
	Failed          []Failure          `json:"failed,omitempty" yaml:"failed,omitempty"`
	Allocated       int                `json:"allocated" yaml:"allocated"`
	Unchanged       int                `json:"unchanged" yaml:"unchanged"`
	NeedsMoreTables int                `json:"needs_more_tables" yaml:"needs_more_tables"`
	OverCapacity    int                `json:"over_capacity" yaml:"over_capacity"`
	Writes          int                `json:"writes" yaml:"writes"`
}

// BatchOptions controls AllocateAll.
type BatchOptions struct {
	// MunicipalityID limits the batch to one municipality when set.
	MunicipalityID *uint
	// Provision adds missing tables before allocating each polling place.
	Provision bool
}

// AllocateAll allocates every active polling place in scope, one transaction
// each. A failing polling place is recorded and the batch continues; only
// context cancellation or a failure to list polling places aborts it.
func (a *Allocator) AllocateAll(ctx context.Context, opts BatchOptions) (*BatchResult, error) {
	places, err := a.listPlaces(ctx, opts.MunicipalityID)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{Results: []*Result{}}
	for _, place := range places {
		if !place.Active {
			continue
		}
		if err := ctx.Err(); err != nil {
			return batch, errors.New(err).
				Component("allocation").
				Category(errors.CategoryCancellation).
				Build()
		}

		if opts.Provision {
			prov, err := a.Provision(ctx, place.ID)
			if err != nil {
				batch.fail(place.ID, err)
				continue
			}
			if prov.Created > 0 {
				batch.Provisioned = append(batch.Provisioned, prov)
			}
		}

		result, err := a.Allocate(ctx, place.ID)
		if err != nil {
			batch.fail(place.ID, err)
			continue
		}
		batch.add(result)
	}

	a.log.WithContext(ctx).Info("allocation batch complete",
		logger.Int("polling_places", len(batch.Results)),
		logger.Int("allocated", batch.Allocated),
		logger.Int("unchanged", batch.Unchanged),
		logger.Int("needs_more_tables", batch.NeedsMoreTables),
		logger.Int("over_capacity", batch.OverCapacity),
		logger.Int("failed", len(batch.Failed)))

	return batch, nil
}

func (a *Allocator) listPlaces(ctx context.Context, municipalityID *uint) ([]*entities.PollingPlace, error) {
	var (
		places []*entities.PollingPlace
		err    error
	)
	if municipalityID != nil {
		places, err = a.store.PollingPlaces().GetByMunicipality(ctx, *municipalityID)
	} else {
		places, err = a.store.PollingPlaces().GetAll(ctx)
	}
	if err != nil {
		return nil, errors.New(err).
			Component("allocation").
			Category(errors.CategoryDatabase).
			Context("operation", "list-polling-places").
			Build()
	}
	return places, nil
}

func (b *BatchResult) add(r *Result) {
	b.Results = append(b.Results, r)
	b.Writes += r.Writes
	switch {
	case r.NeedsMoreTables:
		b.NeedsMoreTables++
	case r.Writes > 0:
		b.Allocated++
	default:
		b.Unchanged++
	}
	if len(r.OverCapacity) > 0 {
		b.OverCapacity++
	}
}

func (b *BatchResult) fail(pollingPlaceID uint, err error) {
	b.Failed = append(b.Failed, Failure{
		PollingPlaceID: pollingPlaceID,
		Category:       string(errors.CategoryOf(err)),
		Error:          err.Error(),
	})
}
