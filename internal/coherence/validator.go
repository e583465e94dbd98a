// Package coherence audits the stored hierarchy and reports every violated
// invariant with the identifiers of the offending entities. It never writes.
package coherence

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/caqueta-electoral/divipola/internal/conf"
	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/datastore/repository"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
	"github.com/caqueta-electoral/divipola/internal/observability/metrics"
)

// Scope selects the whole hierarchy or a single municipality.
type Scope struct {
	MunicipalityID *uint
}

// Whole is the scope of the entire hierarchy.
func Whole() Scope {
	return Scope{}
}

// Municipality is the scope of one municipality.
func Municipality(id uint) Scope {
	return Scope{MunicipalityID: &id}
}

func (s Scope) String() string {
	if s.MunicipalityID == nil {
		return "all"
	}
	return fmt.Sprintf("municipality:%d", *s.MunicipalityID)
}

// ViolationRecorder receives the per-kind counts of a whole-hierarchy
// validation. Recorders that implement it get the counts as gauges.
type ViolationRecorder interface {
	RecordViolations(kind string, count int)
}

// Validator implements the coherence audit.
type Validator struct {
	store             repository.Store
	maxVotersPerTable int
	log               logger.Logger
	recorder          metrics.Recorder
}

// NewValidator creates a Validator. maxVotersPerTable falls back to the
// default when not positive.
func NewValidator(store repository.Store, maxVotersPerTable int, log logger.Logger, recorder metrics.Recorder) *Validator {
	if maxVotersPerTable <= 0 {
		maxVotersPerTable = conf.DefaultMaxVotersPerTable
	}
	if log == nil {
		log = logger.Global().Module("coherence")
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Validator{
		store:             store,
		maxVotersPerTable: maxVotersPerTable,
		log:               log,
		recorder:          recorder,
	}
}

// Validate loads the scope and checks it.
func (v *Validator) Validate(ctx context.Context, scope Scope) (*ViolationReport, error) {
	start := time.Now()

	snap, err := v.load(ctx, scope)
	v.recorder.RecordDuration(metrics.OpValidate, time.Since(start).Seconds())
	if err != nil {
		v.recorder.RecordOperation(metrics.OpValidate, metrics.StatusError)
		v.recorder.RecordError(metrics.OpValidate, string(errors.CategoryOf(err)))
		return nil, err
	}

	report := newReport(scope.String())
	inspect(snap, v.maxVotersPerTable, report)
	v.recorder.RecordOperation(metrics.OpValidate, metrics.StatusSuccess)

	if gauge, ok := v.recorder.(ViolationRecorder); ok && scope.MunicipalityID == nil {
		for _, k := range Kinds {
			gauge.RecordViolations(string(k), len(report.ByKind(k)))
		}
	}

	v.log.WithContext(ctx).Info("coherence validation complete",
		logger.String("scope", report.Scope),
		logger.Int("polling_places", report.PollingPlaces),
		logger.Int("tables", report.Tables),
		logger.Int("violations", report.Total()),
		logger.Duration("elapsed", time.Since(start)))

	return report, nil
}

// load reads zones, polling places and tables concurrently, then fetches the
// out-of-scope polling places and zones they reference.
func (v *Validator) load(ctx context.Context, scope Scope) (*snapshot, error) {
	var (
		zones  []*entities.Zone
		places []*entities.PollingPlace
		tables []*entities.Table
	)

	if scope.MunicipalityID != nil {
		if _, err := v.store.Municipalities().GetByID(ctx, *scope.MunicipalityID); err != nil {
			if errors.Is(err, repository.ErrMunicipalityNotFound) {
				return nil, errors.New(err).
					Component("coherence").
					Category(errors.CategoryNotFound).
					Context("municipality_id", *scope.MunicipalityID).
					Build()
			}
			return nil, loadError(err, "municipality")
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if scope.MunicipalityID != nil {
			zones, err = v.store.Zones().GetByMunicipality(gctx, *scope.MunicipalityID)
		} else {
			zones, err = v.store.Zones().GetAll(gctx)
		}
		return wrapLoad(err, "zones")
	})
	g.Go(func() (err error) {
		if scope.MunicipalityID != nil {
			places, err = v.store.PollingPlaces().GetByMunicipality(gctx, *scope.MunicipalityID)
		} else {
			places, err = v.store.PollingPlaces().GetAll(gctx)
		}
		return wrapLoad(err, "polling-places")
	})
	g.Go(func() (err error) {
		if scope.MunicipalityID != nil {
			tables, err = v.store.Tables().GetByMunicipality(gctx, *scope.MunicipalityID)
		} else {
			tables, err = v.store.Tables().GetAll(gctx)
		}
		return wrapLoad(err, "tables")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if scope.MunicipalityID != nil && len(places) > 0 {
		// Tables are matched to the scoped polling places by reference, not by
		// their denormalized municipality.
		ids := make([]uint, len(places))
		for i, p := range places {
			ids[i] = p.ID
		}
		byPlace, err := v.store.Tables().GetByPollingPlaces(ctx, ids)
		if err != nil {
			return nil, loadError(err, "polling-place-tables")
		}
		tables = mergeTables(tables, byPlace)
	}

	snap := &snapshot{
		zones:   make(map[uint]*entities.Zone, len(zones)),
		places:  make(map[uint]*entities.PollingPlace, len(places)),
		tables:  tables,
		inScope: func(uint) bool { return true },
	}
	if scope.MunicipalityID != nil {
		id := *scope.MunicipalityID
		snap.inScope = func(m uint) bool { return m == id }
	}
	for _, z := range zones {
		snap.zones[z.ID] = z
	}
	for _, p := range places {
		snap.places[p.ID] = p
	}

	var missingPlaces []uint
	for _, t := range tables {
		if _, ok := snap.places[t.PollingPlaceID]; !ok {
			missingPlaces = append(missingPlaces, t.PollingPlaceID)
		}
	}
	if len(missingPlaces) > 0 {
		extra, err := v.store.PollingPlaces().GetByIDs(ctx, missingPlaces)
		if err != nil {
			return nil, loadError(err, "referenced-polling-places")
		}
		for id, p := range extra {
			snap.places[id] = p
		}
	}

	var missingZones []uint
	for _, p := range snap.places {
		if p.ZoneID == nil {
			continue
		}
		if _, ok := snap.zones[*p.ZoneID]; !ok {
			missingZones = append(missingZones, *p.ZoneID)
		}
	}
	if len(missingZones) > 0 {
		extra, err := v.store.Zones().GetByIDs(ctx, missingZones)
		if err != nil {
			return nil, loadError(err, "referenced-zones")
		}
		for id, z := range extra {
			snap.zones[id] = z
		}
	}

	return snap, nil
}

// mergeTables returns the union of a and b ordered by ID.
func mergeTables(a, b []*entities.Table) []*entities.Table {
	seen := make(map[uint]bool, len(a)+len(b))
	merged := make([]*entities.Table, 0, len(a)+len(b))
	for _, t := range slices.Concat(a, b) {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		merged = append(merged, t)
	}
	slices.SortFunc(merged, func(x, y *entities.Table) int { return cmp.Compare(x.ID, y.ID) })
	return merged
}

func wrapLoad(err error, what string) error {
	if err == nil {
		return nil
	}
	return loadError(err, what)
}

func loadError(err error, what string) error {
	return errors.New(err).
		Component("coherence").
		Category(errors.CategoryDatabase).
		Context("operation", "load-"+what).
		Build()
}
