// Package reconcile aligns the stored hierarchy with the census reference:
// it resolves zones, assigns them to polling places and updates declared
// capacities and municipality populations.
package reconcile

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caqueta-electoral/divipola/internal/census"
	"github.com/caqueta-electoral/divipola/internal/conf"
	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/datastore/repository"
	"github.com/caqueta-electoral/divipola/internal/divipola"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
	"github.com/caqueta-electoral/divipola/internal/observability/metrics"
)

// Reconciler runs census reconciliation against a store.
type Reconciler struct {
	store        repository.Store
	jurisdiction conf.JurisdictionSettings
	log          logger.Logger
	recorder     metrics.Recorder
}

// NewReconciler creates a Reconciler for the given jurisdiction.
func NewReconciler(store repository.Store, jurisdiction conf.JurisdictionSettings, log logger.Logger, recorder metrics.Recorder) *Reconciler {
	if log == nil {
		log = logger.Global().Module("reconcile")
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Reconciler{
		store:        store,
		jurisdiction: jurisdiction,
		log:          log,
		recorder:     recorder,
	}
}

// ReconcileFile reads the whole reference before touching the store, so an
// unreadable source aborts with a source error and no writes.
func (r *Reconciler) ReconcileFile(ctx context.Context, path string) (*Report, error) {
	source, err := census.ReadFile(path)
	if err != nil {
		r.recorder.RecordOperation(metrics.OpReconcileRun, metrics.StatusError)
		r.recorder.RecordError(metrics.OpReconcileRun, string(errors.CategoryOf(err)))
		return nil, err
	}
	return r.Reconcile(ctx, source.Rows)
}

// rowResult is what one committed row transaction changed.
type rowResult struct {
	zoneCreated   bool
	zoneCorrected bool
	placeUpdated  bool
}

func (rr rowResult) writes() int {
	n := 0
	for _, w := range []bool{rr.zoneCreated, rr.zoneCorrected, rr.placeUpdated} {
		if w {
			n++
		}
	}
	return n
}

// Reconcile applies rows one transaction at a time. A failing row is recorded
// in the report and never aborts the run.
func (r *Reconciler) Reconcile(ctx context.Context, rows []census.Row) (*Report, error) {
	report := &Report{
		RunID:         uuid.NewString(),
		Department:    r.jurisdiction.DepartmentName,
		StartedAt:     time.Now(),
		UnmatchedKeys: []string{},
	}
	ctx = logger.WithTraceID(ctx, report.RunID)
	log := r.log.WithContext(ctx)

	idx, err := r.loadIndex(ctx)
	if err != nil {
		r.recorder.RecordOperation(metrics.OpReconcileRun, metrics.StatusError)
		return nil, err
	}

	department := divipola.NormalizeName(r.jurisdiction.DepartmentName)
	populations := make(map[uint]int64)

	valid := make([]census.Parsed, 0, len(rows))
	lines := make(map[string][]int)
	for _, row := range rows {
		if divipola.NormalizeName(row.Department) != department {
			report.Ignored++
			r.recorder.RecordOperation(metrics.OpReconcileRow, metrics.StatusIgnored)
			continue
		}

		parsed, err := row.Parse()
		if err != nil {
			report.invalid(row, err)
			r.recorder.RecordOperation(metrics.OpReconcileRow, metrics.StatusInvalid)
			log.Debug("invalid census row", logger.Int("line", row.Line), logger.Error(err))
			continue
		}
		valid = append(valid, parsed)
		lines[row.Key()] = append(lines[row.Key()], row.Line)
	}

	for _, parsed := range valid {
		if err := ctx.Err(); err != nil {
			return report, errors.New(err).Component("reconcile").Category(errors.CategoryCancellation).Build()
		}
		row := parsed.Row

		// A polling place listed more than once has no single reference value,
		// so none of its rows is applied or counted.
		if repeated := lines[row.Key()]; len(repeated) > 1 {
			report.invalid(row, repeatedKeyError(row, repeated))
			r.recorder.RecordOperation(metrics.OpReconcileRow, metrics.StatusInvalid)
			log.Warn("polling place repeated in census reference",
				logger.Int("line", row.Line),
				logger.String("key", row.Key()),
				logger.Int("rows", len(repeated)))
			continue
		}

		if mun, ok := idx.municipalities[divipola.NormalizeName(row.Municipality)]; ok {
			populations[mun.ID] += parsed.Voters
		}

		place, ok := idx.lookup(row.Key())
		if !ok {
			report.unmatched(row.Key())
			r.recorder.RecordOperation(metrics.OpReconcileRow, metrics.StatusUnmatched)
			log.Warn("census row has no matching polling place",
				logger.Int("line", row.Line),
				logger.String("key", row.Key()),
				logger.Int("candidates", len(idx.places[row.Key()])))
			continue
		}

		var result rowResult
		err = r.store.WithinTx(ctx, func(tx repository.Store) error {
			var txErr error
			result, txErr = r.applyRow(ctx, tx, place.ID, parsed)
			return txErr
		})
		if err != nil {
			report.failed(row, err)
			r.recorder.RecordOperation(metrics.OpReconcileRow, metrics.StatusError)
			r.recorder.RecordError(metrics.OpReconcileRow, string(errors.CategoryOf(err)))
			log.Error("census row failed", logger.Int("line", row.Line), logger.String("key", row.Key()), logger.Error(err))
			continue
		}

		if result.zoneCreated {
			report.ZonesCreated++
		}
		if result.zoneCorrected {
			report.ZonesCorrected++
		}
		if n := result.writes(); n > 0 {
			report.Applied++
			report.Writes += n
			r.recorder.RecordOperation(metrics.OpReconcileRow, metrics.StatusSuccess)
		} else {
			report.Unchanged++
			r.recorder.RecordOperation(metrics.OpReconcileRow, metrics.StatusUnchanged)
		}
	}

	r.updatePopulations(ctx, idx, populations, report)

	elapsed := time.Since(report.StartedAt)
	report.Duration = elapsed.String()
	r.recorder.RecordDuration(metrics.OpReconcileRun, elapsed.Seconds())
	r.recorder.RecordOperation(metrics.OpReconcileRun, metrics.StatusSuccess)

	log.Info("reconcile complete",
		logger.String("run_id", report.RunID),
		logger.Int("applied", report.Applied),
		logger.Int("unchanged", report.Unchanged),
		logger.Int("unmatched", report.Unmatched),
		logger.Int("zones_created", report.ZonesCreated),
		logger.Int("invalid", report.Invalid),
		logger.Int("failed", report.Failed),
		logger.Int("writes", report.Writes),
		logger.Duration("elapsed", elapsed))

	return report, nil
}

// applyRow resolves the row's zone and brings the polling place in line.
func (r *Reconciler) applyRow(ctx context.Context, tx repository.Store, placeID uint, row census.Parsed) (rowResult, error) {
	var result rowResult

	place, err := tx.PollingPlaces().GetByID(ctx, placeID)
	if err != nil {
		return result, r.storeError(err, "load-polling-place", row)
	}

	zone, created, err := r.resolveZone(ctx, tx, place.MunicipalityID, row)
	if err != nil {
		return result, err
	}
	result.zoneCreated = created

	if !created {
		corrected, err := r.correctZone(ctx, tx, zone, row)
		if err != nil {
			return result, err
		}
		result.zoneCorrected = corrected
	}

	updates := make(map[string]any, 2)
	if place.ZoneID == nil || *place.ZoneID != zone.ID {
		updates["zone_id"] = zone.ID
	}
	if place.Capacity != row.Voters {
		updates["capacity"] = row.Voters
	}
	if len(updates) == 0 {
		return result, nil
	}

	if err := tx.PollingPlaces().Update(ctx, place.ID, updates); err != nil {
		return result, r.storeError(err, "update-polling-place", row)
	}
	result.placeUpdated = true
	return result, nil
}

// resolveZone returns the municipality's zone with the row's code, creating it
// when absent. The unique (municipality, code) key is checked again right
// before the insert and a duplicate-key failure falls back to the stored zone.
func (r *Reconciler) resolveZone(ctx context.Context, tx repository.Store, municipalityID uint, row census.Parsed) (*entities.Zone, bool, error) {
	zone, err := tx.Zones().GetByCode(ctx, municipalityID, row.Zone)
	if err == nil {
		return zone, false, nil
	}
	if !errors.Is(err, repository.ErrZoneNotFound) {
		return nil, false, r.storeError(err, "find-zone", row)
	}

	existing, err := tx.Zones().GetByMunicipality(ctx, municipalityID)
	if err != nil {
		return nil, false, r.storeError(err, "list-zones", row)
	}
	var ordinary []divipola.ZoneKind
	for _, z := range existing {
		if z.Code == row.Zone {
			return z, false, nil
		}
		if z.Code.IsOrdinary() {
			ordinary = append(ordinary, z.Kind)
		}
	}

	zone = &entities.Zone{
		MunicipalityID: municipalityID,
		Code:           row.Zone,
		Name:           divipola.ZoneName(row.Zone),
		Label:          divipola.ZoneLabel(row.Zone),
		Kind:           divipola.KindForCode(row.Zone, ordinary),
		Active:         true,
	}
	if err := tx.Zones().Create(ctx, zone); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			stored, findErr := tx.Zones().GetByCode(ctx, municipalityID, row.Zone)
			if findErr == nil {
				return stored, false, nil
			}
		}
		return nil, false, r.storeError(err, "create-zone", row)
	}

	r.log.WithContext(ctx).Info("zone created",
		logger.Uint64("municipality_id", uint64(municipalityID)),
		logger.String("code", row.Zone.String()),
		logger.String("kind", zone.Kind.String()))
	return zone, true, nil
}

// correctZone reactivates an inactive zone and restores the fixed kind of a
// reserved code.
func (r *Reconciler) correctZone(ctx context.Context, tx repository.Store, zone *entities.Zone, row census.Parsed) (bool, error) {
	updates := make(map[string]any, 2)
	if !zone.Active {
		updates["active"] = true
	}
	if kind, reserved := divipola.ReservedKind(zone.Code); reserved && zone.Kind != kind {
		updates["kind"] = kind
	}
	if len(updates) == 0 {
		return false, nil
	}
	if err := tx.Zones().Update(ctx, zone.ID, updates); err != nil {
		return false, r.storeError(err, "correct-zone", row)
	}
	return true, nil
}

// updatePopulations sets each matched municipality's population to the sum of
// its valid reference rows, one transaction per municipality.
func (r *Reconciler) updatePopulations(ctx context.Context, idx *index, populations map[uint]int64, report *Report) {
	log := r.log.WithContext(ctx)
	for id, total := range populations {
		mun := idx.municipalityByID[id]
		if mun.Population == total {
			continue
		}

		err := r.store.WithinTx(ctx, func(tx repository.Store) error {
			return tx.Municipalities().UpdatePopulation(ctx, id, total)
		})
		if err != nil {
			r.recorder.RecordOperation(metrics.OpPopulationUpdate, metrics.StatusError)
			log.Error("population update failed", logger.String("municipality", mun.Name), logger.Error(err))
			report.Failed++
			report.FailedRows = append(report.FailedRows, census.RowIssue{Key: divipola.NormalizeName(mun.Name), Reason: err.Error()})
			continue
		}

		r.recorder.RecordOperation(metrics.OpPopulationUpdate, metrics.StatusSuccess)
		log.Info("municipality population updated",
			logger.String("municipality", mun.Name),
			logger.Int64("previous", mun.Population),
			logger.Int64("population", total))
		mun.Population = total
		report.PopulationsUpdated++
		report.Writes++
	}
}

func repeatedKeyError(row census.Row, lines []int) error {
	listed := make([]string, len(lines))
	for i, line := range lines {
		listed[i] = strconv.Itoa(line)
	}
	return errors.Newf("census row %d: polling place listed on lines %s", row.Line, strings.Join(listed, ", ")).
		Component("reconcile").
		Category(errors.CategoryValidation).
		Context("line", row.Line).
		Context("key", row.Key()).
		Build()
}

func (r *Reconciler) storeError(err error, operation string, row census.Parsed) error {
	return errors.New(err).
		Component("reconcile").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("line", row.Line).
		Context("key", row.Key()).
		Build()
}
