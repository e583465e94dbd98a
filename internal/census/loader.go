package census

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/caqueta-electoral/divipola/internal/allocation"
	"github.com/caqueta-electoral/divipola/internal/conf"
	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/datastore/repository"
	"github.com/caqueta-electoral/divipola/internal/divipola"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
	"github.com/caqueta-electoral/divipola/internal/observability/metrics"
)

// TableProvisioner creates the initial tables of a polling place.
type TableProvisioner interface {
	Provision(ctx context.Context, pollingPlaceID uint) (*allocation.ProvisionResult, error)
}

// LoadReport summarizes an initial load.
type LoadReport struct {
	Department            string     `json:"department" yaml:"department"`
	MunicipalitiesCreated int        `json:"municipalities_created" yaml:"municipalities_created"`
	PollingPlacesCreated  int        `json:"polling_places_created" yaml:"polling_places_created"`
	PollingPlacesExisting int        `json:"polling_places_existing" yaml:"polling_places_existing"`
	TablesCreated         int        `json:"tables_created" yaml:"tables_created"`
	Invalid               int        `json:"invalid" yaml:"invalid"`
	Ignored               int        `json:"ignored" yaml:"ignored"`
	Failed                int        `json:"failed" yaml:"failed"`
	InvalidRows           []RowIssue `json:"invalid_rows,omitempty" yaml:"invalid_rows,omitempty"`
	FailedRows            []RowIssue `json:"failed_rows,omitempty" yaml:"failed_rows,omitempty"`
}

// Loader creates the department, its municipalities and polling places from
// the census reference. Zones are left to the reconciler. Loading the same
// reference twice creates nothing the second time.
type Loader struct {
	store        repository.Store
	jurisdiction conf.JurisdictionSettings
	provisioner  TableProvisioner
	log          logger.Logger
	recorder     metrics.Recorder
}

// NewLoader creates a Loader. provisioner may be nil to skip table creation.
func NewLoader(store repository.Store, jurisdiction conf.JurisdictionSettings, provisioner TableProvisioner, log logger.Logger, recorder metrics.Recorder) *Loader {
	if log == nil {
		log = logger.Global().Module("census")
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Loader{
		store:        store,
		jurisdiction: jurisdiction,
		provisioner:  provisioner,
		log:          log,
		recorder:     recorder,
	}
}

// LoadFile reads the reference at path and loads it.
func (l *Loader) LoadFile(ctx context.Context, path string) (*LoadReport, error) {
	source, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, source.Rows)
}

// municipalityGroup collects the valid rows of one municipality.
type municipalityGroup struct {
	name string
	code string
	rows []Parsed
}

// Load creates the missing hierarchy nodes for rows of the configured department.
func (l *Loader) Load(ctx context.Context, rows []Row) (*LoadReport, error) {
	start := time.Now()
	log := l.log.WithContext(ctx)
	defer func() {
		l.recorder.RecordDuration(metrics.OpCensusLoad, time.Since(start).Seconds())
	}()

	dept, err := l.store.Departments().GetOrCreate(ctx, l.jurisdiction.DepartmentCode, l.jurisdiction.DepartmentName)
	if err != nil {
		return nil, errors.New(err).
			Component("census").
			Category(errors.CategoryDatabase).
			Context("operation", "department").
			Build()
	}

	report := &LoadReport{Department: dept.Name}
	groups := l.group(rows, report)

	existing, err := l.store.Municipalities().GetByDepartment(ctx, dept.ID)
	if err != nil {
		return nil, errors.New(err).
			Component("census").
			Category(errors.CategoryDatabase).
			Context("operation", "list-municipalities").
			Build()
	}
	byName := make(map[string]*entities.Municipality, len(existing))
	nextCode := 0
	for _, m := range existing {
		byName[divipola.NormalizeName(m.Name)] = m
		nextCode = max(nextCode, numericCode(m.Code))
	}
	// Generated codes start above every explicit code of the reference too.
	for _, g := range groups {
		nextCode = max(nextCode, numericCode(g.code))
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, errors.New(err).Component("census").Category(errors.CategoryCancellation).Build()
		}

		group := groups[key]
		mun, ok := byName[key]
		if !ok {
			code := group.code
			if code == "" {
				nextCode++
				code = formatMunicipalityCode(nextCode)
			}
			mun, err = l.store.Municipalities().GetOrCreate(ctx, dept.ID, code, group.name)
			if err != nil {
				l.failGroup(report, group, err)
				continue
			}
			if divipola.NormalizeName(mun.Name) != key {
				l.failGroup(report, group, errors.Newf("municipality code %s already belongs to %s", code, mun.Name).
					Component("census").
					Category(errors.CategoryConflict).
					Context("municipality", group.name).
					Context("code", code).
					Build())
				continue
			}
			byName[key] = mun
			report.MunicipalitiesCreated++
			log.Info("municipality created", logger.String("name", mun.Name), logger.String("code", mun.Code))
		}

		if err := l.loadPollingPlaces(ctx, mun, group.rows, report); err != nil {
			return report, err
		}
	}

	l.recorder.RecordOperation(metrics.OpCensusLoad, metrics.StatusSuccess)
	log.Info("census load complete",
		logger.Int("municipalities_created", report.MunicipalitiesCreated),
		logger.Int("polling_places_created", report.PollingPlacesCreated),
		logger.Int("tables_created", report.TablesCreated),
		logger.Int("invalid", report.Invalid),
		logger.Int("ignored", report.Ignored))
	return report, nil
}

// group filters rows by department and groups the valid ones by normalized
// municipality name.
func (l *Loader) group(rows []Row, report *LoadReport) map[string]*municipalityGroup {
	department := divipola.NormalizeName(l.jurisdiction.DepartmentName)
	groups := make(map[string]*municipalityGroup)

	for _, row := range rows {
		if divipola.NormalizeName(row.Department) != department {
			report.Ignored++
			l.recorder.RecordOperation(metrics.OpCensusLoadRow, metrics.StatusIgnored)
			continue
		}
		parsed, err := row.Parse()
		if err != nil {
			report.Invalid++
			report.InvalidRows = append(report.InvalidRows, RowIssue{Line: row.Line, Key: row.Key(), Reason: err.Error()})
			l.recorder.RecordOperation(metrics.OpCensusLoadRow, metrics.StatusInvalid)
			continue
		}

		key := divipola.NormalizeName(row.Municipality)
		g, ok := groups[key]
		if !ok {
			g = &municipalityGroup{name: cleanName(row.Municipality)}
			groups[key] = g
		}
		if g.code == "" && row.MunicipalityCode != "" {
			g.code = normalizeMunicipalityCode(row.MunicipalityCode)
		}
		g.rows = append(g.rows, parsed)
	}
	return groups
}

func (l *Loader) loadPollingPlaces(ctx context.Context, mun *entities.Municipality, rows []Parsed, report *LoadReport) error {
	places, err := l.store.PollingPlaces().GetByMunicipality(ctx, mun.ID)
	if err != nil {
		return errors.New(err).
			Component("census").
			Category(errors.CategoryDatabase).
			Context("operation", "list-polling-places").
			Context("municipality_id", mun.ID).
			Build()
	}
	known := make(map[string]bool, len(places))
	for _, p := range places {
		known[divipola.NormalizeName(p.Name)] = true
	}

	for _, row := range rows {
		name := divipola.NormalizeName(row.PollingPlace)
		if known[name] {
			report.PollingPlacesExisting++
			l.recorder.RecordOperation(metrics.OpCensusLoadRow, metrics.StatusUnchanged)
			continue
		}

		place := &entities.PollingPlace{
			Name:           cleanName(row.PollingPlace),
			Address:        cleanName(row.Address),
			MunicipalityID: mun.ID,
			Capacity:       row.Voters,
			Active:         true,
		}
		if code := cleanName(row.PollingPlaceCode); code != "" {
			place.Code = &code
		}
		if err := l.store.PollingPlaces().Create(ctx, place); err != nil {
			report.Failed++
			report.FailedRows = append(report.FailedRows, RowIssue{Line: row.Line, Key: row.Key(), Reason: err.Error()})
			l.recorder.RecordOperation(metrics.OpCensusLoadRow, metrics.StatusError)
			continue
		}
		known[name] = true
		report.PollingPlacesCreated++
		l.recorder.RecordOperation(metrics.OpCensusLoadRow, metrics.StatusSuccess)

		if l.provisioner == nil {
			continue
		}
		prov, err := l.provisioner.Provision(ctx, place.ID)
		if err != nil {
			report.Failed++
			report.FailedRows = append(report.FailedRows, RowIssue{Line: row.Line, Key: row.Key(), Reason: err.Error()})
			continue
		}
		report.TablesCreated += prov.Created
	}
	return nil
}

// numericCode is the value of a numeric municipality code, zero otherwise.
func numericCode(code string) int {
	n, err := strconv.Atoi(code)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (l *Loader) failGroup(report *LoadReport, group *municipalityGroup, err error) {
	l.log.Error("municipality could not be created",
		logger.String("name", group.name),
		logger.Error(err))
	for _, row := range group.rows {
		report.Failed++
		report.FailedRows = append(report.FailedRows, RowIssue{Line: row.Line, Key: row.Key(), Reason: err.Error()})
	}
	l.recorder.RecordError(metrics.OpCensusLoad, string(errors.CategoryOf(err)))
}
