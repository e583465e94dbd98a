package coherence

import "time"

// Kind identifies a violated invariant.
type Kind string

// Violation kinds
const (
	KindOrphanedPollingPlace Kind = "orphanedPollingPlace"
	KindOrphanedTable        Kind = "orphanedTable"
	KindDuplicateZoneCode    Kind = "duplicateZoneCode"
	KindCapacityMismatch     Kind = "capacityMismatch"
	KindCapacityExceeded     Kind = "capacityExceeded"
)

// Kinds lists every kind in report order.
var Kinds = []Kind{
	KindOrphanedPollingPlace,
	KindOrphanedTable,
	KindDuplicateZoneCode,
	KindCapacityMismatch,
	KindCapacityExceeded,
}

// Entity types named by violations.
const (
	EntityPollingPlace = "polling_place"
	EntityTable        = "table"
	EntityZone         = "zone"
)

// Violation names one offending entity.
type Violation struct {
	Kind           Kind   `json:"kind" yaml:"kind"`
	EntityType     string `json:"entity_type" yaml:"entity_type"`
	EntityID       uint   `json:"entity_id" yaml:"entity_id"`
	MunicipalityID uint   `json:"municipality_id" yaml:"municipality_id"`
	Detail         string `json:"detail" yaml:"detail"`
	// Expected and Actual carry the declared capacity and the table sum for
	// capacityMismatch, and the limit and the table count for capacityExceeded.
	Expected *int64 `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual   *int64 `json:"actual,omitempty" yaml:"actual,omitempty"`
	// RelatedIDs lists every zone sharing the code for duplicateZoneCode.
	RelatedIDs []uint `json:"related_ids,omitempty" yaml:"related_ids,omitempty"`
}

// ViolationReport groups violations by kind.
type ViolationReport struct {
	Scope     string    `json:"scope" yaml:"scope"`
	CheckedAt time.Time `json:"checked_at" yaml:"checked_at"`

	PollingPlaces int `json:"polling_places_checked" yaml:"polling_places_checked"`
	Tables        int `json:"tables_checked" yaml:"tables_checked"`

	OrphanedPollingPlaces []Violation `json:"orphaned_polling_places" yaml:"orphaned_polling_places"`
	OrphanedTables        []Violation `json:"orphaned_tables" yaml:"orphaned_tables"`
	DuplicateZoneCodes    []Violation `json:"duplicate_zone_codes" yaml:"duplicate_zone_codes"`
	CapacityMismatches    []Violation `json:"capacity_mismatches" yaml:"capacity_mismatches"`
	CapacityExceeded      []Violation `json:"capacity_exceeded" yaml:"capacity_exceeded"`
}

func newReport(scope string) *ViolationReport {
	return &ViolationReport{
		Scope:                 scope,
		CheckedAt:             time.Now(),
		OrphanedPollingPlaces: []Violation{},
		OrphanedTables:        []Violation{},
		DuplicateZoneCodes:    []Violation{},
		CapacityMismatches:    []Violation{},
		CapacityExceeded:      []Violation{},
	}
}

// ByKind returns the violations of one kind.
func (r *ViolationReport) ByKind(kind Kind) []Violation {
	switch kind {
	case KindOrphanedPollingPlace:
		return r.OrphanedPollingPlaces
	case KindOrphanedTable:
		return r.OrphanedTables
	case KindDuplicateZoneCode:
		return r.DuplicateZoneCodes
	case KindCapacityMismatch:
		return r.CapacityMismatches
	case KindCapacityExceeded:
		return r.CapacityExceeded
	}
	return nil
}

// Total is the number of violations of all kinds.
func (r *ViolationReport) Total() int {
	n := 0
	for _, k := range Kinds {
		n += len(r.ByKind(k))
	}
	return n
}

// Clean reports whether no violation was found.
func (r *ViolationReport) Clean() bool {
	return r.Total() == 0
}

func (r *ViolationReport) add(v Violation) {
	switch v.Kind {
	case KindOrphanedPollingPlace:
		r.OrphanedPollingPlaces = append(r.OrphanedPollingPlaces, v)
	case KindOrphanedTable:
		r.OrphanedTables = append(r.OrphanedTables, v)
	case KindDuplicateZoneCode:
		r.DuplicateZoneCodes = append(r.DuplicateZoneCodes, v)
	case KindCapacityMismatch:
		r.CapacityMismatches = append(r.CapacityMismatches, v)
	case KindCapacityExceeded:
		r.CapacityExceeded = append(r.CapacityExceeded, v)
	}
}
