package coherence

import (
	"fmt"
	"slices"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/divipola"
)

// snapshot is the part of the hierarchy a validation looks at. Zones and
// polling places referenced from outside the scope are included so that
// cross-municipality references can be judged.
type snapshot struct {
	zones  map[uint]*entities.Zone
	places map[uint]*entities.PollingPlace
	tables []*entities.Table

	// inScope limits which zones and polling places are reported on.
	inScope func(municipalityID uint) bool
}

// inspect runs every check over the snapshot. It never touches the store.
func inspect(snap *snapshot, maxVotersPerTable int, report *ViolationReport) {
	placeIDs := sortedKeys(snap.places)
	zoneIDs := sortedKeys(snap.zones)

	sums := make(map[uint]int64, len(snap.places))
	for _, t := range snap.tables {
		if t.Active {
			sums[t.PollingPlaceID] += t.Voters
			report.Tables++
		}
	}

	for _, id := range placeIDs {
		p := snap.places[id]
		if !p.Active || !snap.inScope(p.MunicipalityID) {
			continue
		}
		report.PollingPlaces++

		if reason := orphanReason(p, snap.zones); reason != "" {
			report.add(Violation{
				Kind:           KindOrphanedPollingPlace,
				EntityType:     EntityPollingPlace,
				EntityID:       p.ID,
				MunicipalityID: p.MunicipalityID,
				Detail:         reason,
			})
		}

		if sum := sums[p.ID]; sum != p.Capacity {
			report.add(Violation{
				Kind:           KindCapacityMismatch,
				EntityType:     EntityPollingPlace,
				EntityID:       p.ID,
				MunicipalityID: p.MunicipalityID,
				Detail:         fmt.Sprintf("active tables hold %d voters, declared capacity is %d", sum, p.Capacity),
				Expected:       ptr(p.Capacity),
				Actual:         ptr(sum),
			})
		}
	}

	limit := int64(maxVotersPerTable)
	for _, t := range snap.tables {
		if !t.Active {
			continue
		}

		p, ok := snap.places[t.PollingPlaceID]
		if !ok || !p.Active {
			detail := "polling place does not exist"
			if ok {
				detail = "polling place is inactive"
			}
			report.add(Violation{
				Kind:           KindOrphanedTable,
				EntityType:     EntityTable,
				EntityID:       t.ID,
				MunicipalityID: t.MunicipalityID,
				Detail:         detail,
			})
			continue
		}

		if t.Voters > limit && !zoneKind(p, snap.zones).IsSpecial() {
			report.add(Violation{
				Kind:           KindCapacityExceeded,
				EntityType:     EntityTable,
				EntityID:       t.ID,
				MunicipalityID: t.MunicipalityID,
				Detail:         fmt.Sprintf("table %s of polling place %d holds %d voters", t.DisplayNumber(), p.ID, t.Voters),
				Expected:       ptr(limit),
				Actual:         ptr(t.Voters),
			})
		}
	}

	type zoneKey struct {
		municipalityID uint
		code           divipola.ZoneCode
	}
	byCode := make(map[zoneKey][]uint)
	var keys []zoneKey
	for _, id := range zoneIDs {
		z := snap.zones[id]
		if !z.Active || !snap.inScope(z.MunicipalityID) {
			continue
		}
		k := zoneKey{z.MunicipalityID, z.Code}
		if _, seen := byCode[k]; !seen {
			keys = append(keys, k)
		}
		byCode[k] = append(byCode[k], z.ID)
	}
	for _, k := range keys {
		ids := byCode[k]
		if len(ids) < 2 {
			continue
		}
		for _, id := range ids {
			report.add(Violation{
				Kind:           KindDuplicateZoneCode,
				EntityType:     EntityZone,
				EntityID:       id,
				MunicipalityID: k.municipalityID,
				Detail:         fmt.Sprintf("%d active zones share code %s", len(ids), k.code),
				RelatedIDs:     ids,
			})
		}
	}
}

func orphanReason(p *entities.PollingPlace, zones map[uint]*entities.Zone) string {
	if p.ZoneID == nil {
		return "no zone assigned"
	}
	z, ok := zones[*p.ZoneID]
	switch {
	case !ok:
		return fmt.Sprintf("zone %d does not exist", *p.ZoneID)
	case z.MunicipalityID != p.MunicipalityID:
		return fmt.Sprintf("zone %d belongs to municipality %d", z.ID, z.MunicipalityID)
	case !z.Active:
		return fmt.Sprintf("zone %d is inactive", z.ID)
	}
	return ""
}

// zoneKind is the kind of the polling place's zone, empty when unresolved.
func zoneKind(p *entities.PollingPlace, zones map[uint]*entities.Zone) divipola.ZoneKind {
	if p.ZoneID == nil {
		return ""
	}
	if z, ok := zones[*p.ZoneID]; ok {
		return z.Kind
	}
	return ""
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func ptr(v int64) *int64 {
	return &v
}
