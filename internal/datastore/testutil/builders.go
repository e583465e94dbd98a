package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/divipola"
)

// Seeder inserts hierarchy rows for tests. Every method fails the test on error.
type Seeder struct {
	t   *testing.T
	ctx *TestContext
}

// Seed returns a Seeder bound to tc.
func (tc *TestContext) Seed(t *testing.T) *Seeder {
	t.Helper()
	return &Seeder{t: t, ctx: tc}
}

// Department creates or returns the department with code.
func (s *Seeder) Department(code, name string) *entities.Department {
	s.t.Helper()
	dept, err := s.ctx.Store.Departments().GetOrCreate(context.Background(), code, name)
	require.NoError(s.t, err)
	return dept
}

// Municipality creates or returns a municipality of dept.
func (s *Seeder) Municipality(dept *entities.Department, code, name string) *entities.Municipality {
	s.t.Helper()
	mun, err := s.ctx.Store.Municipalities().GetOrCreate(context.Background(), dept.ID, code, name)
	require.NoError(s.t, err)
	return mun
}

// Zone creates a zone with the kind and label its code implies.
func (s *Seeder) Zone(mun *entities.Municipality, code string) *entities.Zone {
	s.t.Helper()
	zc := divipola.MustZoneCode(code)
	return s.ZoneOfKind(mun, code, divipola.KindForCode(zc, nil))
}

// ZoneOfKind creates a zone with an explicit kind.
func (s *Seeder) ZoneOfKind(mun *entities.Municipality, code string, kind divipola.ZoneKind) *entities.Zone {
	s.t.Helper()
	zc := divipola.MustZoneCode(code)
	zone := &entities.Zone{
		MunicipalityID: mun.ID,
		Code:           zc,
		Name:           divipola.ZoneName(zc),
		Label:          divipola.ZoneLabel(zc),
		Kind:           kind,
		Active:         true,
	}
	require.NoError(s.t, s.ctx.Store.Zones().Create(context.Background(), zone))
	return zone
}

// PollingPlace creates an active polling place. A nil zone leaves it unassigned.
func (s *Seeder) PollingPlace(mun *entities.Municipality, zone *entities.Zone, name string, capacity int64) *entities.PollingPlace {
	s.t.Helper()
	place := &entities.PollingPlace{
		Name:           name,
		MunicipalityID: mun.ID,
		Capacity:       capacity,
		Active:         true,
	}
	if zone != nil {
		place.ZoneID = &zone.ID
	}
	require.NoError(s.t, s.ctx.Store.PollingPlaces().Create(context.Background(), place))
	return place
}

// Tables creates active tables numbered 1..len(voters) holding the given counts.
func (s *Seeder) Tables(place *entities.PollingPlace, voters ...int64) []*entities.Table {
	s.t.Helper()
	tables := make([]*entities.Table, 0, len(voters))
	for i, v := range voters {
		table := &entities.Table{
			PollingPlaceID: place.ID,
			MunicipalityID: place.MunicipalityID,
			Number:         i + 1,
			Voters:         v,
			Active:         true,
		}
		require.NoError(s.t, s.ctx.Store.Tables().Create(context.Background(), table))
		tables = append(tables, table)
	}
	return tables
}

// Deactivate clears the active flag of a table.
func (s *Seeder) Deactivate(table *entities.Table) {
	s.t.Helper()
	require.NoError(s.t, s.ctx.Manager.DB().Model(&entities.Table{}).
		Where("id = ?", table.ID).
		Update("active", false).Error)
	table.Active = false
}
