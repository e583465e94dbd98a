package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/datastore/repository"
	"github.com/caqueta-electoral/divipola/internal/datastore/testutil"
	"github.com/caqueta-electoral/divipola/internal/divipola"
	"github.com/caqueta-electoral/divipola/internal/errors"
)

func TestDepartmentGetOrCreate(t *testing.T) {
	t.Parallel()
	tc := testutil.Setup(t)
	ctx := context.Background()
	repo := tc.Store.Departments()

	first, err := repo.GetOrCreate(ctx, "18", "CAQUETA")
	require.NoError(t, err)
	second, err := repo.GetOrCreate(ctx, "18", "ignored")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "CAQUETA", second.Name)

	_, err = repo.GetByCode(ctx, "99")
	assert.ErrorIs(t, err, repository.ErrDepartmentNotFound)
}

func TestMunicipalityGetOrCreateConcurrent(t *testing.T) {
	t.Parallel()
	tc := testutil.Setup(t)
	ctx := context.Background()
	dept := tc.Seed(t).Department("18", "CAQUETA")

	var wg sync.WaitGroup
	ids := make([]uint, 4)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mun, err := tc.Store.Municipalities().GetOrCreate(ctx, dept.ID, "001", "FLORENCIA")
			if assert.NoError(t, err) {
				ids[i] = mun.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}

	all, err := tc.Store.Municipalities().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMunicipalityUpdatePopulation(t *testing.T) {
	t.Parallel()
	tc := testutil.Setup(t)
	ctx := context.Background()
	seed := tc.Seed(t)
	mun := seed.Municipality(seed.Department("18", "CAQUETA"), "001", "FLORENCIA")

	require.NoError(t, tc.Store.Municipalities().UpdatePopulation(ctx, mun.ID, 120500))
	// Same value again reports success, not a missing row.
	require.NoError(t, tc.Store.Municipalities().UpdatePopulation(ctx, mun.ID, 120500))

	got, err := tc.Store.Municipalities().GetByID(ctx, mun.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(120500), got.Population)

	err = tc.Store.Municipalities().UpdatePopulation(ctx, 9999, 1)
	assert.ErrorIs(t, err, repository.ErrMunicipalityNotFound)
}

func TestZoneCodeUniquePerMunicipality(t *testing.T) {
	t.Parallel()
	tc := testutil.Setup(t)
	ctx := context.Background()
	seed := tc.Seed(t)
	dept := seed.Department("18", "CAQUETA")
	florencia := seed.Municipality(dept, "001", "FLORENCIA")
	milan := seed.Municipality(dept, "002", "MILAN")

	seed.Zone(florencia, "00")
	seed.Zone(milan, "00")

	dup := &entities.Zone{MunicipalityID: florencia.ID, Code: divipola.ZoneCodeSeat, Name: "Zone 00", Kind: divipola.ZoneKindUrban, Active: true}
	err := tc.Store.Zones().Create(ctx, dup)
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)

	zone, err := tc.Store.Zones().GetByCode(ctx, milan.ID, divipola.ZoneCodeSeat)
	require.NoError(t, err)
	assert.Equal(t, milan.ID, zone.MunicipalityID)

	_, err = tc.Store.Zones().GetByCode(ctx, milan.ID, "05")
	assert.ErrorIs(t, err, repository.ErrZoneNotFound)
}

func TestZoneGetByIDs(t *testing.T) {
	t.Parallel()
	tc := testutil.Setup(t)
	seed := tc.Seed(t)
	mun := seed.Municipality(seed.Department("18", "CAQUETA"), "001", "FLORENCIA")
	z1 := seed.Zone(mun, "00")
	z2 := seed.Zone(mun, "99")

	got, err := tc.Store.Zones().GetByIDs(context.Background(), []uint{z1.ID, z2.ID, 4242})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, divipola.ZoneKindSpecialRuralCensus, got[z2.ID].Kind)
}

func TestTableQueries(t *testing.T) {
	t.Parallel()
	tc := testutil.Setup(t)
	ctx := context.Background()
	seed := tc.Seed(t)
	mun := seed.Municipality(seed.Department("18", "CAQUETA"), "001", "FLORENCIA")
	place := seed.PollingPlace(mun, seed.Zone(mun, "00"), "COLEGIO NACIONAL", 1020)
	tables := seed.Tables(place, 340, 340, 300)
	seed.Deactivate(tables[2])

	active, err := tc.Store.Tables().GetActiveByPollingPlace(ctx, place.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, 1, active[0].Number)

	sum, err := tc.Store.Tables().SumActiveVoters(ctx, place.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(680), sum)

	maxNumber, err := tc.Store.Tables().MaxNumber(ctx, place.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, maxNumber)

	empty := seed.PollingPlace(mun, nil, "ESCUELA RURAL", 0)
	sum, err = tc.Store.Tables().SumActiveVoters(ctx, empty.ID)
	require.NoError(t, err)
	assert.Zero(t, sum)

	other := seed.PollingPlace(mun, nil, "ESCUELA URBANA", 100)
	otherTables := seed.Tables(other, 100)
	byPlace, err := tc.Store.Tables().GetByPollingPlaces(ctx, []uint{other.ID, place.ID, empty.ID})
	require.NoError(t, err)
	require.Len(t, byPlace, 4)
	assert.Equal(t, tables[0].ID, byPlace[0].ID)
	assert.Equal(t, otherTables[0].ID, byPlace[3].ID)

	dup := &entities.Table{PollingPlaceID: place.ID, MunicipalityID: mun.ID, Number: 1, Active: true}
	assert.ErrorIs(t, tc.Store.Tables().Create(ctx, dup), repository.ErrDuplicateKey)

	assert.ErrorIs(t, tc.Store.Tables().UpdateVoters(ctx, 9999, 1), repository.ErrTableNotFound)
}

func TestCaptureOnePerTable(t *testing.T) {
	t.Parallel()
	tc := testutil.Setup(t)
	ctx := context.Background()
	seed := tc.Seed(t)
	mun := seed.Municipality(seed.Department("18", "CAQUETA"), "001", "FLORENCIA")
	table := seed.Tables(seed.PollingPlace(mun, nil, "COLEGIO", 300), 300)[0]

	first := &entities.Capture{TableID: table.ID, ValidVotes: 200, BlankVotes: 5, NullVotes: 3}
	require.NoError(t, tc.Store.Captures().Create(ctx, first))

	second := &entities.Capture{TableID: table.ID, ValidVotes: 1}
	assert.ErrorIs(t, tc.Store.Captures().Create(ctx, second), repository.ErrDuplicateKey)

	stored, err := tc.Store.Captures().GetByTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(208), stored.TotalVotes())

	_, err = tc.Store.Captures().GetByTable(ctx, table.ID+1)
	assert.ErrorIs(t, err, repository.ErrCaptureNotFound)
}

func TestWithinTxRollsBack(t *testing.T) {
	t.Parallel()
	tc := testutil.Setup(t)
	ctx := context.Background()
	seed := tc.Seed(t)
	mun := seed.Municipality(seed.Department("18", "CAQUETA"), "001", "FLORENCIA")
	table := seed.Tables(seed.PollingPlace(mun, nil, "COLEGIO", 300), 300)[0]

	boom := errors.NewStd("boom")
	err := tc.Store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Tables().UpdateVoters(ctx, table.ID, 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := tc.Store.Tables().GetByID(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), got.Voters)
}
