package allocation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/datastore/repository"
	"github.com/caqueta-electoral/divipola/internal/datastore/testutil"
	"github.com/caqueta-electoral/divipola/internal/divipola"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/observability/metrics"
)

type fixture struct {
	tc    *testutil.TestContext
	seed  *testutil.Seeder
	mun   *entities.Municipality
	alloc *Allocator
	rec   *metrics.MemoryRecorder
}

func setupAllocator(t *testing.T) *fixture {
	t.Helper()
	tc := testutil.Setup(t)
	seed := tc.Seed(t)
	rec := metrics.NewMemoryRecorder()
	return &fixture{
		tc:    tc,
		seed:  seed,
		mun:   seed.Municipality(seed.Department("18", "CAQUETA"), "001", "FLORENCIA"),
		alloc: NewAllocator(tc.Store, Config{}, tc.Logger, rec),
		rec:   rec,
	}
}

func (f *fixture) voters(t *testing.T, place *entities.PollingPlace) []int64 {
	t.Helper()
	tables, err := f.tc.Store.Tables().GetByPollingPlace(context.Background(), place.ID)
	require.NoError(t, err)
	out := make([]int64, 0, len(tables))
	for _, table := range tables {
		out = append(out, table.Voters)
	}
	return out
}

func TestDistribute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total int64
		n     int
		want  []int64
	}{
		{1020, 3, []int64{340, 340, 340}},
		{1000, 3, []int64{334, 333, 333}},
		{1001, 3, []int64{334, 334, 333}},
		{0, 2, []int64{0, 0}},
		{2, 5, []int64{1, 1, 0, 0, 0}},
		{7, 1, []int64{7}},
	}

	for _, tt := range tests {
		got := Distribute(tt.total, tt.n)
		assert.Equal(t, tt.want, got)

		var sum int64
		for _, c := range got {
			sum += c
			assert.True(t, c == tt.total/int64(tt.n) || c == tt.total/int64(tt.n)+1)
		}
		assert.Equal(t, tt.total, sum)
	}
}

func TestAllocateEvenSplit(t *testing.T) {
	t.Parallel()
	f := setupAllocator(t)
	place := f.seed.PollingPlace(f.mun, f.seed.Zone(f.mun, "00"), "COLEGIO NACIONAL", 1020)
	f.seed.Tables(place, 0, 0, 0)

	result, err := f.alloc.Allocate(context.Background(), place.ID)
	require.NoError(t, err)

	assert.Equal(t, []int64{340, 340, 340}, f.voters(t, place))
	assert.Equal(t, 3, result.Writes)
	assert.Empty(t, result.OverCapacity)
	assert.False(t, result.NeedsMoreTables)
	assert.Equal(t, "001", result.Tables[0].Number)
}

func TestAllocateRemainderToLowestNumbers(t *testing.T) {
	t.Parallel()
	f := setupAllocator(t)
	place := f.seed.PollingPlace(f.mun, f.seed.Zone(f.mun, "00"), "ESCUELA", 1000)
	f.seed.Tables(place, 100, 100, 100)

	_, err := f.alloc.Allocate(context.Background(), place.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{334, 333, 333}, f.voters(t, place))
}

func TestAllocateIsIdempotent(t *testing.T) {
	t.Parallel()
	f := setupAllocator(t)
	ctx := context.Background()
	place := f.seed.PollingPlace(f.mun, f.seed.Zone(f.mun, "00"), "ESCUELA", 1000)
	f.seed.Tables(place, 0, 0, 0)

	_, err := f.alloc.Allocate(ctx, place.ID)
	require.NoError(t, err)

	again, err := f.alloc.Allocate(ctx, place.ID)
	require.NoError(t, err)
	assert.Zero(t, again.Writes)
	assert.Equal(t, 1, f.rec.OperationCount(metrics.OpAllocate, metrics.StatusSuccess))
	assert.Equal(t, 1, f.rec.OperationCount(metrics.OpAllocate, metrics.StatusUnchanged))
}

func TestAllocateSkipsInactiveTables(t *testing.T) {
	t.Parallel()
	f := setupAllocator(t)
	place := f.seed.PollingPlace(f.mun, f.seed.Zone(f.mun, "00"), "ESCUELA", 600)
	tables := f.seed.Tables(place, 0, 50, 0)
	f.seed.Deactivate(tables[1])

	_, err := f.alloc.Allocate(context.Background(), place.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{300, 50, 300}, f.voters(t, place))
}

func TestAllocateWithoutTables(t *testing.T) {
	t.Parallel()
	f := setupAllocator(t)
	place := f.seed.PollingPlace(f.mun, nil, "ESCUELA RURAL", 250)

	result, err := f.alloc.Allocate(context.Background(), place.ID)
	require.NoError(t, err)
	assert.True(t, result.NeedsMoreTables)
	assert.Equal(t, int64(250), result.Uncovered)
	assert.Zero(t, result.Writes)
}

func TestAllocateFlagsOverCapacity(t *testing.T) {
	t.Parallel()
	f := setupAllocator(t)
	place := f.seed.PollingPlace(f.mun, f.seed.Zone(f.mun, "00"), "ESCUELA", 1000)
	tables := f.seed.Tables(place, 0, 0)

	result, err := f.alloc.Allocate(context.Background(), place.ID)
	require.NoError(t, err)

	// The counts are still written.
	assert.Equal(t, []int64{500, 500}, f.voters(t, place))
	assert.ElementsMatch(t, []uint{tables[0].ID, tables[1].ID}, result.OverCapacity)
}

func TestAllocateSpecialZoneNotFlagged(t *testing.T) {
	t.Parallel()
	f := setupAllocator(t)
	place := f.seed.PollingPlace(f.mun, f.seed.Zone(f.mun, "90"), "RESGUARDO", 1000)
	f.seed.Tables(place, 0, 0)

	result, err := f.alloc.Allocate(context.Background(), place.ID)
	require.NoError(t, err)
	assert.Equal(t, divipola.ZoneKindSpecialIndigenous, result.ZoneKind)
	assert.Empty(t, result.OverCapacity)
}

func TestAllocateUnknownPollingPlace(t *testing.T) {
	t.Parallel()
	f := setupAllocator(t)

	_, err := f.alloc.Allocate(context.Background(), 4242)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.ErrorIs(t, err, repository.ErrPollingPlaceNotFound)
	assert.Equal(t, 1, f.rec.ErrorCount(metrics.OpAllocate, string(errors.CategoryNotFound)))
}

// skewedStore reports one voter more than stored when summing tables.
type skewedStore struct {
	repository.Store
}

func (s skewedStore) Tables() repository.TableRepository {
	return skewedTables{s.Store.Tables()}
}

func (s skewedStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(skewedStore{tx})
	})
}

type skewedTables struct {
	repository.TableRepository
}

func (t skewedTables) SumActiveVoters(ctx context.Context, pollingPlaceID uint) (int64, error) {
	n, err := t.TableRepository.SumActiveVoters(ctx, pollingPlaceID)
	return n + 1, err
}

func TestAllocateConsistencyFailureRollsBack(t *testing.T) {
	t.Parallel()
	f := setupAllocator(t)
	place := f.seed.PollingPlace(f.mun, f.seed.Zone(f.mun, "00"), "ESCUELA", 900)
	f.seed.Tables(place, 10, 20, 30)

	alloc := NewAllocator(skewedStore{f.tc.Store}, Config{}, f.tc.Logger, nil)
	_, err := alloc.Allocate(context.Background(), place.ID)
	require.Error(t, err)
	assert.True(t, errors.IsConsistency(err))

	assert.Equal(t, []int64{10, 20, 30}, f.voters(t, place))
}

func TestAllocateAllScopedToMunicipality(t *testing.T) {
	t.Parallel()
	f := setupAllocator(t)
	ctx := context.Background()
	zone := f.seed.Zone(f.mun, "00")

	ok := f.seed.PollingPlace(f.mun, zone, "ESCUELA", 1000)
	f.seed.Tables(ok, 0, 0, 0)
	empty := f.seed.PollingPlace(f.mun, zone, "COLEGIO", 300)
	big := f.seed.PollingPlace(f.mun, zone, "COLISEO", 900)
	f.seed.Tables(big, 0, 0)

	other := f.seed.Municipality(f.seed.Department("18", "CAQUETA"), "002", "MILAN")
	outside := f.seed.PollingPlace(other, nil, "ESCUELA MILAN", 100)
	f.seed.Tables(outside, 0)

	batch, err := f.alloc.AllocateAll(ctx, BatchOptions{MunicipalityID: &f.mun.ID})
	require.NoError(t, err)

	assert.Len(t, batch.Results, 3)
	assert.Equal(t, 2, batch.Allocated)
	assert.Equal(t, 1, batch.NeedsMoreTables)
	assert.Equal(t, 1, batch.OverCapacity)
	assert.Empty(t, batch.Failed)
	assert.Equal(t, []int64{0}, f.voters(t, outside))
	assert.Empty(t, f.voters(t, empty))
}

func TestAllocateAllWithProvision(t *testing.T) {
	t.Parallel()
	f := setupAllocator(t)
	ctx := context.Background()
	zone := f.seed.Zone(f.mun, "00")

	place := f.seed.PollingPlace(f.mun, zone, "COLISEO", 1000)
	f.seed.Tables(place, 0)

	batch, err := f.alloc.AllocateAll(ctx, BatchOptions{Provision: true})
	require.NoError(t, err)
	require.Len(t, batch.Provisioned, 1)
	assert.Equal(t, 2, batch.Provisioned[0].Created)
	assert.Zero(t, batch.OverCapacity)
	assert.Equal(t, []int64{334, 333, 333}, f.voters(t, place))
}

func TestProvision(t *testing.T) {
	t.Parallel()
	f := setupAllocator(t)
	ctx := context.Background()

	ordinary := f.seed.PollingPlace(f.mun, f.seed.Zone(f.mun, "00"), "ESCUELA", 1000)
	tables := f.seed.Tables(ordinary, 0, 0)
	f.seed.Deactivate(tables[1])

	result, err := f.alloc.Provision(ctx, ordinary.ID)
	require.NoError(t, err)
	assert.Equal(t, 400, result.Limit)
	assert.Equal(t, 3, result.Required)
	assert.Equal(t, 1, result.Existing)
	assert.Equal(t, 2, result.Created)

	all, err := f.tc.Store.Tables().GetByPollingPlace(ctx, ordinary.ID)
	require.NoError(t, err)
	numbers := make([]int, 0, len(all))
	for _, table := range all {
		numbers = append(numbers, table.Number)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, numbers)

	again, err := f.alloc.Provision(ctx, ordinary.ID)
	require.NoError(t, err)
	assert.Zero(t, again.Created)

	special := f.seed.PollingPlace(f.mun, f.seed.Zone(f.mun, "98"), "CARCEL", 1000)
	result, err = f.alloc.Provision(ctx, special.ID)
	require.NoError(t, err)
	assert.Equal(t, 600, result.Limit)
	assert.Equal(t, 2, result.Created)
}

func TestRequiredTables(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, RequiredTables(0, 400))
	assert.Equal(t, 1, RequiredTables(400, 400))
	assert.Equal(t, 2, RequiredTables(401, 400))
	assert.Equal(t, 3, RequiredTables(1000, 400))
	assert.Equal(t, 1, RequiredTables(1000, 0))
}

func TestAllocateAllRecordsFailures(t *testing.T) {
	t.Parallel()
	f := setupAllocator(t)
	zone := f.seed.Zone(f.mun, "00")

	broken := f.seed.PollingPlace(f.mun, zone, "ESCUELA", -5)
	f.seed.Tables(broken, 0)
	fine := f.seed.PollingPlace(f.mun, zone, "COLEGIO", 10)
	f.seed.Tables(fine, 0)

	batch, err := f.alloc.AllocateAll(context.Background(), BatchOptions{})
	require.NoError(t, err)
	require.Len(t, batch.Failed, 1)
	assert.Equal(t, broken.ID, batch.Failed[0].PollingPlaceID)
	assert.Equal(t, string(errors.CategoryValidation), batch.Failed[0].Category)
	assert.Equal(t, 1, batch.Allocated)
}
