package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yellow444/shelfmetrics/internal/cache"
	"github.com/yellow444/shelfmetrics/internal/dataset"
	"github.com/yellow444/shelfmetrics/internal/domain"
	"github.com/yellow444/shelfmetrics/internal/engine"
	"github.com/yellow444/shelfmetrics/internal/service"
)

type fakeCache struct {
	store   map[cache.QueryKey][]domain.ItemRow
	gets    int
	sets    int
	failGet bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[cache.QueryKey][]domain.ItemRow{}}
}

func (f *fakeCache) GetRows(ctx context.Context, key cache.QueryKey) ([]domain.ItemRow, bool, error) {
	f.gets++
	if f.failGet {
		return nil, false, errors.New("cache down")
	}
	rows, ok := f.store[key]
	return rows, ok, nil
}

func (f *fakeCache) SetRows(ctx context.Context, key cache.QueryKey, rows []domain.ItemRow) error {
	f.sets++
	f.store[key] = rows
	return nil
}

func (f *fakeCache) InvalidateAll(ctx context.Context) error {
	f.store = map[cache.QueryKey][]domain.ItemRow{}
	return nil
}

func publishOneItem(store *dataset.Store) {
	store.Publish(&dataset.Dataset{
		Codes:        []string{"A1"},
		Offsets:      []int{0, 1},
		EventTimes:   []int64{1_705_300_000},
		EventBefore:  []float64{0},
		EventAfter:   []float64{7},
		SalesAmount:  []float64{100},
		AveragePrice: []float64{10},
		LostQuantity: []float64{1},
		Names:        []string{"Milk"},
		Groups:       []string{"Dairy"},
	})
}

func TestItemAnalyticsCachesByWindowAndVersion(t *testing.T) {
	store := dataset.NewStore()
	publishOneItem(store)
	fc := newFakeCache()
	svc := service.NewAnalyticsService(engine.New(store), fc)

	first, err := svc.ItemAnalytics(context.Background(), "15.01.2024", "15.01.2024")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, fc.sets)

	second, err := svc.ItemAnalytics(context.Background(), "15.01.2024", "15.01.2024")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fc.sets, "second query must be served from cache")
	assert.Equal(t, 2, fc.gets)
}

func TestItemAnalyticsNewSnapshotMissesCache(t *testing.T) {
	store := dataset.NewStore()
	publishOneItem(store)
	fc := newFakeCache()
	svc := service.NewAnalyticsService(engine.New(store), fc)

	_, err := svc.ItemAnalytics(context.Background(), "15.01.2024", "15.01.2024")
	require.NoError(t, err)

	publishOneItem(store)
	_, err = svc.ItemAnalytics(context.Background(), "15.01.2024", "15.01.2024")
	require.NoError(t, err)

	assert.Equal(t, 2, fc.sets, "a new snapshot version must recompute")
}

func TestItemAnalyticsCacheFailureDegrades(t *testing.T) {
	store := dataset.NewStore()
	publishOneItem(store)
	fc := newFakeCache()
	fc.failGet = true
	svc := service.NewAnalyticsService(engine.New(store), fc)

	rows, err := svc.ItemAnalytics(context.Background(), "15.01.2024", "15.01.2024")

	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestItemAnalyticsErrors(t *testing.T) {
	svc := service.NewAnalyticsService(engine.New(dataset.NewStore()), nil)

	_, err := svc.ItemAnalytics(context.Background(), "bad", "15.01.2024")
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = svc.ItemAnalytics(context.Background(), "15.01.2024", "15.01.2024")
	assert.ErrorIs(t, err, domain.ErrDatasetNotReady)
}
