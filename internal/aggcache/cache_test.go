package aggcache_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/aggcache"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database/common"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/gen"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/report"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/schema"
)

func openTestStore(t *testing.T) database.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "ecomdb_test.db") +
		"?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	store := database.New("sqlite")
	ctx := context.Background()
	require.NoError(t, store.Connect(ctx, dsn))
	t.Cleanup(func() { store.Close() })

	require.NoError(t, schema.Setup(ctx, store, "sqlite"))
	return store
}

// seedExampleDataset loads the small fixture: 3 categories with 2 products
// each, 2 customers with 1 order each, and one detail per order with
// quantity 2 at unit price 1000, for a total revenue of 4000.
func seedExampleDataset(t *testing.T, store database.Store) {
	t.Helper()
	ctx := context.Background()

	g := gen.New(store, gen.Params{BatchSize: 100, Seed: 1})
	_, err := g.GenerateCategories(ctx, 3)
	require.NoError(t, err)
	_, err = g.GenerateProducts(ctx, 3, 2)
	require.NoError(t, err)
	_, err = g.GenerateCustomers(ctx, 2)
	require.NoError(t, err)
	_, err = g.GenerateOrders(ctx, 1)
	require.NoError(t, err)

	// Product 1 belongs to category 1, product 4 to category 2.
	details := [][]interface{}{
		{int64(1), int64(1), int64(2), float64(1000)},
		{int64(2), int64(4), int64(2), float64(1000)},
	}
	require.NoError(t, store.InsertBatch(ctx, "order_details",
		[]string{"order_id", "product_id", "quantity", "unit_price"}, details))
}

func newTestCache(t *testing.T, store database.Store) *aggcache.Cache {
	t.Helper()
	cache, err := aggcache.New(store, aggcache.Builtin(10))
	require.NoError(t, err)
	require.NoError(t, cache.EnsureMetaTable(context.Background()))
	return cache
}

func snapshotRevenueTotal(t *testing.T, res *common.QueryResult) float64 {
	t.Helper()
	var total float64
	for _, row := range res.Rows {
		revenue, err := common.ToFloat64(row["revenue"])
		require.NoError(t, err)
		total += revenue
	}
	return total
}

func TestRefreshMatchesLiveJoin(t *testing.T) {
	store := openTestStore(t)
	seedExampleDataset(t, store)
	cache := newTestCache(t, store)
	ctx := context.Background()

	rows, err := cache.Refresh(ctx, "category_revenue")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)

	snapshot, err := cache.Read(ctx, "category_revenue")
	require.NoError(t, err)
	assert.Equal(t, float64(4000), snapshotRevenueTotal(t, snapshot))

	live, err := report.CategoryRevenueLive(ctx, store)
	require.NoError(t, err)

	byCategory := make(map[string]float64)
	for _, row := range snapshot.Rows {
		revenue, err := common.ToFloat64(row["revenue"])
		require.NoError(t, err)
		byCategory[fmt.Sprintf("%s", row["category_name"])] = revenue
	}
	require.Len(t, live, len(byCategory))
	for _, entry := range live {
		assert.Equal(t, entry.Revenue, byCategory[entry.CategoryName], entry.CategoryName)
	}
	assert.Equal(t, float64(2000), byCategory["Category_1"])
	assert.Equal(t, float64(2000), byCategory["Category_2"])
}

func TestReadBeforeRefresh(t *testing.T) {
	store := openTestStore(t)
	cache := newTestCache(t, store)

	_, err := cache.Read(context.Background(), "category_revenue")
	require.ErrorIs(t, err, aggcache.ErrAggregateNotReady)
}

func TestUnknownAggregate(t *testing.T) {
	store := openTestStore(t)
	cache := newTestCache(t, store)
	ctx := context.Background()

	_, err := cache.Refresh(ctx, "nope")
	require.ErrorIs(t, err, aggcache.ErrNotDefined)
	_, err = cache.Read(ctx, "nope")
	require.ErrorIs(t, err, aggcache.ErrNotDefined)
	require.ErrorIs(t, cache.Invalidate(ctx, "nope"), aggcache.ErrNotDefined)
}

func TestInvalidate(t *testing.T) {
	store := openTestStore(t)
	seedExampleDataset(t, store)
	cache := newTestCache(t, store)
	ctx := context.Background()

	_, err := cache.Refresh(ctx, "category_revenue")
	require.NoError(t, err)
	_, err = cache.Read(ctx, "category_revenue")
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(ctx, "category_revenue"))

	_, err = cache.Read(ctx, "category_revenue")
	require.ErrorIs(t, err, aggcache.ErrAggregateNotReady)
	_, _, err = cache.LastRefreshed(ctx, "category_revenue")
	require.ErrorIs(t, err, aggcache.ErrAggregateNotReady)
}

func TestTopSpendersOrdering(t *testing.T) {
	store := openTestStore(t)
	seedExampleDataset(t, store)
	ctx := context.Background()

	// Give customer 2 a second, larger detail so the ordering is strict.
	require.NoError(t, store.InsertBatch(ctx, "order_details",
		[]string{"order_id", "product_id", "quantity", "unit_price"},
		[][]interface{}{{int64(2), int64(2), int64(1), float64(5000)}}))

	cache := newTestCache(t, store)
	_, err := cache.Refresh(ctx, "top_spenders")
	require.NoError(t, err)

	snapshot, err := cache.Read(ctx, "top_spenders")
	require.NoError(t, err)
	require.Len(t, snapshot.Rows, 2)

	live, err := report.TopSpendersLive(ctx, store, 10)
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, int64(2), live[0].CustomerID)
	assert.Equal(t, float64(7000), live[0].TotalSpent)
	assert.Equal(t, float64(2000), live[1].TotalSpent)
}

func TestLastRefreshedAndAge(t *testing.T) {
	store := openTestStore(t)
	seedExampleDataset(t, store)
	cache := newTestCache(t, store)
	ctx := context.Background()

	before := time.Now()
	_, err := cache.Refresh(ctx, "category_revenue")
	require.NoError(t, err)

	refreshedAt, rows, err := cache.LastRefreshed(ctx, "category_revenue")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)
	assert.WithinDuration(t, before, refreshedAt, 10*time.Second)

	age, err := cache.Age(ctx, "category_revenue")
	require.NoError(t, err)
	assert.Less(t, age, time.Minute)
}

func TestConcurrentReadsSeeWholeSnapshots(t *testing.T) {
	store := openTestStore(t)
	seedExampleDataset(t, store)
	cache := newTestCache(t, store)
	ctx := context.Background()

	_, err := cache.Refresh(ctx, "category_revenue")
	require.NoError(t, err)

	// Grow the dataset so the next refresh changes the snapshot row count
	// from 2 to 3 (a detail for product 5, which is in category 3).
	require.NoError(t, store.InsertBatch(ctx, "order_details",
		[]string{"order_id", "product_id", "quantity", "unit_price"},
		[][]interface{}{{int64(1), int64(5), int64(1), float64(2000)}}))

	stop := make(chan struct{})
	var badCount atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snapshot, err := cache.Read(ctx, "category_revenue")
				if err != nil {
					continue
				}
				if n := len(snapshot.Rows); n != 2 && n != 3 {
					badCount.Add(1)
				}
			}
		}()
	}

	for i := 0; i < 5; i++ {
		_, err := cache.Refresh(ctx, "category_revenue")
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()

	assert.Zero(t, badCount.Load(), "readers observed a partially built snapshot")
}

// slowStore widens the refresh window and counts snapshot builds.
type slowStore struct {
	database.Store
	creates atomic.Int64
}

func (s *slowStore) Exec(ctx context.Context, sql string, args ...interface{}) error {
	if strings.HasPrefix(sql, "CREATE TABLE agg_") {
		s.creates.Add(1)
		time.Sleep(150 * time.Millisecond)
	}
	return s.Store.Exec(ctx, sql, args...)
}

func TestConcurrentRefreshesAreCoalesced(t *testing.T) {
	store := &slowStore{Store: openTestStore(t)}
	seedExampleDataset(t, store.Store)

	cache, err := aggcache.New(store, aggcache.Builtin(10))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, cache.EnsureMetaTable(ctx))

	var wg sync.WaitGroup
	counts := make([]int64, 4)
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counts[i], errs[i] = cache.Refresh(ctx, "category_revenue")
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Equal(t, int64(2), counts[i])
	}
	assert.LessOrEqual(t, store.creates.Load(), int64(2),
		"concurrent refreshes were not coalesced")
}

func TestTryRefreshReportsInProgress(t *testing.T) {
	store := &slowStore{Store: openTestStore(t)}
	seedExampleDataset(t, store.Store)

	cache, err := aggcache.New(store, aggcache.Builtin(10))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, cache.EnsureMetaTable(ctx))

	started := make(chan struct{})
	go func() {
		close(started)
		cache.Refresh(ctx, "category_revenue")
	}()
	<-started
	time.Sleep(50 * time.Millisecond)

	_, err = cache.TryRefresh(ctx, "category_revenue")
	require.ErrorIs(t, err, aggcache.ErrRefreshInProgress)
}

func TestCustomDefinitionsFromYAML(t *testing.T) {
	store := openTestStore(t)
	seedExampleDataset(t, store)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "aggregates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: order_count
  query: SELECT customer_id, COUNT(*) AS orders FROM orders GROUP BY customer_id
`), 0644))

	defs, err := aggcache.LoadDefinitionsFile(path)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	cache, err := aggcache.New(store, append(aggcache.Builtin(10), defs...))
	require.NoError(t, err)
	require.NoError(t, cache.EnsureMetaTable(ctx))

	rows, err := cache.Refresh(ctx, "order_count")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)
}

func TestLoadDefinitionsRejectsBadNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aggregates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: "drop table; --"
  query: SELECT 1
`), 0644))

	_, err := aggcache.LoadDefinitionsFile(path)
	require.Error(t, err)
}
