package schema_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/gen"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/schema"
)

func TestStatementsPerProvider(t *testing.T) {
	for _, provider := range []string{"postgres", "mysql", "sqlite"} {
		stmts := schema.Statements(provider)
		require.Len(t, stmts, len(schema.BaseTables), provider)
		for _, stmt := range stmts {
			assert.True(t, strings.HasPrefix(stmt, "CREATE TABLE"), provider)
		}

		ddl := schema.DDL(provider)
		assert.Contains(t, ddl, "ON DELETE CASCADE", provider)
		assert.Contains(t, ddl, "quantity > 0", provider)
		assert.Contains(t, ddl, "stock_quantity >= 0", provider)
	}
}

func TestSetupAndCascadeDelete(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "schema_test.db") + "?_foreign_keys=on"
	store := database.New("sqlite")
	require.NoError(t, store.Connect(ctx, dsn))
	defer store.Close()

	require.NoError(t, schema.Setup(ctx, store, "sqlite"))

	// Setup is idempotent.
	require.NoError(t, schema.Setup(ctx, store, "sqlite"))

	g := gen.New(store, gen.Params{BatchSize: 50, Seed: 1})
	_, err := g.GenerateCategories(ctx, 2)
	require.NoError(t, err)
	_, err = g.GenerateProducts(ctx, 2, 3)
	require.NoError(t, err)
	_, err = g.GenerateCustomers(ctx, 2)
	require.NoError(t, err)
	_, err = g.GenerateOrders(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, store.InsertBatch(ctx, "order_details",
		[]string{"order_id", "product_id", "quantity", "unit_price"},
		[][]interface{}{
			{int64(1), int64(1), int64(1), float64(1000)},
			{int64(2), int64(4), int64(1), float64(1000)},
		}))

	// Deleting category 1 must cascade to its products and their details.
	require.NoError(t, store.Exec(ctx, "DELETE FROM categories WHERE id = 1"))

	products, err := store.CountRows(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, int64(3), products)

	details, err := store.CountRows(ctx, "order_details")
	require.NoError(t, err)
	assert.Equal(t, int64(1), details)

	// Orders and customers are untouched by the category cascade.
	orders, err := store.CountRows(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(2), orders)
}
