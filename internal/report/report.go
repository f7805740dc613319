// Package report computes aggregates live, with full joins over the base
// tables. It is the explicit non-cached path: callers who need a
// guaranteed-fresh answer come here, everyone else reads the snapshot
// cache. Tests also use it to check that snapshots match live results.
package report

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database/common"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/schema"
)

type CategoryRevenue struct {
	CategoryName string
	Revenue      float64
}

type Spender struct {
	CustomerID int64
	FirstName  string
	LastName   string
	TotalSpent float64
}

var qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// CategoryRevenueLive joins categories, products, orders and order_details
// and sums unit_price * quantity per category.
func CategoryRevenueLive(ctx context.Context, store database.Store) ([]CategoryRevenue, error) {
	query, _, err := qb.
		Select("c.name AS category_name", "SUM(od.unit_price * od.quantity) AS revenue").
		From("categories c").
		Join("products p ON p.category_id = c.id").
		Join("order_details od ON od.product_id = p.id").
		Join("orders o ON o.id = od.order_id").
		GroupBy("c.name").
		ToSql()
	if err != nil {
		return nil, err
	}

	res, err := store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to compute live category revenue: %w", err)
	}

	out := make([]CategoryRevenue, 0, len(res.Rows))
	for _, row := range res.Rows {
		revenue, err := common.ToFloat64(row["revenue"])
		if err != nil {
			return nil, err
		}
		out = append(out, CategoryRevenue{
			CategoryName: fmt.Sprintf("%s", row["category_name"]),
			Revenue:      revenue,
		})
	}
	return out, nil
}

// TopSpendersLive returns the n customers with the highest total spend.
func TopSpendersLive(ctx context.Context, store database.Store, n int) ([]Spender, error) {
	query, _, err := qb.
		Select("cu.id AS customer_id", "cu.first_name", "cu.last_name",
			"SUM(od.unit_price * od.quantity) AS total_spent").
		From("customers cu").
		Join("orders o ON o.customer_id = cu.id").
		Join("order_details od ON od.order_id = o.id").
		GroupBy("cu.id", "cu.first_name", "cu.last_name").
		OrderBy("total_spent DESC").
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, err
	}

	res, err := store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to compute live top spenders: %w", err)
	}

	out := make([]Spender, 0, len(res.Rows))
	for _, row := range res.Rows {
		id, err := common.ToInt64(row["customer_id"])
		if err != nil {
			return nil, err
		}
		spent, err := common.ToFloat64(row["total_spent"])
		if err != nil {
			return nil, err
		}
		out = append(out, Spender{
			CustomerID: id,
			FirstName:  fmt.Sprintf("%s", row["first_name"]),
			LastName:   fmt.Sprintf("%s", row["last_name"]),
			TotalSpent: spent,
		})
	}
	return out, nil
}

// TableCounts returns the row count of every base table, in schema order.
func TableCounts(ctx context.Context, store database.Store) (map[string]int64, error) {
	counts := make(map[string]int64, len(schema.BaseTables))
	for _, table := range schema.BaseTables {
		count, err := store.CountRows(ctx, table)
		if err != nil {
			return nil, err
		}
		counts[table] = count
	}
	return counts, nil
}
