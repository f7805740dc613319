// Package gen populates the base tables with deterministic synthetic rows.
// Values are derived from nested loop indices rather than random draws, so
// a run with the same parameters always produces the same dataset and the
// row counts are cheap to verify. Only order-detail unit prices come from a
// seeded random source.
package gen

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database"
)

type Generator struct {
	store  database.Store
	params Params
	log    *logrus.Entry
}

func New(store database.Store, params Params) *Generator {
	return &Generator{
		store:  store,
		params: params,
		log:    logrus.WithField("component", "generator"),
	}
}

// Run generates all five entities in dependency order. Categories and
// customers share no dependency and run concurrently; each child entity
// starts only after every parent batch has committed.
func (g *Generator) Run(ctx context.Context) ([]Result, error) {
	if err := g.params.Validate(); err != nil {
		return nil, err
	}

	var catRes, custRes Result
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		catRes, err = g.GenerateCategories(egCtx, g.params.Categories)
		return err
	})
	eg.Go(func() error {
		var err error
		custRes, err = g.GenerateCustomers(egCtx, g.params.Customers)
		return err
	})
	if err := eg.Wait(); err != nil {
		return []Result{catRes, custRes}, err
	}

	results := []Result{catRes, custRes}

	prodRes, err := g.GenerateProducts(ctx, g.params.Categories, g.params.ProductsPerCategory)
	results = append(results, prodRes)
	if err != nil {
		return results, err
	}

	orderRes, err := g.GenerateOrders(ctx, g.params.OrdersPerCustomer)
	results = append(results, orderRes)
	if err != nil {
		return results, err
	}

	detailRes, err := g.GenerateOrderDetails(ctx, g.params.DetailOuter, g.params.DetailInner, g.params.DetailRepeat)
	results = append(results, detailRes)
	if err != nil {
		return results, err
	}

	return results, nil
}

// GenerateCategories inserts count rows named Category_1 .. Category_count.
func (g *Generator) GenerateCategories(ctx context.Context, count int) (Result, error) {
	w := newBatchWriter(g.store, "categories", []string{"name"}, g.params.BatchSize)

	for i := 1; i <= count; i++ {
		if err := w.add(ctx, []interface{}{fmt.Sprintf("Category_%d", i)}); err != nil {
			return Result{Entity: "categories", Inserted: w.committed}, err
		}
	}
	if err := w.flush(ctx); err != nil {
		return Result{Entity: "categories", Inserted: w.committed}, err
	}

	g.log.WithField("rows", w.committed).Info("categories generated")
	return Result{Entity: "categories", Inserted: w.committed}, nil
}

// GenerateProducts emits one row per (category i, slot j) pair, so the
// total is categories × perCategory. Every category_id references a row
// that already exists.
func (g *Generator) GenerateProducts(ctx context.Context, categories, perCategory int) (Result, error) {
	res := Result{Entity: "products"}

	maxCat, err := g.store.MaxID(ctx, "categories")
	if err != nil {
		return res, err
	}
	if maxCat < int64(categories) {
		return res, &ParentNotFoundError{Entity: "products", Parent: "categories", Need: int64(categories), Have: maxCat}
	}

	columns := []string{"category_id", "name", "description", "price", "stock_quantity", "author"}
	w := newBatchWriter(g.store, "products", columns, g.params.BatchSize)

	for i := 1; i <= categories; i++ {
		for j := 1; j <= perCategory; j++ {
			row := []interface{}{
				int64(i),
				fmt.Sprintf("Name_%d", j),
				fmt.Sprintf("DESCRIPTION_%d", i),
				float64(i * j),
				int64((i * j) / (i + j)),
				fmt.Sprintf("AUTHOR_%d", i),
			}
			if err := w.add(ctx, row); err != nil {
				res.Inserted = w.committed
				return res, err
			}
		}
	}
	if err := w.flush(ctx); err != nil {
		res.Inserted = w.committed
		return res, err
	}

	res.Inserted = w.committed
	g.log.WithField("rows", res.Inserted).Info("products generated")
	return res, nil
}

// GenerateCustomers inserts count independent rows with index-derived
// names, unique emails and a deterministic password hash.
func (g *Generator) GenerateCustomers(ctx context.Context, count int) (Result, error) {
	columns := []string{"first_name", "last_name", "email", "password_hash"}
	w := newBatchWriter(g.store, "customers", columns, g.params.BatchSize)

	for i := 1; i <= count; i++ {
		hash := sha256.Sum256([]byte(fmt.Sprintf("Password_%d", i)))
		row := []interface{}{
			fmt.Sprintf("FirstName_%d", i),
			fmt.Sprintf("LastName_%d", i),
			fmt.Sprintf("customer_%d@example.com", i),
			fmt.Sprintf("%x", hash),
		}
		if err := w.add(ctx, row); err != nil {
			return Result{Entity: "customers", Inserted: w.committed}, err
		}
	}
	if err := w.flush(ctx); err != nil {
		return Result{Entity: "customers", Inserted: w.committed}, err
	}

	g.log.WithField("rows", w.committed).Info("customers generated")
	return Result{Entity: "customers", Inserted: w.committed}, nil
}

// GenerateOrders emits perCustomer orders for every existing customer id,
// all stamped with the generation time.
func (g *Generator) GenerateOrders(ctx context.Context, perCustomer int) (Result, error) {
	res := Result{Entity: "orders"}

	maxCust, err := g.store.MaxID(ctx, "customers")
	if err != nil {
		return res, err
	}
	if maxCust == 0 && perCustomer > 0 {
		return res, &ParentNotFoundError{Entity: "orders", Parent: "customers", Need: 1, Have: 0}
	}

	placedAt := time.Now().UTC()
	w := newBatchWriter(g.store, "orders", []string{"customer_id", "placed_at"}, g.params.BatchSize)

	for i := int64(1); i <= maxCust; i++ {
		for k := 0; k < perCustomer; k++ {
			if err := w.add(ctx, []interface{}{i, placedAt}); err != nil {
				res.Inserted = w.committed
				return res, err
			}
		}
	}
	if err := w.flush(ctx); err != nil {
		res.Inserted = w.committed
		return res, err
	}

	res.Inserted = w.committed
	g.log.WithField("rows", res.Inserted).Info("orders generated")
	return res, nil
}

// GenerateOrderDetails walks the (i, j, k) triple over [1,outer] × [1,inner]
// × [1,repeat]. The derived order_id i*j can land beyond the generated
// order range and the derived quantity j/i can be zero; both are invariant
// violations, so such rows are skipped and counted rather than clamped.
// Unit prices are integer multiples of 1000 in [1000,10000] drawn from the
// seeded random source.
func (g *Generator) GenerateOrderDetails(ctx context.Context, outer, inner, repeat int) (Result, error) {
	res := Result{Entity: "order_details"}

	maxOrder, err := g.store.MaxID(ctx, "orders")
	if err != nil {
		return res, err
	}
	maxProduct, err := g.store.MaxID(ctx, "products")
	if err != nil {
		return res, err
	}
	if outer > 0 && inner > 0 && repeat > 0 {
		if maxOrder == 0 {
			return res, &ParentNotFoundError{Entity: "order_details", Parent: "orders", Need: 1, Have: 0}
		}
		if maxProduct < int64(inner) {
			return res, &ParentNotFoundError{Entity: "order_details", Parent: "products", Need: int64(inner), Have: maxProduct}
		}
	}

	rng := rand.New(rand.NewSource(g.params.Seed))
	columns := []string{"order_id", "product_id", "quantity", "unit_price"}
	w := newBatchWriter(g.store, "order_details", columns, g.params.BatchSize)

	for i := 1; i <= outer; i++ {
		for j := 1; j <= inner; j++ {
			for k := 0; k < repeat; k++ {
				orderID := int64(i) * int64(j)
				quantity := j / i
				unitPrice := (rng.Intn(10) + 1) * 1000

				if orderID > maxOrder || quantity < 1 {
					res.Skipped++
					continue
				}

				row := []interface{}{orderID, int64(j), int64(quantity), float64(unitPrice)}
				if err := w.add(ctx, row); err != nil {
					res.Inserted = w.committed
					return res, err
				}
			}
		}
	}
	if err := w.flush(ctx); err != nil {
		res.Inserted = w.committed
		return res, err
	}

	res.Inserted = w.committed
	g.log.WithFields(logrus.Fields{"rows": res.Inserted, "skipped": res.Skipped}).Info("order details generated")
	return res, nil
}
