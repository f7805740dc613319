package gen

import "fmt"

// Params sizes a generation run. Counts follow the nested-index scheme:
// products are Categories × ProductsPerCategory, orders are
// customers × OrdersPerCustomer, and order details iterate
// DetailOuter × DetailInner × DetailRepeat index triples.
type Params struct {
	Categories          int
	ProductsPerCategory int
	Customers           int
	OrdersPerCustomer   int
	DetailOuter         int
	DetailInner         int
	DetailRepeat        int
	BatchSize           int
	Seed                int64
}

func (p Params) Validate() error {
	if p.Categories < 0 || p.ProductsPerCategory < 0 || p.Customers < 0 ||
		p.OrdersPerCustomer < 0 || p.DetailOuter < 0 || p.DetailInner < 0 || p.DetailRepeat < 0 {
		return fmt.Errorf("generation counts cannot be negative")
	}
	if p.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", p.BatchSize)
	}
	return nil
}

// Result reports one entity's generation outcome. Skipped counts rows that
// would have violated a positivity or foreign-key invariant; they are never
// committed and never coerced.
type Result struct {
	Entity   string
	Inserted int64
	Skipped  int64
}

// ParentNotFoundError is returned when a dependent entity is generated
// before its parent id range exists in the store.
type ParentNotFoundError struct {
	Entity string
	Parent string
	Need   int64
	Have   int64
}

func (e *ParentNotFoundError) Error() string {
	return fmt.Sprintf("cannot generate %s: parent table %s has max id %d, need %d",
		e.Entity, e.Parent, e.Have, e.Need)
}

// BatchCommitError is returned after the reduced-size retry of a failed
// batch also fails. Committed tells the caller how many rows of this entity
// made it in, so a rerun can resume instead of restarting from zero.
type BatchCommitError struct {
	Table     string
	Committed int64
	Err       error
}

func (e *BatchCommitError) Error() string {
	return fmt.Sprintf("batch commit failed on %s after %d committed rows: %v",
		e.Table, e.Committed, e.Err)
}

func (e *BatchCommitError) Unwrap() error { return e.Err }
