package gen

import (
	"context"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database"
)

// batchWriter accumulates rows for one table and commits them in
// transactional batches. The context is consulted only between batches:
// once cancelled, no further batch is issued, but the in-flight one
// commits or rolls back whole.
type batchWriter struct {
	store     database.Store
	table     string
	columns   []string
	size      int
	rows      [][]interface{}
	committed int64
}

func newBatchWriter(store database.Store, table string, columns []string, size int) *batchWriter {
	return &batchWriter{
		store:   store,
		table:   table,
		columns: columns,
		size:    size,
		rows:    make([][]interface{}, 0, size),
	}
}

func (w *batchWriter) add(ctx context.Context, row []interface{}) error {
	w.rows = append(w.rows, row)
	if len(w.rows) >= w.size {
		return w.flush(ctx)
	}
	return nil
}

func (w *batchWriter) flush(ctx context.Context) error {
	if len(w.rows) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := w.rows
	w.rows = make([][]interface{}, 0, w.size)

	if err := w.store.InsertBatch(ctx, w.table, w.columns, rows); err != nil {
		return w.retryHalved(ctx, rows, err)
	}
	w.committed += int64(len(rows))
	return nil
}

// retryHalved retries a failed batch once, as two half-sized batches. If
// either half fails again the error is fatal for this entity.
func (w *batchWriter) retryHalved(ctx context.Context, rows [][]interface{}, cause error) error {
	mid := len(rows) / 2
	if mid == 0 {
		return &BatchCommitError{Table: w.table, Committed: w.committed, Err: cause}
	}

	for _, half := range [][][]interface{}{rows[:mid], rows[mid:]} {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.store.InsertBatch(ctx, w.table, w.columns, half); err != nil {
			return &BatchCommitError{Table: w.table, Committed: w.committed, Err: err}
		}
		w.committed += int64(len(half))
	}
	return nil
}
