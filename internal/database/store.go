package database

import (
	"context"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database/common"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database/postgres"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database/sqlstore"
)

// Store is the narrow surface the generator and the aggregate cache need
// from a relational engine. Everything else about the engine (planner,
// storage, vacuuming) is its own business.
type Store interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	Exec(ctx context.Context, sql string, args ...interface{}) error
	Query(ctx context.Context, sql string, args ...interface{}) (*common.QueryResult, error)

	// InsertBatch writes all rows in a single transaction. Either every row
	// in the batch commits or none do.
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]interface{}) error

	MaxID(ctx context.Context, table string) (int64, error)
	CountRows(ctx context.Context, table string) (int64, error)
	TableExists(ctx context.Context, table string) (bool, error)

	CreateIndex(ctx context.Context, table, column string) error
	ClusterByIndex(ctx context.Context, table, index string) error

	// SwapTable replaces dst with src so that concurrent readers observe
	// either the old dst or the renamed src, never an intermediate state.
	SwapTable(ctx context.Context, src, dst string) error
}

// New returns a store for the given provider. PostgreSQL gets the native
// pgx implementation; mysql, sqlite and lib/pq-backed postgres share the
// database/sql implementation.
func New(provider string) Store {
	switch provider {
	case "postgresql", "postgres":
		return postgres.New()
	case "mysql", "sqlite", "sqlite3", "pq":
		return sqlstore.New(provider)
	default:
		return postgres.New()
	}
}
