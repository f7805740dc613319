package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database/common"
)

// Store talks to PostgreSQL through a pgx connection pool. Bulk inserts go
// through COPY, which is the cheapest write path the engine offers.
type Store struct {
	pool *pgxpool.Pool
	qb   squirrel.StatementBuilderType
}

func New() *Store {
	return &Store{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (p *Store) Connect(ctx context.Context, url string) error {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 0
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	p.pool = pool
	return nil
}

func (p *Store) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Store) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Store) Exec(ctx context.Context, sql string, args ...interface{}) error {
	_, err := p.pool.Exec(ctx, sql, args...)
	return err
}

func (p *Store) Query(ctx context.Context, sql string, args ...interface{}) (*common.QueryResult, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescriptions := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescriptions))
	for i, fd := range fieldDescriptions {
		columns[i] = string(fd.Name)
	}

	var results []map[string]interface{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &common.QueryResult{Columns: columns, Rows: results}, nil
}

func (p *Store) InsertBatch(ctx context.Context, table string, columns []string, batch [][]interface{}) error {
	if len(batch) == 0 {
		return nil
	}
	if err := common.ValidateIdentifier(table); err != nil {
		return err
	}
	for _, col := range columns {
		if err := common.ValidateIdentifier(col); err != nil {
			return err
		}
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(batch)); err != nil {
		return fmt.Errorf("failed to copy batch into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

func (p *Store) MaxID(ctx context.Context, table string) (int64, error) {
	if err := common.ValidateIdentifier(table); err != nil {
		return 0, err
	}
	query, _, err := p.qb.Select("COALESCE(MAX(id), 0)").From(table).ToSql()
	if err != nil {
		return 0, err
	}
	var max int64
	if err := p.pool.QueryRow(ctx, query).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to read max id of %s: %w", table, err)
	}
	return max, nil
}

func (p *Store) CountRows(ctx context.Context, table string) (int64, error) {
	if err := common.ValidateIdentifier(table); err != nil {
		return 0, err
	}
	query, _, err := p.qb.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := p.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return count, nil
}

func (p *Store) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`, table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return exists, nil
}

func (p *Store) CreateIndex(ctx context.Context, table, column string) error {
	if err := common.ValidateIdentifier(table); err != nil {
		return err
	}
	if err := common.ValidateIdentifier(column); err != nil {
		return err
	}
	_, err := p.pool.Exec(ctx, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", table, column, table, column))
	return err
}

func (p *Store) ClusterByIndex(ctx context.Context, table, index string) error {
	if err := common.ValidateIdentifier(table); err != nil {
		return err
	}
	if err := common.ValidateIdentifier(index); err != nil {
		return err
	}
	_, err := p.pool.Exec(ctx, fmt.Sprintf("CLUSTER %s USING %s", table, index))
	return err
}

func (p *Store) SwapTable(ctx context.Context, src, dst string) error {
	if err := common.ValidateIdentifier(src); err != nil {
		return err
	}
	if err := common.ValidateIdentifier(dst); err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin swap transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", dst)); err != nil {
		return fmt.Errorf("failed to drop %s: %w", dst, err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", src, dst)); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", src, dst, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit swap: %w", err)
	}
	return nil
}
