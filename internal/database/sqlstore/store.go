package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database/common"
)

// Store is the database/sql implementation shared by mysql, sqlite and
// lib/pq-backed postgres. Batches go in as a single multi-row INSERT
// wrapped in a transaction.
type Store struct {
	db       *sqlx.DB
	provider string
	qb       squirrel.StatementBuilderType
}

func New(provider string) *Store {
	qb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
	if provider == "pq" {
		qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return &Store{provider: provider, qb: qb}
}

func driverName(provider string) string {
	switch provider {
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	case "pq":
		return "postgres"
	default:
		return "sqlite3"
	}
}

func (s *Store) Connect(ctx context.Context, url string) error {
	dsn := url
	if s.provider == "mysql" {
		dsn = strings.TrimPrefix(dsn, "mysql://")
	}

	db, err := sqlx.Open(driverName(s.provider), dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *Store) Query(ctx context.Context, query string, args ...interface{}) (*common.QueryResult, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var results []map[string]interface{}
	for rows.Next() {
		row := make(map[string]interface{}, len(columns))
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &common.QueryResult{Columns: columns, Rows: results}, nil
}

func (s *Store) InsertBatch(ctx context.Context, table string, columns []string, batch [][]interface{}) error {
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

	builder := s.qb.Insert(table).Columns(columns...)
	for _, row := range batch {
		builder = builder.Values(row...)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert batch into %s: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

func (s *Store) MaxID(ctx context.Context, table string) (int64, error) {
	if err := common.ValidateIdentifier(table); err != nil {
		return 0, err
	}
	query, _, err := s.qb.Select("COALESCE(MAX(id), 0)").From(table).ToSql()
	if err != nil {
		return 0, err
	}
	var max sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to read max id of %s: %w", table, err)
	}
	return max.Int64, nil
}

func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	if err := common.ValidateIdentifier(table); err != nil {
		return 0, err
	}
	query, _, err := s.qb.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return count, nil
}

func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	if err := common.ValidateIdentifier(table); err != nil {
		return false, err
	}

	var query string
	switch s.provider {
	case "sqlite", "sqlite3":
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	case "mysql":
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	default:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1"
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, table).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return count > 0, nil
}

func (s *Store) CreateIndex(ctx context.Context, table, column string) error {
	if err := common.ValidateIdentifier(table); err != nil {
		return err
	}
	if err := common.ValidateIdentifier(column); err != nil {
		return err
	}

	stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", table, column, table, column)
	if s.provider == "mysql" {
		// MySQL has no IF NOT EXISTS for indexes; a duplicate is not fatal.
		stmt = fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s (%s)", table, column, table, column)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			if strings.Contains(err.Error(), "Duplicate key name") {
				return nil
			}
			return err
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

// ClusterByIndex is a no-op outside PostgreSQL; mysql (InnoDB) clusters by
// primary key and sqlite has no clustering at all.
func (s *Store) ClusterByIndex(ctx context.Context, table, index string) error {
	return nil
}

func (s *Store) SwapTable(ctx context.Context, src, dst string) error {
	if err := common.ValidateIdentifier(src); err != nil {
		return err
	}
	if err := common.ValidateIdentifier(dst); err != nil {
		return err
	}

	if s.provider == "mysql" {
		// RENAME TABLE is atomic in MySQL; DDL inside a transaction is not.
		exists, err := s.TableExists(ctx, dst)
		if err != nil {
			return err
		}
		if !exists {
			_, err := s.db.ExecContext(ctx, fmt.Sprintf("RENAME TABLE %s TO %s", src, dst))
			return err
		}
		old := dst + "_old"
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", old)); err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("RENAME TABLE %s TO %s, %s TO %s", dst, old, src, dst)); err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE %s", old))
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin swap transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", dst)); err != nil {
		return fmt.Errorf("failed to drop %s: %w", dst, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", src, dst)); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", src, dst, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit swap: %w", err)
	}
	return nil
}
