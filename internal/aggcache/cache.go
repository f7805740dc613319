// Package aggcache maintains named materialized snapshots of aggregate
// queries over the base tables. A snapshot is an ordinary table built with
// CREATE TABLE AS and swapped into place atomically, so readers observe
// either the previous snapshot or the new one, never a partial rebuild.
// Snapshots do not expire on their own; staleness is the caller's to judge
// from the recorded refresh time.
package aggcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database/common"
)

var (
	// ErrAggregateNotReady means Read was called before the first
	// successful refresh. There is no silent live fallback; callers
	// wanting a live answer use the report package explicitly.
	ErrAggregateNotReady = errors.New("aggregate snapshot not ready")

	// ErrRefreshInProgress is informational: another refresh of the same
	// aggregate is already running and will produce the snapshot.
	ErrRefreshInProgress = errors.New("refresh already in progress")

	ErrNotDefined = errors.New("aggregate not defined")
)

const (
	metaTable      = "aggregate_snapshots"
	snapshotPrefix = "agg_"
)

type Cache struct {
	store database.Store
	log   *logrus.Entry

	mu       sync.Mutex
	defs     map[string]Definition
	inflight map[string]*refreshCall
}

type refreshCall struct {
	done chan struct{}
	rows int64
	err  error
}

func New(store database.Store, defs []Definition) (*Cache, error) {
	byName := make(map[string]Definition, len(defs))
	for _, def := range defs {
		if err := common.ValidateIdentifier(def.Name); err != nil {
			return nil, fmt.Errorf("invalid aggregate name %q: %w", def.Name, err)
		}
		if _, dup := byName[def.Name]; dup {
			return nil, fmt.Errorf("duplicate aggregate definition: %s", def.Name)
		}
		byName[def.Name] = def
	}

	return &Cache{
		store:    store,
		log:      logrus.WithField("component", "aggcache"),
		defs:     byName,
		inflight: make(map[string]*refreshCall),
	}, nil
}

// Names returns the defined aggregate names.
func (c *Cache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	return names
}

// EnsureMetaTable creates the snapshot metadata table. Called once at setup.
func (c *Cache) EnsureMetaTable(ctx context.Context) error {
	return c.store.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name VARCHAR(255) PRIMARY KEY,
			refreshed_at BIGINT NOT NULL,
			row_count BIGINT NOT NULL
		)`, metaTable))
}

// Refresh recomputes the named aggregate from the base tables and swaps
// the snapshot in atomically. Concurrent refreshes of the same name are
// coalesced: later callers wait on the in-flight computation and share its
// result. Different aggregates refresh independently.
func (c *Cache) Refresh(ctx context.Context, name string) (int64, error) {
	def, ok := c.definition(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotDefined, name)
	}

	c.mu.Lock()
	if call, running := c.inflight[name]; running {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.rows, call.err
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	c.inflight[name] = call
	c.mu.Unlock()

	call.rows, call.err = c.doRefresh(ctx, def)

	c.mu.Lock()
	delete(c.inflight, name)
	c.mu.Unlock()
	close(call.done)

	return call.rows, call.err
}

// TryRefresh refreshes unless one is already in flight, in which case it
// returns ErrRefreshInProgress instead of waiting.
func (c *Cache) TryRefresh(ctx context.Context, name string) (int64, error) {
	c.mu.Lock()
	_, running := c.inflight[name]
	c.mu.Unlock()
	if running {
		return 0, fmt.Errorf("%w: %s", ErrRefreshInProgress, name)
	}
	return c.Refresh(ctx, name)
}

func (c *Cache) doRefresh(ctx context.Context, def Definition) (int64, error) {
	start := time.Now()
	tmp := snapshotPrefix + def.Name + "_new"
	snap := snapshotPrefix + def.Name

	if err := c.store.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", tmp)); err != nil {
		return 0, fmt.Errorf("failed to drop stale build table: %w", err)
	}
	if err := c.store.Exec(ctx, fmt.Sprintf("CREATE TABLE %s AS %s", tmp, def.Query)); err != nil {
		return 0, fmt.Errorf("failed to materialize %s: %w", def.Name, err)
	}

	rows, err := c.store.CountRows(ctx, tmp)
	if err != nil {
		return 0, err
	}

	if err := c.store.SwapTable(ctx, tmp, snap); err != nil {
		return 0, fmt.Errorf("failed to swap snapshot %s: %w", def.Name, err)
	}

	if err := c.recordRefresh(ctx, def.Name, rows); err != nil {
		return rows, err
	}

	c.log.WithFields(logrus.Fields{
		"aggregate": def.Name,
		"rows":      rows,
		"took":      time.Since(start).Round(time.Millisecond).String(),
	}).Info("aggregate refreshed")
	return rows, nil
}

func (c *Cache) recordRefresh(ctx context.Context, name string, rows int64) error {
	// name passed identifier validation in New, so inlining it is safe.
	if err := c.store.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE name = '%s'", metaTable, name)); err != nil {
		return fmt.Errorf("failed to clear snapshot metadata: %w", err)
	}
	if err := c.store.Exec(ctx, fmt.Sprintf(
		"INSERT INTO %s (name, refreshed_at, row_count) VALUES ('%s', %d, %d)",
		metaTable, name, time.Now().UnixMilli(), rows)); err != nil {
		return fmt.Errorf("failed to record snapshot metadata: %w", err)
	}
	return nil
}

// Read returns the last successfully refreshed snapshot of the named
// aggregate, or ErrAggregateNotReady if none exists yet.
func (c *Cache) Read(ctx context.Context, name string) (*common.QueryResult, error) {
	if _, ok := c.definition(name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDefined, name)
	}

	snap := snapshotPrefix + name
	exists, err := c.store.TableExists(ctx, snap)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAggregateNotReady, name)
	}

	return c.store.Query(ctx, fmt.Sprintf("SELECT * FROM %s", snap))
}

// Invalidate drops the snapshot and its metadata. The next Read fails with
// ErrAggregateNotReady until a refresh rebuilds it.
func (c *Cache) Invalidate(ctx context.Context, name string) error {
	if _, ok := c.definition(name); !ok {
		return fmt.Errorf("%w: %s", ErrNotDefined, name)
	}

	if err := c.store.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", snapshotPrefix+name)); err != nil {
		return fmt.Errorf("failed to drop snapshot %s: %w", name, err)
	}
	return c.store.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE name = '%s'", metaTable, name))
}

// LastRefreshed returns when the named snapshot was last rebuilt and how
// many rows it holds.
func (c *Cache) LastRefreshed(ctx context.Context, name string) (time.Time, int64, error) {
	if _, ok := c.definition(name); !ok {
		return time.Time{}, 0, fmt.Errorf("%w: %s", ErrNotDefined, name)
	}

	res, err := c.store.Query(ctx, fmt.Sprintf(
		"SELECT refreshed_at, row_count FROM %s WHERE name = '%s'", metaTable, name))
	if err != nil {
		return time.Time{}, 0, err
	}
	if len(res.Rows) == 0 {
		return time.Time{}, 0, fmt.Errorf("%w: %s", ErrAggregateNotReady, name)
	}

	refreshedAt, err := common.ToInt64(res.Rows[0]["refreshed_at"])
	if err != nil {
		return time.Time{}, 0, err
	}
	rows, err := common.ToInt64(res.Rows[0]["row_count"])
	if err != nil {
		return time.Time{}, 0, err
	}
	return time.UnixMilli(refreshedAt), rows, nil
}

// Age returns how stale the named snapshot is.
func (c *Cache) Age(ctx context.Context, name string) (time.Duration, error) {
	refreshedAt, _, err := c.LastRefreshed(ctx, name)
	if err != nil {
		return 0, err
	}
	return time.Since(refreshedAt), nil
}

func (c *Cache) definition(name string) (Definition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	def, ok := c.defs[name]
	return def, ok
}
