package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/aggcache"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/report"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/schema"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show base table row counts and snapshot ages",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, store, err := openStore(ctx)
		if err != nil {
			return fail(err)
		}
		defer store.Close()

		counts, err := report.TableCounts(ctx, store)
		if err != nil {
			return fail(err)
		}

		color.Cyan("📊 Base tables")
		for _, table := range schema.BaseTables {
			color.White("  %-14s %12d rows", table, counts[table])
		}

		cache, err := buildCache(cfg, store)
		if err != nil {
			return fail(err)
		}

		color.Cyan("📸 Aggregate snapshots")
		for _, name := range cache.Names() {
			refreshedAt, rows, err := cache.LastRefreshed(ctx, name)
			switch {
			case errors.Is(err, aggcache.ErrAggregateNotReady):
				color.Yellow("  %-18s not refreshed yet", name)
			case err != nil:
				return fail(err)
			default:
				color.White("  %-18s %8d rows, refreshed %s ago",
					name, rows, time.Since(refreshedAt).Round(time.Second))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
