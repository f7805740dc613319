package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/aggcache"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/config"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database"
)

var refreshAll bool

var refreshCmd = &cobra.Command{
	Use:   "refresh [aggregate]",
	Short: "Rebuild aggregate snapshots from the base tables",
	Long: `Recompute a named aggregate with a live join over the base tables
and atomically swap the snapshot in. Readers observe either the previous
snapshot or the new one, never a partial rebuild.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, store, err := openStore(ctx)
		if err != nil {
			return fail(err)
		}
		defer store.Close()

		cache, err := buildCache(cfg, store)
		if err != nil {
			return fail(err)
		}
		if err := cache.EnsureMetaTable(ctx); err != nil {
			return fail(err)
		}

		var names []string
		switch {
		case refreshAll:
			names = cache.Names()
		case len(args) == 1:
			names = args
		default:
			return fail(fmt.Errorf("specify an aggregate name or --all"))
		}

		for _, name := range names {
			rows, err := cache.Refresh(ctx, name)
			if err != nil {
				return fail(err)
			}
			color.Green("✅ %s refreshed (%d rows)", name, rows)
		}
		return nil
	},
}

func buildCache(cfg *config.Config, store database.Store) (*aggcache.Cache, error) {
	defs := aggcache.Builtin(cfg.Aggregates.TopN)
	if cfg.Aggregates.DefinitionsFile != "" {
		extra, err := aggcache.LoadDefinitionsFile(cfg.Aggregates.DefinitionsFile)
		if err != nil {
			return nil, err
		}
		defs = append(defs, extra...)
	}
	return aggcache.New(store, defs)
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().BoolVar(&refreshAll, "all", false, "Refresh every defined aggregate")
}
