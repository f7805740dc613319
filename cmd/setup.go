package cmd

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/aggcache"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/schema"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the base tables, indexes and snapshot metadata",
	Long: `Create the five base tables with their foreign-key cascade
relationships, the secondary indexes the analytical queries rely on, and
the aggregate snapshot metadata table. Safe to run more than once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, store, err := openStore(ctx)
		if err != nil {
			return fail(err)
		}
		defer store.Close()

		color.Cyan("🛠  Creating schema for provider %s...", cfg.Database.Provider)
		if err := schema.Setup(ctx, store, cfg.Database.Provider); err != nil {
			return fail(err)
		}

		cache, err := aggcache.New(store, aggcache.Builtin(cfg.Aggregates.TopN))
		if err != nil {
			return fail(err)
		}
		if err := cache.EnsureMetaTable(ctx); err != nil {
			return fail(err)
		}

		color.Green("✅ Schema, indexes and snapshot metadata are in place")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
