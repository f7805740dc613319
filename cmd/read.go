package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/aggcache"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database/common"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/report"
)

var readLive bool

var readCmd = &cobra.Command{
	Use:   "read <aggregate>",
	Short: "Read an aggregate snapshot (or compute it live with --live)",
	Long: `Read the last successfully refreshed snapshot of a named
aggregate. Fails if no snapshot exists yet; run 'ecomdb refresh' first, or
pass --live to compute the answer with a full join over the base tables.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		name := args[0]

		cfg, store, err := openStore(ctx)
		if err != nil {
			return fail(err)
		}
		defer store.Close()

		if readLive {
			return runLive(ctx, store, name, cfg.Aggregates.TopN)
		}

		cache, err := buildCache(cfg, store)
		if err != nil {
			return fail(err)
		}

		result, err := cache.Read(ctx, name)
		if err != nil {
			if errors.Is(err, aggcache.ErrAggregateNotReady) {
				color.Yellow("⚠️  No snapshot for %s yet — run 'ecomdb refresh %s' or pass --live", name, name)
			}
			return fail(err)
		}

		if age, err := cache.Age(ctx, name); err == nil {
			color.Cyan("📸 Snapshot of %s (age %s)", name, age.Round(time.Second))
		}
		printResult(result)
		return nil
	},
}

func runLive(ctx context.Context, store database.Store, name string, topN int) error {
	switch name {
	case "category_revenue":
		rows, err := report.CategoryRevenueLive(ctx, store)
		if err != nil {
			return fail(err)
		}
		for _, row := range rows {
			fmt.Printf("%-30s %14.2f\n", row.CategoryName, row.Revenue)
		}
	case "top_spenders":
		rows, err := report.TopSpendersLive(ctx, store, topN)
		if err != nil {
			return fail(err)
		}
		for _, row := range rows {
			fmt.Printf("%6d  %-20s %-20s %14.2f\n", row.CustomerID, row.FirstName, row.LastName, row.TotalSpent)
		}
	default:
		return fail(fmt.Errorf("no live computation for aggregate %q", name))
	}
	return nil
}

func printResult(result *common.QueryResult) {
	fmt.Println(strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		parts := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			parts[i] = fmt.Sprintf("%v", row[col])
		}
		fmt.Println(strings.Join(parts, "\t"))
	}
	fmt.Printf("(%d rows)\n", len(result.Rows))
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().BoolVar(&readLive, "live", false, "Bypass the cache and compute from base tables")
}
