package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/gen"
)

var (
	genCategories   int
	genPerCategory  int
	genCustomers    int
	genPerCustomer  int
	genDetailOuter  int
	genDetailInner  int
	genDetailRepeat int
	genBatchSize    int
	genSeed         int64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the synthetic dataset in dependency order",
	Long: `Generate deterministic synthetic rows for all five entities,
parents before children, in transactional batches. Interrupting the run
(Ctrl-C) stops after the in-flight batch; committed batches stay.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, store, err := openStore(ctx)
		if err != nil {
			return fail(err)
		}
		defer store.Close()

		params := cfg.Params()
		if cmd.Flags().Changed("categories") {
			params.Categories = genCategories
		}
		if cmd.Flags().Changed("products-per-category") {
			params.ProductsPerCategory = genPerCategory
		}
		if cmd.Flags().Changed("customers") {
			params.Customers = genCustomers
		}
		if cmd.Flags().Changed("orders-per-customer") {
			params.OrdersPerCustomer = genPerCustomer
		}
		if cmd.Flags().Changed("detail-outer") {
			params.DetailOuter = genDetailOuter
		}
		if cmd.Flags().Changed("detail-inner") {
			params.DetailInner = genDetailInner
		}
		if cmd.Flags().Changed("detail-repeat") {
			params.DetailRepeat = genDetailRepeat
		}
		if cmd.Flags().Changed("batch") {
			params.BatchSize = genBatchSize
		}
		if cmd.Flags().Changed("seed") {
			params.Seed = genSeed
		}

		color.Cyan("🌱 Generating dataset (batch size %d)...", params.BatchSize)

		results, err := gen.New(store, params).Run(ctx)
		for _, res := range results {
			if res.Skipped > 0 {
				color.Yellow("  %-14s %12d rows inserted, %d invariant-violating rows skipped",
					res.Entity, res.Inserted, res.Skipped)
			} else {
				color.Green("  %-14s %12d rows inserted", res.Entity, res.Inserted)
			}
		}

		if err != nil {
			if errors.Is(err, context.Canceled) {
				color.Yellow("⚠️  Generation cancelled; committed batches were kept")
				return nil
			}
			return fail(err)
		}

		color.Green("✅ Dataset generation completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().IntVar(&genCategories, "categories", 0, "Number of categories")
	generateCmd.Flags().IntVar(&genPerCategory, "products-per-category", 0, "Product slots per category")
	generateCmd.Flags().IntVar(&genCustomers, "customers", 0, "Number of customers")
	generateCmd.Flags().IntVar(&genPerCustomer, "orders-per-customer", 0, "Orders per customer")
	generateCmd.Flags().IntVar(&genDetailOuter, "detail-outer", 0, "Order-detail outer loop bound")
	generateCmd.Flags().IntVar(&genDetailInner, "detail-inner", 0, "Order-detail inner loop bound")
	generateCmd.Flags().IntVar(&genDetailRepeat, "detail-repeat", 0, "Order-detail repetitions per index pair")
	generateCmd.Flags().IntVar(&genBatchSize, "batch", 0, "Rows per transactional batch")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "Seed for the unit-price random source")
}
