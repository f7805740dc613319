package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/config"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database"
)

var (
	cfgFile string
	verbose bool
	Version = "1.0.0"
)

var rootCmd = &cobra.Command{
	Use:   "ecomdb",
	Short: "Populate and query a large-scale e-commerce database",
	Long: `
ecomdb generates deterministic, referentially-valid synthetic datasets
(categories, products, customers, orders, order details) in transactional
batches, and maintains materialized aggregate snapshots (category revenue,
top spenders) that are refreshed on demand instead of recomputed per read.

Database Support:
- PostgreSQL (native pgx, COPY bulk loading, table clustering)
- MySQL
- SQLite`,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("ecomdb version %s\n", Version)
			os.Exit(0)
		}
		cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// openStore loads the config, connects the configured store and hands both
// back. The caller owns the Close.
func openStore(ctx context.Context) (*config.Config, database.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	dbURL, err := cfg.GetDatabaseURL()
	if err != nil {
		return nil, nil, err
	}

	store := database.New(cfg.Database.Provider)
	if err := store.Connect(ctx, dbURL); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return cfg, store, nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ecomdb.config.json)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("ecomdb.config")
	}

	viper.AutomaticEnv()
	viper.ReadInConfig()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func fail(err error) error {
	color.Red("❌ %v", err)
	return err
}
