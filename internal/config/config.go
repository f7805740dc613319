package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/gen"
)

type Config struct {
	Version    string     `json:"version" mapstructure:"version"`
	Database   Database   `json:"database" mapstructure:"database"`
	Generate   Generate   `json:"generate" mapstructure:"generate"`
	Aggregates Aggregates `json:"aggregates" mapstructure:"aggregates"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

type Generate struct {
	Categories          int   `json:"categories" mapstructure:"categories"`
	ProductsPerCategory int   `json:"products_per_category" mapstructure:"products_per_category"`
	Customers           int   `json:"customers" mapstructure:"customers"`
	OrdersPerCustomer   int   `json:"orders_per_customer" mapstructure:"orders_per_customer"`
	DetailOuter         int   `json:"detail_outer" mapstructure:"detail_outer"`
	DetailInner         int   `json:"detail_inner" mapstructure:"detail_inner"`
	DetailRepeat        int   `json:"detail_repeat" mapstructure:"detail_repeat"`
	BatchSize           int   `json:"batch_size" mapstructure:"batch_size"`
	Seed                int64 `json:"seed" mapstructure:"seed"`
}

type Aggregates struct {
	TopN            int    `json:"top_n" mapstructure:"top_n"`
	DefinitionsFile string `json:"definitions_file,omitempty" mapstructure:"definitions_file"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Set defaults
	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "postgresql"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}
	if cfg.Generate.Categories == 0 {
		cfg.Generate.Categories = 100
	}
	if cfg.Generate.ProductsPerCategory == 0 {
		cfg.Generate.ProductsPerCategory = 1000
	}
	if cfg.Generate.Customers == 0 {
		cfg.Generate.Customers = 1000000
	}
	if cfg.Generate.OrdersPerCustomer == 0 {
		cfg.Generate.OrdersPerCustomer = 5
	}
	if cfg.Generate.DetailOuter == 0 {
		cfg.Generate.DetailOuter = 1000
	}
	if cfg.Generate.DetailInner == 0 {
		cfg.Generate.DetailInner = 1000
	}
	if cfg.Generate.DetailRepeat == 0 {
		cfg.Generate.DetailRepeat = 20
	}
	if cfg.Generate.BatchSize == 0 {
		cfg.Generate.BatchSize = 5000
	}
	if cfg.Generate.Seed == 0 {
		cfg.Generate.Seed = 1
	}
	if cfg.Aggregates.TopN == 0 {
		cfg.Aggregates.TopN = 10
	}

	return &cfg, nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

func (c *Config) Validate() error {
	supportedProviders := []string{"postgresql", "postgres", "pq", "mysql", "sqlite", "sqlite3"}
	supported := false
	for _, provider := range supportedProviders {
		if c.Database.Provider == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v",
			c.Database.Provider, supportedProviders)
	}

	if c.Generate.BatchSize <= 0 {
		return fmt.Errorf("generate.batch_size must be positive")
	}
	if c.Aggregates.TopN <= 0 {
		return fmt.Errorf("aggregates.top_n must be positive")
	}

	return nil
}

// Params maps the configured generation defaults onto generator parameters.
func (c *Config) Params() gen.Params {
	return gen.Params{
		Categories:          c.Generate.Categories,
		ProductsPerCategory: c.Generate.ProductsPerCategory,
		Customers:           c.Generate.Customers,
		OrdersPerCustomer:   c.Generate.OrdersPerCustomer,
		DetailOuter:         c.Generate.DetailOuter,
		DetailInner:         c.Generate.DetailInner,
		DetailRepeat:        c.Generate.DetailRepeat,
		BatchSize:           c.Generate.BatchSize,
		Seed:                c.Generate.Seed,
	}
}
