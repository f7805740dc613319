// Package schema owns the DDL for the five base tables and the secondary
// indexes the read path leans on. The FK graph is fixed:
// categories → products, customers → orders → order_details, with cascade
// deletes from every parent to its children.
package schema

import (
	"context"
	"fmt"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database"
	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database/common"
)

const postgresDDL = `
CREATE TABLE IF NOT EXISTS categories (
	id SERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	id SERIAL PRIMARY KEY,
	category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	name VARCHAR(255) NOT NULL,
	description TEXT,
	price NUMERIC(10,2) NOT NULL,
	stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
	author VARCHAR(255)
);

CREATE TABLE IF NOT EXISTS customers (
	id SERIAL PRIMARY KEY,
	first_name VARCHAR(255) NOT NULL,
	last_name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id SERIAL PRIMARY KEY,
	customer_id INTEGER NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
	placed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS order_details (
	id SERIAL PRIMARY KEY,
	order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	unit_price NUMERIC(10,2) NOT NULL
);
`

const mysqlDDL = `
CREATE TABLE IF NOT EXISTS categories (
	id INT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	id INT AUTO_INCREMENT PRIMARY KEY,
	category_id INT NOT NULL,
	name VARCHAR(255) NOT NULL,
	description TEXT,
	price DECIMAL(10,2) NOT NULL,
	stock_quantity INT NOT NULL DEFAULT 0,
	author VARCHAR(255),
	FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE CASCADE,
	CHECK (stock_quantity >= 0)
);

CREATE TABLE IF NOT EXISTS customers (
	id INT AUTO_INCREMENT PRIMARY KEY,
	first_name VARCHAR(255) NOT NULL,
	last_name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id INT AUTO_INCREMENT PRIMARY KEY,
	customer_id INT NOT NULL,
	placed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS order_details (
	id INT AUTO_INCREMENT PRIMARY KEY,
	order_id INT NOT NULL,
	product_id INT NOT NULL,
	quantity INT NOT NULL,
	unit_price DECIMAL(10,2) NOT NULL,
	FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
	FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE,
	CHECK (quantity > 0)
);
`

const sqliteDDL = `
CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	description TEXT,
	price NUMERIC NOT NULL,
	stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
	author TEXT
);

CREATE TABLE IF NOT EXISTS customers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_id INTEGER NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
	placed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS order_details (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	unit_price NUMERIC NOT NULL
);
`

// BaseTables lists the five base tables in dependency order, parents first.
var BaseTables = []string{"categories", "products", "customers", "orders", "order_details"}

// SecondaryIndexes are the (table, column) pairs the analytical queries
// scan along.
var SecondaryIndexes = [][2]string{
	{"orders", "placed_at"},
	{"products", "stock_quantity"},
}

// DDL returns the CREATE TABLE blob for the given provider.
func DDL(provider string) string {
	switch provider {
	case "mysql":
		return mysqlDDL
	case "sqlite", "sqlite3":
		return sqliteDDL
	default:
		return postgresDDL
	}
}

// Statements returns the DDL split into individually executable statements.
func Statements(provider string) []string {
	return common.SplitStatements(DDL(provider))
}

// Setup creates the base tables and secondary indexes, and clusters the
// orders table along its timestamp index where the engine supports it.
func Setup(ctx context.Context, store database.Store, provider string) error {
	for _, stmt := range Statements(provider) {
		if err := store.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute DDL statement: %w", err)
		}
	}

	for _, idx := range SecondaryIndexes {
		if err := store.CreateIndex(ctx, idx[0], idx[1]); err != nil {
			return fmt.Errorf("failed to create index on %s(%s): %w", idx[0], idx[1], err)
		}
	}

	if err := store.ClusterByIndex(ctx, "orders", "idx_orders_placed_at"); err != nil {
		return fmt.Errorf("failed to cluster orders: %w", err)
	}

	return nil
}
