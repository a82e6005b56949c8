package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is the portable subset of the sales history tables; the ETL owns them in production
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id   BIGINT PRIMARY KEY,
		code VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS warehouses (
		id   BIGINT PRIMARY KEY,
		code VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id           BIGINT PRIMARY KEY,
		warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
		number       VARCHAR(64),
		sold_at      TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sales_lines (
		id         BIGINT PRIMARY KEY,
		sale_id    BIGINT NOT NULL REFERENCES sales(id),
		product_id BIGINT NOT NULL REFERENCES products(id),
		quantity   NUMERIC(18,3) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS replenishment_policies (
		id              BIGINT PRIMARY KEY,
		product_id      BIGINT NOT NULL UNIQUE REFERENCES products(id),
		lead_time_weeks INTEGER NOT NULL,
		coverage_weeks  INTEGER NOT NULL,
		service_level   NUMERIC(5,4) NOT NULL,
		lot_minimum     INTEGER,
		order_multiple  INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_sold_at ON sales (sold_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_lines_sale_id ON sales_lines (sale_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_lines_product_id ON sales_lines (product_id)`,
}

// EnsureSchema creates the tables and indexes that do not exist yet
func EnsureSchema(ctx context.Context, db *DB) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("error applying schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}
