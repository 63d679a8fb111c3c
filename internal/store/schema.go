package store

import (
	"context"
	"fmt"
)

// schema is applied on startup. Statements are idempotent so a restart
// against an existing database is a no-op.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL,
		can_view_financials BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		product_code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		category TEXT,
		tags TEXT NOT NULL DEFAULT '[]',
		description TEXT,
		length_mm DOUBLE PRECISION,
		width_mm DOUBLE PRECISION,
		thickness_mm DOUBLE PRECISION,
		year TEXT,
		stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		low_stock_threshold INTEGER NOT NULL DEFAULT 5,
		purchase_price DOUBLE PRECISION,
		selling_price DOUBLE PRECISION,
		image_url TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS warehouses (
		id BIGSERIAL PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT,
		is_default_intake BOOLEAN NOT NULL DEFAULT FALSE,
		is_shipping_location BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS product_stocks (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id),
		warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
		quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (product_id, warehouse_id)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_transfers (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id),
		from_warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
		to_warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		notes TEXT,
		created_by_user_id BIGINT NOT NULL REFERENCES users(id),
		transfer_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		company TEXT,
		city TEXT,
		address TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS stock_intakes (
		id BIGSERIAL PRIMARY KEY,
		intake_date DATE NOT NULL,
		supplier_name TEXT NOT NULL,
		notes TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
		created_by_user_id BIGINT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS stock_intake_items (
		id BIGSERIAL PRIMARY KEY,
		stock_intake_id BIGINT NOT NULL REFERENCES stock_intakes(id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		purchase_price_per_unit DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id BIGSERIAL PRIMARY KEY,
		invoice_number TEXT NOT NULL UNIQUE,
		customer_id BIGINT REFERENCES customers(id),
		customer_name TEXT NOT NULL,
		customer_phone TEXT,
		customer_company TEXT,
		sale_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		status TEXT NOT NULL DEFAULT 'pending',
		payment_status TEXT NOT NULL DEFAULT 'unpaid',
		payment_method TEXT,
		total_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		discount_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		amount_paid DOUBLE PRECISION NOT NULL DEFAULT 0,
		notes TEXT,
		created_by_user_id BIGINT NOT NULL REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		id BIGSERIAL PRIMARY KEY,
		sale_id BIGINT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		unit_price DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id BIGSERIAL PRIMARY KEY,
		sale_id BIGINT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
		amount DOUBLE PRECISION NOT NULL CHECK (amount > 0),
		payment_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		payment_method TEXT NOT NULL DEFAULT 'cash',
		notes TEXT,
		created_by_user_id BIGINT NOT NULL REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id BIGSERIAL PRIMARY KEY,
		date DATE NOT NULL,
		category TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		description TEXT,
		stock_intake_id BIGINT REFERENCES stock_intakes(id),
		created_by_user_id BIGINT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS car_variants (
		id BIGSERIAL PRIMARY KEY,
		car_name TEXT,
		name TEXT NOT NULL,
		sunroof_type TEXT NOT NULL DEFAULT 'N/A',
		sunroof_length_in DOUBLE PRECISION,
		sunroof_width_in DOUBLE PRECISION,
		clip_positions TEXT NOT NULL DEFAULT '[]',
		product_id BIGINT REFERENCES products(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS timeline_events (
		id BIGSERIAL PRIMARY KEY,
		event_type TEXT NOT NULL,
		description TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		user_id BIGINT REFERENCES users(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_sale_date ON sales (sale_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_intakes_date ON stock_intakes (intake_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses (date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_product_stocks_product ON product_stocks (product_id)`,
	`CREATE INDEX IF NOT EXISTS idx_car_variants_car ON car_variants (car_name, name)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_expenses_stock_intake
		ON expenses (stock_intake_id) WHERE stock_intake_id IS NOT NULL`,
}

// EnsureSchema creates all tables and indexes if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
