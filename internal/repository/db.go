package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Options configure the connection pool
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to postgres or sqlite3 and applies the schema
func Open(ctx context.Context, driver, url string, opts Options) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, url)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == "sqlite3" {
		// sqlite serialises writers; a single connection also keeps :memory: databases shared
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the tables if they don't already exist
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := postgresSchema
	if db.DriverName() == "sqlite3" {
		schema = sqliteSchema
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("could not initialize schema: %w", err)
	}
	return nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS customers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	mobile TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS purchases (
	id UUID PRIMARY KEY,
	customer_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	total_price NUMERIC(14,2) NOT NULL,
	down_payment NUMERIC(14,2) NOT NULL DEFAULT 0,
	processing_fee NUMERIC(14,2) NOT NULL DEFAULT 0,
	tds_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	insurance_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	documentation_charges NUMERIC(14,2) NOT NULL DEFAULT 0,
	other_charges NUMERIC(14,2) NOT NULL DEFAULT 0,
	loan_amount NUMERIC(14,2) NOT NULL,
	tenure INTEGER NOT NULL CHECK (tenure > 0),
	interest_rate NUMERIC(7,4) NOT NULL,
	installment_amount NUMERIC(14,2) NOT NULL,
	start_date DATE NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_purchases_status ON purchases(status);

CREATE TABLE IF NOT EXISTS installments (
	id UUID PRIMARY KEY,
	purchase_id UUID NOT NULL REFERENCES purchases(id),
	sequence INTEGER NOT NULL,
	due_date DATE NOT NULL,
	principal_amount NUMERIC(14,2) NOT NULL,
	interest_amount NUMERIC(14,2) NOT NULL,
	total_amount NUMERIC(14,2) NOT NULL,
	late_fee NUMERIC(14,2) NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	paid_date DATE,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (purchase_id, sequence)
);

CREATE TABLE IF NOT EXISTS payments (
	id UUID PRIMARY KEY,
	installment_id UUID NOT NULL REFERENCES installments(id),
	purchase_id UUID NOT NULL REFERENCES purchases(id),
	sequence INTEGER NOT NULL,
	amount_paid NUMERIC(14,2) NOT NULL,
	late_fee_paid NUMERIC(14,2) NOT NULL DEFAULT 0,
	payment_date DATE NOT NULL,
	method TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_payments_purchase ON payments(purchase_id);

CREATE TABLE IF NOT EXISTS certificates (
	id UUID PRIMARY KEY,
	purchase_id UUID NOT NULL UNIQUE REFERENCES purchases(id),
	number TEXT NOT NULL,
	issued_at TIMESTAMPTZ NOT NULL
);
`

// Decimals are kept as TEXT in sqlite so no precision is lost
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS customers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	mobile TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS purchases (
	id TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	total_price TEXT NOT NULL,
	down_payment TEXT NOT NULL DEFAULT '0',
	processing_fee TEXT NOT NULL DEFAULT '0',
	tds_amount TEXT NOT NULL DEFAULT '0',
	insurance_amount TEXT NOT NULL DEFAULT '0',
	documentation_charges TEXT NOT NULL DEFAULT '0',
	other_charges TEXT NOT NULL DEFAULT '0',
	loan_amount TEXT NOT NULL,
	tenure INTEGER NOT NULL CHECK (tenure > 0),
	interest_rate TEXT NOT NULL,
	installment_amount TEXT NOT NULL,
	start_date DATE NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_purchases_status ON purchases(status);

CREATE TABLE IF NOT EXISTS installments (
	id TEXT PRIMARY KEY,
	purchase_id TEXT NOT NULL REFERENCES purchases(id),
	sequence INTEGER NOT NULL,
	due_date DATE NOT NULL,
	principal_amount TEXT NOT NULL,
	interest_amount TEXT NOT NULL,
	total_amount TEXT NOT NULL,
	late_fee TEXT NOT NULL DEFAULT '0',
	status TEXT NOT NULL,
	paid_date DATE,
	created_at TIMESTAMP NOT NULL,
	UNIQUE (purchase_id, sequence)
);

CREATE TABLE IF NOT EXISTS payments (
	id TEXT PRIMARY KEY,
	installment_id TEXT NOT NULL REFERENCES installments(id),
	purchase_id TEXT NOT NULL REFERENCES purchases(id),
	sequence INTEGER NOT NULL,
	amount_paid TEXT NOT NULL,
	late_fee_paid TEXT NOT NULL DEFAULT '0',
	payment_date DATE NOT NULL,
	method TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_payments_purchase ON payments(purchase_id);

CREATE TABLE IF NOT EXISTS certificates (
	id TEXT PRIMARY KEY,
	purchase_id TEXT NOT NULL UNIQUE REFERENCES purchases(id),
	number TEXT NOT NULL,
	issued_at TIMESTAMP NOT NULL
);
`
