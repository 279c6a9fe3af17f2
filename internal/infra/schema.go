package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		currency TEXT NOT NULL,
		balance NUMERIC(30, 10) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, currency)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		type TEXT NOT NULL,
		crypto_currency TEXT NOT NULL,
		fiat_currency TEXT NOT NULL,
		amount NUMERIC(30, 10) NOT NULL,
		price_per_unit NUMERIC(30, 10) NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		from_wallet_id UUID NOT NULL,
		to_wallet_id UUID NOT NULL,
		order_id UUID,
		amount NUMERIC(30, 10) NOT NULL,
		currency TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS external_wallets (
		address TEXT NOT NULL,
		currency TEXT NOT NULL,
		PRIMARY KEY (address, currency)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wallets_user ON wallets (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_open ON orders (status, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_wallets ON transactions (from_wallet_id, to_wallet_id)`,
}

// EnsureSchema creates the tables and indexes the ledger expects. Every
// statement is idempotent so repeated startup runs are safe.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
