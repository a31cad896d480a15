package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Credits store (SQLite).
var Migrations = migrate.NewGroup("credits")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_credits_wallets",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS credits_wallets (
    id           TEXT PRIMARY KEY,
    owner_type   TEXT NOT NULL DEFAULT '',
    owner_id     TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_credits_wallets_owner ON credits_wallets (owner_type, owner_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS credits_wallets`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_credits_wallet_balances",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS credits_wallet_balances (
    wallet_id       TEXT PRIMARY KEY,
    compute_granted INTEGER NOT NULL DEFAULT 0,
    compute_used    INTEGER NOT NULL DEFAULT 0,
    storage_granted INTEGER NOT NULL DEFAULT 0,
    storage_used    INTEGER NOT NULL DEFAULT 0,
    feature_tier    TEXT,
    model_tier      TEXT,
    period_start    TEXT,
    period_end      TEXT,
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS credits_wallet_balances`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_credits_wallet_transactions",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS credits_wallet_transactions (
    id          TEXT PRIMARY KEY,
    wallet_id   TEXT NOT NULL DEFAULT '',
    type        TEXT NOT NULL DEFAULT '',
    metric      TEXT NOT NULL DEFAULT '',
    amount      INTEGER NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT '',
    source_type TEXT NOT NULL DEFAULT '',
    source_id   TEXT NOT NULL DEFAULT '',
    metadata    TEXT NOT NULL DEFAULT '{}',
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_credits_txns_wallet ON credits_wallet_transactions (wallet_id, created_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_credits_txns_source ON credits_wallet_transactions (wallet_id, source_type, source_id) WHERE source_type != '' AND source_id != '';
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS credits_wallet_transactions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_credits_wallet_transfers",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS credits_wallet_transfers (
    id             TEXT PRIMARY KEY,
    from_wallet_id TEXT NOT NULL DEFAULT '',
    to_wallet_id   TEXT NOT NULL DEFAULT '',
    metric         TEXT NOT NULL DEFAULT '',
    amount         INTEGER NOT NULL DEFAULT 0,
    message        TEXT NOT NULL DEFAULT '',
    created_by     TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL DEFAULT 'pending',
    failure_reason TEXT NOT NULL DEFAULT '',
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_credits_transfers_status ON credits_wallet_transfers (status, updated_at);
CREATE INDEX IF NOT EXISTS idx_credits_transfers_from ON credits_wallet_transfers (from_wallet_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS credits_wallet_transfers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_credits_billing_plans",
			Version: "20240101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS credits_billing_plans (
    id                     TEXT PRIMARY KEY,
    code                   TEXT NOT NULL DEFAULT '',
    scope                  TEXT NOT NULL DEFAULT 'user',
    name                   TEXT NOT NULL DEFAULT '',
    price_cents            INTEGER,
    price_currency         TEXT NOT NULL DEFAULT '',
    billing_interval       TEXT NOT NULL DEFAULT 'month',
    included_compute       INTEGER NOT NULL DEFAULT 0,
    included_storage_bytes INTEGER NOT NULL DEFAULT 0,
    features               TEXT NOT NULL DEFAULT '{}',
    active                 INTEGER NOT NULL DEFAULT 1,
    stripe_price_id        TEXT NOT NULL DEFAULT '',
    created_at             TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at             TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_credits_plans_code ON credits_billing_plans (code);
CREATE INDEX IF NOT EXISTS idx_credits_plans_scope ON credits_billing_plans (scope, active);
CREATE INDEX IF NOT EXISTS idx_credits_plans_stripe_price ON credits_billing_plans (stripe_price_id) WHERE stripe_price_id != '';
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS credits_billing_plans`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_credits_subscriptions",
			Version: "20240101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS credits_subscriptions (
    id                     TEXT PRIMARY KEY,
    wallet_id              TEXT NOT NULL DEFAULT '',
    plan_id                TEXT NOT NULL DEFAULT '',
    status                 TEXT NOT NULL DEFAULT 'active',
    current_period_end     TEXT,
    cancel_at_period_end   INTEGER NOT NULL DEFAULT 0,
    stripe_subscription_id TEXT NOT NULL DEFAULT '',
    stripe_customer_id     TEXT NOT NULL DEFAULT '',
    metadata               TEXT NOT NULL DEFAULT '{}',
    created_at             TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at             TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_credits_subs_stripe ON credits_subscriptions (stripe_subscription_id) WHERE stripe_subscription_id != '';
CREATE INDEX IF NOT EXISTS idx_credits_subs_wallet ON credits_subscriptions (wallet_id, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS credits_subscriptions`)
				return err
			},
		},
	)
}
