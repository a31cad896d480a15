// Package plugin provides an extensible plugin system for Credits.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/plan"
	"github.com/capsulehq/credits/subscription"
	"github.com/capsulehq/credits/transaction"
	"github.com/capsulehq/credits/transfer"
	"github.com/capsulehq/credits/wallet"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. The engine is passed as
// interface{} so plugins can type-assert without an import cycle.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Wallet and ledger hooks
// ──────────────────────────────────────────────────

// OnWalletCreated is called when a new wallet is created.
type OnWalletCreated interface {
	Plugin
	OnWalletCreated(ctx context.Context, w *wallet.Wallet) error
}

// OnTransactionRecorded is called after any ledger entry is written.
type OnTransactionRecorded interface {
	Plugin
	OnTransactionRecorded(ctx context.Context, txn *transaction.Transaction) error
}

// OnUsageCharged is called after a successful usage charge.
type OnUsageCharged interface {
	Plugin
	OnUsageCharged(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64, balance *wallet.Balance) error
}

// OnChargeDenied is called when a charge is rejected for insufficient
// allowance.
type OnChargeDenied interface {
	Plugin
	OnChargeDenied(ctx context.Context, walletID id.WalletID, metric wallet.Metric, required, available int64) error
}

// OnFundingApplied is called when an idempotent funding lands a new
// grant.
type OnFundingApplied interface {
	Plugin
	OnFundingApplied(ctx context.Context, txn *transaction.Transaction) error
}

// OnFundingSkipped is called when a funding is dropped as a duplicate.
type OnFundingSkipped interface {
	Plugin
	OnFundingSkipped(ctx context.Context, walletID id.WalletID, sourceType, sourceID string) error
}

// ──────────────────────────────────────────────────
// Transfer hooks
// ──────────────────────────────────────────────────

// OnTransferApplied is called when both legs of a transfer land.
type OnTransferApplied interface {
	Plugin
	OnTransferApplied(ctx context.Context, t *transfer.Transfer) error
}

// OnTransferFailed is called when a transfer ends in the failed state,
// including transfers reconciled by the sweep.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, t *transfer.Transfer, reason string) error
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnDevCreditsApplied is called when a bypassed wallet is topped up to
// a development ceiling.
type OnDevCreditsApplied interface {
	Plugin
	OnDevCreditsApplied(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) error
}

// OnAccessDenied is called when a feature-tier gate rejects.
type OnAccessDenied interface {
	Plugin
	OnAccessDenied(ctx context.Context, featureName, requiredTier, currentTier string) error
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnPlanUpserted is called after an administrative plan upsert.
type OnPlanUpserted interface {
	Plugin
	OnPlanUpserted(ctx context.Context, p *plan.Plan) error
}

// OnSubscriptionCreated is called when a new subscription is stored.
type OnSubscriptionCreated interface {
	Plugin
	OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) error
}

// OnSubscriptionCanceled is called when a subscription is canceled.
type OnSubscriptionCanceled interface {
	Plugin
	OnSubscriptionCanceled(ctx context.Context, sub *subscription.Subscription) error
}
