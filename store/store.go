// Package store defines the unified storage interface every Credits
// backend implements.
package store

import (
	"context"
	"time"

	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/plan"
	"github.com/capsulehq/credits/subscription"
	"github.com/capsulehq/credits/transaction"
	"github.com/capsulehq/credits/transfer"
	"github.com/capsulehq/credits/wallet"
)

// Store is the unified storage interface for all Credits entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Backends must make the balance primitives (ChargeUsage, DebitGrant,
// CreditGrant, ApplyBalanceDelta) atomic single statements; the engine
// never does read-modify-write on counters.
type Store interface {
	// Wallet methods
	CreateWallet(ctx context.Context, w *wallet.Wallet) error
	GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error)
	GetWalletByOwner(ctx context.Context, ownerType wallet.OwnerType, ownerID string) (*wallet.Wallet, error)
	UpdateWalletDisplayName(ctx context.Context, walletID id.WalletID, displayName string) error

	// Balance methods
	CreateBalance(ctx context.Context, b *wallet.Balance) error
	GetBalance(ctx context.Context, walletID id.WalletID) (*wallet.Balance, error)
	ApplyBalanceDelta(ctx context.Context, walletID id.WalletID, delta wallet.BalanceDelta) (*wallet.Balance, error)
	ChargeUsage(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) (*wallet.Balance, error)
	DebitGrant(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) (*wallet.Balance, error)
	CreditGrant(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) (*wallet.Balance, error)

	// Transaction methods
	InsertTransaction(ctx context.Context, txn *transaction.Transaction) error
	InsertTransactionOnce(ctx context.Context, txn *transaction.Transaction) (bool, error)
	GetTransaction(ctx context.Context, txnID id.TransactionID) (*transaction.Transaction, error)
	GetTransactionBySource(ctx context.Context, walletID id.WalletID, sourceType, sourceID string) (*transaction.Transaction, error)
	ListTransactions(ctx context.Context, walletID id.WalletID, opts transaction.ListOpts) ([]*transaction.Transaction, error)

	// Transfer methods
	CreateTransfer(ctx context.Context, t *transfer.Transfer) error
	GetTransfer(ctx context.Context, transferID id.TransferID) (*transfer.Transfer, error)
	UpdateTransferStatus(ctx context.Context, transferID id.TransferID, from, to transfer.Status, failureReason string) error
	ListStaleTransfers(ctx context.Context, cutoff time.Time, limit int) ([]*transfer.Transfer, error)

	// Plan methods
	UpsertPlan(ctx context.Context, p *plan.Plan) (*plan.Plan, error)
	GetPlanByCode(ctx context.Context, code string) (*plan.Plan, error)
	GetPlanByStripePrice(ctx context.Context, stripePriceID string) (*plan.Plan, error)
	ListPlans(ctx context.Context, scope plan.Scope) ([]*plan.Plan, error)

	// Subscription methods
	UpsertSubscription(ctx context.Context, s *subscription.Subscription) (*subscription.Subscription, error)
	GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error)
	GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*subscription.Subscription, error)
	GetActiveSubscription(ctx context.Context, walletID id.WalletID) (*subscription.Subscription, error)
	UpdateSubscription(ctx context.Context, s *subscription.Subscription) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
