package wallet

import (
	"context"

	"github.com/capsulehq/credits/id"
)

// Store is the wallet/balance slice of the unified store interface.
type Store interface {
	CreateWallet(ctx context.Context, w *Wallet) error
	GetWallet(ctx context.Context, walletID id.WalletID) (*Wallet, error)
	GetWalletByOwner(ctx context.Context, ownerType OwnerType, ownerID string) (*Wallet, error)
	UpdateWalletDisplayName(ctx context.Context, walletID id.WalletID, displayName string) error

	CreateBalance(ctx context.Context, b *Balance) error
	GetBalance(ctx context.Context, walletID id.WalletID) (*Balance, error)
	ApplyBalanceDelta(ctx context.Context, walletID id.WalletID, delta BalanceDelta) (*Balance, error)

	// ChargeUsage atomically increments the used counter, guarded by
	// granted - used >= amount. A guard failure returns an
	// insufficient-funds error carrying the current available.
	ChargeUsage(ctx context.Context, walletID id.WalletID, metric Metric, amount int64) (*Balance, error)

	// DebitGrant atomically decrements the granted counter under the
	// same guard. CreditGrant increments it unconditionally.
	DebitGrant(ctx context.Context, walletID id.WalletID, metric Metric, amount int64) (*Balance, error)
	CreditGrant(ctx context.Context, walletID id.WalletID, metric Metric, amount int64) (*Balance, error)
}
