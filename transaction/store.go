package transaction

import (
	"context"

	"github.com/capsulehq/credits/id"
)

// Store is the ledger slice of the unified store interface.
type Store interface {
	// InsertTransaction appends one ledger entry unconditionally.
	InsertTransaction(ctx context.Context, txn *Transaction) error

	// InsertTransactionOnce appends the entry unless a row with the
	// same (wallet_id, source_type, source_id) already exists.
	// Returns false when the entry was a duplicate.
	InsertTransactionOnce(ctx context.Context, txn *Transaction) (bool, error)

	GetTransaction(ctx context.Context, txnID id.TransactionID) (*Transaction, error)
	GetTransactionBySource(ctx context.Context, walletID id.WalletID, sourceType, sourceID string) (*Transaction, error)
	ListTransactions(ctx context.Context, walletID id.WalletID, opts ListOpts) ([]*Transaction, error)
}

// ListOpts narrows a ledger listing. Zero values mean "no filter";
// a zero Limit defaults to the backend's page size.
type ListOpts struct {
	Type   Type
	Metric string
	Limit  int
	Offset int
}
