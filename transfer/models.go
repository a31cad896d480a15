package transfer

import (
	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/types"
	"github.com/capsulehq/credits/wallet"
)

// Status tracks a transfer through its saga. A transfer starts pending,
// moves to debited once the source grant has been taken, and ends
// applied or failed. Rows stuck in pending or debited past a timeout
// are reconciled by the sweep worker.
type Status string

const (
	StatusPending Status = "pending"
	StatusDebited Status = "debited"
	StatusApplied Status = "applied"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusApplied || s == StatusFailed
}

// Transfer records one movement of allowance between two wallets. An
// applied transfer is always accompanied by exactly two ledger entries
// (transfer_out on the source, transfer_in on the destination) that
// reference the transfer id as their source id.
type Transfer struct {
	types.Entity
	ID            id.TransferID `json:"id"`
	FromWalletID  id.WalletID   `json:"from_wallet_id"`
	ToWalletID    id.WalletID   `json:"to_wallet_id"`
	Metric        wallet.Metric `json:"metric"`
	Amount        int64         `json:"amount"`
	Message       string        `json:"message,omitempty"`
	CreatedBy     string        `json:"created_by,omitempty"`
	Status        Status        `json:"status"`
	FailureReason string        `json:"failure_reason,omitempty"`
}
