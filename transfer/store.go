package transfer

import (
	"context"
	"time"

	"github.com/capsulehq/credits/id"
)

// Store is the transfer slice of the unified store interface.
type Store interface {
	CreateTransfer(ctx context.Context, t *Transfer) error
	GetTransfer(ctx context.Context, transferID id.TransferID) (*Transfer, error)

	// UpdateTransferStatus transitions a transfer from one status to
	// another. The transition only succeeds when the row is still in
	// the from status; a lost race returns ErrTransferConflict.
	UpdateTransferStatus(ctx context.Context, transferID id.TransferID, from, to Status, failureReason string) error

	// ListStaleTransfers returns non-terminal transfers last updated
	// before the cutoff, oldest first.
	ListStaleTransfers(ctx context.Context, cutoff time.Time, limit int) ([]*Transfer, error)
}
