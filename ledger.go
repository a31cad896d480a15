package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/transaction"
	"github.com/capsulehq/credits/transfer"
	"github.com/capsulehq/credits/types"
	"github.com/capsulehq/credits/wallet"
)

// ──────────────────────────────────────────────────
// Wallet lifecycle
// ──────────────────────────────────────────────────

// EnsureWallet is an idempotent get-or-create for the one wallet per
// (owner type, owner id) pair. A non-empty displayName that differs
// from the stored one is updated best-effort; an update failure is
// logged and the pre-update record returned.
func (e *Engine) EnsureWallet(ctx context.Context, ownerType wallet.OwnerType, ownerID, displayName string) (*wallet.Wallet, error) {
	if ownerID == "" || (ownerType != wallet.OwnerUser && ownerType != wallet.OwnerCapsule) {
		return nil, ErrInvalidOwner
	}

	w, err := e.store.GetWalletByOwner(ctx, ownerType, ownerID)
	if err == nil {
		if displayName != "" && displayName != w.DisplayName {
			if updateErr := e.store.UpdateWalletDisplayName(ctx, w.ID, displayName); updateErr != nil {
				e.logger.Warn("display name update failed",
					"wallet_id", w.ID, "error", updateErr)
			} else {
				w.DisplayName = displayName
			}
		}
		return w, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	w = &wallet.Wallet{
		Entity:      types.NewEntity(),
		ID:          id.NewWalletID(),
		OwnerType:   ownerType,
		OwnerID:     ownerID,
		DisplayName: displayName,
	}

	if createErr := e.store.CreateWallet(ctx, w); createErr != nil {
		// Lost a creation race; the winner's row is the wallet.
		if errors.Is(createErr, ErrAlreadyExists) {
			return e.store.GetWalletByOwner(ctx, ownerType, ownerID)
		}
		return nil, createErr
	}

	e.plugins.EmitWalletCreated(ctx, w)
	return w, nil
}

// EnsureBalance is an idempotent get-or-create for the wallet's
// balance row. A fresh balance has all counters at zero and no tier or
// period set.
func (e *Engine) EnsureBalance(ctx context.Context, walletID id.WalletID) (*wallet.Balance, error) {
	b, err := e.store.GetBalance(ctx, walletID)
	if err == nil {
		return b, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	b = &wallet.Balance{
		WalletID:  walletID,
		UpdatedAt: now(),
	}

	if createErr := e.store.CreateBalance(ctx, b); createErr != nil {
		if errors.Is(createErr, ErrAlreadyExists) {
			return e.store.GetBalance(ctx, walletID)
		}
		return nil, createErr
	}

	return b, nil
}

// ──────────────────────────────────────────────────
// Ledger
// ──────────────────────────────────────────────────

// RecordTransaction appends one immutable ledger entry. It never
// mutates balances; callers pair it with ApplyBalanceDelta for the
// same logical event so read-only auditing can stream the ledger
// without touching balances.
func (e *Engine) RecordTransaction(ctx context.Context, txn *transaction.Transaction) error {
	if txn.WalletID.IsNil() {
		return ErrInvalidInput
	}
	if txn.ID.IsNil() {
		txn.ID = id.NewTransactionID()
	}
	if txn.CreatedAt.IsZero() {
		txn.Entity = types.NewEntity()
	}

	if err := e.store.InsertTransaction(ctx, txn); err != nil {
		return err
	}

	e.plugins.EmitTransactionRecorded(ctx, txn)
	return nil
}

// ApplyBalanceDelta applies counter increments and tri-state tier and
// period stamps to the wallet's balance row in a single store-level
// statement, and returns the updated row.
func (e *Engine) ApplyBalanceDelta(ctx context.Context, walletID id.WalletID, delta wallet.BalanceDelta) (*wallet.Balance, error) {
	return e.store.ApplyBalanceDelta(ctx, walletID, delta)
}

// ListTransactions returns ledger entries for a wallet, newest first.
func (e *Engine) ListTransactions(ctx context.Context, walletID id.WalletID, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	return e.store.ListTransactions(ctx, walletID, opts)
}

// ──────────────────────────────────────────────────
// Charging
// ──────────────────────────────────────────────────

// ChargeParams describes one usage charge.
type ChargeParams struct {
	WalletID id.WalletID
	Metric   wallet.Metric
	Amount   int64
	Reason   string

	// Bypass skips the charge entirely, returning the current
	// balance untouched. Resolved by the entitlement layer.
	Bypass bool
}

// ChargeUsage debits the used counter for a metered metric. Negative
// amounts are floored to zero and a zero amount is a no-op. On
// insufficient allowance the balance is left unchanged, no ledger
// entry is written, and an InsufficientFundsError is returned.
func (e *Engine) ChargeUsage(ctx context.Context, p ChargeParams) (*wallet.Balance, error) {
	if !p.Metric.IsMetered() {
		return nil, ErrInvalidMetric
	}

	amount := p.Amount
	if amount < 0 {
		amount = 0
	}
	if amount == 0 || p.Bypass {
		return e.EnsureBalance(ctx, p.WalletID)
	}

	if _, err := e.EnsureBalance(ctx, p.WalletID); err != nil {
		return nil, err
	}

	b, err := e.store.ChargeUsage(ctx, p.WalletID, p.Metric, amount)
	if err != nil {
		var denied *InsufficientFundsError
		if errors.As(err, &denied) {
			e.plugins.EmitChargeDenied(ctx, p.WalletID, p.Metric, denied.Required, denied.Available)
		}
		return nil, err
	}

	txn := &transaction.Transaction{
		Entity:      types.NewEntity(),
		ID:          id.NewTransactionID(),
		WalletID:    p.WalletID,
		Type:        transaction.TypeUsage,
		Metric:      p.Metric,
		Amount:      -amount,
		Description: p.Reason,
	}
	if err := e.store.InsertTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("charge applied but ledger entry failed: %w", err)
	}

	e.plugins.EmitTransactionRecorded(ctx, txn)
	e.plugins.EmitUsageCharged(ctx, p.WalletID, p.Metric, amount, b)
	return b, nil
}

// ──────────────────────────────────────────────────
// Idempotent funding
// ──────────────────────────────────────────────────

// FundingParams describes one externally-triggered grant. The
// (WalletID, SourceType, SourceID) triple is the idempotency key,
// enforced by a store-level uniqueness constraint.
type FundingParams struct {
	WalletID    id.WalletID
	Metric      wallet.Metric
	Amount      int64 // negative amounts record a refund
	SourceType  string
	SourceID    string
	Description string
	Metadata    transaction.Metadata

	// Optional stamps applied alongside the grant.
	FeatureTier wallet.FieldUpdate
	ModelTier   wallet.FieldUpdate
	PeriodStart wallet.TimeUpdate
	PeriodEnd   wallet.TimeUpdate
}

// RecordFundingIfMissing is the idempotency primitive for every
// "grant credits because of external event X" flow. It returns true
// when a new grant was applied and false when the same source was
// already funded, which makes webhook retries safe.
func (e *Engine) RecordFundingIfMissing(ctx context.Context, p FundingParams) (bool, error) {
	if p.SourceType == "" || p.SourceID == "" {
		return false, ErrMissingSource
	}
	if !p.Metric.IsMetered() {
		return false, ErrInvalidMetric
	}

	if _, err := e.EnsureBalance(ctx, p.WalletID); err != nil {
		return false, err
	}

	txnType := transaction.TypeFunding
	if p.Amount < 0 {
		txnType = transaction.TypeRefund
	}

	txn := &transaction.Transaction{
		Entity:      types.NewEntity(),
		ID:          id.NewTransactionID(),
		WalletID:    p.WalletID,
		Type:        txnType,
		Metric:      p.Metric,
		Amount:      p.Amount,
		Description: p.Description,
		SourceType:  p.SourceType,
		SourceID:    p.SourceID,
		Metadata:    p.Metadata,
	}

	inserted, err := e.store.InsertTransactionOnce(ctx, txn)
	if err != nil {
		return false, err
	}
	if !inserted {
		e.plugins.EmitFundingSkipped(ctx, p.WalletID, p.SourceType, p.SourceID)
		return false, nil
	}

	delta := wallet.BalanceDelta{
		FeatureTier: p.FeatureTier,
		ModelTier:   p.ModelTier,
		PeriodStart: p.PeriodStart,
		PeriodEnd:   p.PeriodEnd,
	}
	if p.Metric == wallet.MetricStorage {
		delta.StorageGranted = p.Amount
	} else {
		delta.ComputeGranted = p.Amount
	}

	if _, err := e.store.ApplyBalanceDelta(ctx, p.WalletID, delta); err != nil {
		return false, fmt.Errorf("funding recorded but grant delta failed: %w", err)
	}

	e.plugins.EmitTransactionRecorded(ctx, txn)
	e.plugins.EmitFundingApplied(ctx, txn)
	return true, nil
}

// ──────────────────────────────────────────────────
// Transfers
// ──────────────────────────────────────────────────

// TransferParams describes one allowance movement between wallets.
type TransferParams struct {
	FromWalletID id.WalletID
	ToWalletID   id.WalletID
	Metric       wallet.Metric
	Amount       int64
	CreatedBy    string
	Message      string
}

// Source type stamped on the two ledger entries of a transfer; the
// transfer id is their source id.
const (
	SourceTransfer         = "transfer"
	SourceTransferReversal = "transfer_reversal"
)

// Transfer moves allowance from one wallet to another as a persisted
// saga: a pending transfer row, a conditional debit on the source, the
// out/in ledger entries, the credit on the destination, and the final
// applied status. A debit that exceeds the source's available
// allowance fails the transfer with no balance touched. Transfers
// interrupted mid-flight are reconciled by SweepStaleTransfers.
func (e *Engine) Transfer(ctx context.Context, p TransferParams) (*transfer.Transfer, error) {
	if !p.Metric.IsMetered() {
		return nil, ErrInvalidMetric
	}
	if p.FromWalletID == p.ToWalletID {
		return nil, ErrSameWallet
	}

	amount := p.Amount
	if amount < 0 {
		amount = 0
	}
	if amount == 0 {
		return nil, nil
	}

	if _, err := e.EnsureBalance(ctx, p.FromWalletID); err != nil {
		return nil, err
	}
	if _, err := e.EnsureBalance(ctx, p.ToWalletID); err != nil {
		return nil, err
	}

	t := &transfer.Transfer{
		Entity:       types.NewEntity(),
		ID:           id.NewTransferID(),
		FromWalletID: p.FromWalletID,
		ToWalletID:   p.ToWalletID,
		Metric:       p.Metric,
		Amount:       amount,
		Message:      p.Message,
		CreatedBy:    p.CreatedBy,
		Status:       transfer.StatusPending,
	}
	if err := e.store.CreateTransfer(ctx, t); err != nil {
		return nil, err
	}

	// Debit leg. An insufficient-funds failure ends the saga before
	// anything was applied.
	if _, err := e.store.DebitGrant(ctx, p.FromWalletID, p.Metric, amount); err != nil {
		reason := "debit failed"
		var denied *InsufficientFundsError
		if errors.As(err, &denied) {
			reason = denied.Code()
		}
		e.failTransfer(ctx, t, transfer.StatusPending, reason)
		return nil, err
	}

	if err := e.store.UpdateTransferStatus(ctx, t.ID, transfer.StatusPending, transfer.StatusDebited, ""); err != nil {
		return nil, err
	}
	t.Status = transfer.StatusDebited

	outTxn := &transaction.Transaction{
		Entity:      types.NewEntity(),
		ID:          id.NewTransactionID(),
		WalletID:    p.FromWalletID,
		Type:        transaction.TypeTransferOut,
		Metric:      p.Metric,
		Amount:      -amount,
		Description: p.Message,
		SourceType:  SourceTransfer,
		SourceID:    t.ID.String(),
		Metadata:    transaction.Metadata{TransferID: t.ID.String(), GrantedBy: p.CreatedBy},
	}
	if _, err := e.store.InsertTransactionOnce(ctx, outTxn); err != nil {
		return nil, fmt.Errorf("transfer %s stuck in debited: %w", t.ID, err)
	}

	inTxn := &transaction.Transaction{
		Entity:      types.NewEntity(),
		ID:          id.NewTransactionID(),
		WalletID:    p.ToWalletID,
		Type:        transaction.TypeTransferIn,
		Metric:      p.Metric,
		Amount:      amount,
		Description: p.Message,
		SourceType:  SourceTransfer,
		SourceID:    t.ID.String(),
		Metadata:    transaction.Metadata{TransferID: t.ID.String(), GrantedBy: p.CreatedBy},
	}
	if _, err := e.store.InsertTransactionOnce(ctx, inTxn); err != nil {
		return nil, fmt.Errorf("transfer %s stuck in debited: %w", t.ID, err)
	}

	if _, err := e.store.CreditGrant(ctx, p.ToWalletID, p.Metric, amount); err != nil {
		return nil, fmt.Errorf("transfer %s stuck in debited: %w", t.ID, err)
	}

	if err := e.store.UpdateTransferStatus(ctx, t.ID, transfer.StatusDebited, transfer.StatusApplied, ""); err != nil {
		return nil, err
	}
	t.Status = transfer.StatusApplied

	e.plugins.EmitTransferApplied(ctx, t)
	return t, nil
}

// failTransfer marks a transfer failed and emits the hook. A lost
// status race means someone else (usually the sweep) already settled
// the row; that is logged, not propagated.
func (e *Engine) failTransfer(ctx context.Context, t *transfer.Transfer, from transfer.Status, reason string) {
	if err := e.store.UpdateTransferStatus(ctx, t.ID, from, transfer.StatusFailed, reason); err != nil {
		e.logger.Warn("transfer fail transition lost",
			"transfer_id", t.ID, "from", from, "error", err)
		return
	}
	t.Status = transfer.StatusFailed
	t.FailureReason = reason
	e.plugins.EmitTransferFailed(ctx, t, reason)
}

// SweepStaleTransfers reconciles transfers stuck in a non-terminal
// status past the sweep timeout. Pending rows never debited anything
// and are simply failed; debited rows are compensated by re-crediting
// the source with a matching refund entry. Returns the number of
// transfers settled. Also run periodically by the engine's worker.
func (e *Engine) SweepStaleTransfers(ctx context.Context) (int, error) {
	cutoff := now().Add(-e.sweepTimeout)

	stale, err := e.store.ListStaleTransfers(ctx, cutoff, e.sweepBatch)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, t := range stale {
		switch t.Status {
		case transfer.StatusPending:
			e.failTransfer(ctx, t, transfer.StatusPending, "stale pending transfer")
			swept++

		case transfer.StatusDebited:
			if err := e.compensateTransfer(ctx, t); err != nil {
				e.logger.Error("transfer compensation failed",
					"transfer_id", t.ID, "error", err)
				continue
			}
			swept++
		}
	}

	return swept, nil
}

// compensateTransfer re-credits the source of a transfer whose credit
// leg never landed, records the reversal in the ledger, and fails the
// row. The reversal entry is keyed on the transfer id so a sweep
// retried after a partial compensation stays idempotent.
func (e *Engine) compensateTransfer(ctx context.Context, t *transfer.Transfer) error {
	reversal := &transaction.Transaction{
		Entity:      types.NewEntity(),
		ID:          id.NewTransactionID(),
		WalletID:    t.FromWalletID,
		Type:        transaction.TypeRefund,
		Metric:      t.Metric,
		Amount:      t.Amount,
		Description: "transfer reversal",
		SourceType:  SourceTransferReversal,
		SourceID:    t.ID.String(),
		Metadata:    transaction.Metadata{TransferID: t.ID.String()},
	}

	inserted, err := e.store.InsertTransactionOnce(ctx, reversal)
	if err != nil {
		return err
	}
	if inserted {
		if _, err := e.store.CreditGrant(ctx, t.FromWalletID, t.Metric, t.Amount); err != nil {
			return err
		}
	}

	e.failTransfer(ctx, t, transfer.StatusDebited, "stale debited transfer reversed")
	return nil
}
