package credits_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/capsulehq/credits"
	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/store/memory"
	"github.com/capsulehq/credits/transaction"
	"github.com/capsulehq/credits/transfer"
	"github.com/capsulehq/credits/types"
	"github.com/capsulehq/credits/wallet"
)

// newTestEngine builds an engine over a fresh in-memory store with
// billing enforced, so charge paths behave as they would in production.
// Additional options are applied after the defaults and may override
// them.
func newTestEngine(t *testing.T, opts ...credits.Option) (*credits.Engine, *memory.Store) {
	t.Helper()

	s := memory.New()
	base := []credits.Option{
		credits.WithBypassConfig(credits.BypassConfig{
			Environment: credits.EnvProduction,
		}),
	}
	return credits.New(s, append(base, opts...)...), s
}

// fundWallet creates a wallet for the owner and grants it compute
// through the regular funding path.
func fundWallet(t *testing.T, eng *credits.Engine, ownerID string, amount int64) *wallet.Wallet {
	t.Helper()

	ctx := context.Background()
	w, err := eng.EnsureWallet(ctx, wallet.OwnerUser, ownerID, "")
	if err != nil {
		t.Fatal(err)
	}

	if amount > 0 {
		applied, err := eng.RecordFundingIfMissing(ctx, credits.FundingParams{
			WalletID:   w.ID,
			Metric:     wallet.MetricCompute,
			Amount:     amount,
			SourceType: "test_grant",
			SourceID:   "seed:" + ownerID,
		})
		if err != nil {
			t.Fatal(err)
		}
		if !applied {
			t.Fatal("seed funding unexpectedly skipped")
		}
	}
	return w
}

func TestEnsureWallet(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	w1, err := eng.EnsureWallet(ctx, wallet.OwnerUser, "user_1", "First")
	if err != nil {
		t.Fatal(err)
	}

	// Same owner resolves to the same wallet.
	w2, err := eng.EnsureWallet(ctx, wallet.OwnerUser, "user_1", "")
	if err != nil {
		t.Fatal(err)
	}
	if w1.ID != w2.ID {
		t.Fatalf("expected same wallet, got %s and %s", w1.ID, w2.ID)
	}
	if w2.DisplayName != "First" {
		t.Fatalf("empty display name should not overwrite, got %q", w2.DisplayName)
	}

	// A new non-empty display name is applied.
	w3, err := eng.EnsureWallet(ctx, wallet.OwnerUser, "user_1", "Renamed")
	if err != nil {
		t.Fatal(err)
	}
	if w3.DisplayName != "Renamed" {
		t.Fatalf("display name not updated, got %q", w3.DisplayName)
	}

	// Distinct owner types get distinct wallets.
	wc, err := eng.EnsureWallet(ctx, wallet.OwnerCapsule, "user_1", "")
	if err != nil {
		t.Fatal(err)
	}
	if wc.ID == w1.ID {
		t.Fatal("capsule owner should not share the user wallet")
	}

	if _, err := eng.EnsureWallet(ctx, wallet.OwnerUser, "", ""); err != credits.ErrInvalidOwner {
		t.Fatalf("expected ErrInvalidOwner for empty owner id, got %v", err)
	}
	if _, err := eng.EnsureWallet(ctx, "team", "user_1", ""); err != credits.ErrInvalidOwner {
		t.Fatalf("expected ErrInvalidOwner for unknown owner type, got %v", err)
	}
}

func TestChargeUsage(t *testing.T) {
	ctx := context.Background()

	t.Run("DebitsUsedCounter", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		w := fundWallet(t, eng, "charge_1", 1000)

		b, err := eng.ChargeUsage(ctx, credits.ChargeParams{
			WalletID: w.ID,
			Metric:   wallet.MetricCompute,
			Amount:   400,
			Reason:   "render",
		})
		if err != nil {
			t.Fatal(err)
		}
		if got := b.Available(wallet.MetricCompute); got != 600 {
			t.Fatalf("available = %d, want 600", got)
		}
		if b.ComputeGranted != 1000 || b.ComputeUsed != 400 {
			t.Fatalf("granted/used = %d/%d, want 1000/400", b.ComputeGranted, b.ComputeUsed)
		}

		// The charge is mirrored as a negative usage entry.
		txns, err := eng.ListTransactions(ctx, w.ID, transaction.ListOpts{Type: transaction.TypeUsage})
		if err != nil {
			t.Fatal(err)
		}
		if len(txns) != 1 || txns[0].Amount != -400 {
			t.Fatalf("expected one usage entry of -400, got %+v", txns)
		}

		// A follow-up charge past the remainder is denied with the
		// current numbers and leaves used where it was.
		_, err = eng.ChargeUsage(ctx, credits.ChargeParams{
			WalletID: w.ID,
			Metric:   wallet.MetricCompute,
			Amount:   700,
		})
		var denied *credits.InsufficientFundsError
		if !errors.As(err, &denied) {
			t.Fatalf("expected insufficient funds, got %v", err)
		}
		if denied.Required != 700 || denied.Available != 600 {
			t.Fatalf("required/available = %d/%d, want 700/600", denied.Required, denied.Available)
		}
		b, err = eng.EnsureBalance(ctx, w.ID)
		if err != nil {
			t.Fatal(err)
		}
		if b.ComputeUsed != 400 {
			t.Fatalf("denied charge moved used to %d", b.ComputeUsed)
		}
	})

	t.Run("ExactBalanceSucceeds", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		w := fundWallet(t, eng, "charge_2", 500)

		b, err := eng.ChargeUsage(ctx, credits.ChargeParams{
			WalletID: w.ID,
			Metric:   wallet.MetricCompute,
			Amount:   500,
		})
		if err != nil {
			t.Fatal(err)
		}
		if got := b.Available(wallet.MetricCompute); got != 0 {
			t.Fatalf("available = %d, want 0", got)
		}
	})

	t.Run("InsufficientFundsLeavesBalanceUntouched", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		w := fundWallet(t, eng, "charge_3", 300)

		_, err := eng.ChargeUsage(ctx, credits.ChargeParams{
			WalletID: w.ID,
			Metric:   wallet.MetricCompute,
			Amount:   301,
		})
		if !credits.IsInsufficientFunds(err) {
			t.Fatalf("expected insufficient funds, got %v", err)
		}

		var denied *credits.InsufficientFundsError
		if !errors.As(err, &denied) {
			t.Fatal("error does not unwrap to InsufficientFundsError")
		}
		if denied.Required != 301 || denied.Available != 300 {
			t.Fatalf("required/available = %d/%d, want 301/300", denied.Required, denied.Available)
		}
		if denied.Code() != credits.CodeInsufficientCompute {
			t.Fatalf("code = %q", denied.Code())
		}

		b, err := eng.EnsureBalance(ctx, w.ID)
		if err != nil {
			t.Fatal(err)
		}
		if b.ComputeUsed != 0 {
			t.Fatalf("denied charge mutated the balance: used = %d", b.ComputeUsed)
		}

		// No ledger entry is written for a denied charge.
		txns, err := eng.ListTransactions(ctx, w.ID, transaction.ListOpts{Type: transaction.TypeUsage})
		if err != nil {
			t.Fatal(err)
		}
		if len(txns) != 0 {
			t.Fatalf("expected no usage entries, got %d", len(txns))
		}
	})

	t.Run("ZeroAndNegativeAmountsAreNoOps", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		w := fundWallet(t, eng, "charge_4", 100)

		for _, amount := range []int64{0, -50} {
			b, err := eng.ChargeUsage(ctx, credits.ChargeParams{
				WalletID: w.ID,
				Metric:   wallet.MetricCompute,
				Amount:   amount,
			})
			if err != nil {
				t.Fatal(err)
			}
			if b.ComputeUsed != 0 {
				t.Fatalf("amount %d mutated the balance", amount)
			}
		}
	})

	t.Run("BypassSkipsTheCharge", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		w := fundWallet(t, eng, "charge_5", 100)

		b, err := eng.ChargeUsage(ctx, credits.ChargeParams{
			WalletID: w.ID,
			Metric:   wallet.MetricCompute,
			Amount:   1_000_000,
			Bypass:   true,
		})
		if err != nil {
			t.Fatal(err)
		}
		if b.ComputeUsed != 0 {
			t.Fatalf("bypassed charge mutated the balance: used = %d", b.ComputeUsed)
		}

		txns, err := eng.ListTransactions(ctx, w.ID, transaction.ListOpts{Type: transaction.TypeUsage})
		if err != nil {
			t.Fatal(err)
		}
		if len(txns) != 0 {
			t.Fatalf("bypassed charge wrote %d usage entries", len(txns))
		}
	})

	t.Run("RejectsNonMeteredMetrics", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		w := fundWallet(t, eng, "charge_6", 100)

		_, err := eng.ChargeUsage(ctx, credits.ChargeParams{
			WalletID: w.ID,
			Metric:   wallet.MetricFeature,
			Amount:   1,
		})
		if err != credits.ErrInvalidMetric {
			t.Fatalf("expected ErrInvalidMetric, got %v", err)
		}
	})
}

func TestRecordFundingIfMissing(t *testing.T) {
	ctx := context.Background()

	t.Run("SecondApplicationIsSkipped", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		w := fundWallet(t, eng, "fund_1", 0)

		params := credits.FundingParams{
			WalletID:   w.ID,
			Metric:     wallet.MetricCompute,
			Amount:     500,
			SourceType: "purchase",
			SourceID:   "inv_42",
		}

		applied, err := eng.RecordFundingIfMissing(ctx, params)
		if err != nil {
			t.Fatal(err)
		}
		if !applied {
			t.Fatal("first funding not applied")
		}

		// Webhook retry: same source, no double credit.
		applied, err = eng.RecordFundingIfMissing(ctx, params)
		if err != nil {
			t.Fatal(err)
		}
		if applied {
			t.Fatal("retry applied the funding again")
		}

		b, err := eng.EnsureBalance(ctx, w.ID)
		if err != nil {
			t.Fatal(err)
		}
		if b.ComputeGranted != 500 {
			t.Fatalf("granted = %d, want 500", b.ComputeGranted)
		}
	})

	t.Run("NegativeAmountRecordsRefund", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		w := fundWallet(t, eng, "fund_2", 800)

		applied, err := eng.RecordFundingIfMissing(ctx, credits.FundingParams{
			WalletID:   w.ID,
			Metric:     wallet.MetricCompute,
			Amount:     -300,
			SourceType: "refund",
			SourceID:   "re_7",
		})
		if err != nil {
			t.Fatal(err)
		}
		if !applied {
			t.Fatal("refund not applied")
		}

		b, err := eng.EnsureBalance(ctx, w.ID)
		if err != nil {
			t.Fatal(err)
		}
		if b.ComputeGranted != 500 {
			t.Fatalf("granted = %d, want 500", b.ComputeGranted)
		}

		txns, err := eng.ListTransactions(ctx, w.ID, transaction.ListOpts{Type: transaction.TypeRefund})
		if err != nil {
			t.Fatal(err)
		}
		if len(txns) != 1 || txns[0].Amount != -300 {
			t.Fatalf("expected one refund entry of -300, got %+v", txns)
		}
	})

	t.Run("StampsTierAndPeriod", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		w := fundWallet(t, eng, "fund_3", 0)

		start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)

		if _, err := eng.RecordFundingIfMissing(ctx, credits.FundingParams{
			WalletID:    w.ID,
			Metric:      wallet.MetricStorage,
			Amount:      1 << 30,
			SourceType:  "subscription",
			SourceID:    "sub_1",
			FeatureTier: wallet.SetField("pro"),
			PeriodStart: wallet.SetTime(start),
			PeriodEnd:   wallet.SetTime(end),
		}); err != nil {
			t.Fatal(err)
		}

		b, err := eng.EnsureBalance(ctx, w.ID)
		if err != nil {
			t.Fatal(err)
		}
		if b.StorageGranted != 1<<30 {
			t.Fatalf("storage granted = %d", b.StorageGranted)
		}
		if b.FeatureTier == nil || *b.FeatureTier != "pro" {
			t.Fatalf("feature tier not stamped: %v", b.FeatureTier)
		}
		if b.PeriodStart == nil || !b.PeriodStart.Equal(start) {
			t.Fatalf("period start not stamped: %v", b.PeriodStart)
		}
		if b.PeriodEnd == nil || !b.PeriodEnd.Equal(end) {
			t.Fatalf("period end not stamped: %v", b.PeriodEnd)
		}
	})

	t.Run("RequiresSource", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		w := fundWallet(t, eng, "fund_4", 0)

		_, err := eng.RecordFundingIfMissing(ctx, credits.FundingParams{
			WalletID: w.ID,
			Metric:   wallet.MetricCompute,
			Amount:   100,
		})
		if err != credits.ErrMissingSource {
			t.Fatalf("expected ErrMissingSource, got %v", err)
		}
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("ConservesTotalAllowance", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		from := fundWallet(t, eng, "xfer_from", 500)
		to := fundWallet(t, eng, "xfer_to", 0)

		xfer, err := eng.Transfer(ctx, credits.TransferParams{
			FromWalletID: from.ID,
			ToWalletID:   to.ID,
			Metric:       wallet.MetricCompute,
			Amount:       200,
			CreatedBy:    "user_admin",
			Message:      "team top-up",
		})
		if err != nil {
			t.Fatal(err)
		}
		if xfer.Status != transfer.StatusApplied {
			t.Fatalf("status = %s, want applied", xfer.Status)
		}

		fromBal, err := eng.EnsureBalance(ctx, from.ID)
		if err != nil {
			t.Fatal(err)
		}
		toBal, err := eng.EnsureBalance(ctx, to.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got := fromBal.Available(wallet.MetricCompute); got != 300 {
			t.Fatalf("source available = %d, want 300", got)
		}
		if got := toBal.Available(wallet.MetricCompute); got != 200 {
			t.Fatalf("destination available = %d, want 200", got)
		}

		total := fromBal.Available(wallet.MetricCompute) + toBal.Available(wallet.MetricCompute)
		if total != 500 {
			t.Fatalf("allowance not conserved: %d", total)
		}

		// Both legs land in the ledger, keyed on the transfer id.
		outTxns, err := eng.ListTransactions(ctx, from.ID, transaction.ListOpts{Type: transaction.TypeTransferOut})
		if err != nil {
			t.Fatal(err)
		}
		if len(outTxns) != 1 || outTxns[0].Amount != -200 || outTxns[0].SourceID != xfer.ID.String() {
			t.Fatalf("unexpected transfer_out leg: %+v", outTxns)
		}
		inTxns, err := eng.ListTransactions(ctx, to.ID, transaction.ListOpts{Type: transaction.TypeTransferIn})
		if err != nil {
			t.Fatal(err)
		}
		if len(inTxns) != 1 || inTxns[0].Amount != 200 || inTxns[0].SourceID != xfer.ID.String() {
			t.Fatalf("unexpected transfer_in leg: %+v", inTxns)
		}
	})

	t.Run("InsufficientSourceFailsCleanly", func(t *testing.T) {
		eng, s := newTestEngine(t)
		from := fundWallet(t, eng, "xfer_poor", 100)
		to := fundWallet(t, eng, "xfer_rich", 0)

		_, err := eng.Transfer(ctx, credits.TransferParams{
			FromWalletID: from.ID,
			ToWalletID:   to.ID,
			Metric:       wallet.MetricCompute,
			Amount:       101,
		})
		if !credits.IsInsufficientFunds(err) {
			t.Fatalf("expected insufficient funds, got %v", err)
		}

		fromBal, err := eng.EnsureBalance(ctx, from.ID)
		if err != nil {
			t.Fatal(err)
		}
		toBal, err := eng.EnsureBalance(ctx, to.ID)
		if err != nil {
			t.Fatal(err)
		}
		if fromBal.Available(wallet.MetricCompute) != 100 || toBal.Available(wallet.MetricCompute) != 0 {
			t.Fatal("failed transfer moved allowance")
		}

		// The transfer row is settled as failed, not left pending.
		stale, err := s.ListStaleTransfers(ctx, time.Now().UTC().Add(time.Hour), 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(stale) != 0 {
			t.Fatalf("failed transfer left non-terminal: %+v", stale[0])
		}
	})

	t.Run("SameWalletRejected", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		w := fundWallet(t, eng, "xfer_self", 100)

		_, err := eng.Transfer(ctx, credits.TransferParams{
			FromWalletID: w.ID,
			ToWalletID:   w.ID,
			Metric:       wallet.MetricCompute,
			Amount:       10,
		})
		if err != credits.ErrSameWallet {
			t.Fatalf("expected ErrSameWallet, got %v", err)
		}
	})

	t.Run("ZeroAmountIsANoOp", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		from := fundWallet(t, eng, "xfer_zero_a", 100)
		to := fundWallet(t, eng, "xfer_zero_b", 0)

		for _, amount := range []int64{0, -25} {
			xfer, err := eng.Transfer(ctx, credits.TransferParams{
				FromWalletID: from.ID,
				ToWalletID:   to.ID,
				Metric:       wallet.MetricCompute,
				Amount:       amount,
			})
			if err != nil {
				t.Fatal(err)
			}
			if xfer != nil {
				t.Fatalf("amount %d created a transfer", amount)
			}
		}
	})
}

func TestSweepStaleTransfers(t *testing.T) {
	ctx := context.Background()

	staleEntity := func() types.Entity {
		old := time.Now().UTC().Add(-time.Hour)
		return types.Entity{CreatedAt: old, UpdatedAt: old}
	}

	t.Run("FailsStalePending", func(t *testing.T) {
		eng, s := newTestEngine(t)
		from := fundWallet(t, eng, "sweep_p_from", 500)
		to := fundWallet(t, eng, "sweep_p_to", 0)

		xfer := &transfer.Transfer{
			Entity:       staleEntity(),
			ID:           id.NewTransferID(),
			FromWalletID: from.ID,
			ToWalletID:   to.ID,
			Metric:       wallet.MetricCompute,
			Amount:       100,
			Status:       transfer.StatusPending,
		}
		if err := s.CreateTransfer(ctx, xfer); err != nil {
			t.Fatal(err)
		}

		swept, err := eng.SweepStaleTransfers(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if swept != 1 {
			t.Fatalf("swept = %d, want 1", swept)
		}

		got, err := s.GetTransfer(ctx, xfer.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != transfer.StatusFailed {
			t.Fatalf("status = %s, want failed", got.Status)
		}

		// Pending never debited anything, so balances are untouched.
		b, err := eng.EnsureBalance(ctx, from.ID)
		if err != nil {
			t.Fatal(err)
		}
		if b.Available(wallet.MetricCompute) != 500 {
			t.Fatalf("source available = %d, want 500", b.Available(wallet.MetricCompute))
		}
	})

	t.Run("CompensatesStaleDebited", func(t *testing.T) {
		eng, s := newTestEngine(t)
		from := fundWallet(t, eng, "sweep_d_from", 500)
		to := fundWallet(t, eng, "sweep_d_to", 0)

		// Simulate a transfer that crashed after its debit leg.
		if _, err := s.DebitGrant(ctx, from.ID, wallet.MetricCompute, 200); err != nil {
			t.Fatal(err)
		}
		xfer := &transfer.Transfer{
			Entity:       staleEntity(),
			ID:           id.NewTransferID(),
			FromWalletID: from.ID,
			ToWalletID:   to.ID,
			Metric:       wallet.MetricCompute,
			Amount:       200,
			Status:       transfer.StatusDebited,
		}
		if err := s.CreateTransfer(ctx, xfer); err != nil {
			t.Fatal(err)
		}

		swept, err := eng.SweepStaleTransfers(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if swept != 1 {
			t.Fatalf("swept = %d, want 1", swept)
		}

		got, err := s.GetTransfer(ctx, xfer.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != transfer.StatusFailed {
			t.Fatalf("status = %s, want failed", got.Status)
		}

		// The source was made whole and the reversal is in the ledger.
		b, err := eng.EnsureBalance(ctx, from.ID)
		if err != nil {
			t.Fatal(err)
		}
		if b.Available(wallet.MetricCompute) != 500 {
			t.Fatalf("source available = %d, want 500", b.Available(wallet.MetricCompute))
		}

		reversal, err := s.GetTransactionBySource(ctx, from.ID, credits.SourceTransferReversal, xfer.ID.String())
		if err != nil {
			t.Fatal(err)
		}
		if reversal.Amount != 200 || reversal.Type != transaction.TypeRefund {
			t.Fatalf("unexpected reversal entry: %+v", reversal)
		}

		// A second sweep finds nothing left to settle.
		swept, err = eng.SweepStaleTransfers(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if swept != 0 {
			t.Fatalf("second sweep settled %d transfers", swept)
		}
	})
}
