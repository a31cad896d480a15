package memory_test

import (
	"context"
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

func seedBalance(t *testing.T, s *memory.Store) id.WalletID {
	t.Helper()

	walletID := id.NewWalletID()
	if err := s.CreateBalance(context.Background(), &wallet.Balance{WalletID: walletID}); err != nil {
		t.Fatal(err)
	}
	return walletID
}

func TestListTransactionsPagination(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	walletID := seedBalance(t, s)

	for i := int64(1); i <= 5; i++ {
		if err := s.InsertTransaction(ctx, &transaction.Transaction{
			Entity:   types.NewEntity(),
			ID:       id.NewTransactionID(),
			WalletID: walletID,
			Type:     transaction.TypeFunding,
			Metric:   wallet.MetricCompute,
			Amount:   i,
		}); err != nil {
			t.Fatal(err)
		}
	}

	// Newest first.
	all, err := s.ListTransactions(ctx, walletID, transaction.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 || all[0].Amount != 5 || all[4].Amount != 1 {
		t.Fatalf("unexpected ordering: %+v", all)
	}

	page, err := s.ListTransactions(ctx, walletID, transaction.ListOpts{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].Amount != 3 || page[1].Amount != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}

	// An offset past the end is empty, not an error.
	empty, err := s.ListTransactions(ctx, walletID, transaction.ListOpts{Offset: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %d", len(empty))
	}
}

func TestListStaleTransfersOrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	from := seedBalance(t, s)
	to := seedBalance(t, s)

	now := time.Now().UTC()
	mk := func(age time.Duration, status transfer.Status) *transfer.Transfer {
		at := now.Add(-age)
		xfer := &transfer.Transfer{
			Entity:       types.Entity{CreatedAt: at, UpdatedAt: at},
			ID:           id.NewTransferID(),
			FromWalletID: from,
			ToWalletID:   to,
			Metric:       wallet.MetricCompute,
			Amount:       10,
			Status:       status,
		}
		if err := s.CreateTransfer(ctx, xfer); err != nil {
			t.Fatal(err)
		}
		return xfer
	}

	oldest := mk(3*time.Hour, transfer.StatusDebited)
	middle := mk(2*time.Hour, transfer.StatusPending)
	mk(1*time.Hour, transfer.StatusApplied) // terminal, never stale
	mk(time.Minute, transfer.StatusPending) // newer than the cutoff

	stale, err := s.ListStaleTransfers(ctx, now.Add(-30*time.Minute), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 2 {
		t.Fatalf("got %d stale transfers, want 2", len(stale))
	}
	// Oldest first, so repeated sweeps make progress under the limit.
	if stale[0].ID != oldest.ID || stale[1].ID != middle.ID {
		t.Fatalf("unexpected order: %s, %s", stale[0].ID, stale[1].ID)
	}
}

func TestUpdateTransferStatusCAS(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	from := seedBalance(t, s)
	to := seedBalance(t, s)

	xfer := &transfer.Transfer{
		Entity:       types.NewEntity(),
		ID:           id.NewTransferID(),
		FromWalletID: from,
		ToWalletID:   to,
		Metric:       wallet.MetricCompute,
		Amount:       10,
		Status:       transfer.StatusPending,
	}
	if err := s.CreateTransfer(ctx, xfer); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateTransferStatus(ctx, xfer.ID, transfer.StatusPending, transfer.StatusDebited, ""); err != nil {
		t.Fatal(err)
	}

	// A second transition from the old status loses the race.
	err := s.UpdateTransferStatus(ctx, xfer.ID, transfer.StatusPending, transfer.StatusFailed, "late")
	if err != credits.ErrTransferConflict {
		t.Fatalf("expected ErrTransferConflict, got %v", err)
	}

	got, err := s.GetTransfer(ctx, xfer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != transfer.StatusDebited {
		t.Fatalf("status = %s, want debited", got.Status)
	}
}

func TestClosedStoreRejectsWrites(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if err := s.Ping(ctx); err != credits.ErrStoreClosed {
		t.Fatalf("expected ErrStoreClosed from Ping, got %v", err)
	}
	err := s.CreateWallet(ctx, &wallet.Wallet{
		Entity:    types.NewEntity(),
		ID:        id.NewWalletID(),
		OwnerType: wallet.OwnerUser,
		OwnerID:   "user_1",
	})
	if err != credits.ErrStoreClosed {
		t.Fatalf("expected ErrStoreClosed from CreateWallet, got %v", err)
	}
}
