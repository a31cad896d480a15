package credits_test

import (
	"context"
	"sync"
	"testing"

	"github.com/capsulehq/credits"
	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/plugin"
	"github.com/capsulehq/credits/transaction"
	"github.com/capsulehq/credits/transfer"
	"github.com/capsulehq/credits/wallet"
)

// recordingPlugin counts lifecycle events the engine emits.
type recordingPlugin struct {
	mu     sync.Mutex
	counts map[string]int
}

var (
	_ plugin.Plugin            = (*recordingPlugin)(nil)
	_ plugin.OnWalletCreated   = (*recordingPlugin)(nil)
	_ plugin.OnUsageCharged    = (*recordingPlugin)(nil)
	_ plugin.OnChargeDenied    = (*recordingPlugin)(nil)
	_ plugin.OnFundingApplied  = (*recordingPlugin)(nil)
	_ plugin.OnFundingSkipped  = (*recordingPlugin)(nil)
	_ plugin.OnTransferApplied = (*recordingPlugin)(nil)
)

func newRecordingPlugin() *recordingPlugin {
	return &recordingPlugin{counts: make(map[string]int)}
}

func (p *recordingPlugin) Name() string { return "recording" }

func (p *recordingPlugin) bump(event string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[event]++
}

func (p *recordingPlugin) count(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[event]
}

func (p *recordingPlugin) OnWalletCreated(_ context.Context, _ *wallet.Wallet) error {
	p.bump("wallet_created")
	return nil
}

func (p *recordingPlugin) OnUsageCharged(_ context.Context, _ id.WalletID, _ wallet.Metric, _ int64, _ *wallet.Balance) error {
	p.bump("usage_charged")
	return nil
}

func (p *recordingPlugin) OnChargeDenied(_ context.Context, _ id.WalletID, _ wallet.Metric, _, _ int64) error {
	p.bump("charge_denied")
	return nil
}

func (p *recordingPlugin) OnFundingApplied(_ context.Context, _ *transaction.Transaction) error {
	p.bump("funding_applied")
	return nil
}

func (p *recordingPlugin) OnFundingSkipped(_ context.Context, _ id.WalletID, _, _ string) error {
	p.bump("funding_skipped")
	return nil
}

func (p *recordingPlugin) OnTransferApplied(_ context.Context, _ *transfer.Transfer) error {
	p.bump("transfer_applied")
	return nil
}

func TestPluginHooks(t *testing.T) {
	ctx := context.Background()
	rec := newRecordingPlugin()
	eng, _ := newTestEngine(t, credits.WithPlugin(rec))

	from := fundWallet(t, eng, "hooks_from", 500)
	to := fundWallet(t, eng, "hooks_to", 0)

	if got := rec.count("wallet_created"); got != 2 {
		t.Fatalf("wallet_created = %d, want 2", got)
	}
	if got := rec.count("funding_applied"); got != 1 {
		t.Fatalf("funding_applied = %d, want 1", got)
	}

	// Funding retry emits a skip, not a second application.
	if _, err := eng.RecordFundingIfMissing(ctx, credits.FundingParams{
		WalletID:   from.ID,
		Metric:     wallet.MetricCompute,
		Amount:     500,
		SourceType: "test_grant",
		SourceID:   "seed:hooks_from",
	}); err != nil {
		t.Fatal(err)
	}
	if got := rec.count("funding_skipped"); got != 1 {
		t.Fatalf("funding_skipped = %d, want 1", got)
	}
	if got := rec.count("funding_applied"); got != 1 {
		t.Fatalf("funding_applied after retry = %d, want 1", got)
	}

	if _, err := eng.ChargeUsage(ctx, credits.ChargeParams{
		WalletID: from.ID,
		Metric:   wallet.MetricCompute,
		Amount:   100,
	}); err != nil {
		t.Fatal(err)
	}
	if got := rec.count("usage_charged"); got != 1 {
		t.Fatalf("usage_charged = %d, want 1", got)
	}

	if _, err := eng.ChargeUsage(ctx, credits.ChargeParams{
		WalletID: from.ID,
		Metric:   wallet.MetricCompute,
		Amount:   10_000,
	}); !credits.IsInsufficientFunds(err) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if got := rec.count("charge_denied"); got != 1 {
		t.Fatalf("charge_denied = %d, want 1", got)
	}

	if _, err := eng.Transfer(ctx, credits.TransferParams{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Metric:       wallet.MetricCompute,
		Amount:       50,
	}); err != nil {
		t.Fatal(err)
	}
	if got := rec.count("transfer_applied"); got != 1 {
		t.Fatalf("transfer_applied = %d, want 1", got)
	}
}
