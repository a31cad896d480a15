package audithook_test

import (
	"context"
	"errors"
	"testing"

	audithook "github.com/capsulehq/credits/audit_hook"
	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/transfer"
	"github.com/capsulehq/credits/wallet"
)

// capture collects every event the extension records.
func capture(events *[]*audithook.AuditEvent) audithook.Recorder {
	return audithook.RecorderFunc(func(_ context.Context, evt *audithook.AuditEvent) error {
		*events = append(*events, evt)
		return nil
	})
}

func TestChargeDeniedEvent(t *testing.T) {
	ctx := context.Background()
	var events []*audithook.AuditEvent
	ext := audithook.New(capture(&events))

	walletID := id.NewWalletID()
	if err := ext.OnChargeDenied(ctx, walletID, wallet.MetricCompute, 500, 120); err != nil {
		t.Fatal(err)
	}

	if len(events) != 1 {
		t.Fatalf("recorded %d events, want 1", len(events))
	}
	evt := events[0]
	if evt.Action != audithook.ActionChargeDenied {
		t.Fatalf("action = %q", evt.Action)
	}
	if evt.Severity != audithook.SeverityWarning || evt.Outcome != audithook.OutcomeFailure {
		t.Fatalf("severity/outcome = %q/%q", evt.Severity, evt.Outcome)
	}
	if evt.ResourceID != walletID.String() {
		t.Fatalf("resource id = %q", evt.ResourceID)
	}
	if evt.Metadata["required"] != int64(500) || evt.Metadata["available"] != int64(120) {
		t.Fatalf("metadata = %v", evt.Metadata)
	}
}

func TestTransferEvents(t *testing.T) {
	ctx := context.Background()
	var events []*audithook.AuditEvent
	ext := audithook.New(capture(&events))

	xfer := &transfer.Transfer{
		ID:           id.NewTransferID(),
		FromWalletID: id.NewWalletID(),
		ToWalletID:   id.NewWalletID(),
		Metric:       wallet.MetricCompute,
		Amount:       250,
		Status:       transfer.StatusFailed,
	}

	if err := ext.OnTransferFailed(ctx, xfer, "stale debited transfer reversed"); err != nil {
		t.Fatal(err)
	}

	if len(events) != 1 {
		t.Fatalf("recorded %d events, want 1", len(events))
	}
	evt := events[0]
	if evt.Action != audithook.ActionTransferFailed || evt.Resource != audithook.ResourceTransfer {
		t.Fatalf("action/resource = %q/%q", evt.Action, evt.Resource)
	}
	if evt.Metadata["failure_reason"] != "stale debited transfer reversed" {
		t.Fatalf("metadata = %v", evt.Metadata)
	}
}

func TestEnabledActionsFilter(t *testing.T) {
	ctx := context.Background()
	var events []*audithook.AuditEvent
	ext := audithook.New(capture(&events),
		audithook.WithEnabledActions(audithook.ActionChargeDenied),
	)

	w := &wallet.Wallet{ID: id.NewWalletID(), OwnerType: wallet.OwnerUser, OwnerID: "user_1"}
	if err := ext.OnWalletCreated(ctx, w); err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("disabled action recorded %d events", len(events))
	}

	if err := ext.OnChargeDenied(ctx, w.ID, wallet.MetricCompute, 10, 0); err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("enabled action recorded %d events, want 1", len(events))
	}
}

func TestDisabledActionsFilter(t *testing.T) {
	ctx := context.Background()
	var events []*audithook.AuditEvent
	ext := audithook.New(capture(&events),
		audithook.WithDisabledActions(audithook.ActionWalletCreated),
	)

	w := &wallet.Wallet{ID: id.NewWalletID(), OwnerType: wallet.OwnerUser, OwnerID: "user_1"}
	if err := ext.OnWalletCreated(ctx, w); err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("disabled action recorded %d events", len(events))
	}

	if err := ext.OnChargeDenied(ctx, w.ID, wallet.MetricCompute, 10, 0); err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("remaining action recorded %d events, want 1", len(events))
	}
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	ext := audithook.New(audithook.RecorderFunc(func(_ context.Context, _ *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))

	// Audit failures must never fail the billing operation.
	w := &wallet.Wallet{ID: id.NewWalletID(), OwnerType: wallet.OwnerUser, OwnerID: "user_1"}
	if err := ext.OnWalletCreated(ctx, w); err != nil {
		t.Fatal(err)
	}
}
