// Package audithook bridges Credits lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on any
// particular audit system. Callers inject a RecorderFunc adapter that bridges
// to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/plan"
	"github.com/capsulehq/credits/plugin"
	"github.com/capsulehq/credits/subscription"
	"github.com/capsulehq/credits/transfer"
	"github.com/capsulehq/credits/wallet"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnWalletCreated        = (*Extension)(nil)
	_ plugin.OnChargeDenied         = (*Extension)(nil)
	_ plugin.OnFundingSkipped       = (*Extension)(nil)
	_ plugin.OnTransferApplied      = (*Extension)(nil)
	_ plugin.OnTransferFailed       = (*Extension)(nil)
	_ plugin.OnDevCreditsApplied    = (*Extension)(nil)
	_ plugin.OnAccessDenied         = (*Extension)(nil)
	_ plugin.OnPlanUpserted         = (*Extension)(nil)
	_ plugin.OnSubscriptionCreated  = (*Extension)(nil)
	_ plugin.OnSubscriptionCanceled = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so the audit_hook package stays free of any
// audit-system dependency; callers inject the concrete backend at
// wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Credits lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Wallet and ledger hooks
// ──────────────────────────────────────────────────

// OnWalletCreated implements plugin.OnWalletCreated.
func (e *Extension) OnWalletCreated(ctx context.Context, w *wallet.Wallet) error {
	return e.record(ctx, ActionWalletCreated, SeverityInfo, OutcomeSuccess,
		ResourceWallet, w.ID.String(), CategoryBilling, nil,
		"owner_type", string(w.OwnerType),
		"owner_id", w.OwnerID,
	)
}

// OnChargeDenied implements plugin.OnChargeDenied.
func (e *Extension) OnChargeDenied(ctx context.Context, walletID id.WalletID, metric wallet.Metric, required, available int64) error {
	return e.record(ctx, ActionChargeDenied, SeverityWarning, OutcomeFailure,
		ResourceWallet, walletID.String(), CategoryBilling, nil,
		"metric", string(metric),
		"required", required,
		"available", available,
	)
}

// OnFundingSkipped implements plugin.OnFundingSkipped.
func (e *Extension) OnFundingSkipped(ctx context.Context, walletID id.WalletID, sourceType, sourceID string) error {
	return e.record(ctx, ActionFundingSkipped, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, "", CategoryBilling, nil,
		"wallet_id", walletID.String(),
		"source_type", sourceType,
		"source_id", sourceID,
	)
}

// ──────────────────────────────────────────────────
// Transfer hooks
// ──────────────────────────────────────────────────

// OnTransferApplied implements plugin.OnTransferApplied.
func (e *Extension) OnTransferApplied(ctx context.Context, t *transfer.Transfer) error {
	return e.record(ctx, ActionTransferApplied, SeverityInfo, OutcomeSuccess,
		ResourceTransfer, t.ID.String(), CategoryBilling, nil,
		"from_wallet_id", t.FromWalletID.String(),
		"to_wallet_id", t.ToWalletID.String(),
		"metric", string(t.Metric),
		"amount", t.Amount,
	)
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (e *Extension) OnTransferFailed(ctx context.Context, t *transfer.Transfer, reason string) error {
	return e.record(ctx, ActionTransferFailed, SeverityWarning, OutcomeFailure,
		ResourceTransfer, t.ID.String(), CategoryBilling, nil,
		"from_wallet_id", t.FromWalletID.String(),
		"to_wallet_id", t.ToWalletID.String(),
		"metric", string(t.Metric),
		"amount", t.Amount,
		"failure_reason", reason,
	)
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnDevCreditsApplied implements plugin.OnDevCreditsApplied.
func (e *Extension) OnDevCreditsApplied(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) error {
	return e.record(ctx, ActionDevCreditsApplied, SeverityInfo, OutcomeSuccess,
		ResourceWallet, walletID.String(), CategoryBilling, nil,
		"metric", string(metric),
		"amount", amount,
	)
}

// OnAccessDenied implements plugin.OnAccessDenied.
func (e *Extension) OnAccessDenied(ctx context.Context, featureName, requiredTier, currentTier string) error {
	return e.record(ctx, ActionAccessDenied, SeverityWarning, OutcomeFailure,
		ResourceEntitlement, featureName, CategoryAccess, nil,
		"feature", featureName,
		"required_tier", requiredTier,
		"current_tier", currentTier,
	)
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnPlanUpserted implements plugin.OnPlanUpserted.
func (e *Extension) OnPlanUpserted(ctx context.Context, p *plan.Plan) error {
	return e.record(ctx, ActionPlanUpserted, SeverityInfo, OutcomeSuccess,
		ResourcePlan, p.ID.String(), CategoryBilling, nil,
		"code", p.Code,
		"scope", string(p.Scope),
	)
}

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (e *Extension) OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionCreated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategorySubscription, nil,
		"wallet_id", sub.WalletID.String(),
		"plan_id", sub.PlanID.String(),
		"status", string(sub.Status),
	)
}

// OnSubscriptionCanceled implements plugin.OnSubscriptionCanceled.
func (e *Extension) OnSubscriptionCanceled(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionCanceled, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategorySubscription, nil,
		"wallet_id", sub.WalletID.String(),
		"cancel_at_period_end", sub.CancelAtPeriodEnd,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
