// Package observability provides a metrics extension for Credits that records
// lifecycle event counts via a pluggable MetricFactory.
package observability

import (
	"context"

	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/plan"
	"github.com/capsulehq/credits/plugin"
	"github.com/capsulehq/credits/subscription"
	"github.com/capsulehq/credits/transaction"
	"github.com/capsulehq/credits/transfer"
	"github.com/capsulehq/credits/wallet"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnWalletCreated        = (*MetricsExtension)(nil)
	_ plugin.OnTransactionRecorded  = (*MetricsExtension)(nil)
	_ plugin.OnUsageCharged         = (*MetricsExtension)(nil)
	_ plugin.OnChargeDenied         = (*MetricsExtension)(nil)
	_ plugin.OnFundingApplied       = (*MetricsExtension)(nil)
	_ plugin.OnFundingSkipped       = (*MetricsExtension)(nil)
	_ plugin.OnTransferApplied      = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed       = (*MetricsExtension)(nil)
	_ plugin.OnDevCreditsApplied    = (*MetricsExtension)(nil)
	_ plugin.OnAccessDenied         = (*MetricsExtension)(nil)
	_ plugin.OnPlanUpserted         = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCreated  = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCanceled = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Credits plugin to automatically track wallet metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Wallet metrics
	WalletCreated       Counter
	TransactionRecorded Counter

	// Charge metrics
	UsageCharged      Counter
	UsageChargeAmount Histogram
	ChargeDenied      Counter

	// Funding metrics
	FundingApplied Counter
	FundingSkipped Counter
	FundingAmount  Histogram

	// Transfer metrics
	TransferApplied Counter
	TransferFailed  Counter
	TransferAmount  Histogram

	// Entitlement metrics
	DevCreditsApplied Counter
	AccessDenied      Counter

	// Catalog metrics
	PlanUpserted         Counter
	SubscriptionCreated  Counter
	SubscriptionCanceled Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Wallet metrics
		WalletCreated:       factory.Counter("credits.wallet.created"),
		TransactionRecorded: factory.Counter("credits.transaction.recorded"),

		// Charge metrics
		UsageCharged:      factory.Counter("credits.charge.applied"),
		UsageChargeAmount: factory.Histogram("credits.charge.amount"),
		ChargeDenied:      factory.Counter("credits.charge.denied"),

		// Funding metrics
		FundingApplied: factory.Counter("credits.funding.applied"),
		FundingSkipped: factory.Counter("credits.funding.skipped"),
		FundingAmount:  factory.Histogram("credits.funding.amount"),

		// Transfer metrics
		TransferApplied: factory.Counter("credits.transfer.applied"),
		TransferFailed:  factory.Counter("credits.transfer.failed"),
		TransferAmount:  factory.Histogram("credits.transfer.amount"),

		// Entitlement metrics
		DevCreditsApplied: factory.Counter("credits.dev_credits.applied"),
		AccessDenied:      factory.Counter("credits.access.denied"),

		// Catalog metrics
		PlanUpserted:         factory.Counter("credits.plan.upserted"),
		SubscriptionCreated:  factory.Counter("credits.subscription.created"),
		SubscriptionCanceled: factory.Counter("credits.subscription.canceled"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Wallet and ledger hooks
// ──────────────────────────────────────────────────

// OnWalletCreated implements plugin.OnWalletCreated.
func (m *MetricsExtension) OnWalletCreated(_ context.Context, _ *wallet.Wallet) error {
	m.WalletCreated.Inc()
	return nil
}

// OnTransactionRecorded implements plugin.OnTransactionRecorded.
func (m *MetricsExtension) OnTransactionRecorded(_ context.Context, _ *transaction.Transaction) error {
	m.TransactionRecorded.Inc()
	return nil
}

// OnUsageCharged implements plugin.OnUsageCharged.
func (m *MetricsExtension) OnUsageCharged(_ context.Context, _ id.WalletID, _ wallet.Metric, amount int64, _ *wallet.Balance) error {
	m.UsageCharged.Inc()
	m.UsageChargeAmount.Observe(float64(amount))
	return nil
}

// OnChargeDenied implements plugin.OnChargeDenied.
func (m *MetricsExtension) OnChargeDenied(_ context.Context, _ id.WalletID, _ wallet.Metric, _, _ int64) error {
	m.ChargeDenied.Inc()
	return nil
}

// OnFundingApplied implements plugin.OnFundingApplied.
func (m *MetricsExtension) OnFundingApplied(_ context.Context, txn *transaction.Transaction) error {
	m.FundingApplied.Inc()
	m.FundingAmount.Observe(float64(txn.Amount))
	return nil
}

// OnFundingSkipped implements plugin.OnFundingSkipped.
func (m *MetricsExtension) OnFundingSkipped(_ context.Context, _ id.WalletID, _, _ string) error {
	m.FundingSkipped.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Transfer hooks
// ──────────────────────────────────────────────────

// OnTransferApplied implements plugin.OnTransferApplied.
func (m *MetricsExtension) OnTransferApplied(_ context.Context, t *transfer.Transfer) error {
	m.TransferApplied.Inc()
	m.TransferAmount.Observe(float64(t.Amount))
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ *transfer.Transfer, _ string) error {
	m.TransferFailed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnDevCreditsApplied implements plugin.OnDevCreditsApplied.
func (m *MetricsExtension) OnDevCreditsApplied(_ context.Context, _ id.WalletID, _ wallet.Metric, _ int64) error {
	m.DevCreditsApplied.Inc()
	return nil
}

// OnAccessDenied implements plugin.OnAccessDenied.
func (m *MetricsExtension) OnAccessDenied(_ context.Context, _, _, _ string) error {
	m.AccessDenied.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnPlanUpserted implements plugin.OnPlanUpserted.
func (m *MetricsExtension) OnPlanUpserted(_ context.Context, _ *plan.Plan) error {
	m.PlanUpserted.Inc()
	return nil
}

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (m *MetricsExtension) OnSubscriptionCreated(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionCreated.Inc()
	return nil
}

// OnSubscriptionCanceled implements plugin.OnSubscriptionCanceled.
func (m *MetricsExtension) OnSubscriptionCanceled(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionCanceled.Inc()
	return nil
}
