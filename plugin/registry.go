package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/plan"
	"github.com/capsulehq/credits/subscription"
	"github.com/capsulehq/credits/transaction"
	"github.com/capsulehq/credits/transfer"
	"github.com/capsulehq/credits/wallet"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onWalletCreated        []OnWalletCreated
	onTransactionRecorded  []OnTransactionRecorded
	onUsageCharged         []OnUsageCharged
	onChargeDenied         []OnChargeDenied
	onFundingApplied       []OnFundingApplied
	onFundingSkipped       []OnFundingSkipped
	onTransferApplied      []OnTransferApplied
	onTransferFailed       []OnTransferFailed
	onDevCreditsApplied    []OnDevCreditsApplied
	onAccessDenied         []OnAccessDenied
	onPlanUpserted         []OnPlanUpserted
	onSubscriptionCreated  []OnSubscriptionCreated
	onSubscriptionCanceled []OnSubscriptionCanceled
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnWalletCreated); ok {
		r.onWalletCreated = append(r.onWalletCreated, v)
	}
	if v, ok := p.(OnTransactionRecorded); ok {
		r.onTransactionRecorded = append(r.onTransactionRecorded, v)
	}
	if v, ok := p.(OnUsageCharged); ok {
		r.onUsageCharged = append(r.onUsageCharged, v)
	}
	if v, ok := p.(OnChargeDenied); ok {
		r.onChargeDenied = append(r.onChargeDenied, v)
	}
	if v, ok := p.(OnFundingApplied); ok {
		r.onFundingApplied = append(r.onFundingApplied, v)
	}
	if v, ok := p.(OnFundingSkipped); ok {
		r.onFundingSkipped = append(r.onFundingSkipped, v)
	}
	if v, ok := p.(OnTransferApplied); ok {
		r.onTransferApplied = append(r.onTransferApplied, v)
	}
	if v, ok := p.(OnTransferFailed); ok {
		r.onTransferFailed = append(r.onTransferFailed, v)
	}
	if v, ok := p.(OnDevCreditsApplied); ok {
		r.onDevCreditsApplied = append(r.onDevCreditsApplied, v)
	}
	if v, ok := p.(OnAccessDenied); ok {
		r.onAccessDenied = append(r.onAccessDenied, v)
	}
	if v, ok := p.(OnPlanUpserted); ok {
		r.onPlanUpserted = append(r.onPlanUpserted, v)
	}
	if v, ok := p.(OnSubscriptionCreated); ok {
		r.onSubscriptionCreated = append(r.onSubscriptionCreated, v)
	}
	if v, ok := p.(OnSubscriptionCanceled); ok {
		r.onSubscriptionCanceled = append(r.onSubscriptionCanceled, v)
	}

	r.logger.Info("plugin registered", "name", p.Name())

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitWalletCreated emits a wallet created event.
func (r *Registry) EmitWalletCreated(ctx context.Context, w *wallet.Wallet) {
	r.mu.RLock()
	plugins := r.onWalletCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWalletCreated(ctx, w)
		}); err != nil {
			r.logger.Warn("plugin OnWalletCreated failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitTransactionRecorded emits a transaction recorded event.
func (r *Registry) EmitTransactionRecorded(ctx context.Context, txn *transaction.Transaction) {
	r.mu.RLock()
	plugins := r.onTransactionRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransactionRecorded(ctx, txn)
		}); err != nil {
			r.logger.Warn("plugin OnTransactionRecorded failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitUsageCharged emits a usage charged event.
func (r *Registry) EmitUsageCharged(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64, balance *wallet.Balance) {
	r.mu.RLock()
	plugins := r.onUsageCharged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnUsageCharged(ctx, walletID, metric, amount, balance)
		}); err != nil {
			r.logger.Warn("plugin OnUsageCharged failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitChargeDenied emits a charge denied event.
func (r *Registry) EmitChargeDenied(ctx context.Context, walletID id.WalletID, metric wallet.Metric, required, available int64) {
	r.mu.RLock()
	plugins := r.onChargeDenied
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnChargeDenied(ctx, walletID, metric, required, available)
		}); err != nil {
			r.logger.Warn("plugin OnChargeDenied failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitFundingApplied emits a funding applied event.
func (r *Registry) EmitFundingApplied(ctx context.Context, txn *transaction.Transaction) {
	r.mu.RLock()
	plugins := r.onFundingApplied
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFundingApplied(ctx, txn)
		}); err != nil {
			r.logger.Warn("plugin OnFundingApplied failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitFundingSkipped emits a funding skipped event.
func (r *Registry) EmitFundingSkipped(ctx context.Context, walletID id.WalletID, sourceType, sourceID string) {
	r.mu.RLock()
	plugins := r.onFundingSkipped
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFundingSkipped(ctx, walletID, sourceType, sourceID)
		}); err != nil {
			r.logger.Warn("plugin OnFundingSkipped failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitTransferApplied emits a transfer applied event.
func (r *Registry) EmitTransferApplied(ctx context.Context, t *transfer.Transfer) {
	r.mu.RLock()
	plugins := r.onTransferApplied
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransferApplied(ctx, t)
		}); err != nil {
			r.logger.Warn("plugin OnTransferApplied failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitTransferFailed emits a transfer failed event.
func (r *Registry) EmitTransferFailed(ctx context.Context, t *transfer.Transfer, reason string) {
	r.mu.RLock()
	plugins := r.onTransferFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransferFailed(ctx, t, reason)
		}); err != nil {
			r.logger.Warn("plugin OnTransferFailed failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitDevCreditsApplied emits a dev credits applied event.
func (r *Registry) EmitDevCreditsApplied(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) {
	r.mu.RLock()
	plugins := r.onDevCreditsApplied
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDevCreditsApplied(ctx, walletID, metric, amount)
		}); err != nil {
			r.logger.Warn("plugin OnDevCreditsApplied failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitAccessDenied emits an access denied event.
func (r *Registry) EmitAccessDenied(ctx context.Context, featureName, requiredTier, currentTier string) {
	r.mu.RLock()
	plugins := r.onAccessDenied
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAccessDenied(ctx, featureName, requiredTier, currentTier)
		}); err != nil {
			r.logger.Warn("plugin OnAccessDenied failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitPlanUpserted emits a plan upserted event.
func (r *Registry) EmitPlanUpserted(ctx context.Context, p *plan.Plan) {
	r.mu.RLock()
	plugins := r.onPlanUpserted
	r.mu.RUnlock()

	for _, pl := range plugins {
		if err := r.callWithTimeout(ctx, pl.Name(), func() error {
			return pl.OnPlanUpserted(ctx, p)
		}); err != nil {
			r.logger.Warn("plugin OnPlanUpserted failed", "plugin", pl.Name(), "error", err)
		}
	}
}

// EmitSubscriptionCreated emits a subscription created event.
func (r *Registry) EmitSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) {
	r.mu.RLock()
	plugins := r.onSubscriptionCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscriptionCreated(ctx, sub)
		}); err != nil {
			r.logger.Warn("plugin OnSubscriptionCreated failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitSubscriptionCanceled emits a subscription canceled event.
func (r *Registry) EmitSubscriptionCanceled(ctx context.Context, sub *subscription.Subscription) {
	r.mu.RLock()
	plugins := r.onSubscriptionCanceled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscriptionCanceled(ctx, sub)
		}); err != nil {
			r.logger.Warn("plugin OnSubscriptionCanceled failed", "plugin", p.Name(), "error", err)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
