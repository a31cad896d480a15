package credits

import (
	"context"
	"time"

	"github.com/capsulehq/credits/entitlement"
	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/plan"
	"github.com/capsulehq/credits/transaction"
	"github.com/capsulehq/credits/types"
	"github.com/capsulehq/credits/wallet"
)

// Development ceilings a bypassed wallet is kept topped up to.
const (
	DevComputeCeiling int64 = 1_000_000
	DevStorageCeiling int64 = 50 << 30 // 50 GiB
)

// ──────────────────────────────────────────────────
// Bypass resolution
// ──────────────────────────────────────────────────

// ShouldBypassBilling decides whether billing is skipped for an owner.
// Resolution order, first match wins: the bypass-all flag, the
// dev-bypass flag (failing open outside production when unset), then
// the admin check when an owner id is available. Admin-check errors
// are logged and treated as "not admin".
func (e *Engine) ShouldBypassBilling(ctx context.Context, ownerID string) bool {
	if e.bypass.BypassAll {
		return true
	}

	if e.bypass.devBypassEnabled() {
		return true
	}

	if ownerID != "" && e.adminCheck != nil {
		isAdmin, err := e.adminCheck(ctx, ownerID)
		if err != nil {
			e.logger.Warn("admin check failed", "owner_id", ownerID, "error", err)
			return false
		}
		return isAdmin
	}

	return false
}

// ──────────────────────────────────────────────────
// Wallet context
// ──────────────────────────────────────────────────

// WalletContext is what callers resolve at the start of any billable
// operation: the wallet, its balance, and the bypass decision.
type WalletContext struct {
	Wallet  *wallet.Wallet
	Balance *wallet.Balance
	Bypass  bool
}

// ResolveParams configures ResolveWalletContext.
type ResolveParams struct {
	OwnerType   wallet.OwnerType
	OwnerID     string
	DisplayName string

	// DevCredits, when non-nil, tops a bypassed wallet up to the
	// development ceilings as part of resolution.
	DevCredits *DevCreditParams
}

// DevCreditParams selects which metrics ApplyDevCreditsIfNeeded tops
// up.
type DevCreditParams struct {
	GrantCompute bool
	GrantStorage bool
}

// ResolveWalletContext composes bypass resolution, wallet and balance
// get-or-create, and the optional dev-credit top-up into the single
// call the rest of the platform starts from.
func (e *Engine) ResolveWalletContext(ctx context.Context, p ResolveParams) (*WalletContext, error) {
	bypass := e.ShouldBypassBilling(ctx, p.OwnerID)

	w, err := e.EnsureWallet(ctx, p.OwnerType, p.OwnerID, p.DisplayName)
	if err != nil {
		return nil, err
	}

	b, err := e.EnsureBalance(ctx, w.ID)
	if err != nil {
		return nil, err
	}

	wc := &WalletContext{Wallet: w, Balance: b, Bypass: bypass}

	if p.DevCredits != nil {
		if err := e.ApplyDevCreditsIfNeeded(ctx, wc, *p.DevCredits); err != nil {
			return nil, err
		}
	}

	return wc, nil
}

// ApplyDevCreditsIfNeeded tops a bypassed wallet up to the development
// ceilings so bypassed wallets never run out. It only acts when the
// context's bypass flag is set and the current grant is below the
// ceiling; a wallet already at or above the ceiling is untouched.
func (e *Engine) ApplyDevCreditsIfNeeded(ctx context.Context, wc *WalletContext, p DevCreditParams) error {
	if !wc.Bypass {
		return nil
	}

	type topup struct {
		metric  wallet.Metric
		ceiling int64
		wanted  bool
	}

	topups := []topup{
		{wallet.MetricCompute, DevComputeCeiling, p.GrantCompute},
		{wallet.MetricStorage, DevStorageCeiling, p.GrantStorage},
	}

	for _, tu := range topups {
		if !tu.wanted {
			continue
		}

		shortfall := tu.ceiling - wc.Balance.Granted(tu.metric)
		if shortfall <= 0 {
			continue
		}

		delta := wallet.BalanceDelta{}
		if tu.metric == wallet.MetricStorage {
			delta.StorageGranted = shortfall
		} else {
			delta.ComputeGranted = shortfall
		}

		b, err := e.store.ApplyBalanceDelta(ctx, wc.Wallet.ID, delta)
		if err != nil {
			return err
		}
		wc.Balance = b

		txn := &transaction.Transaction{
			Entity:      types.NewEntity(),
			ID:          id.NewTransactionID(),
			WalletID:    wc.Wallet.ID,
			Type:        transaction.TypeBonus,
			Metric:      tu.metric,
			Amount:      shortfall,
			Description: "development credit top-up",
		}
		if err := e.store.InsertTransaction(ctx, txn); err != nil {
			return err
		}

		e.plugins.EmitTransactionRecorded(ctx, txn)
		e.plugins.EmitDevCreditsApplied(ctx, wc.Wallet.ID, tu.metric, shortfall)
	}

	return nil
}

// ──────────────────────────────────────────────────
// Feature gating
// ──────────────────────────────────────────────────

// AccessParams configures a feature-tier gate check.
type AccessParams struct {
	Balance      *wallet.Balance
	Bypass       bool
	RequiredTier string // defaults to starter
	FeatureName  string
}

// EnsureFeatureAccess checks the feature-tier gate against an
// already-loaded balance. It performs no store access, so it is safe
// to call speculatively before doing expensive work. Bypass always
// passes; a wallet with no tier at all but a positive compute grant
// passes as legacy provisioning.
func (e *Engine) EnsureFeatureAccess(ctx context.Context, p AccessParams) error {
	if p.Bypass {
		return nil
	}

	required := p.RequiredTier
	if required == "" {
		required = entitlement.TierStarter
	}

	current := ""
	if p.Balance != nil && p.Balance.FeatureTier != nil {
		current = *p.Balance.FeatureTier
	}

	if entitlement.Meets(current, required) {
		return nil
	}

	if current == "" && p.Balance != nil && p.Balance.ComputeGranted > 0 {
		return nil
	}

	e.plugins.EmitAccessDenied(ctx, p.FeatureName, required, current)
	return &AccessError{
		FeatureName:  p.FeatureName,
		RequiredTier: required,
		CurrentTier:  current,
	}
}

// ──────────────────────────────────────────────────
// Plan grants
// ──────────────────────────────────────────────────

// GrantParams configures GrantPlanAllowances.
type GrantParams struct {
	WalletID   id.WalletID
	Plan       *plan.Plan
	SourceType string
	SourceID   string
	Reason     string

	// Optional period override; defaults to now through one billing
	// interval of the plan.
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// GrantPlanAllowances turns a plan into concrete ledger grants for a
// billing period. The compute and storage legs are independently
// idempotent on (wallet, source type, source id + metric suffix); a
// plan without a storage allowance skips the storage leg entirely.
// After the legs, a zero-counter delta stamps the plan's feature tier,
// model tier, and period bounds so they reflect the latest plan even
// when both legs were already applied by an earlier retry.
func (e *Engine) GrantPlanAllowances(ctx context.Context, p GrantParams) (*wallet.Balance, error) {
	if p.Plan == nil {
		return nil, ErrInvalidInput
	}
	if p.SourceType == "" || p.SourceID == "" {
		return nil, ErrMissingSource
	}

	if _, err := e.EnsureBalance(ctx, p.WalletID); err != nil {
		return nil, err
	}

	periodStart := now()
	if p.PeriodStart != nil {
		periodStart = *p.PeriodStart
	}
	periodEnd := p.Plan.PeriodEnd(periodStart)
	if p.PeriodEnd != nil {
		periodEnd = *p.PeriodEnd
	}

	reason := p.Reason
	if reason == "" {
		reason = "plan allowance: " + p.Plan.Code
	}

	if p.Plan.IncludedCompute > 0 {
		_, err := e.RecordFundingIfMissing(ctx, FundingParams{
			WalletID:    p.WalletID,
			Metric:      wallet.MetricCompute,
			Amount:      p.Plan.IncludedCompute,
			SourceType:  p.SourceType,
			SourceID:    p.SourceID + ":compute",
			Description: reason,
			Metadata:    transaction.Metadata{PlanCode: p.Plan.Code},
		})
		if err != nil {
			return nil, err
		}
	}

	if p.Plan.IncludedStorageBytes > 0 {
		_, err := e.RecordFundingIfMissing(ctx, FundingParams{
			WalletID:    p.WalletID,
			Metric:      wallet.MetricStorage,
			Amount:      p.Plan.IncludedStorageBytes,
			SourceType:  p.SourceType,
			SourceID:    p.SourceID + ":storage",
			Description: reason,
			Metadata:    transaction.Metadata{PlanCode: p.Plan.Code},
		})
		if err != nil {
			return nil, err
		}
	}

	// Stamp tier and period unconditionally so retried webhooks still
	// land the latest plan metadata.
	delta := wallet.BalanceDelta{
		PeriodStart: wallet.SetTime(periodStart),
		PeriodEnd:   wallet.SetTime(periodEnd),
	}
	if p.Plan.Features.FeatureTier != "" {
		delta.FeatureTier = wallet.SetField(p.Plan.Features.FeatureTier)
	}
	if p.Plan.Features.ModelTier != "" {
		delta.ModelTier = wallet.SetField(p.Plan.Features.ModelTier)
	}

	return e.store.ApplyBalanceDelta(ctx, p.WalletID, delta)
}
