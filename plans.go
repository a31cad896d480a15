package credits

import (
	"context"

	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/plan"
	"github.com/capsulehq/credits/types"
)

// ──────────────────────────────────────────────────
// Plan Catalog
// ──────────────────────────────────────────────────

// ListPlans returns active catalog plans for a scope, ordered price
// ascending with free plans first. Retired plan codes are filtered out
// here, after the fetch, so the rows stay queryable for historical
// subscriptions.
func (e *Engine) ListPlans(ctx context.Context, scope plan.Scope) ([]*plan.Plan, error) {
	plans, err := e.store.ListPlans(ctx, scope)
	if err != nil {
		return nil, err
	}

	visible := plans[:0]
	for _, p := range plans {
		if !plan.IsRetired(p.Code) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// GetPlanByCode retrieves a plan by its code.
func (e *Engine) GetPlanByCode(ctx context.Context, code string) (*plan.Plan, error) {
	return e.store.GetPlanByCode(ctx, code)
}

// GetPlanByStripePrice retrieves the plan mapped to a Stripe price id.
func (e *Engine) GetPlanByStripePrice(ctx context.Context, stripePriceID string) (*plan.Plan, error) {
	return e.store.GetPlanByStripePrice(ctx, stripePriceID)
}

// UpsertPlan inserts or replaces a catalog plan by code and returns
// the stored row.
func (e *Engine) UpsertPlan(ctx context.Context, p *plan.Plan) (*plan.Plan, error) {
	if p.Code == "" {
		return nil, ErrInvalidInput
	}
	if p.ID.IsNil() {
		p.ID = id.NewPlanID()
	}
	if p.CreatedAt.IsZero() {
		p.Entity = types.NewEntity()
	}
	p.Touch()

	stored, err := e.store.UpsertPlan(ctx, p)
	if err != nil {
		return nil, err
	}

	e.plugins.EmitPlanUpserted(ctx, stored)
	return stored, nil
}
