package plan

import "context"

// Store is the plan-catalog slice of the unified store interface.
type Store interface {
	// UpsertPlan inserts or replaces by code and returns the stored
	// row. Backends whose upsert cannot return the row fall back to a
	// re-select by code.
	UpsertPlan(ctx context.Context, p *Plan) (*Plan, error)

	GetPlanByCode(ctx context.Context, code string) (*Plan, error)
	GetPlanByStripePrice(ctx context.Context, stripePriceID string) (*Plan, error)

	// ListPlans returns active plans ordered by price ascending with
	// free (nil-price) plans first. Retired codes are filtered by the
	// caller, not the store.
	ListPlans(ctx context.Context, scope Scope) ([]*Plan, error)
}
