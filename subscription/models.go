package subscription

import (
	"time"

	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/types"
)

// Status mirrors the payment provider's subscription lifecycle.
type Status string

const (
	StatusActive     Status = "active"
	StatusTrialing   Status = "trialing"
	StatusPastDue    Status = "past_due"
	StatusCanceled   Status = "canceled"
	StatusIncomplete Status = "incomplete"
)

// IsActive reports whether the subscription currently entitles the
// wallet to its plan.
func (s Status) IsActive() bool {
	return s == StatusActive || s == StatusTrialing
}

// Subscription links a wallet to a plan through the payment provider.
// At most one active row per wallet is the practical expectation;
// lookups take the newest when callers violate it.
type Subscription struct {
	types.Entity
	ID                   id.SubscriptionID `json:"id"`
	WalletID             id.WalletID       `json:"wallet_id"`
	PlanID               id.PlanID         `json:"plan_id"`
	Status               Status            `json:"status"`
	CurrentPeriodEnd     *time.Time        `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool              `json:"cancel_at_period_end"`
	StripeSubscriptionID string            `json:"stripe_subscription_id,omitempty"`
	StripeCustomerID     string            `json:"stripe_customer_id,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`
}
