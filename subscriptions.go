package credits

import (
	"context"

	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/subscription"
	"github.com/capsulehq/credits/types"
)

// ──────────────────────────────────────────────────
// Subscription Management
// ──────────────────────────────────────────────────

// UpsertSubscription inserts or replaces a subscription by provider
// subscription id, the shape webhook handlers feed provider state in
// with.
func (e *Engine) UpsertSubscription(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	if sub.WalletID.IsNil() || sub.StripeSubscriptionID == "" {
		return nil, ErrInvalidInput
	}

	existing, err := e.store.GetSubscriptionByStripeID(ctx, sub.StripeSubscriptionID)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}

	if existing != nil {
		sub.ID = existing.ID
		sub.Entity = existing.Entity
	} else {
		if sub.ID.IsNil() {
			sub.ID = id.NewSubscriptionID()
		}
		sub.Entity = types.NewEntity()
	}
	sub.Touch()

	stored, err := e.store.UpsertSubscription(ctx, sub)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		e.plugins.EmitSubscriptionCreated(ctx, stored)
	}
	return stored, nil
}

// GetSubscription retrieves a subscription by ID.
func (e *Engine) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	return e.store.GetSubscription(ctx, subID)
}

// GetActiveSubscription retrieves the newest active or trialing
// subscription for a wallet.
func (e *Engine) GetActiveSubscription(ctx context.Context, walletID id.WalletID) (*subscription.Subscription, error) {
	return e.store.GetActiveSubscription(ctx, walletID)
}

// CancelSubscription cancels a subscription, either immediately or at
// the end of the current period.
func (e *Engine) CancelSubscription(ctx context.Context, subID id.SubscriptionID, immediately bool) error {
	sub, err := e.store.GetSubscription(ctx, subID)
	if err != nil {
		return err
	}

	if immediately {
		sub.Status = subscription.StatusCanceled
		sub.CancelAtPeriodEnd = false
	} else {
		sub.CancelAtPeriodEnd = true
	}
	sub.Touch()

	if err := e.store.UpdateSubscription(ctx, sub); err != nil {
		return err
	}

	e.plugins.EmitSubscriptionCanceled(ctx, sub)
	return nil
}
