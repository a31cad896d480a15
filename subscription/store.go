package subscription

import (
	"context"

	"github.com/capsulehq/credits/id"
)

// Store is the subscription slice of the unified store interface.
type Store interface {
	// UpsertSubscription inserts or replaces by provider subscription
	// id and returns the stored row.
	UpsertSubscription(ctx context.Context, s *Subscription) (*Subscription, error)

	GetSubscription(ctx context.Context, subID id.SubscriptionID) (*Subscription, error)
	GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*Subscription, error)

	// GetActiveSubscription returns the newest active or trialing
	// subscription for the wallet.
	GetActiveSubscription(ctx context.Context, walletID id.WalletID) (*Subscription, error)

	UpdateSubscription(ctx context.Context, s *Subscription) error
}
