// Package mongo implements the Credits store on MongoDB via Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	credits "github.com/capsulehq/credits"
	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/plan"
	creditstore "github.com/capsulehq/credits/store"
	"github.com/capsulehq/credits/subscription"
	"github.com/capsulehq/credits/transaction"
	"github.com/capsulehq/credits/transfer"
	"github.com/capsulehq/credits/wallet"
)

// Collection name constants.
const (
	colWallets       = "credits_wallets"
	colBalances      = "credits_wallet_balances"
	colTransactions  = "credits_wallet_transactions"
	colTransfers     = "credits_wallet_transfers"
	colPlans         = "credits_billing_plans"
	colSubscriptions = "credits_subscriptions"
)

// compile-time interface check
var _ creditstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all credits collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("credits/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Wallet Store ====================

func (s *Store) CreateWallet(ctx context.Context, w *wallet.Wallet) error {
	m := toWalletModel(w)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return credits.ErrAlreadyExists
		}
		return fmt.Errorf("credits/mongo: create wallet: %w", err)
	}
	return nil
}

func (s *Store) GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	var m walletModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": walletID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, credits.ErrWalletNotFound
		}
		return nil, fmt.Errorf("credits/mongo: get wallet: %w", err)
	}
	return fromWalletModel(&m)
}

func (s *Store) GetWalletByOwner(ctx context.Context, ownerType wallet.OwnerType, ownerID string) (*wallet.Wallet, error) {
	var m walletModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"owner_type": string(ownerType), "owner_id": ownerID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, credits.ErrWalletNotFound
		}
		return nil, fmt.Errorf("credits/mongo: get wallet by owner: %w", err)
	}
	return fromWalletModel(&m)
}

func (s *Store) UpdateWalletDisplayName(ctx context.Context, walletID id.WalletID, displayName string) error {
	res, err := s.mdb.NewUpdate((*walletModel)(nil)).
		Filter(bson.M{"_id": walletID.String()}).
		Set("display_name", displayName).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("credits/mongo: update wallet display name: %w", err)
	}
	if res.MatchedCount() == 0 {
		return credits.ErrWalletNotFound
	}
	return nil
}

// ==================== Balance Store ====================

func (s *Store) CreateBalance(ctx context.Context, b *wallet.Balance) error {
	m := toBalanceModel(b)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return credits.ErrAlreadyExists
		}
		return fmt.Errorf("credits/mongo: create balance: %w", err)
	}
	return nil
}

func (s *Store) GetBalance(ctx context.Context, walletID id.WalletID) (*wallet.Balance, error) {
	var m balanceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": walletID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, credits.ErrBalanceNotFound
		}
		return nil, fmt.Errorf("credits/mongo: get balance: %w", err)
	}
	return fromBalanceModel(&m)
}

func (s *Store) ApplyBalanceDelta(ctx context.Context, walletID id.WalletID, delta wallet.BalanceDelta) (*wallet.Balance, error) {
	inc := bson.M{}
	set := bson.M{"updated_at": now()}

	if delta.ComputeGranted != 0 {
		inc["compute_granted"] = delta.ComputeGranted
	}
	if delta.ComputeUsed != 0 {
		inc["compute_used"] = delta.ComputeUsed
	}
	if delta.StorageGranted != 0 {
		inc["storage_granted"] = delta.StorageGranted
	}
	if delta.StorageUsed != 0 {
		inc["storage_used"] = delta.StorageUsed
	}
	if delta.FeatureTier.Set {
		set["feature_tier"] = delta.FeatureTier.Value
	}
	if delta.ModelTier.Set {
		set["model_tier"] = delta.ModelTier.Value
	}
	if delta.PeriodStart.Set {
		set["period_start"] = delta.PeriodStart.Value
	}
	if delta.PeriodEnd.Set {
		set["period_end"] = delta.PeriodEnd.Value
	}

	update := bson.M{"$set": set}
	if len(inc) > 0 {
		update["$inc"] = inc
	}

	res, err := s.mdb.NewUpdate((*balanceModel)(nil)).
		Filter(bson.M{"_id": walletID.String()}).
		SetUpdate(update).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("credits/mongo: apply balance delta: %w", err)
	}
	if res.MatchedCount() == 0 {
		return nil, credits.ErrBalanceNotFound
	}
	return s.GetBalance(ctx, walletID)
}

func (s *Store) ChargeUsage(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) (*wallet.Balance, error) {
	grantedField, usedField, err := balanceFields(metric)
	if err != nil {
		return nil, err
	}

	res, err := s.mdb.NewUpdate((*balanceModel)(nil)).
		Filter(guardFilter(walletID, grantedField, usedField, amount)).
		SetUpdate(bson.M{
			"$inc": bson.M{usedField: amount},
			"$set": bson.M{"updated_at": now()},
		}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("credits/mongo: charge usage: %w", err)
	}
	if res.MatchedCount() == 0 {
		return nil, s.guardFailure(ctx, walletID, metric, amount)
	}
	return s.GetBalance(ctx, walletID)
}

func (s *Store) DebitGrant(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) (*wallet.Balance, error) {
	grantedField, usedField, err := balanceFields(metric)
	if err != nil {
		return nil, err
	}

	res, err := s.mdb.NewUpdate((*balanceModel)(nil)).
		Filter(guardFilter(walletID, grantedField, usedField, amount)).
		SetUpdate(bson.M{
			"$inc": bson.M{grantedField: -amount},
			"$set": bson.M{"updated_at": now()},
		}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("credits/mongo: debit grant: %w", err)
	}
	if res.MatchedCount() == 0 {
		return nil, s.guardFailure(ctx, walletID, metric, amount)
	}
	return s.GetBalance(ctx, walletID)
}

func (s *Store) CreditGrant(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) (*wallet.Balance, error) {
	grantedField, _, err := balanceFields(metric)
	if err != nil {
		return nil, err
	}

	res, err := s.mdb.NewUpdate((*balanceModel)(nil)).
		Filter(bson.M{"_id": walletID.String()}).
		SetUpdate(bson.M{
			"$inc": bson.M{grantedField: amount},
			"$set": bson.M{"updated_at": now()},
		}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("credits/mongo: credit grant: %w", err)
	}
	if res.MatchedCount() == 0 {
		return nil, credits.ErrBalanceNotFound
	}
	return s.GetBalance(ctx, walletID)
}

// guardFilter matches the balance document only while granted - used can
// still cover the amount. The comparison runs server-side so the debit
// stays atomic.
func guardFilter(walletID id.WalletID, grantedField, usedField string, amount int64) bson.M {
	return bson.M{
		"_id": walletID.String(),
		"$expr": bson.M{
			"$gte": bson.A{
				bson.M{"$subtract": bson.A{"$" + grantedField, "$" + usedField}},
				amount,
			},
		},
	}
}

// guardFailure distinguishes a missing balance document from a guard
// rejection after a conditional update matched nothing.
func (s *Store) guardFailure(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) error {
	b, err := s.GetBalance(ctx, walletID)
	if err != nil {
		return err
	}
	return &credits.InsufficientFundsError{
		Metric:    metric,
		Required:  amount,
		Available: b.Available(metric),
	}
}

// ==================== Transaction Store ====================

func (s *Store) InsertTransaction(ctx context.Context, txn *transaction.Transaction) error {
	m := toTransactionModel(txn)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("credits/mongo: insert transaction: %w", err)
	}
	return nil
}

func (s *Store) InsertTransactionOnce(ctx context.Context, txn *transaction.Transaction) (bool, error) {
	m := toTransactionModel(txn)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if txn.HasSource() && mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("credits/mongo: insert transaction once: %w", err)
	}
	return true, nil
}

func (s *Store) GetTransaction(ctx context.Context, txnID id.TransactionID) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": txnID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, credits.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("credits/mongo: get transaction: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) GetTransactionBySource(ctx context.Context, walletID id.WalletID, sourceType, sourceID string) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"wallet_id":   walletID.String(),
			"source_type": sourceType,
			"source_id":   sourceID,
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, credits.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("credits/mongo: get transaction by source: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) ListTransactions(ctx context.Context, walletID id.WalletID, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	var models []transactionModel

	filter := bson.M{"wallet_id": walletID.String()}
	if opts.Type != "" {
		filter["type"] = opts.Type
	}
	if opts.Metric != "" {
		filter["metric"] = opts.Metric
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("credits/mongo: list transactions: %w", err)
	}

	result := make([]*transaction.Transaction, len(models))
	for i := range models {
		txn, err := fromTransactionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = txn
	}
	return result, nil
}

// ==================== Transfer Store ====================

func (s *Store) CreateTransfer(ctx context.Context, t *transfer.Transfer) error {
	m := toTransferModel(t)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("credits/mongo: create transfer: %w", err)
	}
	return nil
}

func (s *Store) GetTransfer(ctx context.Context, transferID id.TransferID) (*transfer.Transfer, error) {
	var m transferModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": transferID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, credits.ErrTransferNotFound
		}
		return nil, fmt.Errorf("credits/mongo: get transfer: %w", err)
	}
	return fromTransferModel(&m)
}

func (s *Store) UpdateTransferStatus(ctx context.Context, transferID id.TransferID, from, to transfer.Status, failureReason string) error {
	res, err := s.mdb.NewUpdate((*transferModel)(nil)).
		Filter(bson.M{"_id": transferID.String(), "status": string(from)}).
		Set("status", string(to)).
		Set("failure_reason", failureReason).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("credits/mongo: update transfer status: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, err := s.GetTransfer(ctx, transferID); err != nil {
			return err
		}
		return credits.ErrTransferConflict
	}
	return nil
}

func (s *Store) ListStaleTransfers(ctx context.Context, cutoff time.Time, limit int) ([]*transfer.Transfer, error) {
	var models []transferModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{
			"status":     bson.M{"$in": []string{string(transfer.StatusPending), string(transfer.StatusDebited)}},
			"updated_at": bson.M{"$lt": cutoff},
		}).
		Sort(bson.D{{Key: "updated_at", Value: 1}})
	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("credits/mongo: list stale transfers: %w", err)
	}

	result := make([]*transfer.Transfer, len(models))
	for i := range models {
		t, err := fromTransferModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

// ==================== Plan Store ====================

func (s *Store) UpsertPlan(ctx context.Context, p *plan.Plan) (*plan.Plan, error) {
	m := toPlanModel(p)
	m.UpdatedAt = now()

	_, err := s.mdb.NewUpdate((*planModel)(nil)).
		Filter(bson.M{"code": m.Code}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"scope":                  m.Scope,
				"name":                   m.Name,
				"price_cents":            m.PriceCents,
				"price_currency":         m.PriceCurrency,
				"billing_interval":       m.BillingInterval,
				"included_compute":       m.IncludedCompute,
				"included_storage_bytes": m.IncludedStorageBytes,
				"features":               m.Features,
				"active":                 m.Active,
				"stripe_price_id":        m.StripePriceID,
				"updated_at":             m.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"_id":        m.ID,
				"code":       m.Code,
				"created_at": m.CreatedAt,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("credits/mongo: upsert plan: %w", err)
	}
	return s.GetPlanByCode(ctx, p.Code)
}

func (s *Store) GetPlanByCode(ctx context.Context, code string) (*plan.Plan, error) {
	var m planModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"code": code}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, credits.ErrPlanNotFound
		}
		return nil, fmt.Errorf("credits/mongo: get plan by code: %w", err)
	}
	return fromPlanModel(&m)
}

func (s *Store) GetPlanByStripePrice(ctx context.Context, stripePriceID string) (*plan.Plan, error) {
	if stripePriceID == "" {
		return nil, credits.ErrPlanNotFound
	}
	var m planModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"stripe_price_id": stripePriceID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, credits.ErrPlanNotFound
		}
		return nil, fmt.Errorf("credits/mongo: get plan by stripe price: %w", err)
	}
	return fromPlanModel(&m)
}

func (s *Store) ListPlans(ctx context.Context, scope plan.Scope) ([]*plan.Plan, error) {
	var models []planModel

	// Missing price_cents sorts before any number, so free plans lead.
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"scope": string(scope), "active": true}).
		Sort(bson.D{{Key: "price_cents", Value: 1}, {Key: "code", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("credits/mongo: list plans: %w", err)
	}

	result := make([]*plan.Plan, len(models))
	for i := range models {
		p, err := fromPlanModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Subscription Store ====================

func (s *Store) UpsertSubscription(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	if sub.StripeSubscriptionID == "" {
		return nil, credits.ErrInvalidInput
	}
	m := toSubscriptionModel(sub)
	m.UpdatedAt = now()

	_, err := s.mdb.NewUpdate((*subscriptionModel)(nil)).
		Filter(bson.M{"stripe_subscription_id": m.StripeSubscriptionID}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"wallet_id":            m.WalletID,
				"plan_id":              m.PlanID,
				"status":               m.Status,
				"current_period_end":   m.CurrentPeriodEnd,
				"cancel_at_period_end": m.CancelAtPeriodEnd,
				"stripe_customer_id":   m.StripeCustomerID,
				"metadata":             m.Metadata,
				"updated_at":           m.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"_id":                    m.ID,
				"stripe_subscription_id": m.StripeSubscriptionID,
				"created_at":             m.CreatedAt,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("credits/mongo: upsert subscription: %w", err)
	}
	return s.GetSubscriptionByStripeID(ctx, sub.StripeSubscriptionID)
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": subID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, credits.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("credits/mongo: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*subscription.Subscription, error) {
	if stripeSubscriptionID == "" {
		return nil, credits.ErrSubscriptionNotFound
	}
	var m subscriptionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"stripe_subscription_id": stripeSubscriptionID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, credits.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("credits/mongo: get subscription by stripe id: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) GetActiveSubscription(ctx context.Context, walletID id.WalletID) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"wallet_id": walletID.String(),
			"status":    bson.M{"$in": []string{string(subscription.StatusActive), string(subscription.StatusTrialing)}},
		}).
		Sort(bson.D{{Key: "created_at", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, credits.ErrNoActiveSubscription
		}
		return nil, fmt.Errorf("credits/mongo: get active subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("credits/mongo: update subscription: %w", err)
	}
	if res.MatchedCount() == 0 {
		return credits.ErrSubscriptionNotFound
	}
	return nil
}

// ==================== Helpers ====================

// balanceFields maps a metered metric to its granted/used field pair.
func balanceFields(metric wallet.Metric) (granted, used string, err error) {
	switch metric {
	case wallet.MetricCompute:
		return "compute_granted", "compute_used", nil
	case wallet.MetricStorage:
		return "storage_granted", "storage_used", nil
	default:
		return "", "", credits.ErrInvalidMetric
	}
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all credits collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colWallets: {
			{
				Keys:    bson.D{{Key: "owner_type", Value: 1}, {Key: "owner_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colBalances: {},
		colTransactions: {
			{Keys: bson.D{{Key: "wallet_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{
				Keys: bson.D{{Key: "wallet_id", Value: 1}, {Key: "source_type", Value: 1}, {Key: "source_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.D{
						{Key: "source_type", Value: bson.M{"$gt": ""}},
						{Key: "source_id", Value: bson.M{"$gt": ""}},
					}),
			},
		},
		colTransfers: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: 1}}},
			{Keys: bson.D{{Key: "from_wallet_id", Value: 1}}},
		},
		colPlans: {
			{
				Keys:    bson.D{{Key: "code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "scope", Value: 1}, {Key: "active", Value: 1}}},
			{Keys: bson.D{{Key: "stripe_price_id", Value: 1}}},
		},
		colSubscriptions: {
			{
				Keys: bson.D{{Key: "stripe_subscription_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.D{
						{Key: "stripe_subscription_id", Value: bson.M{"$gt": ""}},
					}),
			},
			{Keys: bson.D{{Key: "wallet_id", Value: 1}, {Key: "status", Value: 1}}},
		},
	}
}
