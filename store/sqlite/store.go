// Package sqlite implements the Credits store on SQLite via Grove ORM.
// It is intended for development and single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	credits "github.com/capsulehq/credits"
	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/plan"
	creditstore "github.com/capsulehq/credits/store"
	"github.com/capsulehq/credits/subscription"
	"github.com/capsulehq/credits/transaction"
	"github.com/capsulehq/credits/transfer"
	"github.com/capsulehq/credits/wallet"
)

// compile-time interface check
var _ creditstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("credits/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("credits/sqlite: migration failed: %w", err)
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
	res, err := s.sdb.NewInsert(m).
		OnConflict("(owner_type, owner_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return credits.ErrAlreadyExists
	}
	return nil
}

func (s *Store) GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	m := new(walletModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", walletID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, credits.ErrWalletNotFound
		}
		return nil, err
	}
	return fromWalletModel(m)
}

func (s *Store) GetWalletByOwner(ctx context.Context, ownerType wallet.OwnerType, ownerID string) (*wallet.Wallet, error) {
	m := new(walletModel)
	err := s.sdb.NewSelect(m).
		Where("owner_type = ?", string(ownerType)).
		Where("owner_id = ?", ownerID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, credits.ErrWalletNotFound
		}
		return nil, err
	}
	return fromWalletModel(m)
}

func (s *Store) UpdateWalletDisplayName(ctx context.Context, walletID id.WalletID, displayName string) error {
	res, err := s.sdb.NewUpdate((*walletModel)(nil)).
		Set("display_name = ?", displayName).
		Set("updated_at = ?", now()).
		Where("id = ?", walletID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return credits.ErrWalletNotFound
	}
	return nil
}

// ==================== Balance Store ====================

func (s *Store) CreateBalance(ctx context.Context, b *wallet.Balance) error {
	m := toBalanceModel(b)
	res, err := s.sdb.NewInsert(m).
		OnConflict("(wallet_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return credits.ErrAlreadyExists
	}
	return nil
}

func (s *Store) GetBalance(ctx context.Context, walletID id.WalletID) (*wallet.Balance, error) {
	m := new(balanceModel)
	err := s.sdb.NewSelect(m).
		Where("wallet_id = ?", walletID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, credits.ErrBalanceNotFound
		}
		return nil, err
	}
	return fromBalanceModel(m)
}

func (s *Store) ApplyBalanceDelta(ctx context.Context, walletID id.WalletID, delta wallet.BalanceDelta) (*wallet.Balance, error) {
	q := s.sdb.NewUpdate((*balanceModel)(nil))

	if delta.ComputeGranted != 0 {
		q = q.Set("compute_granted = compute_granted + ?", delta.ComputeGranted)
	}
	if delta.ComputeUsed != 0 {
		q = q.Set("compute_used = compute_used + ?", delta.ComputeUsed)
	}
	if delta.StorageGranted != 0 {
		q = q.Set("storage_granted = storage_granted + ?", delta.StorageGranted)
	}
	if delta.StorageUsed != 0 {
		q = q.Set("storage_used = storage_used + ?", delta.StorageUsed)
	}
	if delta.FeatureTier.Set {
		q = q.Set("feature_tier = ?", delta.FeatureTier.Value)
	}
	if delta.ModelTier.Set {
		q = q.Set("model_tier = ?", delta.ModelTier.Value)
	}
	if delta.PeriodStart.Set {
		q = q.Set("period_start = ?", delta.PeriodStart.Value)
	}
	if delta.PeriodEnd.Set {
		q = q.Set("period_end = ?", delta.PeriodEnd.Value)
	}
	q = q.Set("updated_at = ?", now()).
		Where("wallet_id = ?", walletID.String())

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, credits.ErrBalanceNotFound
	}
	return s.GetBalance(ctx, walletID)
}

func (s *Store) ChargeUsage(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) (*wallet.Balance, error) {
	grantedCol, usedCol, err := balanceColumns(metric)
	if err != nil {
		return nil, err
	}

	res, err := s.sdb.NewUpdate((*balanceModel)(nil)).
		Set(fmt.Sprintf("%s = %s + ?", usedCol, usedCol), amount).
		Set("updated_at = ?", now()).
		Where("wallet_id = ?", walletID.String()).
		Where(fmt.Sprintf("%s - %s >= ?", grantedCol, usedCol), amount).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, s.guardFailure(ctx, walletID, metric, amount)
	}
	return s.GetBalance(ctx, walletID)
}

func (s *Store) DebitGrant(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) (*wallet.Balance, error) {
	grantedCol, usedCol, err := balanceColumns(metric)
	if err != nil {
		return nil, err
	}

	res, err := s.sdb.NewUpdate((*balanceModel)(nil)).
		Set(fmt.Sprintf("%s = %s - ?", grantedCol, grantedCol), amount).
		Set("updated_at = ?", now()).
		Where("wallet_id = ?", walletID.String()).
		Where(fmt.Sprintf("%s - %s >= ?", grantedCol, usedCol), amount).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, s.guardFailure(ctx, walletID, metric, amount)
	}
	return s.GetBalance(ctx, walletID)
}

func (s *Store) CreditGrant(ctx context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) (*wallet.Balance, error) {
	grantedCol, _, err := balanceColumns(metric)
	if err != nil {
		return nil, err
	}

	res, err := s.sdb.NewUpdate((*balanceModel)(nil)).
		Set(fmt.Sprintf("%s = %s + ?", grantedCol, grantedCol), amount).
		Set("updated_at = ?", now()).
		Where("wallet_id = ?", walletID.String()).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, credits.ErrBalanceNotFound
	}
	return s.GetBalance(ctx, walletID)
}

// guardFailure distinguishes a missing balance row from a guard rejection
// after a conditional update touched zero rows.
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
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) InsertTransactionOnce(ctx context.Context, txn *transaction.Transaction) (bool, error) {
	m := toTransactionModel(txn)
	if !txn.HasSource() {
		_, err := s.sdb.NewInsert(m).Exec(ctx)
		return err == nil, err
	}
	res, err := s.sdb.NewInsert(m).
		OnConflict("(wallet_id, source_type, source_id) WHERE source_type != '' AND source_id != '' DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *Store) GetTransaction(ctx context.Context, txnID id.TransactionID) (*transaction.Transaction, error) {
	m := new(transactionModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", txnID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, credits.ErrTransactionNotFound
		}
		return nil, err
	}
	return fromTransactionModel(m)
}

func (s *Store) GetTransactionBySource(ctx context.Context, walletID id.WalletID, sourceType, sourceID string) (*transaction.Transaction, error) {
	m := new(transactionModel)
	err := s.sdb.NewSelect(m).
		Where("wallet_id = ?", walletID.String()).
		Where("source_type = ?", sourceType).
		Where("source_id = ?", sourceID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, credits.ErrTransactionNotFound
		}
		return nil, err
	}
	return fromTransactionModel(m)
}

func (s *Store) ListTransactions(ctx context.Context, walletID id.WalletID, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	var models []transactionModel
	q := s.sdb.NewSelect(&models).Where("wallet_id = ?", walletID.String())

	if opts.Type != "" {
		q = q.Where("type = ?", opts.Type)
	}
	if opts.Metric != "" {
		q = q.Where("metric = ?", opts.Metric)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetTransfer(ctx context.Context, transferID id.TransferID) (*transfer.Transfer, error) {
	m := new(transferModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", transferID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, credits.ErrTransferNotFound
		}
		return nil, err
	}
	return fromTransferModel(m)
}

func (s *Store) UpdateTransferStatus(ctx context.Context, transferID id.TransferID, from, to transfer.Status, failureReason string) error {
	res, err := s.sdb.NewUpdate((*transferModel)(nil)).
		Set("status = ?", string(to)).
		Set("failure_reason = ?", failureReason).
		Set("updated_at = ?", now()).
		Where("id = ?", transferID.String()).
		Where("status = ?", string(from)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.GetTransfer(ctx, transferID); err != nil {
			return err
		}
		return credits.ErrTransferConflict
	}
	return nil
}

func (s *Store) ListStaleTransfers(ctx context.Context, cutoff time.Time, limit int) ([]*transfer.Transfer, error) {
	var models []transferModel
	q := s.sdb.NewSelect(&models).
		Where("status IN (?, ?)", string(transfer.StatusPending), string(transfer.StatusDebited)).
		Where("updated_at < ?", cutoff).
		OrderExpr("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	_, err := s.sdb.NewInsert(m).
		OnConflict("(code) DO UPDATE").
		Set("scope = EXCLUDED.scope").
		Set("name = EXCLUDED.name").
		Set("price_cents = EXCLUDED.price_cents").
		Set("price_currency = EXCLUDED.price_currency").
		Set("billing_interval = EXCLUDED.billing_interval").
		Set("included_compute = EXCLUDED.included_compute").
		Set("included_storage_bytes = EXCLUDED.included_storage_bytes").
		Set("features = EXCLUDED.features").
		Set("active = EXCLUDED.active").
		Set("stripe_price_id = EXCLUDED.stripe_price_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	// Re-select so the caller sees the stored row, including the ID and
	// created_at of a pre-existing plan with the same code.
	return s.GetPlanByCode(ctx, p.Code)
}

func (s *Store) GetPlanByCode(ctx context.Context, code string) (*plan.Plan, error) {
	m := new(planModel)
	err := s.sdb.NewSelect(m).
		Where("code = ?", code).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, credits.ErrPlanNotFound
		}
		return nil, err
	}
	return fromPlanModel(m)
}

func (s *Store) GetPlanByStripePrice(ctx context.Context, stripePriceID string) (*plan.Plan, error) {
	if stripePriceID == "" {
		return nil, credits.ErrPlanNotFound
	}
	m := new(planModel)
	err := s.sdb.NewSelect(m).
		Where("stripe_price_id = ?", stripePriceID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, credits.ErrPlanNotFound
		}
		return nil, err
	}
	return fromPlanModel(m)
}

func (s *Store) ListPlans(ctx context.Context, scope plan.Scope) ([]*plan.Plan, error) {
	var models []planModel
	err := s.sdb.NewSelect(&models).
		Where("scope = ?", string(scope)).
		Where("active = ?", true).
		OrderExpr("price_cents IS NOT NULL, price_cents ASC, code ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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
	_, err := s.sdb.NewInsert(m).
		OnConflict("(stripe_subscription_id) WHERE stripe_subscription_id != '' DO UPDATE").
		Set("wallet_id = EXCLUDED.wallet_id").
		Set("plan_id = EXCLUDED.plan_id").
		Set("status = EXCLUDED.status").
		Set("current_period_end = EXCLUDED.current_period_end").
		Set("cancel_at_period_end = EXCLUDED.cancel_at_period_end").
		Set("stripe_customer_id = EXCLUDED.stripe_customer_id").
		Set("metadata = EXCLUDED.metadata").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetSubscriptionByStripeID(ctx, sub.StripeSubscriptionID)
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", subID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, credits.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return fromSubscriptionModel(m)
}

func (s *Store) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*subscription.Subscription, error) {
	if stripeSubscriptionID == "" {
		return nil, credits.ErrSubscriptionNotFound
	}
	m := new(subscriptionModel)
	err := s.sdb.NewSelect(m).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, credits.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return fromSubscriptionModel(m)
}

func (s *Store) GetActiveSubscription(ctx context.Context, walletID id.WalletID) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.sdb.NewSelect(m).
		Where("wallet_id = ?", walletID.String()).
		Where("status IN (?, ?)", string(subscription.StatusActive), string(subscription.StatusTrialing)).
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, credits.ErrNoActiveSubscription
		}
		return nil, err
	}
	return fromSubscriptionModel(m)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return credits.ErrSubscriptionNotFound
	}
	return nil
}

// ==================== Helpers ====================

// balanceColumns maps a metered metric to its granted/used column pair.
func balanceColumns(metric wallet.Metric) (granted, used string, err error) {
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

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
