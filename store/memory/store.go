// Package memory provides an in-memory store implementation for
// testing and development. All data is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/capsulehq/credits"
	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/plan"
	ledgerstore "github.com/capsulehq/credits/store"
	"github.com/capsulehq/credits/subscription"
	"github.com/capsulehq/credits/transaction"
	"github.com/capsulehq/credits/transfer"
	"github.com/capsulehq/credits/wallet"
)

// Store is a thread-safe in-memory implementation of store.Store.
// The single mutex makes every balance primitive trivially atomic.
type Store struct {
	mu     sync.RWMutex
	closed bool

	wallets        map[string]*wallet.Wallet // by wallet id
	walletsByOwner map[string]string         // owner key -> wallet id
	balances       map[string]*wallet.Balance

	txns         map[string]*transaction.Transaction
	txnOrder     []string          // insertion order, for listings
	txnsBySource map[string]string // source key -> txn id

	transfers map[string]*transfer.Transfer

	plans map[string]*plan.Plan // by code
	subs  map[string]*subscription.Subscription
}

var _ ledgerstore.Store = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		wallets:        make(map[string]*wallet.Wallet),
		walletsByOwner: make(map[string]string),
		balances:       make(map[string]*wallet.Balance),
		txns:           make(map[string]*transaction.Transaction),
		txnsBySource:   make(map[string]string),
		transfers:      make(map[string]*transfer.Transfer),
		plans:          make(map[string]*plan.Plan),
		subs:           make(map[string]*subscription.Subscription),
	}
}

func ownerKey(ownerType wallet.OwnerType, ownerID string) string {
	return string(ownerType) + "/" + ownerID
}

func sourceKey(walletID id.WalletID, sourceType, sourceID string) string {
	return walletID.String() + "/" + sourceType + "/" + sourceID
}

// ──────────────────────────────────────────────────
// Wallets
// ──────────────────────────────────────────────────

func (s *Store) CreateWallet(_ context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return credits.ErrStoreClosed
	}

	key := ownerKey(w.OwnerType, w.OwnerID)
	if _, exists := s.walletsByOwner[key]; exists {
		return credits.ErrAlreadyExists
	}

	cp := *w
	s.wallets[w.ID.String()] = &cp
	s.walletsByOwner[key] = w.ID.String()
	return nil
}

func (s *Store) GetWallet(_ context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wallets[walletID.String()]
	if !ok {
		return nil, credits.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *Store) GetWalletByOwner(_ context.Context, ownerType wallet.OwnerType, ownerID string) (*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wid, ok := s.walletsByOwner[ownerKey(ownerType, ownerID)]
	if !ok {
		return nil, credits.ErrWalletNotFound
	}
	cp := *s.wallets[wid]
	return &cp, nil
}

func (s *Store) UpdateWalletDisplayName(_ context.Context, walletID id.WalletID, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[walletID.String()]
	if !ok {
		return credits.ErrWalletNotFound
	}
	w.DisplayName = displayName
	w.Touch()
	return nil
}

// ──────────────────────────────────────────────────
// Balances
// ──────────────────────────────────────────────────

func (s *Store) CreateBalance(_ context.Context, b *wallet.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return credits.ErrStoreClosed
	}

	key := b.WalletID.String()
	if _, exists := s.balances[key]; exists {
		return credits.ErrAlreadyExists
	}

	cp := *b
	s.balances[key] = &cp
	return nil
}

func (s *Store) GetBalance(_ context.Context, walletID id.WalletID) (*wallet.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.balances[walletID.String()]
	if !ok {
		return nil, credits.ErrBalanceNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *Store) ApplyBalanceDelta(_ context.Context, walletID id.WalletID, delta wallet.BalanceDelta) (*wallet.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[walletID.String()]
	if !ok {
		return nil, credits.ErrBalanceNotFound
	}

	delta.ApplyTo(b)
	cp := *b
	return &cp, nil
}

func (s *Store) ChargeUsage(_ context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) (*wallet.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[walletID.String()]
	if !ok {
		return nil, credits.ErrBalanceNotFound
	}

	if available := b.Available(metric); available < amount {
		return nil, &credits.InsufficientFundsError{
			Metric:    metric,
			Required:  amount,
			Available: available,
		}
	}

	if metric == wallet.MetricStorage {
		b.StorageUsed += amount
	} else {
		b.ComputeUsed += amount
	}
	b.UpdatedAt = time.Now().UTC()

	cp := *b
	return &cp, nil
}

func (s *Store) DebitGrant(_ context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) (*wallet.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[walletID.String()]
	if !ok {
		return nil, credits.ErrBalanceNotFound
	}

	if available := b.Available(metric); available < amount {
		return nil, &credits.InsufficientFundsError{
			Metric:    metric,
			Required:  amount,
			Available: available,
		}
	}

	if metric == wallet.MetricStorage {
		b.StorageGranted -= amount
	} else {
		b.ComputeGranted -= amount
	}
	b.UpdatedAt = time.Now().UTC()

	cp := *b
	return &cp, nil
}

func (s *Store) CreditGrant(_ context.Context, walletID id.WalletID, metric wallet.Metric, amount int64) (*wallet.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[walletID.String()]
	if !ok {
		return nil, credits.ErrBalanceNotFound
	}

	if metric == wallet.MetricStorage {
		b.StorageGranted += amount
	} else {
		b.ComputeGranted += amount
	}
	b.UpdatedAt = time.Now().UTC()

	cp := *b
	return &cp, nil
}

// ──────────────────────────────────────────────────
// Transactions
// ──────────────────────────────────────────────────

func (s *Store) InsertTransaction(_ context.Context, txn *transaction.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(txn)
}

func (s *Store) InsertTransactionOnce(_ context.Context, txn *transaction.Transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if txn.HasSource() {
		key := sourceKey(txn.WalletID, txn.SourceType, txn.SourceID)
		if _, exists := s.txnsBySource[key]; exists {
			return false, nil
		}
	}

	if err := s.insertLocked(txn); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) insertLocked(txn *transaction.Transaction) error {
	if s.closed {
		return credits.ErrStoreClosed
	}

	cp := *txn
	s.txns[txn.ID.String()] = &cp
	s.txnOrder = append(s.txnOrder, txn.ID.String())
	if txn.HasSource() {
		s.txnsBySource[sourceKey(txn.WalletID, txn.SourceType, txn.SourceID)] = txn.ID.String()
	}
	return nil
}

func (s *Store) GetTransaction(_ context.Context, txnID id.TransactionID) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.txns[txnID.String()]
	if !ok {
		return nil, credits.ErrTransactionNotFound
	}
	cp := *txn
	return &cp, nil
}

func (s *Store) GetTransactionBySource(_ context.Context, walletID id.WalletID, sourceType, sourceID string) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tid, ok := s.txnsBySource[sourceKey(walletID, sourceType, sourceID)]
	if !ok {
		return nil, credits.ErrTransactionNotFound
	}
	cp := *s.txns[tid]
	return &cp, nil
}

func (s *Store) ListTransactions(_ context.Context, walletID id.WalletID, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*transaction.Transaction
	// Newest first.
	for i := len(s.txnOrder) - 1; i >= 0; i-- {
		txn := s.txns[s.txnOrder[i]]
		if txn.WalletID != walletID {
			continue
		}
		if opts.Type != "" && txn.Type != opts.Type {
			continue
		}
		if opts.Metric != "" && string(txn.Metric) != opts.Metric {
			continue
		}
		cp := *txn
		result = append(result, &cp)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Transfers
// ──────────────────────────────────────────────────

func (s *Store) CreateTransfer(_ context.Context, t *transfer.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return credits.ErrStoreClosed
	}

	cp := *t
	s.transfers[t.ID.String()] = &cp
	return nil
}

func (s *Store) GetTransfer(_ context.Context, transferID id.TransferID) (*transfer.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transfers[transferID.String()]
	if !ok {
		return nil, credits.ErrTransferNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) UpdateTransferStatus(_ context.Context, transferID id.TransferID, from, to transfer.Status, failureReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transfers[transferID.String()]
	if !ok {
		return credits.ErrTransferNotFound
	}
	if t.Status != from {
		return credits.ErrTransferConflict
	}

	t.Status = to
	t.FailureReason = failureReason
	t.Touch()
	return nil
}

func (s *Store) ListStaleTransfers(_ context.Context, cutoff time.Time, limit int) ([]*transfer.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*transfer.Transfer
	for _, t := range s.transfers {
		if t.Status.Terminal() || !t.UpdatedAt.Before(cutoff) {
			continue
		}
		cp := *t
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.Before(result[j].UpdatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Plans
// ──────────────────────────────────────────────────

func (s *Store) UpsertPlan(_ context.Context, p *plan.Plan) (*plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, credits.ErrStoreClosed
	}

	cp := *p
	if existing, ok := s.plans[p.Code]; ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	}
	s.plans[p.Code] = &cp

	out := cp
	return &out, nil
}

func (s *Store) GetPlanByCode(_ context.Context, code string) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[code]
	if !ok {
		return nil, credits.ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetPlanByStripePrice(_ context.Context, stripePriceID string) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.plans {
		if p.StripePriceID != "" && p.StripePriceID == stripePriceID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, credits.ErrPlanNotFound
}

func (s *Store) ListPlans(_ context.Context, scope plan.Scope) ([]*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*plan.Plan
	for _, p := range s.plans {
		if !p.Active || p.Scope != scope {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}

	// Price ascending, nil (free) first.
	sort.Slice(result, func(i, j int) bool {
		pi, pj := result[i].Price, result[j].Price
		switch {
		case pi == nil && pj == nil:
			return result[i].Code < result[j].Code
		case pi == nil:
			return true
		case pj == nil:
			return false
		default:
			return pi.Amount < pj.Amount
		}
	})
	return result, nil
}

// ──────────────────────────────────────────────────
// Subscriptions
// ──────────────────────────────────────────────────

func (s *Store) UpsertSubscription(_ context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, credits.ErrStoreClosed
	}

	cp := *sub
	s.subs[sub.ID.String()] = &cp

	out := cp
	return &out, nil
}

func (s *Store) GetSubscription(_ context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[subID.String()]
	if !ok {
		return nil, credits.ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *Store) GetSubscriptionByStripeID(_ context.Context, stripeSubscriptionID string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.StripeSubscriptionID == stripeSubscriptionID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, credits.ErrSubscriptionNotFound
}

func (s *Store) GetActiveSubscription(_ context.Context, walletID id.WalletID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest *subscription.Subscription
	for _, sub := range s.subs {
		if sub.WalletID != walletID || !sub.Status.IsActive() {
			continue
		}
		if newest == nil || sub.CreatedAt.After(newest.CreatedAt) {
			newest = sub
		}
	}
	if newest == nil {
		return nil, credits.ErrNoActiveSubscription
	}
	cp := *newest
	return &cp, nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.ID.String()]; !ok {
		return credits.ErrSubscriptionNotFound
	}
	cp := *sub
	s.subs[sub.ID.String()] = &cp
	return nil
}

// ──────────────────────────────────────────────────
// Core
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return credits.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
