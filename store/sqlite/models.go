package sqlite

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/plan"
	"github.com/capsulehq/credits/subscription"
	"github.com/capsulehq/credits/transaction"
	"github.com/capsulehq/credits/transfer"
	"github.com/capsulehq/credits/types"
	"github.com/capsulehq/credits/wallet"
)

// ==================== Wallet models ====================

type walletModel struct {
	grove.BaseModel `grove:"table:credits_wallets"`

	ID          string    `grove:"id,pk"`
	OwnerType   string    `grove:"owner_type"`
	OwnerID     string    `grove:"owner_id"`
	DisplayName string    `grove:"display_name"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toWalletModel(w *wallet.Wallet) *walletModel {
	return &walletModel{
		ID:          w.ID.String(),
		OwnerType:   string(w.OwnerType),
		OwnerID:     w.OwnerID,
		DisplayName: w.DisplayName,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func fromWalletModel(m *walletModel) (*wallet.Wallet, error) {
	walletID, err := id.ParseWalletID(m.ID)
	if err != nil {
		return nil, err
	}

	return &wallet.Wallet{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          walletID,
		OwnerType:   wallet.OwnerType(m.OwnerType),
		OwnerID:     m.OwnerID,
		DisplayName: m.DisplayName,
	}, nil
}

// ==================== Balance models ====================

type balanceModel struct {
	grove.BaseModel `grove:"table:credits_wallet_balances"`

	WalletID       string     `grove:"wallet_id,pk"`
	ComputeGranted int64      `grove:"compute_granted"`
	ComputeUsed    int64      `grove:"compute_used"`
	StorageGranted int64      `grove:"storage_granted"`
	StorageUsed    int64      `grove:"storage_used"`
	FeatureTier    *string    `grove:"feature_tier"`
	ModelTier      *string    `grove:"model_tier"`
	PeriodStart    *time.Time `grove:"period_start"`
	PeriodEnd      *time.Time `grove:"period_end"`
	UpdatedAt      time.Time  `grove:"updated_at"`
}

func toBalanceModel(b *wallet.Balance) *balanceModel {
	return &balanceModel{
		WalletID:       b.WalletID.String(),
		ComputeGranted: b.ComputeGranted,
		ComputeUsed:    b.ComputeUsed,
		StorageGranted: b.StorageGranted,
		StorageUsed:    b.StorageUsed,
		FeatureTier:    b.FeatureTier,
		ModelTier:      b.ModelTier,
		PeriodStart:    b.PeriodStart,
		PeriodEnd:      b.PeriodEnd,
		UpdatedAt:      b.UpdatedAt,
	}
}

func fromBalanceModel(m *balanceModel) (*wallet.Balance, error) {
	walletID, err := id.ParseWalletID(m.WalletID)
	if err != nil {
		return nil, err
	}

	return &wallet.Balance{
		WalletID:       walletID,
		ComputeGranted: m.ComputeGranted,
		ComputeUsed:    m.ComputeUsed,
		StorageGranted: m.StorageGranted,
		StorageUsed:    m.StorageUsed,
		FeatureTier:    m.FeatureTier,
		ModelTier:      m.ModelTier,
		PeriodStart:    m.PeriodStart,
		PeriodEnd:      m.PeriodEnd,
		UpdatedAt:      m.UpdatedAt,
	}, nil
}

// ==================== Transaction models ====================

type transactionModel struct {
	grove.BaseModel `grove:"table:credits_wallet_transactions"`

	ID          string    `grove:"id,pk"`
	WalletID    string    `grove:"wallet_id"`
	Type        string    `grove:"type"`
	Metric      string    `grove:"metric"`
	Amount      int64     `grove:"amount"`
	Description string    `grove:"description"`
	SourceType  string    `grove:"source_type"`
	SourceID    string    `grove:"source_id"`
	Metadata    string    `grove:"metadata"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toTransactionModel(t *transaction.Transaction) *transactionModel {
	metadata, _ := json.Marshal(t.Metadata) //nolint:errcheck // best-effort

	return &transactionModel{
		ID:          t.ID.String(),
		WalletID:    t.WalletID.String(),
		Type:        string(t.Type),
		Metric:      string(t.Metric),
		Amount:      t.Amount,
		Description: t.Description,
		SourceType:  t.SourceType,
		SourceID:    t.SourceID,
		Metadata:    string(metadata),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func fromTransactionModel(m *transactionModel) (*transaction.Transaction, error) {
	txnID, err := id.ParseTransactionID(m.ID)
	if err != nil {
		return nil, err
	}
	walletID, err := id.ParseWalletID(m.WalletID)
	if err != nil {
		return nil, err
	}

	var metadata transaction.Metadata
	if m.Metadata != "" && m.Metadata != "null" {
		_ = json.Unmarshal([]byte(m.Metadata), &metadata) //nolint:errcheck // best-effort
	}

	return &transaction.Transaction{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          txnID,
		WalletID:    walletID,
		Type:        transaction.Type(m.Type),
		Metric:      wallet.Metric(m.Metric),
		Amount:      m.Amount,
		Description: m.Description,
		SourceType:  m.SourceType,
		SourceID:    m.SourceID,
		Metadata:    metadata,
	}, nil
}

// ==================== Transfer models ====================

type transferModel struct {
	grove.BaseModel `grove:"table:credits_wallet_transfers"`

	ID            string    `grove:"id,pk"`
	FromWalletID  string    `grove:"from_wallet_id"`
	ToWalletID    string    `grove:"to_wallet_id"`
	Metric        string    `grove:"metric"`
	Amount        int64     `grove:"amount"`
	Message       string    `grove:"message"`
	CreatedBy     string    `grove:"created_by"`
	Status        string    `grove:"status"`
	FailureReason string    `grove:"failure_reason"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func toTransferModel(t *transfer.Transfer) *transferModel {
	return &transferModel{
		ID:            t.ID.String(),
		FromWalletID:  t.FromWalletID.String(),
		ToWalletID:    t.ToWalletID.String(),
		Metric:        string(t.Metric),
		Amount:        t.Amount,
		Message:       t.Message,
		CreatedBy:     t.CreatedBy,
		Status:        string(t.Status),
		FailureReason: t.FailureReason,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func fromTransferModel(m *transferModel) (*transfer.Transfer, error) {
	transferID, err := id.ParseTransferID(m.ID)
	if err != nil {
		return nil, err
	}
	fromID, err := id.ParseWalletID(m.FromWalletID)
	if err != nil {
		return nil, err
	}
	toID, err := id.ParseWalletID(m.ToWalletID)
	if err != nil {
		return nil, err
	}

	return &transfer.Transfer{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            transferID,
		FromWalletID:  fromID,
		ToWalletID:    toID,
		Metric:        wallet.Metric(m.Metric),
		Amount:        m.Amount,
		Message:       m.Message,
		CreatedBy:     m.CreatedBy,
		Status:        transfer.Status(m.Status),
		FailureReason: m.FailureReason,
	}, nil
}

// ==================== Plan models ====================

type planModel struct {
	grove.BaseModel `grove:"table:credits_billing_plans"`

	ID                   string    `grove:"id,pk"`
	Code                 string    `grove:"code"`
	Scope                string    `grove:"scope"`
	Name                 string    `grove:"name"`
	PriceCents           *int64    `grove:"price_cents"`
	PriceCurrency        string    `grove:"price_currency"`
	BillingInterval      string    `grove:"billing_interval"`
	IncludedCompute      int64     `grove:"included_compute"`
	IncludedStorageBytes int64     `grove:"included_storage_bytes"`
	Features             string    `grove:"features"`
	Active               bool      `grove:"active"`
	StripePriceID        string    `grove:"stripe_price_id"`
	CreatedAt            time.Time `grove:"created_at"`
	UpdatedAt            time.Time `grove:"updated_at"`
}

func toPlanModel(p *plan.Plan) *planModel {
	features, _ := json.Marshal(p.Features) //nolint:errcheck // best-effort

	m := &planModel{
		ID:                   p.ID.String(),
		Code:                 p.Code,
		Scope:                string(p.Scope),
		Name:                 p.Name,
		BillingInterval:      string(p.Interval),
		IncludedCompute:      p.IncludedCompute,
		IncludedStorageBytes: p.IncludedStorageBytes,
		Features:             string(features),
		Active:               p.Active,
		StripePriceID:        p.StripePriceID,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
	if p.Price != nil {
		amount := p.Price.Amount
		m.PriceCents = &amount
		m.PriceCurrency = p.Price.Currency
	}
	return m
}

func fromPlanModel(m *planModel) (*plan.Plan, error) {
	planID, err := id.ParsePlanID(m.ID)
	if err != nil {
		return nil, err
	}

	var features plan.Features
	if m.Features != "" && m.Features != "null" {
		_ = json.Unmarshal([]byte(m.Features), &features) //nolint:errcheck // best-effort
	}

	p := &plan.Plan{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                   planID,
		Code:                 m.Code,
		Scope:                plan.Scope(m.Scope),
		Name:                 m.Name,
		Interval:             plan.Interval(m.BillingInterval),
		IncludedCompute:      m.IncludedCompute,
		IncludedStorageBytes: m.IncludedStorageBytes,
		Features:             features,
		Active:               m.Active,
		StripePriceID:        m.StripePriceID,
	}
	if m.PriceCents != nil {
		p.Price = &types.Money{Amount: *m.PriceCents, Currency: m.PriceCurrency}
	}
	return p, nil
}

// ==================== Subscription models ====================

type subscriptionModel struct {
	grove.BaseModel `grove:"table:credits_subscriptions"`

	ID                   string     `grove:"id,pk"`
	WalletID             string     `grove:"wallet_id"`
	PlanID               string     `grove:"plan_id"`
	Status               string     `grove:"status"`
	CurrentPeriodEnd     *time.Time `grove:"current_period_end"`
	CancelAtPeriodEnd    bool       `grove:"cancel_at_period_end"`
	StripeSubscriptionID string     `grove:"stripe_subscription_id"`
	StripeCustomerID     string     `grove:"stripe_customer_id"`
	Metadata             string     `grove:"metadata"`
	CreatedAt            time.Time  `grove:"created_at"`
	UpdatedAt            time.Time  `grove:"updated_at"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	metadata, _ := json.Marshal(s.Metadata) //nolint:errcheck // best-effort

	return &subscriptionModel{
		ID:                   s.ID.String(),
		WalletID:             s.WalletID.String(),
		PlanID:               s.PlanID.String(),
		Status:               string(s.Status),
		CurrentPeriodEnd:     s.CurrentPeriodEnd,
		CancelAtPeriodEnd:    s.CancelAtPeriodEnd,
		StripeSubscriptionID: s.StripeSubscriptionID,
		StripeCustomerID:     s.StripeCustomerID,
		Metadata:             string(metadata),
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	subID, err := id.ParseSubscriptionID(m.ID)
	if err != nil {
		return nil, err
	}
	walletID, err := id.ParseWalletID(m.WalletID)
	if err != nil {
		return nil, err
	}
	planID, err := id.ParsePlanID(m.PlanID)
	if err != nil {
		return nil, err
	}

	var metadata map[string]string
	if m.Metadata != "" && m.Metadata != "null" {
		_ = json.Unmarshal([]byte(m.Metadata), &metadata) //nolint:errcheck // best-effort
	}

	return &subscription.Subscription{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                   subID,
		WalletID:             walletID,
		PlanID:               planID,
		Status:               subscription.Status(m.Status),
		CurrentPeriodEnd:     m.CurrentPeriodEnd,
		CancelAtPeriodEnd:    m.CancelAtPeriodEnd,
		StripeSubscriptionID: m.StripeSubscriptionID,
		StripeCustomerID:     m.StripeCustomerID,
		Metadata:             metadata,
	}, nil
}
