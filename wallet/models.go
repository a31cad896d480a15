package wallet

import (
	"time"

	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/types"
)

// OwnerType identifies what kind of owner a wallet belongs to.
type OwnerType string

const (
	OwnerUser    OwnerType = "user"
	OwnerCapsule OwnerType = "capsule"
)

// Metric names a metered resource tracked by a balance, or the
// non-metered dimension a ledger entry touches.
type Metric string

const (
	MetricCompute   Metric = "compute"
	MetricStorage   Metric = "storage"
	MetricFeature   Metric = "feature"
	MetricModelTier Metric = "model_tier"
)

// IsMetered reports whether the metric has granted/used counters on the
// balance row. Feature and model-tier entries are audit-only.
func (m Metric) IsMetered() bool {
	return m == MetricCompute || m == MetricStorage
}

// Wallet is the billing account for one owner. At most one wallet
// exists per (owner type, owner id) pair.
type Wallet struct {
	types.Entity
	ID          id.WalletID `json:"id"`
	OwnerType   OwnerType   `json:"owner_type"`
	OwnerID     string      `json:"owner_id"`
	DisplayName string      `json:"display_name"`
}

// Balance is the mutable materialized view of a wallet's ledger,
// exactly one row per wallet. Counters are only ever moved through the
// store's atomic primitives; the transaction log is the source of truth
// and a balance can in principle be rebuilt by replaying it.
type Balance struct {
	WalletID       id.WalletID `json:"wallet_id"`
	ComputeGranted int64       `json:"compute_granted"`
	ComputeUsed    int64       `json:"compute_used"`
	StorageGranted int64       `json:"storage_granted"`
	StorageUsed    int64       `json:"storage_used"`
	FeatureTier    *string     `json:"feature_tier,omitempty"`
	ModelTier      *string     `json:"model_tier,omitempty"`
	PeriodStart    *time.Time  `json:"period_start,omitempty"`
	PeriodEnd      *time.Time  `json:"period_end,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Granted returns the granted counter for a metered metric.
func (b *Balance) Granted(m Metric) int64 {
	if m == MetricStorage {
		return b.StorageGranted
	}
	return b.ComputeGranted
}

// Used returns the used counter for a metered metric.
func (b *Balance) Used(m Metric) int64 {
	if m == MetricStorage {
		return b.StorageUsed
	}
	return b.ComputeUsed
}

// Available returns granted minus used for a metered metric.
func (b *Balance) Available(m Metric) int64 {
	return b.Granted(m) - b.Used(m)
}

// FieldUpdate is a tri-state update for a nullable string column.
// The zero value leaves the column unchanged; Set with a nil Value
// clears it; Set with a non-nil Value overwrites it.
type FieldUpdate struct {
	Set   bool
	Value *string
}

// TimeUpdate is a tri-state update for a nullable timestamp column,
// with the same unchanged/clear/overwrite semantics as FieldUpdate.
type TimeUpdate struct {
	Set   bool
	Value *time.Time
}

// SetField returns a FieldUpdate that overwrites the column with v.
func SetField(v string) FieldUpdate {
	return FieldUpdate{Set: true, Value: &v}
}

// ClearField returns a FieldUpdate that nulls the column.
func ClearField() FieldUpdate {
	return FieldUpdate{Set: true}
}

// SetTime returns a TimeUpdate that overwrites the column with t.
func SetTime(t time.Time) TimeUpdate {
	return TimeUpdate{Set: true, Value: &t}
}

// ClearTime returns a TimeUpdate that nulls the column.
func ClearTime() TimeUpdate {
	return TimeUpdate{Set: true}
}

// BalanceDelta describes one balance mutation. Counter fields are
// increments (negative to decrement); tier and period fields are
// tri-state overwrites.
type BalanceDelta struct {
	ComputeGranted int64
	ComputeUsed    int64
	StorageGranted int64
	StorageUsed    int64
	FeatureTier    FieldUpdate
	ModelTier      FieldUpdate
	PeriodStart    TimeUpdate
	PeriodEnd      TimeUpdate
}

// IsZero reports whether the delta changes nothing.
func (d BalanceDelta) IsZero() bool {
	return d.ComputeGranted == 0 && d.ComputeUsed == 0 &&
		d.StorageGranted == 0 && d.StorageUsed == 0 &&
		!d.FeatureTier.Set && !d.ModelTier.Set &&
		!d.PeriodStart.Set && !d.PeriodEnd.Set
}

// ApplyTo mutates b in place according to the delta. Used by the
// in-memory store; SQL and document backends express the same
// semantics as a single conditional statement.
func (d BalanceDelta) ApplyTo(b *Balance) {
	b.ComputeGranted += d.ComputeGranted
	b.ComputeUsed += d.ComputeUsed
	b.StorageGranted += d.StorageGranted
	b.StorageUsed += d.StorageUsed
	if d.FeatureTier.Set {
		b.FeatureTier = d.FeatureTier.Value
	}
	if d.ModelTier.Set {
		b.ModelTier = d.ModelTier.Value
	}
	if d.PeriodStart.Set {
		b.PeriodStart = d.PeriodStart.Value
	}
	if d.PeriodEnd.Set {
		b.PeriodEnd = d.PeriodEnd.Value
	}
	b.UpdatedAt = time.Now().UTC()
}
