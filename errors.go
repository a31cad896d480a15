package credits

import (
	"errors"
	"fmt"

	"github.com/capsulehq/credits/wallet"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("credits: not found")
	ErrAlreadyExists = errors.New("credits: already exists")
	ErrInvalidInput  = errors.New("credits: invalid input")

	// Wallet errors
	ErrWalletNotFound  = errors.New("credits: wallet not found")
	ErrBalanceNotFound = errors.New("credits: balance not found")
	ErrInvalidOwner    = errors.New("credits: invalid wallet owner")
	ErrInvalidMetric   = errors.New("credits: metric has no counters")

	// Transaction errors
	ErrTransactionNotFound = errors.New("credits: transaction not found")
	ErrMissingSource       = errors.New("credits: funding requires a source type and id")

	// Transfer errors
	ErrTransferNotFound = errors.New("credits: transfer not found")
	ErrTransferConflict = errors.New("credits: transfer status changed concurrently")
	ErrSameWallet       = errors.New("credits: transfer source and destination are the same wallet")

	// Plan and subscription errors
	ErrPlanNotFound         = errors.New("credits: plan not found")
	ErrSubscriptionNotFound = errors.New("credits: subscription not found")
	ErrNoActiveSubscription = errors.New("credits: no active subscription")

	// Store errors
	ErrStoreNotReady   = errors.New("credits: store not ready")
	ErrStoreClosed     = errors.New("credits: store is closed")
	ErrMigrationFailed = errors.New("credits: migration failed")
)

// Insufficient-funds codes, one per metered metric.
const (
	CodeInsufficientCompute = "insufficient_compute"
	CodeInsufficientStorage = "insufficient_storage"
	CodeBillingDisabled     = "billing_disabled"
)

// InsufficientFundsError is the business-rule rejection for a charge or
// debit that exceeds the available allowance. No partial mutation is
// ever applied alongside it; the carried numbers are safe to surface
// verbatim to the end user.
type InsufficientFundsError struct {
	Metric    wallet.Metric
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("credits: %s: required %d, available %d", e.Code(), e.Required, e.Available)
}

// Code returns insufficient_compute or insufficient_storage.
func (e *InsufficientFundsError) Code() string {
	if e.Metric == wallet.MetricStorage {
		return CodeInsufficientStorage
	}
	return CodeInsufficientCompute
}

// HTTPStatus returns the HTTP-equivalent status for this rejection.
func (e *InsufficientFundsError) HTTPStatus() int { return 402 }

// AccessError is the feature-tier gate rejection.
type AccessError struct {
	FeatureName  string
	RequiredTier string
	CurrentTier  string
}

func (e *AccessError) Error() string {
	feature := e.FeatureName
	if feature == "" {
		feature = "feature"
	}
	return fmt.Sprintf("credits: %s: %s requires tier %q, current tier %q",
		CodeBillingDisabled, feature, e.RequiredTier, e.CurrentTier)
}

// Code returns billing_disabled.
func (e *AccessError) Code() string { return CodeBillingDisabled }

// HTTPStatus returns the HTTP-equivalent status for this rejection.
func (e *AccessError) HTTPStatus() int { return 402 }

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrBalanceNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrTransferNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound) ||
		errors.Is(err, ErrNoActiveSubscription)
}

// IsInsufficientFunds returns true if the error is an
// insufficient-funds rejection anywhere in the chain.
func IsInsufficientFunds(err error) bool {
	var target *InsufficientFundsError
	return errors.As(err, &target)
}

// IsAccessDenied returns true if the error is a feature-tier gate
// rejection.
func IsAccessDenied(err error) bool {
	var target *AccessError
	return errors.As(err, &target)
}
