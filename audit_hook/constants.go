package audithook

// Action constants for audit events.
const (
	// Wallet actions
	ActionWalletCreated = "wallet.created"

	// Charge actions
	ActionChargeApplied = "charge.applied"
	ActionChargeDenied  = "charge.denied"

	// Funding actions
	ActionFundingApplied = "funding.applied"
	ActionFundingSkipped = "funding.skipped"

	// Transfer actions
	ActionTransferApplied = "transfer.applied"
	ActionTransferFailed  = "transfer.failed"

	// Entitlement actions
	ActionDevCreditsApplied = "dev_credits.applied"
	ActionAccessDenied      = "access.denied"

	// Catalog actions
	ActionPlanUpserted         = "plan.upserted"
	ActionSubscriptionCreated  = "subscription.created"
	ActionSubscriptionCanceled = "subscription.canceled"
)

// Resource constants for audit events.
const (
	ResourceWallet       = "wallet"
	ResourceTransaction  = "transaction"
	ResourceTransfer     = "transfer"
	ResourceEntitlement  = "entitlement"
	ResourcePlan         = "plan"
	ResourceSubscription = "subscription"
)

// Category constants for audit events.
const (
	CategoryBilling      = "billing"
	CategorySubscription = "subscription"
	CategoryAccess       = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
