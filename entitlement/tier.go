// Package entitlement holds the fixed feature-tier ranking used for
// access gating. Ranks are ordinal, not additive; a higher rank
// includes everything a lower rank allows.
package entitlement

// Tier names used across plans and balances. Several aliases map to
// the same rank for historical plan codes.
const (
	TierStarter = "starter"
	TierFree    = "free"
	TierPlus    = "plus"
	TierCreator = "creator"
	TierDefault = "default"
	TierPro     = "pro"
	TierCaptain = "captain"
	TierStudio  = "studio"
	TierLegend  = "legend"
	TierUltra   = "ultra"
)

var tierRanks = map[string]int{
	TierStarter: 1,
	TierFree:    1,
	TierPlus:    2,
	TierCreator: 2,
	TierDefault: 2,
	TierPro:     3,
	TierCaptain: 3,
	TierStudio:  4,
	TierLegend:  4,
	TierUltra:   5,
}

// Rank returns the ordinal rank of a tier name. Unknown tiers rank 0,
// below every known tier.
func Rank(tier string) int {
	return tierRanks[tier]
}

// Meets reports whether a wallet at currentTier satisfies
// requiredTier.
func Meets(currentTier, requiredTier string) bool {
	return Rank(currentTier) >= Rank(requiredTier)
}
