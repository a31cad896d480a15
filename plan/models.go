package plan

import (
	"encoding/json"
	"time"

	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/types"
)

// Scope says what kind of owner a plan applies to.
type Scope string

const (
	ScopeUser    Scope = "user"
	ScopeCapsule Scope = "capsule"
)

// Interval is a plan's billing cadence.
type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// Plan is one catalog entry, identified by Code within its scope.
// The engine consumes plan data; it does not decide pricing.
type Plan struct {
	types.Entity
	ID                   id.PlanID    `json:"id"`
	Code                 string       `json:"code"`
	Scope                Scope        `json:"scope"`
	Name                 string       `json:"name"`
	Price                *types.Money `json:"price,omitempty"` // nil = free/placeholder tier
	Interval             Interval     `json:"interval"`
	IncludedCompute      int64        `json:"included_compute"`
	IncludedStorageBytes int64        `json:"included_storage_bytes"`
	Features             Features     `json:"features"`
	Active               bool         `json:"active"`
	StripePriceID        string       `json:"stripe_price_id,omitempty"`
}

// PeriodEnd returns the end of a billing period starting at start.
func (p *Plan) PeriodEnd(start time.Time) time.Time {
	if p.Interval == IntervalYear {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// retiredCodes lists plan codes hidden from catalog listings. The rows
// stay in the table for historical subscriptions.
var retiredCodes = map[string]struct{}{
	"legacy_creator": {},
	"beta_unlimited": {},
	"founding":       {},
}

// IsRetired reports whether a plan code is hidden from listings.
func IsRetired(code string) bool {
	_, ok := retiredCodes[code]
	return ok
}

// Features carries the known entitlement fields a plan grants plus an
// Extra map for forward-compatible flags. Like transaction metadata,
// known fields and Extra share one flat JSON object.
type Features struct {
	FeatureTier string
	ModelTier   string
	Extra       map[string]any
}

// MarshalJSON implements json.Marshaler. Known fields win on key
// collision with Extra.
func (f Features) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.Extra)+2)
	for k, v := range f.Extra {
		out[k] = v
	}
	if f.FeatureTier != "" {
		out["feature_tier"] = f.FeatureTier
	}
	if f.ModelTier != "" {
		out["model_tier"] = f.ModelTier
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Features) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*f = Features{}
	for k, v := range raw {
		s, isString := v.(string)
		switch {
		case k == "feature_tier" && isString:
			f.FeatureTier = s
		case k == "model_tier" && isString:
			f.ModelTier = s
		default:
			if f.Extra == nil {
				f.Extra = make(map[string]any)
			}
			f.Extra[k] = v
		}
	}
	return nil
}
