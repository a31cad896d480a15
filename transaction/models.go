package transaction

import (
	"encoding/json"

	"github.com/capsulehq/credits/id"
	"github.com/capsulehq/credits/types"
	"github.com/capsulehq/credits/wallet"
)

// Type classifies a ledger entry. The amount sign encodes direction:
// usage and transfer_out are negative, the rest non-negative except
// refund which reverses a funding.
type Type string

const (
	TypeFunding     Type = "funding"
	TypeUsage       Type = "usage"
	TypeBonus       Type = "bonus"
	TypeRefund      Type = "refund"
	TypeTransferIn  Type = "transfer_in"
	TypeTransferOut Type = "transfer_out"
)

// Transaction is one append-only ledger entry. Rows are immutable once
// written.
type Transaction struct {
	types.Entity
	ID          id.TransactionID `json:"id"`
	WalletID    id.WalletID      `json:"wallet_id"`
	Type        Type             `json:"type"`
	Metric      wallet.Metric    `json:"metric"`
	Amount      int64            `json:"amount"`
	Description string           `json:"description,omitempty"`
	SourceType  string           `json:"source_type,omitempty"`
	SourceID    string           `json:"source_id,omitempty"`
	Metadata    Metadata         `json:"metadata,omitempty"`
}

// HasSource reports whether the entry carries a full idempotency key.
func (t *Transaction) HasSource() bool {
	return t.SourceType != "" && t.SourceID != ""
}

// Metadata carries the known annotation fields for a ledger entry plus
// an Extra map for forward-compatible additions. Known fields and
// Extra are folded into one flat JSON object; on decode, unrecognized
// keys land in Extra.
type Metadata struct {
	TransferID string
	PlanCode   string
	Reason     string
	GrantedBy  string
	Extra      map[string]any
}

// IsZero reports whether the metadata carries nothing.
func (m Metadata) IsZero() bool {
	return m.TransferID == "" && m.PlanCode == "" && m.Reason == "" &&
		m.GrantedBy == "" && len(m.Extra) == 0
}

// MarshalJSON implements json.Marshaler, flattening known fields and
// Extra into a single object. Known fields win on key collision.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+4)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.TransferID != "" {
		out["transfer_id"] = m.TransferID
	}
	if m.PlanCode != "" {
		out["plan_code"] = m.PlanCode
	}
	if m.Reason != "" {
		out["reason"] = m.Reason
	}
	if m.GrantedBy != "" {
		out["granted_by"] = m.GrantedBy
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler, lifting known keys out of
// the flat object and keeping the rest in Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Metadata{}
	for k, v := range raw {
		s, isString := v.(string)
		switch {
		case k == "transfer_id" && isString:
			m.TransferID = s
		case k == "plan_code" && isString:
			m.PlanCode = s
		case k == "reason" && isString:
			m.Reason = s
		case k == "granted_by" && isString:
			m.GrantedBy = s
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[k] = v
		}
	}
	return nil
}
