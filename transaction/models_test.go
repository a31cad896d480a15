package transaction

import (
	"encoding/json"
	"testing"
)

func TestMetadataFlatEncoding(t *testing.T) {
	m := Metadata{
		TransferID: "xfr_01h455vb4pex5vsknk084sn02q",
		PlanCode:   "pro",
		Extra: map[string]any{
			"campaign": "launch",
			"attempt":  float64(2),
		},
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}

	// Known fields and Extra share one flat object.
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatal(err)
	}
	if flat["transfer_id"] != m.TransferID || flat["plan_code"] != "pro" {
		t.Fatalf("known fields not flattened: %v", flat)
	}
	if flat["campaign"] != "launch" {
		t.Fatalf("extra fields not flattened: %v", flat)
	}
	if _, ok := flat["extra"]; ok {
		t.Fatal("Extra leaked as a nested object")
	}

	var decoded Metadata
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.TransferID != m.TransferID || decoded.PlanCode != m.PlanCode {
		t.Fatalf("known fields not lifted: %+v", decoded)
	}
	if decoded.Extra["campaign"] != "launch" || decoded.Extra["attempt"] != float64(2) {
		t.Fatalf("unknown keys not kept in Extra: %+v", decoded.Extra)
	}
	if _, ok := decoded.Extra["transfer_id"]; ok {
		t.Fatal("known key duplicated into Extra")
	}
}

func TestMetadataKnownFieldsWinOnCollision(t *testing.T) {
	m := Metadata{
		Reason: "grant",
		Extra:  map[string]any{"reason": "shadowed"},
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}

	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatal(err)
	}
	if flat["reason"] != "grant" {
		t.Fatalf("reason = %q, want the known field", flat["reason"])
	}
}

func TestMetadataIsZero(t *testing.T) {
	if !(Metadata{}).IsZero() {
		t.Fatal("empty metadata should be zero")
	}
	if (Metadata{GrantedBy: "user_1"}).IsZero() {
		t.Fatal("metadata with a known field should not be zero")
	}
	if (Metadata{Extra: map[string]any{"k": "v"}}).IsZero() {
		t.Fatal("metadata with extras should not be zero")
	}
}

func TestTransactionHasSource(t *testing.T) {
	txn := &Transaction{SourceType: "purchase"}
	if txn.HasSource() {
		t.Fatal("source type alone is not a full idempotency key")
	}
	txn.SourceID = "inv_1"
	if !txn.HasSource() {
		t.Fatal("full source pair should count as a key")
	}
}
