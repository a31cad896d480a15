package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
	}{
		{"USD", USD(900), 900, "usd"},
		{"EUR", EUR(1900), 1900, "eur"},
		{"GBP", GBP(450), 450, "gbp"},
		{"Zero", Zero("USD"), 0, "usd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("expected amount %d, got %d", tt.amount, tt.money.Amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("expected currency %q, got %q", tt.currency, tt.money.Currency)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := USD(100)
	b := USD(250)

	if got := a.Add(b); got.Amount != 350 {
		t.Errorf("Add: expected 350, got %d", got.Amount)
	}
	if got := b.Subtract(a); got.Amount != 150 {
		t.Errorf("Subtract: expected 150, got %d", got.Amount)
	}
	if got := a.Multiply(3); got.Amount != 300 {
		t.Errorf("Multiply: expected 300, got %d", got.Amount)
	}
}

func TestMoneyCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on currency mismatch")
		}
	}()
	USD(100).Add(EUR(100))
}

func TestMoneyComparisons(t *testing.T) {
	a := USD(100)
	b := USD(200)

	if !a.LessThan(b) {
		t.Error("expected 100 < 200")
	}
	if !Zero("usd").IsZero() {
		t.Error("expected zero to be zero")
	}
	if !a.IsPositive() {
		t.Error("expected 100 to be positive")
	}
	if !a.Equal(USD(100)) {
		t.Error("expected USD(100) == USD(100)")
	}
	if a.Equal(EUR(100)) {
		t.Error("expected USD(100) != EUR(100)")
	}
}

func TestMoneyFormatting(t *testing.T) {
	tests := []struct {
		money Money
		major string
		full  string
	}{
		{USD(900), "9.00", "$9.00"},
		{USD(905), "9.05", "$9.05"},
		{EUR(1900), "19.00", "€19.00"},
		{GBP(50), "0.50", "£0.50"},
		{USD(-450), "-4.50", "$-4.50"},
		{Money{Amount: 100, Currency: "sek"}, "1.00", "SEK 1.00"},
	}

	for _, tt := range tests {
		t.Run(tt.full, func(t *testing.T) {
			if got := tt.money.FormatMajor(); got != tt.major {
				t.Errorf("FormatMajor: expected %q, got %q", tt.major, got)
			}
			if got := tt.money.String(); got != tt.full {
				t.Errorf("String: expected %q, got %q", tt.full, got)
			}
		})
	}
}

func TestMoneyMarshalJSON(t *testing.T) {
	data, err := json.Marshal(USD(900))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"amount":900`) {
		t.Errorf("expected amount in JSON, got %s", s)
	}
	if !strings.Contains(s, `"display":"$9.00"`) {
		t.Errorf("expected display in JSON, got %s", s)
	}
}
