package entitlement

import "testing"

func TestRank(t *testing.T) {
	tests := []struct {
		tier string
		rank int
	}{
		{TierStarter, 1},
		{TierFree, 1},
		{TierPlus, 2},
		{TierCreator, 2},
		{TierDefault, 2},
		{TierPro, 3},
		{TierCaptain, 3},
		{TierStudio, 4},
		{TierLegend, 4},
		{TierUltra, 5},
		{"", 0},
		{"enterprise", 0},
	}

	for _, tt := range tests {
		t.Run(tt.tier, func(t *testing.T) {
			if got := Rank(tt.tier); got != tt.rank {
				t.Errorf("Rank(%q) = %d, want %d", tt.tier, got, tt.rank)
			}
		})
	}
}

func TestMeets(t *testing.T) {
	tests := []struct {
		current  string
		required string
		want     bool
	}{
		{TierPro, TierStarter, true},
		{TierPro, TierPro, true},
		{TierPro, TierStudio, false},
		{TierCaptain, TierPlus, true},
		{TierFree, TierStarter, true},
		{TierUltra, TierLegend, true},
		{"unknown", TierStarter, false},
		{TierStarter, "unknown", true},
	}

	for _, tt := range tests {
		if got := Meets(tt.current, tt.required); got != tt.want {
			t.Errorf("Meets(%q, %q) = %v, want %v", tt.current, tt.required, got, tt.want)
		}
	}
}
