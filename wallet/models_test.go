package wallet

import (
	"testing"
	"time"
)

func TestBalanceCounters(t *testing.T) {
	b := &Balance{
		ComputeGranted: 1000,
		ComputeUsed:    400,
		StorageGranted: 50,
		StorageUsed:    20,
	}

	if got := b.Available(MetricCompute); got != 600 {
		t.Fatalf("compute available = %d, want 600", got)
	}
	if got := b.Available(MetricStorage); got != 30 {
		t.Fatalf("storage available = %d, want 30", got)
	}
	if b.Granted(MetricStorage) != 50 || b.Used(MetricStorage) != 20 {
		t.Fatal("storage counters misrouted")
	}
}

func TestMetricIsMetered(t *testing.T) {
	if !MetricCompute.IsMetered() || !MetricStorage.IsMetered() {
		t.Fatal("compute and storage are metered")
	}
	if MetricFeature.IsMetered() || MetricModelTier.IsMetered() {
		t.Fatal("feature and model_tier are audit-only")
	}
}

func TestBalanceDeltaApplyTo(t *testing.T) {
	existing := "plus"
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	b := &Balance{
		ComputeGranted: 100,
		FeatureTier:    &existing,
		ModelTier:      &existing,
		PeriodStart:    &start,
	}

	d := BalanceDelta{
		ComputeGranted: 50,
		StorageUsed:    10,
		FeatureTier:    SetField("pro"),
		ModelTier:      ClearField(),
		PeriodEnd:      SetTime(start.AddDate(0, 1, 0)),
	}
	d.ApplyTo(b)

	if b.ComputeGranted != 150 || b.StorageUsed != 10 {
		t.Fatalf("counters = %d/%d, want 150/10", b.ComputeGranted, b.StorageUsed)
	}
	if b.FeatureTier == nil || *b.FeatureTier != "pro" {
		t.Fatalf("feature tier = %v, want pro", b.FeatureTier)
	}
	if b.ModelTier != nil {
		t.Fatalf("model tier not cleared: %v", *b.ModelTier)
	}
	// Unset updates leave the column alone.
	if b.PeriodStart == nil || !b.PeriodStart.Equal(start) {
		t.Fatalf("period start changed: %v", b.PeriodStart)
	}
	if b.PeriodEnd == nil || !b.PeriodEnd.Equal(start.AddDate(0, 1, 0)) {
		t.Fatalf("period end = %v", b.PeriodEnd)
	}
}

func TestBalanceDeltaIsZero(t *testing.T) {
	if !(BalanceDelta{}).IsZero() {
		t.Fatal("empty delta should be zero")
	}
	if (BalanceDelta{ComputeUsed: 1}).IsZero() {
		t.Fatal("counter increment is not zero")
	}
	if (BalanceDelta{FeatureTier: ClearField()}).IsZero() {
		t.Fatal("a clear is still a change")
	}
}
