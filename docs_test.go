package credits_test

import (
	"context"
	"log"
	"log/slog"
	"testing"

	"github.com/capsulehq/credits"
	"github.com/capsulehq/credits/plan"
	"github.com/capsulehq/credits/store/memory"
	"github.com/capsulehq/credits/types"
	"github.com/capsulehq/credits/wallet"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Create engine
		eng := credits.New(store,
			credits.WithLogger(slog.Default()),
			credits.WithBypassConfig(credits.BypassConfig{
				Environment: credits.EnvProduction,
			}),
		)

		// Start the engine
		ctx := context.Background()
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer eng.Stop()

		// Resolve the caller's wallet context
		wc, err := eng.ResolveWalletContext(ctx, credits.ResolveParams{
			OwnerType:   wallet.OwnerUser,
			OwnerID:     "user_123",
			DisplayName: "Demo User",
		})
		if err != nil {
			t.Fatal(err)
		}

		// Fund the wallet from an external event (idempotent on the source)
		applied, err := eng.RecordFundingIfMissing(ctx, credits.FundingParams{
			WalletID:    wc.Wallet.ID,
			Metric:      wallet.MetricCompute,
			Amount:      1000,
			SourceType:  "purchase",
			SourceID:    "inv_001",
			Description: "credit pack purchase",
		})
		if err != nil {
			t.Fatal(err)
		}
		if !applied {
			t.Fatal("expected first funding to apply")
		}

		// Charge usage; fails closed when allowance runs out
		b, err := eng.ChargeUsage(ctx, credits.ChargeParams{
			WalletID: wc.Wallet.ID,
			Metric:   wallet.MetricCompute,
			Amount:   400,
			Reason:   "image generation",
			Bypass:   wc.Bypass,
		})
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("compute remaining: %d\n", b.Available(wallet.MetricCompute))

		_, err = eng.ChargeUsage(ctx, credits.ChargeParams{
			WalletID: wc.Wallet.ID,
			Metric:   wallet.MetricCompute,
			Amount:   10_000,
			Bypass:   wc.Bypass,
		})
		if !credits.IsInsufficientFunds(err) {
			t.Fatalf("expected insufficient funds, got %v", err)
		}

		// Register a plan and grant its allowances for the period
		price := types.USD(1900)
		p, err := eng.UpsertPlan(ctx, &plan.Plan{
			Code:            "pro",
			Scope:           plan.ScopeUser,
			Name:            "Pro",
			Price:           &price,
			Interval:        plan.IntervalMonth,
			IncludedCompute: 50_000,
			Features:        plan.Features{FeatureTier: "pro"},
			Active:          true,
		})
		if err != nil {
			t.Fatal(err)
		}

		if _, err := eng.GrantPlanAllowances(ctx, credits.GrantParams{
			WalletID:   wc.Wallet.ID,
			Plan:       p,
			SourceType: "subscription_renewal",
			SourceID:   "inv_002",
		}); err != nil {
			t.Fatal(err)
		}
	})

	// Test Money type examples
	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.USD(4900)   // $49.00
		_ = types.EUR(9900)   // €99.00
		_ = types.Zero("usd") // $0.00

		// Arithmetic
		m1 := types.USD(100)
		m2 := types.USD(200)
		_ = m1.Add(m2)     // $3.00
		_ = m1.Multiply(3) // $3.00

		// Comparison
		if m1.LessThan(m2) {
			// m1 is less than m2
		}

		// Formatting
		_ = m1.String()      // "$1.00"
		_ = m1.FormatMajor() // "1.00"
	})
}
