package credits_test

import (
	"context"
	"errors"
	"testing"

	"github.com/capsulehq/credits"
	"github.com/capsulehq/credits/transaction"
	"github.com/capsulehq/credits/wallet"
)

func boolPtr(v bool) *bool { return &v }

func TestShouldBypassBilling(t *testing.T) {
	ctx := context.Background()

	t.Run("BypassAllWins", func(t *testing.T) {
		eng, _ := newTestEngine(t, credits.WithBypassConfig(credits.BypassConfig{
			BypassAll:   true,
			DevBypass:   boolPtr(false),
			Environment: credits.EnvProduction,
		}))
		if !eng.ShouldBypassBilling(ctx, "user_1") {
			t.Fatal("bypass-all flag ignored")
		}
	})

	t.Run("ExplicitDevBypass", func(t *testing.T) {
		eng, _ := newTestEngine(t, credits.WithBypassConfig(credits.BypassConfig{
			DevBypass:   boolPtr(true),
			Environment: credits.EnvProduction,
		}))
		if !eng.ShouldBypassBilling(ctx, "user_1") {
			t.Fatal("explicit dev bypass ignored")
		}
	})

	t.Run("FailsOpenOutsideProduction", func(t *testing.T) {
		eng, _ := newTestEngine(t, credits.WithBypassConfig(credits.BypassConfig{
			Environment: "staging",
		}))
		if !eng.ShouldBypassBilling(ctx, "user_1") {
			t.Fatal("non-production environment should fail open")
		}

		// The explicit flag overrides the environment default.
		eng, _ = newTestEngine(t, credits.WithBypassConfig(credits.BypassConfig{
			DevBypass:   boolPtr(false),
			Environment: "staging",
		}))
		if eng.ShouldBypassBilling(ctx, "user_1") {
			t.Fatal("explicit false dev bypass ignored")
		}
	})

	t.Run("ProductionCharges", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		if eng.ShouldBypassBilling(ctx, "user_1") {
			t.Fatal("production without flags should charge")
		}
	})

	t.Run("AdminCheck", func(t *testing.T) {
		eng, _ := newTestEngine(t, credits.WithAdminChecker(
			func(_ context.Context, ownerID string) (bool, error) {
				switch ownerID {
				case "admin_1":
					return true, nil
				case "broken":
					return false, errors.New("directory unavailable")
				default:
					return false, nil
				}
			},
		))

		if !eng.ShouldBypassBilling(ctx, "admin_1") {
			t.Fatal("admin should bypass")
		}
		if eng.ShouldBypassBilling(ctx, "user_1") {
			t.Fatal("non-admin should charge")
		}
		// Errors are treated as "not admin", never as bypass.
		if eng.ShouldBypassBilling(ctx, "broken") {
			t.Fatal("admin-check error should fail closed")
		}
		// Without an owner id there is nothing to check.
		if eng.ShouldBypassBilling(ctx, "") {
			t.Fatal("empty owner id should charge")
		}
	})
}

func TestResolveWalletContext(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolvesWalletBalanceAndBypass", func(t *testing.T) {
		eng, _ := newTestEngine(t)

		wc, err := eng.ResolveWalletContext(ctx, credits.ResolveParams{
			OwnerType: wallet.OwnerUser,
			OwnerID:   "resolve_1",
		})
		if err != nil {
			t.Fatal(err)
		}
		if wc.Wallet == nil || wc.Balance == nil {
			t.Fatal("incomplete wallet context")
		}
		if wc.Bypass {
			t.Fatal("production context should not bypass")
		}
		if wc.Balance.ComputeGranted != 0 || wc.Balance.StorageGranted != 0 {
			t.Fatal("fresh balance should start at zero")
		}
	})

	t.Run("DevCreditsTopUpToCeiling", func(t *testing.T) {
		eng, _ := newTestEngine(t, credits.WithBypassConfig(credits.BypassConfig{
			BypassAll: true,
		}))

		params := credits.ResolveParams{
			OwnerType: wallet.OwnerUser,
			OwnerID:   "resolve_dev",
			DevCredits: &credits.DevCreditParams{
				GrantCompute: true,
				GrantStorage: true,
			},
		}

		wc, err := eng.ResolveWalletContext(ctx, params)
		if err != nil {
			t.Fatal(err)
		}
		if wc.Balance.ComputeGranted != credits.DevComputeCeiling {
			t.Fatalf("compute granted = %d, want %d", wc.Balance.ComputeGranted, credits.DevComputeCeiling)
		}
		if wc.Balance.StorageGranted != credits.DevStorageCeiling {
			t.Fatalf("storage granted = %d, want %d", wc.Balance.StorageGranted, credits.DevStorageCeiling)
		}

		// The top-ups are ordinary bonus ledger entries.
		txns, err := eng.ListTransactions(ctx, wc.Wallet.ID, transaction.ListOpts{Type: transaction.TypeBonus})
		if err != nil {
			t.Fatal(err)
		}
		if len(txns) != 2 {
			t.Fatalf("expected 2 bonus entries, got %d", len(txns))
		}

		// A wallet already at the ceiling is left alone.
		wc, err = eng.ResolveWalletContext(ctx, params)
		if err != nil {
			t.Fatal(err)
		}
		if wc.Balance.ComputeGranted != credits.DevComputeCeiling {
			t.Fatalf("repeat resolution changed the grant: %d", wc.Balance.ComputeGranted)
		}
		txns, err = eng.ListTransactions(ctx, wc.Wallet.ID, transaction.ListOpts{Type: transaction.TypeBonus})
		if err != nil {
			t.Fatal(err)
		}
		if len(txns) != 2 {
			t.Fatalf("repeat resolution wrote %d bonus entries", len(txns)-2)
		}
	})

	t.Run("DevCreditsSkippedWithoutBypass", func(t *testing.T) {
		eng, _ := newTestEngine(t)

		wc, err := eng.ResolveWalletContext(ctx, credits.ResolveParams{
			OwnerType: wallet.OwnerUser,
			OwnerID:   "resolve_prod",
			DevCredits: &credits.DevCreditParams{
				GrantCompute: true,
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		if wc.Balance.ComputeGranted != 0 {
			t.Fatalf("non-bypassed wallet received dev credits: %d", wc.Balance.ComputeGranted)
		}
	})
}

func TestEnsureFeatureAccess(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	tier := func(name string) *wallet.Balance {
		return &wallet.Balance{FeatureTier: &name}
	}

	t.Run("BypassAlwaysPasses", func(t *testing.T) {
		err := eng.EnsureFeatureAccess(ctx, credits.AccessParams{
			Bypass:       true,
			RequiredTier: "ultra",
		})
		if err != nil {
			t.Fatal(err)
		}
	})

	t.Run("SufficientTierPasses", func(t *testing.T) {
		err := eng.EnsureFeatureAccess(ctx, credits.AccessParams{
			Balance:      tier("pro"),
			RequiredTier: "plus",
		})
		if err != nil {
			t.Fatal(err)
		}
	})

	t.Run("InsufficientTierDenied", func(t *testing.T) {
		err := eng.EnsureFeatureAccess(ctx, credits.AccessParams{
			Balance:      tier("plus"),
			RequiredTier: "studio",
			FeatureName:  "hd_export",
		})
		if !credits.IsAccessDenied(err) {
			t.Fatalf("expected access denial, got %v", err)
		}

		var denied *credits.AccessError
		if !errors.As(err, &denied) {
			t.Fatal("error does not unwrap to AccessError")
		}
		if denied.FeatureName != "hd_export" || denied.RequiredTier != "studio" || denied.CurrentTier != "plus" {
			t.Fatalf("unexpected denial fields: %+v", denied)
		}
	})

	t.Run("RequiredTierDefaultsToStarter", func(t *testing.T) {
		if err := eng.EnsureFeatureAccess(ctx, credits.AccessParams{
			Balance: tier("free"),
		}); err != nil {
			t.Fatal(err)
		}

		err := eng.EnsureFeatureAccess(ctx, credits.AccessParams{
			Balance: &wallet.Balance{},
		})
		if !credits.IsAccessDenied(err) {
			t.Fatalf("untiered empty wallet should be denied, got %v", err)
		}
	})

	t.Run("LegacyWalletsWithComputePass", func(t *testing.T) {
		// Wallets provisioned before tiers existed have a grant but no
		// tier stamp.
		err := eng.EnsureFeatureAccess(ctx, credits.AccessParams{
			Balance: &wallet.Balance{ComputeGranted: 1000},
		})
		if err != nil {
			t.Fatal(err)
		}
	})
}
