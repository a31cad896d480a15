// Package credits provides a wallet ledger and entitlement engine for Go applications.
//
// Credits is designed as a library, not a service. Import it directly into your Go
// application and call it from your HTTP handlers and background jobs. It provides:
//
//   - Per-owner wallets tracking prepaid compute and storage allowances
//   - An append-only transaction ledger backing a materialized balance row
//   - Atomic usage charging with structured insufficient-funds rejections
//   - Idempotent funding keyed on (wallet, source type, source id)
//   - Cross-wallet transfers as a persisted saga with reconciliation
//   - Feature-tier gating with a development/admin bypass mode
//   - Plan catalog and subscription bookkeeping fed by payment webhooks
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/capsulehq/credits"
//	    "github.com/capsulehq/credits/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create engine
//	eng := credits.New(store,
//	    credits.WithBypassConfig(credits.BypassConfigFromEnv()),
//	)
//
//	// Start the engine (migrates and begins the reconciliation worker)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Core Concepts
//
// Every billable operation starts by resolving a wallet context:
//
//	wc, err := eng.ResolveWalletContext(ctx, credits.ResolveParams{
//	    OwnerType: wallet.OwnerUser,
//	    OwnerID:   userID,
//	})
//
// Charging consumes allowance and fails closed when it runs out:
//
//	_, err := eng.ChargeUsage(ctx, credits.ChargeParams{
//	    WalletID: wc.Wallet.ID,
//	    Metric:   wallet.MetricCompute,
//	    Amount:   cost,
//	    Bypass:   wc.Bypass,
//	})
//	if credits.IsInsufficientFunds(err) {
//	    // surface required/available to the user
//	}
//
// Plan grants are idempotent, so webhook retries never double-credit:
//
//	_, err := eng.GrantPlanAllowances(ctx, credits.GrantParams{
//	    WalletID:   wc.Wallet.ID,
//	    Plan:       p,
//	    SourceType: "subscription_renewal",
//	    SourceID:   invoiceID,
//	})
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	wlt_01h2xcejqtf2nbrexx3vqjhp41  // Wallet ID
//	txn_01h2xcejqtf2nbrexx3vqjhp41  // Transaction ID
//	xfr_01h455vb4pex5vsknk084sn02q  // Transfer ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package credits
