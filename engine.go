package credits

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/capsulehq/credits/plugin"
	"github.com/capsulehq/credits/store"
)

// Engine is the wallet ledger and entitlement engine.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Policy configuration
	bypass     BypassConfig
	adminCheck AdminChecker

	// Background worker
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Transfer reconciliation
	sweepInterval time.Duration
	sweepTimeout  time.Duration
	sweepBatch    int

	skipMigrate bool
}

// New creates a new Engine instance. The zero-option engine uses the
// default logger, a fail-open bypass config (see BypassConfig), no
// admin checker, and a five-minute transfer reconciliation sweep.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         s,
		plugins:       plugin.NewRegistry(),
		logger:        slog.Default(),
		stopChan:      make(chan struct{}),
		sweepInterval: 5 * time.Minute,
		sweepTimeout:  10 * time.Minute,
		sweepBatch:    100,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithBypassConfig sets the billing bypass configuration.
func WithBypassConfig(cfg BypassConfig) Option {
	return func(e *Engine) {
		e.bypass = cfg
	}
}

// WithAdminChecker sets the administrative-privilege check used by
// ShouldBypassBilling.
func WithAdminChecker(check AdminChecker) Option {
	return func(e *Engine) {
		e.adminCheck = check
	}
}

// WithSweepConfig configures the transfer reconciliation worker.
// A transfer still pending or debited after timeout is considered
// stale and reconciled.
func WithSweepConfig(interval, timeout time.Duration, batch int) Option {
	return func(e *Engine) {
		e.sweepInterval = interval
		e.sweepTimeout = timeout
		e.sweepBatch = batch
	}
}

// WithoutMigrate skips store migration during Start. Use when schema
// management happens out of band.
func WithoutMigrate() Option {
	return func(e *Engine) {
		e.skipMigrate = true
	}
}

// Start migrates the store, initializes plugins, and starts the
// transfer reconciliation worker.
func (e *Engine) Start(ctx context.Context) error {
	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return err
		}
	}

	e.plugins.EmitInit(ctx, e)

	e.wg.Add(1)
	go e.sweepWorker(ctx)

	e.logger.Info("credits engine started",
		"sweep_interval", e.sweepInterval,
		"sweep_timeout", e.sweepTimeout,
		"environment", e.bypass.Environment,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	close(e.stopChan)
	e.wg.Wait()

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// sweepWorker periodically reconciles stale transfers.
func (e *Engine) sweepWorker(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return

		case <-ticker.C:
			swept, err := e.SweepStaleTransfers(ctx)
			if err != nil {
				e.logger.Error("transfer sweep failed", "error", err)
				continue
			}
			if swept > 0 {
				e.logger.Info("reconciled stale transfers", "count", swept)
			}
		}
	}
}

// now is the single clock used for entity timestamps and period math.
func now() time.Time {
	return time.Now().UTC()
}
