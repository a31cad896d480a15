package extension

import (
	"time"

	"github.com/xraph/grove"

	credits "github.com/capsulehq/credits"
	"github.com/capsulehq/credits/plugin"
	"github.com/capsulehq/credits/store"
)

// Option configures the Credits Forge extension.
type Option func(*Extension)

// WithStore sets the store for the credits engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store from an existing grove.DB. The backend is
// selected by the grove_driver config key (postgres, sqlite, or mongo).
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.useGrove = true
	}
}

// WithEngineOption passes a credits.Option through to the underlying engine.
func WithEngineOption(opt credits.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a credits plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, credits.WithPlugin(p))
	}
}

// WithAdminChecker sets the admin lookup used by the billing bypass.
func WithAdminChecker(check credits.AdminChecker) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, credits.WithAdminChecker(check))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithSweepInterval sets how frequently the reconciliation worker runs.
func WithSweepInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.SweepInterval = d }
}

// WithSweepTimeout sets how long a transfer may stay non-terminal before
// the sweep reconciles it.
func WithSweepTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.SweepTimeout = d }
}

// WithBypassFromEnv resolves bypass configuration from the CREDITS_*
// environment variables.
func WithBypassFromEnv() Option {
	return func(e *Extension) { e.config.BypassFromEnv = true }
}
