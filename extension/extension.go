// Package extension provides the Forge extension adapter for Credits.
//
// It implements the forge.Extension interface to integrate Credits
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.credits" or "credits" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	credits "github.com/capsulehq/credits"
	"github.com/capsulehq/credits/store"
	"github.com/capsulehq/credits/store/memory"
	"github.com/capsulehq/credits/store/mongo"
	"github.com/capsulehq/credits/store/postgres"
	"github.com/capsulehq/credits/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "credits"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Wallet ledger and entitlement engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Credits as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *credits.Engine
	store      store.Store
	groveDB    *grove.DB
	useGrove   bool
	engineOpts []credits.Option
}

// New creates a new Credits Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Credits engine.
// This is nil until Register is called.
func (e *Extension) Engine() *credits.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the credits engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := e.buildStore()
		if err != nil {
			return err
		}
		e.store = s
	}

	opts := e.buildEngineOpts()

	eng := credits.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*credits.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("credits: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("credits: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildStore constructs the store backend. A grove.DB provided via
// WithGroveDB is wrapped by the backend named in grove_driver; otherwise
// the in-memory store is used.
func (e *Extension) buildStore() (store.Store, error) {
	if !e.useGrove || e.groveDB == nil {
		return memory.New(), nil
	}

	switch e.config.GroveDriver {
	case "", "postgres":
		return postgres.New(e.groveDB), nil
	case "sqlite":
		return sqlite.New(e.groveDB), nil
	case "mongo":
		return mongo.New(e.groveDB), nil
	default:
		return nil, fmt.Errorf("credits: unknown grove driver %q", e.config.GroveDriver)
	}
}

// buildEngineOpts constructs credits.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []credits.Option {
	opts := make([]credits.Option, 0, len(e.engineOpts)+3)

	if e.config.DisableMigrate {
		opts = append(opts, credits.WithoutMigrate())
	}

	opts = append(opts, credits.WithSweepConfig(
		e.config.SweepInterval,
		e.config.SweepTimeout,
		e.config.SweepBatchSize,
	))

	if e.config.BypassFromEnv {
		opts = append(opts, credits.WithBypassConfig(credits.BypassConfigFromEnv()))
	} else {
		opts = append(opts, credits.WithBypassConfig(credits.BypassConfig{
			BypassAll:   e.config.BypassAll,
			DevBypass:   e.config.DevBypass,
			Environment: e.config.Environment,
		}))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("credits: configuration is required but not found in config files; " +
				"ensure 'extensions.credits' or 'credits' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("credits: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("sweep_interval", e.config.SweepInterval),
		forge.F("sweep_timeout", e.config.SweepTimeout),
		forge.F("sweep_batch_size", e.config.SweepBatchSize),
		forge.F("bypass_from_env", e.config.BypassFromEnv),
		forge.F("environment", e.config.Environment),
		forge.F("grove_driver", e.config.GroveDriver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.credits" first (namespaced pattern).
	if cm.IsSet("extensions.credits") {
		if err := cm.Bind("extensions.credits", &cfg); err == nil {
			e.Logger().Debug("credits: loaded config from file",
				forge.F("key", "extensions.credits"),
			)
			return cfg, true
		}
		e.Logger().Warn("credits: failed to bind extensions.credits config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "credits" key.
	if cm.IsSet("credits") {
		if err := cm.Bind("credits", &cfg); err == nil {
			e.Logger().Debug("credits: loaded config from file",
				forge.F("key", "credits"),
			)
			return cfg, true
		}
		e.Logger().Warn("credits: failed to bind credits config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	if cfg.SweepTimeout == 0 {
		cfg.SweepTimeout = defaults.SweepTimeout
	}
	if cfg.SweepBatchSize == 0 {
		cfg.SweepBatchSize = defaults.SweepBatchSize
	}
	if cfg.GroveDriver == "" {
		cfg.GroveDriver = defaults.GroveDriver
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.BypassFromEnv {
		yamlConfig.BypassFromEnv = true
	}
	if programmaticConfig.BypassAll {
		yamlConfig.BypassAll = true
	}

	// Pointer/string fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.DevBypass == nil && programmaticConfig.DevBypass != nil {
		yamlConfig.DevBypass = programmaticConfig.DevBypass
	}
	if yamlConfig.Environment == "" && programmaticConfig.Environment != "" {
		yamlConfig.Environment = programmaticConfig.Environment
	}
	if yamlConfig.GroveDriver == "" && programmaticConfig.GroveDriver != "" {
		yamlConfig.GroveDriver = programmaticConfig.GroveDriver
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.SweepInterval == 0 && programmaticConfig.SweepInterval != 0 {
		yamlConfig.SweepInterval = programmaticConfig.SweepInterval
	}
	if yamlConfig.SweepTimeout == 0 && programmaticConfig.SweepTimeout != 0 {
		yamlConfig.SweepTimeout = programmaticConfig.SweepTimeout
	}
	if yamlConfig.SweepBatchSize == 0 && programmaticConfig.SweepBatchSize != 0 {
		yamlConfig.SweepBatchSize = programmaticConfig.SweepBatchSize
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
