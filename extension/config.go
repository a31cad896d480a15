package extension

import "time"

// Config holds the Credits extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.credits" or "credits" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// SweepInterval is how frequently the reconciliation worker scans for
	// stuck transfers (default: 5m).
	SweepInterval time.Duration `json:"sweep_interval" mapstructure:"sweep_interval" yaml:"sweep_interval"`

	// SweepTimeout is how long a transfer may sit in a non-terminal state
	// before the sweep reconciles it (default: 10m).
	SweepTimeout time.Duration `json:"sweep_timeout" mapstructure:"sweep_timeout" yaml:"sweep_timeout"`

	// SweepBatchSize is the maximum number of stale transfers reconciled
	// per sweep pass (default: 100).
	SweepBatchSize int `json:"sweep_batch_size" mapstructure:"sweep_batch_size" yaml:"sweep_batch_size"`

	// BypassFromEnv resolves the billing bypass configuration from the
	// CREDITS_* environment variables instead of the fields below.
	BypassFromEnv bool `json:"bypass_from_env" mapstructure:"bypass_from_env" yaml:"bypass_from_env"`

	// BypassAll disables billing enforcement for every wallet.
	BypassAll bool `json:"bypass_all" mapstructure:"bypass_all" yaml:"bypass_all"`

	// DevBypass enables the development bypass explicitly. When nil, the
	// bypass follows the Environment field.
	DevBypass *bool `json:"dev_bypass" mapstructure:"dev_bypass" yaml:"dev_bypass"`

	// Environment is the deployment environment name. Any value other
	// than "production" enables the development bypass when DevBypass
	// is unset.
	Environment string `json:"environment" mapstructure:"environment" yaml:"environment"`

	// GroveDriver selects the store backend built from a grove.DB passed
	// via WithGroveDB: "postgres", "sqlite", or "mongo" (default: "postgres").
	GroveDriver string `json:"grove_driver" mapstructure:"grove_driver" yaml:"grove_driver"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SweepInterval:  5 * time.Minute,
		SweepTimeout:   10 * time.Minute,
		SweepBatchSize: 100,
		GroveDriver:    "postgres",
	}
}
