package credits

import (
	"context"
	"os"
	"strings"
)

// Environment variables consulted by BypassConfigFromEnv.
const (
	EnvBypassAll   = "CREDITS_BYPASS_ALL"
	EnvDevBypass   = "CREDITS_DEV_BYPASS"
	EnvEnvironment = "CREDITS_ENV"
)

// EnvProduction is the environment name that disables the fail-open
// dev-bypass default.
const EnvProduction = "production"

// BypassConfig controls when billing is bypassed entirely. The
// zero value means: no global bypass, dev bypass unset, empty
// environment. An empty environment is treated as non-production, so
// the zero value fails open; set Environment to EnvProduction for any
// deployment that should actually charge.
type BypassConfig struct {
	// BypassAll disables billing for every caller.
	BypassAll bool

	// DevBypass, when non-nil, decides dev bypass explicitly. When
	// nil the engine fails open outside production.
	DevBypass *bool

	// Environment names the runtime tier ("production", "staging",
	// "development", ...).
	Environment string
}

// devBypassEnabled resolves the dev-bypass decision: the explicit flag
// when set, otherwise fail-open outside production.
func (c BypassConfig) devBypassEnabled() bool {
	if c.DevBypass != nil {
		return *c.DevBypass
	}
	return c.Environment != EnvProduction
}

// BypassConfigFromEnv builds a BypassConfig from CREDITS_BYPASS_ALL,
// CREDITS_DEV_BYPASS, and CREDITS_ENV. CREDITS_DEV_BYPASS is only
// treated as set when the variable is present.
func BypassConfigFromEnv() BypassConfig {
	cfg := BypassConfig{
		BypassAll:   parseBool(os.Getenv(EnvBypassAll)),
		Environment: strings.TrimSpace(os.Getenv(EnvEnvironment)),
	}

	if raw, ok := os.LookupEnv(EnvDevBypass); ok {
		v := parseBool(raw)
		cfg.DevBypass = &v
	}

	return cfg
}

// parseBool parses the boolean environment convention: "1", "true",
// "yes", "on" (case-insensitive) are true, everything else false.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// AdminChecker reports whether an owner has administrative privileges.
// Used only by ShouldBypassBilling; errors are logged and treated as
// "not admin".
type AdminChecker func(ctx context.Context, ownerID string) (bool, error)
