// Package config holds the runtime tuning knobs for the economy and the
// item store. Paths and the listen address come from flags in cmd/stash;
// everything here comes from the environment so the gateway deployment can
// tune the bot without touching the command line.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is parsed from STASH_* environment variables.
type Config struct {
	// MaxUniqueItems caps how many instances of one unique item a single
	// user may hold.
	MaxUniqueItems int `env:"STASH_MAX_UNIQUE_ITEMS" envDefault:"10"`

	// NewUserWallet and NewUserBankCap fund a user's first contact, in
	// cents.
	NewUserWallet  int64 `env:"STASH_NEW_USER_WALLET_CENTS" envDefault:"50000"`
	NewUserBankCap int64 `env:"STASH_NEW_USER_BANK_CAP_CENTS" envDefault:"250000"`

	// CurrencySymbol prefixes formatted amounts in API responses.
	CurrencySymbol string `env:"STASH_CURRENCY_SYMBOL" envDefault:"$"`

	// SelectionTimeoutSeconds is the idle lifetime of an interactive
	// selection session.
	SelectionTimeoutSeconds int `env:"STASH_SELECTION_TIMEOUT_SECONDS" envDefault:"180"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.MaxUniqueItems < 1 {
		return Config{}, fmt.Errorf("STASH_MAX_UNIQUE_ITEMS must be at least 1")
	}
	return cfg, nil
}
