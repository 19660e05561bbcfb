// Package config loads the runtime settings of the vault CLI. Sources are
// applied in order: defaults, then a JSON file, then command-line flags,
// with later sources taking precedence.
package config

import (
	"time"

	"github.com/skuznetsov/finvault/internal/cryptox"
	"github.com/skuznetsov/finvault/internal/ledger"
)

// Config holds runtime settings for the vault CLI.
//
// Units: SessionTTL is a time.Duration; SnapshotThreshold is an absolute
// value change; RetentionDays is calendar days.
type Config struct {
	DatabasePath      string
	PBKDF2Iterations  int
	RetentionDays     int
	SnapshotThreshold float64
	SessionTTL        time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "finvault.db"
	c.PBKDF2Iterations = cryptox.MinIterations
	c.RetentionDays = 365
	c.SnapshotThreshold = ledger.DefaultThreshold
	c.SessionTTL = 15 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
