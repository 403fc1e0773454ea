// Package config loads the marketplace bot configuration on top of the shared core config.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/postbot/core/config"
	coredatabase "github.com/m3rciful/postbot/core/database"
)

const (
	// DefaultBalance is credited to every wallet on first contact.
	DefaultBalance = 100
	// DefaultAdminContact is shown on the top-up screen when none is configured.
	DefaultAdminContact = "@kittiking"
)

// MarketConfig tunes the marketplace runtime.
type MarketConfig struct {
	DefaultBalance       int64 `yaml:"default_balance" envconfig:"MARKET_DEFAULT_BALANCE"`
	SessionIdleMinutes   int   `yaml:"session_idle_minutes" envconfig:"MARKET_SESSION_IDLE_MINUTES"`
	SweepIntervalMinutes int   `yaml:"sweep_interval_minutes" envconfig:"MARKET_SWEEP_INTERVAL_MINUTES"`
}

// AdminConfig lists who may top up wallets and how users reach them.
type AdminConfig struct {
	Usernames []string `yaml:"usernames" envconfig:"ADMIN_USERNAMES"`
	Contact   string   `yaml:"contact" envconfig:"ADMIN_CONTACT"`
}

// OpsConfig configures the metrics and health listener.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// Config is the full configuration of the postbot binary.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Market   MarketConfig        `yaml:"market"`
	Admin    AdminConfig         `yaml:"admin"`
	Ops      OpsConfig           `yaml:"ops"`
}

// CoreConfig exposes the embedded core configuration to the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// SessionIdle is how long an untouched session survives.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.Market.SessionIdleMinutes) * time.Minute
}

// SweepInterval is the period of the background expired-listing sweep; zero disables it.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Market.SweepIntervalMinutes) * time.Minute
}

// Load reads YAML and environment overrides, then validates and fills defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and applies marketplace defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return err
	}
	return normalizeMarket(cfg)
}

func normalizeMarket(cfg *Config) error {
	if cfg.Market.DefaultBalance < 0 {
		return fmt.Errorf("market.default_balance must be >= 0")
	}
	if cfg.Market.DefaultBalance == 0 {
		cfg.Market.DefaultBalance = DefaultBalance
	}
	if cfg.Market.SessionIdleMinutes < 0 {
		return fmt.Errorf("market.session_idle_minutes must be >= 0")
	}
	if cfg.Market.SessionIdleMinutes == 0 {
		cfg.Market.SessionIdleMinutes = 24 * 60
	}
	if cfg.Market.SweepIntervalMinutes < 0 {
		return fmt.Errorf("market.sweep_interval_minutes must be >= 0")
	}

	names := cfg.Admin.Usernames[:0]
	for _, n := range cfg.Admin.Usernames {
		if n = strings.TrimPrefix(strings.TrimSpace(n), "@"); n != "" {
			names = append(names, n)
		}
	}
	cfg.Admin.Usernames = names
	if strings.TrimSpace(cfg.Admin.Contact) == "" {
		cfg.Admin.Contact = DefaultAdminContact
		if len(names) > 0 {
			cfg.Admin.Contact = "@" + names[0]
		}
	}
	cfg.Ops.Listen = strings.TrimSpace(cfg.Ops.Listen)
	return nil
}
