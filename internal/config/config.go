// Package config loads the kernel's YAML configuration the same way
// cmd/binance-spot/main.go loads exchange config: viper.SetConfigName +
// AddConfigPath against a handful of candidate directories, then
// unmarshalled into typed structs per subsystem.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/mExOms/mm-kernel/internal/errs"
)

// PricingConfig configures whichever quoting strategy a symbol uses.
type PricingConfig struct {
	Strategy string `mapstructure:"strategy"` // "glft", "grid", or "depth"

	GLFT struct {
		RiskAversion     float64 `mapstructure:"risk_aversion"`
		OrderArrivalRate float64 `mapstructure:"order_arrival_rate"`
		VolatilityWindow int     `mapstructure:"volatility_window"`
	} `mapstructure:"glft"`

	Grid struct {
		Levels       int     `mapstructure:"levels"`
		GapPct       float64 `mapstructure:"gap_pct"`
		Geometric    bool    `mapstructure:"geometric"`
		DustQuantity float64 `mapstructure:"dust_quantity"`
	} `mapstructure:"grid"`

	Depth struct {
		TargetDepth float64 `mapstructure:"target_depth"`
		TickSize    float64 `mapstructure:"tick_size"`
	} `mapstructure:"depth"`
}

// RiskConfig configures per-asset limits and portfolio-level thresholds.
type RiskConfig struct {
	MaxPositionBySymbol map[string]float64 `mapstructure:"max_position_by_symbol"`
	MaxNotionalBySymbol map[string]float64 `mapstructure:"max_notional_by_symbol"`
	ConfidenceLevel     float64            `mapstructure:"confidence_level"`
	VaRLookbackDays     int                `mapstructure:"var_lookback_days"`
}

// AlertConfig configures dedup and retention for the alert manager.
type AlertConfig struct {
	DedupWindowSeconds int `mapstructure:"dedup_window_seconds"`
	HistorySize        int `mapstructure:"history_size"`
}

// PersistenceConfig configures the repository scheduler's cron cadence.
type PersistenceConfig struct {
	SnapshotCron string `mapstructure:"snapshot_cron"`
	CleanupCron  string `mapstructure:"cleanup_cron"`
	RetainDays   int    `mapstructure:"retain_days"`
}

// EventsConfig configures broadcaster buffering and the optional NATS relay.
type EventsConfig struct {
	HistorySize int    `mapstructure:"history_size"`
	NATSEnabled bool   `mapstructure:"nats_enabled"`
	NATSURL     string `mapstructure:"nats_url"`
	NATSSubject string `mapstructure:"nats_subject"`
}

// Config is the root document, one section per subsystem.
type Config struct {
	Pricing     map[string]PricingConfig `mapstructure:"pricing"` // keyed by symbol
	Risk        RiskConfig               `mapstructure:"risk"`
	Alerts      AlertConfig              `mapstructure:"alerts"`
	Persistence PersistenceConfig        `mapstructure:"persistence"`
	Events      EventsConfig             `mapstructure:"events"`
}

// Load reads config.yaml from the given search paths (in order) and
// unmarshals it into a Config. A caller with no special deployment layout
// can pass the same three paths a typical main.go uses:
// "/configs", "./configs", "../../../configs".
func Load(searchPaths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, errs.InvalidConfiguration("config.Load", fmt.Errorf("read config: %w", err))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.InvalidConfiguration("config.Load", fmt.Errorf("unmarshal config: %w", err))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	for symbol, pc := range c.Pricing {
		switch pc.Strategy {
		case "glft", "grid", "depth":
		default:
			return errs.Newf(errs.ErrInvalidConfiguration, "config.Load",
				"symbol %s: unknown pricing strategy %q", symbol, pc.Strategy)
		}
	}
	if c.Risk.ConfidenceLevel != 0 && (c.Risk.ConfidenceLevel <= 0 || c.Risk.ConfidenceLevel >= 1) {
		return errs.Newf(errs.ErrInvalidConfiguration, "config.Load",
			"risk.confidence_level must be in (0, 1), got %v", c.Risk.ConfidenceLevel)
	}
	return nil
}
