// Package config loads runtime configuration from yaml and environment,
// with LADDER_-prefixed variables overriding file values.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the root configuration document.
type Config struct {
	Ladder  LadderConfig  `mapstructure:"ladder"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Sim     SimConfig     `mapstructure:"sim"`
}

// LadderConfig shapes the order book and viewport.
type LadderConfig struct {
	MaxLevels     int    `mapstructure:"max_levels"`
	VisibleLevels int    `mapstructure:"visible_levels"`
	RingCapacity  int    `mapstructure:"ring_capacity"`
	TickSize      string `mapstructure:"tick_size"`
	FillEmpty     bool   `mapstructure:"fill_empty_levels"`
	StrictOrders  bool   `mapstructure:"strict_orders"`
}

// Tick parses the configured tick size.
func (c LadderConfig) Tick() (decimal.Decimal, error) {
	if c.TickSize == "" {
		return decimal.Decimal{}, nil
	}
	return decimal.NewFromString(c.TickSize)
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// SimConfig shapes the synthetic feed producer.
type SimConfig struct {
	Seed          int64         `mapstructure:"seed"`
	BasePrice     string        `mapstructure:"base_price"`
	TickSize      string        `mapstructure:"tick_size"`
	UpdatesPerSec int           `mapstructure:"updates_per_sec"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	MBO           bool          `mapstructure:"mbo"`
}

// Load reads configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvPrefix("LADDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ladder.max_levels", 1024)
	v.SetDefault("ladder.visible_levels", 40)
	v.SetDefault("ladder.ring_capacity", 4096)
	v.SetDefault("ladder.tick_size", "0.25")
	v.SetDefault("ladder.fill_empty_levels", false)
	v.SetDefault("ladder.strict_orders", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9109")
	v.SetDefault("sim.seed", 1)
	v.SetDefault("sim.base_price", "100.00")
	v.SetDefault("sim.tick_size", "0.25")
	v.SetDefault("sim.updates_per_sec", 10000)
	v.SetDefault("sim.flush_interval", 16*time.Millisecond)
	v.SetDefault("sim.mbo", false)
}

func (c *Config) validate() error {
	if c.Ladder.MaxLevels <= 0 {
		return fmt.Errorf("ladder.max_levels must be positive, got %d", c.Ladder.MaxLevels)
	}
	if c.Ladder.VisibleLevels <= 0 {
		return fmt.Errorf("ladder.visible_levels must be positive, got %d", c.Ladder.VisibleLevels)
	}
	if _, err := c.Ladder.Tick(); err != nil {
		return fmt.Errorf("ladder.tick_size: %w", err)
	}
	if _, err := decimal.NewFromString(c.Sim.BasePrice); err != nil {
		return fmt.Errorf("sim.base_price: %w", err)
	}
	return nil
}
