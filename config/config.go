// Package config loads and validates bot configuration from YAML or
// JSON files, with environment variable overrides for credentials.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete bot configuration
type Config struct {
	Symbols    []string         `json:"symbols" yaml:"symbols"`
	Timeframe  string           `json:"timeframe" yaml:"timeframe"`
	Interval   string           `json:"interval" yaml:"interval"` // polling cadence, e.g. "30s"
	Trading    TradingConfig    `json:"trading" yaml:"trading"`
	Signal     SignalConfig     `json:"signal" yaml:"signal"`
	Resilience ResilienceConfig `json:"resilience" yaml:"resilience"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Telegram   TelegramConfig   `json:"telegram" yaml:"telegram"`
}

// TradingConfig contains position sizing and loss limit parameters
type TradingConfig struct {
	DefaultAmount        float64 `json:"default_amount" yaml:"default_amount"`
	MaxDailyLossPercent  float64 `json:"max_daily_loss_percent" yaml:"max_daily_loss_percent"`
	MaxTradePercent      float64 `json:"max_trade_percent" yaml:"max_trade_percent"`
	ConsecutiveLossLimit int     `json:"consecutive_loss_limit" yaml:"consecutive_loss_limit"`
	DemoMode             bool    `json:"demo_mode" yaml:"demo_mode"`
	PauseMinutes         int     `json:"pause_minutes" yaml:"pause_minutes"`
	Expiration           string  `json:"expiration" yaml:"expiration"` // option expiry, e.g. "1m"
}

// SignalConfig contains indicator parameters
type SignalConfig struct {
	RSIPeriod  int     `json:"rsi_period" yaml:"rsi_period"`
	SMAPeriod  int     `json:"sma_period" yaml:"sma_period"`
	Oversold   float64 `json:"oversold" yaml:"oversold"`
	Overbought float64 `json:"overbought" yaml:"overbought"`
}

// ResilienceConfig contains circuit breaker and rate limit parameters
type ResilienceConfig struct {
	BreakerThreshold int       `json:"breaker_threshold" yaml:"breaker_threshold"`
	BreakerTimeout   string    `json:"breaker_timeout" yaml:"breaker_timeout"`
	Limits           RateLimits `json:"limits" yaml:"limits"`
}

// RateLimits sets per-minute request caps for each operation class
type RateLimits struct {
	MarketData   int `json:"market_data" yaml:"market_data"`
	Validation   int `json:"validation" yaml:"validation"`
	Trading      int `json:"trading" yaml:"trading"`
	Notification int `json:"notification" yaml:"notification"`
}

// JournalConfig contains trade journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// TelegramConfig contains bot credentials. Both fields may be supplied
// via TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID instead of the file.
type TelegramConfig struct {
	Token  string `json:"token,omitempty" yaml:"token,omitempty"`
	ChatID int64  `json:"chat_id,omitempty" yaml:"chat_id,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on
// content), applies environment overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Load returns the default configuration with environment overrides
// applied, for running without a config file.
func Load() (*Config, error) {
	cfg := Default()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays credentials and trading knobs from the process
// environment. A .env file in the working directory is honored when
// present.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("DEFAULT_TRADE_AMOUNT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Trading.DefaultAmount = f
		}
	}
	if v := os.Getenv("DEMO_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Trading.DemoMode = b
		}
	}
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	if _, err := c.PollInterval(); err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}
	if c.Trading.DefaultAmount <= 0 {
		return fmt.Errorf("trading.default_amount must be positive")
	}
	if c.Trading.MaxDailyLossPercent <= 0 || c.Trading.MaxDailyLossPercent > 100 {
		return fmt.Errorf("trading.max_daily_loss_percent must be between 0 and 100")
	}
	if c.Trading.MaxTradePercent <= 0 || c.Trading.MaxTradePercent > 100 {
		return fmt.Errorf("trading.max_trade_percent must be between 0 and 100")
	}
	if c.Trading.ConsecutiveLossLimit < 1 {
		return fmt.Errorf("trading.consecutive_loss_limit must be at least 1")
	}
	if _, err := c.TradeExpiration(); err != nil {
		return fmt.Errorf("invalid trading.expiration: %w", err)
	}
	if c.Signal.RSIPeriod < 2 {
		return fmt.Errorf("signal.rsi_period must be at least 2")
	}
	if c.Signal.SMAPeriod < 1 {
		return fmt.Errorf("signal.sma_period must be at least 1")
	}
	if c.Signal.Oversold >= c.Signal.Overbought {
		return fmt.Errorf("signal.oversold must be below signal.overbought")
	}
	if c.Resilience.BreakerThreshold < 1 {
		return fmt.Errorf("resilience.breaker_threshold must be at least 1")
	}
	if _, err := c.BreakerTimeout(); err != nil {
		return fmt.Errorf("invalid resilience.breaker_timeout: %w", err)
	}
	if c.Resilience.Limits.MarketData < 1 || c.Resilience.Limits.Validation < 1 ||
		c.Resilience.Limits.Trading < 1 || c.Resilience.Limits.Notification < 1 {
		return fmt.Errorf("resilience.limits must all be at least 1")
	}
	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.TradesFile == "" {
			return fmt.Errorf("journal.trades_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// PollInterval parses the polling cadence
func (c *Config) PollInterval() (time.Duration, error) {
	return time.ParseDuration(c.Interval)
}

// TradeExpiration parses the option expiration duration
func (c *Config) TradeExpiration() (time.Duration, error) {
	return time.ParseDuration(c.Trading.Expiration)
}

// BreakerTimeout parses the circuit breaker recovery timeout
func (c *Config) BreakerTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Resilience.BreakerTimeout)
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Symbols:   []string{"EURUSD"},
		Timeframe: "1m",
		Interval:  "30s",
		Trading: TradingConfig{
			DefaultAmount:        10,
			MaxDailyLossPercent:  5,
			MaxTradePercent:      2,
			ConsecutiveLossLimit: 3,
			DemoMode:             true,
			PauseMinutes:         60,
			Expiration:           "1m",
		},
		Signal: SignalConfig{
			RSIPeriod:  14,
			SMAPeriod:  20,
			Oversold:   30,
			Overbought: 70,
		},
		Resilience: ResilienceConfig{
			BreakerThreshold: 5,
			BreakerTimeout:   "60s",
			Limits: RateLimits{
				MarketData:   60,
				Validation:   5,
				Trading:      60,
				Notification: 30,
			},
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
		},
	}
}
