// Package config defines the top-level configuration for the arbitrage engine
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBOT_* environment variables.
type Config struct {
	Engine      EngineConfig      `toml:"engine"`
	Exchanges   []ExchangeConfig  `toml:"exchange"`
	Triangles   []TriangleConfig  `toml:"triangle"`
	Statistical StatisticalConfig `toml:"statistical"`
	Retry       RetryConfig       `toml:"retry"`
	Redis       RedisConfig       `toml:"redis"`
	Notify      NotifyConfig      `toml:"notify"`
	Mode        string            `toml:"mode"`
	LogLevel    string            `toml:"log_level"`
}

// EngineConfig holds the scan-and-trade parameters.
type EngineConfig struct {
	Pairs               []string `toml:"pairs"`
	MinProfitPct        float64  `toml:"min_profit_pct"`
	TradeAmount         float64  `toml:"trade_amount"`
	MaxTradeAmount      float64  `toml:"max_trade_amount"`
	Cooldown            duration `toml:"cooldown"`
	SlippageTolerance   float64  `toml:"slippage_tolerance"`
	PollInterval        duration `toml:"poll_interval"`
	ErrorBackoff        duration `toml:"error_backoff"`
	CandleTimeframe     string   `toml:"candle_timeframe"`
	TriangularThreshold float64  `toml:"triangular_threshold"`
}

// ExchangeConfig declares one member of the closed exchange set.
type ExchangeConfig struct {
	ID string `toml:"id"`
	// TakerFee is the taker fee rate as a fraction (0.001 = 0.1%).
	TakerFee float64 `toml:"taker_fee"`
}

// TriangleConfig declares one currency triangle. Legs[i] is evaluated on
// Exchanges[i].
type TriangleConfig struct {
	Legs      []string `toml:"legs"`
	Exchanges []string `toml:"exchanges"`
}

// StatisticalConfig binds the band-breakout detector to one pair and
// exchange.
type StatisticalConfig struct {
	Pair     string `toml:"pair"`
	Exchange string `toml:"exchange"`
}

// RetryConfig controls the shared gateway retry policy.
type RetryConfig struct {
	MaxAttempts int      `toml:"max_attempts"`
	BaseDelay   duration `toml:"base_delay"`
}

// RedisConfig holds the optional event-bus connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	Channel    string `toml:"channel"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "30s", "2s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "30s" or "5m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values. The
// engine numbers mirror config.example.toml.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			Pairs:               []string{"BTC/USD", "ETH/USD", "ETH/BTC"},
			MinProfitPct:        0.3,
			TradeAmount:         0.01,
			MaxTradeAmount:      0.1,
			Cooldown:            duration{30 * time.Second},
			SlippageTolerance:   0.005,
			PollInterval:        duration{2 * time.Second},
			ErrorBackoff:        duration{60 * time.Second},
			CandleTimeframe:     "5m",
			TriangularThreshold: 1.005,
		},
		Exchanges: []ExchangeConfig{
			{ID: "cex", TakerFee: 0.0025},
			{ID: "kraken", TakerFee: 0.0026},
		},
		Triangles: []TriangleConfig{
			{
				Legs:      []string{"BTC/USD", "ETH/BTC", "ETH/USD"},
				Exchanges: []string{"cex", "kraken", "cex"},
			},
			{
				Legs:      []string{"BTC/USD", "ETH/BTC", "ETH/USD"},
				Exchanges: []string{"kraken", "cex", "kraken"},
			},
		},
		Statistical: StatisticalConfig{
			Pair:     "BTC/USD",
			Exchange: "cex",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   duration{time.Second},
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			Channel:    "arbot:events",
		},
		Notify: NotifyConfig{
			Events: []string{"leg_mismatch", "error"},
		},
		Mode:     "paper",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"paper":   true,
	"monitor": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: paper, monitor)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Exchanges form a closed set; at least two are needed for any
	// cross-exchange comparison.
	if len(c.Exchanges) < 2 {
		errs = append(errs, "exchange: at least two exchanges must be configured")
	}
	seen := map[string]bool{}
	for i, ex := range c.Exchanges {
		if ex.ID == "" {
			errs = append(errs, fmt.Sprintf("exchange[%d]: id must not be empty", i))
			continue
		}
		if seen[ex.ID] {
			errs = append(errs, fmt.Sprintf("exchange[%d]: duplicate id %q", i, ex.ID))
		}
		seen[ex.ID] = true
		if ex.TakerFee < 0 || ex.TakerFee >= 1 {
			errs = append(errs, fmt.Sprintf("exchange %q: taker_fee must be in [0, 1), got %g", ex.ID, ex.TakerFee))
		}
	}

	// Engine
	if len(c.Engine.Pairs) == 0 {
		errs = append(errs, "engine: pairs must not be empty")
	}
	if c.Engine.MinProfitPct <= 0 {
		errs = append(errs, "engine: min_profit_pct must be > 0")
	}
	if c.Engine.TradeAmount <= 0 {
		errs = append(errs, "engine: trade_amount must be > 0")
	}
	if c.Engine.MaxTradeAmount < c.Engine.TradeAmount {
		errs = append(errs, "engine: max_trade_amount must be >= trade_amount")
	}
	if c.Engine.SlippageTolerance < 0 || c.Engine.SlippageTolerance >= 1 {
		errs = append(errs, fmt.Sprintf("engine: slippage_tolerance must be in [0, 1), got %g", c.Engine.SlippageTolerance))
	}
	if c.Engine.PollInterval.Duration <= 0 {
		errs = append(errs, "engine: poll_interval must be > 0")
	}
	if c.Engine.Cooldown.Duration < 0 {
		errs = append(errs, "engine: cooldown must not be negative")
	}
	if c.Engine.TriangularThreshold <= 1 {
		errs = append(errs, fmt.Sprintf("engine: triangular_threshold must be > 1, got %g", c.Engine.TriangularThreshold))
	}

	// Triangles reference configured exchanges only.
	for i, tri := range c.Triangles {
		if len(tri.Legs) != 3 || len(tri.Exchanges) != 3 {
			errs = append(errs, fmt.Sprintf("triangle[%d]: exactly 3 legs and 3 exchanges required", i))
			continue
		}
		for j, ex := range tri.Exchanges {
			if !seen[ex] {
				errs = append(errs, fmt.Sprintf("triangle[%d]: exchange %q of leg %d is not configured", i, ex, j))
			}
		}
	}

	// Statistical detector binding.
	if c.Statistical.Pair == "" {
		errs = append(errs, "statistical: pair must not be empty")
	}
	if c.Statistical.Exchange != "" && !seen[c.Statistical.Exchange] {
		errs = append(errs, fmt.Sprintf("statistical: exchange %q is not configured", c.Statistical.Exchange))
	}

	// Retry
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, "retry: max_attempts must be >= 1")
	}
	if c.Retry.BaseDelay.Duration <= 0 {
		errs = append(errs, "retry: base_delay must be > 0")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.Channel == "" {
			errs = append(errs, "redis: channel must not be empty when enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
