package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither --config nor TRACKER_CONFIG is given.
const DefaultPath = "tracker.yaml"

// Config holds all application configuration.
type Config struct {
	Portfolio struct {
		Backend    string `yaml:"backend"`
		File       string `yaml:"file"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"portfolio"`
	Quote struct {
		Provider       string             `yaml:"provider"`
		TimeoutSeconds int                `yaml:"timeout_seconds"`
		StaticPrices   map[string]float64 `yaml:"static_prices"`
	} `yaml:"quote"`
	Report struct {
		Currency string `yaml:"currency"`
	} `yaml:"report"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		ReportCron string `yaml:"report_cron"`
	} `yaml:"schedule"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORTFOLIO_BACKEND"); v != "" {
		c.Portfolio.Backend = v
	}
	if v := os.Getenv("PORTFOLIO_FILE"); v != "" {
		c.Portfolio.File = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Portfolio.SQLitePath = v
	}
	if v := os.Getenv("QUOTE_PROVIDER"); v != "" {
		c.Quote.Provider = v
	}
	if v := os.Getenv("QUOTE_TIMEOUT_SECONDS"); v != "" {
		var secs int
		if _, err := fmt.Sscanf(v, "%d", &secs); err == nil {
			c.Quote.TimeoutSeconds = secs
		} else {
			log.WithField("value", v).Warn("ignoring unparsable QUOTE_TIMEOUT_SECONDS")
		}
	}
	if v := os.Getenv("REPORT_CURRENCY"); v != "" {
		c.Report.Currency = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("CRON_REPORT"); v != "" {
		c.Schedule.ReportCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if c.Portfolio.Backend == "" {
		c.Portfolio.Backend = "json"
	}
	if c.Portfolio.File == "" {
		c.Portfolio.File = "portfolio.json"
	}
	if c.Portfolio.SQLitePath == "" {
		c.Portfolio.SQLitePath = "data/portfolio.db"
	}
	if c.Quote.Provider == "" {
		c.Quote.Provider = "yahoo"
	}
	if c.Quote.TimeoutSeconds == 0 {
		c.Quote.TimeoutSeconds = 10
	}
	if c.Report.Currency == "" {
		c.Report.Currency = "USD"
	}
	c.Report.Currency = strings.ToUpper(c.Report.Currency)
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 0 22 * * 1-5"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// QuoteTimeout returns the per-lookup timeout.
func (c *Config) QuoteTimeout() time.Duration {
	return time.Duration(c.Quote.TimeoutSeconds) * time.Second
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.Portfolio.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("portfolio.backend must be json or sqlite, got %q", c.Portfolio.Backend)
	}
	switch c.Quote.Provider {
	case "yahoo":
	case "static":
		if len(c.Quote.StaticPrices) == 0 {
			return fmt.Errorf("quote.static_prices is required for the static provider")
		}
	default:
		return fmt.Errorf("quote.provider must be yahoo or static, got %q", c.Quote.Provider)
	}
	if c.Quote.TimeoutSeconds <= 0 {
		return fmt.Errorf("quote.timeout_seconds must be positive")
	}
	if money.GetCurrency(c.Report.Currency) == nil {
		return fmt.Errorf("report.currency %q is not a known currency code", c.Report.Currency)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// ValidateTelegram checks the fields needed to deliver reports.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
