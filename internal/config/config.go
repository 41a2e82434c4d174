package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"RateProjector/internal/collector"
)

// DefaultQueryPoint is the x value the line is evaluated at when none is configured.
const DefaultQueryPoint = 1.0661

// Config holds all application configuration.
type Config struct {
	Source struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		XSymbol   string `yaml:"x_symbol"`
		YSymbol   string `yaml:"y_symbol"`
		TimeoutMS int    `yaml:"timeout_ms"`
		Mock      bool   `yaml:"mock"`
	} `yaml:"source"`
	Query struct {
		Mode    string  `yaml:"mode"`
		Year    int     `yaml:"year"`
		Day     int     `yaml:"day"`
		FromDay int     `yaml:"from_day"`
		ToDay   int     `yaml:"to_day"`
		Point   float64 `yaml:"point"`
	} `yaml:"query"`
	Probe struct {
		Address   string `yaml:"address"`
		TimeoutMS int    `yaml:"timeout_ms"`
		Disabled  bool   `yaml:"disabled"`
	} `yaml:"probe"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// 0 is a valid query point, so its default goes in before parsing
	cfg.Query.Point = DefaultQueryPoint

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("RATES_BASE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("RATES_API_KEY"); v != "" {
		cfg.Source.APIKey = v
	}
	if v := os.Getenv("QUERY_MODE"); v != "" {
		cfg.Query.Mode = v
	}
	if v := os.Getenv("QUERY_POINT"); v != "" {
		var point float64
		if _, err := fmt.Sscanf(v, "%f", &point); err == nil {
			cfg.Query.Point = point
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_PROJECTION"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Listen = v
	}

	// Defaults
	if cfg.Source.BaseURL == "" {
		cfg.Source.BaseURL = collector.DefaultBaseURL
	}
	if cfg.Source.XSymbol == "" {
		cfg.Source.XSymbol = "USD"
	}
	if cfg.Source.YSymbol == "" {
		cfg.Source.YSymbol = "TRY"
	}
	if cfg.Source.TimeoutMS == 0 {
		cfg.Source.TimeoutMS = 20000
	}
	if cfg.Query.Mode == "" {
		cfg.Query.Mode = collector.ModeSingle
	}
	cfg.Query.Mode = strings.ToLower(cfg.Query.Mode)
	if cfg.Query.Year == 0 {
		cfg.Query.Year = 2016
	}
	if cfg.Query.Day == 0 {
		cfg.Query.Day = 15
	}
	if cfg.Query.FromDay == 0 {
		cfg.Query.FromDay = 10
	}
	if cfg.Query.ToDay == 0 {
		cfg.Query.ToDay = 20
	}
	if cfg.Probe.Address == "" && !cfg.Probe.Disabled {
		cfg.Probe.Address = probeAddress(cfg.Source.BaseURL)
	}
	if cfg.Probe.TimeoutMS == 0 {
		cfg.Probe.TimeoutMS = 3000
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 0 9 * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/rate_projector.db"
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}

	return cfg, nil
}

// Validate checks that the fields needed for a projection run are usable.
func (c *Config) Validate() error {
	if c.Source.XSymbol == "" || c.Source.YSymbol == "" {
		return fmt.Errorf("source.x_symbol and source.y_symbol are required")
	}
	if strings.EqualFold(c.Source.XSymbol, c.Source.YSymbol) {
		return fmt.Errorf("source.x_symbol and source.y_symbol must differ, both are %q", c.Source.XSymbol)
	}
	if c.Source.TimeoutMS <= 0 {
		return fmt.Errorf("source.timeout_ms must be positive")
	}
	if math.IsNaN(c.Query.Point) || math.IsInf(c.Query.Point, 0) {
		return fmt.Errorf("query.point must be a finite number, got %v", c.Query.Point)
	}
	if err := c.Plan().Validate(); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Plan returns the query plan described by the config.
func (c *Config) Plan() collector.Plan {
	return collector.Plan{
		Mode:    c.Query.Mode,
		Year:    c.Query.Year,
		Day:     c.Query.Day,
		FromDay: c.Query.FromDay,
		ToDay:   c.Query.ToDay,
	}
}

// RequestTimeout is the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutMS) * time.Millisecond
}

// ProbeTimeout is the connectivity probe dial timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutMS) * time.Millisecond
}

// TelegramEnabled reports whether notifications should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// probeAddress derives host:port from the rates base URL.
func probeAddress(baseURL string) string {
	rest := baseURL
	port := "443"
	switch {
	case strings.HasPrefix(rest, "https://"):
		rest = strings.TrimPrefix(rest, "https://")
	case strings.HasPrefix(rest, "http://"):
		rest = strings.TrimPrefix(rest, "http://")
		port = "80"
	default:
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return ""
	}
	if strings.Contains(rest, ":") {
		return rest
	}
	return rest + ":" + port
}
