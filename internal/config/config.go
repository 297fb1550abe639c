package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so intervals can be written as "30m" or
// "24h" in yaml.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete configuration for the pipeline runner.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Retention RetentionConfig `yaml:"retention"`
	Taxi      TaxiConfig      `yaml:"taxi"`
	Stocks    StocksConfig    `yaml:"stocks"`
}

// DatabaseConfig holds the CrateDB connection settings. CrateDB speaks the
// Postgres wire protocol, so the DSN is a regular postgres:// URL.
type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	MaxConnections int32  `yaml:"max_connections"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RetentionConfig configures the partition retention pipeline.
type RetentionConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval Duration      `yaml:"interval"`
}

// TaxiConfig configures the NYC taxi ingestion pipeline. FilterExpr is a CEL
// expression over the string variable "url"; only matching manifest entries
// are ingested.
type TaxiConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Interval    Duration      `yaml:"interval"`
	ManifestURL string        `yaml:"manifest_url"`
	FilterExpr  string        `yaml:"filter_expr"`
}

// StocksConfig configures the S&P 500 ingestion pipeline. StartDate
// (YYYY-MM-DD) pins the beginning of the fetched series; when empty, each
// run looks back LookbackDays from now.
type StocksConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      Duration      `yaml:"interval"`
	TickerPageURL string        `yaml:"ticker_page_url"`
	ChartBaseURL  string        `yaml:"chart_base_url"`
	StartDate     string        `yaml:"start_date"`
	LookbackDays  int           `yaml:"lookback_days"`
}

const (
	defaultManifestURL   = "https://raw.githubusercontent.com/toddwschneider/nyc-taxi-data/master/setup_files/raw_data_urls.txt"
	defaultFilterExpr    = `url.contains("yellow")`
	defaultTickerPageURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"
	defaultChartBaseURL  = "https://query1.finance.yahoo.com"
)

// Load reads the yaml configuration at path, applies defaults and the
// CRATEDB_DSN environment override, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if dsn := os.Getenv("CRATEDB_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.MaxConnections <= 0 {
		c.Database.MaxConnections = 4
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Retention.Interval <= 0 {
		c.Retention.Interval = Duration(24 * time.Hour)
	}
	if c.Taxi.Interval <= 0 {
		c.Taxi.Interval = Duration(24 * time.Hour)
	}
	if c.Taxi.ManifestURL == "" {
		c.Taxi.ManifestURL = defaultManifestURL
	}
	if c.Taxi.FilterExpr == "" {
		c.Taxi.FilterExpr = defaultFilterExpr
	}
	if c.Stocks.Interval <= 0 {
		c.Stocks.Interval = Duration(24 * time.Hour)
	}
	if c.Stocks.TickerPageURL == "" {
		c.Stocks.TickerPageURL = defaultTickerPageURL
	}
	if c.Stocks.ChartBaseURL == "" {
		c.Stocks.ChartBaseURL = defaultChartBaseURL
	}
	if c.Stocks.LookbackDays <= 0 {
		c.Stocks.LookbackDays = 7
	}
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required (or set CRATEDB_DSN)")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug|info|warn|error, got %q", c.Logging.Level)
	}
	if c.Stocks.StartDate != "" {
		if _, err := time.Parse("2006-01-02", c.Stocks.StartDate); err != nil {
			return fmt.Errorf("stocks.start_date: %w", err)
		}
	}
	return nil
}

// StocksStart resolves the beginning of the fetched series for a run
// starting at now.
func (c *Config) StocksStart(now time.Time) time.Time {
	if c.Stocks.StartDate != "" {
		start, err := time.Parse("2006-01-02", c.Stocks.StartDate)
		if err == nil {
			return start
		}
	}
	return now.AddDate(0, 0, -c.Stocks.LookbackDays)
}
