package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := writeConfig(t, "database: [")
		if _, err := Load(path); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("missing dsn", func(t *testing.T) {
		path := writeConfig(t, "metrics:\n  enabled: true\n")
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "database.dsn") {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		path := writeConfig(t, "database:\n  dsn: postgres://crate@localhost:5432/doc\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Database.MaxConnections != 4 {
			t.Fatalf("max_connections=%d", cfg.Database.MaxConnections)
		}
		if cfg.Metrics.ListenAddr != ":9090" {
			t.Fatalf("listen_addr=%q", cfg.Metrics.ListenAddr)
		}
		if cfg.Logging.Level != "info" {
			t.Fatalf("level=%q", cfg.Logging.Level)
		}
		if cfg.Retention.Interval.Std() != 24*time.Hour {
			t.Fatalf("retention interval=%v", cfg.Retention.Interval)
		}
		if cfg.Taxi.FilterExpr != `url.contains("yellow")` {
			t.Fatalf("filter_expr=%q", cfg.Taxi.FilterExpr)
		}
		if cfg.Stocks.ChartBaseURL != "https://query1.finance.yahoo.com" {
			t.Fatalf("chart_base_url=%q", cfg.Stocks.ChartBaseURL)
		}
		if cfg.Stocks.LookbackDays != 7 {
			t.Fatalf("lookback_days=%d", cfg.Stocks.LookbackDays)
		}
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv("CRATEDB_DSN", "postgres://crate@db:5432/doc")
		path := writeConfig(t, "database:\n  dsn: postgres://other\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Database.DSN != "postgres://crate@db:5432/doc" {
			t.Fatalf("dsn=%q", cfg.Database.DSN)
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeConfig(t, "database:\n  dsn: postgres://c\ntaxi:\n  interval: soon\n")
		if _, err := Load(path); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("bad level", func(t *testing.T) {
		path := writeConfig(t, "database:\n  dsn: postgres://c\nlogging:\n  level: loud\n")
		if _, err := Load(path); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("bad start date", func(t *testing.T) {
		path := writeConfig(t, "database:\n  dsn: postgres://c\nstocks:\n  start_date: 01/02/2022\n")
		if _, err := Load(path); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("explicit values kept", func(t *testing.T) {
		path := writeConfig(t, `
database:
  dsn: postgres://c
  max_connections: 10
retention:
  enabled: true
  interval: 1h
taxi:
  filter_expr: url.contains("green")
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Database.MaxConnections != 10 {
			t.Fatalf("max_connections=%d", cfg.Database.MaxConnections)
		}
		if !cfg.Retention.Enabled || cfg.Retention.Interval.Std() != time.Hour {
			t.Fatalf("retention=%+v", cfg.Retention)
		}
		if cfg.Taxi.FilterExpr != `url.contains("green")` {
			t.Fatalf("filter_expr=%q", cfg.Taxi.FilterExpr)
		}
	})
}

func TestStocksStart(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	cfg := &Config{}
	cfg.applyDefaults()
	if got := cfg.StocksStart(now); !got.Equal(now.AddDate(0, 0, -7)) {
		t.Fatalf("got=%v", got)
	}

	cfg.Stocks.StartDate = "2022-01-10"
	want := time.Date(2022, 1, 10, 0, 0, 0, 0, time.UTC)
	if got := cfg.StocksStart(now); !got.Equal(want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}
