package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cratedb/pipelines/internal/config"
	"github.com/cratedb/pipelines/internal/metrics"
	"github.com/cratedb/pipelines/internal/retention"
	"github.com/cratedb/pipelines/internal/runid"
	"github.com/cratedb/pipelines/internal/stocks"
	"github.com/cratedb/pipelines/internal/taxi"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.Retention.Enabled && !cfg.Taxi.Enabled && !cfg.Stocks.Enabled {
		logger.Fatal("no pipeline enabled in config")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("invalid database dsn", zap.Error(err))
	}
	poolCfg.MaxConns = cfg.Database.MaxConnections
	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		logger.Fatal("connect to cratedb", zap.Error(err))
	}
	defer pool.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
		go func() {
			logger.Info("metrics listening", zap.String("addr", cfg.Metrics.ListenAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener failed", zap.Error(err))
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Retention.Enabled {
		store := retention.NewPGStore(pool)
		go runPoller(ctx, "retention", cfg.Retention.Interval.Std(), logger, m, func(ctx context.Context, lg *zap.Logger) error {
			return retention.Run(ctx, store, time.Now().UTC(), lg, m)
		})
	}

	if cfg.Taxi.Enabled {
		filter, err := taxi.NewFilter(cfg.Taxi.FilterExpr)
		if err != nil {
			logger.Fatal("invalid taxi filter expression", zap.Error(err))
		}
		manifest := taxi.NewManifestClient(cfg.Taxi.ManifestURL, nil)
		store := taxi.NewPGStore(pool)
		go runPoller(ctx, "taxi", cfg.Taxi.Interval.Std(), logger, m, func(ctx context.Context, lg *zap.Logger) error {
			return taxi.Run(ctx, manifest, filter, store, lg, m)
		})
	}

	if cfg.Stocks.Enabled {
		tickers := &stocks.WikipediaTickerSource{PageURL: cfg.Stocks.TickerPageURL}
		charts := stocks.NewChartClient(cfg.Stocks.ChartBaseURL, nil)
		store := stocks.NewPGStore(pool)
		go runPoller(ctx, "stocks", cfg.Stocks.Interval.Std(), logger, m, func(ctx context.Context, lg *zap.Logger) error {
			now := time.Now().UTC()
			return stocks.Run(ctx, tickers, charts, store, cfg.StocksStart(now), now, lg, m)
		})
	}

	<-ctx.Done()
	logger.Info("shutting down")
}

// runPoller runs the pipeline once immediately, then on every tick until
// the context is cancelled. Every run gets its own id in the logs.
func runPoller(ctx context.Context, name string, interval time.Duration, logger *zap.Logger, m *metrics.Metrics, run func(context.Context, *zap.Logger) error) {
	runOnce := func() {
		lg := logger.With(zap.String("pipeline", name), zap.String("run_id", runid.New()))
		start := time.Now()
		err := run(ctx, lg)
		m.ObserveRun(name, time.Since(start), err)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			lg.Error("pipeline run failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
			return
		}
		lg.Info("pipeline run complete", zap.Duration("duration", time.Since(start)))
	}

	runOnce()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}
