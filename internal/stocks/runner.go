package stocks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cratedb/pipelines/internal/metrics"
)

type Store interface {
	UpsertQuotes(ctx context.Context, rows []QuoteRow) error
}

type TickerSource interface {
	Tickers(ctx context.Context) ([]string, error)
}

type QuoteSource interface {
	AdjustedClose(ctx context.Context, ticker string, start, end time.Time) (Series, error)
}

// Run fetches the current constituents, downloads each ticker's
// adjusted-close series for [start, end] and upserts the resulting rows in
// one batch. A single ticker's fetch failure is logged and skipped.
func Run(ctx context.Context, tickers TickerSource, quotes QuoteSource, store Store, start, end time.Time, logger *zap.Logger, m *metrics.Metrics) error {
	symbols, err := tickers.Tickers(ctx)
	if err != nil {
		return fmt.Errorf("fetch tickers: %w", err)
	}
	logger.Info("fetched constituents", zap.Int("tickers", len(symbols)))

	var series []Series
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := quotes.AdjustedClose(ctx, symbol, start, end)
		if err != nil {
			logger.Warn("skipping ticker", zap.String("ticker", symbol), zap.Error(err))
			continue
		}
		series = append(series, s)
	}

	rows, skipped := PrepareRows(series, logger)
	m.QuoteRowsSkipped(skipped)

	if err := store.UpsertQuotes(ctx, rows); err != nil {
		return err
	}
	m.QuoteRowsUpserted(len(rows))
	logger.Info("quotes upserted", zap.Int("rows", len(rows)), zap.Int("skipped", skipped))
	return nil
}
