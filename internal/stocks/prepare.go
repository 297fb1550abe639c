package stocks

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// QuoteRow is one row of the sp500 table.
type QuoteRow struct {
	ClosingDate time.Time
	Ticker      string
	AdjClose    float64
}

// PrepareRows flattens the fetched series into insertable rows. Points with
// a missing or NaN close are logged and skipped; skipped reports how many.
func PrepareRows(series []Series, logger *zap.Logger) (rows []QuoteRow, skipped int) {
	for _, s := range series {
		for _, p := range s.Points {
			if p.AdjClose == nil || math.IsNaN(*p.AdjClose) {
				skipped++
				logger.Info("skipping point with invalid adjusted close",
					zap.String("ticker", s.Ticker),
					zap.Int64("timestamp", p.Timestamp))
				continue
			}
			rows = append(rows, QuoteRow{
				ClosingDate: time.Unix(p.Timestamp, 0).UTC(),
				Ticker:      s.Ticker,
				AdjClose:    *p.AdjClose,
			})
		}
	}
	return rows, skipped
}
