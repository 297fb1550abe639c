package stocks

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type pgBatcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PGStore writes quote rows to CrateDB.
type PGStore struct {
	pool pgBatcher
}

func NewPGStore(pool pgBatcher) *PGStore {
	return &PGStore{pool: pool}
}

const upsertQuoteSQL = `INSERT INTO doc.sp500 (closing_date, ticker, adjusted_close)
VALUES ($1, $2, $3)
ON CONFLICT (closing_date, ticker) DO UPDATE SET adjusted_close = excluded.adjusted_close`

// UpsertQuotes writes all rows in one pipelined batch. Re-running a day is
// safe: an existing (closing_date, ticker) pair gets its close overwritten.
func (s *PGStore) UpsertQuotes(ctx context.Context, rows []QuoteRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(upsertQuoteSQL, r.ClosingDate, r.Ticker, r.AdjClose)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert quote %s@%s: %w", rows[i].Ticker, rows[i].ClosingDate.Format("2006-01-02"), err)
		}
	}
	return results.Close()
}
