package taxi

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cratedb/pipelines/internal/metrics"
)

type Store interface {
	ProcessedFiles(ctx context.Context) ([]string, error)
	PurgeStaging(ctx context.Context) error
	IngestFile(ctx context.Context, url string) error
}

type ManifestFetcher interface {
	FetchURLs(ctx context.Context) ([]string, error)
}

// Run ingests every manifest file that matches the filter and has not been
// processed yet. Staging is purged up front in case an earlier run aborted
// between COPY and cleanup. A single file's failure is logged and skipped;
// the file stays unmarked and is retried on the next run.
func Run(ctx context.Context, manifest ManifestFetcher, filter *Filter, store Store, logger *zap.Logger, m *metrics.Metrics) error {
	if err := store.PurgeStaging(ctx); err != nil {
		return err
	}

	urls, err := manifest.FetchURLs(ctx)
	if err != nil {
		return fmt.Errorf("fetch manifest: %w", err)
	}
	available, err := filter.Apply(urls)
	if err != nil {
		return err
	}

	processed, err := store.ProcessedFiles(ctx)
	if err != nil {
		return err
	}

	missing := MissingFiles(available, processed)
	logger.Info("resolved files to ingest",
		zap.Int("available", len(available)),
		zap.Int("processed", len(processed)),
		zap.Int("missing", len(missing)))

	for _, url := range missing {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := store.IngestFile(ctx, url); err != nil {
			logger.Error("file ingestion failed", zap.String("url", url), zap.Error(err))
			m.TaxiFileFailed()
			continue
		}
		logger.Info("file ingested", zap.String("url", url))
		m.TaxiFileIngested()
	}
	return nil
}
