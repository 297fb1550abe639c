package retention

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cratedb/pipelines/internal/metrics"
)

type Store interface {
	FetchDuePolicies(ctx context.Context, cutoff time.Time) ([]Policy, error)
	Execute(ctx context.Context, action Action) error
}

// Run fetches all policies due at cutoff and applies them in order. One
// record's failure never aborts the batch: its remaining actions are skipped
// (a tracking update must not record a move that did not happen) and
// processing continues with the next record. Only a fetch failure is
// returned as an error.
func Run(ctx context.Context, store Store, cutoff time.Time, logger *zap.Logger, m *metrics.Metrics) error {
	policies, err := store.FetchDuePolicies(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("fetch retention policies: %w", err)
	}

	for _, p := range policies {
		actions := PlanPolicy(p, logger)
		if len(actions) == 0 {
			m.RetentionSkipped()
			continue
		}
		for _, a := range actions {
			if err := store.Execute(ctx, a); err != nil {
				logger.Error("retention action failed",
					zap.String("kind", string(a.Kind)),
					zap.String("table", a.TableFQN),
					zap.String("column", a.ColumnName),
					zap.Any("value", a.Value),
					zap.Error(err))
				break
			}
			m.RetentionAction(string(a.Kind))
			logger.Info("applied retention action",
				zap.String("kind", string(a.Kind)),
				zap.String("table", a.TableFQN),
				zap.String("column", a.ColumnName),
				zap.Any("value", a.Value))
		}
	}
	return nil
}
