package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGStore reads due policies from and applies actions to CrateDB.
type PGStore struct {
	pool pgQuerier
}

func NewPGStore(pool pgQuerier) *PGStore {
	return &PGStore{pool: pool}
}

// policyQuery joins the policy table against the partitions that actually
// exist. The ascending sort on the partition value is load-bearing: the
// tracking update written for reallocations overwrites unconditionally.
const policyQuery = `
SELECT r.table_schema,
       r.table_name,
       r.table_schema || '.' || r.table_name,
       r.partition_column,
       p.values[r.partition_column],
       r.strategy,
       r.reallocation_attribute_name,
       r.reallocation_attribute_value
FROM information_schema.table_partitions p
JOIN doc.retention_policies r
  ON p.table_schema = r.table_schema
 AND p.table_name = r.table_name
WHERE p.values[r.partition_column] < $1::TIMESTAMP - r.retention_period_days * 24 * 60 * 60 * 1000
ORDER BY 5 ASC`

func (s *PGStore) FetchDuePolicies(ctx context.Context, cutoff time.Time) ([]Policy, error) {
	rows, err := s.pool.Query(ctx, policyQuery, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("query retention policies: %w", err)
	}
	defer rows.Close()

	var policies []Policy
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read policy row: %w", err)
		}
		p, err := MapPolicy(values)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retention policies: %w", err)
	}
	return policies, nil
}

func (s *PGStore) Execute(ctx context.Context, action Action) error {
	if _, err := s.pool.Exec(ctx, action.SQL, action.Args...); err != nil {
		return fmt.Errorf("%s %s: %w", action.Kind, action.TableFQN, err)
	}
	return nil
}
