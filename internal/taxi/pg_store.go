package taxi

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGStore runs the ingestion SQL against CrateDB. Files land in a staging
// table first so a malformed CSV never reaches the permanent table.
type PGStore struct {
	pool pgQuerier
}

func NewPGStore(pool pgQuerier) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) ProcessedFiles(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT file_name FROM nyc_taxi.load_files_processed`)
	if err != nil {
		return nil, fmt.Errorf("query processed files: %w", err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan processed file: %w", err)
		}
		files = append(files, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed files: %w", err)
	}
	return files, nil
}

func (s *PGStore) PurgeStaging(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM nyc_taxi.load_trips_staging`); err != nil {
		return fmt.Errorf("purge staging: %w", err)
	}
	return nil
}

// insertTripsSQL moves staged rows into the permanent table, casting the
// CSV text columns to their typed counterparts.
const insertTripsSQL = `
INSERT INTO nyc_taxi.trips (
  vendor_id, pickup_datetime, dropoff_datetime, passenger_count,
  trip_distance, rate_code_id, store_and_fwd_flag, pickup_location_id,
  dropoff_location_id, payment_type, fare_amount, extra, mta_tax,
  tip_amount, tolls_amount, improvement_surcharge, total_amount,
  congestion_surcharge
)
SELECT vendor_id,
       pickup_datetime::TIMESTAMP,
       dropoff_datetime::TIMESTAMP,
       passenger_count::INTEGER,
       trip_distance::REAL,
       rate_code_id::INTEGER,
       store_and_fwd_flag,
       pickup_location_id::INTEGER,
       dropoff_location_id::INTEGER,
       payment_type::INTEGER,
       fare_amount::REAL,
       extra::REAL,
       mta_tax::REAL,
       tip_amount::REAL,
       tolls_amount::REAL,
       improvement_surcharge::REAL,
       total_amount::REAL,
       congestion_surcharge::REAL
FROM nyc_taxi.load_trips_staging`

// IngestFile runs the full per-file sequence: COPY into staging, move into
// the permanent table, mark the file processed, purge staging. COPY FROM
// takes its source as part of the statement text, so the URL is rendered as
// an escaped literal; everything else is bound.
func (s *PGStore) IngestFile(ctx context.Context, url string) error {
	copySQL := fmt.Sprintf(
		`COPY nyc_taxi.load_trips_staging FROM %s WITH (format = 'csv', empty_string_as_null = true)`,
		quoteLiteral(url))
	if _, err := s.pool.Exec(ctx, copySQL); err != nil {
		return fmt.Errorf("copy %s into staging: %w", url, err)
	}

	if _, err := s.pool.Exec(ctx, insertTripsSQL); err != nil {
		return fmt.Errorf("insert trips from staging: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `INSERT INTO nyc_taxi.load_files_processed (file_name) VALUES ($1)`, url); err != nil {
		return fmt.Errorf("mark %s processed: %w", url, err)
	}

	return s.PurgeStaging(ctx)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
