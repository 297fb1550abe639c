package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
)

func main() {
	if len(os.Args) < 2 {
		fatalf("usage: dbtool <setup> [args]")
	}

	switch os.Args[1] {
	case "setup":
		setup(os.Args[2:])
	default:
		fatalf("unknown subcommand: %s", os.Args[1])
	}
}

// setupStatements creates everything the pipelines expect. All statements
// are idempotent so setup can be re-run.
var setupStatements = []string{
	`CREATE TABLE IF NOT EXISTS doc.retention_policies (
  table_schema TEXT,
  table_name TEXT,
  partition_column TEXT NOT NULL,
  retention_period_days INTEGER NOT NULL,
  strategy TEXT NOT NULL,
  reallocation_attribute_name TEXT,
  reallocation_attribute_value TEXT,
  PRIMARY KEY (table_schema, table_name)
) CLUSTERED INTO 1 SHARDS`,
	`CREATE TABLE IF NOT EXISTS doc.retention_tracking (
  table_schema TEXT,
  table_name TEXT,
  last_partition_value BIGINT,
  PRIMARY KEY (table_schema, table_name)
) CLUSTERED INTO 1 SHARDS`,
	`CREATE TABLE IF NOT EXISTS nyc_taxi.load_files_processed (
  file_name TEXT PRIMARY KEY
) CLUSTERED INTO 1 SHARDS`,
	`CREATE TABLE IF NOT EXISTS nyc_taxi.load_trips_staging (
  vendor_id TEXT,
  pickup_datetime TEXT,
  dropoff_datetime TEXT,
  passenger_count TEXT,
  trip_distance TEXT,
  rate_code_id TEXT,
  store_and_fwd_flag TEXT,
  pickup_location_id TEXT,
  dropoff_location_id TEXT,
  payment_type TEXT,
  fare_amount TEXT,
  extra TEXT,
  mta_tax TEXT,
  tip_amount TEXT,
  tolls_amount TEXT,
  improvement_surcharge TEXT,
  total_amount TEXT,
  congestion_surcharge TEXT
)`,
	`CREATE TABLE IF NOT EXISTS nyc_taxi.trips (
  vendor_id TEXT,
  pickup_datetime TIMESTAMP WITH TIME ZONE,
  dropoff_datetime TIMESTAMP WITH TIME ZONE,
  passenger_count INTEGER,
  trip_distance REAL,
  rate_code_id INTEGER,
  store_and_fwd_flag TEXT,
  pickup_location_id INTEGER,
  dropoff_location_id INTEGER,
  payment_type INTEGER,
  fare_amount REAL,
  extra REAL,
  mta_tax REAL,
  tip_amount REAL,
  tolls_amount REAL,
  improvement_surcharge REAL,
  total_amount REAL,
  congestion_surcharge REAL,
  pickup_month TIMESTAMP WITH TIME ZONE GENERATED ALWAYS AS date_trunc('month', pickup_datetime)
) PARTITIONED BY (pickup_month)`,
	`CREATE TABLE IF NOT EXISTS doc.sp500 (
  closing_date TIMESTAMP WITH TIME ZONE,
  ticker TEXT,
  adjusted_close DOUBLE PRECISION,
  PRIMARY KEY (closing_date, ticker)
)`,
}

func setup(args []string) {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var url string
	fs.StringVar(&url, "url", os.Getenv("CRATEDB_DSN"), "cratedb connection string")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if url == "" {
		fatalf("missing --url (or CRATEDB_DSN)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		fatal(err)
	}
	defer conn.Close(context.Background())

	for _, stmt := range setupStatements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			fatalf("setup: %v\nstatement:\n%s", err, stmt)
		}
	}
	fmt.Println("schema ready")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
