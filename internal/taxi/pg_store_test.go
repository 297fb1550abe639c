package taxi

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgQuerierStub struct {
	queryFn func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFn  func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (p pgQuerierStub) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.queryFn(ctx, sql, args...)
}

func (p pgQuerierStub) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.execFn(ctx, sql, args...)
}

type fileRowsStub struct {
	pgx.Rows

	files []string
	idx   int
	err   error
}

func (r *fileRowsStub) Next() bool {
	if r.idx < len(r.files) {
		r.idx++
		return true
	}
	return false
}

func (r *fileRowsStub) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.files[r.idx-1]
	return nil
}

func (r *fileRowsStub) Err() error { return r.err }
func (r *fileRowsStub) Close()     {}

func TestPGStoreProcessedFiles(t *testing.T) {
	t.Run("query error", func(t *testing.T) {
		store := NewPGStore(pgQuerierStub{
			queryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
				return nil, errors.New("boom")
			},
		})
		if _, err := store.ProcessedFiles(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("scans all rows", func(t *testing.T) {
		store := NewPGStore(pgQuerierStub{
			queryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
				return &fileRowsStub{files: []string{"a.csv", "b.csv"}}, nil
			},
		})
		got, err := store.ProcessedFiles(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !equal(got, []string{"a.csv", "b.csv"}) {
			t.Fatalf("got=%v", got)
		}
	})

	t.Run("rows error", func(t *testing.T) {
		store := NewPGStore(pgQuerierStub{
			queryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
				return &fileRowsStub{err: errors.New("conn reset")}, nil
			},
		})
		if _, err := store.ProcessedFiles(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestPGStoreIngestFile(t *testing.T) {
	url := "https://x/yellow_tripdata_2021-01.csv"

	t.Run("runs the full sequence", func(t *testing.T) {
		var statements []string
		var markArgs []any
		store := NewPGStore(pgQuerierStub{
			execFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				statements = append(statements, sql)
				if strings.Contains(sql, "load_files_processed") {
					markArgs = args
				}
				return pgconn.CommandTag{}, nil
			},
		})
		if err := store.IngestFile(context.Background(), url); err != nil {
			t.Fatal(err)
		}
		if len(statements) != 4 {
			t.Fatalf("got %d statements", len(statements))
		}
		if !strings.HasPrefix(statements[0], "COPY nyc_taxi.load_trips_staging FROM '"+url+"'") {
			t.Fatalf("copy sql=%q", statements[0])
		}
		if !strings.Contains(statements[1], "INSERT INTO nyc_taxi.trips") {
			t.Fatalf("insert sql=%q", statements[1])
		}
		if len(markArgs) != 1 || markArgs[0] != url {
			t.Fatalf("mark args=%v", markArgs)
		}
		if !strings.Contains(statements[3], "DELETE FROM nyc_taxi.load_trips_staging") {
			t.Fatalf("purge sql=%q", statements[3])
		}
	})

	t.Run("url quoting", func(t *testing.T) {
		var copySQL string
		store := NewPGStore(pgQuerierStub{
			execFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				if copySQL == "" {
					copySQL = sql
				}
				return pgconn.CommandTag{}, nil
			},
		})
		if err := store.IngestFile(context.Background(), "https://x/o'brien.csv"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(copySQL, "'https://x/o''brien.csv'") {
			t.Fatalf("copy sql=%q", copySQL)
		}
	})

	t.Run("copy failure stops the sequence", func(t *testing.T) {
		calls := 0
		store := NewPGStore(pgQuerierStub{
			execFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				calls++
				return pgconn.CommandTag{}, errors.New("bad csv")
			},
		})
		if err := store.IngestFile(context.Background(), url); err == nil {
			t.Fatal("expected error")
		}
		if calls != 1 {
			t.Fatalf("calls=%d", calls)
		}
	})
}

func TestPGStorePurgeStaging(t *testing.T) {
	store := NewPGStore(pgQuerierStub{
		execFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, errors.New("boom")
		},
	})
	if err := store.PurgeStaging(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
