package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/tagsearch/tagsearch/tagsearch/storage"
	"github.com/tagsearch/tagsearch/tagsearch/storage/sqlbuilder"
)

type Adapter struct {
	DSN string
}

func New(dsn string) *Adapter {
	return &Adapter{DSN: dsn}
}

func (a *Adapter) Backend() storage.Backend { return storage.BackendPostgres }

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle { return sqlbuilder.PlaceholderDollar }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, err
	}
	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) CreateSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, ddlBase)
	return err
}

// EstimateTotalRows reads the planner's maintained posts row estimate.
func (a *Adapter) EstimateTotalRows(ctx context.Context, db *sql.DB) (int64, bool) {
	var n sql.NullInt64
	err := db.QueryRowContext(ctx,
		"SELECT reltuples::bigint FROM pg_class WHERE relname = 'posts'").Scan(&n)
	if err != nil || !n.Valid || n.Int64 < 0 {
		return 0, false
	}
	return n.Int64, true
}

type explainPlan struct {
	Plan struct {
		PlanRows float64 `json:"Plan Rows"`
	} `json:"Plan"`
}

// EstimateQueryRows derives a row estimate from EXPLAIN output without
// executing the query.
func (a *Adapter) EstimateQueryRows(ctx context.Context, db *sql.DB, query string, args []any) (int64, bool) {
	var doc string
	err := db.QueryRowContext(ctx, "EXPLAIN (FORMAT JSON) "+query, args...).Scan(&doc)
	if err != nil {
		return 0, false
	}
	var plans []explainPlan
	if err := json.Unmarshal([]byte(doc), &plans); err != nil || len(plans) == 0 {
		return 0, false
	}
	return int64(plans[0].Plan.PlanRows), true
}

// CountWithTimeout runs an exact count under a statement timeout scoped to
// one transaction. Hitting the timeout degrades to ok=false, not an error.
func (a *Adapter) CountWithTimeout(ctx context.Context, db *sql.DB, query string, args []any, timeout time.Duration) (int64, bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", timeout.Milliseconds())); err != nil {
		return 0, false, err
	}
	var count int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		if isTimeout(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// WithScanHints applies session planner directives inside one transaction.
// SET LOCAL reverts with the transaction on every exit path, so directives
// cannot leak into other queries sharing the pool.
func (a *Adapter) WithScanHints(ctx context.Context, db *sql.DB, hints storage.ScanHints, fn func(q storage.Querier) error) error {
	if !hints.DisableSeqScan && !hints.DisableIndexScan {
		return fn(db)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if hints.DisableSeqScan {
		if _, err := tx.ExecContext(ctx, "SET LOCAL enable_seqscan = off"); err != nil {
			return err
		}
	}
	if hints.DisableIndexScan {
		if _, err := tx.ExecContext(ctx, "SET LOCAL enable_indexscan = off"); err != nil {
			return err
		}
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// isTimeout matches query_canceled (57014), which SET LOCAL
// statement_timeout raises.
func isTimeout(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "57014"
	}
	return errors.Is(err, context.DeadlineExceeded)
}
