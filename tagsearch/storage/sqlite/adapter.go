package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/tagsearch/tagsearch/tagsearch/storage"
	"github.com/tagsearch/tagsearch/tagsearch/storage/sqlbuilder"
)

type Adapter struct {
	Path       string
	DriverName string
}

// New opens through the modernc driver, which needs no cgo. Registering it
// is the caller's import; cmd/tagsearch pulls it in by default.
func New(path string) *Adapter {
	return &Adapter{Path: path, DriverName: "sqlite"}
}

// NewWithDriver selects an alternate registered driver, e.g. "sqlite3" for
// mattn/go-sqlite3 builds.
func NewWithDriver(path, driver string) *Adapter {
	return &Adapter{Path: path, DriverName: driver}
}

func (a *Adapter) Backend() storage.Backend { return storage.BackendSQLite }

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle { return sqlbuilder.PlaceholderQuestion }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	dsn := a.Path
	// modernc and mattn spell their connection parameters differently.
	params := "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if a.DriverName == "sqlite3" {
		params = "_busy_timeout=5000&_foreign_keys=on"
	}
	if strings.Contains(dsn, "?") {
		dsn += "&" + params
	} else {
		dsn += "?" + params
	}
	db, err := sql.Open(a.DriverName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ddlBase); err != nil {
		return err
	}
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys=ON;")
	return nil
}

// SQLite keeps no maintained row estimates, so counting always falls
// through to the exact path.
func (a *Adapter) EstimateTotalRows(ctx context.Context, db *sql.DB) (int64, bool) {
	return 0, false
}

func (a *Adapter) EstimateQueryRows(ctx context.Context, db *sql.DB, query string, args []any) (int64, bool) {
	return 0, false
}

func (a *Adapter) CountWithTimeout(ctx context.Context, db *sql.DB, query string, args []any, timeout time.Duration) (int64, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var count int64
	if err := db.QueryRowContext(cctx, query, args...).Scan(&count); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return count, true, nil
}

// SQLite has no planner directives to toggle; hints are a no-op.
func (a *Adapter) WithScanHints(ctx context.Context, db *sql.DB, hints storage.ScanHints, fn func(q storage.Querier) error) error {
	return fn(db)
}
