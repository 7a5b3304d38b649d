package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/tagsearch/tagsearch/tagsearch/storage/sqlbuilder"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// ScanHints disables specific planner scan strategies for exactly one
// execution. The adapter must revert them on every exit path so they never
// leak into unrelated queries on the same session.
type ScanHints struct {
	// DisableSeqScan and DisableIndexScan together force the bitmap path
	// driven by the tag-membership index.
	DisableSeqScan   bool
	DisableIndexScan bool
}

// ForceBitmapScan is the hint set used for small searches, where the
// generic planner systematically misjudges tag selectivity.
var ForceBitmapScan = ScanHints{DisableSeqScan: true, DisableIndexScan: true}

// Querier is the query surface available inside a hinted execution. Both
// *sql.DB and *sql.Tx satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Adapter abstracts database-specific operations. The engine never emits
// backend-specific SQL text outside an adapter.
type Adapter interface {
	Backend() Backend
	PlaceholderStyle() sqlbuilder.PlaceholderStyle

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error

	CreateSchema(ctx context.Context, db *sql.DB) error

	// EstimateTotalRows returns the backend's pre-aggregated posts row
	// estimate. ok=false when the backend keeps no such statistic.
	EstimateTotalRows(ctx context.Context, db *sql.DB) (int64, bool)

	// EstimateQueryRows derives a row estimate from the backend's query
	// planning statistics without executing the query.
	EstimateQueryRows(ctx context.Context, db *sql.DB, query string, args []any) (int64, bool)

	// CountWithTimeout runs an exact count bounded by timeout. A timeout is
	// not an error: it returns ok=false.
	CountWithTimeout(ctx context.Context, db *sql.DB, query string, args []any, timeout time.Duration) (int64, bool, error)

	// WithScanHints runs fn with the hints applied, scoped to exactly that
	// execution and reverted afterward even on error.
	WithScanHints(ctx context.Context, db *sql.DB, hints ScanHints, fn func(q Querier) error) error
}
