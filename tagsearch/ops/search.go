package ops

import (
	"context"
	"database/sql"
	"errors"
	"time"

	tserrors "github.com/tagsearch/tagsearch/tagsearch/errors"
	"github.com/tagsearch/tagsearch/tagsearch/planner"
	"github.com/tagsearch/tagsearch/tagsearch/storage"
)

// Executor runs one compiled query page. For id-ordered searches it picks a
// scan strategy from the estimated result size: small searches force the
// tag-index bitmap path, whose cost the generic planner misjudges badly on
// selective tag combinations.
type Executor struct {
	adapter storage.Adapter
	db      *sql.DB
}

func NewExecutor(adapter storage.Adapter, db *sql.DB) *Executor {
	return &Executor{adapter: adapter, db: db}
}

// PageRequest carries pagination and the sizing inputs of the scan
// strategy decision.
type PageRequest struct {
	Limit  int
	Offset int

	// EstimatedCount and EstimateKnown feed the strategy choice; they come
	// from the same count cascade that produced the reported total.
	EstimatedCount int64
	EstimateKnown  bool

	// FirstScanTimeout bounds the optimistic first execution when the
	// estimate is unknown. On timeout the page is retried exactly once
	// under forced hints.
	FirstScanTimeout time.Duration

	// SmallSearchThreshold is the estimate at or under which the forced
	// path is taken directly.
	SmallSearchThreshold int64
}

// FetchPage executes the page SELECT and returns the rows plus the SQL
// text that ran, for explain output.
func (e *Executor) FetchPage(ctx context.Context, q *planner.CompiledQuery, req PageRequest) ([]Post, string, error) {
	sqlText := planner.BuildSearchSQL(q, req.Limit, req.Offset)
	if q.ForcedEmpty {
		return nil, sqlText, nil
	}

	if !q.Order.DefaultID {
		posts, err := e.run(ctx, storage.ScanHints{}, sqlText, q.BaseArgs)
		return posts, sqlText, err
	}
	if req.EstimateKnown {
		hints := storage.ScanHints{}
		if req.EstimatedCount <= req.SmallSearchThreshold {
			hints = storage.ForceBitmapScan
		}
		posts, err := e.run(ctx, hints, sqlText, q.BaseArgs)
		return posts, sqlText, err
	}

	// Unknown size: try the generic plan under a deadline, then retry once
	// with forced hints. Two attempts at most.
	fctx, cancel := context.WithTimeout(ctx, req.FirstScanTimeout)
	posts, err := e.run(fctx, storage.ScanHints{}, sqlText, q.BaseArgs)
	cancel()
	if err == nil {
		return posts, sqlText, nil
	}
	if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return nil, sqlText, err
	}
	posts, err = e.run(ctx, storage.ForceBitmapScan, sqlText, q.BaseArgs)
	return posts, sqlText, err
}

func (e *Executor) run(ctx context.Context, hints storage.ScanHints, sqlText string, args []any) ([]Post, error) {
	var posts []Post
	err := e.adapter.WithScanHints(ctx, e.db, hints, func(qr storage.Querier) error {
		rows, err := qr.QueryContext(ctx, sqlText, args...)
		if err != nil {
			return tserrors.Wrap(tserrors.SQL, "execute search", err)
		}
		posts, err = scanPosts(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}
