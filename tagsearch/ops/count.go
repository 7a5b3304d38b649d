package ops

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/tagsearch/tagsearch/tagsearch/planner"
	"github.com/tagsearch/tagsearch/tagsearch/query"
	"github.com/tagsearch/tagsearch/tagsearch/storage"
)

// Counter estimates result counts through a cascade of cheap sources and
// falls back to a time-boxed exact count. Counting never fails a search:
// an unanswerable count degrades to known=false.
type Counter struct {
	adapter storage.Adapter
	db      *sql.DB
	store   *Store
	cache   *countCache
}

func NewCounter(adapter storage.Adapter, db *sql.DB, store *Store, cacheSize int, cacheTTL time.Duration) *Counter {
	return &Counter{
		adapter: adapter,
		db:      db,
		store:   store,
		cache:   newCountCache(cacheSize, cacheTTL),
	}
}

// CountRequest tunes one count invocation.
type CountRequest struct {
	// Exact bypasses the cache and the estimate cascade. The timeout still
	// applies; hitting it yields known=false.
	Exact bool

	// Timeout bounds the exact-count execution.
	Timeout time.Duration

	// Threshold is the estimated size above which a planner estimate is
	// reported directly instead of being verified by an exact count.
	Threshold int64
}

// Count resolves the result count for a compiled query.
func (c *Counter) Count(ctx context.Context, q *planner.CompiledQuery, uctx query.UserContext, req CountRequest) (int64, bool, error) {
	if q.ForcedEmpty {
		return 0, true, nil
	}

	key := c.cache.key(q.Canonical(), uctx.UserID, q.UserDependent)
	if req.Exact {
		return c.exactCount(ctx, q, key, req.Timeout)
	}
	if n, ok := c.cache.get(key); ok {
		return n, true, nil
	}
	if n, ok, err := c.fastCount(ctx, q, uctx); err != nil {
		return 0, false, err
	} else if ok {
		return n, true, nil
	}

	estimate, estimated := c.adapter.EstimateQueryRows(ctx, c.db, planner.BuildEstimateSQL(q), q.BaseArgs)
	if estimated && estimate > req.Threshold {
		return estimate, true, nil
	}

	n, known, err := c.exactCount(ctx, q, key, req.Timeout)
	if err != nil {
		return 0, false, err
	}
	if !known && estimated {
		return estimate, true, nil
	}
	return n, known, nil
}

// fastCount serves the whole-table and single-term shapes from maintained
// aggregates without touching the posts table.
func (c *Counter) fastCount(ctx context.Context, q *planner.CompiledQuery, uctx query.UserContext) (int64, bool, error) {
	if q.IsEmpty() {
		n, ok := c.adapter.EstimateTotalRows(ctx, c.db)
		return n, ok, nil
	}
	term, ok := q.SingleTerm()
	if !ok {
		return 0, false, nil
	}
	switch t := term.(type) {
	case query.TagTerm:
		if t.Negated || t.Optional || t.Wildcard {
			return 0, false, nil
		}
		return c.store.TagPostCount(ctx, t.Name)
	case query.MetatagTerm:
		if t.Negated {
			return 0, false, nil
		}
		switch t.Name {
		case "rating":
			// Ratings are weakly selective; the table estimate is close
			// enough to spare the scan.
			n, ok := c.adapter.EstimateTotalRows(ctx, c.db)
			return n, ok, nil
		case "pool", "ordpool":
			return c.store.PoolPostCount(ctx, t.Value)
		case "fav", "ordfav":
			return c.favCount(ctx, t.Value, uctx)
		}
	}
	return 0, false, nil
}

// favCount uses the maintained per-user favorite count, but only when the
// acting user may view those favorites; otherwise the generic path counts
// the impossible predicate to zero.
func (c *Counter) favCount(ctx context.Context, ref string, uctx query.UserContext) (int64, bool, error) {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		uid, found, lerr := c.store.LookupUserID(ctx, strings.ToLower(ref))
		if lerr != nil {
			return 0, false, lerr
		}
		if !found {
			return 0, true, nil
		}
		id = uid
	}
	if uctx.CanViewFavorites == nil || !uctx.CanViewFavorites(id) {
		return 0, false, nil
	}
	return c.store.UserFavCount(ctx, strconv.FormatInt(id, 10))
}

func (c *Counter) exactCount(ctx context.Context, q *planner.CompiledQuery, key uint64, timeout time.Duration) (int64, bool, error) {
	n, ok, err := c.adapter.CountWithTimeout(ctx, c.db, planner.BuildCountSQL(q), q.BaseArgs, timeout)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	c.cache.put(key, n)
	return n, true, nil
}
