package tagsearch

import (
	"context"
	"database/sql"
	"time"

	tserrors "github.com/tagsearch/tagsearch/tagsearch/errors"
	"github.com/tagsearch/tagsearch/tagsearch/ops"
	"github.com/tagsearch/tagsearch/tagsearch/planner"
	"github.com/tagsearch/tagsearch/tagsearch/query"
	"github.com/tagsearch/tagsearch/tagsearch/storage"
)

// Engine ties the query pipeline to one storage backend: scan, normalize,
// compile, count, execute.
type Engine struct {
	adapter storage.Adapter
	db      *sql.DB
	store   *ops.Store
	counter *ops.Counter
	exec    *ops.Executor
	opts    EngineOptions
}

// Open connects the adapter and wires the pipeline. The caller owns the
// returned engine and must Close it.
func Open(ctx context.Context, adapter storage.Adapter, opts EngineOptions) (*Engine, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CountCacheSize == 0 {
		opts.CountCacheSize = DefaultCountCacheSize
	}
	if opts.CountCacheTTL == 0 {
		opts.CountCacheTTL = DefaultCountCacheTTL
	}

	db, err := adapter.Connect(ctx)
	if err != nil {
		return nil, tserrors.Wrap(tserrors.IO, "connect", err)
	}
	store := ops.NewStore(db, adapter.PlaceholderStyle())
	return &Engine{
		adapter: adapter,
		db:      db,
		store:   store,
		counter: ops.NewCounter(adapter, db, store, opts.CountCacheSize, opts.CountCacheTTL),
		exec:    ops.NewExecutor(adapter, db),
		opts:    opts,
	}, nil
}

func (e *Engine) Close() error {
	if err := e.db.Close(); err != nil {
		return err
	}
	return e.adapter.Close()
}

// DB exposes the underlying handle for ingestion and maintenance paths.
func (e *Engine) DB() *sql.DB { return e.db }

// Store exposes the reference-data write paths for seeding.
func (e *Engine) Store() *ops.Store { return e.store }

func (e *Engine) CreateSchema(ctx context.Context) error {
	if err := e.adapter.CreateSchema(ctx, e.db); err != nil {
		return tserrors.Wrap(tserrors.SQL, "create schema", err)
	}
	return nil
}

// Normalize returns the canonical serialization of a search string under
// the user's context: aliases applied, implicit filters injected, terms
// sorted and deduplicated.
func (e *Engine) Normalize(ctx context.Context, input string, uctx query.UserContext) (string, error) {
	terms, err := query.Normalize(ctx, query.Scan(input), uctx, e.store, query.NormalizeOptions{
		ApplyImplicit: true,
		ApplySort:     true,
	})
	if err != nil {
		return "", err
	}
	return query.Serialize(terms), nil
}

// Search runs one page of a search string.
func (e *Engine) Search(ctx context.Context, input string, uctx query.UserContext, opts SearchOptions) (*Result, error) {
	fillSearchDefaults(&opts)

	q, err := e.compile(ctx, input, uctx)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if q.Limit > 0 && q.Limit < limit {
		limit = q.Limit
	}
	offset := (opts.Page - 1) * limit

	total, known, err := e.counter.Count(ctx, q, uctx, ops.CountRequest{
		Exact:     opts.ExactCount,
		Timeout:   opts.CountTimeout,
		Threshold: opts.SmallSearchThreshold,
	})
	if err != nil {
		return nil, err
	}

	posts, sqlText, err := e.exec.FetchPage(ctx, q, ops.PageRequest{
		Limit:                limit,
		Offset:               offset,
		EstimatedCount:       total,
		EstimateKnown:        known,
		FirstScanTimeout:     opts.FirstScanTimeout,
		SmallSearchThreshold: opts.SmallSearchThreshold,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Posts: posts, Canonical: q.Canonical()}
	if known {
		res.Total = &total
	}
	if opts.Explain {
		res.ExplainSQL = sqlText
	}
	return res, nil
}

// Count resolves only the result count of a search string.
func (e *Engine) Count(ctx context.Context, input string, uctx query.UserContext, opts SearchOptions) (int64, bool, error) {
	fillSearchDefaults(&opts)
	q, err := e.compile(ctx, input, uctx)
	if err != nil {
		return 0, false, err
	}
	return e.counter.Count(ctx, q, uctx, ops.CountRequest{
		Exact:     opts.ExactCount,
		Timeout:   opts.CountTimeout,
		Threshold: opts.SmallSearchThreshold,
	})
}

func (e *Engine) compile(ctx context.Context, input string, uctx query.UserContext) (*planner.CompiledQuery, error) {
	if uctx.TagLimit == 0 {
		uctx.TagLimit = DefaultTagLimit
	}
	terms, err := query.Normalize(ctx, query.Scan(input), uctx, e.store, query.NormalizeOptions{
		ApplyImplicit: true,
		ApplySort:     true,
	})
	if err != nil {
		return nil, err
	}
	return planner.Compile(ctx, terms, uctx, planner.Deps{
		Tags:  e.store,
		Names: e.store,
		Saved: e.store,
		Now:   e.opts.Now(),
	}, e.adapter.PlaceholderStyle())
}

func fillSearchDefaults(opts *SearchOptions) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultPageLimit
	}
	if opts.Limit > MaxPageLimit {
		opts.Limit = MaxPageLimit
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.CountTimeout <= 0 {
		opts.CountTimeout = DefaultCountTimeout
	}
	if opts.FirstScanTimeout <= 0 {
		opts.FirstScanTimeout = DefaultFirstScanTimeout
	}
	if opts.SmallSearchThreshold <= 0 {
		opts.SmallSearchThreshold = DefaultSmallSearchThreshold
	}
}
