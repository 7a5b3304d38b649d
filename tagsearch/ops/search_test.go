package ops

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/tagsearch/tagsearch/tagsearch/planner"
	"github.com/tagsearch/tagsearch/tagsearch/query"
	"github.com/tagsearch/tagsearch/tagsearch/storage"
	"github.com/tagsearch/tagsearch/tagsearch/storage/sqlbuilder"
)

// fakeAdapter records the hints of every execution attempt and fails them
// from a scripted error list. A nil script entry succeeds without running
// the body, so no database is needed.
type fakeAdapter struct {
	hints []storage.ScanHints
	errs  []error
}

func (f *fakeAdapter) Backend() storage.Backend { return storage.BackendSQLite }

func (f *fakeAdapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle {
	return sqlbuilder.PlaceholderQuestion
}

func (f *fakeAdapter) Connect(ctx context.Context) (*sql.DB, error) { return nil, nil }

func (f *fakeAdapter) Close() error { return nil }

func (f *fakeAdapter) CreateSchema(ctx context.Context, db *sql.DB) error { return nil }

func (f *fakeAdapter) EstimateTotalRows(ctx context.Context, db *sql.DB) (int64, bool) {
	return 0, false
}

func (f *fakeAdapter) EstimateQueryRows(ctx context.Context, db *sql.DB, q string, args []any) (int64, bool) {
	return 0, false
}

func (f *fakeAdapter) CountWithTimeout(ctx context.Context, db *sql.DB, q string, args []any, timeout time.Duration) (int64, bool, error) {
	return 0, false, nil
}

func (f *fakeAdapter) WithScanHints(ctx context.Context, db *sql.DB, hints storage.ScanHints, fn func(q storage.Querier) error) error {
	attempt := len(f.hints)
	f.hints = append(f.hints, hints)
	if attempt < len(f.errs) && f.errs[attempt] != nil {
		return f.errs[attempt]
	}
	return nil
}

func compileForFetch(t *testing.T, input string) *planner.CompiledQuery {
	t.Helper()
	q, err := planner.Compile(context.Background(), query.Scan(input), query.UserContext{}, planner.Deps{}, sqlbuilder.PlaceholderQuestion)
	if err != nil {
		t.Fatalf("Compile(%q): %v", input, err)
	}
	return q
}

func fetchReq() PageRequest {
	return PageRequest{
		Limit:                20,
		FirstScanTimeout:     time.Second,
		SmallSearchThreshold: 1000,
	}
}

func TestFetchPageUnknownEstimateRetriesOnce(t *testing.T) {
	fa := &fakeAdapter{errs: []error{context.DeadlineExceeded}}
	exec := NewExecutor(fa, nil)

	_, _, err := exec.FetchPage(context.Background(), compileForFetch(t, "touhou"), fetchReq())
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(fa.hints) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(fa.hints))
	}
	if fa.hints[0] != (storage.ScanHints{}) {
		t.Errorf("first attempt must be unhinted, got %#v", fa.hints[0])
	}
	if fa.hints[1] != storage.ForceBitmapScan {
		t.Errorf("retry must force the bitmap path, got %#v", fa.hints[1])
	}
}

func TestFetchPageSecondTimeoutIsNotRetried(t *testing.T) {
	fa := &fakeAdapter{errs: []error{context.DeadlineExceeded, context.DeadlineExceeded}}
	exec := NewExecutor(fa, nil)

	_, _, err := exec.FetchPage(context.Background(), compileForFetch(t, "touhou"), fetchReq())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the second timeout to surface, got %v", err)
	}
	if len(fa.hints) != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", len(fa.hints))
	}
}

func TestFetchPageOtherErrorIsNotRetried(t *testing.T) {
	boom := errors.New("boom")
	fa := &fakeAdapter{errs: []error{boom}}
	exec := NewExecutor(fa, nil)

	_, _, err := exec.FetchPage(context.Background(), compileForFetch(t, "touhou"), fetchReq())
	if !errors.Is(err, boom) {
		t.Fatalf("expected the execution error, got %v", err)
	}
	if len(fa.hints) != 1 {
		t.Fatalf("non-timeout failures must not retry, got %d attempts", len(fa.hints))
	}
}

func TestFetchPageCanceledContextIsNotRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fa := &fakeAdapter{errs: []error{context.DeadlineExceeded}}
	exec := NewExecutor(fa, nil)

	_, _, err := exec.FetchPage(ctx, compileForFetch(t, "touhou"), fetchReq())
	if err == nil {
		t.Fatal("expected an error under a canceled context")
	}
	if len(fa.hints) != 1 {
		t.Fatalf("a dead caller context must not retry, got %d attempts", len(fa.hints))
	}
}

func TestFetchPageSmallEstimateForcesHints(t *testing.T) {
	fa := &fakeAdapter{}
	exec := NewExecutor(fa, nil)

	req := fetchReq()
	req.EstimateKnown = true
	req.EstimatedCount = 10
	if _, _, err := exec.FetchPage(context.Background(), compileForFetch(t, "touhou"), req); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(fa.hints) != 1 || fa.hints[0] != storage.ForceBitmapScan {
		t.Errorf("small searches go straight to the forced path, got %#v", fa.hints)
	}
}

func TestFetchPageLargeEstimateRunsPlain(t *testing.T) {
	fa := &fakeAdapter{}
	exec := NewExecutor(fa, nil)

	req := fetchReq()
	req.EstimateKnown = true
	req.EstimatedCount = 50000
	if _, _, err := exec.FetchPage(context.Background(), compileForFetch(t, "touhou"), req); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(fa.hints) != 1 || fa.hints[0] != (storage.ScanHints{}) {
		t.Errorf("large searches keep the generic plan, got %#v", fa.hints)
	}
}

func TestFetchPageNonDefaultOrderSkipsStrategy(t *testing.T) {
	fa := &fakeAdapter{}
	exec := NewExecutor(fa, nil)

	// Unknown estimate, but not an id-ordered search: one plain attempt.
	if _, _, err := exec.FetchPage(context.Background(), compileForFetch(t, "touhou order:score"), fetchReq()); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(fa.hints) != 1 || fa.hints[0] != (storage.ScanHints{}) {
		t.Errorf("non-id orders bypass the strategy, got %#v", fa.hints)
	}
}

func TestFetchPageForcedEmptyDoesNotExecute(t *testing.T) {
	fa := &fakeAdapter{}
	exec := NewExecutor(fa, nil)

	posts, _, err := exec.FetchPage(context.Background(), compileForFetch(t, "order:custom"), fetchReq())
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(posts) != 0 || len(fa.hints) != 0 {
		t.Errorf("forced-empty queries must not reach storage, got %d attempts", len(fa.hints))
	}
}
