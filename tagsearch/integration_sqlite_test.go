package tagsearch_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tagsearch/tagsearch/tagsearch"
	"github.com/tagsearch/tagsearch/tagsearch/query"
	"github.com/tagsearch/tagsearch/tagsearch/storage/sqlite"
	_ "modernc.org/sqlite"
)

func newEngine(t *testing.T) *tagsearch.Engine {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	e, err := tagsearch.Open(context.Background(), sqlite.New(dbPath), tagsearch.DefaultEngineOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })

	if err := e.CreateSchema(context.Background()); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	return e
}

// seedFixture loads a small corpus: three live posts, one deleted, two
// users with favorites, a pool, an alias, and a saved search.
func seedFixture(t *testing.T, e *tagsearch.Engine) {
	t.Helper()
	ctx := context.Background()
	s := e.Store()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	post := func(id int64, tags string, score int64, rating string, deleted bool) {
		t.Helper()
		err := s.InsertPost(ctx, tagsearch.Post{
			ID:        id,
			CreatedAt: base.Add(time.Duration(id) * time.Hour),
			UpdatedAt: base.Add(time.Duration(id) * time.Hour),
			Uploader:  1,
			Score:     score,
			Rating:    rating,
			FileExt:   "jpg",
			FileSize:  1024 * id,
			Width:     800,
			Height:    600,
			TagString: tags,
			IsDeleted: deleted,
		})
		if err != nil {
			t.Fatalf("InsertPost(%d): %v", id, err)
		}
	}

	post(1, "touhou solo", 5, "s", false)
	post(2, "touhou landscape", 15, "q", false)
	post(3, "landscape scenery", 20, "e", false)
	post(4, "touhou solo", 0, "e", true)

	for name, count := range map[string]int64{
		"touhou": 3, "solo": 2, "landscape": 2, "scenery": 1,
	} {
		if err := s.PutTag(ctx, name, 0, count); err != nil {
			t.Fatalf("PutTag(%s): %v", name, err)
		}
	}
	if err := s.PutAlias(ctx, "2hu", "touhou"); err != nil {
		t.Fatalf("PutAlias: %v", err)
	}
	if err := s.PutUser(ctx, 1, "bob", 2, false); err != nil {
		t.Fatalf("PutUser: %v", err)
	}
	if err := s.PutUser(ctx, 2, "alice", 0, false); err != nil {
		t.Fatalf("PutUser: %v", err)
	}
	for _, postID := range []int64{1, 2} {
		if err := s.PutFavorite(ctx, 1, postID); err != nil {
			t.Fatalf("PutFavorite(%d): %v", postID, err)
		}
	}
	if err := s.PutPool(ctx, 1, "story", []int64{2, 1}); err != nil {
		t.Fatalf("PutPool: %v", err)
	}
	if err := s.PutSavedSearch(ctx, 1, "mine", "solo rating:s"); err != nil {
		t.Fatalf("PutSavedSearch: %v", err)
	}
}

func search(t *testing.T, e *tagsearch.Engine, input string, uctx query.UserContext, opts tagsearch.SearchOptions) *tagsearch.Result {
	t.Helper()
	res, err := e.Search(context.Background(), input, uctx, opts)
	if err != nil {
		t.Fatalf("Search(%q): %v", input, err)
	}
	return res
}

func ids(posts []tagsearch.Post) []int64 {
	out := make([]int64, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func assertIDs(t *testing.T, got []tagsearch.Post, want ...int64) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("got posts %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got posts %v, want %v", g, want)
		}
	}
}

func TestSearchTagFilter_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	res := search(t, e, "touhou -solo", query.UserContext{}, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 2)
	if res.Total == nil || *res.Total != 1 {
		t.Fatalf("total = %v, want 1", res.Total)
	}
}

func TestSearchHideDeleted_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	uctx := query.UserContext{HideDeleted: true}
	res := search(t, e, "touhou", uctx, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 2, 1)

	// Explicit status intent overrides the implicit filter.
	res = search(t, e, "touhou status:deleted", uctx, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 4)
}

func TestSearchOrderScore_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	uctx := query.UserContext{HideDeleted: true}
	res := search(t, e, "touhou order:score", uctx, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 2, 1)

	res = search(t, e, "touhou order:score_asc", uctx, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 1, 2)
}

func TestSearchPagination_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	uctx := query.UserContext{HideDeleted: true}
	page1 := search(t, e, "touhou order:score", uctx, tagsearch.SearchOptions{Limit: 1, Page: 1})
	assertIDs(t, page1.Posts, 2)

	page2 := search(t, e, "touhou order:score", uctx, tagsearch.SearchOptions{Limit: 1, Page: 2})
	assertIDs(t, page2.Posts, 1)
}

func TestSearchScoreRange_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	res := search(t, e, "score:>=15", query.UserContext{}, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 3, 2)

	res = search(t, e, "score:5..15", query.UserContext{}, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 2, 1)
}

func TestSearchRating_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	res := search(t, e, "rating:questionable", query.UserContext{}, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 2)
}

func TestSearchWildcard_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	res := search(t, e, "tou*", query.UserContext{}, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 4, 2, 1)
}

func TestCountSingleTagFastPath_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	// A single plain tag reads the maintained tags.post_count instead of
	// scanning memberships.
	n, known, err := e.Count(context.Background(), "touhou", query.UserContext{}, tagsearch.SearchOptions{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if !known || n != 3 {
		t.Fatalf("count = %d, known = %v; want 3, true", n, known)
	}
}

func TestCountEmptyQuery_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	n, known, err := e.Count(context.Background(), "", query.UserContext{}, tagsearch.SearchOptions{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if !known || n != 4 {
		t.Fatalf("count = %d, known = %v; want 4, true", n, known)
	}
}

func TestNormalizeAlias_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	got, err := e.Normalize(context.Background(), "2hu solo", query.UserContext{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != "solo touhou" {
		t.Fatalf("Normalize = %q, want %q", got, "solo touhou")
	}
}

func TestSearchOrdPool_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	res := search(t, e, "ordpool:story", query.UserContext{}, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 2, 1)
}

func TestSearchFav_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	uctx := query.UserContext{CanViewFavorites: func(int64) bool { return true }}
	res := search(t, e, "fav:bob", uctx, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 2, 1)
}

func TestSearchFavHidden_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	// Nil CanViewFavorites denies; the search matches nothing.
	res := search(t, e, "fav:bob", query.UserContext{}, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts)
	if res.Total == nil || *res.Total != 0 {
		t.Fatalf("total = %v, want 0", res.Total)
	}
}

func TestSearchFavByID_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	// The numeric form resolves to the same rows as the name, and the
	// reported total agrees with the executed page.
	uctx := query.UserContext{CanViewFavorites: func(int64) bool { return true }}
	res := search(t, e, "fav:1", uctx, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 2, 1)
	if res.Total == nil || *res.Total != 2 {
		t.Fatalf("total = %v, want 2", res.Total)
	}
}

func TestSearchRatioZeroHeight_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	err := e.Store().InsertPost(context.Background(), tagsearch.Post{
		ID:        5,
		CreatedAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Uploader:  1,
		Rating:    "s",
		Width:     800,
		Height:    0,
		TagString: "scenery",
	})
	if err != nil {
		t.Fatalf("InsertPost: %v", err)
	}

	// The zero-height row must not abort the search; it just never matches.
	res := search(t, e, "ratio:>1", query.UserContext{}, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 4, 3, 2, 1)
}

func TestSearchTagLimit_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	tags := make([]string, 41)
	for i := range tags {
		tags[i] = fmt.Sprintf("t%d", i)
	}
	input := strings.Join(tags, " ")

	// Zero falls back to the engine default of 40 terms.
	_, err := e.Search(context.Background(), input, query.UserContext{}, tagsearch.SearchOptions{})
	if !tagsearch.IsKind(err, tagsearch.ErrTagLimit) {
		t.Fatalf("expected tag limit error, got %v", err)
	}

	// A negative limit disables the bound end to end.
	res := search(t, e, input, query.UserContext{TagLimit: -1}, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts)
}

func TestSavedSearch_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	uctx := query.UserContext{UserID: 1}
	res := search(t, e, "search:mine", uctx, tagsearch.SearchOptions{})
	assertIDs(t, res.Posts, 1)
}

func TestSearchExplain_SQLite(t *testing.T) {
	e := newEngine(t)
	seedFixture(t, e)

	res := search(t, e, "touhou", query.UserContext{}, tagsearch.SearchOptions{Explain: true})
	if res.ExplainSQL == "" {
		t.Fatal("expected executed SQL with Explain set")
	}
	if res.Canonical != "touhou" {
		t.Fatalf("canonical = %q", res.Canonical)
	}
}
