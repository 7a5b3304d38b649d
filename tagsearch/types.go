package tagsearch

import (
	"time"

	"github.com/tagsearch/tagsearch/tagsearch/ops"
)

// Post is one result row, shaped from the posts table.
type Post = ops.Post

// SearchOptions configures one search invocation.
type SearchOptions struct {
	Limit int
	Page  int

	// ExactCount forces an uncached exact count instead of the estimate
	// cascade. Timeouts still degrade to unknown.
	ExactCount bool

	// CountTimeout bounds the time-boxed exact-count fallback.
	CountTimeout time.Duration

	// FirstScanTimeout bounds the optimistic first execution when the
	// result-size estimate is unknown.
	FirstScanTimeout time.Duration

	// SmallSearchThreshold is the estimated count at or under which the
	// forced tag-index scan path is used for id-ordered queries.
	SmallSearchThreshold int64

	Explain bool
}

// DefaultSearchOptions returns sensible defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:                DefaultPageLimit,
		Page:                 1,
		CountTimeout:         DefaultCountTimeout,
		FirstScanTimeout:     DefaultFirstScanTimeout,
		SmallSearchThreshold: DefaultSmallSearchThreshold,
	}
}

// Result is one executed page of a search.
type Result struct {
	Posts []Post

	// Total is the estimated or exact result count; nil when unknown.
	Total *int64

	// Canonical is the normalized serialization of the executed query,
	// suitable for redisplay and bookmarking.
	Canonical string

	ExplainSQL string
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Now            func() time.Time
	CountCacheSize int
	CountCacheTTL  time.Duration
}

// DefaultEngineOptions returns sensible defaults.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		Now:            time.Now,
		CountCacheSize: DefaultCountCacheSize,
		CountCacheTTL:  DefaultCountCacheTTL,
	}
}
