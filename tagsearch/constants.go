package tagsearch

import (
	"time"

	"github.com/tagsearch/tagsearch/tagsearch/planner"
)

const (
	// DefaultTagLimit is the per-query bound on non-exempt terms the engine
	// applies when UserContext.TagLimit is zero.
	DefaultTagLimit = 40

	// MaxWildcardExpansion caps how many tag names a single wildcard term
	// may expand to.
	MaxWildcardExpansion = planner.MaxWildcardExpansion

	DefaultPageLimit = 20
	MaxPageLimit     = 200

	// DefaultCountTimeout bounds the time-boxed exact count fallback.
	DefaultCountTimeout = 2 * time.Second

	// DefaultFirstScanTimeout bounds the optimistic first execution when the
	// result-size estimate is unknown.
	DefaultFirstScanTimeout = 3 * time.Second

	// DefaultSmallSearchThreshold is the estimated count at or under which
	// the forced tag-index scan path is used for id-ordered queries.
	DefaultSmallSearchThreshold = 25000

	DefaultCountCacheSize = 4096
	DefaultCountCacheTTL  = 5 * time.Minute
)
