package ops

import (
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/zeebo/xxh3"
)

// countCache memoizes exact counts for a short window so repeated
// pagination of the same search does not recount.
type countCache struct {
	lru *expirable.LRU[uint64, int64]
}

func newCountCache(size int, ttl time.Duration) *countCache {
	if size <= 0 {
		return &countCache{}
	}
	return &countCache{lru: expirable.NewLRU[uint64, int64](size, nil, ttl)}
}

// key hashes the canonical query serialization. User-dependent searches
// (fav:, search:, moderation statuses) get per-user entries.
func (c *countCache) key(canonical string, userID int64, userDependent bool) uint64 {
	h := xxh3.New()
	_, _ = h.WriteString(canonical)
	if userDependent {
		_, _ = h.WriteString("\x00u")
		_, _ = h.WriteString(strconv.FormatInt(userID, 10))
	}
	return h.Sum64()
}

func (c *countCache) get(k uint64) (int64, bool) {
	if c.lru == nil {
		return 0, false
	}
	return c.lru.Get(k)
}

func (c *countCache) put(k uint64, count int64) {
	if c.lru != nil {
		c.lru.Add(k, count)
	}
}
