package ops

import (
	"testing"
	"time"
)

func TestCountCacheRoundTrip(t *testing.T) {
	c := newCountCache(16, time.Minute)
	k := c.key("touhou rating:s", 0, false)
	if _, ok := c.get(k); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	c.put(k, 42)
	got, ok := c.get(k)
	if !ok || got != 42 {
		t.Fatalf("get = %d, %v", got, ok)
	}
}

func TestCountCacheKeyIgnoresUserWhenShared(t *testing.T) {
	c := newCountCache(16, time.Minute)
	if c.key("touhou", 1, false) != c.key("touhou", 2, false) {
		t.Error("shared searches must not key per user")
	}
}

func TestCountCacheKeyPerUserWhenDependent(t *testing.T) {
	c := newCountCache(16, time.Minute)
	if c.key("fav:bob", 1, true) == c.key("fav:bob", 2, true) {
		t.Error("user-dependent searches must key per user")
	}
	if c.key("fav:bob", 1, true) == c.key("fav:bob", 1, false) {
		t.Error("dependent and shared keys must differ")
	}
}

func TestCountCacheDisabled(t *testing.T) {
	c := newCountCache(0, time.Minute)
	k := c.key("touhou", 0, false)
	c.put(k, 42)
	if _, ok := c.get(k); ok {
		t.Error("disabled cache must not store")
	}
}
