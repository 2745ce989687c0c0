package cache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type stringKey string

func (k stringKey) CacheKey() string { return string(k) }

func TestGetReturnsSetValue(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New[int](clock, 10*time.Minute)

	c.Set(stringKey("a"), 42)

	got, ok := c.Get(stringKey("a"))
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestGetMissesUnknownKey(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New[int](clock, 10*time.Minute)

	if _, ok := c.Get(stringKey("missing")); ok {
		t.Fatal("expected cache miss")
	}
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New[string](clock, 10*time.Minute)

	c.Set(stringKey("a"), "value")

	clock.Advance(10*time.Minute - time.Second)
	if _, ok := c.Get(stringKey("a")); !ok {
		t.Fatal("entry expired before TTL elapsed")
	}

	clock.Advance(2 * time.Second)
	if _, ok := c.Get(stringKey("a")); ok {
		t.Fatal("entry still live after TTL elapsed")
	}
}

func TestSetOverwritesAndExtends(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New[string](clock, time.Minute)

	c.Set(stringKey("a"), "old")
	clock.Advance(50 * time.Second)
	c.Set(stringKey("a"), "new")
	clock.Advance(30 * time.Second)

	got, ok := c.Get(stringKey("a"))
	if !ok {
		t.Fatal("expected cache hit after overwrite")
	}
	if got != "new" {
		t.Fatalf("got %q, want %q", got, "new")
	}
}

func TestSetDropsExpiredEntries(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New[int](clock, time.Minute)

	c.Set(stringKey("a"), 1)
	c.Set(stringKey("b"), 2)
	clock.Advance(2 * time.Minute)
	c.Set(stringKey("c"), 3)

	if n := c.Len(); n != 1 {
		t.Fatalf("got %d entries, want 1", n)
	}
}
