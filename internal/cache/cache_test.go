package cache

import (
	"testing"
	"time"
)

func TestScraperKeyStableForSameInputs(t *testing.T) {
	a := ScraperKey("Torrentio", "breaking bad s01e02", []string{"en"})
	b := ScraperKey("torrentio", "Breaking Bad S01E02", []string{"en"})
	if a != b {
		t.Fatalf("expected case-insensitive key stability, got %q vs %q", a, b)
	}

	c := ScraperKey("Torrentio", "breaking bad s01e03", []string{"en"})
	if a == c {
		t.Fatalf("expected different queries to produce different keys")
	}
}

func TestInProcessGetPutRoundTrip(t *testing.T) {
	store := NewInProcess(time.Minute)
	c := New(store)

	key := ScraperKey("zilean", "inception", nil)
	if _, _, hit := c.GetScraperResults(key); hit {
		t.Fatalf("expected miss before any put")
	}

	c.PutScraperResults(key, []int{1, 2, 3}, time.Minute)
	v, _, hit := c.GetScraperResults(key)
	if !hit {
		t.Fatalf("expected hit after put")
	}
	results, ok := v.([]int)
	if !ok || len(results) != 3 {
		t.Fatalf("unexpected cached value: %#v", v)
	}
}

func TestAvailabilityExpiresAfterTTL(t *testing.T) {
	store := NewInProcess(10 * time.Millisecond)
	c := New(store)
	key := AvailabilityKey("realdebrid", "abcd1234")

	c.PutAvailability(key, true, 20*time.Millisecond)
	if cached, ok := c.GetAvailability(key); !ok || !cached {
		t.Fatalf("expected immediate hit, got ok=%v cached=%v", ok, cached)
	}

	time.Sleep(60 * time.Millisecond)
	if _, ok := c.GetAvailability(key); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestGetManyAvailabilitySkipsMisses(t *testing.T) {
	store := NewInProcess(time.Minute)
	c := New(store)

	k1 := AvailabilityKey("realdebrid", "hash1")
	k2 := AvailabilityKey("realdebrid", "hash2")
	c.PutAvailability(k1, true, time.Minute)

	got := c.GetManyAvailability([]string{k1, k2})
	if len(got) != 1 || !got[k1] {
		t.Fatalf("expected only k1 present and true, got %#v", got)
	}
}
