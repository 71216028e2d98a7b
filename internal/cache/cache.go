// Package cache implements the two logical caches described in spec §4.3 —
// the per-scraper result cache and the per-(service, infoHash) debrid
// availability cache — on top of one physical key-value store.
//
// The store is pluggable: Store is a small interface so a future
// multi-instance deployment can swap the in-process implementation for a
// shared backend (Redis, etc.) without touching call sites. The in-process
// store does no I/O, and lookups carry no timeout of their own; an entry the
// store cannot return is treated as a miss so the aggregator can proceed as
// if uncached.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"log"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store is the minimal contract the cache layer needs: typed get/put of
// opaque values plus a multi-key read for batch availability lookups.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(key string) (value any, createdAt time.Time, ok bool)
	Put(key string, value any, ttl time.Duration)
	GetMany(keys []string) map[string]any
}

// InProcess is the default Store backend: github.com/patrickmn/go-cache's
// shard-free map with native per-key TTL and a background janitor, in place
// of the hand-rolled sync.RWMutex map + manual expiry loop the teacher used
// for its metadata cache.
type InProcess struct {
	c *gocache.Cache
}

// NewInProcess builds a store with cleanupInterval controlling how often
// expired entries are purged from memory (go-cache's janitor).
func NewInProcess(cleanupInterval time.Duration) *InProcess {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	return &InProcess{c: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

type entry struct {
	value     any
	createdAt time.Time
}

func (s *InProcess) Get(key string) (any, time.Time, bool) {
	raw, ok := s.c.Get(key)
	if !ok {
		return nil, time.Time{}, false
	}
	e, ok := raw.(entry)
	if !ok {
		return nil, time.Time{}, false
	}
	return e.value, e.createdAt, true
}

func (s *InProcess) Put(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	s.c.Set(key, entry{value: value, createdAt: time.Now()}, ttl)
}

func (s *InProcess) GetMany(keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, _, ok := s.Get(k); ok {
			out[k] = v
		}
	}
	return out
}

// Cache wraps a Store with the two namespaced key schemes spec §4.3 names.
// Scraper-result reads log hits and misses, metadata reads log misses, and
// puts are logged; availability reads and writes are not logged, and an
// expired entry is logged only as an ordinary miss.
type Cache struct {
	store Store
}

func New(store Store) *Cache {
	if store == nil {
		store = NewInProcess(5 * time.Minute)
	}
	return &Cache{store: store}
}

// ScraperKey builds the "scraper" namespace key: sha1(scraperName|query|langs).
func ScraperKey(scraperName, normalizedQuery string, languages []string) string {
	langKey := strings.Join(languages, ",")
	sum := sha1.Sum([]byte(strings.ToLower(scraperName) + "|" + strings.ToLower(normalizedQuery) + "|" + langKey))
	return "scraper:" + hex.EncodeToString(sum[:])
}

// AvailabilityKey builds the "debrid-cache" namespace key for one service+hash.
func AvailabilityKey(service, infoHash string) string {
	return "debrid-cache:" + strings.ToLower(service) + ":" + strings.ToLower(infoHash)
}

// MetaKey builds the "meta" namespace key for one (mediaType, imdbID) lookup.
func MetaKey(mediaType, imdbID string) string {
	return "meta:" + strings.ToLower(mediaType) + ":" + strings.ToLower(imdbID)
}

// GetMeta returns a cached metadata lookup if present and unexpired.
func (c *Cache) GetMeta(key string) (value any, hit bool) {
	v, _, ok := c.store.Get(key)
	if !ok {
		log.Printf("[cache] miss key=%s", key)
		return nil, false
	}
	return v, true
}

// PutMeta stores a resolved metadata lookup.
func (c *Cache) PutMeta(key string, value any, ttl time.Duration) {
	c.store.Put(key, value, ttl)
	log.Printf("[cache] put key=%s ttl=%s", key, ttl)
}

// GetScraperResults returns a cached result list if present and unexpired
// (the Store itself enforces TTL expiry; a miss here covers both "never
// cached" and "expired").
func (c *Cache) GetScraperResults(key string) (results any, createdAt time.Time, hit bool) {
	v, createdAt, ok := c.store.Get(key)
	if !ok {
		log.Printf("[cache] miss key=%s", key)
		return nil, time.Time{}, false
	}
	log.Printf("[cache] hit key=%s age=%s", key, time.Since(createdAt).Round(time.Second))
	return v, createdAt, true
}

// PutScraperResults stores a post-filter, post-dedup candidate list.
func (c *Cache) PutScraperResults(key string, results any, ttl time.Duration) {
	c.store.Put(key, results, ttl)
	log.Printf("[cache] put key=%s ttl=%s", key, ttl)
}

// GetAvailability returns the cached debrid-availability flag for one hash.
func (c *Cache) GetAvailability(key string) (cached bool, ok bool) {
	v, _, found := c.store.Get(key)
	if !found {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// PutAvailability stores an availability flag with a provider-configured TTL.
func (c *Cache) PutAvailability(key string, cached bool, ttl time.Duration) {
	c.store.Put(key, cached, ttl)
}

// GetManyAvailability batch-reads availability flags, skipping misses.
func (c *Cache) GetManyAvailability(keys []string) map[string]bool {
	raw := c.store.GetMany(keys)
	out := make(map[string]bool, len(raw))
	for k, v := range raw {
		if b, ok := v.(bool); ok {
			out[k] = b
		}
	}
	return out
}
