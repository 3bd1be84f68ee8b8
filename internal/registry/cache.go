package registry

import (
	"sync"
	"sync/atomic"
	"time"
)

// serverCache is a TTL in-memory cache with stale-while-revalidate for
// server entries. Lock-free reads via sync.Map on the lookup path.
type serverCache struct {
	store sync.Map // map[string]*serverCacheEntry
	ttl   time.Duration
}

type serverCacheEntry struct {
	entry      *ServerEntry // nil = negative cache (server not found)
	expiresAt  time.Time
	refreshing atomic.Bool
}

// cacheGetResult holds the result of a cache lookup.
type cacheGetResult struct {
	Entry        *ServerEntry
	Hit          bool
	NeedsRefresh bool // expired — caller should refresh in background
}

func newServerCache(ttl time.Duration) *serverCache {
	return &serverCache{ttl: ttl}
}

// get performs a non-blocking lookup. Stale entries are returned with
// NeedsRefresh=true; only one caller wins the refresh CAS.
func (c *serverCache) get(name string) cacheGetResult {
	val, ok := c.store.Load(name)
	if !ok {
		return cacheGetResult{}
	}

	e := val.(*serverCacheEntry)
	if time.Now().Before(e.expiresAt) {
		return cacheGetResult{Entry: e.entry, Hit: true}
	}

	needsRefresh := e.refreshing.CompareAndSwap(false, true)
	return cacheGetResult{Entry: e.entry, Hit: true, NeedsRefresh: needsRefresh}
}

// set stores an entry with a fresh TTL. nil stores a negative entry.
func (c *serverCache) set(name string, entry *ServerEntry) {
	c.store.Store(name, &serverCacheEntry{
		entry:     entry,
		expiresAt: time.Now().Add(c.ttl),
	})
}
