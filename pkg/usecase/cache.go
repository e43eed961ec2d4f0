package usecase

import (
	"sort"
	"sync"
	"time"

	"github.com/verdant-lab/pythia/pkg/domain/model"
)

const (
	// contextCacheMax caps the number of cached search queries; overflow
	// evicts the oldest contextCacheEvict entries in one sweep
	contextCacheMax   = 50
	contextCacheEvict = 10
)

type cachedContext struct {
	chunks   []*model.Chunk
	storedAt time.Time
}

// contextCache reuses retrieved context for repeated search queries, keyed
// by the exact search query text. Entries expire after the TTL; expiry is
// checked on read, so a hit is never stale.
type contextCache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]cachedContext
}

func newContextCache(ttl time.Duration) *contextCache {
	return &contextCache{
		ttl:     ttl,
		entries: make(map[string]cachedContext),
	}
}

func (c *contextCache) get(query string) ([]*model.Chunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[query]
	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) >= c.ttl {
		delete(c.entries, query)
		return nil, false
	}

	return entry.chunks, true
}

func (c *contextCache) put(query string, chunks []*model.Chunk) {
	if len(chunks) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[query] = cachedContext{chunks: chunks, storedAt: time.Now()}

	if len(c.entries) <= contextCacheMax {
		return
	}

	type aged struct {
		query    string
		storedAt time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for q, e := range c.entries {
		all = append(all, aged{query: q, storedAt: e.storedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].storedAt.Before(all[j].storedAt) })

	for i := 0; i < contextCacheEvict && i < len(all); i++ {
		delete(c.entries, all[i].query)
	}
}

// clear drops all cached contexts. Called after ingestion so answers never
// ground on a pre-refresh corpus.
func (c *contextCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedContext)
}

func (c *contextCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
