package usecase

import "time"

// FilterCandidates is exported for testing
var FilterCandidates = filterCandidates

// BuildSearchQuery is exported for testing
var BuildSearchQuery = (*UseCases).buildSearchQuery

// IngestDocument is exported for testing
var IngestDocument = (*UseCases).ingestDocument

// ContextCache is exported for testing
type ContextCache = contextCache

// NewContextCache is exported for testing
func NewContextCache(ttl time.Duration) *ContextCache {
	return newContextCache(ttl)
}

// Cache accessors exported for testing
var (
	CacheGet   = (*contextCache).get
	CachePut   = (*contextCache).put
	CacheClear = (*contextCache).clear
	CacheSize  = (*contextCache).size
)

// Cache returns the context cache for testing
func (uc *UseCases) Cache() *ContextCache {
	return uc.cache
}

// Cache limits exported for testing
const (
	ContextCacheMax   = contextCacheMax
	ContextCacheEvict = contextCacheEvict
)
