package cache

import (
	"sync"

	"github.com/Konsultn-Engineering/dynsql/utils"
)

// CachedQuery is the final SQL of a template that needs no bindings.
type CachedQuery struct {
	SQL        string
	TemplateID string
	Dialect    string
}

// QueryCache stores resolved SQL for static templates.
type QueryCache interface {
	GetSQL(key uint64) (*CachedQuery, bool)
	SetSQL(key uint64, q *CachedQuery)
}

// QueryKey combines a template fingerprint with the dialect that rendered it.
func QueryKey(templateFP uint64, dialect string) uint64 {
	return utils.Mix64(templateFP, utils.FingerprintString(dialect))
}

type staticQueryCache struct {
	mu      sync.RWMutex
	queries map[uint64]*CachedQuery
}

func NewQueryCache() QueryCache {
	return &staticQueryCache{queries: make(map[uint64]*CachedQuery, 64)}
}

func (c *staticQueryCache) GetSQL(key uint64) (*CachedQuery, bool) {
	c.mu.RLock()
	q, ok := c.queries[key]
	c.mu.RUnlock()
	return q, ok
}

func (c *staticQueryCache) SetSQL(key uint64, q *CachedQuery) {
	c.mu.Lock()
	c.queries[key] = q
	c.mu.Unlock()
}
