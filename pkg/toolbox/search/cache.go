package search

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type cacheEntry struct {
	Results *Results
	Created time.Time
	element *list.Element
}

// CachingSearcher keeps the most recently used results in memory. Failed
// searches are never cached, and entries older than the TTL are refetched.
type CachingSearcher struct {
	searcher Searcher
	cache    map[string]cacheEntry
	lruList  *list.List
	maxSize  int
	ttl      time.Duration
	now      func() time.Time
	mu       sync.Mutex
}

var _ Searcher = (*CachingSearcher)(nil)

type CacheOption func(*CachingSearcher)

func WithMaxSize(size int) CacheOption {
	return func(c *CachingSearcher) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// WithTTL expires entries after d. Zero keeps them until evicted.
func WithTTL(d time.Duration) CacheOption {
	return func(c *CachingSearcher) {
		if d >= 0 {
			c.ttl = d
		}
	}
}

func withClock(now func() time.Time) CacheOption {
	return func(c *CachingSearcher) { c.now = now }
}

func NewCachingSearcher(s Searcher, opts ...CacheOption) *CachingSearcher {
	c := &CachingSearcher{
		searcher: s,
		cache:    make(map[string]cacheEntry),
		lruList:  list.New(),
		maxSize:  DefaultCacheSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachingSearcher) Name() string { return c.searcher.Name() }

func cacheKey(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (c *CachingSearcher) readEntry(key string) (*Results, bool) {
	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.Created) >= c.ttl {
		delete(c.cache, key)
		c.lruList.Remove(entry.element)
		return nil, false
	}
	c.lruList.MoveToFront(entry.element)
	return entry.Results, true
}

func (c *CachingSearcher) writeEntry(key string, results *Results) {
	if entry, ok := c.cache[key]; ok {
		c.lruList.MoveToFront(entry.element)
		entry.Results = results
		entry.Created = c.now()
		c.cache[key] = entry
		return
	}
	if c.lruList.Len() >= c.maxSize {
		if oldest := c.lruList.Back(); oldest != nil {
			delete(c.cache, oldest.Value.(string))
			c.lruList.Remove(oldest)
		}
	}
	element := c.lruList.PushFront(key)
	c.cache[key] = cacheEntry{Results: results, Created: c.now(), element: element}
}

func (c *CachingSearcher) Search(ctx context.Context, query string) (*Results, error) {
	key := cacheKey(query)

	c.mu.Lock()
	results, ok := c.readEntry(key)
	c.mu.Unlock()
	if ok {
		log.Debug().Str("backend", c.Name()).Str("query", query).Msg("search cache hit")
		return results, nil
	}

	results, err := c.searcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.writeEntry(key, results)
	c.mu.Unlock()
	return results, nil
}

func (c *CachingSearcher) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
	c.lruList.Init()
}

func (c *CachingSearcher) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}
