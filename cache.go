package pubstatic

import (
	"sync"
	"time"

	"github.com/eringen/pubstatic/posts"
)

// summarySource is what the cache reads through to.
type summarySource interface {
	SortedPostsData() ([]posts.Summary, error)
}

// SummaryCache is an in-memory cache of the sorted post listing with TTL.
// A zero TTL disables caching and every call reads the directory.
type SummaryCache struct {
	mu        sync.RWMutex
	summaries []posts.Summary
	fetched   time.Time
	ttl       time.Duration
	source    summarySource
}

// NewSummaryCache creates a SummaryCache over the given repository.
func NewSummaryCache(src summarySource, ttl time.Duration) *SummaryCache {
	return &SummaryCache{source: src, ttl: ttl}
}

func (c *SummaryCache) valid() bool {
	return c.summaries != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *SummaryCache) Invalidate() {
	c.mu.Lock()
	c.summaries = nil
	c.mu.Unlock()
}

// Summaries returns the sorted listing, reloading it when stale. It tries a
// read lock first and only takes the write lock when a reload is needed.
func (c *SummaryCache) Summaries() ([]posts.Summary, error) {
	if c.ttl <= 0 {
		return c.source.SortedPostsData()
	}

	c.mu.RLock()
	if c.valid() {
		s := c.summaries
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.summaries, nil
	}
	s, err := c.source.SortedPostsData()
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = []posts.Summary{}
	}
	c.summaries = s
	c.fetched = time.Now()
	return s, nil
}
