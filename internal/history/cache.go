package history

import (
	"container/list"
	"sync"
	"time"

	"judgeview/internal/api"
)

type cacheEntry struct {
	key       pageKey
	value     *api.SubmissionPage
	expiresAt time.Time
}

type pageKey struct {
	problemID string
	page      int
	limit     int
}

// pageCache is a small LRU with TTL for history pages, keyed by
// (problemId, page, limit).
type pageCache struct {
	mu      sync.Mutex
	items   map[pageKey]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration
}

func newPageCache(maxSize int, ttl time.Duration) *pageCache {
	if maxSize <= 0 {
		maxSize = 64
	}
	return &pageCache{
		items:   make(map[pageKey]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func (c *pageCache) Get(key pageKey) (*api.SubmissionPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
			c.removeElement(elem)
			return nil, false
		}
		c.order.MoveToFront(elem)
		return entry.value, true
	}
	return nil, false
}

func (c *pageCache) Set(key pageKey, value *api.SubmissionPage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp := time.Time{}
	if c.ttl > 0 {
		exp = time.Now().Add(c.ttl)
	}

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = exp
		c.order.MoveToFront(elem)
		return
	}

	entry := &cacheEntry{key: key, value: value, expiresAt: exp}
	elem := c.order.PushFront(entry)
	c.items[key] = elem
	if len(c.items) > c.maxSize {
		c.evictOldest()
	}
}

// DeleteProblem drops every cached page for one problem.
func (c *pageCache) DeleteProblem(problemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, elem := range c.items {
		if key.problemID == problemID {
			c.removeElement(elem)
		}
	}
}

func (c *pageCache) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	c.removeElement(elem)
}

func (c *pageCache) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	delete(c.items, entry.key)
	c.order.Remove(elem)
}
