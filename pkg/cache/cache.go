// Package cache provides an LRU cache of analysis reports with disk
// persistence.
package cache

import (
	"sync"
	"time"
)

// Entry is a cached value with metadata.
type Entry[V any] struct {
	Key        string    `msgpack:"key"`
	Value      V         `msgpack:"value"`
	AccessedAt time.Time `msgpack:"accessed_at"`
	CreatedAt  time.Time `msgpack:"created_at"`
}

// Stats counts cache lookups.
type Stats struct {
	Hits      int64 `json:"hits" yaml:"hits"`
	Misses    int64 `json:"misses" yaml:"misses"`
	Evictions int64 `json:"evictions" yaml:"evictions"`
	Entries   int   `json:"entries" yaml:"entries"`
}

// LRU is an in-memory least-recently-used cache safe for concurrent use.
type LRU[V any] struct {
	mu      sync.Mutex
	items   map[string]*listItem[V]
	lru     list[V] // most recent at head
	maxSize int
	stats   Stats
	onEvict func(key string, value V)
}

type listItem[V any] struct {
	Entry[V]
	prev, next *listItem[V]
}

type list[V any] struct {
	head, tail *listItem[V]
	len        int
}

func (l *list[V]) unlink(item *listItem[V]) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		l.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		l.tail = item.prev
	}
	item.prev, item.next = nil, nil
	l.len--
}

func (l *list[V]) pushFront(item *listItem[V]) {
	item.prev = nil
	item.next = l.head
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

func (l *list[V]) moveToFront(item *listItem[V]) {
	if item == l.head {
		return
	}
	l.unlink(item)
	l.pushFront(item)
}

// Options configures an LRU cache.
type Options[V any] struct {
	// MaxSize is the maximum number of entries. 0 means unlimited.
	MaxSize int
	// OnEvict is called when an entry is evicted to make room.
	OnEvict func(key string, value V)
}

// New creates an LRU cache.
func New[V any](opts Options[V]) *LRU[V] {
	return &LRU[V]{
		items:   make(map[string]*listItem[V]),
		maxSize: opts.MaxSize,
		onEvict: opts.OnEvict,
	}
}

// Get retrieves a value and marks it as recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	return item.Value, true
}

// Set stores a value, evicting the least recently used entries when the
// cache is full.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if item, exists := c.items[key]; exists {
		item.Value = value
		item.AccessedAt = now
		c.lru.moveToFront(item)
		return
	}

	item := &listItem[V]{Entry: Entry[V]{Key: key, Value: value, AccessedAt: now, CreatedAt: now}}
	c.items[key] = item
	c.lru.pushFront(item)
	c.evictIfNeeded()
}

// Delete removes a key.
func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, found := c.items[key]; found {
		c.lru.unlink(item)
		delete(c.items, key)
	}
}

// Clear removes every entry.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem[V])
	c.lru = list[V]{}
}

func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.items)
	return s
}

func (c *LRU[V]) evictIfNeeded() {
	for c.maxSize > 0 && c.lru.len > c.maxSize {
		item := c.lru.tail
		c.lru.unlink(item)
		delete(c.items, item.Key)
		c.stats.Evictions++
		if c.onEvict != nil {
			c.onEvict(item.Key, item.Value)
		}
	}
}

// entries returns the entries from least to most recently used.
func (c *LRU[V]) entries() []Entry[V] {
	out := make([]Entry[V], 0, c.lru.len)
	for item := c.lru.tail; item != nil; item = item.prev {
		out = append(out, item.Entry)
	}
	return out
}

// restore replaces the content with entries ordered from least to most
// recently used.
func (c *LRU[V]) restore(entries []Entry[V]) {
	c.items = make(map[string]*listItem[V])
	c.lru = list[V]{}
	for _, e := range entries {
		item := &listItem[V]{Entry: e}
		if old, exists := c.items[e.Key]; exists {
			c.lru.unlink(old)
		}
		c.items[e.Key] = item
		c.lru.pushFront(item)
	}
	c.evictIfNeeded()
}
