package expr

import (
	"container/list"
	"strings"
	"sync"
)

// DefaultCacheSize is the capacity of DefaultCache.
const DefaultCacheSize = 1024

// DefaultCache is the process-wide compiled expression cache shared by
// evaluators that are not given their own.
var DefaultCache = NewCache(DefaultCacheSize)

// Cache is a bounded LRU of compiled programs keyed by expression text and
// parameter names. Failed compilations are cached too, so a broken
// expression is parsed once.
type Cache struct {
	mu      sync.Mutex
	max     int
	entries map[string]*list.Element
	order   *list.List // front = most recently used
}

// cacheItem holds an entry in the LRU list.
type cacheItem struct {
	key  string
	prog *Program
	err  error
}

// NewCache creates a cache holding at most max programs. max <= 0 selects
// DefaultCacheSize.
func NewCache(max int) *Cache {
	if max <= 0 {
		max = DefaultCacheSize
	}
	return &Cache{
		max:     max,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// CacheKey builds the key for an expression compiled against params.
func CacheKey(text string, params []string) string {
	return text + "\x00" + strings.Join(params, ",")
}

// Get returns the cached compile result for key.
func (c *Cache) Get(key string) (prog *Program, err error, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, nil, false
	}
	c.order.MoveToFront(elem)
	item := elem.Value.(*cacheItem)
	return item.prog, item.err, true
}

// Put stores a compile result and returns how many entries were evicted
// to make room.
func (c *Cache) Put(key string, prog *Program, err error) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		item := elem.Value.(*cacheItem)
		item.prog, item.err = prog, err
		c.order.MoveToFront(elem)
		return 0
	}

	evicted := 0
	for c.order.Len() >= c.max {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheItem).key)
		evicted++
	}

	c.entries[key] = c.order.PushFront(&cacheItem{key: key, prog: prog, err: err})
	return evicted
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order = list.New()
}
