// Package cache keeps model completions keyed by prompt hash, with LRU
// eviction, a per-entry TTL and optional JSON persistence.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Entry is a cached completion with its expiry.
type Entry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Cache is a thread-safe LRU cache with TTL support.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	lru      *list.List
	now      func() time.Time
}

type item struct {
	key   string
	entry Entry
}

// New creates a cache holding at most capacity entries for ttl each.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element, capacity),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Key hashes a prompt into a cache key.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the live value for key and marks it recently used.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return "", false
	}
	it := elem.Value.(*item)
	if c.now().After(it.entry.ExpiresAt) {
		c.lru.Remove(elem)
		delete(c.items, key)
		return "", false
	}
	c.lru.MoveToFront(elem)
	return it.entry.Value, true
}

// Set stores value under key, evicting the least recently used entry when full.
func (c *Cache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry{Value: value, ExpiresAt: c.now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		elem.Value.(*item).entry = entry
		c.lru.MoveToFront(elem)
		return
	}
	c.items[key] = c.lru.PushFront(&item{key: key, entry: entry})
	c.evict()
}

func (c *Cache) evict() {
	for c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.items, oldest.Value.(*item).key)
	}
}

// Len returns the number of entries, expired ones included until touched.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Dump snapshots the cache for persistence.
func (c *Cache) Dump() map[string]Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Entry, len(c.items))
	for k, elem := range c.items {
		out[k] = elem.Value.(*item).entry
	}
	return out
}

// Restore replaces the contents with dump, skipping expired entries.
func (c *Cache) Restore(dump map[string]Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Init()
	c.items = make(map[string]*list.Element, c.capacity)
	now := c.now()
	for k, e := range dump {
		if now.After(e.ExpiresAt) {
			continue
		}
		c.items[k] = c.lru.PushFront(&item{key: k, entry: e})
	}
	c.evict()
}

// Load restores the cache from a JSON file written by Save. A missing file
// leaves the cache empty.
func (c *Cache) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var dump map[string]Entry
	if err := json.Unmarshal(data, &dump); err != nil {
		return fmt.Errorf("decode cache %s: %w", path, err)
	}
	c.Restore(dump)
	return nil
}

// Save writes the cache to path through a temp file and rename.
func (c *Cache) Save(path string) error {
	data, err := json.Marshal(c.Dump())
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
