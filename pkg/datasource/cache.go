package datasource

import (
	"time"

	"github.com/erni27/imcache"
	"github.com/mohae/deepcopy"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// Cache stores transformed option lists keyed by evaluated URL plus canonical
// auth serialization. Entries never expire unless a TTL is configured; callers
// needing invalidation use Clear. Both Get and Set work on defensive copies so
// callers can never mutate cached entries through returned slices.
type Cache struct {
	entries imcache.Cache[string, []descriptor.Item]
	ttl     time.Duration
}

// CacheOption customises cache construction.
type CacheOption func(*Cache)

// WithTTL sets an expiration on every stored entry. Zero keeps entries
// forever.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// NewCache constructs an empty response cache.
func NewCache(options ...CacheOption) *Cache {
	c := &Cache{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Get returns a copy of the cached items for key.
func (c *Cache) Get(key string) ([]descriptor.Item, bool) {
	if c == nil {
		return nil, false
	}
	items, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return copyItems(items), true
}

// Set stores a copy of items under key.
func (c *Cache) Set(key string, items []descriptor.Item) {
	if c == nil {
		return
	}
	expiration := imcache.WithNoExpiration()
	if c.ttl > 0 {
		expiration = imcache.WithExpiration(c.ttl)
	}
	c.entries.Set(key, copyItems(items), expiration)
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.entries.RemoveAll()
}

func copyItems(items []descriptor.Item) []descriptor.Item {
	if items == nil {
		return nil
	}
	return deepcopy.Copy(items).([]descriptor.Item)
}
