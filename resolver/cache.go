package resolver

import "github.com/wippyai/napi-host/host"

type cacheKey struct {
	pkg     string
	subpath string
}

// Cache holds the exports of addons already required in one engine. It is
// only used from that engine's script thread and is not synchronized.
type Cache struct {
	entries map[cacheKey]host.Value
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]host.Value)}
}

func (c *Cache) Lookup(packageName, subpath string) (host.Value, bool) {
	v, ok := c.entries[cacheKey{packageName, subpath}]
	return v, ok
}

func (c *Cache) Store(packageName, subpath string, v host.Value) {
	c.entries[cacheKey{packageName, subpath}] = v
}

func (c *Cache) Len() int { return len(c.entries) }
