package dynlib

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Chain dispatches to a loader by file extension.
type Chain struct {
	mu       sync.RWMutex
	byExt    map[string]Loader
	fallback Loader
}

// NewChain creates a chain that uses fallback for unmatched extensions.
// fallback may be nil.
func NewChain(fallback Loader) *Chain {
	return &Chain{byExt: make(map[string]Loader), fallback: fallback}
}

// Handle routes paths ending in ext (".wasm", ".so") to l.
func (c *Chain) Handle(ext string, l Loader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byExt[strings.ToLower(ext)] = l
}

func (c *Chain) Load(ctx context.Context, path string) (Library, error) {
	c.mu.RLock()
	l, ok := c.byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		l = c.fallback
	}
	c.mu.RUnlock()
	if l == nil {
		return nil, fmt.Errorf("%w: no loader for %s", ErrNotFound, path)
	}
	return l.Load(ctx, path)
}
