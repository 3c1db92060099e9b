package data

import (
	"sync"

	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// MemoryCache is an in-memory BarCache. Stored and returned slices are
// copies.
type MemoryCache struct {
	mu    sync.RWMutex
	cache map[string][]types.Bar
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{cache: make(map[string][]types.Bar)}
}

func (c *MemoryCache) Get(key string) ([]types.Bar, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bars, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	out := make([]types.Bar, len(bars))
	copy(out, bars)
	return out, true
}

func (c *MemoryCache) Set(key string, bars []types.Bar) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached := make([]types.Bar, len(bars))
	copy(cached, bars)
	c.cache[key] = cached
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string][]types.Bar)
}

func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// CachedProvider wraps a BarProvider with a cache keyed by source.
type CachedProvider struct {
	provider BarProvider
	cache    BarCache
}

// NewCachedProvider wraps provider with a MemoryCache.
func NewCachedProvider(provider BarProvider) *CachedProvider {
	return &CachedProvider{provider: provider, cache: NewMemoryCache()}
}

// Name returns the wrapped provider's name.
func (p *CachedProvider) Name() string {
	return "cached-" + p.provider.Name()
}

// LoadBars returns cached bars for source or loads and caches them.
func (p *CachedProvider) LoadBars(source string) ([]types.Bar, error) {
	if bars, ok := p.cache.Get(source); ok {
		return bars, nil
	}
	bars, err := p.provider.LoadBars(source)
	if err != nil {
		return nil, err
	}
	p.cache.Set(source, bars)
	return bars, nil
}

// Cache returns the underlying cache.
func (p *CachedProvider) Cache() BarCache {
	return p.cache
}
