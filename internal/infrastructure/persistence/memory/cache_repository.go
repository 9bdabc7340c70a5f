// Package memory provides in-memory cache repository implementation
package memory

import (
	"context"
	"time"

	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	lru "github.com/hashicorp/golang-lru"
)

const defaultTTL = 24 * time.Hour

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// CacheRepository is a size bounded LRU cache with per entry expiry
type CacheRepository struct {
	items *lru.Cache
	now   func() time.Time
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository creates a new in-memory cache holding at most size entries
func NewCacheRepository(size int) (*CacheRepository, error) {
	if size <= 0 {
		size = 512
	}

	items, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &CacheRepository{
		items: items,
		now:   time.Now,
	}, nil
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := r.items.Get(key)
	if !ok {
		return nil, outbound.ErrCacheMiss
	}

	item := v.(cacheItem)
	if r.now().After(item.expiresAt) {
		r.items.Remove(key)
		return nil, outbound.ErrCacheMiss
	}

	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// Set stores a value in cache with TTL. A zero TTL means one day.
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	r.items.Add(key, cacheItem{
		value:     stored,
		expiresAt: r.now().Add(ttl),
	})
	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.items.Remove(key)
	return nil
}

// Exists checks if a live key exists
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.Get(ctx, key)
	return err == nil, nil
}

// Len returns the number of entries, including expired ones not yet evicted
func (r *CacheRepository) Len() int {
	return r.items.Len()
}
