// ABOUTME: TTL caching decorator for compound.Service backed by go-cache
// ABOUTME: Collapses concurrent identical lookups with singleflight; errors are never cached

package compound

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Cache wraps a Service and memoizes successful lookups.
type Cache struct {
	next  Service
	items *cache.Cache
	group singleflight.Group
}

// Ensure Cache implements Service.
var _ Service = (*Cache)(nil)

// NewCache wraps next with a cache whose entries live for ttl. Expired
// entries are purged every cleanupInterval.
func NewCache(next Service, ttl, cleanupInterval time.Duration) *Cache {
	return &Cache{
		next:  next,
		items: cache.New(ttl, cleanupInterval),
	}
}

// ResolveByName returns a cached record for the case-insensitive term.
func (c *Cache) ResolveByName(ctx context.Context, term string) (Record, error) {
	key := "name:" + strings.ToLower(strings.TrimSpace(term))
	v, err := c.load(key, func() (any, error) {
		return c.next.ResolveByName(ctx, term)
	})
	if err != nil {
		return Record{}, err
	}
	rec := v.(Record)
	// The display name follows the caller's spelling, not the first caller's.
	rec.DisplayName = strings.TrimSpace(term)
	return rec, nil
}

// ResolveByID returns a cached record for id.
func (c *Cache) ResolveByID(ctx context.Context, id CID) (Record, error) {
	v, err := c.load("id:"+id.String(), func() (any, error) {
		return c.next.ResolveByID(ctx, id)
	})
	if err != nil {
		return Record{}, err
	}
	return v.(Record), nil
}

// Random always reaches the wrapped service.
func (c *Cache) Random(ctx context.Context) (Record, error) {
	return c.next.Random(ctx)
}

// Similar returns cached similarity results for (id, limit).
func (c *Cache) Similar(ctx context.Context, id CID, limit int) ([]CID, error) {
	key := fmt.Sprintf("similar:%s:%d", id, limit)
	v, err := c.load(key, func() (any, error) {
		return c.next.Similar(ctx, id, limit)
	})
	if err != nil {
		return nil, err
	}
	ids := v.([]CID)
	out := make([]CID, len(ids))
	copy(out, ids)
	return out, nil
}

// Len returns the number of cached entries, including expired ones not yet purged.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// Flush drops every cached entry.
func (c *Cache) Flush() {
	c.items.Flush()
}

func (c *Cache) load(key string, fetch func() (any, error)) (any, error) {
	if v, ok := c.items.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		c.items.Set(key, v, cache.DefaultExpiration)
		return v, nil
	})
	return v, err
}
